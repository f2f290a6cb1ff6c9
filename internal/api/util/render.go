package util

import (
	"errors"
	"net/http"

	"taskbill/internal/core/model"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	ErrorText string                 `json:"error"`
	Code      string                 `json:"code,omitempty"`
	Reason    model.InvitationReason `json:"reason,omitempty"`
}

func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrorFor maps core errors onto HTTP statuses. Anything unrecognised is a
// 500 whose detail is not exposed.
func ErrorFor(err error) *ErrorResponse {
	var inv *model.InvitationInvalidError
	switch {
	case errors.As(err, &inv):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusGone, ErrorText: err.Error(), Code: "invitation-invalid", Reason: inv.Reason}
	case errors.Is(err, model.ErrUnauthorized):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusUnauthorized, ErrorText: err.Error(), Code: "unauthorized"}
	case errors.Is(err, model.ErrAccountPendingApproval):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusForbidden, ErrorText: err.Error(), Code: "account-pending-approval"}
	case errors.Is(err, model.ErrForbidden):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusForbidden, ErrorText: err.Error(), Code: "forbidden"}
	case errors.Is(err, model.ErrValidation):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, ErrorText: err.Error(), Code: "validation"}
	case errors.Is(err, model.ErrNotFound):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusNotFound, ErrorText: err.Error(), Code: "not-found"}
	case errors.Is(err, model.ErrHasDependents):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusConflict, ErrorText: err.Error(), Code: "has-dependents"}
	case errors.Is(err, model.ErrConflict):
		return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusConflict, ErrorText: err.Error(), Code: "conflict"}
	}
	return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusInternalServerError, ErrorText: "Internal server error"}
}

// ErrInvalidRequest is used for bodies that do not decode.
func ErrInvalidRequest(err error) *ErrorResponse {
	return &ErrorResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, ErrorText: "Invalid request body", Code: "validation"}
}

// Error renders err with the status ErrorFor picks.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	render.Render(w, r, ErrorFor(err))
}

func JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	render.JSON(w, r, v)
}

func Created(w http.ResponseWriter, r *http.Request, v interface{}) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	render.NoContent(w, r)
}
