package handler

import (
	"net/http"

	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/model"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type UserHandler struct {
	userService service.UserService
	approvals   service.ApprovalService
	memberships service.MembershipService
}

func NewUserHandler(userService service.UserService, approvals service.ApprovalService, memberships service.MembershipService) *UserHandler {
	return &UserHandler{
		userService: userService,
		approvals:   approvals,
		memberships: memberships,
	}
}

type roleRequest struct {
	Role string `json:"role"`
}

type meResponse struct {
	User        *model.User                 `json:"user"`
	Memberships []*model.OrganizationMember `json:"memberships"`
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFrom(r.Context())
	user, err := h.userService.GetUser(r.Context(), actor, actor.UserID)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	rows, err := h.memberships.ListOrganizationsFor(r.Context(), actor.UserID)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, meResponse{User: user, Memberships: rows})
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, user)
}

func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user, err := h.approvals.Approve(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, user)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	user, err := h.userService.ChangeRole(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "userID")); err != nil {
		util.Error(w, r, err)
		return
	}
	util.NoContent(w, r)
}
