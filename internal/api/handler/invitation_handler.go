package handler

import (
	"net/http"
	"time"

	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type InvitationHandler struct {
	invitations service.InvitationService
}

func NewInvitationHandler(invitations service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type issueRequest struct {
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	MaxUses   *int       `json:"maxUses,omitempty"`
}

func (h *InvitationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	link, err := h.invitations.Issue(r.Context(), middleware.IdentityFrom(r.Context()), service.IssueRequest{
		OrganizationID: chi.URLParam(r, "orgID"),
		Role:           req.Role,
		ExpiresAt:      req.ExpiresAt,
		MaxUses:        req.MaxUses,
	})
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.Created(w, r, link)
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.invitations.ListForOrganization(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, links)
}

func (h *InvitationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	changed, err := h.invitations.Deactivate(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "token"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, map[string]bool{"deactivated": changed})
}

func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.invitations.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "token"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, map[string]bool{"deleted": deleted})
}
