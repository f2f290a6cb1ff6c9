package handler

import (
	"net/http"

	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type OrganizationHandler struct {
	orgs        service.OrganizationService
	memberships service.MembershipService
}

func NewOrganizationHandler(orgs service.OrganizationService, memberships service.MembershipService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, memberships: memberships}
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List(r.Context(), middleware.IdentityFrom(r.Context()), orgFilter(r))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, orgs)
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.OrganizationInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	org, err := h.orgs.Create(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.Created(w, r, org)
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.OrganizationInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	org, err := h.orgs.Update(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID"), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, org)
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID")); err != nil {
		util.Error(w, r, err)
		return
	}
	util.NoContent(w, r)
}

func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.memberships.ListMembers(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, rows)
}

// PutMember adds a user to the organization or changes their role there.
func (h *OrganizationHandler) PutMember(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	row, err := h.memberships.Grant(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "userID"), chi.URLParam(r, "orgID"), req.Role)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, row)
}

func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	removed, err := h.memberships.Revoke(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "userID"), chi.URLParam(r, "orgID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, map[string]bool{"removed": removed})
}

// orgFilter reads the optional organizationId narrowing parameter.
func orgFilter(r *http.Request) string {
	return r.URL.Query().Get("organizationId")
}
