package handler

import (
	"net/http"

	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ProjectHandler struct {
	projects service.ProjectService
}

func NewProjectHandler(projects service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), middleware.IdentityFrom(r.Context()), orgFilter(r))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, projects)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	project, err := h.projects.Create(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "orgID"), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.Created(w, r, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	project, err := h.projects.Update(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "projectID"), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "projectID")); err != nil {
		util.Error(w, r, err)
		return
	}
	util.NoContent(w, r)
}

func (h *ProjectHandler) AssignMember(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.AssignMember(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, project)
}

func (h *ProjectHandler) UnassignMember(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.UnassignMember(r.Context(), middleware.IdentityFrom(r.Context()),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, project)
}
