package handler

import (
	"net/http"

	"taskbill/internal/api/middleware"
	"taskbill/internal/api/util"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type TaskHandler struct {
	tasks service.TaskService
}

func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), middleware.IdentityFrom(r.Context()), orgFilter(r))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, tasks)
}

func (h *TaskHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListByProject(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "projectID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.TaskInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	task, err := h.tasks.Create(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "projectID"), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.Created(w, r, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "taskID"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.TaskUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}
	task, err := h.tasks.Update(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "taskID"), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "taskID")); err != nil {
		util.Error(w, r, err)
		return
	}
	util.NoContent(w, r)
}
