package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/core/visibility"
)

type TaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	AssigneeID  string  `json:"assigneeId,omitempty"`
	Hours       float64 `json:"hours,omitempty"`
}

// TaskUpdate changes only the fields that are set.
type TaskUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	AssigneeID  *string  `json:"assigneeId,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Hours       *float64 `json:"hours,omitempty"`
}

type TaskService interface {
	Create(ctx context.Context, actor *model.Identity, projectID string, in TaskInput) (*model.Task, error)
	Update(ctx context.Context, actor *model.Identity, taskID string, in TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, actor *model.Identity, taskID string) error
	Get(ctx context.Context, actor *model.Identity, taskID string) (*model.Task, error)
	ListByProject(ctx context.Context, actor *model.Identity, projectID string) ([]*model.Task, error)
	List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Task, error)
}

type taskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	members  repository.OrganizationMemberRepository
	logger   *slog.Logger
}

func NewTaskService(store *repository.Store, opts ...Option) TaskService {
	o := newOptions(opts)
	return &taskService{
		tasks:    store.Tasks,
		projects: store.Projects,
		members:  store.Members,
		logger:   o.logger,
	}
}

func (s *taskService) Create(ctx context.Context, actor *model.Identity, projectID string, in TaskInput) (*model.Task, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !visibility.CanAccessProject(actor, project) {
		return nil, fmt.Errorf("%w: project %s", model.ErrNotFound, projectID)
	}
	if !actor.HasOrgRole(project.OrganizationID, model.RoleLead) {
		return nil, fmt.Errorf("%w: lead role required to create tasks", model.ErrForbidden)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", model.ErrValidation)
	}
	if in.Hours < 0 {
		return nil, fmt.Errorf("%w: hours cannot be negative", model.ErrValidation)
	}
	if in.AssigneeID != "" {
		if err := requireOrgMember(ctx, s.members, project.OrganizationID, in.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := model.NewTask(project.ID, title)
	task.Description = strings.TrimSpace(in.Description)
	task.AssigneeID = in.AssigneeID
	task.Hours = in.Hours
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task", task.ID, "project", project.ID, "by", actor.UserID)
	return task, nil
}

func (s *taskService) Update(ctx context.Context, actor *model.Identity, taskID string, in TaskUpdate) (*model.Task, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	task, project, err := s.visible(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: task title is required", model.ErrValidation)
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		status := model.TaskStatus(*in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown task status %q", model.ErrValidation, *in.Status)
		}
		task.Status = status
	}
	if in.Hours != nil {
		if *in.Hours < 0 {
			return nil, fmt.Errorf("%w: hours cannot be negative", model.ErrValidation)
		}
		task.Hours = *in.Hours
	}
	if in.AssigneeID != nil && *in.AssigneeID != task.AssigneeID {
		if !actor.HasOrgRole(project.OrganizationID, model.RoleLead) {
			return nil, fmt.Errorf("%w: lead role required to reassign tasks", model.ErrForbidden)
		}
		if *in.AssigneeID != "" {
			if err := requireOrgMember(ctx, s.members, project.OrganizationID, *in.AssigneeID); err != nil {
				return nil, err
			}
		}
		task.AssigneeID = *in.AssigneeID
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor *model.Identity, taskID string) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	task, project, err := s.visible(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if !actor.HasOrgRole(project.OrganizationID, model.RoleOrgAdmin) {
		return fmt.Errorf("%w: org-admin role required to delete tasks", model.ErrForbidden)
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task", task.ID, "by", actor.UserID)
	return nil
}

func (s *taskService) Get(ctx context.Context, actor *model.Identity, taskID string) (*model.Task, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	task, _, err := s.visible(ctx, actor, taskID)
	return task, err
}

// ListByProject returns an empty list, not an error, for projects the
// actor has no access to.
func (s *taskService) ListByProject(ctx context.Context, actor *model.Identity, projectID string) ([]*model.Task, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return []*model.Task{}, nil
	}
	tasks, err := s.tasks.FindByProjects(ctx, []string{project.ID})
	if err != nil {
		return nil, err
	}
	return visibility.Tasks(actor, tasks, map[string]*model.Project{project.ID: project}, ""), nil
}

func (s *taskService) List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Task, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	projects, err := candidateProjects(ctx, s.projects, actor)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Project, len(projects))
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	tasks, err := s.tasks.FindByProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	return visibility.Tasks(actor, tasks, byID, orgFilter), nil
}

func (s *taskService) visible(ctx context.Context, actor *model.Identity, taskID string) (*model.Task, *model.Project, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	var project *model.Project
	if task != nil {
		if project, err = s.projects.FindByID(ctx, task.ProjectID); err != nil {
			return nil, nil, err
		}
	}
	if !visibility.CanAccessTask(actor, task, project) {
		return nil, nil, fmt.Errorf("%w: task %s", model.ErrNotFound, taskID)
	}
	return task, project, nil
}
