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

type ProjectInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"memberIds,omitempty"`
}

type ProjectService interface {
	Create(ctx context.Context, actor *model.Identity, orgID string, in ProjectInput) (*model.Project, error)
	// Update changes name and description. The organization never changes.
	Update(ctx context.Context, actor *model.Identity, projectID string, in ProjectInput) (*model.Project, error)
	AssignMember(ctx context.Context, actor *model.Identity, projectID, userID string) (*model.Project, error)
	UnassignMember(ctx context.Context, actor *model.Identity, projectID, userID string) (*model.Project, error)
	Delete(ctx context.Context, actor *model.Identity, projectID string) error
	Get(ctx context.Context, actor *model.Identity, projectID string) (*model.Project, error)
	List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Project, error)
}

type projectService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	orgs     repository.OrganizationRepository
	members  repository.OrganizationMemberRepository
	logger   *slog.Logger
}

func NewProjectService(store *repository.Store, opts ...Option) ProjectService {
	o := newOptions(opts)
	return &projectService{
		projects: store.Projects,
		tasks:    store.Tasks,
		orgs:     store.Organizations,
		members:  store.Members,
		logger:   o.logger,
	}
}

func (s *projectService) Create(ctx context.Context, actor *model.Identity, orgID string, in ProjectInput) (*model.Project, error) {
	if err := requireOrgRole(actor, orgID, model.RoleLead); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", model.ErrValidation)
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", model.ErrNotFound, orgID)
	}

	project := model.NewProject(org.ID, name)
	project.Description = strings.TrimSpace(in.Description)
	for _, userID := range in.MemberIDs {
		if err := requireOrgMember(ctx, s.members, org.ID, userID); err != nil {
			return nil, err
		}
		project.AssignMember(userID)
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project", project.ID, "organization", org.ID, "by", actor.UserID)
	return project, nil
}

func (s *projectService) Update(ctx context.Context, actor *model.Identity, projectID string, in ProjectInput) (*model.Project, error) {
	project, err := s.mutable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		project.Name = name
	}
	project.Description = strings.TrimSpace(in.Description)
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) AssignMember(ctx context.Context, actor *model.Identity, projectID, userID string) (*model.Project, error) {
	project, err := s.managed(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireOrgMember(ctx, s.members, project.OrganizationID, userID); err != nil {
		return nil, err
	}
	if !project.AssignMember(userID) {
		return project, nil
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project member assigned", "project", project.ID, "user", userID)
	return project, nil
}

func (s *projectService) UnassignMember(ctx context.Context, actor *model.Identity, projectID, userID string) (*model.Project, error) {
	project, err := s.managed(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !project.UnassignMember(userID) {
		return project, nil
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project member unassigned", "project", project.ID, "user", userID)
	return project, nil
}

// Delete removes the project and its tasks. Only org-admins may do it.
func (s *projectService) Delete(ctx context.Context, actor *model.Identity, projectID string) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	project, err := s.visible(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if !actor.HasOrgRole(project.OrganizationID, model.RoleOrgAdmin) {
		return fmt.Errorf("%w: org-admin role required to delete projects", model.ErrForbidden)
	}
	n, err := s.tasks.DeleteByProject(ctx, project.ID)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		return err
	}
	s.logger.Info("project deleted", "project", project.ID, "tasks", n, "by", actor.UserID)
	return nil
}

func (s *projectService) Get(ctx context.Context, actor *model.Identity, projectID string) (*model.Project, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, projectID)
}

func (s *projectService) List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Project, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	candidates, err := candidateProjects(ctx, s.projects, actor)
	if err != nil {
		return nil, err
	}
	return visibility.Projects(actor, candidates, orgFilter), nil
}

// visible loads a project the actor can see. Anything else, including a
// project that does not exist, is ErrNotFound.
func (s *projectService) visible(ctx context.Context, actor *model.Identity, projectID string) (*model.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !visibility.CanAccessProject(actor, project) {
		return nil, fmt.Errorf("%w: project %s", model.ErrNotFound, projectID)
	}
	return project, nil
}

func (s *projectService) mutable(ctx context.Context, actor *model.Identity, projectID string) (*model.Project, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, projectID)
}

// managed loads a project whose membership the actor may change: lead or
// above in the project's organization.
func (s *projectService) managed(ctx context.Context, actor *model.Identity, projectID string) (*model.Project, error) {
	project, err := s.mutable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !actor.HasOrgRole(project.OrganizationID, model.RoleLead) {
		return nil, fmt.Errorf("%w: lead role required to manage project members", model.ErrForbidden)
	}
	return project, nil
}

// candidateProjects fetches every project the actor could possibly see;
// the visibility filter narrows it afterwards.
func candidateProjects(ctx context.Context, projects repository.ProjectRepository, actor *model.Identity) ([]*model.Project, error) {
	if actor.IsOwner() {
		return projects.FindAll(ctx)
	}
	return projects.FindByOrganizations(ctx, actor.OrganizationIDs())
}
