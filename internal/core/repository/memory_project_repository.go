package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"taskbill/internal/core/model"
)

type inMemoryProjectRepository struct {
	projects map[string]*model.Project
	mutex    sync.RWMutex
}

func NewInMemoryProjectRepository() ProjectRepository {
	return &inMemoryProjectRepository{
		projects: make(map[string]*model.Project),
	}
}

func cloneProject(p *model.Project) *model.Project {
	c := *p
	c.MemberIDs = slices.Clone(p.MemberIDs)
	if c.MemberIDs == nil {
		c.MemberIDs = []string{}
	}
	return &c
}

func (r *inMemoryProjectRepository) Create(_ context.Context, project *model.Project) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.projects[project.ID]; exists {
		return fmt.Errorf("%w: project with ID %s already exists", model.ErrConflict, project.ID)
	}
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *inMemoryProjectRepository) Update(_ context.Context, project *model.Project) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.projects[project.ID]
	if !exists || existing.OrganizationID != project.OrganizationID {
		return fmt.Errorf("%w: project %s", model.ErrNotFound, project.ID)
	}
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *inMemoryProjectRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.projects, id)
	return nil
}

func (r *inMemoryProjectRepository) FindByID(_ context.Context, id string) (*model.Project, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if p, exists := r.projects[id]; exists {
		return cloneProject(p), nil
	}
	return nil, nil
}

func (r *inMemoryProjectRepository) FindByIDs(_ context.Context, ids []string) ([]*model.Project, error) {
	return r.filter(func(p *model.Project) bool { return slices.Contains(ids, p.ID) }), nil
}

func (r *inMemoryProjectRepository) FindByOrganizations(_ context.Context, orgIDs []string) ([]*model.Project, error) {
	return r.filter(func(p *model.Project) bool { return slices.Contains(orgIDs, p.OrganizationID) }), nil
}

func (r *inMemoryProjectRepository) FindAll(_ context.Context) ([]*model.Project, error) {
	return r.filter(func(*model.Project) bool { return true }), nil
}

func (r *inMemoryProjectRepository) CountByOrganization(_ context.Context, orgID string) (int64, error) {
	n := len(r.filter(func(p *model.Project) bool { return p.OrganizationID == orgID }))
	return int64(n), nil
}

func (r *inMemoryProjectRepository) filter(keep func(*model.Project) bool) []*model.Project {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []*model.Project{}
	for _, p := range r.projects {
		if keep(p) {
			result = append(result, cloneProject(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}
