package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taskbill/internal/core/model"
)

type inMemoryOrganizationRepository struct {
	orgs  map[string]*model.Organization
	mutex sync.RWMutex
}

func NewInMemoryOrganizationRepository() OrganizationRepository {
	return &inMemoryOrganizationRepository{
		orgs: make(map[string]*model.Organization),
	}
}

func (r *inMemoryOrganizationRepository) Create(_ context.Context, org *model.Organization) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.orgs[org.ID]; exists {
		return fmt.Errorf("%w: organization with ID %s already exists", model.ErrConflict, org.ID)
	}
	c := *org
	r.orgs[org.ID] = &c
	return nil
}

func (r *inMemoryOrganizationRepository) Update(_ context.Context, org *model.Organization) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.orgs[org.ID]; !exists {
		return fmt.Errorf("%w: organization %s", model.ErrNotFound, org.ID)
	}
	c := *org
	r.orgs[org.ID] = &c
	return nil
}

func (r *inMemoryOrganizationRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.orgs, id)
	return nil
}

func (r *inMemoryOrganizationRepository) FindByID(_ context.Context, id string) (*model.Organization, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if org, exists := r.orgs[id]; exists {
		c := *org
		return &c, nil
	}
	return nil, nil
}

func (r *inMemoryOrganizationRepository) FindByIDs(_ context.Context, ids []string) ([]*model.Organization, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []*model.Organization{}
	for _, id := range ids {
		if org, exists := r.orgs[id]; exists {
			c := *org
			result = append(result, &c)
		}
	}
	sortOrganizations(result)
	return result, nil
}

func (r *inMemoryOrganizationRepository) FindAll(_ context.Context) ([]*model.Organization, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		c := *org
		result = append(result, &c)
	}
	sortOrganizations(result)
	return result, nil
}

func sortOrganizations(orgs []*model.Organization) {
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
}
