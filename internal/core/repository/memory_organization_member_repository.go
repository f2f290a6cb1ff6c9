package repository

import (
	"context"
	"fmt"
	"sync"

	"taskbill/internal/core/model"
)

type inMemoryOrganizationMemberRepository struct {
	members map[string]*model.OrganizationMember
	mutex   sync.RWMutex
}

func NewInMemoryOrganizationMemberRepository() OrganizationMemberRepository {
	return &inMemoryOrganizationMemberRepository{
		members: make(map[string]*model.OrganizationMember),
	}
}

func memberKey(userID, orgID string) string {
	return fmt.Sprintf("%s:%s", userID, orgID)
}

func (r *inMemoryOrganizationMemberRepository) Upsert(_ context.Context, member *model.OrganizationMember) (*model.OrganizationMember, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := memberKey(member.UserID, member.OrganizationID)
	if existing, exists := r.members[key]; exists {
		existing.Role = member.Role
		existing.UpdatedAt = member.UpdatedAt
		c := *existing
		return &c, nil
	}

	c := *member
	r.members[key] = &c
	out := c
	return &out, nil
}

func (r *inMemoryOrganizationMemberRepository) Delete(_ context.Context, userID, orgID string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := memberKey(userID, orgID)
	if _, exists := r.members[key]; !exists {
		return false, nil
	}
	delete(r.members, key)
	return true, nil
}

func (r *inMemoryOrganizationMemberRepository) FindByUserAndOrg(_ context.Context, userID, orgID string) (*model.OrganizationMember, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if member, exists := r.members[memberKey(userID, orgID)]; exists {
		c := *member
		return &c, nil
	}
	return nil, nil
}

func (r *inMemoryOrganizationMemberRepository) FindByUser(_ context.Context, userID string) ([]*model.OrganizationMember, error) {
	return r.filter(func(m *model.OrganizationMember) bool { return m.UserID == userID }), nil
}

func (r *inMemoryOrganizationMemberRepository) FindByOrganization(_ context.Context, orgID string) ([]*model.OrganizationMember, error) {
	return r.filter(func(m *model.OrganizationMember) bool { return m.OrganizationID == orgID }), nil
}

func (r *inMemoryOrganizationMemberRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	members, _ := r.FindByOrganization(ctx, orgID)
	return int64(len(members)), nil
}

func (r *inMemoryOrganizationMemberRepository) filter(keep func(*model.OrganizationMember) bool) []*model.OrganizationMember {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []*model.OrganizationMember{}
	for _, member := range r.members {
		if keep(member) {
			c := *member
			result = append(result, &c)
		}
	}
	return result
}
