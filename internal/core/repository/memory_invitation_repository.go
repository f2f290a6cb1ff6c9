package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskbill/internal/core/model"
)

type inMemoryInvitationRepository struct {
	links map[string]*model.InvitationLink
	mutex sync.RWMutex
}

func NewInMemoryInvitationRepository() InvitationRepository {
	return &inMemoryInvitationRepository{
		links: make(map[string]*model.InvitationLink),
	}
}

func cloneInvitation(l *model.InvitationLink) *model.InvitationLink {
	c := *l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	if l.MaxUses != nil {
		n := *l.MaxUses
		c.MaxUses = &n
	}
	return &c
}

func (r *inMemoryInvitationRepository) Create(_ context.Context, link *model.InvitationLink) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.links[link.Token]; exists {
		return fmt.Errorf("%w: invitation token collision", model.ErrConflict)
	}
	r.links[link.Token] = cloneInvitation(link)
	return nil
}

func (r *inMemoryInvitationRepository) FindByToken(_ context.Context, token string) (*model.InvitationLink, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if link, exists := r.links[token]; exists {
		return cloneInvitation(link), nil
	}
	return nil, nil
}

func (r *inMemoryInvitationRepository) FindByOrganization(_ context.Context, orgID string) ([]*model.InvitationLink, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := []*model.InvitationLink{}
	for _, link := range r.links {
		if link.OrganizationID == orgID {
			result = append(result, cloneInvitation(link))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryInvitationRepository) Consume(_ context.Context, token string, now time.Time) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.links[token]
	if !exists {
		return false, nil
	}
	if ok, _ := link.Usable(now); !ok {
		return false, nil
	}
	link.UsedCount++
	return true, nil
}

func (r *inMemoryInvitationRepository) Deactivate(_ context.Context, token string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.links[token]
	if !exists || !link.Active {
		return false, nil
	}
	link.Active = false
	return true, nil
}

func (r *inMemoryInvitationRepository) Delete(_ context.Context, token string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.links[token]; !exists {
		return false, nil
	}
	delete(r.links, token)
	return true, nil
}

func (r *inMemoryInvitationRepository) DeleteByOrganization(_ context.Context, orgID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var n int64
	for token, link := range r.links {
		if link.OrganizationID == orgID {
			delete(r.links, token)
			n++
		}
	}
	return n, nil
}
