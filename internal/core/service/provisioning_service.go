package service

import (
	"context"
	"fmt"
	"log/slog"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
)

// ProvisioningService gives approved accounts without any organization a
// personal one, administered by that account. The core never calls it; the
// HTTP layer does when auto-provisioning is switched on.
type ProvisioningService interface {
	// ProvisionFor returns the created organization, or nil when the user
	// already belongs somewhere or is not approved yet.
	ProvisionFor(ctx context.Context, userID string) (*model.Organization, error)
}

type provisioningService struct {
	users       repository.UserRepository
	orgs        repository.OrganizationRepository
	members     repository.OrganizationMemberRepository
	memberships MembershipService
	logger      *slog.Logger
}

func NewProvisioningService(store *repository.Store, memberships MembershipService, opts ...Option) ProvisioningService {
	o := newOptions(opts)
	return &provisioningService{
		users:       store.Users,
		orgs:        store.Organizations,
		members:     store.Members,
		memberships: memberships,
		logger:      o.logger,
	}
}

func (s *provisioningService) ProvisionFor(ctx context.Context, userID string) (*model.Organization, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}
	if !user.IsApproved || user.IsOwner {
		return nil, nil
	}
	rows, err := s.members.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return nil, nil
	}

	org := model.NewOrganization(fmt.Sprintf("%s's organization", displayName(user)))
	org.Email = user.Email
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	if _, err := s.memberships.AddMember(ctx, user.ID, org.ID, string(model.RoleOrgAdmin)); err != nil {
		return nil, err
	}
	s.logger.Info("personal organization provisioned", "user", user.ID, "organization", org.ID)
	return org, nil
}
