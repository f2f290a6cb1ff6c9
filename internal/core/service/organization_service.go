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

// OrganizationInput carries the editable fields of an organization.
type OrganizationInput struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type OrganizationService interface {
	Create(ctx context.Context, actor *model.Identity, in OrganizationInput) (*model.Organization, error)
	Update(ctx context.Context, actor *model.Identity, orgID string, in OrganizationInput) (*model.Organization, error)
	Get(ctx context.Context, actor *model.Identity, orgID string) (*model.Organization, error)
	List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Organization, error)
	// Delete refuses with model.ErrHasDependents while memberships or
	// projects still reference the organization.
	Delete(ctx context.Context, actor *model.Identity, orgID string) error
}

type organizationService struct {
	orgs        repository.OrganizationRepository
	members     repository.OrganizationMemberRepository
	projects    repository.ProjectRepository
	invitations repository.InvitationRepository
	memberships MembershipService
	logger      *slog.Logger
}

func NewOrganizationService(store *repository.Store, memberships MembershipService, opts ...Option) OrganizationService {
	o := newOptions(opts)
	return &organizationService{
		orgs:        store.Organizations,
		members:     store.Members,
		projects:    store.Projects,
		invitations: store.Invitations,
		memberships: memberships,
		logger:      o.logger,
	}
}

func (s *organizationService) Create(ctx context.Context, actor *model.Identity, in OrganizationInput) (*model.Organization, error) {
	if err := requireGlobalRole(actor, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	org, err := newOrganization(in)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	if _, err := s.memberships.AddMember(ctx, actor.UserID, org.ID, string(model.RoleOrgAdmin)); err != nil {
		return nil, err
	}
	s.logger.Info("organization created", "organization", org.ID, "by", actor.UserID)
	return org, nil
}

func newOrganization(in OrganizationInput) (*model.Organization, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", model.ErrValidation)
	}
	org := model.NewOrganization(name)
	org.Email = strings.TrimSpace(in.Email)
	org.Phone = strings.TrimSpace(in.Phone)
	org.Address = strings.TrimSpace(in.Address)
	return org, nil
}

func (s *organizationService) Update(ctx context.Context, actor *model.Identity, orgID string, in OrganizationInput) (*model.Organization, error) {
	if err := requireOrgRole(actor, orgID, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	org, err := s.find(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		org.Name = name
	}
	org.Email = strings.TrimSpace(in.Email)
	org.Phone = strings.TrimSpace(in.Phone)
	org.Address = strings.TrimSpace(in.Address)
	org.UpdatedAt = time.Now().UTC()

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Get hides organizations the actor cannot see behind ErrNotFound.
func (s *organizationService) Get(ctx context.Context, actor *model.Identity, orgID string) (*model.Organization, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	if _, ok := actor.RoleIn(orgID); !ok {
		return nil, fmt.Errorf("%w: organization %s", model.ErrNotFound, orgID)
	}
	return s.find(ctx, orgID)
}

func (s *organizationService) List(ctx context.Context, actor *model.Identity, orgFilter string) ([]*model.Organization, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	var (
		orgs []*model.Organization
		err  error
	)
	if actor.IsOwner() {
		orgs, err = s.orgs.FindAll(ctx)
	} else {
		orgs, err = s.orgs.FindByIDs(ctx, actor.OrganizationIDs())
	}
	if err != nil {
		return nil, err
	}
	return visibility.Organizations(actor, orgs, orgFilter), nil
}

func (s *organizationService) Delete(ctx context.Context, actor *model.Identity, orgID string) error {
	if err := requireOrgRole(actor, orgID, model.RoleOrgAdmin); err != nil {
		return err
	}
	if _, err := s.find(ctx, orgID); err != nil {
		return err
	}

	members, err := s.members.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	projects, err := s.projects.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if members > 0 || projects > 0 {
		return fmt.Errorf("%w: organization %s still has %d members and %d projects",
			model.ErrHasDependents, orgID, members, projects)
	}

	if n, err := s.invitations.DeleteByOrganization(ctx, orgID); err != nil {
		return err
	} else if n > 0 {
		s.logger.Debug("organization invitations removed", "organization", orgID, "count", n)
	}
	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return err
	}
	s.logger.Info("organization deleted", "organization", orgID, "by", actor.UserID)
	return nil
}

func (s *organizationService) find(ctx context.Context, orgID string) (*model.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", model.ErrNotFound, orgID)
	}
	return org, nil
}
