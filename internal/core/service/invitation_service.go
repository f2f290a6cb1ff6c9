package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/core/util"
)

// tokenAttempts bounds regeneration after a token collision.
const tokenAttempts = 5

// Validation is the read-only verdict on a token.
type Validation struct {
	Valid          bool                   `json:"valid"`
	OrganizationID string                 `json:"organizationId,omitempty"`
	Role           model.Role             `json:"role,omitempty"`
	Reason         model.InvitationReason `json:"reason,omitempty"`
}

// IssueRequest describes a new invitation link. ExpiresAt and MaxUses are
// optional; nil means unbounded.
type IssueRequest struct {
	OrganizationID string
	Role           string
	ExpiresAt      *time.Time
	MaxUses        *int
}

type InvitationService interface {
	Issue(ctx context.Context, actor *model.Identity, req IssueRequest) (*model.InvitationLink, error)
	Validate(ctx context.Context, token string) (*Validation, error)
	// Consume takes one use of the token. It reports false, without
	// mutating anything, when the token was not usable at that instant.
	Consume(ctx context.Context, token string) (bool, error)
	Deactivate(ctx context.Context, actor *model.Identity, token string) (bool, error)
	Delete(ctx context.Context, actor *model.Identity, token string) (bool, error)
	ListForOrganization(ctx context.Context, actor *model.Identity, orgID string) ([]*model.InvitationLink, error)
}

type invitationService struct {
	links  repository.InvitationRepository
	orgs   repository.OrganizationRepository
	now    func() time.Time
	logger *slog.Logger
}

func NewInvitationService(store *repository.Store, opts ...Option) InvitationService {
	o := newOptions(opts)
	return &invitationService{
		links:  store.Invitations,
		orgs:   store.Organizations,
		now:    o.now,
		logger: o.logger,
	}
}

func (s *invitationService) Issue(ctx context.Context, actor *model.Identity, req IssueRequest) (*model.InvitationLink, error) {
	if err := requireOrgRole(actor, req.OrganizationID, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if role == model.RoleOwner {
		return nil, fmt.Errorf("%w: invitations cannot grant the owner role", model.ErrValidation)
	}
	if req.MaxUses != nil && *req.MaxUses < 1 {
		return nil, fmt.Errorf("%w: maxUses must be at least 1", model.ErrValidation)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiresAt must be in the future", model.ErrValidation)
	}

	org, err := s.orgs.FindByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", model.ErrNotFound, req.OrganizationID)
	}

	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token, err := util.GenerateToken()
		if err != nil {
			return nil, err
		}
		link := model.NewInvitationLink(token, org.ID, role, actor.UserID)
		link.ExpiresAt = req.ExpiresAt
		link.MaxUses = req.MaxUses
		link.CreatedAt = s.now().UTC()

		err = s.links.Create(ctx, link)
		if errors.Is(err, model.ErrConflict) {
			s.logger.Warn("invitation token collision, regenerating", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("invitation issued", "organization", org.ID, "role", role, "issuer", actor.UserID)
		return link, nil
	}
	return nil, fmt.Errorf("%w: could not allocate a unique invitation token", model.ErrConflict)
}

func (s *invitationService) Validate(ctx context.Context, token string) (*Validation, error) {
	if !util.IsToken(token) {
		return nil, fmt.Errorf("%w: malformed invitation token", model.ErrValidation)
	}
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &Validation{Reason: model.ReasonNotFound}, nil
	}
	if ok, reason := link.Usable(s.now()); !ok {
		return &Validation{Reason: reason}, nil
	}
	return &Validation{Valid: true, OrganizationID: link.OrganizationID, Role: link.Role}, nil
}

func (s *invitationService) Consume(ctx context.Context, token string) (bool, error) {
	if !util.IsToken(token) {
		return false, fmt.Errorf("%w: malformed invitation token", model.ErrValidation)
	}
	ok, err := s.links.Consume(ctx, token, s.now())
	if err != nil {
		return false, err
	}
	s.logger.Debug("invitation consume", "consumed", ok)
	return ok, nil
}

func (s *invitationService) Deactivate(ctx context.Context, actor *model.Identity, token string) (bool, error) {
	if _, err := s.manageable(ctx, actor, token); err != nil {
		return false, err
	}
	changed, err := s.links.Deactivate(ctx, token)
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.Info("invitation deactivated", "by", actor.UserID)
	}
	return changed, nil
}

func (s *invitationService) Delete(ctx context.Context, actor *model.Identity, token string) (bool, error) {
	if _, err := s.manageable(ctx, actor, token); err != nil {
		return false, err
	}
	return s.links.Delete(ctx, token)
}

func (s *invitationService) ListForOrganization(ctx context.Context, actor *model.Identity, orgID string) ([]*model.InvitationLink, error) {
	if err := requireOrgRole(actor, orgID, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	return s.links.FindByOrganization(ctx, orgID)
}

// manageable loads a link the actor may switch off: they issued it, or they
// are an org-admin of its organization.
func (s *invitationService) manageable(ctx context.Context, actor *model.Identity, token string) (*model.InvitationLink, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	if !util.IsToken(token) {
		return nil, fmt.Errorf("%w: malformed invitation token", model.ErrValidation)
	}
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("%w: invitation", model.ErrNotFound)
	}
	if link.IssuerID != actor.UserID && !actor.HasOrgRole(link.OrganizationID, model.RoleOrgAdmin) {
		return nil, fmt.Errorf("%w: only the issuer or an org-admin may manage this invitation", model.ErrForbidden)
	}
	return link, nil
}
