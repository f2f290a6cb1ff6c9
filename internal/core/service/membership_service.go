package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskbill/internal/cache"
	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/notify"

	"github.com/redis/go-redis/v9"
)

// MembershipService is the registry of (user, organization, role) rows and
// the place identities are resolved from.
type MembershipService interface {
	// GetRoleInOrg returns the user's role inside orgID. The owner resolves
	// to org-admin everywhere. ok is false when no row exists.
	GetRoleInOrg(ctx context.Context, userID, orgID string) (model.Role, bool, error)
	// AddMember inserts or updates the row for (userID, orgID). Calling it
	// again with the same arguments leaves exactly one row.
	AddMember(ctx context.Context, userID, orgID, role string) (*model.OrganizationMember, error)
	// RemoveMember reports whether a row existed and was removed.
	RemoveMember(ctx context.Context, userID, orgID string) (bool, error)
	ListOrganizationsFor(ctx context.Context, userID string) ([]*model.OrganizationMember, error)
	ListMembers(ctx context.Context, actor *model.Identity, orgID string) ([]*model.OrganizationMember, error)
	ResolveIdentity(ctx context.Context, userID string) (*model.Identity, error)

	// Grant and Revoke are the guarded forms used by the HTTP layer.
	Grant(ctx context.Context, actor *model.Identity, userID, orgID, role string) (*model.OrganizationMember, error)
	Revoke(ctx context.Context, actor *model.Identity, userID, orgID string) (bool, error)
}

type membershipService struct {
	users   repository.UserRepository
	orgs    repository.OrganizationRepository
	members repository.OrganizationMemberRepository
	cache   *cache.Cache
	emitter notify.Emitter
	logger  *slog.Logger
}

func NewMembershipService(store *repository.Store, opts ...Option) MembershipService {
	o := newOptions(opts)
	return &membershipService{
		users:   store.Users,
		orgs:    store.Organizations,
		members: store.Members,
		cache:   o.cache,
		emitter: o.emitter,
		logger:  o.logger,
	}
}

func (s *membershipService) GetRoleInOrg(ctx context.Context, userID, orgID string) (model.Role, bool, error) {
	if userID == "" || orgID == "" {
		return "", false, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if user != nil && user.IsOwner {
		return model.RoleOrgAdmin, true, nil
	}
	m, err := s.members.FindByUserAndOrg(ctx, userID, orgID)
	if err != nil || m == nil {
		return "", false, err
	}
	return m.Role, true, nil
}

func (s *membershipService) AddMember(ctx context.Context, userID, orgID, role string) (*model.OrganizationMember, error) {
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if r == model.RoleOwner {
		return nil, fmt.Errorf("%w: owner is not an organization role", model.ErrValidation)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", model.ErrNotFound, orgID)
	}

	candidate := model.NewOrganizationMember(orgID, userID, r)
	stored, err := s.members.Upsert(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	if stored.ID == candidate.ID {
		s.logger.Info("member added", "user", userID, "organization", orgID, "role", r)
		s.announceJoin(ctx, user, org, r)
	} else {
		s.logger.Info("member role updated", "user", userID, "organization", orgID, "role", r)
	}
	return stored, nil
}

// announceJoin tells the new member and every other org-admin of the
// organization about a fresh row.
func (s *membershipService) announceJoin(ctx context.Context, user *model.User, org *model.Organization, role model.Role) {
	intents := []notify.Intent{{
		TargetUserID: user.ID,
		Kind:         notify.KindOrganizationJoined,
		Message:      fmt.Sprintf("You joined %s as %s", org.Name, role),
	}}

	rows, err := s.members.FindByOrganization(ctx, org.ID)
	if err != nil {
		s.logger.Warn("listing organization admins failed", "organization", org.ID, "error", err)
	}
	for _, m := range rows {
		if m.UserID == user.ID || m.Role != model.RoleOrgAdmin {
			continue
		}
		intents = append(intents, notify.Intent{
			TargetUserID: m.UserID,
			Kind:         notify.KindMemberAdded,
			Message:      fmt.Sprintf("%s joined %s as %s", displayName(user), org.Name, role),
		})
	}
	s.emitter.Emit(ctx, intents...)
}

func (s *membershipService) RemoveMember(ctx context.Context, userID, orgID string) (bool, error) {
	removed, err := s.members.Delete(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	if removed {
		s.invalidate(ctx, userID)
		s.logger.Info("member removed", "user", userID, "organization", orgID)
	}
	return removed, nil
}

func (s *membershipService) ListOrganizationsFor(ctx context.Context, userID string) ([]*model.OrganizationMember, error) {
	return s.members.FindByUser(ctx, userID)
}

func (s *membershipService) ListMembers(ctx context.Context, actor *model.Identity, orgID string) ([]*model.OrganizationMember, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	if _, ok := actor.RoleIn(orgID); !ok {
		return []*model.OrganizationMember{}, nil
	}
	return s.members.FindByOrganization(ctx, orgID)
}

func (s *membershipService) ResolveIdentity(ctx context.Context, userID string) (*model.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUnauthorized
	}
	rows, err := s.memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.NewIdentity(user, rows), nil
}

// memberships reads a user's rows through the cache when one is configured.
// The version is taken before the store is read, so a fill racing with
// invalidate is stored under a stale version and never served.
func (s *membershipService) memberships(ctx context.Context, userID string) ([]*model.OrganizationMember, error) {
	key := cache.MembershipKey(userID)
	var rows []*model.OrganizationMember
	err := s.cache.GetVersioned(ctx, key, &rows)
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.logger.Warn("membership cache read failed", "user", userID, "error", err)
	}

	version, verr := s.cache.Version(ctx, key)
	rows, err = s.members.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		s.logger.Warn("membership cache version read failed", "user", userID, "error", verr)
		return rows, nil
	}
	if err := s.cache.SetVersioned(ctx, key, version, rows, cache.MembershipTTL); err != nil {
		s.logger.Warn("membership cache write failed", "user", userID, "error", err)
	}
	return rows, nil
}

func (s *membershipService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Bump(ctx, cache.MembershipKey(userID)); err != nil {
		s.logger.Warn("membership cache invalidation failed", "user", userID, "error", err)
	}
}

func (s *membershipService) Grant(ctx context.Context, actor *model.Identity, userID, orgID, role string) (*model.OrganizationMember, error) {
	if err := requireOrgRole(actor, orgID, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	return s.AddMember(ctx, userID, orgID, role)
}

// Revoke lets an org-admin remove anyone from their organization, and any
// approved user leave an organization on their own.
func (s *membershipService) Revoke(ctx context.Context, actor *model.Identity, userID, orgID string) (bool, error) {
	if err := RequireActive(actor); err != nil {
		return false, err
	}
	if actor.UserID != userID && !actor.HasOrgRole(orgID, model.RoleOrgAdmin) {
		return false, fmt.Errorf("%w: org-admin role required in organization %s", model.ErrForbidden, orgID)
	}
	return s.RemoveMember(ctx, userID, orgID)
}

func displayName(u *model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
