package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/notify"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegistrationRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	Role            string `json:"role,omitempty"`
	InvitationToken string `json:"invitationToken,omitempty"`
}

// Registration is the outcome of Register. NeedsOrganization is set for
// approved accounts that ended up without any membership.
type Registration struct {
	User              *model.User               `json:"user"`
	Membership        *model.OrganizationMember `json:"membership,omitempty"`
	NeedsOrganization bool                      `json:"needsOrganization"`
}

type ApprovalService interface {
	Register(ctx context.Context, req RegistrationRequest) (*Registration, error)
	// Approve flips the target's approval flag. It is idempotent; only the
	// call that actually changes the flag notifies the user.
	Approve(ctx context.Context, actor *model.Identity, userID string) (*model.User, error)
}

type approvalService struct {
	users       repository.UserRepository
	members     repository.OrganizationMemberRepository
	invitations InvitationService
	memberships MembershipService
	emitter     notify.Emitter
	logger      *slog.Logger
}

func NewApprovalService(store *repository.Store, invitations InvitationService, memberships MembershipService, opts ...Option) ApprovalService {
	o := newOptions(opts)
	return &approvalService{
		users:       store.Users,
		members:     store.Members,
		invitations: invitations,
		memberships: memberships,
		emitter:     o.emitter,
		logger:      o.logger,
	}
}

func (s *approvalService) Register(ctx context.Context, req RegistrationRequest) (*Registration, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, minPasswordLength)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s already registered", model.ErrConflict, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if req.InvitationToken != "" {
		return s.registerWithToken(ctx, email, string(hash), req)
	}

	role := model.RoleMember
	if strings.TrimSpace(req.Role) != "" {
		if role, err = model.ParseRole(req.Role); err != nil {
			return nil, err
		}
	}
	if role == model.RoleOwner {
		return nil, fmt.Errorf("%w: the owner role cannot be requested", model.ErrValidation)
	}

	user := model.NewUser(email, string(hash), strings.TrimSpace(req.Name), role)
	user.IsApproved = role == model.RoleMember
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user", user.ID, "role", role, "approved", user.IsApproved)
	s.announce(ctx, user)
	return &Registration{User: user, NeedsOrganization: user.IsApproved}, nil
}

// registerWithToken consumes one use of the invitation before the account
// exists. Losing the consume race reports the reason the token is now
// unusable.
func (s *approvalService) registerWithToken(ctx context.Context, email, hash string, req RegistrationRequest) (*Registration, error) {
	v, err := s.invitations.Validate(ctx, req.InvitationToken)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return nil, &model.InvitationInvalidError{Reason: v.Reason}
	}

	consumed, err := s.invitations.Consume(ctx, req.InvitationToken)
	if err != nil {
		return nil, err
	}
	if !consumed {
		reason := model.ReasonExhausted
		if again, err := s.invitations.Validate(ctx, req.InvitationToken); err == nil && !again.Valid {
			reason = again.Reason
		}
		return nil, &model.InvitationInvalidError{Reason: reason}
	}

	user := model.NewUser(email, hash, strings.TrimSpace(req.Name), v.Role)
	user.IsApproved = true
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("invitation consumed but account creation failed", "organization", v.OrganizationID, "error", err)
		return nil, err
	}

	membership, err := s.memberships.AddMember(ctx, user.ID, v.OrganizationID, string(v.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered by invitation", "user", user.ID, "organization", v.OrganizationID, "role", v.Role)
	s.announce(ctx, user)
	return &Registration{User: user, Membership: membership}, nil
}

// announce tells the owner about a new account.
func (s *approvalService) announce(ctx context.Context, user *model.User) {
	owner, err := s.users.FindOwner(ctx)
	if err != nil {
		s.logger.Warn("owner lookup failed", "error", err)
		return
	}
	if owner == nil || owner.ID == user.ID {
		return
	}
	msg := fmt.Sprintf("%s registered as %s", user.Email, user.Role)
	if !user.IsApproved {
		msg += " and is waiting for approval"
	}
	s.emitter.Emit(ctx, notify.Intent{TargetUserID: owner.ID, Kind: notify.KindNewUser, Message: msg})
}

func (s *approvalService) Approve(ctx context.Context, actor *model.Identity, userID string) (*model.User, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}

	allowed, err := s.mayApprove(ctx, actor, target.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: approval requires an org-admin", model.ErrForbidden)
	}

	changed, err := s.users.SetApproved(ctx, target.ID, true)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info("account approved", "user", target.ID, "by", actor.UserID)
		s.emitter.Emit(ctx, notify.Intent{
			TargetUserID: target.ID,
			Kind:         notify.KindApprovalGranted,
			Message:      "Your account has been approved",
		})
	}
	target.IsApproved = true
	return target, nil
}

// mayApprove: the owner, or an org-admin of an organization the target
// already belongs to.
func (s *approvalService) mayApprove(ctx context.Context, actor *model.Identity, targetID string) (bool, error) {
	some, _, err := accountScope(ctx, s.members, actor, targetID)
	return some, err
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", model.ErrValidation, raw)
	}
	return email, nil
}
