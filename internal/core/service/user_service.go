package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskbill/internal/cache"
	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"

	"golang.org/x/crypto/bcrypt"
)

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type UserService interface {
	GetUser(ctx context.Context, actor *model.Identity, id string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	UpdateProfile(ctx context.Context, actor *model.Identity, in ProfileUpdate) (*model.User, error)
	// ChangeRole sets a user's global role. The owner role can be neither
	// granted nor taken away.
	ChangeRole(ctx context.Context, actor *model.Identity, id, role string) (*model.User, error)
	DeleteUser(ctx context.Context, actor *model.Identity, id string) error
	// EnsureOwner creates the single owner account when none exists yet.
	EnsureOwner(ctx context.Context, email, password, name string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	members  repository.OrganizationMemberRepository
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewUserService(store *repository.Store, opts ...Option) UserService {
	o := newOptions(opts)
	return &userService{
		userRepo: store.Users,
		members:  store.Members,
		cache:    o.cache,
		logger:   o.logger,
	}
}

// GetUser lets callers read themselves. Org-admins may read the accounts of
// their organizations' members; the owner may read anyone.
func (s *userService) GetUser(ctx context.Context, actor *model.Identity, id string) (*model.User, error) {
	if err := RequireIdentity(actor); err != nil {
		return nil, err
	}
	if id != actor.UserID {
		some, _, err := accountScope(ctx, s.members, actor, id)
		if err != nil {
			return nil, err
		}
		if !some {
			return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, id)
		}
	}
	return s.find(ctx, id)
}

func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *model.Identity, in ProfileUpdate) (*model.User, error) {
	if err := RequireActive(actor); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangeRole(ctx context.Context, actor *model.Identity, id, role string) (*model.User, error) {
	if err := requireGlobalRole(actor, model.RoleOrgAdmin); err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if r == model.RoleOwner {
		return nil, fmt.Errorf("%w: the owner role cannot be assigned", model.ErrValidation)
	}
	if !actor.IsOwner() && model.Compare(r, actor.GlobalRole) == model.Higher {
		return nil, fmt.Errorf("%w: cannot grant a role above your own", model.ErrForbidden)
	}
	if err := s.requireAdministers(ctx, actor, id); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsOwner {
		return nil, fmt.Errorf("%w: the owner cannot be demoted", model.ErrForbidden)
	}
	if user.Role == r {
		return user, nil
	}
	user.Role = r
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("global role changed", "user", user.ID, "role", r, "by", actor.UserID)
	return user, nil
}

// DeleteUser removes an account and its memberships. Users may delete
// themselves; deleting someone else takes org-admin in every organization
// they belong to. The owner is never deleted.
func (s *userService) DeleteUser(ctx context.Context, actor *model.Identity, id string) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if id != actor.UserID {
		if err := s.requireAdministers(ctx, actor, id); err != nil {
			return err
		}
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.IsOwner {
		return fmt.Errorf("%w: the owner account cannot be deleted", model.ErrForbidden)
	}

	rows, err := s.members.FindByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range rows {
		if _, err := s.members.Delete(ctx, m.UserID, m.OrganizationID); err != nil {
			return err
		}
	}
	if s.cache.Enabled() {
		if err := s.cache.Bump(ctx, cache.MembershipKey(id)); err != nil {
			s.logger.Warn("membership cache invalidation failed", "user", id, "error", err)
		}
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user", id, "by", actor.UserID)
	return nil
}

func (s *userService) EnsureOwner(ctx context.Context, email, password, name string) (*model.User, error) {
	owner, err := s.userRepo.FindOwner(ctx)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		return owner, nil
	}

	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: owner password must be at least %d characters", model.ErrValidation, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.NewUser(email, string(hash), name, model.RoleOwner)
	user.IsOwner = true
	user.IsApproved = true
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, model.ErrConflict) {
		// Another process may have bootstrapped concurrently.
		if owner, ferr := s.userRepo.FindOwner(ctx); ferr == nil && owner != nil {
			return owner, nil
		}
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("owner account created", "user", user.ID, "email", email)
	return user, nil
}

// requireAdministers fails unless actor holds org-admin in every
// organization id belongs to. Changes to an account reach all of its
// organizations, so one shared organization is not enough.
func (s *userService) requireAdministers(ctx context.Context, actor *model.Identity, id string) error {
	_, all, err := accountScope(ctx, s.members, actor, id)
	if err != nil {
		return err
	}
	if !all {
		return fmt.Errorf("%w: user %s is outside your organizations", model.ErrForbidden, id)
	}
	return nil
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: invalid user ID", model.ErrValidation)
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, id)
	}
	return user, nil
}
