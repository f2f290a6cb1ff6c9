package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/notify"
)

type testEnv struct {
	store        *repository.Store
	recorder     *notify.Recorder
	clock        *testClock
	memberships  MembershipService
	invitations  InvitationService
	approvals    ApprovalService
	orgs         OrganizationService
	provisioning ProvisioningService
	projects     ProjectService
	tasks        TaskService
	users        UserService
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewInMemoryStore()
	recorder := &notify.Recorder{}
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEmitter(recorder),
		WithClock(clock.Now),
	}

	memberships := NewMembershipService(store, opts...)
	invitations := NewInvitationService(store, opts...)
	return &testEnv{
		store:        store,
		recorder:     recorder,
		clock:        clock,
		memberships:  memberships,
		invitations:  invitations,
		approvals:    NewApprovalService(store, invitations, memberships, opts...),
		orgs:         NewOrganizationService(store, memberships, opts...),
		provisioning: NewProvisioningService(store, memberships, opts...),
		projects:     NewProjectService(store, opts...),
		tasks:        NewTaskService(store, opts...),
		users:        NewUserService(store, opts...),
	}
}

// user stores an account directly, bypassing registration.
func (e *testEnv) user(t *testing.T, email string, role model.Role, approved bool) *model.User {
	t.Helper()
	u := model.NewUser(email, "", email, role)
	u.IsApproved = approved
	if role == model.RoleOwner {
		u.IsOwner = true
	}
	if err := e.store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) org(t *testing.T, name string) *model.Organization {
	t.Helper()
	org := model.NewOrganization(name)
	if err := e.store.Organizations.Create(context.Background(), org); err != nil {
		t.Fatalf("Failed to create organization %s: %v", name, err)
	}
	return org
}

func (e *testEnv) member(t *testing.T, u *model.User, org *model.Organization, role model.Role) {
	t.Helper()
	if _, err := e.memberships.AddMember(context.Background(), u.ID, org.ID, string(role)); err != nil {
		t.Fatalf("Failed to add %s to %s: %v", u.Email, org.Name, err)
	}
}

func (e *testEnv) identity(t *testing.T, u *model.User) *model.Identity {
	t.Helper()
	id, err := e.memberships.ResolveIdentity(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Failed to resolve identity for %s: %v", u.Email, err)
	}
	return id
}
