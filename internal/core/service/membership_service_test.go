package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"taskbill/internal/cache"
	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
	"taskbill/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGetRoleInOrgRequiresRow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", model.RoleOwner, true)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	org1 := env.org(t, "One")
	org2 := env.org(t, "Two")
	env.member(t, lead, org1, model.RoleLead)

	tests := []struct {
		name   string
		userID string
		orgID  string
		role   model.Role
		ok     bool
	}{
		{"row exists", lead.ID, org1.ID, model.RoleLead, true},
		{"no row", lead.ID, org2.ID, "", false},
		{"owner without row", owner.ID, org2.ID, model.RoleOrgAdmin, true},
		{"unknown user", "ghost", org1.ID, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok, err := env.memberships.GetRoleInOrg(ctx, tt.userID, tt.orgID)
			if err != nil {
				t.Fatalf("Failed to get role: %v", err)
			}
			if role != tt.role || ok != tt.ok {
				t.Errorf("GetRoleInOrg = (%q, %v), want (%q, %v)", role, ok, tt.role, tt.ok)
			}
		})
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "m@example.com", model.RoleMember, true)
	org := env.org(t, "Org")

	for i := 0; i < 2; i++ {
		if _, err := env.memberships.AddMember(ctx, u.ID, org.ID, "member"); err != nil {
			t.Fatalf("Failed to add member (call %d): %v", i+1, err)
		}
	}
	rows, err := env.memberships.ListOrganizationsFor(ctx, u.ID)
	if err != nil {
		t.Fatalf("Failed to list memberships: %v", err)
	}
	if len(rows) != 1 || rows[0].Role != model.RoleMember {
		t.Fatalf("got %d rows, want one member row", len(rows))
	}
	if got := len(env.recorder.Of(notify.KindOrganizationJoined)); got != 1 {
		t.Errorf("organization-joined sent %d times, want 1", got)
	}
}

func TestAddMemberConcurrentSamePair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "m@example.com", model.RoleMember, true)
	org := env.org(t, "Org")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.memberships.AddMember(ctx, u.ID, org.ID, "member"); err != nil {
				t.Errorf("concurrent AddMember surfaced %v", err)
			}
		}()
	}
	wg.Wait()

	rows, _ := env.memberships.ListOrganizationsFor(ctx, u.ID)
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestAddMemberValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "m@example.com", model.RoleMember, true)
	org := env.org(t, "Org")

	if _, err := env.memberships.AddMember(ctx, u.ID, org.ID, "admin"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad role error = %v, want ErrValidation", err)
	}
	if _, err := env.memberships.AddMember(ctx, u.ID, org.ID, "owner"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("owner role error = %v, want ErrValidation", err)
	}
	if _, err := env.memberships.AddMember(ctx, u.ID, "missing", "member"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing org error = %v, want ErrNotFound", err)
	}
	if _, err := env.memberships.AddMember(ctx, "ghost", org.ID, "member"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}

func TestAddMemberNotifiesAdmins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com", model.RoleOrgAdmin, true)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	newcomer := env.user(t, "new@example.com", model.RoleMember, true)
	org := env.org(t, "Org")
	env.member(t, admin, org, model.RoleOrgAdmin)
	env.member(t, lead, org, model.RoleLead)
	env.recorder.Reset()

	if _, err := env.memberships.AddMember(ctx, newcomer.ID, org.ID, "member"); err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
	added := env.recorder.Of(notify.KindMemberAdded)
	if len(added) != 1 || added[0].TargetUserID != admin.ID {
		t.Errorf("member-added intents = %+v, want one to the org-admin", added)
	}
	joined := env.recorder.Of(notify.KindOrganizationJoined)
	if len(joined) != 1 || joined[0].TargetUserID != newcomer.ID {
		t.Errorf("organization-joined intents = %+v, want one to the newcomer", joined)
	}
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "m@example.com", model.RoleMember, true)
	org := env.org(t, "Org")
	env.member(t, u, org, model.RoleMember)

	removed, err := env.memberships.RemoveMember(ctx, u.ID, org.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveMember = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = env.memberships.RemoveMember(ctx, u.ID, org.ID)
	if err != nil || removed {
		t.Errorf("second RemoveMember = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestGrantAndRevokeGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com", model.RoleOrgAdmin, true)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	target := env.user(t, "m@example.com", model.RoleMember, true)
	org := env.org(t, "Org")
	env.member(t, admin, org, model.RoleOrgAdmin)
	env.member(t, lead, org, model.RoleLead)

	if _, err := env.memberships.Grant(ctx, env.identity(t, lead), target.ID, org.ID, "member"); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("lead grant error = %v, want ErrForbidden", err)
	}
	if _, err := env.memberships.Grant(ctx, env.identity(t, admin), target.ID, org.ID, "member"); err != nil {
		t.Fatalf("Failed to grant as org-admin: %v", err)
	}
	if _, err := env.memberships.Revoke(ctx, env.identity(t, lead), target.ID, org.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("lead revoke error = %v, want ErrForbidden", err)
	}
	removed, err := env.memberships.Revoke(ctx, env.identity(t, target), target.ID, org.ID)
	if err != nil || !removed {
		t.Errorf("self revoke = (%v, %v), want (true, nil)", removed, err)
	}
	if _, err := env.memberships.Grant(ctx, nil, target.ID, org.ID, "member"); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("anonymous grant error = %v, want ErrUnauthorized", err)
	}
}

func TestResolveIdentityThroughCacheSeesMembershipWrites(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repository.NewInMemoryStore()
	memberships := NewMembershipService(store, WithLogger(logger), WithCache(cache.NewWithClient(client, logger)))

	u := model.NewUser("m@example.com", "", "M", model.RoleMember)
	u.IsApproved = true
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	org := model.NewOrganization("Org")
	if err := store.Organizations.Create(ctx, org); err != nil {
		t.Fatalf("Failed to create organization: %v", err)
	}

	before, err := memberships.ResolveIdentity(ctx, u.ID)
	if err != nil {
		t.Fatalf("Failed to resolve identity: %v", err)
	}
	if len(before.Memberships) != 0 {
		t.Fatalf("fresh user has memberships %v", before.Memberships)
	}
	if !mr.Exists(cache.MembershipKey(u.ID)) {
		t.Fatal("membership list was not cached")
	}

	if _, err := memberships.AddMember(ctx, u.ID, org.ID, "lead"); err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
	after, err := memberships.ResolveIdentity(ctx, u.ID)
	if err != nil {
		t.Fatalf("Failed to resolve identity: %v", err)
	}
	if role, ok := after.RoleIn(org.ID); !ok || role != model.RoleLead {
		t.Errorf("cached identity role = (%s, %v), want lead", role, ok)
	}

	if _, err := memberships.RemoveMember(ctx, u.ID, org.ID); err != nil {
		t.Fatalf("Failed to remove member: %v", err)
	}
	removed, err := memberships.ResolveIdentity(ctx, u.ID)
	if err != nil {
		t.Fatalf("Failed to resolve identity: %v", err)
	}
	if _, ok := removed.RoleIn(org.ID); ok {
		t.Error("cached identity still holds a removed membership")
	}
}
