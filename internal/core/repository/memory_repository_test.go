package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskbill/internal/core/model"
	"taskbill/internal/core/util"
)

func TestMemberUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryOrganizationMemberRepository()

	first, err := repo.Upsert(ctx, model.NewOrganizationMember("org-1", "u-1", model.RoleMember))
	if err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}
	second, err := repo.Upsert(ctx, model.NewOrganizationMember("org-1", "u-1", model.RoleLead))
	if err != nil {
		t.Fatalf("Failed to upsert member again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second upsert created a new row %s, want %s", second.ID, first.ID)
	}

	rows, err := repo.FindByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("Failed to list rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Role != model.RoleLead {
		t.Errorf("got %d rows, want one lead row", len(rows))
	}
}

func TestMemberUpsertConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryOrganizationMemberRepository()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Upsert(ctx, model.NewOrganizationMember("org-1", "u-1", model.RoleMember)); err != nil {
				t.Errorf("Failed to upsert member: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := repo.CountByOrganization(ctx, "org-1")
	if err != nil {
		t.Fatalf("Failed to count members: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d rows after concurrent upserts, want 1", n)
	}
}

func TestMemberDeleteReportsAbsence(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryOrganizationMemberRepository()

	removed, err := repo.Delete(ctx, "u-1", "org-1")
	if err != nil || removed {
		t.Errorf("Delete on missing row = (%v, %v), want (false, nil)", removed, err)
	}
}

func newLink(t *testing.T, repo InvitationRepository, maxUses *int, expiresAt *time.Time) *model.InvitationLink {
	t.Helper()
	token, err := util.GenerateToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	link := model.NewInvitationLink(token, "org-1", model.RoleMember, "issuer")
	link.MaxUses = maxUses
	link.ExpiresAt = expiresAt
	if err := repo.Create(context.Background(), link); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	return link
}

func TestConsumeConcurrentSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryInvitationRepository()
	one := 1
	link := newLink(t, repo, &one, nil)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.Consume(ctx, link.Token, time.Now())
			if err != nil {
				t.Errorf("Failed to consume: %v", err)
				return
			}
			if ok {
				successes.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("got %d successful consumes, want exactly 1", got)
	}
	stored, _ := repo.FindByToken(ctx, link.Token)
	if stored.UsedCount != 1 {
		t.Errorf("usedCount = %d, want 1", stored.UsedCount)
	}
}

func TestConsumeRespectsExpiryAndDeactivation(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryInvitationRepository()
	now := time.Now().UTC()
	expires := now.Add(time.Second)
	link := newLink(t, repo, nil, &expires)

	if ok, _ := repo.Consume(ctx, link.Token, now.Add(2*time.Second)); ok {
		t.Error("expired link was consumed")
	}
	if ok, _ := repo.Consume(ctx, link.Token, now); !ok {
		t.Error("live link was not consumed")
	}

	changed, err := repo.Deactivate(ctx, link.Token)
	if err != nil || !changed {
		t.Fatalf("Deactivate = (%v, %v), want (true, nil)", changed, err)
	}
	if changed, _ := repo.Deactivate(ctx, link.Token); changed {
		t.Error("second Deactivate reported a change")
	}
	if ok, _ := repo.Consume(ctx, link.Token, now); ok {
		t.Error("deactivated link was consumed")
	}
}

func TestInvitationTokenCollision(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryInvitationRepository()
	link := newLink(t, repo, nil, nil)

	dup := model.NewInvitationLink(link.Token, "org-2", model.RoleLead, "other")
	if err := repo.Create(ctx, dup); !errors.Is(err, model.ErrConflict) {
		t.Errorf("duplicate token error = %v, want ErrConflict", err)
	}
}

func TestUserRepositorySingleOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	first := model.NewUser("first@example.com", "", "First", model.RoleOwner)
	first.IsOwner = true
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create owner: %v", err)
	}
	second := model.NewUser("second@example.com", "", "Second", model.RoleOwner)
	second.IsOwner = true
	if err := repo.Create(ctx, second); !errors.Is(err, model.ErrConflict) {
		t.Errorf("second owner error = %v, want ErrConflict", err)
	}

	dup := model.NewUser("FIRST@example.com", "", "Dup", model.RoleMember)
	if err := repo.Create(ctx, dup); !errors.Is(err, model.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}
}

func TestSetApprovedReportsChange(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()
	u := model.NewUser("lead@example.com", "", "Lead", model.RoleLead)
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	changed, err := repo.SetApproved(ctx, u.ID, true)
	if err != nil || !changed {
		t.Fatalf("first SetApproved = (%v, %v), want (true, nil)", changed, err)
	}
	if changed, _ := repo.SetApproved(ctx, u.ID, true); changed {
		t.Error("repeated SetApproved reported a change")
	}
}

func TestUserUpdateRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()
	a := model.NewUser("a@example.com", "hash", "A", model.RoleMember)
	b := model.NewUser("b@example.com", "hash", "B", model.RoleMember)
	for _, u := range []*model.User{a, b} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
	}

	b.Email = "A@example.com"
	if err := repo.Update(ctx, b); !errors.Is(err, model.ErrConflict) {
		t.Errorf("update to taken email error = %v, want ErrConflict", err)
	}
	got, err := repo.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("Failed to find user: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Errorf("a@example.com resolves to %v, want %s", got, a.ID)
	}

	a.Name = "Renamed"
	if err := repo.Update(ctx, a); err != nil {
		t.Errorf("update keeping own email failed: %v", err)
	}
}
