package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskbill/internal/core/model"
)

func intPtr(n int) *int { return &n }

func TestIssueRequiresOrgAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com", model.RoleOrgAdmin, true)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	org := env.org(t, "Org")
	env.member(t, admin, org, model.RoleOrgAdmin)
	env.member(t, lead, org, model.RoleLead)

	req := IssueRequest{OrganizationID: org.ID, Role: "member"}
	if _, err := env.invitations.Issue(ctx, env.identity(t, lead), req); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("lead issue error = %v, want ErrForbidden", err)
	}

	link, err := env.invitations.Issue(ctx, env.identity(t, admin), req)
	if err != nil {
		t.Fatalf("Failed to issue invitation: %v", err)
	}
	if len(link.Token) != 64 || strings.Trim(link.Token, "0123456789abcdef") != "" {
		t.Errorf("token %q is not 64 hex characters", link.Token)
	}
	if !link.Active || link.UsedCount != 0 || link.IssuerID != admin.ID {
		t.Errorf("unexpected new link: %+v", link)
	}
}

func TestIssueValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	org := env.org(t, "Org")
	past := env.clock.Now().Add(-time.Minute)

	tests := []struct {
		name string
		req  IssueRequest
		want error
	}{
		{"unknown role", IssueRequest{OrganizationID: org.ID, Role: "boss"}, model.ErrValidation},
		{"owner role", IssueRequest{OrganizationID: org.ID, Role: "owner"}, model.ErrValidation},
		{"zero max uses", IssueRequest{OrganizationID: org.ID, Role: "member", MaxUses: intPtr(0)}, model.ErrValidation},
		{"expiry in the past", IssueRequest{OrganizationID: org.ID, Role: "member", ExpiresAt: &past}, model.ErrValidation},
		{"unknown organization", IssueRequest{OrganizationID: "missing", Role: "member"}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.invitations.Issue(ctx, owner, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Issue() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateReasons(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	org := env.org(t, "Org")

	if _, err := env.invitations.Validate(ctx, "not-a-token"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("malformed token error = %v, want ErrValidation", err)
	}

	v, err := env.invitations.Validate(ctx, strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("Failed to validate unknown token: %v", err)
	}
	if v.Valid || v.Reason != model.ReasonNotFound {
		t.Errorf("unknown token = %+v, want not-found", v)
	}

	link, err := env.invitations.Issue(ctx, owner, IssueRequest{OrganizationID: org.ID, Role: "lead", MaxUses: intPtr(1)})
	if err != nil {
		t.Fatalf("Failed to issue invitation: %v", err)
	}
	v, _ = env.invitations.Validate(ctx, link.Token)
	if !v.Valid || v.OrganizationID != org.ID || v.Role != model.RoleLead {
		t.Errorf("fresh token = %+v, want valid lead in %s", v, org.ID)
	}

	if ok, err := env.invitations.Consume(ctx, link.Token); err != nil || !ok {
		t.Fatalf("Consume = (%v, %v), want (true, nil)", ok, err)
	}
	v, _ = env.invitations.Validate(ctx, link.Token)
	if v.Valid || v.Reason != model.ReasonExhausted {
		t.Errorf("used token = %+v, want exhausted", v)
	}

	if _, err := env.invitations.Deactivate(ctx, owner, link.Token); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}
	v, _ = env.invitations.Validate(ctx, link.Token)
	if v.Valid || v.Reason != model.ReasonDeactivated {
		t.Errorf("deactivated token = %+v, want deactivated", v)
	}
}

func TestExpiryMonotonic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	org := env.org(t, "Org")

	expires := env.clock.Now().Add(time.Second)
	link, err := env.invitations.Issue(ctx, owner, IssueRequest{OrganizationID: org.ID, Role: "member", ExpiresAt: &expires})
	if err != nil {
		t.Fatalf("Failed to issue invitation: %v", err)
	}
	if v, _ := env.invitations.Validate(ctx, link.Token); !v.Valid {
		t.Fatalf("token invalid before expiry: %+v", v)
	}

	env.clock.Advance(2 * time.Second)
	v, err := env.invitations.Validate(ctx, link.Token)
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if v.Valid || v.Reason != model.ReasonExpired {
		t.Errorf("token at T+2s = %+v, want expired", v)
	}
	if ok, _ := env.invitations.Consume(ctx, link.Token); ok {
		t.Error("expired token was consumed")
	}
}

func TestConsumeSingleUseUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	org := env.org(t, "Org")
	link, err := env.invitations.Issue(ctx, owner, IssueRequest{OrganizationID: org.ID, Role: "member", MaxUses: intPtr(1)})
	if err != nil {
		t.Fatalf("Failed to issue invitation: %v", err)
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		failures  atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := env.invitations.Consume(ctx, link.Token)
			if err != nil {
				t.Errorf("Failed to consume: %v", err)
				return
			}
			if ok {
				successes.Add(1)
			} else {
				failures.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 || failures.Load() != 1 {
		t.Errorf("got %d successes and %d failures, want 1 and 1", successes.Load(), failures.Load())
	}
}

func TestDeactivateGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com", model.RoleOrgAdmin, true)
	other := env.user(t, "other@example.com", model.RoleOrgAdmin, true)
	org := env.org(t, "Org")
	elsewhere := env.org(t, "Elsewhere")
	env.member(t, admin, org, model.RoleOrgAdmin)
	env.member(t, other, elsewhere, model.RoleOrgAdmin)

	link, err := env.invitations.Issue(ctx, env.identity(t, admin), IssueRequest{OrganizationID: org.ID, Role: "member"})
	if err != nil {
		t.Fatalf("Failed to issue invitation: %v", err)
	}
	if _, err := env.invitations.Deactivate(ctx, env.identity(t, other), link.Token); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("foreign admin deactivate error = %v, want ErrForbidden", err)
	}
	changed, err := env.invitations.Deactivate(ctx, env.identity(t, admin), link.Token)
	if err != nil || !changed {
		t.Errorf("issuer deactivate = (%v, %v), want (true, nil)", changed, err)
	}

	links, err := env.invitations.ListForOrganization(ctx, env.identity(t, admin), org.ID)
	if err != nil {
		t.Fatalf("Failed to list invitations: %v", err)
	}
	if len(links) != 1 || links[0].Active {
		t.Errorf("listed links = %+v, want one inactive link", links)
	}

	deleted, err := env.invitations.Delete(ctx, env.identity(t, admin), link.Token)
	if err != nil || !deleted {
		t.Errorf("Delete = (%v, %v), want (true, nil)", deleted, err)
	}
}
