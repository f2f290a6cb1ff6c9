package service

import (
	"context"
	"errors"
	"testing"

	"taskbill/internal/core/model"
)

func TestMemberTaskListScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	s := env.user(t, "s@example.com", model.RoleMember, true)
	tm := env.user(t, "t@example.com", model.RoleMember, true)
	org1 := env.org(t, "Organization 1")
	env.member(t, lead, org1, model.RoleLead)
	env.member(t, s, org1, model.RoleMember)
	env.member(t, tm, org1, model.RoleMember)

	leadID := env.identity(t, lead)
	p1, err := env.projects.Create(ctx, leadID, org1.ID, ProjectInput{Name: "P1", MemberIDs: []string{s.ID}})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	for _, title := range []string{"design", "build", "invoice"} {
		if _, err := env.tasks.Create(ctx, leadID, p1.ID, TaskInput{Title: title}); err != nil {
			t.Fatalf("Failed to create task %s: %v", title, err)
		}
	}

	seenByS, err := env.tasks.ListByProject(ctx, env.identity(t, s), p1.ID)
	if err != nil {
		t.Fatalf("Failed to list tasks for S: %v", err)
	}
	if len(seenByS) != 3 {
		t.Errorf("S sees %d tasks, want 3", len(seenByS))
	}

	seenByT, err := env.tasks.ListByProject(ctx, env.identity(t, tm), p1.ID)
	if err != nil {
		t.Fatalf("Failed to list tasks for T: %v", err)
	}
	if len(seenByT) != 0 {
		t.Errorf("T sees %d tasks, want 0", len(seenByT))
	}

	if _, err := env.projects.Get(ctx, env.identity(t, tm), p1.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("T get project error = %v, want ErrNotFound", err)
	}
}

func TestProjectPermissions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com", model.RoleOrgAdmin, true)
	lead := env.user(t, "lead@example.com", model.RoleLead, true)
	m := env.user(t, "m@example.com", model.RoleMember, true)
	outsider := env.user(t, "out@example.com", model.RoleMember, true)
	org := env.org(t, "Org")
	env.member(t, admin, org, model.RoleOrgAdmin)
	env.member(t, lead, org, model.RoleLead)
	env.member(t, m, org, model.RoleMember)

	if _, err := env.projects.Create(ctx, env.identity(t, m), org.ID, ProjectInput{Name: "P"}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("member create error = %v, want ErrForbidden", err)
	}
	p, err := env.projects.Create(ctx, env.identity(t, lead), org.ID, ProjectInput{Name: "P"})
	if err != nil {
		t.Fatalf("Failed to create project as lead: %v", err)
	}

	if _, err := env.projects.AssignMember(ctx, env.identity(t, lead), p.ID, outsider.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("assign outsider error = %v, want ErrValidation", err)
	}
	if _, err := env.projects.AssignMember(ctx, env.identity(t, lead), p.ID, m.ID); err != nil {
		t.Fatalf("Failed to assign member: %v", err)
	}
	if _, err := env.projects.AssignMember(ctx, env.identity(t, m), p.ID, m.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("member assigning error = %v, want ErrForbidden", err)
	}
	if _, err := env.projects.Update(ctx, env.identity(t, m), p.ID, ProjectInput{Name: "Renamed"}); err != nil {
		t.Errorf("assigned member could not update project: %v", err)
	}

	if err := env.projects.Delete(ctx, env.identity(t, lead), p.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("lead delete error = %v, want ErrForbidden", err)
	}
	if err := env.projects.Delete(ctx, env.identity(t, admin), p.ID); err != nil {
		t.Errorf("Failed to delete project as org-admin: %v", err)
	}
}

func TestProjectUpdateKeepsOrganization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	org := env.org(t, "Org")
	other := env.org(t, "Other")

	p, err := env.projects.Create(ctx, owner, org.ID, ProjectInput{Name: "P"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	p.OrganizationID = other.ID
	if err := env.store.Projects.Update(ctx, p); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("moving project across organizations error = %v, want ErrNotFound", err)
	}
	stored, _ := env.store.Projects.FindByID(ctx, p.ID)
	if stored.OrganizationID != org.ID {
		t.Errorf("project moved to %s", stored.OrganizationID)
	}
}

func TestProjectListWithFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.identity(t, env.user(t, "owner@example.com", model.RoleOwner, true))
	a := env.org(t, "A")
	b := env.org(t, "B")
	for _, org := range []*model.Organization{a, a, b} {
		if _, err := env.projects.Create(ctx, owner, org.ID, ProjectInput{Name: "P " + org.Name}); err != nil {
			t.Fatalf("Failed to create project: %v", err)
		}
	}

	all, _ := env.projects.List(ctx, owner, "")
	onlyA, _ := env.projects.List(ctx, owner, a.ID)
	none, _ := env.projects.List(ctx, owner, "missing")
	if len(all) != 3 || len(onlyA) != 2 || len(none) != 0 {
		t.Errorf("owner lists %d/%d/%d projects, want 3/2/0", len(all), len(onlyA), len(none))
	}
}
