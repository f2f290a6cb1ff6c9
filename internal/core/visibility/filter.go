// Package visibility narrows record collections to what an identity may see
// and mutate. Every function is pure: callers fetch candidate records and the
// identity beforehand.
//
// Rules, first match wins:
//
//  1. The owner sees everything, narrowed to orgFilter when one is given.
//  2. Records in an organization the caller has no membership in are hidden.
//  3. org-admin and lead members see every record in their organization.
//  4. member sees a task when assigned to it or to its project, and a project
//     when assigned to it.
//  5. orgFilter only ever intersects; asking for an unknown or foreign
//     organization yields an empty result rather than an error.
//
// A record whose organization cannot be resolved is hidden.
package visibility

import "taskbill/internal/core/model"

// Organizations returns the organizations the identity belongs to.
func Organizations(id *model.Identity, orgs []*model.Organization, orgFilter string) []*model.Organization {
	out := make([]*model.Organization, 0, len(orgs))
	for _, org := range orgs {
		if org == nil || !inFilter(org.ID, orgFilter) {
			continue
		}
		if _, ok := id.RoleIn(org.ID); ok {
			out = append(out, org)
		}
	}
	return out
}

// Projects returns the subset of projects visible to id.
func Projects(id *model.Identity, projects []*model.Project, orgFilter string) []*model.Project {
	out := make([]*model.Project, 0, len(projects))
	for _, p := range projects {
		if p != nil && inFilter(p.OrganizationID, orgFilter) && CanAccessProject(id, p) {
			out = append(out, p)
		}
	}
	return out
}

// Tasks returns the subset of tasks visible to id. projects resolves each
// task's project, and through it the task's organization.
func Tasks(id *model.Identity, tasks []*model.Task, projects map[string]*model.Project, orgFilter string) []*model.Task {
	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		p := projects[t.ProjectID]
		if p == nil || !inFilter(p.OrganizationID, orgFilter) {
			continue
		}
		if CanAccessTask(id, t, p) {
			out = append(out, t)
		}
	}
	return out
}

// CanAccessProject reports whether id may see and mutate p.
func CanAccessProject(id *model.Identity, p *model.Project) bool {
	if id == nil || p == nil {
		return false
	}
	if p.OrganizationID == "" {
		return false
	}
	if id.IsOwner() {
		return true
	}
	role, ok := id.Memberships[p.OrganizationID]
	if !ok {
		return false
	}
	if model.AtLeast(role, model.RoleLead) {
		return true
	}
	return role == model.RoleMember && p.HasMember(id.UserID)
}

// CanAccessTask reports whether id may see and mutate t, whose project is p.
// A nil or mismatched project means the task's organization is unknown.
func CanAccessTask(id *model.Identity, t *model.Task, p *model.Project) bool {
	if id == nil || t == nil || p == nil || p.ID != t.ProjectID {
		return false
	}
	if p.OrganizationID == "" {
		return false
	}
	if id.IsOwner() {
		return true
	}
	role, ok := id.Memberships[p.OrganizationID]
	if !ok {
		return false
	}
	if model.AtLeast(role, model.RoleLead) {
		return true
	}
	if role != model.RoleMember {
		return false
	}
	return t.AssigneeID == id.UserID || p.HasMember(id.UserID)
}

func inFilter(orgID, orgFilter string) bool {
	return orgFilter == "" || orgID == orgFilter
}
