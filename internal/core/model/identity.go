package model

// Identity is the already-authenticated caller of an operation. It is built
// once per request and passed explicitly; nothing in the core reads a
// "current organization" from ambient state.
type Identity struct {
	UserID      string
	GlobalRole  Role
	IsApproved  bool
	Memberships map[string]Role
}

// NewIdentity builds an identity from a user record and its membership rows.
func NewIdentity(user *User, members []*OrganizationMember) *Identity {
	id := &Identity{
		UserID:      user.ID,
		GlobalRole:  user.EffectiveRole(),
		IsApproved:  user.IsApproved || user.IsOwner,
		Memberships: make(map[string]Role, len(members)),
	}
	for _, m := range members {
		if m.UserID != user.ID || !m.Role.Valid() {
			continue
		}
		id.Memberships[m.OrganizationID] = m.Role
	}
	return id
}

func (i *Identity) IsOwner() bool {
	return i != nil && i.GlobalRole == RoleOwner
}

// RoleIn returns the caller's role inside orgID. The owner resolves to
// org-admin everywhere without needing a membership row.
func (i *Identity) RoleIn(orgID string) (Role, bool) {
	if i == nil {
		return "", false
	}
	if i.IsOwner() {
		return RoleOrgAdmin, true
	}
	role, ok := i.Memberships[orgID]
	return role, ok
}

// HasOrgRole reports whether the caller holds at least min inside orgID.
func (i *Identity) HasOrgRole(orgID string, min Role) bool {
	role, ok := i.RoleIn(orgID)
	return ok && AtLeast(role, min)
}

// OrganizationIDs lists the organizations the caller has a row in.
func (i *Identity) OrganizationIDs() []string {
	ids := make([]string, 0, len(i.Memberships))
	for id := range i.Memberships {
		ids = append(ids, id)
	}
	return ids
}
