package model

import (
	"slices"
	"time"

	"taskbill/internal/core/util"
)

// Project belongs to exactly one organization for its whole life.
// MemberIDs lists the members explicitly assigned to it.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	MemberIDs      []string  `json:"memberIds"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewProject(organizationID, name string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:             util.GenerateID(),
		OrganizationID: organizationID,
		Name:           name,
		MemberIDs:      []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.MemberIDs, userID)
}

// AssignMember adds userID to the project and reports whether it changed.
func (p *Project) AssignMember(userID string) bool {
	if p.HasMember(userID) {
		return false
	}
	p.MemberIDs = append(p.MemberIDs, userID)
	return true
}

// UnassignMember removes userID and reports whether it was present.
func (p *Project) UnassignMember(userID string) bool {
	i := slices.Index(p.MemberIDs, userID)
	if i < 0 {
		return false
	}
	p.MemberIDs = slices.Delete(p.MemberIDs, i, i+1)
	return true
}
