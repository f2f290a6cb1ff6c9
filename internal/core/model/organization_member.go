package model

import (
	"time"

	"taskbill/internal/core/util"
)

// OrganizationMember binds a user to an organization. Role is local to the
// organization and may differ from the user's global role. At most one row
// exists per (UserID, OrganizationID).
type OrganizationMember struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	UserID         string    `json:"userId" db:"user_id"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

func NewOrganizationMember(organizationID, userID string, role Role) *OrganizationMember {
	now := time.Now().UTC()
	return &OrganizationMember{
		ID:             util.GenerateID(),
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
