package model

import (
	"time"

	"taskbill/internal/core/util"
)

// InvitationLink grants Role inside OrganizationID to whoever registers with
// Token. It stays usable until it is deactivated, expires, or reaches MaxUses.
type InvitationLink struct {
	ID             string     `json:"id" db:"id"`
	Token          string     `json:"token" db:"token"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	Role           Role       `json:"role" db:"role"`
	IssuerID       string     `json:"issuerId" db:"issuer_id"`
	Active         bool       `json:"active" db:"active"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	MaxUses        *int       `json:"maxUses,omitempty" db:"max_uses"`
	UsedCount      int        `json:"usedCount" db:"used_count"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

func NewInvitationLink(token, organizationID string, role Role, issuerID string) *InvitationLink {
	return &InvitationLink{
		ID:             util.GenerateID(),
		Token:          token,
		OrganizationID: organizationID,
		Role:           role,
		IssuerID:       issuerID,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
}

func (l *InvitationLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

func (l *InvitationLink) Exhausted() bool {
	return l.MaxUses != nil && l.UsedCount >= *l.MaxUses
}

// Usable reports whether the link may be consumed at now. When it may not,
// the reason is returned. Deactivation wins over expiry, expiry over
// exhaustion.
func (l *InvitationLink) Usable(now time.Time) (bool, InvitationReason) {
	switch {
	case !l.Active:
		return false, ReasonDeactivated
	case l.Expired(now):
		return false, ReasonExpired
	case l.Exhausted():
		return false, ReasonExhausted
	}
	return true, ""
}
