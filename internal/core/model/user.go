package model

import (
	"time"

	"taskbill/internal/core/util"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	IsApproved   bool      `json:"isApproved" db:"is_approved"`
	IsOwner      bool      `json:"isOwner" db:"is_owner"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

func NewUser(email, passwordHash, name string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           util.GenerateID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EffectiveRole is the global role used for authorization. Only the account
// carrying the owner flag is ever treated as owner; a stray owner role on any
// other account is read as member.
func (u *User) EffectiveRole() Role {
	if u.IsOwner {
		return RoleOwner
	}
	if u.Role == RoleOwner || !u.Role.Valid() {
		return RoleMember
	}
	return u.Role
}
