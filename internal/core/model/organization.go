package model

import (
	"time"

	"taskbill/internal/core/util"
)

type Organization struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Address   string    `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func NewOrganization(name string) *Organization {
	now := time.Now().UTC()
	return &Organization{
		ID:        util.GenerateID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
