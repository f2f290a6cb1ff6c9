package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrAccountPendingApproval = errors.New("account pending approval, contact an administrator")
	ErrValidation             = errors.New("validation failed")
	ErrConflict               = errors.New("conflict")
	ErrNotFound               = errors.New("not found")
	ErrHasDependents          = errors.New("has dependents")
	ErrInvitationInvalid      = errors.New("invitation invalid")
)

// InvitationReason explains why an invitation token cannot be used.
type InvitationReason string

const (
	ReasonNotFound    InvitationReason = "not-found"
	ReasonDeactivated InvitationReason = "deactivated"
	ReasonExpired     InvitationReason = "expired"
	ReasonExhausted   InvitationReason = "exhausted"
)

// InvitationInvalidError is returned when a registration presents a token
// that is not currently usable.
type InvitationInvalidError struct {
	Reason InvitationReason
}

func (e *InvitationInvalidError) Error() string {
	return fmt.Sprintf("invitation invalid: %s", e.Reason)
}

func (e *InvitationInvalidError) Is(target error) bool {
	return target == ErrInvitationInvalid
}
