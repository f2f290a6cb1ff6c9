package service

import (
	"context"
	"fmt"

	"taskbill/internal/core/model"
	"taskbill/internal/core/repository"
)

// RequireIdentity fails with ErrUnauthorized when no identity was resolved.
func RequireIdentity(actor *model.Identity) error {
	if actor == nil || actor.UserID == "" {
		return model.ErrUnauthorized
	}
	return nil
}

// RequireActive gates every mutating operation: the caller must be
// authenticated and approved.
func RequireActive(actor *model.Identity) error {
	if err := RequireIdentity(actor); err != nil {
		return err
	}
	if !actor.IsApproved {
		return model.ErrAccountPendingApproval
	}
	return nil
}

// requireOrgRole checks that an approved actor holds at least min inside
// orgID. The owner passes for every organization.
func requireOrgRole(actor *model.Identity, orgID string, min model.Role) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !actor.HasOrgRole(orgID, min) {
		return fmt.Errorf("%w: %s role required in organization %s", model.ErrForbidden, min, orgID)
	}
	return nil
}

// requireGlobalRole checks the actor's global role.
func requireGlobalRole(actor *model.Identity, min model.Role) error {
	if err := RequireActive(actor); err != nil {
		return err
	}
	if !model.AtLeast(actor.GlobalRole, min) {
		return fmt.Errorf("%w: %s role required", model.ErrForbidden, min)
	}
	return nil
}

// requireOrgMember fails with ErrValidation unless userID has a row in orgID.
func requireOrgMember(ctx context.Context, members repository.OrganizationMemberRepository, orgID, userID string) error {
	m, err := members.FindByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: user %s is not a member of organization %s", model.ErrValidation, userID, orgID)
	}
	return nil
}

// accountScope reports how far actor's org-admin authority reaches over
// targetID's account. some is true when actor administers at least one
// organization the target belongs to; all when it administers every one of
// them. A target without memberships is in nobody's scope but the owner's.
func accountScope(ctx context.Context, members repository.OrganizationMemberRepository, actor *model.Identity, targetID string) (some, all bool, err error) {
	if actor.IsOwner() {
		return true, true, nil
	}
	rows, err := members.FindByUser(ctx, targetID)
	if err != nil {
		return false, false, err
	}
	all = len(rows) > 0
	for _, m := range rows {
		if actor.HasOrgRole(m.OrganizationID, model.RoleOrgAdmin) {
			some = true
		} else {
			all = false
		}
	}
	return some, all, nil
}
