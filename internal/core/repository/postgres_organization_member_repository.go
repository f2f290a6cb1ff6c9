package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskbill/internal/core/model"

	"github.com/jmoiron/sqlx"
)

const memberColumns = `id, organization_id, user_id, role, created_at, updated_at`

type PostgresOrganizationMemberRepository struct {
	db *sqlx.DB
}

func NewPostgresOrganizationMemberRepository(db *sqlx.DB) *PostgresOrganizationMemberRepository {
	return &PostgresOrganizationMemberRepository{db: db}
}

func (r *PostgresOrganizationMemberRepository) Upsert(ctx context.Context, member *model.OrganizationMember) (*model.OrganizationMember, error) {
	var stored model.OrganizationMember
	err := r.db.GetContext(ctx, &stored, `
		INSERT INTO organization_memberships (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, organization_id)
		DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		RETURNING `+memberColumns,
		member.ID, member.OrganizationID, member.UserID, member.Role, member.CreatedAt, member.UpdatedAt)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("%w: user %s or organization %s", model.ErrNotFound, member.UserID, member.OrganizationID)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *PostgresOrganizationMemberRepository) Delete(ctx context.Context, userID, orgID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_memberships WHERE user_id = $1 AND organization_id = $2`, userID, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresOrganizationMemberRepository) FindByUserAndOrg(ctx context.Context, userID, orgID string) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	err := r.db.GetContext(ctx, &member,
		`SELECT `+memberColumns+` FROM organization_memberships WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *PostgresOrganizationMemberRepository) FindByUser(ctx context.Context, userID string) ([]*model.OrganizationMember, error) {
	members := []*model.OrganizationMember{}
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM organization_memberships WHERE user_id = $1`, userID)
	return members, err
}

func (r *PostgresOrganizationMemberRepository) FindByOrganization(ctx context.Context, orgID string) ([]*model.OrganizationMember, error) {
	members := []*model.OrganizationMember{}
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+memberColumns+` FROM organization_memberships WHERE organization_id = $1`, orgID)
	return members, err
}

func (r *PostgresOrganizationMemberRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT count(*) FROM organization_memberships WHERE organization_id = $1`, orgID)
	return n, err
}
