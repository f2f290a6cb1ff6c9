package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskbill/internal/core/model"

	"github.com/jmoiron/sqlx"
)

const invitationColumns = `id, token, organization_id, role, issuer_id, active, expires_at, max_uses, used_count, created_at`

type PostgresInvitationRepository struct {
	db *sqlx.DB
}

func NewPostgresInvitationRepository(db *sqlx.DB) *PostgresInvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

func (r *PostgresInvitationRepository) Create(ctx context.Context, link *model.InvitationLink) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO invitation_links (`+invitationColumns+`)
		VALUES (:id, :token, :organization_id, :role, :issuer_id, :active, :expires_at, :max_uses, :used_count, :created_at)`,
		link)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: invitation token collision", model.ErrConflict)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: organization %s", model.ErrNotFound, link.OrganizationID)
	}
	return err
}

func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*model.InvitationLink, error) {
	var link model.InvitationLink
	err := r.db.GetContext(ctx, &link, `SELECT `+invitationColumns+` FROM invitation_links WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *PostgresInvitationRepository) FindByOrganization(ctx context.Context, orgID string) ([]*model.InvitationLink, error) {
	links := []*model.InvitationLink{}
	err := r.db.SelectContext(ctx, &links,
		`SELECT `+invitationColumns+` FROM invitation_links WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	return links, err
}

func (r *PostgresInvitationRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_links SET used_count = used_count + 1
		WHERE token = $1
			AND active
			AND (expires_at IS NULL OR expires_at >= $2)
			AND (max_uses IS NULL OR used_count < max_uses)`,
		token, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresInvitationRepository) Deactivate(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitation_links SET active = FALSE WHERE token = $1 AND active`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresInvitationRepository) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitation_links WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresInvitationRepository) DeleteByOrganization(ctx context.Context, orgID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitation_links WHERE organization_id = $1`, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
