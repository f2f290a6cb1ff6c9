package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskbill/internal/core/model"

	"github.com/jmoiron/sqlx"
)

const organizationColumns = `id, name, email, phone, address, created_at, updated_at`

type PostgresOrganizationRepository struct {
	db *sqlx.DB
}

func NewPostgresOrganizationRepository(db *sqlx.DB) *PostgresOrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO organizations (`+organizationColumns+`)
		VALUES (:id, :name, :email, :phone, :address, :created_at, :updated_at)`,
		org)
	return err
}

func (r *PostgresOrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE organizations SET name = :name, email = :email, phone = :phone,
			address = :address, updated_at = :updated_at
		WHERE id = :id`,
		org)
	if err != nil {
		return err
	}
	return expectRow(res, "organization", org.ID)
}

func (r *PostgresOrganizationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: organization %s still has members or projects", model.ErrHasDependents, id)
	}
	return err
}

func (r *PostgresOrganizationRepository) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	err := r.db.GetContext(ctx, &org, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *PostgresOrganizationRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Organization, error) {
	orgs := []*model.Organization{}
	if len(ids) == 0 {
		return orgs, nil
	}
	query, args, err := sqlx.In(`SELECT `+organizationColumns+` FROM organizations WHERE id IN (?) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &orgs, r.db.Rebind(query), args...)
	return orgs, err
}

func (r *PostgresOrganizationRepository) FindAll(ctx context.Context) ([]*model.Organization, error) {
	orgs := []*model.Organization{}
	err := r.db.SelectContext(ctx, &orgs, `SELECT `+organizationColumns+` FROM organizations ORDER BY name`)
	return orgs, err
}
