package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskbill/internal/core/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const projectColumns = `id, organization_id, name, description, member_ids, created_at, updated_at`

type projectRow struct {
	ID             string         `db:"id"`
	OrganizationID string         `db:"organization_id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	MemberIDs      pq.StringArray `db:"member_ids"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row projectRow) project() *model.Project {
	ids := []string(row.MemberIDs)
	if ids == nil {
		ids = []string{}
	}
	return &model.Project{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Name:           row.Name,
		Description:    row.Description,
		MemberIDs:      ids,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type PostgresProjectRepository struct {
	db *sqlx.DB
}

func NewPostgresProjectRepository(db *sqlx.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

func (r *PostgresProjectRepository) Create(ctx context.Context, p *model.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrganizationID, p.Name, p.Description, pq.Array(p.MemberIDs), p.CreatedAt, p.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: organization %s", model.ErrNotFound, p.OrganizationID)
	}
	return err
}

func (r *PostgresProjectRepository) Update(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = $3, description = $4, member_ids = $5, updated_at = $6
		WHERE id = $1 AND organization_id = $2`,
		p.ID, p.OrganizationID, p.Name, p.Description, pq.Array(p.MemberIDs), p.UpdatedAt)
	if err != nil {
		return err
	}
	return expectRow(res, "project", p.ID)
}

func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *PostgresProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.project(), nil
}

func (r *PostgresProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error) {
	if len(ids) == 0 {
		return []*model.Project{}, nil
	}
	return r.selectProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ANY($1) ORDER BY created_at`, pq.Array(ids))
}

func (r *PostgresProjectRepository) FindByOrganizations(ctx context.Context, orgIDs []string) ([]*model.Project, error) {
	if len(orgIDs) == 0 {
		return []*model.Project{}, nil
	}
	return r.selectProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE organization_id = ANY($1) ORDER BY created_at`, pq.Array(orgIDs))
}

func (r *PostgresProjectRepository) FindAll(ctx context.Context) ([]*model.Project, error) {
	return r.selectProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at`)
}

func (r *PostgresProjectRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM projects WHERE organization_id = $1`, orgID)
	return n, err
}

func (r *PostgresProjectRepository) selectProjects(ctx context.Context, query string, args ...interface{}) ([]*model.Project, error) {
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	projects := make([]*model.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.project())
	}
	return projects, nil
}
