package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskbill/internal/core/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const taskColumns = `id, project_id, title, description, assignee_id, status, hours, created_at, updated_at`

type PostgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, t *model.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.AssigneeID, t.Status, t.Hours, t.CreatedAt, t.UpdatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: project %s", model.ErrNotFound, t.ProjectID)
	}
	return err
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = $3, description = $4, assignee_id = $5, status = $6, hours = $7, updated_at = $8
		WHERE id = $1 AND project_id = $2`,
		t.ID, t.ProjectID, t.Title, t.Description, t.AssigneeID, t.Status, t.Hours, t.UpdatedAt)
	if err != nil {
		return err
	}
	return expectRow(res, "task", t.ID)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *PostgresTaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *PostgresTaskRepository) FindByProjects(ctx context.Context, projectIDs []string) ([]*model.Task, error) {
	tasks := []*model.Task{}
	if len(projectIDs) == 0 {
		return tasks, nil
	}
	err := r.db.SelectContext(ctx, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ANY($1) ORDER BY created_at`, pq.Array(projectIDs))
	return tasks, err
}
