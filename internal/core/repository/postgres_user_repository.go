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

const userColumns = `id, email, password_hash, name, role, is_approved, is_owner, created_at, updated_at`

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :name, :role, :is_approved, :is_owner, :created_at, :updated_at)`,
		user)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user %s already exists", model.ErrConflict, user.Email)
	}
	return err
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET email = :email, password_hash = :password_hash, name = :name,
			role = :role, is_approved = :is_approved, updated_at = :updated_at
		WHERE id = :id`,
		user)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s already in use", model.ErrConflict, user.Email)
		}
		return err
	}
	return expectRow(res, "user", user.ID)
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND NOT is_owner`, id)
	return err
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepository) FindOwner(ctx context.Context) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE is_owner`)
}

func (r *PostgresUserRepository) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_approved = $2, updated_at = $3 WHERE id = $1 AND is_approved <> $2`,
		id, approved, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresUserRepository) get(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
