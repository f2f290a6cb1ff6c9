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

// postgresSchema is the logical shape the engine relies on. The unique
// constraints on memberships and tokens, and the single-owner index, back the
// invariants the services assume.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL CHECK (role IN ('owner', 'org-admin', 'lead', 'member')),
	is_approved   BOOLEAN NOT NULL DEFAULT FALSE,
	is_owner      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_single_owner ON users (is_owner) WHERE is_owner;

CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS organization_memberships (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations (id) ON DELETE RESTRICT,
	user_id         TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	role            TEXT NOT NULL CHECK (role IN ('owner', 'org-admin', 'lead', 'member')),
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, organization_id)
);

CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations (id) ON DELETE RESTRICT,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	member_ids      TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	assignee_id TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	hours       DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS invitation_links (
	id              TEXT PRIMARY KEY,
	token           TEXT NOT NULL UNIQUE,
	organization_id TEXT NOT NULL REFERENCES organizations (id) ON DELETE CASCADE,
	role            TEXT NOT NULL CHECK (role IN ('owner', 'org-admin', 'lead', 'member')),
	issuer_id       TEXT NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	expires_at      TIMESTAMPTZ,
	max_uses        INTEGER CHECK (max_uses > 0),
	used_count      INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL
);
`

// MigratePostgres creates the tables when they do not exist yet.
func MigratePostgres(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == "23505"
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == "23503"
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, kind, id)
	}
	return nil
}
