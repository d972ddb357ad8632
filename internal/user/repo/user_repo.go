package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ovaphlow/pitchfork/service-registration/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
// Queries are written with ? placeholders and rebound per driver.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// userRow mirrors the users table. created_at is unix milliseconds so the
// same schema works on SQLite and Postgres.
type userRow struct {
	SubjectID string `db:"subject_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
	Group     string `db:"user_group"`
	CreatedAt int64  `db:"created_at"`
}

// EnsureTable creates the users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  subject_id TEXT PRIMARY KEY,
  first_name VARCHAR(50) NOT NULL,
  last_name VARCHAR(50) NOT NULL,
  email TEXT NOT NULL,
  user_group TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

// Get returns the profile for subjectID or ErrNotFound.
func (r *UserRepo) Get(ctx context.Context, subjectID string) (*entity.Profile, error) {
	q := r.db.Rebind(`SELECT subject_id, first_name, last_name, email, user_group, created_at
	  FROM users WHERE subject_id = ?`)
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity.Profile{
		SubjectID: row.SubjectID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Group:     row.Group,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}

// Insert adds a new row. A primary key collision is reported as ErrDuplicate.
func (r *UserRepo) Insert(ctx context.Context, p *entity.Profile) error {
	const q = `INSERT INTO users (subject_id, first_name, last_name, email, user_group, created_at)
		  VALUES (:subject_id, :first_name, :last_name, :email, :user_group, :created_at)`
	row := userRow{
		SubjectID: p.SubjectID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Group:     p.Group,
		CreatedAt: p.CreatedAt.UTC().UnixMilli(),
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
