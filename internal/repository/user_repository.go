package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/household-ledger/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, auth0_id, username, email, created_at"

// Create inserts a user bound to the provider subject and returns the
// stored row. A second insert for the same subject fails with
// ErrSubjectExists, which keeps concurrent registrations safe.
func (r *UserRepo) Create(ctx context.Context, subject, username, email string) (*model.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (auth0_id, username, email) VALUES (?,?,?)",
		subject, strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrSubjectExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetBySubject fetches the user registered for a provider subject.
func (r *UserRepo) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE auth0_id=? LIMIT 1", subject))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Auth0ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
