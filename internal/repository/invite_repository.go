package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/household-ledger/internal/model"
)

// InviteRepo stores household invite codes.
type InviteRepo struct {
	db *sql.DB
}

// NewInviteRepo returns a new InviteRepo bound to the given database.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

const inviteColumns = "id, household_id, invite_code, is_active, created_at, expires_at"

// Create stores an active invite. A code clash with an existing invite
// returns ErrInviteCodeExists so the caller can retry with a fresh code.
func (r *InviteRepo) Create(ctx context.Context, householdID uint64, code string, expiresAt *time.Time) (*model.Invite, error) {
	var exp any
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO invites (household_id, invite_code, is_active, expires_at) VALUES (?, ?, TRUE, ?)",
		householdID, code, exp)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrInviteCodeExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return scanInvite(r.db.QueryRowContext(ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE id=?", id))
}

// GetByCode looks an invite up by its code, regardless of state.
func (r *InviteRepo) GetByCode(ctx context.Context, code string) (*model.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE invite_code=? LIMIT 1", code))
}

// ListActive returns the household's invites that are active and not
// expired at now, newest first.
func (r *InviteRepo) ListActive(ctx context.Context, householdID uint64, now time.Time) ([]model.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+inviteColumns+` FROM invites
		WHERE household_id = ? AND is_active = TRUE AND (expires_at IS NULL OR expires_at >= ?)
		ORDER BY created_at DESC, id DESC`, householdID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Invite{}
	for rows.Next() {
		inv, err := scanInviteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInviteRow(s scanner) (*model.Invite, error) {
	var (
		inv model.Invite
		exp sql.NullTime
	)
	if err := s.Scan(&inv.ID, &inv.HouseholdID, &inv.Code, &inv.IsActive, &inv.CreatedAt, &exp); err != nil {
		return nil, err
	}
	if exp.Valid {
		t := exp.Time
		inv.ExpiresAt = &t
	}
	return &inv, nil
}

func scanInvite(row *sql.Row) (*model.Invite, error) {
	inv, err := scanInviteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}
