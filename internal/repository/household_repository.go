package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/household-ledger/internal/model"
)

// HouseholdRepo manages households and their membership rows. Membership
// is append-only: rows are written when a household is created and when
// an invite is redeemed, and never updated.
type HouseholdRepo struct {
	db *sql.DB
}

// NewHouseholdRepo returns a new HouseholdRepo bound to the given database.
func NewHouseholdRepo(db *sql.DB) *HouseholdRepo { return &HouseholdRepo{db: db} }

const householdSummarySQL = `SELECT h.id, h.name, h.creator_id, u.username, h.created_at
	FROM households h
	JOIN users u ON u.id = h.creator_id`

// Create inserts the household and the creator's membership in one
// transaction and returns the household summary.
func (r *HouseholdRepo) Create(ctx context.Context, name string, creatorID uint64) (*model.Household, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO households (name, creator_id) VALUES (?, ?)", name, creatorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := r.addMemberTx(ctx, tx, uint64(id), creatorID); err != nil {
		return nil, err
	}
	h, err := getHousehold(ctx, tx, uint64(id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return h, nil
}

// AddMember inserts a membership row and returns the household summary,
// both inside one transaction. An existing membership yields
// ErrMembershipExists and nothing is written.
func (r *HouseholdRepo) AddMember(ctx context.Context, householdID, userID uint64) (*model.Household, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.addMemberTx(ctx, tx, householdID, userID); err != nil {
		return nil, err
	}
	h, err := getHousehold(ctx, tx, householdID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HouseholdRepo) addMemberTx(ctx context.Context, tx *sql.Tx, householdID, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO household_members (household_id, user_id) VALUES (?, ?)",
		householdID, userID)
	if isDuplicate(err) {
		return ErrMembershipExists
	}
	return err
}

// IsMember reports whether a membership row exists for the pair.
func (r *HouseholdRepo) IsMember(ctx context.Context, householdID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM household_members WHERE household_id=? AND user_id=? LIMIT 1",
		householdID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetCreatorID returns the creator of a household or ErrNotFound.
func (r *HouseholdRepo) GetCreatorID(ctx context.Context, householdID uint64) (uint64, error) {
	var creatorID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT creator_id FROM households WHERE id=? LIMIT 1", householdID).Scan(&creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return creatorID, err
}

// GetSummary returns the household with its creator's username.
func (r *HouseholdRepo) GetSummary(ctx context.Context, householdID uint64) (*model.Household, error) {
	return getHousehold(ctx, r.db, householdID)
}

func getHousehold(ctx context.Context, q queryRower, id uint64) (*model.Household, error) {
	var h model.Household
	err := q.QueryRowContext(ctx, householdSummarySQL+" WHERE h.id = ?", id).
		Scan(&h.ID, &h.Name, &h.CreatorID, &h.CreatorName, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListForUser returns every household the user belongs to, newest first.
func (r *HouseholdRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Household, error) {
	rows, err := r.db.QueryContext(ctx, householdSummarySQL+`
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = ?
		ORDER BY h.created_at DESC, h.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Household{}
	for rows.Next() {
		var h model.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatorID, &h.CreatorName, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListMembers returns the members of a household in join order.
func (r *HouseholdRepo) ListMembers(ctx context.Context, householdID uint64) ([]model.Member, error) {
	const q = `SELECT u.id, u.username, u.email, (h.creator_id = u.id) AS is_creator, m.joined_at
		FROM household_members m
		JOIN users u ON u.id = m.user_id
		JOIN households h ON h.id = m.household_id
		WHERE m.household_id = ?
		ORDER BY m.joined_at ASC, u.id ASC`
	rows, err := r.db.QueryContext(ctx, q, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.IsCreator, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
