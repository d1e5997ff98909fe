package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionRepo reads and writes transactions. Every read takes a
// TransactionFilter whose scope predicate is compiled into the WHERE
// clause; there is no unscoped read path apart from GetByID, whose caller
// performs the access check on the returned row.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionSelectSQL = `SELECT t.id, t.user_id, u.username, t.amount, t.date, t.description,
		t.category, t.household_id, t.created_at
	FROM transactions t
	JOIN users u ON u.id = t.user_id`

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Create inserts the transaction and reloads it inside the same database
// transaction so the returned value carries generated fields.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, date, description, category, household_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount, t.Date, t.Description, nullString(t.Category), nullUint(t.HouseholdID))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out, err := scanTransaction(tx.QueryRowContext(ctx, transactionSelectSQL+" WHERE t.id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single transaction or ErrNotFound.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (*model.Transaction, error) {
	out, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelectSQL+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

// Update overwrites the mutable fields of a transaction owned by
// t.UserID and returns the stored row.
func (r *TransactionRepo) Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, date = ?, description = ?, category = ?, household_id = ?
		WHERE id = ? AND user_id = ?`,
		t.Amount, t.Date, t.Description, nullString(t.Category), nullUint(t.HouseholdID), t.ID, t.UserID)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, t.ID)
}

// Delete removes a transaction owned by userID.
func (r *TransactionRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the scoped transactions, most recent date first and most
// recently created first within a date.
func (r *TransactionRepo) List(ctx context.Context, f TransactionFilter) ([]model.Transaction, error) {
	cond, args, err := Compile(f.Predicates(true))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		transactionSelectSQL+" WHERE "+cond+" ORDER BY t.date DESC, t.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Points returns the (date, amount) pairs in scope for aggregation. The
// category filter is not applied.
func (r *TransactionRepo) Points(ctx context.Context, f TransactionFilter) ([]model.AmountPoint, error) {
	cond, args, err := Compile(f.Predicates(false))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT t.date, t.amount FROM transactions t WHERE "+cond+" ORDER BY t.date ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AmountPoint{}
	for rows.Next() {
		var p model.AmountPoint
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Categories returns the distinct non-null categories in scope.
func (r *TransactionRepo) Categories(ctx context.Context, f TransactionFilter) ([]string, error) {
	cond, args, err := Compile(f.Predicates(false))
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT t.category FROM transactions t WHERE "+cond+" AND t.category IS NOT NULL", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTransaction(s scanner) (*model.Transaction, error) {
	var (
		t         model.Transaction
		amount    decimal.Decimal
		date      time.Time
		category  sql.NullString
		household sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.UserName, &amount, &date, &t.Description,
		&category, &household, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Amount = amount
	t.Date = date.Format(DateLayout)
	if category.Valid {
		c := category.String
		t.Category = &c
	}
	if household.Valid {
		h := uint64(household.Int64)
		t.HouseholdID = &h
	}
	return &t, nil
}
