package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single income (positive) or expense (negative) entry.
// A transaction with a HouseholdID is shared with that household's
// members; without one it is personal to its owner.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner who recorded the transaction.
//  UserName    – owner's username (joined, read-only).
//  Amount      – signed decimal amount.
//  Date        – calendar date, formatted YYYY-MM-DD.
//  Description – free text.
//  Category    – optional category label.
//  HouseholdID – optional household scope.
//  CreatedAt   – timestamp of creation; tie-breaker for ordering.
type Transaction struct {
	ID          uint64          `json:"id"`                  // transactions.id
	UserID      uint64          `json:"user_id"`             // transactions.user_id
	UserName    string          `json:"user_name,omitempty"` // users.username
	Amount      decimal.Decimal `json:"amount"`              // transactions.amount
	Date        string          `json:"date"`                // transactions.date
	Description string          `json:"description"`         // transactions.description
	Category    *string         `json:"category"`            // transactions.category (nullable)
	HouseholdID *uint64         `json:"household_id"`        // transactions.household_id (nullable)
	CreatedAt   time.Time       `json:"created_at"`          // transactions.created_at
}

// AmountPoint is the slice of a transaction the summary read path needs.
type AmountPoint struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Summary is the aggregation result for one period granularity.
type Summary struct {
	Period  string          `json:"period"`  // daily, weekly, monthly or yearly
	Buckets []SummaryBucket `json:"summary"` // ascending by bucket key
}

// SummaryBucket aggregates the transactions that fall into one period.
type SummaryBucket struct {
	Period           string          `json:"period"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int             `json:"transaction_count"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
	AvgAmount        decimal.Decimal `json:"avg_amount"`
}
