package repository

import (
	"fmt"
	"strings"
	"time"
)

// Column is a whitelisted, table-qualified transaction column.
type Column string

const (
	ColUserID      Column = "t.user_id"
	ColHouseholdID Column = "t.household_id"
	ColDate        Column = "t.date"
	ColCategory    Column = "t.category"
)

// Op is a whitelisted comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

var allowedColumns = map[Column]struct{}{
	ColUserID:      {},
	ColHouseholdID: {},
	ColDate:        {},
	ColCategory:    {},
}

var allowedOps = map[Op]struct{}{
	OpEq:  {},
	OpGte: {},
	OpLte: {},
}

// Predicate is one `column op ?` condition. Value is always bound as a
// placeholder argument and never interpolated into SQL text.
type Predicate struct {
	Column Column
	Op     Op
	Value  any
}

// Compile joins predicates with AND and returns the condition text and its
// positional arguments. An empty list compiles to "1=1".
func Compile(preds []Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "1=1", nil, nil
	}
	parts := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		if _, ok := allowedColumns[p.Column]; !ok {
			return "", nil, fmt.Errorf("%w: column %q", ErrUnsafePredicate, p.Column)
		}
		if _, ok := allowedOps[p.Op]; !ok {
			return "", nil, fmt.Errorf("%w: operator %q", ErrUnsafePredicate, p.Op)
		}
		parts = append(parts, string(p.Column)+" "+string(p.Op)+" ?")
		args = append(args, p.Value)
	}
	return strings.Join(parts, " AND "), args, nil
}

// DateLayout is the wire and storage format of transaction dates.
const DateLayout = "2006-01-02"

// TransactionFilter selects the transactions visible to one request.
// When HouseholdID is set the scope is that household (the caller must
// already have passed the membership check); otherwise the scope is the
// caller's own transactions, personal and shared alike.
type TransactionFilter struct {
	UserID      uint64
	HouseholdID *uint64
	Start       *time.Time
	End         *time.Time
	Category    string
}

// Predicates builds the scope and range predicates. Category is only
// applied when includeCategory is set, which listing does and aggregation
// and category discovery do not.
func (f TransactionFilter) Predicates(includeCategory bool) []Predicate {
	preds := make([]Predicate, 0, 4)
	if f.HouseholdID != nil {
		preds = append(preds, Predicate{ColHouseholdID, OpEq, *f.HouseholdID})
	} else {
		preds = append(preds, Predicate{ColUserID, OpEq, f.UserID})
	}
	if f.Start != nil {
		preds = append(preds, Predicate{ColDate, OpGte, f.Start.Format(DateLayout)})
	}
	if f.End != nil {
		preds = append(preds, Predicate{ColDate, OpLte, f.End.Format(DateLayout)})
	}
	if includeCategory && f.Category != "" {
		preds = append(preds, Predicate{ColCategory, OpEq, f.Category})
	}
	return preds
}

// Period is a summary bucket granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod accepts the four known periods; an empty string means
// monthly.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "":
		return PeriodMonthly, true
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return Period(s), true
	}
	return "", false
}

// Bucket returns the key of the bucket containing d. Weekly buckets use
// ISO 8601 week numbering, so the days around new year may belong to the
// neighbouring ISO year.
func (p Period) Bucket(d time.Time) string {
	switch p {
	case PeriodDaily:
		return d.Format(DateLayout)
	case PeriodWeekly:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case PeriodYearly:
		return d.Format("2006")
	default:
		return d.Format("2006-01")
	}
}
