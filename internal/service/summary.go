package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/repository"
)

// Summarize groups points into period buckets ordered by bucket key.
// Average is rounded half away from zero to two places.
func Summarize(points []model.AmountPoint, period repository.Period) []model.SummaryBucket {
	idx := map[string]int{}
	out := []model.SummaryBucket{}
	for _, p := range points {
		key := period.Bucket(p.Date)
		i, ok := idx[key]
		if !ok {
			idx[key] = len(out)
			out = append(out, model.SummaryBucket{
				Period:      key,
				TotalAmount: decimal.Zero,
				MinAmount:   p.Amount,
				MaxAmount:   p.Amount,
			})
			i = len(out) - 1
		}
		b := &out[i]
		b.TotalAmount = b.TotalAmount.Add(p.Amount)
		b.TransactionCount++
		if p.Amount.LessThan(b.MinAmount) {
			b.MinAmount = p.Amount
		}
		if p.Amount.GreaterThan(b.MaxAmount) {
			b.MaxAmount = p.Amount
		}
	}
	for i := range out {
		out[i].AvgAmount = out[i].TotalAmount.
			Div(decimal.NewFromInt(int64(out[i].TransactionCount))).
			Round(2)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// DefaultCategories are always offered by the category listing.
var DefaultCategories = []string{
	"Groceries",
	"Dining",
	"Entertainment",
	"Transportation",
	"Housing",
	"Utilities",
	"Healthcare",
	"Shopping",
	"Travel",
	"Income",
}

// mergeCategories unions used with DefaultCategories, deduplicated and
// sorted ascending.
func mergeCategories(used []string) []string {
	set := make(map[string]struct{}, len(DefaultCategories)+len(used))
	for _, c := range DefaultCategories {
		set[c] = struct{}{}
	}
	for _, c := range used {
		if c != "" {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
