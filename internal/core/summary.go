package core

import (
	"sort"
	"time"
)

// BreakdownLimit is the number of categories kept in a breakdown.
const BreakdownLimit = 5

type (
	// Totals sums income and expenses over a set of transactions.
	Totals struct {
		Income   Money
		Expenses Money
		Balance  Money
	}

	CategoryTotal struct {
		Category string
		Amount   Money
	}

	// MonthlySnapshot covers the calendar month of the reference time.
	MonthlySnapshot struct {
		Year         int
		Month        time.Month
		Totals       Totals
		IncomeCount  int
		ExpenseCount int
		Breakdown    []CategoryTotal
	}

	// Summary is what the dashboard renders from a transaction load.
	Summary struct {
		Overall   Totals
		Monthly   MonthlySnapshot
		Breakdown []CategoryTotal // all-time expense categories
	}
)

// ComputeTotals sums income and expense amounts; Balance is their difference.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income.Cents += tx.Amount.Cents
		case Expense:
			t.Expenses.Cents += tx.Amount.Cents
		}
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return t
}

// MonthlyTotals restricts the computation to transactions dated in the month
// and year of now, judged in now's location.
func MonthlyTotals(txs []Transaction, now time.Time) MonthlySnapshot {
	month := make([]Transaction, 0, len(txs))
	snap := MonthlySnapshot{Year: now.Year(), Month: now.Month()}
	for _, tx := range txs {
		if !tx.Date.SameMonth(now) {
			continue
		}
		month = append(month, tx)
		switch tx.Type {
		case Income:
			snap.IncomeCount++
		case Expense:
			snap.ExpenseCount++
		}
	}
	snap.Totals = ComputeTotals(month)
	snap.Breakdown = CategoryBreakdown(month, BreakdownLimit)
	return snap
}

// CategoryBreakdown sums expenses per category and returns the largest limit
// entries in descending order. Categories with equal totals keep the order in
// which they first appeared. Keys are compared exactly.
func CategoryBreakdown(txs []Transaction, limit int) []CategoryTotal {
	index := make(map[string]int)
	out := []CategoryTotal{}
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Category: tx.Category})
		}
		out[i].Amount.Cents += tx.Amount.Cents
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.Cents > out[b].Amount.Cents
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize computes every dashboard aggregate in one pass over the load.
func Summarize(txs []Transaction, now time.Time) Summary {
	return Summary{
		Overall:   ComputeTotals(txs),
		Monthly:   MonthlyTotals(txs, now),
		Breakdown: CategoryBreakdown(txs, BreakdownLimit),
	}
}

// Share returns amount as a whole percentage of total, clamped to [0,100].
// A non-positive total yields 0.
func Share(amount, total Money) int {
	if total.Cents <= 0 || amount.Cents <= 0 {
		return 0
	}
	return clampPercent(roundPercent(float64(amount.Cents) / float64(total.Cents) * 100))
}
