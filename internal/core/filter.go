package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"
)

const (
	WindowAll   DateWindow = "all"
	WindowToday DateWindow = "today"
	WindowWeek  DateWindow = "week"
	WindowMonth DateWindow = "month"
)

// CategoryAll disables the category predicate.
const CategoryAll = "all"

const week = 7 * 24 * time.Hour

var (
	ErrInvalidTypeFilter = errors.New("invalid type filter")
	ErrInvalidDateWindow = errors.New("invalid date window")
)

type (
	TypeFilter string
	DateWindow string

	// Filter is the conjunction of a type, a category and a date window.
	// The zero value matches everything.
	Filter struct {
		Type     TypeFilter
		Category string
		Window   DateWindow
	}
)

// ParseFilter builds a Filter from request values; blanks mean "all".
func ParseFilter(typ, category, window string) (Filter, error) {
	f := Filter{
		Type:     TypeFilter(strings.ToLower(strings.TrimSpace(typ))),
		Category: strings.ToLower(strings.TrimSpace(category)),
		Window:   DateWindow(strings.ToLower(strings.TrimSpace(window))),
	}
	if f.Type == "" {
		f.Type = TypeAll
	}
	if f.Category == "" {
		f.Category = CategoryAll
	}
	if f.Window == "" {
		f.Window = WindowAll
	}
	switch f.Type {
	case TypeAll, TypeIncome, TypeExpense:
	default:
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidTypeFilter, typ)
	}
	switch f.Window {
	case WindowAll, WindowToday, WindowWeek, WindowMonth:
	default:
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidDateWindow, window)
	}
	return f, nil
}

// Active reports whether any predicate narrows the result.
func (f Filter) Active() bool {
	return !f.matchesAnyType() || !f.matchesAnyCategory() || !f.matchesAnyDate()
}

// Match applies the three predicates to one transaction.
func (f Filter) Match(tx Transaction, now time.Time) bool {
	if !f.matchesAnyType() && string(tx.Type) != string(f.Type) {
		return false
	}
	if !f.matchesAnyCategory() && tx.Category != f.Category {
		return false
	}
	switch f.Window {
	case WindowToday:
		return tx.Date.SameDay(now)
	case WindowWeek:
		return !tx.Date.In(now.Location()).Before(now.Add(-week))
	case WindowMonth:
		return tx.Date.SameMonth(now)
	}
	return true
}

// Apply returns the matching transactions in input order.
func (f Filter) Apply(txs []Transaction, now time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx, now) {
			out = append(out, tx)
		}
	}
	return out
}

func (f Filter) matchesAnyType() bool     { return f.Type == "" || f.Type == TypeAll }
func (f Filter) matchesAnyCategory() bool { return f.Category == "" || f.Category == CategoryAll }
func (f Filter) matchesAnyDate() bool     { return f.Window == "" || f.Window == WindowAll }

// Categories lists the distinct categories in first-seen order.
func Categories(txs []Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	out := []string{}
	for _, tx := range txs {
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	return out
}
