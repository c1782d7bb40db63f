package core

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func filterFixture() []Transaction {
	return []Transaction{
		{ID: "1", Type: Expense, Category: "alimentación", Amount: Money{1000}, Date: NewDate(2025, time.June, 15)},
		{ID: "2", Type: Income, Category: "salario", Amount: Money{90000}, Date: NewDate(2025, time.June, 10)},
		{ID: "3", Type: Expense, Category: "transporte", Amount: Money{300}, Date: NewDate(2025, time.June, 8)},
		{ID: "4", Type: Expense, Category: "alimentación", Amount: Money{700}, Date: NewDate(2025, time.June, 1)},
		{ID: "5", Type: Income, Category: "freelance", Amount: Money{5000}, Date: NewDate(2025, time.May, 30)},
		{ID: "6", Type: Expense, Category: "alimentación", Amount: Money{200}, Date: NewDate(2024, time.June, 15)},
	}
}

func ids(txs []Transaction) []string {
	out := []string{}
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestFilterWindows(t *testing.T) {
	now := time.Date(2025, time.June, 15, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		window DateWindow
		want   []string
	}{
		{WindowAll, []string{"1", "2", "3", "4", "5", "6"}},
		{WindowToday, []string{"1"}},
		// now-7d is 2025-06-08 18:30, so midnight of the 8th falls outside.
		{WindowWeek, []string{"1", "2"}},
		{WindowMonth, []string{"1", "2", "3", "4"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.window), func(t *testing.T) {
			got := Filter{Window: tc.window}.Apply(filterFixture(), now)
			if !reflect.DeepEqual(ids(got), tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ids(got))
			}
		})
	}
}

func TestFilterWeekIsRolling168Hours(t *testing.T) {
	txs := []Transaction{{ID: "edge", Type: Expense, Category: "ropa", Date: NewDate(2025, time.June, 8)}}
	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"cutoff lands on the date's midnight", time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), 1},
		{"one second past the cutoff", time.Date(2025, time.June, 15, 0, 0, 1, 0, time.UTC), 0},
		{"later the same day", time.Date(2025, time.June, 15, 18, 30, 0, 0, time.UTC), 0},
		{"six days later", time.Date(2025, time.June, 14, 23, 59, 0, 0, time.UTC), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Filter{Window: WindowWeek}).Apply(txs, tc.now); len(got) != tc.want {
				t.Fatalf("expected %d matches, got %d", tc.want, len(got))
			}
		})
	}
}

func TestFilterTypeAndCategory(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	f := Filter{Type: TypeExpense, Category: "alimentación", Window: WindowMonth}
	got := f.Apply(filterFixture(), now)
	if want := []string{"1", "4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
	if !f.Active() {
		t.Fatalf("filter should report active")
	}
	if (Filter{}).Active() {
		t.Fatalf("zero filter should not be active")
	}
}

func TestFilterIsCommutative(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	txs := filterFixture()
	typ := Filter{Type: TypeExpense}
	cat := Filter{Category: "alimentación"}
	win := Filter{Window: WindowMonth}
	orders := [][]Filter{
		{typ, cat, win},
		{typ, win, cat},
		{cat, typ, win},
		{cat, win, typ},
		{win, typ, cat},
		{win, cat, typ},
	}
	combined := Filter{Type: TypeExpense, Category: "alimentación", Window: WindowMonth}.Apply(txs, now)
	for i, order := range orders {
		got := txs
		for _, f := range order {
			got = f.Apply(got, now)
		}
		if !reflect.DeepEqual(ids(got), ids(combined)) {
			t.Fatalf("order %d: expected %v, got %v", i, ids(combined), ids(got))
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != TypeAll || f.Category != CategoryAll || f.Window != WindowAll {
		t.Fatalf("blank values should mean all, got %+v", f)
	}
	f, err = ParseFilter("Income", "salario", "WEEK")
	if err != nil || f.Type != TypeIncome || f.Window != WindowWeek || f.Category != "salario" {
		t.Fatalf("got %+v err=%v", f, err)
	}
	f, err = ParseFilter("expense", "  Alimentación ", "")
	if err != nil || f.Category != "alimentación" {
		t.Fatalf("category should be normalized like stored values, got %q err=%v", f.Category, err)
	}
	if _, err := ParseFilter("transfer", "", ""); !errors.Is(err, ErrInvalidTypeFilter) {
		t.Fatalf("expected ErrInvalidTypeFilter, got %v", err)
	}
	if _, err := ParseFilter("", "", "year"); !errors.Is(err, ErrInvalidDateWindow) {
		t.Fatalf("expected ErrInvalidDateWindow, got %v", err)
	}
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	got := Categories(filterFixture())
	want := []string{"alimentación", "salario", "transporte", "freelance"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := Categories(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %#v", got)
	}
}
