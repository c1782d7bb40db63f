package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:   "u1",
		Type:     Expense,
		Amount:   Money{Cents: 1250},
		Category: "transporte",
		Date:     NewDate(2025, time.March, 3),
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"ok", func(*Transaction) {}, nil},
		{"missing owner", func(tx *Transaction) { tx.UserID = " " }, ErrMissingOwner},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"category of other type", func(tx *Transaction) { tx.Category = "salario" }, ErrInvalidCategory},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDescriptionLimitCountsRunes(t *testing.T) {
	tx := validTransaction()
	tx.Description = strings.Repeat("ñ", MaxDescriptionLength)
	if err := tx.Validate(); err != nil {
		t.Fatalf("200 runes should be accepted, got %v", err)
	}
}

func TestSavingsGoalValidate(t *testing.T) {
	base := SavingsGoal{
		UserID:       "u1",
		Title:        "Viaje a Japón",
		TargetAmount: Money{Cents: 20000},
		Icon:         DefaultGoalIcon,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	g := base
	g.TargetAmount = Money{}
	if !errors.Is(g.Validate(), ErrInvalidTarget) {
		t.Fatalf("zero target must be rejected")
	}

	g = base
	g.Title = ""
	if !errors.Is(g.Validate(), ErrEmptyTitle) {
		t.Fatalf("empty title must be rejected")
	}

	g = base
	g.Icon = "rocket"
	if !errors.Is(g.Validate(), ErrInvalidIcon) {
		t.Fatalf("unknown icon must be rejected")
	}

	g = base
	g.CurrentAmount = Money{Cents: -1}
	if !errors.Is(g.Validate(), ErrInvalidAmount) {
		t.Fatalf("negative current amount must be rejected")
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{"income": Income, " EXPENSE ": Expense} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v", in, got, err)
		}
	}
	if _, err := ParseTransactionType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory(Expense, ""); got != "alimentación" {
		t.Fatalf("expense default: got %q", got)
	}
	if got := NormalizeCategory(Income, "  "); got != "salario" {
		t.Fatalf("income default: got %q", got)
	}
	if got := NormalizeCategory(Expense, " Salud "); got != "salud" {
		t.Fatalf("expected lower-cased label, got %q", got)
	}
}

func TestParseGoalIcon(t *testing.T) {
	if icon, err := ParseGoalIcon(""); err != nil || icon != DefaultGoalIcon {
		t.Fatalf("blank icon: got %q err=%v", icon, err)
	}
	if icon, err := ParseGoalIcon("Plane"); err != nil || icon != "plane" {
		t.Fatalf("got %q err=%v", icon, err)
	}
	if _, err := ParseGoalIcon("boat"); !errors.Is(err, ErrInvalidIcon) {
		t.Fatalf("expected ErrInvalidIcon, got %v", err)
	}
}

func TestDisplayTips(t *testing.T) {
	tips := make([]FinancialTip, 5)
	if got := len(DisplayTips(tips)); got != TipsDisplayed {
		t.Fatalf("expected %d tips, got %d", TipsDisplayed, got)
	}
	if got := len(DisplayTips(tips[:2])); got != 2 {
		t.Fatalf("expected 2 tips, got %d", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil || d.String() != "2025-02-28" {
		t.Fatalf("got %v err=%v", d, err)
	}
	d, err = ParseDate("2025-02-28T00:00:00Z")
	if err != nil || d.String() != "2025-02-28" {
		t.Fatalf("timestamp suffix: got %v err=%v", d, err)
	}
	for _, in := range []string{"", "28/02/2025", "2025-02-30"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestDateComparisonsUseReferenceLocation(t *testing.T) {
	mexico := time.FixedZone("CST", -6*3600)
	// 2025-03-31 22:00 in Mexico City is already April 1st in UTC.
	now := time.Date(2025, time.March, 31, 22, 0, 0, 0, mexico)
	d := NewDate(2025, time.March, 31)
	if !d.SameDay(now) {
		t.Fatalf("expected same day in reference location")
	}
	if !d.SameMonth(now) {
		t.Fatalf("expected same month in reference location")
	}
	if d.SameDay(now.UTC()) {
		t.Fatalf("UTC view of now is a different day")
	}
}
