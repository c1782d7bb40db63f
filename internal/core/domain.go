package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// TransactionLoadLimit caps the transactions fetched per dashboard load.
	TransactionLoadLimit = 100
	// TipsLoadLimit caps the tips fetched per dashboard load.
	TipsLoadLimit = 5
	// TipsDisplayed is how many of the fetched tips are shown.
	TipsDisplayed = 3

	MaxDescriptionLength = 200
	MaxGoalTitleLength   = 100
)

type (
	TransactionType string

	GoalIcon string

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Category    string // lower-cased label
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	SavingsGoal struct {
		ID            string
		UserID        string
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      Date // zero when the goal has no deadline
		Icon          GoalIcon
		Completed     bool
		CreatedAt     time.Time
	}

	FinancialTip struct {
		ID        string
		Title     string
		Content   string
		Category  string
		CreatedAt time.Time
	}

	User struct {
		ID           string
		Email        string
		FullName     string
		PasswordHash string
		Currency     string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrEmptyTitle         = errors.New("empty goal title")
	ErrTitleTooLong       = errors.New("goal title too long")
	ErrInvalidTarget      = errors.New("invalid goal target")
	ErrInvalidIcon        = errors.New("invalid goal icon")
	ErrMissingOwner       = errors.New("missing owner")
)

// Per-type category lists; the first entry is the default for the type.
var (
	ExpenseCategories = []string{
		"alimentación", "transporte", "entretenimiento", "salud", "educación",
		"vivienda", "servicios", "ropa", "otros",
	}
	IncomeCategories = []string{
		"salario", "freelance", "negocio", "inversiones", "regalo", "otros",
	}
)

var GoalIcons = []GoalIcon{
	"target", "home", "car", "plane", "graduation-cap", "heart", "gift", "smartphone",
}

const DefaultGoalIcon GoalIcon = "target"

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Categories returns the allowed labels for the type.
func (t TransactionType) Categories() []string {
	if t == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// NormalizeCategory lower-cases the label and falls back to the type default
// when it is blank.
func NormalizeCategory(t TransactionType, category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return t.Categories()[0]
	}
	return c
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingOwner
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !containsString(t.Type.Categories(), t.Category) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidCategory, t.Category, t.Type)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(g.Title) > MaxGoalTitleLength {
		return ErrTitleTooLong
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !g.Deadline.IsZero() {
		if err := g.Deadline.Validate(); err != nil {
			return err
		}
	}
	if !g.Icon.Valid() {
		return ErrInvalidIcon
	}
	return nil
}

// ParseGoalIcon returns DefaultGoalIcon for blank input.
func ParseGoalIcon(s string) (GoalIcon, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultGoalIcon, nil
	}
	icon := GoalIcon(strings.ToLower(s))
	if !icon.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidIcon, s)
	}
	return icon, nil
}

func (i GoalIcon) Valid() bool {
	for _, known := range GoalIcons {
		if i == known {
			return true
		}
	}
	return false
}

// DisplayTips trims the fetched tips to the number shown on the dashboard.
func DisplayTips(tips []FinancialTip) []FinancialTip {
	if len(tips) > TipsDisplayed {
		return tips[:TipsDisplayed]
	}
	return tips
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
