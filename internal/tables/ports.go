// Package tables defines the remote-collection contract every storage backend
// implements: owner-scoped reads in a fixed order, inserts and deletes.
package tables

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"finzen/internal/core"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (user email) is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// Ports for outbound adapters.
type (
	// TransactionReader lists a user's transactions by date, newest first.
	TransactionReader interface {
		ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// InsertTransaction stores t and returns it with ID and CreatedAt set.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// DeleteTransaction removes the row only when it belongs to userID.
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// GoalReader lists a user's goals by creation time, newest first.
	GoalReader interface {
		ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
	}

	GoalWriter interface {
		InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	}

	TipReader interface {
		ListTips(ctx context.Context, limit int) ([]core.FinancialTip, error)
	}

	// UserStore backs the identity collaborator. Emails are stored lower-cased.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		FindUserByEmail(ctx context.Context, email string) (core.User, error)
		FindUserByID(ctx context.Context, id string) (core.User, error)
	}
)

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// StampTransaction fills the identifier and creation time when missing.
func StampTransaction(t core.Transaction, now time.Time) core.Transaction {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}
	return t
}

func StampGoal(g core.SavingsGoal, now time.Time) core.SavingsGoal {
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now.UTC()
	}
	if g.Icon == "" {
		g.Icon = core.DefaultGoalIcon
	}
	return g
}

func StampUser(u core.User, now time.Time) core.User {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now.UTC()
	}
	if u.Currency == "" {
		u.Currency = DefaultCurrency
	}
	return u
}

// DefaultCurrency is assigned to new users; amounts are never converted.
const DefaultCurrency = "MXN"

// ValidID reports whether id looks like an identifier produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
