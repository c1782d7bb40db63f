// Package storage is the SQLite backend: embedded migrations plus a repository
// mapping table rows to validated domain records.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

// Ensure interface conformance
var (
	_ tables.TransactionReader = (*SQLiteRepository)(nil)
	_ tables.TransactionWriter = (*SQLiteRepository)(nil)
	_ tables.GoalReader        = (*SQLiteRepository)(nil)
	_ tables.GoalWriter        = (*SQLiteRepository)(nil)
	_ tables.TipReader         = (*SQLiteRepository)(nil)
	_ tables.UserStore         = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("SQLite schema ready", "schema_version", version)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, ListTransactionsByUserParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed transaction row", log.FieldEntityID, row.ID, log.FieldError, err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t = tables.StampTransaction(t, r.now())
	err := r.queries.CreateTransaction(ctx, Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		CreatedAt:   formatTimestamp(t.CreatedAt),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved to SQLite", log.NewFields().
		WithTransaction(t.ID, string(t.Type), t.Amount.Cents, t.Category).
		WithUser(t.UserID).ToSlice()...)
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, DeleteTransactionParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return tables.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.queries.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.SavingsGoal, 0, len(rows))
	for _, row := range rows {
		g, err := goalFromRow(row)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed goal row", log.FieldEntityID, row.ID, log.FieldError, err)
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g = tables.StampGoal(g, r.now())
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	row := SavingsGoal{
		ID:                 g.ID,
		UserID:             g.UserID,
		Title:              g.Title,
		TargetAmountCents:  g.TargetAmount.Cents,
		CurrentAmountCents: g.CurrentAmount.Cents,
		Icon:               string(g.Icon),
		CreatedAt:          formatTimestamp(g.CreatedAt),
	}
	if !g.Deadline.IsZero() {
		row.Deadline = sql.NullString{String: g.Deadline.String(), Valid: true}
	}
	if g.Completed {
		row.Completed = 1
	}
	if err := r.queries.CreateGoal(ctx, row); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListTips(ctx context.Context, limit int) ([]core.FinancialTip, error) {
	rows, err := r.queries.ListTips(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list tips: %w", err)
	}
	out := make([]core.FinancialTip, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.FinancialTip{
			ID:        row.ID,
			Title:     row.Title,
			Content:   row.Content,
			Category:  row.Category,
			CreatedAt: parseTimestamp(row.CreatedAt),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u = tables.StampUser(u, r.now())
	err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Currency:     u.Currency,
		CreatedAt:    formatTimestamp(u.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, tables.ErrDuplicate
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	return userFromRow(row, err)
}

func (r *SQLiteRepository) FindUserByID(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	return userFromRow(row, err)
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        typ,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Description: row.Description,
		Date:        date,
		CreatedAt:   parseTimestamp(row.CreatedAt),
	}, nil
}

func goalFromRow(row SavingsGoal) (core.SavingsGoal, error) {
	var deadline core.Date
	if row.Deadline.Valid && row.Deadline.String != "" {
		d, err := core.ParseDate(row.Deadline.String)
		if err != nil {
			return core.SavingsGoal{}, err
		}
		deadline = d
	}
	icon, err := core.ParseGoalIcon(row.Icon)
	if err != nil {
		icon = core.DefaultGoalIcon
	}
	return core.SavingsGoal{
		ID:            row.ID,
		UserID:        row.UserID,
		Title:         row.Title,
		TargetAmount:  core.Money{Cents: row.TargetAmountCents},
		CurrentAmount: core.Money{Cents: row.CurrentAmountCents},
		Deadline:      deadline,
		Icon:          icon,
		Completed:     row.Completed != 0,
		CreatedAt:     parseTimestamp(row.CreatedAt),
	}, nil
}

func userFromRow(row User, err error) (core.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, tables.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		Currency:     row.Currency,
		CreatedAt:    parseTimestamp(row.CreatedAt),
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timestampLayout is fixed-width so text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
