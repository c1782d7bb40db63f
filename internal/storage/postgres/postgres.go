// Package postgres is the PostgreSQL backend. Queries go through a pgx pool;
// schema migrations run over database/sql with lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/storage"
	"finzen/internal/tables"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type Repository struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	now    func() time.Time
}

// Ensure interface conformance
var (
	_ tables.TransactionReader = (*Repository)(nil)
	_ tables.TransactionWriter = (*Repository)(nil)
	_ tables.GoalReader        = (*Repository)(nil)
	_ tables.GoalWriter        = (*Repository)(nil)
	_ tables.TipReader         = (*Repository)(nil)
	_ tables.UserStore         = (*Repository)(nil)
)

// Open migrates the database at url and connects a pool to it.
func Open(ctx context.Context, url string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)
	version, err := RunMigrations(url)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("Postgres schema ready", "schema_version", version)
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{
		pool:   pool,
		logger: logger,
		now:    time.Now,
	}, nil
}

// RunMigrations brings the database at url up to the embedded schema over a
// short-lived lib/pq connection.
func RunMigrations(url string) (uint, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return 0, fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return 0, fmt.Errorf("create postgres driver: %w", err)
	}
	return storage.MigrateUp(migrationsFS, "postgres", driver)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, amount_cents, category, description, date, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t    core.Transaction
			typ  string
			date time.Time
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category, &t.Description, &date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Type, err = core.ParseTransactionType(typ); err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed transaction row", log.FieldEntityID, t.ID, log.FieldError, err)
			continue
		}
		t.Date = core.DateOf(date)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t = tables.StampTransaction(t, r.now())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date.Time, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tables.ErrNotFound
	}
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, target_amount_cents, current_amount_cents, deadline, icon, completed, created_at
		FROM savings_goals
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		var (
			g        core.SavingsGoal
			deadline *time.Time
			icon     string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
			&deadline, &icon, &g.Completed, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if deadline != nil {
			g.Deadline = core.DateOf(*deadline)
		}
		if g.Icon, err = core.ParseGoalIcon(icon); err != nil {
			g.Icon = core.DefaultGoalIcon
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g = tables.StampGoal(g, r.now())
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	var deadline any
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.Time
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO savings_goals (id, user_id, title, target_amount_cents, current_amount_cents, deadline, icon, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.UserID, g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, deadline, string(g.Icon), g.Completed, g.CreatedAt)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListTips(ctx context.Context, limit int) ([]core.FinancialTip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, content, category, created_at
		FROM financial_tips
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tips: %w", err)
	}
	defer rows.Close()

	out := make([]core.FinancialTip, 0, limit)
	for rows.Next() {
		var tip core.FinancialTip
		if err := rows.Scan(&tip.ID, &tip.Title, &tip.Content, &tip.Category, &tip.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tip: %w", err)
		}
		out = append(out, tip)
	}
	return out, rows.Err()
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u = tables.StampUser(u, r.now())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.FullName, u.PasswordHash, u.Currency, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.User{}, tables.ErrDuplicate
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.findUser(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return r.findUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg string) (core.User, error) {
	var u core.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, currency, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Currency, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, tables.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
