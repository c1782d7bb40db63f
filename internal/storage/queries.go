package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the tables; dates and timestamps are stored as text.
type (
	Transaction struct {
		ID          string
		UserID      string
		Type        string
		AmountCents int64
		Category    string
		Description string
		Date        string
		CreatedAt   string
	}

	SavingsGoal struct {
		ID                 string
		UserID             string
		Title              string
		TargetAmountCents  int64
		CurrentAmountCents int64
		Deadline           sql.NullString
		Icon               string
		Completed          int64
		CreatedAt          string
	}

	FinancialTip struct {
		ID        string
		Title     string
		Content   string
		Category  string
		CreatedAt string
	}

	User struct {
		ID           string
		Email        string
		FullName     string
		PasswordHash string
		Currency     string
		CreatedAt    string
	}
)

const listTransactionsByUser = `
SELECT id, user_id, type, amount_cents, category, description, date, created_at
FROM transactions
WHERE user_id = ?
ORDER BY date DESC, created_at DESC
LIMIT ?
`

type ListTransactionsByUserParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListTransactionsByUser(ctx context.Context, arg ListTransactionsByUserParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Type,
			&i.AmountCents,
			&i.Category,
			&i.Description,
			&i.Date,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createTransaction = `
INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Type,
		arg.AmountCents,
		arg.Category,
		arg.Description,
		arg.Date,
		arg.CreatedAt,
	)
	return err
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ? AND user_id = ?
`

type DeleteTransactionParams struct {
	ID     string
	UserID string
}

// DeleteTransaction returns the number of rows removed.
func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listGoalsByUser = `
SELECT id, user_id, title, target_amount_cents, current_amount_cents, deadline, icon, completed, created_at
FROM savings_goals
WHERE user_id = ?
ORDER BY created_at DESC
`

func (q *Queries) ListGoalsByUser(ctx context.Context, userID string) ([]SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoalsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SavingsGoal
	for rows.Next() {
		var i SavingsGoal
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Title,
			&i.TargetAmountCents,
			&i.CurrentAmountCents,
			&i.Deadline,
			&i.Icon,
			&i.Completed,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createGoal = `
INSERT INTO savings_goals (id, user_id, title, target_amount_cents, current_amount_cents, deadline, icon, completed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg SavingsGoal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.TargetAmountCents,
		arg.CurrentAmountCents,
		arg.Deadline,
		arg.Icon,
		arg.Completed,
		arg.CreatedAt,
	)
	return err
}

const listTips = `
SELECT id, title, content, category, created_at
FROM financial_tips
ORDER BY created_at, id
LIMIT ?
`

func (q *Queries) ListTips(ctx context.Context, limit int64) ([]FinancialTip, error) {
	rows, err := q.db.QueryContext(ctx, listTips, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinancialTip
	for rows.Next() {
		var i FinancialTip
		if err := rows.Scan(&i.ID, &i.Title, &i.Content, &i.Category, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createUser = `
INSERT INTO users (id, email, full_name, password_hash, currency, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateUser(ctx context.Context, arg User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Email,
		arg.FullName,
		arg.PasswordHash,
		arg.Currency,
		arg.CreatedAt,
	)
	return err
}

const getUserByEmail = `
SELECT id, email, full_name, password_hash, currency, created_at
FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.FullName, &i.PasswordHash, &i.Currency, &i.CreatedAt)
	return i, err
}

const getUserByID = `
SELECT id, email, full_name, password_hash, currency, created_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.FullName, &i.PasswordHash, &i.Currency, &i.CreatedAt)
	return i, err
}
