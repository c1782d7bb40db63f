package http

import (
	"time"

	"finzen/internal/auth"
	"finzen/internal/core"
	"finzen/internal/services"
)

// JSON bodies for /api and for JSON callers of the write endpoints. Amounts
// are decimal strings.

type totalsJSON struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Share    int    `json:"share"`
}

type monthlyJSON struct {
	Year         int            `json:"year"`
	Month        int            `json:"month"`
	Totals       totalsJSON     `json:"totals"`
	IncomeCount  int            `json:"income_count"`
	ExpenseCount int            `json:"expense_count"`
	Breakdown    []categoryJSON `json:"breakdown"`
}

type goalJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Target    string `json:"target_amount"`
	Current   string `json:"current_amount"`
	Remaining string `json:"remaining"`
	Percent   int    `json:"percent"`
	Width     int    `json:"width"`
	Valid     bool   `json:"valid"`
	Deadline  string `json:"deadline,omitempty"`
	Icon      string `json:"icon"`
	Completed bool   `json:"completed"`
}

type tipJSON struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type transactionJSON struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

type summaryResponse struct {
	Overall   totalsJSON     `json:"overall"`
	Monthly   monthlyJSON    `json:"monthly"`
	Breakdown []categoryJSON `json:"breakdown"`
	Goals     []goalJSON     `json:"goals"`
	Tips      []tipJSON      `json:"tips"`
	Failed    []string       `json:"failed,omitempty"`
}

type transactionsResponse struct {
	Filter struct {
		Type     string `json:"type"`
		Category string `json:"category"`
		Range    string `json:"range"`
	} `json:"filter"`
	Transactions []transactionJSON `json:"transactions"`
	Categories   []string          `json:"categories"`
	Total        int               `json:"total"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

func newTotalsJSON(t core.Totals) totalsJSON {
	return totalsJSON{Income: t.Income.String(), Expenses: t.Expenses.String(), Balance: t.Balance.String()}
}

func newBreakdownJSON(items []core.CategoryTotal, total core.Money) []categoryJSON {
	out := make([]categoryJSON, 0, len(items))
	for _, c := range items {
		out = append(out, categoryJSON{Category: c.Category, Amount: c.Amount.String(), Share: core.Share(c.Amount, total)})
	}
	return out
}

func newGoalJSON(v services.GoalView) goalJSON {
	return goalJSON{
		ID:        v.Goal.ID,
		Title:     v.Goal.Title,
		Target:    v.Goal.TargetAmount.String(),
		Current:   v.Goal.CurrentAmount.String(),
		Remaining: v.Remaining.String(),
		Percent:   v.Progress.Percent,
		Width:     v.Progress.Width,
		Valid:     v.Progress.Valid,
		Deadline:  v.Goal.Deadline.String(),
		Icon:      string(v.Goal.Icon),
		Completed: v.Goal.Completed,
	}
}

func newTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.String(),
		CreatedAt:   tx.CreatedAt,
	}
}

func newSummaryResponse(v services.DashboardView) summaryResponse {
	m := v.Summary.Monthly
	resp := summaryResponse{
		Overall: newTotalsJSON(v.Summary.Overall),
		Monthly: monthlyJSON{
			Year:         m.Year,
			Month:        int(m.Month),
			Totals:       newTotalsJSON(m.Totals),
			IncomeCount:  m.IncomeCount,
			ExpenseCount: m.ExpenseCount,
			Breakdown:    newBreakdownJSON(m.Breakdown, m.Totals.Expenses),
		},
		Breakdown: newBreakdownJSON(v.Summary.Breakdown, v.Summary.Overall.Expenses),
		Goals:     make([]goalJSON, 0, len(v.Goals)),
		Tips:      make([]tipJSON, 0, len(v.Tips)),
		Failed:    v.Failed,
	}
	for _, g := range v.Goals {
		resp.Goals = append(resp.Goals, newGoalJSON(g))
	}
	for _, t := range v.Tips {
		resp.Tips = append(resp.Tips, tipJSON{Title: t.Title, Content: t.Content, Category: t.Category})
	}
	return resp
}

func newTransactionsResponse(v services.HistoryView) transactionsResponse {
	var resp transactionsResponse
	resp.Filter.Type = string(v.Filter.Type)
	resp.Filter.Category = v.Filter.Category
	resp.Filter.Range = string(v.Filter.Window)
	resp.Transactions = make([]transactionJSON, 0, len(v.Transactions))
	for _, tx := range v.Transactions {
		resp.Transactions = append(resp.Transactions, newTransactionJSON(tx))
	}
	resp.Categories = v.Categories
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	resp.Total = v.Total
	return resp
}

func newSessionResponse(sess auth.Session) sessionResponse {
	var resp sessionResponse
	resp.Token = sess.Token
	resp.ExpiresAt = sess.ExpiresAt
	resp.User.ID = sess.User.ID
	resp.User.Email = sess.User.Email
	resp.User.FullName = sess.User.FullName
	return resp
}
