package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"finzen/internal/core"
)

// Tab names and their canonical column order. Reads locate columns through the
// header row, so a spreadsheet may order them differently.
const (
	TabTransactions = "transactions"
	TabGoals        = "savings_goals"
	TabTips         = "financial_tips"
	TabUsers        = "users"
)

var columns = map[string][]string{
	TabTransactions: {"id", "user_id", "type", "amount", "category", "description", "date", "created_at"},
	TabGoals:        {"id", "user_id", "title", "target_amount", "current_amount", "deadline", "icon", "completed", "created_at"},
	TabTips:         {"id", "title", "content", "category", "created_at"},
	TabUsers:        {"id", "email", "full_name", "password_hash", "currency", "created_at"},
}

// row is one sheet row addressed by header name.
type row struct {
	index  map[string]int
	cells  []string
	number int // zero-based position in the sheet, header included
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(safeGet(r.cells, i))
}

func (r row) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseTransaction(r row) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(r.get("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(r.get("amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.get("amount"), err)
	}
	date, err := core.ParseDate(r.get("date"))
	if err != nil {
		return core.Transaction{}, err
	}
	id := r.get("id")
	if id == "" {
		return core.Transaction{}, fmt.Errorf("row %d: missing id", r.number+1)
	}
	return core.Transaction{
		ID:          id,
		UserID:      r.get("user_id"),
		Type:        typ,
		Amount:      amount,
		Category:    r.get("category"),
		Description: r.get("description"),
		Date:        date,
		CreatedAt:   parseTimestamp(r.get("created_at")),
	}, nil
}

func parseGoal(r row) (core.SavingsGoal, error) {
	target, err := core.ParseAmount(r.get("target_amount"))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("target_amount %q: %w", r.get("target_amount"), err)
	}
	current := core.Money{}
	if v := r.get("current_amount"); v != "" {
		if current, err = core.ParseAmount(v); err != nil {
			return core.SavingsGoal{}, fmt.Errorf("current_amount %q: %w", v, err)
		}
	}
	var deadline core.Date
	if v := r.get("deadline"); v != "" {
		if deadline, err = core.ParseDate(v); err != nil {
			return core.SavingsGoal{}, err
		}
	}
	icon, err := core.ParseGoalIcon(r.get("icon"))
	if err != nil {
		icon = core.DefaultGoalIcon
	}
	completed, _ := strconv.ParseBool(r.get("completed"))
	return core.SavingsGoal{
		ID:            r.get("id"),
		UserID:        r.get("user_id"),
		Title:         r.get("title"),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
		Icon:          icon,
		Completed:     completed,
		CreatedAt:     parseTimestamp(r.get("created_at")),
	}, nil
}

func parseTip(r row) (core.FinancialTip, error) {
	if r.get("title") == "" && r.get("content") == "" {
		return core.FinancialTip{}, fmt.Errorf("row %d: empty tip", r.number+1)
	}
	return core.FinancialTip{
		ID:        r.get("id"),
		Title:     r.get("title"),
		Content:   r.get("content"),
		Category:  r.get("category"),
		CreatedAt: parseTimestamp(r.get("created_at")),
	}, nil
}

func parseUser(r row) (core.User, error) {
	if r.get("id") == "" || r.get("email") == "" {
		return core.User{}, fmt.Errorf("row %d: incomplete user", r.number+1)
	}
	return core.User{
		ID:           r.get("id"),
		Email:        strings.ToLower(r.get("email")),
		FullName:     r.get("full_name"),
		PasswordHash: r.get("password_hash"),
		Currency:     r.get("currency"),
		CreatedAt:    parseTimestamp(r.get("created_at")),
	}, nil
}

func transactionRecord(t core.Transaction) map[string]string {
	return map[string]string{
		"id":          t.ID,
		"user_id":     t.UserID,
		"type":        string(t.Type),
		"amount":      t.Amount.String(),
		"category":    t.Category,
		"description": t.Description,
		"date":        t.Date.String(),
		"created_at":  formatTimestamp(t.CreatedAt),
	}
}

func goalRecord(g core.SavingsGoal) map[string]string {
	return map[string]string{
		"id":             g.ID,
		"user_id":        g.UserID,
		"title":          g.Title,
		"target_amount":  g.TargetAmount.String(),
		"current_amount": g.CurrentAmount.String(),
		"deadline":       g.Deadline.String(),
		"icon":           string(g.Icon),
		"completed":      strconv.FormatBool(g.Completed),
		"created_at":     formatTimestamp(g.CreatedAt),
	}
}

func userRecord(u core.User) map[string]string {
	return map[string]string{
		"id":            u.ID,
		"email":         u.Email,
		"full_name":     u.FullName,
		"password_hash": u.PasswordHash,
		"currency":      u.Currency,
		"created_at":    formatTimestamp(u.CreatedAt),
	}
}

// orderCells lays a record out following the sheet header, or the canonical
// column order when the sheet has no header yet.
func orderCells(tab string, header []string, record map[string]string) []any {
	cols := header
	if len(cols) == 0 {
		cols = columns[tab]
	}
	out := make([]any, len(cols))
	for i, h := range cols {
		out[i] = record[strings.ToLower(strings.TrimSpace(h))]
	}
	return out
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if d, err := core.ParseDate(s); err == nil {
		return d.Time
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
