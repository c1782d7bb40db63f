// Package sheets stores FinZen collections in a Google spreadsheet, one tab per
// collection with a header row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
	now           func() time.Time

	mu       sync.Mutex
	sheetIDs map[string]int64
	// writes serializes read-modify-write sequences (append, delete, unique email).
	writes sync.Mutex
}

type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
}

// Ensure interface conformance
var (
	_ tables.TransactionReader = (*Client)(nil)
	_ tables.TransactionWriter = (*Client)(nil)
	_ tables.GoalReader        = (*Client)(nil)
	_ tables.GoalWriter        = (*Client)(nil)
	_ tables.TipReader         = (*Client)(nil)
	_ tables.UserStore         = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentials, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		logger:        logger,
		now:           time.Now,
		sheetIDs:      map[string]int64{},
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

func (c *Client) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := c.readRows(ctx, TabTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0)
	for _, r := range rows {
		if r.get("user_id") != userID {
			continue
		}
		t, err := parseTransaction(r)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed transaction row", "row", r.number+1, "error", err)
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	t = tables.StampTransaction(t, c.now())
	if err := c.appendRecord(ctx, TabTransactions, transactionRecord(t)); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// DeleteTransaction removes the matching row with a DeleteDimension request.
func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	c.writes.Lock()
	defer c.writes.Unlock()

	rows, err := c.readRows(ctx, TabTransactions)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.get("id") != id || r.get("user_id") != userID {
			continue
		}
		sheetID, err := c.sheetID(ctx, TabTransactions)
		if err != nil {
			return err
		}
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				DeleteDimension: &gsheet.DeleteDimensionRequest{
					Range: &gsheet.DimensionRange{
						SheetId:         sheetID,
						Dimension:       "ROWS",
						StartIndex:      int64(r.number),
						EndIndex:        int64(r.number + 1),
						ForceSendFields: []string{"SheetId"}, // the first tab has id 0
					},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("delete row %d in %s: %w", r.number+1, TabTransactions, err)
		}
		return nil
	}
	return tables.ErrNotFound
}

func (c *Client) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := c.readRows(ctx, TabGoals)
	if err != nil {
		return nil, err
	}
	out := make([]core.SavingsGoal, 0)
	for _, r := range rows {
		if r.get("user_id") != userID {
			continue
		}
		g, err := parseGoal(r)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed goal row", "row", r.number+1, "error", err)
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (c *Client) InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g = tables.StampGoal(g, c.now())
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := c.appendRecord(ctx, TabGoals, goalRecord(g)); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

func (c *Client) ListTips(ctx context.Context, limit int) ([]core.FinancialTip, error) {
	rows, err := c.readRows(ctx, TabTips)
	if err != nil {
		return nil, err
	}
	out := make([]core.FinancialTip, 0, limit)
	for _, r := range rows {
		tip, err := parseTip(r)
		if err != nil {
			continue
		}
		out = append(out, tip)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	c.writes.Lock()
	defer c.writes.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := c.findUser(ctx, func(existing core.User) bool { return existing.Email == u.Email }); err == nil {
		return core.User{}, tables.ErrDuplicate
	} else if !errors.Is(err, tables.ErrNotFound) {
		return core.User{}, err
	}
	u = tables.StampUser(u, c.now())
	if err := c.appendLocked(ctx, TabUsers, userRecord(u)); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return c.findUser(ctx, func(u core.User) bool { return u.Email == email })
}

func (c *Client) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return c.findUser(ctx, func(u core.User) bool { return u.ID == id })
}

func (c *Client) Close() error { return nil }

func (c *Client) findUser(ctx context.Context, match func(core.User) bool) (core.User, error) {
	rows, err := c.readRows(ctx, TabUsers)
	if err != nil {
		return core.User{}, err
	}
	for _, r := range rows {
		u, err := parseUser(r)
		if err != nil {
			continue
		}
		if match(u) {
			return u, nil
		}
	}
	return core.User{}, tables.ErrNotFound
}

// readRows fetches a whole tab and returns its data rows (header excluded).
func (c *Client) readRows(ctx context.Context, tab string) ([]row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:Z", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return rowsFromValues(resp.Values), nil
}

func rowsFromValues(values [][]interface{}) []row {
	if len(values) == 0 {
		return nil
	}
	index := headerIndex(toStrings(values[0]))
	out := make([]row, 0, len(values)-1)
	for i, raw := range values[1:] {
		r := row{index: index, cells: toStrings(raw), number: i + 1}
		if r.blank() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *Client) appendRecord(ctx context.Context, tab string, record map[string]string) error {
	c.writes.Lock()
	defer c.writes.Unlock()
	return c.appendLocked(ctx, tab, record)
}

func (c *Client) appendLocked(ctx context.Context, tab string, record map[string]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	headerRange := fmt.Sprintf("%s!1:1", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", tab, err)
	}
	var header []string
	if len(resp.Values) > 0 {
		header = toStrings(resp.Values[0])
	}
	vr := &gsheet.ValueRange{Values: [][]any{orderCells(tab, header, record)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", tab), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}
	return nil
}

// sheetID resolves and caches the numeric id of a tab.
func (c *Client) sheetID(ctx context.Context, tab string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[tab]
	c.mu.Unlock()
	if ok {
		return id, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok = c.sheetIDs[tab]
	if !ok {
		return 0, fmt.Errorf("tab %q not found", tab)
	}
	return id, nil
}
