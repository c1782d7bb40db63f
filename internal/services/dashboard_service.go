// Package services orchestrates the write paths and the dashboard loader
// between the HTTP layer and the table backends.
package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"finzen/internal/amqp"
	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"
)

// Collection names reported in Snapshot.Failed.
const (
	CollectionTransactions = "transactions"
	CollectionGoals        = "savings_goals"
	CollectionTips         = "financial_tips"
)

// DashboardService loads a user's collections and derives what the dashboard shows.
type DashboardService struct {
	txs    tables.TransactionReader
	goals  tables.GoalReader
	tips   tables.TipReader
	state  *DashboardState
	logger *log.Logger
	loc    *time.Location
	now    func() time.Time
}

type DashboardReaders struct {
	Transactions tables.TransactionReader
	Goals        tables.GoalReader
	Tips         tables.TipReader
}

func NewDashboardService(r DashboardReaders, state *DashboardState, loc *time.Location, logger *log.Logger) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{
		txs:    r.Transactions,
		goals:  r.Goals,
		tips:   r.Tips,
		state:  state,
		logger: logger.WithComponent(log.ComponentDashboard),
		loc:    loc,
		now:    time.Now,
	}
}

// Now is the reference time for aggregation, in the configured zone.
func (s *DashboardService) Now() time.Time {
	return s.now().In(s.loc)
}

// Load returns the user's current snapshot, reading storage when there is none.
func (s *DashboardService) Load(ctx context.Context, userID string) (Snapshot, error) {
	if snap, ok := s.state.Current(userID); ok {
		return snap, nil
	}
	return s.Refresh(ctx, userID)
}

// Refresh reads the three collections concurrently. A failed read is logged
// and that collection keeps its previous contents.
func (s *DashboardService) Refresh(ctx context.Context, userID string) (Snapshot, error) {
	gen := s.state.Begin()
	prior, _ := s.state.Last(userID)
	logger := s.logger.With(log.FieldUserID, userID, log.FieldGeneration, gen)

	var (
		txs                    []core.Transaction
		goals                  []core.SavingsGoal
		tips                   []core.FinancialTip
		txErr, goalErr, tipErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		txs, txErr = s.txs.ListTransactions(ctx, userID, core.TransactionLoadLimit)
		return nil
	})
	g.Go(func() error {
		goals, goalErr = s.goals.ListGoals(ctx, userID)
		return nil
	})
	g.Go(func() error {
		tips, tipErr = s.tips.ListTips(ctx, core.TipsLoadLimit)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return prior, err
	}

	snap := Snapshot{LoadedAt: s.now()}
	if txErr != nil {
		logger.ErrorContext(ctx, "Failed to load transactions", log.FieldCollection, CollectionTransactions, log.FieldError, txErr.Error())
		snap.Transactions = prior.Transactions
		snap.Failed = append(snap.Failed, CollectionTransactions)
	} else {
		snap.Transactions = txs
	}
	if goalErr != nil {
		logger.ErrorContext(ctx, "Failed to load goals", log.FieldCollection, CollectionGoals, log.FieldError, goalErr.Error())
		snap.Goals = prior.Goals
		snap.Failed = append(snap.Failed, CollectionGoals)
	} else {
		snap.Goals = goals
	}
	if tipErr != nil {
		logger.ErrorContext(ctx, "Failed to load tips", log.FieldCollection, CollectionTips, log.FieldError, tipErr.Error())
		snap.Tips = prior.Tips
		snap.Failed = append(snap.Failed, CollectionTips)
	} else {
		snap.Tips = tips
	}

	if len(snap.Failed) > 0 {
		// A partial load is served but not kept, so the next request retries.
		return snap, nil
	}
	if !s.state.Commit(userID, gen, snap) {
		logger.DebugContext(ctx, "Discarded superseded dashboard load")
		if current, ok := s.state.Current(userID); ok {
			return current, nil
		}
	}
	return snap, nil
}

// Invalidate drops the user's cached snapshot.
func (s *DashboardService) Invalidate(userID string) {
	s.state.Invalidate(userID)
}

// HandleChange invalidates state for changes made on other instances.
func (s *DashboardService) HandleChange(ctx context.Context, ev amqp.ChangeEvent) error {
	s.logger.DebugContext(ctx, "Invalidating dashboard after remote change",
		log.FieldUserID, ev.UserID, "kind", ev.Kind)
	s.state.Invalidate(ev.UserID)
	return nil
}

// GoalView pairs a goal with its computed progress.
type GoalView struct {
	Goal      core.SavingsGoal
	Progress  core.Progress
	Remaining core.Money
}

// HistoryView is the filtered transaction list with its filter options.
type HistoryView struct {
	Filter       core.Filter
	Transactions []core.Transaction
	Categories   []string
	Total        int
}

// DashboardView is everything the dashboard page renders.
type DashboardView struct {
	Now     time.Time
	Summary core.Summary
	Goals   []GoalView
	Tips    []core.FinancialTip
	History HistoryView
	Failed  []string
}

// View loads the snapshot and derives the dashboard from it.
func (s *DashboardService) View(ctx context.Context, userID string, f core.Filter) (DashboardView, error) {
	snap, err := s.Load(ctx, userID)
	if err != nil {
		return DashboardView{}, err
	}
	now := s.Now()
	return DashboardView{
		Now:     now,
		Summary: core.Summarize(snap.Transactions, now),
		Goals:   goalViews(snap.Goals),
		Tips:    core.DisplayTips(snap.Tips),
		History: history(snap.Transactions, f, now),
		Failed:  snap.Failed,
	}, nil
}

// History returns the filtered transaction list.
func (s *DashboardService) History(ctx context.Context, userID string, f core.Filter) (HistoryView, error) {
	snap, err := s.Load(ctx, userID)
	if err != nil {
		return HistoryView{}, err
	}
	return history(snap.Transactions, f, s.Now()), nil
}

func history(txs []core.Transaction, f core.Filter, now time.Time) HistoryView {
	return HistoryView{
		Filter:       f,
		Transactions: f.Apply(txs, now),
		Categories:   core.Categories(txs),
		Total:        len(txs),
	}
}

func goalViews(goals []core.SavingsGoal) []GoalView {
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalView{Goal: g, Progress: g.Progress(), Remaining: g.Remaining()})
	}
	return out
}
