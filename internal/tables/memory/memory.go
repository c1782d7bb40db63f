// Package memory is an in-process backend used for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"finzen/internal/core"
	"finzen/internal/tables"
)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	txs   []core.Transaction
	goals []core.SavingsGoal
	tips  []core.FinancialTip
	users []core.User
}

// DefaultTips seeds the tips collection when no seed file is available.
var DefaultTips = []core.FinancialTip{
	{Title: "La regla 50/30/20", Content: "Destina el 50% de tus ingresos a necesidades, el 30% a gustos y el 20% al ahorro.", Category: "presupuesto"},
	{Title: "Fondo de emergencia", Content: "Ahorra entre 3 y 6 meses de gastos para cubrir imprevistos sin endeudarte.", Category: "ahorro"},
	{Title: "Registra cada gasto", Content: "Anotar hasta los gastos pequeños revela hábitos que se comen tu presupuesto.", Category: "hábitos"},
	{Title: "Págate primero", Content: "Aparta tu ahorro el día que cobras, antes de gastar en cualquier otra cosa.", Category: "ahorro"},
	{Title: "Revisa tus suscripciones", Content: "Cancela los servicios que no usaste el último mes.", Category: "gastos"},
}

func New(tips []core.FinancialTip) *Store {
	s := &Store{now: time.Now}
	base := s.now().UTC()
	for i, tip := range tips {
		if tip.ID == "" {
			tip.ID = tables.NewID()
		}
		if tip.CreatedAt.IsZero() {
			tip.CreatedAt = base.Add(time.Duration(i) * time.Second)
		}
		s.tips = append(s.tips, tip)
	}
	return s
}

// NewFromFiles loads tips from base/seed_tips.txt, one "category|title|content"
// per line, falling back to DefaultTips.
func NewFromFiles(base string) *Store {
	tips := readTips(filepath.Join(base, "seed_tips.txt"))
	if len(tips) == 0 {
		tips = DefaultTips
	}
	return New(tips)
}

func (s *Store) ListTransactions(_ context.Context, userID string, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
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

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t = tables.StampTransaction(t, s.now())
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id && t.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return tables.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingsGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) InsertGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g = tables.StampGoal(g, s.now())
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) ListTips(_ context.Context, limit int) ([]core.FinancialTip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.FinancialTip(nil), s.tips...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, tables.ErrDuplicate
		}
	}
	u = tables.StampUser(u, s.now())
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, tables.ErrNotFound
}

func (s *Store) FindUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, tables.ErrNotFound
}

// Close satisfies the backend lifecycle; there is nothing to release.
func (s *Store) Close() error { return nil }

func readTips(path string) []core.FinancialTip {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.FinancialTip
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		out = append(out, core.FinancialTip{
			Category: strings.TrimSpace(parts[0]),
			Title:    strings.TrimSpace(parts[1]),
			Content:  strings.TrimSpace(parts[2]),
		})
	}
	return out
}
