package services

import (
	"sync/atomic"
	"time"

	"finzen/internal/cache"
	"finzen/internal/core"
)

// Snapshot is one user's loaded collections.
type Snapshot struct {
	Transactions []core.Transaction
	Goals        []core.SavingsGoal
	Tips         []core.FinancialTip
	LoadedAt     time.Time
	// Failed names the collections whose last read failed; their contents are
	// carried over from the previous snapshot.
	Failed []string
}

type stateEntry struct {
	snap    Snapshot
	applied uint64 // generation that produced snap
	floor   uint64 // loads started below this generation are discarded
	loaded  bool
	valid   bool
}

// DashboardState holds per-user snapshots. Every load takes a generation when
// it starts and its result is applied only if no newer load was applied and
// no invalidation happened after it started.
type DashboardState struct {
	entries *cache.LRUCache[stateEntry]
	seq     atomic.Uint64
}

func NewDashboardState(maxUsers int, ttl time.Duration, opts ...cache.Option) *DashboardState {
	return &DashboardState{entries: cache.NewLRUCache[stateEntry](maxUsers, ttl, opts...)}
}

// Cleaner exposes the backing cache so it can be registered for cleanup.
func (s *DashboardState) Cleaner() cache.Cleaner { return s.entries }

// Stats reports the backing cache counters.
func (s *DashboardState) Stats() cache.Stats { return s.entries.Stats() }

// Begin starts a load and returns its generation.
func (s *DashboardState) Begin() uint64 {
	return s.seq.Add(1)
}

// Current returns the user's snapshot when it is still valid.
func (s *DashboardState) Current(userID string) (Snapshot, bool) {
	e, ok := s.entries.Get(userID)
	if !ok || !e.valid {
		return Snapshot{}, false
	}
	return e.snap, true
}

// Last returns the most recent snapshot even if it was invalidated.
func (s *DashboardState) Last(userID string) (Snapshot, bool) {
	e, ok := s.entries.Get(userID)
	if !ok || !e.loaded {
		return Snapshot{}, false
	}
	return e.snap, true
}

// Commit applies snap for a load started at gen. It reports whether it was applied.
func (s *DashboardState) Commit(userID string, gen uint64, snap Snapshot) bool {
	return s.entries.Update(userID, func(e stateEntry, found bool) (stateEntry, bool) {
		if found && (gen < e.floor || (e.loaded && gen <= e.applied)) {
			return e, false
		}
		e.snap = snap
		e.applied = gen
		e.loaded = true
		e.valid = true
		return e, true
	})
}

// Invalidate marks the user's snapshot stale and discards every load already in flight.
func (s *DashboardState) Invalidate(userID string) {
	floor := s.seq.Load() + 1
	s.entries.Update(userID, func(e stateEntry, found bool) (stateEntry, bool) {
		if floor > e.floor {
			e.floor = floor
		}
		e.valid = false
		return e, true
	})
}
