package services

import (
	"testing"
	"time"

	"finzen/internal/core"
)

func snapWith(ids ...string) Snapshot {
	var s Snapshot
	for _, id := range ids {
		s.Transactions = append(s.Transactions, core.Transaction{ID: id})
	}
	return s
}

func TestDashboardState_LastStartedWins(t *testing.T) {
	st := NewDashboardState(16, time.Hour)

	older := st.Begin()
	newer := st.Begin()

	if !st.Commit("u1", newer, snapWith("new")) {
		t.Fatal("newer load should apply")
	}
	if st.Commit("u1", older, snapWith("old")) {
		t.Fatal("a load that started earlier must not overwrite a newer one")
	}
	got, ok := st.Current("u1")
	if !ok || got.Transactions[0].ID != "new" {
		t.Fatalf("expected newer snapshot, got %+v", got)
	}
}

func TestDashboardState_InvalidateDiscardsInFlightLoads(t *testing.T) {
	st := NewDashboardState(16, time.Hour)

	first := st.Commit("u1", st.Begin(), snapWith("a"))
	if !first {
		t.Fatal("first load should apply")
	}

	inFlight := st.Begin()
	st.Invalidate("u1")

	if _, ok := st.Current("u1"); ok {
		t.Fatal("invalidated state must not be current")
	}
	if last, ok := st.Last("u1"); !ok || last.Transactions[0].ID != "a" {
		t.Fatal("the previous snapshot should stay available as a fallback")
	}
	if st.Commit("u1", inFlight, snapWith("stale")) {
		t.Fatal("a load started before the invalidation must be discarded")
	}

	fresh := st.Begin()
	if !st.Commit("u1", fresh, snapWith("b")) {
		t.Fatal("a load started after the invalidation should apply")
	}
	if got, _ := st.Current("u1"); got.Transactions[0].ID != "b" {
		t.Fatalf("expected fresh snapshot, got %+v", got)
	}
}

func TestDashboardState_UsersAreIndependent(t *testing.T) {
	st := NewDashboardState(16, time.Hour)
	st.Commit("u1", st.Begin(), snapWith("x"))
	st.Invalidate("u2")

	if _, ok := st.Current("u1"); !ok {
		t.Fatal("invalidating one user must not affect another")
	}
	if _, ok := st.Last("u2"); ok {
		t.Fatal("an invalidated user with no load has no snapshot")
	}
}
