package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/services"
	"finzen/internal/tables"
)

// handleCreateTransaction accepts the new-transaction form or a JSON body.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeFailure(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}

	tx, err := s.txs.Create(r.Context(), user.ID, services.TransactionInput{
		Type:        p.Get("type"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
	})
	if err != nil {
		s.writeFailure(w, r, statusFor(err), userMessage(err, "Error al guardar la transacción"))
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)

	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusCreated, newTransactionJSON(tx))
	case isHTMX(r):
		NewHTMXResponse().
			TriggerTransactionCreated(tx.ID, string(tx.Type)).
			TriggerDashboardRefresh().
			TriggerFormReset().
			TriggerSuccessNotification("Transacción guardada").
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleDeleteTransaction serves DELETE /transactions/{id} and the POST
// fallback for forms.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id := mux.Vars(r)["id"]
	if !tables.ValidID(id) {
		s.writeFailure(w, r, http.StatusNotFound, userMessage(tables.ErrNotFound, ""))
		return
	}

	if err := s.txs.Delete(r.Context(), user.ID, id); err != nil {
		if !errors.Is(err, tables.ErrNotFound) {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to delete transaction",
				log.NewFields().WithUser(user.ID).WithOperation(log.OpDelete).WithError(err).ToSlice()...)
		}
		s.writeFailure(w, r, statusFor(err), userMessage(err, "Error al eliminar la transacción"))
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsDeleted, 1)

	switch {
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	case isHTMX(r):
		// Empty body: the row swaps itself out.
		NewHTMXResponse().
			TriggerTransactionDeleted(id).
			TriggerDashboardRefresh().
			TriggerSuccessNotification("Transacción eliminada").
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleCreateGoal accepts the new-goal form or a JSON body.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeFailure(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}

	g, err := s.goals.Create(r.Context(), user.ID, services.GoalInput{
		Title:         p.Get("title"),
		TargetAmount:  p.Get("target_amount"),
		CurrentAmount: p.Get("current_amount"),
		Deadline:      p.Get("deadline"),
		Icon:          p.Get("icon"),
	})
	if err != nil {
		s.writeFailure(w, r, statusFor(err), userMessage(err, "Error al crear la meta"))
		return
	}
	atomic.AddInt64(&s.appMetrics.goalsCreated, 1)

	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusCreated, newGoalJSON(services.GoalView{Goal: g, Progress: g.Progress(), Remaining: g.Remaining()}))
	case isHTMX(r):
		NewHTMXResponse().
			TriggerGoalCreated(g.ID).
			TriggerDashboardRefresh().
			TriggerFormReset().
			TriggerSuccessNotification("Meta creada").
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// writeFailure answers a failed write in the caller's format.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsJSON(r) {
		writeJSONError(w, status, msg)
		return
	}
	ErrorResponse(status, msg).Write(w)
}
