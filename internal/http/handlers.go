package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"finzen/internal/auth"
	"finzen/internal/core"
	"finzen/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.backend == nil:
		checks["backend"] = "ok"
	default:
		if err := s.backend.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_errors_total", "Total number of HTTP responses with status >= 400", traceMetrics.TotalErrors)
	gauge("http_response_time_avg_microseconds", "Average response time", traceMetrics.AverageResponseTime)

	counter("transactions_created_total", "Transactions created", atomic.LoadInt64(&s.appMetrics.transactionsCreated))
	counter("transactions_deleted_total", "Transactions deleted", atomic.LoadInt64(&s.appMetrics.transactionsDeleted))
	counter("goals_created_total", "Savings goals created", atomic.LoadInt64(&s.appMetrics.goalsCreated))
	counter("auth_signins_total", "Successful sign-ins", atomic.LoadInt64(&s.appMetrics.signIns))
	counter("auth_signups_total", "Successful sign-ups", atomic.LoadInt64(&s.appMetrics.signUps))
	counter("auth_failures_total", "Rejected sign-in or sign-up attempts", atomic.LoadInt64(&s.appMetrics.authFailures))

	if s.state != nil {
		st := s.state.Stats()
		gauge("dashboard_state_entries", "Users with cached dashboard state", int64(st.Size))
		counter("dashboard_state_hits_total", "Dashboard state hits", int64(st.Hits))
		counter("dashboard_state_misses_total", "Dashboard state misses", int64(st.Misses))
		counter("dashboard_state_evictions_total", "Dashboard state evictions", int64(st.Evictions))
	}

	counter("security_suspicious_requests_total", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	counter("security_blocked_requests_total", "Suspicious requests rejected", securityMetrics.BlockedRequests)
	counter("rate_limit_hits_total", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	gauge("rate_limit_active_clients", "Clients tracked by the rate limiter", rateLimitMetrics.ClientCount)

	gauge("uptime_seconds", "Seconds since the server started", int64(time.Since(s.appMetrics.startedAt).Seconds()))
}

// handleIndex renders the dashboard, or sends anonymous visitors to /auth.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}

	filter, err := ParseFilterParams(r.URL.Query())
	if err != nil {
		filter = core.Filter{}
	}

	view, err := s.dashboard.View(r.Context(), user.ID, filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load dashboard",
			log.NewFields().WithUser(user.ID).WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		http.Error(w, "Ocurrió un error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, http.StatusOK, "index", indexData{
		User:              user,
		View:              view,
		History:           newHistoryData(view.History, view.Now),
		ExpenseCategories: core.ExpenseCategories,
		IncomeCategories:  core.IncomeCategories,
		Icons:             core.GoalIcons,
	})
}

// handleHistory renders the filtered history partial.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, user core.User) {
	filter, err := ParseFilterParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(userMessage(err, "Filtro no válido")).Write(w)
		return
	}

	view, err := s.dashboard.History(r.Context(), user.ID, filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load history",
			log.NewFields().WithUser(user.ID).WithOperation(log.OpList).WithError(err).ToSlice()...)
		InternalServerError("Ocurrió un error").Write(w)
		return
	}

	s.render(w, r, http.StatusOK, "history", newHistoryData(view, s.dashboard.Now()))
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request, user core.User) {
	view, err := s.dashboard.View(r.Context(), user.ID, core.Filter{})
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load summary",
			log.NewFields().WithUser(user.ID).WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		writeJSONError(w, http.StatusInternalServerError, "Ocurrió un error")
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(view))
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	filter, err := ParseFilterParams(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, userMessage(err, "Filtro no válido"))
		return
	}
	view, err := s.dashboard.History(r.Context(), user.ID, filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list transactions",
			log.NewFields().WithUser(user.ID).WithOperation(log.OpList).WithError(err).ToSlice()...)
		writeJSONError(w, http.StatusInternalServerError, "Ocurrió un error")
		return
	}
	writeJSON(w, http.StatusOK, newTransactionsResponse(view))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
