package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finzen/internal/auth"
	"finzen/internal/cache"
	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/middleware/ratelimit"
	"finzen/internal/middleware/security"
	"finzen/internal/middleware/trace"
	"finzen/internal/services"
	appweb "finzen/web"
)

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource exposes dashboard state counters for /metrics.
type StatsSource interface {
	Stats() cache.Stats
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Auth         *auth.Service
	Dashboard    *services.DashboardService
	Transactions *services.TransactionService
	Goals        *services.GoalService

	// Optional
	Backend Pinger
	State   StatsSource
	Logger  *log.Logger

	// Templates overrides the embedded templates/ tree.
	Templates fs.FS

	RateLimitPerMinute int
	SecureCookies      bool
	TrustedProxies     []string
}

type appMetrics struct {
	transactionsCreated int64
	transactionsDeleted int64
	goalsCreated        int64
	signIns             int64
	signUps             int64
	authFailures        int64
	startedAt           time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	auth      *auth.Service
	dashboard *services.DashboardService
	txs       *services.TransactionService
	goals     *services.GoalService
	backend   Pinger
	state     StatsSource
	logger    *log.Logger
	secure    bool

	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a ready-to-run server.
// It fails when the page templates or static assets cannot be loaded.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	templatesFS := deps.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	templates, err := parseTemplates(templatesFS)
	if err != nil {
		return nil, err
	}
	staticFS, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		auth:      deps.Auth,
		dashboard: deps.Dashboard,
		txs:       deps.Transactions,
		goals:     deps.Goals,
		backend:   deps.Backend,
		state:     deps.State,
		logger:    logger.WithComponent(log.ComponentHTTP),
		secure:    deps.SecureCookies,
		templates: templates,
		appMetrics: appMetrics{
			startedAt: time.Now(),
		},
	}

	s.securityDetector = security.NewDetector(logger)
	for _, cidr := range deps.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	rl := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = deps.RateLimitPerMinute
	}
	rl.Logger = logger
	s.rateLimiter = ratelimit.NewLimiter(rl)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	static := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/auth", s.handleAuthPage).Methods(http.MethodGet)
	r.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)

	r.HandleFunc("/transactions", s.requireUser(s.handleCreateTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id}", s.requireUser(s.handleDeleteTransaction)).Methods(http.MethodDelete)
	r.HandleFunc("/transactions/{id}/delete", s.requireUser(s.handleDeleteTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/goals", s.requireUser(s.handleCreateGoal)).Methods(http.MethodPost)
	r.HandleFunc("/ui/history", s.requireUser(s.handleHistory)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.requireUser(s.handleAPISummary)).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.requireUser(s.handleAPITransactions)).Methods(http.MethodGet)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Innermost first; log.Middleware ends up outermost.
	var handler http.Handler = r
	handler = s.auth.Middleware(handler)
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requireUser rejects anonymous requests: browsers are sent to /auth, htmx
// gets an HX-Redirect, and JSON callers get 401.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, core.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if ok {
			next(w, r, user)
			return
		}
		switch {
		case wantsJSON(r):
			writeJSONError(w, http.StatusUnauthorized, userMessage(auth.ErrInvalidSession, ""))
		case isHTMX(r):
			UnauthorizedError(userMessage(auth.ErrInvalidSession, "")).Redirect("/auth").Write(w)
		default:
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
		}
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	const msg = "Demasiadas solicitudes, intenta de nuevo en un momento"
	if wantsJSON(r) {
		writeJSONError(w, http.StatusTooManyRequests, msg)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, msg).Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSONError(w, http.StatusNotFound, "No encontrado")
		return
	}
	http.NotFound(w, r)
}
