package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"ledger/internal/auth"
	"ledger/internal/cache"
	applog "ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/workspace"
)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

// Options wires the server's collaborators. Service, Gateway and Sessions are required.
type Options struct {
	Addr               string
	Service            *services.LedgerService
	Gateway            auth.Gateway
	Sessions           *auth.Sessions
	Metrics            *metrics.Metrics
	Logger             *applog.Logger
	RateLimitPerMinute int
	SecureCookies      bool
	MaxSessions        int
	SessionIdle        time.Duration
	ReadyChecks        map[string]ReadyCheck
}

type Server struct {
	http.Server

	service     *services.LedgerService
	workspaces  *workspace.Manager
	gateway     auth.Gateway
	sessions    *auth.Sessions
	metrics     *metrics.Metrics
	logger      *applog.Logger
	events      *applog.StructuredLogger
	secure      bool
	readyChecks map[string]ReadyCheck
	startedAt   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	caches           *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = 12 * time.Hour
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		service:          opts.Service,
		workspaces:       workspace.NewManager(opts.MaxSessions, opts.SessionIdle),
		gateway:          opts.Gateway,
		sessions:         opts.Sessions,
		metrics:          opts.Metrics,
		logger:           logger,
		events:           applog.NewStructuredLogger(logger),
		secure:           opts.SecureCookies,
		readyChecks:      opts.ReadyChecks,
		startedAt:        time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		caches:           cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger),
	}

	s.caches.Register("workspaces", s.workspaces.Cache())
	s.caches.Register("reports", s.service.ReportCache())
	s.caches.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP, s.metrics.HTTPRequest)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})

	requestID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	var handler http.Handler = limit(mux)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = requestID(handler)
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = tracer.Middleware(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireSession(h))
	}
	api("GET /api/workspace", s.handleWorkspace)

	api("GET /api/customers", s.handleListCustomers)
	api("POST /api/customers", s.handleSaveCustomer)
	api("POST /api/customers/{id}/edit", s.handleStartEdit)
	api("DELETE /api/customers/edit", s.handleCancelEdit)
	api("POST /api/customers/{id}/select", s.handleSelectCustomer)
	api("POST /api/customers/back", s.handleBack)
	api("DELETE /api/customers/{id}", s.handleDeleteCustomer)

	api("GET /api/records", s.handleListRecords)
	api("POST /api/records", s.handleAddRecord)
	api("POST /api/records/batch", s.handleAddRecords)
	api("PUT /api/records/{id}", s.handleUpdateRecord)
	api("DELETE /api/records/{id}", s.handleDeleteRecord)

	api("POST /api/confirmation/{token}/confirm", s.handleConfirm)
	api("POST /api/confirmation/cancel", s.handleCancelConfirmation)

	api("PUT /api/filter", s.handleSetFilter)
	api("POST /api/filter/apply", s.handleApplyFilter)
	api("DELETE /api/filter", s.handleClearFilter)

	api("PUT /api/currency", s.handleSetCurrency)
	api("GET /api/report.pdf", s.handleExportReport)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
}

// requireSession resolves the session cookie to the session's workspace.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.sessions.FromRequest(r)
		if err != nil {
			resp := ErrorResponse(http.StatusUnauthorized, err.Error())
			if !errors.Is(err, auth.ErrMissingToken) {
				resp.Cookie(auth.ClearCookie(s.secure))
			}
			resp.Write(w)
			return
		}
		ws := s.workspaces.Get(claims.SessionID)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims, ws)))
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
