package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"ledger/internal/auth"
	applog "ledger/internal/log"
	"ledger/internal/workspace"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	}).Write(w)
}

// handleReady runs every registered readiness check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(s.readyChecks)+1)

	names := make([]string, 0, len(s.readyChecks))
	for name := range s.readyChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.readyChecks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type sessionResponse struct {
	Email               string `json:"email"`
	PendingConfirmation bool   `json:"pendingConfirmation,omitempty"`
	Message             string `json:"message,omitempty"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := DecodeJSON(w, r, &creds); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := creds.ValidateSignIn(); err != nil {
		ErrorFrom(err).Write(w)
		return
	}

	id, err := s.gateway.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign-in rejected",
			applog.FieldUserEmail, creds.Email,
			applog.FieldError, err)
		ErrorFrom(err).Write(w)
		return
	}
	s.startSession(w, r, id, false)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := DecodeJSON(w, r, &creds); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := creds.ValidateSignUp(); err != nil {
		ErrorFrom(err).Write(w)
		return
	}

	id, pending, err := s.gateway.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign-up rejected",
			applog.FieldUserEmail, creds.Email,
			applog.FieldError, err)
		ErrorFrom(err).Write(w)
		return
	}
	if pending {
		NewJSONResponse().Status(http.StatusAccepted).Body(sessionResponse{
			Email:               creds.Email,
			PendingConfirmation: true,
			Message:             "Check your email to confirm the account before signing in.",
		}).Write(w)
		return
	}
	s.startSession(w, r, id, true)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, id auth.Identity, created bool) {
	token, claims, err := s.sessions.Issue(id)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to issue session", err, applog.ComponentAuth, "session.issue",
			applog.NewFields().WithClientIP(s.securityDetector.ExtractClientIP(r)))
		InternalServerError("Failed to start session").Write(w)
		return
	}
	s.logger.InfoContext(r.Context(), "Session started",
		applog.FieldUserEmail, claims.Email,
		"session_id", claims.SessionID)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewJSONResponse().
		Status(status).
		Cookie(s.sessions.Cookie(token, s.secure)).
		Body(sessionResponse{Email: claims.Email}).
		Write(w)
}

// handleLogout clears the cookie and forgets the workspace. It succeeds without a session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, err := s.sessions.FromRequest(r); err == nil {
		s.workspaces.Drop(claims.SessionID)
	}
	NewJSONResponse().
		Status(http.StatusNoContent).
		Cookie(auth.ClearCookie(s.secure)).
		Write(w)
}

type workspaceResponse struct {
	Email string `json:"email"`
	workspace.State
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	claims, ws := sessionFrom(r.Context())
	NewJSONResponse().Body(workspaceResponse{Email: claims.Email, State: ws.State()}).Write(w)
}
