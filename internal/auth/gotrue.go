package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// GoTrueGateway talks to a GoTrue-compatible auth server (Supabase Auth).
type GoTrueGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Gateway = (*GoTrueGateway)(nil)

func NewGoTrueGateway(baseURL, apiKey string) *GoTrueGateway {
	return &GoTrueGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

// newHTTPClient bounds each gateway call; sign-in must not hang a request.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 20 * time.Second,
	}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	User        *gotrueUser `json:"user"`
	// sign-up without a session returns the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueError struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (g *GoTrueGateway) SignIn(ctx context.Context, email, password string) (Identity, error) {
	sess, err := g.post(ctx, "/auth/v1/token?grant_type=password", email, password)
	if err != nil {
		return Identity{}, err
	}
	if sess.AccessToken == "" {
		return Identity{}, &AuthError{Message: "Sign-in returned no session"}
	}
	return sess.identity(email), nil
}

func (g *GoTrueGateway) SignUp(ctx context.Context, email, password string) (Identity, bool, error) {
	sess, err := g.post(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return Identity{}, false, err
	}
	return sess.identity(email), sess.AccessToken == "", nil
}

func (s gotrueSession) identity(fallbackEmail string) Identity {
	id := Identity{UserID: s.ID, Email: s.Email, AccessToken: s.AccessToken}
	if s.User != nil {
		id.UserID, id.Email = s.User.ID, s.User.Email
	}
	if id.Email == "" {
		id.Email = normalizeEmail(fallbackEmail)
	}
	return id
}

func (g *GoTrueGateway) post(ctx context.Context, path, email, password string) (gotrueSession, error) {
	body, err := json.Marshal(map[string]string{"email": strings.TrimSpace(email), "password": password})
	if err != nil {
		return gotrueSession{}, fmt.Errorf("encode credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return gotrueSession{}, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return gotrueSession{}, &AuthError{Message: "Authentication service unavailable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gotrueSession{}, fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var ge gotrueError
		_ = json.Unmarshal(raw, &ge)
		msg := ge.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gotrueSession{}, &AuthError{Message: msg}
	}

	var sess gotrueSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return gotrueSession{}, fmt.Errorf("decode auth response: %w", err)
	}
	if sess.User == nil && sess.ID == "" {
		return gotrueSession{}, errors.New("auth response carries no user")
	}
	return sess, nil
}
