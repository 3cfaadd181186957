package http

import (
	"context"
	"mime"
	"strings"

	"ledger/internal/auth"
	"ledger/internal/workspace"
)

type contextKey string

const (
	claimsKey    contextKey = "session_claims"
	workspaceKey contextKey = "workspace"
)

func withSession(ctx context.Context, claims *auth.Claims, ws *workspace.Workspace) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, workspaceKey, ws)
}

// sessionFrom returns the claims and workspace attached by requireSession.
func sessionFrom(ctx context.Context) (*auth.Claims, *workspace.Workspace) {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	ws, _ := ctx.Value(workspaceKey).(*workspace.Workspace)
	return claims, ws
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(stripControl(s))
}

// stripControl drops control characters other than tab, newline and carriage return.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// attachment builds a Content-Disposition value for a download named filename.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
