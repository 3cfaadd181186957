package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type localUser struct {
	id           string
	passwordHash []byte
}

// LocalGateway keeps bcrypt-hashed users in memory. Sign-ups are never pending.
type LocalGateway struct {
	mu    sync.RWMutex
	users map[string]localUser
	cost  int
}

var _ Gateway = (*LocalGateway)(nil)

func NewLocalGateway() *LocalGateway {
	return &LocalGateway{users: make(map[string]localUser), cost: bcrypt.DefaultCost}
}

func (g *LocalGateway) SignUp(ctx context.Context, email, password string) (Identity, bool, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, false, err
	}
	if len(password) < minPasswordLength {
		return Identity{}, false, &AuthError{Message: fmt.Sprintf("Password should be at least %d characters", minPasswordLength)}
	}
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return Identity{}, false, fmt.Errorf("hash password: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.users[email]; ok {
		return Identity{}, false, &AuthError{Message: "User already registered"}
	}
	u := localUser{id: uuid.NewString(), passwordHash: hash}
	g.users[email] = u
	return Identity{UserID: u.id, Email: email}, false, nil
}

func (g *LocalGateway) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	email = normalizeEmail(email)

	g.mu.RLock()
	u, ok := g.users[email]
	g.mu.RUnlock()
	if !ok {
		return Identity{}, &AuthError{Message: "Invalid login credentials"}
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return Identity{}, &AuthError{Message: "Invalid login credentials"}
	}
	return Identity{UserID: u.id, Email: email}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
