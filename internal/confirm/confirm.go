// Package confirm implements the two-step confirmation used before destructive commands.
//
// A Protocol is either idle or holds one pending Target. Request moves it to
// pending and returns a token; Confirm with that token runs the action and
// returns to idle; Cancel returns to idle without running anything. A second
// Request while pending replaces the first.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrNoPendingConfirmation = errors.New("no pending confirmation")

// Kind names what a pending confirmation would delete.
type Kind string

const (
	DeleteCustomer Kind = "delete_customer"
	DeleteRecord   Kind = "delete_record"
)

// Target is the object a confirmation applies to.
type Target struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

// Pending is a confirmation awaiting the user's answer.
type Pending struct {
	Token   string `json:"token"`
	Target  Target `json:"target"`
	Message string `json:"message"`
}

// Action executes a confirmed target.
type Action func(ctx context.Context, t Target) error

type Protocol struct {
	mu      sync.Mutex
	pending *Pending
}

// Request stores t as the pending confirmation, replacing any previous one.
func (p *Protocol) Request(t Target) Pending {
	p.mu.Lock()
	defer p.mu.Unlock()

	pend := Pending{
		Token:   uuid.NewString(),
		Target:  t,
		Message: message(t),
	}
	p.pending = &pend
	return pend
}

// Current returns the pending confirmation, if any.
func (p *Protocol) Current() (Pending, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Pending{}, false
	}
	return *p.pending, true
}

// Confirm runs act on the pending target if token matches it. The protocol is
// idle afterwards whether or not act succeeded. An unknown or stale token runs
// nothing and leaves the pending confirmation in place.
func (p *Protocol) Confirm(ctx context.Context, token string, act Action) (Target, error) {
	p.mu.Lock()
	if p.pending == nil || p.pending.Token != token {
		p.mu.Unlock()
		return Target{}, ErrNoPendingConfirmation
	}
	t := p.pending.Target
	p.pending = nil
	p.mu.Unlock()

	if err := act(ctx, t); err != nil {
		return t, fmt.Errorf("%s %d: %w", t.Kind, t.ID, err)
	}
	return t, nil
}

// Cancel drops the pending confirmation. It reports whether one existed.
func (p *Protocol) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	had := p.pending != nil
	p.pending = nil
	return had
}

func message(t Target) string {
	switch t.Kind {
	case DeleteCustomer:
		return "Are you sure you want to delete this customer and all their records?"
	case DeleteRecord:
		return "Are you sure you want to delete this record?"
	default:
		return "Are you sure?"
	}
}
