// Package auth signs users in through an identity gateway and keeps them signed
// in with a session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"ledger/internal/core"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyPassword    = errors.New("password is required")
	ErrInvalidEmail     = errors.New("a valid email is required")
)

// Identity is the signed-in user as reported by the gateway.
type Identity struct {
	UserID      string
	Email       string
	AccessToken string
}

// Gateway verifies credentials. Both methods return *AuthError when the gateway
// rejects the request.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	// SignUp creates the account. pending reports that the gateway wants the
	// address confirmed before the first sign-in.
	SignUp(ctx context.Context, email, password string) (id Identity, pending bool, err error)
}

// AuthError carries the gateway's message, shown to the user as is.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Credentials is a sign-in or sign-up form.
type Credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// ValidateSignIn checks the form before it reaches the gateway.
func (c Credentials) ValidateSignIn() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return core.NewValidationError("email", ErrInvalidEmail)
	}
	if c.Password == "" {
		return core.NewValidationError("password", ErrEmptyPassword)
	}
	return nil
}

// ValidateSignUp additionally requires the confirmation to match.
func (c Credentials) ValidateSignUp() error {
	if err := c.ValidateSignIn(); err != nil {
		return err
	}
	if c.Password != c.ConfirmPassword {
		return core.NewValidationError("confirmPassword", ErrPasswordMismatch)
	}
	return nil
}
