package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// User is an authenticated caller.
type User struct {
	ID    string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier resolves a bearer token to the user it was issued for.
type Verifier interface {
	VerifyIdentity(ctx context.Context, token string) (User, error)
}
