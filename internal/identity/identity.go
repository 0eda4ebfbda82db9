// Package identity wraps the external identity provider: a point-in-time
// user query plus a stream of sign-in/sign-out events.
package identity

import "context"

// User is the authenticated identity a selection document is keyed by.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// EventKind distinguishes the auth state transitions the provider emits.
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is one auth state notification. User is set for signed_in events.
type Event struct {
	Kind EventKind `json:"event"`
	User *User     `json:"user,omitempty"`
}

// Service is the point-in-time identity query, used at startup to tell a
// fresh anonymous load from a restored session. A nil user with a nil
// error means nobody is signed in.
type Service interface {
	CurrentUser(ctx context.Context) (*User, error)
}
