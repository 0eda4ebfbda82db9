// Package remote is the client half of the selection sync contract: load
// the signed-in user's document, or replace it wholesale.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

var (
	// ErrUnauthenticated means the call was made without a valid session.
	// Not retryable until the next sign-in.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnavailable is a transient transport or storage failure. Retryable.
	ErrUnavailable = errors.New("remote unavailable")

	// ErrValidation means the pushed payload was rejected; remote state is
	// untouched.
	ErrValidation = errors.New("selection payload rejected")
)

// Document is the wire form of the per-user selection record. An absent
// remote document comes back as empty items and labels, never an error.
type Document struct {
	Items     []domain.LineItem `json:"items"`
	Labels    []domain.Label    `json:"labels"`
	UpdatedAt *time.Time        `json:"updatedAt"`
}

// Empty reports whether the document holds no items and no labels.
func (d *Document) Empty() bool {
	return len(d.Items) == 0 && len(d.Labels) == 0
}

// Gateway is the remote sync contract. The authenticated identity is
// carried by the transport (bearer token), not by the method signatures.
// Push has full-replace upsert semantics: the remote item collection is
// overwritten, not merged.
type Gateway interface {
	Fetch(ctx context.Context) (*Document, error)
	Push(ctx context.Context, items []domain.LineItem, labels []domain.Label) error
}
