package docstore

import (
	"context"
	"errors"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

var ErrSelectionNotFound = errors.New("selection not found")

// SelectionRepository defines the interface for selection document storage.
// Consumers define this interface, not the MongoDB implementation.
type SelectionRepository interface {
	GetSelection(ctx context.Context, userID string) (*domain.Selection, error)
	UpsertSelection(ctx context.Context, sel *domain.Selection) error
	DeleteSelection(ctx context.Context, userID string) error
	InsertSubmission(ctx context.Context, sub *domain.Submission) error
	ListSubmissions(ctx context.Context, userID string) ([]domain.Submission, error)
}
