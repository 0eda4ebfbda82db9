package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

// SelectionService serves the per-user selection document with a
// cache-aside read path and full-replace writes.
type SelectionService struct {
	repo   SelectionRepository
	cache  SelectionCache
	logger *zap.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewSelectionService(repo SelectionRepository, cache SelectionCache, logger *zap.Logger) *SelectionService {
	return &SelectionService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetSelection loads a user's document. An absent document comes back as an
// empty selection, not an error.
func (s *SelectionService) GetSelection(ctx context.Context, userID string) (*domain.Selection, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		sel, err := s.cache.Get(ctx, userID)
		if err == nil {
			sel.UserID = userID
			return sel, nil // selection is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.Error(err)) // log cache error but continue
		}

		sel, errGet := s.repo.GetSelection(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrSelectionNotFound) {
			// New user: empty defaults, never an error. Zero UpdatedAt
			// marks the document as never written.
			return &domain.Selection{UserID: userID}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, sel)
			if errSet != nil {
				s.logger.Warn("cache set error", zap.Error(errSet))
			}
		}()

		return sel, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Selection), nil
}

// SaveSelection validates and fully replaces the user's document.
// A rejected payload leaves remote state untouched.
func (s *SelectionService) SaveSelection(ctx context.Context, userID string, items []domain.LineItem, labels []domain.Label) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	sel := &domain.Selection{
		UserID: userID,
		Items:  items,
		Labels: labels,
	}
	if err := s.repo.UpsertSelection(ctx, sel); err != nil {
		s.logger.Error("repo upsert selection error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// ClearSelection removes the user's document. Absent documents are fine.
func (s *SelectionService) ClearSelection(ctx context.Context, userID string) error {
	err := s.repo.DeleteSelection(ctx, userID)
	if err != nil && !errors.Is(err, ErrSelectionNotFound) {
		s.logger.Error("repo delete selection error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// Submit snapshots a selection into the submission history.
func (s *SelectionService) Submit(ctx context.Context, userID string, items []domain.LineItem, labels []domain.Label) (*domain.Submission, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items in selection", domain.ErrInvalidItem)
	}
	totalItems := 0
	grandTotal := 0.0
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		totalItems += item.Quantity
		grandTotal += item.Price * float64(item.Quantity)
	}

	sub := &domain.Submission{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       items,
		Labels:      labels,
		TotalItems:  totalItems,
		TotalRooms:  len(labels),
		GrandTotal:  grandTotal,
		Status:      domain.SubmissionStatusPending,
		SubmittedAt: time.Now(),
	}
	if err := s.repo.InsertSubmission(ctx, sub); err != nil {
		s.logger.Error("repo insert submission error", zap.Error(err))
		return nil, err
	}
	return sub, nil
}

// History lists a user's submissions, newest first.
func (s *SelectionService) History(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.repo.ListSubmissions(ctx, userID)
}

func (s *SelectionService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.Error(err))
	}
}
