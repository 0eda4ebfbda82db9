package docstore

import (
	"context"
	"errors"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

type SelectionCache interface {
	Get(ctx context.Context, userID string) (*domain.Selection, error)
	Set(ctx context.Context, userID string, sel *domain.Selection) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
