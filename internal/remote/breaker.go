package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a struggling
// remote fails fast instead of stacking timeouts. An open circuit surfaces
// as ErrUnavailable, which the coordinator already treats as retryable.
// Auth and validation rejections do not trip the breaker.
type BreakerGateway struct {
	inner   Gateway
	fetchCB *gobreaker.CircuitBreaker[*Document]
	pushCB  *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(inner Gateway) *BreakerGateway {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				return err == nil ||
					errors.Is(err, ErrUnauthenticated) ||
					errors.Is(err, ErrValidation)
			},
		}
	}
	return &BreakerGateway{
		inner:   inner,
		fetchCB: gobreaker.NewCircuitBreaker[*Document](settings("selection-fetch")),
		pushCB:  gobreaker.NewCircuitBreaker[any](settings("selection-push")),
	}
}

func (b *BreakerGateway) Fetch(ctx context.Context) (*Document, error) {
	doc, err := b.fetchCB.Execute(func() (*Document, error) {
		return b.inner.Fetch(ctx)
	})
	return doc, mapBreakerError(err)
}

func (b *BreakerGateway) Push(ctx context.Context, items []domain.LineItem, labels []domain.Label) error {
	_, err := b.pushCB.Execute(func() (any, error) {
		return nil, b.inner.Push(ctx, items, labels)
	})
	return mapBreakerError(err)
}

func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
