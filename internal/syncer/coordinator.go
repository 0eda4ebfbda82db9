// Package syncer reconciles the session-local selection with the remote
// document when the identity state changes.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/identity"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/metrics"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/remote"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
)

// State is the coordinator's sync state. The state itself is the
// edge-trigger guard: only Anonymous accepts a sign-in, so repeated
// "still signed in" notifications cannot start a second fetch.
type State string

const (
	StateAnonymous State = "anonymous"
	StateSyncing   State = "syncing"
	StateSynced    State = "synced"
)

// ErrNotSynced is returned by Push when no sign-in reconciliation has
// happened yet in this session.
var ErrNotSynced = errors.New("not synced: no signed-in session")

// Config carries the coordinator policy knobs.
type Config struct {
	// ClearOnSignOut empties the local store when the user signs out.
	// The default keeps the local selection, matching anonymous behavior.
	ClearOnSignOut bool

	// FetchTimeout bounds each remote call. Timeouts degrade to a failed
	// (retryable) sync rather than blocking the session.
	FetchTimeout time.Duration
}

const defaultFetchTimeout = 10 * time.Second

// Coordinator drives one-time reconciliation per sign-in session.
type Coordinator struct {
	store   *store.Store
	gateway remote.Gateway
	logger  *zap.Logger
	cfg     Config

	mu    sync.Mutex
	state State
}

func New(st *store.Store, gateway remote.Gateway, logger *zap.Logger, cfg Config) *Coordinator {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Coordinator{
		store:   st,
		gateway: gateway,
		logger:  logger,
		cfg:     cfg,
		state:   StateAnonymous,
	}
}

// State returns the current sync state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run consumes identity events until ctx is cancelled or the event stream
// closes. At startup it queries the identity service once so a restored
// session syncs even if no live sign-in event ever arrives.
func (c *Coordinator) Run(ctx context.Context, svc identity.Service, events <-chan identity.Event) {
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("initial identity check failed", zap.Error(err))
	} else if user != nil {
		c.handleSignedIn(ctx, user)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case identity.SignedIn:
				c.handleSignedIn(ctx, ev.User)
			case identity.SignedOut:
				c.handleSignedOut()
			}
		}
	}
}

// Push replaces the remote document with the current local collection.
// Callers that need durability before navigation await this explicitly;
// mutations never push on their own.
func (c *Coordinator) Push(ctx context.Context) error {
	if c.State() != StateSynced {
		return ErrNotSynced
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()
	return c.gateway.Push(ctx, c.store.Items(), c.store.Labels())
}

func (c *Coordinator) handleSignedIn(ctx context.Context, user *identity.User) {
	c.mu.Lock()
	if c.state != StateAnonymous {
		// Already syncing or synced for this session.
		c.mu.Unlock()
		return
	}
	c.state = StateSyncing
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	doc, err := c.gateway.Fetch(fetchCtx)
	cancel()
	if err != nil {
		// Logged, not fatal: the local collection stays authoritative and
		// the next sign-in event retries.
		c.logger.Warn("selection fetch failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		metrics.SyncAttempts.WithLabelValues(syncResult(err)).Inc()
		c.setState(StateAnonymous)
		return
	}

	switch {
	case !doc.Empty():
		// Remote is the source of truth at sign-in: replace, not merge.
		c.store.Replace(doc.Items, doc.Labels)
	case c.store.Count() > 0 || len(c.store.Labels()) > 0:
		// Remote is empty but the anonymous session gathered items: seed
		// the remote document from local state.
		pushCtx, cancelPush := context.WithTimeout(ctx, c.cfg.FetchTimeout)
		if errPush := c.gateway.Push(pushCtx, c.store.Items(), c.store.Labels()); errPush != nil {
			c.logger.Warn("seeding remote selection failed", zap.Error(errPush))
		}
		cancelPush()
	}

	metrics.SyncAttempts.WithLabelValues("success").Inc()
	c.setState(StateSynced)
	c.logger.Info("selection synced", zap.String("user_id", user.ID))
}

func (c *Coordinator) handleSignedOut() {
	c.mu.Lock()
	already := c.state == StateAnonymous
	c.state = StateAnonymous
	c.mu.Unlock()
	if already {
		return
	}

	if c.cfg.ClearOnSignOut {
		c.store.Clear()
	}
	c.logger.Info("signed out, sync reset")
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func syncResult(err error) string {
	switch {
	case errors.Is(err, remote.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "unavailable"
	}
}
