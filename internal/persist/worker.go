package persist

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/metrics"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
)

// DefaultDebounce is the quiet window collapsed into one snapshot write.
const DefaultDebounce = 2 * time.Second

const flushTimeout = 5 * time.Second

// Worker consumes store change records and writes the durable snapshot,
// decoupling storage latency from mutation latency. Writes are debounced:
// a burst of mutations produces one write after the quiet window. A final
// flush runs on shutdown so the last state reaches the slot.
type Worker struct {
	store    *store.Store
	snap     Snapshotter
	logger   *zap.Logger
	debounce time.Duration
}

func NewWorker(st *store.Store, snap Snapshotter, logger *zap.Logger) *Worker {
	return &Worker{
		store:    st,
		snap:     snap,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Restore seeds the store from the durable slot. An empty slot is a fresh
// session; a failed read leaves the in-memory state untouched.
func (w *Worker) Restore(ctx context.Context) error {
	snap, err := w.snap.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return err
	}

	w.store.Replace(snap.Items, snap.Labels)
	return nil
}

// Run blocks consuming change records until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	changes, cancel := w.store.Watch()
	defer cancel()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			if dirty {
				w.flush()
			}
			return

		case _, ok := <-changes:
			if !ok {
				return
			}
			if dirty && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			dirty = true

		case <-timer.C:
			w.flush()
			dirty = false
		}
	}
}

func (w *Worker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	snap := &Snapshot{
		Items:  w.store.Items(),
		Labels: w.store.Labels(),
	}
	if err := w.snap.Save(ctx, snap); err != nil {
		w.logger.Warn("snapshot write failed", zap.Error(err))
		metrics.SnapshotWrites.WithLabelValues("failure").Inc()
		return
	}
	metrics.SnapshotWrites.WithLabelValues("success").Inc()
}
