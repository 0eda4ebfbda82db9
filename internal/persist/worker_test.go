package persist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/store"
)

type mockSnapshotter struct {
	m     sync.Mutex
	snap  *Snapshot
	saves int
	err   error
}

func (m *mockSnapshotter) Load(context.Context) (*Snapshot, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *mockSnapshotter) Save(_ context.Context, snap *Snapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snap = snap
	m.saves++
	return nil
}

func (m *mockSnapshotter) Delete(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.snap = nil
	return m.err
}

func (m *mockSnapshotter) saveCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.saves
}

func (m *mockSnapshotter) snapshot() *Snapshot {
	m.m.Lock()
	defer m.m.Unlock()
	return m.snap
}

func newTestWorker(snap Snapshotter) (*Worker, *store.Store) {
	st := store.New()
	w := NewWorker(st, snap, zap.NewNop())
	w.debounce = 20 * time.Millisecond
	return w, st
}

func TestRestore_EmptySlotIsFreshSession(t *testing.T) {
	w, st := newTestWorker(&mockSnapshotter{})

	require.NoError(t, w.Restore(context.Background()))
	assert.Empty(t, st.Items())
}

func TestRestore_SeedsStore(t *testing.T) {
	snap := &mockSnapshotter{snap: &Snapshot{
		Items: []domain.LineItem{{ID: "a", Name: "item a", Quantity: 2}},
	}}
	w, st := newTestWorker(snap)

	require.NoError(t, w.Restore(context.Background()))
	require.Len(t, st.Items(), 1)
	assert.Equal(t, 2, st.Count())
}

func TestRestore_FailureLeavesStoreUntouched(t *testing.T) {
	snap := &mockSnapshotter{err: fmt.Errorf("redis down")}
	w, st := newTestWorker(snap)
	st.Add(domain.LineItem{ID: "a", Name: "item a"}, 1)

	require.Error(t, w.Restore(context.Background()))
	assert.Len(t, st.Items(), 1)
}

func TestRun_DebouncesBurstIntoOneWrite(t *testing.T) {
	snap := &mockSnapshotter{}
	w, st := newTestWorker(snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	// Give the worker time to subscribe before mutating, so the burst's
	// change records are not published before anyone is watching.
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		st.Add(domain.LineItem{ID: fmt.Sprintf("p%d", i), Name: "item"}, 1)
	}

	require.Eventually(t, func() bool {
		return snap.saveCount() == 1
	}, time.Second, 5*time.Millisecond, "burst was not collapsed into one write")

	require.NotNil(t, snap.snapshot())
	assert.Len(t, snap.snapshot().Items, 5)

	cancel()
	<-done
}

func TestRun_FinalFlushOnShutdown(t *testing.T) {
	snap := &mockSnapshotter{}
	w, st := newTestWorker(snap)
	w.debounce = time.Hour // never fires on its own

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	// Give the worker time to subscribe before mutating, so the change
	// record is not published before anyone is watching.
	time.Sleep(50 * time.Millisecond)

	st.Add(domain.LineItem{ID: "a", Name: "item a"}, 1)
	require.Eventually(t, func() bool {
		// Wait for the worker to observe the change before cancelling.
		return st.Count() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	require.NotNil(t, snap.snapshot())
	assert.Len(t, snap.snapshot().Items, 1)
}

func TestRun_SaveFailureDoesNotStopWorker(t *testing.T) {
	snap := &mockSnapshotter{err: fmt.Errorf("redis down")}
	w, st := newTestWorker(snap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	st.Add(domain.LineItem{ID: "a", Name: "item a"}, 1)
	time.Sleep(60 * time.Millisecond)

	// In-memory state is intact even though every write failed.
	assert.Equal(t, 1, st.Count())

	cancel()
	<-done
}
