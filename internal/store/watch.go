package store

import "sync"

// Op identifies what kind of mutation produced a change record.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpUpdate  Op = "update"
	OpClear   Op = "clear"
	OpReplace Op = "replace"
	OpLabel   Op = "label"
)

// Change is the record emitted for every store mutation. Consumers that
// need the resulting state read it back from the store; the record only
// says that something changed and roughly what.
type Change struct {
	Op  Op
	Key string
}

const watchBuffer = 16

// Watch subscribes to change records. The returned cancel func must be
// called to release the subscription; after cancel the channel is closed.
// A subscriber that falls behind loses records rather than blocking
// mutations.
func (s *Store) Watch() (<-chan Change, func()) {
	ch := make(chan Change, watchBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(c Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default: // subscriber is behind, drop
		}
	}
}
