package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

// Store is the session-local selection collection. It is the single writable
// source of truth for presentation surfaces; all access goes through its
// methods. Entries are kept in insertion order and deduplicated by
// LineItem.Key, and no entry ever holds a quantity below 1.
type Store struct {
	mu     sync.RWMutex
	items  []domain.LineItem
	labels []domain.Label

	subs    map[int]chan Change
	nextSub int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subs: make(map[int]chan Change),
	}
}

// Add inserts an item with the given quantity, or accumulates the quantity
// onto the existing entry with the same identity. Quantities below 1 are
// treated as 1. Items without a resolvable identity are ignored.
func (s *Store) Add(item domain.LineItem, quantity int) {
	if item.ID == "" {
		return
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	key := item.Key()
	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.publish(Change{Op: OpAdd, Key: key})
}

// Remove deletes the entry with the given identity. Removing an absent
// identity is a no-op, not an error.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.publish(Change{Op: OpRemove, Key: key})
}

// SetQuantity sets the quantity of the matching entry. A quantity of zero
// or less removes the entry instead. Absent identities are a no-op.
func (s *Store) SetQuantity(key string, quantity int) {
	if quantity <= 0 {
		s.Remove(key)
		return
	}

	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i].Quantity = quantity
	s.mu.Unlock()

	s.publish(Change{Op: OpUpdate, Key: key})
}

// Clear empties the collection and the labels unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.labels = nil
	s.mu.Unlock()

	s.publish(Change{Op: OpClear})
}

// Replace swaps the whole collection for the given items and labels. Used
// when remote state seeds the store after sign-in.
func (s *Store) Replace(items []domain.LineItem, labels []domain.Label) {
	s.mu.Lock()
	s.items = append([]domain.LineItem(nil), items...)
	s.labels = append([]domain.Label(nil), labels...)
	s.mu.Unlock()

	s.publish(Change{Op: OpReplace})
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LineItem(nil), s.items...)
}

// Labels returns a copy of the labels in creation order.
func (s *Store) Labels() []domain.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Label(nil), s.labels...)
}

// Count returns the sum of quantities across all entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Total returns the sum of unit price times quantity across all entries.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, item := range s.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Contains reports whether an entry with the given identity is present.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(key) >= 0
}

// AddLabel creates a room/area label with the first unused palette color.
func (s *Store) AddLabel(name string) domain.Label {
	s.mu.Lock()
	label := domain.Label{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     domain.NextLabelColor(s.labels),
		CreatedAt: time.Now(),
	}
	s.labels = append(s.labels, label)
	s.mu.Unlock()

	s.publish(Change{Op: OpLabel, Key: label.ID})
	return label
}

// RemoveLabel deletes a label and unassigns it from any items.
func (s *Store) RemoveLabel(id string) {
	s.mu.Lock()
	found := false
	for i, l := range s.labels {
		if l.ID == id {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			found = true
			break
		}
	}
	if found {
		for i := range s.items {
			if s.items[i].LabelID == id {
				s.items[i].LabelID = ""
			}
		}
	}
	s.mu.Unlock()

	if found {
		s.publish(Change{Op: OpLabel, Key: id})
	}
}

// UpdateLabel renames a label and optionally changes its color.
func (s *Store) UpdateLabel(id, name, color string) {
	s.mu.Lock()
	found := false
	for i := range s.labels {
		if s.labels[i].ID == id {
			s.labels[i].Name = name
			if color != "" {
				s.labels[i].Color = color
			}
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.publish(Change{Op: OpLabel, Key: id})
	}
}

// SetItemLabel assigns an item to a label; an empty label id unassigns it.
func (s *Store) SetItemLabel(key, labelID string) {
	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i].LabelID = labelID
	s.mu.Unlock()

	s.publish(Change{Op: OpUpdate, Key: key})
}

// SetItemNotes replaces the free-form notes on an item.
func (s *Store) SetItemNotes(key, notes string) {
	s.mu.Lock()
	i := s.indexOf(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i].Notes = notes
	s.mu.Unlock()

	s.publish(Change{Op: OpUpdate, Key: key})
}

// ItemsByLabel returns the entries assigned to the given label.
func (s *Store) ItemsByLabel(labelID string) []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LineItem
	for _, item := range s.items {
		if item.LabelID == labelID {
			out = append(out, item)
		}
	}
	return out
}

// Unlabeled returns the entries not assigned to any label.
func (s *Store) Unlabeled() []domain.LineItem {
	return s.ItemsByLabel("")
}

// TotalByLabel returns the price total of the entries under one label.
func (s *Store) TotalByLabel(labelID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, item := range s.items {
		if item.LabelID == labelID {
			total += item.Price * float64(item.Quantity)
		}
	}
	return total
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(key string) int {
	for i, item := range s.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}
