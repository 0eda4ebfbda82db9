package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

func line(id string, price float64) domain.LineItem {
	return domain.LineItem{
		ID:       id,
		Slug:     id,
		Name:     "item " + id,
		Category: "test",
		Price:    price,
	}
}

func TestAdd_AccumulatesQuantityForSameIdentity(t *testing.T) {
	s := New()

	s.Add(line("a", 10), 2)
	s.Add(line("a", 10), 3)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, s.Count())
}

func TestAdd_DefaultsQuantityToOne(t *testing.T) {
	s := New()

	s.Add(line("a", 10), 0)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAdd_IgnoresItemWithoutIdentity(t *testing.T) {
	s := New()

	s.Add(domain.LineItem{Name: "no id"}, 1)

	assert.Empty(t, s.Items())
}

func TestAdd_VariantsAreSeparateEntries(t *testing.T) {
	s := New()

	withVariant := line("a", 10)
	withVariant.VariantID = "v1"
	s.Add(line("a", 10), 1)
	s.Add(withVariant, 1)

	assert.Len(t, s.Items(), 2)
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("a/v1"))
}

func TestRemove_IsIdempotent(t *testing.T) {
	s := New()
	s.Add(line("a", 10), 1)
	s.Add(line("b", 20), 1)

	s.Remove("a")
	after := s.Items()
	s.Remove("a") // second remove is a no-op
	s.Remove("missing")

	assert.Equal(t, after, s.Items())
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "b", s.Items()[0].ID)
}

func TestSetQuantity(t *testing.T) {
	s := New()
	s.Add(line("a", 10), 1)

	s.SetQuantity("a", 7)
	assert.Equal(t, 7, s.Items()[0].Quantity)

	// Zero or negative removes the entry entirely.
	s.SetQuantity("a", 0)
	assert.False(t, s.Contains("a"))

	s.Add(line("a", 10), 1)
	s.SetQuantity("a", -3)
	assert.False(t, s.Contains("a"))

	// Absent identity is a no-op.
	s.SetQuantity("missing", 4)
	assert.Empty(t, s.Items())
}

func TestQuantityNeverBelowOne(t *testing.T) {
	s := New()

	s.Add(line("a", 10), -5)
	s.Add(line("b", 10), 3)
	s.SetQuantity("b", 1)
	s.SetQuantity("a", 0)
	s.Add(line("c", 10), 2)
	s.Remove("c")
	s.Add(line("c", 10), 1)

	for _, item := range s.Items() {
		assert.GreaterOrEqual(t, item.Quantity, 1)
	}
}

func TestTotalAndCount(t *testing.T) {
	s := New()
	s.Add(line("a", 10), 2)
	s.Add(line("b", 25.5), 1)

	assert.Equal(t, 3, s.Count())
	assert.InDelta(t, 45.5, s.Total(), 1e-9)

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Zero(t, s.Total())
}

func TestReplace_SwapsCollection(t *testing.T) {
	s := New()
	s.Add(line("a", 10), 1)
	s.AddLabel("Kitchen")

	remote := []domain.LineItem{{ID: "c", Name: "item c", Price: 5, Quantity: 1}}
	s.Replace(remote, nil)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)
	assert.Empty(t, s.Labels())
}

func TestLabels(t *testing.T) {
	s := New()
	s.Add(line("a", 10), 2)
	s.Add(line("b", 20), 1)

	kitchen := s.AddLabel("Kitchen")
	bath := s.AddLabel("Bathroom")
	assert.Equal(t, domain.LabelColors[0], kitchen.Color)
	assert.Equal(t, domain.LabelColors[1], bath.Color)

	s.SetItemLabel("a", kitchen.ID)
	require.Len(t, s.ItemsByLabel(kitchen.ID), 1)
	require.Len(t, s.Unlabeled(), 1)
	assert.InDelta(t, 20.0, s.TotalByLabel(kitchen.ID), 1e-9)

	s.UpdateLabel(kitchen.ID, "Kitchen & Dining", "")
	assert.Equal(t, "Kitchen & Dining", s.Labels()[0].Name)

	// Removing a label unassigns its items.
	s.RemoveLabel(kitchen.ID)
	require.Len(t, s.Labels(), 1)
	assert.Len(t, s.Unlabeled(), 2)
}

func TestWatch_DeliversChangeRecords(t *testing.T) {
	s := New()
	ch, cancel := s.Watch()
	defer cancel()

	s.Add(line("a", 10), 1)
	s.SetQuantity("a", 2)
	s.Remove("a")

	assert.Equal(t, Change{Op: OpAdd, Key: "a"}, <-ch)
	assert.Equal(t, Change{Op: OpUpdate, Key: "a"}, <-ch)
	assert.Equal(t, Change{Op: OpRemove, Key: "a"}, <-ch)
}

func TestWatch_CancelClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Watch()

	cancel()
	cancel() // double cancel is safe

	_, open := <-ch
	assert.False(t, open)

	// Mutations after cancel must not panic or deliver.
	s.Add(line("a", 10), 1)
}

func TestWatch_SlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	_, cancel := s.Watch()
	defer cancel()

	// Overflow the subscription buffer; mutations must not block.
	for i := 0; i < watchBuffer*2; i++ {
		s.Add(line("a", 10), 1)
	}
	assert.Equal(t, watchBuffer*2, s.Count())
}
