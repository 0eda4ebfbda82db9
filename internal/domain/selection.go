package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidItem = errors.New("invalid selection item")

// LineItem is a single entry in a selection. Identity for deduplication is
// the product id alone, or the product id plus variant id when a variant
// was chosen.
type LineItem struct {
	ID         string  `json:"id" bson:"id"`
	VariantID  string  `json:"variantId,omitempty" bson:"variant_id,omitempty"`
	Slug       string  `json:"slug" bson:"slug"`
	Name       string  `json:"name" bson:"name"`
	Image      string  `json:"image" bson:"image"`
	Colour     string  `json:"colour,omitempty" bson:"colour,omitempty"`
	Category   string  `json:"category" bson:"category"`
	Price      float64 `json:"price" bson:"price"`
	PriceExVat float64 `json:"priceExVat" bson:"price_ex_vat"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	LabelID    string  `json:"labelId,omitempty" bson:"label_id,omitempty"`
	Notes      string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Key returns the deduplication identity of the item.
func (li LineItem) Key() string {
	if li.VariantID == "" {
		return li.ID
	}
	return li.ID + "/" + li.VariantID
}

// Validate checks that the item can be stored or pushed remotely.
func (li LineItem) Validate() error {
	if li.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if li.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	}
	return nil
}

// Label is a room/area grouping for selection items.
type Label struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Color     string    `json:"color" bson:"color"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// LabelColors is the preset palette assigned to new labels.
var LabelColors = []string{
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#F97316", // orange
	"#6366F1", // indigo
}

// NextLabelColor picks the first palette color not used by existing labels,
// falling back to the first color once the palette is exhausted.
func NextLabelColor(labels []Label) string {
	used := make(map[string]bool, len(labels))
	for _, l := range labels {
		used[l.Color] = true
	}
	for _, c := range LabelColors {
		if !used[c] {
			return c
		}
	}
	return LabelColors[0]
}

// Selection is the per-user remote document holding the synced selection.
type Selection struct {
	ID        string     `json:"-" bson:"_id,omitempty"`
	UserID    string     `json:"-" bson:"user_id"`
	Items     []LineItem `json:"items" bson:"items"`
	Labels    []Label    `json:"labels" bson:"labels"`
	CreatedAt time.Time  `json:"-" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// Empty reports whether the selection holds no items and no labels.
func (s *Selection) Empty() bool {
	return len(s.Items) == 0 && len(s.Labels) == 0
}
