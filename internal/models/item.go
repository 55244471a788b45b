// Package models defines data structures and domain types.
package models

import (
	"slices"
	"time"
)

// DateLayout is the calendar-day layout used for consumption event dates.
const DateLayout = "2006-01-02"

// ConsumptionEvent is a single recorded consumption of an item.
// Date is kept as text so malformed input survives decoding and can be
// reported as unusable by the normalizer instead of failing the whole file.
type ConsumptionEvent struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note,omitempty"`
}

// NewEvent builds an event for the calendar day of t.
func NewEvent(t time.Time, quantity float64) ConsumptionEvent {
	return ConsumptionEvent{Date: t.Format(DateLayout), Quantity: quantity}
}

// Item is a household consumable tracked in the pantry file.
type Item struct {
	ID               string             `json:"id"`
	Name             string             `json:"name" validate:"required,max=100"`
	Category         string             `json:"category,omitempty"`
	Unit             string             `json:"unit,omitempty"`
	CurrentQuantity  int                `json:"current_quantity" validate:"gte=0"`
	MinimumThreshold int                `json:"minimum_threshold" validate:"gte=0"`
	TargetStockLevel *int               `json:"target_stock_level,omitempty" validate:"omitempty,gt=0"`
	UnitPrice        *float64           `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Events           []ConsumptionEvent `json:"events,omitempty" validate:"dive"`
	AddedAt          time.Time          `json:"added_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() Item {
	clone := *i
	clone.Events = slices.Clone(i.Events)
	if i.TargetStockLevel != nil {
		v := *i.TargetStockLevel
		clone.TargetStockLevel = &v
	}
	if i.UnitPrice != nil {
		v := *i.UnitPrice
		clone.UnitPrice = &v
	}
	return clone
}

// UsableQuantity is the stock above the minimum threshold.
func (i *Item) UsableQuantity() int {
	return max(i.CurrentQuantity-i.MinimumThreshold, 0)
}

// StockCeiling returns the quantity that represents a full shelf for display:
// the target level when set, otherwise twice the minimum threshold.
func (i *Item) StockCeiling() int {
	if i.TargetStockLevel != nil && *i.TargetStockLevel > 0 {
		return *i.TargetStockLevel
	}
	return max(i.MinimumThreshold*2, 1)
}

// LastEventDate returns the most recent event date that parses, or zero.
func (i *Item) LastEventDate() time.Time {
	var last time.Time
	for _, e := range i.Events {
		if d, err := time.Parse(DateLayout, e.Date); err == nil && d.After(last) {
			last = d
		}
	}
	return last
}

// Pantry is the on-disk pantry document.
type Pantry struct {
	Version int    `json:"version"`
	Items   []Item `json:"items" validate:"dive"`
}
