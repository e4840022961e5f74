// Package cart holds the per-session rental cart. Carts are never persisted.
package cart

import (
	"sort"

	"decorrental/model"
	"decorrental/service/availability"
)

// MaxQty caps the quantity of a single entry.
const MaxQty = 999

type Entry struct {
	Item     model.Item `json:"item"`
	Quantity int        `json:"quantity"`
}

// Subtotal is quantity x price/day x numDays.
func (e Entry) Subtotal(numDays int) float64 {
	return float64(e.Quantity) * e.Item.PricePerDay * float64(numDays)
}

// Cart is not safe for concurrent use; Store serializes access per session.
type Cart struct {
	entries map[string]Entry
	dates   availability.Range
}

func New() *Cart { return &Cart{entries: map[string]Entry{}} }

func clamp(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQty {
		return MaxQty
	}
	return q
}

// Add changes the quantity of item by delta, clamped to [0, MaxQty].
// A resulting quantity of zero removes the entry. It returns the new quantity.
func (c *Cart) Add(item model.Item, delta int) int {
	return c.SetQuantity(item, c.entries[item.ID].Quantity+delta)
}

// SetQuantity stores a clamped quantity, refreshing the item snapshot.
func (c *Cart) SetQuantity(item model.Item, qty int) int {
	qty = clamp(qty)
	if qty == 0 {
		delete(c.entries, item.ID)
		return 0
	}
	c.entries[item.ID] = Entry{Item: item, Quantity: qty}
	return qty
}

func (c *Cart) Remove(itemID string) { delete(c.entries, itemID) }

func (c *Cart) Quantity(itemID string) int { return c.entries[itemID].Quantity }

func (c *Cart) Get(itemID string) (Entry, bool) {
	e, ok := c.entries[itemID]
	return e, ok
}

func (c *Cart) Len() int { return len(c.entries) }

func (c *Cart) Empty() bool { return len(c.entries) == 0 }

// Entries are ordered by item name, then id.
func (c *Cart) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item.Name != out[j].Item.Name {
			return out[i].Item.Name < out[j].Item.Name
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// Clear drops every entry. Dates are kept.
func (c *Cart) Clear() { c.entries = map[string]Entry{} }

func (c *Cart) SetDates(r availability.Range) { c.dates = r }

func (c *Cart) ClearDates() { c.dates = availability.Range{} }

// Dates reports the selected range and whether both ends are set.
func (c *Cart) Dates() (availability.Range, bool) {
	return c.dates, !c.dates.Start.IsZero() && !c.dates.End.IsZero()
}

// NumDays is 1 until both dates are set.
func (c *Cart) NumDays() int {
	r, ok := c.Dates()
	if !ok {
		return 1
	}
	return availability.NumDays(r)
}

func (c *Cart) TotalPrice(numDays int) float64 {
	total := 0.0
	for _, e := range c.entries {
		total += e.Subtotal(numDays)
	}
	return total
}

// Total prices the cart over its own date range.
func (c *Cart) Total() float64 { return c.TotalPrice(c.NumDays()) }

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	out := &Cart{entries: make(map[string]Entry, len(c.entries)), dates: c.dates}
	for k, v := range c.entries {
		out.entries[k] = v
	}
	return out
}
