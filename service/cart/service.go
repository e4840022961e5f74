package cart

import (
	"context"
	"time"

	"decorrental/model"
	"decorrental/service/availability"
	"decorrental/util/apperr"
)

// Items resolves catalog ids to their current snapshot.
type Items interface {
	Get(id string) (model.Item, error)
}

// Checker is the availability engine as seen from the cart.
type Checker interface {
	Availability(ctx context.Context, itemID string, r availability.Range, qty int) (availability.Grant, error)
}

type Line struct {
	Item     model.Item `json:"item"`
	Quantity int        `json:"quantity"`
	Subtotal float64    `json:"subtotal"`
}

type Summary struct {
	Lines     []Line     `json:"lines"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	NumDays   int        `json:"num_days"`
	Total     float64    `json:"total"`
	// Limited lists items whose requested increase was cut to what is available.
	Limited []string `json:"limited,omitempty"`
}

type Service interface {
	View(sessionID string) Summary
	Add(ctx context.Context, sessionID, itemID string, delta int) (Summary, error)
	Remove(sessionID, itemID string) Summary
	SetDates(sessionID string, r availability.Range) (Summary, error)
	Clear(sessionID string) Summary
}

type service struct {
	store *Store
	items Items
	check Checker
}

// NewService with a nil checker skips the add-time availability check.
func NewService(store *Store, items Items, check Checker) Service {
	return &service{store: store, items: items, check: check}
}

func summarize(c *Cart) Summary {
	days := c.NumDays()
	s := Summary{Lines: []Line{}, NumDays: days, Total: c.TotalPrice(days)}
	for _, e := range c.Entries() {
		s.Lines = append(s.Lines, Line{Item: e.Item, Quantity: e.Quantity, Subtotal: e.Subtotal(days)})
	}
	if r, ok := c.Dates(); ok {
		start, end := r.Start, r.End
		s.StartDate, s.EndDate = &start, &end
	}
	return s
}

func (s *service) View(sessionID string) Summary { return summarize(s.store.View(sessionID)) }

// Add looks the item up so the entry carries the latest catalog snapshot.
// With dates set, an increase is cut to what the engine grants for the range.
func (s *service) Add(ctx context.Context, sessionID, itemID string, delta int) (Summary, error) {
	var out Summary
	err := s.store.With(sessionID, func(c *Cart) error {
		it, err := s.items.Get(itemID)
		if err != nil {
			// an item that left the catalog can still be decremented away
			e, ok := c.Get(itemID)
			if !ok || delta > 0 {
				return err
			}
			it = e.Item
		}

		limited := false
		if r, ok := c.Dates(); ok && delta > 0 && s.check != nil {
			cur := c.Quantity(itemID)
			want := clamp(cur + delta)
			g, err := s.check.Availability(ctx, itemID, r, want)
			if err != nil {
				return err
			}
			if g.Granted < want {
				limited = true
				delta = g.Granted - cur
				if delta < 0 {
					delta = 0
				}
			}
		}

		c.Add(it, delta)
		out = summarize(c)
		if limited {
			out.Limited = []string{itemID}
		}
		return nil
	})
	return out, err
}

func (s *service) Remove(sessionID, itemID string) Summary {
	var out Summary
	_ = s.store.With(sessionID, func(c *Cart) error {
		c.Remove(itemID)
		out = summarize(c)
		return nil
	})
	return out
}

// SetDates with a zero range clears the dates.
func (s *service) SetDates(sessionID string, r availability.Range) (Summary, error) {
	if !(r.Start.IsZero() && r.End.IsZero()) && !r.Valid() {
		return Summary{}, apperr.New(apperr.Validation, "end date must not be before start date")
	}
	var out Summary
	err := s.store.With(sessionID, func(c *Cart) error {
		if r.Start.IsZero() {
			c.ClearDates()
		} else {
			c.SetDates(r)
		}
		out = summarize(c)
		return nil
	})
	return out, err
}

func (s *service) Clear(sessionID string) Summary {
	var out Summary
	_ = s.store.With(sessionID, func(c *Cart) error {
		c.Clear()
		c.ClearDates()
		out = summarize(c)
		return nil
	})
	return out
}
