// Package availability decides how much of an item can be granted for a date range.
// Everything here is a pure function of its arguments.
package availability

import (
	"math"
	"strings"
	"time"

	"decorrental/model"
)

const oneDay = 24 * time.Hour

// Range is an inclusive date range.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Valid() bool { return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start) }

// Overlaps uses inclusive boundaries: a range ending the day another starts overlaps it.
func Overlaps(a, b Range) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// NumDays is the billable length of r. A same-day rental counts as one day and
// partial days round up.
func NumDays(r Range) int {
	d := r.End.Sub(r.Start)
	n := int(math.Ceil(float64(d) / float64(oneDay)))
	if n < 1 {
		return 1
	}
	return n
}

// Reserved sums the quantity of itemID held by active bookings overlapping q.
func Reserved(itemID string, q Range, bookings []model.Booking) int {
	reserved := 0
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		if !Overlaps(Range{Start: b.StartDate, End: b.EndDate}, q) {
			continue
		}
		for _, l := range b.ItemsBooked {
			if l.ItemID == itemID && l.Quantity > 0 {
				reserved += l.Quantity
			}
		}
	}
	return reserved
}

// Grant is the breakdown behind a granted quantity.
type Grant struct {
	ItemID    string `json:"item_id"`
	Requested int    `json:"requested"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
	Granted   int    `json:"granted"`
}

func Check(itemID string, q Range, totalStock, requested int, bookings []model.Booking) Grant {
	reserved := Reserved(itemID, q, bookings)
	available := totalStock - reserved
	if available < 0 {
		available = 0
	}
	granted := requested
	if granted > available {
		granted = available
	}
	if granted < 0 {
		granted = 0
	}
	return Grant{
		ItemID:    itemID,
		Requested: requested,
		Reserved:  reserved,
		Available: available,
		Granted:   granted,
	}
}

// ComputeAvailable returns min(requested, max(0, totalStock-reserved)).
func ComputeAvailable(itemID string, q Range, totalStock, requested int, bookings []model.Booking) int {
	return Check(itemID, q, totalStock, requested, bookings).Granted
}

// ParseDate accepts a calendar date (2006-01-02, read as UTC midnight) or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
