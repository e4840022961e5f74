// model/booking.go
package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusPendingReview BookingStatus = "Pending Admin Review"
	StatusConfirmed     BookingStatus = "Confirmed"
	StatusOutForDropoff BookingStatus = "Out for Delivery/Pickup"
	StatusCompleted     BookingStatus = "Completed"
	StatusCanceled      BookingStatus = "Canceled"
)

// Statuses lists the lifecycle in its intended order of progress.
var Statuses = []BookingStatus{
	StatusPendingReview,
	StatusConfirmed,
	StatusOutForDropoff,
	StatusCompleted,
	StatusCanceled,
}

// ActiveStatuses count against stock.
var ActiveStatuses = []BookingStatus{
	StatusPendingReview,
	StatusConfirmed,
	StatusOutForDropoff,
}

func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", s)
	}
	return st, nil
}

type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "Pickup"
	FulfillmentDelivery FulfillmentMethod = "Delivery"
)

type BookingLine struct {
	ItemID    string  `json:"item_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Booking struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	UserDisplayName   string            `json:"user_display_name"`
	ItemsBooked       []BookingLine     `json:"items_booked"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	TotalPrice        float64           `json:"total_price"`
	Status            BookingStatus     `json:"status"`
	FulfillmentMethod FulfillmentMethod `json:"fulfillment_method"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ItemIDs is the denormalized id list used for membership queries.
func (b Booking) ItemIDs() []string {
	out := make([]string, 0, len(b.ItemsBooked))
	for _, l := range b.ItemsBooked {
		out = append(out, l.ItemID)
	}
	return out
}

// Contains reports whether the booking has a line for itemID.
func (b Booking) Contains(itemID string) bool {
	for _, l := range b.ItemsBooked {
		if l.ItemID == itemID {
			return true
		}
	}
	return false
}
