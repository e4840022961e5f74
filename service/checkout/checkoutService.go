package checkoutsvc

import (
	"context"
	"errors"
	"time"

	"decorrental/model"
	bookingrepo "decorrental/repository/booking"
	"decorrental/service/availability"
	"decorrental/service/cart"
	"decorrental/util/apperr"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateVerifying State = "verifying"
	StateAdjusted  State = "adjusted"
	StateRejected  State = "rejected"
	StateCommitted State = "committed"
)

// Adjustment reports a cart line whose quantity was lowered during verification.
type Adjustment struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Requested   int    `json:"requested"`
	Granted     int    `json:"granted"`
	Unavailable bool   `json:"unavailable"`
}

type Result struct {
	State       State          `json:"state"`
	Adjustments []Adjustment   `json:"adjustments,omitempty"`
	Booking     *model.Booking `json:"booking,omitempty"`
}

type Request struct {
	Fulfillment model.FulfillmentMethod `json:"fulfillment_method" validate:"omitempty,oneof=Pickup Delivery"`
}

// Items is the read side of the inventory mirror.
type Items interface {
	Get(id string) (model.Item, error)
	WaitReady(ctx context.Context) error
}

type Repo interface {
	Create(ctx context.Context, b model.Booking) error
	CreateVerified(ctx context.Context, b model.Booking, verify bookingrepo.VerifyFunc) error
	ActiveContaining(ctx context.Context, itemID string) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
}

type Service interface {
	Checkout(ctx context.Context, id *model.Identity, req Request) (*Result, error)
	Availability(ctx context.Context, itemID string, r availability.Range, qty int) (availability.Grant, error)
	MyBookings(ctx context.Context, id *model.Identity) ([]model.Booking, error)
}

type Option func(*service)

// WithStrict makes the booking write re-verify under per-item locks.
func WithStrict(strict bool) Option { return func(s *service) { s.strict = strict } }

type service struct {
	carts  *cart.Store
	items  Items
	repo   Repo
	strict bool

	now   func() time.Time
	newID func() string
}

func New(carts *cart.Store, items Items, repo Repo, opts ...Option) Service {
	s := &service{
		carts: carts,
		items: items,
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// adjustedErr aborts a strict write when the locked re-read disagrees with the cart.
type adjustedErr struct{ adj []Adjustment }

func (e *adjustedErr) Error() string { return "availability changed during checkout" }

func (s *service) Checkout(ctx context.Context, id *model.Identity, req Request) (*Result, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.New(apperr.Auth, "sign in before checkout")
	}
	fulfillment := req.Fulfillment
	if fulfillment == "" {
		fulfillment = model.FulfillmentPickup
	}

	res := &Result{State: StateIdle}
	err := s.carts.Checkout(id.ID, func(c *cart.Cart) error {
		r, ok := c.Dates()
		if !ok {
			return apperr.New(apperr.Validation, "select rental dates before checkout")
		}
		if !r.Valid() {
			return apperr.New(apperr.Validation, "end date is before start date")
		}
		if c.Empty() {
			return apperr.New(apperr.Validation, "cart is empty")
		}

		res.State = StateVerifying
		if err := s.items.WaitReady(ctx); err != nil {
			return err
		}
		adj, err := s.verify(c, r, func(itemID string) ([]model.Booking, error) {
			return s.repo.ActiveContaining(ctx, itemID)
		})
		if err != nil {
			res.State = StateRejected
			return apperr.Wrap(apperr.WriteFailure, "could not verify availability", err)
		}
		if len(adj) > 0 {
			applyAdjustments(c, adj)
			res.State, res.Adjustments = StateAdjusted, adj
			return nil
		}

		b := s.buildBooking(id, c, r, fulfillment)
		if s.strict {
			err = s.repo.CreateVerified(ctx, b, func(active []model.Booking) error {
				adj, err := s.verify(c, r, func(string) ([]model.Booking, error) { return active, nil })
				if err != nil {
					return err
				}
				if len(adj) > 0 {
					return &adjustedErr{adj: adj}
				}
				return nil
			})
		} else {
			err = s.repo.Create(ctx, b)
		}

		var ae *adjustedErr
		switch {
		case errors.As(err, &ae):
			applyAdjustments(c, ae.adj)
			res.State, res.Adjustments = StateAdjusted, ae.adj
			return nil
		case err != nil:
			res.State = StateRejected
			if apperr.CodeOf(err) == "" {
				err = apperr.Wrap(apperr.WriteFailure, "could not save booking", err)
			}
			return err
		}

		c.Clear()
		res.State, res.Booking = StateCommitted, &b
		return nil
	})
	if err != nil {
		if res.State == StateRejected {
			return res, err
		}
		return nil, err
	}
	return res, nil
}

// verify re-runs the engine for every cart line against current stock.
// Items missing from the catalog count as zero stock.
func (s *service) verify(c *cart.Cart, r availability.Range, active func(string) ([]model.Booking, error)) ([]Adjustment, error) {
	var adj []Adjustment
	for _, e := range c.Entries() {
		bookings, err := active(e.Item.ID)
		if err != nil {
			return nil, err
		}
		stock := 0
		if it, err := s.items.Get(e.Item.ID); err == nil {
			stock = it.TotalStock
		}
		g := availability.Check(e.Item.ID, r, stock, e.Quantity, bookings)
		if g.Granted != e.Quantity {
			adj = append(adj, Adjustment{
				ItemID:      e.Item.ID,
				Name:        e.Item.Name,
				Requested:   e.Quantity,
				Granted:     g.Granted,
				Unavailable: g.Granted == 0,
			})
		}
	}
	return adj, nil
}

func applyAdjustments(c *cart.Cart, adj []Adjustment) {
	for _, a := range adj {
		e, ok := c.Get(a.ItemID)
		if !ok {
			continue
		}
		c.SetQuantity(e.Item, a.Granted)
	}
}

func (s *service) buildBooking(id *model.Identity, c *cart.Cart, r availability.Range, f model.FulfillmentMethod) model.Booking {
	entries := c.Entries()
	lines := make([]model.BookingLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, model.BookingLine{
			ItemID:    e.Item.ID,
			Quantity:  e.Quantity,
			UnitPrice: e.Item.PricePerDay,
		})
	}
	return model.Booking{
		ID:                s.newID(),
		UserID:            id.ID,
		UserDisplayName:   id.BookingName(),
		ItemsBooked:       lines,
		StartDate:         r.Start,
		EndDate:           r.End,
		TotalPrice:        c.TotalPrice(availability.NumDays(r)),
		Status:            model.StatusPendingReview,
		FulfillmentMethod: f,
		CreatedAt:         s.now().UTC(),
	}
}

func (s *service) Availability(ctx context.Context, itemID string, r availability.Range, qty int) (availability.Grant, error) {
	if !r.Valid() {
		return availability.Grant{}, apperr.New(apperr.Validation, "a valid start and end date are required")
	}
	if err := s.items.WaitReady(ctx); err != nil {
		return availability.Grant{}, err
	}
	it, err := s.items.Get(itemID)
	if err != nil {
		return availability.Grant{}, err
	}
	if qty <= 0 {
		qty = it.TotalStock
	}
	active, err := s.repo.ActiveContaining(ctx, itemID)
	if err != nil {
		return availability.Grant{}, err
	}
	return availability.Check(itemID, r, it.TotalStock, qty, active), nil
}

func (s *service) MyBookings(ctx context.Context, id *model.Identity) ([]model.Booking, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.New(apperr.Auth, "sign in to view bookings")
	}
	return s.repo.ListByUser(ctx, id.ID)
}
