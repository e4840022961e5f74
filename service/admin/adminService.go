package adminsvc

import (
	"context"
	"sort"
	"strings"

	"decorrental/model"
	"decorrental/service/watcher"
	"decorrental/util/apperr"
)

type Repo interface {
	Get(ctx context.Context, id string) (*model.Booking, error)
	SetStatus(ctx context.Context, id string, status model.BookingStatus) error
}

// Inventory is the read side of the catalog.
type Inventory interface {
	All() []model.Item
}

// ItemStore reads and writes the inventory table directly, bypassing the mirror.
type ItemStore interface {
	Get(ctx context.Context, id string) (*model.Item, error)
	Upsert(ctx context.Context, it model.Item) error
	AddStock(ctx context.Context, id string, n int) (int, error)
}

// ItemReq creates or replaces an inventory item.
// swagger:model ItemReq
type ItemReq struct {
	ID          string  `json:"id" validate:"required,max=64"`
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"max=60"`
	PricePerDay float64 `json:"price_per_day" validate:"gte=0"`
	TotalStock  int     `json:"total_stock" validate:"gte=0"`
	ImageRef    *string `json:"image_ref,omitempty"`
}

type Summary struct {
	Total    int                         `json:"total"`
	Pending  int                         `json:"pending"`
	Active   int                         `json:"active"`
	ByStatus map[model.BookingStatus]int `json:"by_status"`
	Items    int                         `json:"items"`
}

type Service interface {
	Bookings(ctx context.Context, status string) ([]model.Booking, error)
	Booking(ctx context.Context, id string) (*model.Booking, error)
	SetStatus(ctx context.Context, id, status string) error
	PendingCount(ctx context.Context) (int, error)
	Inventory() []model.Item
	Item(ctx context.Context, id string) (*model.Item, error)
	SaveItem(ctx context.Context, req ItemReq) (model.Item, error)
	AddStock(ctx context.Context, id string, n int) (int, error)
	Summary(ctx context.Context) (Summary, error)
}

type service struct {
	bookings *watcher.Mirror[model.Booking]
	items    Inventory
	repo     Repo
	writer   ItemStore
}

func New(bookings *watcher.Mirror[model.Booking], items Inventory, repo Repo, writer ItemStore) Service {
	return &service{bookings: bookings, items: items, repo: repo, writer: writer}
}

// all waits for the first bookings snapshot and returns it newest first.
func (s *service) all(ctx context.Context) ([]model.Booking, error) {
	if err := s.bookings.WaitReady(ctx); err != nil {
		return nil, err
	}
	out := s.bookings.Docs()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *service) Bookings(ctx context.Context, status string) ([]model.Booking, error) {
	var want model.BookingStatus
	if status != "" {
		st, err := model.ParseBookingStatus(status)
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation, "unknown booking status", err)
		}
		want = st
	}
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if want == "" {
		return all, nil
	}
	out := []model.Booking{}
	for _, b := range all {
		if b.Status == want {
			out = append(out, b)
		}
	}
	return out, nil
}

// Booking reads one booking from the store, so a change not yet mirrored is visible.
func (s *service) Booking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "booking id is required")
	}
	return s.repo.Get(ctx, id)
}

// SetStatus moves a booking to any status; there is no transition guard.
func (s *service) SetStatus(ctx context.Context, id, status string) error {
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return apperr.Wrap(apperr.Validation, "unknown booking status", err)
	}
	if id == "" {
		return apperr.New(apperr.Validation, "booking id is required")
	}
	return s.repo.SetStatus(ctx, id, st)
}

func (s *service) PendingCount(ctx context.Context) (int, error) {
	all, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range all {
		if b.Status == model.StatusPendingReview {
			n++
		}
	}
	return n, nil
}

func (s *service) Inventory() []model.Item { return s.items.All() }

func (s *service) Item(ctx context.Context, id string) (*model.Item, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "item id is required")
	}
	return s.writer.Get(ctx, id)
}

func (s *service) SaveItem(ctx context.Context, req ItemReq) (model.Item, error) {
	it := model.Item{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		PricePerDay: req.PricePerDay,
		TotalStock:  req.TotalStock,
		ImageRef:    req.ImageRef,
	}
	if it.ID == "" || it.Name == "" {
		return model.Item{}, apperr.New(apperr.Validation, "id and name are required")
	}
	if it.PricePerDay < 0 || it.TotalStock < 0 {
		return model.Item{}, apperr.New(apperr.Validation, "stock and price must not be negative")
	}
	if err := s.writer.Upsert(ctx, it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// AddStock lowering stock below zero is refused by the store.
func (s *service) AddStock(ctx context.Context, id string, n int) (int, error) {
	if n == 0 {
		return 0, apperr.New(apperr.Validation, "count must not be zero")
	}
	return s.writer.AddStock(ctx, id, n)
}

func (s *service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.all(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(all), ByStatus: map[model.BookingStatus]int{}, Items: len(s.items.All())}
	for _, st := range model.Statuses {
		sum.ByStatus[st] = 0
	}
	for _, b := range all {
		sum.ByStatus[b.Status]++
		if b.Status.IsActive() {
			sum.Active++
		}
	}
	sum.Pending = sum.ByStatus[model.StatusPendingReview]
	return sum, nil
}
