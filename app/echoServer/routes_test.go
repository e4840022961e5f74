package echoServer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"decorrental/app/echoServer/controller/admin"
	"decorrental/app/echoServer/controller/cart"
	"decorrental/app/echoServer/controller/checkout"
	"decorrental/app/echoServer/controller/item"
	"decorrental/app/echoServer/controller/live"
	"decorrental/app/echoServer/controller/session"
	"decorrental/app/echoServer/validation"
	"decorrental/model"
	bookingrepo "decorrental/repository/booking"
	adminsvc "decorrental/service/admin"
	cartsvc "decorrental/service/cart"
	catalogsvc "decorrental/service/catalog"
	checkoutsvc "decorrental/service/checkout"
	identitysvc "decorrental/service/identity"
	"decorrental/service/watcher"
	"decorrental/util/apperr"
	jwtutil "decorrental/util/jwt"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

// memRepo keeps bookings in memory and mirrors them for the admin side.
type memRepo struct {
	mu       sync.Mutex
	bookings []model.Booking
	mirror   *watcher.Mirror[model.Booking]
}

func (r *memRepo) publish() { r.mirror.Replace(append([]model.Booking(nil), r.bookings...)) }

func (r *memRepo) Create(ctx context.Context, b model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, b)
	r.publish()
	return nil
}

func (r *memRepo) CreateVerified(ctx context.Context, b model.Booking, verify bookingrepo.VerifyFunc) error {
	r.mu.Lock()
	active := append([]model.Booking(nil), r.bookings...)
	r.mu.Unlock()
	if err := verify(active); err != nil {
		return err
	}
	return r.Create(ctx, b)
}

func (r *memRepo) ActiveContaining(ctx context.Context, itemID string) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Booking
	for _, b := range r.bookings {
		if b.Status.IsActive() && b.Contains(itemID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "booking not found")
}

func (r *memRepo) SetStatus(ctx context.Context, id string, st model.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			r.bookings[i].Status = st
			r.publish()
			return nil
		}
	}
	return apperr.New(apperr.NotFound, "booking not found")
}

// memItems writes straight into the catalog mirror, as the inventory watcher would.
type memItems struct {
	mu  sync.Mutex
	cat *catalogsvc.Catalog
}

func (m *memItems) Get(ctx context.Context, id string) (*model.Item, error) {
	it, err := m.cat.Get(id)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (m *memItems) Upsert(ctx context.Context, it model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.cat.All()
	for i := range items {
		if items[i].ID == it.ID {
			items[i] = it
			m.cat.Replace(items)
			return nil
		}
	}
	m.cat.Replace(append(items, it))
	return nil
}

func (m *memItems) AddStock(ctx context.Context, id string, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.cat.All()
	for i := range items {
		if items[i].ID == id {
			if items[i].TotalStock+n < 0 {
				return 0, apperr.New(apperr.Validation, "stock and price must not be negative")
			}
			items[i].TotalStock += n
			m.cat.Replace(items)
			return items[i].TotalStock, nil
		}
	}
	return 0, apperr.New(apperr.NotFound, "item not found")
}

type server struct {
	e    *echo.Echo
	repo *memRepo
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cat := catalogsvc.New()
	cat.Replace([]model.Item{
		{ID: "chairs", Name: "Chiavari Chair", Category: "Seating", PricePerDay: 10, TotalStock: 3},
		{ID: "arch", Name: "Floral Arch", Category: "Backdrops", PricePerDay: 20, TotalStock: 1},
	})
	mirror := watcher.NewMirror[model.Booking]()
	repo := &memRepo{mirror: mirror}
	repo.publish()

	store := cartsvc.NewStore()
	v := validation.Engine()

	e := echo.New()
	RegisterMiddlewares(e, log)
	e.Validator = validation.New()

	co := checkoutsvc.New(store, cat, repo)
	Register(e, C{
		Session:   &session.Controller{Svc: identitysvc.New(secret, "custom"), V: v, Log: log},
		Item:      &item.Controller{Svc: cat, Avail: co, Log: log},
		Cart:      &cart.Controller{Svc: cartsvc.NewService(store, cat, co), V: v, Log: log},
		Checkout:  &checkout.Controller{Svc: co, V: v, Log: log},
		Admin:     &admin.Controller{Svc: adminsvc.New(mirror, cat, repo, &memItems{cat: cat}), V: v, Log: log},
		Live:      &live.Controller{Items: cat.Mirror(), Bookings: mirror, Log: log},
		JWTSecret: secret,
	})
	return &server{e: e, repo: repo}
}

func (s *server) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s *server) guest(t *testing.T) string {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/v1/session/guest", "", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	return out["token"].(string)
}

func TestCheckoutFlow(t *testing.T) {
	s := newServer(t)
	tok := s.guest(t)

	rec, _ := s.do(t, http.MethodPost, "/v1/cart/items", tok, `{"item_id":"chairs","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/v1/cart/items", tok, `{"item_id":"arch","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, out := s.do(t, http.MethodPut, "/v1/cart/dates", tok, `{"start_date":"2025-01-10","end_date":"2025-01-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 80.0, out["data"].(map[string]any)["total"])

	rec, out = s.do(t, http.MethodPost, "/v1/checkout", tok, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := out["data"].(map[string]any)["booking"].(map[string]any)
	require.Equal(t, 80.0, b["total_price"])
	require.Equal(t, "Pending Admin Review", b["status"])
	require.Equal(t, "Guest", b["user_display_name"])

	rec, out = s.do(t, http.MethodGet, "/v1/cart", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, out["data"].(map[string]any)["lines"])

	rec, out = s.do(t, http.MethodGet, "/v1/bookings/my", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["data"], 1)

	// the arch is now fully booked for an overlapping range
	other := s.guest(t)
	s.do(t, http.MethodPost, "/v1/cart/items", other, `{"item_id":"arch","quantity":1}`)
	s.do(t, http.MethodPut, "/v1/cart/dates", other, `{"start_date":"2025-01-12","end_date":"2025-01-13"}`)
	rec, out = s.do(t, http.MethodPost, "/v1/checkout", other, `{}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	adj := out["data"].(map[string]any)["adjustments"].([]any)
	require.Len(t, adj, 1)
	require.Equal(t, true, adj[0].(map[string]any)["unavailable"])
}

func TestCheckout_ValidationErrors(t *testing.T) {
	s := newServer(t)
	tok := s.guest(t)

	rec, out := s.do(t, http.MethodPost, "/v1/checkout", tok, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION", out["code"])

	rec, _ = s.do(t, http.MethodPost, "/v1/checkout", tok, `{"fulfillment_method":"Teleport"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/cart/items", tok, `{"item_id":"chairs","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/cart/items", tok, `{"item_id":"ghost","quantity":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/v1/cart/dates", tok, `{"start_date":"2025-01-12","end_date":"2025-01-10"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/v1/cart", "not-a-jwt", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := s.do(t, http.MethodGet, "/v1/session/me", s.guest(t), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, out["data"].(map[string]any)["is_guest"])
}

func TestCatalogRoutes(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodGet, "/v1/items?search=ARCH", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["data"], 1)

	rec, out = s.do(t, http.MethodGet, "/v1/items/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"All", "Seating", "Backdrops"}, out["data"])

	rec, _ = s.do(t, http.MethodGet, "/v1/items/ghost", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/v1/items/chairs/availability?start=2025-01-10&end=2025-01-12&qty=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3.0, out["data"].(map[string]any)["granted"])
	require.Equal(t, 2.0, out["num_days"])

	rec, _ = s.do(t, http.MethodGet, "/v1/items/chairs/availability?start=bad&end=2025-01-12", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)
	guest := s.guest(t)

	rec, _ := s.do(t, http.MethodGet, "/v1/admin/summary", guest, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, err := jwtutil.Issue(secret, model.Identity{ID: "a-1", DisplayName: "Owner", Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	s.do(t, http.MethodPost, "/v1/cart/items", guest, `{"item_id":"chairs","quantity":1}`)
	s.do(t, http.MethodPut, "/v1/cart/dates", guest, `{"start_date":"2025-02-01","end_date":"2025-02-02"}`)
	rec, out := s.do(t, http.MethodPost, "/v1/checkout", guest, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := out["data"].(map[string]any)["booking"].(map[string]any)["id"].(string)

	rec, out = s.do(t, http.MethodGet, "/v1/admin/bookings?status=Pending%20Admin%20Review", adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["data"], 1)

	rec, out = s.do(t, http.MethodGet, "/v1/admin/bookings/"+id, adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Pending Admin Review", out["data"].(map[string]any)["status"])
	rec, _ = s.do(t, http.MethodGet, "/v1/admin/bookings/missing", adminTok, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPatch, "/v1/admin/bookings/"+id+"/status", adminTok, `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/v1/admin/summary", adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := out["data"].(map[string]any)
	require.Equal(t, 0.0, sum["pending"])
	require.Equal(t, 1.0, sum["by_status"].(map[string]any)["Completed"])

	rec, _ = s.do(t, http.MethodPatch, "/v1/admin/bookings/"+id+"/status", adminTok, `{"status":"Lost"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodPatch, "/v1/admin/bookings/missing/status", adminTok, `{"status":"Confirmed"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/v1/admin/inventory", adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, out["data"], 2)
}

func TestAdminInventoryWrites(t *testing.T) {
	s := newServer(t)
	adminTok, err := jwtutil.Issue(secret, model.Identity{ID: "a-1", Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	rec, _ := s.do(t, http.MethodPost, "/v1/admin/inventory", adminTok,
		`{"id":"lantern","name":"Paper Lantern","category":"Lighting","price_per_day":4,"total_stock":12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, out := s.do(t, http.MethodGet, "/v1/items/lantern", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 12.0, out["data"].(map[string]any)["total_stock"])

	rec, out = s.do(t, http.MethodGet, "/v1/admin/inventory/lantern", adminTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Paper Lantern", out["data"].(map[string]any)["name"])

	rec, out = s.do(t, http.MethodPost, "/v1/admin/inventory/lantern/stock", adminTok, `{"count":-2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10.0, out["total_stock"])

	rec, _ = s.do(t, http.MethodPost, "/v1/admin/inventory/lantern/stock", adminTok, `{"count":-50}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/admin/inventory", adminTok, `{"id":"x","price_per_day":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveBookings_AdminOnly(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/admin/live/bookings"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	adminTok, err := jwtutil.Issue(secret, model.Identity{ID: "a-1", Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	hdr := http.Header{}
	hdr.Set(echo.HeaderAuthorization, "Bearer "+adminTok)
	conn, _, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var f live.Frame[model.Booking]
	require.NoError(t, conn.ReadJSON(&f))
	require.Equal(t, "bookings", f.Type)
	require.Empty(t, f.Data)

	guest := s.guest(t)
	s.do(t, http.MethodPost, "/v1/cart/items", guest, `{"item_id":"arch","quantity":1}`)
	s.do(t, http.MethodPut, "/v1/cart/dates", guest, `{"start_date":"2025-03-01","end_date":"2025-03-01"}`)
	rec, _ := s.do(t, http.MethodPost, "/v1/checkout", guest, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.ReadJSON(&f))
	require.Len(t, f.Data, 1)
}
