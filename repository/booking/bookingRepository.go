package bookingrepo

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"decorrental/model"
	"decorrental/util/apperr"
	"decorrental/util/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionPath is the change-feed path of the bookings collection.
func CollectionPath(appID string) string {
	return database.CollectionPath(appID, database.BookingsCollection)
}

// Notifier announces committed writes to watchers.
type Notifier interface {
	Notify(ctx context.Context, path string) error
}

// VerifyFunc inspects the active bookings read under lock; a non-nil error aborts the write.
type VerifyFunc func(active []model.Booking) error

type Repo interface {
	Create(ctx context.Context, b model.Booking) error
	// CreateVerified serializes writers per item with advisory locks, re-reads the
	// active bookings for b's items and only inserts when verify accepts them.
	CreateVerified(ctx context.Context, b model.Booking, verify VerifyFunc) error
	ActiveContaining(ctx context.Context, itemID string) ([]model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	SetStatus(ctx context.Context, id string, status model.BookingStatus) error
}

type repo struct {
	pool  *pgxpool.Pool
	appID string
	feed  Notifier
}

func New(pool *pgxpool.Pool, appID string, feed Notifier) Repo {
	return &repo{pool: pool, appID: appID, feed: feed}
}

const selectCols = `
	SELECT id, user_id, user_display_name, items_booked, start_date, end_date,
		total_price, status, fulfillment_method, created_at
	FROM bookings`

const insertQ = `
	INSERT INTO bookings (app_id, id, user_id, user_display_name, items_booked, item_ids,
		start_date, end_date, total_price, status, fulfillment_method, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *repo) insert(ctx context.Context, db execer, b model.Booking) error {
	lines, err := json.Marshal(b.ItemsBooked)
	if err != nil {
		return apperr.Wrap(apperr.WriteFailure, "encode booking lines", err)
	}
	_, err = db.Exec(ctx, insertQ,
		r.appID, b.ID, b.UserID, b.UserDisplayName, string(lines), b.ItemIDs(),
		b.StartDate, b.EndDate, b.TotalPrice, string(b.Status), string(b.FulfillmentMethod), b.CreatedAt,
	)
	return writeErr(err)
}

func writeErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Wrap(apperr.WriteFailure, "booking already exists", err)
		case pgerrcode.CheckViolation:
			return apperr.Wrap(apperr.WriteFailure, "booking rejected by store", err)
		}
	}
	return apperr.Wrap(apperr.WriteFailure, "write booking", err)
}

func (r *repo) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	// a lost notice is recovered by the next one
	_ = r.feed.Notify(ctx, CollectionPath(r.appID))
}

func (r *repo) Create(ctx context.Context, b model.Booking) error {
	if err := r.insert(ctx, r.pool, b); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *repo) CreateVerified(ctx context.Context, b model.Booking, verify VerifyFunc) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.WriteFailure, "begin booking tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	ids := lockOrder(b)
	for _, id := range ids {
		if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, r.appID, id); err != nil {
			return apperr.Wrap(apperr.WriteFailure, "lock item", err)
		}
	}

	active, err := r.queryActive(ctx, tx, ids)
	if err != nil {
		return apperr.Wrap(apperr.WriteFailure, "read active bookings", err)
	}
	if err = verify(active); err != nil {
		return err
	}
	if err = r.insert(ctx, tx, b); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.WriteFailure, "commit booking", err)
	}
	r.notify(ctx)
	return nil
}

// lockOrder is the sorted, de-duplicated item ids of b. Every writer takes its
// locks in this order, so two checkouts over the same items cannot deadlock.
func lockOrder(b model.Booking) []string {
	ids := b.ItemIDs()
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (r *repo) ActiveContaining(ctx context.Context, itemID string) ([]model.Booking, error) {
	return r.queryActive(ctx, r.pool, []string{itemID})
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repo) queryActive(ctx context.Context, db querier, itemIDs []string) ([]model.Booking, error) {
	statuses := make([]string, 0, len(model.ActiveStatuses))
	for _, s := range model.ActiveStatuses {
		statuses = append(statuses, string(s))
	}
	rows, err := db.Query(ctx, selectCols+`
	WHERE app_id = $1 AND item_ids && $2 AND status = ANY($3)
	ORDER BY created_at DESC, id`, r.appID, itemIDs, statuses)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *repo) List(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
	WHERE app_id = $1
	ORDER BY created_at DESC, id`, r.appID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
	WHERE app_id = $1 AND user_id = $2
	ORDER BY created_at DESC, id`, r.appID, userID)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *repo) Get(ctx context.Context, id string) (*model.Booking, error) {
	rows, err := r.pool.Query(ctx, selectCols+`
	WHERE app_id = $1 AND id = $2`, r.appID, id)
	if err != nil {
		return nil, err
	}
	out, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.New(apperr.NotFound, "booking not found")
	}
	return &out[0], nil
}

func (r *repo) SetStatus(ctx context.Context, id string, status model.BookingStatus) error {
	const q = `
	UPDATE bookings
	SET status = $3
	WHERE app_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, r.appID, id, string(status))
	if err != nil {
		return apperr.Wrap(apperr.WriteFailure, "update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "booking not found")
	}
	r.notify(ctx)
	return nil
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		var (
			b                   model.Booking
			lines               []byte
			status, fulfillment string
		)
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.UserDisplayName, &lines, &b.StartDate, &b.EndDate,
			&b.TotalPrice, &status, &fulfillment, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &b.ItemsBooked); err != nil {
			return nil, err
		}
		b.Status = model.BookingStatus(status)
		b.FulfillmentMethod = model.FulfillmentMethod(fulfillment)
		out = append(out, b)
	}
	return out, rows.Err()
}
