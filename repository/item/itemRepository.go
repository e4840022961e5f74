package itemrepo

import (
	"context"
	"errors"

	"decorrental/model"
	"decorrental/util/apperr"
	"decorrental/util/database"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionPath is the change-feed path of the inventory collection.
func CollectionPath(appID string) string {
	return database.CollectionPath(appID, database.InventoryCollection)
}

// Notifier announces committed writes to watchers.
type Notifier interface {
	Notify(ctx context.Context, path string) error
}

type Repo interface {
	List(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	Upsert(ctx context.Context, it model.Item) error
	AddStock(ctx context.Context, id string, n int) (int, error)
}

type repo struct {
	pool  *pgxpool.Pool
	appID string
	feed  Notifier
}

func New(pool *pgxpool.Pool, appID string, feed Notifier) Repo {
	return &repo{pool: pool, appID: appID, feed: feed}
}

func (r *repo) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	_ = r.feed.Notify(ctx, CollectionPath(r.appID))
}

func (r *repo) List(ctx context.Context) ([]model.Item, error) {
	const q = `
	SELECT id, name, category, price_per_day, total_stock, image_ref
	FROM decor_inventory
	WHERE app_id = $1
	ORDER BY name, id`
	rows, err := r.pool.Query(ctx, q, r.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.PricePerDay, &it.TotalStock, &it.ImageRef); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) Get(ctx context.Context, id string) (*model.Item, error) {
	const q = `
	SELECT id, name, category, price_per_day, total_stock, image_ref
	FROM decor_inventory
	WHERE app_id = $1 AND id = $2`
	var it model.Item
	err := r.pool.QueryRow(ctx, q, r.appID, id).
		Scan(&it.ID, &it.Name, &it.Category, &it.PricePerDay, &it.TotalStock, &it.ImageRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "item not found")
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repo) Upsert(ctx context.Context, it model.Item) error {
	const q = `
	INSERT INTO decor_inventory (app_id, id, name, category, price_per_day, total_stock, image_ref)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (app_id, id) DO UPDATE
	SET name = EXCLUDED.name,
		category = EXCLUDED.category,
		price_per_day = EXCLUDED.price_per_day,
		total_stock = EXCLUDED.total_stock,
		image_ref = EXCLUDED.image_ref`
	if _, err := r.pool.Exec(ctx, q, r.appID, it.ID, it.Name, it.Category, it.PricePerDay, it.TotalStock, it.ImageRef); err != nil {
		return stockErr(err)
	}
	r.notify(ctx)
	return nil
}

// AddStock changes total stock by n (negative to retire units) and returns the new total.
func (r *repo) AddStock(ctx context.Context, id string, n int) (int, error) {
	const q = `
	UPDATE decor_inventory
	SET total_stock = total_stock + $3
	WHERE app_id = $1 AND id = $2
	RETURNING total_stock`
	var total int
	err := r.pool.QueryRow(ctx, q, r.appID, id, n).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.New(apperr.NotFound, "item not found")
	}
	if err != nil {
		return 0, stockErr(err)
	}
	r.notify(ctx)
	return total, nil
}

func stockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return apperr.Wrap(apperr.Validation, "stock and price must not be negative", err)
	}
	return apperr.Wrap(apperr.WriteFailure, "write item", err)
}
