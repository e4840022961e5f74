package database

import (
	"context"
	"fmt"
)

// ChangeChannel is the LISTEN/NOTIFY channel the collection triggers publish on.
const ChangeChannel = "collection_changed"

// Collection names; the triggers announce these as the last path segment.
const (
	InventoryCollection = "decor_inventory"
	BookingsCollection  = "bookings"
)

const collectionPrefix = "artifacts/"
const collectionInfix = "/public/data/"

// CollectionPath is the change-feed path of a collection, as the triggers build it.
func CollectionPath(appID, collection string) string {
	return collectionPrefix + appID + collectionInfix + collection
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS decor_inventory (
		app_id        TEXT NOT NULL,
		id            TEXT NOT NULL,
		name          TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		price_per_day DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price_per_day >= 0),
		total_stock   INTEGER NOT NULL DEFAULT 0 CHECK (total_stock >= 0),
		image_ref     TEXT,
		PRIMARY KEY (app_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decor_inventory_name ON decor_inventory(app_id, name)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		app_id             TEXT NOT NULL,
		id                 TEXT NOT NULL,
		user_id            TEXT NOT NULL,
		user_display_name  TEXT NOT NULL,
		items_booked       JSONB NOT NULL,
		item_ids           TEXT[] NOT NULL,
		start_date         TIMESTAMPTZ NOT NULL,
		end_date           TIMESTAMPTZ NOT NULL,
		total_price        DOUBLE PRECISION NOT NULL,
		status             TEXT NOT NULL,
		fulfillment_method TEXT NOT NULL DEFAULT 'Pickup',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (app_id, id),
		CHECK (start_date <= end_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_item_ids ON bookings USING GIN (item_ids)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(app_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(app_id, user_id)`,

	// every row change announces "artifacts/<app_id>/public/data/<collection>"
	`CREATE OR REPLACE FUNCTION notify_collection_changed() RETURNS trigger AS $$
	DECLARE
		app TEXT;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			app := OLD.app_id;
		ELSE
			app := NEW.app_id;
		END IF;
		PERFORM pg_notify('` + ChangeChannel + `', '` + collectionPrefix + `' || app || '` + collectionInfix + `' || TG_ARGV[0]);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS decor_inventory_changed ON decor_inventory`,
	`CREATE TRIGGER decor_inventory_changed
		AFTER INSERT OR UPDATE OR DELETE ON decor_inventory
		FOR EACH ROW EXECUTE FUNCTION notify_collection_changed('` + InventoryCollection + `')`,
	`DROP TRIGGER IF EXISTS bookings_changed ON bookings`,
	`CREATE TRIGGER bookings_changed
		AFTER INSERT OR UPDATE OR DELETE ON bookings
		FOR EACH ROW EXECUTE FUNCTION notify_collection_changed('` + BookingsCollection + `')`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
