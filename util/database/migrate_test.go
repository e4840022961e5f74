package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectionPath(t *testing.T) {
	require.Equal(t, "artifacts/decor/public/data/bookings", CollectionPath("decor", BookingsCollection))
	require.Equal(t, "artifacts/decor/public/data/decor_inventory", CollectionPath("decor", InventoryCollection))
}

func TestMigrations_TriggersAnnounceCollectionPaths(t *testing.T) {
	all := strings.Join(migrations, "\n")

	// the trigger body must build the same path CollectionPath does
	require.Contains(t, all, `pg_notify('collection_changed', 'artifacts/' || app || '/public/data/' || TG_ARGV[0])`)

	for table, collection := range map[string]string{
		"decor_inventory": InventoryCollection,
		"bookings":        BookingsCollection,
	} {
		require.Contains(t, all, "ON "+table+"\n\t\tFOR EACH ROW EXECUTE FUNCTION notify_collection_changed('"+collection+"')")
	}
}
