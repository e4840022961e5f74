package cart

import (
	"errors"
	"sync"
	"testing"
	"time"

	"decorrental/model"
	"decorrental/service/availability"
	"decorrental/util/apperr"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	arch  = model.Item{ID: "arch", Name: "Flower Arch", Category: "Arches", PricePerDay: 10, TotalStock: 5}
	chair = model.Item{ID: "chair", Name: "Chiavari Chair", Category: "Seating", PricePerDay: 20, TotalStock: 100}
)

func TestAdd_ClampsAndRemoves(t *testing.T) {
	c := New()
	require.Equal(t, 1, c.Add(arch, 1))
	require.Equal(t, 3, c.Add(arch, 2))
	require.Equal(t, MaxQty, c.Add(arch, 5000))
	require.Equal(t, 0, c.Add(arch, -5000))
	_, ok := c.Get(arch.ID)
	require.False(t, ok)
	require.True(t, c.Empty())

	require.Equal(t, 0, c.Add(chair, -1))
	require.Equal(t, 0, c.Len())
}

func TestAdd_ThenRemoveRestoresState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New()
		start := rapid.IntRange(0, MaxQty-1).Draw(t, "start")
		c.SetQuantity(arch, start)
		before := c.Clone()

		c.Add(arch, 1)
		c.Add(arch, -1)

		if c.Len() != before.Len() || c.Quantity(arch.ID) != before.Quantity(arch.ID) {
			t.Fatalf("cart changed: before=%d after=%d", before.Quantity(arch.ID), c.Quantity(arch.ID))
		}
		_, had := before.Get(arch.ID)
		_, has := c.Get(arch.ID)
		if had != has {
			t.Fatalf("entry presence changed: %v -> %v", had, has)
		}
	})
}

func TestQuantityAlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New()
		deltas := rapid.SliceOf(rapid.IntRange(-2000, 2000)).Draw(t, "deltas")
		for _, d := range deltas {
			q := c.Add(arch, d)
			if q < 0 || q > MaxQty {
				t.Fatalf("quantity %d out of bounds", q)
			}
			if q == 0 && c.Len() != 0 {
				t.Fatalf("zero quantity entry kept")
			}
		}
	})
}

func TestTotalPrice(t *testing.T) {
	c := New()
	c.Add(arch, 2)
	c.Add(chair, 1)

	require.Equal(t, 40.0, c.TotalPrice(1))
	require.Equal(t, 80.0, c.TotalPrice(2))
	require.Equal(t, 40.0, c.Total())

	c.SetDates(availability.Range{
		Start: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, 2, c.NumDays())
	require.Equal(t, 80.0, c.Total())

	c.ClearDates()
	require.Equal(t, 1, c.NumDays())
}

func TestEntries_SortedByName(t *testing.T) {
	c := New()
	c.Add(arch, 1)
	c.Add(chair, 1)
	es := c.Entries()
	require.Len(t, es, 2)
	require.Equal(t, "chair", es[0].Item.ID)
	require.Equal(t, "arch", es[1].Item.ID)
}

func TestClone_Independent(t *testing.T) {
	c := New()
	c.Add(arch, 2)
	cp := c.Clone()
	cp.Add(arch, 3)
	require.Equal(t, 2, c.Quantity(arch.ID))
	require.Equal(t, 5, cp.Quantity(arch.ID))
}

func TestStore_SessionsAreSeparate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.With("u1", func(c *Cart) error { c.Add(arch, 2); return nil }))
	require.NoError(t, s.With("u2", func(c *Cart) error { c.Add(chair, 1); return nil }))

	require.Equal(t, 2, s.View("u1").Quantity(arch.ID))
	require.Equal(t, 0, s.View("u1").Quantity(chair.ID))
	require.Equal(t, 1, s.View("u2").Quantity(chair.ID))
	require.True(t, s.View("u3").Empty())
}

func TestStore_WithPropagatesError(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	require.ErrorIs(t, s.With("u1", func(*Cart) error { return boom }), boom)
}

func TestStore_CheckoutRejectsConcurrentCheckout(t *testing.T) {
	s := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Checkout("u1", func(*Cart) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := s.Checkout("u1", func(*Cart) error { return nil })
	require.ErrorIs(t, err, ErrCheckoutInProgress)
	require.Equal(t, apperr.Validation, apperr.CodeOf(err))

	require.NoError(t, s.Checkout("u2", func(*Cart) error { return nil }))

	close(release)
	wg.Wait()
	require.NoError(t, s.Checkout("u1", func(*Cart) error { return nil }))
}
