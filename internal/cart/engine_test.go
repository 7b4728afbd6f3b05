package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
	"github.com/jcmexdev/seafood-miniapp/internal/storage"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testProduct() backend.Product {
	return backend.Product{
		ID:         "p1",
		Name:       "King Salmon",
		PricePerKg: dec("800"),
		Available:  true,
	}
}

func testPackage() backend.Package {
	return backend.Package{
		ID:        "pkg1",
		ProductID: "p1",
		Name:      "Whole fillet",
		Weight:    1,
		Unit:      "kg",
		Price:     decPtr("750"),
		Available: true,
	}
}

func newTestEngine(t *testing.T) (*Engine, *storage.Memory, *host.Mock) {
	t.Helper()
	store := storage.NewMemory()
	mock := host.NewMock(nil)
	return NewEngine(context.Background(), store, mock, nil), store, mock
}

func TestAddItemMergesByProductAndPackage(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 2)
	e.AddItem(ctx, testProduct(), testPackage(), 3)

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, items[0].TotalPrice.Equal(dec("3750")))
	assert.Equal(t, 5, e.ItemCount())
}

func TestAddItemDistinctPackagesStaySeparate(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	other := testPackage()
	other.ID = "pkg2"
	other.Weight = 0.5
	other.Price = decPtr("400")

	e.AddItem(ctx, testProduct(), testPackage(), 1)
	e.AddItem(ctx, testProduct(), other, 1)

	require.Len(t, e.Items(), 2)
	assert.Equal(t, 2, e.ItemCount())
	assert.True(t, e.TotalPrice().Equal(dec("1150")))
}

func TestAddItemLegacyPriceDerivation(t *testing.T) {
	e, _, _ := newTestEngine(t)

	legacy := backend.Package{ID: "half", Weight: 0.5, Unit: "kg", Available: true}
	e.AddItem(context.Background(), testProduct(), legacy, 1)

	item, ok := e.Find("p1", "half")
	require.True(t, ok)
	assert.True(t, item.PricePerUnit.Equal(dec("400")), "0.5 kg of an 800/kg product")
	assert.Equal(t, "0.5 kg", item.PackageName)
}

func TestQuantityClamping(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 25)
	item, ok := e.Find("p1", "pkg1")
	require.True(t, ok)
	assert.Equal(t, MaxQuantity, item.Quantity)
	assert.True(t, item.TotalPrice.Equal(dec("7500")))

	e.AddItem(ctx, testProduct(), testPackage(), 5)
	item, _ = e.Find("p1", "pkg1")
	assert.Equal(t, MaxQuantity, item.Quantity, "merging past the cap stays at the cap")

	e.SetQuantity(ctx, "p1", "pkg1", 99)
	item, _ = e.Find("p1", "pkg1")
	assert.Equal(t, MaxQuantity, item.Quantity)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 2)
	e.SetQuantity(ctx, "p1", "pkg1", 0)

	assert.True(t, e.IsEmpty())
	_, ok := e.Find("p1", "pkg1")
	assert.False(t, ok)
}

func TestRemoveItemUnknownKeyIsNoop(t *testing.T) {
	e, _, mock := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 1)
	before := len(mock.Haptics)

	e.RemoveItem(ctx, "p1", "nope")
	assert.Equal(t, 1, e.ItemCount())
	assert.Len(t, mock.Haptics, before, "no haptic for a removal that changed nothing")
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()

	first := NewEngine(ctx, store, host.NewMock(nil), nil)
	first.AddItem(ctx, testProduct(), testPackage(), 3)

	second := NewEngine(ctx, store, host.NewMock(nil), nil)
	require.Len(t, second.Items(), 1)
	assert.Equal(t, 3, second.ItemCount())
	assert.True(t, second.TotalPrice().Equal(dec("2250")))
}

func TestCorruptSnapshotYieldsEmptyCart(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, StorageKey, []byte("{not json")))

	e := NewEngine(ctx, store, host.NewMock(nil), nil)
	assert.True(t, e.IsEmpty())
}

func TestClearRemovesPersistedSnapshot(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 1)
	e.Clear(ctx)

	assert.True(t, e.IsEmpty())
	_, err := store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListenersRunInOrderAndUnsubscribe(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	var order []string
	e.Subscribe(func([]LineItem) { order = append(order, "first") })
	unsub := e.Subscribe(func([]LineItem) { order = append(order, "second") })

	e.AddItem(ctx, testProduct(), testPackage(), 1)
	require.Equal(t, []string{"first", "second"}, order)

	unsub()
	unsub() // second call is a no-op
	order = nil
	e.AddItem(ctx, testProduct(), testPackage(), 1)
	assert.Equal(t, []string{"first"}, order)
}

func TestAddAndRemoveEmitHaptics(t *testing.T) {
	e, _, mock := newTestEngine(t)
	ctx := context.Background()

	e.AddItem(ctx, testProduct(), testPackage(), 1)
	e.RemoveItem(ctx, "p1", "pkg1")

	assert.Equal(t, []host.HapticKind{host.HapticLight, host.HapticLight}, mock.Haptics)
}
