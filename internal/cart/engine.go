// Package cart implements the shopping cart engine: an ordered collection of
// line items keyed by (product, package), with clamped quantities, derived
// totals, synchronous change notifications and write-through persistence.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
	"github.com/jcmexdev/seafood-miniapp/internal/storage"
)

// Quantity bounds enforced on every mutation. Out-of-range input clamps,
// it is never rejected.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// StorageKey is the fixed blob-store key the snapshot persists under. The
// JSON shape matches what the web storefront historically wrote, so carts
// survive a client swap.
const StorageKey = "seafood_store_cart"

// LineItem is one distinct (product, package) selection. TotalPrice is
// always Quantity × PricePerUnit; it is recomputed on every mutation and
// never stored independently of that relation.
type LineItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	PackageID    string          `json:"package_id"`
	PackageName  string          `json:"package_name,omitempty"`
	Weight       float64         `json:"weight"`
	Unit         string          `json:"unit"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// Listener observes the cart after each mutation. Delivery is synchronous,
// in registration order; the slice passed in is a defensive copy.
type Listener func(items []LineItem)

// Engine is the cart. All mutation goes through its methods; callers never
// touch the item slice directly.
type Engine struct {
	mu        sync.Mutex
	items     []LineItem
	listeners []Listener

	store   storage.Store
	runtime host.Runtime
	log     *slog.Logger
}

// NewEngine builds the engine and loads any persisted snapshot. A missing or
// corrupt snapshot yields an empty cart, never an error.
func NewEngine(ctx context.Context, store storage.Store, runtime host.Runtime, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{store: store, runtime: runtime, log: log}

	var items []LineItem
	ok, err := storage.GetJSON(ctx, store, StorageKey, &items)
	if err != nil {
		log.Error("cart: load snapshot", "error", err)
	}
	if ok {
		e.items = items
	}
	return e
}

// Subscribe registers a listener and returns an unsubscribe func.
func (e *Engine) Subscribe(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
	idx := len(e.listeners) - 1
	removed := false
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if removed {
			return
		}
		removed = true
		e.listeners[idx] = nil
	}
}

// AddItem adds quantity units of the selected package to the cart, merging
// with an existing line for the same (product, package). The unit price
// comes from the package, or is derived from pricePerKg × weight for legacy
// packages without one.
func (e *Engine) AddItem(ctx context.Context, product backend.Product, pkg backend.Package, quantity int) {
	unitPrice := UnitPrice(product, pkg)

	e.mu.Lock()
	if i := e.indexOf(product.ID, pkg.ID); i >= 0 {
		e.items[i].Quantity = clamp(e.items[i].Quantity + quantity)
		e.items[i].TotalPrice = lineTotal(e.items[i].Quantity, e.items[i].PricePerUnit)
	} else {
		q := clamp(quantity)
		e.items = append(e.items, LineItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			PackageID:    pkg.ID,
			PackageName:  PackageLabel(pkg),
			Weight:       pkg.Weight,
			Unit:         pkg.Unit,
			Quantity:     q,
			PricePerUnit: unitPrice,
			TotalPrice:   lineTotal(q, unitPrice),
			ImageURL:     firstNonEmpty(pkg.ImageURL, product.ImageURL),
		})
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	e.notify(snapshot)
	e.runtime.Haptic(host.HapticLight)
}

// RemoveItem deletes the matching line if present.
func (e *Engine) RemoveItem(ctx context.Context, productID, packageID string) {
	e.mu.Lock()
	i := e.indexOf(productID, packageID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	e.notify(snapshot)
	e.runtime.Haptic(host.HapticLight)
}

// SetQuantity sets the line's quantity; zero or negative removes the line,
// anything else clamps to the allowed range.
func (e *Engine) SetQuantity(ctx context.Context, productID, packageID string, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(ctx, productID, packageID)
		return
	}

	e.mu.Lock()
	i := e.indexOf(productID, packageID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.items[i].Quantity = clamp(quantity)
	e.items[i].TotalPrice = lineTotal(e.items[i].Quantity, e.items[i].PricePerUnit)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot)
	e.notify(snapshot)
}

// Clear empties the cart and removes the persisted blob.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	e.items = nil
	e.mu.Unlock()

	if err := e.store.Remove(ctx, StorageKey); err != nil {
		e.log.Error("cart: clear storage", "error", err)
	}
	e.notify(nil)
}

// Items returns a defensive copy of the snapshot, in insertion order.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ItemCount is the summed quantity across all lines, not the line count.
// It feeds the cart badge and the main-button label.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, it := range e.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice is the sum of line totals.
func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, it := range e.items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items) == 0
}

// Find returns the line for (productID, packageID), if any.
func (e *Engine) Find(productID, packageID string) (LineItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(productID, packageID); i >= 0 {
		return e.items[i], true
	}
	return LineItem{}, false
}

func (e *Engine) indexOf(productID, packageID string) int {
	for i, it := range e.items {
		if it.ProductID == productID && it.PackageID == packageID {
			return i
		}
	}
	return -1
}

func (e *Engine) snapshotLocked() []LineItem {
	out := make([]LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// persist writes through to storage. Failures are logged and swallowed: the
// in-memory cart stays authoritative and the UI is never blocked on a
// storage fault.
func (e *Engine) persist(ctx context.Context, snapshot []LineItem) {
	if err := storage.SetJSON(ctx, e.store, StorageKey, snapshot); err != nil {
		e.log.Error("cart: persist snapshot", "error", err)
	}
}

func (e *Engine) notify(snapshot []LineItem) {
	e.mu.Lock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		if fn != nil {
			fn(snapshot)
		}
	}
}

// PackageLabel is the display name for a package: its own name, or a
// "weight unit" fallback for legacy descriptors without one.
func PackageLabel(pkg backend.Package) string {
	if pkg.Name != "" {
		return pkg.Name
	}
	return fmt.Sprintf("%g %s", pkg.Weight, pkg.Unit)
}

// UnitPrice resolves a package's unit price: the package's own price, or the
// legacy derivation pricePerKg × weight when the package has none.
func UnitPrice(product backend.Product, pkg backend.Package) decimal.Decimal {
	if pkg.Price != nil {
		return *pkg.Price
	}
	return product.PricePerKg.Mul(decimal.NewFromFloat(pkg.Weight))
}

func lineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func clamp(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
