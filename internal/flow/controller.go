package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/cart"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
	"github.com/jcmexdev/seafood-miniapp/internal/storage"
)

// Backend is the slice of the REST client the flow consumes.
type Backend interface {
	Categories(ctx context.Context) ([]backend.Category, error)
	CategoryProducts(ctx context.Context, categoryID string) ([]backend.Product, error)
	Product(ctx context.Context, productID string) (backend.Product, error)
	ProductPackages(ctx context.Context, productID string) ([]backend.Package, error)
	Districts(ctx context.Context) ([]backend.District, error)
	ValidatePromo(ctx context.Context, code string) (backend.PromoResult, error)
	CreateOrder(ctx context.Context, draft backend.OrderDraft) (backend.OrderConfirmation, error)
}

// Detail is the product-detail screen state: the product, its purchasable
// packages and the current selection.
type Detail struct {
	Product    backend.Product
	Packages   []backend.Package
	SelectedID string
	Quantity   int
	// NoPackaging marks a product with neither relational nor embedded
	// packages; add-to-cart stays disabled.
	NoPackaging bool
}

// PromoState is the applied promo code, if any. Message carries the inline
// error shown when validation rejected the last attempt.
type PromoState struct {
	Code     string
	Discount decimal.Decimal
	Message  string
}

// CheckoutForm holds the delivery details the shopper fills in.
type CheckoutForm struct {
	DistrictID string
	TimeSlot   string
	Comment    string
}

// Valid reports whether the form can be submitted: district and time slot
// are required, the comment is not.
func (f CheckoutForm) Valid() bool {
	return f.DistrictID != "" && f.TimeSlot != ""
}

// Options tunes controller timing. Zero values pick the defaults.
type Options struct {
	// NavigateDelay is the pause between a confirmed order and the return to
	// the categories screen.
	NavigateDelay time.Duration
	// SubmitTimeout bounds the order-creation round trip.
	SubmitTimeout time.Duration
}

const (
	defaultNavigateDelay = time.Second
	defaultSubmitTimeout = 30 * time.Second
)

// popupGotoCart is the button id of the add-to-cart popup action that jumps
// straight to the cart screen.
const popupGotoCart = "goto_cart"

// Controller is the storefront session state machine. One instance per
// shopper session; all exported methods are safe for concurrent use.
type Controller struct {
	api     Backend
	cart    *cart.Engine
	runtime host.Runtime
	store   storage.Store
	log     *slog.Logger

	navigateDelay time.Duration
	submitTimeout time.Duration
	schedule      func(time.Duration, func())

	submitting atomic.Bool

	mu        sync.Mutex
	current   Screen
	stack     []Screen
	listeners []func(Screen)

	categories       []backend.Category
	activeCategoryID string
	products         []backend.Product
	districts        []backend.District
	detail           *Detail
	promo            PromoState
	form             CheckoutForm
}

// NewController wires the flow over its collaborators. Call Start before any
// navigation.
func NewController(api Backend, engine *cart.Engine, runtime host.Runtime, store storage.Store, log *slog.Logger, opts Options) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if opts.NavigateDelay == 0 {
		opts.NavigateDelay = defaultNavigateDelay
	}
	if opts.SubmitTimeout == 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	return &Controller{
		api:           api,
		cart:          engine,
		runtime:       runtime,
		store:         store,
		log:           log,
		navigateDelay: opts.NavigateDelay,
		submitTimeout: opts.SubmitTimeout,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
		current: ScreenLoading,
	}
}

// Start performs the host handshake, registers the button and popup
// callbacks, subscribes to cart changes and lands on the categories screen.
func (c *Controller) Start(ctx context.Context) error {
	c.runtime.Ready()
	c.runtime.Expand()
	c.runtime.EnableClosingConfirmation()

	c.runtime.OnMainButton(c.handleMainButton)
	c.runtime.OnBackButton(c.handleBackButton)
	c.runtime.OnPopupClosed(c.handlePopupClosed)
	c.cart.Subscribe(c.onCartChanged)

	return c.ShowCategories(ctx)
}

// OnScreenChange registers a listener notified synchronously, in registration
// order, after every screen transition.
func (c *Controller) OnScreenChange(fn func(Screen)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Current reports the active screen.
func (c *Controller) Current() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ── Navigation ─────────────────────────────────────────────────────────────

// navigate runs the screen's data-loading hook, pushes the outgoing screen
// onto the back stack and activates the new one. A failed load aborts the
// transition: the shopper stays where they are and sees an alert.
func (c *Controller) navigate(ctx context.Context, to Screen, load func(context.Context) error) error {
	if load != nil {
		if err := load(ctx); err != nil {
			c.log.Error("screen load failed", "screen", string(to), "error", err)
			c.runtime.ShowAlert(backend.UserMessage(err, "Failed to load data. Please try again."))
			return err
		}
	}

	c.mu.Lock()
	if c.current != ScreenLoading && c.current != to {
		c.stack = append(c.stack, c.current)
	}
	c.current = to
	c.mu.Unlock()

	c.refreshHostUI()
	c.notifyScreen(to)
	return nil
}

// Back pops the previous screen off the stack; an empty stack lands on
// categories. Already-loaded state is reused, nothing refetches.
func (c *Controller) Back() {
	c.mu.Lock()
	var to Screen
	if n := len(c.stack); n > 0 {
		to = c.stack[n-1]
		c.stack = c.stack[:n-1]
	} else {
		to = ScreenCategories
	}
	c.current = to
	c.mu.Unlock()

	c.refreshHostUI()
	c.notifyScreen(to)
}

func (c *Controller) ShowCategories(ctx context.Context) error {
	return c.navigate(ctx, ScreenCategories, c.loadCategories)
}

// OpenCategory shows the product list for one category.
func (c *Controller) OpenCategory(ctx context.Context, categoryID string) error {
	return c.navigate(ctx, ScreenProductList, func(ctx context.Context) error {
		products, err := c.api.CategoryProducts(ctx, categoryID)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.activeCategoryID = categoryID
		c.products = products
		c.mu.Unlock()
		return nil
	})
}

// OpenProduct shows the detail screen, resolving the purchasable packages:
// the relational list first, the product's embedded legacy descriptors as a
// fallback, and a disabled no-packaging state when both are empty.
func (c *Controller) OpenProduct(ctx context.Context, productID string) error {
	return c.navigate(ctx, ScreenProductDetail, func(ctx context.Context) error {
		product, err := c.api.Product(ctx, productID)
		if err != nil {
			return err
		}
		packages, err := c.api.ProductPackages(ctx, productID)
		if err != nil {
			// Legacy products predate the packages endpoint; fall through to
			// the embedded descriptors rather than failing the screen.
			c.log.Warn("package fetch failed, trying embedded", "product_id", productID, "error", err)
			packages = nil
		}
		if len(packages) == 0 {
			packages = product.Packages
		}
		sort.SliceStable(packages, func(i, j int) bool {
			return packages[i].SortOrder < packages[j].SortOrder
		})

		d := &Detail{
			Product:     product,
			Packages:    packages,
			Quantity:    cart.MinQuantity,
			NoPackaging: len(packages) == 0,
		}
		for _, p := range packages {
			if p.Available {
				d.SelectedID = p.ID
				break
			}
		}

		c.mu.Lock()
		c.detail = d
		c.mu.Unlock()
		return nil
	})
}

func (c *Controller) OpenCart(ctx context.Context) error {
	return c.navigate(ctx, ScreenCart, nil)
}

// OpenCheckout shows the delivery form, loading the district options.
func (c *Controller) OpenCheckout(ctx context.Context) error {
	return c.navigate(ctx, ScreenCheckoutForm, func(ctx context.Context) error {
		districts, err := c.api.Districts(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.districts = districts
		c.mu.Unlock()
		return nil
	})
}

// OpenReview shows the final order summary. The form must be complete.
func (c *Controller) OpenReview(ctx context.Context) error {
	c.mu.Lock()
	valid := c.form.Valid()
	c.mu.Unlock()
	if !valid {
		return ErrInvalidCheckout
	}
	return c.navigate(ctx, ScreenOrderReview, nil)
}

// returnHome drops the whole back stack and lands on categories, reusing the
// loaded category list when the refetch fails.
func (c *Controller) returnHome(ctx context.Context) {
	if err := c.loadCategories(ctx); err != nil {
		c.log.Warn("category refresh failed on return home", "error", err)
	}
	c.mu.Lock()
	c.stack = nil
	c.current = ScreenCategories
	c.mu.Unlock()

	c.refreshHostUI()
	c.notifyScreen(ScreenCategories)
}

func (c *Controller) loadCategories(ctx context.Context) error {
	categories, err := c.api.Categories(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.categories = categories
	c.mu.Unlock()
	return nil
}

func (c *Controller) notifyScreen(s Screen) {
	c.mu.Lock()
	listeners := make([]func(Screen), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// ── Host button wiring ─────────────────────────────────────────────────────

// refreshHostUI mirrors the active screen onto the native buttons: back is
// hidden on the root screens, the main button carries the next checkout step.
func (c *Controller) refreshHostUI() {
	c.mu.Lock()
	cur := c.current
	valid := c.form.Valid()
	c.mu.Unlock()

	switch cur {
	case ScreenLoading, ScreenCategories:
		c.runtime.HideBackButton()
	default:
		c.runtime.ShowBackButton()
	}

	switch cur {
	case ScreenCart:
		if c.cart.IsEmpty() {
			c.runtime.HideMainButton()
		} else {
			c.runtime.ShowMainButton(fmt.Sprintf("Checkout (%s)", c.cart.TotalPrice()), true)
		}
	case ScreenCheckoutForm:
		c.runtime.ShowMainButton(fmt.Sprintf("Place order (%s)", c.PayableTotal()), valid)
	case ScreenOrderReview:
		c.runtime.ShowMainButton("Confirm order", !c.submitting.Load())
	default:
		c.runtime.HideMainButton()
	}
}

func (c *Controller) handleMainButton() {
	ctx := context.Background()
	switch c.Current() {
	case ScreenCart:
		_ = c.OpenCheckout(ctx)
	case ScreenCheckoutForm:
		if err := c.OpenReview(ctx); err != nil {
			c.runtime.Haptic(host.HapticWarning)
		}
	case ScreenOrderReview:
		if err := c.Submit(ctx); err != nil {
			c.log.Warn("order submission failed", "error", err)
		}
	}
}

func (c *Controller) handleBackButton() {
	switch c.Current() {
	case ScreenLoading, ScreenCategories:
		// back button is hidden here; a stray event is ignored
	default:
		c.Back()
	}
}

func (c *Controller) handlePopupClosed(buttonID string) {
	if buttonID == popupGotoCart {
		_ = c.OpenCart(context.Background())
	}
}

// onCartChanged keeps the host buttons and promo state in step with the
// cart. An emptied cart drops any applied promo.
func (c *Controller) onCartChanged(items []cart.LineItem) {
	if len(items) == 0 {
		c.mu.Lock()
		c.promo = PromoState{}
		c.mu.Unlock()
	}
	c.refreshHostUI()
}

// ── Product detail ─────────────────────────────────────────────────────────

// Detail returns a copy of the detail screen state.
func (c *Controller) Detail() (Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return Detail{}, false
	}
	return *c.detail, true
}

// SelectPackage switches the selected package on the detail screen. Unknown
// and unavailable ids are ignored.
func (c *Controller) SelectPackage(packageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return
	}
	for _, p := range c.detail.Packages {
		if p.ID == packageID && p.Available {
			c.detail.SelectedID = packageID
			return
		}
	}
}

// SetDetailQuantity sets the pending quantity on the detail screen, clamped
// to the allowed range.
func (c *Controller) SetDetailQuantity(q int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return
	}
	if q < cart.MinQuantity {
		q = cart.MinQuantity
	}
	if q > cart.MaxQuantity {
		q = cart.MaxQuantity
	}
	c.detail.Quantity = q
}

// SelectedUnitPrice resolves the unit price of the current selection.
func (c *Controller) SelectedUnitPrice() (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.detail
	if d == nil || d.SelectedID == "" {
		return decimal.Zero, false
	}
	for _, p := range d.Packages {
		if p.ID == d.SelectedID {
			return cart.UnitPrice(d.Product, p), true
		}
	}
	return decimal.Zero, false
}

// CanAddToCart reports whether the detail screen has an addable selection.
func (c *Controller) CanAddToCart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detail != nil && !c.detail.NoPackaging && c.detail.SelectedID != ""
}

// AddSelectedToCart puts the current selection into the cart and offers a
// jump to the cart screen via popup.
func (c *Controller) AddSelectedToCart(ctx context.Context) {
	c.mu.Lock()
	d := c.detail
	if d == nil || d.NoPackaging || d.SelectedID == "" {
		c.mu.Unlock()
		return
	}
	product := d.Product
	quantity := d.Quantity
	var pkg backend.Package
	found := false
	for _, p := range d.Packages {
		if p.ID == d.SelectedID {
			pkg = p
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return
	}

	c.cart.AddItem(ctx, product, pkg, quantity)
	c.runtime.ShowPopup(
		"Added to cart",
		fmt.Sprintf("%s (%s) is in your cart", product.Name, cart.PackageLabel(pkg)),
		[]host.PopupButton{
			{ID: popupGotoCart, Type: "default", Text: "Go to cart"},
			{Type: "close"},
		},
	)
}

// ── Promo ──────────────────────────────────────────────────────────────────

// ApplyPromo validates the code against the backend. A rejected code or a
// transport failure clears the promo state and records an inline message;
// only transport failures surface as an error.
func (c *Controller) ApplyPromo(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		c.ClearPromo()
		return nil
	}

	result, err := c.api.ValidatePromo(ctx, code)
	if err != nil {
		c.setPromo(PromoState{Message: backend.UserMessage(err, "Could not check the promo code")})
		return err
	}
	if !result.Valid {
		msg := result.Message
		if msg == "" {
			msg = "Invalid promo code"
		}
		c.setPromo(PromoState{Message: msg})
		return nil
	}

	var discount decimal.Decimal
	if result.DiscountAmount != nil {
		discount = *result.DiscountAmount
	} else {
		pct := decimal.NewFromFloat(result.DiscountPercent)
		discount = c.cart.TotalPrice().Mul(pct).Div(decimal.NewFromInt(100))
	}
	c.setPromo(PromoState{Code: code, Discount: discount})
	return nil
}

func (c *Controller) ClearPromo() {
	c.setPromo(PromoState{})
}

func (c *Controller) setPromo(p PromoState) {
	c.mu.Lock()
	c.promo = p
	c.mu.Unlock()
	c.refreshHostUI()
}

func (c *Controller) Promo() PromoState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promo
}

// PayableTotal is the cart total less the promo discount, floored at zero.
func (c *Controller) PayableTotal() decimal.Decimal {
	total := c.cart.TotalPrice()
	c.mu.Lock()
	discount := c.promo.Discount
	c.mu.Unlock()

	payable := total.Sub(discount)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}

// ── Checkout form ──────────────────────────────────────────────────────────

func (c *Controller) SetDistrict(districtID string) {
	c.mu.Lock()
	c.form.DistrictID = districtID
	c.mu.Unlock()
	c.refreshHostUI()
}

func (c *Controller) SetTimeSlot(slotID string) {
	c.mu.Lock()
	c.form.TimeSlot = slotID
	c.mu.Unlock()
	c.refreshHostUI()
}

func (c *Controller) SetComment(comment string) {
	c.mu.Lock()
	c.form.Comment = comment
	c.mu.Unlock()
}

func (c *Controller) Form() CheckoutForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// ── State accessors ────────────────────────────────────────────────────────

func (c *Controller) Categories() []backend.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]backend.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Controller) Products() []backend.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]backend.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Controller) Districts() []backend.District {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]backend.District, len(c.districts))
	copy(out, c.districts)
	return out
}
