package flow

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
	"github.com/jcmexdev/seafood-miniapp/internal/storage"
)

var (
	// ErrInvalidCheckout rejects a submission while the delivery form is
	// incomplete. No network call is made.
	ErrInvalidCheckout = errors.New("flow: checkout form incomplete")
	// ErrSubmitInFlight rejects a submission while another is running. The
	// first one proceeds untouched.
	ErrSubmitInFlight = errors.New("flow: order submission already in flight")
)

// ConfirmedOrderKey is the blob-store key of the one-shot confirmation flag.
const ConfirmedOrderKey = "seafood_store_order_confirmed"

type confirmedOrder struct {
	OrderID string `json:"order_id"`
}

// Submit places the order. At most one submission runs at a time and at most
// one CreateOrder call is made per invocation; there is no automatic retry.
// On success the cart is cleared, the confirmation flag persisted and the
// session returns to categories after the configured delay. On failure the
// cart, form and screen stay exactly as they were.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	valid := c.form.Valid()
	c.mu.Unlock()
	if !valid {
		return ErrInvalidCheckout
	}

	if !c.submitting.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer func() {
		c.submitting.Store(false)
		c.refreshHostUI()
	}()
	c.refreshHostUI() // confirm button goes disabled while in flight

	draft := c.buildDraft()

	callCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	confirmation, err := c.api.CreateOrder(callCtx, draft)
	if err != nil {
		c.runtime.Haptic(host.HapticError)
		c.runtime.ShowAlert(backend.UserMessage(err, "Failed to place the order. Please try again."))
		return err
	}

	c.runtime.Haptic(host.HapticSuccess)
	c.log.Info("order placed", "order_id", confirmation.OrderID, "total", draft.Total.String())

	c.cart.Clear(ctx)
	if err := storage.SetJSON(ctx, c.store, ConfirmedOrderKey, confirmedOrder{OrderID: confirmation.OrderID}); err != nil {
		c.log.Error("persist confirmation flag", "error", err)
	}
	if payload, err := json.Marshal(map[string]string{
		"type":     "order_created",
		"order_id": confirmation.OrderID,
	}); err == nil {
		if err := c.runtime.SendData(payload); err != nil {
			c.log.Debug("order echo not delivered", "error", err)
		}
	}

	c.mu.Lock()
	c.promo = PromoState{}
	c.form = CheckoutForm{}
	c.mu.Unlock()

	c.schedule(c.navigateDelay, func() {
		c.returnHome(context.Background())
	})
	return nil
}

// buildDraft assembles the order payload. It exists only here: drafts are
// never stored or reused between attempts.
func (c *Controller) buildDraft() backend.OrderDraft {
	items := c.cart.Items()
	orderItems := make([]backend.OrderItem, len(items))
	for i, it := range items {
		orderItems[i] = backend.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			PackageID:    it.PackageID,
			PackageName:  it.PackageName,
			Weight:       it.Weight,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
			TotalPrice:   it.TotalPrice,
			ImageURL:     it.ImageURL,
		}
	}
	total := c.PayableTotal()

	c.mu.Lock()
	form := c.form
	promoCode := c.promo.Code
	c.mu.Unlock()

	draft := backend.OrderDraft{
		Items: orderItems,
		Delivery: backend.Delivery{
			District: form.DistrictID,
			TimeSlot: form.TimeSlot,
			Comment:  form.Comment,
		},
		PromoCode: promoCode,
		Total:     total,
	}
	if id, ok := c.runtime.Identity(); ok {
		draft.UserID = id.UserID
		draft.UserName = id.Name
		draft.InitData = id.InitData
	}
	return draft
}

// ConsumeConfirmedOrder reads and clears the confirmation flag. The first
// call after a successful order returns its id; every later call reports
// nothing, so the confirmation screen cannot reappear on reload.
func (c *Controller) ConsumeConfirmedOrder(ctx context.Context) (string, bool) {
	var rec confirmedOrder
	ok, err := storage.GetJSON(ctx, c.store, ConfirmedOrderKey, &rec)
	if err != nil {
		c.log.Error("read confirmation flag", "error", err)
		return "", false
	}
	if !ok || rec.OrderID == "" {
		return "", false
	}
	if err := c.store.Remove(ctx, ConfirmedOrderKey); err != nil {
		c.log.Error("clear confirmation flag", "error", err)
	}
	return rec.OrderID, true
}
