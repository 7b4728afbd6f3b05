package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
)

// readyToSubmit walks the fixture to the review screen with one 1000-priced
// item and a complete delivery form.
func readyToSubmit(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	f.addCartItem(t, "1000")
	require.NoError(t, f.ctrl.OpenCart(ctx))
	require.NoError(t, f.ctrl.OpenCheckout(ctx))
	f.ctrl.SetDistrict("center")
	f.ctrl.SetTimeSlot("evening")
	f.ctrl.SetComment("ring twice")
	require.NoError(t, f.ctrl.OpenReview(ctx))
}

func TestSubmitRejectsIncompleteForm(t *testing.T) {
	calls := 0
	f := newFixture(t, &fakeBackend{
		createOrderFn: func(context.Context, backend.OrderDraft) (backend.OrderConfirmation, error) {
			calls++
			return backend.OrderConfirmation{}, nil
		},
	})
	f.addCartItem(t, "1000")

	err := f.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCheckout)
	assert.Zero(t, calls, "no network call for an invalid form")
}

func TestSubmitReviewRequiresCompleteForm(t *testing.T) {
	f := newFixture(t, nil)
	err := f.ctrl.OpenReview(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCheckout)
}

func TestSubmitSendsDraftWithIdentityAndPromo(t *testing.T) {
	var got backend.OrderDraft
	f := newFixture(t, &fakeBackend{
		validatePromoFn: func(context.Context, string) (backend.PromoResult, error) {
			return backend.PromoResult{Valid: true, DiscountPercent: 10}, nil
		},
		createOrderFn: func(_ context.Context, draft backend.OrderDraft) (backend.OrderConfirmation, error) {
			got = draft
			return backend.OrderConfirmation{OrderID: "ord-42", Status: "created"}, nil
		},
	})
	f.mock.ScriptedIdentity = &host.Identity{UserID: 7, Name: "Ada", InitData: "signed-blob"}
	readyToSubmit(t, f)
	require.NoError(t, f.ctrl.ApplyPromo(context.Background(), "SEA10"))

	require.NoError(t, f.ctrl.Submit(context.Background()))

	require.Len(t, got.Items, 1)
	assert.Equal(t, "Salmon", got.Items[0].ProductName)
	assert.Equal(t, "center", got.Delivery.District)
	assert.Equal(t, "evening", got.Delivery.TimeSlot)
	assert.Equal(t, "ring twice", got.Delivery.Comment)
	assert.Equal(t, "SEA10", got.PromoCode)
	assert.True(t, got.Total.Equal(dec("900")), "subtotal 1000 less 10%")
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "Ada", got.UserName)
	assert.Equal(t, "signed-blob", got.InitData)
}

func TestSubmitSuccessClearsSessionState(t *testing.T) {
	f := newFixture(t, nil)
	readyToSubmit(t, f)

	require.NoError(t, f.ctrl.Submit(context.Background()))

	assert.True(t, f.cart.IsEmpty())
	assert.Empty(t, f.ctrl.Promo().Code)
	assert.Empty(t, f.ctrl.Form().DistrictID)
	assert.Equal(t, ScreenCategories, f.ctrl.Current(), "navigates home after the delay")
	assert.Contains(t, f.mock.Haptics, host.HapticSuccess)
	require.Len(t, f.mock.Sent, 1)
	assert.Contains(t, string(f.mock.Sent[0]), "order-1")

	id, ok := f.ctrl.ConsumeConfirmedOrder(context.Background())
	require.True(t, ok)
	assert.Equal(t, "order-1", id)

	_, ok = f.ctrl.ConsumeConfirmedOrder(context.Background())
	assert.False(t, ok, "confirmation flag is one-shot")
}

func TestSubmitFailureLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t, &fakeBackend{
		createOrderFn: func(context.Context, backend.OrderDraft) (backend.OrderConfirmation, error) {
			return backend.OrderConfirmation{}, &backend.HTTPError{Status: 422, Detail: "district is closed today"}
		},
	})
	readyToSubmit(t, f)

	err := f.ctrl.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, f.cart.ItemCount(), "cart untouched")
	assert.Equal(t, ScreenOrderReview, f.ctrl.Current(), "screen untouched")
	assert.Equal(t, "center", f.ctrl.Form().DistrictID)
	assert.Contains(t, f.mock.Haptics, host.HapticError)
	require.NotEmpty(t, f.mock.Alerts)
	assert.Equal(t, "district is closed today", f.mock.Alerts[len(f.mock.Alerts)-1])

	_, ok := f.ctrl.ConsumeConfirmedOrder(context.Background())
	assert.False(t, ok)
}

func TestSubmitGuardAllowsExactlyOneCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	f := newFixture(t, &fakeBackend{
		createOrderFn: func(context.Context, backend.OrderDraft) (backend.OrderConfirmation, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			close(started)
			<-release
			return backend.OrderConfirmation{OrderID: "only-one"}, nil
		},
	})
	readyToSubmit(t, f)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Submit(context.Background()) }()
	<-started

	err := f.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.False(t, f.mock.MainEnabled, "confirm button disabled while in flight")

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSubmitGuardReleasedAfterFailure(t *testing.T) {
	fail := true
	f := newFixture(t, &fakeBackend{
		createOrderFn: func(context.Context, backend.OrderDraft) (backend.OrderConfirmation, error) {
			if fail {
				return backend.OrderConfirmation{}, &backend.NetworkError{URL: "x", Err: context.DeadlineExceeded}
			}
			return backend.OrderConfirmation{OrderID: "second-try"}, nil
		},
	})
	readyToSubmit(t, f)

	require.Error(t, f.ctrl.Submit(context.Background()))

	fail = false
	require.NoError(t, f.ctrl.Submit(context.Background()), "manual retry works, nothing retries on its own")
}

func TestSubmitDeadlineTreatedAsNetworkFailure(t *testing.T) {
	f := newFixture(t, &fakeBackend{
		createOrderFn: func(ctx context.Context, _ backend.OrderDraft) (backend.OrderConfirmation, error) {
			<-ctx.Done()
			return backend.OrderConfirmation{}, &backend.NetworkError{URL: "x", Err: ctx.Err()}
		},
	})
	f.ctrl.submitTimeout = 10 * time.Millisecond
	readyToSubmit(t, f)

	err := f.ctrl.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.cart.ItemCount())
	assert.NotEmpty(t, f.mock.Alerts)
}
