// Package flow drives the storefront session: screen navigation with a LIFO
// back stack, product detail and package selection, promo codes, the checkout
// form and the order submission state machine. It owns no transport and no
// persistence of its own; it orchestrates the backend client, the cart engine,
// the blob store and the host runtime.
package flow

// Screen identifies one storefront view.
type Screen string

const (
	ScreenLoading       Screen = "loading"
	ScreenCategories    Screen = "categories"
	ScreenProductList   Screen = "product-list"
	ScreenProductDetail Screen = "product-detail"
	ScreenCart          Screen = "cart"
	ScreenCheckoutForm  Screen = "checkout-form"
	ScreenOrderReview   Screen = "order-review"
)
