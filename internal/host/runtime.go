// Package host abstracts the Mini-App host runtime (the Telegram WebApp
// container) behind a capability port. Core logic never asks whether the
// host is real — it calls the port, and every implementation guarantees the
// call is safe: missing capabilities degrade to no-ops or fallbacks instead
// of failing.
package host

// HapticKind selects the feedback pulse variant.
type HapticKind string

const (
	HapticLight   HapticKind = "light"
	HapticMedium  HapticKind = "medium"
	HapticHeavy   HapticKind = "heavy"
	HapticSuccess HapticKind = "success"
	HapticWarning HapticKind = "warning"
	HapticError   HapticKind = "error"
)

// Identity is the session identity the host hands to the app. InitData is
// the raw signed payload and doubles as the API auth token.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	InitData string `json:"init_data"`
}

// PopupButton describes one button of a native popup.
type PopupButton struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Runtime is the capability port consumed by the cart engine and the
// checkout flow. Every method must be safe to call when the underlying host
// is absent or too old for the capability.
type Runtime interface {
	// Ready signals the host that the app finished loading.
	Ready()
	// Expand requests the full-height viewport.
	Expand()
	// EnableClosingConfirmation asks the host to confirm before closing.
	EnableClosingConfirmation()

	// ThemeParams returns the host theme variables (may be empty).
	ThemeParams() map[string]string

	ShowMainButton(label string, enabled bool)
	HideMainButton()
	ShowBackButton()
	HideBackButton()

	// OnMainButton registers the primary-action callback, replacing any
	// previous one. Delivery is synchronous with the triggering event.
	OnMainButton(fn func())
	OnBackButton(fn func())
	// OnPopupClosed receives the id of the button that dismissed a popup.
	OnPopupClosed(fn func(buttonID string))

	Haptic(kind HapticKind)

	// ShowPopup presents a native dialog; the outcome arrives via
	// OnPopupClosed. ShowAlert presents a plain message.
	ShowPopup(title, message string, buttons []PopupButton)
	ShowAlert(message string)

	// Identity reports the session identity, if the host provided one.
	Identity() (Identity, bool)

	// SendData pushes a payload through the host's outbound data channel
	// (delivered to the shop's bot).
	SendData(payload []byte) error
}
