package host

import (
	"log/slog"
	"sync"
)

// Mock is the fully scripted Runtime substituted when no Telegram host is
// available (plain browser, unit tests). It records every capability call so
// tests can assert on the interaction, and answers popups with a scripted
// button id.
type Mock struct {
	mu sync.Mutex

	// ScriptedIdentity, when non-nil, is what Identity reports.
	ScriptedIdentity *Identity
	// ScriptedTheme is returned by ThemeParams.
	ScriptedTheme map[string]string
	// PopupAnswer is the button id every popup resolves to. Empty string
	// means the popup is dismissed without choosing a button.
	PopupAnswer string

	MainLabel   string
	MainEnabled bool
	MainVisible bool
	BackVisible bool

	Alerts  []string
	Haptics []HapticKind
	Sent    [][]byte
	Calls   []string

	onMain  func()
	onBack  func()
	onPopup func(buttonID string)

	log *slog.Logger
}

func NewMock(log *slog.Logger) *Mock {
	if log == nil {
		log = slog.Default()
	}
	return &Mock{log: log}
}

var _ Runtime = (*Mock)(nil)

func (m *Mock) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *Mock) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ready")
}

func (m *Mock) Expand() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("expand")
}

func (m *Mock) EnableClosingConfirmation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("enable_closing_confirmation")
}

func (m *Mock) ThemeParams() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScriptedTheme == nil {
		return map[string]string{}
	}
	return m.ScriptedTheme
}

func (m *Mock) ShowMainButton(label string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MainLabel = label
	m.MainEnabled = enabled
	m.MainVisible = true
	m.record("main_button_show")
}

func (m *Mock) HideMainButton() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MainVisible = false
	m.record("main_button_hide")
}

func (m *Mock) ShowBackButton() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackVisible = true
	m.record("back_button_show")
}

func (m *Mock) HideBackButton() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackVisible = false
	m.record("back_button_hide")
}

func (m *Mock) OnMainButton(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMain = fn
}

func (m *Mock) OnBackButton(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBack = fn
}

func (m *Mock) OnPopupClosed(fn func(buttonID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPopup = fn
}

// TriggerMainButton simulates the user tapping the primary action.
func (m *Mock) TriggerMainButton() {
	m.mu.Lock()
	fn := m.onMain
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// TriggerBackButton simulates the user tapping the native back action.
func (m *Mock) TriggerBackButton() {
	m.mu.Lock()
	fn := m.onBack
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *Mock) Haptic(kind HapticKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Haptics = append(m.Haptics, kind)
	m.record("haptic")
}

// ShowPopup resolves immediately with the scripted answer, synchronously, so
// flows under test observe the same ordering as with a real host.
func (m *Mock) ShowPopup(title, message string, buttons []PopupButton) {
	m.mu.Lock()
	m.record("show_popup")
	answer := m.PopupAnswer
	fn := m.onPopup
	m.mu.Unlock()

	m.log.Debug("mock host popup", "title", title, "message", message)
	if fn != nil {
		fn(answer)
	}
}

func (m *Mock) ShowAlert(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, message)
	m.record("show_alert")
	m.log.Debug("mock host alert", "message", message)
}

func (m *Mock) Identity() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScriptedIdentity == nil {
		return Identity{}, false
	}
	return *m.ScriptedIdentity, true
}

func (m *Mock) SendData(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, payload)
	m.record("send_data")
	return nil
}
