package host

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Command is one outbound frame to the webview: a host method invocation the
// thin JS shim replays against window.Telegram.WebApp.
type Command struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Event is one inbound frame from the webview.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Minimum host versions per capability, from the Bot API changelog. Anything
// below degrades rather than erroring.
const (
	minVersionBackButton = "6.1"
	minVersionHaptics    = "6.1"
	minVersionPopup      = "6.2"
	minVersionClosing    = "6.2"
)

// maxQueuedCommands bounds the outbound queue; if the webview stops draining
// we drop the oldest frames, since stale button updates are worthless anyway.
const maxQueuedCommands = 256

// Bridge is the production Runtime: it queues capability calls as JSON
// command frames for the webview to drain, and dispatches the webview's
// event frames to the registered callbacks.
//
// Until an "init" event arrives the bridge assumes no host at all: every
// call is still safe and simply queues nothing that requires a capability.
type Bridge struct {
	mu       sync.Mutex
	queue    []Command
	version  string
	theme    map[string]string
	identity *Identity

	onMain  func()
	onBack  func()
	onPopup func(buttonID string)

	log *slog.Logger
}

func NewBridge(log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{log: log}
}

var _ Runtime = (*Bridge)(nil)

// Drain returns and clears all queued outbound commands.
func (b *Bridge) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.queue
	b.queue = nil
	return out
}

// HandleEvent processes one inbound frame. Callbacks run synchronously on
// the caller's goroutine, preserving event order.
func (b *Bridge) HandleEvent(ev Event) {
	switch ev.Type {
	case "init":
		b.handleInit(ev.Data)
	case "main_button_clicked":
		if fn := b.callback(&b.onMain); fn != nil {
			fn()
		}
	case "back_button_clicked":
		if fn := b.callback(&b.onBack); fn != nil {
			fn()
		}
	case "popup_closed":
		var data struct {
			ButtonID string `json:"button_id"`
		}
		_ = json.Unmarshal(ev.Data, &data)
		b.mu.Lock()
		fn := b.onPopup
		b.mu.Unlock()
		if fn != nil {
			fn(data.ButtonID)
		}
	default:
		b.log.Warn("bridge: unknown event", "type", ev.Type)
	}
}

func (b *Bridge) handleInit(raw json.RawMessage) {
	var data struct {
		Version string            `json:"version"`
		Theme   map[string]string `json:"theme"`
		User    *struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"user"`
		InitData string `json:"init_data"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		b.log.Warn("bridge: bad init event", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.version = data.Version
	b.theme = data.Theme
	if data.User != nil {
		b.identity = &Identity{
			UserID:   data.User.ID,
			Name:     data.User.FirstName,
			InitData: data.InitData,
		}
	}
	b.log.Info("bridge: host attached", "version", data.Version, "has_identity", b.identity != nil)
}

func (b *Bridge) callback(slot *func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *slot
}

func (b *Bridge) enqueue(method string, params any) {
	var raw json.RawMessage
	if params != nil {
		var err error
		raw, err = json.Marshal(params)
		if err != nil {
			b.log.Error("bridge: marshal command params", "method", method, "error", err)
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) >= maxQueuedCommands {
		b.queue = b.queue[1:]
	}
	b.queue = append(b.queue, Command{Method: method, Params: raw})
}

// supports reports whether the attached host is at least the given version.
// No host attached means no capability at all.
func (b *Bridge) supports(min string) bool {
	b.mu.Lock()
	v := b.version
	b.mu.Unlock()
	if v == "" {
		return false
	}
	return compareVersions(v, min) >= 0
}

func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (b *Bridge) Ready()  { b.enqueue("ready", nil) }
func (b *Bridge) Expand() { b.enqueue("expand", nil) }

func (b *Bridge) EnableClosingConfirmation() {
	if !b.supports(minVersionClosing) {
		return
	}
	b.enqueue("enable_closing_confirmation", nil)
}

func (b *Bridge) ThemeParams() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.theme))
	for k, v := range b.theme {
		out[k] = v
	}
	return out
}

func (b *Bridge) ShowMainButton(label string, enabled bool) {
	b.enqueue("main_button_show", map[string]any{"text": label, "enabled": enabled})
}

func (b *Bridge) HideMainButton() { b.enqueue("main_button_hide", nil) }

func (b *Bridge) ShowBackButton() {
	if !b.supports(minVersionBackButton) {
		return
	}
	b.enqueue("back_button_show", nil)
}

func (b *Bridge) HideBackButton() {
	if !b.supports(minVersionBackButton) {
		return
	}
	b.enqueue("back_button_hide", nil)
}

func (b *Bridge) OnMainButton(fn func()) {
	b.mu.Lock()
	b.onMain = fn
	b.mu.Unlock()
}

func (b *Bridge) OnBackButton(fn func()) {
	b.mu.Lock()
	b.onBack = fn
	b.mu.Unlock()
}

func (b *Bridge) OnPopupClosed(fn func(buttonID string)) {
	b.mu.Lock()
	b.onPopup = fn
	b.mu.Unlock()
}

func (b *Bridge) Haptic(kind HapticKind) {
	if !b.supports(minVersionHaptics) {
		return
	}
	b.enqueue("haptic", map[string]string{"kind": string(kind)})
}

func (b *Bridge) ShowPopup(title, message string, buttons []PopupButton) {
	if b.supports(minVersionPopup) {
		b.enqueue("show_popup", map[string]any{
			"title":   title,
			"message": message,
			"buttons": buttons,
		})
		return
	}
	// Old hosts: collapse to a plain alert; the shim falls back to
	// window.alert if even that is missing.
	b.ShowAlert(title + "\n\n" + message)
}

func (b *Bridge) ShowAlert(message string) {
	b.enqueue("show_alert", map[string]string{"message": message})
}

func (b *Bridge) Identity() (Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.identity == nil {
		return Identity{}, false
	}
	return *b.identity, true
}

func (b *Bridge) SendData(payload []byte) error {
	b.mu.Lock()
	attached := b.version != ""
	b.mu.Unlock()
	if !attached {
		return errors.New("host: no webview attached")
	}
	b.enqueue("send_data", map[string]string{"data": string(payload)})
	return nil
}
