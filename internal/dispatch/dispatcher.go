package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keycast/internal/key"
	"github.com/dshills/keycast/internal/shortcut"
)

// MatchPolicy selects how prefix-colliding bindings resolve.
type MatchPolicy int

const (
	// MatchEager fires on the first exact match.
	MatchEager MatchPolicy = iota

	// MatchPatient waits while a longer binding is still reachable.
	MatchPatient
)

// String returns the policy name.
func (p MatchPolicy) String() string {
	switch p {
	case MatchEager:
		return "eager"
	case MatchPatient:
		return "patient"
	default:
		return "unknown"
	}
}

// FocusProvider reports whether an editable widget (input, textarea,
// anything accepting text) currently has focus. Key events are ignored
// entirely while it returns true.
type FocusProvider interface {
	Editable() bool
}

// Config configures a Dispatcher.
type Config struct {
	// Timeout is the debounce window: the buffer resets when no key
	// arrives within it. Default: 1000ms.
	Timeout time.Duration

	// Policy selects eager or patient matching. Default: MatchEager.
	Policy MatchPolicy

	// Focus reports editable focus. Nil means never editable.
	Focus FocusProvider

	// OnError is called when a handler returns an error or panics.
	// The dispatcher never propagates handler failures to the caller,
	// so one broken binding cannot break shortcut handling site-wide.
	OnError func(b shortcut.Binding, err error)

	// OnPendingChange observes the pending buffer for live UI feedback.
	// Called with the space-joined token form, "" on reset.
	OnPendingChange func(pending string)

	// Tap observes every accepted key event, after the editable-focus
	// guard. Used for macro recording.
	Tap func(ev key.Event)
}

// DefaultConfig returns a configuration with the standard debounce window
// and eager matching.
func DefaultConfig() Config {
	return Config{
		Timeout: 1000 * time.Millisecond,
		Policy:  MatchEager,
	}
}

// Dispatcher accumulates key events and invokes matching bindings.
type Dispatcher struct {
	mu sync.Mutex

	config   Config
	registry *shortcut.Registry

	// pending holds the tokens typed since the last reset.
	pending *key.Sequence

	// held is the exact match awaiting a longer one under MatchPatient.
	held *shortcut.Binding

	// timer is the debounce timer; timerGen invalidates stale callbacks.
	timer    *time.Timer
	timerGen uint64

	running bool

	metrics *Metrics
}

// New creates a dispatcher over the given registry.
func New(registry *shortcut.Registry, config Config) *Dispatcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Dispatcher{
		config:   config,
		registry: registry,
		pending:  key.NewSequence(),
		metrics:  NewMetrics(),
	}
}

// Start begins accepting key events.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
}

// Stop stops accepting key events and clears any pending state.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.running = false
	d.clearLocked()
	d.mu.Unlock()

	d.notifyPending("")
}

// Running reports whether the dispatcher accepts events.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Pending returns the current pending buffer as a token string.
func (d *Dispatcher) Pending() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending.String()
}

// Metrics returns the dispatch metrics.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Cancel clears the pending buffer without invoking anything.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	cleared := d.pending.Len() > 0
	d.clearLocked()
	d.mu.Unlock()

	if cleared {
		d.metrics.RecordCancel()
		d.notifyPending("")
	}
}

// HandleKey processes one key event. It returns true when the event was
// absorbed by the engine (buffered, matched, or cancelled a sequence) and
// false when it was ignored (stopped dispatcher or editable focus).
//
// A matched handler runs synchronously, exactly once, with panic
// recovery. Handlers run with the dispatcher unlocked, so an action may
// safely call back into the dispatcher or mutate the registry.
func (d *Dispatcher) HandleKey(ev key.Event) bool {
	start := time.Now()

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return false
	}

	// Hard precondition: editable targets swallow their keys.
	if d.config.Focus != nil && d.config.Focus.Editable() {
		d.mu.Unlock()
		d.metrics.RecordSuppressed()
		return false
	}

	if tap := d.config.Tap; tap != nil {
		tap(ev)
	}

	// Escape cancels an in-progress sequence. With an empty buffer it is
	// an ordinary token and may match an Escape-bound shortcut.
	if ev.IsEscape() && d.pending.Len() > 0 {
		d.clearLocked()
		d.mu.Unlock()

		d.metrics.RecordCancel()
		d.metrics.RecordKeyEvent(time.Since(start))
		d.notifyPending("")
		return true
	}

	fire, pendingStr := d.acceptLocked(ev)
	d.mu.Unlock()

	d.metrics.RecordKeyEvent(time.Since(start))
	d.notifyPending(pendingStr)
	for _, b := range fire {
		d.invoke(b)
	}
	return true
}

// acceptLocked appends ev to the buffer and resolves it against the
// registry. It returns the bindings to fire, in order, and the new
// pending string. Caller holds d.mu.
func (d *Dispatcher) acceptLocked(ev key.Event) (fire []shortcut.Binding, pendingStr string) {
	d.pending.Add(ev)
	d.restartTimerLocked()

	b, exact := d.registry.Lookup(d.pending)
	reachable := d.registry.HasPrefix(d.pending)

	switch {
	case exact && (d.config.Policy == MatchEager || !reachable):
		// Fire now: eager always, patient once nothing longer remains.
		d.clearLocked()
		return []shortcut.Binding{b}, ""

	case exact:
		// Patient: hold the match while a longer binding is reachable.
		d.held = &b
		return nil, d.pending.String()

	case reachable:
		// Still a live prefix; wait for more input.
		return nil, d.pending.String()

	case d.held != nil:
		// The new key ruled the longer binding out. Fire what we were
		// holding, then replay the key into the fresh buffer.
		held := *d.held
		d.clearLocked()
		replay, replayPending := d.acceptLocked(ev)
		return append([]shortcut.Binding{held}, replay...), replayPending

	default:
		// No match possible with more input.
		d.clearLocked()
		d.metrics.RecordMiss()
		return nil, ""
	}
}

// handleTimeout runs when the debounce window elapses with no new key.
func (d *Dispatcher) handleTimeout(gen uint64) {
	d.mu.Lock()
	if !d.running || gen != d.timerGen || d.pending.Len() == 0 {
		d.mu.Unlock()
		return
	}

	held := d.held
	d.clearLocked()
	d.mu.Unlock()

	d.metrics.RecordTimeout()
	d.notifyPending("")
	if held != nil {
		d.invoke(*held)
	}
}

// restartTimerLocked cancels and restarts the debounce timer.
// Caller holds d.mu.
func (d *Dispatcher) restartTimerLocked() {
	d.stopTimerLocked()
	d.timerGen++
	gen := d.timerGen
	d.timer = time.AfterFunc(d.config.Timeout, func() {
		d.handleTimeout(gen)
	})
}

// stopTimerLocked stops the debounce timer. Caller holds d.mu.
func (d *Dispatcher) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerGen++
}

// clearLocked resets the pending buffer, held match, and timer.
// Caller holds d.mu.
func (d *Dispatcher) clearLocked() {
	d.pending.Clear()
	d.held = nil
	d.stopTimerLocked()
}

// invoke runs a binding's handler with panic recovery. Failures are
// reported through OnError and never propagate.
func (d *Dispatcher) invoke(b shortcut.Binding) {
	start := time.Now()
	err := safeCall(b.Handler)
	d.metrics.RecordAction(time.Since(start))

	if err != nil && d.config.OnError != nil {
		d.config.OnError(b, err)
	}
}

// safeCall invokes a handler, converting panics to errors.
func safeCall(h shortcut.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	if h == nil {
		return nil
	}
	return h()
}

// notifyPending reports buffer changes for live UI feedback.
func (d *Dispatcher) notifyPending(pending string) {
	if fn := d.config.OnPendingChange; fn != nil {
		fn(pending)
	}
}
