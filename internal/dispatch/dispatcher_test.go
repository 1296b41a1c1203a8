package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/keycast/internal/key"
	"github.com/dshills/keycast/internal/shortcut"
)

// recorder collects fired binding ids.
type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) handler(id string) shortcut.Handler {
	return func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.fired = append(r.fired, id)
		return nil
	}
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

// editableFocus is a FocusProvider with a settable flag.
type editableFocus struct {
	mu       sync.Mutex
	editable bool
}

func (f *editableFocus) Editable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editable
}

func (f *editableFocus) set(editable bool) {
	f.mu.Lock()
	f.editable = editable
	f.mu.Unlock()
}

func press(d *Dispatcher, keys string) {
	for _, r := range keys {
		d.HandleKey(key.NewRuneEvent(r, key.ModNone))
	}
}

func pressEscape(d *Dispatcher) {
	d.HandleKey(key.NewSpecialEvent(key.KeyEscape, key.ModNone))
}

func newDispatcher(t *testing.T, config Config, bindings ...shortcut.Binding) (*Dispatcher, *recorder) {
	t.Helper()

	rec := &recorder{}
	reg := shortcut.NewRegistry()
	for _, b := range bindings {
		b.Handler = rec.handler(b.ID)
		if _, err := reg.Register(b); err != nil {
			t.Fatalf("Register(%q) error = %v", b.Keys, err)
		}
	}

	d := New(reg, config)
	d.Start()
	t.Cleanup(d.Stop)
	return d, rec
}

func TestSingleKeyMatch(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "help", Keys: "?"},
	)

	d.HandleKey(key.NewRuneEvent('?', key.ModNone))

	if got := rec.list(); len(got) != 1 || got[0] != "help" {
		t.Errorf("fired = %v, want [help]", got)
	}
	if d.Pending() != "" {
		t.Errorf("Pending() = %q, want empty after a match", d.Pending())
	}
}

func TestSequenceMatch(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "dash", Keys: "g d"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	if d.Pending() != "g" {
		t.Errorf("Pending() = %q after first key, want %q", d.Pending(), "g")
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v before the sequence completes, want none", got)
	}

	d.HandleKey(key.NewRuneEvent('d', key.ModNone))
	if got := rec.list(); len(got) != 1 || got[0] != "dash" {
		t.Errorf("fired = %v, want [dash]", got)
	}
}

func TestModifiedKeyMatch(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "save", Keys: "<C-s>"},
	)

	d.HandleKey(key.NewRuneEvent('s', key.ModCtrl))

	if got := rec.list(); len(got) != 1 || got[0] != "save" {
		t.Errorf("fired = %v, want [save]", got)
	}
}

func TestEditableFocusSuppresses(t *testing.T) {
	focus := &editableFocus{}
	config := DefaultConfig()
	config.Focus = focus

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "help", Keys: "?"},
	)

	focus.set(true)
	if d.HandleKey(key.NewRuneEvent('?', key.ModNone)) {
		t.Error("HandleKey should report false while an editable has focus")
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v with editable focus, want none", got)
	}

	focus.set(false)
	d.HandleKey(key.NewRuneEvent('?', key.ModNone))
	if got := rec.list(); len(got) != 1 {
		t.Errorf("fired = %v after focus left the editable, want one", got)
	}
}

func TestEscapeCancelsPendingSequence(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "dash", Keys: "g d"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	pressEscape(d)

	if d.Pending() != "" {
		t.Errorf("Pending() = %q after Escape, want empty", d.Pending())
	}

	// The cancelled prefix must not combine with later keys.
	d.HandleKey(key.NewRuneEvent('d', key.ModNone))
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v, want none", got)
	}
}

func TestEscapeBindableWhenIdle(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "close", Keys: "<Esc>"},
	)

	pressEscape(d)

	if got := rec.list(); len(got) != 1 || got[0] != "close" {
		t.Errorf("fired = %v, want [close]", got)
	}
}

func TestTimeoutResetsBuffer(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "dash", Keys: "g d"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	time.Sleep(200 * time.Millisecond)

	if d.Pending() != "" {
		t.Errorf("Pending() = %q after timeout, want empty", d.Pending())
	}

	// A late second key starts a fresh sequence instead of completing
	// the stale one.
	d.HandleKey(key.NewRuneEvent('d', key.ModNone))
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v, want none", got)
	}

	if n := d.Metrics().Snapshot().SequenceTimeouts; n != 1 {
		t.Errorf("SequenceTimeouts = %d, want 1", n)
	}
}

func TestKeyWithinWindowRestartsTimer(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 150 * time.Millisecond

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "long", Keys: "a b c"},
	)

	// Each key arrives inside the window, total typing time beyond it.
	d.HandleKey(key.NewRuneEvent('a', key.ModNone))
	time.Sleep(80 * time.Millisecond)
	d.HandleKey(key.NewRuneEvent('b', key.ModNone))
	time.Sleep(80 * time.Millisecond)
	d.HandleKey(key.NewRuneEvent('c', key.ModNone))

	if got := rec.list(); len(got) != 1 || got[0] != "long" {
		t.Errorf("fired = %v, want [long]", got)
	}
}

func TestNoMatchPossibleResets(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "dash", Keys: "g d"},
		shortcut.Binding{ID: "xray", Keys: "x"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	d.HandleKey(key.NewRuneEvent('q', key.ModNone))

	if d.Pending() != "" {
		t.Errorf("Pending() = %q after a dead prefix, want empty", d.Pending())
	}
	if n := d.Metrics().Snapshot().MissesTotal; n != 1 {
		t.Errorf("MissesTotal = %d, want 1", n)
	}

	// The dispatcher recovers immediately.
	d.HandleKey(key.NewRuneEvent('x', key.ModNone))
	if got := rec.list(); len(got) != 1 || got[0] != "xray" {
		t.Errorf("fired = %v, want [xray]", got)
	}
}

func TestEagerFiresShorterBinding(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "notes", Keys: "n"},
		shortcut.Binding{ID: "new-trade", Keys: "n t"},
	)

	press(d, "nt")

	// Eager fires "n" immediately; "t" then starts a fresh buffer and
	// matches nothing.
	if got := rec.list(); len(got) != 1 || got[0] != "notes" {
		t.Errorf("fired = %v, want [notes]", got)
	}
}

func TestPatientWaitsForLongerBinding(t *testing.T) {
	config := DefaultConfig()
	config.Policy = MatchPatient

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "notes", Keys: "n"},
		shortcut.Binding{ID: "new-trade", Keys: "n t"},
	)

	press(d, "nt")

	if got := rec.list(); len(got) != 1 || got[0] != "new-trade" {
		t.Errorf("fired = %v, want [new-trade]", got)
	}
}

func TestPatientFiresHeldMatchOnTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Policy = MatchPatient
	config.Timeout = 50 * time.Millisecond

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "notes", Keys: "n"},
		shortcut.Binding{ID: "new-trade", Keys: "n t"},
	)

	d.HandleKey(key.NewRuneEvent('n', key.ModNone))
	time.Sleep(200 * time.Millisecond)

	if got := rec.list(); len(got) != 1 || got[0] != "notes" {
		t.Errorf("fired = %v, want [notes]", got)
	}
}

func TestPatientReplaysDisambiguatingKey(t *testing.T) {
	config := DefaultConfig()
	config.Policy = MatchPatient

	d, rec := newDispatcher(t, config,
		shortcut.Binding{ID: "notes", Keys: "n"},
		shortcut.Binding{ID: "new-trade", Keys: "n t"},
		shortcut.Binding{ID: "xray", Keys: "x"},
	)

	// "x" rules "n t" out: the held "n" fires, then "x" is replayed
	// into the fresh buffer and fires on its own.
	press(d, "nx")

	got := rec.list()
	if len(got) != 2 || got[0] != "notes" || got[1] != "xray" {
		t.Errorf("fired = %v, want [notes xray]", got)
	}
}

func TestHandlerFiresExactlyOnce(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "help", Keys: "?"},
	)

	press(d, "???")

	if got := rec.list(); len(got) != 3 {
		t.Errorf("fired %d times for 3 presses, want 3", len(got))
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	var reported error
	var reportedID string

	config := DefaultConfig()
	config.OnError = func(b shortcut.Binding, err error) {
		reportedID = b.ID
		reported = err
	}

	reg := shortcut.NewRegistry()
	if _, err := reg.Register(shortcut.Binding{
		ID:      "boom",
		Keys:    "b",
		Handler: func() error { panic("kaboom") },
	}); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	d := New(reg, config)
	d.Start()
	defer d.Stop()

	// Must not panic through HandleKey.
	d.HandleKey(key.NewRuneEvent('b', key.ModNone))

	if reportedID != "boom" {
		t.Errorf("OnError binding id = %q, want %q", reportedID, "boom")
	}
	if reported == nil {
		t.Fatal("OnError should receive the recovered panic as an error")
	}

	// The dispatcher keeps working after a panicking handler.
	d.HandleKey(key.NewRuneEvent('b', key.ModNone))
}

func TestHandlerErrorReported(t *testing.T) {
	wantErr := errors.New("action failed")
	var reported error

	config := DefaultConfig()
	config.OnError = func(_ shortcut.Binding, err error) { reported = err }

	reg := shortcut.NewRegistry()
	if _, err := reg.Register(shortcut.Binding{
		ID:      "fail",
		Keys:    "f",
		Handler: func() error { return wantErr },
	}); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	d := New(reg, config)
	d.Start()
	defer d.Stop()

	d.HandleKey(key.NewRuneEvent('f', key.ModNone))

	if !errors.Is(reported, wantErr) {
		t.Errorf("OnError err = %v, want %v", reported, wantErr)
	}
}

func TestStoppedDispatcherIgnoresKeys(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "help", Keys: "?"},
	)

	d.Stop()
	if d.HandleKey(key.NewRuneEvent('?', key.ModNone)) {
		t.Error("HandleKey should report false on a stopped dispatcher")
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v after Stop, want none", got)
	}

	d.Start()
	d.HandleKey(key.NewRuneEvent('?', key.ModNone))
	if got := rec.list(); len(got) != 1 {
		t.Errorf("fired = %v after restart, want one", got)
	}
}

func TestCancelClearsPending(t *testing.T) {
	d, rec := newDispatcher(t, DefaultConfig(),
		shortcut.Binding{ID: "dash", Keys: "g d"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	d.Cancel()

	if d.Pending() != "" {
		t.Errorf("Pending() = %q after Cancel, want empty", d.Pending())
	}

	d.HandleKey(key.NewRuneEvent('d', key.ModNone))
	if got := rec.list(); len(got) != 0 {
		t.Errorf("fired = %v, want none", got)
	}
}

func TestPendingChangeNotifications(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	config := DefaultConfig()
	config.OnPendingChange = func(pending string) {
		mu.Lock()
		seen = append(seen, pending)
		mu.Unlock()
	}

	d, _ := newDispatcher(t, config,
		shortcut.Binding{ID: "dash", Keys: "g d"},
	)

	d.HandleKey(key.NewRuneEvent('g', key.ModNone))
	d.HandleKey(key.NewRuneEvent('d', key.ModNone))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("notifications = %v, want at least 2", seen)
	}
	if seen[0] != "g" {
		t.Errorf("first notification = %q, want %q", seen[0], "g")
	}
	if seen[len(seen)-1] != "" {
		t.Errorf("last notification = %q, want empty after the match", seen[len(seen)-1])
	}
}

func TestTapObservesAcceptedEvents(t *testing.T) {
	var mu sync.Mutex
	var tapped []key.Event

	focus := &editableFocus{}
	config := DefaultConfig()
	config.Focus = focus
	config.Tap = func(ev key.Event) {
		mu.Lock()
		tapped = append(tapped, ev)
		mu.Unlock()
	}

	d, _ := newDispatcher(t, config,
		shortcut.Binding{ID: "help", Keys: "?"},
	)

	d.HandleKey(key.NewRuneEvent('?', key.ModNone))

	focus.set(true)
	d.HandleKey(key.NewRuneEvent('x', key.ModNone))

	mu.Lock()
	defer mu.Unlock()
	if len(tapped) != 1 {
		t.Fatalf("tapped %d events, want 1 (suppressed events bypass the tap)", len(tapped))
	}
	if tapped[0].Rune != '?' {
		t.Errorf("tapped rune = %q, want '?'", tapped[0].Rune)
	}
}

func TestHandlerMayMutateRegistry(t *testing.T) {
	reg := shortcut.NewRegistry()
	d := New(reg, DefaultConfig())

	fired := false
	if _, err := reg.Register(shortcut.Binding{
		ID:   "self-remove",
		Keys: "r",
		Handler: func() error {
			reg.Unregister("self-remove")
			fired = true
			return nil
		},
	}); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	d.Start()
	defer d.Stop()

	d.HandleKey(key.NewRuneEvent('r', key.ModNone))
	if !fired {
		t.Fatal("handler should have run")
	}

	// Gone from the registry; the next press matches nothing.
	d.HandleKey(key.NewRuneEvent('r', key.ModNone))
	if n := d.Metrics().Snapshot().ActionsTotal; n != 1 {
		t.Errorf("ActionsTotal = %d, want 1", n)
	}
}
