package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycast/internal/config"
	"github.com/dshills/keycast/internal/dispatch"
	"github.com/dshills/keycast/internal/key"
	"github.com/dshills/keycast/internal/macro"
	"github.com/dshills/keycast/internal/palette"
	"github.com/dshills/keycast/internal/script"
	"github.com/dshills/keycast/internal/shortcut"
	"github.com/dshills/keycast/internal/terminal"
)

const maxStatusLines = 5

// app wires the engine together behind a small TUI: a bindings table,
// the pending sequence, a palette overlay, and macro record/replay.
type app struct {
	opts     options
	settings config.Settings

	screen     tcell.Screen
	registry   *shortcut.Registry
	dispatcher *dispatch.Dispatcher
	palette    *palette.Palette
	recorder   *macro.Recorder
	player     *macro.Player
	host       *script.Host
	watcher    *config.Watcher

	actions map[string]shortcut.Handler
	cancel  context.CancelFunc

	mu          sync.Mutex
	status      []string
	pending     string
	paletteOpen bool
	query       string
	selection   int
	results     []palette.SearchResult
	awaitRecord bool
	awaitPlay   bool
	boundIDs    []string
}

func newApp(opts options) (*app, error) {
	settings, err := config.LoadSettings(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	policy, err := settings.MatchPolicy()
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:     opts,
		settings: settings,
		registry: shortcut.NewRegistry(),
		recorder: macro.NewRecorder(),
		palette:  palette.NewWithHistory(settings.HistorySize),
	}
	a.player = macro.NewPlayer(a.recorder)

	a.registry.OnCollision(func(kind shortcut.CollisionKind, existing, incoming shortcut.Binding) {
		a.statusf("collision (%s): %q vs %q", kind, existing.Keys, incoming.Keys)
	})

	dispatchConfig := dispatch.Config{
		Timeout: settings.Timeout(),
		Policy:  policy,
		Focus:   a,
		OnError: func(b shortcut.Binding, err error) {
			a.statusf("binding %s failed: %v", b.ID, err)
		},
		OnPendingChange: func(pending string) {
			a.mu.Lock()
			a.pending = pending
			a.mu.Unlock()
		},
		Tap: a.recorder.Record,
	}
	a.dispatcher = dispatch.New(a.registry, dispatchConfig)

	a.actions = a.coreActions()
	if err := a.loadBindings(); err != nil {
		return nil, err
	}
	a.rebuildPalette()

	if opts.ScriptPath != "" {
		a.host = script.NewHost(a.registry, a.dispatcher)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.host.LoadFile(ctx, opts.ScriptPath); err != nil {
			a.host.Close()
			return nil, fmt.Errorf("loading script: %w", err)
		}
	}

	if opts.BindingsPath != "" {
		w, err := config.WatchFile(opts.BindingsPath, 200*time.Millisecond, a.reloadBindings)
		if err != nil {
			return nil, fmt.Errorf("watching bindings: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// Editable implements dispatch.FocusProvider: while the palette is open
// its query owns the keyboard.
func (a *app) Editable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paletteOpen
}

// Run owns the screen and blocks until the context ends.
func (a *app) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	a.mu.Lock()
	a.screen = screen
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.cancel = cancel

	a.dispatcher.Start()
	defer a.dispatcher.Stop()

	a.statusf("ready")
	a.draw()

	terminal.Pump(runCtx, screen, a.route)
	return nil
}

// Shutdown releases resources that outlive Run.
func (a *app) Shutdown() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.host != nil {
		a.host.Close()
	}
}

// route is the single keyboard entry point. Palette input and macro
// register prompts are handled here; everything else flows into the
// dispatcher.
func (a *app) route(ev key.Event) {
	a.mu.Lock()
	awaitRecord := a.awaitRecord
	awaitPlay := a.awaitPlay
	paletteOpen := a.paletteOpen
	a.mu.Unlock()

	switch {
	case awaitRecord:
		a.handleRecordRegister(ev)
	case awaitPlay:
		a.handlePlayRegister(ev)
	case paletteOpen:
		a.handlePaletteKey(ev)
	case ev.Equals(key.NewRuneEvent('p', key.ModCtrl)):
		a.openPalette()
	case ev.Equals(key.NewRuneEvent('r', key.ModCtrl)):
		a.toggleRecording()
	case ev.Equals(key.NewRuneEvent('g', key.ModCtrl)):
		a.mu.Lock()
		a.awaitPlay = true
		a.mu.Unlock()
		a.statusf("play macro: press a register (a-z, 0-9), @ for last")
	default:
		a.dispatcher.HandleKey(ev)
	}

	a.draw()
}

func (a *app) toggleRecording() {
	if a.recorder.IsRecording() {
		reg := a.recorder.CurrentRegister()
		events := a.recorder.StopRecording()
		a.statusf("recorded %d keys into @%c", len(events), reg)
		return
	}

	a.mu.Lock()
	a.awaitRecord = true
	a.mu.Unlock()
	a.statusf("record macro: press a register (a-z, 0-9)")
}

func (a *app) handleRecordRegister(ev key.Event) {
	a.mu.Lock()
	a.awaitRecord = false
	a.mu.Unlock()

	if !ev.IsRune() {
		a.statusf("recording cancelled")
		return
	}
	reg := macro.NormalizeRegister(ev.Rune)
	if reg == 0 {
		a.statusf("invalid register %q", ev.Rune)
		return
	}
	if err := a.recorder.StartRecording(reg); err != nil {
		a.statusf("record: %v", err)
		return
	}
	a.statusf("recording into @%c (C-r stops)", reg)
}

func (a *app) handlePlayRegister(ev key.Event) {
	a.mu.Lock()
	a.awaitPlay = false
	a.mu.Unlock()

	if !ev.IsRune() {
		a.statusf("replay cancelled")
		return
	}

	sink := func(replayed key.Event) {
		a.dispatcher.HandleKey(replayed)
	}

	var err error
	if ev.Rune == '@' {
		err = a.player.PlayLast(1, sink)
	} else {
		reg := macro.NormalizeRegister(ev.Rune)
		if reg == 0 {
			a.statusf("invalid register %q", ev.Rune)
			return
		}
		err = a.player.Play(reg, 1, sink)
	}
	if err != nil {
		a.statusf("replay: %v", err)
	}
}

func (a *app) openPalette() {
	a.mu.Lock()
	a.paletteOpen = true
	a.query = ""
	a.selection = 0
	a.results = a.palette.Search("", 8)
	a.mu.Unlock()
}

func (a *app) closePalette() {
	a.mu.Lock()
	a.paletteOpen = false
	a.mu.Unlock()
}

func (a *app) handlePaletteKey(ev key.Event) {
	switch {
	case ev.IsEscape():
		a.closePalette()

	case ev.IsEnter():
		a.mu.Lock()
		var id string
		if a.selection < len(a.results) {
			id = a.results[a.selection].Command.ID
		}
		a.mu.Unlock()

		a.closePalette()
		if id == "" {
			return
		}
		if err := a.palette.Execute(id); err != nil {
			a.statusf("command %s: %v", id, err)
		}

	case ev.IsBackspace():
		a.mu.Lock()
		if a.query != "" {
			runes := []rune(a.query)
			a.query = string(runes[:len(runes)-1])
		}
		a.refreshResultsLocked()
		a.mu.Unlock()

	case ev.Key == key.KeyUp:
		a.mu.Lock()
		if a.selection > 0 {
			a.selection--
		}
		a.mu.Unlock()

	case ev.Key == key.KeyDown:
		a.mu.Lock()
		if a.selection < len(a.results)-1 {
			a.selection++
		}
		a.mu.Unlock()

	case ev.IsChar() && !ev.IsModified():
		a.mu.Lock()
		a.query += string(ev.Rune)
		a.refreshResultsLocked()
		a.mu.Unlock()
	}
}

func (a *app) refreshResultsLocked() {
	a.results = a.palette.Search(a.query, 8)
	if a.selection >= len(a.results) {
		a.selection = 0
	}
}

// coreActions is the table binding files resolve action names against.
func (a *app) coreActions() map[string]shortcut.Handler {
	demo := func(name string) shortcut.Handler {
		return func() error {
			a.statusf("action: %s", name)
			return nil
		}
	}

	return map[string]shortcut.Handler{
		"goto-dashboard": demo("go to dashboard"),
		"goto-trades":    demo("go to trades"),
		"goto-analytics": demo("go to analytics"),
		"new-trade":      demo("new trade"),
		"toggle-theme":   demo("toggle theme"),
		"show-palette": func() error {
			a.openPalette()
			return nil
		},
		"quit": func() error {
			if a.cancel != nil {
				a.cancel()
			}
			return nil
		},
	}
}

// defaultBindings are used when no bindings file is given.
func defaultBindings() *config.BindingsFile {
	return &config.BindingsFile{Bindings: []config.BindingSpec{
		{ID: "dash", Keys: "g d", Action: "goto-dashboard", Description: "Go to dashboard", Category: "Navigation"},
		{ID: "trades", Keys: "g t", Action: "goto-trades", Description: "Go to trades", Category: "Navigation"},
		{ID: "analytics", Keys: "g a", Action: "goto-analytics", Description: "Go to analytics", Category: "Navigation"},
		{ID: "new-trade", Keys: "n", Action: "new-trade", Description: "New trade", Category: "Trades"},
		{ID: "theme", Keys: "t", Action: "toggle-theme", Description: "Toggle theme", Category: "View"},
		{ID: "palette", Keys: "?", Action: "show-palette", Description: "Command palette", Category: "Help"},
		{ID: "quit", Keys: "Q", Action: "quit", Description: "Quit", Category: "Application"},
	}}
}

func (a *app) loadBindings() error {
	file := defaultBindings()
	if a.opts.BindingsPath != "" {
		loaded, err := config.LoadBindings(a.opts.BindingsPath)
		if err != nil {
			return err
		}
		file = loaded
	}

	ids, err := file.Apply(a.registry, a.actions)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.boundIDs = ids
	a.mu.Unlock()
	return nil
}

// reloadBindings runs on the watcher's timer goroutine after the
// bindings file changes.
func (a *app) reloadBindings(path string) {
	file, err := config.LoadBindings(path)
	if err != nil {
		a.statusf("reload: %v", err)
		a.draw()
		return
	}

	a.mu.Lock()
	old := a.boundIDs
	a.boundIDs = nil
	a.mu.Unlock()

	for _, id := range old {
		a.registry.Unregister(id)
	}

	ids, err := file.Apply(a.registry, a.actions)
	a.mu.Lock()
	a.boundIDs = ids
	a.mu.Unlock()

	if err != nil {
		a.statusf("reload: %v", err)
	} else {
		a.statusf("reloaded %d bindings", len(ids))
	}

	a.rebuildPalette()
	a.draw()
}

// rebuildPalette mirrors the registry into palette commands.
func (a *app) rebuildPalette() {
	a.palette.Clear()

	for _, b := range a.registry.List() {
		binding := b
		_ = a.palette.Register(&palette.Command{
			ID:          binding.ID,
			Title:       titleFor(binding),
			Description: binding.Description,
			Category:    binding.Category,
			Keybinding:  binding.Keys,
			Source:      "bindings",
			Handler: func() error {
				if binding.Handler == nil {
					return nil
				}
				return binding.Handler()
			},
		})
	}
}

func titleFor(b shortcut.Binding) string {
	if b.Description != "" {
		return b.Description
	}
	return b.ID
}

func (a *app) statusf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status = append(a.status, fmt.Sprintf(format, args...))
	if len(a.status) > maxStatusLines {
		a.status = a.status[len(a.status)-maxStatusLines:]
	}
}
