package script

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keycast/internal/dispatch"
	"github.com/dshills/keycast/internal/shortcut"
)

// Host runs user scripts against a registry and dispatcher. It owns the
// Lua state, its executor goroutine, and the set of bindings scripts
// have registered, so closing the host removes everything a script
// added.
type Host struct {
	state      *State
	exec       *Executor
	registry   *shortcut.Registry
	dispatcher *dispatch.Dispatcher
	cancel     context.CancelFunc

	mu    sync.Mutex
	bound map[string]bool
}

// NewHost creates a host, installs the keycast module, and starts the
// executor goroutine.
func NewHost(registry *shortcut.Registry, dispatcher *dispatch.Dispatcher) *Host {
	state := NewState()
	exec := NewExecutor(state, 0)
	ctx, cancel := context.WithCancel(context.Background())

	h := &Host{
		state:      state,
		exec:       exec,
		registry:   registry,
		dispatcher: dispatcher,
		cancel:     cancel,
		bound:      make(map[string]bool),
	}
	h.install()

	// The executor goroutine owns the state; it closes it after Run
	// returns so no Lua call can race the teardown.
	go func() {
		exec.Run(ctx)
		state.Close()
	}()

	return h
}

// LoadFile runs a script file on the executor goroutine.
func (h *Host) LoadFile(ctx context.Context, path string) error {
	return h.exec.Execute(ctx, func(*lua.LState) error {
		return h.state.DoFile(path)
	})
}

// LoadString runs Lua source on the executor goroutine.
func (h *Host) LoadString(ctx context.Context, code string) error {
	return h.exec.Execute(ctx, func(*lua.LState) error {
		return h.state.DoString(code)
	})
}

// Execute runs fn on the executor goroutine, for reading script state.
func (h *Host) Execute(ctx context.Context, fn func(L *lua.LState) error) error {
	return h.exec.Execute(ctx, fn)
}

// BoundIDs returns the binding ids scripts have registered.
func (h *Host) BoundIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.bound))
	for id := range h.bound {
		ids = append(ids, id)
	}
	return ids
}

// Close unregisters all script bindings and shuts the runtime down.
func (h *Host) Close() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.bound))
	for id := range h.bound {
		ids = append(ids, id)
	}
	h.bound = make(map[string]bool)
	h.mu.Unlock()

	for _, id := range ids {
		h.registry.Unregister(id)
	}

	h.cancel()
	h.exec.Close()
}

// install registers the keycast module in the Lua state. Runs before the
// executor goroutine starts, so direct state access is safe here.
func (h *Host) install() {
	L := h.state.L

	mod := L.NewTable()
	L.SetField(mod, "bind", L.NewFunction(h.luaBind))
	L.SetField(mod, "unbind", L.NewFunction(h.luaUnbind))
	L.SetField(mod, "toggle", L.NewFunction(h.luaToggle))
	L.SetField(mod, "pending", L.NewFunction(h.luaPending))
	L.SetField(mod, "cancel", L.NewFunction(h.luaCancel))
	L.SetGlobal("keycast", mod)
}

// luaBind implements keycast.bind(keys, fn [, opts]) -> id.
// opts is a table with optional id, description, and category fields.
func (h *Host) luaBind(L *lua.LState) int {
	keys := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := L.OptTable(3, nil)

	binding := shortcut.Binding{
		Keys:    keys,
		Handler: h.luaHandler(fn),
	}
	if opts != nil {
		binding.ID = stringField(L, opts, "id")
		binding.Description = stringField(L, opts, "description")
		binding.Category = stringField(L, opts, "category")
	}

	id, err := h.registry.Register(binding)
	if err != nil {
		L.RaiseError("bind %q: %v", keys, err)
		return 0
	}

	h.mu.Lock()
	h.bound[id] = true
	h.mu.Unlock()

	L.Push(lua.LString(id))
	return 1
}

// luaHandler wraps a Lua function as a shortcut handler. The dispatcher
// invokes it from its own goroutine, so the call is marshalled back onto
// the executor.
func (h *Host) luaHandler(fn *lua.LFunction) shortcut.Handler {
	return func() error {
		err := h.exec.Execute(context.Background(), func(L *lua.LState) error {
			L.Push(fn)
			return L.PCall(0, 0, nil)
		})
		if err != nil {
			return fmt.Errorf("script handler: %w", err)
		}
		return nil
	}
}

// luaUnbind implements keycast.unbind(id).
func (h *Host) luaUnbind(L *lua.LState) int {
	id := L.CheckString(1)

	h.registry.Unregister(id)
	h.mu.Lock()
	delete(h.bound, id)
	h.mu.Unlock()
	return 0
}

// luaToggle implements keycast.toggle(id, active) -> bool.
func (h *Host) luaToggle(L *lua.LState) int {
	id := L.CheckString(1)
	active := L.CheckBool(2)

	L.Push(lua.LBool(h.registry.Toggle(id, active)))
	return 1
}

// luaPending implements keycast.pending() -> string.
func (h *Host) luaPending(L *lua.LState) int {
	L.Push(lua.LString(h.dispatcher.Pending()))
	return 1
}

// luaCancel implements keycast.cancel().
func (h *Host) luaCancel(L *lua.LState) int {
	h.dispatcher.Cancel()
	return 0
}

// stringField reads a string field from a table, "" when absent.
func stringField(L *lua.LState, tbl *lua.LTable, name string) string {
	v := L.GetField(tbl, name)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}
