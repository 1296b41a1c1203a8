// Package script embeds a sandboxed Lua runtime for user scripts.
//
// Scripts declare bindings through the keycast module:
//
//	keycast.bind("g d", function()
//	    -- action
//	end, { id = "dash", category = "Navigation" })
//
// The sandbox opens only the base, string, table, and math libraries;
// io, os, debug, and module loading are unavailable.
//
// gopher-lua's LState is not goroutine-safe, so every Lua operation is
// marshalled onto a single goroutine by the Executor. Handlers bound
// from Lua follow the same path: the dispatcher invokes a Go closure
// that queues the Lua function call and waits for it.
package script
