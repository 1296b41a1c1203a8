// Package dispatch implements the shortcut dispatcher state machine.
//
// The dispatcher owns a pending buffer of key events typed since the last
// reset. Each accepted key restarts a debounce timer; the buffer resets on
// an exact match, on timeout, or on Escape. Key events arriving while an
// editable widget has focus are ignored entirely.
//
// # Match policies
//
// MatchEager fires a binding the moment its exact sequence is in the
// buffer, even when a longer binding shares the prefix. This mirrors the
// common immediate-fire behavior of web-style shortcut handlers; the
// registry warns about the prefix collisions it makes hazardous.
//
// MatchPatient holds the most recent exact match while a longer active
// binding is still reachable, and fires it when the debounce window
// expires or when the next key rules the longer binding out (that key is
// then replayed into the fresh buffer).
//
// # Lifecycle
//
// A Dispatcher is an owned instance: construct it with New, call Start to
// begin accepting events and Stop to shut it down. There is no global
// listener state; tests construct as many dispatchers as they like.
package dispatch
