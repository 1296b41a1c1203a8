// Package shortcut provides the binding registry for keycast.
//
// A Binding maps a key sequence to a handler closure, with a description
// and category for display. Bindings are keyed by id; the sequence is the
// lookup key at dispatch time. Inactive bindings stay listed for UI display
// but are excluded from matching.
//
// # Collisions
//
// Two active bindings may share a sequence, and a short binding may be a
// prefix of a longer one. Neither is an error: the registry reports both
// through the OnCollision callback at registration time and resolves
// duplicate sequences at lookup time by latest registration wins.
//
// # Usage
//
//	reg := shortcut.NewRegistry()
//	id, err := reg.Register(shortcut.Binding{
//	    Keys:        "g d",
//	    Description: "Go to dashboard",
//	    Category:    "Navigation",
//	    Handler:     func() error { return nav("dashboard") },
//	})
//
//	if b, ok := reg.Lookup(seq); ok {
//	    err := b.Handler()
//	}
package shortcut
