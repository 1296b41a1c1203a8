// Package key defines the key event model for keycast.
//
// A single keystroke is an Event: a Key (or rune for character keys) plus a
// Modifier bitmask. Ordered Events form a Sequence, the unit that shortcut
// bindings are keyed by.
//
// Binding specs are parsed from strings in several formats:
//
//	"j"          - single character
//	"g d"        - multi-key sequence, space separated
//	"?"          - punctuation works like any character
//	"<C-s>"      - Vim-style modifier notation
//	"Ctrl+Shift+P" - readable modifier notation
//
// Sequences match by exact event equality; Timestamp never participates in
// comparison.
package key
