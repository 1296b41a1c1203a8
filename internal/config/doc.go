// Package config loads keycast settings and binding definitions.
//
// Settings (debounce timeout, match policy, palette history size) come
// from a TOML file. Binding definitions live in a separate JSON or YAML
// file, chosen by extension, mapping key sequences to named actions; the
// caller supplies the action table when applying them to a registry.
//
// A Watcher reloads the bindings file when it changes on disk, with a
// short debounce so editors that write in several steps trigger one
// reload.
package config
