// Package macro records and replays key event sequences.
//
// Macros live in named registers: lowercase letters a-z and digits 0-9.
// A Recorder captures events into one register at a time, typically fed
// from the dispatcher's Tap. A Player replays a register's events into a
// sink, usually the dispatcher's HandleKey, repeating the sequence a
// requested number of times.
//
// Playback refuses to start while a recording is active so a macro
// cannot capture its own replay.
package macro
