// Package terminal bridges tcell terminal input into key events.
//
// Translate converts a tcell key event into the engine's form; Pump
// polls a tcell screen and feeds translated events into a sink until its
// context ends. The rest of the engine never sees tcell types, so other
// event sources plug in the same way.
package terminal
