package macro

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/keycast/internal/key"
)

// Recorder records key sequences into registers.
type Recorder struct {
	mu         sync.Mutex
	recording  bool
	register   rune
	events     []key.Event
	registers  map[rune][]key.Event
	lastPlayed rune
}

// NewRecorder creates a recorder with empty registers.
func NewRecorder() *Recorder {
	return &Recorder{
		registers: make(map[rune][]key.Event),
	}
}

// StartRecording begins recording into the given register. It fails when
// a recording is already active or the register name is invalid.
func (r *Recorder) StartRecording(register rune) error {
	if !IsValidRegister(register) {
		return fmt.Errorf("invalid register: %c", register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("already recording to register %c", r.register)
	}

	r.recording = true
	r.register = register
	r.events = nil
	return nil
}

// StopRecording ends the recording and stores it in its register.
// An empty recording leaves the register untouched. Returns the recorded
// events, nil when no recording was active.
func (r *Recorder) StopRecording() []key.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	r.recording = false

	if len(r.events) > 0 {
		saved := make([]key.Event, len(r.events))
		copy(saved, r.events)
		r.registers[r.register] = saved
	}

	result := r.events
	r.events = nil
	return result
}

// IsRecording reports whether a recording is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentRegister returns the register being recorded to, 0 when idle.
func (r *Recorder) CurrentRegister() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return r.register
}

// Record appends an event to the active recording. No-op when idle, so
// it can sit unconditionally on the dispatcher's Tap.
func (r *Recorder) Record(event key.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.events = append(r.events, event)
	}
}

// Get returns a copy of a register's events, empty when unset.
func (r *Recorder) Get(register rune) []key.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.registers[register]
	result := make([]key.Event, len(events))
	copy(result, events)
	return result
}

// Set replaces a register's events. Empty events clear the register.
func (r *Recorder) Set(register rune, events []key.Event) error {
	if !IsValidRegister(register) {
		return fmt.Errorf("invalid register: %c", register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(events) == 0 {
		delete(r.registers, register)
		return nil
	}

	saved := make([]key.Event, len(events))
	copy(saved, events)
	r.registers[register] = saved
	return nil
}

// Clear empties a register.
func (r *Recorder) Clear(register rune) error {
	if !IsValidRegister(register) {
		return fmt.Errorf("invalid register: %c", register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registers, register)
	return nil
}

// ClearAll empties every register.
func (r *Recorder) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers = make(map[rune][]key.Event)
}

// HasMacro reports whether a register holds events.
func (r *Recorder) HasMacro(register rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers[register]) > 0
}

// Registers returns the names of non-empty registers, sorted.
func (r *Recorder) Registers() []rune {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]rune, 0, len(r.registers))
	for reg, events := range r.registers {
		if len(events) > 0 {
			result = append(result, reg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// LastPlayed returns the register of the most recent successful replay,
// 0 when nothing has been played. Supports repeat-last-macro.
func (r *Recorder) LastPlayed() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPlayed
}

// setLastPlayed records the register of a completed replay.
func (r *Recorder) setLastPlayed(register rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPlayed = register
}
