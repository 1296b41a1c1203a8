package macro

import (
	"fmt"
	"sync/atomic"

	"github.com/dshills/keycast/internal/key"
)

// Sink receives replayed key events, typically the dispatcher's
// HandleKey.
type Sink func(event key.Event)

// Player replays recorded macros from a Recorder's registers.
type Player struct {
	recorder *Recorder
	playing  atomic.Bool
}

// NewPlayer creates a player over the given recorder.
func NewPlayer(recorder *Recorder) *Player {
	return &Player{recorder: recorder}
}

// Play replays a register's events into the sink count times (minimum
// 1), synchronously. It fails on an invalid or empty register, while a
// recording is active, or while another replay is running.
func (p *Player) Play(register rune, count int, sink Sink) error {
	if !IsValidRegister(register) {
		return fmt.Errorf("invalid register: %c", register)
	}
	if sink == nil {
		return fmt.Errorf("sink cannot be nil")
	}
	if p.recorder.IsRecording() {
		return fmt.Errorf("cannot replay while recording")
	}

	events := p.recorder.Get(register)
	if len(events) == 0 {
		return fmt.Errorf("empty register: %c", register)
	}

	if count < 1 {
		count = 1
	}

	if !p.playing.CompareAndSwap(false, true) {
		return fmt.Errorf("already playing a macro")
	}
	defer p.playing.Store(false)

	for i := 0; i < count; i++ {
		for _, event := range events {
			sink(event)
		}
	}

	p.recorder.setLastPlayed(register)
	return nil
}

// PlayLast replays the most recently played register again.
func (p *Player) PlayLast(count int, sink Sink) error {
	last := p.recorder.LastPlayed()
	if last == 0 {
		return fmt.Errorf("no macro has been played")
	}
	return p.Play(last, count, sink)
}

// IsPlaying reports whether a replay is in progress.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}
