package macro

import (
	"testing"

	"github.com/dshills/keycast/internal/key"
)

func runes(s string) []key.Event {
	events := make([]key.Event, 0, len(s))
	for _, r := range s {
		events = append(events, key.NewRuneEvent(r, key.ModNone))
	}
	return events
}

func TestIsValidRegister(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{'a', true},
		{'z', true},
		{'0', true},
		{'9', true},
		{'A', false},
		{'?', false},
		{' ', false},
	}

	for _, tt := range tests {
		if got := IsValidRegister(tt.r); got != tt.want {
			t.Errorf("IsValidRegister(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestNormalizeRegister(t *testing.T) {
	if got := NormalizeRegister('Q'); got != 'q' {
		t.Errorf("NormalizeRegister('Q') = %q, want 'q'", got)
	}
	if got := NormalizeRegister('!'); got != 0 {
		t.Errorf("NormalizeRegister('!') = %q, want 0", got)
	}
}

func TestRecordAndGet(t *testing.T) {
	r := NewRecorder()

	if err := r.StartRecording('a'); err != nil {
		t.Fatalf("StartRecording error = %v", err)
	}
	if !r.IsRecording() || r.CurrentRegister() != 'a' {
		t.Fatal("recorder should report an active recording to a")
	}

	for _, ev := range runes("gd") {
		r.Record(ev)
	}

	recorded := r.StopRecording()
	if len(recorded) != 2 {
		t.Fatalf("recorded %d events, want 2", len(recorded))
	}

	got := r.Get('a')
	if len(got) != 2 || got[0].Rune != 'g' || got[1].Rune != 'd' {
		t.Errorf("Get('a') = %v, want the g d recording", got)
	}
}

func TestRecordIgnoredWhenIdle(t *testing.T) {
	r := NewRecorder()
	r.Record(key.NewRuneEvent('x', key.ModNone))

	if len(r.Registers()) != 0 {
		t.Error("recording while idle should store nothing")
	}
}

func TestStartRecordingWhileActive(t *testing.T) {
	r := NewRecorder()
	if err := r.StartRecording('a'); err != nil {
		t.Fatalf("StartRecording error = %v", err)
	}
	if err := r.StartRecording('b'); err == nil {
		t.Error("second StartRecording should fail")
	}
}

func TestEmptyRecordingKeepsRegister(t *testing.T) {
	r := NewRecorder()
	if err := r.Set('a', runes("x")); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	if err := r.StartRecording('a'); err != nil {
		t.Fatalf("StartRecording error = %v", err)
	}
	r.StopRecording() // nothing recorded

	if !r.HasMacro('a') {
		t.Error("an empty recording should not clear the register")
	}
}

func TestPlayRepeatsIntoSink(t *testing.T) {
	r := NewRecorder()
	if err := r.Set('q', runes("ab")); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	p := NewPlayer(r)
	var replayed []rune
	err := p.Play('q', 3, func(ev key.Event) {
		replayed = append(replayed, ev.Rune)
	})
	if err != nil {
		t.Fatalf("Play error = %v", err)
	}

	want := "ababab"
	if string(replayed) != want {
		t.Errorf("replayed = %q, want %q", string(replayed), want)
	}
}

func TestPlayEmptyRegister(t *testing.T) {
	p := NewPlayer(NewRecorder())
	if err := p.Play('q', 1, func(key.Event) {}); err == nil {
		t.Error("Play should fail on an empty register")
	}
}

func TestPlayWhileRecording(t *testing.T) {
	r := NewRecorder()
	if err := r.Set('q', runes("a")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := r.StartRecording('w'); err != nil {
		t.Fatalf("StartRecording error = %v", err)
	}

	p := NewPlayer(r)
	if err := p.Play('q', 1, func(key.Event) {}); err == nil {
		t.Error("Play should refuse while a recording is active")
	}
}

func TestPlayLast(t *testing.T) {
	r := NewRecorder()
	if err := r.Set('q', runes("a")); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	p := NewPlayer(r)
	if err := p.PlayLast(1, func(key.Event) {}); err == nil {
		t.Error("PlayLast should fail before any replay")
	}

	if err := p.Play('q', 1, func(key.Event) {}); err != nil {
		t.Fatalf("Play error = %v", err)
	}

	var n int
	if err := p.PlayLast(2, func(key.Event) { n++ }); err != nil {
		t.Fatalf("PlayLast error = %v", err)
	}
	if n != 2 {
		t.Errorf("PlayLast replayed %d events, want 2", n)
	}
}

func TestRegistersSorted(t *testing.T) {
	r := NewRecorder()
	for _, reg := range []rune{'z', '3', 'a'} {
		if err := r.Set(reg, runes("x")); err != nil {
			t.Fatalf("Set error = %v", err)
		}
	}

	got := r.Registers()
	want := []rune{'3', 'a', 'z'}
	if len(got) != len(want) {
		t.Fatalf("Registers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Registers() = %q, want %q", got, want)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRecorder()
	if err := r.Set('a', runes("ab")); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	got := r.Get('a')
	got[0] = key.NewRuneEvent('z', key.ModNone)

	if r.Get('a')[0].Rune != 'a' {
		t.Error("mutating the returned slice must not affect the register")
	}
}
