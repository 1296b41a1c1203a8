package key

import "testing"

func TestParseSequence(t *testing.T) {
	tests := []struct {
		spec    string
		wantLen int
	}{
		{"g d", 2},
		{"?", 1},
		{"g p l", 3},
		{"<C-x> <C-s>", 2},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			seq, err := ParseSequence(tt.spec)
			if err != nil {
				t.Fatalf("ParseSequence(%q) error = %v", tt.spec, err)
			}
			if seq.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", seq.Len(), tt.wantLen)
			}
		})
	}
}

func TestSequenceEquals(t *testing.T) {
	a := MustParseSequence("g d")
	b := MustParseSequence("g d")
	c := MustParseSequence("g p")
	d := MustParseSequence("g")

	if !a.Equals(b) {
		t.Error("identical sequences should be equal")
	}
	if a.Equals(c) {
		t.Error("different sequences should not be equal")
	}
	if a.Equals(d) {
		t.Error("prefix should not be equal to the full sequence")
	}
}

func TestSequenceHasPrefix(t *testing.T) {
	full := MustParseSequence("g d")

	if !full.HasPrefix(MustParseSequence("g")) {
		t.Error("g should be a prefix of g d")
	}
	if !full.HasPrefix(MustParseSequence("g d")) {
		t.Error("a sequence is a prefix of itself")
	}
	if full.HasPrefix(MustParseSequence("d")) {
		t.Error("d is not a prefix of g d")
	}
	if full.HasPrefix(MustParseSequence("g d x")) {
		t.Error("longer sequence cannot be a prefix")
	}
	if !full.HasPrefix(NewSequence()) {
		t.Error("empty sequence is a prefix of everything")
	}
}

func TestSequenceString(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"g d", "g d"},
		{"?", "?"},
		{"<C-s>", "C-s"},
		{"<Esc>", "Esc"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := MustParseSequence(tt.spec).String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSequenceClone(t *testing.T) {
	orig := MustParseSequence("g d")
	clone := orig.Clone()

	orig.Add(NewRuneEvent('x', ModNone))

	if clone.Len() != 2 {
		t.Errorf("clone.Len() = %d, want 2 after modifying the original", clone.Len())
	}
}
