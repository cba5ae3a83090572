package mtxt

import "testing"

func TestNoteTargetString(t *testing.T) {
	n := NewNote("C", 4, Natural)
	if got, want := n.String(), "C4"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	sharp := NewNote("F", 3, Sharp)
	if got, want := sharp.String(), "F#3"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if !Rest.IsRest() {
		t.Error("Rest.IsRest() = false, want true")
	}

	chord := NewChord([]NoteTarget{NewNote("C", 4, Natural), NewNote("E", 4, Natural)})
	if !chord.IsChord() {
		t.Error("expected chord")
	}
	if len(chord.Notes()) != 2 {
		t.Errorf("Notes() len = %d, want 2", len(chord.Notes()))
	}
}

func TestVersionString(t *testing.T) {
	if got, want := V1.String(), "1.0"; got != want {
		t.Errorf("V1.String() = %q, want %q", got, want)
	}
}
