package gm

import (
	"testing"

	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

func TestNoteToMIDIMiddleC(t *testing.T) {
	key, err := NoteToMIDI(mtxt.NewNote("C", 4, mtxt.Natural))
	if err != nil {
		t.Fatal(err)
	}
	if key != 60 {
		t.Errorf("middle C = %d, want 60", key)
	}
}

func TestMIDIToNoteRoundTrip(t *testing.T) {
	for key := uint8(0); key < 128; key++ {
		n := MIDIToNote(key)
		back, err := NoteToMIDI(n)
		if err != nil {
			t.Fatalf("NoteToMIDI(%s) failed: %v", n, err)
		}
		if back != key {
			t.Errorf("round trip %d -> %s -> %d", key, n, back)
		}
	}
}

func TestNoteToMIDISharpAndFlat(t *testing.T) {
	sharp, err := NoteToMIDI(mtxt.NewNote("C", 4, mtxt.Sharp))
	if err != nil {
		t.Fatal(err)
	}
	flat, err := NoteToMIDI(mtxt.NewNote("D", 4, mtxt.Flat))
	if err != nil {
		t.Fatal(err)
	}
	if sharp != flat {
		t.Errorf("C#4 (%d) and Db4 (%d) should be the same MIDI key", sharp, flat)
	}
}
