// Package gm holds the shared mapping tables between MIDI's numeric and
// MTXT's textual vocabularies: note names, controller names, and key
// signatures.
package gm

import (
	"fmt"

	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// semitone is the semitone offset of each natural pitch letter within an
// octave, middle C (MIDI key 60) falling on octave 4.
var semitone = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// sharpNames are the canonical note names MIDIToNote produces for the five
// black keys, preferring sharps over enharmonic flats.
var sharpNames = [12]struct {
	pitch      string
	accidental mtxt.Accidental
}{
	{"C", mtxt.Natural}, {"C", mtxt.Sharp}, {"D", mtxt.Natural}, {"D", mtxt.Sharp},
	{"E", mtxt.Natural}, {"F", mtxt.Natural}, {"F", mtxt.Sharp}, {"G", mtxt.Natural},
	{"G", mtxt.Sharp}, {"A", mtxt.Natural}, {"A", mtxt.Sharp}, {"B", mtxt.Natural},
}

// NoteToMIDI converts a single-pitch NoteTarget to a MIDI key number (0-127).
func NoteToMIDI(n mtxt.NoteTarget) (uint8, error) {
	if n.IsRest() || n.IsChord() {
		return 0, fmt.Errorf("NoteToMIDI: target is not a single pitch: %s", n)
	}
	base, ok := semitone[n.Pitch()]
	if !ok {
		return 0, fmt.Errorf("NoteToMIDI: unknown pitch letter %q", n.Pitch())
	}
	offset := base
	switch n.NoteAccidental() {
	case mtxt.Sharp:
		offset++
	case mtxt.Flat:
		offset--
	}
	key := (n.Octave()+1)*12 + offset
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("NoteToMIDI: %s is outside MIDI range 0-127 (key=%d)", n, key)
	}
	return uint8(key), nil
}

// MIDIToNote converts a MIDI key number to a NoteTarget, preferring sharps
// for the five non-natural semitones.
func MIDIToNote(key uint8) mtxt.NoteTarget {
	octave := int(key)/12 - 1
	entry := sharpNames[int(key)%12]
	return mtxt.NewNote(entry.pitch, octave, entry.accidental)
}
