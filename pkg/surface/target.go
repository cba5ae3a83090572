package surface

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// parseTarget parses a note-target literal: "rest", a single pitch like
// "C4" or "F#3" or "Bb5", or a parenthesized comma-separated chord like
// "(C4,E4,G4)".
func parseTarget(s string) (mtxt.NoteTarget, error) {
	if s == "rest" {
		return mtxt.Rest, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := s[1 : len(s)-1]
		parts := strings.Split(inner, ",")
		notes := make([]mtxt.NoteTarget, 0, len(parts))
		for _, p := range parts {
			n, err := parseTarget(p)
			if err != nil {
				return mtxt.NoteTarget{}, err
			}
			notes = append(notes, n)
		}
		return mtxt.NewChord(notes), nil
	}
	return parseSinglePitch(s)
}

func parseSinglePitch(s string) (mtxt.NoteTarget, error) {
	if len(s) < 2 {
		return mtxt.NoteTarget{}, fmt.Errorf("malformed note target %q", s)
	}
	pitch := strings.ToUpper(s[:1])
	if pitch < "A" || pitch > "G" {
		return mtxt.NoteTarget{}, fmt.Errorf("invalid pitch letter in %q", s)
	}
	rest := s[1:]
	accidental := mtxt.Natural
	switch {
	case strings.HasPrefix(rest, "#"):
		accidental = mtxt.Sharp
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		accidental = mtxt.Flat
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return mtxt.NoteTarget{}, fmt.Errorf("invalid octave in %q: %w", s, err)
	}
	return mtxt.NewNote(pitch, octave, accidental), nil
}
