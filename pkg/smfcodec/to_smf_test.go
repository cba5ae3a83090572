package smfcodec

import (
	"bytes"
	"testing"

	"github.com/mtxt-tools/mtxtmidi/pkg/beat"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

func TestToSMFProducesValidHeader(t *testing.T) {
	vel := 0.5
	ch := uint8(0)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.Tempo{Time: beat.Zero, BPM: 120},
		mtxt.Note{
			Time:     beat.Zero,
			Target:   mtxt.NewNote("C", 4, mtxt.Natural),
			Duration: beat.Time{Whole: 1},
			Velocity: &vel,
			Channel:  &ch,
		},
	}

	data, err := ToSMF(records)
	if err != nil {
		t.Fatalf("ToSMF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Errorf("output does not start with MThd header, got % X", data[:min(8, len(data))])
	}
}

func TestToSMFRoundTripsThroughToMTXT(t *testing.T) {
	vel := 0.5
	ch := uint8(0)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.Tempo{Time: beat.Zero, BPM: 120},
		mtxt.Note{
			Time:     beat.Zero,
			Target:   mtxt.NewNote("C", 4, mtxt.Natural),
			Duration: beat.Time{Whole: 1},
			Velocity: &vel,
			Channel:  &ch,
		},
	}

	data, err := ToSMF(records)
	if err != nil {
		t.Fatalf("ToSMF failed: %v", err)
	}

	back, err := ToMTXT(data)
	if err != nil {
		t.Fatalf("ToMTXT on generated SMF failed: %v", err)
	}

	var sawNote bool
	for _, rec := range back {
		if n, ok := rec.(mtxt.Note); ok {
			sawNote = true
			if n.Target.Pitch() != "C" || n.Target.Octave() != 4 {
				t.Errorf("round-tripped note = %s, want C4", n.Target)
			}
		}
	}
	if !sawNote {
		t.Error("expected a Note record after round trip")
	}
}

func TestToSMFOrdersEventsByAbsoluteTimeNotNoteDuration(t *testing.T) {
	ch := uint8(0)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.Tempo{Time: beat.Zero, BPM: 120},
		mtxt.Note{
			Time:     beat.Zero,
			Target:   mtxt.NewNote("C", 4, mtxt.Natural),
			Duration: beat.Time{Whole: 4},
			Channel:  &ch,
		},
		mtxt.ControlChange{
			Time:       beat.Time{Whole: 1},
			Controller: "volume",
			Value:      0.5,
			Channel:    &ch,
		},
	}

	outputs, err := flatten(records)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	var ccMicros, noteOffMicros uint64
	for _, o := range outputs {
		switch rec := o.(type) {
		case mtxt.OutControlChange:
			ccMicros = rec.Micros()
		case mtxt.OutNoteOff:
			noteOffMicros = rec.Micros()
		}
	}

	// at 120 BPM, beat 1 is 500,000us and beat 4 (the note's end) is 2,000,000us
	if ccMicros != 500000 {
		t.Errorf("cc volume placed at %dus, want 500000us (beat 1, independent of the overlapping note's duration)", ccMicros)
	}
	if ccMicros >= noteOffMicros {
		t.Errorf("cc at %dus should precede the note-off at %dus", ccMicros, noteOffMicros)
	}

	for i := 1; i < len(outputs); i++ {
		if outputs[i].Micros() < outputs[i-1].Micros() {
			t.Fatalf("outputs not sorted by absolute time: %d before %d", outputs[i-1].Micros(), outputs[i].Micros())
		}
	}
}

func TestToSMFHandlesOverlappingNotes(t *testing.T) {
	ch := uint8(0)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.Tempo{Time: beat.Zero, BPM: 120},
		mtxt.Note{
			Time:     beat.Zero,
			Target:   mtxt.NewNote("C", 4, mtxt.Natural),
			Duration: beat.Time{Whole: 2},
			Channel:  &ch,
		},
		mtxt.Note{
			Time:     beat.Time{Whole: 1},
			Target:   mtxt.NewNote("E", 4, mtxt.Natural),
			Duration: beat.Time{Whole: 1},
			Channel:  &ch,
		},
	}

	outputs, err := flatten(records)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	var secondNoteOnMicros uint64
	for _, o := range outputs {
		if on, ok := o.(mtxt.OutNoteOn); ok && on.Target.Pitch() == "E" {
			secondNoteOnMicros = on.Micros()
		}
	}
	// at 120 BPM, beat 1 is 500,000us — the second note starts there
	// regardless of the first note's still-open 2-beat duration.
	if secondNoteOnMicros != 500000 {
		t.Errorf("second note on placed at %dus, want 500000us", secondNoteOnMicros)
	}
}

func TestToSMFRejectsOutOfRangeChannel(t *testing.T) {
	vel := 0.5
	ch := uint8(16)
	records := []mtxt.Record{
		mtxt.NoteOn{Time: beat.Zero, Target: mtxt.NewNote("C", 4, mtxt.Natural), Velocity: &vel, Channel: &ch},
	}
	if _, err := ToSMF(records); err == nil {
		t.Error("expected an error for an out-of-range channel")
	}
}
