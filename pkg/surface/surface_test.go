package surface

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mtxt-tools/mtxtmidi/pkg/beat"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

func TestParseHeaderAndMeta(t *testing.T) {
	input := `mtxt 1.0
meta title "Test Song"
# a comment line
`
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if _, ok := records[0].(mtxt.Header); !ok {
		t.Errorf("records[0] = %T, want Header", records[0])
	}
	g, ok := records[1].(mtxt.GlobalMeta)
	if !ok {
		t.Fatalf("records[1] = %T, want GlobalMeta", records[1])
	}
	if g.Type != "title" || g.Value != "Test Song" {
		t.Errorf("meta = %+v, want title=%q", g, "Test Song")
	}
}

func TestParseNoteWithChannel(t *testing.T) {
	input := "mtxt 1.0\n1.5 note C4 dur=1 vel=0.8 @3\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	note, ok := records[1].(mtxt.Note)
	if !ok {
		t.Fatalf("records[1] = %T, want Note", records[1])
	}
	if note.Target.Pitch() != "C" || note.Target.Octave() != 4 {
		t.Errorf("target = %s, want C4", note.Target)
	}
	if note.Channel == nil || *note.Channel != 3 {
		t.Errorf("channel = %v, want 3", note.Channel)
	}
	if note.Velocity == nil || *note.Velocity != 0.8 {
		t.Errorf("velocity = %v, want 0.8", note.Velocity)
	}
	if note.Duration.Float64() != 1.0 {
		t.Errorf("duration = %v, want 1", note.Duration.Float64())
	}
}

func TestParseRestAndChord(t *testing.T) {
	input := "mtxt 1.0\n0 note rest dur=1\n1 note (C4,E4,G4) dur=1\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rest := records[1].(mtxt.Note)
	if !rest.Target.IsRest() {
		t.Error("expected a rest target")
	}
	chord := records[2].(mtxt.Note)
	if !chord.Target.IsChord() || len(chord.Target.Notes()) != 3 {
		t.Errorf("expected a 3-note chord, got %s", chord.Target)
	}
}

func TestParseBeatExpression(t *testing.T) {
	input := "mtxt 1.0\n1/2*2/3+1.25 note C4 dur=1\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	note := records[1].(mtxt.Note)
	got := note.Time.Float64()
	if got < 1.58 || got > 1.59 {
		t.Errorf("time = %v, want ~1.5833", got)
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	if _, err := Parse(strings.NewReader("0 note C4 dur=1\n")); err == nil {
		t.Error("expected an error for a missing header")
	}
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	vel := 0.5
	ch := uint8(2)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.GlobalMeta{Type: "title", Value: "Round Trip \"Test\""},
		mtxt.Note{
			Time: beat.FromFloat64(2), Target: mtxt.NewNote("D", 3, mtxt.Sharp),
			Duration: beat.FromFloat64(0.5), Velocity: &vel, Channel: &ch,
		},
		mtxt.Tempo{Time: beat.FromFloat64(0), BPM: 96},
		mtxt.SysEx{Time: beat.FromFloat64(1), Data: []byte{0xF0, 0x7E, 0x7F, 0xF7}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	back, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse of written output failed: %v\n%s", err, buf.String())
	}
	if len(back) != len(records) {
		t.Fatalf("got %d records back, want %d\n%s", len(back), len(records), buf.String())
	}

	note, ok := back[2].(mtxt.Note)
	if !ok {
		t.Fatalf("back[2] = %T, want Note", back[2])
	}
	if note.Target.Pitch() != "D" || note.Target.Octave() != 3 {
		t.Errorf("target = %s, want D#3", note.Target)
	}
	if note.Channel == nil || *note.Channel != 2 {
		t.Errorf("channel = %v, want 2", note.Channel)
	}
	if note.Velocity == nil || *note.Velocity != 0.5 {
		t.Errorf("velocity = %v, want 0.5", note.Velocity)
	}

	tempo, ok := back[3].(mtxt.Tempo)
	if !ok || tempo.BPM != 96 {
		t.Errorf("tempo = %+v, want bpm=96", back[3])
	}

	sysex, ok := back[4].(mtxt.SysEx)
	if !ok || !bytes.Equal(sysex.Data, []byte{0xF0, 0x7E, 0x7F, 0xF7}) {
		t.Errorf("sysex = %+v, want F0 7E 7F F7", back[4])
	}
}

func TestControlChangeAndVoiceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ch := uint8(1)
	records := []mtxt.Record{
		mtxt.Header{Version: mtxt.V1},
		mtxt.ControlChange{Controller: "volume", Value: 1.0, Channel: &ch},
		mtxt.Voice{Voices: []string{"1"}, Channel: &ch},
	}
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	back, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse of written output failed: %v\n%s", err, buf.String())
	}
	cc, ok := back[1].(mtxt.ControlChange)
	if !ok || cc.Controller != "volume" || cc.Value != 1.0 {
		t.Errorf("cc = %+v, want controller=volume value=1.0", back[1])
	}
	voice, ok := back[2].(mtxt.Voice)
	if !ok || len(voice.Voices) != 1 || voice.Voices[0] != "1" {
		t.Errorf("voice = %+v", back[2])
	}
}
