package smfcodec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// buildSMF assembles a minimal single-track Standard MIDI File from raw
// already-encoded track event bytes (deltas + message bytes back to back).
func buildSMF(ppq uint16, track []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("MThd")
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, ppq)
	buf.WriteString("MTrk")
	binary.Write(&buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)
	return buf.Bytes()
}

func TestToMTXTSingleNote(t *testing.T) {
	track := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 120 BPM
		0x00, 0x90, 0x3C, 0x40, // note on, middle C, velocity 64
		0x83, 0x60, 0x80, 0x3C, 0x00, // 480 ticks later, note off
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}
	data := buildSMF(480, track)

	records, err := ToMTXT(data)
	if err != nil {
		t.Fatalf("ToMTXT failed: %v", err)
	}

	var sawTempo, sawNote bool
	for _, rec := range records {
		switch r := rec.(type) {
		case mtxt.Tempo:
			sawTempo = true
			if r.BPM < 119.9 || r.BPM > 120.1 {
				t.Errorf("tempo = %v, want ~120", r.BPM)
			}
		case mtxt.Note:
			sawNote = true
			if r.Target.Pitch() != "C" || r.Target.Octave() != 4 {
				t.Errorf("note target = %s, want C4", r.Target)
			}
			if d := r.Duration.Float64(); d < 0.99 || d > 1.01 {
				t.Errorf("duration = %v, want ~1 beat", d)
			}
			if r.Velocity == nil || *r.Velocity < 0.49 || *r.Velocity > 0.51 {
				t.Errorf("velocity = %v, want ~0.5", r.Velocity)
			}
			if r.Channel == nil || *r.Channel != 0 {
				t.Errorf("channel = %v, want 0", r.Channel)
			}
		}
	}
	if !sawTempo {
		t.Error("expected a Tempo record")
	}
	if !sawNote {
		t.Error("expected a Note record")
	}
}

func TestToMTXTTrackNameBecomesTitle(t *testing.T) {
	name := []byte("My Song")
	track := append([]byte{0x00, 0xFF, 0x03, byte(len(name))}, name...)
	track = append(track, 0x00, 0xFF, 0x2F, 0x00)
	data := buildSMF(480, track)

	records, err := ToMTXT(data)
	if err != nil {
		t.Fatalf("ToMTXT failed: %v", err)
	}

	found := false
	for _, rec := range records {
		if g, ok := rec.(mtxt.GlobalMeta); ok && g.Type == "title" {
			found = true
			if g.Value != "My Song" {
				t.Errorf("title = %q, want %q", g.Value, "My Song")
			}
		}
	}
	if !found {
		t.Error("expected a title GlobalMeta record")
	}
}

func TestToMTXTControlChange(t *testing.T) {
	track := []byte{
		0x00, 0xB0, 0x07, 0x7F, // channel 0 volume = 127
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := buildSMF(480, track)

	records, err := ToMTXT(data)
	if err != nil {
		t.Fatalf("ToMTXT failed: %v", err)
	}

	found := false
	for _, rec := range records {
		if cc, ok := rec.(mtxt.ControlChange); ok {
			found = true
			if cc.Controller != "volume" {
				t.Errorf("controller = %q, want %q", cc.Controller, "volume")
			}
			if cc.Value < 0.99 || cc.Value > 1.01 {
				t.Errorf("value = %v, want ~1.0", cc.Value)
			}
		}
	}
	if !found {
		t.Error("expected a ControlChange record")
	}
}
