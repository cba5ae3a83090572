package smfcodec

import (
	"bytes"
	"testing"
)

func TestVLQRoundTrip(t *testing.T) {
	tests := []uint32{0, 1, 127, 128, 16383, 16384, maxDelta}

	for _, v := range tests {
		encoded := encodeVLQ(v)
		got, n := decodeVLQ(encoded)
		if got != v || n != len(encoded) {
			t.Errorf("VLQ round trip for %d: got value=%d consumed=%d, want value=%d consumed=%d",
				v, got, n, v, len(encoded))
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x1FFFFF, []byte{0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		if got := encodeVLQ(tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("encodeVLQ(0x%X) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestMetaBuildParseRoundTrip(t *testing.T) {
	msg := buildMeta(metaTrackName, []byte("a track name"))
	typ, data, ok := parseMeta(msg)
	if !ok {
		t.Fatal("parseMeta reported !ok for a freshly built meta event")
	}
	if typ != metaTrackName {
		t.Errorf("typ = 0x%02X, want 0x%02X", typ, metaTrackName)
	}
	if string(data) != "a track name" {
		t.Errorf("data = %q, want %q", data, "a track name")
	}
}

func TestHexRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x7F, 0xAB, 0xCD}
	s := hexUpper(data)
	back, err := unhex(s)
	if err != nil {
		t.Fatalf("unhex(%q) failed: %v", s, err)
	}
	if !bytes.Equal(back, data) {
		t.Errorf("round trip % X -> %q -> % X", data, s, back)
	}
}

func TestUnhexRejectsOddLength(t *testing.T) {
	if _, err := unhex("ABC"); err == nil {
		t.Error("expected error for odd-length hex string")
	}
}
