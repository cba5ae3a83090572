package gm

import "testing"

func TestKeySignatureTextRoundTrip(t *testing.T) {
	for _, e := range keySigTable {
		text := KeySignatureText(e.sharpsOrFlats, e.isMinor)
		sf, minor, err := ParseKeySignatureText(text)
		if err != nil {
			t.Fatalf("ParseKeySignatureText(%q) failed: %v", text, err)
		}
		if sf != e.sharpsOrFlats || minor != e.isMinor {
			t.Errorf("round trip (%d,%v) -> %q -> (%d,%v)", e.sharpsOrFlats, e.isMinor, text, sf, minor)
		}
	}
}

func TestParseKeySignatureTextInvalid(t *testing.T) {
	if _, _, err := ParseKeySignatureText("Z maj."); err == nil {
		t.Error("expected error for invalid key signature text")
	}
}
