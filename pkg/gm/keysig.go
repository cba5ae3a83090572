package gm

import "fmt"

// keySigEntry is one row of the standard 30-entry circle-of-fifths table:
// every valid SMF key signature (sharpsOrFlats in -7..7, major or minor)
// together with its text rendering.
type keySigEntry struct {
	sharpsOrFlats int8
	isMinor       bool
	text          string
}

var keySigTable = []keySigEntry{
	{-7, false, "C♭ maj."}, {-6, false, "G♭ maj."}, {-5, false, "D♭ maj."}, {-4, false, "A♭ maj."},
	{-3, false, "E♭ maj."}, {-2, false, "B♭ maj."}, {-1, false, "F maj."}, {0, false, "C maj."},
	{1, false, "G maj."}, {2, false, "D maj."}, {3, false, "A maj."}, {4, false, "E maj."},
	{5, false, "B maj."}, {6, false, "F♯ maj."}, {7, false, "C♯ maj."},
	{-7, true, "A♭ min."}, {-6, true, "E♭ min."}, {-5, true, "B♭ min."}, {-4, true, "F min."},
	{-3, true, "C min."}, {-2, true, "G min."}, {-1, true, "D min."}, {0, true, "A min."},
	{1, true, "E min."}, {2, true, "B min."}, {3, true, "F♯ min."}, {4, true, "C♯ min."},
	{5, true, "G♯ min."}, {6, true, "D♯ min."}, {7, true, "A♯ min."},
}

// KeySignatureText renders a key signature (signed sharps/flats, major or
// minor) as the text stored in a GlobalMeta/Meta "key"/"keysignature" value,
// e.g. "D maj." or "B♭ min.".
func KeySignatureText(sharpsOrFlats int8, isMinor bool) string {
	for _, e := range keySigTable {
		if e.sharpsOrFlats == sharpsOrFlats && e.isMinor == isMinor {
			return e.text
		}
	}
	return fmt.Sprintf("unknown(%d,%v)", sharpsOrFlats, isMinor)
}

// ParseKeySignatureText reverses KeySignatureText.
func ParseKeySignatureText(s string) (sharpsOrFlats int8, isMinor bool, err error) {
	for _, e := range keySigTable {
		if e.text == s {
			return e.sharpsOrFlats, e.isMinor, nil
		}
	}
	return 0, false, fmt.Errorf("invalid key signature text: %q", s)
}
