package gm

import (
	"fmt"
	"strconv"
	"strings"
)

// controllerNames maps the common MIDI CC numbers to the textual names used
// in MTXT's ControlChange records. CCs not listed here round-trip as
// "cc<N>".
var controllerNames = map[uint8]string{
	0:   "bankselect",
	1:   "modulation",
	2:   "breath",
	4:   "foot",
	5:   "portamentotime",
	6:   "dataentry",
	7:   "volume",
	8:   "balance",
	10:  "pan",
	11:  "expression",
	64:  "sustain",
	65:  "portamento",
	66:  "sostenuto",
	67:  "soft",
	71:  "resonance",
	72:  "release",
	73:  "attack",
	74:  "cutoff",
	84:  "portamentocontrol",
	91:  "reverb",
	93:  "chorus",
	120: "allsoundoff",
	121: "resetcontrollers",
	123: "allnotesoff",
}

var controllerNumbers = func() map[string]uint8 {
	m := make(map[string]uint8, len(controllerNames))
	for n, name := range controllerNames {
		m[name] = n
	}
	return m
}()

// Pitch and Aftertouch are controller names with no CC number: they map to
// their own dedicated SMF channel-voice message types instead.
const (
	Pitch      = "pitch"
	Aftertouch = "aftertouch"
)

// ControllerName returns the MTXT controller name for a MIDI CC number,
// falling back to "cc<N>" for numbers with no canonical name.
func ControllerName(cc uint8) string {
	if name, ok := controllerNames[cc]; ok {
		return name
	}
	return fmt.Sprintf("cc%d", cc)
}

// ControllerNumber reverses ControllerName, also accepting the "cc<N>"
// fallback form. It fails with UnknownController-class information when
// name matches neither a known name nor the cc<N> pattern.
func ControllerNumber(name string) (uint8, error) {
	if n, ok := controllerNumbers[name]; ok {
		return n, nil
	}
	if rest, ok := strings.CutPrefix(name, "cc"); ok {
		v, err := strconv.ParseUint(rest, 10, 8)
		if err == nil {
			return uint8(v), nil
		}
	}
	return 0, fmt.Errorf("unknown controller name: %q", name)
}
