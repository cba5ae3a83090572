package surface

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mtxt-tools/mtxtmidi/pkg/escape"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// Write renders a canonical record list as MTXT text, one record per line.
func Write(w io.Writer, records []mtxt.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		line, err := formatRecord(rec)
		if err != nil {
			return mtxt.WrapError(mtxt.InputParse, err, "formatting record")
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return mtxt.WrapError(mtxt.Io, err, "writing MTXT")
		}
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withChannel(line string, channel *uint8) string {
	if channel == nil {
		return line
	}
	return fmt.Sprintf("%s @%d", line, *channel)
}

func formatRecord(rec mtxt.Record) (string, error) {
	switch r := rec.(type) {
	case mtxt.Header:
		return fmt.Sprintf("mtxt %s", r.Version), nil

	case mtxt.GlobalMeta:
		return fmt.Sprintf("meta %s \"%s\"", r.Type, escape.Escape(r.Value)), nil

	case mtxt.Meta:
		body := fmt.Sprintf("meta %s \"%s\"", r.Type, escape.Escape(r.Value))
		if r.Time != nil {
			body = fmt.Sprintf("%s %s", r.Time.String(), body)
		}
		return withChannel(body, r.Channel), nil

	case mtxt.Note:
		fields := []string{r.Time.String(), "note", r.Target.String(), "dur=" + r.Duration.String()}
		if r.Velocity != nil {
			fields = append(fields, "vel="+formatFloat(*r.Velocity))
		}
		if r.OffVelocity != nil {
			fields = append(fields, "offvel="+formatFloat(*r.OffVelocity))
		}
		return withChannel(strings.Join(fields, " "), r.Channel), nil

	case mtxt.NoteOn:
		fields := []string{r.Time.String(), "noteon", r.Target.String()}
		if r.Velocity != nil {
			fields = append(fields, "vel="+formatFloat(*r.Velocity))
		}
		return withChannel(strings.Join(fields, " "), r.Channel), nil

	case mtxt.NoteOff:
		fields := []string{r.Time.String(), "noteoff", r.Target.String()}
		if r.Velocity != nil {
			fields = append(fields, "vel="+formatFloat(*r.Velocity))
		}
		return withChannel(strings.Join(fields, " "), r.Channel), nil

	case mtxt.ControlChange:
		body := fmt.Sprintf("%s cc %s %s", r.Time.String(), r.Controller, formatFloat(r.Value))
		return withChannel(body, r.Channel), nil

	case mtxt.Voice:
		body := fmt.Sprintf("%s voice %s", r.Time.String(), strings.Join(r.Voices, ","))
		return withChannel(body, r.Channel), nil

	case mtxt.Tempo:
		return fmt.Sprintf("%s tempo %s", r.Time.String(), formatFloat(r.BPM)), nil

	case mtxt.TimeSignatureRecord:
		return fmt.Sprintf("%s timesig %d/%d", r.Time.String(), r.Signature.Numerator, r.Signature.Denominator), nil

	case mtxt.SysEx:
		return fmt.Sprintf("%s sysex %s", r.Time.String(), hexEncode(r.Data)), nil

	case mtxt.Directive:
		if len(r.Args) == 0 {
			return "!" + r.Name, nil
		}
		return fmt.Sprintf("!%s %s", r.Name, strings.Join(r.Args, " ")), nil
	}
	return "", fmt.Errorf("unknown record kind %T", rec)
}
