// Package surface implements the minimal MTXT text grammar: a line-oriented
// parser and writer conforming to the shebang/BOM, "mtxt 1.0" header,
// global/timed meta, beat-time-prefixed record, @channel suffix, and
// #-comment rules. It does no macro or directive expansion beyond
// recognizing a Directive line and handing it back uninterpreted.
package surface

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mtxt-tools/mtxtmidi/pkg/beat"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// Parse reads an MTXT text stream into a canonical record list.
func Parse(r io.Reader) ([]mtxt.Record, error) {
	scanner := bufio.NewScanner(r)
	var records []mtxt.Record
	lineNum := 0
	sawHeader := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
			if strings.HasPrefix(line, "#!") {
				continue
			}
		}

		tokens, err := tokenize(line)
		if err != nil {
			return nil, mtxt.WrapError(mtxt.InputParse, err, "line %d", lineNum)
		}
		if len(tokens) == 0 {
			continue
		}

		if !sawHeader {
			ver, err := parseHeader(tokens)
			if err != nil {
				return nil, mtxt.WrapError(mtxt.InputParse, err, "line %d", lineNum)
			}
			records = append(records, mtxt.Header{Version: ver})
			sawHeader = true
			continue
		}

		rec, err := parseRecord(tokens)
		if err != nil {
			return nil, mtxt.WrapError(mtxt.InputParse, err, "line %d", lineNum)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, mtxt.WrapError(mtxt.Io, err, "reading MTXT")
	}
	if !sawHeader {
		return nil, mtxt.NewError(mtxt.InputParse, "missing \"mtxt 1.0\" header")
	}
	return records, nil
}

func parseHeader(tokens []string) (mtxt.Version, error) {
	if len(tokens) != 2 || tokens[0] != "mtxt" {
		return mtxt.Version{}, fmt.Errorf("expected header \"mtxt 1.0\", got %q", strings.Join(tokens, " "))
	}
	parts := strings.SplitN(tokens[1], ".", 2)
	if len(parts) != 2 {
		return mtxt.Version{}, fmt.Errorf("malformed version %q", tokens[1])
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return mtxt.Version{}, fmt.Errorf("invalid major version %q: %w", parts[0], err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return mtxt.Version{}, fmt.Errorf("invalid minor version %q: %w", parts[1], err)
	}
	return mtxt.Version{Major: major, Minor: minor}, nil
}

func parseRecord(tokens []string) (mtxt.Record, error) {
	if strings.HasPrefix(tokens[0], "!") {
		return mtxt.Directive{Name: strings.TrimPrefix(tokens[0], "!"), Args: tokens[1:]}, nil
	}

	if tokens[0] == "meta" {
		return parseMetaLine(tokens)
	}

	channel, tokens, err := stripChannelSuffix(tokens)
	if err != nil {
		return nil, err
	}
	if len(tokens) < 2 {
		return nil, fmt.Errorf("malformed record: %q", strings.Join(tokens, " "))
	}

	expr, err := beat.Parse(tokens[0])
	if err != nil {
		return nil, fmt.Errorf("invalid beat time %q: %w", tokens[0], err)
	}
	t := expr.AsTime()
	kw := tokens[1]
	rest := tokens[2:]

	switch kw {
	case "meta":
		return parseTimedMeta(t, channel, rest)
	case "note":
		return parseNote(t, channel, rest)
	case "noteon":
		return parseNoteOn(t, channel, rest)
	case "noteoff":
		return parseNoteOff(t, channel, rest)
	case "cc":
		return parseCC(t, channel, rest)
	case "voice":
		return parseVoice(t, channel, rest)
	case "tempo":
		return parseTempo(t, rest)
	case "timesig":
		return parseTimeSig(t, rest)
	case "sysex":
		return parseSysEx(t, rest)
	default:
		return nil, fmt.Errorf("unknown record keyword %q", kw)
	}
}

// stripChannelSuffix removes a trailing "@<0-15>" token, if present.
func stripChannelSuffix(tokens []string) (*uint8, []string, error) {
	if len(tokens) == 0 {
		return nil, tokens, nil
	}
	last := tokens[len(tokens)-1]
	if !strings.HasPrefix(last, "@") {
		return nil, tokens, nil
	}
	v, err := strconv.ParseUint(last[1:], 10, 8)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid channel suffix %q: %w", last, err)
	}
	if v > 15 {
		return nil, nil, fmt.Errorf("channel %d out of range 0-15", v)
	}
	ch := uint8(v)
	return &ch, tokens[:len(tokens)-1], nil
}

func parseMetaLine(tokens []string) (mtxt.Record, error) {
	channel, tokens, err := stripChannelSuffix(tokens)
	if err != nil {
		return nil, err
	}
	if len(tokens) != 3 {
		return nil, fmt.Errorf("malformed meta line: expected 3 fields, got %d", len(tokens))
	}
	value, err := unquote(tokens[2])
	if err != nil {
		return nil, err
	}
	if channel != nil {
		return mtxt.Meta{Time: nil, Channel: channel, Type: tokens[1], Value: value}, nil
	}
	return mtxt.GlobalMeta{Type: tokens[1], Value: value}, nil
}

func parseTimedMeta(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) != 2 {
		return nil, fmt.Errorf("malformed meta record: expected type and value, got %d fields", len(rest))
	}
	value, err := unquote(rest[1])
	if err != nil {
		return nil, err
	}
	return mtxt.Meta{Time: &t, Channel: channel, Type: rest[0], Value: value}, nil
}

func parseNote(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("note requires a target")
	}
	target, err := parseTarget(rest[0])
	if err != nil {
		return nil, err
	}
	var duration beat.Time
	var velocity, offVelocity *float64
	sawDur := false
	for _, kv := range rest[1:] {
		key, val, ok := splitKV(kv)
		if !ok {
			return nil, fmt.Errorf("malformed note field %q", kv)
		}
		switch key {
		case "dur":
			d, err := beat.Parse(val)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", val, err)
			}
			duration = d.AsTime()
			sawDur = true
		case "vel":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid velocity %q: %w", val, err)
			}
			velocity = &v
		case "offvel":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid off-velocity %q: %w", val, err)
			}
			offVelocity = &v
		default:
			return nil, fmt.Errorf("unknown note field %q", key)
		}
	}
	if !sawDur {
		return nil, fmt.Errorf("note requires dur=...")
	}
	return mtxt.Note{
		Time: t, Target: target, Duration: duration,
		Velocity: velocity, OffVelocity: offVelocity, Channel: channel,
	}, nil
}

func parseNoteOn(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("noteon requires a target")
	}
	target, err := parseTarget(rest[0])
	if err != nil {
		return nil, err
	}
	var velocity *float64
	for _, kv := range rest[1:] {
		key, val, ok := splitKV(kv)
		if !ok || key != "vel" {
			return nil, fmt.Errorf("unknown noteon field %q", kv)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid velocity %q: %w", val, err)
		}
		velocity = &v
	}
	return mtxt.NoteOn{Time: t, Target: target, Velocity: velocity, Channel: channel}, nil
}

func parseNoteOff(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("noteoff requires a target")
	}
	target, err := parseTarget(rest[0])
	if err != nil {
		return nil, err
	}
	var velocity *float64
	for _, kv := range rest[1:] {
		key, val, ok := splitKV(kv)
		if !ok || key != "vel" {
			return nil, fmt.Errorf("unknown noteoff field %q", kv)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid velocity %q: %w", val, err)
		}
		velocity = &v
	}
	return mtxt.NoteOff{Time: t, Target: target, Velocity: velocity, Channel: channel}, nil
}

func parseCC(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) != 2 {
		return nil, fmt.Errorf("cc requires a controller name and a value")
	}
	val, err := strconv.ParseFloat(rest[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cc value %q: %w", rest[1], err)
	}
	return mtxt.ControlChange{Time: t, Controller: rest[0], Value: val, Channel: channel}, nil
}

func parseVoice(t beat.Time, channel *uint8, rest []string) (mtxt.Record, error) {
	if len(rest) != 1 {
		return nil, fmt.Errorf("voice requires exactly one field")
	}
	voices := strings.Split(rest[0], ",")
	return mtxt.Voice{Time: t, Voices: voices, Channel: channel}, nil
}

func parseTempo(t beat.Time, rest []string) (mtxt.Record, error) {
	if len(rest) != 1 {
		return nil, fmt.Errorf("tempo requires a bpm value")
	}
	bpm, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bpm %q: %w", rest[0], err)
	}
	return mtxt.Tempo{Time: t, BPM: bpm}, nil
}

func parseTimeSig(t beat.Time, rest []string) (mtxt.Record, error) {
	if len(rest) != 1 {
		return nil, fmt.Errorf("timesig requires a N/D value")
	}
	parts := strings.SplitN(rest[0], "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed time signature %q", rest[0])
	}
	num, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid numerator %q: %w", parts[0], err)
	}
	denom, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid denominator %q: %w", parts[1], err)
	}
	return mtxt.TimeSignatureRecord{
		Time:      t,
		Signature: mtxt.TimeSignature{Numerator: uint8(num), Denominator: uint8(denom)},
	}, nil
}

func parseSysEx(t beat.Time, rest []string) (mtxt.Record, error) {
	if len(rest) != 1 {
		return nil, fmt.Errorf("sysex requires one hex-encoded field")
	}
	data, err := hexDecode(rest[0])
	if err != nil {
		return nil, fmt.Errorf("invalid sysex hex %q: %w", rest[0], err)
	}
	return mtxt.SysEx{Time: t, Data: data}, nil
}
