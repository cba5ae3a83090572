package smfcodec

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/mtxt-tools/mtxtmidi/pkg/beat"
	"github.com/mtxt-tools/mtxtmidi/pkg/gm"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

const (
	emitPPQ        = 480
	defaultBPM     = 120.0
	longDeltaLabel = "long delta"
)

// ToSMF linearizes a canonical MTXT record list into a single-track,
// delta-timed Standard MIDI File.
func ToSMF(records []mtxt.Record) ([]byte, error) {
	outputs, err := flatten(records)
	if err != nil {
		return nil, err
	}
	return emit(outputs)
}

// tempoBreak marks a beat position at which a Tempo record changes the
// prevailing BPM going forward.
type tempoBreak struct {
	beat float64
	bpm  float64
}

// tempoSegment is one piece of the piecewise-constant BPM timeline: bpm
// holds from beat onward (until the next segment's beat), and cumMicros is
// the absolute micros already elapsed by the time beat is reached.
type tempoSegment struct {
	beat      float64
	bpm       float64
	cumMicros float64
}

// tempoTimeline maps an absolute beat position to absolute microseconds by
// integrating tempo independently of any particular record's duration, so
// that two records at the same beat always map to the same micros
// regardless of what else is sounding at that moment.
type tempoTimeline []tempoSegment

func newTempoTimeline(points []tempoBreak) tempoTimeline {
	sort.SliceStable(points, func(i, j int) bool { return points[i].beat < points[j].beat })

	segs := tempoTimeline{{beat: 0, bpm: defaultBPM}}
	for _, p := range points {
		last := &segs[len(segs)-1]
		if p.beat == last.beat {
			last.bpm = p.bpm
			continue
		}
		cum := last.cumMicros + (p.beat-last.beat)*(60e6/last.bpm)
		segs = append(segs, tempoSegment{beat: p.beat, bpm: p.bpm, cumMicros: cum})
	}
	return segs
}

func (tl tempoTimeline) micros(beatPos float64) uint64 {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].beat > beatPos }) - 1
	if i < 0 {
		i = 0
	}
	seg := tl[i]
	return uint64(math.Round(seg.cumMicros + (beatPos-seg.beat)*(60e6/seg.bpm)))
}

// pendingOutput defers OutputRecord construction until the full tempo
// timeline is known, so every record's micros come from its own absolute
// beat rather than from a running clock advanced past prior records.
type pendingOutput struct {
	beat  float64
	build func(micros uint64) mtxt.OutputRecord
}

func flatten(records []mtxt.Record) ([]mtxt.OutputRecord, error) {
	var pending []pendingOutput
	var tempoPoints []tempoBreak

	for _, rec := range records {
		switch r := rec.(type) {
		case mtxt.Header, mtxt.Directive:
			// consumed for metadata only; nothing to emit

		case mtxt.GlobalMeta:
			pending = append(pending, pendingOutput{beat: 0, build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutGlobalMeta{Type: r.Type, Value: r.Value, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.Meta:
			bt := beat.Zero
			if r.Time != nil {
				bt = *r.Time
			}
			pending = append(pending, pendingOutput{beat: bt.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				if r.Channel != nil {
					return mtxt.OutChannelMeta{Type: r.Type, Value: r.Value, Channel: *r.Channel, BaseOutput: mtxt.At(micros)}
				}
				return mtxt.OutGlobalMeta{Type: r.Type, Value: r.Value, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.Note:
			vel, offVel := 0.0, 0.0
			if r.Velocity != nil {
				vel = *r.Velocity
			}
			if r.OffVelocity != nil {
				offVel = *r.OffVelocity
			}
			ch := uint8(0)
			if r.Channel != nil {
				ch = *r.Channel
			}
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutNoteOn{Target: r.Target, Velocity: vel, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})
			pending = append(pending, pendingOutput{beat: r.Time.Add(r.Duration).Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutNoteOff{Target: r.Target, OffVelocity: offVel, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.NoteOn:
			vel := 0.0
			if r.Velocity != nil {
				vel = *r.Velocity
			}
			ch := uint8(0)
			if r.Channel != nil {
				ch = *r.Channel
			}
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutNoteOn{Target: r.Target, Velocity: vel, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.NoteOff:
			offVel := 0.0
			if r.Velocity != nil {
				offVel = *r.Velocity
			}
			ch := uint8(0)
			if r.Channel != nil {
				ch = *r.Channel
			}
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutNoteOff{Target: r.Target, OffVelocity: offVel, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.ControlChange:
			ch := uint8(0)
			if r.Channel != nil {
				ch = *r.Channel
			}
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutControlChange{Controller: r.Controller, Value: r.Value, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.Voice:
			program := uint8(0)
			if len(r.Voices) > 0 {
				if v, err := strconv.ParseUint(r.Voices[0], 10, 8); err == nil {
					program = uint8(v)
				}
			}
			ch := uint8(0)
			if r.Channel != nil {
				ch = *r.Channel
			}
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutVoice{Program: program, Channel: ch, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.Tempo:
			tempoPoints = append(tempoPoints, tempoBreak{beat: r.Time.Float64(), bpm: r.BPM})
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutTempo{BPM: r.BPM, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.TimeSignatureRecord:
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutTimeSignature{Signature: r.Signature, BaseOutput: mtxt.At(micros)}
			}})

		case mtxt.SysEx:
			pending = append(pending, pendingOutput{beat: r.Time.Float64(), build: func(micros uint64) mtxt.OutputRecord {
				return mtxt.OutSysEx{Data: r.Data, BaseOutput: mtxt.At(micros)}
			}})
		}
	}

	timeline := newTempoTimeline(tempoPoints)
	out := make([]mtxt.OutputRecord, len(pending))
	for i, p := range pending {
		out[i] = p.build(timeline.micros(p.beat))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Micros() < out[j].Micros() })
	return out, nil
}

func emit(outputs []mtxt.OutputRecord) ([]byte, error) {
	var track smf.Track
	currentBPM := defaultBPM
	var lastMicros uint64

	for _, rec := range outputs {
		switch rec.(type) {
		case mtxt.OutReset, mtxt.OutBeat:
			continue
		}

		micros := rec.Micros()
		if micros < lastMicros {
			return nil, mtxt.NewError(mtxt.NonMonotonicTime, "output record time %d precedes previous %d", micros, lastMicros)
		}
		deltaMicros := micros - lastMicros
		lastMicros = micros

		deltaBeats := float64(deltaMicros) / (60e6 / currentBPM)
		deltaTicks := int64(math.Round(deltaBeats * emitPPQ))

		for deltaTicks > maxDelta {
			track.Add(maxDelta, smf.Message(buildMeta(metaText, []byte(longDeltaLabel))))
			deltaTicks -= maxDelta
		}

		msg, newBPM, err := translate(rec, currentBPM)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			track.Add(uint32(deltaTicks), smf.Message(msg))
		}
		currentBPM = newBPM
	}

	track.Add(0, smf.Message(buildMeta(metaEndOfTrack, nil)))

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(emitPPQ)
	if err := s.Add(track); err != nil {
		return nil, mtxt.WrapError(mtxt.Io, err, "adding track")
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, mtxt.WrapError(mtxt.Io, err, "writing SMF")
	}
	return buf.Bytes(), nil
}

// translate converts one OutputRecord to raw SMF message bytes. It returns
// the BPM to use for subsequent deltas — unchanged except for OutTempo,
// whose new tempo takes effect only after this event's own delta is
// computed with the old one.
func translate(rec mtxt.OutputRecord, bpm float64) (msg []byte, newBPM float64, err error) {
	switch o := rec.(type) {
	case mtxt.OutNoteOn:
		if o.Channel > 15 {
			return nil, bpm, mtxt.NewError(mtxt.ChannelOutOfRange, "channel %d out of range", o.Channel)
		}
		key, kerr := gm.NoteToMIDI(o.Target)
		if kerr != nil {
			return nil, bpm, mtxt.WrapError(mtxt.NoteOutOfRange, kerr, "note on")
		}
		vel := clampMIDI(o.Velocity)
		return midi.NoteOn(o.Channel, key, vel), bpm, nil

	case mtxt.OutNoteOff:
		if o.Channel > 15 {
			return nil, bpm, mtxt.NewError(mtxt.ChannelOutOfRange, "channel %d out of range", o.Channel)
		}
		key, kerr := gm.NoteToMIDI(o.Target)
		if kerr != nil {
			return nil, bpm, mtxt.WrapError(mtxt.NoteOutOfRange, kerr, "note off")
		}
		return midi.NoteOff(o.Channel, key), bpm, nil

	case mtxt.OutControlChange:
		if o.Channel > 15 {
			return nil, bpm, mtxt.NewError(mtxt.ChannelOutOfRange, "channel %d out of range", o.Channel)
		}
		msg, err := controllerToMIDI(o.Channel, o.Controller, o.Value)
		return msg, bpm, err

	case mtxt.OutVoice:
		if o.Channel > 15 {
			return nil, bpm, mtxt.NewError(mtxt.ChannelOutOfRange, "channel %d out of range", o.Channel)
		}
		if o.Program > 127 {
			return nil, bpm, mtxt.NewError(mtxt.ProgramOutOfRange, "program %d out of range", o.Program)
		}
		return midi.ProgramChange(o.Channel, o.Program), bpm, nil

	case mtxt.OutTempo:
		mspb := uint32(math.Round(60000000.0 / o.BPM))
		data := []byte{byte(mspb >> 16), byte(mspb >> 8), byte(mspb)}
		return buildMeta(metaTempo, data), o.BPM, nil

	case mtxt.OutTimeSignature:
		denomLog := log2Floor(o.Signature.Denominator)
		data := []byte{o.Signature.Numerator, denomLog, 24, 8}
		return buildMeta(metaTimeSignature, data), bpm, nil

	case mtxt.OutGlobalMeta:
		b, err := metaBytes(o.Type, o.Value, nil)
		return b, bpm, err

	case mtxt.OutChannelMeta:
		b, err := metaBytes(o.Type, o.Value, &o.Channel)
		return b, bpm, err

	case mtxt.OutSysEx:
		return o.Data, bpm, nil
	}
	return nil, bpm, nil
}

func clampMIDI(v float64) uint8 {
	n := int(math.Round(v * 127.0))
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return uint8(n)
}

// controllerToMIDI dispatches a named controller value to the channel-voice
// message it represents: a plain controller, a pitch bend, or an
// aftertouch.
func controllerToMIDI(ch uint8, name string, value float64) ([]byte, error) {
	switch name {
	case gm.Pitch:
		raw := int(math.Round(value/12.0*8192.0)) + 8192
		if raw < 0 {
			raw = 0
		}
		if raw > 16383 {
			raw = 16383
		}
		lsb := byte(raw & 0x7F)
		msb := byte((raw >> 7) & 0x7F)
		return []byte{0xE0 | ch, lsb, msb}, nil
	case gm.Aftertouch:
		pressure := clampMIDI(value)
		return []byte{0xD0 | ch, pressure}, nil
	default:
		cc, err := gm.ControllerNumber(name)
		if err != nil {
			return nil, mtxt.WrapError(mtxt.UnknownController, err, "controller %q", name)
		}
		val := clampMIDI(value)
		return midi.ControlChange(ch, cc, val), nil
	}
}

// log2Floor returns the SMF time-signature denominator exponent for a true
// power-of-two note value (4 -> 2, 8 -> 3, ...).
func log2Floor(denominator uint8) byte {
	var n byte
	for d := denominator; d > 1; d >>= 1 {
		n++
	}
	return n
}

// metaBytes builds the raw meta event for a GlobalMeta/ChannelMeta record,
// inverting the SMF->MTXT type table. Unrecognized types fall back to Text,
// except the unknown_XX form, which recovers its original SMF type byte.
func metaBytes(typ, value string, channel *uint8) ([]byte, error) {
	switch typ {
	case "title", "name":
		return buildMeta(metaTrackName, []byte(value)), nil
	case "copyright":
		return buildMeta(metaCopyright, []byte(value)), nil
	case "program":
		return buildMeta(metaProgramName, []byte(value)), nil
	case "device":
		return buildMeta(metaDeviceName, []byte(value)), nil
	case "smpte":
		data, err := unhex(value)
		if err != nil {
			return buildMeta(metaText, []byte(value)), nil
		}
		return buildMeta(metaSMPTEOffset, data), nil
	case "instrument":
		return buildMeta(metaInstrumentName, []byte(value)), nil
	case "lyric":
		return buildMeta(metaLyric, []byte(value)), nil
	case "marker":
		return buildMeta(metaMarker, []byte(value)), nil
	case "cue":
		return buildMeta(metaCuePoint, []byte(value)), nil
	case "tracknumber":
		n, _ := strconv.ParseUint(value, 10, 16)
		return buildMeta(metaSequenceNumber, []byte{byte(n >> 8), byte(n)}), nil
	case "midichannel":
		n, _ := strconv.ParseUint(value, 10, 8)
		return buildMeta(metaMIDIChannel, []byte{byte(n)}), nil
	case "midiport":
		n, _ := strconv.ParseUint(value, 10, 8)
		return buildMeta(metaMIDIPort, []byte{byte(n)}), nil
	case "key", "keysignature":
		sf, isMinor, err := gm.ParseKeySignatureText(value)
		if err != nil {
			return buildMeta(metaText, []byte(value)), nil
		}
		mode := byte(0)
		if isMinor {
			mode = 1
		}
		return buildMeta(metaKeySignature, []byte{byte(sf), mode}), nil
	case "sequencerspecific":
		data, err := unhex(value)
		if err != nil {
			return buildMeta(metaText, []byte(value)), nil
		}
		return buildMeta(metaSequencerSpecific, data), nil
	case "text":
		return buildMeta(metaText, []byte(value)), nil
	default:
		if rest, ok := strings.CutPrefix(typ, "unknown_"); ok {
			if b, err := unhex(rest); err == nil && len(b) == 1 {
				if data, err := unhex(value); err == nil {
					return buildMeta(b[0], data), nil
				}
				return buildMeta(b[0], []byte(value)), nil
			}
		}
		return buildMeta(metaText, []byte(value)), nil
	}
}
