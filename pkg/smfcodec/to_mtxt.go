package smfcodec

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/mtxt-tools/mtxtmidi/pkg/beat"
	"github.com/mtxt-tools/mtxtmidi/pkg/gm"
	"github.com/mtxt-tools/mtxtmidi/pkg/mtxt"
)

// rawEvent is one decoded SMF event waiting for its tick to be mapped to a
// beat time. Note events carry start/end ticks directly; everything else
// carries a builder that needs only the resolved beat time.
type rawEvent struct {
	tick uint64 // primary sort key: start_tick for notes, tick for everything else

	isNote      bool
	channel     uint8
	target      mtxt.NoteTarget
	endTick     uint64
	velocity    uint8
	offVelocity uint8

	build func(t beat.Time) mtxt.Record
}

type openNote struct {
	startTick uint64
	velocity  uint8
}

// ToMTXT translates a parsed Standard MIDI File into an ordered MTXT record
// stream.
func ToMTXT(data []byte) ([]mtxt.Record, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, mtxt.WrapError(mtxt.InputParse, err, "parsing SMF")
	}

	ppq := uint64(480)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ppq = uint64(mt.Resolution())
	} else {
		warnf("non-metric SMF time division, falling back to PPQ", "ppq", ppq)
	}

	var events []rawEvent
	firstTitleUsed := false

	for _, track := range s.Tracks {
		trackChannel := trackChannelOf(track)

		open := make(map[[2]uint8]openNote)
		var tick uint64

		for _, ev := range track {
			tick += uint64(ev.Delta)
			msg := []byte(ev.Message)
			if len(msg) == 0 {
				continue
			}

			status := msg[0]
			switch {
			case status == 0xFF:
				rec, drop := decodeMeta(msg, tick, trackChannel, &firstTitleUsed)
				if !drop {
					events = append(events, rawEvent{tick: tick, build: rec})
				}
			case status == 0xF0 || status == 0xF7:
				data := append([]byte(nil), msg...)
				events = append(events, rawEvent{tick: tick, build: func(t beat.Time) mtxt.Record {
					return mtxt.SysEx{Time: t, Data: data}
				}})
			case status >= 0x80 && status < 0xF0:
				ch := status & 0x0F
				hi := status & 0xF0
				switch hi {
				case 0x80:
					if len(msg) >= 3 {
						closeNote(open, ch, msg[1], msg[2], tick, &events)
					}
				case 0x90:
					if len(msg) >= 3 && msg[2] == 0 {
						closeNote(open, ch, msg[1], 0, tick, &events)
					} else if len(msg) >= 3 {
						open[[2]uint8{ch, msg[1]}] = openNote{startTick: tick, velocity: msg[2]}
					}
				case 0xA0:
					if len(msg) >= 3 {
						events = append(events, ccEvent(tick, ch, "aftertouch", float64(msg[2])/127.0))
					}
				case 0xB0:
					if len(msg) >= 3 {
						controller := gm.ControllerName(msg[1])
						events = append(events, ccEvent(tick, ch, controller, float64(msg[2])/127.0))
					}
				case 0xC0:
					if len(msg) >= 2 {
						program := msg[1]
						events = append(events, rawEvent{tick: tick, build: func(t beat.Time) mtxt.Record {
							c := ch
							return mtxt.Voice{Time: t, Voices: []string{strconv.Itoa(int(program))}, Channel: &c}
						}})
					}
				case 0xD0:
					if len(msg) >= 2 {
						events = append(events, ccEvent(tick, ch, "aftertouch", float64(msg[1])/127.0))
					}
				case 0xE0:
					if len(msg) >= 3 {
						raw := uint16(msg[1]) | uint16(msg[2])<<7
						value := (float64(raw) - 8192.0) / 8192.0 * 12.0
						events = append(events, ccEvent(tick, ch, gm.Pitch, value))
					}
				}
			}
		}

		for key, n := range open {
			ch, keyNum := key[0], key[1]
			events = append(events, rawEvent{
				tick: n.startTick, isNote: true, channel: ch,
				target: gm.MIDIToNote(keyNum), endTick: n.startTick + ppq,
				velocity: n.velocity, offVelocity: 0,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	tickToBeat := buildTickToBeatMap(events, ppq)

	var header mtxt.Record = mtxt.Header{Version: mtxt.V1}
	var globals []mtxt.Record
	var fileLevelMeta []mtxt.Record
	var timed []mtxt.Record

	for _, e := range events {
		if e.isNote {
			startBeat := tickToBeat[e.tick]
			endBeat := tickToBeat[e.endTick]
			duration, err := endBeat.Sub(startBeat)
			if err != nil {
				duration = beat.Zero
			}
			vel := float64(e.velocity) / 127.0
			offVel := float64(e.offVelocity) / 127.0
			ch := e.channel
			timed = append(timed, mtxt.Note{
				Time: startBeat, Target: e.target, Duration: duration,
				Velocity: &vel, OffVelocity: &offVel, Channel: &ch,
			})
			continue
		}

		t := tickToBeat[e.tick]
		rec := e.build(t)
		switch r := rec.(type) {
		case mtxt.GlobalMeta:
			globals = append(globals, r)
		case mtxt.Meta:
			if t.Compare(beat.Zero) == 0 {
				r.Time = nil
				fileLevelMeta = append(fileLevelMeta, r)
			} else {
				timed = append(timed, r)
			}
		default:
			timed = append(timed, rec)
		}
	}

	out := make([]mtxt.Record, 0, 1+len(globals)+len(fileLevelMeta)+len(timed))
	out = append(out, header)
	out = append(out, globals...)
	out = append(out, fileLevelMeta...)
	out = append(out, timed...)
	return out, nil
}

func closeNote(open map[[2]uint8]openNote, ch, noteKey, offVel uint8, tick uint64, events *[]rawEvent) {
	key := [2]uint8{ch, noteKey}
	n, ok := open[key]
	if !ok {
		warnf("note off with no matching note on, dropping", "channel", ch, "key", noteKey, "tick", tick)
		return // UnpairedNote: tolerated
	}
	delete(open, key)
	*events = append(*events, rawEvent{
		tick: n.startTick, isNote: true, channel: ch,
		target: gm.MIDIToNote(noteKey), endTick: tick,
		velocity: n.velocity, offVelocity: offVel,
	})
}

func ccEvent(tick uint64, ch uint8, controller string, value float64) rawEvent {
	return rawEvent{tick: tick, build: func(t beat.Time) mtxt.Record {
		c := ch
		return mtxt.ControlChange{Time: t, Controller: controller, Value: value, Channel: &c}
	}}
}

// trackChannelOf implements the track-channel heuristic: the channel of a
// track's first channel-voice event, or nil if the track contains none.
func trackChannelOf(track smf.Track) *uint8 {
	for _, ev := range track {
		msg := []byte(ev.Message)
		if len(msg) == 0 {
			continue
		}
		status := msg[0]
		if status >= 0x80 && status < 0xF0 {
			ch := status & 0x0F
			return &ch
		}
	}
	return nil
}

// decodeMeta decodes one meta event into a deferred Record builder.
// drop reports EndOfTrack, which carries no record at all. firstTitleUsed
// tracks whether a TrackName has already been promoted to "title" so that
// only the first channel-less track gets that type.
func decodeMeta(msg []byte, tick uint64, trackChannel *uint8, firstTitleUsed *bool) (build func(t beat.Time) mtxt.Record, drop bool) {
	typ, data, ok := parseMeta(msg)
	if !ok {
		return nil, true
	}

	text := string(data)

	switch typ {
	case metaEndOfTrack:
		return nil, true

	case metaTempo:
		bpm := 120.0
		if len(data) >= 3 {
			mspb := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
			if mspb > 0 {
				bpm = 60000000.0 / float64(mspb)
			}
		}
		return func(t beat.Time) mtxt.Record { return mtxt.Tempo{Time: t, BPM: bpm} }, false

	case metaTimeSignature:
		num, denom := uint8(4), uint8(4)
		if len(data) >= 2 {
			num = data[0]
			denom = uint8(1) << data[1]
		}
		return func(t beat.Time) mtxt.Record {
			return mtxt.TimeSignatureRecord{Time: t, Signature: mtxt.TimeSignature{Numerator: num, Denominator: denom}}
		}, false

	case metaTrackName:
		if trackChannel == nil {
			if !*firstTitleUsed {
				*firstTitleUsed = true
				return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "title", Value: text} }, false
			}
			return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "text", Value: text} }, false
		}
		return metaRecord("name", text, trackChannel, tick), false

	case metaText:
		if trackChannel == nil {
			return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "text", Value: text} }, false
		}
		return metaRecord("text", text, trackChannel, tick), false

	case metaCopyright:
		return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "copyright", Value: text} }, false

	case metaProgramName:
		return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "program", Value: text} }, false

	case metaDeviceName:
		return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "device", Value: text} }, false

	case metaSMPTEOffset:
		return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "smpte", Value: hexUpper(data)} }, false

	case metaInstrumentName:
		return metaRecord("instrument", text, trackChannel, tick), false

	case metaLyric:
		return metaRecord("lyric", text, trackChannel, tick), false

	case metaMarker:
		return metaRecord("marker", text, trackChannel, tick), false

	case metaCuePoint:
		return metaRecord("cue", text, trackChannel, tick), false

	case metaSequenceNumber:
		var n uint16
		if len(data) >= 2 {
			n = uint16(data[0])<<8 | uint16(data[1])
		}
		return metaRecord("tracknumber", strconv.Itoa(int(n)), trackChannel, tick), false

	case metaMIDIChannel:
		v := 0
		if len(data) >= 1 {
			v = int(data[0])
		}
		return metaRecord("midichannel", strconv.Itoa(v), trackChannel, tick), false

	case metaMIDIPort:
		v := 0
		if len(data) >= 1 {
			v = int(data[0])
		}
		return metaRecord("midiport", strconv.Itoa(v), trackChannel, tick), false

	case metaKeySignature:
		if len(data) >= 2 {
			sharpsOrFlats := int8(data[0])
			isMinor := data[1] == 1
			keyText := gm.KeySignatureText(sharpsOrFlats, isMinor)
			if tick == 0 {
				return func(beat.Time) mtxt.Record { return mtxt.GlobalMeta{Type: "key", Value: keyText} }, false
			}
			return metaRecord("keysignature", keyText, trackChannel, tick), false
		}
		return nil, true

	case metaSequencerSpecific:
		return metaRecord("sequencerspecific", hexUpper(data), trackChannel, tick), false

	default:
		return metaRecord(fmt.Sprintf("unknown_%02X", typ), hexUpper(data), trackChannel, tick), false
	}
}

func metaRecord(typ, value string, trackChannel *uint8, tick uint64) func(t beat.Time) mtxt.Record {
	return func(t beat.Time) mtxt.Record {
		var ch *uint8
		if trackChannel != nil {
			c := *trackChannel
			ch = &c
		}
		return mtxt.Meta{Time: &t, Channel: ch, Type: typ, Value: value}
	}
}

// buildTickToBeatMap walks the sorted unique tick set deriving a beat time
// for each tick purely from PPQ; tempo changes never affect this mapping.
func buildTickToBeatMap(events []rawEvent, ppq uint64) map[uint64]beat.Time {
	ticks := make(map[uint64]struct{})
	for _, e := range events {
		ticks[e.tick] = struct{}{}
		if e.isNote {
			ticks[e.endTick] = struct{}{}
		}
	}
	ticks[0] = struct{}{}

	sorted := make([]uint64, 0, len(ticks))
	for t := range ticks {
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	result := make(map[uint64]beat.Time, len(sorted))
	var curTick uint64
	var curBeat float64
	for _, t := range sorted {
		deltaBeats := float64(t-curTick) / float64(ppq)
		curBeat += deltaBeats
		curTick = t
		result[t] = beat.FromFloat64(curBeat)
	}
	return result
}
