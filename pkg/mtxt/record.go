package mtxt

import "github.com/mtxt-tools/mtxtmidi/pkg/beat"

// Record is one parsed MTXT line: a closed tagged variant over every record
// kind the surface grammar can produce. Callers switch on the concrete type
// (Header, GlobalMeta, Meta, Note, ...) rather than on a string tag, so an
// unhandled kind fails to compile rather than panicking at runtime.
type Record interface {
	isRecord()
}

// Header is always the first record of a file, naming the MTXT version.
type Header struct {
	Version Version
}

func (Header) isRecord() {}

// GlobalMeta is a file-level annotation with no channel and no time, e.g.
// `meta title "..."`.
type GlobalMeta struct {
	Type  string
	Value string
}

func (GlobalMeta) isRecord() {}

// Meta is a free-form annotation that may be file-level (Time == nil), or
// tied to a beat and/or a channel.
type Meta struct {
	Time    *beat.Time
	Channel *uint8
	Type    string
	Value   string
}

func (Meta) isRecord() {}

// Note is a paired note-on/note-off with an explicit duration.
type Note struct {
	Time        beat.Time
	Target      NoteTarget
	Duration    beat.Time
	Velocity    *float64
	OffVelocity *float64
	Channel     *uint8
}

func (Note) isRecord() {}

// NoteOn is an unpaired note-on, used when the surface syntax expresses
// note-on/note-off as separate lines rather than as a single Note.
type NoteOn struct {
	Time     beat.Time
	Target   NoteTarget
	Velocity *float64
	Channel  *uint8
}

func (NoteOn) isRecord() {}

// NoteOff is an unpaired note-off.
type NoteOff struct {
	Time     beat.Time
	Target   NoteTarget
	Velocity *float64
	Channel  *uint8
}

func (NoteOff) isRecord() {}

// ControlChange covers controller, pitch-bend, and aftertouch values,
// distinguished by Controller's name, with an optional eased transition.
type ControlChange struct {
	Time               beat.Time
	Target             *NoteTarget
	Controller         string
	Value              float64
	Channel            *uint8
	TransitionCurve    *string
	TransitionTime     *beat.Time
	TransitionInterval *beat.Time
}

func (ControlChange) isRecord() {}

// Voice is a program (voice) change, one or more candidate voice names in
// preference order.
type Voice struct {
	Time    beat.Time
	Voices  []string
	Channel *uint8
}

func (Voice) isRecord() {}

// Tempo sets the tempo in beats per minute at a beat position.
type Tempo struct {
	Time beat.Time
	BPM  float64
}

func (Tempo) isRecord() {}

// TimeSignatureRecord sets the prevailing meter at a beat position. Named
// with a Record suffix to avoid colliding with the TimeSignature value type.
type TimeSignatureRecord struct {
	Time      beat.Time
	Signature TimeSignature
}

func (TimeSignatureRecord) isRecord() {}

// SysEx carries a raw system-exclusive byte frame through untouched.
type SysEx struct {
	Time beat.Time
	Data []byte
}

func (SysEx) isRecord() {}

// Directive is a higher-level construct (macro, include) expanded by the
// surface-syntax layer before the core ever sees timed records. The core
// only needs to recognize and ignore it; expansion lives outside this
// package.
type Directive struct {
	Name string
	Args []string
}

func (Directive) isRecord() {}
