package mtxt

// OutputRecord is the flattened, absolute-microsecond-timed form of a
// Record, ready for linearization into a single SMF track. It is produced
// by applying directives, expanding Note into NoteOn+NoteOff, resolving
// transitions, and integrating tempo to translate beats into microseconds.
type OutputRecord interface {
	isOutputRecord()
	Micros() uint64
}

// BaseOutput carries the one field every OutputRecord shares: its absolute
// placement. It is exported so callers outside this package (the SMF
// flattening stage) can populate it directly in a composite literal.
type BaseOutput struct {
	Time uint64 // microseconds, absolute
}

// Micros returns the record's absolute time in microseconds.
func (b BaseOutput) Micros() uint64 { return b.Time }

// At is shorthand for BaseOutput{Time: micros}.
func At(micros uint64) BaseOutput { return BaseOutput{Time: micros} }

// OutNoteOn is a note-on event in absolute time.
type OutNoteOn struct {
	BaseOutput
	Target   NoteTarget
	Velocity float64
	Channel  uint8
}

func (OutNoteOn) isOutputRecord() {}

// OutNoteOff is a note-off event in absolute time.
type OutNoteOff struct {
	BaseOutput
	Target      NoteTarget
	OffVelocity float64
	Channel     uint8
}

func (OutNoteOff) isOutputRecord() {}

// OutControlChange is a resolved controller/pitch-bend/aftertouch value
// change in absolute time.
type OutControlChange struct {
	BaseOutput
	Controller string
	Value      float64
	Channel    uint8
}

func (OutControlChange) isOutputRecord() {}

// OutVoice is a resolved program change in absolute time.
type OutVoice struct {
	BaseOutput
	Program uint8
	Channel uint8
}

func (OutVoice) isOutputRecord() {}

// OutTempo sets the running BPM at an absolute time.
type OutTempo struct {
	BaseOutput
	BPM float64
}

func (OutTempo) isOutputRecord() {}

// OutTimeSignature sets the prevailing meter at an absolute time.
type OutTimeSignature struct {
	BaseOutput
	Signature TimeSignature
}

func (OutTimeSignature) isOutputRecord() {}

// OutGlobalMeta is an annotation with no channel: a file-level GlobalMeta,
// placed at time 0, or a channel-less Meta, placed at its own time.
type OutGlobalMeta struct {
	BaseOutput
	Type  string
	Value string
}

func (OutGlobalMeta) isOutputRecord() {}

// OutChannelMeta is a channel-scoped annotation at an absolute time.
type OutChannelMeta struct {
	BaseOutput
	Type    string
	Value   string
	Channel uint8
}

func (OutChannelMeta) isOutputRecord() {}

// OutSysEx carries a raw system-exclusive frame at an absolute time.
type OutSysEx struct {
	BaseOutput
	Data []byte
}

func (OutSysEx) isOutputRecord() {}

// OutReset marks a reset point; it has no SMF equivalent and is dropped
// during MTXT→SMF emission.
type OutReset struct {
	BaseOutput
}

func (OutReset) isOutputRecord() {}

// OutBeat marks a beat-grid tick for display purposes only; it has no SMF
// equivalent and is dropped during MTXT→SMF emission.
type OutBeat struct {
	BaseOutput
}

func (OutBeat) isOutputRecord() {}
