package irdetect

import "github.com/sigrokproject/go-irdetect/irproto"

// idleLevel is the receiver line at rest (active-low receiver).
const idleLevel uint8 = 1

// Engine is the pulse-classification capability the detector drives. An
// implementation consumes one sample per Step call, reports frame
// completion, and hands out the at-most-one pending decoded frame.
// irproto.Classifier is the stock implementation.
type Engine interface {
	// Step feeds one sample; true means a frame just completed.
	Step(sample uint8) bool
	// Pending consumes the pending decoded frame, if any.
	Pending() (irproto.Frame, bool)
	// Reset returns the engine to idle and rewinds its sample clock.
	Reset()
}

// FrameData is a decoded frame snapshot as returned across the API.
// ProtocolName points into a static table and stays valid for the process
// lifetime; callers never free it.
type FrameData struct {
	ProtocolID   uint32 `json:"protocol"`
	ProtocolName string `json:"protocol_name"`
	Address      uint32 `json:"address"`
	Command      uint32 `json:"command"`
	Flags        uint32 `json:"flags"`
	StartSample  uint64 `json:"start_sample"`
	EndSample    uint64 `json:"end_sample"`
}

// Repeat reports whether the frame repeats the previous command.
func (f FrameData) Repeat() bool { return f.Flags&irproto.FlagRepeat != 0 }

// Detector tracks one decode stream: the engine, the absolute sample
// position, and the end position of the last completed frame. Call Reset
// before first use and whenever the stream is discontinuous.
type Detector struct {
	eng Engine
	pos uint64
	end uint64
}

// New returns a Detector backed by the stock irproto classifier.
func New() *Detector {
	return NewWithEngine(irproto.NewClassifier())
}

// NewWithEngine returns a Detector driving the given engine.
func NewWithEngine(eng Engine) *Detector {
	return &Detector{eng: eng}
}

// GetSampleRate returns the fixed sample rate the classifier is built for.
// All input must be resampled to this rate before feeding.
func GetSampleRate() uint32 { return irproto.SampleRate }

// GetProtocolName resolves a protocol id to its static display name, or
// "unknown" for ids outside the known range.
func GetProtocolName(id uint32) string { return irproto.ProtocolName(id) }

// Reset flushes the engine by feeding it a full second of idle level, long
// enough to exceed any protocol's pause, discards whatever frame that left
// pending, then rewinds engine and position counters to zero. Idempotent.
func (d *Detector) Reset() {
	for i := uint32(0); i < irproto.SampleRate; i++ {
		d.eng.Step(idleLevel)
	}
	d.eng.Pending()
	d.eng.Reset()
	d.pos = 0
	d.end = 0
}

// AddSample feeds exactly one sample and reports whether it completed a
// frame. The sample position always advances by one; on completion the
// position of the completing sample is captured as the frame end.
func (d *Detector) AddSample(sample uint8) bool {
	done := d.eng.Step(sample)
	if done {
		d.end = d.pos
	}
	d.pos++
	return done
}

// GetData consumes the pending decoded frame into out and returns true. If
// no frame is pending it returns false and leaves out untouched; a second
// call without a new completion therefore returns false.
func (d *Detector) GetData(out *FrameData) bool {
	fr, ok := d.eng.Pending()
	if !ok {
		return false
	}
	out.ProtocolID = fr.Protocol
	out.ProtocolName = irproto.ProtocolName(fr.Protocol)
	out.Address = fr.Address
	out.Command = fr.Command
	out.Flags = fr.Flags
	out.StartSample = fr.StartSample
	out.EndSample = d.end
	return true
}

// Detect scans buf, feeding samples until a frame completes or the buffer
// is exhausted. Each call continues the stream where the previous one left
// off: positions are absolute, and the caller hands in the next contiguous
// chunk. On completion the decoded frame is returned immediately and the
// rest of buf is left unconsumed; the caller can tell how much was consumed
// from the position delta. On exhaustion the zero FrameData is returned,
// distinguishable from a real decode only by its zero protocol id and
// samples.
func (d *Detector) Detect(buf []byte) FrameData {
	var out FrameData
	for _, s := range buf {
		if d.AddSample(s) {
			d.GetData(&out)
			return out
		}
	}
	return out
}

// SamplePosition returns the number of samples fed since Reset.
func (d *Detector) SamplePosition() uint64 { return d.pos }
