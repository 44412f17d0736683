package irproto

import "math"

// The classifier is built for a fixed sample rate; callers must resample
// their capture to this rate before feeding it.
const (
	SampleRate = 20000 // Hz
	tickUS     = 1e6 / float64(SampleRate)
)

// tolerance is the fractional timing slack applied to every nominal pulse
// duration when building the per-protocol sample windows.
const tolerance = 0.30

// repeatWindowUS is how soon an identical frame must follow the previous
// one to be flagged as a key-held repeat (NEC retransmits every 108 ms).
const repeatWindowUS = 130000.0

// window is an inclusive duration range in samples.
type window struct {
	min, max uint64
	nominal  uint64
}

func toWindow(us float64) window {
	return window{
		min:     uint64(math.Floor(us * (1 - tolerance) / tickUS)),
		max:     uint64(math.Ceil(us * (1 + tolerance) / tickUS)),
		nominal: uint64(math.Round(us / tickUS)),
	}
}

func (w window) contains(d uint64) bool { return d >= w.min && d <= w.max }

// score is the relative distance of a measured duration from the nominal
// one, used to break ties when lead pulses of two protocols overlap.
func (w window) score(d uint64) float64 {
	return math.Abs(float64(d)-float64(w.nominal)) / float64(w.nominal)
}

// timing describes one pulse-distance protocol. Durations are protocol data
// in microseconds; everything the state machine consumes is precomputed in
// samples. References:
// https://www.sbprojects.net/knowledge/ir/nec.php
// https://www.sbprojects.net/knowledge/ir/jvc.php
type timing struct {
	proto         uint32
	leadMarkUS    float64
	leadSpaceUS   float64
	repeatSpaceUS float64 // 0: protocol has no dedicated repeat frame
	bitMarkUS     float64
	bit0SpaceUS   float64
	bit1SpaceUS   float64
	trailMarkUS   float64
	bits          int

	// decode splits the raw LSB-first shift register into address and
	// command, rejecting frames that fail the protocol's validation.
	decode func(raw uint64) (address, command uint32, ok bool)
	// encode assembles the raw shift register; used by the synthesizer.
	encode func(address, command uint32) uint64

	leadMark    window
	leadSpace   window
	repeatSpace window
	bitMark     window
	bit0Space   window
	bit1Space   window
	trailMark   window
}

// necUnitUS is the NEC base unit of 562.5 us; lead mark is 16 units, lead
// space 8, repeat space 4, a one-bit space 3.
const necUnitUS = 562.5

var timings = []*timing{
	{
		proto:         ProtocolNEC,
		leadMarkUS:    necUnitUS * 16,
		leadSpaceUS:   necUnitUS * 8,
		repeatSpaceUS: necUnitUS * 4,
		bitMarkUS:     necUnitUS,
		bit0SpaceUS:   necUnitUS,
		bit1SpaceUS:   necUnitUS * 3,
		trailMarkUS:   necUnitUS,
		bits:          32,
		decode:        decodeNEC,
		encode:        encodeNEC,
	},
	{
		proto:       ProtocolSamsung32,
		leadMarkUS:  4500,
		leadSpaceUS: 4500,
		bitMarkUS:   necUnitUS,
		bit0SpaceUS: necUnitUS,
		bit1SpaceUS: necUnitUS * 3,
		trailMarkUS: necUnitUS,
		bits:        32,
		decode:      decodeSamsung32,
		encode:      encodeSamsung32,
	},
	{
		proto:       ProtocolJVC,
		leadMarkUS:  8400,
		leadSpaceUS: 4200,
		bitMarkUS:   526,
		bit0SpaceUS: 526,
		bit1SpaceUS: 1574,
		trailMarkUS: 526,
		bits:        16,
		decode:      decodeJVC,
		encode:      encodeJVC,
	},
}

// maxSpaceSamples is the longest space any protocol may legally contain; a
// high run beyond it aborts the frame in progress.
var maxSpaceSamples uint64

// repeatWindowSamples in samples, for the key-held repeat flag.
var repeatWindowSamples uint64

func init() {
	for _, t := range timings {
		t.leadMark = toWindow(t.leadMarkUS)
		t.leadSpace = toWindow(t.leadSpaceUS)
		if t.repeatSpaceUS > 0 {
			t.repeatSpace = toWindow(t.repeatSpaceUS)
		}
		t.bitMark = toWindow(t.bitMarkUS)
		t.bit0Space = toWindow(t.bit0SpaceUS)
		t.bit1Space = toWindow(t.bit1SpaceUS)
		t.trailMark = toWindow(t.trailMarkUS)

		for _, w := range []window{t.leadSpace, t.bit1Space, t.repeatSpace} {
			if w.max > maxSpaceSamples {
				maxSpaceSamples = w.max
			}
		}
	}
	repeatWindowSamples = uint64(math.Round(repeatWindowUS / tickUS))
}

func timingFor(proto uint32) *timing {
	for _, t := range timings {
		if t.proto == proto {
			return t
		}
	}
	return nil
}

func decodeNEC(raw uint64) (uint32, uint32, bool) {
	valid, addr, cmd := SplitRawNECData(uint32(raw))
	return uint32(addr), uint32(cmd), valid
}

func encodeNEC(address, command uint32) uint64 {
	return uint64(MakeRawNECData(uint16(address), byte(command)))
}

// Samsung32: 16-bit customer code, then command plus inverted command,
// NEC-style.
func decodeSamsung32(raw uint64) (uint32, uint32, bool) {
	addr := uint32(raw & 0xffff)
	cmd := byte(raw >> 16)
	inv := byte(raw >> 24)
	return addr, uint32(cmd), cmd == ^inv
}

func encodeSamsung32(address, command uint32) uint64 {
	cmd := byte(command)
	return uint64(address&0xffff) | uint64(cmd)<<16 | uint64(^cmd)<<24
}

// JVC has no inverse-validation field; 8-bit address then 8-bit command.
func decodeJVC(raw uint64) (uint32, uint32, bool) {
	return uint32(raw & 0xff), uint32(raw>>8) & 0xff, true
}

func encodeJVC(address, command uint32) uint64 {
	return uint64(address&0xff) | uint64(command&0xff)<<8
}
