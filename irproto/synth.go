package irproto

import "fmt"

// Synthesis of reference waveforms from the same timing tables the
// classifier decodes with. Output is one byte per sample at SampleRate,
// receiver-line convention: 0 during a mark, 1 during a space. Useful as a
// loopback test source and for exercising captures end to end.

// AppendIdle appends n samples of idle level.
func AppendIdle(dst []uint8, n int) []uint8 {
	for i := 0; i < n; i++ {
		dst = append(dst, 1)
	}
	return dst
}

func appendRun(dst []uint8, level uint8, n uint64) []uint8 {
	for i := uint64(0); i < n; i++ {
		dst = append(dst, level)
	}
	return dst
}

// AppendFrame appends one complete frame of the given protocol carrying
// address and command. The caller is responsible for idle gaps between
// frames.
func AppendFrame(dst []uint8, proto uint32, address, command uint32) ([]uint8, error) {
	t := timingFor(proto)
	if t == nil {
		return dst, fmt.Errorf("irproto: no timing table for protocol %d (%s)", proto, ProtocolName(proto))
	}
	dst = appendRun(dst, 0, t.leadMark.nominal)
	dst = appendRun(dst, 1, t.leadSpace.nominal)
	raw := t.encode(address, command)
	for i := 0; i < t.bits; i++ {
		dst = appendRun(dst, 0, t.bitMark.nominal)
		if raw>>i&1 == 1 {
			dst = appendRun(dst, 1, t.bit1Space.nominal)
		} else {
			dst = appendRun(dst, 1, t.bit0Space.nominal)
		}
	}
	dst = appendRun(dst, 0, t.trailMark.nominal)
	return dst, nil
}

// AppendRepeatFrame appends a dedicated repeat frame. Only protocols with a
// repeat-frame timing (NEC) support this.
func AppendRepeatFrame(dst []uint8, proto uint32) ([]uint8, error) {
	t := timingFor(proto)
	if t == nil || t.repeatSpaceUS == 0 {
		return dst, fmt.Errorf("irproto: protocol %d (%s) has no repeat frame", proto, ProtocolName(proto))
	}
	dst = appendRun(dst, 0, t.leadMark.nominal)
	dst = appendRun(dst, 1, t.repeatSpace.nominal)
	dst = appendRun(dst, 0, t.trailMark.nominal)
	return dst, nil
}
