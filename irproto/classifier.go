package irproto

// Frame is one decoded remote-control frame as reported by the classifier.
// StartSample is the absolute position (on the classifier's own sample
// clock) of the first mark sample of the frame; the embedding detector owns
// the end position.
type Frame struct {
	Protocol    uint32
	Address     uint32
	Command     uint32
	Flags       uint32
	StartSample uint64
}

// FlagRepeat marks a frame that repeats the previous command, either via a
// dedicated repeat frame (NEC) or an identical retransmission inside the
// repeat window.
const FlagRepeat uint32 = 1 << 0

type state int

// The state names the run currently in progress on the line.
const (
	stateIdle state = iota
	stateLeadMark
	stateLeadSpace
	stateBitMark
	stateBitSpace
	stateTrailMark
)

// Classifier consumes one receiver-line sample per Step call and advances a
// pulse-distance protocol state machine. The receiver is active low: a zero
// sample is a mark, anything nonzero is a space (idle level).
//
// Not safe for concurrent use; one Classifier decodes one stream.
type Classifier struct {
	st    state
	high  bool   // current line level
	run   uint64 // samples spent at the current level
	clock uint64 // samples consumed since Reset

	start    uint64 // first mark sample of the frame in progress
	leadMark uint64 // measured lead mark, pending candidate selection
	cand     *timing
	raw      uint64
	bits     int
	isRepeat bool

	pending *Frame

	last    Frame
	lastEnd uint64
	hasLast bool
}

// NewClassifier returns a Classifier in the idle state with its sample
// clock at zero.
func NewClassifier() *Classifier {
	return &Classifier{high: true}
}

// Reset returns the classifier to idle, discards any frame in progress or
// pending, and rewinds the sample clock to zero.
func (c *Classifier) Reset() {
	*c = Classifier{high: true}
}

// Pending consumes the at-most-one decoded frame waiting to be read.
func (c *Classifier) Pending() (Frame, bool) {
	if c.pending == nil {
		return Frame{}, false
	}
	fr := *c.pending
	c.pending = nil
	return fr, true
}

// Step feeds one sample and reports whether it completed a frame. A
// completed frame replaces any unread pending one. Every byte value is a
// legitimate level; only zero versus nonzero matters.
func (c *Classifier) Step(sample uint8) bool {
	high := sample != 0
	done := false
	if high == c.high {
		c.run++
		// A space longer than any protocol allows ends the frame in
		// progress. The line is already at idle level, so just drop
		// back to idle.
		if high && c.st != stateIdle && c.run > maxSpaceSamples {
			c.st = stateIdle
		}
	} else {
		if high {
			done = c.markEnded(c.run)
		} else {
			c.spaceEnded(c.run)
		}
		c.high = high
		c.run = 1
	}
	c.clock++
	return done
}

// markEnded handles a low run of dur samples finishing at the current
// sample (the line just went high).
func (c *Classifier) markEnded(dur uint64) bool {
	switch c.st {
	case stateLeadMark:
		// Candidate selection needs the lead space too; just record.
		c.leadMark = dur
		c.st = stateLeadSpace
	case stateBitMark:
		if !c.cand.bitMark.contains(dur) {
			c.st = stateIdle
			break
		}
		c.st = stateBitSpace
	case stateTrailMark:
		c.st = stateIdle
		if !c.cand.trailMark.contains(dur) {
			break
		}
		return c.complete()
	}
	return false
}

// spaceEnded handles a high run of dur samples finishing at the current
// sample (the line just went low, i.e. a new mark starts now).
func (c *Classifier) spaceEnded(dur uint64) {
	switch c.st {
	case stateIdle:
		c.start = c.clock
		c.st = stateLeadMark
	case stateLeadSpace:
		cand, repeat := c.selectCandidate(c.leadMark, dur)
		if cand == nil {
			// Treat the unmatched lead as noise; the mark starting
			// now may open a real frame.
			c.start = c.clock
			c.st = stateLeadMark
			break
		}
		c.cand = cand
		c.isRepeat = repeat
		c.raw = 0
		c.bits = 0
		if repeat {
			c.st = stateTrailMark
		} else {
			c.st = stateBitMark
		}
	case stateBitSpace:
		var bit uint64
		switch {
		case c.cand.bit0Space.contains(dur):
			bit = 0
		case c.cand.bit1Space.contains(dur):
			bit = 1
		default:
			c.start = c.clock
			c.st = stateLeadMark
			return
		}
		c.raw |= bit << c.bits
		c.bits++
		if c.bits == c.cand.bits {
			c.st = stateTrailMark
		} else {
			c.st = stateBitMark
		}
	}
}

// selectCandidate matches a measured lead mark/space pair against the
// timing tables. Lead windows of different protocols overlap (NEC vs JVC),
// so the candidate with the smallest relative timing error wins. A
// dedicated repeat-frame space is considered alongside the normal leads.
func (c *Classifier) selectCandidate(mark, space uint64) (*timing, bool) {
	var (
		best      *timing
		bestIsRep bool
		bestScore float64
	)
	for _, t := range timings {
		if !t.leadMark.contains(mark) {
			continue
		}
		if t.leadSpace.contains(space) {
			s := t.leadMark.score(mark) + t.leadSpace.score(space)
			if best == nil || s < bestScore {
				best, bestIsRep, bestScore = t, false, s
			}
		}
		if t.repeatSpaceUS > 0 && t.repeatSpace.contains(space) {
			s := t.leadMark.score(mark) + t.repeatSpace.score(space)
			if best == nil || s < bestScore {
				best, bestIsRep, bestScore = t, true, s
			}
		}
	}
	return best, bestIsRep
}

// complete finalizes the frame in progress. Returns false when validation
// rejects it, or when a repeat frame arrives with nothing to repeat.
func (c *Classifier) complete() bool {
	fr := Frame{Protocol: c.cand.proto, StartSample: c.start}
	if c.isRepeat {
		if !c.hasLast || c.last.Protocol != c.cand.proto {
			return false
		}
		fr.Address = c.last.Address
		fr.Command = c.last.Command
		fr.Flags = FlagRepeat
	} else {
		addr, cmd, ok := c.cand.decode(c.raw)
		if !ok {
			return false
		}
		fr.Address = addr
		fr.Command = cmd
		if c.hasLast && c.last.Protocol == fr.Protocol &&
			c.last.Address == addr && c.last.Command == cmd &&
			c.clock-c.lastEnd < repeatWindowSamples {
			fr.Flags = FlagRepeat
		}
	}
	c.pending = &fr
	c.last = fr
	c.lastEnd = c.clock
	c.hasLast = true
	return true
}
