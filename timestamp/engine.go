// Package timestamp maintains the 64-bit virtual timestamp across 15..22
// bit low fragments carried in every FMT word (§4.5).
package timestamp

import "github.com/rtedbg/rtemsg/bufferloader"

// Default rollover-window bounds, expressed as a fraction of the normalized
// period P = 2^32. Units are seconds-in-ms converted to normalized ticks
// by the caller; the engine itself only ever compares already-normalized
// values.
const (
	DefaultDeltaPlusFrac  = 0.33
	DefaultDeltaMinusFrac = -0.10

	// P is the normalized period: ts_low is always scaled left so one full
	// cycle is P.
	P int64 = 1 << 32

	// minMessagesBetweenBumps: hi only advances if at least this many
	// messages have passed since the previous bump (§4.5 rule 3).
	minMessagesBetweenBumps = 4
)

// Classification reports why a message's timestamp update took the path it
// did; useful for tests and for the "suspicious" flag surfaced to callers.
type Classification int

const (
	ClassNormal Classification = iota
	ClassOutOfOrder
	ClassWrappedForward
	ClassLateFromPreviousCycle
	ClassSuspicious
)

// Engine is the stateful 64-bit timestamp reconstructor.
type Engine struct {
	Hi              uint32
	LastLow         uint32
	MsgOfLastHiBump uint64
	SearchedTo      int
	NoPrevious      bool
	LongTSFound     bool
	NeverSawLongTS  bool

	DeltaPlus  int64
	DeltaMinus int64

	msgCount uint64

	secondsPerTick float64
}

// New constructs an Engine with the default rollover window and an
// explicit seconds-per-tick multiplier (derived from the header's
// timestamp_frequency and timestamp_shift).
func New(secondsPerTick float64) *Engine {
	return &Engine{
		NoPrevious:     true,
		DeltaPlus:      int64(DefaultDeltaPlusFrac * float64(P)),
		DeltaMinus:     int64(DefaultDeltaMinusFrac * float64(P)),
		secondsPerTick: secondsPerTick,
	}
}

// SetFrequency updates the seconds-per-tick multiplier prospectively, in
// response to a TSTAMP_FREQUENCY system message.
func (e *Engine) SetFrequency(secondsPerTick float64) {
	e.secondsPerTick = secondsPerTick
}

// Update applies one FMT word's low timestamp fragment and returns the
// 64-bit virtual timestamp (in ticks, not seconds) the message should be
// stamped with, plus the classification that produced it.
func (e *Engine) Update(tsLow uint32) (virtual int64, class Classification) {
	e.msgCount++

	if e.NoPrevious {
		e.NoPrevious = false
		e.LastLow = tsLow
		e.MsgOfLastHiBump = e.msgCount
		return int64(e.Hi)<<32 | int64(tsLow), ClassNormal
	}

	d := int64(tsLow) - int64(e.LastLow)
	half := P / 2

	switch {
	case d >= 0 && d <= e.DeltaPlus:
		e.LastLow = tsLow
		return int64(e.Hi)<<32 | int64(tsLow), ClassNormal

	case d >= e.DeltaMinus && d < 0:
		// Out-of-order within window: do not update last_low or hi.
		return int64(e.Hi)<<32 | int64(tsLow), ClassOutOfOrder

	case int64(e.LastLow) >= half && d <= -(P-e.DeltaPlus):
		if e.msgCount-e.MsgOfLastHiBump >= minMessagesBetweenBumps {
			e.Hi++
			e.MsgOfLastHiBump = e.msgCount
		}
		e.LastLow = tsLow
		return int64(e.Hi)<<32 | int64(tsLow), ClassWrappedForward

	case int64(e.LastLow) < half && d >= (P+e.DeltaMinus):
		// Late message from the previous cycle: emit with hi-1, do not
		// update state (§9 open question 1: old_tstamp_l is not updated).
		return int64(e.Hi-1)<<32 | int64(tsLow), ClassLateFromPreviousCycle

	default:
		e.LongTSFound = false // arm a long-timestamp search
		return int64(e.Hi)<<32 | int64(tsLow), ClassSuspicious
	}
}

// Seconds converts a virtual tick count to seconds using the current
// seconds-per-tick multiplier.
func (e *Engine) Seconds(virtual int64) float64 {
	return float64(virtual) * e.secondsPerTick
}

// ApplyLongTimestamp installs a firmware-reported 32-bit high half,
// discovered by the long-timestamp anchor search (§4.5).
func (e *Engine) ApplyLongTimestamp(hi uint32) {
	e.Hi = hi
	e.LongTSFound = true
}

// MarkNoLongTimestampEverSeen records the permanent warning raised when the
// firmware had long-timestamps disabled and none was ever found.
func (e *Engine) MarkNoLongTimestampEverSeen() {
	e.NeverSawLongTS = true
}

// FmtIDValidator reports whether fmtID names a known descriptor and, if it
// is the LONG_TIMESTAMP system message, returns its carried 32-bit high
// half.
type FmtIDValidator func(fmtID int) (known bool, isLongTimestamp bool, hi uint32)

// SearchLongTimestamp walks forward through the unconsumed portion of the
// stream (resumable via e.SearchedTo), looking for a LONG_TIMESTAMP system
// message. It aborts if a streaming marker intervenes (§9 open question 3:
// treated as a terminator) and installs the new Hi if an anchor is found.
// The timestamps of the FMT words it passes over are not examined, so a
// jump between them does not stop the search.
func (e *Engine) SearchLongTimestamp(stream *bufferloader.Stream, fmtIDBits int, isStreamingMark func(fmtID int) bool, validate FmtIDValidator) (found bool) {
	pos := e.SearchedTo
	for pos < stream.Len() {
		w := stream.At(pos)
		pos++
		if w == bufferloader.Sentinel || w&1 == 0 {
			continue // only FMT words carry a format id
		}
		fmtID := int(w >> uint(32-fmtIDBits))

		if isStreamingMark(fmtID) {
			e.SearchedTo = pos
			return false
		}

		known, isLong, hi := validate(fmtID)
		if !known {
			continue
		}
		if isLong {
			e.ApplyLongTimestamp(hi)
			e.SearchedTo = pos
			return true
		}
	}
	e.SearchedTo = pos
	return false
}
