// Package reassembler turns the linearized word stream into logical
// messages, recovering from torn writes and loss per §4.4.
package reassembler

import (
	"encoding/binary"

	"github.com/rtedbg/rtemsg/bufferloader"
	"github.com/rtedbg/rtemsg/descriptor"
)

// Outcome classifies what Next produced.
type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeBadBlock
	OutcomeUnfinishedBlock
	OutcomeMessageTooLong
	OutcomeNoDescriptor
	OutcomeEndOfStream
)

// Message is one fully reassembled logical message.
type Message struct {
	FormatID     int
	TimestampLow uint32
	Bytes        []byte
	Handle       descriptor.Handle
}

// Result is one event surfaced to the decode driver loop.
type Result struct {
	Outcome Outcome
	Message *Message
	NWords  int // for BadBlock
	NSent   int // for UnfinishedBlock
	FmtID   int // for NoDescriptor
}

type pendingSubpacket struct {
	fmtID int
	tsLow uint32
	words []uint32
}

// Reassembler drives the Scan/InMessage state machine described in §4.4.
type Reassembler struct {
	stream        *bufferloader.Stream
	pos           int
	fmtIDBits     int
	maxSubpackets int
	table         *descriptor.Table
	arena         *descriptor.Arena

	dataWords []uint32 // words staged for the subpacket currently being scanned

	current      *Message // in-progress multi-subpacket assembly
	currentDesc  *descriptor.MessageDescriptor
	subpackets   int
	stashed      *pendingSubpacket // a subpacket already consumed that didn't match `current`
}

// New constructs a Reassembler over stream.
func New(stream *bufferloader.Stream, fmtIDBits, maxSubpackets int, table *descriptor.Table, arena *descriptor.Arena) *Reassembler {
	return &Reassembler{
		stream:        stream,
		fmtIDBits:     fmtIDBits,
		maxSubpackets: maxSubpackets,
		table:         table,
		arena:         arena,
	}
}

func tsLowBits(fmtIDBits int) uint {
	return uint(32 - fmtIDBits - 1)
}

func splitFmtWord(w uint32, fmtIDBits int) (fmtID int, tsLow uint32) {
	fmtID = int(w >> uint(32-fmtIDBits))
	mask := uint32(1)<<tsLowBits(fmtIDBits) - 1
	tsLow = (w >> 1) & mask
	return
}

// Next advances the state machine by at least one input word and returns
// the next event. Call it repeatedly until Outcome == OutcomeEndOfStream.
func (r *Reassembler) Next() Result {
	for {
		if r.stashed != nil {
			p := r.stashed
			r.stashed = nil
			if res, done := r.acceptSubpacket(p); done {
				return res
			}
			continue
		}

		if r.pos >= r.stream.Len() {
			if r.current != nil {
				msg := r.current
				r.current = nil
				return Result{Outcome: OutcomeOk, Message: msg}
			}
			return Result{Outcome: OutcomeEndOfStream}
		}

		w := r.stream.At(r.pos)

		if w == bufferloader.Sentinel {
			if r.current != nil {
				msg := r.current
				r.current = nil
				r.pos++
				return Result{Outcome: OutcomeOk, Message: msg}
			}
			n := 0
			for r.pos < r.stream.Len() && r.stream.At(r.pos) == bufferloader.Sentinel {
				r.pos++
				n++
			}
			r.dataWords = nil
			return Result{Outcome: OutcomeUnfinishedBlock, NSent: n}
		}

		if w&1 == 0 { // DATA word
			r.dataWords = append(r.dataWords, w)
			r.pos++
			if len(r.dataWords) > 4 {
				n := len(r.dataWords)
				r.dataWords = nil
				return Result{Outcome: OutcomeBadBlock, NWords: n}
			}
			continue
		}

		// FMT word.
		fmtID, tsLow := splitFmtWord(w, r.fmtIDBits)
		r.pos++
		p := &pendingSubpacket{fmtID: fmtID, tsLow: tsLow, words: r.dataWords}
		r.dataWords = nil
		if res, done := r.acceptSubpacket(p); done {
			return res
		}
	}
}

// acceptSubpacket processes one completed subpacket. done=true means a
// Result is ready to surface to the caller; done=false means the loop
// should keep scanning (continuation was found, or the subpacket was
// folded into the in-progress assembly without yielding yet).
func (r *Reassembler) acceptSubpacket(p *pendingSubpacket) (Result, bool) {
	h, ok := r.table.Lookup(p.fmtID)
	if !ok {
		r.dataWords = nil
		return Result{Outcome: OutcomeNoDescriptor, FmtID: p.fmtID}, true
	}
	desc := r.arena.Get(h)

	if r.current != nil && (r.current.FormatID != p.fmtID || r.current.TimestampLow != p.tsLow) {
		// New tag doesn't match the in-progress assembly: emit what we
		// have, stash this subpacket so it starts the next message.
		msg := r.current
		r.current = nil
		r.subpackets = 0
		r.stashed = p
		return Result{Outcome: OutcomeOk, Message: msg}, true
	}

	expected := r.expectedWordsForPacket(desc, r.current)
	if len(p.words) > expected {
		return Result{Outcome: OutcomeBadBlock, NWords: len(p.words)}, true
	}

	chunk := decodeSubpacket(desc, p.words, p.fmtID, r.fmtIDBits)

	if r.current == nil {
		r.current = &Message{FormatID: p.fmtID, TimestampLow: p.tsLow, Handle: h}
		r.currentDesc = desc
		r.subpackets = 0
	}
	r.current.Bytes = append(r.current.Bytes, chunk...)
	r.subpackets++

	if r.subpackets*4 >= 4*r.maxSubpackets {
		msg := r.current
		r.current = nil
		r.subpackets = 0
		return Result{Outcome: OutcomeMessageTooLong, Message: msg}, true
	}

	if !r.hasContinuation(p.fmtID, p.tsLow) {
		msg := r.current
		r.current = nil
		r.subpackets = 0
		return Result{Outcome: OutcomeOk, Message: msg}, true
	}
	return Result{}, false
}

// expectedWordsForPacket bounds how many DATA words the *current* subpacket
// may legally carry, given how much of the message has already been
// assembled. Variable-length kinds (MSGN, MSGX) have no tight bound short
// of the 4-word subpacket ceiling.
func (r *Reassembler) expectedWordsForPacket(desc *descriptor.MessageDescriptor, inProgress *Message) int {
	already := 0
	if inProgress != nil {
		already = len(inProgress.Bytes)
	}
	switch desc.Kind {
	case descriptor.KindMSGn:
		remaining := (desc.ExpectedLen - already) / 4
		if remaining < 0 {
			remaining = 0
		}
		if remaining > 4 {
			remaining = 4
		}
		return remaining
	case descriptor.KindExtMsg:
		total := desc.ExpectedLen / 4
		remaining := total - already/4
		if remaining > 4 {
			remaining = 4
		}
		if remaining < 0 {
			remaining = 0
		}
		return remaining
	default: // MSGN, MSGX: unknown length ahead of time
		return 4
	}
}

// hasContinuation scans forward up to 5 words without consuming them;
// continuation exists iff the first FMT word encountered carries the same
// tag and no sentinel precedes it (§4.4).
func (r *Reassembler) hasContinuation(fmtID int, tsLow uint32) bool {
	for _, w := range r.stream.Peek(r.pos, 5) {
		if w == bufferloader.Sentinel {
			return false
		}
		if w&1 == 1 {
			nextID, nextTs := splitFmtWord(w, r.fmtIDBits)
			return nextID == fmtID && nextTs == tsLow
		}
	}
	return false
}

func wordLEBytes(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}

// decodeSubpacket restores the assembled-message bytes for one subpacket.
// For EXT_MSG kinds, each DATA word donated its bit 31; the donation plus
// the trailing extended-data byte are recombined from the FMT word's low
// bits, MSB-first across the packet (§3, §4.4). Other kinds use the DATA
// words verbatim.
func decodeSubpacket(desc *descriptor.MessageDescriptor, words []uint32, fmtID, fmtIDBits int) []byte {
	if desc.Kind != descriptor.KindExtMsg || len(words) == 0 {
		out := make([]byte, 0, 4*len(words))
		for _, w := range words {
			out = append(out, wordLEBytes(w)...)
		}
		return out
	}

	m := len(words)
	k := desc.StolenBits
	lowBits := uint32(fmtID) & (1<<uint(m+k) - 1)

	out := make([]byte, 0, 4*m+1)
	for i, w := range words {
		bitPos := m + k - 1 - i
		bit := (lowBits >> uint(bitPos)) & 1
		restored := (w &^ (1 << 31)) | (bit << 31)
		out = append(out, wordLEBytes(restored)...)
	}
	extByte := byte(lowBits & (1<<uint(k) - 1))
	out = append(out, extByte)
	return out
}
