// Package bufferloader translates a header plus a raw snapshot file into a
// linear stream of 32-bit words, honoring the post-mortem / single-shot /
// streaming layout rules of §4.3.
package bufferloader

import (
	"encoding/binary"
	"fmt"

	"github.com/rtedbg/rtemsg/header"
)

// Sentinel is the all-ones "uninitialized slot" marker.
const Sentinel uint32 = 0xFFFFFFFF

// Stream is a linearized, randomly addressable view over the decoded word
// sequence. The reassembler and timestamp engine both need bounded
// lookahead (continuation lookahead, long-timestamp anchor search), so the
// whole linearized sequence is held in memory rather than exposed as a
// one-shot iterator — the input is, by definition, a completed snapshot
// (§1 Non-goals: no live capture), so nothing is gained by streaming it.
type Stream struct {
	Words []uint32
}

// Len reports the number of words in the linearized stream.
func (s *Stream) Len() int { return len(s.Words) }

// At returns the word at position i.
func (s *Stream) At(i int) uint32 { return s.Words[i] }

// Peek returns up to n words starting at position i, truncated at the end
// of the stream.
func (s *Stream) Peek(i, n int) []uint32 {
	end := i + n
	if end > len(s.Words) {
		end = len(s.Words)
	}
	if i >= end {
		return nil
	}
	return s.Words[i:end]
}

func wordsFromBytes(buf []byte) []uint32 {
	n := len(buf) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out
}

// Load takes the raw file bytes, header included, skips the first
// h.Config.HeaderSizeWords*4 bytes (header.Size when that is 0), and
// linearizes the remaining payload per the header's logging mode.
func Load(buf []byte, h *header.Header) (*Stream, error) {
	headerBytes := h.Config.HeaderSizeWords * 4
	if headerBytes == 0 {
		headerBytes = header.Size
	}
	if len(buf) < headerBytes {
		return nil, fmt.Errorf("file too small: need at least %d header bytes, got %d", headerBytes, len(buf))
	}
	payload := buf[headerBytes:]
	words := wordsFromBytes(payload)

	switch h.LoggingMode {
	case header.ModeSingleShot:
		return loadSingleShot(words, h)
	case header.ModePostMortem:
		return loadPostMortem(words, h)
	case header.ModeStreaming, header.ModeMultipleCapture:
		// A completed snapshot has no further disk blocks to append; the
		// sliding-window rule collapses to a single linear read in file
		// order (§1 Non-goals: no live capture).
		return &Stream{Words: words}, nil
	default:
		return nil, fmt.Errorf("unknown logging mode %v", h.LoggingMode)
	}
}

func loadSingleShot(words []uint32, h *header.Header) (*Stream, error) {
	last := int(h.LastIndex)
	if last > len(words) {
		last = len(words)
	}
	words = words[:last]

	start := 0
	for start < len(words) && words[start] == Sentinel {
		start++
	}
	return &Stream{Words: words[start:]}, nil
}

func loadPostMortem(words []uint32, h *header.Header) (*Stream, error) {
	size := len(words)
	last := int(h.LastIndex)
	if last < 0 || last > size {
		return nil, fmt.Errorf("last_index %d out of range [0,%d]", last, size)
	}

	skipStart := 0
	if h.Config.BufferSizePow2 {
		// Count a run of guard sentinels immediately after last_index and
		// skip the complementary amount at the very start so that
		// size == skip_start + skip_end + usable holds (§4.3, §9 open
		// question 2: this adjustment applies only for power-of-2 sizes).
		guard := 0
		for guard < 4 && last+guard < size && words[last+guard] == Sentinel {
			guard++
		}
		skipStart = 4 - guard
	}

	// Linearize as [last_index..end) then [skip_start..last_index).
	tail := words[last:size]
	head := words[skipStart:last]
	out := make([]uint32, 0, len(tail)+len(head))
	out = append(out, tail...)
	out = append(out, head...)
	return &Stream{Words: out}, nil
}
