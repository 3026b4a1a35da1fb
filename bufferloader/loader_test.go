package bufferloader_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtedbg/rtemsg/bufferloader"
	"github.com/rtedbg/rtemsg/header"
)

func wordsToBytes(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf
}

func fakeHeader(mode header.LoggingMode, lastIndex uint32, pow2 bool) *header.Header {
	h := &header.Header{
		LastIndex:   lastIndex,
		LoggingMode: mode,
	}
	h.Config.HeaderSizeWords = 6
	h.Config.BufferSizePow2 = pow2
	return h
}

func TestSingleShotTruncatesAndSkipsLeadingSentinels(t *testing.T) {
	h := fakeHeader(header.ModeSingleShot, 3, false)
	payload := []uint32{bufferloader.Sentinel, 0xAAAA0001, 0xBBBB0001, 0xFFFFFFFE /* not consumed, beyond last_index */}
	buf := append(make([]byte, header.Size), wordsToBytes(payload)...)

	s, err := bufferloader.Load(buf, h)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xAAAA0001, 0xBBBB0001}, s.Words)
}

func TestPostMortemLinearizesTailThenHead(t *testing.T) {
	h := fakeHeader(header.ModePostMortem, 2, false)
	payload := []uint32{1, 2, 3, 4}
	buf := append(make([]byte, header.Size), wordsToBytes(payload)...)

	s, err := bufferloader.Load(buf, h)
	require.NoError(t, err)
	// tail = words[2:4] = {3,4}; head = words[0:2] = {1,2}
	assert.Equal(t, []uint32{3, 4, 1, 2}, s.Words)
}

func TestPostMortemPow2SkipsTrailingGuard(t *testing.T) {
	h := fakeHeader(header.ModePostMortem, 4, true)
	// last_index=4; guard words at [4,5] are sentinels (2 of them) so
	// skip_start = 4-2 = 2.
	payload := []uint32{10, 20, 30, 40, bufferloader.Sentinel, bufferloader.Sentinel, 70, 80}
	buf := append(make([]byte, header.Size), wordsToBytes(payload)...)

	s, err := bufferloader.Load(buf, h)
	require.NoError(t, err)
	// tail = words[4:8]; head = words[2:4]
	assert.Equal(t, []uint32{bufferloader.Sentinel, bufferloader.Sentinel, 70, 80, 30, 40}, s.Words)
}
