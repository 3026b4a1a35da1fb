package reassembler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtedbg/rtemsg/bufferloader"
	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/reassembler"
)

const fmtIDBits = 9

func fmtWord(id int, tsLow uint32) uint32 {
	return uint32(id)<<uint(32-fmtIDBits) | (tsLow << 1) | 1
}

func setupTable(descs map[int]*descriptor.MessageDescriptor) (*descriptor.Table, *descriptor.Arena) {
	arena := descriptor.NewArena()
	table := descriptor.NewTable(fmtIDBits)
	for id, d := range descs {
		h := arena.Add(d)
		table.Set(id, 1, h)
	}
	return table, arena
}

func TestMsg0MessageWithNoDataWords(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG0_HELLO", Kind: descriptor.KindMSGn, ExpectedLen: 0}
	table, arena := setupTable(map[int]*descriptor.MessageDescriptor{4: desc})

	words := []uint32{fmtWord(4, 0)}
	stream := &bufferloader.Stream{Words: words}
	r := reassembler.New(stream, fmtIDBits, 256, table, arena)

	res := r.Next()
	require.Equal(t, reassembler.OutcomeOk, res.Outcome)
	assert.Equal(t, 4, res.Message.FormatID)
	assert.Empty(t, res.Message.Bytes)

	res = r.Next()
	assert.Equal(t, reassembler.OutcomeEndOfStream, res.Outcome)
}

func TestBitFieldMessageCarriesDataWordVerbatim(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG1_V", Kind: descriptor.KindMSGn, ExpectedLen: 4}
	table, arena := setupTable(map[int]*descriptor.MessageDescriptor{5: desc})

	data := uint32(0xABCDE123) &^ 1 // ensure bit0=0 (DATA word)
	words := []uint32{data, fmtWord(5, 0)}
	stream := &bufferloader.Stream{Words: words}
	r := reassembler.New(stream, fmtIDBits, 256, table, arena)

	res := r.Next()
	require.Equal(t, reassembler.OutcomeOk, res.Outcome)
	require.Len(t, res.Message.Bytes, 4)

	got := uint32(res.Message.Bytes[0]) | uint32(res.Message.Bytes[1])<<8 |
		uint32(res.Message.Bytes[2])<<16 | uint32(res.Message.Bytes[3])<<24
	assert.Equal(t, data, got)
}

func TestUnfinishedBlockOnLeadingSentinelRun(t *testing.T) {
	table, arena := setupTable(nil)
	words := []uint32{bufferloader.Sentinel, bufferloader.Sentinel}
	stream := &bufferloader.Stream{Words: words}
	r := reassembler.New(stream, fmtIDBits, 256, table, arena)

	res := r.Next()
	assert.Equal(t, reassembler.OutcomeUnfinishedBlock, res.Outcome)
	assert.Equal(t, 2, res.NSent)
}

func TestNoDescriptorForUnknownFormatID(t *testing.T) {
	table, arena := setupTable(nil)
	words := []uint32{fmtWord(7, 0)}
	stream := &bufferloader.Stream{Words: words}
	r := reassembler.New(stream, fmtIDBits, 256, table, arena)

	res := r.Next()
	assert.Equal(t, reassembler.OutcomeNoDescriptor, res.Outcome)
	assert.Equal(t, 7, res.FmtID)
}

func TestBadBlockWhenMoreThanFourDataWordsPrecedeFmt(t *testing.T) {
	table, arena := setupTable(nil)
	words := []uint32{0, 0, 0, 0, 0, fmtWord(1, 0)}
	stream := &bufferloader.Stream{Words: words}
	r := reassembler.New(stream, fmtIDBits, 256, table, arena)

	res := r.Next()
	assert.Equal(t, reassembler.OutcomeBadBlock, res.Outcome)
	assert.Equal(t, 5, res.NWords)
}
