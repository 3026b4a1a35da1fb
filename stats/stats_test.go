package stats_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/stats"
)

func TestAccumulatorTracksBoundedMinMaxAndAverage(t *testing.T) {
	c := stats.New()
	for i, v := range []float64{5, 1, 9, 3, 7} {
		c.Observe("temp", v, uint64(i+1))
	}

	var buf strings.Builder
	require.NoError(t, c.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "temp,"))
	assert.True(t, strings.HasSuffix(lines[1], ",5")) // count column
}

func TestAccumulatorEvictsWhenDepthExceeded(t *testing.T) {
	c := stats.New()
	for i := 0; i < stats.MinMaxDepth+5; i++ {
		c.Observe("k", float64(i), uint64(i))
	}
	var buf strings.Builder
	require.NoError(t, c.WriteCSV(&buf))
	line := strings.Split(strings.TrimSpace(buf.String()), "\n")[1]
	fields := strings.Split(line, ",")
	maxima := strings.Split(fields[1], ";")
	minima := strings.Split(fields[3], ";")
	assert.Len(t, maxima, stats.MinMaxDepth)
	assert.Len(t, minima, stats.MinMaxDepth)
	assert.Equal(t, "14", maxima[0]) // largest observed value, depth+5-1
	assert.Equal(t, "0", minima[0])  // smallest observed value
}

func TestTopByCountBreaksTiesByInsertionOrder(t *testing.T) {
	a := &descriptor.MessageDescriptor{Name: "FIRST", CountTotal: 5}
	b := &descriptor.MessageDescriptor{Name: "SECOND", CountTotal: 5}
	m := stats.NewMessageKindStats([]*descriptor.MessageDescriptor{a, b})

	var buf strings.Builder
	require.NoError(t, m.WriteTopByCount(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "FIRST,5", lines[0])
	assert.Equal(t, "SECOND,5", lines[1])
}

func TestTopByBytesLimitsToTopN(t *testing.T) {
	var descs []*descriptor.MessageDescriptor
	for i := 0; i < stats.TopNSize+3; i++ {
		descs = append(descs, &descriptor.MessageDescriptor{Name: "M", BytesTotal: uint64(i)})
	}
	m := stats.NewMessageKindStats(descs)
	var buf strings.Builder
	require.NoError(t, m.WriteTopByBytes(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, stats.TopNSize)
}
