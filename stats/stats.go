// Package stats implements the bounded top-K min/max accumulators written
// to Statistics.csv and the Top-N message-kind tables the driver writes to
// Format.csv (§4.8).
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/rtedbg/rtemsg/descriptor"
)

// MinMaxDepth bounds how many extreme values each accumulator remembers.
const MinMaxDepth = 10

// TopNSize bounds the message-kind tables written at finalization.
const TopNSize = 10

// extreme is one retained minimum or maximum, tagged with the message
// number it was observed on (so the CSV row can report "which message").
type extreme struct {
	Value float64
	MsgNo uint64
}

// Accumulator tracks bounded top-K minima and maxima plus running sum and
// count for one |stat_name| label.
type Accumulator struct {
	mins  []extreme // kept sorted ascending; evict the largest (last) to admit a smaller min
	maxs  []extreme // kept sorted descending; evict the smallest (last) to admit a larger max
	sum   float64
	count uint64
}

func (a *Accumulator) observe(value float64, msgNo uint64) {
	a.sum += value
	a.count++

	if len(a.mins) < MinMaxDepth {
		a.mins = append(a.mins, extreme{value, msgNo})
		sort.Slice(a.mins, func(i, j int) bool { return a.mins[i].Value < a.mins[j].Value })
	} else if value < a.mins[len(a.mins)-1].Value {
		a.mins[len(a.mins)-1] = extreme{value, msgNo}
		sort.Slice(a.mins, func(i, j int) bool { return a.mins[i].Value < a.mins[j].Value })
	}

	if len(a.maxs) < MinMaxDepth {
		a.maxs = append(a.maxs, extreme{value, msgNo})
		sort.Slice(a.maxs, func(i, j int) bool { return a.maxs[i].Value > a.maxs[j].Value })
	} else if value > a.maxs[len(a.maxs)-1].Value {
		a.maxs[len(a.maxs)-1] = extreme{value, msgNo}
		sort.Slice(a.maxs, func(i, j int) bool { return a.maxs[i].Value > a.maxs[j].Value })
	}
}

// Average returns the running mean, or 0 if no values were observed.
func (a *Accumulator) Average() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Collector owns one Accumulator per distinct StatKey, in first-seen
// order. The per-message-kind counters for the Top-N tables are kept by
// MessageKindStats.
type Collector struct {
	order []descriptor.StatKey
	accs  map[descriptor.StatKey]*Accumulator
}

// New constructs an empty Collector.
func New() *Collector {
	return &Collector{accs: make(map[descriptor.StatKey]*Accumulator)}
}

// Observe implements formatter.StatsFeed.
func (c *Collector) Observe(key descriptor.StatKey, value float64, msgNo uint64) {
	a, ok := c.accs[key]
	if !ok {
		a = &Accumulator{}
		c.accs[key] = a
		c.order = append(c.order, key)
	}
	a.observe(value, msgNo)
}

// WriteCSV emits one header row plus one row per stat group, in first-seen
// order: name,maxima,max-message-numbers,minima,min-message-numbers,
// average,count. The extreme-value columns are semicolon-joined lists.
func (c *Collector) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, "name,maxima,max_msg_numbers,minima,min_msg_numbers,average,count\n"); err != nil {
		return err
	}
	for _, key := range c.order {
		a := c.accs[key]
		maxVals, maxNos := extremeColumns(a.maxs)
		minVals, minNos := extremeColumns(a.mins)
		line := fmt.Sprintf("%s,%s,%s,%s,%s,%g,%d\n", key, maxVals, maxNos, minVals, minNos, a.Average(), a.count)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func extremeColumns(es []extreme) (values, msgNos string) {
	for i, e := range es {
		if i > 0 {
			values += ";"
			msgNos += ";"
		}
		values += fmt.Sprintf("%g", e.Value)
		msgNos += fmt.Sprintf("%d", e.MsgNo)
	}
	return
}

// MessageKindStats tallies occurrence count and total bytes per descriptor,
// sourced directly from descriptor.MessageDescriptor's runtime counters.
type MessageKindStats struct {
	descs []*descriptor.MessageDescriptor
}

// NewMessageKindStats snapshots every descriptor in the arena for Top-N
// finalization.
func NewMessageKindStats(descs []*descriptor.MessageDescriptor) *MessageKindStats {
	return &MessageKindStats{descs: descs}
}

// WriteTopByCount writes the TopNSize message kinds with the highest
// occurrence count, ties broken by first-seen (arena insertion) order.
func (m *MessageKindStats) WriteTopByCount(w io.Writer) error {
	return m.writeTop(w, func(d *descriptor.MessageDescriptor) uint64 { return d.CountTotal })
}

// WriteTopByBytes writes the TopNSize message kinds with the highest total
// bytes consumed, ties broken by first-seen order.
func (m *MessageKindStats) WriteTopByBytes(w io.Writer) error {
	return m.writeTop(w, func(d *descriptor.MessageDescriptor) uint64 { return d.BytesTotal })
}

func (m *MessageKindStats) writeTop(w io.Writer, key func(*descriptor.MessageDescriptor) uint64) error {
	ranked := make([]*descriptor.MessageDescriptor, len(m.descs))
	copy(ranked, m.descs)
	sort.SliceStable(ranked, func(i, j int) bool { return key(ranked[i]) > key(ranked[j]) })

	n := TopNSize
	if n > len(ranked) {
		n = len(ranked)
	}
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%s,%d\n", ranked[i].Name, key(ranked[i])); err != nil {
			return err
		}
	}
	return nil
}
