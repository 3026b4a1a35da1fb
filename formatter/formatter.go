// Package formatter renders one reassembled message's fields to their
// assigned sinks, feeding the statistics and VCD accumulators along the
// way (§4.7).
package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/extractor"
	"github.com/rtedbg/rtemsg/symtab"
)

// MaxDeferredErrors bounds the per-message deferred-error queue.
const MaxDeferredErrors = 10

// StatsFeed receives one observation per field carrying a non-empty
// StatKey.
type StatsFeed interface {
	Observe(key descriptor.StatKey, value float64, msgNo uint64)
}

// VCDFeed receives one observation per field routed to a `.vcd` sink. A
// non-empty dir.ValueLiteral carries a single-character code (0, 1, T, R, P);
// otherwise value holds the extracted, scaled numeric reading.
type VCDFeed interface {
	Observe(dir *descriptor.VCDDirective, value float64, timestampNs int64, msgNo uint64) error
}

// Sinks resolves the io.Writer backing the main log and each named
// OUT_FILE, plus the optional statistics and VCD accumulators.
type Sinks struct {
	Main   io.Writer
	ByName map[string]io.Writer
	Stats  StatsFeed
	VCD    VCDFeed
}

// DeferredError is one value-extraction failure queued for the end of the
// message instead of interrupting rendering (§4.7).
type DeferredError struct {
	Field *descriptor.FieldDescriptor
	Err   error
}

// Formatter drives the field dispatch loop for one descriptor.
type Formatter struct {
	Sinks Sinks
}

// New constructs a Formatter over the given sink set.
func New(sinks Sinks) *Formatter {
	return &Formatter{Sinks: sinks}
}

// RenderMessage walks desc's field list against msg, writing rendered text
// to each field's resolved sink. virtualSeconds is the message's already
// timestamp-engine-resolved time in seconds. Returns up to
// MaxDeferredErrors deferred errors; rendering never aborts early.
func (f *Formatter) RenderMessage(desc *descriptor.MessageDescriptor, msg []byte, virtualSeconds float64, memos extractor.MemoStore) []DeferredError {
	desc.CountSinceReset++
	desc.CountTotal++
	desc.BytesTotal += uint64(len(msg))

	var deferred []DeferredError
	defer func() {
		desc.LastTimestampS = virtualSeconds
	}()

	for _, fd := range desc.Fields {
		if fd.VCD != nil {
			if err := f.observeVCD(fd, msg, virtualSeconds, memos, desc.CountTotal); err != nil && len(deferred) < MaxDeferredErrors {
				deferred = append(deferred, DeferredError{Field: fd, Err: err})
			}
			continue
		}

		w := f.resolveWriter(fd)
		text, err := f.renderField(fd, desc, msg, virtualSeconds, memos)
		if err != nil {
			if len(deferred) < MaxDeferredErrors {
				deferred = append(deferred, DeferredError{Field: fd, Err: err})
			}
			text = zeroRendering(fd)
		}

		io.WriteString(w, text)
		if fd.AlsoToMainLog && w != f.Sinks.Main {
			io.WriteString(f.Sinks.Main, text)
		}

		if fd.StatKey != "" && f.Sinks.Stats != nil {
			if v, ok := numericValue(fd, msg); ok {
				f.Sinks.Stats.Observe(fd.StatKey, v, desc.CountTotal)
			}
		}
	}
	return deferred
}

func (f *Formatter) observeVCD(fd *descriptor.FieldDescriptor, msg []byte, virtualSeconds float64, memos extractor.MemoStore, msgNo uint64) error {
	if f.Sinks.VCD == nil {
		return nil
	}
	var value float64
	if fd.VCD.ValueLiteral == "" {
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return err
		}
		value = v.F64
	}
	return f.Sinks.VCD.Observe(fd.VCD, value, int64(virtualSeconds*1e9), msgNo)
}

func (f *Formatter) resolveWriter(fd *descriptor.FieldDescriptor) io.Writer {
	if fd.SinkOutFile == nil {
		return f.Sinks.Main
	}
	if w, ok := f.Sinks.ByName[fd.SinkOutFile.Name]; ok {
		return w
	}
	return f.Sinks.Main
}

func numericValue(fd *descriptor.FieldDescriptor, msg []byte) (float64, bool) {
	v, err := extractor.Extract(fd, msg, nil)
	if err != nil {
		return 0, false
	}
	return v.F64, true
}

func zeroRendering(fd *descriptor.FieldDescriptor) string {
	return fmt.Sprintf(placeholderOrDefault(fd.FmtString), 0)
}

func placeholderOrDefault(fmtString string) string {
	if fmtString == "" {
		return "%v"
	}
	return fmtString
}

// renderField dispatches on fd.PrintType, producing the final rendered
// text for the field (prefix text included, per the compiled FmtString).
func (f *Formatter) renderField(fd *descriptor.FieldDescriptor, desc *descriptor.MessageDescriptor, msg []byte, virtualSeconds float64, memos extractor.MemoStore) (string, error) {
	switch fd.PrintType {
	case descriptor.PrintMessageNumber:
		return sprintf(fd, desc.CountTotal), nil
	case descriptor.PrintMessageName:
		return sprintf(fd, desc.Name), nil
	case descriptor.PrintTimestamp:
		return sprintf(fd, virtualSeconds), nil
	case descriptor.PrintDeltaTimestamp:
		return sprintf(fd, virtualSeconds-desc.LastTimestampS), nil
	case descriptor.PrintDate:
		return sprintf(fd, time.Unix(int64(virtualSeconds), 0).UTC().Format(time.RFC3339)), nil
	case descriptor.PrintBinaryToFile:
		return renderBinaryToFile(msg), nil
	case descriptor.PrintHexDump1:
		return sprintf(fd, hexDumpGroups(msg, 1)), nil
	case descriptor.PrintHexDump2:
		return sprintf(fd, hexDumpGroups(msg, 2)), nil
	case descriptor.PrintHexDump4:
		return sprintf(fd, hexDumpGroups(msg, 4)), nil
	case descriptor.PrintPlainText:
		return fd.FmtString, nil
	case descriptor.PrintString:
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return "", err
		}
		return sprintf(fd, v.Str), nil
	case descriptor.PrintSelectedText:
		return renderSelectedText(fd, msg, memos)
	case descriptor.PrintBinaryDigits:
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return "", err
		}
		return sprintf(fd, binaryDigits(v.U64, fd.BitSize)), nil
	case descriptor.PrintInt:
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return "", err
		}
		return sprintf(fd, v.I64), nil
	case descriptor.PrintDouble:
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return "", err
		}
		return sprintf(fd, v.F64), nil
	default: // PrintUint and anything else numeric
		v, err := extractor.Extract(fd, msg, memos)
		if err != nil {
			return "", err
		}
		return sprintf(fd, v.U64), nil
	}
}

func sprintf(fd *descriptor.FieldDescriptor, arg interface{}) string {
	return fmt.Sprintf(placeholderOrDefault(fd.FmtString), arg)
}

func renderBinaryToFile(msg []byte) string {
	return string(msg)
}

func binaryDigits(v uint64, bitSize int) string {
	if bitSize <= 0 {
		bitSize = 64
	}
	var b strings.Builder
	for i := bitSize - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// hexDumpGroups formats msg as groupSize-byte hex words, padding the final
// partial group with ".." per missing byte.
func hexDumpGroups(msg []byte, groupSize int) string {
	var b strings.Builder
	for i := 0; i < len(msg); i += groupSize {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + groupSize
		for j := i; j < end; j++ {
			if j < len(msg) {
				fmt.Fprintf(&b, "%02X", msg[j])
			} else {
				b.WriteString("..")
			}
		}
	}
	return b.String()
}

// renderSelectedText looks up the ordinal-addressed string for a %Y field
// from whichever text table (IN_FILE binding or an immediately preceding
// inline `{a|b|...}` clause) was active when the field was compiled.
func renderSelectedText(fd *descriptor.FieldDescriptor, msg []byte, memos extractor.MemoStore) (string, error) {
	v, err := extractor.Extract(fd, msg, memos)
	if err != nil {
		return "", err
	}
	var blob *symtab.TextBlob
	switch {
	case fd.InFile != nil:
		blob = fd.InFile.Blob
	case fd.InlineText != nil:
		blob = fd.InlineText.Blob
	}
	if blob == nil {
		return sprintf(fd, ""), nil
	}
	text, err := blob.Lookup(v.U64)
	if err != nil {
		return "", err
	}
	return sprintf(fd, text), nil
}
