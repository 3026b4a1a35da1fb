// Package descriptor holds the compiled, immutable format-definition model
// produced by the format compiler (package fmtcompiler) and consumed
// read-only by the decode pipeline (reassembler, extractor, formatter).
//
// Format IDs alias a shared MessageDescriptor whenever alignment reserves a
// range of IDs for one message; that sharing is modeled as a flat slice of
// optional handles into a separate arena, per the spec's design notes.
package descriptor

import "github.com/rtedbg/rtemsg/symtab"

// Kind is the message-length discipline of a MessageDescriptor.
type Kind int

const (
	KindMSGn    Kind = iota // MSG0..MSG4: fixed length 4n, occupies 2^n IDs
	KindMSGN                // MSGN / MSGN_k: variable (0=unknown) or fixed 4k, occupies 16 IDs
	KindExtMsg              // EXT_MSGm_k: fixed 4m bytes + k stolen bits, occupies 2^(m+k) IDs
	KindMSGX                // MSGX: self-describing, last byte of last DATA word is length
)

// DataType is the value interpretation requested by a field.
type DataType int

const (
	DataAuto DataType = iota
	DataU64
	DataI64
	DataF64
	DataString
	DataTimestamp
	DataDeltaTimestamp
	DataMemo
	DataTimeDiff
	DataMsgNo
)

// PrintType selects one of the ~15 rendering routines in the formatter.
type PrintType int

const (
	PrintUint PrintType = iota
	PrintInt
	PrintDouble
	PrintPlainText
	PrintString
	PrintBinaryDigits
	PrintTimestamp
	PrintDeltaTimestamp
	PrintSelectedText // %Y
	PrintHexDump1     // %1H
	PrintHexDump2     // %2H
	PrintHexDump4     // %4H
	PrintBinaryToFile // %W
	PrintMessageNumber
	PrintMessageName
	PrintDate
)

// VCDKind is the `T` type tag in a `T NAME = VALUE` VCD directive.
type VCDKind byte

const (
	VCDBit    VCDKind = 'B'
	VCDFloat  VCDKind = 'F'
	VCDString VCDKind = 'S'
	VCDAnalog VCDKind = 'A'
)

// VCDDirective is the compiled form of a `T NAME = VALUE` clause bound to a
// field. When ValueLiteral is non-empty the field carries a single-character
// code (0, 1, T, R, P) rather than an extracted numeric value. The
// fmtcompiler package does not build VCDDirective values: fields it
// compiles have VCD == nil, so only a FieldDescriptor built directly
// routes values to a VCD sink.
type VCDDirective struct {
	SinkName     string
	VarName      string
	VKind        VCDKind
	ValueLiteral string
}

// Scaling is the optional affine transform `(raw + Offset) * Mult`. A zero
// Mult disables scaling (the raw value is used as-is).
type Scaling struct {
	Offset float64
	Mult   float64
}

// StatKey, when non-empty, names the |stat_name| label under which this
// field's values are tracked by the statistics sink.
type StatKey string

// FieldDescriptor is one `%`-directive's compiled form.
type FieldDescriptor struct {
	FmtString string // printf-style fragment preceding this field, plus the field itself
	PrintType PrintType
	DataType  DataType

	BitAddress int // relative to the start of the assembled message
	BitSize    int

	Scale      Scaling
	HasScaling bool

	GetMemo *symtab.Memo // %[M_NAME]: read
	PutMemo *symtab.Memo // <M_NAME>: write-back

	RelTimerFmtID int  // for [T-MSG_NAME]: format id of the reference message; the compiler leaves it 0
	HasRelTimer   bool

	InFile     *symtab.InFile     // binding active when this field was parsed (%Y)
	InlineText *symtab.InlineText // or an anonymous {a|b|...} immediately preceding

	SinkOutFile   *symtab.OutFile // nil means the main log
	AlsoToMainLog bool            // set by a ">>" binding: duplicate rendered bytes to the main log

	StatKey StatKey // non-empty enables min/max/avg tracking

	VCD *VCDDirective // non-nil routes this field to a VCD sink instead of text rendering
}

// MessageDescriptor is the compiled definition of one message format,
// shared by every format ID an alignment reservation assigned to it.
type MessageDescriptor struct {
	Name        string
	Kind        Kind
	ExpectedLen int // bytes; 0 means variable/unknown (MSGN unknown-length, MSGX)
	ExtDataMask uint32
	StolenBits  int // k, for KindExtMsg

	Fields []*FieldDescriptor // non-empty after a successful compile

	// Runtime counters, mutated during decode only.
	CountSinceReset uint64
	CountTotal      uint64
	BytesTotal      uint64
	LastTimestampS  float64
}

// Handle is an index into an Arena's backing slice.
type Handle int

// Arena owns every compiled MessageDescriptor. Multiple format IDs may
// share one Handle without any ownership ambiguity.
type Arena struct {
	descs []*MessageDescriptor
}

// NewArena constructs an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add stores d and returns its handle.
func (a *Arena) Add(d *MessageDescriptor) Handle {
	a.descs = append(a.descs, d)
	return Handle(len(a.descs) - 1)
}

// Get resolves a handle to its descriptor.
func (a *Arena) Get(h Handle) *MessageDescriptor {
	return a.descs[h]
}

// Len reports how many distinct descriptors the arena holds.
func (a *Arena) Len() int {
	return len(a.descs)
}

// All iterates every distinct descriptor exactly once, in insertion order.
func (a *Arena) All() []*MessageDescriptor {
	return a.descs
}

// Table maps each of the 2^N possible format IDs to an optional handle.
// Slots reserved by alignment but never assigned stay nil.
type Table struct {
	slots []*Handle
}

// NewTable allocates a table sized for fmtIDBits bits of format ID space.
func NewTable(fmtIDBits int) *Table {
	return &Table{slots: make([]*Handle, 1<<uint(fmtIDBits))}
}

// Set assigns handle to every id in [start, start+count).
func (t *Table) Set(start, count int, h Handle) {
	for i := start; i < start+count; i++ {
		hh := h
		t.slots[i] = &hh
	}
}

// Lookup returns the handle bound to id, or ok=false if unbound.
func (t *Table) Lookup(id int) (Handle, bool) {
	if id < 0 || id >= len(t.slots) || t.slots[id] == nil {
		return 0, false
	}
	return *t.slots[id], true
}

// IsFree reports whether every id in [start, start+count) is unbound.
func (t *Table) IsFree(start, count int) bool {
	if start < 0 || start+count > len(t.slots) {
		return false
	}
	for i := start; i < start+count; i++ {
		if t.slots[i] != nil {
			return false
		}
	}
	return true
}

// Size reports the total number of format-ID slots.
func (t *Table) Size() int {
	return len(t.slots)
}
