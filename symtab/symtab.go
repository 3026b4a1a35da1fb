// Package symtab implements the format compiler's symbol/enum table: named
// scopes for filters, memos, in-files, out-files, and anonymous inline text
// tables, all sharing a single dense index space.
package symtab

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which of the five namespaces a Symbol belongs to.
type Kind int

const (
	KindFilter Kind = iota
	KindMemo
	KindInFile
	KindOutFile
	KindInlineText
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindMemo:
		return "memo"
	case KindInFile:
		return "in-file"
	case KindOutFile:
		return "out-file"
	case KindInlineText:
		return "inline-text"
	default:
		return "unknown"
	}
}

const (
	// MaxFilters is the hard ceiling on the filter namespace: a filter is
	// exactly a bit position in a 32-bit mask.
	MaxFilters = 32
	// MaxEnums bounds the union of all non-filter names.
	MaxEnums = 2000
)

// Filter is a named bit in the 32-bit filter mask.
type Filter struct {
	Name  string
	Index int // 0..31
	Desc  string
}

// Memo is a named, mutable scalar register.
type Memo struct {
	Name    string
	Index   int
	Value   float64
	Initial float64
}

// InFile is a named input file converted into an indexed text blob.
type InFile struct {
	Name  string
	Index int
	Path  string
	Blob  *TextBlob
}

// OutFile is a named output sink opened with a validated mode string.
type OutFile struct {
	Name  string
	Index int
	Path  string
	Mode  string
	Init  string
}

// InlineText is an anonymous `{a|b|...}` clause's text table, addressable
// only from the %Y field that immediately follows it.
type InlineText struct {
	Index int
	Blob  *TextBlob
}

// validModeChars are the only characters permitted in an OUT_FILE mode
// string (a validated fopen-like mode), per §4.1.
const validModeChars = "wabxt+"

// ValidateOutFileMode reports whether mode uses only permitted characters.
func ValidateOutFileMode(mode string) bool {
	if mode == "" {
		return false
	}
	for _, r := range mode {
		if !strings.ContainsRune(validModeChars, r) {
			return false
		}
	}
	return true
}

// Table is the compiler's symbol table: five namespaces over one dense
// index space [32, MaxEnums).
type Table struct {
	filters     map[string]*Filter
	memos       map[string]*Memo
	inFiles     map[string]*InFile
	outFiles    map[string]*OutFile
	inlineTexts []*InlineText

	// allNames enforces name uniqueness across the entire union of
	// namespaces (filters included, even though they index separately).
	allNames map[string]Kind

	nextEnumIndex int // next free index in [32, MaxEnums)
}

// New constructs an empty symbol table.
func New() *Table {
	return &Table{
		filters:       make(map[string]*Filter),
		memos:         make(map[string]*Memo),
		inFiles:       make(map[string]*InFile),
		outFiles:      make(map[string]*OutFile),
		allNames:      make(map[string]Kind),
		nextEnumIndex: MaxFilters,
	}
}

func (t *Table) reserveName(name string, kind Kind) error {
	if existing, ok := t.allNames[name]; ok {
		return fmt.Errorf("%w: %q already declared as %s", ErrDuplicateName, name, existing)
	}
	t.allNames[name] = kind
	return nil
}

func (t *Table) allocEnumIndex() (int, error) {
	if t.nextEnumIndex >= MaxEnums {
		return 0, fmt.Errorf("%w: limit %d", ErrTooManyEnums, MaxEnums)
	}
	idx := t.nextEnumIndex
	t.nextEnumIndex++
	return idx, nil
}

// AddFilter declares F_<name> at the next free bit index.
func (t *Table) AddFilter(name, desc string) (*Filter, error) {
	if !strings.HasPrefix(name, "F_") {
		return nil, fmt.Errorf("%w: filter %q must begin with F_", ErrBadPrefix, name)
	}
	if err := t.reserveName(name, KindFilter); err != nil {
		return nil, err
	}
	if len(t.filters) >= MaxFilters {
		return nil, fmt.Errorf("%w: limit %d filters", ErrTooManyEnums, MaxFilters)
	}
	f := &Filter{Name: name, Index: len(t.filters), Desc: desc}
	t.filters[name] = f
	return f, nil
}

// AddMemo declares M_<name> with an optional initial value.
func (t *Table) AddMemo(name string, initial float64) (*Memo, error) {
	if !strings.HasPrefix(name, "M_") {
		return nil, fmt.Errorf("%w: memo %q must begin with M_", ErrBadPrefix, name)
	}
	if err := t.reserveName(name, KindMemo); err != nil {
		return nil, err
	}
	idx, err := t.allocEnumIndex()
	if err != nil {
		return nil, err
	}
	m := &Memo{Name: name, Index: idx, Value: initial, Initial: initial}
	t.memos[name] = m
	return m, nil
}

// AddInFile declares an indexed-text input file binding.
func (t *Table) AddInFile(name, path string, blob *TextBlob) (*InFile, error) {
	if err := t.reserveName(name, KindInFile); err != nil {
		return nil, err
	}
	idx, err := t.allocEnumIndex()
	if err != nil {
		return nil, err
	}
	f := &InFile{Name: name, Index: idx, Path: path, Blob: blob}
	t.inFiles[name] = f
	return f, nil
}

// AddOutFile declares an output sink.
func (t *Table) AddOutFile(name, path, mode, init string) (*OutFile, error) {
	if !ValidateOutFileMode(mode) {
		return nil, fmt.Errorf("%w: out-file mode %q", ErrBadOutFileMode, mode)
	}
	if err := t.reserveName(name, KindOutFile); err != nil {
		return nil, err
	}
	idx, err := t.allocEnumIndex()
	if err != nil {
		return nil, err
	}
	f := &OutFile{Name: name, Index: idx, Path: path, Mode: mode, Init: init}
	t.outFiles[name] = f
	return f, nil
}

// AddInlineText registers an anonymous `{a|b|...}` text table and returns
// its handle for the immediately-following %Y field.
func (t *Table) AddInlineText(blob *TextBlob) (*InlineText, error) {
	idx, err := t.allocEnumIndex()
	if err != nil {
		return nil, err
	}
	it := &InlineText{Index: idx, Blob: blob}
	t.inlineTexts = append(t.inlineTexts, it)
	return it, nil
}

func (t *Table) Filter(name string) (*Filter, bool)   { f, ok := t.filters[name]; return f, ok }
func (t *Table) Memo(name string) (*Memo, bool)       { m, ok := t.memos[name]; return m, ok }
func (t *Table) InFile(name string) (*InFile, bool)   { f, ok := t.inFiles[name]; return f, ok }
func (t *Table) OutFile(name string) (*OutFile, bool) { f, ok := t.outFiles[name]; return f, ok }

// Filters returns every declared filter, ordered by bit index.
func (t *Table) Filters() []*Filter {
	out := make([]*Filter, len(t.filters))
	for _, f := range t.filters {
		out[f.Index] = f
	}
	return out
}

// Memos returns every declared memo, ordered by first declaration.
func (t *Table) Memos() []*Memo {
	out := make([]*Memo, 0, len(t.memos))
	for _, m := range t.memos {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// OutFiles returns every declared OUT_FILE sink, ordered by declaration
// index, so the driver can open every sink up front regardless of whether
// a field ends up referencing it.
func (t *Table) OutFiles() []*OutFile {
	out := make([]*OutFile, 0, len(t.outFiles))
	for _, f := range t.outFiles {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// InFiles returns every declared IN_FILE binding, ordered by declaration
// index.
func (t *Table) InFiles() []*InFile {
	out := make([]*InFile, 0, len(t.inFiles))
	for _, f := range t.inFiles {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Sentinel errors, matched with errors.Is by callers that need to map back
// to the closed errs.Code enumeration.
var (
	ErrDuplicateName  = fmt.Errorf("duplicate name")
	ErrTooManyEnums   = fmt.Errorf("too many enums")
	ErrBadPrefix      = fmt.Errorf("bad prefix")
	ErrBadOutFileMode = fmt.Errorf("bad out-file mode")
)
