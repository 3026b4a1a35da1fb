// Package fmtcompiler implements the recursive-descent `.fmt` compiler:
// directive dispatch, format-ID assignment under alignment constraints,
// the descriptor-tree builder, `INCLUDE` with cycle/depth guards, and the
// atomic `#define NAME <id>` companion-header rewrite (§4.2).
package fmtcompiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/errs"
	"github.com/rtedbg/rtemsg/symtab"
)

// MaxIncludeDepth bounds nested INCLUDE directives.
const MaxIncludeDepth = 16

// MaxErrorsReported stops the parser once this many errors have
// accumulated across the whole compile unit.
const MaxErrorsReported = 200

// FileReader abstracts filesystem access so tests can supply in-memory
// sources without touching disk.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileReader reads from the real filesystem.
type OSFileReader struct{}

// ReadFile implements FileReader.
func (OSFileReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Compiler holds the full state of one `.fmt` compile unit: the symbol
// table, the descriptor arena/table under construction, the format-ID
// allocator, and the accumulated error list.
type Compiler struct {
	symtab *symtab.Table
	arena  *descriptor.Arena
	table  *descriptor.Table
	Errors *errs.List

	ids *idAllocator

	reader       FileReader
	includeStack []string

	fp *fieldParser // carries in/out binding + bit cursor across lines

	curMsg     *descriptor.MessageDescriptor
	curIDs     []int
	curHasBody bool // true once at least one format-string line has been parsed for curMsg

	declaredFilters map[string]struct{}
	msgStartIDs     map[int]string
}

// New constructs a Compiler for a topmost_fmt_id ceiling derived from
// fmtIDBits (§C "reserved system IDs" ceiling).
func New(fmtIDBits int, reader FileReader) *Compiler {
	if reader == nil {
		reader = OSFileReader{}
	}
	table := descriptor.NewTable(fmtIDBits)
	c := &Compiler{
		symtab:          symtab.New(),
		arena:           descriptor.NewArena(),
		table:           table,
		Errors:          errs.NewList(),
		reader:          reader,
		declaredFilters: make(map[string]struct{}),
		msgStartIDs:     make(map[int]string),
	}
	ceiling := (1 << uint(fmtIDBits)) - 2 // topmost_fmt_id, reserving the two system IDs
	c.ids = newIDAllocator(ceiling, table.IsFree)
	c.fp = &fieldParser{c: c}
	return c
}

// Symtab returns the compiled symbol table.
func (c *Compiler) Symtab() *symtab.Table { return c.symtab }

// Arena returns the compiled descriptor arena.
func (c *Compiler) Arena() *descriptor.Arena { return c.arena }

// Table returns the compiled format-ID table.
func (c *Compiler) Table() *descriptor.Table { return c.table }

func (c *Compiler) errorf(pos errs.Position, code errs.Code, format string, args ...interface{}) {
	c.Errors.Add(errs.New(pos, code, fmt.Sprintf(format, args...)))
}

func (c *Compiler) errorBudgetExceeded() bool {
	return c.Errors.Len() >= MaxErrorsReported
}

// CompileFile parses path (and everything it transitively INCLUDEs).
func (c *Compiler) CompileFile(path string) error {
	return c.compileFile(path)
}

func (c *Compiler) compileFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for _, seen := range c.includeStack {
		if seen == abs {
			c.errorf(errs.Position{File: path}, errs.ErrCircularInclude, "circular INCLUDE of %s", path)
			return nil
		}
	}
	if len(c.includeStack) >= MaxIncludeDepth {
		c.errorf(errs.Position{File: path}, errs.ErrIncludeTooDeep, "INCLUDE nesting exceeds %d levels", MaxIncludeDepth)
		return nil
	}

	content, err := c.reader.ReadFile(path)
	if err != nil {
		c.errorf(errs.Position{File: path}, errs.ErrFileIO, "%v", err)
		return nil
	}

	c.includeStack = append(c.includeStack, abs)
	defer func() { c.includeStack = c.includeStack[:len(c.includeStack)-1] }()

	lines := strings.Split(string(content), "\n")
	for lineNo, raw := range lines {
		if c.errorBudgetExceeded() {
			return nil
		}
		pos := errs.Position{File: path, Line: lineNo + 1}
		c.compileLine(pos, stripComment(raw))
	}
	return nil
}

// stripComment removes a trailing `//` comment, ignoring `//` that appears
// inside a quoted string.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line)-1; i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case '/':
			if !inQuote && line[i+1] == '/' {
				return line[:i]
			}
		}
	}
	return line
}

func (c *Compiler) compileLine(pos errs.Position, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	c.fp.pos = pos

	switch {
	case strings.HasPrefix(trimmed, "\""):
		c.compileFormatString(pos, trimmed)
	case strings.HasPrefix(trimmed, "INCLUDE("):
		c.compileInclude(pos, trimmed)
	case strings.HasPrefix(trimmed, "FMT_START("):
		if args, ok := callArgs(trimmed, "FMT_START"); ok && len(args) == 1 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				c.ids.SetFloor(n)
				return
			}
		}
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed FMT_START(...)")
	case strings.HasPrefix(trimmed, "FMT_ALIGN("):
		if args, ok := callArgs(trimmed, "FMT_ALIGN"); ok && len(args) == 1 {
			if p, err := strconv.Atoi(args[0]); err == nil {
				c.ids.Align(p)
				return
			}
		}
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed FMT_ALIGN(...)")
	case strings.HasPrefix(trimmed, "FILTER("):
		c.compileFilter(pos, trimmed)
	case strings.HasPrefix(trimmed, "MEMO("):
		c.compileMemo(pos, trimmed)
	case strings.HasPrefix(trimmed, "IN_FILE("):
		c.compileInFile(pos, trimmed)
	case strings.HasPrefix(trimmed, "OUT_FILE("):
		c.compileOutFile(pos, trimmed)
	case strings.HasPrefix(trimmed, ">>"):
		c.compileOutBinding(pos, trimmed[2:], true)
	case strings.HasPrefix(trimmed, ">"):
		c.compileOutBinding(pos, trimmed[1:], false)
	case strings.HasPrefix(trimmed, "<"):
		c.compileInBinding(pos, trimmed[1:])
	case strings.HasPrefix(trimmed, "MSG0") || strings.HasPrefix(trimmed, "MSG1") ||
		strings.HasPrefix(trimmed, "MSG2") || strings.HasPrefix(trimmed, "MSG3") ||
		strings.HasPrefix(trimmed, "MSG4") || strings.HasPrefix(trimmed, "MSGN") ||
		strings.HasPrefix(trimmed, "MSGX") || strings.HasPrefix(trimmed, "EXT_MSG"):
		c.compileMsgDirective(pos, trimmed)
	default:
		c.errorf(pos, errs.ErrUnknownDirective, "unrecognized directive %q", trimmed)
	}
}

func (c *Compiler) compileInclude(pos errs.Position, line string) {
	args, ok := callArgs(line, "INCLUDE")
	if !ok || len(args) != 1 {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed INCLUDE(...)")
		return
	}
	dir := filepath.Dir(pos.File)
	if err := c.compileFile(filepath.Join(dir, args[0])); err != nil {
		c.errorf(pos, errs.ErrFileIO, "%v", err)
	}
}

func (c *Compiler) compileFilter(pos errs.Position, line string) {
	args, ok := callArgs(line, "FILTER")
	if !ok || len(args) == 0 {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed FILTER(...)")
		return
	}
	desc := ""
	if len(args) > 1 {
		desc = args[1]
	}
	if _, err := c.symtab.AddFilter(args[0], desc); err != nil {
		c.errorf(pos, codeForSymtabErr(err), "%v", err)
		return
	}
	c.declaredFilters[args[0]] = struct{}{}
}

func (c *Compiler) compileMemo(pos errs.Position, line string) {
	args, ok := callArgs(line, "MEMO")
	if !ok || len(args) == 0 {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed MEMO(...)")
		return
	}
	init := 0.0
	if len(args) > 1 {
		if v, err := strconv.ParseFloat(args[1], 64); err == nil {
			init = v
		}
	}
	if _, err := c.symtab.AddMemo(args[0], init); err != nil {
		c.errorf(pos, codeForSymtabErr(err), "%v", err)
	}
}

func (c *Compiler) compileInFile(pos errs.Position, line string) {
	args, ok := callArgs(line, "IN_FILE")
	if !ok || len(args) < 2 {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed IN_FILE(...)")
		return
	}
	content, err := c.reader.ReadFile(filepath.Join(filepath.Dir(pos.File), args[1]))
	if err != nil {
		c.errorf(pos, errs.ErrFileIO, "%v", err)
		return
	}
	var records []string
	for _, l := range strings.Split(strings.TrimRight(string(content), "\n"), "\n") {
		records = append(records, l)
	}
	blob, err := symtab.NewTextBlob(records)
	if err != nil {
		c.errorf(pos, errs.ErrBadFieldSyntax, "%v", err)
		return
	}
	if _, err := c.symtab.AddInFile(args[0], args[1], blob); err != nil {
		c.errorf(pos, codeForSymtabErr(err), "%v", err)
	}
}

func (c *Compiler) compileOutFile(pos errs.Position, line string) {
	args, ok := callArgs(line, "OUT_FILE")
	if !ok || len(args) < 3 {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed OUT_FILE(...)")
		return
	}
	init := ""
	if len(args) > 3 {
		init = args[3]
	}
	if _, err := c.symtab.AddOutFile(args[0], args[1], args[2], init); err != nil {
		c.errorf(pos, codeForSymtabErr(err), "%v", err)
	}
}

func (c *Compiler) compileInBinding(pos errs.Position, name string) {
	name = strings.TrimSpace(name)
	f, ok := c.symtab.InFile(name)
	if !ok {
		c.errorf(pos, errs.ErrBadFieldSyntax, "undeclared IN_FILE %q", name)
		return
	}
	c.fp.inBinding = f
}

func (c *Compiler) compileOutBinding(pos errs.Position, name string, alsoMain bool) {
	name = strings.TrimSpace(name)
	f, ok := c.symtab.OutFile(name)
	if !ok {
		c.errorf(pos, errs.ErrBadFieldSyntax, "undeclared OUT_FILE %q", name)
		return
	}
	if c.fp.outBinding != f || c.fp.alsoMainLog != alsoMain {
		c.fp.cursor = 0 // binding change resets the running bit cursor (§4.2)
	}
	c.fp.outBinding = f
	c.fp.alsoMainLog = alsoMain
}

func (c *Compiler) compileFormatString(pos errs.Position, line string) {
	if c.curMsg == nil {
		c.errorf(pos, errs.ErrBadFieldSyntax, "format string with no preceding MSG directive")
		return
	}
	body, ok := unquote(line)
	if !ok {
		c.errorf(pos, errs.ErrBadFieldSyntax, "malformed format string")
		return
	}
	c.curHasBody = true
	fields := c.fp.parse(body)
	c.curMsg.Fields = append(c.curMsg.Fields, fields...)
}

// compileMsgDirective handles MSG0..MSG4, MSGN[_k], EXT_MSGm_k, MSGX.
func (c *Compiler) compileMsgDirective(pos errs.Position, line string) {
	if c.curMsg != nil && !c.curHasBody {
		c.errorf(pos, errs.ErrDuplicateMsgDirective, "message %q declared no format string before the next MSG directive", c.curMsg.Name)
	}

	kind, expectedLen, stolenBits, idsNeeded, name, ok := parseMsgToken(line)
	if !ok {
		c.errorf(pos, errs.ErrUnknownDirective, "unrecognized message directive %q", line)
		return
	}

	start, ok := c.ids.Allocate(idsNeeded)
	if !ok {
		c.errorf(pos, errs.ErrFmtIDRangeExhausted, "no room for %d consecutive format IDs (message %q)", idsNeeded, name)
		return
	}

	desc := &descriptor.MessageDescriptor{
		Name:        name,
		Kind:        kind,
		ExpectedLen: expectedLen,
		StolenBits:  stolenBits,
	}
	h := c.arena.Add(desc)
	c.table.Set(start, idsNeeded, h)
	c.msgStartIDs[start] = name

	c.curMsg = desc
	c.curIDs = idRange(start, idsNeeded)
	c.curHasBody = false
	c.fp.cursor = 0 // a new message resets the running bit cursor (§4.2)
}

func idRange(start, count int) []int {
	ids := make([]int, count)
	for i := range ids {
		ids[i] = start + i
	}
	return ids
}

func codeForSymtabErr(err error) errs.Code {
	switch {
	case errors.Is(err, symtab.ErrDuplicateName):
		return errs.ErrDuplicateName
	case errors.Is(err, symtab.ErrTooManyEnums):
		return errs.ErrTooManyEnums
	case errors.Is(err, symtab.ErrBadPrefix):
		return errs.ErrBadPrefix
	case errors.Is(err, symtab.ErrBadOutFileMode):
		return errs.ErrBadOutFileMode
	default:
		return errs.ErrBadFieldSyntax
	}
}
