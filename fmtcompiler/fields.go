package fmtcompiler

import (
	"strconv"
	"strings"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/errs"
	"github.com/rtedbg/rtemsg/symtab"
)

// fieldParser turns one format string's body into a slice of
// FieldDescriptors, tracking the running bit cursor and the active
// in-file/out-file bindings (§4.2's field grammar table).
type fieldParser struct {
	c   *Compiler
	pos errs.Position

	cursor        int // running bit cursor, reset by the caller per message/binding
	pendingInline *symtab.InlineText

	inBinding   *symtab.InFile
	outBinding  *symtab.OutFile
	alsoMainLog bool
}

// parse consumes raw and returns the compiled fields, appending any errors
// to c.Errors rather than aborting (the per-field abort-then-recover
// discipline of §4.2).
func (fp *fieldParser) parse(raw string) []*descriptor.FieldDescriptor {
	var fields []*descriptor.FieldDescriptor
	var literal strings.Builder
	r := []rune(raw)
	i := 0

	flush := func() {
		if literal.Len() > 0 {
			fields = append(fields, &descriptor.FieldDescriptor{
				FmtString: literal.String(),
				PrintType: descriptor.PrintPlainText,
			})
			literal.Reset()
		}
	}

	for i < len(r) {
		switch r[i] {
		case '{':
			flush()
			end := indexRune(r, i, '}')
			if end < 0 {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unterminated inline text table")
				i = len(r)
				break
			}
			parts := strings.Split(string(r[i+1:end]), "|")
			blob, err := symtab.NewTextBlob(parts)
			if err != nil {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "inline text table: %v", err)
			} else {
				it, err := fp.c.symtab.AddInlineText(blob)
				if err != nil {
					fp.c.errorf(fp.pos, errs.ErrTooManyEnums, "%v", err)
				} else {
					fp.pendingInline = it
				}
			}
			i = end + 1
		case '%':
			flush()
			field, consumed := fp.parseField(r, i)
			i += consumed
			if field != nil {
				fields = append(fields, field)
			}
		default:
			literal.WriteRune(r[i])
			i++
		}
	}
	flush()
	if fp.pendingInline != nil {
		fp.c.errorf(fp.pos, errs.ErrBindingWithoutY, "inline text table declared but never consumed by a %%Y field")
	}
	return fields
}

func indexRune(r []rune, from int, target rune) int {
	for j := from; j < len(r); j++ {
		if r[j] == target {
			return j
		}
	}
	return -1
}

// parseField consumes the `%...` clause starting at r[start] (the '%'
// itself) and returns the compiled field plus the number of runes
// consumed.
func (fp *fieldParser) parseField(r []rune, start int) (*descriptor.FieldDescriptor, int) {
	i := start + 1
	if i >= len(r) {
		fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "trailing %% with no directive")
		return nil, 1
	}

	fd := &descriptor.FieldDescriptor{}

	switch {
	case r[i] == '[':
		end := indexRune(r, i, ']')
		if end < 0 {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unterminated [...] field")
			return nil, len(r) - start
		}
		fp.compileBracket(fd, string(r[i+1:end]))
		i = end + 1
	default:
		n := fp.compileLetterVerb(fd, r, i)
		i += n
	}

	// Optional trailing modifiers, in any order: (±off*mul), <M_NAME>, |stat|.
	// Scanning stops (without touching i further) the moment a character
	// doesn't start one of these three clauses, so a bare field is
	// followed by whatever literal text or next %-field comes next.
modifiers:
	for i < len(r) {
		switch {
		case r[i] == '(':
			end := indexRune(r, i, ')')
			if end < 0 {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unterminated (scaling) clause")
				i = len(r)
				break modifiers
			}
			fp.compileScaling(fd, string(r[i+1:end]))
			i = end + 1
		case r[i] == '<':
			end := indexRune(r, i, '>')
			if end < 0 {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unterminated <memo> store-back")
				i = len(r)
				break modifiers
			}
			name := string(r[i+1 : end])
			if m, ok := fp.c.symtab.Memo(name); ok {
				fd.PutMemo = m
			} else {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "undeclared memo %q", name)
			}
			i = end + 1
		case r[i] == '|':
			end := indexRune(r, i+1, '|')
			if end < 0 {
				fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unterminated |stat| clause")
				i = len(r)
				break modifiers
			}
			fd.StatKey = descriptor.StatKey(string(r[i+1 : end]))
			i = end + 1
		default:
			break modifiers
		}
	}

	fp.applyBinding(fd)
	return fd, i - start
}

func (fp *fieldParser) applyBinding(fd *descriptor.FieldDescriptor) {
	if fd.PrintType == descriptor.PrintSelectedText {
		fd.InFile = fp.inBinding
		fd.InlineText = fp.pendingInline
		fp.pendingInline = nil
	}
	fd.SinkOutFile = fp.outBinding
	fd.AlsoToMainLog = fp.alsoMainLog
}

// compileBracket handles the `[...]` forms: explicit bit specs
// (`nn:mmF`, `±nn:mmF`, `mmF`) and the special tokens `N`, `t`, `T`,
// `T-MSG_NAME`, `M_NAME`.
func (fp *fieldParser) compileBracket(fd *descriptor.FieldDescriptor, body string) {
	switch {
	case body == "N":
		fd.PrintType = descriptor.PrintMessageNumber
		fd.DataType = descriptor.DataMsgNo
		fd.FmtString = "%d"
	case body == "t":
		fd.PrintType = descriptor.PrintTimestamp
		fd.DataType = descriptor.DataTimestamp
		fd.FmtString = "%f"
	case body == "T":
		fd.PrintType = descriptor.PrintDeltaTimestamp
		fd.DataType = descriptor.DataDeltaTimestamp
		fd.FmtString = "%f"
	case strings.HasPrefix(body, "T-"):
		// MSG_NAME is not resolved: the field renders like [T], as the delta
		// against this message's own previous timestamp.
		fd.PrintType = descriptor.PrintDeltaTimestamp
		fd.DataType = descriptor.DataTimeDiff
		fd.HasRelTimer = true
		fd.FmtString = "%f"
	case strings.HasPrefix(body, "M_"):
		if m, ok := fp.c.symtab.Memo(body); ok {
			fd.DataType = descriptor.DataMemo
			fd.PrintType = descriptor.PrintDouble
			fd.FmtString = "%g"
			fd.GetMemo = m
		} else {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "undeclared memo %q", body)
		}
	default:
		fp.compileBitSpec(fd, body)
	}
}

// compileBitSpec parses `nn:mmF`, `±nn:mmF`, or `mmF`.
func (fp *fieldParser) compileBitSpec(fd *descriptor.FieldDescriptor, body string) {
	if body == "" {
		fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "empty [] field")
		return
	}
	typeLetter := body[len(body)-1]
	numPart := body[:len(body)-1]

	var addr, size int
	var err error
	relative := false
	if idx := strings.IndexByte(numPart, ':'); idx >= 0 {
		addrStr := numPart[:idx]
		sizeStr := numPart[idx+1:]
		relative = strings.HasPrefix(addrStr, "+") || strings.HasPrefix(addrStr, "-")
		addr, err = strconv.Atoi(addrStr)
		if err == nil {
			size, err = strconv.Atoi(sizeStr)
		}
		if err != nil {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "bad bit spec %q", body)
			return
		}
		if relative {
			fp.cursor += addr
			addr = fp.cursor
		} else {
			fp.cursor = addr
		}
	} else {
		size, err = strconv.Atoi(numPart)
		if err != nil {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "bad bit spec %q", body)
			return
		}
		addr = fp.cursor
	}

	fd.BitAddress = addr
	fd.BitSize = size
	fp.cursor = addr + size

	switch typeLetter {
	case 'u':
		fd.DataType = descriptor.DataU64
		fd.PrintType = descriptor.PrintUint
		fd.FmtString = "%d"
	case 'i':
		fd.DataType = descriptor.DataI64
		fd.PrintType = descriptor.PrintInt
		fd.FmtString = "%d"
		if size < 2 {
			fp.c.errorf(fp.pos, errs.ErrSignedTooSmall, "signed field must be >= 2 bits, got %d", size)
		}
	case 'f':
		fd.DataType = descriptor.DataF64
		fd.PrintType = descriptor.PrintDouble
		fd.FmtString = "%g"
		if size != 16 && size != 32 && size != 64 {
			fp.c.errorf(fp.pos, errs.ErrFloatBadFieldSize, "float field size must be 16, 32, or 64, got %d", size)
		}
		if addr%8 != 0 {
			fp.c.errorf(fp.pos, errs.ErrDivBy8, "float field bit address must be a multiple of 8")
		}
	case 's':
		fd.DataType = descriptor.DataString
		fd.PrintType = descriptor.PrintString
		fd.FmtString = "%s"
		if addr%8 != 0 || size%8 != 0 {
			fp.c.errorf(fp.pos, errs.ErrStringBadAlignment, "string field address and size must be byte-aligned")
		}
	default:
		fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "unknown field type letter %q", string(typeLetter))
	}
}

// compileLetterVerb handles the plain-letter forms (`%1H`, `%2H`, `%4H`,
// `%W`, `%B`, `%Y`, `%N`, `%t`, `%T`, `%D`, `%M`), falls back to a bare
// printf conversion (`%d`, `%x`, `%f`, ...) compiled as an auto-typed
// field, and returns how many runes (after the '%') it consumed.
func (fp *fieldParser) compileLetterVerb(fd *descriptor.FieldDescriptor, r []rune, i int) int {
	rest := string(r[i:])
	switch {
	case strings.HasPrefix(rest, "1H"):
		fd.PrintType = descriptor.PrintHexDump1
		fd.FmtString = "%s"
		return 2
	case strings.HasPrefix(rest, "2H"):
		fd.PrintType = descriptor.PrintHexDump2
		fd.FmtString = "%s"
		return 2
	case strings.HasPrefix(rest, "4H"):
		fd.PrintType = descriptor.PrintHexDump4
		fd.FmtString = "%s"
		return 2
	case strings.HasPrefix(rest, "W"):
		fd.PrintType = descriptor.PrintBinaryToFile
		return 1
	case strings.HasPrefix(rest, "B"):
		fd.PrintType = descriptor.PrintBinaryDigits
		fd.FmtString = "%s"
		return 1
	case strings.HasPrefix(rest, "Y"):
		fd.PrintType = descriptor.PrintSelectedText
		fd.DataType = descriptor.DataU64
		fd.FmtString = "%s"
		if fp.inBinding == nil && fp.pendingInline == nil {
			fp.c.errorf(fp.pos, errs.ErrYWithoutBinding, "%%Y requires an IN_FILE binding or a preceding {...} clause")
		}
		return 1
	case strings.HasPrefix(rest, "N"):
		fd.PrintType = descriptor.PrintMessageNumber
		fd.FmtString = "%d"
		return 1
	case strings.HasPrefix(rest, "t"):
		fd.PrintType = descriptor.PrintTimestamp
		fd.FmtString = "%f"
		return 1
	case strings.HasPrefix(rest, "T"):
		fd.PrintType = descriptor.PrintDeltaTimestamp
		fd.FmtString = "%f"
		return 1
	case strings.HasPrefix(rest, "D"):
		fd.PrintType = descriptor.PrintDate
		fd.FmtString = "%s"
		return 1
	case strings.HasPrefix(rest, "M"):
		fd.PrintType = descriptor.PrintMessageName
		fd.FmtString = "%s"
		return 1
	default:
		if pt, ok := bareConversionPrintType(r[i]); ok {
			fp.compileBareAuto(fd, r[i], pt)
			return 1
		}
		fp.c.errorf(fp.pos, errs.ErrUnknownDirective, "unknown format directive %%%c", r[i])
		return 1
	}
}

// bareConversionPrintType maps a printf conversion letter with no preceding
// `[...]` bit spec to the rendering routine it selects. Any other letter
// isn't a recognized bracket-less conversion.
func bareConversionPrintType(verb rune) (descriptor.PrintType, bool) {
	switch verb {
	case 'd', 'i':
		return descriptor.PrintInt, true
	case 'e', 'E', 'f', 'F', 'g', 'G', 'a', 'A':
		return descriptor.PrintDouble, true
	case 'c', 'o', 'u', 'x', 'X':
		return descriptor.PrintUint, true
	default:
		return 0, false
	}
}

// compileBareAuto compiles a bracket-less `%d`/`%x`/`%f`/... conversion as
// an auto-typed field: the whole 32-bit word at the current cursor, with no
// scaling allowed (§3, confirmed against the original parser's
// process_value_auto: auto fields always occupy exactly one aligned word).
func (fp *fieldParser) compileBareAuto(fd *descriptor.FieldDescriptor, verb rune, pt descriptor.PrintType) {
	fd.DataType = descriptor.DataAuto
	fd.PrintType = pt
	fd.FmtString = "%" + string(verb)
	if fp.cursor%32 != 0 {
		fp.c.errorf(fp.pos, errs.ErrAutoBadAlignment, "auto-typed field %%%c must start at a 32-bit-aligned address, cursor is at bit %d", verb, fp.cursor)
	}
	fd.BitAddress = fp.cursor
	fd.BitSize = 32
	fp.cursor += 32
}

// compileScaling parses `(±off*mul)`; either side may be omitted but the
// sign is mandatory whenever a side is present.
func (fp *fieldParser) compileScaling(fd *descriptor.FieldDescriptor, body string) {
	var offStr, mulStr string
	if idx := strings.IndexByte(body, '*'); idx >= 0 {
		offStr, mulStr = body[:idx], body[idx+1:]
	} else {
		offStr = body
	}
	scale := descriptor.Scaling{Mult: 1}
	if offStr != "" {
		v, err := strconv.ParseFloat(offStr, 64)
		if err != nil {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "bad scaling offset %q", offStr)
			return
		}
		scale.Offset = v
	}
	if mulStr != "" {
		v, err := strconv.ParseFloat(mulStr, 64)
		if err != nil {
			fp.c.errorf(fp.pos, errs.ErrBadFieldSyntax, "bad scaling multiplier %q", mulStr)
			return
		}
		scale.Mult = v
	}
	fd.Scale = scale
	fd.HasScaling = true
	if fd.DataType == descriptor.DataAuto {
		fp.c.errorf(fp.pos, errs.ErrAutoWithScaling, "auto-typed field cannot be scaled")
	}
}
