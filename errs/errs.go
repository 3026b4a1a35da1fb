// Package errs defines the closed error-code enumeration shared by the
// format compiler and the binary decoder, plus the position/list types used
// to accumulate non-fatal errors without aborting the current phase.
package errs

import (
	"fmt"
	"strings"
)

// Position locates an error in a .fmt source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Code is a member of the closed error-code enumeration. Every error raised
// by this module, compile-time or decode-time, carries one of these.
type Code int

const (
	_ Code = iota

	// Compile-time (format-definition compiler) errors.
	ErrDuplicateName
	ErrTooManyEnums
	ErrBadPrefix
	ErrDuplicateMsgDirective
	ErrMsgAfterBinding
	ErrFmtIDRangeExhausted
	ErrUnknownDirective
	ErrBadFieldSyntax
	ErrFloatBadFieldSize
	ErrStringBadAlignment
	ErrAutoBadAlignment
	ErrAutoWithScaling
	ErrSignedTooSmall
	ErrYWithoutBinding
	ErrBindingWithoutY
	ErrCircularInclude
	ErrIncludeTooDeep
	ErrFileIO
	ErrBadOutFileMode

	// Decode-time immediate errors.
	ErrBadBlock
	ErrUnfinishedBlock
	ErrMessageTooLong
	ErrNoFormattingDefinitionForCode
	ErrFileTooSmall
	ErrHeaderReserved
	ErrFmtIDBitsMismatch
	ErrUnknownLoggingMode
	ErrBufferSizeInconsistent

	// Decode-time deferred (per-message) errors.
	ErrValueSizeTooLarge
	ErrValueNotInMessage
	ErrAutoNeedsAlignedWord
	ErrFloatBadSize
	ErrDivBy8
	ErrMsgxSizeTooLarge
)

// names holds the closed, numeric->symbolic mapping. The user-facing string
// shown to an operator is sourced from a localization table (Messages.txt);
// this map is only the stable, language-independent name used in Errors.log
// summaries and in tests.
var names = map[Code]string{
	ErrDuplicateName:                 "ERR_DUPLICATE_NAME",
	ErrTooManyEnums:                  "ERR_TOO_MANY_ENUMS",
	ErrBadPrefix:                     "ERR_BAD_PREFIX",
	ErrDuplicateMsgDirective:         "ERR_DUPLICATE_MSG_DIRECTIVE",
	ErrMsgAfterBinding:               "ERR_MSG_AFTER_BINDING",
	ErrFmtIDRangeExhausted:           "ERR_FMT_ID_RANGE_EXHAUSTED",
	ErrUnknownDirective:              "ERR_UNKNOWN_DIRECTIVE",
	ErrBadFieldSyntax:                "ERR_BAD_FIELD_SYNTAX",
	ErrFloatBadFieldSize:             "ERR_FLOAT_BAD_FIELD_SIZE",
	ErrStringBadAlignment:            "ERR_STRING_BAD_ALIGNMENT",
	ErrAutoBadAlignment:              "ERR_AUTO_BAD_ALIGNMENT",
	ErrAutoWithScaling:               "ERR_AUTO_WITH_SCALING",
	ErrSignedTooSmall:                "ERR_SIGNED_TOO_SMALL",
	ErrYWithoutBinding:               "ERR_Y_WITHOUT_BINDING",
	ErrBindingWithoutY:               "ERR_BINDING_WITHOUT_Y",
	ErrCircularInclude:               "ERR_CIRCULAR_INCLUDE",
	ErrIncludeTooDeep:                "ERR_INCLUDE_TOO_DEEP",
	ErrFileIO:                        "ERR_FILE_IO",
	ErrBadOutFileMode:                "ERR_BAD_OUT_FILE_MODE",
	ErrBadBlock:                      "ERR_BAD_BLOCK",
	ErrUnfinishedBlock:               "ERR_UNFINISHED_BLOCK",
	ErrMessageTooLong:                "ERR_MESSAGE_TOO_LONG",
	ErrNoFormattingDefinitionForCode: "ERR_NO_FORMATTING_DEFINITION_FOR_CODE",
	ErrFileTooSmall:                  "ERR_FILE_TOO_SMALL",
	ErrHeaderReserved:                "ERR_HEADER_RESERVED",
	ErrFmtIDBitsMismatch:             "ERR_FMT_ID_BITS_MISMATCH",
	ErrUnknownLoggingMode:            "ERR_UNKNOWN_LOGGING_MODE",
	ErrBufferSizeInconsistent:        "ERR_BUFFER_SIZE_INCONSISTENT",
	ErrValueSizeTooLarge:             "ERR_VALUE_SIZE_TOO_LARGE",
	ErrValueNotInMessage:             "ERR_VALUE_NOT_IN_MESSAGE",
	ErrAutoNeedsAlignedWord:          "ERR_AUTO_NEEDS_ALIGNED_WORD",
	ErrFloatBadSize:                  "ERR_FLOAT_BAD_SIZE",
	ErrDivBy8:                        "ERR_DIV_BY_8",
	ErrMsgxSizeTooLarge:              "ERR_MSGX_SIZE_TOO_LARGE",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("ERR_UNKNOWN(%d)", int(c))
}

// Error is a single reported error: a code, a human message (already
// localized by the caller), an optional position, and optional source
// context line.
type Error struct {
	Code    Code
	Pos     Position
	Message string
	Context string
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: error %s: %s\n", e.Pos, e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&sb, "    %s\n", e.Context)
	}
	return sb.String()
}

// New builds an Error with no source context line.
func New(pos Position, code Code, message string) *Error {
	return &Error{Pos: pos, Code: code, Message: message}
}

// NewWithContext builds an Error carrying the offending source line.
func NewWithContext(pos Position, code Code, message, context string) *Error {
	return &Error{Pos: pos, Code: code, Message: message, Context: context}
}

// List accumulates errors without aborting the phase that raised them,
// counting occurrences per code for the end-of-run Errors.log summary.
type List struct {
	Errors []*Error
	Counts map[Code]int
}

// NewList constructs an empty error list.
func NewList() *List {
	return &List{Counts: make(map[Code]int)}
}

// Add appends err and bumps its code's tally.
func (l *List) Add(err *Error) {
	l.Errors = append(l.Errors, err)
	l.Counts[err.Code]++
}

// HasErrors reports whether any error has been recorded.
func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

// Len reports the number of recorded errors.
func (l *List) Len() int {
	return len(l.Errors)
}

// Summary renders the per-code tally in the shape written to Errors.log.
func (l *List) Summary() string {
	var sb strings.Builder
	for code, count := range l.Counts {
		fmt.Fprintf(&sb, "%s: %d\n", code, count)
	}
	return sb.String()
}
