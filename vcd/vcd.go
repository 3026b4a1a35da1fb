// Package vcd implements one Value-Change-Dump sink: a per-file variable
// registry, toggle/reset/pulse semantics, timestamp monotonicity
// enforcement, and finalization (header followed by the buffered tmp body)
// with a `.gtkw` sibling (§4.8).
package vcd

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rtedbg/rtemsg/descriptor"
)

// MaxVariablesPerFile bounds a single VCD sink's variable registry.
const MaxVariablesPerFile = 512

// MaxConsecutiveTimestampErrors disables writing to a sink after this many
// monotonicity violations in a row.
const MaxConsecutiveTimestampErrors = 16

// substituteFloat is written in place of any non-finite value other than
// exactly 0.0, since waveform viewers misrender NaN/Inf.
const substituteFloat = 9.99e99

const firstIDChar = '!'
const lastIDChar = '~'
const noIDChars = (lastIDChar - firstIDChar) + 1 // 94

var nonIdentChar = regexp.MustCompile(`[^A-Za-z0-9_]`)

// variable is one registered VCD signal.
type variable struct {
	name        string
	kind        descriptor.VCDKind
	id          string
	prevBit     byte // '0' or '1', for toggle/reset/pulse
	displayOrder int
}

// Engine is one `.vcd` OUT_FILE's accumulator.
type Engine struct {
	binaryFileName string
	tmp            io.Writer

	vars      map[string]*variable
	insertion []string // insertion order, drives identifier assignment

	lastTimestampNs int64
	haveTimestamp   bool
	curTimestampNs  int64

	consecutiveErrors int
	writingDisabled   bool

	pulsePending []string // variable names needing an auto 0 at t+1ns

	messageOpen    bool
	tsJumpBack     bool
	lastMsgHeaderT int64
}

// New constructs an Engine that streams its body to tmp (typically a
// `.tmp` sibling of the final `.vcd` path).
func New(binaryFileName string, tmp io.Writer) *Engine {
	return &Engine{
		binaryFileName: binaryFileName,
		tmp:            tmp,
		vars:           make(map[string]*variable),
	}
}

func sanitizeName(name string) string {
	return nonIdentChar.ReplaceAllString(name, "_")
}

// identifierFor assigns (on first use) a base-94 printable-ASCII
// identifier to idx, least-significant-digit-first, matching the
// original's vcd.c encoding exactly.
func identifierFor(idx int) string {
	if idx == 0 {
		return string(rune(firstIDChar))
	}
	var b strings.Builder
	for idx > 0 {
		b.WriteByte(byte(idx%noIDChars + firstIDChar))
		idx /= noIDChars
	}
	return b.String()
}

func (e *Engine) register(name string, kind descriptor.VCDKind) *variable {
	clean := sanitizeName(name)
	if v, ok := e.vars[clean]; ok {
		return v
	}
	v := &variable{name: clean, kind: kind, id: identifierFor(len(e.insertion)), displayOrder: len(e.insertion)}
	e.vars[clean] = v
	e.insertion = append(e.insertion, clean)
	return v
}

// Observe implements formatter.VCDFeed.
func (e *Engine) Observe(dir *descriptor.VCDDirective, value float64, timestampNs int64, msgNo uint64) error {
	if e.writingDisabled {
		return nil
	}
	if len(e.insertion) >= MaxVariablesPerFile {
		if _, ok := e.vars[sanitizeName(dir.VarName)]; !ok {
			return fmt.Errorf("vcd: variable registry full (limit %d)", MaxVariablesPerFile)
		}
	}

	v := e.register(dir.VarName, dir.VKind)
	if err := e.openMessage(timestampNs); err != nil {
		return err
	}

	switch {
	case dir.ValueLiteral != "":
		return e.writeCode(v, dir.ValueLiteral)
	case v.kind == descriptor.VCDBit:
		bit := byte('0')
		if value != 0 {
			bit = '1'
		}
		return e.writeBit(v, bit)
	default:
		return e.writeScalar(v, value)
	}
}

func (e *Engine) writeCode(v *variable, code string) error {
	switch code {
	case "0":
		return e.writeBit(v, '0')
	case "1":
		return e.writeBit(v, '1')
	case "T":
		next := byte('1')
		if v.prevBit == '1' {
			next = '0'
		}
		return e.writeBit(v, next)
	case "R":
		return e.writeBit(v, '0')
	case "P":
		if err := e.writeBit(v, '1'); err != nil {
			return err
		}
		e.pulsePending = append(e.pulsePending, v.name)
		return nil
	default:
		return fmt.Errorf("vcd: unrecognized value code %q", code)
	}
}

func (e *Engine) writeBit(v *variable, bit byte) error {
	v.prevBit = bit
	_, err := fmt.Fprintf(e.tmp, "%c%s\n", bit, v.id)
	return err
}

func (e *Engine) writeScalar(v *variable, value float64) error {
	if value != 0 && !isNormalFloat(value) {
		value = substituteFloat
	}
	var err error
	switch v.kind {
	case descriptor.VCDString:
		_, err = fmt.Fprintf(e.tmp, "s%v %s\n", value, v.id)
	default:
		_, err = fmt.Fprintf(e.tmp, "r%g %s\n", value, v.id)
	}
	return err
}

func isNormalFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// openMessage lazily emits the `#<t>` header the first time this VCD file
// receives a value for the current message, enforcing monotonicity.
func (e *Engine) openMessage(timestampNs int64) error {
	if e.messageOpen && timestampNs == e.lastMsgHeaderT {
		return nil
	}
	if e.messageOpen {
		e.closeMessage()
	}

	t := timestampNs
	jump := false
	if e.haveTimestamp && t <= e.lastTimestampNs {
		t = e.lastTimestampNs + 1
		jump = true
		e.consecutiveErrors++
		if e.consecutiveErrors >= MaxConsecutiveTimestampErrors {
			e.writingDisabled = true
			return fmt.Errorf("vcd: disabled after %d consecutive timestamp violations", e.consecutiveErrors)
		}
	} else {
		e.consecutiveErrors = 0
	}

	if _, err := fmt.Fprintf(e.tmp, "#%d\n", t); err != nil {
		return err
	}
	e.haveTimestamp = true
	e.lastTimestampNs = t
	e.lastMsgHeaderT = t
	e.messageOpen = true
	e.tsJumpBack = jump
	e.curTimestampNs = t
	return nil
}

// CloseMessage flushes the N and TsJumpBack auto-variables and any pending
// pulse transitions. The driver calls this once per decoded message after
// every field has been observed.
func (e *Engine) CloseMessage(msgNo uint64) error {
	if !e.messageOpen {
		return nil
	}
	e.closeMessage()

	jb := 0
	if e.tsJumpBack {
		jb = 1
	}
	if _, err := fmt.Fprintf(e.tmp, "N=%d\nTsJumpBack=%d\n", msgNo, jb); err != nil {
		return err
	}

	if len(e.pulsePending) > 0 {
		t := e.lastTimestampNs + 1
		if _, err := fmt.Fprintf(e.tmp, "#%d\n", t); err != nil {
			return err
		}
		e.lastTimestampNs = t
		for _, name := range e.pulsePending {
			v := e.vars[name]
			v.prevBit = '0'
			if _, err := fmt.Fprintf(e.tmp, "0%s\n", v.id); err != nil {
				return err
			}
		}
		e.pulsePending = nil
	}
	return nil
}

func (e *Engine) closeMessage() {
	e.messageOpen = false
}

// Finalize writes the VCD header, the variable declarations in alphabetic
// name order, $upscope/$enddefinitions, then the buffered body, to dst.
// The caller opens dst at the final path and removes the tmp file.
func (e *Engine) Finalize(dst io.Writer, body io.Reader, dateLine string) error {
	fmt.Fprintf(dst, "$date %s $end\n", dateLine)
	fmt.Fprintf(dst, "$version RTEmsg $end\n")
	fmt.Fprintf(dst, "$comment %s %s $end\n", e.binaryFileName, dateLine)
	fmt.Fprintf(dst, "$timescale 1ns $end\n")
	fmt.Fprintf(dst, "$scope module RTEdbg $end\n")

	names := append([]string(nil), e.insertion...)
	sort.Strings(names)
	for _, n := range names {
		v := e.vars[n]
		bits := 1
		if v.kind != descriptor.VCDBit {
			bits = 64
		}
		fmt.Fprintf(dst, "$var %s %d %s %s $end\n", vcdVarKind(v.kind), bits, v.id, v.name)
	}
	fmt.Fprintf(dst, "$upscope $end\n$enddefinitions $end\n")

	_, err := io.Copy(dst, body)
	return err
}

func vcdVarKind(k descriptor.VCDKind) string {
	switch k {
	case descriptor.VCDBit:
		return "wire"
	case descriptor.VCDFloat, descriptor.VCDAnalog:
		return "real"
	default:
		return "string"
	}
}

// WriteGTKW writes a minimal `.gtkw` sibling: dumpfile path, an initial
// zoom window, and per-signal display order matching insertion order.
func (e *Engine) WriteGTKW(w io.Writer, vcdPath string) error {
	fmt.Fprintf(w, "[dumpfile] %q\n", vcdPath)
	fmt.Fprintf(w, "[timestart] 0\n")
	names := append([]string(nil), e.insertion...)
	sort.Slice(names, func(i, j int) bool { return e.vars[names[i]].displayOrder < e.vars[names[j]].displayOrder })
	for _, n := range names {
		v := e.vars[n]
		if v.kind == descriptor.VCDFloat || v.kind == descriptor.VCDAnalog {
			fmt.Fprintf(w, "[color] 2\n")
		}
		fmt.Fprintf(w, "%s\n", v.name)
	}
	return nil
}
