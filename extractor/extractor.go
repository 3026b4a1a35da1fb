// Package extractor implements bit-field extraction, type coercion,
// scaling, and memo read/write driven by a compiled FieldDescriptor
// (§4.6). Indexed-text lookup for %Y fields is done by the formatter.
package extractor

import (
	"fmt"
	"math"

	"github.com/rtedbg/rtemsg/descriptor"
)

// Value is the extracted, scaled result of one field.
type Value struct {
	U64    uint64
	I64    int64
	F64    float64
	Str    string
	IsText bool // payload is in Str, not the numeric fields
}

// Errors returned by Extract; each corresponds to a closed error code in
// package errs.
var (
	ErrValueSizeTooLarge = fmt.Errorf("value size too large")
	ErrValueNotInMessage = fmt.Errorf("value not in message")
	ErrAutoNeedsAligned  = fmt.Errorf("auto type needs a 32-bit-aligned word")
	ErrAutoWithScaling   = fmt.Errorf("auto type cannot be scaled")
	ErrFloatBadSize      = fmt.Errorf("float field size must be 16, 32, or 64")
	ErrDivBy8            = fmt.Errorf("bit address/size must be a multiple of 8")
)

// MemoStore provides read/write access to named scalar registers.
type MemoStore interface {
	Get(index int) float64
	Set(index int, value float64)
}

// Extract reads the field described by f out of an assembled message (or,
// for a %[M_NAME] field, out of memos) and applies scaling and memo
// write-back. The statistics feed is left to the caller, which receives
// the scaled value.
func Extract(f *descriptor.FieldDescriptor, msg []byte, memos MemoStore) (Value, error) {
	if f.BitSize == 0 && f.DataType == descriptor.DataString {
		return Value{Str: nullTerminated(msg), IsText: true}, nil
	}

	if f.DataType == descriptor.DataMemo {
		var v Value
		if f.GetMemo != nil && memos != nil {
			v.F64 = memos.Get(f.GetMemo.Index)
		}
		return v, nil
	}

	if f.BitSize > 64 {
		return Value{}, ErrValueSizeTooLarge
	}
	if f.BitAddress+f.BitSize > 8*len(msg) {
		return Value{}, ErrValueNotInMessage
	}

	if f.DataType == descriptor.DataAuto {
		if f.BitSize != 32 || f.BitAddress%32 != 0 {
			return Value{}, ErrAutoNeedsAligned
		}
		if f.HasScaling {
			return Value{}, ErrAutoWithScaling
		}
	}

	raw, err := extractBits(msg, f.BitAddress, f.BitSize)
	if err != nil {
		return Value{}, err
	}

	var v Value
	switch f.DataType {
	case descriptor.DataI64:
		v.I64 = signExtend(raw, f.BitSize)
		v.F64 = float64(v.I64)
	case descriptor.DataF64:
		fv, err := decodeFloat(raw, f.BitSize)
		if err != nil {
			return Value{}, err
		}
		v.F64 = fv
	case descriptor.DataAuto:
		// An auto-typed field carries the whole 32-bit word with no data
		// type of its own; the requested print routine decides how the
		// raw bits are interpreted (§3, process_value_auto in the
		// original decoder).
		v.U64 = raw
		v.I64 = signExtend(raw, 32)
		switch f.PrintType {
		case descriptor.PrintDouble:
			v.F64 = float64(math.Float32frombits(uint32(raw)))
		case descriptor.PrintInt:
			v.F64 = float64(v.I64)
		default:
			v.F64 = float64(v.U64)
		}
	default:
		v.U64 = raw
		v.F64 = float64(raw)
	}

	if f.HasScaling && f.Scale.Mult != 0 {
		v.F64 = (v.F64 + f.Scale.Offset) * f.Scale.Mult
	}

	if f.PutMemo != nil && memos != nil {
		memos.Set(f.PutMemo.Index, v.F64)
	}

	return v, nil
}

// extractBits reads bitSize bits starting at bitAddress (relative to the
// start of msg) as a little-endian-packed unsigned value, using the
// byte-aligned fast path when possible and a one-bit-at-a-time walk
// otherwise (§4.6 steps 2-3).
func extractBits(msg []byte, bitAddress, bitSize int) (uint64, error) {
	if bitSize%8 == 0 && bitAddress%8 == 0 {
		byteAddr := bitAddress / 8
		nBytes := bitSize / 8
		var out uint64
		for i := 0; i < nBytes; i++ {
			out |= uint64(msg[byteAddr+i]) << uint(8*i)
		}
		return out, nil
	}

	var out uint64
	for i := 0; i < bitSize; i++ {
		bitIdx := bitAddress + i
		byteIdx := bitIdx / 8
		bitInByte := bitIdx % 8
		bit := (msg[byteIdx] >> uint(bitInByte)) & 1
		out |= uint64(bit) << uint(i)
	}
	return out, nil
}

func signExtend(raw uint64, bitSize int) int64 {
	if bitSize <= 0 || bitSize >= 64 {
		return int64(raw)
	}
	signBit := uint64(1) << uint(bitSize-1)
	if raw&signBit != 0 {
		return int64(raw | (^uint64(0) << uint(bitSize)))
	}
	return int64(raw)
}

// decodeFloat reinterprets raw per §4.6 step 5.
func decodeFloat(raw uint64, bitSize int) (float64, error) {
	switch bitSize {
	case 16:
		return float64(decodeHalf(uint16(raw))), nil
	case 32:
		return float64(math.Float32frombits(uint32(raw))), nil
	case 64:
		return math.Float64frombits(raw), nil
	default:
		return 0, ErrFloatBadSize
	}
}

// decodeHalf decodes an IEEE-754 binary16 value into a float32, handling
// denormals and Inf/NaN.
func decodeHalf(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h) & 0x3FF

	var outExp, outFrac uint32
	switch {
	case exp == 0 && frac == 0: // signed zero
		outExp, outFrac = 0, 0
	case exp == 0: // denormal: normalize into float32 space
		e := 0
		f := frac
		for f&0x400 == 0 {
			f <<= 1
			e--
		}
		f &= 0x3FF
		outExp = uint32(int32(e) + 1 + 127 - 15)
		outFrac = f << 13
	case exp == 0x1F: // Inf/NaN
		outExp = 0xFF
		outFrac = frac << 13
	default:
		outExp = exp - 15 + 127
		outFrac = frac << 13
	}

	bits := sign<<31 | outExp<<23 | outFrac
	return math.Float32frombits(bits)
}

func nullTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
