package extractor_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/extractor"
	"github.com/rtedbg/rtemsg/symtab"
)

type fakeMemos struct {
	values map[int]float64
}

func newFakeMemos() *fakeMemos { return &fakeMemos{values: map[int]float64{}} }

func (f *fakeMemos) Get(i int) float64    { return f.values[i] }
func (f *fakeMemos) Set(i int, v float64) { f.values[i] = v }

func TestExtractAlignedByteField(t *testing.T) {
	msg := []byte{0x78, 0x56, 0x34, 0x12}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x12345678), v.U64)
}

func TestExtractSubByteFieldWithSignExtension(t *testing.T) {
	// A single byte 0b1111_0110 with a 4-bit signed field at bit offset 4.
	msg := []byte{0xF6}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataI64, BitAddress: 4, BitSize: 4}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v.I64) // top nibble 0xF -> -1 in 4-bit two's complement
}

func TestExtractRejectsOversizeField(t *testing.T) {
	msg := []byte{0, 0, 0, 0}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataU64, BitAddress: 0, BitSize: 65}
	_, err := extractor.Extract(f, msg, nil)
	assert.ErrorIs(t, err, extractor.ErrValueSizeTooLarge)
}

func TestExtractRejectsFieldPastMessageEnd(t *testing.T) {
	msg := []byte{0, 0}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32}
	_, err := extractor.Extract(f, msg, nil)
	assert.ErrorIs(t, err, extractor.ErrValueNotInMessage)
}

func TestExtractAutoRequiresAlignedWord(t *testing.T) {
	msg := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataAuto, BitAddress: 4, BitSize: 32}
	_, err := extractor.Extract(f, msg, nil)
	assert.ErrorIs(t, err, extractor.ErrAutoNeedsAligned)
}

func TestExtractAutoRejectsScaling(t *testing.T) {
	msg := []byte{0, 0, 0, 0}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataAuto, BitAddress: 0, BitSize: 32, HasScaling: true, Scale: descriptor.Scaling{Mult: 2}}
	_, err := extractor.Extract(f, msg, nil)
	assert.ErrorIs(t, err, extractor.ErrAutoWithScaling)
}

func TestExtractAutoAsSignedInt(t *testing.T) {
	msg := []byte{0xFF, 0xFF, 0xFF, 0xFF} // -1 as a 32-bit word
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataAuto, PrintType: descriptor.PrintInt, BitAddress: 0, BitSize: 32}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v.I64)
	assert.Equal(t, float64(-1), v.F64)
}

func TestExtractAutoAsUnsigned(t *testing.T) {
	msg := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataAuto, PrintType: descriptor.PrintUint, BitAddress: 0, BitSize: 32}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFF), v.U64)
	assert.Equal(t, float64(0xFFFFFFFF), v.F64)
}

func TestExtractAutoAsFloat(t *testing.T) {
	bits := math.Float32bits(2.5)
	msg := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataAuto, PrintType: descriptor.PrintDouble, BitAddress: 0, BitSize: 32}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v.F64)
}

func TestExtractAppliesAffineScaling(t *testing.T) {
	msg := []byte{10, 0, 0, 0}
	f := &descriptor.FieldDescriptor{
		DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32,
		HasScaling: true, Scale: descriptor.Scaling{Offset: 5, Mult: 2},
	}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(30), v.F64) // (10+5)*2
}

func TestExtractWritesBackToMemo(t *testing.T) {
	memos := newFakeMemos()
	msg := []byte{42, 0, 0, 0}
	memo := &symtab.Memo{Name: "M_X", Index: 3}
	f := &descriptor.FieldDescriptor{
		DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32,
		PutMemo: memo,
	}
	_, err := extractor.Extract(f, msg, memos)
	require.NoError(t, err)
	assert.Equal(t, float64(42), memos.Get(3))
}

func TestExtractFloat32Value(t *testing.T) {
	bits := math.Float32bits(3.5)
	msg := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataF64, BitAddress: 0, BitSize: 32}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v.F64)
}

func TestExtractFloat16Value(t *testing.T) {
	// 1.5 in binary16: sign=0 exp=15(0b01111) frac=0b1000000000 -> 0x3E00
	msg := []byte{0x00, 0x3E}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataF64, BitAddress: 0, BitSize: 16}
	v, err := extractor.Extract(f, msg, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v.F64, 0.0001)
}

func TestExtractFloatRejectsBadSize(t *testing.T) {
	msg := []byte{0, 0, 0}
	f := &descriptor.FieldDescriptor{DataType: descriptor.DataF64, BitAddress: 0, BitSize: 24}
	_, err := extractor.Extract(f, msg, nil)
	assert.ErrorIs(t, err, extractor.ErrFloatBadSize)
}
