package fmtcompiler

import (
	"testing"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFiles is a FileReader backed by an in-memory map, so compiler tests
// never touch disk.
type memFiles map[string]string

func (m memFiles) ReadFile(path string) ([]byte, error) {
	if s, ok := m[path]; ok {
		return []byte(s), nil
	}
	return nil, &fileNotFound{path}
}

type fileNotFound struct{ path string }

func (e *fileNotFound) Error() string { return "no such file: " + e.path }

func TestCompileSingleMSG0(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "MSG0_HELLO\n\"hello\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.False(t, c.Errors.HasErrors(), c.Errors.Summary())

	h, ok := c.Table().Lookup(0)
	require.True(t, ok)
	desc := c.Arena().Get(h)
	assert.Equal(t, "MSG0_HELLO", desc.Name)
	assert.Equal(t, 0, desc.ExpectedLen)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "hello", desc.Fields[0].FmtString)
}

func TestCompileBitFieldExtraction(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "MSG1_V\n\"x=%[0:12u]d, y=%[12:20u]d\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.False(t, c.Errors.HasErrors(), c.Errors.Summary())

	h, ok := c.Table().Lookup(0)
	require.True(t, ok)
	desc := c.Arena().Get(h)
	// literal "x=", bit field, literal "d, y=", bit field, literal "d"
	require.Len(t, desc.Fields, 5)
	assert.Equal(t, 0, desc.Fields[1].BitAddress)
	assert.Equal(t, 12, desc.Fields[1].BitSize)
	assert.Equal(t, 12, desc.Fields[3].BitAddress)
	assert.Equal(t, 20, desc.Fields[3].BitSize)
}

func TestFmtStartAndAlignReserveConsecutiveIDs(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "FMT_START(4)\nMSG2_A\n\"a\"\nFMT_ALIGN(8)\nMSG1_B\n\"b\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.False(t, c.Errors.HasErrors(), c.Errors.Summary())

	// MSG2_A needs 4 consecutive IDs (2^2), starting at or after 4.
	aHandle, ok := c.Table().Lookup(4)
	require.True(t, ok)
	assert.Equal(t, "MSG2_A", c.Arena().Get(aHandle).Name)
	for id := 5; id < 8; id++ {
		h, ok := c.Table().Lookup(id)
		require.True(t, ok)
		assert.Equal(t, aHandle, h, "aliased slots must share the same handle")
	}

	// FMT_ALIGN(8) rounds the floor up to the next multiple of 8.
	bHandle, ok := c.Table().Lookup(8)
	require.True(t, ok)
	assert.Equal(t, "MSG1_B", c.Arena().Get(bHandle).Name)
}

func TestDuplicateFilterNameIsAnError(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "FILTER(F_A, \"first\")\nFILTER(F_A, \"second\")\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.True(t, c.Errors.HasErrors())
	assert.Equal(t, 1, c.Errors.Counts[errs.ErrDuplicateName])
}

func TestIncludeCycleIsDetected(t *testing.T) {
	files := memFiles{
		"/fmt/a.fmt": "INCLUDE(\"b.fmt\")\n",
		"/fmt/b.fmt": "INCLUDE(\"a.fmt\")\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/a.fmt"))
	assert.True(t, c.Errors.HasErrors())
}

func TestYWithoutInFileBindingIsAnError(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "MSG1_V\n\"v=%Y\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	assert.True(t, c.Errors.HasErrors())
}

func TestBareConversionCompilesAsAutoField(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "MSG1_V\n\"x=%d, y=%x\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.False(t, c.Errors.HasErrors(), c.Errors.Summary())

	h, ok := c.Table().Lookup(0)
	require.True(t, ok)
	desc := c.Arena().Get(h)
	// literal "x=", %d field, literal ", y=", %x field
	require.Len(t, desc.Fields, 4)

	dField := desc.Fields[1]
	assert.Equal(t, descriptor.DataAuto, dField.DataType)
	assert.Equal(t, descriptor.PrintInt, dField.PrintType)
	assert.Equal(t, 0, dField.BitAddress)
	assert.Equal(t, 32, dField.BitSize)

	xField := desc.Fields[3]
	assert.Equal(t, descriptor.DataAuto, xField.DataType)
	assert.Equal(t, descriptor.PrintUint, xField.PrintType)
	assert.Equal(t, 32, xField.BitAddress)
	assert.Equal(t, 32, xField.BitSize)
}

func TestBareConversionMisalignedCursorIsAnError(t *testing.T) {
	files := memFiles{
		"/fmt/main.fmt": "MSG1_V\n\"%[0:8u]d %d\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	require.True(t, c.Errors.HasErrors())
	assert.Equal(t, 1, c.Errors.Counts[errs.ErrAutoBadAlignment])
}

func TestFmtIDRangeExhaustedWhenNoRoomLeft(t *testing.T) {
	// fmtIDBits=9 gives a ceiling of (1<<9)-2 = 510; FMT_START pushes the
	// floor right up against it so the next 2-ID request can't fit.
	files := memFiles{
		"/fmt/main.fmt": "FMT_START(510)\nMSG1_A\n\"a\"\n",
	}
	c := New(9, files)
	require.NoError(t, c.CompileFile("/fmt/main.fmt"))
	assert.True(t, c.Errors.HasErrors())
}
