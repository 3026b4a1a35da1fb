package formatter_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/formatter"
	"github.com/rtedbg/rtemsg/symtab"
)

func newSinks(main io.Writer) formatter.Sinks {
	return formatter.Sinks{Main: main, ByName: map[string]io.Writer{}}
}

func TestRenderUintField(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG1_X"}
	fd := &descriptor.FieldDescriptor{FmtString: "x=%d\n", PrintType: descriptor.PrintUint, DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32}
	desc.Fields = []*descriptor.FieldDescriptor{fd}

	var buf bytes.Buffer
	f := formatter.New(newSinks(&buf))

	msg := []byte{7, 0, 0, 0}
	deferred := f.RenderMessage(desc, msg, 1.5, nil)
	assert.Empty(t, deferred)
	assert.Equal(t, "x=7\n", buf.String())
	assert.Equal(t, uint64(1), desc.CountTotal)
	assert.Equal(t, 1.5, desc.LastTimestampS)
}

func TestRenderMessageNumberAndName(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG0_PING"}
	numFd := &descriptor.FieldDescriptor{FmtString: "#%d ", PrintType: descriptor.PrintMessageNumber}
	nameFd := &descriptor.FieldDescriptor{FmtString: "%s\n", PrintType: descriptor.PrintMessageName}
	desc.Fields = []*descriptor.FieldDescriptor{numFd, nameFd}

	var buf bytes.Buffer
	f := formatter.New(newSinks(&buf))

	f.RenderMessage(desc, nil, 0, nil)
	assert.Equal(t, "#1 MSG0_PING\n", buf.String())
}

func TestRenderRoutesToNamedOutFileAndOptionallyDuplicates(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG1_Y"}
	outFile := &symtab.OutFile{Name: "AUX"}
	fd := &descriptor.FieldDescriptor{
		FmtString: "%d", PrintType: descriptor.PrintUint, DataType: descriptor.DataU64,
		BitAddress: 0, BitSize: 32, SinkOutFile: outFile, AlsoToMainLog: true,
	}
	desc.Fields = []*descriptor.FieldDescriptor{fd}

	var main, aux bytes.Buffer
	f := formatter.New(formatter.Sinks{Main: &main, ByName: map[string]io.Writer{"AUX": &aux}})

	f.RenderMessage(desc, []byte{9, 0, 0, 0}, 0, nil)
	assert.Equal(t, "9", aux.String())
	assert.Equal(t, "9", main.String())
}

func TestRenderDefersExtractionErrorAndSubstitutesZero(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG1_Z"}
	fd := &descriptor.FieldDescriptor{FmtString: "%d", PrintType: descriptor.PrintUint, DataType: descriptor.DataU64, BitAddress: 0, BitSize: 32}
	desc.Fields = []*descriptor.FieldDescriptor{fd}

	var buf bytes.Buffer
	f := formatter.New(newSinks(&buf))

	deferred := f.RenderMessage(desc, []byte{1, 2}, 0, nil) // too short for a 32-bit field
	require.Len(t, deferred, 1)
	assert.Equal(t, "0", buf.String())
}

func TestHexDumpPadsFinalGroup(t *testing.T) {
	desc := &descriptor.MessageDescriptor{Name: "MSG1_H"}
	fd := &descriptor.FieldDescriptor{FmtString: "%s", PrintType: descriptor.PrintHexDump2}
	desc.Fields = []*descriptor.FieldDescriptor{fd}

	var buf bytes.Buffer
	f := formatter.New(newSinks(&buf))

	f.RenderMessage(desc, []byte{0xAB, 0xCD, 0xEF}, 0, nil)
	assert.Equal(t, "ABCD EF..", buf.String())
}

func TestSelectedTextLooksUpInlineBlob(t *testing.T) {
	blob, err := symtab.NewTextBlob([]string{"red", "green", "blue"})
	require.NoError(t, err)
	desc := &descriptor.MessageDescriptor{Name: "MSG1_C"}
	fd := &descriptor.FieldDescriptor{
		FmtString: "%s", PrintType: descriptor.PrintSelectedText, DataType: descriptor.DataU64,
		BitAddress: 0, BitSize: 8, InlineText: &symtab.InlineText{Blob: blob},
	}
	desc.Fields = []*descriptor.FieldDescriptor{fd}

	var buf bytes.Buffer
	f := formatter.New(newSinks(&buf))

	f.RenderMessage(desc, []byte{1}, 0, nil)
	assert.Equal(t, "green", buf.String())
}
