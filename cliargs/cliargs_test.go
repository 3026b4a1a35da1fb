package cliargs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalAndFlags(t *testing.T) {
	a, err := Parse([]string{"work", "fmt", "data.bin", "-c", "-N=12", "-stat=value", "-utf8"})
	require.NoError(t, err)
	assert.Equal(t, "work", a.WorkingFolder)
	assert.Equal(t, "fmt", a.FmtFolder)
	assert.Equal(t, "data.bin", a.BinaryFile)
	assert.True(t, a.CompileOnly)
	assert.True(t, a.UTF8)
	assert.Equal(t, 12, a.FmtIDBits)
	assert.Equal(t, "value", a.StatMode)
}

func TestParseDefaults(t *testing.T) {
	a, err := Parse([]string{"work", "fmt"})
	require.NoError(t, err)
	assert.Equal(t, "all", a.StatMode)
	assert.Equal(t, "s", a.TimeUnit)
	assert.Equal(t, "en", a.Locale)
	assert.Equal(t, 0, a.FmtIDBits)
	assert.False(t, a.HasTS)
}

func TestParseTooFewPositionalArgsFails(t *testing.T) {
	_, err := Parse([]string{"onlyone"})
	assert.Error(t, err)
}

func TestParseNBitsOutOfRangeFails(t *testing.T) {
	_, err := Parse([]string{"work", "fmt", "-N=8"})
	assert.Error(t, err)
	_, err = Parse([]string{"work", "fmt", "-N=17"})
	assert.Error(t, err)
}

func TestParseUnknownFlagFails(t *testing.T) {
	_, err := Parse([]string{"work", "fmt", "-bogus"})
	assert.Error(t, err)
}

func TestParseTSBounds(t *testing.T) {
	a, err := Parse([]string{"work", "fmt", "-ts=-100;330"})
	require.NoError(t, err)
	assert.True(t, a.HasTS)
	assert.Equal(t, -100.0, a.TSNegMs)
	assert.Equal(t, 330.0, a.TSPosMs)
}

func TestParameterFileExpansion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.txt")
	content := "workdir\nfmtdir\ndata.bin -c -N=10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := Parse([]string{"@" + path})
	require.NoError(t, err)
	assert.Equal(t, "workdir", a.WorkingFolder)
	assert.Equal(t, "fmtdir", a.FmtFolder)
	assert.Equal(t, "data.bin", a.BinaryFile)
	assert.True(t, a.CompileOnly)
	assert.Equal(t, 10, a.FmtIDBits)
}

func TestParameterFileQuotedPathWithSpaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.txt")
	content := "workdir\nfmtdir\n\"my data.bin\" -debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := Parse([]string{"@" + path})
	require.NoError(t, err)
	assert.Equal(t, "my data.bin", a.BinaryFile)
	assert.True(t, a.Debug)
}

func TestParameterFileTooShortFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.txt")
	require.NoError(t, os.WriteFile(path, []byte("onlyonelineworkdir\n"), 0o644))

	_, err := Parse([]string{"@" + path})
	assert.Error(t, err)
}
