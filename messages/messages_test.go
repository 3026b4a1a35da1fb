package messages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultFallsBackToGivenString(t *testing.T) {
	tbl := Default()
	if got := tbl.Get(3, "fallback text"); got != "fallback text" {
		t.Errorf("Get on an empty table = %q, want the fallback", got)
	}
}

func TestLoadRequiresExactLineCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Messages.txt")
	var lines []string
	for i := 0; i < TotalMessages-1; i++ {
		lines = append(lines, "msg")
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load with too few lines should fail")
	}
}

func TestLoadUnescapesAndIndexes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Messages.txt")
	var lines []string
	for i := 0; i < TotalMessages; i++ {
		lines = append(lines, "plain")
	}
	lines[5] = `line one\nline two`
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.Get(5, "fallback"); got != "line one\nline two" {
		t.Errorf("Get(5) = %q, want unescaped \\n", got)
	}
	if got := tbl.Get(0, "fallback"); got != "plain" {
		t.Errorf("Get(0) = %q, want %q", got, "plain")
	}
}

func TestGetOutOfRangeUsesFallback(t *testing.T) {
	tbl := Default()
	if got := tbl.Get(-1, "fb"); got != "fb" {
		t.Errorf("Get(-1) = %q, want fallback", got)
	}
	if got := tbl.Get(TotalMessages+10, "fb"); got != "fb" {
		t.Errorf("Get(out of range) = %q, want fallback", got)
	}
}
