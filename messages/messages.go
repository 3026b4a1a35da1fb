// Package messages loads Messages.txt, the localization table that
// supplies the user-facing string for every errs.Code (§6, §7). The
// table's content and escape-sequence grammar are an external
// collaborator per §1; this package only loads the fixed-line-count file
// and indexes it by line number.
package messages

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TotalMessages is the required line count of Messages.txt.
const TotalMessages = 64

// Table is an ordinal-indexed table of localized message strings.
type Table struct {
	lines []string
}

// Default returns an empty Table, used when no Messages.txt is supplied
// (or in tests): Get returns the caller's fallback string for every entry.
func Default() *Table {
	return &Table{lines: make([]string, TotalMessages)}
}

// Load reads a Messages.txt file: exactly TotalMessages UTF-8 lines, with
// backslash escape sequences (\n, \t, \\) unescaped.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, unescape(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) != TotalMessages {
		return nil, fmt.Errorf("messages: %s has %d lines, want %d", path, len(lines), TotalMessages)
	}
	return &Table{lines: lines}, nil
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Get returns the ordinal-th message, or a placeholder if out of range or
// empty (no Messages.txt was loaded).
func (t *Table) Get(ordinal int, fallback string) string {
	if t == nil || ordinal < 0 || ordinal >= len(t.lines) || t.lines[ordinal] == "" {
		return fallback
	}
	return t.lines[ordinal]
}
