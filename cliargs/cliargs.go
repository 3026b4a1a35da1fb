// Package cliargs parses the RTEmsg command line: the two positional
// folder arguments, the binary data file, the flag set of §6, and the
// single-argument `@parameter_file` form. Named as an external
// collaborator in §1 (the CLI surface itself isn't part of the decode
// engine), this package still needs a real implementation to drive the
// engine end to end.
package cliargs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Args is the parsed command line.
type Args struct {
	WorkingFolder string
	FmtFolder     string
	BinaryFile    string

	CompileOnly bool    // -c
	UTF8        bool    // -utf8
	Back        bool    // -back
	NRFormat    string  // -nr=<printf>
	StatMode    string  // -stat=all|msg|value
	Debug       bool    // -debug
	Timestamps  bool    // -timestamps
	ErrorFormat string  // -e=<error-format>
	TimeUnit    string  // -time=s|m|ms|u|us
	Locale      string  // -locale=<name>
	Newline     bool    // -newline
	FmtIDBits   int     // -N=<9..16>, 0 means "not set"
	Purge       bool    // -purge
	TFormat     string  // -T=<printf>
	TSNegMs     float64 // -ts=<neg>;<pos>, ms
	TSPosMs     float64
	HasTS       bool
}

// Parse parses argv (os.Args[1:]). A single `@parameter_file` argument is
// expanded by ParameterFile first.
func Parse(argv []string) (*Args, error) {
	if len(argv) == 1 && strings.HasPrefix(argv[0], "@") {
		expanded, err := ParameterFile(argv[0][1:])
		if err != nil {
			return nil, err
		}
		argv = expanded
	}
	return parseTokens(argv)
}

// ParameterFile reads a parameter file: line 1 is the working folder,
// line 2 the fmt folder, and the remaining lines are tokenized (like a
// shell command line, since a parameter-file line may quote paths
// containing spaces) into the binary file name and flags.
func ParameterFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cliargs: parameter file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("cliargs: parameter file %s needs at least 2 lines (working folder, fmt folder)", path)
	}

	argv := []string{lines[0], lines[1]}
	lexer := shellwords.NewParser()
	for _, line := range lines[2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks, err := lexer.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("cliargs: parameter file %s: %w", path, err)
		}
		argv = append(argv, toks...)
	}
	return argv, nil
}

func parseTokens(argv []string) (*Args, error) {
	a := &Args{StatMode: "all", TimeUnit: "s", Locale: "en"}

	var positional []string
	for _, tok := range argv {
		if !strings.HasPrefix(tok, "-") {
			positional = append(positional, tok)
			continue
		}
		if err := a.applyFlag(tok); err != nil {
			return nil, err
		}
	}

	if len(positional) < 2 {
		return nil, fmt.Errorf("cliargs: expected working_folder and fmt_folder, got %d positional arguments", len(positional))
	}
	a.WorkingFolder = positional[0]
	a.FmtFolder = positional[1]
	if len(positional) >= 3 {
		a.BinaryFile = positional[2]
	}
	return a, nil
}

func (a *Args) applyFlag(tok string) error {
	name, value, hasValue := strings.Cut(strings.TrimPrefix(tok, "-"), "=")

	switch name {
	case "c":
		a.CompileOnly = true
	case "utf8":
		a.UTF8 = true
	case "back":
		a.Back = true
	case "debug":
		a.Debug = true
	case "timestamps":
		a.Timestamps = true
	case "newline":
		a.Newline = true
	case "purge":
		a.Purge = true
	case "nr":
		a.NRFormat = value
	case "stat":
		if !hasValue {
			return fmt.Errorf("cliargs: -stat requires a value")
		}
		a.StatMode = value
	case "e":
		a.ErrorFormat = value
	case "time":
		a.TimeUnit = value
	case "locale":
		a.Locale = value
	case "T":
		a.TFormat = value
	case "N":
		n, err := strconv.Atoi(value)
		if err != nil || n < 9 || n > 16 {
			return fmt.Errorf("cliargs: -N=%s must be an integer in [9,16]", value)
		}
		a.FmtIDBits = n
	case "ts":
		neg, pos, ok := strings.Cut(value, ";")
		if !ok {
			return fmt.Errorf("cliargs: -ts=<neg>;<pos> malformed: %q", value)
		}
		negF, err1 := strconv.ParseFloat(neg, 64)
		posF, err2 := strconv.ParseFloat(pos, 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("cliargs: -ts=<neg>;<pos> must be numeric: %q", value)
		}
		a.TSNegMs, a.TSPosMs, a.HasTS = negF, posF, true
	default:
		return fmt.Errorf("cliargs: unknown flag %q", tok)
	}
	return nil
}
