// Command rtemsg decodes an RTEdbg binary circular-buffer snapshot into
// human-readable logs, per-signal CSV statistics, and VCD waveform files.
// See §6 for the command line and §1 for the three subsystems it drives.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/rtedbg/rtemsg/cliargs"
	"github.com/rtedbg/rtemsg/config"
	"github.com/rtedbg/rtemsg/driver"
)

// Version is the build version, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the last line of defense before a bare-exit-code fatal (§7 tier
// 1): ownership discipline and checked indexing keep the decode pipeline
// itself from panicking, but a recover here still turns any unexpected
// failure into a diagnosed exit instead of a bare stack dump.
func run(argv []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "rtemsg: fatal: %+v\n", errors.Errorf("unrecovered panic: %v", r))
			code = driver.ExitFatalBinaryException
		}
	}()
	return runArgs(argv)
}

func runArgs(argv []string) int {
	if len(argv) == 1 && (argv[0] == "-version" || argv[0] == "--version") {
		fmt.Println("rtemsg", Version)
		return driver.ExitOK
	}

	args, err := cliargs.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtemsg:", err)
		printUsage()
		return driver.ExitPreLogBadParams
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtemsg: loading config:", err)
		cfg = config.DefaultConfig()
	}

	return driver.Run(args, cfg)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: rtemsg <working_folder> <fmt_folder> [binary_file] [flags]
   or: rtemsg @parameter_file

flags:
  -c               compile & syntax-check only
  -utf8            treat fmt sources and output as UTF-8
  -back            back up existing output files before overwriting
  -nr=<printf>     message-number format (default "N%05d")
  -stat=all|msg|value
  -debug           print extra diagnostics to stderr
  -timestamps      emit Timestamps.csv rows for every message
  -e=<fmt>         error-format pattern (%F,%L,%E,%P,%D,%A)
  -time=s|m|ms|u|us
  -locale=<name>
  -newline         use CRLF line endings in Main.log
  -N=<9..16>       format-id bit width
  -purge           delete known output files before starting
  -T=<printf>      timestamp format
  -ts=<neg>;<pos>  timestamp rollover bounds, ms`)
}
