// Package driver orchestrates one decode run: compile the .fmt sources,
// load the binary snapshot, drive the reassembler/timestamp/extractor/
// formatter pipeline to completion, and finalize every sink. It is the
// "owned DecoderContext" of §9 assembled as a concrete Go struct rather
// than ambient global state.
package driver

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rtedbg/rtemsg/bufferloader"
	"github.com/rtedbg/rtemsg/cliargs"
	"github.com/rtedbg/rtemsg/config"
	"github.com/rtedbg/rtemsg/descriptor"
	"github.com/rtedbg/rtemsg/errs"
	"github.com/rtedbg/rtemsg/extractor"
	"github.com/rtedbg/rtemsg/fmtcompiler"
	"github.com/rtedbg/rtemsg/formatter"
	"github.com/rtedbg/rtemsg/header"
	"github.com/rtedbg/rtemsg/messages"
	"github.com/rtedbg/rtemsg/reassembler"
	"github.com/rtedbg/rtemsg/stats"
	"github.com/rtedbg/rtemsg/symtab"
	"github.com/rtedbg/rtemsg/timestamp"
	"github.com/rtedbg/rtemsg/vcd"
)

// Exit codes, §6.
const (
	ExitOK                   = 0
	ExitFmtParseErrors       = 1
	ExitFatalDecodeErrors    = 2
	ExitNonFatalDecodeErrors = 3
	ExitStackExhaustion      = 4
	ExitFatalFmtException    = 5
	ExitFatalBinaryException = 6

	ExitPreLogCurrentDir   = 10
	ExitPreLogProgramPath  = 11
	ExitPreLogMessagesFile = 12
	ExitPreLogBadParams    = 13
)

const mainFmtFileName = "rte_main_fmt.h"

// Run executes one full decode: compile, load, decode, finalize. It
// returns the process exit code; it never panics on malformed input (all
// failure paths are ordinary error returns, per §9's "checked indexing
// eliminates the AV class").
func Run(args *cliargs.Args, cfg *config.Config) int {
	if args.WorkingFolder == "" || args.FmtFolder == "" {
		fmt.Fprintln(os.Stderr, "rtemsg: working_folder and fmt_folder are required")
		return ExitPreLogBadParams
	}
	if err := os.MkdirAll(args.WorkingFolder, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "rtemsg: cannot create working folder: %v\n", err)
		return ExitPreLogCurrentDir
	}

	if args.Purge {
		purgeOutputs(args.WorkingFolder)
	}

	fmtIDBits := args.FmtIDBits
	if fmtIDBits == 0 {
		fmtIDBits = cfg.Decode.DefaultFmtIDBits
	}

	compiler := fmtcompiler.New(fmtIDBits, fmtcompiler.OSFileReader{})
	mainFmt := filepath.Join(args.FmtFolder, mainFmtFileName)
	_ = compiler.CompileFile(mainFmt)

	errLog := openLogged(args.WorkingFolder, "Errors.log", args.Back)
	defer errLog.Close()

	msgTable := loadMessages(args)

	if compiler.Errors.Len() > 0 {
		writeCompileErrors(errLog, compiler.Errors, msgTable)
		if args.Debug {
			fmt.Fprintln(os.Stderr, compiler.Errors.Summary())
		}
		return ExitFmtParseErrors
	}

	if args.CompileOnly {
		headerPath := filepath.Join(args.FmtFolder, "rte_main_fmt.h.compiled")
		if err := compiler.WriteHeader(headerPath); err != nil {
			fmt.Fprintf(errLog, "compile: %v\n", err)
			return ExitFatalFmtException
		}
		return ExitOK
	}

	if args.BinaryFile == "" {
		fmt.Fprintln(os.Stderr, "rtemsg: no binary data file named on the command line")
		return ExitPreLogBadParams
	}

	raw, err := os.ReadFile(args.BinaryFile)
	if err != nil {
		wrapped := errors.Wrapf(err, "reading binary data file %s", args.BinaryFile)
		fmt.Fprintf(errLog, "%s\n", errs.ErrFileTooSmall)
		if args.Debug {
			fmt.Fprintf(errLog, "%+v\n", wrapped)
		} else {
			fmt.Fprintf(errLog, "%v\n", wrapped)
		}
		return ExitFatalDecodeErrors
	}

	hdr, err := header.Parse(raw)
	if err != nil {
		fmt.Fprintf(errLog, "header: %v\n", err)
		return ExitFatalDecodeErrors
	}

	nonFatal := false
	if hdr.Config.FmtIDBits != fmtIDBits {
		fmt.Fprintf(errLog, "%s: header says fmt_id_bits=%d, compiled with %d; using compiled value\n",
			errs.ErrFmtIDBitsMismatch, hdr.Config.FmtIDBits, fmtIDBits)
		nonFatal = true
	}

	stream, err := bufferloader.Load(raw, hdr)
	if err != nil {
		fmt.Fprintf(errLog, "%s: %v\n", errs.ErrBufferSizeInconsistent, err)
		nonFatal = true
		if stream == nil {
			return ExitFatalDecodeErrors
		}
	}

	run := &decodeRun{
		args:       args,
		cfg:        cfg,
		hdr:        hdr,
		fmtIDBits:  fmtIDBits,
		compiler:   compiler,
		stream:     stream,
		errLog:     errLog,
		msgTable:   msgTable,
		sysIDFreq:  (1 << uint(fmtIDBits)) - 1,
		sysIDLongT: (1 << uint(fmtIDBits)) - 2,
	}
	if err := run.openSinks(); err != nil {
		fmt.Fprintf(errLog, "opening output files: %v\n", err)
		return ExitFatalDecodeErrors
	}
	defer run.closeSinks()

	run.decode()
	if run.deferredFatal {
		nonFatal = true
	}
	run.finalize()

	if run.fatalDuringDecode {
		return ExitFatalDecodeErrors
	}
	if nonFatal {
		return ExitNonFatalDecodeErrors
	}
	return ExitOK
}

func loadMessages(args *cliargs.Args) *messages.Table {
	name := "Messages.txt"
	if args.Locale != "" && args.Locale != "en" {
		name = "Messages_" + args.Locale + ".txt"
	}
	path := filepath.Join(args.FmtFolder, name)
	if t, err := messages.Load(path); err == nil {
		return t
	}
	if t, err := messages.Load(filepath.Join(args.FmtFolder, "Messages.txt")); err == nil {
		return t
	}
	return messages.Default()
}

func writeCompileErrors(w io.Writer, list *errs.List, msgTable *messages.Table) {
	for i := 0; i < list.Len(); i++ {
		e := list.At(i)
		text := msgTable.Get(int(e.Code), e.Message)
		fmt.Fprintf(w, "%s: %s: %s\n", e.Pos, e.Code, text)
	}
	fmt.Fprintln(w, list.Summary())
}

func purgeOutputs(workingFolder string) {
	for _, name := range knownOutputFiles {
		os.Remove(filepath.Join(workingFolder, name))
	}
}

var knownOutputFiles = []string{
	"Main.log", "Errors.log", "Stat_main.log", "Statistics.csv",
	"Stat_msgs_found.txt", "Stat_msgs_missing.txt", "Timestamps.csv",
	"Format.csv", "Filter_names.txt",
}

func openLogged(workingFolder, name string, back bool) *os.File {
	path := filepath.Join(workingFolder, name)
	if back {
		backupExisting(path)
	}
	f, err := os.Create(path)
	if err != nil {
		// Errors.log itself couldn't be opened: fall back to stderr so
		// the process still reports something.
		return os.NewFile(uintptr(2), os.Stderr.Name())
	}
	return f
}

func backupExisting(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Rename(path, path+".bak")
	}
}

// decodeRun holds every piece of state threaded through one decode pass:
// the analogue of §9's owned DecoderContext.
type decodeRun struct {
	args      *cliargs.Args
	cfg       *config.Config
	hdr       *header.Header
	fmtIDBits int
	compiler  *fmtcompiler.Compiler
	stream    *bufferloader.Stream
	errLog    io.Writer
	msgTable  *messages.Table

	sysIDFreq  int // TSTAMP_FREQUENCY / STREAMING_MARK shared ID
	sysIDLongT int // LONG_TIMESTAMP ID

	mainLog  *os.File
	outFiles map[string]*os.File
	vcdFiles map[string]*vcdSink

	memos     map[int]float64
	statsAll  *stats.Collector
	kindStats *stats.MessageKindStats
	formatter *formatter.Formatter
	tsEngine  *timestamp.Engine

	timestampsCSV *os.File

	msgNo             uint64
	fatalDuringDecode bool
	deferredFatal     bool
}

type vcdSink struct {
	finalPath string
	tmpPath   string
	tmpFile   *os.File
	engine    *vcd.Engine
}

func (r *decodeRun) openSinks() error {
	var err error
	r.mainLog, err = createSink(r.args.WorkingFolder, "Main.log", r.args.Back)
	if err != nil {
		return err
	}

	r.outFiles = make(map[string]*os.File)
	r.vcdFiles = make(map[string]*vcdSink)

	for _, of := range r.compiler.Symtab().OutFiles() {
		path := of.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.args.WorkingFolder, path)
		}
		if strings.EqualFold(filepath.Ext(path), ".vcd") {
			tmpPath := path + ".tmp"
			tf, err := os.Create(tmpPath)
			if err != nil {
				return fmt.Errorf("vcd sink %s: %w", of.Name, err)
			}
			r.vcdFiles[of.Name] = &vcdSink{
				finalPath: path,
				tmpPath:   tmpPath,
				tmpFile:   tf,
				engine:    vcd.New(filepath.Base(r.args.BinaryFile), tf),
			}
			continue
		}
		f, err := os.OpenFile(path, openModeFlags(of.Mode), 0o644)
		if err != nil {
			return fmt.Errorf("out-file sink %s: %w", of.Name, err)
		}
		if of.Init != "" {
			io.WriteString(f, of.Init)
		}
		r.outFiles[of.Name] = f
	}

	r.timestampsCSV, err = createSink(r.args.WorkingFolder, "Timestamps.csv", r.args.Back)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.timestampsCSV, "message_number,classification,virtual_seconds")

	r.memos = make(map[int]float64)
	for _, m := range r.compiler.Symtab().Memos() {
		r.memos[m.Index] = m.Initial
	}

	r.statsAll = stats.New()
	r.kindStats = stats.NewMessageKindStats(r.compiler.Arena().All())

	byName := make(map[string]io.Writer, len(r.outFiles)+len(r.vcdFiles))
	for name, f := range r.outFiles {
		byName[name] = f
	}
	sinks := formatter.Sinks{
		Main:   r.mainLog,
		ByName: byName,
		Stats:  r.statsAll,
		VCD:    &vcdRouter{vcds: r.vcdFiles},
	}
	r.formatter = formatter.New(sinks)

	secPerTick := secondsPerTick(r.hdr.TimestampFrequency, r.hdr.Config.TimestampShift, r.fmtIDBits)
	r.tsEngine = timestamp.New(secPerTick)
	if r.args.HasTS {
		r.tsEngine.DeltaPlus = int64((r.args.TSPosMs / 1000.0) / secPerTick)
		r.tsEngine.DeltaMinus = int64((r.args.TSNegMs / 1000.0) / secPerTick)
	}

	return nil
}

// secondsPerTick derives the engine's seconds-per-normalized-tick
// multiplier. The logged ts_low field is `timestamp_frequency`'s counter
// right-shifted by `timestamp_shift`; the engine normalizes that field up
// to a full 32-bit domain (§4.5's "ts_low is always scaled left so one
// cycle is P"), so one normalized tick is 1/2^(fmtIDBits+1) of one raw
// logged tick.
func secondsPerTick(frequency uint32, shift, fmtIDBits int) float64 {
	if frequency == 0 {
		frequency = 1
	}
	rawSecondsPerTick := float64(uint64(1)<<uint(shift)) / float64(frequency)
	return rawSecondsPerTick / float64(uint64(1)<<uint(fmtIDBits+1))
}

func createSink(workingFolder, name string, back bool) (*os.File, error) {
	path := filepath.Join(workingFolder, name)
	if back {
		backupExisting(path)
	}
	return os.Create(path)
}

func openModeFlags(mode string) int {
	flags := 0
	haveBase := false
	for _, r := range mode {
		switch r {
		case 'w':
			flags |= os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			haveBase = true
		case 'a':
			flags |= os.O_WRONLY | os.O_CREATE | os.O_APPEND
			haveBase = true
		case 'x':
			flags |= os.O_EXCL
		case '+':
			flags |= os.O_RDWR
		case 'b', 't':
			// no-op on POSIX filesystems.
		}
	}
	if !haveBase {
		flags |= os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	return flags
}

// vcdRouter implements formatter.VCDFeed by dispatching to the named VCD
// sink (a decode may declare more than one `.vcd` OUT_FILE).
type vcdRouter struct {
	vcds map[string]*vcdSink
}

func (v *vcdRouter) Observe(dir *descriptor.VCDDirective, value float64, timestampNs int64, msgNo uint64) error {
	s, ok := v.vcds[dir.SinkName]
	if !ok {
		return nil
	}
	return s.engine.Observe(dir, value, timestampNs, msgNo)
}

func (r *decodeRun) closeSinks() {
	r.mainLog.Close()
	for _, f := range r.outFiles {
		f.Close()
	}
	for _, s := range r.vcdFiles {
		s.tmpFile.Close()
	}
	if r.timestampsCSV != nil {
		r.timestampsCSV.Close()
	}
}

func (r *decodeRun) timeUnitFactor() float64 {
	switch r.args.TimeUnit {
	case "m":
		return 1.0 / 60.0
	case "ms":
		return 1000
	case "u", "us":
		return 1e6
	default:
		return 1
	}
}

// decode drains the reassembler/timestamp pipeline to completion, feeding
// every decoded message to the formatter and the stats/VCD accumulators.
func (r *decodeRun) decode() {
	asm := reassembler.New(r.stream, r.fmtIDBits, r.hdr.Config.MaxSubpackets, r.compiler.Table(), r.compiler.Arena())
	ms := &memoStore{m: r.memos}

	for {
		res := asm.Next()
		switch res.Outcome {
		case reassembler.OutcomeEndOfStream:
			return

		case reassembler.OutcomeOk:
			r.handleMessage(res.Message, ms)

		case reassembler.OutcomeNoDescriptor:
			fmt.Fprintf(r.errLog, "%s: format id %d\n", errs.ErrNoFormattingDefinitionForCode, res.FmtID)

		case reassembler.OutcomeBadBlock:
			fmt.Fprintf(r.errLog, "%s: %d words\n", errs.ErrBadBlock, res.NWords)
			r.deferredFatal = true

		case reassembler.OutcomeUnfinishedBlock:
			fmt.Fprintf(r.errLog, "%s: %d sentinels\n", errs.ErrUnfinishedBlock, res.NSent)

		case reassembler.OutcomeMessageTooLong:
			fmt.Fprintf(r.errLog, "%s\n", errs.ErrMessageTooLong)
			r.deferredFatal = true
			if res.Message != nil {
				r.handleMessage(res.Message, ms)
			}
		}
	}
}

func (r *decodeRun) handleMessage(msg *reassembler.Message, ms extractor.MemoStore) {
	if msg.FormatID == r.sysIDLongT {
		r.handleLongTimestamp(msg)
		return
	}
	if msg.FormatID == r.sysIDFreq {
		r.handleFreqOrStreamingMark(msg)
		return
	}

	scaledLow := msg.TimestampLow << uint(r.fmtIDBits+1)
	virtual, class := r.tsEngine.Update(scaledLow)

	if class == timestamp.ClassSuspicious {
		r.searchLongTimestamp()
		virtual, _ = r.tsEngine.Update(scaledLow)
	}

	seconds := r.tsEngine.Seconds(virtual) * r.timeUnitFactor()

	if class != timestamp.ClassNormal || r.args.Timestamps {
		fmt.Fprintf(r.timestampsCSV, "%d,%d,%f\n", r.msgNo+1, class, seconds)
	}

	desc := r.compiler.Arena().Get(msg.Handle)
	r.msgNo++

	r.writeMessageHeader(desc, seconds)
	deferred := r.formatter.RenderMessage(desc, msg.Bytes, seconds, ms)
	for _, s := range r.vcdFiles {
		s.engine.CloseMessage(r.msgNo)
	}
	for _, de := range deferred {
		fmt.Fprintf(r.errLog, "%s: field in %s: %v\n", deferredErrorCode(de.Err), desc.Name, de.Err)
	}
}

func deferredErrorCode(err error) errs.Code {
	switch {
	case err == extractor.ErrValueSizeTooLarge:
		return errs.ErrValueSizeTooLarge
	case err == extractor.ErrValueNotInMessage:
		return errs.ErrValueNotInMessage
	case err == extractor.ErrAutoNeedsAligned:
		return errs.ErrAutoNeedsAlignedWord
	case err == extractor.ErrFloatBadSize:
		return errs.ErrFloatBadSize
	case err == extractor.ErrDivBy8:
		return errs.ErrDivBy8
	default:
		return errs.ErrValueNotInMessage
	}
}

func (r *decodeRun) writeMessageHeader(desc *descriptor.MessageDescriptor, seconds float64) {
	nrFormat := r.args.NRFormat
	if nrFormat == "" {
		nrFormat = "N%05d"
	}
	tFormat := r.args.TFormat
	if tFormat == "" {
		tFormat = "%f"
	}
	nl := "\n"
	if r.args.Newline {
		nl = "\r\n"
	}
	fmt.Fprintf(r.mainLog, nl+nrFormat+" "+tFormat+" %s: ", r.msgNo, seconds, desc.Name)
}

// handleLongTimestamp installs the firmware-reported high 32 bits
// directly; LONG_TIMESTAMP is always a 4-byte (MSG1-shaped) payload.
func (r *decodeRun) handleLongTimestamp(msg *reassembler.Message) {
	if len(msg.Bytes) < 4 {
		return
	}
	hi := binary.LittleEndian.Uint32(msg.Bytes[:4])
	r.tsEngine.ApplyLongTimestamp(hi)
}

// handleFreqOrStreamingMark decodes the shared system ID: an empty
// payload is STREAMING_MARK (no decode effect here, since this decoder
// never re-enters a live stream, §1 Non-goals); a 4-byte payload is
// TSTAMP_FREQUENCY carrying the new counter frequency in Hz.
func (r *decodeRun) handleFreqOrStreamingMark(msg *reassembler.Message) {
	if len(msg.Bytes) < 4 {
		return
	}
	freq := binary.LittleEndian.Uint32(msg.Bytes[:4])
	r.tsEngine.SetFrequency(secondsPerTick(freq, r.hdr.Config.TimestampShift, r.fmtIDBits))
}

// searchLongTimestamp walks forward from the engine's last search
// position looking for a LONG_TIMESTAMP anchor, the production
// counterpart of timestamp.Engine.SearchLongTimestamp: it additionally
// needs the DATA word immediately preceding the system FMT word, which
// the generic validator-driven primitive (built for isolated unit
// testing) has no way to surface.
func (r *decodeRun) searchLongTimestamp() {
	pos := r.tsEngine.SearchedTo
	for pos < r.stream.Len() {
		w := r.stream.At(pos)
		pos++
		if w == bufferloader.Sentinel || w&1 == 0 {
			continue
		}
		fmtID := int(w >> uint(32-r.fmtIDBits))

		if fmtID == r.sysIDFreq {
			// Ambiguous with STREAMING_MARK; either way it terminates
			// the search (§9 open question 3).
			r.tsEngine.SearchedTo = pos
			return
		}
		if fmtID == r.sysIDLongT && pos >= 2 {
			hi := binary.LittleEndian.Uint32(wordLEBytes(r.stream.At(pos - 2)))
			r.tsEngine.ApplyLongTimestamp(hi)
			r.tsEngine.SearchedTo = pos
			return
		}
	}
	r.tsEngine.SearchedTo = pos
	if !r.tsEngine.LongTSFound && !r.hdr.Config.LongTimestamp {
		r.tsEngine.MarkNoLongTimestampEverSeen()
	}
}

func wordLEBytes(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}

type memoStore struct {
	m map[int]float64
}

func (s *memoStore) Get(index int) float64       { return s.m[index] }
func (s *memoStore) Set(index int, value float64) { s.m[index] = value }

// finalize writes every sink's end-of-run output: statistics CSVs, the
// top-N message-kind tables, filter names, and every VCD file (header plus
// the tmp body written to the final path, then the tmp file removed)
// (§4.8, §5).
func (r *decodeRun) finalize() {
	if r.args.StatMode == "all" || r.args.StatMode == "value" {
		statCSV, err := createSink(r.args.WorkingFolder, "Statistics.csv", r.args.Back)
		if err == nil {
			r.statsAll.WriteCSV(statCSV)
			statCSV.Close()
		}
	}

	if r.args.StatMode == "all" || r.args.StatMode == "msg" {
		formatCSV, err := createSink(r.args.WorkingFolder, "Format.csv", r.args.Back)
		if err == nil {
			fmt.Fprintln(formatCSV, "# top by occurrence count")
			r.kindStats.WriteTopByCount(formatCSV)
			fmt.Fprintln(formatCSV, "# top by bytes consumed")
			r.kindStats.WriteTopByBytes(formatCSV)
			formatCSV.Close()
		}
	}

	r.writeMsgFoundMissing()
	r.writeFilterNames()
	r.writeStatMain()

	for _, s := range r.vcdFiles {
		r.finalizeVCD(s)
	}
}

func (r *decodeRun) writeMsgFoundMissing() {
	found, err := createSink(r.args.WorkingFolder, "Stat_msgs_found.txt", r.args.Back)
	if err != nil {
		return
	}
	defer found.Close()
	missing, err := createSink(r.args.WorkingFolder, "Stat_msgs_missing.txt", r.args.Back)
	if err != nil {
		return
	}
	defer missing.Close()

	descs := append([]*descriptor.MessageDescriptor(nil), r.compiler.Arena().All()...)
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	for _, d := range descs {
		if d.CountTotal > 0 {
			fmt.Fprintf(found, "%s,%d,%d\n", d.Name, d.CountTotal, d.BytesTotal)
		} else {
			fmt.Fprintf(missing, "%s\n", d.Name)
		}
	}
}

func (r *decodeRun) writeFilterNames() {
	f, err := createSink(r.args.WorkingFolder, "Filter_names.txt", r.args.Back)
	if err != nil {
		return
	}
	defer f.Close()
	for _, flt := range r.compiler.Symtab().Filters() {
		if flt == nil {
			continue
		}
		fmt.Fprintf(f, "%d,%s,%s\n", flt.Index, flt.Name, flt.Desc)
	}
}

func (r *decodeRun) writeStatMain() {
	f, err := createSink(r.args.WorkingFolder, "Stat_main.log", r.args.Back)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "messages decoded: %d\n", r.msgNo)
	fmt.Fprintf(f, "errors: see Errors.log\n")
}

func (r *decodeRun) finalizeVCD(s *vcdSink) {
	s.tmpFile.Close()

	finalFile, err := os.Create(s.finalPath)
	if err != nil {
		fmt.Fprintf(r.errLog, "vcd: cannot create %s: %v\n", s.finalPath, err)
		return
	}
	defer finalFile.Close()

	tmpReader, err := os.Open(s.tmpPath)
	if err != nil {
		fmt.Fprintf(r.errLog, "vcd: cannot reopen %s: %v\n", s.tmpPath, err)
		return
	}
	defer tmpReader.Close()

	buffered := bufio.NewReader(tmpReader)
	if err := s.engine.Finalize(finalFile, buffered, time.Now().Format(time.RFC1123)); err != nil {
		fmt.Fprintf(r.errLog, "vcd: finalize %s: %v\n", s.finalPath, err)
		os.Remove(s.finalPath)
		return
	}
	os.Remove(s.tmpPath)

	gtkwPath := strings.TrimSuffix(s.finalPath, filepath.Ext(s.finalPath)) + ".gtkw"
	if gtkw, err := os.Create(gtkwPath); err == nil {
		s.engine.WriteGTKW(gtkw, filepath.Base(s.finalPath))
		gtkw.Close()
	}
}

var _ = symtab.MaxEnums // keep symtab imported for doc-linking purposes in this package's godoc
