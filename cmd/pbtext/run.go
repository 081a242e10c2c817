package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/reoring/pbtext"
	"github.com/reoring/pbtext/arena"
	"github.com/reoring/pbtext/bridge"
	"github.com/reoring/pbtext/i18n"
	"github.com/reoring/pbtext/internal/config"
	"github.com/reoring/pbtext/internal/logging"
	"github.com/reoring/pbtext/jsonschema"
	"github.com/reoring/pbtext/schema"
	"github.com/reoring/pbtext/source/compress"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

type command struct {
	name    string
	summary string
	run     func(*session) error
}

var commands = []command{
	{"parse", "text to CBOR wire form; fails on errors or missing required fields", parseCmd},
	{"dump", "CBOR wire form to text", dumpCmd},
	{"check", "report issues and missing required fields", checkCmd},
	{"json", "text to JSON", jsonCmd},
	{"fmt", "text to canonical text", fmtCmd},
	{"schema", "JSON Schema of the json command's output", schemaCmd},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "pbtext converts protobuf text format messages.\n\nUsage:\n  pbtext <command> [flags]\n\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-7s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, "\nRun 'pbtext <command> --help' for flags.")
}

func run(args []string, e env) int {
	if len(args) == 0 {
		usage(e.stderr)
		return exitUsage
	}
	switch args[0] {
	case "help", "-h", "--help":
		usage(e.stdout)
		return exitOK
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		s, err := newSession(c.name, args[1:], e)
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		if err != nil {
			fmt.Fprintf(e.stderr, "error: %v\n", err)
			return exitUsage
		}
		defer s.close()
		if err := c.run(s); err != nil {
			var ee exitError
			if !errors.As(err, &ee) {
				fmt.Fprintf(e.stderr, "error: %v\n", err)
			}
			return exitFail
		}
		return exitOK
	}
	fmt.Fprintf(e.stderr, "error: unknown command %q\n", args[0])
	usage(e.stderr)
	return exitUsage
}

// exitError marks a failure whose report was already printed.
type exitError struct{}

func (exitError) Error() string { return "failed" }

type session struct {
	env
	cfg   config.Config
	log   zerolog.Logger
	md    *pbtext.MessageDescriptor
	alloc *arena.Counting
	in    string
	out   string
}

func newSession(name string, args []string, e env) (*session, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "TOML file with defaults")
	schemaPath := fs.String("schema", "", "schema file (.yaml, .yml, .json, .jsonc)")
	typeName := fs.String("type", "", "top-level message name")
	in := fs.String("in", "-", "input file, - for stdin")
	out := fs.String("out", "-", "output file, - for stdout")
	indent := fs.Int("indent", 2, "spaces per nesting level")
	maxDepth := fs.Int("max-depth", pbtext.DefaultMaxDepth, "maximum message nesting, 0 disables")
	maxBytes := fs.Int64("max-bytes", 0, "maximum input bytes, 0 disables")
	maxMemory := fs.Int("max-memory", 0, "maximum bytes held by the message tree, 0 disables")
	failFast := fs.Bool("fail-fast", false, "stop at the first issue")
	duplicates := fs.String("duplicates", "", "report repeated assignments: ignore, warn or error")
	logLevel := fs.String("log-level", "", "trace, debug, info, warn, error or off")
	lang := fs.String("lang", "", "message language (en, ja)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(&cfg, e.getenv); err != nil {
		return nil, err
	}
	if fs.Changed("schema") {
		cfg.Schema = *schemaPath
	}
	if fs.Changed("type") {
		cfg.Type = *typeName
	}
	if fs.Changed("indent") {
		cfg.Indent = *indent
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = *maxDepth
	}
	if fs.Changed("max-bytes") {
		cfg.MaxBytes = *maxBytes
	}
	if fs.Changed("fail-fast") {
		cfg.FailFast = *failFast
	}
	if fs.Changed("duplicates") {
		sev, err := config.ParseSeverity(*duplicates)
		if err != nil {
			return nil, err
		}
		cfg.Duplicates = sev
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("lang") {
		cfg.Lang = *lang
	}

	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.Out = e.stderr
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		lc.Level = lvl
	}
	logging.ApplyEnv(&lc, e.getenv)
	log := logging.New(lc, "pbtext").With().Str("cmd", name).Logger()

	if cfg.Schema == "" || cfg.Type == "" {
		return nil, errors.New("--schema and --type are required")
	}
	set, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, err
	}
	md, err := set.Message(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("%w (known: %s)", err, strings.Join(set.Names(), ", "))
	}

	var base pbtext.Allocator = arena.Arrow(memory.NewGoAllocator())
	if *maxMemory > 0 {
		base = &arena.Budget{Max: *maxMemory, Inner: base}
	}
	return &session{
		env:   e,
		cfg:   cfg,
		log:   log,
		md:    md,
		alloc: &arena.Counting{Inner: base},
		in:    *in,
		out:   *out,
	}, nil
}

func (s *session) close() {
	blocks, bytes := s.alloc.Outstanding()
	s.log.Debug().Int("acquired", s.alloc.Acquired()).Int("outstanding_blocks", blocks).
		Int("outstanding_bytes", bytes).Msg("allocator summary")
}

func (s *session) parseOpt() pbtext.ParseOpt {
	o := s.cfg.ParseOpt()
	o.Logger = &s.log
	o.Translator = i18n.Dictionary(s.cfg.Lang)
	return o
}

// open returns the decompressed input stream.
func (s *session) open() (io.ReadCloser, error) {
	var raw io.Reader = s.stdin
	var f *os.File
	if s.in != "-" {
		var err error
		if f, err = os.Open(s.in); err != nil {
			return nil, err
		}
		raw = f
	}
	r, codec, err := compress.NewReader(raw)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, err
	}
	s.log.Debug().Str("in", s.in).Stringer("codec", codec).Msg("input opened")
	return readCloser{Reader: r, close: func() error {
		r.Close()
		if f != nil {
			return f.Close()
		}
		return nil
	}}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// write stores data at the output, compressed per its extension.
func (s *session) write(data []byte) error {
	if s.out == "-" {
		_, err := s.stdout.Write(data)
		return err
	}
	f, err := os.Create(s.out)
	if err != nil {
		return err
	}
	w, err := compress.NewWriter(f, s.out)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseInput parses the text input and prints its issues. It fails unless
// the message parsed without errors; incompleteness is reported but left
// to the caller.
func (s *session) parseInput() (*pbtext.Dynamic, pbtext.Result, error) {
	r, err := s.open()
	if err != nil {
		return nil, pbtext.Result{}, err
	}
	defer r.Close()
	m, res := pbtext.ParseFrom(context.Background(), s.md, pbtext.TextReader(r, s.in), s.alloc, s.parseOpt())
	for _, w := range res.Warnings {
		fmt.Fprintf(s.stderr, "warning: %s\n", w)
	}
	if txt := res.ErrorText(); txt != "" {
		fmt.Fprint(s.stderr, txt)
	}
	if res.OutOfMemory {
		fmt.Fprintln(s.stderr, "error: out of memory")
	}
	if len(res.Issues) > 0 || m == nil {
		if m != nil {
			m.Release()
		}
		return nil, res, exitError{}
	}
	return m, res, nil
}

func reportMissing(w io.Writer, res pbtext.Result) {
	for _, p := range res.Missing {
		fmt.Fprintf(w, "missing required field %s\n", p)
	}
}

func parseCmd(s *session) error {
	m, res, err := s.parseInput()
	if err != nil {
		return err
	}
	defer m.Release()
	if !res.Complete {
		reportMissing(s.stderr, res)
		return exitError{}
	}
	data, err := bridge.Pack(m)
	if err != nil {
		return err
	}
	return s.write(data)
}

func dumpCmd(s *session) error {
	r, err := s.open()
	if err != nil {
		return err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m, err := bridge.Unpack(s.md, data, s.alloc)
	if err != nil {
		return err
	}
	defer m.Release()
	return s.encode(m)
}

func (s *session) encode(m pbtext.Message) error {
	text, err := pbtext.Encode(m, s.alloc, pbtext.EncodeOpt{Indent: s.cfg.Indent, Logger: &s.log})
	if err != nil {
		return err
	}
	return s.write([]byte(text))
}

func checkCmd(s *session) error {
	m, res, err := s.parseInput()
	if err != nil {
		return err
	}
	defer m.Release()
	if !res.Complete {
		reportMissing(s.stdout, res)
		return exitError{}
	}
	fmt.Fprintf(s.stdout, "ok: %s\n", s.md.Name)
	return nil
}

func jsonCmd(s *session) error {
	m, _, err := s.parseInput()
	if err != nil {
		return err
	}
	defer m.Release()
	data, err := bridge.MarshalJSON(m, strings.Repeat(" ", s.cfg.Indent))
	if err != nil {
		return err
	}
	return s.write(append(data, '\n'))
}

func fmtCmd(s *session) error {
	m, _, err := s.parseInput()
	if err != nil {
		return err
	}
	defer m.Release()
	return s.encode(m)
}

func schemaCmd(s *session) error {
	data, err := jsonschema.Marshal(s.md, strings.Repeat(" ", s.cfg.Indent))
	if err != nil {
		return err
	}
	return s.write(append(data, '\n'))
}
