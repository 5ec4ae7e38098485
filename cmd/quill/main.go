// Package main is the entry point for the quill command-line editor.
//
// quill loads a Markdown document, applies formatting actions to a
// selection, optionally asks the configured provider to continue the
// text, and prints the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/dispatcher/handlers/format"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/input/key"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	selection  string
	steps      []step
	generate   bool
	showState  bool
	timeout    time.Duration
	file       string
}

// step is one -action or -key flag. Steps run in command-line order.
type step struct {
	key  bool
	spec string
}

// stepFlag appends -action or -key values to a shared list.
type stepFlag struct {
	steps *[]step
	key   bool
}

func (f stepFlag) String() string {
	if f.steps == nil {
		return ""
	}
	var specs []string
	for _, s := range *f.steps {
		if s.key == f.key {
			specs = append(specs, s.spec)
		}
	}
	return strings.Join(specs, ",")
}

func (f stepFlag) Set(v string) error {
	if f.key {
		if _, err := key.Parse(v); err != nil {
			return err
		}
	}
	*f.steps = append(*f.steps, step{key: f.key, spec: v})
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New(config.WithFile(opts.configPath))
	if err := cfg.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}
	defer cfg.Close()

	logCfg := cfg.Logging()
	level := logCfg.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(level),
		Output: os.Stderr,
		Format: logCfg.Format,
		Prefix: "quill",
	})

	root, err := readDocument(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	sel, err := parseSelection(opts.selection, root.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	session, err := app.NewSession(app.Options{
		Config:    cfg,
		Logger:    logger,
		Document:  root,
		Selection: sel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, st := range opts.steps {
		if err := runStep(ctx, session, logger, st); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.generate {
		if code := continueWriting(ctx, session, opts.timeout); code != 0 {
			return code
		}
	}

	fmt.Print(doc.Markdown(session.Model().Doc()))

	if opts.showState {
		if err := printState(ctx, session, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func runStep(ctx context.Context, session *app.Session, logger *app.Logger, st step) error {
	if st.key {
		ev, err := key.Parse(st.spec)
		if err != nil {
			return err
		}
		result, bound, err := session.HandleKey(ctx, ev)
		switch {
		case err != nil:
			return fmt.Errorf("%s: %w", st.spec, err)
		case !bound:
			return fmt.Errorf("%s: key is not bound", st.spec)
		case result.IsError():
			return fmt.Errorf("%s: %w", st.spec, result.Error)
		}
		logger.Info("key %s: %s %s", st.spec, result.Status, result.Message)
		return nil
	}

	action, err := input.ParseAction(st.spec)
	if err != nil {
		return err
	}
	result, err := session.Dispatch(ctx, action)
	if err != nil {
		return fmt.Errorf("%s: %w", action.Name, err)
	}
	if result.IsError() {
		return fmt.Errorf("%s: %w", action.Name, result.Error)
	}
	logger.Info("%s: %s %s", action.Name, result.Status, result.Message)
	return nil
}

func continueWriting(ctx context.Context, session *app.Session, timeout time.Duration) int {
	result, err := session.Dispatch(ctx, input.NewAction(input.ActionContinue, input.SourceCLI))
	if err == nil && result.IsError() {
		err = result.Error
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: continue writing: %v\n", err)
		return 1
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	snap, err := session.WaitContinuation(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: continue writing: %v\n", err)
		return 1
	}
	if snap.State == continuation.StateFailure {
		fmt.Fprintf(os.Stderr, "Error: continue writing: %s\n", snap.Context.ErrorMessage)
		return 1
	}
	return 0
}

// printState writes the toolbar state of the selection, one key per line.
func printState(ctx context.Context, session *app.Session, w io.Writer) error {
	result, err := session.Dispatch(ctx, input.NewAction(format.ActionState, input.SourceCLI))
	if err != nil {
		return err
	}
	if result.IsError() {
		return result.Error
	}
	keys := make([]string, 0, len(result.Data))
	for k := range result.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s=%v\n", k, result.Data[k])
	}
	return nil
}

func readDocument(path string) (*doc.Node, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return doc.Doc(doc.Paragraph()), nil
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return doc.ParseMarkdown(string(data)), nil
}

// parseSelection parses "anchor,head" or a single caret position. An
// empty string is a caret at the end of the document.
func parseSelection(s string, size int) (doc.Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return doc.Caret(size), nil
	}
	a, h, isRange := strings.Cut(s, ",")
	anchor, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return doc.Selection{}, fmt.Errorf("invalid selection %q", s)
	}
	if !isRange {
		return doc.Caret(anchor), nil
	}
	head, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return doc.Selection{}, fmt.Errorf("invalid selection %q", s)
	}
	return doc.NewSelection(anchor, head), nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides logging.level")
	flag.StringVar(&opts.selection, "select", "", "Selection as anchor,head or a caret position (default: end of document)")
	flag.StringVar(&opts.selection, "s", "", "Selection (shorthand)")
	flag.Var(stepFlag{steps: &opts.steps}, "action", "Action to apply, in order; repeatable (bold, h2, quote, bullet, undo, ...)")
	flag.Var(stepFlag{steps: &opts.steps}, "a", "Action to apply (shorthand)")
	flag.Var(stepFlag{steps: &opts.steps, key: true}, "key", "Key to press through the keymap, in order with -action; repeatable (Mod-b, Mod-z, ...)")
	flag.BoolVar(&opts.generate, "continue", false, "Continue writing at the selection with the configured provider")
	flag.BoolVar(&opts.showState, "state", false, "Print the formatting state of the selection to stderr")
	flag.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Maximum time to wait for generated text")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "quill - rich-text editing with continue writing\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quill [options] [file.md | -]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill -s 0,5 -a bold notes.md         Bold the first five characters\n")
		fmt.Fprintf(os.Stderr, "  quill -a h2 -a quote notes.md         Make a heading, then quote it\n")
		fmt.Fprintf(os.Stderr, "  quill -s 0,5 -key Mod-i notes.md      Press Ctrl+I on the first five characters\n")
		fmt.Fprintf(os.Stderr, "  quill -continue draft.md              Append generated text at the end\n")
		fmt.Fprintf(os.Stderr, "  echo 'Once' | quill -continue -       Read the document from stdin\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("quill %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch strings.ToLower(opts.logLevel) {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	switch flag.NArg() {
	case 0:
	case 1:
		opts.file = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one document, got %d\n", flag.NArg())
		os.Exit(1)
	}
	return opts
}
