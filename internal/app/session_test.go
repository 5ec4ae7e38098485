package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/continuation"
	"github.com/dshills/quill/internal/dispatcher/handler"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/input"
	"github.com/dshills/quill/internal/input/key"
	"github.com/dshills/quill/internal/provider"
)

func fixedProvider(text string) provider.Provider {
	return provider.Func(func(context.Context, provider.Request) (string, error) {
		return text, nil
	})
}

func testConfig(t *testing.T, contents string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.toml")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.New(config.WithFile(path))
	if err := cfg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(cfg.Close)
	return cfg
}

func startSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Document == nil {
		opts.Document = doc.Doc(doc.Paragraph(doc.Text("Hello world")))
	}
	s, err := NewSession(opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func waitSettled(t *testing.T, s *Session) continuation.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.WaitContinuation(ctx)
	if err != nil {
		t.Fatalf("WaitContinuation: %v", err)
	}
	return snap
}

func TestSessionDispatchFormatting(t *testing.T) {
	s := startSession(t, Options{Selection: doc.NewSelection(0, 5)})
	ctx := context.Background()

	result, err := s.Dispatch(ctx, input.NewAction(input.ActionToggleStrong, input.SourceToolbar))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != handler.StatusOK {
		t.Fatalf("status = %v (%s)", result.Status, result.Message)
	}
	if got, want := doc.Markdown(s.Model().Doc()), "**Hello** world\n"; got != want {
		t.Errorf("markdown = %q, want %q", got, want)
	}
	if !s.Formatter().IsMarkActive(doc.MarkStrong, s.Model().Selection()) {
		t.Error("strong should be active over the selection")
	}

	if _, err := s.Dispatch(ctx, input.NewAction(input.ActionUndo, input.SourceToolbar)); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Markdown(s.Model().Doc()), "Hello world\n"; got != want {
		t.Errorf("after undo = %q, want %q", got, want)
	}
}

func TestSessionHandleKey(t *testing.T) {
	s := startSession(t, Options{Selection: doc.NewSelection(0, 5)})
	ctx := context.Background()

	_, bound, err := s.HandleKey(ctx, key.MustParse("Mod-i"))
	if err != nil {
		t.Fatal(err)
	}
	if !bound {
		t.Fatal("Mod-i should be bound")
	}
	if got, want := doc.Markdown(s.Model().Doc()), "_Hello_ world\n"; got != want {
		t.Errorf("markdown = %q, want %q", got, want)
	}

	if _, bound, _ := s.HandleKey(ctx, key.MustParse("Mod-k")); bound {
		t.Error("Mod-k should be unbound")
	}

	m := s.Metrics().Snapshot()
	if m.KeyEvents != 2 || m.KeyEventsUnbound != 1 {
		t.Errorf("key metrics = %d/%d, want 2/1", m.KeyEvents, m.KeyEventsUnbound)
	}
}

func TestSessionKeymapOverride(t *testing.T) {
	cfg := testConfig(t, "")
	s := startSession(t, Options{Config: cfg, Selection: doc.NewSelection(0, 5)})
	ctx := context.Background()

	if err := cfg.Set("editor.keymap", map[string]any{"Ctrl-q": "format.toggleMark.code"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, bound, err := s.HandleKey(ctx, key.MustParse("Ctrl-q")); err != nil || !bound {
		t.Fatalf("Ctrl-q bound = %v, err = %v", bound, err)
	}
	if got, want := doc.Markdown(s.Model().Doc()), "`Hello` world\n"; got != want {
		t.Errorf("markdown = %q, want %q", got, want)
	}
}

func TestSessionContinueAtCaret(t *testing.T) {
	s := startSession(t, Options{
		Provider:  fixedProvider("and more."),
		Selection: doc.Caret(11),
	})

	var (
		mu    sync.Mutex
		texts []string
	)
	unsubscribe := s.OnContentChange(func(text string) {
		mu.Lock()
		defer mu.Unlock()
		texts = append(texts, text)
	})
	defer unsubscribe()

	result, err := s.Dispatch(context.Background(), input.NewAction(input.ActionContinue, input.SourceToolbar))
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != handler.StatusAsync {
		t.Fatalf("status = %v, want async", result.Status)
	}

	snap := waitSettled(t, s)
	if snap.State != continuation.StateIdle {
		t.Fatalf("state = %v, want idle", snap.State)
	}
	if got, want := s.Model().PlainText(), "Hello world and more."; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 1 || texts[0] != "Hello world and more." {
		t.Errorf("content observers saw %q", texts)
	}

	m := s.Metrics().Snapshot()
	if m.Generations != 1 || m.Successes != 1 || m.GeneratedRunes != 9 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestSessionContinueAfterRange(t *testing.T) {
	s := startSession(t, Options{
		Provider:  fixedProvider("X"),
		Selection: doc.NewSelection(5, 0),
	})
	if _, err := s.Dispatch(context.Background(), input.NewAction(input.ActionContinue, input.SourceToolbar)); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s)
	if got, want := s.Model().PlainText(), "HelloX world"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestSessionContinueFailureAndReset(t *testing.T) {
	s := startSession(t, Options{
		Provider: provider.Func(func(context.Context, provider.Request) (string, error) {
			return "", errors.New("quota exceeded")
		}),
		Selection: doc.Caret(11),
	})
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, input.NewAction(input.ActionContinue, input.SourceToolbar)); err != nil {
		t.Fatal(err)
	}
	snap := waitSettled(t, s)
	if snap.State != continuation.StateFailure {
		t.Fatalf("state = %v, want failure", snap.State)
	}
	if !strings.Contains(snap.Context.ErrorMessage, "quota exceeded") {
		t.Errorf("error message = %q", snap.Context.ErrorMessage)
	}
	if got := s.Model().PlainText(); got != "Hello world" {
		t.Errorf("document changed on failure: %q", got)
	}

	s.SetFocused(false)
	result, err := s.Dispatch(ctx, input.NewAction(input.ActionReset, input.SourceToolbar))
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != handler.StatusOK {
		t.Fatalf("reset status = %v (%s)", result.Status, result.Message)
	}
	if st := s.Continuation().State; st != continuation.StateIdle {
		t.Errorf("state after reset = %v, want idle", st)
	}
	if s.FocusCount() != 1 || !s.Input().Context().EditorFocused {
		t.Error("reset should return focus to the editor")
	}

	m := s.Metrics().Snapshot()
	if m.Failures != 1 || m.SuccessRate() != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestSessionModalGuard(t *testing.T) {
	s := startSession(t, Options{Selection: doc.NewSelection(0, 5)})
	ctx := context.Background()
	s.SetModalActive(true)

	result, err := s.Dispatch(ctx, input.NewAction(input.ActionToggleStrong, input.SourceKeyboard))
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != handler.StatusCancelled {
		t.Errorf("keyboard action under modal = %v, want cancelled", result.Status)
	}

	result, _ = s.Dispatch(ctx, input.NewAction(input.ActionToggleStrong, input.SourceToolbar))
	if result.Status != handler.StatusOK {
		t.Errorf("toolbar action under modal = %v, want ok", result.Status)
	}
}

func TestSessionProviderRebuiltOnConfigChange(t *testing.T) {
	cfg := testConfig(t, "[ai]\nprovider = \"compat\"\nmockDelay = \"0s\"\n")
	s := startSession(t, Options{Config: cfg, Selection: doc.Caret(11)})
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, input.NewAction(input.ActionContinue, input.SourceToolbar)); err != nil {
		t.Fatal(err)
	}
	if snap := waitSettled(t, s); snap.State != continuation.StateFailure {
		t.Fatalf("compat without a base URL: state = %v, want failure", snap.State)
	}

	if err := cfg.Set("ai.provider", "mock"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dispatch(ctx, input.NewAction(input.ActionContinue, input.SourceToolbar)); err != nil {
		t.Fatal(err)
	}
	if snap := waitSettled(t, s); snap.State != continuation.StateIdle {
		t.Fatalf("mock: state = %v (%s), want idle", snap.State, snap.Context.ErrorMessage)
	}
	if text := s.Model().PlainText(); !strings.HasPrefix(text, "Hello world ") || len(text) <= len("Hello world ") {
		t.Errorf("text = %q, want generated text after the caret", text)
	}
}

func TestSessionLogLevelFollowsConfig(t *testing.T) {
	cfg := testConfig(t, "")
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &strings.Builder{}})
	startSession(t, Options{Config: cfg, Logger: logger, Provider: fixedProvider("x")})

	if err := cfg.Set("logging.level", "debug"); err != nil {
		t.Fatal(err)
	}
	if logger.Level() != LogLevelDebug {
		t.Errorf("level = %v, want DEBUG", logger.Level())
	}
}

func TestSessionClose(t *testing.T) {
	s, err := NewSession(Options{Provider: fixedProvider("x")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	s.Close()
	s.Close()

	if _, err := s.Dispatch(context.Background(), input.NewAction(input.ActionUndo, input.SourceAPI)); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Dispatch after Close = %v, want ErrNotRunning", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}

func TestNewSessionUnknownProvider(t *testing.T) {
	cfg := testConfig(t, "[ai]\nprovider = \"nope\"\n")
	_, err := NewSession(Options{Config: cfg})
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, provider.ErrUnknownProvider) {
		t.Errorf("err = %v, want initialization error wrapping ErrUnknownProvider", err)
	}
}
