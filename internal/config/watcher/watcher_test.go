package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcherReportsWriteAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.toml")
	events := make(chan Event, 8)

	w, err := New(func(ev Event) { events <- ev }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[ai]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitEvent(t, events)
	if ev.Op != OpWrite || filepath.Base(ev.Path) != "quill.toml" {
		t.Errorf("event = %+v, want write of quill.toml", ev)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if ev := waitEvent(t, events); ev.Op != OpRemove {
		t.Errorf("event = %+v, want remove", ev)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	events := make(chan Event, 8)
	w, err := New(func(ev Event) { events <- ev }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Watch(filepath.Join(dir, "quill.toml")); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchAfterClose(t *testing.T) {
	w, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "x.toml")); err != ErrClosed {
		t.Errorf("Watch after Close = %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
