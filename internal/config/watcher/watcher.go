// Package watcher reports changes to configuration files.
//
// Files are watched through their parent directory so that editors which
// save by writing a temporary file and renaming it are still noticed.
// Bursts of events for one file are coalesced with a debounce delay.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when watching after Close.
var ErrClosed = errors.New("watcher closed")

// Operation is the kind of file change.
type Operation int

const (
	// OpWrite means the file was written or replaced.
	OpWrite Operation = iota
	// OpRemove means the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a debounced change to a watched file.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Handler receives events on the watcher goroutine.
type Handler func(Event)

// ErrorHandler receives errors reported by the file system watcher.
type ErrorHandler func(error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long events for a file are coalesced.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets the handler for watcher errors.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Watcher) {
		w.onError = h
	}
}

// Watcher watches individual files.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	handler  Handler
	onError  ErrorHandler
	debounce time.Duration
	timers   map[string]*time.Timer
	pending  map[string]Operation
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New starts a watcher that calls handler for changes to watched files.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		handler:  handler,
		debounce: 100 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]Operation),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds path. The file need not exist yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Files returns the watched file paths.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Close stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Create):
		op = OpWrite
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = OpRemove
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.files[path] {
		return
	}
	if w.debounce == 0 {
		go w.emit(path, op)
		return
	}
	w.pending[path] = op
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		op, ok := w.pending[path]
		delete(w.pending, path)
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()
		if ok && !closed {
			w.emit(path, op)
		}
	})
}

func (w *Watcher) emit(path string, op Operation) {
	if w.handler != nil {
		w.handler(Event{Path: path, Op: op, Time: time.Now()})
	}
}
