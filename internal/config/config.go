package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/quill/internal/config/layer"
	"github.com/dshills/quill/internal/config/loader"
	"github.com/dshills/quill/internal/config/notify"
	"github.com/dshills/quill/internal/config/watcher"
)

// Layer names.
const (
	layerDefaults = "defaults"
	layerFile     = "file"
	layerEnv      = "environment"
	layerRuntime  = "runtime"
)

// Config provides access to the merged configuration, reloads the file
// layer when it changes and notifies subscribers of changes.
type Config struct {
	mu sync.RWMutex

	layers   *layer.Manager
	notifier *notify.Notifier
	watcher  *watcher.Watcher

	path    string
	fs      loader.FileSystem
	env     loader.Loader
	watch   bool
	onError func(error)
	loaded  bool

	// configErrors keeps type problems found by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. Without it Load looks for
// quill.toml, quill.yaml or quill.yml in the working directory and then in
// the user configuration directory.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithWatcher enables reloading the file when it changes.
func WithWatcher(enable bool) Option {
	return func(c *Config) {
		c.watch = enable
	}
}

// WithFileSystem replaces the file system used to read the file.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnvLoader replaces the environment loader.
func WithEnvLoader(l loader.Loader) Option {
	return func(c *Config) {
		c.env = l
	}
}

// WithErrorHandler receives errors from background reloads.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.onError = fn
	}
}

// New creates a Config. Call Load before use.
func New(opts ...Option) *Config {
	c := &Config{
		layers:       layer.NewManager(),
		notifier:     notify.New(),
		fs:           loader.OSFS{},
		env:          loader.NewEnvLoader(loader.DefaultPrefix),
		configErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.layers.Put(layer.New(layerDefaults, layer.SourceBuiltin, defaultConfig()))
	return c
}

// Load reads the file and environment layers and starts the watcher when
// enabled. A missing file is not an error; a malformed one is.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	if c.path == "" {
		c.path = findConfigFile()
	}
	path := c.path

	if path != "" {
		data, err := loader.NewFileLoaderWithFS(c.fs, path).Load()
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if data != nil {
			l := layer.New(layerFile, layer.SourceFile, data)
			l.Path = path
			c.layers.Put(l)
		}
	}

	data, err := c.env.Load()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if len(data) > 0 {
		c.layers.Put(layer.New(layerEnv, layer.SourceEnv, data))
	}
	if _, ok := c.layers.Layer(layerRuntime); !ok {
		c.layers.Put(layer.New(layerRuntime, layer.SourceRuntime, nil))
	}
	c.loaded = true
	watch := c.watch && path != "" && c.watcher == nil
	c.mu.Unlock()

	if watch {
		w, err := watcher.New(c.handleFileChange, watcher.WithErrorHandler(c.reportError))
		if err != nil {
			return err
		}
		if err := w.Watch(path); err != nil {
			_ = w.Close()
			return err
		}
		c.mu.Lock()
		c.watcher = w
		c.mu.Unlock()
	}
	return nil
}

// Path returns the configuration file in use, if any.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Close stops the watcher and the notifier.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}
	c.notifier.Close()
}

// Get returns the merged value at a dot-separated path.
func (c *Config) Get(path string) (any, bool) {
	return c.layers.Get(path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetFloat returns a numeric value at the given path as a float64.
func (c *Config) GetFloat(path string) (float64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "number", Actual: typeName(v)}
	}
}

// GetInt returns a numeric value at the given path, truncated.
func (c *Config) GetInt(path string) (int, error) {
	f, err := c.GetFloat(path)
	if err != nil {
		var te *TypeError
		if errors.As(err, &te) {
			te.Expected = "int"
		}
		return 0, err
	}
	return int(f), nil
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration. Strings are parsed with
// time.ParseDuration and bare numbers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: "string " + val}
		}
		return d, nil
	}
	ms, err := c.GetFloat(path)
	if err != nil {
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// GetStringMap returns a table of strings, such as the keymap overrides.
func (c *Config) GetStringMap(path string) (map[string]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &TypeError{Path: path, Expected: "table", Actual: typeName(v)}
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		s, ok := item.(string)
		if !ok {
			return nil, &TypeError{Path: path + "." + k, Expected: "string", Actual: typeName(item)}
		}
		out[k] = s
	}
	return out, nil
}

// Set stores value at path in the runtime layer and notifies observers
// with the effective values before and after.
func (c *Config) Set(path string, value any) error {
	if path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return ErrInvalidPath
	}
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	old, _ := c.layers.Get(path)
	if err := c.layers.Set(layerRuntime, path, value); err != nil {
		c.mu.Unlock()
		return err
	}
	now, _ := c.layers.Get(path)
	c.mu.Unlock()

	if !reflect.DeepEqual(old, now) {
		c.notifier.NotifySet(path, old, now, layerRuntime)
	}
	return nil
}

// Subscribe registers an observer for all configuration changes.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (c *Config) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(path, observer)
}

// Merged returns the fully merged configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// Reload rereads the configuration file and notifies observers of every
// setting whose effective value changed. On a parse error the previous
// file layer stays in effect.
func (c *Config) Reload() error {
	c.mu.Lock()
	path := c.path
	if path == "" {
		c.mu.Unlock()
		return nil
	}
	before := c.layers.Merge()
	data, err := loader.NewFileLoaderWithFS(c.fs, path).Load()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if data == nil {
		c.layers.Remove(layerFile)
	} else {
		l := layer.New(layerFile, layer.SourceFile, data)
		l.Path = path
		c.layers.Put(l)
	}
	after := c.layers.Merge()
	c.mu.Unlock()

	for _, p := range changedPaths(before, after) {
		oldVal, _ := layer.GetByPath(before, p)
		newVal, _ := layer.GetByPath(after, p)
		c.notifier.NotifySet(p, oldVal, newVal, path)
	}
	c.notifier.NotifyReload(path)
	return nil
}

func (c *Config) handleFileChange(watcher.Event) {
	if err := c.Reload(); err != nil {
		c.reportError(err)
	}
}

func (c *Config) reportError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// ConfigErrors returns the type problems found by section accessors.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		out[k] = v
	}
	return out
}

func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configErrors[path] = err
}

func changedPaths(before, after map[string]any) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range append(layer.Paths(before), layer.Paths(after)...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		a, _ := layer.GetByPath(before, p)
		b, _ := layer.GetByPath(after, p)
		if !reflect.DeepEqual(a, b) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// findConfigFile returns the first existing candidate file, or "".
func findConfigFile() string {
	dirs := []string{"."}
	if dir := userConfigDir(); dir != "" {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		for _, name := range []string{"quill.toml", "quill.yaml", "quill.yml"} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quill")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quill")
}

// defaultConfig returns the built-in defaults.
func defaultConfig() map[string]any {
	return map[string]any{
		"ai": map[string]any{
			"provider":            DefaultProvider,
			"model":               DefaultModel,
			"temperature":         DefaultTemperature,
			"maxTokens":           DefaultMaxTokens,
			"instructionsEnabled": false,
			"instructions":        "",
			"mockDelay":           DefaultMockDelay.String(),
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "console",
		},
		"editor": map[string]any{
			"historyLimit": DefaultHistoryLimit,
		},
	}
}
