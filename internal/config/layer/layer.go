// Package layer holds configuration layers and merges them by priority.
// Higher priority layers override lower ones; nested maps merge key by key.
package layer

import "time"

// Source indicates where a layer came from.
type Source uint8

const (
	// SourceBuiltin is the compiled-in defaults.
	SourceBuiltin Source = iota
	// SourceFile is the user configuration file.
	SourceFile
	// SourceEnv is the process environment.
	SourceEnv
	// SourceRuntime holds values set while running.
	SourceRuntime
)

// Standard priorities.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PriorityRuntime = 1000
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Priority returns the standard priority of the source.
func (s Source) Priority() int {
	switch s {
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceRuntime:
		return PriorityRuntime
	default:
		return PriorityBuiltin
	}
}

// Layer is one configuration source.
type Layer struct {
	Name     string
	Source   Source
	Priority int

	// Path is the file the layer was read from, if any.
	Path string

	Data    map[string]any
	ModTime time.Time
}

// New creates a layer with the standard priority for source.
func New(name string, source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: source.Priority(),
		Data:     data,
		ModTime:  time.Now(),
	}
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Data = cloneMap(l.Data)
	return &c
}
