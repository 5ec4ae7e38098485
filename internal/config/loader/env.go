package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix is the prefix of environment variables read as settings.
const DefaultPrefix = "QUILL_"

// EnvLoader reads settings from environment variables. Variables named in
// the mapping go to the mapped path; other prefixed variables map by
// name, so QUILL_AI_MAX_TOKENS becomes ai.maxTokens.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader for prefix, which should end in "_".
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: DefaultEnvMapping(),
		environ: os.Environ,
	}
}

// DefaultEnvMapping returns the variables with fixed setting paths.
// Credential variables keep their raw string value.
func DefaultEnvMapping() map[string]string {
	return map[string]string{
		"QUILL_LOG_LEVEL":   "logging.level",
		"QUILL_LOG_FORMAT":  "logging.format",
		"OPENAI_API_KEY":    "ai.keys.openai",
		"ANTHROPIC_API_KEY": "ai.keys.anthropic",
		"GEMINI_API_KEY":    "ai.keys.gemini",
		"QUILL_API_KEY":     "ai.apiKey",
	}
}

// AddMapping maps an environment variable to a setting path.
func (l *EnvLoader) AddMapping(env, path string) {
	l.mapping[env] = path
}

// Load implements Loader.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if path, mapped := l.mapping[name]; mapped {
			if isCredential(path) {
				setByPath(out, path, value)
			} else {
				setByPath(out, path, parseValue(value))
			}
			continue
		}
		if l.prefix == "" || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if path := l.envToPath(name); path != "" {
			setByPath(out, path, parseValue(value))
		}
	}
	return out, nil
}

func isCredential(path string) bool {
	return strings.HasPrefix(path, "ai.keys.") || path == "ai.apiKey"
}

// envToPath converts QUILL_AI_MAX_TOKENS to ai.maxTokens.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}
	name := strings.ToLower(parts[1])
	for _, p := range parts[2:] {
		if p == "" {
			continue
		}
		name += strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.ToLower(parts[0]) + "." + name
}

// parseValue converts an environment string into a bool, number or
// duration when it looks like one.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "":
		return s
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return s
}

func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
