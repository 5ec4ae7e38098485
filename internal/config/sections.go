package config

import (
	"math"
	"strings"
	"time"
)

// Defaults and limits of the AI section.
const (
	DefaultProvider     = "mock"
	DefaultModel        = "gpt-4o-mini"
	DefaultTemperature  = 0.8
	DefaultMaxTokens    = 128
	DefaultMockDelay    = 3 * time.Second
	DefaultHistoryLimit = 100

	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 4096
)

// Section accessors return snapshots. Mutating the returned struct does
// not change the configuration; use Config.Set.

// AIConfig holds the completion provider settings.
type AIConfig struct {
	// Provider names the completion backend: mock, openai, anthropic,
	// gemini, compat or script.
	Provider string
	Model    string

	// Temperature is clamped to [0, 2].
	Temperature float64

	// MaxTokens is floored and clamped to [1, 4096].
	MaxTokens int

	InstructionsEnabled bool
	Instructions        string

	// APIKey is ai.apiKey when set, otherwise the key stored for the
	// provider under ai.keys, such as OPENAI_API_KEY for openai.
	APIKey     string
	BaseURL    string
	ScriptPath string
	MockDelay  time.Duration
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is console or json.
	Format string
}

// EditorConfig holds editor settings.
type EditorConfig struct {
	// Keymap maps key specs such as "Mod-e" to action names. Entries
	// override the default bindings.
	Keymap       map[string]string
	HistoryLimit int
}

// AI returns the AI section.
func (c *Config) AI() AIConfig {
	provider := strings.ToLower(strings.TrimSpace(c.getStringOr("ai.provider", DefaultProvider)))
	key := c.getStringOr("ai.apiKey", "")
	if key == "" && provider != "" {
		key = c.getStringOr("ai.keys."+provider, "")
	}
	return AIConfig{
		Provider:            provider,
		Model:               c.getStringOr("ai.model", DefaultModel),
		Temperature:         ClampTemperature(c.getFloatOr("ai.temperature", DefaultTemperature)),
		MaxTokens:           ClampMaxTokens(c.getFloatOr("ai.maxTokens", DefaultMaxTokens)),
		InstructionsEnabled: c.getBoolOr("ai.instructionsEnabled", false),
		Instructions:        c.getStringOr("ai.instructions", ""),
		APIKey:              key,
		BaseURL:             c.getStringOr("ai.baseURL", ""),
		ScriptPath:          c.getStringOr("ai.scriptPath", ""),
		MockDelay:           c.getDurationOr("ai.mockDelay", DefaultMockDelay),
	}
}

// Logging returns the logging section.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "info"),
		Format: c.getStringOr("logging.format", "console"),
	}
}

// Editor returns the editor section.
func (c *Config) Editor() EditorConfig {
	keymap, err := c.GetStringMap("editor.keymap")
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError("editor.keymap", err)
		}
		keymap = map[string]string{}
	}
	limit := c.getIntOr("editor.historyLimit", DefaultHistoryLimit)
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return EditorConfig{Keymap: keymap, HistoryLimit: limit}
}

// ClampTemperature limits t to [0, 2]. NaN becomes the default.
func ClampTemperature(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultTemperature
	}
	return min(max(t, MinTemperature), MaxTemperature)
}

// ClampMaxTokens floors n and limits it to [1, 4096]. NaN becomes the
// default.
func ClampMaxTokens(n float64) int {
	if math.IsNaN(n) {
		return DefaultMaxTokens
	}
	return int(min(max(math.Floor(n), MinMaxTokens), MaxMaxTokens))
}

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getFloatOr(path string, defaultValue float64) float64 {
	v, err := c.GetFloat(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil || v < 0 {
		if err != nil && err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}
