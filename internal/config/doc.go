// Package config provides layered configuration for quill.
//
// Layers, with higher layers overriding lower ones:
//
//	┌─────────────────────────────┐
//	│  4. Runtime (Config.Set)    │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← QUILL_*, OPENAI_API_KEY, ...
//	├─────────────────────────────┤
//	│  2. Configuration File      │  ← quill.toml / quill.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment loading
//   - layer: layer storage and merging
//   - watcher: file watching for live reload
//   - notify: change notification
//
// # Usage
//
//	cfg := config.New(config.WithFile("quill.toml"), config.WithWatcher(true))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	ai := cfg.AI()
//	cfg.SubscribePath("ai", func(c notify.Change) { ... })
//
// A configuration file looks like:
//
//	[ai]
//	provider = "openai"
//	model = "gpt-4o-mini"
//	temperature = 0.8
//	maxTokens = 128
//	instructionsEnabled = true
//	instructions = "Write in British English."
//
//	[logging]
//	level = "debug"
//
//	[editor.keymap]
//	"Ctrl-e" = "format.toggleMark.em"
//
// Typed section accessors never fail: missing or mistyped values fall back
// to defaults and the problem is kept in ConfigErrors.
package config
