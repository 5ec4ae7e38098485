package keymap

import (
	"errors"
	"testing"

	"github.com/dshills/quill/internal/input/key"
)

func editingContext() *LookupContext {
	ctx := NewLookupContext()
	ctx.Conditions[CondEditorFocus] = true
	return ctx
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	return r
}

func TestDefaultBindings(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		event key.Event
		want  string
	}{
		{key.NewRuneEvent('b', key.ModCtrl), "format.toggleMark.strong"},
		{key.NewRuneEvent('i', key.ModCtrl), "format.toggleMark.em"},
		{key.NewRuneEvent('`', key.ModCtrl), "format.toggleMark.code"},
		{key.NewRuneEvent('z', key.ModCtrl), "history.undo"},
		{key.NewRuneEvent('Z', key.ModCtrl), "history.redo"},
		{key.NewRuneEvent('z', key.ModCtrl|key.ModShift), "history.redo"},
		{key.NewSpecialEvent(key.KeyEnter, key.ModShift), "ai.continue"},
	}

	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			b := r.Lookup(tt.event, editingContext())
			if b == nil {
				t.Fatalf("Lookup(%s) = nil, want %s", tt.event, tt.want)
			}
			if b.Action != tt.want {
				t.Errorf("Lookup(%s) = %s, want %s", tt.event, b.Action, tt.want)
			}
		})
	}
}

func TestUnboundKey(t *testing.T) {
	r := defaultRegistry(t)
	if b := r.Lookup(key.NewSpecialEvent(key.KeyEnter, 0), editingContext()); b != nil {
		t.Errorf("plain Enter bound to %s", b.Action)
	}
	if b := r.Lookup(key.NewRuneEvent('b', 0), editingContext()); b != nil {
		t.Errorf("plain b bound to %s", b.Action)
	}
}

func TestContinueGating(t *testing.T) {
	r := defaultRegistry(t)
	shiftEnter := key.MustParse("Shift-Enter")

	tests := []struct {
		name       string
		conditions map[string]bool
		want       bool
	}{
		{"focused", map[string]bool{CondEditorFocus: true}, true},
		{"unfocused", map[string]bool{}, false},
		{"modal", map[string]bool{CondEditorFocus: true, CondModalActive: true}, false},
		{"generating", map[string]bool{CondEditorFocus: true, CondGenerating: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &LookupContext{Conditions: tt.conditions}
			got := r.Lookup(shiftEnter, ctx) != nil
			if got != tt.want {
				t.Errorf("bound = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatBindingsIgnoreGenerating(t *testing.T) {
	r := defaultRegistry(t)
	ctx := editingContext()
	ctx.Conditions[CondGenerating] = true
	if b := r.Lookup(key.MustParse("Mod-b"), ctx); b == nil {
		t.Error("Mod-b unbound while generating")
	}
}

func TestOverrides(t *testing.T) {
	r := defaultRegistry(t)
	err := ApplyOverrides(r, map[string]string{
		"Ctrl+j": "ai.continue",
		"Mod-b":  ActionNone,
		"Alt-1":  "format.setBlockType.heading",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}

	b := r.Lookup(key.MustParse("<C-j>"), editingContext())
	if b == nil || b.Action != "ai.continue" {
		t.Fatalf("Ctrl-j = %v, want ai.continue", b)
	}
	if b.When != whenContinue {
		t.Errorf("override condition = %q, want %q", b.When, whenContinue)
	}

	ctx := editingContext()
	ctx.Conditions[CondGenerating] = true
	if b := r.Lookup(key.MustParse("Ctrl-j"), ctx); b != nil {
		t.Errorf("overridden continue fired while generating")
	}

	b = r.Lookup(key.MustParse("Mod-b"), editingContext())
	if b == nil || !b.Disabled() {
		t.Errorf("Mod-b = %v, want disabled binding", b)
	}

	// Defaults without overrides stay active.
	if b := r.Lookup(key.MustParse("Mod-i"), editingContext()); b == nil || b.Action != "format.toggleMark.em" {
		t.Errorf("Mod-i = %v", b)
	}

	if err := ApplyOverrides(r, nil); err != nil {
		t.Fatalf("ApplyOverrides(nil): %v", err)
	}
	if b := r.Lookup(key.MustParse("Mod-b"), editingContext()); b == nil || b.Action != "format.toggleMark.strong" {
		t.Errorf("Mod-b after reset = %v", b)
	}
}

func TestOverridesInvalid(t *testing.T) {
	r := defaultRegistry(t)
	err := ApplyOverrides(r, map[string]string{"Ctrl-NoSuchKey": "history.undo"})
	if !errors.Is(err, key.ErrInvalidSpec) {
		t.Errorf("err = %v, want ErrInvalidSpec", err)
	}
	err = ApplyOverrides(r, map[string]string{"Mod-k": " "})
	if err == nil {
		t.Error("empty action accepted")
	}
	if r.Get(UserKeymapName) != nil {
		t.Error("invalid overrides registered")
	}
}

func TestRegistryPriority(t *testing.T) {
	r := NewRegistry()
	low := NewKeymap("low").Add("Mod-k", "low.action")
	high := NewKeymap("high").WithPriority(10).Add("Mod-k", "high.action")
	for _, km := range []*Keymap{high, low} {
		if err := r.Register(km); err != nil {
			t.Fatal(err)
		}
	}

	if b := r.Lookup(key.MustParse("Mod-k"), nil); b.Action != "high.action" {
		t.Errorf("Lookup = %s, want high.action", b.Action)
	}
	if got := len(r.LookupAll(key.MustParse("Mod-k"), nil)); got != 2 {
		t.Errorf("LookupAll = %d matches, want 2", got)
	}

	r.Unregister("high")
	if b := r.Lookup(key.MustParse("Mod-k"), nil); b.Action != "low.action" {
		t.Errorf("after Unregister = %s, want low.action", b.Action)
	}
}

func TestAllBindings(t *testing.T) {
	r := defaultRegistry(t)
	if err := ApplyOverrides(r, map[string]string{"Mod-y": ActionNone}); err != nil {
		t.Fatal(err)
	}
	all := r.AllBindings()
	for _, m := range all {
		if m.Event.String() == "Ctrl-y" {
			t.Errorf("disabled chord listed: %s", m.Action)
		}
	}
	if len(all) != len(DefaultKeymap().Bindings)-1 {
		t.Errorf("AllBindings = %d, want %d", len(all), len(DefaultKeymap().Bindings)-1)
	}
}

func TestConditionEvaluator(t *testing.T) {
	ctx := &LookupContext{Conditions: map[string]bool{"a": true, "b": false}}
	e := &DefaultConditionEvaluator{}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"a", true},
		{"b", false},
		{"!b", true},
		{"a && b", false},
		{"a && !b", true},
		{"b || a", true},
		{"b || !a", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := e.Evaluate(tt.expr, ctx); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	km := NewKeymap("bad").Add("Mod-b", "")
	if err := km.Validate(); err == nil {
		t.Error("empty action accepted")
	}
	if err := DefaultKeymap().Validate(); err != nil {
		t.Errorf("default keymap invalid: %v", err)
	}
}
