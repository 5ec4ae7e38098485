package keymap

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/quill/internal/input/key"
)

// Condition names set by the input handler.
const (
	CondEditorFocus  = "editorTextFocus"
	CondModalActive  = "modalActive"
	CondGenerating   = "generating"
	CondHasSelection = "editorHasSelection"
)

// Registry manages all keymaps and provides binding lookup.
type Registry struct {
	mu sync.RWMutex

	// keymaps holds all registered keymaps by name.
	keymaps map[string]*ParsedKeymap

	// order lists keymap names by descending priority. Among equal
	// priorities the most recently registered comes first.
	order []string
	seq   map[string]int
	next  int

	// conditionEvaluator evaluates "when" conditions.
	conditionEvaluator ConditionEvaluator
}

// ConditionEvaluator evaluates binding conditions.
type ConditionEvaluator interface {
	// Evaluate evaluates a condition expression against the current context.
	Evaluate(condition string, ctx *LookupContext) bool
}

// LookupContext provides context for binding lookup.
type LookupContext struct {
	// Conditions holds current condition values.
	Conditions map[string]bool
}

// NewLookupContext creates a new lookup context.
func NewLookupContext() *LookupContext {
	return &LookupContext{
		Conditions: make(map[string]bool),
	}
}

// NewRegistry creates a new keymap registry.
func NewRegistry() *Registry {
	return &Registry{
		keymaps:            make(map[string]*ParsedKeymap),
		seq:                make(map[string]int),
		conditionEvaluator: &DefaultConditionEvaluator{},
	}
}

// SetConditionEvaluator sets the condition evaluator.
func (r *Registry) SetConditionEvaluator(eval ConditionEvaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditionEvaluator = eval
}

// Register adds or replaces a keymap.
func (r *Registry) Register(km *Keymap) error {
	if km == nil || km.Name == "" {
		return fmt.Errorf("keymap: missing name")
	}
	parsed, err := km.Parse()
	if err != nil {
		return fmt.Errorf("keymap %s: %w", km.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(km.Name)
	r.keymaps[km.Name] = parsed
	r.next++
	r.seq[km.Name] = r.next
	r.order = append(r.order, km.Name)
	sort.SliceStable(r.order, func(i, j int) bool {
		a, b := r.keymaps[r.order[i]], r.keymaps[r.order[j]]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return r.seq[a.Name] > r.seq[b.Name]
	})
	return nil
}

// Unregister removes a keymap by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(name)
}

func (r *Registry) unregisterLocked(name string) {
	if _, ok := r.keymaps[name]; !ok {
		return
	}
	delete(r.keymaps, name)
	delete(r.seq, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a keymap by name.
func (r *Registry) Get(name string) *ParsedKeymap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keymaps[name]
}

// Lookup returns the binding ev triggers in ctx, or nil. A disabled
// binding is returned as well so the caller can swallow the key.
func (r *Registry) Lookup(ev key.Event, ctx *LookupContext) *Binding {
	matches := r.LookupAll(ev, ctx)
	if len(matches) == 0 {
		return nil
	}
	b := matches[0].Binding
	return &b
}

// LookupAll returns every binding ev triggers in ctx, best first.
func (r *Registry) LookupAll(ev key.Event, ctx *LookupContext) []BindingMatch {
	if ctx == nil {
		ctx = NewLookupContext()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []BindingMatch
	for _, name := range r.order {
		pk := r.keymaps[name]
		var found []BindingMatch
		for _, pb := range pk.Find(ev) {
			if !r.conditionEvaluator.Evaluate(pb.When, ctx) {
				continue
			}
			found = append(found, BindingMatch{ParsedBinding: pb, Keymap: pk.Keymap})
		}
		sort.SliceStable(found, func(i, j int) bool {
			return found[i].Priority > found[j].Priority
		})
		out = append(out, found...)
	}
	return out
}

// Keymaps returns all registered keymaps, best first.
func (r *Registry) Keymaps() []*ParsedKeymap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ParsedKeymap, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.keymaps[name])
	}
	return out
}

// AllBindings returns the effective binding of every chord, ignoring
// conditions, sorted by canonical chord.
func (r *Registry) AllBindings() []BindingMatch {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []BindingMatch
	for _, name := range r.order {
		pk := r.keymaps[name]
		for i := range pk.ParsedBindings {
			pb := &pk.ParsedBindings[i]
			chord := pb.Event.String()
			if seen[chord] {
				continue
			}
			seen[chord] = true
			if pb.Disabled() {
				continue
			}
			out = append(out, BindingMatch{ParsedBinding: pb, Keymap: pk.Keymap})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Event.String() < out[j].Event.String()
	})
	return out
}

// DefaultConditionEvaluator provides basic condition evaluation.
type DefaultConditionEvaluator struct{}

// Evaluate evaluates a condition expression.
// Supports: condition, !condition, condition1 && condition2, condition1 || condition2
func (e *DefaultConditionEvaluator) Evaluate(condition string, ctx *LookupContext) bool {
	if strings.TrimSpace(condition) == "" {
		return true
	}
	return e.evaluateExpr(condition, ctx)
}

func (e *DefaultConditionEvaluator) evaluateExpr(expr string, ctx *LookupContext) bool {
	if left, right, ok := strings.Cut(expr, "||"); ok {
		return e.evaluateExpr(left, ctx) || e.evaluateExpr(right, ctx)
	}
	if left, right, ok := strings.Cut(expr, "&&"); ok {
		return e.evaluateExpr(left, ctx) && e.evaluateExpr(right, ctx)
	}

	expr = strings.TrimSpace(expr)
	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		return !e.evaluateExpr(rest, ctx)
	}
	return ctx.Conditions[expr]
}
