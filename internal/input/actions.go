package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/quill/internal/doc"
)

// Action names understood by the dispatcher. Formatting actions carry
// their target in the last name segment, such as
// "format.toggleMark.strong" or "format.toggleListWrap.bullet_list".
const (
	ActionToggleStrong = "format.toggleMark.strong"
	ActionToggleEm     = "format.toggleMark.em"
	ActionToggleCode   = "format.toggleMark.code"
	ActionParagraph    = "format.setBlockType.paragraph"
	ActionHeading      = "format.setBlockType.heading"
	ActionBlockquote   = "format.toggleBlockWrap.blockquote"
	ActionBulletList   = "format.toggleListWrap.bullet_list"
	ActionOrderedList  = "format.toggleListWrap.ordered_list"

	ActionUndo = "history.undo"
	ActionRedo = "history.redo"

	ActionContinue = "ai.continue"
	ActionReset    = "ai.reset"
)

// Action name prefixes for the formatting commands.
const (
	PrefixToggleMark      = "format.toggleMark."
	PrefixSetBlockType    = "format.setBlockType."
	PrefixToggleBlockWrap = "format.toggleBlockWrap."
	PrefixToggleListWrap  = "format.toggleListWrap."
)

// ArgLevel is the heading level argument of ActionHeading.
const ArgLevel = "level"

// ErrUnknownAction is returned by ParseAction for names it cannot map.
var ErrUnknownAction = errors.New("unknown action")

// ToggleMarkAction returns the toggle action for m.
func ToggleMarkAction(m doc.MarkKind) Action {
	return NewAction(PrefixToggleMark+m.String(), SourceToolbar)
}

// HeadingAction returns the action that turns blocks into headings of
// the given level.
func HeadingAction(level int) Action {
	return NewAction(ActionHeading, SourceToolbar).WithArg(ArgLevel, level)
}

// ToolbarItem is one toolbar button.
type ToolbarItem struct {
	Label  string
	Action Action
}

// Toolbar returns the toolbar buttons in display order.
func Toolbar() []ToolbarItem {
	return []ToolbarItem{
		{"Bold", ToggleMarkAction(doc.MarkStrong)},
		{"Italic", ToggleMarkAction(doc.MarkEm)},
		{"Code", ToggleMarkAction(doc.MarkCode)},
		{"Paragraph", NewAction(ActionParagraph, SourceToolbar)},
		{"H1", HeadingAction(1)},
		{"H2", HeadingAction(2)},
		{"H3", HeadingAction(3)},
		{"Quote", NewAction(ActionBlockquote, SourceToolbar)},
		{"Bullet list", NewAction(ActionBulletList, SourceToolbar)},
		{"Ordered list", NewAction(ActionOrderedList, SourceToolbar)},
		{"Undo", NewAction(ActionUndo, SourceToolbar)},
		{"Redo", NewAction(ActionRedo, SourceToolbar)},
		{"Continue writing", NewAction(ActionContinue, SourceToolbar)},
	}
}

// shortNames maps command-line shorthands to action names.
var shortNames = map[string]string{
	"bold":       ActionToggleStrong,
	"strong":     ActionToggleStrong,
	"italic":     ActionToggleEm,
	"em":         ActionToggleEm,
	"code":       ActionToggleCode,
	"paragraph":  ActionParagraph,
	"p":          ActionParagraph,
	"quote":      ActionBlockquote,
	"blockquote": ActionBlockquote,
	"bullet":     ActionBulletList,
	"ordered":    ActionOrderedList,
	"undo":       ActionUndo,
	"redo":       ActionRedo,
	"continue":   ActionContinue,
	"reset":      ActionReset,
}

// ParseAction parses a command-line action. It accepts full action
// names, the shorthands bold, italic, code, paragraph, quote, bullet,
// ordered, undo, redo, continue and reset, and h1 to h6. Arguments
// follow a colon as key=value pairs separated by commas, for example
// "format.setBlockType.heading:level=2".
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	name, argText, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}

	a := NewAction(name, SourceCLI)
	lower := strings.ToLower(name)
	if full, ok := shortNames[lower]; ok {
		a.Name = full
	} else if level, ok := strings.CutPrefix(lower, "h"); ok && len(level) == 1 {
		n, err := strconv.Atoi(level)
		if err != nil || n < 1 || n > doc.MaxHeadingLevel {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
		}
		a = NewAction(ActionHeading, SourceCLI).WithArg(ArgLevel, n)
	} else if !strings.Contains(name, ".") {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}

	if argText == "" {
		return a, nil
	}
	for _, pair := range strings.Split(argText, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return Action{}, fmt.Errorf("%w: bad argument %q in %q", ErrUnknownAction, pair, s)
		}
		a = a.WithArg(k, strings.TrimSpace(v))
	}
	return a, nil
}
