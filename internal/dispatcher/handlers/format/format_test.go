package format_test

import (
	"testing"

	"github.com/dshills/quill/internal/dispatcher/execctx"
	"github.com/dshills/quill/internal/dispatcher/handler"
	formathandler "github.com/dshills/quill/internal/dispatcher/handlers/format"
	"github.com/dshills/quill/internal/doc"
	"github.com/dshills/quill/internal/format"
	"github.com/dshills/quill/internal/input"
)

func newContext(t *testing.T, root *doc.Node, sel doc.Selection) (*execctx.ExecutionContext, *doc.Model) {
	t.Helper()
	m, err := doc.NewModel(doc.DefaultSchema(), root, doc.WithSelection(sel))
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	ctx := execctx.New().WithDocument(m).WithFormatter(format.New(m))
	return ctx, m
}

// "Hello world" 0-11, "Second" 12-18
func twoParagraphs() *doc.Node {
	return doc.Doc(
		doc.Paragraph(doc.Text("Hello world")),
		doc.Paragraph(doc.Text("Second")),
	)
}

func TestHandleAction(t *testing.T) {
	tests := []struct {
		name   string
		action input.Action
		sel    doc.Selection
		status handler.ResultStatus
		want   string
	}{
		{
			name:   "toggle strong on range",
			action: input.NewAction(input.ActionToggleStrong, input.SourceToolbar),
			sel:    doc.NewSelection(0, 5),
			status: handler.StatusOK,
			want:   "**Hello** world\n\nSecond\n",
		},
		{
			name:   "heading with level",
			action: input.HeadingAction(2),
			sel:    doc.Caret(3),
			status: handler.StatusOK,
			want:   "## Hello world\n\nSecond\n",
		},
		{
			name:   "heading defaults to level one",
			action: input.NewAction(input.ActionHeading, input.SourceCLI),
			sel:    doc.Caret(14),
			status: handler.StatusOK,
			want:   "Hello world\n\n# Second\n",
		},
		{
			name:   "paragraph is already active",
			action: input.NewAction(input.ActionParagraph, input.SourceToolbar),
			sel:    doc.Caret(0),
			status: handler.StatusNoOp,
			want:   "Hello world\n\nSecond\n",
		},
		{
			name:   "wrap in blockquote",
			action: input.NewAction(input.ActionBlockquote, input.SourceToolbar),
			sel:    doc.NewSelection(2, 14),
			status: handler.StatusOK,
			want:   "> Hello world\n>\n> Second\n",
		},
		{
			name:   "bullet list",
			action: input.NewAction(input.ActionBulletList, input.SourceToolbar),
			sel:    doc.Caret(0),
			status: handler.StatusOK,
			want:   "- Hello world\n\nSecond\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, m := newContext(t, twoParagraphs(), tt.sel)
			before := m.CurrentVersion()

			r := formathandler.NewHandler().HandleAction(tt.action, ctx)

			if r.Status != tt.status {
				t.Fatalf("status = %v (%v), want %v", r.Status, r.Error, tt.status)
			}
			if got := doc.Markdown(m.Doc()); got != tt.want {
				t.Errorf("markdown = %q, want %q", got, tt.want)
			}
			if tt.status == handler.StatusOK {
				if r.Version != m.CurrentVersion() || r.Version == before {
					t.Errorf("version = %d, model at %d (was %d)", r.Version, m.CurrentVersion(), before)
				}
				if !r.Focus {
					t.Error("applied result should request focus")
				}
			}
		})
	}
}

func TestHandleActionErrors(t *testing.T) {
	tests := []struct {
		name   string
		action input.Action
	}{
		{"unknown mark", input.Action{Name: "format.toggleMark.underline"}},
		{"wrap is not a textblock", input.Action{Name: "format.setBlockType.blockquote"}},
		{"heading level too deep", input.HeadingAction(doc.MaxHeadingLevel + 1)},
		{"list wrap with non-list", input.Action{Name: "format.toggleListWrap.paragraph"}},
		{"block wrap with list", input.Action{Name: "format.toggleBlockWrap.bullet_list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, m := newContext(t, twoParagraphs(), doc.Caret(0))
			before := m.CurrentVersion()
			r := formathandler.NewHandler().HandleAction(tt.action, ctx)
			if r.Status != handler.StatusError {
				t.Errorf("status = %v, want error", r.Status)
			}
			if m.CurrentVersion() != before {
				t.Error("document changed on error")
			}
		})
	}
}

func TestMissingFormatter(t *testing.T) {
	r := formathandler.NewHandler().HandleAction(input.Action{Name: input.ActionToggleEm}, execctx.New())
	if r.Status != handler.StatusError {
		t.Errorf("status = %v, want error", r.Status)
	}
}

func TestDryRun(t *testing.T) {
	ctx, m := newContext(t, twoParagraphs(), doc.NewSelection(0, 5))
	ctx.WithDryRun(true)
	before := m.CurrentVersion()

	r := formathandler.NewHandler().HandleAction(input.NewAction(input.ActionToggleEm, input.SourceCLI), ctx)
	if r.Status != handler.StatusOK {
		t.Fatalf("status = %v", r.Status)
	}
	if m.CurrentVersion() != before {
		t.Error("dry run changed the document")
	}
}

func TestState(t *testing.T) {
	root := doc.Doc(
		doc.Heading(2, doc.Text("Title", doc.MarkStrong)),
		doc.Paragraph(doc.Text("body")),
	)
	ctx, _ := newContext(t, root, doc.Caret(2))

	r := formathandler.NewHandler().HandleAction(input.Action{Name: formathandler.ActionState}, ctx)
	if r.Status != handler.StatusOK {
		t.Fatalf("status = %v", r.Status)
	}
	want := map[string]bool{
		formathandler.StateStrong:    true,
		formathandler.StateEm:        false,
		formathandler.StateParagraph: false,
		"h1":                         false,
		"h2":                         true,
	}
	for key, w := range want {
		if got, _ := r.GetData(key); got != w {
			t.Errorf("%s = %v, want %v", key, got, w)
		}
	}
}

func TestCanHandle(t *testing.T) {
	h := formathandler.NewHandler()
	for _, name := range []string{input.ActionToggleStrong, input.ActionHeading, input.ActionOrderedList, formathandler.ActionState} {
		if !h.CanHandle(name) {
			t.Errorf("CanHandle(%s) = false", name)
		}
	}
	for _, name := range []string{"format.toggleMark.", "format.bogus", "ai.continue"} {
		if h.CanHandle(name) {
			t.Errorf("CanHandle(%s) = true", name)
		}
	}
}
