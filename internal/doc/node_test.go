package doc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNodeSizeAndText(t *testing.T) {
	d := Doc(
		Heading(1, Text("Title")),
		BulletList(
			ListItem(Paragraph(Text("a"))),
			ListItem(Paragraph(Text("bc")), Blockquote(Paragraph(Text("d")))),
		),
	)

	if got, want := d.TextContent(), "Title\na\nbc\nd"; got != want {
		t.Errorf("TextContent() = %q, want %q", got, want)
	}
	if got, want := d.Size(), len("Title\na\nbc\nd"); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
}

func TestNodeString(t *testing.T) {
	d := Doc(
		Heading(2, Text("T")),
		Paragraph(Text("a"), Text("b", MarkStrong, MarkEm)),
		OrderedList(ListItem(Paragraph())),
	)
	want := `doc(heading[level=2]("T"), paragraph("a", "b"{strong,em}), ordered_list[order=1](list_item(paragraph())))`
	if diff := cmp.Diff(want, d.String()); diff != "" {
		t.Errorf("String() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSpans(t *testing.T) {
	p := Paragraph(Text("a"), Text(""), Text("b"), Text("c", MarkCode))
	want := []Span{{Text: "ab"}, {Text: "c", Marks: NewMarkSet(MarkCode)}}
	if diff := cmp.Diff(want, p.Spans()); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeEqual(t *testing.T) {
	a := Doc(Paragraph(Text("ab")))
	b := Doc(Paragraph(Text("a"), Text("b")))
	c := Doc(Heading(1, Text("ab")))

	if !a.Equal(b) {
		t.Error("expected equal documents")
	}
	if a.Equal(c) {
		t.Error("expected documents with different block kinds to differ")
	}
}

func TestHasMarkupDefaults(t *testing.T) {
	s := DefaultSchema()
	h := Heading(1, Text("x"))

	if !h.HasMarkup(s, KindHeading, Attrs{}) {
		t.Error("heading level 1 should match default attributes")
	}
	if h.HasMarkup(s, KindHeading, Attrs{Level: 2}) {
		t.Error("heading level 1 should not match level 2")
	}
	if !Paragraph().HasMarkup(s, KindParagraph, Attrs{Level: 3}) {
		t.Error("paragraph ignores attributes it does not use")
	}
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		node   *Node
		ok     bool
	}{
		{"basic", DefaultSchema(), Doc(Paragraph(Text("x"))), true},
		{"empty doc", DefaultSchema(), Doc(), false},
		{"item must start with paragraph", DefaultSchema(), Doc(BulletList(ListItem(Heading(1)))), false},
		{"list without list support", NewSchema(), Doc(BulletList(ListItem(Paragraph()))), false},
		{"bad heading level", DefaultSchema(), Doc(Heading(7)), false},
		{"unknown mark", NewSchema(WithoutMark(MarkCode)), Doc(Paragraph(Text("x", MarkCode))), false},
		{"paragraph in list", DefaultSchema(), Doc(BulletList(Paragraph())), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check(tt.node)
			if (err == nil) != tt.ok {
				t.Errorf("Check() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
