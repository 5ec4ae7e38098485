package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/doc"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    doc.Selection
		wantErr bool
	}{
		{"", doc.Caret(11), false},
		{"3", doc.Caret(3), false},
		{"0,5", doc.NewSelection(0, 5), false},
		{" 5 , 0 ", doc.NewSelection(5, 0), false},
		{"a,5", doc.Selection{}, true},
		{"1,", doc.Selection{}, true},
	}
	for _, tt := range tests {
		got, err := parseSelection(tt.in, 11)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSelection(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSelection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Title\n\nBody\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	root, err := readDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Markdown(root); got != "# Title\n\nBody\n" {
		t.Errorf("round trip = %q", got)
	}

	if _, err := readDocument(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestStepFlagKeepsOrder(t *testing.T) {
	var steps []step
	action := stepFlag{steps: &steps}
	press := stepFlag{steps: &steps, key: true}

	for _, set := range []func() error{
		func() error { return action.Set("bold") },
		func() error { return press.Set("Mod-i") },
		func() error { return action.Set("h2") },
	} {
		if err := set(); err != nil {
			t.Fatal(err)
		}
	}
	if err := press.Set("Mod-NoSuchKey"); err == nil {
		t.Error("expected an error for an unknown key")
	}

	if len(steps) != 3 || steps[1].spec != "Mod-i" || !steps[1].key || steps[2].key {
		t.Errorf("steps = %+v", steps)
	}
	if got := action.String(); got != "bold,h2" {
		t.Errorf("action.String() = %q", got)
	}
}

func TestRunSteps(t *testing.T) {
	s, err := app.NewSession(app.Options{
		Document:  doc.Doc(doc.Paragraph(doc.Text("Hello world"))),
		Selection: doc.NewSelection(0, 5),
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, st := range []step{{spec: "bold"}, {key: true, spec: "Mod-i"}, {spec: "h2"}} {
		if err := runStep(ctx, s, app.Nop(), st); err != nil {
			t.Fatalf("%+v: %v", st, err)
		}
	}
	if got, want := doc.Markdown(s.Model().Doc()), "## **_Hello_** world\n"; got != want {
		t.Errorf("markdown = %q, want %q", got, want)
	}

	if err := runStep(ctx, s, app.Nop(), step{key: true, spec: "Mod-k"}); err == nil {
		t.Error("expected an error for an unbound key")
	}
	if err := runStep(ctx, s, app.Nop(), step{spec: "nonsense"}); err == nil {
		t.Error("expected an error for an unknown action")
	}
}
