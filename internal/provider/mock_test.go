package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/quill/internal/provider"
)

func TestMockGenerate(t *testing.T) {
	m := provider.NewMock(0,
		provider.WithMockSamples("first", " second "),
		provider.WithMockPicker(func(n int) int { return n - 1 }),
	)
	got, err := m.Generate(context.Background(), provider.Request{ExistingText: "ignored"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "second" {
		t.Errorf("Generate() = %q, want trimmed last sample", got)
	}
	if m.Name() != "mock" {
		t.Errorf("Name() = %q", m.Name())
	}
}

func TestMockDefaultSamples(t *testing.T) {
	m := provider.NewMock(-time.Second)
	for i := 0; i < 20; i++ {
		got, err := m.Generate(context.Background(), provider.Request{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if got == "" {
			t.Fatal("empty sample")
		}
	}
}

func TestMockRespectsContext(t *testing.T) {
	m := provider.NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, provider.Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Generate error = %v, want deadline exceeded", err)
	}
}

func TestMockEmptySample(t *testing.T) {
	m := provider.NewMock(0, provider.WithMockSamples("   "))
	_, err := m.Generate(context.Background(), provider.Request{})
	if !errors.Is(err, provider.ErrEmptyCompletion) {
		t.Errorf("Generate error = %v, want ErrEmptyCompletion", err)
	}
}
