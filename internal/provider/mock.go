package provider

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultMockDelay is how long the mock provider takes to answer.
const DefaultMockDelay = 3 * time.Second

var mockSamples = []string{
	"In a world where ideas shape reality, the smallest spark can ignite change.",
	"As the rain tapered off, the city exhaled, neon reflections stitching streets together.",
	"What happens next is not fate but choice, written one deliberate line at a time.",
	"She paused, letting silence do the heavy lifting before the truth arrived.",
	"Meanwhile, distant thunder rehearsed a promise no one could ignore any longer.",
	"Momentum is built quietly, accumulating in the margins until it becomes obvious.",
	"There was a rhythm to the work: draft, refine, repeat, like tides learning the shore.",
}

// Mock answers after a fixed delay with a random sample sentence. It
// ignores the request text.
type Mock struct {
	delay   time.Duration
	samples []string
	pick    func(n int) int
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithMockSamples replaces the sample sentences.
func WithMockSamples(samples ...string) MockOption {
	return func(m *Mock) {
		if len(samples) > 0 {
			m.samples = samples
		}
	}
}

// WithMockPicker replaces the random choice of sample.
func WithMockPicker(pick func(n int) int) MockOption {
	return func(m *Mock) {
		m.pick = pick
	}
}

// NewMock creates a mock provider. A negative delay means no delay.
func NewMock(delay time.Duration, opts ...MockOption) *Mock {
	m := &Mock{
		delay:   max(delay, 0),
		samples: mockSamples,
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Provider.
func (m *Mock) Name() string { return "mock" }

// Generate implements Provider.
func (m *Mock) Generate(ctx context.Context, _ Request) (string, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return completion(m.Name(), m.samples[m.pick(len(m.samples))])
}
