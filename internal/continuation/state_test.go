package continuation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReduce(t *testing.T) {
	generating := Snapshot{
		State:   StateGenerating,
		Context: Context{RequestID: "r1", ExistingText: "Hello"},
		Token:   1,
	}
	success := Snapshot{
		State:   StateSuccess,
		Context: Context{RequestID: "r1", ExistingText: "Hello", GeneratedText: "more"},
		Token:   1,
	}
	failure := Snapshot{
		State:   StateFailure,
		Context: Context{RequestID: "r1", ExistingText: "Hello", ErrorMessage: "network error"},
		Token:   1,
	}

	tests := []struct {
		name string
		from Snapshot
		ev   Event
		want Snapshot
	}{
		{
			name: "generate from idle",
			from: Snapshot{},
			ev:   Generate{ExistingText: "Hello", RequestID: "r1"},
			want: generating,
		},
		{
			name: "generate while generating",
			from: generating,
			ev:   Generate{ExistingText: "other", RequestID: "r2"},
			want: generating,
		},
		{
			name: "generate from success",
			from: success,
			ev:   Generate{ExistingText: "again", RequestID: "r2"},
			want: Snapshot{State: StateGenerating, Context: Context{RequestID: "r2", ExistingText: "again"}, Token: 2},
		},
		{
			name: "generate from failure clears error",
			from: failure,
			ev:   Generate{ExistingText: "Hello", RequestID: "r2"},
			want: Snapshot{State: StateGenerating, Context: Context{RequestID: "r2", ExistingText: "Hello"}, Token: 2},
		},
		{
			name: "settled with text",
			from: generating,
			ev:   settled{token: 1, text: "more"},
			want: success,
		},
		{
			name: "settled with error",
			from: generating,
			ev:   settled{token: 1, err: errors.New("network error")},
			want: failure,
		},
		{
			name: "settled with empty error message",
			from: generating,
			ev:   settled{token: 1, err: errors.New("")},
			want: Snapshot{
				State:   StateFailure,
				Context: Context{RequestID: "r1", ExistingText: "Hello", ErrorMessage: FallbackErrorMessage},
				Token:   1,
			},
		},
		{
			name: "settled with blank text",
			from: generating,
			ev:   settled{token: 1, text: " \n\t"},
			want: Snapshot{
				State:   StateFailure,
				Context: Context{RequestID: "r1", ExistingText: "Hello", ErrorMessage: "no content returned"},
				Token:   1,
			},
		},
		{
			name: "stale token",
			from: generating,
			ev:   settled{token: 0, text: "late"},
			want: generating,
		},
		{
			name: "settled while idle",
			from: Snapshot{Token: 1},
			ev:   settled{token: 1, text: "late"},
			want: Snapshot{Token: 1},
		},
		{
			name: "reset from success",
			from: success,
			ev:   Reset{},
			want: Snapshot{State: StateIdle, Token: 1},
		},
		{
			name: "reset from failure",
			from: failure,
			ev:   Reset{},
			want: Snapshot{State: StateIdle, Token: 1},
		},
		{
			name: "reset while generating",
			from: generating,
			ev:   Reset{},
			want: generating,
		},
		{
			name: "reset while idle",
			from: Snapshot{},
			ev:   Reset{},
			want: Snapshot{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.from, tt.ev)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StateGenerating, "generating", false},
		{StateSuccess, "success", true},
		{StateFailure, "failure", true},
		{State(42), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.want, got, tt.terminal)
		}
	}
}
