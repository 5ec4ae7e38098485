package provider_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/quill/internal/provider"
)

func TestCompatGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "local words", func(r *http.Request, body []byte) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none without a key", got)
		}
		if got := r.Header.Get("X-Request-Id"); got != "abc" {
			t.Errorf("X-Request-Id = %q", got)
		}
		if got := gjson.GetBytes(body, "messages.#").Int(); got != 2 {
			t.Errorf("messages = %d", got)
		}
		if got := gjson.GetBytes(body, "max_tokens").Int(); got != 128 {
			t.Errorf("max_tokens = %d", got)
		}
	})

	p := provider.NewCompat("", srv.URL+"/v1/", nil)
	got, err := p.Generate(context.Background(), provider.Request{ID: "abc", ExistingText: "x", Options: testOptions})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "local words" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestCompatErrors(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	p := provider.NewCompat("key", srv.URL, nil)

	_, err := p.Generate(context.Background(), provider.Request{ExistingText: "x", Options: testOptions})
	if err == nil || !strings.Contains(err.Error(), "status 429: rate limited") {
		t.Errorf("error = %v", err)
	}

	empty := chatServer(t, http.StatusOK, "", nil)
	_, err = provider.NewCompat("", empty.URL, nil).Generate(context.Background(), provider.Request{Options: testOptions})
	if !errors.Is(err, provider.ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}

	_, err = provider.NewCompat("", "", nil).Generate(context.Background(), provider.Request{})
	if err == nil {
		t.Error("expected an error without a base URL")
	}
}
