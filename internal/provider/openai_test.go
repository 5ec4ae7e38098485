package provider_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/quill/internal/provider"
)

var testOptions = provider.Options{
	Model:       "gpt-4o-mini",
	Temperature: 0.8,
	MaxTokens:   128,
}

func chatServer(t *testing.T, status int, content string, check func(r *http.Request, body []byte)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if check != nil {
			check(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":`+
			`"`+content+`"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  It kept going.  ", func(r *http.Request, body []byte) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Request-Id"); got != "req-1" {
			t.Errorf("X-Request-Id = %q", got)
		}
		if got := gjson.GetBytes(body, "model").String(); got != "gpt-4o-mini" {
			t.Errorf("model = %q", got)
		}
		if got := gjson.GetBytes(body, "max_tokens").Int(); got != 128 {
			t.Errorf("max_tokens = %d", got)
		}
		if got := gjson.GetBytes(body, "temperature").Float(); got != 0.8 {
			t.Errorf("temperature = %v", got)
		}
		if got := gjson.GetBytes(body, "messages.1.content").String(); got != provider.UserPrompt("Hello world") {
			t.Errorf("user message = %q", got)
		}
		if got := gjson.GetBytes(body, "messages.0.role").String(); got != "system" {
			t.Errorf("first message role = %q", got)
		}
	})

	p := provider.NewOpenAI("sk-test", srv.URL+"/v1/", nil)
	got, err := p.Generate(context.Background(), provider.Request{ID: "req-1", ExistingText: "Hello world", Options: testOptions})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "It kept going." {
		t.Errorf("Generate() = %q", got)
	}
}

func TestOpenAIEmptyContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "   ", nil)
	p := provider.NewOpenAI("sk-test", srv.URL+"/v1/", nil)

	_, err := p.Generate(context.Background(), provider.Request{ExistingText: "x", Options: testOptions})
	if !errors.Is(err, provider.ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestOpenAIHTTPError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	p := provider.NewOpenAI("sk-test", srv.URL+"/v1/", nil)

	_, err := p.Generate(context.Background(), provider.Request{ExistingText: "x", Options: testOptions})
	var pe *provider.Error
	if !errors.As(err, &pe) || pe.Provider != "openai" {
		t.Fatalf("error = %v, want *provider.Error from openai", err)
	}
}

func TestMissingCredentials(t *testing.T) {
	tests := []struct {
		p    provider.Provider
		want string
	}{
		{provider.NewOpenAI("", "", nil), "Missing OPENAI_API_KEY"},
		{provider.NewAnthropic("", "", nil), "Missing ANTHROPIC_API_KEY"},
		{provider.NewGemini("  ", ""), "Missing GEMINI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			_, err := tt.p.Generate(context.Background(), provider.Request{ExistingText: "x", Options: testOptions})
			if !errors.Is(err, provider.ErrMissingCredential) {
				t.Fatalf("error = %v, want ErrMissingCredential", err)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
