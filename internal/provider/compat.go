package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Compat talks to any server exposing an OpenAI compatible
// /chat/completions endpoint, such as a local model server or a proxy.
// The API key is optional.
type Compat struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewCompat creates a provider for the server at baseURL, for example
// http://localhost:11434/v1.
func NewCompat(apiKey, baseURL string, httpc *http.Client) *Compat {
	if httpc == nil {
		httpc = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 120 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	return &Compat{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// Name implements Provider.
func (p *Compat) Name() string { return "compat" }

// Generate implements Provider.
func (p *Compat) Generate(ctx context.Context, req Request) (string, error) {
	if p.baseURL == "" {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("no base URL configured")}
	}
	payload, err := compatBody(req)
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		hreq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if req.ID != "" {
		hreq.Header.Set("X-Request-Id", req.ID)
	}

	resp, err := p.httpc.Do(hreq)
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = truncate(strings.TrimSpace(string(raw)), 200)
		}
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg)}
	}
	return completion(p.Name(), gjson.GetBytes(raw, "choices.0.message.content").String())
}

func compatBody(req Request) ([]byte, error) {
	body := []byte(`{}`)
	fields := []struct {
		path  string
		value any
	}{
		{"model", req.Options.Model},
		{"temperature", req.Options.Temperature},
		{"max_tokens", req.Options.MaxTokens},
		{"messages", []map[string]string{
			{"role": "system", "content": SystemPrompt(req.Options)},
			{"role": "user", "content": UserPrompt(req.ExistingText)},
		}},
	}
	for _, f := range fields {
		var err error
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
