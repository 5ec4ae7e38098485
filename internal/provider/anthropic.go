package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic generates text with the Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewAnthropic creates an Anthropic provider. An empty baseURL uses the
// public API.
func NewAnthropic(apiKey, baseURL string, httpc *http.Client) *Anthropic {
	return &Anthropic{apiKey: apiKey, baseURL: baseURL, httpc: httpc}
}

// Name implements Provider.
func (p *Anthropic) Name() string { return "anthropic" }

// Generate implements Provider.
func (p *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", &MissingCredentialError{Env: "ANTHROPIC_API_KEY"}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	if p.httpc != nil {
		opts = append(opts, option.WithHTTPClient(p.httpc))
	}
	client := anthropic.NewClient(opts...)

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Options.Model),
		MaxTokens:   int64(req.Options.MaxTokens),
		Temperature: anthropic.Float(req.Options.Temperature),
		System:      []anthropic.TextBlockParam{{Text: SystemPrompt(req.Options)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(req.ExistingText))),
		},
	})
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return completion(p.Name(), b.String())
}
