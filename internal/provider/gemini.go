package provider

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini generates text with the Gemini API.
type Gemini struct {
	apiKey   string
	endpoint string
}

// NewGemini creates a Gemini provider. An empty endpoint uses the public
// API.
func NewGemini(apiKey, endpoint string) *Gemini {
	return &Gemini{apiKey: strings.TrimSpace(apiKey), endpoint: endpoint}
}

// Name implements Provider.
func (p *Gemini) Name() string { return "gemini" }

// Generate implements Provider.
func (p *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", &MissingCredentialError{Env: "GEMINI_API_KEY"}
	}
	opts := []option.ClientOption{option.WithAPIKey(p.apiKey)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(req.Options.Model))
	m.SetTemperature(float32(req.Options.Temperature))
	m.SetMaxOutputTokens(int32(req.Options.MaxTokens))
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt(req.Options))},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(UserPrompt(req.ExistingText)))
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	return completion(p.Name(), firstText(resp))
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
