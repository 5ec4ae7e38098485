package provider

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI generates text with the chat completions API.
type OpenAI struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewOpenAI creates an OpenAI provider. An empty baseURL uses the public
// API.
func NewOpenAI(apiKey, baseURL string, httpc *http.Client) *OpenAI {
	return &OpenAI{apiKey: apiKey, baseURL: baseURL, httpc: httpc}
}

// Name implements Provider.
func (p *OpenAI) Name() string { return "openai" }

// Generate implements Provider.
func (p *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", &MissingCredentialError{Env: "OPENAI_API_KEY"}
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
	if req.ID != "" {
		opts = append(opts, option.WithHeader("X-Request-Id", req.ID))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Options.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(req.Options)),
			openai.UserMessage(UserPrompt(req.ExistingText)),
		},
		Temperature: openai.Float(req.Options.Temperature),
		MaxTokens:   openai.Int(int64(req.Options.MaxTokens)),
	})
	if err != nil {
		return "", wrapErr(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: p.Name(), Err: ErrEmptyCompletion}
	}
	return completion(p.Name(), resp.Choices[0].Message.Content)
}
