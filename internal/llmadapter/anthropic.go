package llmadapter

import (
	"context"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cerebrumlux/cognition/internal/config"
)

const defaultAnthropicModel = "claude-3-7-sonnet-latest"

// AnthropicAdapter calls the Anthropic Messages API directly, the way
// intelligencedev-manifold's internal/llm/anthropic.Client constructs
// its SDK client (option.WithAPIKey / option.WithBaseURL, a model
// default), but exposes only the single-turn Infer/Embed contract this
// spec needs.
type AnthropicAdapter struct {
	sdk   anthropic.Client
	model string
}

// NewAnthropicAdapter constructs an adapter from LLM config.
func NewAnthropicAdapter(cfg config.LLMConfig, httpClient *http.Client) *AnthropicAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicAdapter{sdk: anthropic.NewClient(opts...), model: model}
}

// Infer sends a single user-turn prompt and returns the concatenated
// text content of the reply.
func (a *AnthropicAdapter) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	msgParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if params.TopP > 0 {
		msgParams.TopP = anthropic.Float(float64(params.TopP))
	}
	if params.TopK > 0 {
		msgParams.TopK = anthropic.Int(int64(params.TopK))
	}
	if params.Temperature > 0 {
		msgParams.Temperature = anthropic.Float(float64(params.Temperature))
	}

	resp, err := a.sdk.Messages.New(ctx, msgParams)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if t, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(t.Text)
		}
	}
	return text.String(), nil
}

// Embed is unsupported on the Anthropic adapter (no first-party
// embeddings API); callers should configure an HTTPEmbedAdapter for
// embeddings and an AnthropicAdapter for inference (spec §6 treats
// infer/embed as independently pluggable outbound collaborators).
func (a *AnthropicAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errUnsupportedEmbed
}
