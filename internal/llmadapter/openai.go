package llmadapter

import (
	"context"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/cerebrumlux/cognition/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIAdapter is the alternate Infer implementation, for deployments
// pointed at an OpenAI-compatible endpoint (spec §6's "provider" is
// pluggable — config.LLMConfig.Provider selects which adapter
// cmd/cerebrumluxd's buildLLMAdapter wires up). Construction mirrors
// intelligencedev-manifold's internal/llm/openai.Client:
// option.WithAPIKey/option.WithBaseURL over sdk.NewClient, trimmed to a
// single non-streaming completion call.
type OpenAIAdapter struct {
	sdk   sdk.Client
	model string
}

// NewOpenAIAdapter constructs an adapter from LLM config.
func NewOpenAIAdapter(cfg config.LLMConfig, httpClient *http.Client) *OpenAIAdapter {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAdapter{sdk: sdk.NewClient(opts...), model: model}
}

// Infer sends a single user-turn completion request and returns the
// first choice's message content.
func (a *OpenAIAdapter) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	req := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(a.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = sdk.Int(int64(params.MaxTokens))
	}
	if params.Temperature > 0 {
		req.Temperature = sdk.Float(float64(params.Temperature))
	}
	if params.TopP > 0 {
		req.TopP = sdk.Float(float64(params.TopP))
	}

	comp, err := a.sdk.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(comp.Choices) == 0 {
		return "", nil
	}
	return comp.Choices[0].Message.Content, nil
}

// Embed is unsupported on this adapter; pair with HTTPEmbedAdapter.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errUnsupportedEmbed
}
