package llmadapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/cerebrumlux/cognition/internal/config"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiAdapter is the third Infer implementation alongside Anthropic
// and OpenAI (spec §6's "provider" is pluggable —
// config.LLMConfig.Provider selects which adapter cmd/cerebrumluxd's
// buildLLMAdapter wires up). Construction mirrors intelligencedev-manifold's
// internal/llm/google.Client: genai.NewClient over an API key and
// optional base URL, trimmed to a single non-streaming
// Models.GenerateContent call with no tool declarations.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter constructs an adapter from LLM config.
func NewGeminiAdapter(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*GeminiAdapter, error) {
	opts := genai.HTTPOptions{}
	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts.BaseURL = strings.TrimSuffix(base, "/") + "/"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      strings.TrimSpace(cfg.APIKey),
		HTTPClient:  httpClient,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

// Infer sends a single user-turn generation request and concatenates
// the first candidate's text parts.
func (a *GeminiAdapter) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	genCfg := &genai.GenerateContentConfig{}
	if params.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(params.MaxTokens)
	}
	if params.Temperature > 0 {
		t := params.Temperature
		genCfg.Temperature = &t
	}
	if params.TopP > 0 {
		p := params.TopP
		genCfg.TopP = &p
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// Embed is unsupported on this adapter; pair with HTTPEmbedAdapter.
func (a *GeminiAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errUnsupportedEmbed
}
