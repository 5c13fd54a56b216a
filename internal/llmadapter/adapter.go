// Package llmadapter implements the outbound adapter contract of spec.md
// §6: a synchronous infer/embed call made on a bounded worker, with a
// timeout and a conservative fallback on failure. The concrete
// Anthropic client is grounded on
// intelligencedev-manifold's internal/llm/anthropic.Client construction
// pattern (API key/base URL options, model default), trimmed to this
// spec's single-turn contract — no tool calls, no thinking blocks, no
// prompt caching.
package llmadapter

import (
	"context"
	"errors"
)

var errUnsupportedEmbed = errors.New("llmadapter: embed not supported by this adapter")

// InferParams mirrors spec §6's infer call shape.
type InferParams struct {
	MaxTokens     int
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
}

// Adapter is the outbound contract C12 (and the CLI's ad-hoc commands)
// call through. Callers pass their own context; the CLI bounds each call
// with the HTTP client's timeout (config.LLMConfig.TimeoutSeconds, 20s by
// default), which HTTPEmbedAdapter also applies to its request context.
// No adapter in this package retries a failed call itself.
type Adapter interface {
	// Infer runs one prompt-completion call and returns the generated text.
	Infer(ctx context.Context, prompt string, params InferParams) (string, error)
	// Embed returns an embedding for text, L2-normalized and reduced (or
	// zero-padded) to model.EmbeddingDim components (spec §6: "Embedding
	// values are L2-normalized on return").
	Embed(ctx context.Context, text string) ([]float32, error)
}
