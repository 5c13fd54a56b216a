package llmadapter

import "context"

// Composite pairs an inference-capable adapter with an embedding-capable
// adapter behind the single Adapter interface, since a provider like
// Anthropic's Messages API has no first-party embeddings endpoint (spec
// §6 treats infer/embed as independent outbound collaborators).
type Composite struct {
	Inferrer Adapter
	Embedder Adapter
}

func (c Composite) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	return c.Inferrer.Infer(ctx, prompt, params)
}

func (c Composite) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.Embedder.Embed(ctx, text)
}
