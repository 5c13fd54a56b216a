package llmadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/cerebrumlux/cognition/internal/config"
	"github.com/cerebrumlux/cognition/internal/model"
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// HTTPEmbedAdapter calls an OpenAI-style embeddings endpoint, adapted
// from intelligencedev-manifold's internal/embedding.EmbedText: same
// request/response shape, narrowed to a single input and reduced/padded
// + L2-normalized to model.EmbeddingDim on return (spec §6).
type HTTPEmbedAdapter struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewHTTPEmbedAdapter constructs an embedding-only adapter.
func NewHTTPEmbedAdapter(cfg config.LLMConfig, client *http.Client) *HTTPEmbedAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEmbedAdapter{cfg: cfg, client: client}
}

// Infer is unsupported; pair this adapter with an AnthropicAdapter (or
// similar) for inference.
func (a *HTTPEmbedAdapter) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	return "", errUnsupportedInfer
}

// Embed calls the configured embedding endpoint for a single input and
// returns an L2-normalized, length-model.EmbeddingDim vector.
func (a *HTTPEmbedAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Model: a.cfg.EmbeddingModel, Input: []string{text}})
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(a.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("embedding endpoint returned %s: %s", resp.Status, string(body))
	}

	var er embedResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(er.Data) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no data")
	}
	return reduceAndNormalize(er.Data[0].Embedding), nil
}

// reduceAndNormalize truncates or zero-pads raw to model.EmbeddingDim and
// L2-normalizes it (spec §6: "[f32;<=128 reduced]... L2-normalized on
// return").
func reduceAndNormalize(raw []float32) []float32 {
	out := make([]float32, model.EmbeddingDim)
	n := len(raw)
	if n > model.EmbeddingDim {
		n = model.EmbeddingDim
	}
	copy(out, raw[:n])

	var sumSq float64
	for _, v := range out {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, v := range out {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

var errUnsupportedInfer = fmt.Errorf("llmadapter: infer not supported by this adapter")
