// Package compose implements C12: the response composer that grounds a
// reply in the knowledge base's nearest capsules, falling back to a
// templated response when nothing is similar enough (spec.md §4.12).
package compose

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/llmadapter"
	"github.com/cerebrumlux/cognition/internal/model"
	"github.com/cerebrumlux/cognition/internal/util"
)

const (
	searchK              = 5
	keepTop              = 3
	clarificationCutoff  = 0.3
	rankCosineWeight     = 0.7
	rankConfidenceWeight = 0.3

	// defaultMaxPromptTokens is used when config.LLMConfig.MaxPromptTokens
	// is left at zero (e.g. a Composer built outside the usual config path).
	defaultMaxPromptTokens = 4000
)

// KB is the subset of the knowledge engine the composer needs.
type KB interface {
	SemanticSearch(embedding [model.EmbeddingDim]float32, k int) ([]model.Capsule, error)
}

// Composer builds ChatResponses from the knowledge base and an LLM
// adapter (spec §4.12).
type Composer struct {
	kb              KB
	adapter         llmadapter.Adapter
	log             zerolog.Logger
	maxPromptTokens int
}

// New constructs a Composer. maxPromptTokens bounds the assembled prompt
// (spec §6's LLM.max_prompt_tokens); a value <= 0 falls back to
// defaultMaxPromptTokens.
func New(kb KB, adapter llmadapter.Adapter, log zerolog.Logger, maxPromptTokens int) *Composer {
	if maxPromptTokens <= 0 {
		maxPromptTokens = defaultMaxPromptTokens
	}
	return &Composer{kb: kb, adapter: adapter, log: log, maxPromptTokens: maxPromptTokens}
}

type rankedCapsule struct {
	capsule model.Capsule
	cosine  float64
	rank    float64
}

// Generate runs the spec §4.12 algorithm: knn search, rank by
// 0.7*cosine+0.3*confidence, keep top-3, build a grounded scaffold or
// fall back to a clarification request, then call the LLM adapter.
func (c *Composer) Generate(ctx context.Context, in model.Intent, st model.AbstractState, g model.Goal, sequence model.DynamicSequence, queryEmbedding [model.EmbeddingDim]float32, queryText string) (model.ChatResponse, error) {
	capsules, err := c.kb.SemanticSearch(queryEmbedding, searchK)
	if err != nil {
		return model.ChatResponse{}, err
	}

	ranked := make([]rankedCapsule, 0, len(capsules))
	for _, cap := range capsules {
		cosine := cosineSimilarity(queryEmbedding, cap.Embedding)
		ranked = append(ranked, rankedCapsule{
			capsule: cap,
			cosine:  cosine,
			rank:    rankCosineWeight*cosine + rankConfidenceWeight*float64(cap.Confidence),
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].rank > ranked[j].rank })
	if len(ranked) > keepTop {
		ranked = ranked[:keepTop]
	}

	bestCosine := 0.0
	if len(ranked) > 0 {
		bestCosine = ranked[0].cosine
	}

	if bestCosine < clarificationCutoff {
		return model.ChatResponse{
			Text:               fallbackResponse(in, st),
			Reasoning:          "no capsule cleared the similarity threshold; used an intent/state fallback",
			NeedsClarification: true,
		}, nil
	}

	scaffold := buildScaffold(ranked)
	prompt := assemblePrompt(scaffold, queryText)

	// Drop the lowest-ranked capsule and re-assemble until the prompt
	// clears budget, so a long scaffold never gets silently rejected or
	// truncated mid-sentence by the adapter itself (spec §6: "adapter-side
	// budget accounting").
	for util.CountTokens(prompt) > c.maxPromptTokens && len(ranked) > 1 {
		ranked = ranked[:len(ranked)-1]
		scaffold = buildScaffold(ranked)
		prompt = assemblePrompt(scaffold, queryText)
		c.log.Warn().
			Int("prompt_tokens", util.CountTokens(prompt)).
			Int("max_prompt_tokens", c.maxPromptTokens).
			Int("capsules_kept", len(ranked)).
			Msg("prompt over token budget, dropped lowest-ranked capsule")
	}

	text, err := c.adapter.Infer(ctx, prompt, llmadapter.InferParams{MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return model.ChatResponse{
			Text:               "I found relevant information but could not reach the language model right now. Here is what I know: " + scaffold,
			Reasoning:          "LLM adapter call failed; returned the grounded scaffold directly",
			NeedsClarification: false,
		}, nil
	}

	return model.ChatResponse{
		Text:               text,
		Reasoning:          "grounded in " + fmt.Sprint(len(ranked)) + " capsule(s)",
		SuggestedQuestions: suggestedQuestions(ranked),
		NeedsClarification: false,
	}, nil
}

func cosineSimilarity(a, b [model.EmbeddingDim]float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// buildScaffold builds a grounded-answer scaffold with inline citation
// markers (spec §4.12 step 3: "title, summary, inline citation markers").
func buildScaffold(ranked []rankedCapsule) string {
	var b strings.Builder
	for i, r := range ranked {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, r.capsule.Topic, r.capsule.PlainTextSummary)
	}
	return b.String()
}

func suggestedQuestions(ranked []rankedCapsule) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		if r.capsule.Topic != "" {
			out = append(out, "Tell me more about "+r.capsule.Topic)
		}
	}
	return out
}

// assemblePrompt builds the LLM prompt contract from spec §4.12 step 4:
// system persona + language-policy + citation-preservation, context is
// the grounded scaffold, user is the original query text.
func assemblePrompt(scaffold, queryText string) string {
	system := "You are CerebrumLux, a personal assistant. Preserve citation markers like [1] verbatim. Respond in the user's language."
	return system + "\n\nContext:\n" + scaffold + "\nUser: " + queryText
}

func fallbackResponse(in model.Intent, st model.AbstractState) string {
	switch in {
	case model.IntentProgramming, model.IntentEditing:
		return "I don't have enough grounded information for that yet. Could you clarify what you're working on?"
	case model.IntentResearch:
		return "I couldn't find a confident match in my knowledge base. Can you narrow down the topic?"
	default:
		if st == model.StateDistracted {
			return "I'm not sure I follow — could you rephrase that?"
		}
		return "Could you provide a bit more detail so I can help?"
	}
}
