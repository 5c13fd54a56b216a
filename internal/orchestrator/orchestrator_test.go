package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/autoencoder"
	"github.com/cerebrumlux/cognition/internal/config"
	"github.com/cerebrumlux/cognition/internal/consensus"
	"github.com/cerebrumlux/cognition/internal/knowledge"
	"github.com/cerebrumlux/cognition/internal/llmadapter"
	"github.com/cerebrumlux/cognition/internal/model"
	"github.com/cerebrumlux/cognition/internal/prediction"
	"github.com/cerebrumlux/cognition/internal/vectorstore"
)

type fakeAdapter struct{ text string }

func (f fakeAdapter) Infer(ctx context.Context, prompt string, params llmadapter.InferParams) (string, error) {
	return f.text, nil
}

func (f fakeAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.MaxConcurrent = 2

	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "vectors.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ae := autoencoder.New(1)
	pred := prediction.New(zerolog.Nop())
	ledger := consensus.New()
	keys := knowledge.KeyRing{}

	o := New(cfg, zerolog.Nop(), ae, pred, store, ledger, keys, fakeAdapter{text: "a grounded reply [1]."})
	t.Cleanup(func() { o.Close() })
	return o
}

func TestPushSignalThenTickDoesNotPanic(t *testing.T) {
	o := newTestOrchestrator(t)
	o.PushSignal(model.AtomicSignal{
		TimestampUS: 1000,
		Sensor:      model.SensorKeyboard,
		Keyboard:    &model.KeyboardPayload{KeyClass: model.KeyClassAlphanumeric},
	})
	o.buffer.Rebuild()
	require.NotPanics(t, o.Tick)
}

func TestSubmitUserTextThenFeedbackAppliesQUpdate(t *testing.T) {
	o := newTestOrchestrator(t)
	o.buffer.Rebuild()

	var emb [model.EmbeddingDim]float32
	emb[0] = 1

	requestID, resp, err := o.SubmitUserText(context.Background(), "hello", emb)
	require.NoError(t, err)
	require.NotEmpty(t, requestID)
	require.NotEmpty(t, resp.Text)

	ok := o.SubmitFeedback(requestID, true)
	require.True(t, ok)

	// A second feedback call for the same request-id has nothing left to
	// apply (spec §6: feedback is consumed once).
	require.False(t, o.SubmitFeedback(requestID, true))
}

func TestIngestEnvelopeRejectsBadSignature(t *testing.T) {
	o := newTestOrchestrator(t)

	var emb [model.EmbeddingDim]float32
	emb[0] = 1
	env := knowledge.Envelope{
		Capsule: model.Capsule{
			ID:                 "cap-1",
			Confidence:         0.5,
			TimestampUTC:       time.Now(),
			Embedding:          emb,
			EncryptedContent:   []byte("ciphertext"),
			EncryptionIVBase64: "AAAAAAAAAAAAAAAA",
		},
		Signature: []byte("not-a-real-signature"),
		SenderID:  "unknown-sender",
	}

	report := o.IngestEnvelope(env)
	require.NotEqual(t, model.IngestSuccess, report.Result)
}

func TestVerifyConsensusOnEmptyLedger(t *testing.T) {
	o := newTestOrchestrator(t)
	require.True(t, o.VerifyConsensus(""))
	require.Equal(t, "", o.ConsensusRoot())
}
