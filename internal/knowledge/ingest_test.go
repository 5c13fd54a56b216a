package knowledge

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

type fakeStore struct {
	mu    sync.Mutex
	byID  map[string]model.Capsule
	topic map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[string]model.Capsule), topic: make(map[string][]string)}
}

func (f *fakeStore) Put(c model.Capsule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[c.ID] = c
	if c.Topic != "" {
		f.topic[c.Topic] = append(f.topic[c.Topic], c.ID)
	}
	return nil
}

func (f *fakeStore) Get(id string) (model.Capsule, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	return c, ok, nil
}

func (f *fakeStore) SearchKNN(query [model.EmbeddingDim]float32, k int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	if k < len(ids) {
		ids = ids[:k]
	}
	return ids
}

func (f *fakeStore) IterateTopic(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topic[topic]
}

type fakeLedger struct {
	mu       sync.Mutex
	appended [][]byte
}

func (l *fakeLedger) Append(content []byte) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appended = append(l.appended, content)
	return "root"
}

func seal(t *testing.T, key, plaintext []byte) (ciphertext []byte, ivB64 string) {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	iv := make([]byte, gcm.NonceSize())
	_, err = rand.Read(iv)
	require.NoError(t, err)
	ct := gcm.Seal(nil, iv, plaintext, nil)
	return ct, base64.StdEncoding.EncodeToString(iv)
}

func testHarness(t *testing.T) (*Engine, *fakeStore, *fakeLedger, ed25519.PrivateKey, []byte, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	symKey := make([]byte, 32)
	_, err = rand.Read(symKey)
	require.NoError(t, err)

	keys := KeyRing{
		SignerKeys:        map[string]ed25519.PublicKey{"peer-1": pub},
		PeerSymmetricKeys: map[string][]byte{"peer-1": symKey},
	}
	store := newFakeStore()
	ledger := &fakeLedger{}
	e := New(store, ledger, keys, []string{"trusted-source"}, 0.7, 7.0, 4, zerolog.Nop())
	return e, store, ledger, priv, symKey, "peer-1"
}

func buildEnvelope(t *testing.T, priv ed25519.PrivateKey, symKey []byte, plaintext string, topic, source string) Envelope {
	t.Helper()
	ct, iv := seal(t, symKey, []byte(plaintext))
	sig := ed25519.Sign(priv, ct)
	var emb [model.EmbeddingDim]float32
	emb[0] = 1
	return Envelope{
		Capsule: model.Capsule{
			ID:                  "cap-1",
			Topic:               topic,
			Source:              source,
			Confidence:          0.82,
			TimestampUTC:        time.Now().UTC(),
			Embedding:           emb,
			EncryptedContent:    ct,
			EncryptionIVBase64:  iv,
		},
		Signature: sig,
		SenderID:  "peer-1",
	}
}

func TestIngestSuccessWithAllowlistedSource(t *testing.T) {
	e, store, ledger, priv, symKey, _ := testHarness(t)
	env := buildEnvelope(t, priv, symKey, "hello world", "CerebrumLux", "trusted-source")

	rep := e.Ingest(env)
	require.Equal(t, model.IngestSuccess, rep.Result)

	got, ok, err := store.Get("cap-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello world", got.Content)
	require.Len(t, ledger.appended, 1)
}

func TestIngestIsIdempotentOnSecondAttempt(t *testing.T) {
	e, _, _, priv, symKey, _ := testHarness(t)
	env := buildEnvelope(t, priv, symKey, "hello world", "CerebrumLux", "trusted-source")

	first := e.Ingest(env)
	require.Equal(t, model.IngestSuccess, first.Result)
	second := e.Ingest(env)
	require.Equal(t, model.IngestBusy, second.Result)
}

func TestIngestRejectsBadSignature(t *testing.T) {
	e, _, _, priv, symKey, _ := testHarness(t)
	env := buildEnvelope(t, priv, symKey, "hello world", "CerebrumLux", "trusted-source")
	env.Signature[0] ^= 0xFF

	rep := e.Ingest(env)
	require.Equal(t, model.IngestInvalidSignature, rep.Result)
}

func TestIngestRejectsSteganographyMarker(t *testing.T) {
	e, _, _, priv, symKey, _ := testHarness(t)
	env := buildEnvelope(t, priv, symKey, "hello STEGO_START_MARKER_XYZ world", "CerebrumLux", "trusted-source")

	rep := e.Ingest(env)
	require.Equal(t, model.IngestSteganographyDetected, rep.Result)
}

func TestIngestFailsCorroborationWithoutTrustedSignal(t *testing.T) {
	e, _, _, priv, symKey, _ := testHarness(t)
	env := buildEnvelope(t, priv, symKey, "hello world", "", "unknown-source")

	rep := e.Ingest(env)
	require.Equal(t, model.IngestCorroborationFailed, rep.Result)
}

func TestIngestRejectsSchemaMismatch(t *testing.T) {
	e, _, _, _, _, _ := testHarness(t)
	env := Envelope{Capsule: model.Capsule{ID: ""}, SenderID: "peer-1"}

	rep := e.Ingest(env)
	require.Equal(t, model.IngestSchemaMismatch, rep.Result)
}

func TestIngestBatchRunsConcurrentlyAndPreservesOrder(t *testing.T) {
	e, store, ledger, priv, symKey, _ := testHarness(t)

	const n = 12
	envs := make([]Envelope, n)
	for i := 0; i < n; i++ {
		env := buildEnvelope(t, priv, symKey, fmt.Sprintf("capsule body %d", i), "CerebrumLux", "trusted-source")
		env.Capsule.ID = fmt.Sprintf("cap-%d", i)
		envs[i] = env
	}

	reports := e.IngestBatch(context.Background(), envs)
	require.Len(t, reports, n)
	for i, rep := range reports {
		require.Equal(t, model.IngestSuccess, rep.Result, "capsule %d", i)
		require.Equal(t, fmt.Sprintf("cap-%d", i), rep.CapsuleID)
	}
	require.Len(t, ledger.appended, n)

	for i := 0; i < n; i++ {
		_, ok, err := store.Get(fmt.Sprintf("cap-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
}
