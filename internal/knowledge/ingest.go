// Package knowledge implements C10: the capsule ingest pipeline and the
// knowledge-base read operations layered over C11's vector store
// (spec.md §4.10).
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cerebrumlux/cognition/internal/cerr"
	"github.com/cerebrumlux/cognition/internal/model"
)

// Store is the subset of C11's vector store the ingest pipeline and
// knowledge-base reads need.
type Store interface {
	Put(model.Capsule) error
	Get(id string) (model.Capsule, bool, error)
	SearchKNN(query [model.EmbeddingDim]float32, k int) []string
	IterateTopic(topic string) []string
}

// Ledger is the append-only hash chain ingested capsules are recorded
// into (spec §4.10: "appended to the consensus tree").
type Ledger interface {
	Append(content []byte) string
}

// Engine runs the seven-stage ingest pipeline and serves the
// knowledge-base read operations (spec §4.10).
type Engine struct {
	store   Store
	ledger  Ledger
	keys    KeyRing
	log     zerolog.Logger

	allowlistedSources  map[string]struct{}
	corroborationCosine float64
	stegoEntropyMax     float64
	ingestWorkers       int

	seenMu sync.Mutex
	seen   map[string]struct{} // idempotence: ids committed this process or being ingested now
}

// New constructs a knowledge Engine. allowlistedSources, corroborationCosine,
// stegoEntropyMax, and ingestWorkers come from config.KnowledgeConfig.
// ingestWorkers <= 0 falls back to sequential (1-worker) ingestion.
func New(store Store, ledger Ledger, keys KeyRing, allowlistedSources []string, corroborationCosine, stegoEntropyMax float64, ingestWorkers int, log zerolog.Logger) *Engine {
	allow := make(map[string]struct{}, len(allowlistedSources))
	for _, s := range allowlistedSources {
		allow[s] = struct{}{}
	}
	if ingestWorkers <= 0 {
		ingestWorkers = 1
	}
	return &Engine{
		store:               store,
		ledger:              ledger,
		keys:                keys,
		log:                 log,
		allowlistedSources:  allow,
		corroborationCosine: corroborationCosine,
		stegoEntropyMax:     stegoEntropyMax,
		ingestWorkers:       ingestWorkers,
		seen:                make(map[string]struct{}),
	}
}

func auditHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (e *Engine) audit(stage string, env Envelope, err error) {
	e.log.Warn().
		Str("stage", stage).
		Str("capsule_id_hash", auditHash([]byte(env.Capsule.ID))).
		Str("sender_id_hash", auditHash([]byte(env.SenderID))).
		Err(err).
		Msg("capsule ingest rejected")
}

func fail(result model.IngestResult, capsuleID, message string) model.IngestReport {
	return model.IngestReport{Result: result, CapsuleID: capsuleID, Message: message}
}

// Ingest runs the fail-closed seven-stage pipeline from spec §4.10,
// short-circuiting on the first failure. Every failure is audit-logged
// with hashed inputs; nothing is stored on a non-Success outcome.
func (e *Engine) Ingest(env Envelope) model.IngestReport {
	id := env.Capsule.ID

	e.seenMu.Lock()
	_, already := e.seen[id]
	if !already {
		e.seen[id] = struct{}{} // reserved until this attempt commits or fails
	}
	e.seenMu.Unlock()
	if already {
		return model.IngestReport{Result: model.IngestBusy, CapsuleID: id, Message: "capsule already ingested, no-op"}
	}
	committed := false
	defer func() {
		if !committed {
			e.seenMu.Lock()
			delete(e.seen, id)
			e.seenMu.Unlock()
		}
	}()

	// 1. Schema validate.
	if ok, reason := validateSchema(env); !ok {
		rep := fail(model.IngestSchemaMismatch, id, reason)
		e.audit("schema_validate", env, cerr.New(cerr.InputInvariantViolated, "knowledge.Ingest", reason))
		return rep
	}

	// 2. Signature verify (over the ciphertext, per spec: "signature
	// verify: ... public-key check over the encrypted payload").
	if err := e.keys.VerifySignature(env.SenderID, env.Capsule.EncryptedContent, env.Signature); err != nil {
		rep := fail(model.IngestInvalidSignature, id, "signature verification failed")
		e.audit("signature_verify", env, err)
		return rep
	}

	// 3. Decrypt payload.
	plaintext, err := e.keys.Decrypt(env.SenderID, env.Capsule.EncryptedContent, env.Capsule.EncryptionIVBase64)
	if err != nil {
		rep := fail(model.IngestDecryptionFailed, id, "decryption failed")
		e.audit("decrypt", env, err)
		return rep
	}

	// 4. Unicode sanitize.
	cleaned := Sanitize(string(plaintext))
	sanitizationNeeded := cleaned != string(plaintext)

	// 5. Steganalysis.
	if DetectSteganography(cleaned, e.stegoEntropyMax) {
		rep := fail(model.IngestSteganographyDetected, id, "steganalysis triggered")
		e.audit("steganalysis", env, cerr.New(cerr.ContentPolicyViolation, "knowledge.Ingest", "steganalysis triggered"))
		return rep
	}

	// 6. Sandbox analysis.
	if ok, reason := SandboxCheck(cleaned); !ok {
		rep := fail(model.IngestSandboxFailed, id, reason)
		e.audit("sandbox", env, cerr.New(cerr.ContentPolicyViolation, "knowledge.Ingest", reason))
		return rep
	}

	// 7. Corroboration.
	normEmb := l2Normalize(env.Capsule.Embedding)
	if !e.corroborated(normEmb, env.Capsule.Topic, env.Capsule.Source) {
		rep := fail(model.IngestCorroborationFailed, id, "no corroborating capsule, topic match, or allowlisted source")
		e.audit("corroboration", env, cerr.New(cerr.ContentPolicyViolation, "knowledge.Ingest", "corroboration failed"))
		return rep
	}

	final := env.Capsule
	final.Content = cleaned
	final.Embedding = normEmb
	final.SignatureBase64 = hex.EncodeToString(env.Signature)
	if final.TimestampUTC.IsZero() {
		final.TimestampUTC = time.Now().UTC()
	}

	if err := e.store.Put(final); err != nil {
		rep := fail(model.IngestSandboxFailed, id, "storage commit failed")
		e.audit("commit", env, err)
		return rep
	}
	e.ledger.Append([]byte(final.ID + "|" + final.Content))
	committed = true

	return model.IngestReport{
		Result:             model.IngestSuccess,
		CapsuleID:          id,
		SanitizationNeeded: sanitizationNeeded,
		Message:            "ingested",
	}
}

// IngestBatch runs Ingest over envs on a bounded worker pool (spec §5:
// "Capsule-ingest workers: pull candidate capsules from a bounded
// queue... different capsules are parallelizable"). Reports are returned
// in the same order as envs; one envelope's failure never aborts the
// others since Ingest itself never returns an error, only a report.
func (e *Engine) IngestBatch(ctx context.Context, envs []Envelope) []model.IngestReport {
	reports := make([]model.IngestReport, len(envs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.ingestWorkers)
	for i, env := range envs {
		i, env := i, env
		g.Go(func() error {
			if gctx.Err() != nil {
				reports[i] = fail(model.IngestBusy, env.Capsule.ID, "batch canceled before this capsule started")
				return nil
			}
			reports[i] = e.Ingest(env)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (e *Engine) corroborated(embedding [model.EmbeddingDim]float32, topic, source string) bool {
	if _, ok := e.allowlistedSources[source]; ok && source != "" {
		return true
	}
	if topic != "" && len(e.store.IterateTopic(topic)) > 0 {
		return true
	}
	for _, id := range e.store.SearchKNN(embedding, 5) {
		existing, ok, err := e.store.Get(id)
		if err != nil || !ok {
			continue
		}
		if cosineSimilarity(embedding, existing.Embedding) >= e.corroborationCosine {
			return true
		}
	}
	return false
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

// SearchByTopic returns every capsule indexed under topic (spec §4.10).
func (e *Engine) SearchByTopic(topic string) ([]model.Capsule, error) {
	ids := e.store.IterateTopic(topic)
	out := make([]model.Capsule, 0, len(ids))
	for _, id := range ids {
		c, ok, err := e.store.Get(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SemanticSearch returns the k nearest capsules to embedding by cosine
// similarity (spec §4.10).
func (e *Engine) SemanticSearch(embedding [model.EmbeddingDim]float32, k int) ([]model.Capsule, error) {
	ids := e.store.SearchKNN(embedding, k)
	out := make([]model.Capsule, 0, len(ids))
	for _, id := range ids {
		c, ok, err := e.store.Get(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the capsule stored under id, if any (spec §4.10).
func (e *Engine) Get(id string) (model.Capsule, bool, error) {
	return e.store.Get(id)
}
