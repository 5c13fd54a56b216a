package knowledge

import (
	"encoding/base64"
	"math"
	"time"

	"github.com/cerebrumlux/cognition/internal/model"
)

// Envelope is the wire-level input to Ingest: a capsule whose Content is
// still encrypted (EncryptedContent/EncryptionIVBase64) and whose
// signature covers that ciphertext, plus the sender that produced it
// (spec.md §4.10: "ingest(capsule, signature, sender_id)").
type Envelope struct {
	Capsule   model.Capsule
	Signature []byte
	SenderID  string
}

const maxTimestampSkew = 24 * time.Hour

func validateSchema(e Envelope) (bool, string) {
	c := e.Capsule
	if c.ID == "" {
		return false, "id is empty"
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return false, "confidence out of [0,1]"
	}
	if isZeroEmbedding(c.Embedding) {
		return false, "embedding is empty"
	}
	if c.TimestampUTC.IsZero() {
		return false, "timestamp is unset"
	}
	now := time.Now().UTC()
	if c.TimestampUTC.After(now.Add(maxTimestampSkew)) || c.TimestampUTC.Before(now.Add(-30*24*time.Hour)) {
		return false, "timestamp outside sane window"
	}
	if len(c.EncryptedContent) == 0 {
		return false, "encrypted content is empty"
	}
	if _, err := base64.StdEncoding.DecodeString(c.EncryptionIVBase64); err != nil {
		return false, "iv is not valid base64"
	}
	return true, ""
}

func isZeroEmbedding(e [model.EmbeddingDim]float32) bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}

// l2Normalize returns a unit-length copy of e (spec §4.10: "the capsule
// is normalized (embedding L2-normalized)").
func l2Normalize(e [model.EmbeddingDim]float32) [model.EmbeddingDim]float32 {
	var sumSq float64
	for _, v := range e {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return e
	}
	norm := math.Sqrt(sumSq)
	var out [model.EmbeddingDim]float32
	for i, v := range e {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
