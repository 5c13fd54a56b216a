package model

import "time"

// EmbeddingDim is the fixed dimensionality of a capsule's embedding (spec
// §3): L2-normalized within 1e-5 of unit length.
const EmbeddingDim = 128

// Capsule is the durable unit of knowledge (spec §3). Content is the
// plaintext after decrypt+sanitize; CryptofigBlobBase64 is the opaque
// serialized feature/embedding payload kept distinct from Content, per
// original_source's cryptofig_processor split (see SPEC_FULL.md §5).
type Capsule struct {
	ID          string
	Topic       string
	Source      string
	Content     string
	PlainTextSummary string
	Confidence  float32
	TimestampUTC time.Time

	Embedding [EmbeddingDim]float32

	CryptofigBlobBase64 string
	EncryptedContent    []byte
	EncryptionIVBase64  string
	SignatureBase64     string
}

// SparseQEntry is one row of C9's sparse Q-table (spec §3): a state key
// mapped to an action->value map.
type SparseQEntry struct {
	StateKey string
	Values   map[Action]float32
}

// ChatResponse is C12's output (spec §4.12).
type ChatResponse struct {
	Text                string
	Reasoning           string
	SuggestedQuestions  []string
	NeedsClarification  bool
}

// IngestResult enumerates the outcomes C10's ingest pipeline can report.
type IngestResult int

const (
	IngestSuccess IngestResult = iota
	IngestBusy
	IngestSchemaMismatch
	IngestInvalidSignature
	IngestDecryptionFailed
	IngestSteganographyDetected
	IngestSandboxFailed
	IngestCorroborationFailed
)

func (r IngestResult) String() string {
	switch r {
	case IngestSuccess:
		return "Success"
	case IngestBusy:
		return "Busy"
	case IngestSchemaMismatch:
		return "SchemaMismatch"
	case IngestInvalidSignature:
		return "InvalidSignature"
	case IngestDecryptionFailed:
		return "DecryptionFailed"
	case IngestSteganographyDetected:
		return "SteganographyDetected"
	case IngestSandboxFailed:
		return "SandboxFailed"
	case IngestCorroborationFailed:
		return "CorroborationFailed"
	default:
		return "Unknown"
	}
}

// IngestReport is returned from every ingest attempt (spec §4.10, §7: never
// silently dropped).
type IngestReport struct {
	Result             IngestResult
	CapsuleID          string
	SanitizationNeeded bool
	Message            string
}
