package knowledge

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"encoding/base64"

	"github.com/cerebrumlux/cognition/internal/cerr"
)

// KeyRing resolves a sender id to the keys needed to verify and decrypt
// its capsules: an Ed25519 public key for the signature, and an AES-256
// symmetric key for the payload (spec.md §4.10 steps 2-3). Stdlib
// crypto/ed25519 and crypto/aes+cipher.NewGCM are used directly — see
// DESIGN.md for why no third-party crypto library from the pack applies.
type KeyRing struct {
	SignerKeys        map[string]ed25519.PublicKey
	PeerSymmetricKeys map[string][]byte
}

// VerifySignature checks an Ed25519 signature over payload using the
// sender's registered public key (spec §4.10 step 2).
func (k KeyRing) VerifySignature(senderID string, payload, signature []byte) error {
	pub, ok := k.SignerKeys[senderID]
	if !ok {
		return cerr.New(cerr.IntegrityViolation, "knowledge.VerifySignature", "unknown sender id: "+senderID)
	}
	if !ed25519.Verify(pub, payload, signature) {
		return cerr.New(cerr.IntegrityViolation, "knowledge.VerifySignature", "signature verification failed")
	}
	return nil
}

// Decrypt opens an AES-256-GCM sealed payload using the sender's
// per-peer symmetric key and the capsule's IV. A failed authentication
// tag surfaces as IntegrityViolation (spec §4.10 step 3).
func (k KeyRing) Decrypt(senderID string, ciphertext []byte, ivBase64 string) ([]byte, error) {
	key, ok := k.PeerSymmetricKeys[senderID]
	if !ok {
		return nil, cerr.New(cerr.IntegrityViolation, "knowledge.Decrypt", "no symmetric key for sender: "+senderID)
	}
	iv, err := base64.StdEncoding.DecodeString(ivBase64)
	if err != nil {
		return nil, cerr.Wrap(cerr.IntegrityViolation, "knowledge.Decrypt", "decode iv", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cerr.Wrap(cerr.IntegrityViolation, "knowledge.Decrypt", "construct aes cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, cerr.Wrap(cerr.IntegrityViolation, "knowledge.Decrypt", "construct gcm", err)
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, cerr.Wrap(cerr.IntegrityViolation, "knowledge.Decrypt", "authentication tag check failed", err)
	}
	return plaintext, nil
}
