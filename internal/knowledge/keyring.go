package knowledge

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"os"
)

// keyRingFile is the on-disk JSON shape for a KeyRing: base64 public keys
// and base64 symmetric keys, keyed by sender id. The original
// implementation's Ed25519 wiring was stubbed out at the call site
// (main.cpp's ingest path comments out ed25519_sign/get_my_private_key);
// this module completes that wiring with a small file-backed keyring
// instead of leaving it simulated.
type keyRingFile struct {
	SignerKeys        map[string]string `json:"signer_keys"`
	PeerSymmetricKeys map[string]string `json:"peer_symmetric_keys"`
}

// LoadKeyRingFile reads a JSON keyring from path. A missing file yields
// an empty KeyRing rather than an error, so a fresh install can still
// start (every ingest will simply fail signature verification until
// keys are provisioned).
func LoadKeyRingFile(path string) (KeyRing, error) {
	kr := KeyRing{
		SignerKeys:        make(map[string]ed25519.PublicKey),
		PeerSymmetricKeys: make(map[string][]byte),
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return kr, nil
		}
		return kr, err
	}

	var f keyRingFile
	if err := json.Unmarshal(b, &f); err != nil {
		return kr, err
	}
	for sender, b64 := range f.SignerKeys {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return kr, err
		}
		kr.SignerKeys[sender] = ed25519.PublicKey(raw)
	}
	for sender, b64 := range f.PeerSymmetricKeys {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return kr, err
		}
		kr.PeerSymmetricKeys[sender] = raw
	}
	return kr, nil
}

// SaveKeyRingFile writes kr to path as JSON, the counterpart a
// provisioning tool (or a future "cerebrumluxd keys add" subcommand)
// would call.
func SaveKeyRingFile(path string, kr KeyRing) error {
	f := keyRingFile{
		SignerKeys:        make(map[string]string, len(kr.SignerKeys)),
		PeerSymmetricKeys: make(map[string]string, len(kr.PeerSymmetricKeys)),
	}
	for sender, pub := range kr.SignerKeys {
		f.SignerKeys[sender] = base64.StdEncoding.EncodeToString(pub)
	}
	for sender, sym := range kr.PeerSymmetricKeys {
		f.PeerSymmetricKeys[sender] = base64.StdEncoding.EncodeToString(sym)
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
