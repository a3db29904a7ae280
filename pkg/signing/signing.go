// Package signing implements Ed25519 sign/verify over a 32-byte document
// digest (§4.3), producing and consuming the detached signature record
// described in §6.
//
// Signing operates on the digest itself, never its hex or base64 text
// form — this constrains tooling to a single, fixed signing surface (§9
// Open Question (b)).
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/canonicalize"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/hashdoc"
)

// RecordSpec is the fixed "spec" discriminator carried in every signature
// record, per §6.
const RecordSpec = "aos-policy-signature-v1"

// HashMismatch is returned by Verify when the record's embedded doc_hash
// does not match the hash recomputed from the supplied YAML.
type HashMismatch struct {
	Want string
	Got  string
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("signing: doc_hash mismatch: record says %q, recomputed %q", e.Want, e.Got)
}

// BadSignature is returned by Verify when Ed25519 verification fails.
type BadSignature struct{}

func (e *BadSignature) Error() string { return "signing: Ed25519 signature verification failed" }

// KeyDecodeError is returned when a key string is neither valid hex of the
// expected length nor valid standard Base64.
type KeyDecodeError struct {
	Input string
}

func (e *KeyDecodeError) Error() string {
	return fmt.Sprintf("signing: key %q is neither 64/128-char hex nor valid base64", e.Input)
}

// Record is the detached signature record of §6.
type Record struct {
	Spec      string  `json:"spec"`
	DocHash   string  `json:"doc_hash"`
	SignedAt  *string `json:"signed_at"`
	KeyID     string  `json:"key_id"`
	Signature string  `json:"signature"` // base64
}

// KeyProvider abstracts the signing backend, so an in-memory key can later
// be swapped for an HSM or KMS client without touching callers — secret
// key storage itself stays out of scope for this module.
type KeyProvider interface {
	Sign(digest [32]byte) []byte
	PublicKey() ed25519.PublicKey
	KeyID() string
}

// MemoryKeyProvider is the in-memory KeyProvider used by the CLI and tests.
type MemoryKeyProvider struct {
	pub   ed25519.PublicKey
	priv  ed25519.PrivateKey
	keyID string
}

// NewMemoryKeyProvider generates a fresh Ed25519 keypair.
func NewMemoryKeyProvider(keyID string) (*MemoryKeyProvider, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signing: key generation failed: %w", err)
	}
	return &MemoryKeyProvider{pub: pub, priv: priv, keyID: keyID}, nil
}

// NewMemoryKeyProviderFromPrivate wraps an existing Ed25519 private key
// (e.g. one decoded by DecodeKey).
func NewMemoryKeyProviderFromPrivate(priv ed25519.PrivateKey, keyID string) *MemoryKeyProvider {
	return &MemoryKeyProvider{pub: priv.Public().(ed25519.PublicKey), priv: priv, keyID: keyID}
}

func (m *MemoryKeyProvider) Sign(digest [32]byte) []byte {
	return ed25519.Sign(m.priv, digest[:])
}

func (m *MemoryKeyProvider) PublicKey() ed25519.PublicKey { return m.pub }
func (m *MemoryKeyProvider) KeyID() string                { return m.keyID }

// Sign produces a detached Record for the given YAML constitution source.
func Sign(yamlSource []byte, provider KeyProvider, signedAt *string) (*Record, error) {
	canonical, err := canonicalize.Canonicalize(yamlSource)
	if err != nil {
		return nil, err
	}
	digest := hashdoc.Digest(canonical)
	sig := provider.Sign(digest)

	return &Record{
		Spec:      RecordSpec,
		DocHash:   hashdoc.Format(digest),
		SignedAt:  signedAt,
		KeyID:     "ed25519:" + provider.KeyID(),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Verify recomputes the doc_hash from yamlSource and checks it against the
// record before performing Ed25519 verification. HashMismatch is returned
// without attempting signature verification at all (§7).
func Verify(record *Record, pub ed25519.PublicKey, yamlSource []byte) error {
	canonical, err := canonicalize.Canonicalize(yamlSource)
	if err != nil {
		return err
	}
	digest := hashdoc.Digest(canonical)
	recomputed := hashdoc.Format(digest)

	if record.DocHash != recomputed {
		return &HashMismatch{Want: record.DocHash, Got: recomputed}
	}

	sig, err := base64.StdEncoding.DecodeString(record.Signature)
	if err != nil {
		return fmt.Errorf("signing: invalid base64 signature: %w", err)
	}

	if !ed25519.Verify(pub, digest[:], sig) {
		return &BadSignature{}
	}
	return nil
}

// DecodeKey resolves a key string that may be either 64-char hex (32
// bytes, a seed/public key) or 128-char hex (64 bytes, a private key), or
// standard Base64 of either length. Ambiguity is resolved hex-first: a
// string that is all hex digits and exactly 64 or 128 characters long is
// always treated as hex, even though it may also be valid Base64.
func DecodeKey(s string) ([]byte, error) {
	trimmed := strings.TrimSpace(s)

	if isAllHex(trimmed) && (len(trimmed) == 64 || len(trimmed) == 128) {
		b, err := hex.DecodeString(trimmed)
		if err == nil {
			return b, nil
		}
	}

	if b, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil {
		return b, nil
	}

	return nil, &KeyDecodeError{Input: s}
}

func isAllHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
