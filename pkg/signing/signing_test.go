package signing

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	provider, err := NewMemoryKeyProvider("test-key")
	require.NoError(t, err)

	yamlSrc := []byte("defaults:\n  tool_policy: confirm\n")
	record, err := Sign(yamlSrc, provider, nil)
	require.NoError(t, err)

	err = Verify(record, provider.PublicKey(), yamlSrc)
	require.NoError(t, err)
}

func TestVerify_FlippedByteFails(t *testing.T) {
	provider, err := NewMemoryKeyProvider("test-key")
	require.NoError(t, err)

	yamlSrc := []byte("defaults:\n  tool_policy: confirm\n")
	record, err := Sign(yamlSrc, provider, nil)
	require.NoError(t, err)

	tampered := []byte("defaults:\n  tool_policy: allow\n")
	err = Verify(record, provider.PublicKey(), tampered)
	require.Error(t, err)

	var mismatch *HashMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestVerify_BadSignatureAfterSwap(t *testing.T) {
	providerA, err := NewMemoryKeyProvider("key-a")
	require.NoError(t, err)
	providerB, err := NewMemoryKeyProvider("key-b")
	require.NoError(t, err)

	yamlSrc := []byte("defaults:\n  tool_policy: confirm\n")
	record, err := Sign(yamlSrc, providerA, nil)
	require.NoError(t, err)

	err = Verify(record, providerB.PublicKey(), yamlSrc)
	require.Error(t, err)

	var bad *BadSignature
	require.ErrorAs(t, err, &bad)
}

func TestDecodeKey_HexFirstAmbiguity(t *testing.T) {
	// 64 hex chars also happens to be valid base64 input-wise; hex wins.
	hexStr := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	b, err := DecodeKey(hexStr)
	require.NoError(t, err)
	require.Len(t, b, 32)
}

func TestDecodeKey_Base64Fallback(t *testing.T) {
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	// Not hex (contains '+' or similar after encoding is unlikely but the
	// point is this is accepted as base64 when it's not all-hex).
	b, err := DecodeKey("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	require.NoError(t, err)
	require.NotEmpty(t, b)
	_ = priv
}

func TestDecodeKey_Invalid(t *testing.T) {
	_, err := DecodeKey("not a key at all!!")
	require.Error(t, err)
	var kde *KeyDecodeError
	require.ErrorAs(t, err, &kde)
}
