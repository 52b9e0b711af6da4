package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key32(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestKeyRing_EncryptDecrypt_RoundTrip(t *testing.T) {
	kr, err := NewKeyRing(key32(1))
	require.NoError(t, err)

	f, err := kr.Encrypt("tok_abc")
	require.NoError(t, err)
	assert.NotEqual(t, "tok_abc", f.CiphertextB64)
	assert.NotEmpty(t, f.NonceB64)
	assert.Equal(t, 1, f.KeyVersion)

	got, err := kr.Decrypt(f)
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", got)
}

func TestKeyRing_HistoricalKeyStillDecrypts(t *testing.T) {
	kr, err := NewKeyRing(key32(1))
	require.NoError(t, err)
	f, err := kr.Encrypt("secret-v1")
	require.NoError(t, err)

	// Rotate: build a new ring whose current key is different, but which
	// still knows the old version for decrypting historical rows.
	kr2, err := NewKeyRing(key32(2))
	require.NoError(t, err)
	require.NoError(t, kr2.AddHistoricalKey(1, key32(1)))

	got, err := kr2.Decrypt(f)
	require.NoError(t, err)
	assert.Equal(t, "secret-v1", got)

	// New writes use the new current version.
	f2, err := kr2.Encrypt("secret-v2")
	require.NoError(t, err)
	assert.Equal(t, 2, f2.KeyVersion)
}

func TestKeyRing_Disabled_PassesThroughAtVersionZero(t *testing.T) {
	kr, err := NewKeyRing(nil)
	require.NoError(t, err)
	assert.False(t, kr.Enabled())

	f, err := kr.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, 0, f.KeyVersion)
	assert.Empty(t, f.NonceB64)

	got, err := kr.Decrypt(f)
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}

func TestKeyRing_DecryptUnknownVersion(t *testing.T) {
	kr, err := NewKeyRing(key32(1))
	require.NoError(t, err)
	_, err = kr.Decrypt(EncryptedField{CiphertextB64: "x", NonceB64: "y", KeyVersion: 99})
	assert.Error(t, err)
}
