package store

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/aionixone/openact/pkg/apperrors"
)

// KeyRing holds the current and historical tenant encryption keys. New
// writes always encrypt with the current key version; reads decrypt using
// whichever version the stored triple names.
type KeyRing struct {
	mu      sync.RWMutex
	current int
	keys    map[int][]byte // version -> 32-byte key
}

// NewKeyRing builds a KeyRing whose only (current) key is currentKey. Pass
// nil to disable encryption entirely (fields are then stored in plaintext
// at key-version 0).
func NewKeyRing(currentKey []byte) (*KeyRing, error) {
	kr := &KeyRing{keys: map[int][]byte{}}
	if currentKey == nil {
		return kr, nil
	}
	if len(currentKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("store: encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(currentKey))
	}
	kr.current = 1
	kr.keys[1] = currentKey
	return kr, nil
}

// Enabled reports whether envelope encryption is active.
func (kr *KeyRing) Enabled() bool {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	return kr.current != 0
}

// AddHistoricalKey registers an older key under an explicit version, so
// rows written before a rotation remain decryptable.
func (kr *KeyRing) AddHistoricalKey(version int, key []byte) error {
	if len(key) != chacha20poly1305.KeySize {
		return fmt.Errorf("store: historical key version %d must be %d bytes", version, chacha20poly1305.KeySize)
	}
	kr.mu.Lock()
	defer kr.mu.Unlock()
	kr.keys[version] = key
	return nil
}

// Encrypt seals plaintext under the current key version. If encryption is
// disabled, it returns a key-version-0 field carrying the plaintext as-is
// (documented lossy-but-legible fallback, matching §4.2's "plaintext writes
// from older rows are readable" behaviour in reverse: no key configured
// means every row is a "legacy plaintext" row).
func (kr *KeyRing) Encrypt(plaintext string) (EncryptedField, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	if kr.current == 0 {
		return EncryptedField{CiphertextB64: base64.StdEncoding.EncodeToString([]byte(plaintext)), KeyVersion: 0}, nil
	}

	aead, err := chacha20poly1305.New(kr.keys[kr.current])
	if err != nil {
		return EncryptedField{}, apperrors.NewInternalError("store: building AEAD cipher", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedField{}, apperrors.NewInternalError("store: generating nonce", err)
	}
	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return EncryptedField{
		CiphertextB64: base64.StdEncoding.EncodeToString(ciphertext),
		NonceB64:      base64.StdEncoding.EncodeToString(nonce),
		KeyVersion:    kr.current,
	}, nil
}

// Decrypt opens a stored field using the key version it was written with.
// Key-version 0 is the plaintext-passthrough case.
func (kr *KeyRing) Decrypt(f EncryptedField) (string, error) {
	if f.KeyVersion == 0 {
		raw, err := base64.StdEncoding.DecodeString(f.CiphertextB64)
		if err != nil {
			return "", apperrors.NewInternalError("store: decoding plaintext field", err)
		}
		return string(raw), nil
	}

	kr.mu.RLock()
	key, ok := kr.keys[f.KeyVersion]
	kr.mu.RUnlock()
	if !ok {
		return "", apperrors.NewInternalError(fmt.Sprintf("store: no key registered for key_version %d", f.KeyVersion), nil)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", apperrors.NewInternalError("store: building AEAD cipher", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(f.CiphertextB64)
	if err != nil {
		return "", apperrors.NewInternalError("store: decoding ciphertext", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(f.NonceB64)
	if err != nil {
		return "", apperrors.NewInternalError("store: decoding nonce", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperrors.NewInternalError("store: AEAD open failed (corrupted or wrong key)", err)
	}
	return string(plaintext), nil
}
