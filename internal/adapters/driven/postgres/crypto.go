package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
)

// Provider API keys live in the settings table. They are the only
// secrets this service stores, and they must survive restarts without
// ever appearing in plaintext in the database or its backups. The
// settings store JSON-encodes the key material and seals it with
// AES-256-GCM before it touches the secrets column.
//
// Sealed layout: version(1) || nonce(12) || ciphertext. The version
// byte lets us rotate the format without re-encrypting on read.
const (
	blobVersion  = 0x01
	gcmNonceLen  = 12
	aes256KeyLen = 32
)

var (
	// ErrInvalidKeySize is returned when the key is not 32 bytes (AES-256).
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlobSize is returned when a sealed blob is truncated.
	ErrInvalidBlobSize = errors.New("encrypted blob is too small")

	// ErrUnsupportedVersion is returned for an unknown blob version byte.
	ErrUnsupportedVersion = errors.New("unsupported secret blob version")

	// ErrDecryptionFailed covers both a wrong key and corrupted data;
	// GCM cannot tell them apart.
	ErrDecryptionFailed = errors.New("failed to decrypt secret blob")
)

// SecretEncryptor seals provider API keys for storage in the settings
// table. The key comes from SETTINGS_ENCRYPTION_KEY; when no key is
// configured the settings store runs without an encryptor and simply
// refuses to persist key material.
type SecretEncryptor struct {
	gcm cipher.AEAD
}

// NewSecretEncryptor creates an encryptor from a 32-byte key.
func NewSecretEncryptor(key []byte) (*SecretEncryptor, error) {
	if len(key) != aes256KeyLen {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &SecretEncryptor{gcm: gcm}, nil
}

// Encrypt JSON-marshals value and seals it into a versioned blob.
// A fresh random nonce is drawn per call, so encrypting the same key
// material twice yields different blobs.
func (e *SecretEncryptor) Encrypt(value any) ([]byte, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal secrets: %w", err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 1+gcmNonceLen+len(sealed))
	blob[0] = blobVersion
	copy(blob[1:1+gcmNonceLen], nonce)
	copy(blob[1+gcmNonceLen:], sealed)

	return blob, nil
}

// Decrypt opens a sealed blob and unmarshals the plaintext into value,
// which must be a pointer.
func (e *SecretEncryptor) Decrypt(blob []byte, value any) error {
	if len(blob) < 1+gcmNonceLen+e.gcm.Overhead() {
		return ErrInvalidBlobSize
	}
	if blob[0] != blobVersion {
		return fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	nonce := blob[1 : 1+gcmNonceLen]
	sealed := blob[1+gcmNonceLen:]

	plaintext, err := e.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return ErrDecryptionFailed
	}

	if err := json.Unmarshal(plaintext, value); err != nil {
		return fmt.Errorf("unmarshal secrets: %w", err)
	}

	return nil
}
