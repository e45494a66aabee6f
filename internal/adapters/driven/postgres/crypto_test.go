package postgres

import (
	"bytes"
	"errors"
	"testing"
)

// providerKeys mirrors the shape the settings store seals: one API key
// per AI service slot.
type providerKeys struct {
	EmbeddingAPIKey  string `json:"embedding_api_key"`
	GenerationAPIKey string `json:"generation_api_key"`
}

func testEncryptor(t *testing.T) *SecretEncryptor {
	t.Helper()
	key := bytes.Repeat([]byte("quarry-settings!"), 2) // 32 bytes
	enc, err := NewSecretEncryptor(key)
	if err != nil {
		t.Fatalf("NewSecretEncryptor: %v", err)
	}
	return enc
}

func TestSecretEncryptor_APIKeyRoundTrip(t *testing.T) {
	enc := testEncryptor(t)

	original := providerKeys{
		EmbeddingAPIKey:  "sk-embed-0123456789",
		GenerationAPIKey: "sk-gen-abcdefghij",
	}

	blob, err := enc.Encrypt(original)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if len(blob) < 1+gcmNonceLen {
		t.Fatalf("blob too short: %d bytes", len(blob))
	}
	if blob[0] != blobVersion {
		t.Errorf("version byte: got %d, want %d", blob[0], blobVersion)
	}
	// The API keys must not be readable from the stored blob
	if bytes.Contains(blob, []byte("sk-embed")) || bytes.Contains(blob, []byte("sk-gen")) {
		t.Error("plaintext API key visible in sealed blob")
	}

	var decrypted providerKeys
	if err := enc.Decrypt(blob, &decrypted); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != original {
		t.Errorf("round trip: got %+v, want %+v", decrypted, original)
	}
}

func TestSecretEncryptor_RejectsNonAES256Keys(t *testing.T) {
	for _, size := range []int{0, 16, 24, 31, 33, 64} {
		if _, err := NewSecretEncryptor(make([]byte, size)); !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("key size %d: error = %v, want ErrInvalidKeySize", size, err)
		}
	}
}

func TestSecretEncryptor_RejectsMalformedBlobs(t *testing.T) {
	enc := testEncryptor(t)

	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, ErrInvalidBlobSize},
		{"truncated", []byte{blobVersion, 0x02, 0x03}, ErrInvalidBlobSize},
		{"unknown version", append([]byte{0x7f}, make([]byte, 64)...), ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out providerKeys
			if err := enc.Decrypt(tt.blob, &out); !errors.Is(err, tt.want) {
				t.Errorf("Decrypt error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSecretEncryptor_WrongKeyFailsClosed(t *testing.T) {
	enc := testEncryptor(t)
	other, err := NewSecretEncryptor(bytes.Repeat([]byte("rotated-deploy-k"), 2))
	if err != nil {
		t.Fatalf("NewSecretEncryptor: %v", err)
	}

	blob, err := enc.Encrypt(providerKeys{EmbeddingAPIKey: "sk-embed-secret"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var out providerKeys
	if err := other.Decrypt(blob, &out); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt with rotated key: error = %v, want ErrDecryptionFailed", err)
	}
	if out.EmbeddingAPIKey != "" {
		t.Error("decryption failure must not leak key material")
	}
}

func TestSecretEncryptor_FreshNoncePerSeal(t *testing.T) {
	enc := testEncryptor(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		blob, err := enc.Encrypt(providerKeys{EmbeddingAPIKey: "sk-same-key"})
		if err != nil {
			t.Fatalf("Encrypt %d: %v", i, err)
		}
		nonce := string(blob[1 : 1+gcmNonceLen])
		if seen[nonce] {
			t.Fatalf("nonce reused on seal %d", i)
		}
		seen[nonce] = true
	}
}
