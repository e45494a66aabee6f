package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SettingsStore = (*SettingsStore)(nil)

// Settings row keys
const (
	settingsKeyPipeline = "pipeline"
	settingsKeyAI       = "ai"
)

// SettingsStore implements driven.SettingsStore using PostgreSQL.
// Settings are stored as JSONB rows keyed by section; AI provider API
// keys are encrypted at rest in a separate BYTEA column.
type SettingsStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// aiSecrets is the encrypted portion of the AI settings row.
// API keys never appear in the JSONB value.
type aiSecrets struct {
	EmbeddingAPIKey  string `json:"embedding_api_key"`
	GenerationAPIKey string `json:"generation_api_key"`
}

// NewSettingsStore creates a new SettingsStore.
// encryptor may be nil, in which case API keys are not persisted.
func NewSettingsStore(db *DB, encryptor *SecretEncryptor) *SettingsStore {
	return &SettingsStore{db: db, encryptor: encryptor}
}

// GetSettings retrieves pipeline settings
func (s *SettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	value, _, err := s.getRow(ctx, settingsKeyPipeline)
	if err != nil {
		return nil, err
	}

	var settings domain.Settings
	if err := json.Unmarshal(value, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings persists pipeline settings
func (s *SettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	settings.UpdatedAt = time.Now()

	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.saveRow(ctx, settingsKeyPipeline, value, nil, settings.UpdatedAt)
}

// GetAISettings retrieves AI service settings, decrypting API keys
func (s *SettingsStore) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	value, secrets, err := s.getRow(ctx, settingsKeyAI)
	if err != nil {
		return nil, err
	}

	var settings domain.AISettings
	if err := json.Unmarshal(value, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal ai settings: %w", err)
	}

	if len(secrets) > 0 && s.encryptor != nil {
		var keys aiSecrets
		if err := s.encryptor.Decrypt(secrets, &keys); err != nil {
			return nil, fmt.Errorf("decrypt api keys: %w", err)
		}
		settings.Embedding.APIKey = keys.EmbeddingAPIKey
		settings.Generation.APIKey = keys.GenerationAPIKey
	}

	return &settings, nil
}

// SaveAISettings persists AI service settings, encrypting API keys
func (s *SettingsStore) SaveAISettings(ctx context.Context, settings *domain.AISettings) error {
	settings.UpdatedAt = time.Now()

	// APIKey fields are json:"-" so the JSONB value never contains them
	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal ai settings: %w", err)
	}

	var secrets []byte
	if s.encryptor != nil {
		secrets, err = s.encryptor.Encrypt(aiSecrets{
			EmbeddingAPIKey:  settings.Embedding.APIKey,
			GenerationAPIKey: settings.Generation.APIKey,
		})
		if err != nil {
			return fmt.Errorf("encrypt api keys: %w", err)
		}
	}

	return s.saveRow(ctx, settingsKeyAI, value, secrets, settings.UpdatedAt)
}

func (s *SettingsStore) getRow(ctx context.Context, key string) (value, secrets []byte, err error) {
	query := `SELECT value, secrets FROM settings WHERE key = $1`

	err = s.db.QueryRowContext(ctx, query, key).Scan(&value, &secrets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	return value, secrets, err
}

func (s *SettingsStore) saveRow(ctx context.Context, key string, value, secrets []byte, updatedAt time.Time) error {
	query := `
		INSERT INTO settings (key, value, secrets, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			secrets = EXCLUDED.secrets,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, key, value, secrets, updatedAt)
	return err
}
