package driving

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// UpdateSettingsRequest represents a request to update pipeline settings
// Note: AI configuration is managed via UpdateAISettingsRequest and /settings/ai endpoint
type UpdateSettingsRequest struct {
	ChunkSize       *int `json:"chunk_size,omitempty"`
	ChunkOverlap    *int `json:"chunk_overlap,omitempty"`
	DefaultTopK     *int `json:"default_top_k,omitempty"`
	MaxPromptTokens *int `json:"max_prompt_tokens,omitempty"`
}

// SettingsService manages pipeline settings (admin only)
type SettingsService interface {
	// Get retrieves the current settings
	Get(ctx context.Context) (*domain.Settings, error)

	// Update updates settings (admin only)
	Update(ctx context.Context, req UpdateSettingsRequest) (*domain.Settings, error)

	// GetAISettings retrieves the current AI configuration
	GetAISettings(ctx context.Context) (*domain.AISettings, error)

	// UpdateAISettings updates AI configuration and hot-reloads services
	// Returns the updated settings and whether each service is now available
	UpdateAISettings(ctx context.Context, req UpdateAISettingsRequest) (*AISettingsStatus, error)

	// GetAIStatus returns the current status of AI services
	GetAIStatus(ctx context.Context) (*AISettingsStatus, error)

	// TestConnection tests the AI provider connections
	TestConnection(ctx context.Context) error
}

// UpdateAISettingsRequest represents a request to update AI settings
type UpdateAISettingsRequest struct {
	Embedding  *EmbeddingSettingsInput  `json:"embedding,omitempty"`
	Generation *GenerationSettingsInput `json:"generation,omitempty"`
}

// EmbeddingSettingsInput is the input for embedding configuration
type EmbeddingSettingsInput struct {
	Provider domain.AIProvider `json:"provider"`
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
}

// GenerationSettingsInput is the input for generation configuration
type GenerationSettingsInput struct {
	Provider    domain.AIProvider `json:"provider"`
	Model       string            `json:"model"`
	APIKey      string            `json:"api_key"`
	BaseURL     string            `json:"base_url,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
}

// AISettingsStatus represents the status of AI services
type AISettingsStatus struct {
	Embedding  AIServiceStatus `json:"embedding"`
	Generation AIServiceStatus `json:"generation"`
	CanIndex   bool            `json:"can_index"`
	CanAnswer  bool            `json:"can_answer"`
}

// AIServiceStatus represents the status of a single AI service
type AIServiceStatus struct {
	Available    bool              `json:"available"`
	Provider     domain.AIProvider `json:"provider,omitempty"`
	Model        string            `json:"model,omitempty"`
	EmbeddingDim int               `json:"embedding_dim,omitempty"` // Only for embedding service
}
