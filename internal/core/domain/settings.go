package domain

import "time"

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
)

// Settings holds pipeline-wide configuration
type Settings struct {
	// Chunking defaults, in characters
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	// Retrieval defaults
	DefaultTopK int `json:"default_top_k"`

	// Prompt assembly
	MaxPromptTokens int `json:"max_prompt_tokens"`

	// Metadata
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns sensible pipeline defaults
func DefaultSettings() *Settings {
	return &Settings{
		ChunkSize:       500,
		ChunkOverlap:    50,
		DefaultTopK:     3,
		MaxPromptTokens: 4096,
		UpdatedAt:       time.Now(),
	}
}

// AISettings holds AI service configuration (embedding and generation)
// This can be updated at runtime via API
type AISettings struct {
	Embedding  EmbeddingSettings  `json:"embedding"`
	Generation GenerationSettings `json:"generation"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider"`
	Model      string     `json:"model"`
	APIKey     string     `json:"-"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty"`
	Dimensions int        `json:"dimensions"`
	BatchSize  int        `json:"batch_size"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// DefaultEmbeddingSettings returns default embedding configuration
func DefaultEmbeddingSettings() EmbeddingSettings {
	return EmbeddingSettings{
		Provider:   AIProviderOpenAI,
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		BatchSize:  100,
	}
}

// GenerationSettings configures the generation (LLM) service
type GenerationSettings struct {
	Provider    AIProvider `json:"provider"`
	Model       string     `json:"model"`
	APIKey      string     `json:"-"` // Never serialize to JSON
	BaseURL     string     `json:"base_url,omitempty"`
	Temperature float64    `json:"temperature"`
	MaxTokens   int        `json:"max_tokens"`
}

// IsConfigured returns true if generation settings are properly configured
func (g *GenerationSettings) IsConfigured() bool {
	if g.Provider == "" {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// DefaultGenerationSettings returns default generation configuration
func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		Provider:    AIProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama:
		return false // Self-hosted, no API key needed
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if s.Generation.Provider != "" && !s.Generation.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}
