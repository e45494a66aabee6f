package driven

import (
	"context"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

// SettingsStore persists pipeline and AI settings
type SettingsStore interface {
	// GetSettings retrieves pipeline settings
	GetSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings persists pipeline settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// GetAISettings retrieves AI service settings
	GetAISettings(ctx context.Context) (*domain.AISettings, error)

	// SaveAISettings persists AI service settings
	SaveAISettings(ctx context.Context, settings *domain.AISettings) error
}
