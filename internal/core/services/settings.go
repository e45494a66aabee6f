package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService implements the SettingsService interface
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIFactory
	services      *runtime.Services
	logger        *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIFactory,
	services *runtime.Services,
	logger *slog.Logger,
) driving.SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      services,
		logger:        logger,
	}
}

// Get retrieves the current settings
func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

// Update updates pipeline settings (admin only)
func (s *settingsService) Update(ctx context.Context, req driving.UpdateSettingsRequest) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		// If settings don't exist, start from defaults
		settings = domain.DefaultSettings()
	}

	// Apply updates
	if req.ChunkSize != nil {
		settings.ChunkSize = *req.ChunkSize
	}
	if req.ChunkOverlap != nil {
		settings.ChunkOverlap = *req.ChunkOverlap
	}
	if req.DefaultTopK != nil {
		settings.DefaultTopK = *req.DefaultTopK
	}
	if req.MaxPromptTokens != nil {
		settings.MaxPromptTokens = *req.MaxPromptTokens
	}

	// The chunking pair has to stay valid as a unit
	if settings.ChunkSize <= 0 || settings.ChunkOverlap < 0 || settings.ChunkOverlap >= settings.ChunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", domain.ErrInvalidChunkConfig, settings.ChunkSize, settings.ChunkOverlap)
	}
	if settings.DefaultTopK <= 0 {
		return nil, fmt.Errorf("%w: default top_k must be positive", domain.ErrInvalidInput)
	}
	if settings.MaxPromptTokens <= 0 {
		return nil, fmt.Errorf("%w: max prompt tokens must be positive", domain.ErrInvalidInput)
	}

	settings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		"chunk_size", settings.ChunkSize,
		"chunk_overlap", settings.ChunkOverlap,
		"default_top_k", settings.DefaultTopK,
	)

	return settings, nil
}

// GetAISettings retrieves the current AI configuration
func (s *settingsService) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	return s.settingsStore.GetAISettings(ctx)
}

// UpdateAISettings updates AI configuration and hot-reloads services
func (s *settingsService) UpdateAISettings(ctx context.Context, req driving.UpdateAISettingsRequest) (*driving.AISettingsStatus, error) {
	// Get current settings or create new
	aiSettings, err := s.settingsStore.GetAISettings(ctx)
	if err != nil {
		aiSettings = &domain.AISettings{}
	}

	// Update embedding settings if provided
	if req.Embedding != nil {
		embedding := domain.DefaultEmbeddingSettings()
		embedding.Provider = req.Embedding.Provider
		embedding.Model = req.Embedding.Model
		embedding.APIKey = req.Embedding.APIKey
		embedding.BaseURL = req.Embedding.BaseURL
		aiSettings.Embedding = embedding
	}

	// Update generation settings if provided
	if req.Generation != nil {
		generation := domain.DefaultGenerationSettings()
		generation.Provider = req.Generation.Provider
		generation.Model = req.Generation.Model
		generation.APIKey = req.Generation.APIKey
		generation.BaseURL = req.Generation.BaseURL
		if req.Generation.Temperature != nil {
			generation.Temperature = *req.Generation.Temperature
		}
		if req.Generation.MaxTokens != nil {
			generation.MaxTokens = *req.Generation.MaxTokens
		}
		aiSettings.Generation = generation
	}

	// Validate
	if err := aiSettings.Validate(); err != nil {
		return nil, err
	}

	aiSettings.UpdatedAt = time.Now()

	// Save to persistent store
	if err := s.settingsStore.SaveAISettings(ctx, aiSettings); err != nil {
		return nil, err
	}

	// Hot-reload services
	status := &driving.AISettingsStatus{}

	// Create and set embedding service
	if aiSettings.Embedding.IsConfigured() {
		embSvc, err := s.aiFactory.CreateEmbeddingService(aiSettings.Embedding)
		if err != nil {
			s.logger.Warn("failed to create embedding service", "provider", aiSettings.Embedding.Provider, "error", err)
			status.Embedding = driving.AIServiceStatus{Available: false}
		} else if err := s.services.ValidateAndSetEmbedding(ctx, embSvc); err != nil {
			s.logger.Warn("embedding service failed validation", "provider", aiSettings.Embedding.Provider, "error", err)
			status.Embedding = driving.AIServiceStatus{Available: false}
		} else {
			status.Embedding = driving.AIServiceStatus{
				Available:    true,
				Provider:     aiSettings.Embedding.Provider,
				Model:        aiSettings.Embedding.Model,
				EmbeddingDim: embSvc.Dimensions(),
			}
		}
	} else {
		// Explicitly disable
		s.services.SetEmbeddingService(nil)
		status.Embedding = driving.AIServiceStatus{Available: false}
	}

	// Create and set generation service
	if aiSettings.Generation.IsConfigured() {
		genSvc, err := s.aiFactory.CreateGenerationService(aiSettings.Generation)
		if err != nil {
			s.logger.Warn("failed to create generation service", "provider", aiSettings.Generation.Provider, "error", err)
			status.Generation = driving.AIServiceStatus{Available: false}
		} else if err := s.services.ValidateAndSetGeneration(ctx, genSvc); err != nil {
			s.logger.Warn("generation service failed validation", "provider", aiSettings.Generation.Provider, "error", err)
			status.Generation = driving.AIServiceStatus{Available: false}
		} else {
			status.Generation = driving.AIServiceStatus{
				Available: true,
				Provider:  aiSettings.Generation.Provider,
				Model:     aiSettings.Generation.Model,
			}
		}
	} else {
		s.services.SetGenerationService(nil)
		status.Generation = driving.AIServiceStatus{Available: false}
	}

	status.CanIndex = s.services.Config().CanIndex()
	status.CanAnswer = s.services.Config().CanAnswer()

	return status, nil
}

// GetAIStatus returns the current status of AI services
func (s *settingsService) GetAIStatus(ctx context.Context) (*driving.AISettingsStatus, error) {
	aiSettings, _ := s.settingsStore.GetAISettings(ctx)

	status := &driving.AISettingsStatus{}

	// Embedding status
	embSvc := s.services.EmbeddingService()
	if embSvc != nil {
		status.Embedding = driving.AIServiceStatus{
			Available:    true,
			Model:        embSvc.Model(),
			EmbeddingDim: embSvc.Dimensions(),
		}
		if aiSettings != nil {
			status.Embedding.Provider = aiSettings.Embedding.Provider
		}
	}

	// Generation status
	genSvc := s.services.GenerationService()
	if genSvc != nil {
		status.Generation = driving.AIServiceStatus{
			Available: true,
			Model:     genSvc.Model(),
		}
		if aiSettings != nil {
			status.Generation.Provider = aiSettings.Generation.Provider
		}
	}

	status.CanIndex = s.services.Config().CanIndex()
	status.CanAnswer = s.services.Config().CanAnswer()

	return status, nil
}

// TestConnection tests the AI provider connections
func (s *settingsService) TestConnection(ctx context.Context) error {
	embSvc := s.services.EmbeddingService()
	if embSvc != nil {
		if err := embSvc.HealthCheck(ctx); err != nil {
			return err
		}
	}

	genSvc := s.services.GenerationService()
	if genSvc != nil {
		if err := genSvc.Ping(ctx); err != nil {
			return err
		}
	}

	return nil
}
