package domain

import (
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("pgvector", "redis")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.IndexBackend != "pgvector" {
		t.Errorf("expected pgvector, got %s", config.IndexBackend)
	}
	if config.QueueBackend != "redis" {
		t.Errorf("expected redis, got %s", config.QueueBackend)
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable initially")
	}
	if config.GenerationAvailable() {
		t.Error("expected generation to be unavailable initially")
	}
}

func TestRuntimeConfig_EmbeddingAvailable(t *testing.T) {
	config := NewRuntimeConfig("memory", "postgres")

	// Initially unavailable
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable initially")
	}

	// Set available
	config.SetEmbeddingAvailable(true)
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available after setting")
	}

	// Set unavailable
	config.SetEmbeddingAvailable(false)
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable after clearing")
	}
}

func TestRuntimeConfig_GenerationAvailable(t *testing.T) {
	config := NewRuntimeConfig("memory", "postgres")

	if config.GenerationAvailable() {
		t.Error("expected generation to be unavailable initially")
	}

	config.SetGenerationAvailable(true)
	if !config.GenerationAvailable() {
		t.Error("expected generation to be available after setting")
	}

	config.SetGenerationAvailable(false)
	if config.GenerationAvailable() {
		t.Error("expected generation to be unavailable after clearing")
	}
}

func TestRuntimeConfig_CanIndex(t *testing.T) {
	config := NewRuntimeConfig("memory", "redis")

	if config.CanIndex() {
		t.Error("expected indexing to be unavailable without embedding")
	}

	config.SetEmbeddingAvailable(true)
	if !config.CanIndex() {
		t.Error("expected indexing to be available with embedding")
	}
}

func TestRuntimeConfig_CanAnswer(t *testing.T) {
	config := NewRuntimeConfig("memory", "redis")

	if config.CanAnswer() {
		t.Error("expected answering to be unavailable initially")
	}

	config.SetEmbeddingAvailable(true)
	if config.CanAnswer() {
		t.Error("expected answering to need generation too")
	}

	config.SetGenerationAvailable(true)
	if !config.CanAnswer() {
		t.Error("expected answering with both services available")
	}
}

func TestRuntimeConfig_ConcurrentAccess(t *testing.T) {
	config := NewRuntimeConfig("pgvector", "redis")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			config.SetEmbeddingAvailable(v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = config.CanAnswer()
		}()
	}
	wg.Wait()
}
