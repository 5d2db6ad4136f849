package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Empty values read as unset, which pins the defaults regardless of
	// the surrounding environment.
	for _, key := range []string{"API_PORT", "EMBEDDINGS_DIMENSION", "CHUNK_MAX_TOKENS", "CHUNK_OVERLAP_TOKENS", "WORKER_DRAIN_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.APIPort != 8000 {
		t.Fatalf("expected default port 8000, got %d", cfg.APIPort)
	}
	if cfg.Embeddings.Dimension != 1536 {
		t.Fatalf("expected default dimension 1536, got %d", cfg.Embeddings.Dimension)
	}
	if cfg.Chunking.MaxTokens != 400 || cfg.Chunking.OverlapTokens != 40 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.WorkerDrainTimeout != 30*time.Second {
		t.Fatalf("unexpected drain timeout: %v", cfg.WorkerDrainTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9100")
	t.Setenv("EMBEDDINGS_PROVIDER", ProviderOllama)
	t.Setenv("CHUNK_MAX_TOKENS", "128")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example ,")

	cfg := Load()

	if cfg.APIPort != 9100 {
		t.Fatalf("expected port override, got %d", cfg.APIPort)
	}
	if cfg.Embeddings.Provider != ProviderOllama {
		t.Fatalf("expected ollama provider, got %q", cfg.Embeddings.Provider)
	}
	if cfg.Chunking.MaxTokens != 128 {
		t.Fatalf("expected chunk override, got %d", cfg.Chunking.MaxTokens)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadMalformedIntFallsBack(t *testing.T) {
	t.Setenv("API_PORT", "not-a-number")

	cfg := Load()
	if cfg.APIPort != 8000 {
		t.Fatalf("malformed int must fall back to default, got %d", cfg.APIPort)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		OpenAIAPIKey: "sk-test",
		Embeddings:   EmbeddingsConfig{Provider: ProviderOpenAI, Dimension: 1536},
		LLM:          LLMConfig{Provider: ProviderOpenAI},
		Chunking:     ChunkingConfig{MaxTokens: 400, OverlapTokens: 40},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	missingKey := base
	missingKey.OpenAIAPIKey = ""
	if err := missingKey.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}

	ollamaOnly := missingKey
	ollamaOnly.Embeddings.Provider = ProviderOllama
	ollamaOnly.LLM.Provider = ProviderOllama
	if err := ollamaOnly.Validate(); err != nil {
		t.Fatalf("ollama config must not need an openai key: %v", err)
	}

	badDimension := base
	badDimension.Embeddings.Dimension = 0
	if err := badDimension.Validate(); err == nil {
		t.Fatal("expected dimension error")
	}

	badOverlap := base
	badOverlap.Chunking.OverlapTokens = -1
	if err := badOverlap.Validate(); err == nil {
		t.Fatal("expected overlap error")
	}
}
