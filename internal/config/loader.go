package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"toolgate/internal/domain"
)

// Default returns the configuration used when no file is present.
func Default() *domain.Config {
	return &domain.Config{
		HTTP:  domain.HTTPConfig{Port: 8080},
		Infra: domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		Upstream: domain.UpstreamConfig{
			MaxRetries:           3,
			TimeoutSeconds:       30,
			MaxConcurrentFetches: 5,
		},
		Directory: domain.DirectoryConfig{RefreshSchedule: "@every 6h"},
		Archive:   domain.ArchiveConfig{Path: "toolgate.db"},
		Files:     domain.FilesConfig{Root: "data"},
		Shortener: domain.ShortenerConfig{BaseURL: "http://localhost:8080/s"},
		OpenAI: domain.OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ReasoningModel: "o1",
		},
	}
}

// WriteDefault writes Default to path as indented JSON. Parent directories
// are not created.
func WriteDefault(path string) error {
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads path and unmarshals it over Default, so absent keys keep their
// defaults. YAML is detected by extension, anything else is parsed as JSON.
// Path fields are cleaned to mitigate traversal.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	}
	cfg.Archive.Path = filepath.Clean(cfg.Archive.Path)
	cfg.Files.Root = filepath.Clean(cfg.Files.Root)
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("config: http port must be 0-65535")
	}
	return cfg, nil
}
