package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type Config struct {
	Storage       string `yaml:"storage"` // file|sqlite
	StoragePath   string `yaml:"storage_path"`
	ServerBaseURL string `yaml:"server_base_url"`
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	ExportDir     string `yaml:"export_dir"`
}

func DefaultConfig() Config {
	return Config{
		Storage:       StorageFile,
		ServerBaseURL: "http://localhost:11434",
		Model:         "llama3.2",
		MaxTokens:     4096,
	}
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage)
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// OpenBackend builds the persistence backend the config asks for.
func (c Config) OpenBackend() (Backend, error) {
	switch c.Storage {
	case StorageSQLite:
		return NewSQLiteBackend(c.StoragePath)
	default:
		return NewFileBackend(c.StoragePath), nil
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageFile
	}
	if cfg.ServerBaseURL == "" {
		cfg.ServerBaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return cfg, cfg.Validate()
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "lchat", "config.yml")
}
