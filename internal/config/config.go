package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Backend    BackendConfig   `mapstructure:"backend"`
	Guidelines []string        `mapstructure:"guidelines"`
	Redaction  RedactionConfig `mapstructure:"redaction"`
	TUI        TUIConfig       `mapstructure:"tui"`
	History    HistoryConfig   `mapstructure:"history"`
}

type BackendConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Model          string `mapstructure:"model"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TUIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

// RepoConfig is per-repository, read from ./.revu.yaml.
type RepoConfig struct {
	Guidelines []string     `mapstructure:"guidelines"`
	Staged     StagedConfig `mapstructure:"staged"`
}

type StagedConfig struct {
	FailOn string `mapstructure:"fail_on"` // critical|high|never
}

func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 120,
			Model:          "mistral",
		},
		Guidelines: []string{},
		Redaction:  RedactionConfig{Enabled: true},
		TUI:        TUIConfig{Enabled: true},
		History:    HistoryConfig{Limit: 20},
	}
}

func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		Guidelines: []string{},
		Staged:     StagedConfig{FailOn: "high"},
	}
}

func Load(configPath string) (Config, RepoConfig, error) {
	userCfg := Defaults()
	repoCfg := DefaultRepoConfig()

	if err := loadUserConfig(configPath, &userCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}
	if err := loadRepoConfig(&repoCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}

	if userCfg.Backend.URL == "" {
		userCfg.Backend.URL = "http://localhost:8000"
	}
	if userCfg.Backend.TimeoutSeconds == 0 {
		userCfg.Backend.TimeoutSeconds = 120
	}
	if userCfg.Backend.Model == "" {
		userCfg.Backend.Model = "mistral"
	}
	if userCfg.History.Limit == 0 {
		userCfg.History.Limit = 20
	}
	if repoCfg.Staged.FailOn == "" {
		repoCfg.Staged.FailOn = "high"
	}

	return userCfg, repoCfg, nil
}

func loadUserConfig(configPath string, cfg *Config) error {
	path := configPath
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".revu", "config.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read user config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load user config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse user config: %w", err)
	}
	return nil
}

func loadRepoConfig(cfg *RepoConfig) error {
	path := filepath.Join(".", ".revu.yaml")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read repo config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse repo config: %w", err)
	}
	return nil
}
