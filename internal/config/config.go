// Package config handles configuration loading and management for toolroute.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName           = "toolroute"
	projectConfigName = ".toolroute.yaml"
	envPrefix         = "TOOLROUTE"
)

// Config holds all configuration for toolroute.
type Config struct {
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
	MaxTokens  int    `mapstructure:"max_tokens"`
}

// CatalogConfig locates the provider catalog file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
	// Watch reloads the catalog when the file changes (serve only).
	Watch bool `mapstructure:"watch"`
}

// CredentialsConfig locates the credential store.
type CredentialsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ResolverConfig tunes capability-set resolution.
type ResolverConfig struct {
	// Concurrency bounds descriptor lookups within one capability set.
	Concurrency int `mapstructure:"concurrency"`
}

// EngineConfig tunes the final model turn.
type EngineConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TOOLROUTE_<SECTION>_<KEY>)
// 2. Project config (.toolroute.yaml in current directory or parent)
// 3. User config (~/.config/toolroute/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromPath loads configuration from a specific file, still honoring
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in secrets and paths
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Catalog.Path = expandEnv(cfg.Catalog.Path)
	cfg.Credentials.DBPath = expandEnv(cfg.Credentials.DBPath)

	if cfg.Resolver.Concurrency < 1 {
		return nil, fmt.Errorf("resolver.concurrency must be at least 1, got %d", cfg.Resolver.Concurrency)
	}
	if cfg.Engine.MaxIterations < 1 {
		return nil, fmt.Errorf("engine.max_iterations must be at least 1, got %d", cfg.Engine.MaxIterations)
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", envPrefix+"_ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL", envPrefix+"_ANTHROPIC_BASE_URL")
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes cfg as YAML to path, creating the parent directory.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.base_url", cfg.Anthropic.BaseURL)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("catalog.path", cfg.Catalog.Path)
	v.Set("catalog.watch", cfg.Catalog.Watch)
	v.Set("credentials.db_path", cfg.Credentials.DBPath)
	v.Set("resolver.concurrency", cfg.Resolver.Concurrency)
	v.Set("engine.max_iterations", cfg.Engine.MaxIterations)
	v.Set("engine.system_prompt", cfg.Engine.SystemPrompt)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.development", cfg.Logging.Development)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.base_url", d.Anthropic.BaseURL)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)
	v.SetDefault("anthropic.max_tokens", d.Anthropic.MaxTokens)

	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.watch", d.Catalog.Watch)
	v.SetDefault("credentials.db_path", d.Credentials.DBPath)

	v.SetDefault("resolver.concurrency", d.Resolver.Concurrency)
	v.SetDefault("engine.max_iterations", d.Engine.MaxIterations)
	v.SetDefault("engine.system_prompt", d.Engine.SystemPrompt)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
}

// getUserConfigDir returns the XDG config directory for toolroute.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .toolroute.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(getUserConfigDir(), "catalog.yaml"),
		},
		Resolver: ResolverConfig{
			Concurrency: 4,
		},
		Engine: EngineConfig{
			MaxIterations: 10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
