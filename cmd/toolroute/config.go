package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/toolroute/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify toolroute configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/toolroute/config.yaml
Project-specific overrides can be placed in .toolroute.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			printStatus(out, "✓", fmt.Sprintf("Set %s in %s", args[0], config.GetUserConfigPath()), okColor)
			return nil
		}
	},
}

// configKeys lists every key in display order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.base_url",
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"anthropic.max_tokens",
	"catalog.path",
	"catalog.watch",
	"credentials.db_path",
	"resolver.concurrency",
	"engine.max_iterations",
	"engine.system_prompt",
	"server.addr",
	"logging.level",
	"logging.development",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "(model credentials: %s)\n", config.GetAPIKeySource(cfg))
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.base_url":
		return cfg.Anthropic.BaseURL, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "anthropic.max_tokens":
		return strconv.Itoa(cfg.Anthropic.MaxTokens), nil
	case "catalog.path":
		return cfg.Catalog.Path, nil
	case "catalog.watch":
		return strconv.FormatBool(cfg.Catalog.Watch), nil
	case "credentials.db_path":
		return cfg.Credentials.DBPath, nil
	case "resolver.concurrency":
		return strconv.Itoa(cfg.Resolver.Concurrency), nil
	case "engine.max_iterations":
		return strconv.Itoa(cfg.Engine.MaxIterations), nil
	case "engine.system_prompt":
		return cfg.Engine.SystemPrompt, nil
	case "server.addr":
		return cfg.Server.Addr, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.development":
		return strconv.FormatBool(cfg.Logging.Development), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.use_bedrock":
		return setBool(&cfg.Anthropic.UseBedrock, key, value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "anthropic.max_tokens":
		return setPositiveInt(&cfg.Anthropic.MaxTokens, key, value)
	case "catalog.path":
		cfg.Catalog.Path = value
	case "catalog.watch":
		return setBool(&cfg.Catalog.Watch, key, value)
	case "credentials.db_path":
		cfg.Credentials.DBPath = value
	case "resolver.concurrency":
		return setPositiveInt(&cfg.Resolver.Concurrency, key, value)
	case "engine.max_iterations":
		return setPositiveInt(&cfg.Engine.MaxIterations, key, value)
	case "engine.system_prompt":
		cfg.Engine.SystemPrompt = value
	case "server.addr":
		cfg.Server.Addr = value
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.development":
		return setBool(&cfg.Logging.Development, key, value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setPositiveInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 1 {
		return fmt.Errorf("%s must be at least 1", key)
	}
	*dst = n
	return nil
}
