// Package config loads CLI configuration from file, environment, and flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultModel    = "gpt-4o-mini"
	DefaultDatabase = ":memory:"
	DefaultFormat   = "table"
)

// Config holds all CLI configuration options.
type Config struct {
	// APIKey authenticates against the model provider. Never persisted;
	// read from config sources or entered interactively in the REPL.
	APIKey string `koanf:"api_key"`

	// Model is the chat completion model name.
	Model string `koanf:"model"`

	// BaseURL overrides the provider endpoint (for OpenAI-compatible hosts).
	BaseURL string `koanf:"base_url"`

	// DatabasePath is the DuckDB path; ":memory:" keeps the session ephemeral.
	DatabasePath string `koanf:"database"`

	// Format is the result output format (table|json|csv|md).
	Format string `koanf:"format"`

	// HistoryFile stores REPL input history.
	HistoryFile string `koanf:"history_file"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

// findConfigFile finds the config file to use.
// Priority: explicit path > askdb.yaml > askdb.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"askdb.yaml", "askdb.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"model":        DefaultModel,
		"database":     DefaultDatabase,
		"format":       DefaultFormat,
		"history_file": defaultHistoryFile(),
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// ASKDB_API_KEY -> api_key
	if err := k.Load(env.Provider("ASKDB_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ASKDB_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Fall back to the provider's conventional variable for the key.
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &cfg, nil
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".askdb_history"
	}
	return home + "/.askdb_history"
}
