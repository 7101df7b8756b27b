package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultDatabase, cfg.DatabasePath)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdb.yaml")
	content := "model: gpt-4o\nformat: json\ndatabase: /tmp/askdb.duckdb\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/tmp/askdb.duckdb", cfg.DatabasePath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: from-file\n"), 0o644))

	t.Setenv("ASKDB_MODEL", "from-env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ASKDB_FORMAT", "csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "", "")
	require.NoError(t, flags.Parse([]string{"--format", "md"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "md", cfg.Format)
}

func TestUnchangedFlagsIgnored(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("ASKDB_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-fallback", cfg.APIKey)
}
