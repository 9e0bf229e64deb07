package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"SURVEY_DATA", "SURVEY_SHEET", "SURVEY_LOG_LEVEL", "PORT", "DATABASE_URL", "SURVEY_PG_TABLE", "SURVEY_MIN_PAIRS"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Sheet1", cfg.Data.Sheet)
	assert.Equal(t, []string{"18 -28", "29 - 44"}, cfg.Analysis.AgeGroups)
	assert.Equal(t, 10, cfg.Analysis.MinPairs)
	assert.Equal(t, 5, cfg.Analysis.MinGroupSize)
	assert.Equal(t, 2, cfg.Analysis.MinExclusivityItems)
	assert.Equal(t, 3.0, cfg.Analysis.NeutralMean)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.Data.Postgres.Enabled())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "survey.yaml")

	cfg := DefaultConfig()
	cfg.Data.Path = "/data/responses.csv"
	cfg.Analysis.MinPairs = 12

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/responses.csv", loaded.Data.Path)
	assert.Equal(t, 12, loaded.Analysis.MinPairs)
	assert.Equal(t, 5, loaded.Analysis.MinGroupSize)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  sheet: Responses\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Responses", cfg.Data.Sheet)
	assert.Equal(t, "data_survey_for_python.xlsx", cfg.Data.Path)
	assert.Equal(t, 10, cfg.Analysis.MinPairs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", cfg.Data.Sheet)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SURVEY_DATA", "env.xlsx")
	t.Setenv("SURVEY_SHEET", "Raw")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/survey")
	t.Setenv("SURVEY_PG_TABLE", "responses")
	t.Setenv("SURVEY_MIN_PAIRS", "20")

	path := filepath.Join(t.TempDir(), "survey.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.xlsx", cfg.Data.Path)
	assert.Equal(t, "Raw", cfg.Data.Sheet)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Analysis.MinPairs)
	assert.True(t, cfg.Data.Postgres.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min pairs", func(c *Config) { c.Analysis.MinPairs = 2 }},
		{"group size", func(c *Config) { c.Analysis.MinGroupSize = 1 }},
		{"exclusivity items", func(c *Config) { c.Analysis.MinExclusivityItems = 0 }},
		{"thresholds inverted", func(c *Config) { c.Analysis.DisagreeThreshold = 4 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
