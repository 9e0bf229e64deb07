package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "survey.yaml"

// Config holds all survey analysis configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig locates the survey dataset.
type DataConfig struct {
	Path     string         `yaml:"path"`  // .xlsx or .csv
	Sheet    string         `yaml:"sheet"` // workbook sheet, ignored for csv
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig configures loading the survey from a Postgres table.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Table    string `yaml:"table"`
	Limit    int    `yaml:"limit"`
	URL      string `yaml:"url"` // takes precedence over the discrete fields
}

// Enabled reports whether the dataset should come from Postgres.
func (p PostgresConfig) Enabled() bool {
	return p.Table != "" && (p.URL != "" || p.Host != "")
}

// AnalysisConfig holds the thresholds of the hypothesis batteries.
type AnalysisConfig struct {
	AgeGroups            []string `yaml:"age_groups"`
	MinPairs             int      `yaml:"min_pairs"`
	MinGroupSize         int      `yaml:"min_group_size"`
	AgreeThreshold       float64  `yaml:"agree_threshold"`
	DisagreeThreshold    float64  `yaml:"disagree_threshold"`
	NeutralMean          float64  `yaml:"neutral_mean"`
	MinExclusivityItems  int      `yaml:"min_exclusivity_items"`
	MinExclusivitySample int      `yaml:"min_exclusivity_sample"`
	StatusAgreeThreshold float64  `yaml:"status_agree_threshold"`
	FisherBelowExpected  float64  `yaml:"fisher_below_expected"`
}

// ServerConfig configures `survey serve`.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration the original analysis ran with.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:  "data_survey_for_python.xlsx",
			Sheet: "Sheet1",
			Postgres: PostgresConfig{
				Port:    5432,
				SSLMode: "disable",
				Limit:   10000,
			},
		},
		Analysis: AnalysisConfig{
			AgeGroups:            []string{"18 -28", "29 - 44"},
			MinPairs:             10,
			MinGroupSize:         5,
			AgreeThreshold:       4,
			DisagreeThreshold:    2,
			NeutralMean:          3.0,
			MinExclusivityItems:  2,
			MinExclusivitySample: 5,
			StatusAgreeThreshold: 4,
			FisherBelowExpected:  5,
		},
		Server: ServerConfig{
			Port:           "8001",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			MaxUploadBytes: 100 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path over DefaultConfig and applies
// environment overrides. A missing file is not an error when path is the
// default one.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && filepath.Clean(path) == DefaultPath:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SURVEY_DATA"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("SURVEY_SHEET"); v != "" {
		c.Data.Sheet = v
	}
	if v := os.Getenv("SURVEY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Data.Postgres.URL = v
	}
	if v := os.Getenv("SURVEY_PG_TABLE"); v != "" {
		c.Data.Postgres.Table = v
	}
	if v := os.Getenv("SURVEY_MIN_PAIRS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.MinPairs = n
		}
	}
}

// Validate rejects thresholds the batteries cannot run with.
func (c *Config) Validate() error {
	a := c.Analysis
	switch {
	case a.MinPairs < 3:
		return fmt.Errorf("analysis.min_pairs must be at least 3, got %d", a.MinPairs)
	case a.MinGroupSize < 2:
		return fmt.Errorf("analysis.min_group_size must be at least 2, got %d", a.MinGroupSize)
	case a.MinExclusivityItems < 1:
		return fmt.Errorf("analysis.min_exclusivity_items must be at least 1, got %d", a.MinExclusivityItems)
	case a.MinExclusivitySample < 2:
		return fmt.Errorf("analysis.min_exclusivity_sample must be at least 2, got %d", a.MinExclusivitySample)
	case a.DisagreeThreshold >= a.AgreeThreshold:
		return fmt.Errorf("analysis.disagree_threshold (%g) must be below agree_threshold (%g)", a.DisagreeThreshold, a.AgreeThreshold)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
