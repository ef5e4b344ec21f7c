// Package config loads and saves finstate.yaml, the per-repo project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/finstate/internal/importer"
	"github.com/cleared-dev/finstate/internal/model"
)

// FileName is the project file at the root of a company repo.
const FileName = "finstate.yaml"

// Environment variables that override the project file.
const (
	EnvDatabaseURL = "FINSTATE_DATABASE_URL"
	EnvLogLevel    = "FINSTATE_LOG_LEVEL"
)

// Config represents the top-level finstate.yaml configuration.
type Config struct {
	Company   CompanyConfig        `yaml:"company"`
	Reporting ReportingConfig      `yaml:"reporting"`
	Opening   model.OpeningBalance `yaml:"opening,omitempty"`
	Import    ImportConfig         `yaml:"import,omitempty"`
	Database  DatabaseConfig       `yaml:"database,omitempty"`
	Portfolio []CompanyRef         `yaml:"portfolio,omitempty"`
	Log       LogConfig            `yaml:"log"`
}

// CompanyConfig identifies the company whose ledger lives in the repo.
type CompanyConfig struct {
	Name     string `yaml:"name"`
	ID       string `yaml:"id"`       // key in the database
	Currency string `yaml:"currency"` // ISO 4217, used for display only
}

// ReportingConfig holds the defaults of the statement commands.
type ReportingConfig struct {
	Granularity string          `yaml:"granularity"`
	OpeningCash decimal.Decimal `yaml:"opening_cash"`
	Epsilon     decimal.Decimal `yaml:"epsilon,omitempty"`
	SkipEmpty   bool            `yaml:"skip_empty,omitempty"`
}

// ImportConfig controls bank CSV imports.
type ImportConfig struct {
	Format string          `yaml:"format,omitempty"`
	Rules  []importer.Rule `yaml:"rules,omitempty"`
}

// DatabaseConfig points at the optional Postgres statement store.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// CompanyRef is one member of a portfolio: a name and the path of its repo,
// relative to this file unless absolute.
type CompanyRef struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// LogConfig sets the log level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a finstate.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadRepo reads <repoRoot>/finstate.yaml, loads <repoRoot>/.env if present
// and applies environment overrides.
func LoadRepo(repoRoot string) (*Config, error) {
	cfg, err := Load(filepath.Join(repoRoot, FileName))
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(filepath.Join(repoRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides file settings with non-empty environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Default returns a Config with sensible defaults for a new company.
func Default(companyName, currency string) *Config {
	if currency == "" {
		currency = "USD"
	}
	return &Config{
		Company: CompanyConfig{
			Name:     companyName,
			Currency: currency,
		},
		Reporting: ReportingConfig{
			Granularity: "month",
			OpeningCash: decimal.Zero,
		},
		Import: ImportConfig{
			Format: "chase",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// PortfolioPath resolves a member's repo path against the directory of the
// portfolio file.
func PortfolioPath(baseDir string, ref CompanyRef) string {
	if filepath.IsAbs(ref.Path) {
		return ref.Path
	}
	return filepath.Join(baseDir, ref.Path)
}
