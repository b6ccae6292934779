// Package config reads and writes orcafacil.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/orcafacil/orcafacil/internal/money"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/validate"
)

// FileName is the config file looked up in the working directory.
const FileName = "orcafacil.yaml"

// EnvDatabaseURL overrides Database.DSN when set.
const EnvDatabaseURL = "DATABASE_URL"

// Config represents the top-level orcafacil.yaml configuration.
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Export     ExportConfig     `yaml:"export"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Import     ImportConfig     `yaml:"import"`
}

// ValidationConfig holds strictness and the heuristic thresholds.
type ValidationConfig struct {
	Strictness string `yaml:"strictness"`
	// SourceScale is "major" (reais, the default) or "minor" for legacy sheets in centavos.
	SourceScale       string  `yaml:"source_scale"`
	MinorThreshold    int64   `yaml:"minor_threshold"`
	MajorFloor        int64   `yaml:"major_floor"`
	BatchScaleRatio   float64 `yaml:"batch_scale_ratio"`
	WarrantyMaxMonths int     `yaml:"warranty_max_months"`
	ValidityMaxDays   int     `yaml:"validity_max_days"`
	MaxEditDistance   int     `yaml:"max_edit_distance"`
}

// ReferenceConfig lists the known categories.
type ReferenceConfig struct {
	DeviceTypes    []string `yaml:"device_types"`
	PaymentMethods []string `yaml:"payment_methods"`
	CashMethods    []string `yaml:"cash_methods"`
}

// ExportConfig controls the export command.
type ExportConfig struct {
	// FindingsSheet adds a sheet with the validation findings to XLSX exports.
	FindingsSheet bool `yaml:"findings_sheet"`
}

// DatabaseConfig points at the Postgres store.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn,omitempty"`
	Table string `yaml:"table"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ImportConfig locates the inbox, relative to the config file.
type ImportConfig struct {
	Inbox string `yaml:"inbox"`
}

// Load reads an orcafacil.yaml file from disk. Fields missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to Default when path does not exist.
// It also loads a .env file next to path and applies environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		c.Database.DSN = dsn
	}
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

// Default returns a Config matching validate.DefaultRules.
func Default() *Config {
	rules := validate.DefaultRules()
	return &Config{
		Validation: ValidationConfig{
			Strictness:        string(rules.Strictness),
			SourceScale:       rules.SourceScale.String(),
			MinorThreshold:    money.DefaultMinorThreshold,
			MajorFloor:        money.DefaultMajorFloor,
			BatchScaleRatio:   rules.BatchScaleRatio,
			WarrantyMaxMonths: rules.WarrantyMaxMonths,
			ValidityMaxDays:   rules.ValidityMaxDays,
			MaxEditDistance:   rules.MaxEditDistance,
		},
		Reference: ReferenceConfig{
			DeviceTypes:    append([]string(nil), rules.DeviceTypes...),
			PaymentMethods: append([]string(nil), rules.PaymentMethods...),
			CashMethods:    append([]string(nil), rules.CashMethods...),
		},
		Export:   ExportConfig{FindingsSheet: true},
		Database: DatabaseConfig{Table: "budgets"},
		Server:   ServerConfig{Addr: ":8080"},
		Import:   ImportConfig{Inbox: "import"},
	}
}

// Options converts the validation and reference sections to pipeline options.
func (c *Config) Options() (pipeline.Options, error) {
	v := c.Validation
	strictness, err := validate.ParseStrictness(v.Strictness)
	if err != nil {
		return pipeline.Options{}, err
	}

	var scale money.Scale
	switch v.SourceScale {
	case "", "major":
		scale = money.MajorUnit
	case "minor":
		scale = money.MinorUnit
	default:
		return pipeline.Options{}, fmt.Errorf("unknown source scale %q", v.SourceScale)
	}

	if v.MinorThreshold <= 0 || v.MajorFloor < 0 {
		return pipeline.Options{}, fmt.Errorf("scale thresholds must be positive")
	}
	if v.BatchScaleRatio <= 0 || v.BatchScaleRatio > 1 {
		return pipeline.Options{}, fmt.Errorf("batch_scale_ratio must be in (0, 1], got %v", v.BatchScaleRatio)
	}

	return pipeline.Options{Rules: validate.Rules{
		Strictness:        strictness,
		SourceScale:       scale,
		Scale:             money.NewConverter(v.MinorThreshold, v.MajorFloor),
		DeviceTypes:       c.Reference.DeviceTypes,
		PaymentMethods:    c.Reference.PaymentMethods,
		CashMethods:       c.Reference.CashMethods,
		MaxEditDistance:   v.MaxEditDistance,
		WarrantyMaxMonths: v.WarrantyMaxMonths,
		ValidityMaxDays:   v.ValidityMaxDays,
		BatchScaleRatio:   v.BatchScaleRatio,
	}}, nil
}

// InboxPath resolves the inbox against root unless it is absolute.
func (c *Config) InboxPath(root string) string {
	if filepath.IsAbs(c.Import.Inbox) {
		return c.Import.Inbox
	}
	return filepath.Join(root, c.Import.Inbox)
}
