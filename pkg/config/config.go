// Package config holds run settings loaded from an optional YAML or TOML file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/srodi/topres/pkg/report"
	"github.com/srodi/topres/pkg/sampler"
	"github.com/srodi/topres/pkg/types"
)

// Config is the full set of run settings.
type Config struct {
	Rounds       int      `yaml:"rounds" toml:"rounds"`
	Interval     Duration `yaml:"interval" toml:"interval"`
	TopN         int      `yaml:"top_n" toml:"top_n"`
	OutputDir    string   `yaml:"output_dir" toml:"output_dir"`
	Format       string   `yaml:"format" toml:"format"`
	Retention    Duration `yaml:"retention" toml:"retention"`
	ReportPrefix string   `yaml:"report_prefix" toml:"report_prefix"`
	ProcPath     string   `yaml:"proc_path" toml:"proc_path"`
	LogLevel     string   `yaml:"log_level" toml:"log_level"`
	Banner       bool     `yaml:"banner" toml:"banner"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Rounds:       types.DefaultRounds,
		Interval:     Duration{types.DefaultInterval},
		TopN:         types.DefaultTopK,
		OutputDir:    ".",
		Format:       string(report.JSON),
		Retention:    Duration{types.DefaultRetention},
		ReportPrefix: report.DefaultPrefix,
		LogLevel:     "info",
		Banner:       true,
	}
}

// LoadFromFile reads path over the defaults, choosing the decoder by extension.
// An empty path returns the defaults.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	}
	return nil, fmt.Errorf("unsupported config extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
}

// LoadYAML decodes YAML settings over the defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding yaml config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadTOML decodes TOML settings over the defaults.
func LoadTOML(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding toml config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the run cannot use.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Retention.Duration <= 0 {
		return fmt.Errorf("retention must be positive, got %v", c.Retention.Duration)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.ReportPrefix == "" {
		return fmt.Errorf("report_prefix must not be empty")
	}
	return nil
}

// Params converts the sampling settings for the loop.
func (c *Config) Params() sampler.Params {
	return sampler.Params{
		Rounds:   c.Rounds,
		Interval: c.Interval.Duration,
		TopN:     c.TopN,
	}
}
