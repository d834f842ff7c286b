package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when CALLREPORT_CONFIG
// is not set. A missing default file is not an error.
const DefaultFile = "callreport.yaml"

type Config struct {
	DatasetPath string         `yaml:"dataset_path"`
	Port        string         `yaml:"port"`
	Environment string         `yaml:"environment"`
	LogLevel    string         `yaml:"log_level"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Report      ReportConfig   `yaml:"report"`
	Taxonomy    TaxonomyConfig `yaml:"taxonomy"`
	Webhook     WebhookConfig  `yaml:"webhook"`
}

type AnalysisConfig struct {
	RingAllowanceSeconds int `yaml:"ring_allowance_seconds"`
}

type ReportConfig struct {
	AreaCodeMinCalls int `yaml:"area_code_min_calls"`
	AreaCodeTopN     int `yaml:"area_code_top_n"`
	CampaignMinCalls int `yaml:"campaign_min_calls"`
}

// TaxonomyConfig teaches the disposition parser account-specific labels.
// Aliases map a label onto a built-in one; NonLive labels count as
// "No Call Outcome".
type TaxonomyConfig struct {
	Aliases map[string]string `yaml:"aliases"`
	NonLive []string          `yaml:"non_live"`
}

type WebhookConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

func Default() *Config {
	return &Config{
		DatasetPath: "calls.csv",
		Port:        "8080",
		Environment: "local",
		LogLevel:    "info",
		Report: ReportConfig{
			AreaCodeMinCalls: 3,
			AreaCodeTopN:     20,
			CampaignMinCalls: 2,
		},
		Webhook: WebhookConfig{
			Timeout:    12 * time.Second,
			MaxElapsed: 30 * time.Second,
		},
	}
}

// Load layers defaults < YAML file < environment. Flags are applied by
// the binaries on top of the returned value.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("CALLREPORT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DatasetPath, "DATASET_PATH")
	setString(&c.Port, "PORT")
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Webhook.URL, "REPORT_WEBHOOK_URL")

	ints := []struct {
		key string
		dst *int
	}{
		{"RING_ALLOWANCE_SECONDS", &c.Analysis.RingAllowanceSeconds},
		{"AREA_CODE_MIN_CALLS", &c.Report.AreaCodeMinCalls},
		{"AREA_CODE_TOP_N", &c.Report.AreaCodeTopN},
		{"CAMPAIGN_MIN_CALLS", &c.Report.CampaignMinCalls},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", i.key, err)
		}
		*i.dst = n
	}

	if v := os.Getenv("WEBHOOK_MAX_ELAPSED"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WEBHOOK_MAX_ELAPSED: %w", err)
		}
		c.Webhook.MaxElapsed = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.Analysis.RingAllowanceSeconds < 0 {
		return fmt.Errorf("ring_allowance_seconds must be >= 0, got %d", c.Analysis.RingAllowanceSeconds)
	}
	if c.Report.AreaCodeMinCalls < 0 || c.Report.CampaignMinCalls < 0 {
		return errors.New("report minimum call counts must be >= 0")
	}
	if c.Report.AreaCodeTopN <= 0 {
		return fmt.Errorf("area_code_top_n must be > 0, got %d", c.Report.AreaCodeTopN)
	}
	return nil
}

// DispositionAliases merges the explicit aliases with the non-live list.
func (c *Config) DispositionAliases() map[string]string {
	out := make(map[string]string, len(c.Taxonomy.Aliases)+len(c.Taxonomy.NonLive))
	for label, target := range c.Taxonomy.Aliases {
		out[label] = target
	}
	for _, label := range c.Taxonomy.NonLive {
		out[label] = "No Call Outcome"
	}
	return out
}
