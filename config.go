package domedit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level domedit configuration.
type Config struct {
	// Listen is the HTTP control surface address.
	Listen string `yaml:"listen"`

	Page     PageConfig     `yaml:"page"`
	Drag     DragConfig     `yaml:"drag"`
	Sanitize SanitizeConfig `yaml:"sanitize"`
	Audit    AuditConfig    `yaml:"audit"`
}

// PageConfig selects the document to edit.
type PageConfig struct {
	// URL to open in the browser. Empty = no live page; the document is
	// supplied over the control surface instead.
	URL string `yaml:"url"`
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome.
	Remote string `yaml:"remote"`
}

// DragConfig controls drag session behaviour.
type DragConfig struct {
	// SettleDelay is how long a drop preview stays visible before the
	// element is restored and the move record emitted.
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// SanitizeConfig selects the markup policy for html/insert records.
type SanitizeConfig struct {
	// Profile: default | strict
	Profile string `yaml:"profile"`
}

// AuditConfig controls the local event log.
type AuditConfig struct {
	// Path of the SQLite database. Empty disables auditing.
	Path string `yaml:"path"`
	// RetentionDays before events are cleaned up. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("domedit: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8086"
	}
	if c.Drag.SettleDelay <= 0 {
		c.Drag.SettleDelay = 600 * time.Millisecond
	}
	if c.Sanitize.Profile == "" {
		c.Sanitize.Profile = "default"
	}
}
