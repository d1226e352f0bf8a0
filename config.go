package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for deployment.
type Config struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// DefaultLocation receives purchase order stock when no destination
	// is set anywhere along the fallback chain.
	DefaultLocation string `yaml:"default_location"`

	UploadsDir string `yaml:"uploads_dir"`

	Company struct {
		Name     string `yaml:"name"`
		Currency string `yaml:"currency"`
	} `yaml:"company"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var c Config
	c.Port = 9000
	c.DBPath = "stockflow.db"
	c.DefaultLocation = "Receiving"
	c.UploadsDir = "uploads"
	c.Company.Name = "Your Company"
	c.Company.Currency = "USD"
	return c
}

// LoadConfig reads the YAML config at path, falling back to defaults for
// any field left unset. Environment variables STOCKFLOW_DB and
// STOCKFLOW_COMPANY_NAME override the file.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("STOCKFLOW_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("STOCKFLOW_COMPANY_NAME"); v != "" {
		c.Company.Name = v
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	return c, nil
}
