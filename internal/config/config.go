package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Error-handling policies selectable in the run configuration.
const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

// Config is the optional YAML run configuration.
type Config struct {
	// ServicesFile points at an IANA service-names export; empty means the
	// embedded default registry.
	ServicesFile string `yaml:"services_file"`
	// ServicesDelimiter is the field delimiter of that file, default ",".
	ServicesDelimiter string `yaml:"services_delimiter"`
	// OnMalformedRow: what to do with a service row lacking name or port.
	OnMalformedRow string `yaml:"on_malformed_row"`
	// OnResolveError: what to do with a rule whose service name cannot be
	// resolved for its protocol.
	OnResolveError string `yaml:"on_resolve_error"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ServicesDelimiter: ",",
		OnMalformedRow:    PolicySkip,
		OnResolveError:    PolicyAbort,
	}
}

// LoadConfig reads and parses the YAML configuration file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %v", err)
	}
	// Set defaults if not specified
	if cfg.ServicesDelimiter == "" {
		cfg.ServicesDelimiter = ","
	}
	if cfg.OnMalformedRow == "" {
		cfg.OnMalformedRow = PolicySkip
	}
	if cfg.OnResolveError == "" {
		cfg.OnResolveError = PolicyAbort
	}
	// Validate policies
	if len([]rune(cfg.ServicesDelimiter)) != 1 {
		return nil, fmt.Errorf("invalid services_delimiter: %q, must be a single character", cfg.ServicesDelimiter)
	}
	if cfg.OnMalformedRow != PolicySkip && cfg.OnMalformedRow != PolicyAbort {
		return nil, fmt.Errorf("invalid on_malformed_row: %s, must be 'skip' or 'abort'", cfg.OnMalformedRow)
	}
	if cfg.OnResolveError != PolicySkip && cfg.OnResolveError != PolicyAbort {
		return nil, fmt.Errorf("invalid on_resolve_error: %s, must be 'skip' or 'abort'", cfg.OnResolveError)
	}
	return &cfg, nil
}

// Delimiter returns ServicesDelimiter as a rune.
func (c *Config) Delimiter() rune {
	return []rune(c.ServicesDelimiter)[0]
}
