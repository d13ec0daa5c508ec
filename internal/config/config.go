// Package config loads keaview settings from the environment and an
// optional YAML file. Values from the file take precedence over the
// environment; command line flags are applied by the caller afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server is a Kea Control Agent to query.
type Server struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config holds all settings.
type Config struct {
	Servers  []Server      `yaml:"servers"`
	Service  string        `yaml:"service" env:"KEAVIEW_SERVICE" envDefault:"dhcp4"`
	Timeout  time.Duration `yaml:"timeout" env:"KEAVIEW_TIMEOUT" envDefault:"5s"`
	Retries  int           `yaml:"retries" env:"KEAVIEW_RETRIES" envDefault:"5"`
	LogLevel string        `yaml:"log-level" env:"KEAVIEW_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool          `yaml:"log-json" env:"KEAVIEW_LOG_JSON"`
	// Excluded lists parameters hidden from parameter tables.
	Excluded []string `yaml:"excluded-parameters" env:"KEAVIEW_EXCLUDED_PARAMETERS" envSeparator:","`
	// VersionsFile points to the YAML list of known releases.
	VersionsFile string `yaml:"versions-file" env:"KEAVIEW_VERSIONS_FILE"`
	Listen       string `yaml:"listen" env:"KEAVIEW_LISTEN" envDefault:":9547"`
}

// Load reads the environment and then overlays the YAML file at path, if
// path is not empty.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return &cfg, nil
}

// ParseServer parses a "name=url" flag value. A bare URL is named after
// its host.
func ParseServer(s string) (Server, error) {
	name, url, found := strings.Cut(s, "=")
	if !found {
		url = s
		name = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(s, "http://"), "https://"), "/")
	}
	if url == "" || name == "" {
		return Server{}, fmt.Errorf("invalid server %q, expected name=url", s)
	}
	return Server{Name: name, URL: url}, nil
}

// Validate checks the settings needed to query servers.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Servers) == 0 {
		errs = append(errs, errors.New("at least one server is required"))
	}
	seen := make(map[string]bool)
	for _, s := range c.Servers {
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("server %q has no url", s.Name))
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate server name %q", s.Name))
		}
		seen[s.Name] = true
	}
	if c.Service == "" {
		errs = append(errs, errors.New("--service is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("--timeout must be positive"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	return errors.Join(errs...)
}
