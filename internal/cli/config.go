package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file of the check command. Zero
// values leave the flag defaults in place.
type Config struct {
	Privacy        string `yaml:"privacy"`
	Utility        string `yaml:"utility"`
	Evaluator      string `yaml:"evaluator"`
	Database       string `yaml:"db"`
	Parallelism    int    `yaml:"parallelism"`
	MaxDomain      int    `yaml:"max_domain"`
	MaxSearchNodes int    `yaml:"max_search_nodes"`
}

// LoadConfig reads a configuration file, rejecting unknown keys.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Parallelism < 0 || cfg.MaxDomain < 0 || cfg.MaxSearchNodes < 0 {
		return nil, fmt.Errorf("config %s: limits must be non-negative", path)
	}
	return &cfg, nil
}

// apply copies configured values into opts for every flag the user did
// not set explicitly.
func (c *Config) apply(opts *CheckOptions, flags *pflag.FlagSet) {
	setString := func(name string, dst *string, v string) {
		if v != "" && !flags.Changed(name) {
			*dst = v
		}
	}
	setInt := func(name string, dst *int, v int) {
		if v != 0 && !flags.Changed(name) {
			*dst = v
		}
	}

	setString("privacy", &opts.Privacy, c.Privacy)
	setString("utility", &opts.Utility, c.Utility)
	setString("evaluator", &opts.Evaluator, c.Evaluator)
	setString("db", &opts.Database, c.Database)
	setInt("parallelism", &opts.Parallelism, c.Parallelism)
	setInt("max-domain", &opts.MaxDomain, c.MaxDomain)
	setInt("max-search-nodes", &opts.MaxSearchNodes, c.MaxSearchNodes)
}
