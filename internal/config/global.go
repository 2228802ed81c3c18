// Package config loads global basset settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds global basset settings from ~/.basset/config.yaml.
type GlobalConfig struct {
	// Output is the default compilation database path.
	Output string `yaml:"output"`
	// Verbose is the default verbosity.
	Verbose bool `yaml:"verbose"`

	Compilers CompilerConfig `yaml:"compilers"`
	Sources   SourceConfig   `yaml:"sources"`
}

// CompilerConfig extends the compiler matcher.
type CompilerConfig struct {
	// ExtraPatterns are additional end-anchored regular expressions
	// matched against the executable path of every observed exec.
	ExtraPatterns []string `yaml:"extra_patterns"`
}

// SourceConfig extends the source-file recogniser.
type SourceConfig struct {
	// ExtraExtensions are additional file extensions (without the dot)
	// treated as compilation sources.
	ExtraExtensions []string `yaml:"extra_extensions"`
}

// DefaultGlobalConfig returns the default global configuration.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Output: "compile_commands.json",
	}
}

// LoadGlobal reads ~/.basset/config.yaml and applies environment overrides.
// The config file is advisory: a missing or malformed file yields defaults.
func LoadGlobal() *GlobalConfig {
	cfg := DefaultGlobalConfig()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".basset", "config.yaml")
		if data, err := os.ReadFile(configPath); err == nil {
			_ = yaml.Unmarshal(data, cfg) // Ignore unmarshal errors, use defaults
		}
	}
	if cfg.Output == "" {
		cfg.Output = "compile_commands.json"
	}

	// Apply environment overrides
	if out := os.Getenv("BASSET_OUTPUT"); out != "" {
		cfg.Output = out
	}
	if v := os.Getenv("BASSET_VERBOSE"); v != "" {
		if verbose, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = verbose
		}
	}

	return cfg
}

// GlobalConfigDir returns the path to ~/.basset.
func GlobalConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".basset")
	}
	return filepath.Join(homeDir, ".basset")
}
