package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for treesum
type Config struct {
	// Checksum calculation settings
	Calculate CalculateConfig `yaml:"calculate" json:"calculate"`

	// Progress display preferences
	Progress ProgressConfig `yaml:"progress" json:"progress"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CalculateConfig holds checksum calculation settings
type CalculateConfig struct {
	Parallel    int  `yaml:"parallel" json:"parallel"`
	DetailFiles bool `yaml:"detail_files" json:"detail_files"`
}

// ProgressConfig holds progress display preferences
type ProgressConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Calculate: CalculateConfig{
			Parallel:    1,
			DetailFiles: false,
		},
		Progress: ProgressConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if parallel := os.Getenv("TREESUM_PARALLEL"); parallel != "" {
		if val, err := strconv.Atoi(parallel); err == nil && val > 0 {
			c.Calculate.Parallel = val
		}
	}
	if detail := os.Getenv("TREESUM_DETAIL_FILES"); detail != "" {
		c.Calculate.DetailFiles = strings.ToLower(detail) == "true"
	}
	if progress := os.Getenv("TREESUM_PROGRESS"); progress != "" {
		c.Progress.Enabled = strings.ToLower(progress) == "true"
	}
	if logLevel := os.Getenv("TREESUM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("TREESUM_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".treesum.yaml",
		".treesum.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "treesum", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "treesum", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".treesum.yaml"),
		filepath.Join(os.Getenv("HOME"), ".treesum.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Calculate.Parallel <= 0 {
		errs = append(errs, errors.New("parallel must be positive"))
	}
	if c.Calculate.Parallel > 128 {
		errs = append(errs, errors.New("parallel should not exceed 128"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if parallel, ok := flags["parallel"].(int); ok && parallel > 0 {
		c.Calculate.Parallel = parallel
	}
	if detail, ok := flags["detail-files"].(bool); ok {
		c.Calculate.DetailFiles = detail
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.Progress.Enabled = progress
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".treesum.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
