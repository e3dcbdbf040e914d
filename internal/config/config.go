// Package config handles configuration loading and validation for Refinery.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"refinery/internal/audit"
	"refinery/internal/composer"
	"refinery/internal/scanner"
	"refinery/internal/watcher"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidJSON     ConfigErrorType = "INVALID_JSON"
	InvalidYAML     ConfigErrorType = "INVALID_YAML"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidJSON:
		return fmt.Sprintf("invalid JSON in configuration file: %s", e.Message)
	case InvalidYAML:
		return fmt.Sprintf("invalid YAML in configuration file: %s", e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// Colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// EnvPrefix prefixes every environment override, e.g. REFINERY_MODE.
const EnvPrefix = "REFINERY"

// Configuration holds all settings for Refinery.
type Configuration struct {
	Mode           string               `json:"mode" yaml:"mode"`
	Artist         string               `json:"artist,omitempty" yaml:"artist,omitempty"`
	MusicDirectory string               `json:"musicDirectory,omitempty" yaml:"musicDirectory,omitempty"`
	Extensions     []string             `json:"extensions" yaml:"extensions"`
	ScanDepth      *int                 `json:"scanDepth,omitempty" yaml:"scanDepth,omitempty"` // nil scans without limit
	SymlinkPolicy  string               `json:"symlinkPolicy,omitempty" yaml:"symlinkPolicy,omitempty"`
	NukeMetadata   bool                 `json:"nukeMetadata" yaml:"nukeMetadata"`
	UndoDepth      int                  `json:"undoDepth" yaml:"undoDepth"` // 0 keeps every batch
	LogLevel       string               `json:"logLevel" yaml:"logLevel"`
	ColorMode      string               `json:"colorMode" yaml:"colorMode"`
	Journal        *audit.Config        `json:"journal,omitempty" yaml:"journal,omitempty"`
	Watch          *watcher.WatchConfig `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// envOverrides are read from REFINERY_* variables. Empty values leave the
// file's setting alone.
type envOverrides struct {
	Mode         string `envconfig:"MODE"`
	Artist       string `envconfig:"ARTIST"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	NukeMetadata string `envconfig:"NUKE_METADATA"`
}

// Default returns the configuration used when no file exists.
func Default() *Configuration {
	c := &Configuration{}
	c.ApplyDefaults()
	return c
}

// DefaultPath returns $XDG_CONFIG_HOME/refinery/config.json.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "refinery", "config.json")
}

// ApplyDefaults fills zero values with defaults. UndoDepth 0 and a nil
// ScanDepth are meaningful and left alone.
func (c *Configuration) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = string(composer.ModeArtist)
	}
	if c.MusicDirectory == "" {
		c.MusicDirectory = xdg.UserDirs.Music
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), scanner.DefaultAudioExtensions...)
	}
	if c.SymlinkPolicy == "" {
		c.SymlinkPolicy = scanner.SymlinkPolicySkip
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.ColorMode == "" {
		c.ColorMode = ColorAuto
	}
	c.applyJournalDefaults()
	c.applyWatchDefaults()
}

func (c *Configuration) applyJournalDefaults() {
	defaults := audit.DefaultConfig()
	if c.Journal == nil {
		c.Journal = &defaults
		return
	}
	if c.Journal.LogDirectory == "" {
		c.Journal.LogDirectory = defaults.LogDirectory
	}
	if c.Journal.RotationSize == 0 {
		c.Journal.RotationSize = defaults.RotationSize
	}
	// RotationPeriod "" disables time-based rotation and RetentionDays 0
	// keeps everything, so neither is overridden.
}

func (c *Configuration) applyWatchDefaults() {
	defaults := watcher.DefaultWatchConfig()
	if c.Watch == nil {
		c.Watch = defaults
		return
	}
	if len(c.Watch.IgnorePatterns) == 0 {
		c.Watch.IgnorePatterns = defaults.IgnorePatterns
	}
}

// ApplyEnv overrides settings with REFINERY_MODE, REFINERY_ARTIST,
// REFINERY_LOG_LEVEL and REFINERY_NUKE_METADATA when they are set.
func (c *Configuration) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return &ConfigError{Type: ValidationError, Message: err.Error()}
	}
	if env.Mode != "" {
		c.Mode = env.Mode
	}
	if env.Artist != "" {
		c.Artist = env.Artist
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.NukeMetadata != "" {
		v, err := strconv.ParseBool(env.NukeMetadata)
		if err != nil {
			return &ConfigError{
				Type:    ValidationError,
				Message: fmt.Sprintf("%s_NUKE_METADATA: %q is not a boolean", EnvPrefix, env.NukeMetadata),
			}
		}
		c.NukeMetadata = v
	}
	return nil
}

// Validate checks the settings that would make Refinery misbehave.
func (c *Configuration) Validate() error {
	if _, err := composer.ParseMode(c.Mode); err != nil {
		return &ConfigError{Type: ValidationError, Message: err.Error()}
	}
	if c.UndoDepth < 0 {
		return &ConfigError{
			Type:    ValidationError,
			Message: "undoDepth must be zero (unlimited) or positive",
		}
	}
	for i, ext := range c.Extensions {
		if strings.Trim(ext, ". ") == "" {
			return &ConfigError{
				Type:    ValidationError,
				Message: fmt.Sprintf("extensions[%d] cannot be empty", i),
			}
		}
	}
	return nil
}

// ComposeMode returns the parsed naming mode.
func (c *Configuration) ComposeMode() composer.Mode {
	m, err := composer.ParseMode(c.Mode)
	if err != nil {
		return composer.ModeArtist
	}
	return m
}

// ScanOptions returns the scanner options described by the configuration.
func (c *Configuration) ScanOptions() scanner.ScanOptions {
	opts := scanner.DefaultScanOptions()
	if c.ScanDepth != nil {
		opts.MaxDepth = *c.ScanDepth
	}
	if c.SymlinkPolicy != "" {
		opts.SymlinkPolicy = c.SymlinkPolicy
	}
	if len(c.Extensions) > 0 {
		opts.Extensions = c.Extensions
	}
	return opts
}

func isYAML(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".yaml" || ext == ".yml"
}

func decode(filePath string, data []byte) (*Configuration, error) {
	var config Configuration
	if isYAML(filePath) {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, &ConfigError{Type: InvalidYAML, Path: filePath, Message: err.Error()}
		}
		return &config, nil
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &ConfigError{Type: InvalidJSON, Path: filePath, Message: err.Error()}
	}
	return &config, nil
}

// Load reads a configuration file, JSON or YAML by extension, applies
// defaults and environment overrides, and validates the result.
func Load(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{
				Type: FileNotFound,
				Path: filePath,
			}
		}
		return nil, &ConfigError{
			Type:    FileNotFound,
			Path:    filePath,
			Message: err.Error(),
		}
	}
	return finish(decode(filePath, data))
}

// LoadOrCreate loads the configuration at filePath, or the defaults when
// the file does not exist.
func LoadOrCreate(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finish(&Configuration{}, nil)
		}
		return nil, &ConfigError{
			Type:    FileNotFound,
			Path:    filePath,
			Message: err.Error(),
		}
	}
	return finish(decode(filePath, data))
}

func finish(config *Configuration, err error) (*Configuration, error) {
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults()
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to filePath as JSON, or YAML for .yaml/.yml paths,
// creating the parent directory.
func Save(config *Configuration, filePath string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(filePath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return &ConfigError{
			Type:    InvalidJSON,
			Message: err.Error(),
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("failed to create configuration directory: %s", err.Error()),
		}
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("failed to write configuration file: %s", err.Error()),
		}
	}

	return nil
}
