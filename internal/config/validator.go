package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"refinery/internal/composer"
	"refinery/internal/scanner"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string             // Config field with issue (e.g., "extensions[0]")
	Message  string             // Human-readable description
	Severity ValidationSeverity // "error" or "warning"
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

func (r *ValidationResult) add(issues []ConfigValidationError) {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			r.Errors = append(r.Errors, issue)
		} else {
			r.Warnings = append(r.Warnings, issue)
		}
	}
}

// ValidateConfig checks the configuration and returns every finding, unlike
// Validate which stops at the first error.
func ValidateConfig(cfg *Configuration) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	result.add(ValidatePolicies(cfg))
	result.add(ValidateExtensions(cfg))
	result.add(ValidatePaths(cfg))
	result.add(ValidateJournal(cfg))

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidatePolicies checks the enumerated settings.
func ValidatePolicies(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError

	if _, err := composer.ParseMode(cfg.Mode); err != nil {
		errors = append(errors, ConfigValidationError{
			Field:    "mode",
			Message:  "invalid naming mode: \"" + cfg.Mode + "\". Must be \"artist\" or \"title-only\"",
			Severity: SeverityError,
		})
	}

	if cfg.SymlinkPolicy != "" {
		validPolicies := map[string]bool{
			scanner.SymlinkPolicyFollow: true,
			scanner.SymlinkPolicySkip:   true,
			scanner.SymlinkPolicyError:  true,
		}
		if !validPolicies[cfg.SymlinkPolicy] {
			errors = append(errors, ConfigValidationError{
				Field:    "symlinkPolicy",
				Message:  "invalid symlink policy: \"" + cfg.SymlinkPolicy + "\". Must be \"follow\", \"skip\", or \"error\"",
				Severity: SeverityError,
			})
		}
	}

	if cfg.ScanDepth != nil && *cfg.ScanDepth < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "scanDepth",
			Message:  "scanDepth must be a non-negative integer; omit it to scan without limit",
			Severity: SeverityError,
		})
	}

	if cfg.UndoDepth < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "undoDepth",
			Message:  "undoDepth must be zero (unlimited) or positive",
			Severity: SeverityError,
		})
	}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			errors = append(errors, ConfigValidationError{
				Field:    "logLevel",
				Message:  "invalid log level: \"" + cfg.LogLevel + "\"",
				Severity: SeverityError,
			})
		}
	}

	switch cfg.ColorMode {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		errors = append(errors, ConfigValidationError{
			Field:    "colorMode",
			Message:  "invalid colour mode: \"" + cfg.ColorMode + "\". Must be \"auto\", \"always\", or \"never\"",
			Severity: SeverityError,
		})
	}

	if cfg.Watch != nil {
		if cfg.Watch.DebounceMs < 0 {
			errors = append(errors, ConfigValidationError{
				Field:    "watch.debounceMs",
				Message:  "debounceMs cannot be negative",
				Severity: SeverityError,
			})
		}
		if cfg.Watch.StableThresholdMs < 0 {
			errors = append(errors, ConfigValidationError{
				Field:    "watch.stableThresholdMs",
				Message:  "stableThresholdMs cannot be negative",
				Severity: SeverityError,
			})
		}
	}

	return errors
}

// taggedExtensions are the extensions a tag store exists for.
var taggedExtensions = map[string]bool{".mp3": true, ".flac": true}

// ValidateExtensions rejects empty and duplicate extensions and warns about
// extensions whose tags cannot be read or cleared.
func ValidateExtensions(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError
	seen := make(map[string]int)

	for i, ext := range cfg.Extensions {
		norm := strings.ToLower(strings.TrimSpace(ext))
		if norm != "" && !strings.HasPrefix(norm, ".") {
			norm = "." + norm
		}
		if strings.Trim(norm, ".") == "" {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("extensions", i),
				Message:  "extension cannot be empty",
				Severity: SeverityError,
			})
			continue
		}
		if first, dup := seen[norm]; dup {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("extensions", i),
				Message:  "duplicate extension (case-insensitive): \"" + ext + "\" repeats extensions[" + strconv.Itoa(first) + "]",
				Severity: SeverityWarning,
			})
			continue
		}
		seen[norm] = i
		if !taggedExtensions[norm] {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("extensions", i),
				Message:  "no tag support for " + norm + ": artist lookup and metadata clearing will fail for these files",
				Severity: SeverityWarning,
			})
		}
	}
	return errors
}

// ValidatePaths warns when the music directory is missing.
func ValidatePaths(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError
	if cfg.MusicDirectory == "" {
		return nil
	}

	info, err := os.Stat(cfg.MusicDirectory)
	switch {
	case os.IsNotExist(err):
		errors = append(errors, ConfigValidationError{
			Field:    "musicDirectory",
			Message:  "directory does not exist: " + cfg.MusicDirectory,
			Severity: SeverityWarning,
		})
	case os.IsPermission(err):
		errors = append(errors, ConfigValidationError{
			Field:    "musicDirectory",
			Message:  "directory is not accessible: " + cfg.MusicDirectory,
			Severity: SeverityError,
		})
	case err != nil:
		errors = append(errors, ConfigValidationError{
			Field:    "musicDirectory",
			Message:  "error accessing directory: " + err.Error(),
			Severity: SeverityError,
		})
	case !info.IsDir():
		errors = append(errors, ConfigValidationError{
			Field:    "musicDirectory",
			Message:  "path is not a directory: " + cfg.MusicDirectory,
			Severity: SeverityError,
		})
	}
	return errors
}

// ValidateJournal checks the journal settings and that its directory exists
// or can be created.
func ValidateJournal(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError
	j := cfg.Journal
	if j == nil || !j.Enabled {
		return nil
	}

	switch j.RotationPeriod {
	case "", "daily", "weekly":
	default:
		errors = append(errors, ConfigValidationError{
			Field:    "journal.rotationPeriod",
			Message:  "invalid rotation period: \"" + j.RotationPeriod + "\". Must be \"daily\", \"weekly\", or empty",
			Severity: SeverityError,
		})
	}
	if j.RetentionDays < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "journal.retentionDays",
			Message:  "retentionDays cannot be negative",
			Severity: SeverityError,
		})
	}
	if j.RotationSize < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "journal.rotationSizeBytes",
			Message:  "rotationSizeBytes cannot be negative",
			Severity: SeverityError,
		})
	}

	if j.LogDirectory == "" {
		return errors
	}
	if info, err := os.Stat(j.LogDirectory); err == nil {
		if !info.IsDir() {
			errors = append(errors, ConfigValidationError{
				Field:    "journal.logDirectory",
				Message:  "path exists but is not a directory: " + j.LogDirectory,
				Severity: SeverityError,
			})
		} else if !isDirectoryWritable(j.LogDirectory) {
			errors = append(errors, ConfigValidationError{
				Field:    "journal.logDirectory",
				Message:  "directory is not writable: " + j.LogDirectory,
				Severity: SeverityError,
			})
		}
		return errors
	}

	// Not created yet; the nearest existing ancestor must be a directory.
	parent := filepath.Dir(j.LogDirectory)
	for {
		info, err := os.Stat(parent)
		if err == nil {
			if !info.IsDir() {
				errors = append(errors, ConfigValidationError{
					Field:    "journal.logDirectory",
					Message:  "parent path is not a directory: " + parent,
					Severity: SeverityError,
				})
			}
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	return errors
}

// formatField creates a field reference string for validation errors.
func formatField(name string, index int) string {
	return name + "[" + strconv.Itoa(index) + "]"
}

// isDirectoryWritable checks if a directory is writable by attempting to create a temp file.
func isDirectoryWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".refinery_write_test")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
