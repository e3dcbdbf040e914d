package watcher

import (
	"path/filepath"
	"strings"

	"refinery/internal/scanner"
)

// DefaultIgnorePatterns returns the patterns of partial downloads and editor
// temp files that are never added.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.tmp",
		"*.part",
		"*.download",
		"*.crdownload", // Chrome partial downloads
		"*.partial",
		".~*",
		".*", // hidden files
	}
}

// FileFilter decides which created files reach the session: audio files
// whose names match none of the ignore patterns.
type FileFilter struct {
	patterns   []string
	extensions []string
}

// NewFileFilter creates a FileFilter. Nil or empty patterns use
// DefaultIgnorePatterns; empty extensions use the scanner defaults.
func NewFileFilter(patterns, extensions []string) *FileFilter {
	if len(patterns) == 0 {
		patterns = DefaultIgnorePatterns()
	}
	return &FileFilter{
		patterns:   patterns,
		extensions: audioExtensions(extensions),
	}
}

// ShouldIgnore reports whether path is not an audio file or matches an
// ignore pattern. Patterns use filepath.Match syntax against the filename
// only; a pattern starting with "." and holding no "*" matches as a
// case-insensitive suffix.
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)
	if !scanner.IsAudioFile(filename, f.extensions) {
		return true
	}

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.Contains(pattern, "*") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// GetPatterns returns the current ignore patterns.
func (f *FileFilter) GetPatterns() []string {
	result := make([]string, len(f.patterns))
	copy(result, f.patterns)
	return result
}
