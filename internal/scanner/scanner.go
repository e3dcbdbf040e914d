// Package scanner discovers audio files to add to a Refinery session.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the directory does not exist.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
	// SymlinkError indicates a symlink was encountered with "error" policy.
	SymlinkError ScanErrorType = "SYMLINK_ERROR"
)

// Symlink policy constants
const (
	SymlinkPolicyFollow = "follow"
	SymlinkPolicySkip   = "skip"
	SymlinkPolicyError  = "error"
)

// DefaultAudioExtensions are the extensions picked up when none are configured.
var DefaultAudioExtensions = []string{".mp3", ".flac"}

// ScanError represents an error that occurred during directory scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	MaxDepth      int      // Maximum depth to scan (0 = immediate only, -1 = unlimited)
	SymlinkPolicy string   // "follow", "skip", or "error"
	Extensions    []string // Accepted extensions, case-insensitive; empty accepts every file
	IncludeHidden bool     // Include dot-files and descend into dot-directories
}

// DefaultScanOptions returns options for a full recursive audio scan.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:      -1,
		SymlinkPolicy: SymlinkPolicySkip,
		Extensions:    DefaultAudioExtensions,
	}
}

// FileEntry represents a file found during scanning.
type FileEntry struct {
	Name     string // Filename only
	FullPath string // Absolute path
}

// IsAudioFile reports whether name has one of the given extensions.
func IsAudioFile(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if strings.EqualFold(ext, normalizeExt(e)) {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

// Scan finds audio files below directory using DefaultScanOptions.
func Scan(directory string) ([]FileEntry, error) {
	return ScanWithOptions(directory, DefaultScanOptions())
}

// ScanWithOptions scans directory with configurable options. Entries are
// visited in name order so repeated scans yield the same sequence.
func ScanWithOptions(directory string, opts ScanOptions) ([]FileEntry, error) {
	info, err := os.Lstat(directory)
	if err != nil {
		return nil, classify(directory, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		switch opts.SymlinkPolicy {
		case SymlinkPolicyError:
			return nil, &ScanError{
				Type: SymlinkError,
				Path: directory,
				Err:  errors.New("symlink encountered with error policy"),
			}
		case SymlinkPolicySkip:
			return []FileEntry{}, nil
		default:
			if info, err = os.Stat(directory); err != nil {
				return nil, classify(directory, err)
			}
		}
	}

	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: directory,
			Err:  errors.New("path is not a directory"),
		}
	}

	files := []FileEntry{}
	if err := scanDirectory(directory, opts, 0, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func scanDirectory(directory string, opts ScanOptions, depth int, files *[]FileEntry) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return classify(directory, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		fullPath := filepath.Join(directory, name)

		info, err := os.Lstat(fullPath)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			switch opts.SymlinkPolicy {
			case SymlinkPolicyError:
				return &ScanError{
					Type: SymlinkError,
					Path: fullPath,
					Err:  errors.New("symlink encountered with error policy"),
				}
			case SymlinkPolicySkip:
				continue
			default:
				if info, err = os.Stat(fullPath); err != nil {
					continue // broken link
				}
			}
		}

		if info.IsDir() {
			if opts.MaxDepth == -1 || depth < opts.MaxDepth {
				if err := scanDirectory(fullPath, opts, depth+1, files); err != nil {
					return err
				}
			}
			continue
		}

		if !info.Mode().IsRegular() || !IsAudioFile(name, opts.Extensions) {
			continue
		}

		absPath, err := filepath.Abs(fullPath)
		if err != nil {
			absPath = fullPath
		}
		*files = append(*files, FileEntry{Name: name, FullPath: absPath})
	}
	return nil
}

func classify(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return &ScanError{Type: DirectoryNotFound, Path: path, Err: err}
	case os.IsPermission(err):
		return &ScanError{Type: PermissionDenied, Path: path, Err: err}
	default:
		return err
	}
}
