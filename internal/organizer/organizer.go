// Package organizer performs collision-safe in-place renames for Refinery.
package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MoveErrorType represents the type of rename error.
type MoveErrorType string

const (
	// SourceNotFound indicates the source file does not exist.
	SourceNotFound MoveErrorType = "SOURCE_NOT_FOUND"
	// DestinationExists indicates a file already exists at the destination.
	DestinationExists MoveErrorType = "DESTINATION_EXISTS"
	// PermissionDenied indicates insufficient permissions for the operation.
	PermissionDenied MoveErrorType = "PERMISSION_DENIED"
	// InvalidName indicates the requested basename is not a single path element.
	InvalidName MoveErrorType = "INVALID_NAME"
)

// ErrInvalidName is wrapped by MoveError values of type InvalidName.
var ErrInvalidName = errors.New("invalid file name")

// MoveError represents an error that occurred while renaming a file.
type MoveError struct {
	Type MoveErrorType
	Path string
	Err  error
}

func (e *MoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// RenameResult describes a completed rename.
type RenameResult struct {
	SourcePath      string
	DestinationPath string
	Unchanged       bool // True if source and destination were the same path
}

// Rename moves src to dst without ever replacing an existing file.
// A file already at dst yields a MoveError of type DestinationExists and src
// is left untouched, even when dst is a hard link to src. A case-only change
// on a case-insensitive filesystem is allowed.
func Rename(src, dst string) (*RenameResult, error) {
	result := &RenameResult{SourcePath: src, DestinationPath: dst}
	if src == dst {
		result.Unchanged = true
		return result, nil
	}

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return nil, classify(src, err)
	}

	if dstInfo, err := os.Lstat(dst); err == nil {
		if !os.SameFile(srcInfo, dstInfo) || !isCaseOnlyChange(src, dst) {
			return nil, &MoveError{Type: DestinationExists, Path: dst}
		}
		if err := os.Rename(src, dst); err != nil {
			return nil, classify(src, err)
		}
		return result, nil
	}

	if err := renameNoReplace(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, &MoveError{Type: DestinationExists, Path: dst, Err: err}
		}
		return nil, classify(src, err)
	}
	return result, nil
}

// isCaseOnlyChange reports whether dst differs from src only by letter case
// and no directory entry is already named exactly like dst. A hard link to
// src under another name is an existing file, not the same name.
func isCaseOnlyChange(src, dst string) bool {
	dir := filepath.Dir(src)
	name := filepath.Base(dst)
	if dir != filepath.Dir(dst) || !strings.EqualFold(filepath.Base(src), name) {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() == name {
			return false
		}
	}
	return true
}

// RenameInPlace renames src to basename within the same directory.
func RenameInPlace(src, basename string) (*RenameResult, error) {
	if err := ValidateBasename(basename); err != nil {
		return nil, err
	}
	return Rename(src, filepath.Join(filepath.Dir(src), basename))
}

// ValidateBasename checks that name is usable as a single path element.
func ValidateBasename(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\x00") || strings.ContainsRune(name, filepath.Separator) {
		return &MoveError{Type: InvalidName, Path: name, Err: ErrInvalidName}
	}
	return nil
}

// IsConflict reports whether err is a DestinationExists rename error.
func IsConflict(err error) bool {
	return IsErrorType(err, DestinationExists)
}

// IsErrorType reports whether err is a MoveError of type t.
func IsErrorType(err error, t MoveErrorType) bool {
	var moveErr *MoveError
	return errors.As(err, &moveErr) && moveErr.Type == t
}

func classify(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return &MoveError{Type: SourceNotFound, Path: path, Err: err}
	case os.IsPermission(err):
		return &MoveError{Type: PermissionDenied, Path: path, Err: err}
	default:
		return fmt.Errorf("rename %s: %w", path, err)
	}
}
