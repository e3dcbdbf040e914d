// Package audit keeps an append-only JSON Lines journal of every change
// Refinery makes to files on disk, and renders per-run change manifests
// from it.
package audit

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
)

// RunID identifies one journaled operation (a batch, a manual rename, a tag
// edit or an undo). It is a UUID v4 string.
type RunID string

// NewRunID returns a fresh random RunID.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// EventType represents the type of journal event.
type EventType string

const (
	// Run lifecycle events
	EventRunStart EventType = "RUN_START"
	EventRunEnd   EventType = "RUN_END"

	// File events
	EventRename       EventType = "RENAME"
	EventManualRename EventType = "MANUAL_RENAME"
	EventConflict     EventType = "CONFLICT"
	EventSkip         EventType = "SKIP"
	EventError        EventType = "ERROR"

	// Tag events
	EventTagsCleared EventType = "TAGS_CLEARED"
	EventTagsWritten EventType = "TAGS_WRITTEN"

	// Session events
	EventUndo EventType = "UNDO"

	// System events
	EventRotation       EventType = "ROTATION"
	EventRetentionPrune EventType = "RETENTION_PRUNE"
	EventLogInitialized EventType = "LOG_INITIALIZED"
)

// OperationStatus represents the outcome of an operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "SUCCESS"
	StatusFailure OperationStatus = "FAILURE"
	StatusSkipped OperationStatus = "SKIPPED"
)

// ReasonCode explains a skip, conflict or failure.
type ReasonCode string

const (
	ReasonUnchanged         ReasonCode = "UNCHANGED"
	ReasonEmptyName         ReasonCode = "EMPTY_NAME"
	ReasonDestinationExists ReasonCode = "DESTINATION_EXISTS"
	ReasonSourceNotFound    ReasonCode = "SOURCE_NOT_FOUND"
	ReasonPermissionDenied  ReasonCode = "PERMISSION_DENIED"
	ReasonInvalidName       ReasonCode = "INVALID_NAME"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
)

// RunType represents what kind of operation a run journals.
type RunType string

const (
	RunTypeBatch   RunType = "BATCH"
	RunTypeManual  RunType = "MANUAL"
	RunTypeTagEdit RunType = "TAG_EDIT"
	RunTypeUndo    RunType = "UNDO"
)

// ErrorDetails contains detailed information about an error.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
	Operation    string `json:"operation"`
}

// Event is a single journal record.
type Event struct {
	Timestamp       time.Time
	RunID           RunID
	EventType       EventType
	Status          OperationStatus
	SourcePath      string
	DestinationPath string
	ReasonCode      ReasonCode
	ErrorDetails    *ErrorDetails
	Metadata        map[string]string
}

// RunSummary contains the counts recorded when a run ends.
type RunSummary struct {
	Processed   int `json:"processed"`
	Renamed     int `json:"renamed"`
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"`
	Conflicts   int `json:"conflicts"`
	Failed      int `json:"failed"`
	TagsCleared int `json:"tagsCleared"`
	TagErrors   int `json:"tagErrors"`
}

// RunInfo contains metadata and summary for a run.
type RunInfo struct {
	RunID     RunID      `json:"runId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Status    RunStatus  `json:"status"`
	RunType   RunType    `json:"runType"`
	Summary   RunSummary `json:"summary"`
}

// Config holds configuration for the journal.
type Config struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	LogDirectory   string `json:"logDirectory" yaml:"logDirectory"`
	RotationSize   int64  `json:"rotationSizeBytes" yaml:"rotationSizeBytes"` // Rotate when file exceeds this size
	RotationPeriod string `json:"rotationPeriod" yaml:"rotationPeriod"`       // "daily", "weekly", or ""
	RetentionDays  int    `json:"retentionDays" yaml:"retentionDays"`         // 0 = unlimited
}

// DefaultConfig returns a Config writing under the XDG data directory.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		LogDirectory:   filepath.Join(xdg.DataHome, "refinery", "journal"),
		RotationSize:   5 * 1024 * 1024, // 5MB
		RotationPeriod: "",
		RetentionDays:  90,
	}
}

const (
	activeLogName = "refinery-journal.jsonl"
	segmentPrefix = "refinery-journal-"
	indexName     = "refinery-journal-index.json"
)
