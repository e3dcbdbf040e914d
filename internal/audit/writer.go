package audit

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoActiveRun is returned by Record methods called outside a run.
var ErrNoActiveRun = errors.New("no active run: call StartRun first")

// Writer appends events to the active journal file. Every event is flushed
// and synced before the call returns.
type Writer struct {
	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	logPath    string
	currentRun RunID
	config     Config
	rotation   *RotationManager
	logger     zerolog.Logger
}

// NewWriter opens (or creates) the journal in config.LogDirectory. A new
// journal starts with a LOG_INITIALIZED event. Segments past the retention
// window are pruned on open.
func NewWriter(config Config, logger zerolog.Logger) (*Writer, error) {
	if config.LogDirectory == "" {
		return nil, errors.New("journal directory is not set")
	}
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	logPath := filepath.Join(config.LogDirectory, activeLogName)
	_, statErr := os.Stat(logPath)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	w := &Writer{
		file:     file,
		writer:   bufio.NewWriter(file),
		logPath:  logPath,
		config:   config,
		rotation: NewRotationManager(config),
		logger:   logger.With().Str("component", "journal").Logger(),
	}

	if isNew {
		event := Event{
			Timestamp: time.Now().UTC(),
			EventType: EventLogInitialized,
			Status:    StatusSuccess,
			Metadata:  map[string]string{"logPath": logPath},
		}
		if err := w.appendLocked(event); err != nil {
			file.Close()
			return nil, fmt.Errorf("write LOG_INITIALIZED event: %w", err)
		}
	}

	pruned, err := PruneSegments(config.LogDirectory, config.RetentionDays, time.Now())
	if err != nil {
		w.logger.Warn().Err(err).Msg("journal retention prune failed")
	}
	for _, seg := range pruned {
		event := Event{
			Timestamp: time.Now().UTC(),
			EventType: EventRetentionPrune,
			Status:    StatusSuccess,
			Metadata:  map[string]string{"segment": seg},
		}
		if err := w.appendLocked(event); err != nil {
			file.Close()
			return nil, fmt.Errorf("write RETENTION_PRUNE event: %w", err)
		}
	}

	return w, nil
}

// StartRun begins a new run of the given type and writes its RUN_START event.
func (w *Writer) StartRun(runType RunType, metadata map[string]string) (RunID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID := NewRunID()
	meta := map[string]string{"runType": string(runType)}
	maps.Copy(meta, metadata)

	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRunStart,
		Status:    StatusSuccess,
		Metadata:  meta,
	}
	if err := w.writeEventLocked(event); err != nil {
		return "", fmt.Errorf("write RUN_START event: %w", err)
	}

	w.currentRun = runID
	w.logger.Debug().Str("run", string(runID)).Str("type", string(runType)).Msg("run started")
	return runID, nil
}

// EndRun writes the RUN_END event with the run's summary.
func (w *Writer) EndRun(status RunStatus, summary RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return ErrNoActiveRun
	}

	opStatus := StatusSuccess
	if status == RunStatusFailed {
		opStatus = StatusFailure
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     w.currentRun,
		EventType: EventRunEnd,
		Status:    opStatus,
		Metadata: map[string]string{
			"status":      string(status),
			"processed":   strconv.Itoa(summary.Processed),
			"renamed":     strconv.Itoa(summary.Renamed),
			"unchanged":   strconv.Itoa(summary.Unchanged),
			"skipped":     strconv.Itoa(summary.Skipped),
			"conflicts":   strconv.Itoa(summary.Conflicts),
			"failed":      strconv.Itoa(summary.Failed),
			"tagsCleared": strconv.Itoa(summary.TagsCleared),
			"tagErrors":   strconv.Itoa(summary.TagErrors),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return fmt.Errorf("write RUN_END event: %w", err)
	}

	w.currentRun = ""
	return nil
}

// LogPath returns the path to the active journal file.
func (w *Writer) LogPath() string {
	return w.logPath
}

// RecordRename records a successful batch rename.
func (w *Writer) RecordRename(source, dest string) error {
	return w.record(Event{
		EventType:       EventRename,
		Status:          StatusSuccess,
		SourcePath:      source,
		DestinationPath: dest,
	})
}

// RecordManualRename records a successful single-file rename chosen by the user.
func (w *Writer) RecordManualRename(source, dest string) error {
	return w.record(Event{
		EventType:       EventManualRename,
		Status:          StatusSuccess,
		SourcePath:      source,
		DestinationPath: dest,
	})
}

// RecordConflict records a rename refused because dest is occupied.
func (w *Writer) RecordConflict(source, dest string) error {
	return w.record(Event{
		EventType:       EventConflict,
		Status:          StatusSkipped,
		SourcePath:      source,
		DestinationPath: dest,
		ReasonCode:      ReasonDestinationExists,
	})
}

// RecordSkip records an entry left alone.
func (w *Writer) RecordSkip(source string, reason ReasonCode) error {
	return w.record(Event{
		EventType:  EventSkip,
		Status:     StatusSkipped,
		SourcePath: source,
		ReasonCode: reason,
	})
}

// RecordError records a failed operation on source.
func (w *Writer) RecordError(source string, reason ReasonCode, err error, operation string) error {
	return w.record(Event{
		EventType:  EventError,
		Status:     StatusFailure,
		SourcePath: source,
		ReasonCode: reason,
		ErrorDetails: &ErrorDetails{
			ErrorType:    string(reason),
			ErrorMessage: err.Error(),
			Operation:    operation,
		},
	})
}

// RecordTagsCleared records that every tag was removed from path.
func (w *Writer) RecordTagsCleared(path string) error {
	return w.record(Event{
		EventType:  EventTagsCleared,
		Status:     StatusSuccess,
		SourcePath: path,
	})
}

// RecordTagsWritten records the fields written to path.
func (w *Writer) RecordTagsWritten(path string, fields map[string]string) error {
	return w.record(Event{
		EventType:  EventTagsWritten,
		Status:     StatusSuccess,
		SourcePath: path,
		Metadata:   maps.Clone(fields),
	})
}

// RecordUndo records that the session was rolled back to a snapshot of n entries.
func (w *Writer) RecordUndo(n int) error {
	return w.record(Event{
		EventType: EventUndo,
		Status:    StatusSuccess,
		Metadata:  map[string]string{"entries": strconv.Itoa(n)},
	})
}

func (w *Writer) record(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == "" {
		return ErrNoActiveRun
	}
	event.Timestamp = time.Now().UTC()
	event.RunID = w.currentRun
	return w.writeEventLocked(event)
}

// writeEventLocked appends event and rotates the journal if it is now due.
func (w *Writer) writeEventLocked(event Event) error {
	if err := w.appendLocked(event); err != nil {
		return err
	}
	return w.rotateIfNeededLocked()
}

func (w *Writer) appendLocked(event Event) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := w.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync event: %w", err)
	}
	return nil
}

func (w *Writer) rotateIfNeededLocked() error {
	due, err := w.rotation.NeedsRotation(w.logPath)
	if err != nil || !due {
		return err
	}

	segment := nextSegmentName(w.config.LogDirectory, time.Now())
	if err := w.appendLocked(rotationEvent(w.currentRun, activeLogName, segment)); err != nil {
		return fmt.Errorf("write ROTATION event: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close journal for rotation: %w", err)
	}

	if _, err := w.rotation.Rotate(w.logPath, segment); err != nil {
		w.logger.Warn().Err(err).Str("segment", segment).Msg("journal rotation incomplete")
	}

	file, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("reopen journal after rotation: %w", err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)
	return nil
}

// Close flushes buffered data and closes the journal file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush journal on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
