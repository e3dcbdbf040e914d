package orchestrator

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"refinery/internal/audit"
	"refinery/internal/organizer"
	"refinery/internal/session"
)

// Outcome is what a batch did with one entry.
type Outcome string

const (
	OutcomeRenamed   Outcome = "renamed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
)

// BatchOptions controls ApplyBatch.
type BatchOptions struct {
	// ClearMetadata removes every tag from each processed file, whatever
	// happened to its name.
	ClearMetadata bool
	// Progress, when set, is called after each enabled entry.
	Progress func(done, total int)
}

// EntryResult is the result of processing one entry in a batch.
type EntryResult struct {
	ID              session.EntryID
	OriginalName    string
	SourcePath      string
	DestinationPath string
	Outcome         Outcome
	Reason          audit.ReasonCode
	Err             error
	TagsCleared     bool
	TagErr          error
}

// BatchResult aggregates the results of ApplyBatch.
type BatchResult struct {
	RunID audit.RunID
	// Empty is set when the session had no enabled entries. Nothing was
	// touched and no undo step was recorded.
	Empty         bool
	ClearMetadata bool
	Processed     int
	Renamed       int
	Unchanged     int
	Skipped       int
	Conflicts     int
	Failed        int
	TagsCleared   int
	TagErrors     int
	Entries       []EntryResult
	Duration      time.Duration
}

func (r *BatchResult) add(er EntryResult) {
	r.Entries = append(r.Entries, er)
	r.Processed++
	switch er.Outcome {
	case OutcomeRenamed:
		r.Renamed++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeConflict:
		r.Conflicts++
	case OutcomeFailed:
		r.Failed++
	}
	if er.TagsCleared {
		r.TagsCleared++
	}
	if er.TagErr != nil {
		r.TagErrors++
	}
}

// HasErrors reports whether any rename or tag operation failed.
func (r *BatchResult) HasErrors() bool {
	return r.Failed > 0 || r.TagErrors > 0
}

// Summary converts the counts to the journal's run summary.
func (r *BatchResult) Summary() audit.RunSummary {
	return audit.RunSummary{
		Processed:   r.Processed,
		Renamed:     r.Renamed,
		Unchanged:   r.Unchanged,
		Skipped:     r.Skipped,
		Conflicts:   r.Conflicts,
		Failed:      r.Failed,
		TagsCleared: r.TagsCleared,
		TagErrors:   r.TagErrors,
	}
}

// Message returns the one-line status shown after a batch.
func (r *BatchResult) Message() string {
	if r.Empty {
		return "No files selected: add files or enable at least one entry"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d files: %d renamed, %d unchanged, %d skipped, %d conflicts, %d failed",
		r.Processed, r.Renamed, r.Unchanged, r.Skipped, r.Conflicts, r.Failed)
	if r.ClearMetadata {
		fmt.Fprintf(&b, "; tags cleared on %d", r.TagsCleared)
		if r.TagErrors > 0 {
			fmt.Fprintf(&b, " (%d errors)", r.TagErrors)
		}
	}
	return b.String()
}

// ApplyBatch renames every enabled entry to its target name.
//
// The session state is checkpointed first so the batch can be undone. Each
// entry is renamed in place to its manual override or its computed name.
// Entries whose target is already taken, on disk or by another entry of the
// session, are left untouched and counted as conflicts. Disabled entries are
// not touched at all.
func (o *Orchestrator) ApplyBatch(opts BatchOptions) *BatchResult {
	start := time.Now()
	result := &BatchResult{ClearMetadata: opts.ClearMetadata}

	entries := o.session.Entries()
	total := o.session.EnabledCount()
	if total == 0 {
		result.Empty = true
		o.logger.Warn().Int("entries", len(entries)).Msg("no enabled files to rename")
		return result
	}

	o.session.Checkpoint()
	journaled := o.startRun(audit.RunTypeBatch, map[string]string{
		"mode":          string(o.session.Mode()),
		"artist":        o.session.Artist(),
		"clearMetadata": strconv.FormatBool(opts.ClearMetadata),
	})

	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		er := o.applyEntry(e, opts)
		if journaled {
			o.journalEntry(er)
		}
		result.add(er)
		if opts.Progress != nil {
			opts.Progress(result.Processed, total)
		}
	}

	result.Duration = time.Since(start)
	if journaled {
		status := audit.RunStatusCompleted
		if result.HasErrors() {
			status = audit.RunStatusFailed
		}
		o.endRun(status, result.Summary())
	}

	o.logger.Info().
		Int("processed", result.Processed).
		Int("renamed", result.Renamed).
		Int("conflicts", result.Conflicts).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("batch applied")
	return result
}

func (o *Orchestrator) applyEntry(e session.FileEntry, opts BatchOptions) EntryResult {
	er := EntryResult{
		ID:           e.ID,
		OriginalName: e.Name(),
		SourcePath:   e.Path,
	}
	current := e.Path

	target := o.targetName(e)
	switch {
	case target == "":
		er.Outcome = OutcomeSkipped
		er.Reason = audit.ReasonEmptyName
	default:
		er.DestinationPath = filepath.Join(filepath.Dir(e.Path), target)
		if newPath, ok := o.renameEntry(e, &er); ok {
			current = newPath
		}
	}

	if opts.ClearMetadata {
		if err := o.tags.ClearAll(current); err != nil {
			er.TagErr = err
			o.logger.Warn().Err(err).Str("path", current).Msg("clearing tags failed")
		} else {
			er.TagsCleared = true
			_ = o.session.ResetTagCache(current)
		}
	}
	return er
}

// renameEntry moves e to er.DestinationPath and fills in the outcome. It
// returns the new path when the file was moved.
func (o *Orchestrator) renameEntry(e session.FileEntry, er *EntryResult) (string, bool) {
	dst := er.DestinationPath
	if dst == e.Path {
		er.Outcome = OutcomeUnchanged
		er.Reason = audit.ReasonUnchanged
		return "", false
	}
	if owner, ok := o.session.OwnerOf(dst); ok && owner != e.ID {
		er.Outcome = OutcomeConflict
		er.Reason = audit.ReasonDestinationExists
		return "", false
	}

	if _, err := organizer.Rename(e.Path, dst); err != nil {
		er.Err = err
		if organizer.IsConflict(err) {
			er.Outcome = OutcomeConflict
			er.Reason = audit.ReasonDestinationExists
			return "", false
		}
		er.Outcome = OutcomeFailed
		er.Reason = reasonFor(err)
		o.logger.Warn().Err(err).Str("source", e.Path).Msg("rename failed")
		return "", false
	}

	if err := o.session.Rekey(e.ID, dst); err != nil {
		// The file moved but the session could not follow it.
		er.Outcome = OutcomeFailed
		er.Err = err
		return "", false
	}
	er.Outcome = OutcomeRenamed
	o.logger.Debug().Str("source", e.Path).Str("destination", dst).Msg("renamed")
	return dst, true
}

func reasonFor(err error) audit.ReasonCode {
	switch {
	case organizer.IsErrorType(err, organizer.SourceNotFound), errors.Is(err, fs.ErrNotExist):
		return audit.ReasonSourceNotFound
	case organizer.IsErrorType(err, organizer.PermissionDenied), errors.Is(err, fs.ErrPermission):
		return audit.ReasonPermissionDenied
	case organizer.IsErrorType(err, organizer.InvalidName):
		return audit.ReasonInvalidName
	default:
		return ""
	}
}

func (o *Orchestrator) journalEntry(er EntryResult) {
	switch er.Outcome {
	case OutcomeRenamed:
		o.journalErr(o.journal.RecordRename(er.SourcePath, er.DestinationPath))
	case OutcomeConflict:
		o.journalErr(o.journal.RecordConflict(er.SourcePath, er.DestinationPath))
	case OutcomeUnchanged, OutcomeSkipped:
		o.journalErr(o.journal.RecordSkip(er.SourcePath, er.Reason))
	case OutcomeFailed:
		o.journalErr(o.journal.RecordError(er.SourcePath, er.Reason, er.Err, "rename"))
	}
	if er.TagsCleared {
		path := er.SourcePath
		if er.Outcome == OutcomeRenamed {
			path = er.DestinationPath
		}
		o.journalErr(o.journal.RecordTagsCleared(path))
	}
	if er.TagErr != nil {
		o.journalErr(o.journal.RecordError(er.SourcePath, "", er.TagErr, "clear-tags"))
	}
}
