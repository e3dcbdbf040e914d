package orchestrator

import (
	"errors"
	"fmt"
	"path/filepath"

	"refinery/internal/audit"
	"refinery/internal/organizer"
	"refinery/internal/session"
	"refinery/internal/tagstore"
)

// RenameOne renames the entry at path to newName within its directory and
// records newName as the entry's manual override. It returns false, with the
// file untouched, when newName is not a valid basename or is already taken.
//
// Manual renames are not undoable; undo only rolls back batches.
func (o *Orchestrator) RenameOne(path, newName string) (bool, error) {
	e, ok := o.session.Lookup(path)
	if !ok {
		return false, fmt.Errorf("rename %s: %w", path, session.ErrEntryNotFound)
	}
	if err := organizer.ValidateBasename(newName); err != nil {
		return false, err
	}

	dst := filepath.Join(filepath.Dir(e.Path), newName)
	if dst == e.Path {
		return true, o.session.SetManualOverride(e.Path, newName)
	}

	journaled := o.startRun(audit.RunTypeManual, map[string]string{"name": newName})
	summary := audit.RunSummary{Processed: 1}
	finish := func(status audit.RunStatus) {
		if journaled {
			o.endRun(status, summary)
		}
	}

	if owner, ok := o.session.OwnerOf(dst); ok && owner != e.ID {
		summary.Conflicts = 1
		if journaled {
			o.journalErr(o.journal.RecordConflict(e.Path, dst))
		}
		finish(audit.RunStatusCompleted)
		return false, &organizer.MoveError{Type: organizer.DestinationExists, Path: dst}
	}

	if _, err := organizer.RenameInPlace(e.Path, newName); err != nil {
		if organizer.IsConflict(err) {
			summary.Conflicts = 1
			if journaled {
				o.journalErr(o.journal.RecordConflict(e.Path, dst))
			}
			finish(audit.RunStatusCompleted)
		} else {
			summary.Failed = 1
			if journaled {
				o.journalErr(o.journal.RecordError(e.Path, reasonFor(err), err, "manual-rename"))
			}
			finish(audit.RunStatusFailed)
		}
		return false, err
	}

	if err := o.session.Rekey(e.ID, dst); err != nil {
		finish(audit.RunStatusFailed)
		return false, err
	}
	if err := o.session.SetManualOverride(dst, newName); err != nil {
		finish(audit.RunStatusFailed)
		return false, err
	}

	summary.Renamed = 1
	if journaled {
		o.journalErr(o.journal.RecordManualRename(e.Path, dst))
	}
	finish(audit.RunStatusCompleted)
	o.logger.Info().Str("source", e.Path).Str("destination", dst).Msg("manual rename")
	return true, nil
}

// TagEditResult aggregates the results of EditMetadata.
type TagEditResult struct {
	// Empty is set when there was nothing to write: no non-empty field or
	// no enabled entry.
	Empty bool
	// Invalid is set when a field value was rejected before any write.
	Invalid error
	Written int
	Failed  int
	Errors  []error
}

// Message returns the one-line status shown after a tag edit.
func (r *TagEditResult) Message() string {
	if r.Invalid != nil {
		return r.Invalid.Error()
	}
	if r.Empty {
		return "Nothing to write: fill in a field and enable at least one entry"
	}
	return fmt.Sprintf("Updated tags on %d files, %d failed", r.Written, r.Failed)
}

// Err joins the per-file errors.
func (r *TagEditResult) Err() error {
	if r.Invalid != nil {
		return r.Invalid
	}
	return errors.Join(r.Errors...)
}

// EditMetadata writes the non-empty fields to every enabled entry. Empty
// fields leave the existing values alone.
func (o *Orchestrator) EditMetadata(fields map[tagstore.Field]string) *TagEditResult {
	result := &TagEditResult{}
	fields = tagstore.NonEmpty(fields)
	if len(fields) == 0 || o.session.EnabledCount() == 0 {
		result.Empty = true
		return result
	}
	if err := tagstore.ValidateFields(fields); err != nil {
		result.Invalid = err
		return result
	}

	written := make(map[string]string, len(fields))
	for f, v := range fields {
		written[string(f)] = v
	}

	journaled := o.startRun(audit.RunTypeTagEdit, nil)
	for _, e := range o.session.Entries() {
		if !e.Enabled {
			continue
		}
		if err := o.tags.WriteFields(e.Path, fields); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", e.Path, err))
			if journaled {
				o.journalErr(o.journal.RecordError(e.Path, "", err, "write-tags"))
			}
			continue
		}
		result.Written++
		for f, v := range written {
			_ = o.session.CacheTag(e.Path, f, v)
		}
		if journaled {
			o.journalErr(o.journal.RecordTagsWritten(e.Path, written))
		}
	}

	if journaled {
		status := audit.RunStatusCompleted
		if result.Failed > 0 {
			status = audit.RunStatusFailed
		}
		o.endRun(status, audit.RunSummary{Processed: result.Written + result.Failed, TagErrors: result.Failed})
	}
	return result
}
