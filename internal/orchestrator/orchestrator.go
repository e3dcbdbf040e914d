// Package orchestrator is Refinery's rename engine. It applies normalized
// names to the files of a session, renames single files on request, rolls
// back batches and edits tags, journaling every change it makes.
package orchestrator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"refinery/internal/audit"
	"refinery/internal/composer"
	"refinery/internal/normalizer"
	"refinery/internal/scanner"
	"refinery/internal/session"
	"refinery/internal/tagstore"
)

// Journal receives a record of every change. *audit.Writer implements it.
type Journal interface {
	StartRun(runType audit.RunType, metadata map[string]string) (audit.RunID, error)
	EndRun(status audit.RunStatus, summary audit.RunSummary) error
	RecordRename(source, dest string) error
	RecordManualRename(source, dest string) error
	RecordConflict(source, dest string) error
	RecordSkip(source string, reason audit.ReasonCode) error
	RecordError(source string, reason audit.ReasonCode, err error, operation string) error
	RecordTagsCleared(path string) error
	RecordTagsWritten(path string, fields map[string]string) error
	RecordUndo(n int) error
}

// Orchestrator drives a Session. It is not safe for concurrent use; callers
// serialize access the same way they serialize access to the Session.
type Orchestrator struct {
	session  *session.Session
	tags     tagstore.Store
	journal  Journal
	logger   zerolog.Logger
	scanOpts scanner.ScanOptions
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records changes to j.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithScanOptions sets the options used by AddFolder.
func WithScanOptions(opts scanner.ScanOptions) Option {
	return func(o *Orchestrator) { o.scanOpts = opts }
}

// New creates an Orchestrator for sess using tags as the tag store.
func New(sess *session.Session, tags tagstore.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:  sess,
		tags:     tags,
		logger:   zerolog.Nop(),
		scanOpts: scanner.DefaultScanOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Session returns the session being driven.
func (o *Orchestrator) Session() *session.Session {
	return o.session
}

// formatChecker is implemented by tag stores that only handle some formats.
type formatChecker interface {
	Supports(path string) bool
}

// AddFiles registers paths with the session and returns how many were new.
// Paths the tag store cannot handle are left out.
func (o *Orchestrator) AddFiles(paths ...string) int {
	if fc, ok := o.tags.(formatChecker); ok {
		supported := paths[:0:0]
		for _, p := range paths {
			if !fc.Supports(p) {
				o.logger.Warn().Str("path", p).Msg("unsupported audio format")
				continue
			}
			supported = append(supported, p)
		}
		paths = supported
	}
	added := o.session.Add(paths...)
	o.logger.Debug().Int("requested", len(paths)).Int("added", added).Msg("files added")
	return added
}

// AddFolder scans dir for audio files and registers them.
func (o *Orchestrator) AddFolder(dir string) (int, error) {
	files, err := scanner.ScanWithOptions(dir, o.scanOpts)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FullPath
	}
	return o.AddFiles(paths...), nil
}

// ClearOverride removes the manual override of the entry at path so that
// future batches use the computed name again.
func (o *Orchestrator) ClearOverride(path string) error {
	return o.session.ClearManualOverride(path)
}

// Undo restores the session's entries to their state before the last
// batch. Files on disk and tags are not touched. It returns false when there
// is nothing to undo.
func (o *Orchestrator) Undo() bool {
	if !o.session.Undo() {
		o.logger.Info().Msg("nothing to undo")
		return false
	}
	n := o.session.Len()
	o.logger.Info().Int("entries", n).Msg("restored previous batch state")

	if o.startRun(audit.RunTypeUndo, nil) {
		o.journalErr(o.journal.RecordUndo(n))
		o.endRun(audit.RunStatusCompleted, audit.RunSummary{})
	}
	return true
}

// Tags reads every field of the entry at path and caches the values.
func (o *Orchestrator) Tags(path string) (map[tagstore.Field]string, error) {
	e, ok := o.session.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, session.ErrEntryNotFound)
	}
	out := make(map[tagstore.Field]string, len(tagstore.Fields))
	for _, f := range tagstore.Fields {
		v, err := o.tags.ReadField(e.Path, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		out[f] = v
		_ = o.session.CacheTag(e.Path, string(f), v)
	}
	return out, nil
}

// artistFor resolves the artist used to compose the entry's name: the
// session override, else the entry's contributing artist tag, read once and
// cached. A failed read is retried on the next call.
func (o *Orchestrator) artistFor(e session.FileEntry) string {
	if o.session.Artist() != "" {
		return composer.ResolveArtist(o.session.Artist(), "")
	}
	key := string(tagstore.FieldContributingArtist)
	cached, ok := e.TagCache[key]
	if !ok {
		v, err := o.tags.ReadField(e.Path, tagstore.FieldContributingArtist)
		if err != nil {
			o.logger.Debug().Err(err).Str("path", e.Path).Msg("artist tag unavailable")
			return composer.ResolveArtist("", "")
		}
		cached = v
		_ = o.session.CacheTag(e.Path, key, v)
	}
	return composer.ResolveArtist("", cached)
}

// computedName returns the name the normalizer and composer produce for e,
// without extension.
func (o *Orchestrator) computedName(e session.FileEntry) string {
	title := normalizer.NormalizeTitle(normalizer.BaseName(e.Path))
	if title == "" {
		return ""
	}
	artist := ""
	if o.session.Mode() == composer.ModeArtist {
		artist = o.artistFor(e)
	}
	return composer.ComposeName(title, artist, o.session.Mode())
}

// targetName returns the basename e should have: its manual override when
// set, else the computed name plus the original extension. "" means no
// usable name could be derived.
func (o *Orchestrator) targetName(e session.FileEntry) string {
	if e.ManualOverride != "" {
		return e.ManualOverride
	}
	return composer.TargetBasename(o.computedName(e), filepath.Ext(e.Path))
}

// PreviewRow is one line of a preview.
type PreviewRow struct {
	ID           session.EntryID
	Path         string
	OriginalName string
	// Preview is the target name without the file's extension.
	Preview string
	// Target is the full basename a batch would rename to.
	Target string
	State  session.EntryState
}

// Changed reports whether a batch would rename the entry.
func (r PreviewRow) Changed() bool {
	return r.Target != "" && r.Target != r.OriginalName
}

// Preview computes the target name of every entry without touching disk.
func (o *Orchestrator) Preview() []PreviewRow {
	entries := o.session.Entries()
	rows := make([]PreviewRow, len(entries))
	for i, e := range entries {
		target := o.targetName(e)
		rows[i] = PreviewRow{
			ID:           e.ID,
			Path:         e.Path,
			OriginalName: e.Name(),
			Preview:      strings.TrimSuffix(target, filepath.Ext(e.Path)),
			Target:       target,
			State:        e.State(),
		}
	}
	return rows
}

func (o *Orchestrator) startRun(runType audit.RunType, metadata map[string]string) bool {
	if o.journal == nil {
		return false
	}
	if _, err := o.journal.StartRun(runType, metadata); err != nil {
		o.logger.Warn().Err(err).Msg("journal unavailable")
		return false
	}
	return true
}

func (o *Orchestrator) endRun(status audit.RunStatus, summary audit.RunSummary) {
	o.journalErr(o.journal.EndRun(status, summary))
}

func (o *Orchestrator) journalErr(err error) {
	if err != nil {
		o.logger.Warn().Err(err).Msg("journal write failed")
	}
}
