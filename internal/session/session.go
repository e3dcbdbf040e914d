// Package session holds the ordered set of audio files being refined along
// with the naming settings and the undo history that apply to them.
package session

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"refinery/internal/composer"
	"refinery/internal/undo"
)

var (
	// ErrEntryNotFound is returned when an operation names a file that is not in the session.
	ErrEntryNotFound = errors.New("entry not found in session")
	// ErrDuplicatePath is returned when a re-key would give two entries the same path.
	ErrDuplicatePath = errors.New("path already tracked by another entry")
)

// EntryID identifies a FileEntry for its whole lifetime, across renames.
type EntryID uint64

// EntryState is the display state of an entry.
type EntryState string

const (
	StateEnabled  EntryState = "enabled"
	StateDisabled EntryState = "disabled"
	StateManual   EntryState = "manual"
)

// FileEntry is one tracked audio file.
type FileEntry struct {
	ID   EntryID
	Path string
	// Enabled entries take part in batch renames.
	Enabled bool
	// ManualOverride is a full basename chosen by the user. When set it wins
	// over the computed preview.
	ManualOverride string
	// TagCache holds tag values already read from the file, keyed by field name.
	TagCache map[string]string
}

// Name returns the entry's current basename.
func (e FileEntry) Name() string {
	return filepath.Base(e.Path)
}

// State reports whether the entry is disabled, enabled, or carries a manual
// override that differs from its current name.
func (e FileEntry) State() EntryState {
	if e.ManualOverride != "" && e.ManualOverride != e.Name() {
		return StateManual
	}
	if !e.Enabled {
		return StateDisabled
	}
	return StateEnabled
}

func (e FileEntry) clone() FileEntry {
	c := e
	c.TagCache = maps.Clone(e.TagCache)
	return c
}

// Snapshot is a copy of the session's entries taken before a batch.
type Snapshot struct {
	Entries []FileEntry
	TakenAt time.Time
}

// Paths returns the snapshot's path sequence.
func (s Snapshot) Paths() []string {
	paths := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Session owns every FileEntry and the undo history. It is not safe for
// concurrent use.
type Session struct {
	order   []EntryID
	entries map[EntryID]*FileEntry
	byPath  map[string]EntryID
	nextID  EntryID

	mode   composer.Mode
	artist string

	history *undo.Log[Snapshot]
}

// New creates an empty session in artist mode. undoDepth bounds the number of
// batch snapshots kept; zero keeps them all.
func New(undoDepth int) *Session {
	return &Session{
		entries: make(map[EntryID]*FileEntry),
		byPath:  make(map[string]EntryID),
		mode:    composer.ModeArtist,
		history: undo.New[Snapshot](undoDepth),
	}
}

// CleanPath returns the absolute, cleaned form of path used as the session key.
func CleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Add registers paths in order, skipping any already tracked. New entries
// start enabled. It returns the number of entries added.
func (s *Session) Add(paths ...string) int {
	added := 0
	for _, p := range paths {
		p = CleanPath(p)
		if _, exists := s.byPath[p]; exists {
			continue
		}
		s.nextID++
		e := &FileEntry{ID: s.nextID, Path: p, Enabled: true}
		s.entries[e.ID] = e
		s.byPath[p] = e.ID
		s.order = append(s.order, e.ID)
		added++
	}
	return added
}

// Remove drops the entry for path.
func (s *Session) Remove(path string) error {
	e, err := s.find(path)
	if err != nil {
		return err
	}
	delete(s.entries, e.ID)
	delete(s.byPath, e.Path)
	for i, id := range s.order {
		if id == e.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear drops every entry and the undo history.
func (s *Session) Clear() {
	s.order = nil
	s.entries = make(map[EntryID]*FileEntry)
	s.byPath = make(map[string]EntryID)
	s.history.Clear()
}

// Len returns the number of tracked entries.
func (s *Session) Len() int { return len(s.order) }

// EnabledCount returns the number of enabled entries.
func (s *Session) EnabledCount() int {
	n := 0
	for _, id := range s.order {
		if s.entries[id].Enabled {
			n++
		}
	}
	return n
}

// Paths returns the current path sequence in insertion order.
func (s *Session) Paths() []string {
	paths := make([]string, len(s.order))
	for i, id := range s.order {
		paths[i] = s.entries[id].Path
	}
	return paths
}

// Entries returns copies of every entry in insertion order. Mutating the
// result does not affect the session.
func (s *Session) Entries() []FileEntry {
	out := make([]FileEntry, len(s.order))
	for i, id := range s.order {
		out[i] = s.entries[id].clone()
	}
	return out
}

// Lookup returns a copy of the entry currently at path.
func (s *Session) Lookup(path string) (FileEntry, bool) {
	e, err := s.find(path)
	if err != nil {
		return FileEntry{}, false
	}
	return e.clone(), true
}

// SetEnabled includes or excludes the entry at path from batches.
func (s *Session) SetEnabled(path string, enabled bool) error {
	e, err := s.find(path)
	if err != nil {
		return err
	}
	e.Enabled = enabled
	return nil
}

// Toggle flips the enabled flag of the entry at path and returns the new value.
func (s *Session) Toggle(path string) (bool, error) {
	e, err := s.find(path)
	if err != nil {
		return false, err
	}
	e.Enabled = !e.Enabled
	return e.Enabled, nil
}

// SelectAll enables every entry.
func (s *Session) SelectAll() { s.setAll(true) }

// DeselectAll disables every entry.
func (s *Session) DeselectAll() { s.setAll(false) }

func (s *Session) setAll(enabled bool) {
	for _, e := range s.entries {
		e.Enabled = enabled
	}
}

// SetManualOverride records name as the basename to use for path.
func (s *Session) SetManualOverride(path, name string) error {
	e, err := s.find(path)
	if err != nil {
		return err
	}
	e.ManualOverride = name
	return nil
}

// ClearManualOverride removes any manual override for path.
func (s *Session) ClearManualOverride(path string) error {
	return s.SetManualOverride(path, "")
}

// CacheTag stores a tag value read for the entry at path.
func (s *Session) CacheTag(path, field, value string) error {
	e, err := s.find(path)
	if err != nil {
		return err
	}
	if e.TagCache == nil {
		e.TagCache = make(map[string]string)
	}
	e.TagCache[field] = value
	return nil
}

// ResetTagCache forgets every cached tag value for path.
func (s *Session) ResetTagCache(path string) error {
	e, err := s.find(path)
	if err != nil {
		return err
	}
	e.TagCache = nil
	return nil
}

// Rekey moves the entry with the given ID to newPath. Enabled state, manual
// override and tag cache stay with the entry.
func (s *Session) Rekey(id EntryID, newPath string) error {
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("rekey entry %d: %w", id, ErrEntryNotFound)
	}
	newPath = CleanPath(newPath)
	if owner, taken := s.byPath[newPath]; taken && owner != id {
		return fmt.Errorf("rekey %s: %w", newPath, ErrDuplicatePath)
	}
	delete(s.byPath, e.Path)
	e.Path = newPath
	s.byPath[newPath] = id
	return nil
}

// Mode returns the naming mode.
func (s *Session) Mode() composer.Mode { return s.mode }

// SetMode changes the naming mode. Unknown modes are ignored.
func (s *Session) SetMode(m composer.Mode) {
	if m.Valid() {
		s.mode = m
	}
}

// Artist returns the shared artist override.
func (s *Session) Artist() string { return s.artist }

// SetArtist sets the shared artist override. An empty string clears it.
func (s *Session) SetArtist(artist string) { s.artist = artist }

// Checkpoint pushes a snapshot of the current entries onto the undo history.
func (s *Session) Checkpoint() Snapshot {
	snap := Snapshot{Entries: s.Entries(), TakenAt: time.Now()}
	s.history.Push(snap)
	return snap
}

// Undo restores the entries from the most recent snapshot. It returns false
// when there is nothing to undo. Files on disk are not touched.
func (s *Session) Undo() bool {
	snap, err := s.history.Pop()
	if err != nil {
		return false
	}
	s.order = make([]EntryID, 0, len(snap.Entries))
	s.entries = make(map[EntryID]*FileEntry, len(snap.Entries))
	s.byPath = make(map[string]EntryID, len(snap.Entries))
	for _, e := range snap.Entries {
		restored := e.clone()
		s.order = append(s.order, restored.ID)
		s.entries[restored.ID] = &restored
		s.byPath[restored.Path] = restored.ID
	}
	return true
}

// UndoDepth returns the number of snapshots available to undo.
func (s *Session) UndoDepth() int { return s.history.Len() }

// OwnerOf returns the ID of the entry tracked at path.
func (s *Session) OwnerOf(path string) (EntryID, bool) {
	id, ok := s.byPath[CleanPath(path)]
	return id, ok
}

func (s *Session) find(path string) (*FileEntry, error) {
	id, ok := s.byPath[CleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrEntryNotFound)
	}
	return s.entries[id], nil
}
