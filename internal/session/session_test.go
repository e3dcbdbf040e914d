package session

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery/internal/composer"
)

func TestAddDeduplicatesAndKeepsOrder(t *testing.T) {
	s := New(0)

	added := s.Add("/m/b.mp3", "/m/a.mp3", "/m/b.mp3", "/m/./a.mp3")

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"/m/b.mp3", "/m/a.mp3"}, s.Paths())
	assert.Equal(t, 2, s.EnabledCount())
}

func TestNewDefaults(t *testing.T) {
	s := New(0)
	assert.Equal(t, composer.ModeArtist, s.Mode())
	assert.Equal(t, "", s.Artist())
	assert.Equal(t, 0, s.Len())
}

func TestSetModeIgnoresUnknownModes(t *testing.T) {
	s := New(0)
	s.SetMode(composer.ModeTitleOnly)
	assert.Equal(t, composer.ModeTitleOnly, s.Mode())

	s.SetMode(composer.Mode("shuffle"))
	assert.Equal(t, composer.ModeTitleOnly, s.Mode())
}

func TestRemove(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3", "/m/b.mp3", "/m/c.mp3")

	require.NoError(t, s.Remove("/m/b.mp3"))
	assert.Equal(t, []string{"/m/a.mp3", "/m/c.mp3"}, s.Paths())
	_, ok := s.Lookup("/m/b.mp3")
	assert.False(t, ok)

	assert.ErrorIs(t, s.Remove("/m/b.mp3"), ErrEntryNotFound)
}

func TestToggleAndSelection(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3", "/m/b.mp3")

	enabled, err := s.Toggle("/m/a.mp3")
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, 1, s.EnabledCount())

	s.DeselectAll()
	assert.Equal(t, 0, s.EnabledCount())
	s.SelectAll()
	assert.Equal(t, 2, s.EnabledCount())

	require.NoError(t, s.SetEnabled("/m/b.mp3", false))
	e, ok := s.Lookup("/m/b.mp3")
	require.True(t, ok)
	assert.Equal(t, StateDisabled, e.State())

	_, err = s.Toggle("/m/missing.mp3")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestEntryState(t *testing.T) {
	e := FileEntry{Path: "/m/a.mp3", Enabled: true}
	assert.Equal(t, StateEnabled, e.State())

	e.ManualOverride = "a.mp3"
	assert.Equal(t, StateEnabled, e.State(), "override equal to current name is not manual")

	e.ManualOverride = "b.mp3"
	assert.Equal(t, StateManual, e.State())

	e.Enabled = false
	assert.Equal(t, StateManual, e.State())
}

func TestRekeyCarriesAttributes(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3", "/m/b.mp3")
	require.NoError(t, s.SetManualOverride("/m/a.mp3", "x.mp3"))
	require.NoError(t, s.CacheTag("/m/a.mp3", "Contributing Artist", "Artist"))
	require.NoError(t, s.SetEnabled("/m/a.mp3", false))

	e, _ := s.Lookup("/m/a.mp3")
	require.NoError(t, s.Rekey(e.ID, "/m/x.mp3"))

	_, ok := s.Lookup("/m/a.mp3")
	assert.False(t, ok)
	moved, ok := s.Lookup("/m/x.mp3")
	require.True(t, ok)
	assert.Equal(t, e.ID, moved.ID)
	assert.Equal(t, "x.mp3", moved.ManualOverride)
	assert.Equal(t, "Artist", moved.TagCache["Contributing Artist"])
	assert.False(t, moved.Enabled)
	assert.Equal(t, []string{"/m/x.mp3", "/m/b.mp3"}, s.Paths())
}

func TestRekeyRejectsDuplicate(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3", "/m/b.mp3")
	e, _ := s.Lookup("/m/a.mp3")

	assert.ErrorIs(t, s.Rekey(e.ID, "/m/b.mp3"), ErrDuplicatePath)
	assert.ErrorIs(t, s.Rekey(EntryID(999), "/m/c.mp3"), ErrEntryNotFound)
	assert.Equal(t, []string{"/m/a.mp3", "/m/b.mp3"}, s.Paths())
}

func TestEntriesAreCopies(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3")
	require.NoError(t, s.CacheTag("/m/a.mp3", "Title", "A"))

	entries := s.Entries()
	entries[0].TagCache["Title"] = "changed"
	entries[0].Enabled = false

	e, _ := s.Lookup("/m/a.mp3")
	assert.Equal(t, "A", e.TagCache["Title"])
	assert.True(t, e.Enabled)
}

func TestResetTagCache(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3")
	require.NoError(t, s.CacheTag("/m/a.mp3", "Title", "A"))
	require.NoError(t, s.ResetTagCache("/m/a.mp3"))

	e, _ := s.Lookup("/m/a.mp3")
	assert.Empty(t, e.TagCache)
}

func TestUndoRestoresSnapshot(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3")
	s.Checkpoint()

	e, _ := s.Lookup("/m/a.mp3")
	require.NoError(t, s.Rekey(e.ID, "/m/b.mp3"))
	require.NoError(t, s.SetManualOverride("/m/b.mp3", "b.mp3"))

	assert.Equal(t, 1, s.UndoDepth())
	assert.True(t, s.Undo())
	assert.Equal(t, []string{"/m/a.mp3"}, s.Paths())

	restored, ok := s.Lookup("/m/a.mp3")
	require.True(t, ok)
	assert.Equal(t, "", restored.ManualOverride)

	assert.False(t, s.Undo(), "undo is not itself undoable")
}

func TestUndoEmpty(t *testing.T) {
	s := New(0)
	assert.False(t, s.Undo())
}

func TestClearDropsHistory(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3")
	s.Checkpoint()
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UndoDepth())
	assert.False(t, s.Undo())
}

func TestAddAfterUndoGetsFreshID(t *testing.T) {
	s := New(0)
	s.Add("/m/a.mp3")
	s.Checkpoint()
	s.Add("/m/b.mp3")
	require.True(t, s.Undo())

	s.Add("/m/c.mp3")
	a, _ := s.Lookup("/m/a.mp3")
	c, _ := s.Lookup("/m/c.mp3")
	assert.NotEqual(t, a.ID, c.ID)
}

// Property: checkpoint, arbitrary re-keys, then undo restores the exact path list.
func TestUndoRestoresPathList(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("undo after re-keys restores the path sequence", prop.ForAll(
		func(n int, renames []int) bool {
			s := New(1)
			for i := 0; i < n; i++ {
				s.Add(filepath.Join("/m", fmt.Sprintf("track-%d.mp3", i)))
			}
			before := s.Paths()
			s.Checkpoint()

			entries := s.Entries()
			for i, r := range renames {
				e := entries[r%len(entries)]
				_ = s.Rekey(e.ID, filepath.Join("/m", fmt.Sprintf("renamed-%d.mp3", i)))
			}

			if !s.Undo() {
				return false
			}
			after := s.Paths()
			if len(after) != len(before) {
				return false
			}
			for i := range before {
				if before[i] != after[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
