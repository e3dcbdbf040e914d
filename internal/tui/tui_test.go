package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery/internal/composer"
	"refinery/internal/orchestrator"
	"refinery/internal/session"
	"refinery/internal/tagstore"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeText(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, runes(string(r)))
	}
	return msgs
}

func setup(t *testing.T, names ...string) (Model, *orchestrator.Orchestrator, *tagstore.Memory, string) {
	t.Helper()
	dir := t.TempDir()
	mem := tagstore.NewMemory()
	orch := orchestrator.New(session.New(0), mem)
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		orch.AddFiles(path)
	}
	return NewModel(orch, false), orch, mem, dir
}

func TestEmptyModelPromptsForFiles(t *testing.T) {
	m, _, _, _ := setup(t)
	assert.Contains(t, m.View(), "press o to add a folder")
	assert.Contains(t, m.View(), "(empty)")
}

func TestApplyAndUndo(t *testing.T) {
	m, orch, _, dir := setup(t, "Band - Tune (Official Video).mp3")
	assert.Contains(t, m.View(), "Tune")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{filepath.Join(dir, "Tune.mp3")}, orch.Session().Paths())
	assert.Equal(t, statusOK, m.level)
	assert.Contains(t, m.status, "1 renamed")

	m = send(t, m, runes("u"))
	assert.Equal(t, []string{filepath.Join(dir, "Band - Tune (Official Video).mp3")}, orch.Session().Paths())

	m = send(t, m, runes("u"))
	assert.Equal(t, "Nothing to undo", m.status)
}

func TestToggleAndSelection(t *testing.T) {
	m, orch, _, _ := setup(t, "a.mp3", "b.mp3")

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 1, orch.Session().EnabledCount())
	assert.Equal(t, session.StateDisabled, m.rows[0].State)

	m = send(t, m, runes("j"), tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 0, orch.Session().EnabledCount())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, statusWarn, m.level)

	m = send(t, m, runes("a"))
	assert.Equal(t, 2, orch.Session().EnabledCount())
	send(t, m, runes("n"))
	assert.Equal(t, 0, orch.Session().EnabledCount())
}

func TestModeToggle(t *testing.T) {
	m, orch, mem, dir := setup(t, "x - Song.mp3")
	path := filepath.Join(dir, "x - Song.mp3")
	mem.Set(path, tagstore.FieldContributingArtist, "Artist")
	require.NoError(t, orch.Session().ResetTagCache(path))
	m.refresh()
	assert.Equal(t, "Artist - Song", m.rows[0].Preview)

	m = send(t, m, runes("m"))
	assert.Equal(t, composer.ModeTitleOnly, orch.Session().Mode())
	assert.Equal(t, "Song", m.rows[0].Preview)
}

func TestManualEdit(t *testing.T) {
	m, orch, _, dir := setup(t, "old.mp3")

	m = send(t, m, runes("e"))
	assert.Equal(t, inputRename, m.inputKind)
	assert.Equal(t, "old.mp3", m.input.Value())

	msgs := []tea.Msg{}
	for range "old.mp3" {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	msgs = append(msgs, typeText("new.mp3")...)
	msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, msgs...)

	assert.Equal(t, inputNone, m.inputKind)
	assert.Equal(t, []string{filepath.Join(dir, "new.mp3")}, orch.Session().Paths())
	assert.FileExists(t, filepath.Join(dir, "new.mp3"))

	m = send(t, m, runes("c"))
	e, _ := orch.Session().Lookup(filepath.Join(dir, "new.mp3"))
	assert.Empty(t, e.ManualOverride)
}

func TestEditCancelled(t *testing.T) {
	m, orch, _, dir := setup(t, "old.mp3")
	m = send(t, m, runes("e"), runes("z"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, m.inputKind)
	assert.Equal(t, []string{filepath.Join(dir, "old.mp3")}, orch.Session().Paths())
}

func TestNukeToggle(t *testing.T) {
	m, _, mem, dir := setup(t, "a.mp3")
	path := filepath.Join(dir, "a.mp3")
	mem.Set(path, tagstore.FieldTitle, "x")

	m = send(t, m, runes("x"))
	assert.True(t, m.clearMetadata)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, mem.Tags(path))
	assert.Contains(t, m.status, "tags cleared on 1")
}

func TestArtistOverride(t *testing.T) {
	m, orch, _, _ := setup(t, "x - Song.mp3")
	msgs := append([]tea.Msg{runes("A")}, typeText("Me")...)
	msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, msgs...)

	assert.Equal(t, "Me", orch.Session().Artist())
	assert.Equal(t, "Me - Song", m.rows[0].Preview)
}

func TestTagEditing(t *testing.T) {
	m, _, mem, dir := setup(t, "a.mp3")

	msgs := []tea.Msg{runes("t")}
	msgs = append(msgs, typeText("Title")...)
	for range tagstore.Fields {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
	}
	m = send(t, m, msgs...)

	assert.Equal(t, inputNone, m.inputKind)
	assert.Equal(t, map[tagstore.Field]string{tagstore.FieldTitle: "Title"}, mem.Tags(filepath.Join(dir, "a.mp3")))
	assert.Contains(t, m.status, "Updated tags on 1 files")
}

func TestAddFolderAndWatchedFiles(t *testing.T) {
	m, orch, _, _ := setup(t)
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "n.mp3"), nil, 0644))

	msgs := append([]tea.Msg{runes("o")}, typeText(other)...)
	msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, msgs...)
	assert.Equal(t, 1, orch.Session().Len())

	watched := filepath.Join(other, "w.flac")
	m = send(t, m, FilesAddedMsg{Paths: []string{watched}})
	assert.Equal(t, 2, orch.Session().Len())
	assert.Contains(t, m.status, "Added 1 new file")

	m = send(t, m, runes("d"))
	assert.Equal(t, 1, orch.Session().Len())
}

func TestClearListNeedsConfirmation(t *testing.T) {
	m, orch, _, _ := setup(t, "Band - Tune.mp3", "b.mp3")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, 1, orch.Session().UndoDepth())

	m = send(t, m, runes("C"))
	assert.True(t, m.confirmClear)
	assert.Contains(t, m.status, "(y/N)")

	m = send(t, m, runes("n"))
	assert.False(t, m.confirmClear)
	assert.Equal(t, "Cancelled", m.status)
	assert.Equal(t, 2, orch.Session().Len())

	m = send(t, m, runes("C"), runes("y"))
	assert.Equal(t, "Session cleared", m.status)
	assert.Equal(t, 0, orch.Session().Len())
	assert.Equal(t, 0, orch.Session().UndoDepth())
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "(empty)")

	m = send(t, m, runes("C"))
	assert.False(t, m.confirmClear)
}

func TestQuit(t *testing.T) {
	m, _, _, _ := setup(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = string(rune('a'+i)) + ".mp3"
	}
	m, _, _, _ := setup(t, names...)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 12})

	for range 15 {
		m = send(t, m, runes("j"))
	}
	assert.Equal(t, 15, m.cursor)
	assert.LessOrEqual(t, m.offset, m.cursor)
	assert.Greater(t, m.offset+m.listHeight(), m.cursor)
	assert.Contains(t, m.View(), "p.mp3")
}
