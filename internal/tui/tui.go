// Package tui provides the Bubble Tea interface of Refinery: a list of
// tracked files with their previewed names, batch rename, undo, manual
// edits and tag editing.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"refinery/internal/orchestrator"
	"refinery/internal/session"
	"refinery/internal/tagstore"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))

	manualStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C77DFF"))
)

// inputKind is what the text input is currently collecting.
type inputKind int

const (
	inputNone inputKind = iota
	inputRename
	inputArtist
	inputFolder
	inputTag
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusOK
	statusWarn
	statusError
)

// FilesAddedMsg asks the model to track new files. The watcher delivers
// created files this way so the session is only touched from Update.
type FilesAddedMsg struct {
	Paths []string
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	orch          *orchestrator.Orchestrator
	rows          []orchestrator.PreviewRow
	cursor        int
	offset        int
	clearMetadata bool

	input     textinput.Model
	inputKind inputKind
	tagIndex  int
	tagValues map[tagstore.Field]string

	// confirmClear is set while the clear-list prompt is showing.
	confirmClear bool

	help   help.Model
	status string
	level  statusLevel

	width  int
	height int
}

// NewModel creates a model driving orch. clearMetadata is the initial
// state of the nuke-tags toggle.
func NewModel(orch *orchestrator.Orchestrator, clearMetadata bool) Model {
	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 60

	m := Model{
		orch:          orch,
		clearMetadata: clearMetadata,
		input:         ti,
		help:          help.New(),
		height:        24,
	}
	m.refresh()
	if len(m.rows) == 0 {
		m.setStatus(statusInfo, "No files yet: press o to add a folder")
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) refresh() {
	m.rows = m.orch.Preview()
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.clampOffset()
}

func (m *Model) setStatus(level statusLevel, format string, args ...interface{}) {
	m.level = level
	m.status = fmt.Sprintf(format, args...)
}

func (m Model) current() (orchestrator.PreviewRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return orchestrator.PreviewRow{}, false
	}
	return m.rows[m.cursor], true
}

// listHeight is the number of rows that fit between header and footer.
func (m Model) listHeight() int {
	return max(m.height-9, 3)
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampOffset()
		return m, nil

	case FilesAddedMsg:
		added := m.orch.AddFiles(msg.Paths...)
		m.refresh()
		if added > 0 {
			m.setStatus(statusInfo, "Added %d new file(s)", added)
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirmClear {
			return m.confirmClearKey(msg)
		}
		if m.inputKind != inputNone {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.orch.Session()
	row, haveRow := m.current()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.clampOffset()
		}

	case key.Matches(msg, keys.Toggle):
		if haveRow {
			if _, err := sess.Toggle(row.Path); err != nil {
				m.setStatus(statusError, "%v", err)
			}
			m.refresh()
		}

	case key.Matches(msg, keys.SelectAll):
		sess.SelectAll()
		m.refresh()

	case key.Matches(msg, keys.SelectNone):
		sess.DeselectAll()
		m.refresh()

	case key.Matches(msg, keys.Mode):
		sess.SetMode(sess.Mode().Toggle())
		m.refresh()
		m.setStatus(statusInfo, "Naming mode: %s", sess.Mode())

	case key.Matches(msg, keys.Nuke):
		m.clearMetadata = !m.clearMetadata
		if m.clearMetadata {
			m.setStatus(statusWarn, "All tags will be removed from renamed files")
		} else {
			m.setStatus(statusInfo, "Tags will be kept")
		}

	case key.Matches(msg, keys.Apply):
		result := m.orch.ApplyBatch(orchestrator.BatchOptions{ClearMetadata: m.clearMetadata})
		m.refresh()
		switch {
		case result.Empty:
			m.setStatus(statusWarn, "%s", result.Message())
		case result.HasErrors():
			m.setStatus(statusError, "%s", result.Message())
		case result.Conflicts > 0:
			m.setStatus(statusWarn, "%s", result.Message())
		default:
			m.setStatus(statusOK, "%s", result.Message())
		}

	case key.Matches(msg, keys.Undo):
		if m.orch.Undo() {
			m.setStatus(statusOK, "Restored the list from before the last batch (files stay where they are)")
		} else {
			m.setStatus(statusWarn, "Nothing to undo")
		}
		m.refresh()

	case key.Matches(msg, keys.Edit):
		if haveRow {
			return m.startInput(inputRename, "New name: ", row.OriginalName)
		}

	case key.Matches(msg, keys.Clear):
		if haveRow {
			if err := m.orch.ClearOverride(row.Path); err != nil {
				m.setStatus(statusError, "%v", err)
			} else {
				m.setStatus(statusInfo, "Manual name cleared")
			}
			m.refresh()
		}

	case key.Matches(msg, keys.Artist):
		return m.startInput(inputArtist, "Artist (empty uses tags): ", sess.Artist())

	case key.Matches(msg, keys.AddFolder):
		return m.startInput(inputFolder, "Folder: ", "")

	case key.Matches(msg, keys.Tags):
		m.tagIndex = 0
		m.tagValues = make(map[tagstore.Field]string)
		return m.startInput(inputTag, tagPrompt(0), "")

	case key.Matches(msg, keys.Remove):
		if haveRow {
			if err := sess.Remove(row.Path); err != nil {
				m.setStatus(statusError, "%v", err)
			}
			m.refresh()
		}

	case key.Matches(msg, keys.ClearAll):
		if len(m.rows) > 0 {
			m.confirmClear = true
			m.setStatus(statusWarn, "Clear the list and undo history? (y/N)")
		}

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// confirmClearKey answers the clear-list prompt. Only y confirms.
func (m Model) confirmClearKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirmClear = false
	if msg.String() == "y" || msg.String() == "Y" {
		m.orch.Session().Clear()
		m.cursor, m.offset = 0, 0
		m.refresh()
		m.setStatus(statusInfo, "Session cleared")
		return m, nil
	}
	m.setStatus(statusInfo, "Cancelled")
	return m, nil
}

func tagPrompt(i int) string {
	return fmt.Sprintf("%s (%d/%d, empty keeps): ", tagstore.Fields[i], i+1, len(tagstore.Fields))
}

func (m Model) startInput(kind inputKind, prompt, value string) (tea.Model, tea.Cmd) {
	m.inputKind = kind
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) endInput() Model {
	m.inputKind = inputNone
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m = m.endInput()
		m.setStatus(statusInfo, "Cancelled")
		return m, nil
	case tea.KeyEnter:
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	kind := m.inputKind

	if kind == inputTag {
		m.tagValues[tagstore.Fields[m.tagIndex]] = strings.TrimSpace(value)
		m.tagIndex++
		if m.tagIndex < len(tagstore.Fields) {
			m.input.Prompt = tagPrompt(m.tagIndex)
			m.input.SetValue("")
			return m, nil
		}
	}

	m = m.endInput()
	switch kind {
	case inputRename:
		m.renameCurrent(value)
	case inputArtist:
		m.orch.Session().SetArtist(strings.TrimSpace(value))
		m.setStatus(statusInfo, "Artist override: %q", m.orch.Session().Artist())
	case inputFolder:
		n, err := m.orch.AddFolder(strings.TrimSpace(value))
		if err != nil {
			m.setStatus(statusError, "%v", err)
		} else {
			m.setStatus(statusInfo, "Added %d file(s)", n)
		}
	case inputTag:
		result := m.orch.EditMetadata(m.tagValues)
		level := statusOK
		switch {
		case result.Empty:
			level = statusWarn
		case result.Invalid != nil, result.Failed > 0:
			level = statusError
		}
		m.setStatus(level, "%s", result.Message())
	}
	m.refresh()
	return m, nil
}

func (m *Model) renameCurrent(name string) {
	row, ok := m.current()
	if !ok {
		return
	}
	renamed, err := m.orch.RenameOne(row.Path, strings.TrimSpace(name))
	switch {
	case renamed:
		m.setStatus(statusOK, "Renamed to %s", strings.TrimSpace(name))
	case err != nil:
		m.setStatus(statusError, "Rename failed: %v", err)
	}
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	sess := m.orch.Session()

	b.WriteString(titleStyle.Render("Refinery"))
	b.WriteString("  ")
	nuke := "keep tags"
	if m.clearMetadata {
		nuke = warningStyle.Render("nuke tags")
	}
	artist := sess.Artist()
	if artist == "" {
		artist = "from tags"
	}
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("mode: %s  artist: %s  ", sess.Mode(), artist)))
	b.WriteString(nuke)
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d selected", sess.EnabledCount(), len(m.rows))))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.listHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.inputKind != inputNone {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.renderStatus())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderRow(i int) string {
	row := m.rows[i]
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}

	var box string
	switch row.State {
	case session.StateManual:
		box = manualStyle.Render("[M]")
	case session.StateDisabled:
		box = dimStyle.Render("[ ]")
	default:
		box = "[x]"
	}

	preview := row.Preview
	switch {
	case row.Target == "":
		preview = errorStyle.Render("(no usable name)")
	case !row.Changed():
		preview = dimStyle.Render(preview)
	case row.State == session.StateManual:
		preview = manualStyle.Render(preview)
	default:
		preview = successStyle.Render(preview)
	}

	return fmt.Sprintf("%s%s %s %s %s", pointer, box, row.OriginalName, dimStyle.Render("→"), preview)
}

func (m Model) renderStatus() string {
	switch m.level {
	case statusOK:
		return successStyle.Render(m.status)
	case statusWarn:
		return warningStyle.Render(m.status)
	case statusError:
		return errorStyle.Render(m.status)
	default:
		return m.status
	}
}
