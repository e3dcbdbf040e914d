// Package output handles CLI output formatting including verbose mode,
// colour and progress indicators.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Config holds output configuration.
type Config struct {
	Verbose   bool      // Enable verbose output
	Color     bool      // Style status words with colour
	Writer    io.Writer // Output destination (default: os.Stdout)
	ErrWriter io.Writer // Error output destination (default: os.Stderr)
	IsTTY     bool      // Whether output is a terminal
}

// Styles are the lipgloss styles applied to status words.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
}

// DefaultStyles returns the palette shared by the CLI and the TUI.
func DefaultStyles() Styles {
	return Styles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// Output handles formatted output with verbose and progress support.
type Output struct {
	config          Config
	styles          Styles
	progressActive  bool
	progressTotal   int
	progressCurrent int
	progressMu      sync.Mutex
}

// New creates a new Output instance with the given configuration.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}
	return &Output{
		config: config,
		styles: DefaultStyles(),
	}
}

// DefaultConfig returns a Config with sensible defaults and TTY detection.
func DefaultConfig() Config {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	return Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		IsTTY:     isTTY,
		Color:     ResolveColor("auto", isTTY),
	}
}

// ResolveColor decides whether to colour output for a colour mode of
// "always", "never" or "auto". Auto colours terminals unless NO_COLOR is set.
func ResolveColor(mode string, isTTY bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		_, noColor := os.LookupEnv("NO_COLOR")
		return isTTY && !noColor
	}
}

func line(format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	return msg
}

// Verbose prints a message only when verbose mode is enabled.
func (o *Output) Verbose(format string, args ...interface{}) {
	if !o.config.Verbose {
		return
	}
	o.clearProgressLine()
	fmt.Fprint(o.config.Writer, line(format, args...))
}

// Info prints an informational message (always shown).
func (o *Output) Info(format string, args ...interface{}) {
	o.clearProgressLine()
	fmt.Fprint(o.config.Writer, line(format, args...))
}

// Error prints an error message to stderr.
func (o *Output) Error(format string, args ...interface{}) {
	o.clearProgressLine()
	fmt.Fprint(o.config.ErrWriter, o.Style(o.styles.Failure, "error: ")+line(format, args...))
}

// Style renders s with st when colour is enabled and returns s unchanged
// otherwise.
func (o *Output) Style(st lipgloss.Style, s string) string {
	if !o.config.Color {
		return s
	}
	return st.Render(s)
}

// Styles returns the palette used by Style.
func (o *Output) Styles() Styles {
	return o.styles
}

// Status prints a status word followed by a message, e.g. "renamed a -> b".
// The word is coloured by kind: "ok", "warn" or "fail".
func (o *Output) Status(kind, word, format string, args ...interface{}) {
	st := o.styles.Muted
	switch kind {
	case "ok":
		st = o.styles.Success
	case "warn":
		st = o.styles.Warning
	case "fail":
		st = o.styles.Failure
	}
	o.clearProgressLine()
	fmt.Fprint(o.config.Writer, o.Style(st, fmt.Sprintf("%-9s", word))+" "+line(format, args...))
}

// clearProgressLine clears the current progress line if active.
func (o *Output) clearProgressLine() {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if o.progressActive && o.config.IsTTY {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

// StartProgress begins a progress indicator session. Progress is only drawn
// on terminals and never in verbose mode.
func (o *Output) StartProgress(total int) {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.progressActive = true
	o.progressTotal = total
	o.progressCurrent = 0
}

// UpdateProgress redraws the progress indicator in place.
func (o *Output) UpdateProgress(current int, message string) {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressCurrent = current
	progressMsg := fmt.Sprintf("\rRenaming file %d/%d...", current, o.progressTotal)
	if message != "" {
		progressMsg = fmt.Sprintf("\r%s %d/%d...", message, current, o.progressTotal)
	}
	fmt.Fprint(o.config.Writer, progressMsg)
}

// EndProgress clears the progress indicator.
func (o *Output) EndProgress() {
	if !o.config.IsTTY || o.config.Verbose {
		return
	}
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressActive = false
	fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the output is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}
