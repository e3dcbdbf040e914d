package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"refinery/internal/orchestrator"
	"refinery/internal/watcher"
)

// Options configures Run.
type Options struct {
	ClearMetadata bool
	// WatchDirs are watched for new audio files while the TUI runs.
	WatchDirs   []string
	WatchConfig *watcher.WatchConfig
	Logger      zerolog.Logger
}

// Run starts the TUI and blocks until the user quits.
func Run(orch *orchestrator.Orchestrator, opts Options) error {
	p := tea.NewProgram(NewModel(orch, opts.ClearMetadata), tea.WithAltScreen())

	if len(opts.WatchDirs) > 0 {
		w := watcher.New(opts.WatchConfig, func(path string) (bool, error) {
			p.Send(FilesAddedMsg{Paths: []string{path}})
			return true, nil
		}, opts.Logger)
		if err := w.Start(opts.WatchDirs); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer func() {
			summary := w.Stop()
			opts.Logger.Info().
				Int("added", summary.FilesAdded).
				Int("skipped", summary.FilesSkipped).
				Dur("duration", summary.Duration).
				Msg("watch stopped")
		}()
	}

	_, err := p.Run()
	return err
}
