// Package watcher feeds newly created audio files into a running Refinery
// session.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"refinery/internal/scanner"
)

// WatchConfig contains watcher settings.
type WatchConfig struct {
	DebounceMs        int      `json:"debounceMs" yaml:"debounceMs"`               // Delay before a new file is handed over
	StableThresholdMs int      `json:"stableThresholdMs" yaml:"stableThresholdMs"` // How long the size must stay unchanged; 0 disables the check
	IgnorePatterns    []string `json:"ignorePatterns" yaml:"ignorePatterns"`       // Glob patterns matched against the filename
	Extensions        []string `json:"-" yaml:"-"`                                 // Accepted extensions; empty uses scanner.DefaultAudioExtensions
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		DebounceMs:        500,
		StableThresholdMs: 1000,
		IgnorePatterns:    DefaultIgnorePatterns(),
	}
}

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	FilesAdded   int
	FilesSkipped int
	Duration     time.Duration
}

// FileHandler receives each new, stable audio file. It reports whether the
// file was added to the session.
type FileHandler func(path string) (added bool, err error)

// Watcher monitors directories for new audio files.
type Watcher struct {
	config      *WatchConfig
	fileHandler FileHandler
	fsWatcher   *fsnotify.Watcher
	fileFilter  *FileFilter
	debouncer   *Debouncer
	stability   *StabilityChecker
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	wg          sync.WaitGroup
	startTime   time.Time

	mu           sync.Mutex
	filesAdded   int
	filesSkipped int
}

// New creates a new Watcher with the given configuration.
// If config is nil, default configuration is used.
func New(config *WatchConfig, fileHandler FileHandler, logger zerolog.Logger) *Watcher {
	if config == nil {
		config = DefaultWatchConfig()
	}
	w := &Watcher{
		config:      config,
		fileHandler: fileHandler,
		fileFilter:  NewFileFilter(config.IgnorePatterns, config.Extensions),
		logger:      logger.With().Str("component", "watcher").Logger(),
		done:        make(chan struct{}),
	}
	if config.StableThresholdMs > 0 {
		w.stability = NewStabilityChecker(time.Duration(config.StableThresholdMs) * time.Millisecond)
	}
	w.debouncer = NewDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.deliver)
	return w
}

// Start begins watching the specified directories. The watcher runs until
// Stop is called.
func (w *Watcher) Start(dirs []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			fsw.Close()
			return err
		}
		if err := fsw.Add(absDir); err != nil {
			fsw.Close()
			return err
		}
		w.logger.Debug().Str("dir", absDir).Msg("watching")
	}

	w.fsWatcher = fsw
	w.startTime = time.Now()
	w.done = make(chan struct{})
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop shuts down the watcher and returns a summary of the session. Files
// still waiting in the debouncer are dropped.
func (w *Watcher) Stop() *WatchSummary {
	close(w.done)
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.debouncer.CancelAll()

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return &WatchSummary{
		FilesAdded:   w.filesAdded,
		FilesSkipped: w.filesSkipped,
		Duration:     time.Since(w.startTime),
	}
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Downloads often land as a temp file renamed into place, which
			// fsnotify reports as a Create of the final name.
			if event.Op&fsnotify.Create == fsnotify.Create {
				w.handleFileEvent(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handleFileEvent(path string) {
	if w.fileFilter.ShouldIgnore(path) {
		w.logger.Debug().Str("path", path).Msg("ignored")
		return
	}
	w.debouncer.Add(path)
}

// deliver runs once a path has been quiet for the debounce delay.
func (w *Watcher) deliver(path string) {
	if w.ctx.Err() != nil {
		return
	}
	if w.stability != nil {
		if err := w.stability.WaitForStableWithContext(w.ctx, path); err != nil {
			if !errors.Is(err, context.Canceled) {
				w.logger.Debug().Err(err).Str("path", path).Msg("file not stable")
				w.count(false)
			}
			return
		}
	}
	if w.fileHandler == nil {
		w.count(false)
		return
	}
	added, err := w.fileHandler(path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("adding watched file failed")
	}
	w.count(added && err == nil)
}

func (w *Watcher) count(added bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if added {
		w.filesAdded++
	} else {
		w.filesSkipped++
	}
}

// audioExtensions returns the configured extensions or the scanner defaults.
func audioExtensions(exts []string) []string {
	if len(exts) == 0 {
		return scanner.DefaultAudioExtensions
	}
	return exts
}
