package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return true, nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func quickConfig() *WatchConfig {
	return &WatchConfig{DebounceMs: 20}
}

func TestWatcherAddsNewAudioFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := New(quickConfig(), rec.handle, zerolog.Nop())
	require.NoError(t, w.Start([]string{dir}))

	path := filepath.Join(dir, "Artist - Song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("id3"), 0644))

	assert.Eventually(t, func() bool { return len(rec.got()) == 1 }, 2*time.Second, 20*time.Millisecond)
	summary := w.Stop()
	assert.Equal(t, []string{path}, rec.got())
	assert.Equal(t, 1, summary.FilesAdded)
}

func TestWatcherIgnoresNonAudioAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := New(quickConfig(), rec.handle, zerolog.Nop())
	require.NoError(t, w.Start([]string{dir}))

	for _, name := range []string{"notes.txt", "song.mp3.part", ".hidden.mp3", "x.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	keep := filepath.Join(dir, "keep.flac")
	require.NoError(t, os.WriteFile(keep, nil, 0644))

	assert.Eventually(t, func() bool { return len(rec.got()) == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	assert.Equal(t, []string{keep}, rec.got())
}

func TestWatcherCountsRejectedFiles(t *testing.T) {
	dir := t.TempDir()
	w := New(quickConfig(), func(string) (bool, error) { return false, nil }, zerolog.Nop())
	require.NoError(t, w.Start([]string{dir}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.mp3"), nil, 0644))
	assert.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.filesSkipped == 1
	}, 2*time.Second, 20*time.Millisecond)

	summary := w.Stop()
	assert.Equal(t, 0, summary.FilesAdded)
	assert.Equal(t, 1, summary.FilesSkipped)
}

func TestWatcherStartFailsOnMissingDir(t *testing.T) {
	w := New(nil, nil, zerolog.Nop())
	assert.Error(t, w.Start([]string{filepath.Join(t.TempDir(), "missing")}))
	assert.Nil(t, w.fsWatcher)

	summary := w.Stop()
	assert.Zero(t, summary.FilesAdded)
}

func TestWatcherStopWithoutEvents(t *testing.T) {
	w := New(quickConfig(), nil, zerolog.Nop())
	require.NoError(t, w.Start([]string{t.TempDir()}))

	summary := w.Stop()
	assert.Zero(t, summary.FilesAdded)
	assert.Zero(t, summary.FilesSkipped)
}

func TestDefaultWatchConfig(t *testing.T) {
	cfg := DefaultWatchConfig()
	assert.Equal(t, 500, cfg.DebounceMs)
	assert.Equal(t, 1000, cfg.StableThresholdMs)
	assert.Equal(t, DefaultIgnorePatterns(), cfg.IgnorePatterns)
	assert.Same(t, cfg, New(cfg, nil, zerolog.Nop()).config)
}
