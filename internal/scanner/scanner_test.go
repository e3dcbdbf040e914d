package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func names(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestScanFiltersAudioExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp3"))
	touch(t, filepath.Join(dir, "a.FLAC"))
	touch(t, filepath.Join(dir, "cover.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.mp3"))

	entries, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.FLAC", "b.mp3"}, names(entries))

	for _, e := range entries {
		assert.True(t, filepath.IsAbs(e.FullPath))
	}
}

func TestScanRecursesByDefault(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.mp3"))
	touch(t, filepath.Join(dir, "Album", "01 - Song.mp3"))
	touch(t, filepath.Join(dir, "Album", "Disc 2", "01 - Other.mp3"))
	touch(t, filepath.Join(dir, ".cache", "skipped.mp3"))

	entries, err := Scan(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top.mp3", "01 - Song.mp3", "01 - Other.mp3"}, names(entries))
}

func TestScanIncludeHidden(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, ".hidden.mp3"))

	opts := DefaultScanOptions()
	opts.IncludeHidden = true
	entries, err := ScanWithOptions(dir, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden.mp3"}, names(entries))
}

func TestScanEmptyExtensionsAcceptsAll(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.wav"))
	touch(t, filepath.Join(dir, "b.txt"))

	entries, err := ScanWithOptions(dir, ScanOptions{MaxDepth: 0, SymlinkPolicy: SymlinkPolicySkip})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, DirectoryNotFound, scanErr.Type)
}

func TestScanFileIsNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	touch(t, path)

	_, err := Scan(path)
	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, DirectoryNotFound, scanErr.Type)
}

func TestSymlinkPolicies(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.mp3")
	touch(t, target)
	if err := os.Symlink(target, filepath.Join(dir, "link.mp3")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	skip := DefaultScanOptions()
	entries, err := ScanWithOptions(dir, skip)
	require.NoError(t, err)
	assert.Empty(t, entries)

	follow := DefaultScanOptions()
	follow.SymlinkPolicy = SymlinkPolicyFollow
	entries, err = ScanWithOptions(dir, follow)
	require.NoError(t, err)
	assert.Equal(t, []string{"link.mp3"}, names(entries))

	strict := DefaultScanOptions()
	strict.SymlinkPolicy = SymlinkPolicyError
	_, err = ScanWithOptions(dir, strict)
	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, SymlinkError, scanErr.Type)
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("a.MP3", []string{".mp3"}))
	assert.True(t, IsAudioFile("a.flac", []string{"flac"}))
	assert.False(t, IsAudioFile("a.mp3.part", []string{".mp3"}))
	assert.True(t, IsAudioFile("anything", nil))
}

// Property: depth 0 returns only immediate files, unlimited depth returns all of them.
func TestScanDepthLimiting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("depth bounds the files returned", prop.ForAll(
		func(top, nested int) bool {
			dir := t.TempDir()
			for i := 0; i < top; i++ {
				touch(t, filepath.Join(dir, "top_"+strconv.Itoa(i)+".mp3"))
			}
			for i := 0; i < nested; i++ {
				touch(t, filepath.Join(dir, "sub", "nested_"+strconv.Itoa(i)+".mp3"))
			}

			shallow := DefaultScanOptions()
			shallow.MaxDepth = 0
			got, err := ScanWithOptions(dir, shallow)
			if err != nil || len(got) != top {
				return false
			}

			got, err = Scan(dir)
			return err == nil && len(got) == top+nested
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
