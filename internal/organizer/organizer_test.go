package organizer

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRenameMovesFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Artist - Song (Official Audio).mp3")
	dst := filepath.Join(dir, "Artist - Song.mp3")
	writeFile(t, src, "audio")

	result, err := Rename(src, dst)
	require.NoError(t, err)
	assert.False(t, result.Unchanged)
	assert.Equal(t, dst, result.DestinationPath)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestRenameRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dst := filepath.Join(dir, "b.mp3")
	writeFile(t, src, "source")
	writeFile(t, dst, "existing")

	_, err := Rename(src, dst)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var moveErr *MoveError
	require.True(t, errors.As(err, &moveErr))
	assert.Equal(t, DestinationExists, moveErr.Type)

	got, _ := os.ReadFile(dst)
	assert.Equal(t, "existing", string(got))
	assert.FileExists(t, src)
}

func TestRenameSamePathIsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	writeFile(t, src, "x")

	result, err := Rename(src, src)
	require.NoError(t, err)
	assert.True(t, result.Unchanged)
	assert.FileExists(t, src)
}

func TestRenameRefusesHardLinkTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Artist - Song (Official Audio).mp3")
	dst := filepath.Join(dir, "Artist - Song.mp3")
	writeFile(t, src, "audio")
	if err := os.Link(src, dst); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	_, err := Rename(src, dst)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.FileExists(t, src)
	assert.FileExists(t, dst)
}

func TestRenameRefusesCaseVariantHardLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	dst := filepath.Join(dir, "Song.mp3")
	writeFile(t, src, "audio")
	if err := os.Link(src, dst); err != nil {
		t.Skipf("case-insensitive filesystem or hard links unsupported: %v", err)
	}

	_, err := Rename(src, dst)
	assert.True(t, IsConflict(err))
	assert.FileExists(t, src)
}

func TestRenameCaseOnlyChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	dst := filepath.Join(dir, "Song.mp3")
	writeFile(t, src, "audio")

	_, err := Rename(src, dst)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Song.mp3", entries[0].Name())
}

func TestRenameMissingSource(t *testing.T) {
	dir := t.TempDir()

	_, err := Rename(filepath.Join(dir, "gone.mp3"), filepath.Join(dir, "new.mp3"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, SourceNotFound))
}

func TestRenamePermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	writeFile(t, src, "x")
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	_, err := Rename(src, filepath.Join(dir, "b.mp3"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, PermissionDenied))
}

func TestRenameInPlace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.flac")
	writeFile(t, src, "x")

	result, err := RenameInPlace(src, "new.flac")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.flac"), result.DestinationPath)
}

func TestValidateBasename(t *testing.T) {
	for _, name := range []string{"", "  ", ".", "..", "a/b.mp3", "a\x00b"} {
		err := ValidateBasename(name)
		assert.ErrorIs(t, err, ErrInvalidName, "%q", name)
		assert.True(t, IsErrorType(err, InvalidName), "%q", name)
	}
	assert.NoError(t, ValidateBasename("Artist - Song.mp3"))
}

func TestMoveErrorMessage(t *testing.T) {
	err := &MoveError{Type: DestinationExists, Path: "/m/a.mp3"}
	assert.Equal(t, "DESTINATION_EXISTS: /m/a.mp3", err.Error())

	wrapped := &MoveError{Type: SourceNotFound, Path: "/m/a.mp3", Err: os.ErrNotExist}
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
}

// genBasename generates simple distinct-looking basenames.
func genBasename() gopter.Gen {
	return gen.SliceOfN(8, gen.AlphaLowerChar()).Map(func(chars []rune) string {
		return string(chars) + ".mp3"
	})
}

// Property: a rename preserves file content byte for byte.
func TestRenameContentIntegrity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	properties.Property("content hash is unchanged by rename", prop.ForAll(
		func(content []byte, from, to string) bool {
			if from == to {
				return true
			}
			dir, err := os.MkdirTemp("", "refinery-organizer-*")
			if err != nil {
				return false
			}
			defer os.RemoveAll(dir)

			src := filepath.Join(dir, from)
			if err := os.WriteFile(src, content, 0644); err != nil {
				return false
			}
			result, err := Rename(src, filepath.Join(dir, to))
			if err != nil {
				t.Logf("Rename failed: %v", err)
				return false
			}
			got, err := os.ReadFile(result.DestinationPath)
			if err != nil {
				return false
			}
			return sha256.Sum256(content) == sha256.Sum256(got)
		},
		gen.SliceOf(gen.UInt8()),
		genBasename(),
		genBasename(),
	))

	properties.TestingRun(t)
}

// Property: an occupied destination is never overwritten and the source stays put.
func TestRenameNeverOverwrites(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	properties.Property("collision leaves both files untouched", prop.ForAll(
		func(from, to string) bool {
			if from == to {
				return true
			}
			dir, err := os.MkdirTemp("", "refinery-organizer-*")
			if err != nil {
				return false
			}
			defer os.RemoveAll(dir)

			src := filepath.Join(dir, from)
			dst := filepath.Join(dir, to)
			os.WriteFile(src, []byte("src"), 0644)
			os.WriteFile(dst, []byte("dst"), 0644)

			_, err = Rename(src, dst)
			if !IsConflict(err) {
				return false
			}
			s, _ := os.ReadFile(src)
			d, _ := os.ReadFile(dst)
			return string(s) == "src" && string(d) == "dst"
		},
		genBasename(),
		genBasename(),
	))

	properties.TestingRun(t)
}
