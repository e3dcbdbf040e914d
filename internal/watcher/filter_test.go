package watcher

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestFileFilter(t *testing.T) {
	f := NewFileFilter(nil, nil)

	tests := []struct {
		path   string
		ignore bool
	}{
		{"/m/song.mp3", false},
		{"/m/SONG.MP3", false},
		{"/m/song.flac", false},
		{"/m/song.ogg", true},
		{"/m/cover.jpg", true},
		{"/m/song.mp3.part", true},
		{"/m/song.mp3.crdownload", true},
		{"/m/.~lock.mp3", true},
		{"/m/.hidden.mp3", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ignore, f.ShouldIgnore(tt.path), tt.path)
	}
}

func TestFileFilterCustomExtensionsAndPatterns(t *testing.T) {
	f := NewFileFilter([]string{"draft*", ".bak.mp3"}, []string{"mp3", ".ogg"})

	assert.False(t, f.ShouldIgnore("/m/a.ogg"))
	assert.True(t, f.ShouldIgnore("/m/a.flac"))
	assert.True(t, f.ShouldIgnore("/m/draft one.mp3"))
	assert.True(t, f.ShouldIgnore("/m/x.BAK.mp3"))
	assert.Equal(t, []string{"draft*", ".bak.mp3"}, f.GetPatterns())
}

// Property: partial-download suffixes are always ignored, whatever the stem.
func TestPartialDownloadsIgnored(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	f := NewFileFilter(nil, nil)

	properties.Property("temp suffix is ignored", prop.ForAll(
		func(stem, suffix string) bool {
			return f.ShouldIgnore("/music/" + stem + ".mp3" + suffix)
		},
		gen.Identifier(),
		gen.OneConstOf(".tmp", ".part", ".download", ".crdownload", ".partial"),
	))

	properties.Property("plain audio names pass", prop.ForAll(
		func(stem, ext string) bool {
			return !f.ShouldIgnore("/music/" + stem + ext)
		},
		gen.Identifier(),
		gen.OneConstOf(".mp3", ".flac", ".MP3"),
	))

	properties.TestingRun(t)
}
