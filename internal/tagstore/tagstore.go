// Package tagstore reads, writes and clears embedded audio metadata.
//
// A file without any tag container reads as having no fields set; writing to
// such a file creates the container.
package tagstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Field names a metadata field, using the names shown to users.
type Field string

const (
	FieldTitle              Field = "Title"
	FieldContributingArtist Field = "Contributing Artist"
	FieldAlbumArtist        Field = "Album Artist"
	FieldAlbum              Field = "Album"
	FieldYear               Field = "Year"
	FieldGenre              Field = "Genre"
)

// Fields lists every editable field in display order.
var Fields = []Field{
	FieldTitle,
	FieldContributingArtist,
	FieldAlbumArtist,
	FieldAlbum,
	FieldYear,
	FieldGenre,
}

// ErrUnsupportedFormat is returned for files whose extension has no store.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrUnknownField is returned by ParseField for unrecognised names.
var ErrUnknownField = errors.New("unknown tag field")

// Store is the tag collaborator used by the rename engine.
type Store interface {
	// ReadField returns the value of field, or "" when it is not set.
	ReadField(path string, field Field) (string, error)
	// WriteFields sets every field in fields.
	WriteFields(path string, fields map[Field]string) error
	// ClearAll removes every tag from the file.
	ClearAll(path string) error
}

// ParseField maps user input such as "artist" or "album-artist" to a Field.
func ParseField(name string) (Field, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	switch key {
	case "title":
		return FieldTitle, nil
	case "artist", "contributingartist":
		return FieldContributingArtist, nil
	case "albumartist":
		return FieldAlbumArtist, nil
	case "album":
		return FieldAlbum, nil
	case "year", "date":
		return FieldYear, nil
	case "genre":
		return FieldGenre, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// NonEmpty returns a copy of fields without blank values.
func NonEmpty(fields map[Field]string) map[Field]string {
	out := make(map[Field]string, len(fields))
	for f, v := range fields {
		if strings.TrimSpace(v) != "" {
			out[f] = v
		}
	}
	return out
}

// Router dispatches to a Store by lower-cased file extension.
type Router struct {
	stores map[string]Store
}

// NewRouter returns a Router handling .mp3 through ID3v2 and .flac through
// Vorbis comments.
func NewRouter() *Router {
	r := &Router{stores: make(map[string]Store)}
	r.Register(".mp3", ID3Store{})
	r.Register(".flac", FLACStore{})
	return r
}

// Register sets the store used for ext.
func (r *Router) Register(ext string, s Store) {
	r.stores[strings.ToLower(ext)] = s
}

// Supports reports whether path has a registered store.
func (r *Router) Supports(path string) bool {
	_, ok := r.stores[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Router) storeFor(path string) (Store, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s, ok := r.stores[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w (%q)", path, ErrUnsupportedFormat, ext)
	}
	return s, nil
}

func (r *Router) ReadField(path string, field Field) (string, error) {
	s, err := r.storeFor(path)
	if err != nil {
		return "", err
	}
	return s.ReadField(path, field)
}

func (r *Router) WriteFields(path string, fields map[Field]string) error {
	s, err := r.storeFor(path)
	if err != nil {
		return err
	}
	return s.WriteFields(path, fields)
}

func (r *Router) ClearAll(path string) error {
	s, err := r.storeFor(path)
	if err != nil {
		return err
	}
	return s.ClearAll(path)
}
