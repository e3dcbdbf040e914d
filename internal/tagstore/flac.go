package tagstore

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// FLACStore stores tags in the Vorbis comment block of FLAC files.
type FLACStore struct{}

var vorbisKeys = map[Field]string{
	FieldTitle:              flacvorbis.FIELD_TITLE,
	FieldContributingArtist: flacvorbis.FIELD_ARTIST,
	FieldAlbumArtist:        "ALBUMARTIST",
	FieldAlbum:              flacvorbis.FIELD_ALBUM,
	FieldYear:               flacvorbis.FIELD_DATE,
	FieldGenre:              flacvorbis.FIELD_GENRE,
}

// readComments returns the parsed file, its comment block and that block's
// index in f.Meta (-1 when the file has none).
func readComments(path string) (*flac.File, *flacvorbis.MetaDataBlockVorbisComment, int, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, nil, -1, fmt.Errorf("parse flac %s: %w", path, err)
	}
	for idx, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}
		cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, nil, -1, fmt.Errorf("parse vorbis comment %s: %w", path, err)
		}
		return f, cmts, idx, nil
	}
	return f, nil, -1, nil
}

func (FLACStore) ReadField(path string, field Field) (string, error) {
	key, ok := vorbisKeys[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	_, cmts, _, err := readComments(path)
	if err != nil || cmts == nil {
		return "", err
	}
	values, err := cmts.Get(key)
	if err != nil || len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func (FLACStore) WriteFields(path string, fields map[Field]string) error {
	f, cmts, idx, err := readComments(path)
	if err != nil {
		return err
	}
	if cmts == nil {
		cmts = flacvorbis.New()
	}

	for field, value := range fields {
		key, ok := vorbisKeys[field]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		removeComment(cmts, key)
		if err := cmts.Add(key, value); err != nil {
			return fmt.Errorf("set %s on %s: %w", key, path, err)
		}
	}

	block := cmts.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac %s: %w", path, err)
	}
	return nil
}

// ClearAll drops the Vorbis comment block and any embedded pictures.
func (FLACStore) ClearAll(path string) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac %s: %w", path, err)
	}
	kept := f.Meta[:0]
	for _, meta := range f.Meta {
		if meta.Type != flac.VorbisComment && meta.Type != flac.Picture {
			kept = append(kept, meta)
		}
	}
	f.Meta = kept
	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac %s: %w", path, err)
	}
	return nil
}

// removeComment deletes every comment whose key matches key, case-insensitively.
func removeComment(cmts *flacvorbis.MetaDataBlockVorbisComment, key string) {
	kept := cmts.Comments[:0]
	for _, c := range cmts.Comments {
		name, _, _ := strings.Cut(c, "=")
		if !strings.EqualFold(name, key) {
			kept = append(kept, c)
		}
	}
	cmts.Comments = kept
}
