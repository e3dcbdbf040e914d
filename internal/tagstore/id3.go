package tagstore

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// ID3Store stores tags in ID3v2 frames, as found in MP3 files.
type ID3Store struct{}

func openID3(path string) (*id3v2.Tag, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open id3 tag %s: %w", path, err)
	}
	return tag, nil
}

func albumArtistID(tag *id3v2.Tag) string {
	return tag.CommonID("Band/Orchestra/Accompaniment")
}

func (ID3Store) ReadField(path string, field Field) (string, error) {
	tag, err := openID3(path)
	if err != nil {
		return "", err
	}
	defer tag.Close()

	switch field {
	case FieldTitle:
		return tag.Title(), nil
	case FieldContributingArtist:
		return tag.Artist(), nil
	case FieldAlbumArtist:
		return tag.GetTextFrame(albumArtistID(tag)).Text, nil
	case FieldAlbum:
		return tag.Album(), nil
	case FieldYear:
		return tag.Year(), nil
	case FieldGenre:
		return tag.Genre(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func (ID3Store) WriteFields(path string, fields map[Field]string) error {
	tag, err := openID3(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	for field, value := range fields {
		switch field {
		case FieldTitle:
			tag.SetTitle(value)
		case FieldContributingArtist:
			tag.SetArtist(value)
		case FieldAlbumArtist:
			tag.AddTextFrame(albumArtistID(tag), id3v2.EncodingUTF8, value)
		case FieldAlbum:
			tag.SetAlbum(value)
		case FieldYear:
			tag.SetYear(value)
		case FieldGenre:
			tag.SetGenre(value)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag %s: %w", path, err)
	}
	return nil
}

func (ID3Store) ClearAll(path string) error {
	tag, err := openID3(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag %s: %w", path, err)
	}
	return nil
}
