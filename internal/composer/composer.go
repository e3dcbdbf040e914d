// Package composer turns a normalized title and an optional artist into a
// target filename according to the session's naming mode.
package composer

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how target names are composed.
type Mode string

const (
	// ModeArtist prefixes the title with the artist when one is known.
	ModeArtist Mode = "artist"
	// ModeTitleOnly uses the title verbatim.
	ModeTitleOnly Mode = "title-only"
)

// Valid reports whether m is a known naming mode.
func (m Mode) Valid() bool {
	return m == ModeArtist || m == ModeTitleOnly
}

// Toggle returns the other naming mode.
func (m Mode) Toggle() Mode {
	if m == ModeArtist {
		return ModeTitleOnly
	}
	return ModeArtist
}

// ParseMode converts user input into a Mode. "title" is accepted as an alias
// for title-only.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "artist":
		return ModeArtist, nil
	case "title-only", "title", "titleonly":
		return ModeTitleOnly, nil
	default:
		return "", fmt.Errorf("unknown naming mode %q (want %q or %q)", s, ModeArtist, ModeTitleOnly)
	}
}

// ComposeName combines title and artist according to mode.
// In ModeTitleOnly the artist is always discarded.
func ComposeName(title, artist string, mode Mode) string {
	if mode == ModeArtist && artist != "" {
		return artist + " - " + title
	}
	return title
}

// ResolveArtist picks the artist used for composition: the explicit session
// override when set, else the cached contributing artist tag.
func ResolveArtist(override, cached string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return strings.TrimSpace(cached)
}

// TargetBasename appends ext to composed and rewrites characters that would
// split the name into more than one path element. An empty composed name
// yields "".
func TargetBasename(composed, ext string) string {
	composed = strings.TrimSpace(composed)
	if composed == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, composed)
	if clean == "." || clean == ".." {
		return ""
	}
	return clean + ext
}
