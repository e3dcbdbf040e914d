// Package normalizer derives canonical track titles from noisy filenames for Refinery.
package normalizer

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// junkPatterns are the promotional tokens removed from titles. Each pattern is
// applied once, in order, and case-insensitively.
var junkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(.*?official.*?\)`),
	regexp.MustCompile(`(?i)\bofficial audio\b`),
	regexp.MustCompile(`(?i)\bofficial video\b`),
	regexp.MustCompile(`(?i)\blyrics\b`),
	regexp.MustCompile(`(?i)\bremaster(ed)?\b`),
	regexp.MustCompile(`(?i)\bhq\b`),
	regexp.MustCompile(`(?i)\bhigh quality\b`),
}

var (
	// dashGroup matches a parenthesized group whose contents include a hyphen or en-dash.
	dashGroup = regexp.MustCompile(`\(([^)]*[-–][^)]*)\)`)

	// dashSplit splits on a hyphen or en-dash with optional surrounding whitespace.
	dashSplit = regexp.MustCompile(`\s*[-–]\s*`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// edgeCutset is trimmed from both ends of a stripped title.
const edgeCutset = " -_–"

// StripJunk removes promotional tokens from text, collapses whitespace runs to a
// single space and trims spaces, hyphens, underscores and en-dashes from both ends.
func StripJunk(text string) string {
	for _, p := range junkPatterns {
		text = p.ReplaceAllString(text, "")
	}
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.Trim(text, edgeCutset)
}

// NormalizeTitle extracts the canonical title from a base filename (extension
// already removed).
//
// Extraction rules, first match wins:
//   - a parenthesized group containing a dash: the last dash-separated segment of its contents
//   - a dash anywhere in the name: the last dash-separated segment of the whole name
//   - otherwise: the whole name
//
// The chosen text is passed through StripJunk before being returned.
//
// Examples:
//   - "Song (Remastered - Radio Edit)" -> "Radio Edit"
//   - "Artist - Great Song (Official Video)" -> "Great Song"
//   - "A - B - C" -> "C"
func NormalizeTitle(raw string) string {
	name := norm.NFC.String(raw)

	if m := dashGroup.FindStringSubmatch(name); m != nil {
		return StripJunk(lastSegment(m[1]))
	}
	if strings.ContainsAny(name, "-–") {
		return StripJunk(lastSegment(name))
	}
	return StripJunk(name)
}

func lastSegment(s string) string {
	parts := dashSplit.Split(s, -1)
	return parts[len(parts)-1]
}

// BaseName returns the filename of path without its extension. It is the form
// NormalizeTitle expects.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
