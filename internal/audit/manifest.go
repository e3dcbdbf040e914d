package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// Change is one line of a manifest.
type Change struct {
	Action EventType  `json:"action"`
	From   string     `json:"from,omitempty"`
	To     string     `json:"to,omitempty"`
	Reason ReasonCode `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// Manifest lists what a single run changed.
type Manifest struct {
	Run     RunInfo  `json:"run"`
	Changes []Change `json:"changes"`
}

// manifestEvents are the event types that describe file changes.
var manifestEvents = map[EventType]bool{
	EventRename:       true,
	EventManualRename: true,
	EventConflict:     true,
	EventSkip:         true,
	EventError:        true,
	EventTagsCleared:  true,
	EventTagsWritten:  true,
	EventUndo:         true,
}

// BuildManifest assembles the manifest of a run from its events.
func BuildManifest(runID RunID, events []Event) *Manifest {
	m := &Manifest{Run: buildRunInfo(runID, events), Changes: []Change{}}
	for _, e := range events {
		if e.RunID != runID || !manifestEvents[e.EventType] {
			continue
		}
		c := Change{
			Action: e.EventType,
			From:   e.SourcePath,
			To:     e.DestinationPath,
			Reason: e.ReasonCode,
		}
		switch {
		case e.ErrorDetails != nil:
			c.Detail = e.ErrorDetails.ErrorMessage
		case len(e.Metadata) > 0:
			c.Detail = formatMetadata(e.Metadata)
		}
		m.Changes = append(m.Changes, c)
	}
	return m
}

// Manifest reads the journal and builds the manifest for runID.
func (r *Reader) Manifest(runID RunID) (*Manifest, error) {
	events, err := r.GetRun(runID)
	if err != nil {
		return nil, err
	}
	return BuildManifest(runID, events), nil
}

// LatestManifest builds the manifest of the most recent run that changed files.
func (r *Reader) LatestManifest() (*Manifest, error) {
	run, err := r.GetLatestRun(RunTypeBatch, RunTypeManual, RunTypeTagEdit)
	if err != nil {
		return nil, err
	}
	return r.Manifest(run.RunID)
}

// RenderJSON writes m as indented JSON.
func (m *Manifest) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// RenderText writes m as an aligned plain-text table.
func (m *Manifest) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s (%s, %s) started %s\n",
		m.Run.RunID, m.Run.RunType, m.Run.Status, m.Run.StartTime.Local().Format(time.DateTime))
	s := m.Run.Summary
	fmt.Fprintf(w, "Processed %d files: %d renamed, %d unchanged, %d skipped, %d conflicts, %d failed\n\n",
		s.Processed, s.Renamed, s.Unchanged, s.Skipped, s.Conflicts, s.Failed)

	if len(m.Changes) == 0 {
		_, err := fmt.Fprintln(w, "No changes recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range m.Changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Action, displayName(c.From), arrow(c), note(c))
	}
	return tw.Flush()
}

func displayName(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}

func arrow(c Change) string {
	if c.To == "" {
		return ""
	}
	return "-> " + filepath.Base(c.To)
}

func note(c Change) string {
	parts := make([]string, 0, 2)
	if c.Reason != "" {
		parts = append(parts, string(c.Reason))
	}
	if c.Detail != "" {
		parts = append(parts, c.Detail)
	}
	return strings.Join(parts, ": ")
}

func formatMetadata(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return strings.Join(pairs, ", ")
}
