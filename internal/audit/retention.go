package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// PruneSegments deletes rotated segments older than retentionDays, judged by
// modification time. The active journal is never pruned. It returns the
// names of deleted segments.
func PruneSegments(logDir string, retentionDays int, now time.Time) ([]string, error) {
	if retentionDays <= 0 {
		return nil, nil
	}
	segments, err := DiscoverSegments(logDir)
	if err != nil {
		return nil, err
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	var pruned []string
	for _, seg := range segments {
		path := filepath.Join(logDir, seg)
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return pruned, fmt.Errorf("prune %s: %w", seg, err)
		}
		pruned = append(pruned, seg)
	}

	if len(pruned) > 0 {
		if index, err := LoadIndex(logDir); err == nil {
			index.Segments = slices.DeleteFunc(index.Segments, func(s SegmentInfo) bool {
				return slices.Contains(pruned, s.Filename)
			})
			if err := saveIndex(logDir, index, now); err != nil {
				return pruned, fmt.Errorf("update journal index: %w", err)
			}
		}
	}
	return pruned, nil
}
