package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RotationIndex lists rotated journal segments.
type RotationIndex struct {
	Segments    []SegmentInfo `json:"segments"`
	ActiveLog   string        `json:"activeLog"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// SegmentInfo contains metadata about a rotated segment.
type SegmentInfo struct {
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
}

// RotationManager decides when the active journal is rotated and performs it.
type RotationManager struct {
	config Config
	now    func() time.Time
}

// NewRotationManager creates a RotationManager for config.
func NewRotationManager(config Config) *RotationManager {
	return &RotationManager{config: config, now: time.Now}
}

// NeedsRotation reports whether logPath has outgrown the size limit or the
// rotation period.
func (rm *RotationManager) NeedsRotation(logPath string) (bool, error) {
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat journal: %w", err)
	}

	if rm.config.RotationSize > 0 && info.Size() >= rm.config.RotationSize {
		return true, nil
	}
	return rm.periodElapsed(info.ModTime())
}

func (rm *RotationManager) periodElapsed(lastWrite time.Time) (bool, error) {
	now := rm.now()
	switch rm.config.RotationPeriod {
	case "":
		return false, nil
	case "daily":
		ly, lm, ld := lastWrite.Date()
		ny, nm, nd := now.Date()
		return ly != ny || lm != nm || ld != nd, nil
	case "weekly":
		ly, lw := lastWrite.ISOWeek()
		ny, nw := now.ISOWeek()
		return ly != ny || lw != nw, nil
	default:
		return false, fmt.Errorf("unknown rotation period: %s", rm.config.RotationPeriod)
	}
}

// SegmentName returns the filename for a segment rotated at t.
// Format: refinery-journal-YYYYMMDD-HHMMSS-NNNNNNNNN.jsonl
func SegmentName(t time.Time) string {
	return fmt.Sprintf("%s%s-%09d.jsonl", segmentPrefix, t.Format("20060102-150405"), t.Nanosecond())
}

// nextSegmentName returns a segment name for t that is not yet used in logDir.
func nextSegmentName(logDir string, t time.Time) string {
	for {
		name := SegmentName(t)
		if _, err := os.Lstat(filepath.Join(logDir, name)); os.IsNotExist(err) {
			return name
		}
		t = t.Add(time.Nanosecond)
	}
}

// Rotate renames the active journal to segment and records it in the index.
func (rm *RotationManager) Rotate(logPath, segment string) (string, error) {
	dir := filepath.Dir(logPath)
	rotatedPath := filepath.Join(dir, segment)

	info, err := os.Stat(logPath)
	if err != nil {
		return "", fmt.Errorf("stat journal for rotation: %w", err)
	}
	if err := os.Rename(logPath, rotatedPath); err != nil {
		return "", fmt.Errorf("rotate journal: %w", err)
	}

	index, err := LoadIndex(dir)
	if err != nil {
		index = &RotationIndex{ActiveLog: activeLogName}
	}
	index.Segments = append(index.Segments, SegmentInfo{
		Filename:  segment,
		CreatedAt: rm.now(),
		Size:      info.Size(),
	})
	if err := saveIndex(dir, index, rm.now()); err != nil {
		// The index can be rebuilt with DiscoverSegments.
		return rotatedPath, fmt.Errorf("update journal index: %w", err)
	}
	return rotatedPath, nil
}

// LoadIndex loads the rotation index from logDir.
func LoadIndex(logDir string) (*RotationIndex, error) {
	data, err := os.ReadFile(filepath.Join(logDir, indexName))
	if err != nil {
		return nil, err
	}
	var index RotationIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

func saveIndex(logDir string, index *RotationIndex, now time.Time) error {
	index.LastUpdated = now
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(logDir, indexName), data, 0644)
}

// DiscoverSegments lists rotated segment filenames in logDir, oldest first.
func DiscoverSegments(logDir string) ([]string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == activeLogName {
			continue
		}
		if strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, ".jsonl") {
			segments = append(segments, name)
		}
	}
	sort.Strings(segments)
	return segments, nil
}

// LogFiles returns every journal file in logDir in chronological order,
// the active journal last.
func LogFiles(logDir string) ([]string, error) {
	segments, err := DiscoverSegments(logDir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		files = append(files, filepath.Join(logDir, seg))
	}
	active := filepath.Join(logDir, activeLogName)
	if _, err := os.Stat(active); err == nil {
		files = append(files, active)
	}
	return files, nil
}

// rotationEvent is written as the last line of a segment before it is rotated.
func rotationEvent(runID RunID, oldFile, newFile string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRotation,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"previousFile": oldFile,
			"newFile":      newFile,
		},
	}
}
