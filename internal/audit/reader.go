package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"time"
)

// ErrRunNotFound is returned when a run ID has no events in the journal.
var ErrRunNotFound = errors.New("run not found")

// EventFilter selects journal events.
type EventFilter struct {
	EventTypes []EventType     // Empty = all types
	Status     OperationStatus // Empty = all statuses
	Since      *time.Time      // Events at or after this time
}

// Reader reads events from every segment of a journal directory.
type Reader struct {
	logDir string
}

// NewReader creates a Reader for logDir.
func NewReader(logDir string) *Reader {
	return &Reader{logDir: logDir}
}

// ListRuns returns every run in start order, oldest first.
func (r *Reader) ListRuns() ([]RunInfo, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, err
	}

	byRun := make(map[RunID][]Event)
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		byRun[e.RunID] = append(byRun[e.RunID], e)
	}

	runs := make([]RunInfo, 0, len(byRun))
	for id, evs := range byRun {
		runs = append(runs, buildRunInfo(id, evs))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.Before(runs[j].StartTime)
	})
	return runs, nil
}

// GetRun returns the events of runID in journal order.
func (r *Reader) GetRun(runID RunID) ([]Event, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, err
	}

	var runEvents []Event
	for _, e := range events {
		if e.RunID == runID {
			runEvents = append(runEvents, e)
		}
	}
	if len(runEvents) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return runEvents, nil
}

// GetLatestRun returns the most recently started run, optionally limited to
// the given run types.
func (r *Reader) GetLatestRun(types ...RunType) (*RunInfo, error) {
	runs, err := r.ListRuns()
	if err != nil {
		return nil, err
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if len(types) == 0 || containsRunType(types, runs[i].RunType) {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: journal has no matching runs", ErrRunNotFound)
}

// FilterEvents returns every event matching filter across all runs.
func (r *Reader) FilterEvents(filter EventFilter) ([]Event, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range events {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

func matches(e Event, f EventFilter) bool {
	if len(f.EventTypes) > 0 {
		found := false
		for _, t := range f.EventTypes {
			if e.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

func containsRunType(types []RunType, t RunType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func (r *Reader) readAllEvents() ([]Event, error) {
	files, err := LogFiles(r.logDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var all []Event
	for _, f := range files {
		events, err := readEventsFromFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		all = append(all, events...)
	}
	return all, nil
}

func readEventsFromFile(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		events = append(events, *event)
	}
	return events, scanner.Err()
}

func buildRunInfo(runID RunID, events []Event) RunInfo {
	info := RunInfo{RunID: runID, Status: RunStatusInProgress}

	for _, e := range events {
		switch e.EventType {
		case EventRunStart:
			info.StartTime = e.Timestamp
			info.RunType = RunType(e.Metadata["runType"])
		case EventRunEnd:
			end := e.Timestamp
			info.EndTime = &end
			if s, ok := e.Metadata["status"]; ok {
				info.Status = RunStatus(s)
			}
			info.Summary = summaryFromMetadata(e.Metadata)
		}
	}
	return info
}

func summaryFromMetadata(m map[string]string) RunSummary {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(m[key])
		return n
	}
	return RunSummary{
		Processed:   atoi("processed"),
		Renamed:     atoi("renamed"),
		Unchanged:   atoi("unchanged"),
		Skipped:     atoi("skipped"),
		Conflicts:   atoi("conflicts"),
		Failed:      atoi("failed"),
		TagsCleared: atoi("tagsCleared"),
		TagErrors:   atoi("tagErrors"),
	}
}
