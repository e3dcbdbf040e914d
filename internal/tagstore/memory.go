package tagstore

import (
	"fmt"
	"maps"
	"os"
)

// Memory is an in-process Store keyed by path. Paths with no entry behave like
// files without a tag container. It is meant for tests and dry runs.
type Memory struct {
	tags map[string]map[Field]string
	// RequireFile makes every operation fail when the path does not exist on disk.
	RequireFile bool
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{tags: make(map[string]map[Field]string)}
}

// Set seeds a single field.
func (m *Memory) Set(path string, field Field, value string) {
	if m.tags[path] == nil {
		m.tags[path] = make(map[Field]string)
	}
	m.tags[path][field] = value
}

// Tags returns a copy of every field stored for path.
func (m *Memory) Tags(path string) map[Field]string {
	return maps.Clone(m.tags[path])
}

func (m *Memory) check(path string) error {
	if !m.RequireFile {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("tag store %s: %w", path, err)
	}
	return nil
}

func (m *Memory) ReadField(path string, field Field) (string, error) {
	if err := m.check(path); err != nil {
		return "", err
	}
	return m.tags[path][field], nil
}

func (m *Memory) WriteFields(path string, fields map[Field]string) error {
	if err := m.check(path); err != nil {
		return err
	}
	for f, v := range fields {
		m.Set(path, f, v)
	}
	return nil
}

func (m *Memory) ClearAll(path string) error {
	if err := m.check(path); err != nil {
		return err
	}
	delete(m.tags, path)
	return nil
}
