// Package undo provides a bounded last-in first-out log of snapshots.
package undo

import "errors"

// ErrNothingToUndo is returned by Pop when the log is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// Log keeps snapshots for rollback. Only the most recent snapshot is ever
// restored; restoring is not itself recorded.
type Log[T any] struct {
	past  []T
	depth int
}

// New creates an empty Log. A depth of zero or less keeps every snapshot;
// otherwise only the depth most recent snapshots are retained.
func New[T any](depth int) *Log[T] {
	return &Log[T]{depth: depth}
}

// Push records a snapshot, evicting the oldest one when the log is full.
func (l *Log[T]) Push(snapshot T) {
	l.past = append(l.past, snapshot)
	if l.depth > 0 && len(l.past) > l.depth {
		n := copy(l.past, l.past[len(l.past)-l.depth:])
		var zero T
		for i := n; i < len(l.past); i++ {
			l.past[i] = zero
		}
		l.past = l.past[:n]
	}
}

// Pop removes and returns the most recent snapshot.
func (l *Log[T]) Pop() (T, error) {
	var zero T
	if !l.CanUndo() {
		return zero, ErrNothingToUndo
	}
	last := len(l.past) - 1
	snapshot := l.past[last]
	l.past[last] = zero
	l.past = l.past[:last]
	return snapshot, nil
}

// CanUndo reports whether there is a snapshot to restore.
func (l *Log[T]) CanUndo() bool { return len(l.past) > 0 }

// Len returns the number of stored snapshots.
func (l *Log[T]) Len() int { return len(l.past) }

// Clear drops every snapshot.
func (l *Log[T]) Clear() { l.past = nil }
