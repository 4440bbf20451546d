package queue

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrBadIndex is returned when a removal index does not point at a pending track.
var ErrBadIndex = errors.New("index out of range")

// GuildQueue is the ordered pending sequence for one guild plus a bounded
// history of recently played tracks, most-recent-first. It does no locking
// of its own; the owning session serializes access.
type GuildQueue struct {
	pending     []Track
	history     []Track
	historySize int
}

// New creates an empty GuildQueue keeping at most historySize played tracks.
func New(historySize int) *GuildQueue {
	if historySize < 1 {
		historySize = 1
	}
	return &GuildQueue{historySize: historySize}
}

// Restore creates a GuildQueue from a persisted snapshot. History is
// ephemeral and always starts empty.
func Restore(snap Snapshot, historySize int) *GuildQueue {
	q := New(historySize)
	q.pending = append(q.pending, snap.Pending...)
	return q
}

// Enqueue appends tracks to the tail of the pending sequence.
func (q *GuildQueue) Enqueue(tracks ...Track) {
	q.pending = append(q.pending, tracks...)
}

// PushFront inserts a track at the head of the pending sequence.
func (q *GuildQueue) PushFront(t Track) {
	q.pending = append([]Track{t}, q.pending...)
}

// Next pops the track at the head of the pending sequence.
func (q *GuildQueue) Next() (Track, bool) {
	if len(q.pending) == 0 {
		return Track{}, false
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	return t, true
}

// RemoveAt removes the pending track at index, validated against the
// current length so a stale index can never remove the wrong count.
func (q *GuildQueue) RemoveAt(index int) (Track, error) {
	if index < 0 || index >= len(q.pending) {
		return Track{}, fmt.Errorf("%w: %d of %d pending", ErrBadIndex, index, len(q.pending))
	}
	t := q.pending[index]
	q.pending = append(q.pending[:index], q.pending[index+1:]...)
	return t, nil
}

// Shuffle permutes the pending sequence only. History is untouched.
func (q *GuildQueue) Shuffle() {
	rand.Shuffle(len(q.pending), func(i, j int) {
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	})
}

// Clear drops every pending track.
func (q *GuildQueue) Clear() {
	q.pending = nil
}

// Len returns the number of pending tracks.
func (q *GuildQueue) Len() int {
	return len(q.pending)
}

// Pending returns a copy of the pending sequence.
func (q *GuildQueue) Pending() []Track {
	out := make([]Track, len(q.pending))
	copy(out, q.pending)
	return out
}

// PushHistory records a played track, most-recent-first, evicting the
// oldest entry once the bound is reached.
func (q *GuildQueue) PushHistory(t Track) {
	q.history = append([]Track{t}, q.history...)
	if len(q.history) > q.historySize {
		q.history = q.history[:q.historySize]
	}
}

// PopHistory removes and returns the most recently played track.
func (q *GuildQueue) PopHistory() (Track, bool) {
	if len(q.history) == 0 {
		return Track{}, false
	}
	t := q.history[0]
	q.history = q.history[1:]
	return t, true
}

// History returns a copy of the history buffer, most-recent-first.
func (q *GuildQueue) History() []Track {
	out := make([]Track, len(q.history))
	copy(out, q.history)
	return out
}
