package player

import (
	"errors"
	"fmt"
)

// Status is the playback state of one guild's player.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// LoopMode governs what happens to a track that finishes playing.
type LoopMode int

const (
	// LoopOff discards the finished track into history.
	LoopOff LoopMode = iota
	// LoopTrack replays the finished track immediately.
	LoopTrack
	// LoopQueue re-appends the finished track to the tail of the queue.
	LoopQueue
)

// ErrInvalidLoopMode is returned for loop mode strings other than off/track/queue.
var ErrInvalidLoopMode = errors.New("invalid loop mode")

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "off"
	}
}

// ParseLoopMode converts a user-supplied mode name to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch s {
	case "off":
		return LoopOff, nil
	case "track":
		return LoopTrack, nil
	case "queue":
		return LoopQueue, nil
	default:
		return LoopOff, fmt.Errorf("%w: %q", ErrInvalidLoopMode, s)
	}
}
