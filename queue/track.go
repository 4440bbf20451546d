package queue

import "time"

// Track holds the metadata for a single queued track. Tracks are immutable
// once enqueued; the queue owns them from that point on.
type Track struct {
	Title         string        `json:"title"`
	Duration      time.Duration `json:"duration"`
	Provider      string        `json:"provider"`
	URL           string        `json:"url"`
	Query         string        `json:"query"`
	Thumbnail     string        `json:"thumbnail,omitempty"`
	RequestedBy   string        `json:"requested_by"`
	RequestedByID string        `json:"requested_by_id"`
	EnqueuedAt    time.Time     `json:"enqueued_at"`
}

// DefaultVolume is the playback volume in percent applied to guilds
// that have never changed it.
const DefaultVolume = 100

// Snapshot is the durable per-guild record: the pending tracks plus the
// loop mode and volume. History and vote state are never persisted.
type Snapshot struct {
	Pending  []Track `json:"pending"`
	LoopMode string  `json:"loop_mode"`
	Volume   int     `json:"volume"`
}

// NewSnapshot returns the snapshot used for guilds with no persisted record.
func NewSnapshot() Snapshot {
	return Snapshot{LoopMode: "off", Volume: DefaultVolume}
}
