package transport

import "Quorum/queue"

// EndReason reports why a stream stopped producing audio.
type EndReason int

const (
	// EndFinished means the track played to its natural end.
	EndFinished EndReason = iota
	// EndErrored means the stream failed mid-play or could not keep up.
	EndErrored
	// EndStopped means StopStream was called; the caller already knows.
	EndStopped
)

func (r EndReason) String() string {
	switch r {
	case EndFinished:
		return "finished"
	case EndErrored:
		return "errored"
	case EndStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EndEvent is delivered to the owning guild's session when a stream ends.
// It is never acted on inline from the streaming goroutine.
type EndEvent struct {
	GuildID string
	Reason  EndReason
	Err     error
}

// Transport streams resolved tracks into a guild's voice channel. One
// stream per guild at a time; starting a new one replaces the old.
type Transport interface {
	// StartStream joins the voice channel if needed and begins streaming
	// the track. A nil error is the stream-start ack; completion arrives
	// later as an EndEvent.
	StartStream(guildID, channelID string, track queue.Track) error
	// StopStream halts the active stream. The resulting EndEvent carries
	// EndStopped.
	StopStream(guildID string)
	Pause(guildID string)
	Resume(guildID string)
	// SetVolume applies a 0-200 percent volume to the active stream.
	SetVolume(guildID string, percent int)
	// Leave disconnects from the guild's voice channel.
	Leave(guildID string)
}
