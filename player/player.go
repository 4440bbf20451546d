package player

import (
	"errors"
	"time"

	"Quorum/queue"
	"Quorum/transport"

	"github.com/Strum355/log"
)

var (
	// ErrInvalidVolume is returned for volume requests outside 0-200 percent.
	ErrInvalidVolume = errors.New("volume must be between 0 and 200")
	// ErrNotPlaying is returned when an operation needs an active track.
	ErrNotPlaying = errors.New("nothing is playing")
	// ErrNotPaused is returned when resume is requested without a pause.
	ErrNotPaused = errors.New("playback is not paused")
	// ErrNoHistory is returned when previous is requested with an empty history.
	ErrNoHistory = errors.New("no previously played track")
	// ErrQueueEmpty is returned when playback is requested with nothing queued.
	ErrQueueEmpty = errors.New("queue is empty")
)

// Config tunes one guild's player.
type Config struct {
	HistorySize int
	RetryLimit  int
	IdleTimeout time.Duration
}

// View is a consistent copy of the player's state for display.
type View struct {
	Status    Status
	Loop      LoopMode
	Volume    int
	Current   *queue.Track
	ChannelID string
}

// Player is one guild's playback state machine. It owns the current track,
// status, loop mode and volume, and it is the only component that talks to
// the transport for its guild. All methods must be called under the owning
// session's exclusive slot.
type Player struct {
	guildID   string
	transport transport.Transport
	cfg       Config

	status    Status
	loop      LoopMode
	volume    int
	current   *queue.Track
	channelID string
	queue     *queue.GuildQueue
	retries   int

	generation uint64
	idleTimer  *time.Timer
	onIdle     func(generation uint64)
	closed     bool
}

// New restores a player from a persisted snapshot. Status always starts
// Idle; playback never auto-resumes on boot.
func New(guildID string, tr transport.Transport, snap queue.Snapshot, cfg Config) *Player {
	loop, err := ParseLoopMode(snap.LoopMode)
	if err != nil {
		loop = LoopOff
	}
	volume := snap.Volume
	if volume < 0 || volume > 200 {
		volume = queue.DefaultVolume
	}

	return &Player{
		guildID:   guildID,
		transport: tr,
		cfg:       cfg,
		status:    StatusIdle,
		loop:      loop,
		volume:    volume,
		queue:     queue.Restore(snap, cfg.HistorySize),
	}
}

func (p *Player) GuildID() string   { return p.guildID }
func (p *Player) Status() Status    { return p.status }
func (p *Player) Loop() LoopMode    { return p.loop }
func (p *Player) Volume() int       { return p.volume }
func (p *Player) ChannelID() string { return p.channelID }

// Queue exposes the guild's queue for enqueue/remove/shuffle under the slot.
func (p *Player) Queue() *queue.GuildQueue { return p.queue }

// Current returns a copy of the playing track, or nil.
func (p *Player) Current() *queue.Track {
	if p.current == nil {
		return nil
	}
	t := *p.current
	return &t
}

// SetOnIdle registers the idle-timeout callback. It fires on the timer
// goroutine carrying the generation it was armed under; the owner must
// reserialize and call HandleIdleFire.
func (p *Player) SetOnIdle(fn func(generation uint64)) {
	p.onIdle = fn
}

// View returns a copied snapshot of the display-relevant state.
func (p *Player) View() View {
	return View{
		Status:    p.status,
		Loop:      p.loop,
		Volume:    p.volume,
		Current:   p.Current(),
		ChannelID: p.channelID,
	}
}

// Snapshot returns the persistable shape of this player's state.
func (p *Player) Snapshot() queue.Snapshot {
	return queue.Snapshot{
		Pending:  p.queue.Pending(),
		LoopMode: p.loop.String(),
		Volume:   p.volume,
	}
}

// Play binds the voice channel and starts playback if nothing is active.
// Called on enqueue into a non-playing queue and on an explicit resume
// intent after restart.
func (p *Player) Play(channelID string) error {
	p.channelID = channelID

	switch p.status {
	case StatusPlaying, StatusLoading:
		return nil
	case StatusPaused:
		return p.ResumePlayback()
	}

	if p.queue.Len() == 0 {
		return ErrQueueEmpty
	}
	return p.startNext()
}

// startNext pops the head of the queue and asks the transport to stream it.
// Unplayable tracks are dropped and the next is attempted, bounded by the
// retry limit; an exhausted or empty queue parks the player idle.
func (p *Player) startNext() error {
	for {
		next, ok := p.queue.Next()
		if !ok {
			p.parkIdle()
			return nil
		}

		p.status = StatusLoading
		p.current = &next

		err := p.transport.StartStream(p.guildID, p.channelID, next)
		if err == nil {
			p.status = StatusPlaying
			p.retries = 0
			p.transport.SetVolume(p.guildID, p.volume)
			p.disarmIdle()
			log.WithFields(log.Fields{
				"guild_id": p.guildID,
				"track":    next.Title,
			}).Info("Stream started")
			return nil
		}

		log.WithError(err).WithFields(log.Fields{
			"guild_id": p.guildID,
			"track":    next.Title,
		}).Error("Track failed to start, dropping it")
		p.current = nil
		p.retries++
		if p.retries >= p.cfg.RetryLimit {
			p.retries = 0
			p.parkIdle()
			return err
		}
	}
}

// parkIdle clears the active track and arms the disconnect watchdog.
func (p *Player) parkIdle() {
	p.status = StatusIdle
	p.current = nil
	p.armIdle()
}

// HandleStreamEnd reacts to the transport's end-of-stream event. Deliberate
// stops are ignored; those transitions already ran when the stop was issued.
func (p *Player) HandleStreamEnd(reason transport.EndReason) error {
	if reason == transport.EndStopped {
		return nil
	}
	if p.current == nil {
		return nil
	}

	switch reason {
	case transport.EndFinished:
		p.finishCurrent()
		return p.startNext()
	case transport.EndErrored:
		// The errored track is dropped outright: no loop re-enqueue, no
		// history entry.
		p.current = nil
		p.retries++
		if p.retries >= p.cfg.RetryLimit {
			p.retries = 0
			p.parkIdle()
			return nil
		}
		return p.startNext()
	}
	return nil
}

// finishCurrent applies the loop policy to the track that just ended.
func (p *Player) finishCurrent() {
	finished := *p.current
	p.current = nil

	switch p.loop {
	case LoopTrack:
		p.queue.PushFront(finished)
	case LoopQueue:
		p.queue.Enqueue(finished)
	default:
		p.queue.PushHistory(finished)
	}
}

// Skip advances past the current track, applying the same loop policy a
// natural finish would.
func (p *Player) Skip() error {
	if p.current == nil {
		return ErrNotPlaying
	}
	p.finishCurrent()
	p.transport.StopStream(p.guildID)
	return p.startNext()
}

// Previous replays the most recently finished track. The interrupted
// current track goes back to the head of the queue behind it.
func (p *Player) Previous() error {
	prev, ok := p.queue.PopHistory()
	if !ok {
		return ErrNoHistory
	}

	if p.current != nil {
		p.queue.PushFront(*p.current)
		p.current = nil
	}
	p.queue.PushFront(prev)
	p.transport.StopStream(p.guildID)
	return p.startNext()
}

// Pause suspends the active stream and starts the inactivity watchdog.
func (p *Player) Pause() error {
	if p.status != StatusPlaying {
		return ErrNotPlaying
	}
	p.transport.Pause(p.guildID)
	p.status = StatusPaused
	p.armIdle()
	return nil
}

// ResumePlayback continues a paused stream.
func (p *Player) ResumePlayback() error {
	if p.status != StatusPaused {
		return ErrNotPaused
	}
	p.transport.Resume(p.guildID)
	p.status = StatusPlaying
	p.disarmIdle()
	return nil
}

// Stop halts the stream and empties the queue. The player stays around in
// Stopped until the idle watchdog or a disconnect drives it to Idle.
func (p *Player) Stop() error {
	p.queue.Clear()
	p.current = nil
	p.transport.StopStream(p.guildID)
	p.status = StatusStopped
	p.armIdle()
	return nil
}

// Clear empties the pending queue without touching the current track.
func (p *Player) Clear() {
	p.queue.Clear()
}

// SetVolume applies a 0-200 percent volume immediately without a state
// transition. Out-of-range values are rejected, not clamped.
func (p *Player) SetVolume(v int) error {
	if v < 0 || v > 200 {
		return ErrInvalidVolume
	}
	p.volume = v
	p.transport.SetVolume(p.guildID, v)
	return nil
}

// SetLoop changes the loop policy applied to finishing tracks.
func (p *Player) SetLoop(mode LoopMode) {
	p.loop = mode
}

// Disconnect forces the player to Idle and leaves the voice channel. The
// pending queue is kept so a persisted snapshot stays resumable.
func (p *Player) Disconnect() {
	p.transport.StopStream(p.guildID)
	p.transport.Leave(p.guildID)
	p.current = nil
	p.channelID = ""
	p.status = StatusIdle
	p.disarmIdle()
}

// Close invalidates the player. Any armed timer or in-flight callback
// carrying an older generation becomes a no-op.
func (p *Player) Close() {
	p.generation++
	p.disarmIdle()
	p.closed = true
}

func (p *Player) Closed() bool { return p.closed }
