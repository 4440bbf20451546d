package manager

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"Quorum/player"
	"Quorum/queue"
	"Quorum/resolver"
	"Quorum/store"
	"Quorum/transport"
	"Quorum/vote"

	"github.com/Strum355/log"
)

// ErrSessionClosed is returned when a guild session was torn down while the
// caller held a reference to it and recreation also failed.
var ErrSessionClosed = errors.New("guild session closed")

// Config tunes every guild session the manager creates.
type Config struct {
	HistorySize int
	RetryLimit  int
	IdleTimeout time.Duration
}

// session binds one guild's player and vote tracker behind an exclusive
// slot. All mutations for the guild run holding mu; different guilds
// proceed fully in parallel.
type session struct {
	mu      sync.Mutex
	guildID string
	player  *player.Player
	votes   *vote.Tracker
	closed  bool
}

// Manager is the public entry point for all playback intents. It keeps
// exactly one session per guild, created lazily from the persisted
// snapshot and torn down after the idle watchdog fires on an empty queue.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store     store.Store
	resolver  resolver.Resolver
	transport transport.Transport
	cfg       Config
}

func New(st store.Store, res resolver.Resolver, tr transport.Transport, cfg Config) *Manager {
	return &Manager{
		sessions:  make(map[string]*session),
		store:     st,
		resolver:  res,
		transport: tr,
		cfg:       cfg,
	}
}

func (m *Manager) lookup(guildID string) *session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[guildID]
}

// getOrCreate returns the guild's session, loading the persisted snapshot
// on first use. A load failure logs and starts from the default snapshot;
// it never blocks the guild from getting a session.
func (m *Manager) getOrCreate(guildID string) *session {
	if sess := m.lookup(guildID); sess != nil {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[guildID]; ok {
		return sess
	}

	snap, err := m.store.Load(context.Background(), guildID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).
			Warn("Snapshot load failed, starting with an empty queue")
	}

	p := player.New(guildID, m.transport, snap, player.Config{
		HistorySize: m.cfg.HistorySize,
		RetryLimit:  m.cfg.RetryLimit,
		IdleTimeout: m.cfg.IdleTimeout,
	})
	p.SetOnIdle(func(generation uint64) {
		m.handleIdleTimeout(guildID, generation)
	})

	sess := &session{guildID: guildID, player: p, votes: vote.NewTracker()}
	m.sessions[guildID] = sess
	return sess
}

// withSession runs fn holding the guild's exclusive slot. A session that
// was torn down between lookup and lock is recreated once.
func (m *Manager) withSession(guildID string, fn func(*session) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		sess := m.getOrCreate(guildID)
		sess.mu.Lock()
		if sess.closed {
			sess.mu.Unlock()
			continue
		}
		err := fn(sess)
		sess.mu.Unlock()
		return err
	}
	return ErrSessionClosed
}

// persist writes the session's snapshot. Persistence failures are logged;
// the in-memory state stays authoritative and the user operation succeeds.
func (m *Manager) persist(sess *session) {
	snap := sess.player.Snapshot()
	if err := m.store.Save(context.Background(), sess.guildID, snap); err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": sess.guildID}).
			Warn("Queue snapshot save failed")
	}
}

// Enqueue resolves the query and appends the results to the guild's queue.
// Resolution runs before the guild's slot is taken, so slow playlist
// lookups never block other intents for the guild. With a channel bound
// and nothing active, playback starts immediately; with an empty channelID
// the tracks are only queued.
func (m *Manager) Enqueue(ctx context.Context, guildID, channelID string, requester resolver.Requester, query string) (Result, []queue.Track) {
	tracks, err := m.resolver.Resolve(ctx, query, requester)
	if err != nil {
		return Rejected(err.Error()), nil
	}

	result := Applied()
	err = m.withSession(guildID, func(sess *session) error {
		sess.player.Queue().Enqueue(tracks...)
		m.persist(sess)

		if channelID == "" {
			return nil
		}
		switch sess.player.Status() {
		case player.StatusPlaying, player.StatusLoading:
			return nil
		}
		if err := sess.player.Play(channelID); err != nil {
			result = Rejected(err.Error())
		}
		m.persist(sess)
		return nil
	})
	if err != nil {
		return Rejected(err.Error()), nil
	}
	return result, tracks
}

// VoteOrAct routes a control intent through the vote tracker, or applies it
// directly for a privileged actor or a sole listener. Eligible is the live
// count of humans in the bot's voice channel at the moment of the intent.
func (m *Manager) VoteOrAct(guildID, actorID string, action vote.Action, target string, eligible int, privileged bool) Result {
	var result Result
	err := m.withSession(guildID, func(sess *session) error {
		if privileged || eligible <= 1 {
			result = m.apply(sess, action, target)
			return nil
		}

		outcome, have, needed := sess.votes.Cast(action, target, actorID, eligible)
		switch outcome {
		case vote.OutcomeAlreadyVoted:
			result = Rejected("you have already voted for this action")
		case vote.OutcomeRecorded:
			result = VoteRecorded(have, needed)
		case vote.OutcomeApproved:
			result = m.apply(sess, action, target)
		}
		return nil
	})
	if err != nil {
		return Rejected(err.Error())
	}
	return result
}

// apply performs an approved action exactly once and cancels any vote
// sessions the action made moot.
func (m *Manager) apply(sess *session, action vote.Action, target string) Result {
	var err error
	switch action {
	case vote.ActionSkip:
		err = sess.player.Skip()
	case vote.ActionStop:
		err = sess.player.Stop()
	case vote.ActionPause:
		err = sess.player.Pause()
	case vote.ActionShuffle:
		sess.player.Queue().Shuffle()
	case vote.ActionClear:
		sess.player.Clear()
	case vote.ActionRemove:
		err = m.removeAt(sess, target)
	case vote.ActionDisconnect:
		sess.player.Disconnect()
	case vote.ActionLoop:
		var mode player.LoopMode
		if mode, err = player.ParseLoopMode(target); err == nil {
			sess.player.SetLoop(mode)
		}
	}
	if err != nil {
		return Rejected(err.Error())
	}

	switch action {
	case vote.ActionSkip, vote.ActionStop, vote.ActionDisconnect:
		// The current track changed or went away; every outstanding vote
		// refers to a track that no longer plays.
		sess.votes.ResetAll()
	default:
		sess.votes.CancelMoot(action)
	}

	if action != vote.ActionPause {
		m.persist(sess)
	}
	return Applied()
}

// removeAt validates the index against the pending sequence at execution
// time, not at vote time, so concurrent mutations cannot be double-applied.
func (m *Manager) removeAt(sess *session, target string) error {
	index, err := strconv.Atoi(target)
	if err != nil {
		return queue.ErrBadIndex
	}
	_, err = sess.player.Queue().RemoveAt(index)
	return err
}

// SetVolume applies a volume change directly; out-of-range values are
// rejected without touching state.
func (m *Manager) SetVolume(guildID string, volume int) Result {
	var result Result
	err := m.withSession(guildID, func(sess *session) error {
		if err := sess.player.SetVolume(volume); err != nil {
			result = Rejected(err.Error())
			return nil
		}
		m.persist(sess)
		result = Applied()
		return nil
	})
	if err != nil {
		return Rejected(err.Error())
	}
	return result
}

// Previous replays the most recently played track.
func (m *Manager) Previous(guildID string) Result {
	var result Result
	err := m.withSession(guildID, func(sess *session) error {
		if sess.player.ChannelID() == "" {
			result = Rejected("not connected to a voice channel")
			return nil
		}
		if err := sess.player.Previous(); err != nil {
			result = Rejected(err.Error())
			return nil
		}
		sess.votes.ResetAll()
		m.persist(sess)
		result = Applied()
		return nil
	})
	if err != nil {
		return Rejected(err.Error())
	}
	return result
}

// Resume continues paused playback, or starts the persisted queue after a
// restart. Playback never resumes without this explicit trigger.
func (m *Manager) Resume(guildID, channelID string) Result {
	var result Result
	err := m.withSession(guildID, func(sess *session) error {
		if err := sess.player.Play(channelID); err != nil {
			result = Rejected(err.Error())
			return nil
		}
		result = Applied()
		return nil
	})
	if err != nil {
		return Rejected(err.Error())
	}
	return result
}

// Snapshot returns a consistent copy of the guild's display state: player
// view, pending tracks, and play history.
func (m *Manager) Snapshot(guildID string) (player.View, []queue.Track, []queue.Track) {
	var view player.View
	var pending, history []queue.Track
	m.withSession(guildID, func(sess *session) error {
		view = sess.player.View()
		pending = sess.player.Queue().Pending()
		history = sess.player.Queue().History()
		return nil
	})
	return view, pending, history
}

// HandleStreamEnd is the transport completion callback. It queues behind
// the guild's pending mutations and advances playback on the slot.
func (m *Manager) HandleStreamEnd(ev transport.EndEvent) {
	err := m.withSession(ev.GuildID, func(sess *session) error {
		before := sess.player.Current()
		if err := sess.player.HandleStreamEnd(ev.Reason); err != nil {
			log.WithError(err).WithFields(log.Fields{"guild_id": ev.GuildID}).
				Error("Advancing after stream end failed")
		}
		if ev.Reason != transport.EndStopped && before != nil {
			sess.votes.ResetAll()
			m.persist(sess)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"guild_id": ev.GuildID}).
			Warn("Dropped stream-end event for closed session")
	}
}

// ChannelEmptied is called when the last human leaves the bot's voice
// channel. The session is driven idle and left resumable.
func (m *Manager) ChannelEmptied(guildID string) {
	m.withSession(guildID, func(sess *session) error {
		sess.player.Disconnect()
		sess.votes.ResetAll()
		m.persist(sess)
		return nil
	})
}

// handleIdleTimeout runs on the timer goroutine; it reserializes onto the
// guild's slot and tears the session down if the queue ended up empty.
func (m *Manager) handleIdleTimeout(guildID string, generation uint64) {
	sess := m.lookup(guildID)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	fired := sess.player.HandleIdleFire(generation)
	teardown := fired && sess.player.Queue().Len() == 0
	if teardown {
		sess.player.Close()
		sess.closed = true
	}
	if fired {
		m.persist(sess)
	}
	sess.mu.Unlock()

	if teardown {
		m.mu.Lock()
		if m.sessions[guildID] == sess {
			delete(m.sessions, guildID)
		}
		m.mu.Unlock()
	}
}

// Shutdown halts every guild session, persisting queues so they are
// resumable after restart.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		m.persist(sess)
		sess.player.Disconnect()
		sess.player.Close()
		sess.closed = true
		sess.mu.Unlock()
	}
	log.Info("All guild sessions stopped")
}
