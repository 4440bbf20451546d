package player

import (
	"time"

	"github.com/Strum355/log"
)

// armIdle (re)starts the inactivity watchdog under the current generation.
// The timer fires on its own goroutine; the registered callback hands the
// generation back to the owner, which reserializes onto the guild's slot
// and calls HandleIdleFire.
func (p *Player) armIdle() {
	if p.closed || p.cfg.IdleTimeout <= 0 {
		return
	}
	p.disarmIdle()

	generation := p.generation
	p.idleTimer = time.AfterFunc(p.cfg.IdleTimeout, func() {
		if p.onIdle != nil {
			p.onIdle(generation)
		}
	})
}

func (p *Player) disarmIdle() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
}

// HandleIdleFire runs the idle-timeout transition. A fire from a stale
// generation, a closed player, or a player that resumed playing in the
// meantime is ignored. Returns true when the player actually went idle and
// left the channel, so the owner can decide on teardown.
func (p *Player) HandleIdleFire(generation uint64) bool {
	if p.closed || generation != p.generation || p.status == StatusPlaying {
		return false
	}

	log.WithFields(log.Fields{"guild_id": p.guildID}).Info("Idle timeout, leaving voice channel")
	p.transport.StopStream(p.guildID)
	p.transport.Leave(p.guildID)
	p.current = nil
	p.channelID = ""
	p.status = StatusIdle
	p.idleTimer = nil
	return true
}

// Generation exposes the session generation for stale-callback guards.
func (p *Player) Generation() uint64 { return p.generation }
