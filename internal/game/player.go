package game

import (
	"time"

	"edu-arcade/internal/game/timer"
)

// PlayerState represents the player's lifecycle state
type PlayerState uint8

const (
	PlayerAlive        PlayerState = iota // Can be hit
	PlayerInvulnerable                    // Post-hit grace window, hits are ignored
	PlayerDead                            // Out of lives
)

// String returns the state name
func (s PlayerState) String() string {
	switch s {
	case PlayerAlive:
		return "alive"
	case PlayerInvulnerable:
		return "invulnerable"
	case PlayerDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Player is the player-controlled actor plus its hit state
type Player struct {
	actor  *Actor
	State  PlayerState
	Lane   int // current lane, -1 in the arena
	Facing float64

	grace     time.Duration
	graceEnds timer.Handle
	lastShot  time.Duration
	hasShot   bool
}

func newPlayer(a *Actor, grace time.Duration) *Player {
	return &Player{actor: a, Lane: -1, Facing: 1, grace: grace}
}

// Actor returns the player's actor
func (p *Player) Actor() *Actor {
	return p.actor
}

// Invulnerable reports whether hits are currently ignored
func (p *Player) Invulnerable() bool {
	return p.State == PlayerInvulnerable
}

// Hit applies damage through the ledger unless the player is invulnerable or
// dead. A landed hit starts a new grace window. applied is false for an
// ignored hit, which changes nothing.
func (p *Player) Hit(damage int, ledger *Ledger) (d Depletion, applied bool) {
	if p.State != PlayerAlive {
		return DepletionNone, false
	}

	d = ledger.RemoveEnergy(damage)
	if d == DepletionGameOver {
		p.State = PlayerDead
		p.graceEnds.Stop()
		return d, true
	}

	p.State = PlayerInvulnerable
	p.graceEnds.Stop()
	p.graceEnds = p.actor.After(p.grace, func() {
		if p.State == PlayerInvulnerable {
			p.State = PlayerAlive
		}
	})
	return d, true
}

// GraceRemaining returns the time left in the invulnerability window
func (p *Player) GraceRemaining() time.Duration {
	if p.State != PlayerInvulnerable {
		return 0
	}
	return p.graceEnds.Remaining()
}

// canFire enforces the fire cooldown
func (p *Player) canFire(now, cooldown time.Duration) bool {
	if p.State == PlayerDead {
		return false
	}
	return !p.hasShot || now-p.lastShot >= cooldown
}

func (p *Player) markFired(now time.Duration) {
	p.lastShot = now
	p.hasShot = true
}

func (p *Player) reset() {
	p.graceEnds.Stop()
	p.State = PlayerAlive
	p.hasShot = false
	p.lastShot = 0
}
