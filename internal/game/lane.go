package game

import (
	"edu-arcade/internal/game/physics"
)

// SlotState is the occupancy of a lane's single enemy slot
type SlotState uint8

const (
	SlotEmpty     SlotState = iota
	SlotAlive                     // enemy in play
	SlotRecycling                 // enemy dying or breached, not yet back in its pool
)

// String returns the slot state name
func (s SlotState) String() string {
	switch s {
	case SlotAlive:
		return "alive"
	case SlotRecycling:
		return "recycling"
	default:
		return "empty"
	}
}

// nestDesignWidth is the nest strip width at the reference playfield width
const nestDesignWidth = 40.0

// Lane is one horizontal track of a lane game. It owns one enemy slot, its
// projectile pools and the nest target at its end.
type Lane struct {
	Index       int
	PlayerShots *Pool
	EnemyShots  *Pool

	enemy *Actor
	nest  *physics.Body
}

// Enemy returns the lane's enemy, or nil when the slot is empty
func (l *Lane) Enemy() *Actor {
	return l.enemy
}

// Slot reports exactly one of empty, alive or recycling
func (l *Lane) Slot() SlotState {
	switch {
	case l.enemy == nil:
		return SlotEmpty
	case l.enemy.Alive && l.enemy.Enemy.State != BehaviorDying && l.enemy.Enemy.State != BehaviorDead:
		return SlotAlive
	default:
		return SlotRecycling
	}
}

// assign puts an enemy in the slot. The slot empties itself when the enemy
// returns to its pool.
func (l *Lane) assign(a *Actor) {
	l.enemy = a
	a.Lane = l.Index
	a.OnRelease(func() {
		if l.enemy == a {
			l.enemy = nil
		}
	})
}

// Nest returns the nest hit-box
func (l *Lane) Nest() *physics.Body {
	return l.nest
}

// cancelPlayerShots removes every in-flight player projectile of the lane
func (l *Lane) cancelPlayerShots() int {
	n := 0
	l.PlayerShots.ForEachActive(func(a *Actor) {
		if a.Alive {
			a.Alive = false
			l.PlayerShots.MarkRelease(a)
			n++
		}
	})
	return n
}
