package game

import (
	"math/rand"
	"time"
)

// Behavior is an enemy's current action
type Behavior uint8

const (
	BehaviorIdle Behavior = iota
	BehaviorWalking
	BehaviorThrowing
	BehaviorDying
	BehaviorDead
)

// String returns the behavior name
func (b Behavior) String() string {
	switch b {
	case BehaviorIdle:
		return "idle"
	case BehaviorWalking:
		return "walking"
	case BehaviorThrowing:
		return "throwing"
	case BehaviorDying:
		return "dying"
	case BehaviorDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Enemy is the behavior state attached to an enemy actor
type Enemy struct {
	actor *Actor
	State Behavior
	// Previous is the last action picked by the AI. It survives the automatic
	// Throwing → Idle step so a throw is never picked twice in a row.
	Previous Behavior

	// DesignSpeed is this instance's speed before responsive scaling
	DesignSpeed float64
	// Direction is +1 when walking toward larger x, -1 otherwise
	Direction float64

	Breached bool // reached the nest alive
}

func newEnemy(a *Actor) *Enemy {
	e := &Enemy{actor: a, Direction: 1}
	a.Enemy = e
	return e
}

func (e *Enemy) reset() {
	e.State = BehaviorIdle
	e.Previous = BehaviorIdle
	e.Breached = false
}

// Actor returns the enemy's actor
func (e *Enemy) Actor() *Actor {
	return e.actor
}

// Collidable reports whether the enemy may still be hit. Dying and Dead
// enemies are out of the collision set for good.
func (e *Enemy) Collidable() bool {
	return e.State != BehaviorDying && e.State != BehaviorDead && e.actor.Hittable()
}

// PickBehavior turns t in [0, total weight) into the next action.
func PickBehavior(w BehaviorWeights, t float64, previous Behavior) Behavior {
	var next Behavior
	switch {
	case t < w.Walk:
		next = BehaviorWalking
	case t < w.Walk+w.Throw:
		next = BehaviorThrowing
	default:
		next = BehaviorIdle
	}

	// A non-idle action never repeats; it swaps to the other one, or to idle
	// when the other one is weighted out.
	if next != BehaviorIdle && next == previous {
		switch {
		case next == BehaviorWalking && w.Throw > 0:
			next = BehaviorThrowing
		case next == BehaviorThrowing && w.Walk > 0:
			next = BehaviorWalking
		default:
			next = BehaviorIdle
		}
	}
	return next
}

// rollBehavior picks the next action with the scene RNG
func rollBehavior(rng *rand.Rand, w BehaviorWeights, previous Behavior) Behavior {
	total := w.Walk + w.Throw + w.Idle
	return PickBehavior(w, rng.Float64()*total, previous)
}

// uniformDelay draws a duration uniformly from [min, max]
func uniformDelay(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}
