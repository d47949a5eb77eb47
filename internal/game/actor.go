package game

import (
	"time"

	"edu-arcade/internal/game/physics"
	"edu-arcade/internal/game/timer"
)

// Category classifies an actor for collision and pooling
type Category uint8

const (
	CategoryPlayer Category = iota
	CategoryEnemy
	CategoryPlayerProjectile
	CategoryEnemyProjectile
	CategoryCollectible
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryEnemy:
		return "enemy"
	case CategoryPlayerProjectile:
		return "player_projectile"
	case CategoryEnemyProjectile:
		return "enemy_projectile"
	case CategoryCollectible:
		return "collectible"
	default:
		return "unknown"
	}
}

func (c Category) layer() physics.Layer {
	switch c {
	case CategoryPlayer:
		return physics.LayerPlayer
	case CategoryEnemy:
		return physics.LayerEnemy
	case CategoryPlayerProjectile:
		return physics.LayerPlayerShot
	case CategoryEnemyProjectile:
		return physics.LayerEnemyShot
	default:
		return physics.LayerCollectible
	}
}

// Actor is one pooled simulation entity. It is constructed once per pool slot
// and reused: Spawn re-activates it, Release deactivates it.
type Actor struct {
	ID       int
	Category Category

	// Position (centre) and velocity in playfield pixels
	X, Y   float64
	VX, VY float64

	// Design-time size, scaled through the layout mapper into the hit-box
	DesignW, DesignH float64

	Depth   int  // render-only
	Alive   bool // false while exploding, dying or dead
	Active  bool // in play (pooled-but-unused actors are inactive)
	OwnerID int  // emitter of a projectile, 0 when none
	Lane    int  // lane index, -1 in the arena

	Texture   string
	Animation string
	Label     string

	// Collectible payload
	Answer *Answer

	// Enemy behavior, nil for every other category
	Enemy *Enemy

	body      *physics.Body
	render    RenderHandle
	timers    *timer.Group
	pool      *Pool
	gen       uint64
	claimed   bool
	pending   bool
	onRelease []func()
}

// Generation changes every time the actor returns to its pool.
func (a *Actor) Generation() uint64 {
	return a.gen
}

// Claimed reports whether the actor is handed out by its pool.
func (a *Actor) Claimed() bool {
	return a.claimed
}

// Body returns the actor's hit-box.
func (a *Actor) Body() *physics.Body {
	return a.body
}

// Spawn places a claimed actor in play at (x, y) with velocity (vx, vy).
func (a *Actor) Spawn(x, y, vx, vy float64) {
	if !a.claimed {
		return
	}
	a.X, a.Y = x, y
	a.VX, a.VY = vx, vy
	a.Alive = true
	if !a.Active {
		a.Active = true
		if a.pool != nil {
			a.pool.active++
		}
	}
	a.body.SetCenter(x, y)
	a.body.Enable()
	a.render.Move(x, y)
	a.render.SetVisible(true)
}

// Fire is Spawn for projectiles.
func (a *Actor) Fire(x, y, vx, vy float64, ownerID int) {
	a.Spawn(x, y, vx, vy)
	a.OwnerID = ownerID
}

// Advance moves the actor by its velocity.
func (a *Actor) Advance(dt float64) {
	if !a.Active {
		return
	}
	a.X += a.VX * dt
	a.Y += a.VY * dt
	a.sync()
}

// MoveTo teleports the actor.
func (a *Actor) MoveTo(x, y float64) {
	a.X, a.Y = x, y
	a.sync()
}

func (a *Actor) sync() {
	a.body.SetCenter(a.X, a.Y)
	a.render.Move(a.X, a.Y)
}

// DisableHitbox removes the actor from every later collision test.
func (a *Actor) DisableHitbox() {
	a.body.Disable()
}

// MarkRelease queues the actor's return to its pool.
func (a *Actor) MarkRelease() {
	if a.pool != nil {
		a.pool.MarkRelease(a)
	}
}

// Hittable reports whether the actor can take part in a collision.
func (a *Actor) Hittable() bool {
	return a.Active && a.Alive && !a.pending && a.body.Enabled()
}

// OnRelease attaches a transient subscription that runs once when the actor
// returns to its pool and is then detached.
func (a *Actor) OnRelease(fn func()) {
	a.onRelease = append(a.onRelease, fn)
}

// Guard wraps a callback so it becomes a no-op once the actor is recycled.
func (a *Actor) Guard(fn func()) func() {
	gen := a.gen
	return func() {
		if a.gen != gen || !a.Active {
			return
		}
		fn()
	}
}

// After schedules a callback owned by the actor and guarded by its generation.
func (a *Actor) After(d time.Duration, fn func()) timer.Handle {
	return a.timers.After(d, a.Guard(fn))
}

// Every schedules a looping callback owned by the actor.
func (a *Actor) Every(next timer.DelayFunc, fn func()) timer.Handle {
	return a.timers.Every(next, a.Guard(fn))
}

// Play starts a named animation and calls done when it completes. A missing
// animation completes on the next timer step.
func (a *Actor) Play(backend Backend, name string, done func()) {
	a.Animation = name
	a.render.Play(name)
	d, ok := backend.AnimationDuration(name)
	if !ok {
		d = 0
	}
	if done != nil {
		a.After(d, done)
	}
}

// SetVisible shows or hides the render handle.
func (a *Actor) SetVisible(v bool) {
	a.render.SetVisible(v)
}

// reset clears per-use state. Called by the pool on release.
func (a *Actor) reset() {
	a.VX, a.VY = 0, 0
	a.OwnerID = 0
	a.Alive = false
	a.Label = ""
	a.Answer = nil
	a.Animation = ""
	a.pending = false
	a.gen++
	a.timers.CancelAll()
	a.body.Disable()
	a.render.SetVisible(false)

	subs := a.onRelease
	a.onRelease = nil
	for _, fn := range subs {
		fn()
	}
	if a.Enemy != nil {
		a.Enemy.reset()
	}
}
