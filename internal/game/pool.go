package game

import (
	"log"

	"edu-arcade/internal/game/physics"
	"edu-arcade/internal/game/timer"
)

// PoolConfig sizes an actor pool
type PoolConfig struct {
	Name     string
	Category Category
	Capacity int
	// Overflow is how many emergency instances may be constructed once the
	// pool is exhausted. Overflow instances stay in the pool afterwards.
	Overflow int

	Texture          string
	DesignW, DesignH float64
	Depth            int
	Lane             int

	// Init runs once on every constructed slot, overflow included.
	Init func(a *Actor)
}

// PoolDeps are the scene services every pooled actor is wired to
type PoolDeps struct {
	World   *physics.World
	Timers  *timer.Scheduler
	Backend Backend
	NextID  func() int

	// Scale converts a design-time size into playfield pixels. Nil keeps
	// design sizes unchanged.
	Scale func(design float64) float64

	// OnExhausted is called each time Acquire finds no free slot.
	OnExhausted func(pool string)
}

// Pool is a fixed-capacity set of reusable actors. An acquired actor is
// claimed (never handed out twice) but stays inactive until Spawn or Fire.
type Pool struct {
	cfg      PoolConfig
	deps     PoolDeps
	slots    []*Actor
	claimed  int
	active   int
	pending  []*Actor
	exhausts uint64
}

// NewPool constructs every slot up front.
func NewPool(cfg PoolConfig, deps PoolDeps) *Pool {
	if cfg.Capacity < 0 {
		cfg.Capacity = 0
	}
	p := &Pool{
		cfg:   cfg,
		deps:  deps,
		slots: make([]*Actor, 0, cfg.Capacity+cfg.Overflow),
	}
	for i := 0; i < cfg.Capacity; i++ {
		p.slots = append(p.slots, p.construct())
	}
	return p
}

func (p *Pool) construct() *Actor {
	a := &Actor{
		ID:       p.deps.NextID(),
		Category: p.cfg.Category,
		DesignW:  p.cfg.DesignW,
		DesignH:  p.cfg.DesignH,
		Depth:    p.cfg.Depth,
		Lane:     p.cfg.Lane,
		Texture:  p.cfg.Texture,
		timers:   p.deps.Timers.NewGroup(),
		render:   p.deps.Backend.Sprite(p.cfg.Texture, 0, 0),
		pool:     p,
	}
	w, h := p.scaled(a)
	a.body = p.deps.World.NewBody(p.cfg.Category.layer(), w, h, a)
	a.render.SetVisible(false)
	if p.cfg.Init != nil {
		p.cfg.Init(a)
	}
	return a
}

func (p *Pool) scaled(a *Actor) (float64, float64) {
	if p.deps.Scale == nil {
		return a.DesignW, a.DesignH
	}
	return p.deps.Scale(a.DesignW), p.deps.Scale(a.DesignH)
}

// Rescale refits every hit-box after the layout changed.
func (p *Pool) Rescale() {
	for _, a := range p.slots {
		a.body.SetSize(p.scaled(a))
	}
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.cfg.Name
}

// Category returns the category of every actor in the pool
func (p *Pool) Category() Category {
	return p.cfg.Category
}

// Acquire claims a free slot, or returns nil when the pool is exhausted and
// no overflow is left.
func (p *Pool) Acquire() *Actor {
	for _, a := range p.slots {
		if !a.claimed {
			a.claimed = true
			p.claimed++
			return a
		}
	}

	if len(p.slots) < p.cfg.Capacity+p.cfg.Overflow {
		a := p.construct()
		p.slots = append(p.slots, a)
		a.claimed = true
		p.claimed++
		log.Printf("⚠️ Pool %s exhausted, created overflow instance (%d/%d)",
			p.cfg.Name, len(p.slots), p.cfg.Capacity+p.cfg.Overflow)
		return a
	}

	p.exhausts++
	if p.deps.OnExhausted != nil {
		p.deps.OnExhausted(p.cfg.Name)
	}
	log.Printf("⚠️ Pool %s exhausted (%d slots), dropping request", p.cfg.Name, len(p.slots))
	return nil
}

// Release returns an actor to the pool. Releasing an actor that is not
// claimed is a no-op.
func (p *Pool) Release(a *Actor) bool {
	if a == nil || a.pool != p || !a.claimed {
		return false
	}
	if a.Active {
		a.Active = false
		p.active--
	}
	a.reset()
	a.claimed = false
	p.claimed--
	return true
}

// MarkRelease queues a release for the next Flush and takes the actor out of
// collision testing right away.
func (p *Pool) MarkRelease(a *Actor) {
	if a == nil || a.pool != p || !a.claimed || a.pending {
		return
	}
	a.pending = true
	a.body.Disable()
	p.pending = append(p.pending, a)
}

// Flush performs every queued release and returns how many actors came back.
func (p *Pool) Flush() int {
	n := 0
	for len(p.pending) > 0 {
		batch := p.pending
		p.pending = nil
		for _, a := range batch {
			if p.Release(a) {
				n++
			}
		}
	}
	return n
}

// ReleaseAll returns every claimed actor to the pool.
func (p *Pool) ReleaseAll() {
	for _, a := range p.slots {
		p.Release(a)
	}
	p.pending = nil
}

// ForEachActive calls fn for each active actor. fn may mark actors for release.
func (p *Pool) ForEachActive(fn func(a *Actor)) {
	for _, a := range p.slots {
		if a.Active {
			fn(a)
		}
	}
}

// Actors returns every slot, claimed or not.
func (p *Pool) Actors() []*Actor {
	return p.slots
}

// ActiveCount returns the number of actors in play
func (p *Pool) ActiveCount() int {
	return p.active
}

// ClaimedCount returns the number of actors handed out
func (p *Pool) ClaimedCount() int {
	return p.claimed
}

// Size returns the number of constructed slots, overflow included
func (p *Pool) Size() int {
	return len(p.slots)
}

// Limit returns the hard maximum number of slots
func (p *Pool) Limit() int {
	return p.cfg.Capacity + p.cfg.Overflow
}

// Exhausted returns how many acquire requests were dropped
func (p *Pool) Exhausted() uint64 {
	return p.exhausts
}

// Destroy tears down every slot. The pool is unusable afterwards.
func (p *Pool) Destroy() {
	for _, a := range p.slots {
		a.timers.CancelAll()
		p.deps.World.Remove(a.body)
		a.render.Destroy()
	}
	p.slots = nil
	p.pending = nil
	p.claimed = 0
	p.active = 0
}
