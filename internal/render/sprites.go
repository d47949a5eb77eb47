package render

import (
	"sort"
	"sync"
	"time"

	"edu-arcade/internal/game"
)

// Sprite is the retained state of one backend sprite
type Sprite struct {
	ID        int
	Texture   string
	X, Y      float64
	Visible   bool
	Animation string
	Started   time.Time
}

// SpriteBackend is an atlas-aware game.Backend. It keeps every live sprite
// so hosts that draw from retained state (the desktop window) can walk them,
// and it answers animation lengths from the manifest.
type SpriteBackend struct {
	atlas *Atlas

	mu      sync.Mutex
	nextID  int
	sprites map[int]*Sprite
	created int
	freed   int
}

// NewSpriteBackend creates a backend over an atlas. nil uses the built-in one.
func NewSpriteBackend(atlas *Atlas) *SpriteBackend {
	if atlas == nil {
		atlas = DefaultAtlas()
	}
	return &SpriteBackend{
		atlas:   atlas,
		sprites: make(map[int]*Sprite),
	}
}

// Atlas returns the manifest the backend draws from
func (b *SpriteBackend) Atlas() *Atlas { return b.atlas }

// Sprite creates a hidden sprite
func (b *SpriteBackend) Sprite(texture string, x, y float64) game.RenderHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.created++
	s := &Sprite{ID: b.nextID, Texture: texture, X: x, Y: y}
	b.sprites[s.ID] = s
	return &spriteHandle{backend: b, id: s.ID}
}

// AnimationDuration answers from the manifest
func (b *SpriteBackend) AnimationDuration(name string) (time.Duration, bool) {
	return b.atlas.AnimationDuration(name)
}

// Visible returns copies of the visible sprites ordered by id
func (b *SpriteBackend) Visible() []Sprite {
	b.mu.Lock()
	out := make([]Sprite, 0, len(b.sprites))
	for _, s := range b.sprites {
		if s.Visible {
			out = append(out, *s)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BackendStats counts sprites over the backend's lifetime
type BackendStats struct {
	Live      int `json:"live"`
	Created   int `json:"created"`
	Destroyed int `json:"destroyed"`
}

// Stats returns sprite counters
func (b *SpriteBackend) Stats() BackendStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BackendStats{Live: len(b.sprites), Created: b.created, Destroyed: b.freed}
}

func (b *SpriteBackend) update(id int, fn func(*Sprite)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sprites[id]; ok {
		fn(s)
	}
}

type spriteHandle struct {
	backend *SpriteBackend
	id      int
}

func (h *spriteHandle) Move(x, y float64) {
	h.backend.update(h.id, func(s *Sprite) { s.X, s.Y = x, y })
}

func (h *spriteHandle) SetVisible(visible bool) {
	h.backend.update(h.id, func(s *Sprite) { s.Visible = visible })
}

func (h *spriteHandle) Play(animation string) {
	h.backend.update(h.id, func(s *Sprite) {
		s.Animation = animation
		s.Started = time.Now()
	})
}

// Destroy frees the sprite; later calls are no-ops
func (h *spriteHandle) Destroy() {
	b := h.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sprites[h.id]; ok {
		delete(b.sprites, h.id)
		b.freed++
	}
}
