// Package physics wraps a resolv collision space with the small surface the
// simulation needs: rectangular bodies on named layers that can be switched
// off the instant a hit is detected, and overlap queries against a layer.
package physics

import (
	"math"

	"github.com/solarlune/resolv"
)

// Layer is the collision category of a body.
type Layer int

const (
	LayerPlayer Layer = iota
	LayerEnemy
	LayerPlayerShot
	LayerEnemyShot
	LayerCollectible
	LayerNest
	layerCount
)

// Tags are global bit flags in resolv, so they are created once per process.
var layerTags = [layerCount]resolv.Tags{
	resolv.NewTag("player"),
	resolv.NewTag("enemy"),
	resolv.NewTag("player_shot"),
	resolv.NewTag("enemy_shot"),
	resolv.NewTag("collectible"),
	resolv.NewTag("nest"),
}

// String returns the layer name
func (l Layer) String() string {
	switch l {
	case LayerPlayer:
		return "player"
	case LayerEnemy:
		return "enemy"
	case LayerPlayerShot:
		return "player_shot"
	case LayerEnemyShot:
		return "enemy_shot"
	case LayerCollectible:
		return "collectible"
	case LayerNest:
		return "nest"
	default:
		return "unknown"
	}
}

const cellSize = 32

// World is a collision space sized to the playfield plus an off-screen margin
// on every side, so actors spawning or leaving past the visible edge still
// have valid cells.
type World struct {
	space  *resolv.Space
	width  float64
	height float64
	margin float64
	bodies map[resolv.IShape]*Body
	all    []*Body
}

// NewWorld creates a world for a playfield of the given size.
func NewWorld(width, height float64) *World {
	w := &World{bodies: make(map[resolv.IShape]*Body)}
	w.build(width, height)
	return w
}

func (w *World) build(width, height float64) {
	w.width = width
	w.height = height
	w.margin = math.Max(width, height) * 0.5
	w.space = resolv.NewSpace(
		int(math.Ceil(width+2*w.margin)),
		int(math.Ceil(height+2*w.margin)),
		cellSize, cellSize,
	)
}

// Resize rebuilds the space for a new playfield size. Bodies keep their enabled
// state; callers reposition them afterwards.
func (w *World) Resize(width, height float64) {
	w.build(width, height)
	clear(w.bodies)
	for _, b := range w.all {
		b.shape = nil
		b.rebuild()
	}
}

// Bounds returns the playfield size.
func (w *World) Bounds() (float64, float64) {
	return w.width, w.height
}

// Body is an axis-aligned rectangle positioned by its centre.
type Body struct {
	world   *World
	layer   Layer
	shape   resolv.IShape
	cx, cy  float64
	w, h    float64
	enabled bool

	// Owner is the simulation object this body belongs to.
	Owner any
}

// NewBody creates a disabled body. It takes part in queries only after Enable.
func (w *World) NewBody(layer Layer, width, height float64, owner any) *Body {
	b := &Body{world: w, layer: layer, w: width, h: height, Owner: owner}
	b.rebuild()
	w.all = append(w.all, b)
	return b
}

// Remove drops a body from the world for good.
func (w *World) Remove(b *Body) {
	b.Disable()
	delete(w.bodies, b.shape)
	for i, other := range w.all {
		if other == b {
			w.all = append(w.all[:i], w.all[i+1:]...)
			break
		}
	}
}

// DisableAll switches off every body in the world.
func (w *World) DisableAll() {
	for _, b := range w.all {
		b.Disable()
	}
}

// EnabledCount returns the number of bodies currently in the space.
func (w *World) EnabledCount() int {
	n := 0
	for _, b := range w.all {
		if b.enabled {
			n++
		}
	}
	return n
}

// rebuild replaces the resolv shape. A nil shape means the old one belonged to
// a space that no longer exists.
func (b *Body) rebuild() {
	wasEnabled := b.enabled
	if wasEnabled && b.shape != nil {
		b.world.space.Remove(b.shape)
	}
	x, y := b.spacePos()
	sh := resolv.NewRectangle(x, y, b.w, b.h)
	sh.Tags().Set(layerTags[b.layer])
	b.shape = sh
	b.world.bodies[sh] = b
	if wasEnabled {
		b.world.space.Add(sh)
	}
}

// spacePos is the centre in space coordinates, shifted by the margin.
// resolv rectangles are positioned by their centre.
func (b *Body) spacePos() (float64, float64) {
	m := b.world.margin
	return b.cx + m, b.cy + m
}

// Layer returns the body's collision layer.
func (b *Body) Layer() Layer {
	return b.layer
}

// Enabled reports whether the body takes part in overlap queries.
func (b *Body) Enabled() bool {
	return b.enabled
}

// Enable adds the body to the space.
func (b *Body) Enable() {
	if b.enabled {
		return
	}
	b.enabled = true
	b.shape.SetPosition(b.spacePos())
	b.world.space.Add(b.shape)
}

// Disable removes the body from the space. It takes effect immediately for
// every later query in the same step.
func (b *Body) Disable() {
	if !b.enabled {
		return
	}
	b.enabled = false
	b.world.space.Remove(b.shape)
}

// SetCenter moves the body. A disabled body's shape catches up on Enable,
// since resolv re-registers a moved shape in the cells of its last space.
func (b *Body) SetCenter(x, y float64) {
	b.cx, b.cy = x, y
	if b.enabled {
		b.shape.SetPosition(b.spacePos())
	}
}

// Center returns the body's centre.
func (b *Body) Center() (float64, float64) {
	return b.cx, b.cy
}

// Size returns the body's width and height.
func (b *Body) Size() (float64, float64) {
	return b.w, b.h
}

// SetSize changes the rectangle, keeping the centre.
func (b *Body) SetSize(width, height float64) {
	if width == b.w && height == b.h {
		return
	}
	delete(b.world.bodies, b.shape)
	b.w, b.h = width, height
	b.rebuild()
}

// Overlapping calls fn for every enabled body on the given layer that
// intersects b, until fn returns false. A disabled b matches nothing.
//
// resolv's cells give the candidates; the rectangles decide. Convex
// intersection only reports crossing edges, so a body fully inside another
// would be missed. Candidates are collected before fn runs because cell
// iteration shares state across the package and must not be re-entered.
func (b *Body) Overlapping(against Layer, fn func(other *Body) bool) {
	if !b.enabled {
		return
	}
	var candidates []*Body
	b.shape.SelectTouchingCells(1).FilterShapes().ByTags(layerTags[against]).ForEach(func(sh resolv.IShape) bool {
		if other, ok := b.world.bodies[sh]; ok && other != b {
			candidates = append(candidates, other)
		}
		return true
	})
	for _, other := range candidates {
		if !other.enabled || !b.enabled || !intersects(b, other) {
			continue
		}
		if !fn(other) {
			return
		}
	}
}

// intersects is a strict AABB test; rectangles that only share an edge do
// not overlap.
func intersects(a, b *Body) bool {
	return math.Abs(a.cx-b.cx)*2 < a.w+b.w && math.Abs(a.cy-b.cy)*2 < a.h+b.h
}

// Overlaps reports whether a and b currently intersect.
func Overlaps(a, b *Body) bool {
	if a == b || !a.enabled || !b.enabled {
		return false
	}
	return intersects(a, b)
}
