// Package layout maps the viewport onto the logical playfield.
//
// Every spawn position, lane Y coordinate and culling bound in the simulation is
// derived from a Mapper instead of being cached in absolute pixels. When the
// viewport changes (fullscreen toggle, window resize, PTY resize) the Mapper
// rescales positions so that an actor's relative position inside the playfield
// stays the same and only its pixel position moves.
package layout

import (
	"errors"
	"fmt"
)

// Breakpoint is the viewport class derived from the current width.
type Breakpoint int

const (
	Mobile Breakpoint = iota
	Tablet
	Desktop
)

// Width thresholds for the breakpoint classes.
const (
	TabletMinWidth  = 768
	DesktopMinWidth = 1024
)

// ErrInvalidSize is returned for non-positive viewport dimensions.
var ErrInvalidSize = errors.New("layout: viewport dimensions must be positive")

// String returns the breakpoint name
func (b Breakpoint) String() string {
	switch b {
	case Mobile:
		return "mobile"
	case Tablet:
		return "tablet"
	case Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// ClassFor returns the breakpoint class for a viewport width.
func ClassFor(width float64) Breakpoint {
	switch {
	case width < TabletMinWidth:
		return Mobile
	case width < DesktopMinWidth:
		return Tablet
	default:
		return Desktop
	}
}

// Scales holds the per-breakpoint multipliers.
type Scales struct {
	UI    float64 `yaml:"ui"`
	Asset float64 `yaml:"asset"`
}

// Spec describes a playfield in relative terms. It never contains pixels.
type Spec struct {
	// LaneRatios are lane centre lines as a fraction of the playfield height.
	// Empty for open-arena games.
	LaneRatios []float64 `yaml:"laneRatios"`

	// NestRatio is the x fraction of the nest/base line (lane games).
	NestRatio float64 `yaml:"nestRatio"`

	// SpawnMargin is how far outside the visible edge actors spawn, as a
	// fraction of the playfield width.
	SpawnMargin float64 `yaml:"spawnMargin"`

	// CullMargin is how far outside the visible edge an actor may travel before
	// it counts as off-screen, as a fraction of the playfield width.
	CullMargin float64 `yaml:"cullMargin"`

	Scales map[Breakpoint]Scales `yaml:"-"`
}

// DefaultScales returns the multipliers used when a Spec does not override them.
func DefaultScales() map[Breakpoint]Scales {
	return map[Breakpoint]Scales{
		Mobile:  {UI: 0.6, Asset: 0.55},
		Tablet:  {UI: 0.8, Asset: 0.75},
		Desktop: {UI: 1.0, Asset: 1.0},
	}
}

// LaneSpec returns the four-lane playfield used by Snowmen Attack.
func LaneSpec() Spec {
	return Spec{
		LaneRatios:  []float64{0.36, 0.52, 0.68, 0.84},
		NestRatio:   0.9,
		SpawnMargin: 0.04,
		CullMargin:  0.1,
		Scales:      DefaultScales(),
	}
}

// ArenaSpec returns the open playfield used by EduSpace.
func ArenaSpec() Spec {
	return Spec{
		SpawnMargin: 0.05,
		CullMargin:  0.1,
		Scales:      DefaultScales(),
	}
}

// Layout is the resolved, pixel-valued layout for one viewport size.
type Layout struct {
	Breakpoint Breakpoint
	Width      float64
	Height     float64
	UIScale    float64
	AssetScale float64
	LaneYs     []float64
	NestX      float64
}

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// Rel is a position relative to the playfield, each axis in [0,1] while visible.
type Rel struct {
	X, Y float64
}

// Edge names a playfield boundary.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Mapper resolves a Spec against the current viewport.
type Mapper struct {
	spec    Spec
	current Layout
}

// NewMapper creates a mapper for the given viewport.
func NewMapper(spec Spec, width, height float64) (*Mapper, error) {
	if spec.Scales == nil {
		spec.Scales = DefaultScales()
	}
	m := &Mapper{spec: spec}
	if err := m.apply(width, height); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mapper) apply(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, width, height)
	}

	bp := ClassFor(width)
	sc, ok := m.spec.Scales[bp]
	if !ok {
		sc = DefaultScales()[bp]
	}

	lanes := make([]float64, len(m.spec.LaneRatios))
	for i, r := range m.spec.LaneRatios {
		lanes[i] = r * height
	}

	m.current = Layout{
		Breakpoint: bp,
		Width:      width,
		Height:     height,
		UIScale:    sc.UI,
		AssetScale: sc.Asset,
		LaneYs:     lanes,
		NestX:      m.spec.NestRatio * width,
	}
	return nil
}

// Layout returns the current resolved layout.
func (m *Mapper) Layout() Layout {
	return m.current
}

// Map resolves the spec for an arbitrary viewport without changing the mapper.
func (m *Mapper) Map(width, height float64) (Layout, error) {
	probe := &Mapper{spec: m.spec}
	if err := probe.apply(width, height); err != nil {
		return Layout{}, err
	}
	return probe.current, nil
}

// Resize switches to a new viewport and returns the previous layout.
// Callers reposition their actors with Rescale(prev, ...).
func (m *Mapper) Resize(width, height float64) (Layout, error) {
	prev := m.current
	if err := m.apply(width, height); err != nil {
		return prev, err
	}
	return prev, nil
}

// LaneCount returns the number of lanes (0 for an arena).
func (m *Mapper) LaneCount() int {
	return len(m.current.LaneYs)
}

// LaneY returns the pixel Y of a lane, or -1 for an unknown lane.
func (m *Mapper) LaneY(lane int) float64 {
	if lane < 0 || lane >= len(m.current.LaneYs) {
		return -1
	}
	return m.current.LaneYs[lane]
}

// NestX returns the pixel X of the nest line.
func (m *Mapper) NestX() float64 {
	return m.current.NestX
}

// ToPixels converts a relative position to pixels.
func (m *Mapper) ToPixels(r Rel) Point {
	return Point{X: r.X * m.current.Width, Y: r.Y * m.current.Height}
}

// ToRelative converts a pixel position to a relative one.
func (m *Mapper) ToRelative(p Point) Rel {
	return Rel{X: p.X / m.current.Width, Y: p.Y / m.current.Height}
}

// Rescale moves a pixel position from the prev layout into the current one,
// keeping its relative position.
func (m *Mapper) Rescale(prev Layout, p Point) Point {
	if prev.Width <= 0 || prev.Height <= 0 {
		return p
	}
	return Point{
		X: p.X / prev.Width * m.current.Width,
		Y: p.Y / prev.Height * m.current.Height,
	}
}

// RescaleVelocity converts a velocity measured in prev pixels per second.
func (m *Mapper) RescaleVelocity(prev Layout, vx, vy float64) (float64, float64) {
	if prev.Width <= 0 || prev.Height <= 0 {
		return vx, vy
	}
	return vx / prev.Width * m.current.Width, vy / prev.Height * m.current.Height
}

// SpawnPoint returns a point just outside the given edge. along is the relative
// position on the edge (0..1).
func (m *Mapper) SpawnPoint(edge Edge, along float64) Point {
	w, h := m.current.Width, m.current.Height
	margin := m.spec.SpawnMargin * w
	switch edge {
	case EdgeLeft:
		return Point{X: -margin, Y: along * h}
	case EdgeRight:
		return Point{X: w + margin, Y: along * h}
	case EdgeTop:
		return Point{X: along * w, Y: -margin}
	default:
		return Point{X: along * w, Y: h + margin}
	}
}

// CullMargin returns the off-screen tolerance in pixels.
func (m *Mapper) CullMargin() float64 {
	return m.spec.CullMargin * m.current.Width
}

// IsOffscreen reports whether p is beyond the culling bound on any edge.
func (m *Mapper) IsOffscreen(p Point) bool {
	margin := m.CullMargin()
	return p.X < -margin || p.X > m.current.Width+margin ||
		p.Y < -margin || p.Y > m.current.Height+margin
}

// Speed scales a design-time speed (expressed for a 1280px desktop playfield)
// into pixels per second for the current layout.
func (m *Mapper) Speed(designSpeed float64) float64 {
	return designSpeed * m.current.Width / ReferenceWidth
}

// Size scales a design-time hit-box size with the playfield width so collision
// geometry stays proportional across breakpoints. AssetScale is for renderers.
func (m *Mapper) Size(designSize float64) float64 {
	return designSize * m.current.Width / ReferenceWidth
}

// ReferenceWidth is the playfield width that design-time values are tuned for.
const ReferenceWidth = 1280.0

// Clamp keeps p inside the visible playfield.
func (m *Mapper) Clamp(p Point) Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X > m.current.Width {
		p.X = m.current.Width
	}
	if p.Y > m.current.Height {
		p.Y = m.current.Height
	}
	return p
}
