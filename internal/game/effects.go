package game

// Cosmetic effects. They never feed back into the simulation and only exist
// so snapshots can show what just happened.

const (
	floatingTextLife = 0.9  // seconds
	impactFlashLife  = 0.25 // seconds
	shakeLife        = 0.4  // seconds
	maxShake         = 12.0 // pixels
)

// FloatingText is a score or answer popup drifting upward.
type FloatingText struct {
	X, Y  float64
	Text  string
	Color string
	Timer float64 // remaining seconds
}

// ImpactFlash is a burst drawn where a hit landed.
type ImpactFlash struct {
	X, Y      float64
	Radius    float64
	MaxRadius float64
	Color     string
	Timer     float64
}

// ScreenShake represents camera shake from base impacts and life loss.
type ScreenShake struct {
	Intensity float64
	Timer     float64
	OffsetX   float64
	OffsetY   float64
}

// NewFloatingText creates a popup at (x, y).
func NewFloatingText(x, y float64, text, color string) FloatingText {
	return FloatingText{X: x, Y: y, Text: text, Color: color, Timer: floatingTextLife}
}

// Update drifts the text and reports whether it is still visible.
func (t *FloatingText) Update(dt float64) bool {
	t.Timer -= dt
	t.Y -= 40 * dt
	return t.Timer > 0
}

// Alpha returns the current opacity.
func (t *FloatingText) Alpha() float64 {
	return clamp01(t.Timer / floatingTextLife)
}

// NewImpactFlash creates a flash; radius grows with intensity.
func NewImpactFlash(x, y float64, color string, intensity float64) ImpactFlash {
	return ImpactFlash{
		X:         x,
		Y:         y,
		Radius:    3,
		MaxRadius: 10 + intensity*5,
		Color:     color,
		Timer:     impactFlashLife,
	}
}

// Update expands the flash, fast at first then slower.
func (f *ImpactFlash) Update(dt float64) bool {
	f.Timer -= dt
	progress := 1 - clamp01(f.Timer/impactFlashLife)
	f.Radius = f.MaxRadius * (1 - (1-progress)*(1-progress))
	return f.Timer > 0
}

// Alpha returns the current opacity.
func (f *ImpactFlash) Alpha() float64 {
	return clamp01(f.Timer / impactFlashLife)
}

// Start begins a shake, keeping the stronger of the current and new one.
func (s *ScreenShake) Start(intensity float64) {
	if intensity > maxShake {
		intensity = maxShake
	}
	if intensity > s.Intensity {
		s.Intensity = intensity
	}
	s.Timer = shakeLife
}

// Update decays the shake. seed keeps offsets deterministic per frame.
func (s *ScreenShake) Update(dt float64, seed uint64) {
	if s.Timer <= 0 {
		*s = ScreenShake{}
		return
	}
	s.Timer -= dt
	s.Intensity *= 0.8

	// LCG so replays produce the same offsets
	x := float64((seed*1103515245+12345)%256) / 256.0
	y := float64((seed*2*1103515245+12345)%256) / 256.0
	s.OffsetX = (x - 0.5) * 2 * s.Intensity
	s.OffsetY = (y - 0.5) * 2 * s.Intensity

	if s.Intensity < 0.5 {
		*s = ScreenShake{}
	}
}

// effects holds the live cosmetic effects of a scene.
type effects struct {
	texts   []FloatingText
	flashes []ImpactFlash
	shake   ScreenShake
}

func (e *effects) text(x, y float64, text, color string) {
	if len(e.texts) >= DefaultLimits.MaxTexts {
		e.texts = e.texts[1:]
	}
	e.texts = append(e.texts, NewFloatingText(x, y, text, color))
}

func (e *effects) flash(x, y float64, color string, intensity float64) {
	if len(e.flashes) >= DefaultLimits.MaxFlashes {
		e.flashes = e.flashes[1:]
	}
	e.flashes = append(e.flashes, NewImpactFlash(x, y, color, intensity))
}

// update filters expired effects in place.
func (e *effects) update(dt float64, frame uint64) {
	n := 0
	for i := range e.texts {
		if e.texts[i].Update(dt) {
			e.texts[n] = e.texts[i]
			n++
		}
	}
	e.texts = e.texts[:n]

	n = 0
	for i := range e.flashes {
		if e.flashes[i].Update(dt) {
			e.flashes[n] = e.flashes[i]
			n++
		}
	}
	e.flashes = e.flashes[:n]

	e.shake.Update(dt, frame)
}

func (e *effects) clear() {
	e.texts = e.texts[:0]
	e.flashes = e.flashes[:0]
	e.shake = ScreenShake{}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
