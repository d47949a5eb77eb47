package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits defines hard caps on what a snapshot carries
type ResourceLimits struct {
	MaxActors  int // Per frame actor limit
	MaxTexts   int // Per frame floating text limit
	MaxFlashes int // Per frame impact flash limit
	MaxLanes   int
}

// DefaultLimits provides production-safe default limits
var DefaultLimits = ResourceLimits{
	MaxActors:  256,
	MaxTexts:   30,
	MaxFlashes: 10,
	MaxLanes:   8,
}

// ActorSnapshot is an immutable copy of one active actor for rendering
type ActorSnapshot struct {
	ID        int     `json:"id" msgpack:"id"`
	Category  string  `json:"category" msgpack:"category"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	W         float64 `json:"w" msgpack:"w"`
	H         float64 `json:"h" msgpack:"h"`
	Depth     int     `json:"depth" msgpack:"depth"`
	Lane      int     `json:"lane" msgpack:"lane"`
	Texture   string  `json:"texture" msgpack:"texture"`
	Animation string  `json:"animation,omitempty" msgpack:"animation,omitempty"`
	Label     string  `json:"label,omitempty" msgpack:"label,omitempty"`
	State     string  `json:"state,omitempty" msgpack:"state,omitempty"`
	Alive     bool    `json:"alive" msgpack:"alive"`
}

// LaneSnapshot is a lane's geometry and slot
type LaneSnapshot struct {
	Index int     `json:"index" msgpack:"index"`
	Y     float64 `json:"y" msgpack:"y"`
	Slot  string  `json:"slot" msgpack:"slot"`
}

// TextSnapshot is an immutable floating text
type TextSnapshot struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Text  string  `json:"text" msgpack:"text"`
	Color string  `json:"color" msgpack:"color"`
	Alpha float64 `json:"alpha" msgpack:"alpha"`
}

// FlashSnapshot is an immutable impact flash
type FlashSnapshot struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Radius float64 `json:"radius" msgpack:"radius"`
	Color  string  `json:"color" msgpack:"color"`
	Alpha  float64 `json:"alpha" msgpack:"alpha"`
}

// ShakeSnapshot captures screen shake state
type ShakeSnapshot struct {
	OffsetX float64 `json:"offsetX" msgpack:"offsetX"`
	OffsetY float64 `json:"offsetY" msgpack:"offsetY"`
}

// GameSnapshot is a complete immutable scene state for rendering and the API.
// Slices are pre-allocated and capped.
type GameSnapshot struct {
	Sequence    uint64    `json:"sequence" msgpack:"sequence"`
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
	Frame       uint64    `json:"frame" msgpack:"frame"`
	ContainerID string    `json:"containerId" msgpack:"containerId"`
	Mode        string    `json:"mode" msgpack:"mode"`
	State       string    `json:"state" msgpack:"state"`

	Width      float64 `json:"width" msgpack:"width"`
	Height     float64 `json:"height" msgpack:"height"`
	Breakpoint string  `json:"breakpoint" msgpack:"breakpoint"`
	UIScale    float64 `json:"uiScale" msgpack:"uiScale"`
	AssetScale float64 `json:"assetScale" msgpack:"assetScale"`
	NestX      float64 `json:"nestX,omitempty" msgpack:"nestX,omitempty"`

	Score       int    `json:"score" msgpack:"score"`
	Energy      int    `json:"energy" msgpack:"energy"`
	MaxEnergy   int    `json:"maxEnergy" msgpack:"maxEnergy"`
	Lives       int    `json:"lives" msgpack:"lives"`
	Kills       int    `json:"kills" msgpack:"kills"`
	PlayerState string `json:"playerState" msgpack:"playerState"`

	Prompt        string `json:"prompt,omitempty" msgpack:"prompt,omitempty"`
	QuestionIndex int    `json:"questionIndex" msgpack:"questionIndex"`
	QuestionCount int    `json:"questionCount" msgpack:"questionCount"`

	Actors  []ActorSnapshot `json:"actors" msgpack:"actors"`
	Lanes   []LaneSnapshot  `json:"lanes,omitempty" msgpack:"lanes,omitempty"`
	Texts   []TextSnapshot  `json:"texts,omitempty" msgpack:"texts,omitempty"`
	Flashes []FlashSnapshot `json:"flashes,omitempty" msgpack:"flashes,omitempty"`
	Shake   ShakeSnapshot   `json:"shake" msgpack:"shake"`
}

// Clone returns a deep copy that stays valid after the pool reuses the slot
func (s *GameSnapshot) Clone() GameSnapshot {
	out := *s
	out.Actors = append([]ActorSnapshot(nil), s.Actors...)
	out.Lanes = append([]LaneSnapshot(nil), s.Lanes...)
	out.Texts = append([]TextSnapshot(nil), s.Texts...)
	out.Flashes = append([]FlashSnapshot(nil), s.Flashes...)
	return out
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure
// Uses triple buffering for lock-free producer/consumer
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	limits    ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Actors:  make([]ActorSnapshot, 0, limits.MaxActors),
			Lanes:   make([]LaneSnapshot, 0, limits.MaxLanes),
			Texts:   make([]TextSnapshot, 0, limits.MaxTexts),
			Flashes: make([]FlashSnapshot, 0, limits.MaxFlashes),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the tick)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Actors = snap.Actors[:0]
	snap.Lanes = snap.Lanes[:0]
	snap.Texts = snap.Texts[:0]
	snap.Flashes = snap.Flashes[:0]
	snap.Shake = ShakeSnapshot{}
	snap.Prompt = ""

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances read pointer
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() ResourceLimits {
	return p.limits
}

// WriteSnapshot copies the scene into dst, respecting dst's capacity limits.
func (s *Scene) WriteSnapshot(dst *GameSnapshot, limits ResourceLimits) {
	lay := s.mapper.Layout()
	dst.Frame = s.frame
	dst.ContainerID = s.id
	dst.Mode = string(s.cfg.Mode)
	dst.State = s.state.String()
	dst.Width, dst.Height = lay.Width, lay.Height
	dst.Breakpoint = lay.Breakpoint.String()
	dst.UIScale, dst.AssetScale = lay.UIScale, lay.AssetScale
	dst.NestX = 0
	if s.laneGame() {
		dst.NestX = lay.NestX
	}

	dst.Score = s.ledger.DisplayScore()
	dst.Energy = s.ledger.Energy()
	dst.MaxEnergy = s.ledger.MaxEnergy()
	dst.Lives = s.ledger.Lives()
	dst.Kills = s.stats.Kills
	dst.PlayerState = s.player.State.String()

	dst.QuestionIndex, dst.QuestionCount = 0, 0
	if s.quiz != nil {
		dst.QuestionIndex, dst.QuestionCount = s.quiz.Index(), s.quiz.Len()
		if q, ok := s.quiz.Current(); ok {
			dst.Prompt = q.Prompt
		}
	}

	if s.destroyed {
		return
	}

	add := func(a *Actor) {
		if len(dst.Actors) >= limits.MaxActors {
			return
		}
		w, h := a.body.Size()
		snap := ActorSnapshot{
			ID:        a.ID,
			Category:  a.Category.String(),
			X:         a.X,
			Y:         a.Y,
			W:         w,
			H:         h,
			Depth:     a.Depth,
			Lane:      a.Lane,
			Texture:   a.Texture,
			Animation: a.Animation,
			Label:     a.Label,
			Alive:     a.Alive,
		}
		if a.Answer != nil && a.Answer.Image != "" {
			snap.Texture = a.Answer.Image
		}
		switch {
		case a.Enemy != nil:
			snap.State = a.Enemy.State.String()
		case a.Category == CategoryPlayer:
			snap.State = s.player.State.String()
		}
		dst.Actors = append(dst.Actors, snap)
	}
	s.playerPool.ForEachActive(add)
	for _, p := range s.pools {
		p.ForEachActive(add)
	}

	for _, lane := range s.lanes {
		if len(dst.Lanes) >= limits.MaxLanes {
			break
		}
		dst.Lanes = append(dst.Lanes, LaneSnapshot{
			Index: lane.Index,
			Y:     s.mapper.LaneY(lane.Index),
			Slot:  lane.Slot().String(),
		})
	}

	for i := range s.fx.texts {
		if len(dst.Texts) >= limits.MaxTexts {
			break
		}
		t := &s.fx.texts[i]
		dst.Texts = append(dst.Texts, TextSnapshot{X: t.X, Y: t.Y, Text: t.Text, Color: t.Color, Alpha: t.Alpha()})
	}
	for i := range s.fx.flashes {
		if len(dst.Flashes) >= limits.MaxFlashes {
			break
		}
		f := &s.fx.flashes[i]
		dst.Flashes = append(dst.Flashes, FlashSnapshot{X: f.X, Y: f.Y, Radius: f.Radius, Color: f.Color, Alpha: f.Alpha()})
	}
	dst.Shake = ShakeSnapshot{OffsetX: s.fx.shake.OffsetX, OffsetY: s.fx.shake.OffsetY}
}
