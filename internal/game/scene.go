package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"edu-arcade/internal/game/layout"
	"edu-arcade/internal/game/physics"
	"edu-arcade/internal/game/timer"
)

// State is the level state of a scene
type State uint8

const (
	StateInitializing State = iota
	StatePlaying
	StateLevelComplete
	StateGameOver
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StatePlaying:
		return "playing"
	case StateLevelComplete:
		return "level_complete"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the round
func (s State) Terminal() bool {
	return s == StateLevelComplete || s == StateGameOver
}

// ErrInvalidDimensions is returned for a non-positive viewport.
var ErrInvalidDimensions = errors.New("dimensions must be positive")

// Dimensions is the viewport a game is mounted into
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SceneDeps are the collaborators injected into a scene. Every field is optional.
type SceneDeps struct {
	ContainerID string
	Backend     Backend
	Listener    HostListener
	// Questions is the bank for quiz play. Lane games generate multiplication
	// questions when it is empty.
	Questions []Question
	Events    *EventLog
	Observer  Observer
}

// SceneStats counts what happened in the current round
type SceneStats struct {
	Frame      uint64 `json:"frame"`
	Spawns     int    `json:"spawns"`
	Kills      int    `json:"kills"`
	PlayerHits int    `json:"playerHits"`
	NestHits   int    `json:"nestHits"`
	Breaches   int    `json:"breaches"`
	Answers    int    `json:"answers"`
	Correct    int    `json:"correct"`
	Dropped    int    `json:"dropped"` // projectile requests lost to exhausted pools
}

// Scene is one running game. It is single-threaded: the owner calls Apply,
// Tick and Resize from one goroutine (the session loop) and nothing inside a
// scene starts goroutines. Timed behavior runs on the scene's timer.Scheduler,
// which only advances inside Tick.
type Scene struct {
	id       string
	cfg      Config
	state    State
	rng      *rand.Rand
	backend  Backend
	listener HostListener
	events   *EventLog
	observer Observer

	mapper      *layout.Mapper
	world       *physics.World
	timers      *timer.Scheduler
	sceneTimers *timer.Group
	ledger      *Ledger
	quiz        *Quiz

	player      *Player
	playerPool  *Pool
	enemies     *Pool
	lanes       []*Lane
	playerShots *Pool // arena only
	enemyShots  *Pool // arena only
	answers     *Pool // arena quiz only
	pools       []*Pool

	spawner     *Spawner
	resolver    *Resolver
	resolutions []Resolution

	frame      uint64
	nextID     int
	stats      SceneStats
	advance    timer.Handle
	waveOpen   bool
	answersOut int
	notified   bool
	destroyed  bool
	fx         effects
}

// NewScene builds a scene in the Initializing state. Every pool slot, hit-box
// and render handle is created here; Start puts the scene into play.
func NewScene(cfg Config, dims Dimensions, deps SceneDeps) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidDimensions, dims.Width, dims.Height)
	}

	s := &Scene{
		id:       deps.ContainerID,
		cfg:      cfg,
		backend:  deps.Backend,
		listener: deps.Listener,
		events:   deps.Events,
		observer: deps.Observer,
	}
	if s.backend == nil {
		s.backend = NoopBackend{}
	}
	if s.listener == nil {
		s.listener = ListenerFuncs{}
	}
	if s.observer == nil {
		s.observer = NoopObserver{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))

	spec := layout.ArenaSpec()
	if s.laneGame() {
		spec = layout.LaneSpec()
	}
	mapper, err := layout.NewMapper(spec, dims.Width, dims.Height)
	if err != nil {
		return nil, err
	}
	s.mapper = mapper
	s.world = physics.NewWorld(dims.Width, dims.Height)
	s.timers = timer.NewScheduler()
	s.sceneTimers = s.timers.NewGroup()
	s.ledger = NewLedger(cfg.Ledger)

	if cfg.Quiz.Enabled {
		if err := s.buildQuiz(deps.Questions); err != nil {
			return nil, err
		}
	}

	s.buildPools()
	s.resolver = &Resolver{
		player:  s.player,
		lanes:   s.lanes,
		enemies: s.enemies,
		answers: s.answers,
	}
	if s.laneGame() {
		for _, lane := range s.lanes {
			s.resolver.playerShots = append(s.resolver.playerShots, lane.PlayerShots)
			s.resolver.enemyShots = append(s.resolver.enemyShots, lane.EnemyShots)
		}
	} else {
		s.resolver.playerShots = []*Pool{s.playerShots}
		s.resolver.enemyShots = []*Pool{s.enemyShots}
	}

	s.spawner = NewSpawner(SpawnerConfig{
		Name:          "enemies",
		MinDelay:      cfg.Spawn.MinDelay,
		MaxDelay:      cfg.Spawn.MaxDelay,
		MaxConcurrent: cfg.Spawn.MaxConcurrent,
		Active:        s.enemies.ClaimedCount,
		Spawn:         s.spawnEnemy,
	}, s.timers, s.rng)

	return s, nil
}

func (s *Scene) buildQuiz(bank []Question) error {
	questions := append([]Question(nil), bank...)
	if len(questions) == 0 && s.laneGame() {
		questions = MultiplicationQuestions(s.cfg.Quiz.Table, s.mapper.LaneCount(), s.rng)
	}
	if len(questions) == 0 {
		return ErrEmptyQuestionBank
	}
	s.rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if n := s.cfg.Quiz.Questions; n > 0 && n < len(questions) {
		questions = questions[:n]
	}
	if s.laneGame() {
		for _, q := range questions {
			if len(q.Answers) > s.mapper.LaneCount() {
				return fmt.Errorf("question %q has %d answers for %d lanes", q.Prompt, len(q.Answers), s.mapper.LaneCount())
			}
		}
	}

	quiz, err := NewQuiz(questions)
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}
	s.quiz = quiz
	return nil
}

func (s *Scene) buildPools() {
	deps := PoolDeps{
		World:       s.world,
		Timers:      s.timers,
		Backend:     s.backend,
		NextID:      s.newID,
		Scale:       s.mapper.Size,
		OnExhausted: s.poolExhausted,
	}
	cfg := s.cfg

	s.playerPool = NewPool(PoolConfig{
		Name: "player", Category: CategoryPlayer, Capacity: 1,
		Texture: cfg.Player.Texture, DesignW: cfg.Player.Width, DesignH: cfg.Player.Height,
		Depth: 10, Lane: -1,
	}, deps)
	s.player = newPlayer(s.playerPool.Acquire(), cfg.Player.Invulnerability)

	s.enemies = NewPool(PoolConfig{
		Name: "enemies", Category: CategoryEnemy, Capacity: cfg.Spawn.MaxConcurrent,
		Texture: cfg.Enemy.Texture, DesignW: cfg.Enemy.Width, DesignH: cfg.Enemy.Height,
		Depth: 5, Lane: -1,
		Init: func(a *Actor) { newEnemy(a) },
	}, deps)
	s.pools = append(s.pools, s.enemies)

	shot := func(name string, c Category, pc ProjectileConfig, lane int) *Pool {
		p := NewPool(PoolConfig{
			Name: name, Category: c, Capacity: pc.PoolSize, Overflow: pc.Overflow,
			Texture: pc.Texture, DesignW: pc.Width, DesignH: pc.Height,
			Depth: 7, Lane: lane,
		}, deps)
		s.pools = append(s.pools, p)
		return p
	}

	if s.laneGame() {
		for i := 0; i < s.mapper.LaneCount(); i++ {
			lane := &Lane{
				Index:       i,
				PlayerShots: shot(fmt.Sprintf("lane%d_player_shots", i), CategoryPlayerProjectile, cfg.PlayerShot, i),
				EnemyShots:  shot(fmt.Sprintf("lane%d_enemy_shots", i), CategoryEnemyProjectile, cfg.EnemyShot, i),
			}
			lane.nest = s.world.NewBody(physics.LayerNest, 1, 1, lane)
			s.lanes = append(s.lanes, lane)
		}
		s.placeNests()
		return
	}

	s.playerShots = shot("player_shots", CategoryPlayerProjectile, cfg.PlayerShot, -1)
	s.enemyShots = shot("enemy_shots", CategoryEnemyProjectile, cfg.EnemyShot, -1)
	if s.quiz != nil {
		options := 0
		for _, q := range s.quiz.questions {
			if len(q.Answers) > options {
				options = len(q.Answers)
			}
		}
		s.answers = NewPool(PoolConfig{
			Name: "answers", Category: CategoryCollectible, Capacity: options,
			Texture: cfg.Quiz.AnswerTexture, DesignW: cfg.Quiz.AnswerWidth, DesignH: cfg.Quiz.AnswerHeight,
			Depth: 6, Lane: -1,
		}, deps)
		s.pools = append(s.pools, s.answers)
	}
}

func (s *Scene) newID() int {
	s.nextID++
	return s.nextID
}

func (s *Scene) poolExhausted(name string) {
	s.observer.ObservePoolExhausted(name)
}

func (s *Scene) laneGame() bool {
	return s.cfg.Mode == ModeSnowmen
}

// placeNests moves every nest hit-box to the end of its lane
func (s *Scene) placeNests() {
	w := s.mapper.Size(nestDesignWidth)
	h := s.mapper.Size(s.cfg.Enemy.Height)
	x := s.mapper.NestX() + w/2
	for _, lane := range s.lanes {
		lane.nest.SetSize(w, h)
		lane.nest.SetCenter(x, s.mapper.LaneY(lane.Index))
	}
}

// playerHome returns the player's resting position
func (s *Scene) playerHome() layout.Point {
	if s.laneGame() {
		w := s.mapper.Size(s.cfg.Player.Width)
		return layout.Point{X: s.mapper.NestX() - w/2, Y: s.mapper.LaneY(s.player.Lane)}
	}
	return s.mapper.ToPixels(layout.Rel{X: 0.12, Y: 0.5})
}

// Start enters Playing: the player is placed, spawning begins and the host is
// told the scene is ready. Start only acts on an Initializing scene.
func (s *Scene) Start() {
	if s.destroyed || s.state != StateInitializing {
		return
	}

	if s.laneGame() {
		s.player.Lane = 0
	}
	a := s.player.actor
	a.Lane = s.player.Lane
	home := s.playerHome()
	a.Spawn(home.X, home.Y, 0, 0)
	for _, lane := range s.lanes {
		lane.nest.Enable()
	}

	s.state = StatePlaying
	s.spawner.Restart()
	if s.quiz != nil {
		s.beginQuestion()
	}

	lay := s.mapper.Layout()
	log.Printf("🎮 Scene %s playing: %s %.0fx%.0f (%s)", s.id, s.cfg.Mode, lay.Width, lay.Height, lay.Breakpoint)
	s.listener.SceneReady(SceneReady{
		ContainerID: s.id,
		Mode:        string(s.cfg.Mode),
		Width:       lay.Width,
		Height:      lay.Height,
		Breakpoint:  lay.Breakpoint.String(),
	})
}

// Tick advances the simulation by dt. Order within a frame: actors move,
// collisions resolve, queued releases flush, timers fire (AI, spawns, delayed
// cleanup), releases flush again. Only a Playing scene ticks.
func (s *Scene) Tick(dt time.Duration) {
	if s.destroyed || s.state != StatePlaying {
		return
	}
	start := time.Now()

	s.frame++
	s.stats.Frame = s.frame
	s.ledger.BeginFrame(s.frame)
	sec := dt.Seconds()

	s.advanceActors(sec)

	s.resolutions = s.resolver.Resolve(s.resolutions[:0])
	for _, r := range s.resolutions {
		if s.state != StatePlaying {
			break
		}
		s.apply(r)
	}
	s.checkKillTarget()
	s.flush()

	s.timers.Advance(dt)
	s.flush()
	s.checkAnswerTimeout()

	s.fx.update(sec, s.frame)
	s.observer.ObserveTick(time.Since(start))
}

func (s *Scene) flush() {
	for _, p := range s.pools {
		p.Flush()
	}
}

// advanceActors moves every live actor and retires the ones that left the
// playfield. Dying or exploding actors hold still until released.
func (s *Scene) advanceActors(dt float64) {
	lay := s.mapper.Layout()
	top, bottom := lay.Height*0.08, lay.Height*0.92

	s.player.actor.Advance(dt)
	if !s.laneGame() {
		p := s.mapper.Clamp(layout.Point{X: s.player.actor.X, Y: s.player.actor.Y})
		s.player.actor.MoveTo(p.X, p.Y)
	}

	for _, pool := range s.pools {
		pool.ForEachActive(func(a *Actor) {
			if !a.Alive {
				return
			}
			a.Advance(dt)
			if a.Enemy != nil && !s.laneGame() {
				if (a.Y < top && a.VY < 0) || (a.Y > bottom && a.VY > 0) {
					a.VY = -a.VY
				}
			}
			if s.mapper.IsOffscreen(layout.Point{X: a.X, Y: a.Y}) {
				a.Alive = false
				a.DisableHitbox()
				a.MarkRelease()
			}
		})
	}
}

func (s *Scene) checkKillTarget() {
	if s.state != StatePlaying || s.quiz != nil || s.cfg.KillTarget <= 0 {
		return
	}
	if s.stats.Kills >= s.cfg.KillTarget {
		s.finish(StateLevelComplete)
	}
}

// finish performs the terminal transition. It runs once per round: spawning
// stops, every pending timer is dropped, every hit-box is disabled and the
// host is notified. Later calls are no-ops.
func (s *Scene) finish(state State) {
	if s.destroyed || s.state.Terminal() || !state.Terminal() {
		return
	}
	s.state = state

	s.spawner.Stop()
	s.timers.Clear()
	s.world.DisableAll()
	s.ledger.Seal()
	if state == StateGameOver {
		s.player.State = PlayerDead
	}

	kind := EventTypeLevelComplete
	if state == StateGameOver {
		kind = EventTypeGameOver
	}
	var mistakes []Mistake
	if s.quiz != nil {
		mistakes = s.quiz.Mistakes()
	}
	s.emit(kind, FinishPayload{
		Outcome:  state.String(),
		Score:    s.ledger.DisplayScore(),
		Kills:    s.stats.Kills,
		Mistakes: len(mistakes),
	})
	s.observer.ObserveFinish(s.cfg.Mode, state.String())
	log.Printf("🏁 Scene %s %s: score %d, kills %d", s.id, state, s.ledger.DisplayScore(), s.stats.Kills)

	if !s.notified {
		s.notified = true
		s.listener.GameOver(GameOver{
			ContainerID: s.id,
			Outcome:     state.String(),
			FinalScore:  s.ledger.DisplayScore(),
			Kills:       s.stats.Kills,
			Mistakes:    mistakes,
		})
	}
}

// Restart begins a new round: all timers are dropped, every actor returns to
// its pool, the ledger and quiz rewind and the scene re-enters Playing with
// freshly rolled spawn delays.
func (s *Scene) Restart() {
	if s.destroyed {
		return
	}

	s.spawner.Stop()
	s.timers.Clear()
	for _, p := range s.pools {
		p.ReleaseAll()
	}
	s.player.reset()

	s.ledger.Reset(s.cfg.Ledger)
	if s.quiz != nil {
		s.quiz.Restart(s.rng)
	}
	s.stats = SceneStats{Frame: s.frame}
	s.advance = timer.Handle{}
	s.waveOpen = false
	s.answersOut = 0
	s.notified = false
	s.fx.clear()

	log.Printf("🔄 Scene %s restarting", s.id)
	s.state = StateInitializing
	s.Start()
}

// Destroy tears the scene down. Every timer is cancelled and every render
// handle destroyed; the scene cannot be used afterwards.
func (s *Scene) Destroy() {
	if s.destroyed {
		return
	}
	s.spawner.Stop()
	s.timers.Clear()
	s.destroyed = true

	for _, p := range s.pools {
		p.Destroy()
	}
	s.playerPool.Destroy()
	for _, lane := range s.lanes {
		s.world.Remove(lane.nest)
	}
	s.fx.clear()
	log.Printf("🗑️ Scene %s destroyed", s.id)
}

// Resize applies a new viewport. Every actor keeps its position relative to
// the playfield; pixel positions, velocities and hit-box sizes are rescaled.
func (s *Scene) Resize(width, height float64) error {
	if s.destroyed {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidDimensions, width, height)
	}

	prev, err := s.mapper.Resize(width, height)
	if err != nil {
		return err
	}
	s.world.Resize(width, height)

	move := func(a *Actor) {
		p := s.mapper.Rescale(prev, layout.Point{X: a.X, Y: a.Y})
		a.VX, a.VY = s.mapper.RescaleVelocity(prev, a.VX, a.VY)
		a.MoveTo(p.X, p.Y)
	}
	s.playerPool.Rescale()
	s.playerPool.ForEachActive(move)
	for _, pool := range s.pools {
		pool.Rescale()
		pool.ForEachActive(move)
	}
	s.placeNests()

	for i := range s.fx.texts {
		p := s.mapper.Rescale(prev, layout.Point{X: s.fx.texts[i].X, Y: s.fx.texts[i].Y})
		s.fx.texts[i].X, s.fx.texts[i].Y = p.X, p.Y
	}
	for i := range s.fx.flashes {
		p := s.mapper.Rescale(prev, layout.Point{X: s.fx.flashes[i].X, Y: s.fx.flashes[i].Y})
		s.fx.flashes[i].X, s.fx.flashes[i].Y = p.X, p.Y
	}
	return nil
}

func (s *Scene) emit(kind EventType, payload interface{}) {
	s.events.EmitSimple(kind, s.frame, s.id, payload)
}

// ID returns the container id the scene is mounted into
func (s *Scene) ID() string { return s.id }

// Mode returns the game mode
func (s *Scene) Mode() Mode { return s.cfg.Mode }

// Config returns the scene's tuning
func (s *Scene) Config() Config { return s.cfg }

// State returns the level state
func (s *Scene) State() State { return s.state }

// Destroyed reports whether the scene was torn down
func (s *Scene) Destroyed() bool { return s.destroyed }

// Ledger returns the score/energy ledger
func (s *Scene) Ledger() *Ledger { return s.ledger }

// Player returns the player
func (s *Scene) Player() *Player { return s.player }

// Lanes returns the lanes of a lane game, nil for an arena
func (s *Scene) Lanes() []*Lane { return s.lanes }

// Quiz returns the active quiz, nil when quiz play is off
func (s *Scene) Quiz() *Quiz { return s.quiz }

// Layout returns the current resolved layout
func (s *Scene) Layout() layout.Layout { return s.mapper.Layout() }

// Stats returns the round counters
func (s *Scene) Stats() SceneStats { return s.stats }

// Now returns the scene's simulated time
func (s *Scene) Now() time.Duration { return s.timers.Now() }
