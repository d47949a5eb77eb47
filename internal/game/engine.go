package game

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrSessionExists    = errors.New("a game is already mounted in this container")
	ErrSessionNotFound  = errors.New("no game is mounted in this container")
	ErrTooManySessions  = errors.New("session limit reached")
	ErrEngineClosed     = errors.New("engine is closed")
	ErrInvalidContainer = errors.New("container id is required")
)

// EngineConfig sizes the engine
type EngineConfig struct {
	TickRate    int // simulation ticks per second for every session
	MaxSessions int

	// Tuning returns the base config for a mode. Nil uses DefaultConfig.
	Tuning func(Mode) Config
	// Questions is the bank handed to arena quiz games that bring none.
	Questions []Question
	// Backend is used by games started without their own. Nil renders nothing.
	Backend Backend

	InputQueue int     // buffered commands per session
	InputRate  float64 // commands per second per session
	InputBurst int
}

// DefaultEngineConfig returns production defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:    60,
		MaxSessions: 64,
		InputQueue:  64,
		InputRate:   30,
		InputBurst:  10,
	}
}

// Options are the per-game choices of StartGame
type Options struct {
	Mode Mode
	// Config replaces the engine tuning for this game entirely
	Config *Config
	// Quiz turns quiz play on or off; nil keeps the mode default
	Quiz      *bool
	Table     int
	Seed      int64
	Questions []Question
	// Player names the round on the leaderboard; empty uses the container id
	Player string

	Backend  Backend
	Listener HostListener
}

// Engine hosts one Session per container id. Each session owns a scene and
// the goroutine that ticks it.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      EngineConfig
	events   *EventLog
	observer Observer
	limits   ResourceLimits
	listener HostListener
	closed   bool

	boards map[Mode]*Leaderboard
}

// NewEngine creates an engine. events and observer may be nil.
func NewEngine(cfg EngineConfig, events *EventLog, observer Observer) *Engine {
	def := DefaultEngineConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.InputQueue <= 0 {
		cfg.InputQueue = def.InputQueue
	}
	if cfg.InputRate <= 0 {
		cfg.InputRate = def.InputRate
	}
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = def.InputBurst
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Engine{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		events:   events,
		observer: observer,
		limits:   DefaultLimits,
		boards:   map[Mode]*Leaderboard{
			ModeSnowmen:  NewLeaderboard(),
			ModeEduSpace: NewLeaderboard(),
		},
	}
}

// Leaderboard returns the best rounds of a mode
func (e *Engine) Leaderboard(mode Mode) *Leaderboard {
	return e.boards[mode]
}

// SetListener installs an engine-wide host listener that receives the
// notifications of every session, in addition to each game's own listener.
func (e *Engine) SetListener(l HostListener) {
	e.mu.Lock()
	e.listener = l
	e.mu.Unlock()
}

// TickRate returns the simulation rate
func (e *Engine) TickRate() int {
	return e.cfg.TickRate
}

// configFor resolves the tuning of one game
func (e *Engine) configFor(opts Options) (Config, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeSnowmen
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Config{}, err
	}

	var cfg Config
	switch {
	case opts.Config != nil:
		cfg = *opts.Config
	case e.cfg.Tuning != nil:
		cfg = e.cfg.Tuning(mode)
	default:
		cfg = DefaultConfig(mode)
	}
	cfg.Mode = mode
	if opts.Quiz != nil {
		cfg.Quiz.Enabled = *opts.Quiz
	}
	if opts.Table > 0 {
		cfg.Quiz.Table = opts.Table
	}
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}
	return cfg, nil
}

// StartGame mounts a new game into a container and starts ticking it
func (e *Engine) StartGame(containerID string, dims Dimensions, opts Options) (*Session, error) {
	containerID = strings.TrimSpace(containerID)
	if containerID == "" {
		return nil, ErrInvalidContainer
	}
	cfg, err := e.configFor(opts)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if _, exists := e.sessions[containerID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, containerID)
	}
	if len(e.sessions) >= e.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	questions := opts.Questions
	if len(questions) == 0 && cfg.Mode == ModeEduSpace {
		questions = e.cfg.Questions
	}

	player := strings.TrimSpace(opts.Player)
	if player == "" {
		player = containerID
	}
	board := e.boards[cfg.Mode]
	record := ListenerFuncs{OnGameOver: func(ev GameOver) {
		if board.Submit(player, ev) {
			log.Printf("🏆 %s set a new %s best: %d", player, cfg.Mode, ev.FinalScore)
		}
	}}

	backend := opts.Backend
	if backend == nil {
		backend = e.cfg.Backend
	}

	sess := newSession(containerID, e.cfg, e.limits, fanout{record, opts.Listener, e.listener})
	scene, err := NewScene(cfg, dims, SceneDeps{
		ContainerID: containerID,
		Backend:     backend,
		Listener:    sess,
		Questions:   questions,
		Events:      e.events,
		Observer:    e.observer,
	})
	if err != nil {
		return nil, err
	}
	sess.scene = scene
	sess.onStop = func() { e.remove(containerID, sess) }

	e.sessions[containerID] = sess
	e.observer.ObserveSessions(len(e.sessions))
	log.Printf("🎮 Game %s started (%s, %.0fx%.0f, %d TPS)", containerID, cfg.Mode, dims.Width, dims.Height, e.cfg.TickRate)

	sess.start()
	return sess, nil
}

// Destroy tears down the game mounted in a container
func (e *Engine) Destroy(containerID string) error {
	e.mu.Lock()
	sess, ok := e.sessions[containerID]
	if ok {
		delete(e.sessions, containerID)
		e.observer.ObserveSessions(len(e.sessions))
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, containerID)
	}
	sess.stop()
	e.events.Forget(containerID)
	return nil
}

func (e *Engine) remove(containerID string, sess *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[containerID] == sess {
		delete(e.sessions, containerID)
		e.observer.ObserveSessions(len(e.sessions))
	}
}

// Session returns the game mounted in a container
func (e *Engine) Session(containerID string) (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sess, ok := e.sessions[containerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, containerID)
	}
	return sess, nil
}

// Sessions returns every live session ordered by container id
func (e *Engine) Sessions() []*Session {
	e.mu.RLock()
	out := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// EngineStats summarizes the engine for the stats endpoint
type EngineStats struct {
	Sessions    int                    `json:"sessions"`
	MaxSessions int                    `json:"maxSessions"`
	TickRate    int                    `json:"tickRate"`
	ByState     map[string]int         `json:"byState"`
	EventLog    map[string]interface{} `json:"eventLog,omitempty"`
}

// Stats returns session counts by state
func (e *Engine) Stats() EngineStats {
	sessions := e.Sessions()
	st := EngineStats{
		Sessions:    len(sessions),
		MaxSessions: e.cfg.MaxSessions,
		TickRate:    e.cfg.TickRate,
		ByState:     make(map[string]int),
	}
	for _, s := range sessions {
		st.ByState[s.State().String()]++
	}
	if e.events != nil {
		st.EventLog = e.events.GetStats()
	}
	return st
}

// Events returns the shared event log (may be nil)
func (e *Engine) Events() *EventLog {
	return e.events
}

// Close destroys every session and refuses new ones
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	sessions := e.sessions
	e.sessions = make(map[string]*Session)
	e.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
	e.observer.ObserveSessions(0)
	log.Printf("🛑 Engine closed (%d games stopped)", len(sessions))
}

// fanout delivers host notifications to several listeners, skipping nil ones
type fanout []HostListener

func (f fanout) SceneReady(ev SceneReady) {
	for _, l := range f {
		if l != nil {
			l.SceneReady(ev)
		}
	}
}

func (f fanout) GameOver(ev GameOver) {
	for _, l := range f {
		if l != nil {
			l.GameOver(ev)
		}
	}
}

// tickInterval converts a tick rate into a ticker period
func tickInterval(rate int) time.Duration {
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}
