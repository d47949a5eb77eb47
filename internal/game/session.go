package game

import (
	"errors"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrInputQueueFull   = errors.New("input queue full")
	ErrInputRateLimited = errors.New("input rate limited")
	ErrSessionStopped   = errors.New("session stopped")
)

// notifyQueue bounds host notifications waiting for delivery
const notifyQueue = 16

// Session runs one scene on its own ticker. All scene access goes through
// the session mutex; readers get snapshots from the triple buffer.
type Session struct {
	mu    sync.Mutex
	id    string
	scene *Scene

	tickRate  int
	limits    ResourceLimits
	snapshots *SnapshotPool

	inputs  chan Command
	limiter *rate.Limiter

	listener HostListener
	notify   chan func()

	created  time.Time
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	onStop   func()
	panics   int
}

func newSession(id string, cfg EngineConfig, limits ResourceLimits, listener HostListener) *Session {
	return &Session{
		id:        id,
		tickRate:  cfg.TickRate,
		limits:    limits,
		snapshots: NewSnapshotPool(limits),
		inputs:    make(chan Command, cfg.InputQueue),
		limiter:   rate.NewLimiter(rate.Limit(cfg.InputRate), cfg.InputBurst),
		listener:  listener,
		notify:    make(chan func(), notifyQueue),
		created:   time.Now(),
		stopChan:  make(chan struct{}),
	}
}

// start enters Playing and launches the tick loop
func (s *Session) start() {
	s.mu.Lock()
	s.scene.Start()
	s.publish()
	s.running = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.notifyLoop()
	go s.loop()
}

func (s *Session) loop() {
	defer s.wg.Done()

	interval := tickInterval(s.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			// A stalled host must not turn into one huge physics step
			if dt > 4*interval {
				dt = 4 * interval
			}
			s.Step(dt)
		}
	}
}

// Step drains queued input and advances the scene by dt. The tick loop calls
// it; tests call it directly for deterministic frames.
func (s *Session) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.panics++
			log.Printf("❌ Game %s tick panic (frame %d): %v\n%s", s.id, s.scene.frame, r, debug.Stack())
		}
	}()

	if s.scene.Destroyed() {
		return
	}
drain:
	for {
		select {
		case cmd := <-s.inputs:
			s.scene.Apply(cmd)
		default:
			break drain
		}
	}
	s.scene.Tick(dt)
	s.publish()
}

// publish writes the scene into the next snapshot slot. Caller holds mu.
func (s *Session) publish() {
	snap := s.snapshots.AcquireWrite()
	s.scene.WriteSnapshot(snap, s.limits)
	s.snapshots.PublishWrite()
}

// Input queues a command for the next tick
func (s *Session) Input(cmd Command) error {
	select {
	case <-s.stopChan:
		return ErrSessionStopped
	default:
	}
	if !s.limiter.Allow() {
		return ErrInputRateLimited
	}
	select {
	case s.inputs <- cmd:
		return nil
	default:
		return ErrInputQueueFull
	}
}

// Resize applies new container dimensions
func (s *Session) Resize(width, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.Resize(width, height); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Restart begins a fresh round in the same container
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Restart()
	s.publish()
}

// Snapshot returns a copy of the latest published frame
func (s *Session) Snapshot() GameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots.AcquireRead().Clone()
}

// WithScene runs fn with exclusive access to the scene
func (s *Session) WithScene(fn func(*Scene)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.scene)
	s.publish()
}

// ID returns the container id
func (s *Session) ID() string { return s.id }

// Created returns when the game was mounted
func (s *Session) Created() time.Time { return s.created }

// State returns the scene state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.State()
}

// Stats returns the scene counters
func (s *Session) Stats() SceneStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Stats()
}

// Panics returns how many ticks were aborted by a recovered panic
func (s *Session) Panics() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panics
}

// SceneReady queues the notification for delivery outside the tick lock
func (s *Session) SceneReady(ev SceneReady) {
	s.deliver(func() { s.listener.SceneReady(ev) })
}

// GameOver queues the notification for delivery outside the tick lock
func (s *Session) GameOver(ev GameOver) {
	s.deliver(func() { s.listener.GameOver(ev) })
}

func (s *Session) deliver(fn func()) {
	select {
	case s.notify <- fn:
	default:
		log.Printf("⚠️ Game %s notification queue full, dropping", s.id)
	}
}

func (s *Session) notifyLoop() {
	defer s.wg.Done()
	for {
		select {
		case fn := <-s.notify:
			s.safeCall(fn)
		case <-s.stopChan:
			// deliver whatever was queued before the stop
			for {
				select {
				case fn := <-s.notify:
					s.safeCall(fn)
				default:
					return
				}
			}
		}
	}
}

func (s *Session) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Game %s listener panic: %v", s.id, r)
		}
	}()
	fn()
}

// stop halts the tick loop and destroys the scene
func (s *Session) stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		s.mu.Lock()
		s.running = false
		s.scene.Destroy()
		s.publish()
		s.mu.Unlock()

		if s.onStop != nil {
			s.onStop()
		}
	})
}

// Running reports whether the tick loop is alive
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
