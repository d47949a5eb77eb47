package game

import (
	"math/rand"
	"time"

	"edu-arcade/internal/game/timer"
)

// Spawner fires on a randomized interval, re-rolled every cycle, and spawns
// while the population is under its cap.
type Spawner struct {
	name     string
	timers   *timer.Scheduler
	rng      *rand.Rand
	min, max time.Duration
	cap      int
	active   func() int
	spawn    func() bool

	handle  timer.Handle
	running bool

	spawned int
	skipped int
}

// SpawnerConfig wires a spawner to its population and spawn action
type SpawnerConfig struct {
	Name          string
	MinDelay      time.Duration
	MaxDelay      time.Duration
	MaxConcurrent int
	// Active returns the current population
	Active func() int
	// Spawn places one actor and reports whether it succeeded
	Spawn func() bool
}

// NewSpawner creates a stopped spawner
func NewSpawner(cfg SpawnerConfig, timers *timer.Scheduler, rng *rand.Rand) *Spawner {
	return &Spawner{
		name:   cfg.Name,
		timers: timers,
		rng:    rng,
		min:    cfg.MinDelay,
		max:    cfg.MaxDelay,
		cap:    cfg.MaxConcurrent,
		active: cfg.Active,
		spawn:  cfg.Spawn,
	}
}

// Start schedules the loop with a freshly rolled first delay
func (s *Spawner) Start() {
	if s.running {
		return
	}
	s.running = true
	s.handle = s.timers.Every(s.nextDelay, s.fire)
}

// Stop removes the timer
func (s *Spawner) Stop() {
	s.handle.Stop()
	s.handle = timer.Handle{}
	s.running = false
}

// Restart drops any pending delay and starts over with a fresh one
func (s *Spawner) Restart() {
	s.Stop()
	s.Start()
}

// Running reports whether the loop is scheduled
func (s *Spawner) Running() bool {
	return s.running && s.handle.Active()
}

// NextIn returns the time until the next attempt, 0 when stopped
func (s *Spawner) NextIn() time.Duration {
	return s.handle.Remaining()
}

// Spawned returns how many spawns succeeded
func (s *Spawner) Spawned() int {
	return s.spawned
}

func (s *Spawner) nextDelay() time.Duration {
	return uniformDelay(s.rng, s.min, s.max)
}

func (s *Spawner) fire() {
	if s.active() >= s.cap {
		s.skipped++
		return
	}
	if s.spawn() {
		s.spawned++
	} else {
		s.skipped++
	}
}
