package game

import (
	"math/rand"
	"testing"
	"time"

	"edu-arcade/internal/game/timer"
)

// TestSpawnerCap verifies spawns stop at the population cap
func TestSpawnerCap(t *testing.T) {
	timers := timer.NewScheduler()
	population := 0
	s := NewSpawner(SpawnerConfig{
		Name:          "test",
		MinDelay:      time.Second,
		MaxDelay:      2 * time.Second,
		MaxConcurrent: 3,
		Active:        func() int { return population },
		Spawn: func() bool {
			population++
			return true
		},
	}, timers, rand.New(rand.NewSource(3)))

	s.Start()
	for i := 0; i < 20; i++ {
		timers.Advance(time.Second)
	}
	if population != 3 {
		t.Errorf("Expected population capped at 3, got %d", population)
	}
	if s.Spawned() != 3 {
		t.Errorf("Expected 3 spawns, got %d", s.Spawned())
	}

	population = 1
	timers.Advance(2 * time.Second)
	if population < 2 {
		t.Errorf("Expected a refill once below the cap, got %d", population)
	}
}

// TestSpawnerDelays verifies every delay is re-rolled inside the window
func TestSpawnerDelays(t *testing.T) {
	timers := timer.NewScheduler()
	var at []time.Duration
	s := NewSpawner(SpawnerConfig{
		MinDelay:      time.Second,
		MaxDelay:      3 * time.Second,
		MaxConcurrent: 100,
		Active:        func() int { return 0 },
		Spawn: func() bool {
			at = append(at, timers.Now())
			return true
		},
	}, timers, rand.New(rand.NewSource(9)))

	s.Start()
	timers.Advance(time.Minute)

	if len(at) < 20 {
		t.Fatalf("Expected at least 20 spawns in a minute, got %d", len(at))
	}
	prev := time.Duration(0)
	distinct := make(map[time.Duration]bool)
	for _, now := range at {
		gap := now - prev
		if gap < time.Second || gap > 3*time.Second {
			t.Errorf("Gap %v outside the window", gap)
		}
		distinct[gap] = true
		prev = now
	}
	if len(distinct) < 2 {
		t.Error("Delays should be re-rolled every cycle")
	}
}

// TestSpawnerStopRestart verifies stop removes the timer and restart re-rolls
func TestSpawnerStopRestart(t *testing.T) {
	timers := timer.NewScheduler()
	spawns := 0
	s := NewSpawner(SpawnerConfig{
		MinDelay:      time.Second,
		MaxDelay:      time.Second,
		MaxConcurrent: 10,
		Active:        func() int { return 0 },
		Spawn: func() bool {
			spawns++
			return true
		},
	}, timers, rand.New(rand.NewSource(1)))

	s.Start()
	timers.Advance(500 * time.Millisecond)
	s.Stop()
	if s.Running() || timers.Pending() != 0 {
		t.Fatal("Stop should remove the timer")
	}
	timers.Advance(5 * time.Second)
	if spawns != 0 {
		t.Errorf("Stopped spawner spawned %d times", spawns)
	}

	s.Restart()
	if s.NextIn() != time.Second {
		t.Errorf("Expected a fresh full delay, got %v", s.NextIn())
	}
	timers.Advance(time.Second)
	if spawns != 1 {
		t.Errorf("Expected 1 spawn after restart, got %d", spawns)
	}
}
