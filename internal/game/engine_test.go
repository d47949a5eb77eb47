package game

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// slowEngine ticks once a second so tests drive sessions with Step
func slowEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	if cfg.TickRate == 0 {
		cfg.TickRate = 1
	}
	e := NewEngine(cfg, nil, nil)
	t.Cleanup(e.Close)
	return e
}

func seeded() Options {
	return Options{Mode: ModeSnowmen, Seed: 7}
}

// TestNewEngineDefaults verifies zero values fall back to defaults
func TestNewEngineDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      EngineConfig
		wantRate int
	}{
		{"zero config", EngineConfig{}, 60},
		{"custom 30 TPS", EngineConfig{TickRate: 30}, 30},
		{"negative rate", EngineConfig{TickRate: -5}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.cfg, nil, nil)
			defer e.Close()
			if e.TickRate() != tt.wantRate {
				t.Errorf("Expected %d TPS, got %d", tt.wantRate, e.TickRate())
			}
			if e.Leaderboard(ModeSnowmen) == nil || e.Leaderboard(ModeEduSpace) == nil {
				t.Error("Every mode needs a leaderboard")
			}
		})
	}
}

// TestStartGameErrors verifies the sentinel errors of StartGame
func TestStartGameErrors(t *testing.T) {
	e := slowEngine(t, EngineConfig{MaxSessions: 1})

	if _, err := e.StartGame("a", desktop(), seeded()); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		dims    Dimensions
		opts    Options
		wantErr error
	}{
		{"duplicate container", "a", desktop(), seeded(), ErrSessionExists},
		{"session limit", "b", desktop(), seeded(), ErrTooManySessions},
		{"blank container", "  ", desktop(), seeded(), ErrInvalidContainer},
		{"unknown mode", "c", desktop(), Options{Mode: "pong"}, ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.StartGame(tt.id, tt.dims, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestStartGameInvalidDimensions verifies a bad viewport leaves no session behind
func TestStartGameInvalidDimensions(t *testing.T) {
	e := slowEngine(t, EngineConfig{})

	_, err := e.StartGame("a", Dimensions{Width: 0, Height: 100}, seeded())
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("Expected ErrInvalidDimensions, got %v", err)
	}
	if _, err := e.Session("a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Failed start must not register a session, got %v", err)
	}
}

// TestDestroySession verifies destroy removes the game and stops its loop
func TestDestroySession(t *testing.T) {
	e := slowEngine(t, EngineConfig{})
	sess, err := e.StartGame("a", desktop(), seeded())
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	if err := e.Destroy("a"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := e.Destroy("a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if sess.Running() {
		t.Error("Session loop should have stopped")
	}
	if err := sess.Input(Command{Kind: CommandFire}); !errors.Is(err, ErrSessionStopped) {
		t.Errorf("Expected ErrSessionStopped, got %v", err)
	}
	if _, err := e.StartGame("a", desktop(), seeded()); err != nil {
		t.Errorf("Container should be reusable after destroy: %v", err)
	}
}

// TestSessionInputAndSnapshot verifies queued input is applied on the next step
func TestSessionInputAndSnapshot(t *testing.T) {
	e := slowEngine(t, EngineConfig{})
	sess, err := e.StartGame("a", desktop(), seeded())
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	snap := sess.Snapshot()
	if snap.State != "playing" || snap.ContainerID != "a" {
		t.Fatalf("Unexpected initial snapshot %+v", snap)
	}
	if len(snap.Lanes) != 4 {
		t.Errorf("Expected 4 lanes, got %d", len(snap.Lanes))
	}

	if err := sess.Input(Command{Kind: CommandFire}); err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	sess.Step(testFrame)

	found := false
	for _, a := range sess.Snapshot().Actors {
		if a.Category == CategoryPlayerProjectile.String() {
			found = true
		}
	}
	if !found {
		t.Error("Expected the fired projectile in the snapshot")
	}
}

// TestSessionInputLimits verifies the queue bound and the rate limiter
func TestSessionInputLimits(t *testing.T) {
	t.Run("queue full", func(t *testing.T) {
		e := slowEngine(t, EngineConfig{InputQueue: 1, InputRate: 100, InputBurst: 10})
		sess, _ := e.StartGame("a", desktop(), seeded())

		if err := sess.Input(Command{Kind: CommandLaneDown}); err != nil {
			t.Fatalf("First input failed: %v", err)
		}
		if err := sess.Input(Command{Kind: CommandLaneDown}); !errors.Is(err, ErrInputQueueFull) {
			t.Errorf("Expected ErrInputQueueFull, got %v", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		e := slowEngine(t, EngineConfig{InputQueue: 10, InputRate: 0.1, InputBurst: 2})
		sess, _ := e.StartGame("a", desktop(), seeded())

		for i := 0; i < 2; i++ {
			if err := sess.Input(Command{Kind: CommandFire}); err != nil {
				t.Fatalf("Input %d failed: %v", i, err)
			}
		}
		if err := sess.Input(Command{Kind: CommandFire}); !errors.Is(err, ErrInputRateLimited) {
			t.Errorf("Expected ErrInputRateLimited, got %v", err)
		}
	})
}

// TestSessionResize verifies resize validation through the session
func TestSessionResize(t *testing.T) {
	e := slowEngine(t, EngineConfig{})
	sess, _ := e.StartGame("a", desktop(), seeded())

	if err := sess.Resize(600, 800); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	snap := sess.Snapshot()
	if snap.Width != 600 || snap.Breakpoint != "mobile" {
		t.Errorf("Snapshot not updated: %vx%v %s", snap.Width, snap.Height, snap.Breakpoint)
	}
	if err := sess.Resize(-1, 800); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

// TestListenersAndLeaderboard verifies notifications reach every listener and
// finished rounds are ranked
func TestListenersAndLeaderboard(t *testing.T) {
	e := slowEngine(t, EngineConfig{})

	var mu sync.Mutex
	var engineOver []GameOver
	e.SetListener(ListenerFuncs{OnGameOver: func(ev GameOver) {
		mu.Lock()
		engineOver = append(engineOver, ev)
		mu.Unlock()
	}})

	ready := make(chan SceneReady, 1)
	over := make(chan GameOver, 1)
	cfg := testConfig(ModeSnowmen)
	cfg.Ledger = LedgerConfig{MaxEnergy: 100, StartEnergy: 10, Lives: 1}
	sess, err := e.StartGame("a", desktop(), Options{
		Mode:     ModeSnowmen,
		Config:   &cfg,
		Player:   "ada",
		Listener: ListenerFuncs{OnReady: func(ev SceneReady) { ready <- ev }, OnGameOver: func(ev GameOver) { over <- ev }},
	})
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	select {
	case ev := <-ready:
		if ev.ContainerID != "a" {
			t.Errorf("Unexpected ready %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SceneReady never delivered")
	}

	sess.WithScene(func(s *Scene) {
		s.ledger.AddScore(30)
		s.hitPlayer(0, "test", 20)
	})

	select {
	case ev := <-over:
		if ev.Outcome != "game_over" || ev.FinalScore != 30 {
			t.Errorf("Unexpected game over %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("GameOver never delivered")
	}

	board := e.Leaderboard(ModeSnowmen)
	deadline := time.Now().Add(2 * time.Second)
	for board.Rank("ada") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if board.Rank("ada") != 1 {
		t.Errorf("Expected ada ranked first, got %d", board.Rank("ada"))
	}

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(engineOver)
	}
	for count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if count() != 1 {
		t.Errorf("Engine listener expected 1 game over, got %d", count())
	}
}

// TestEngineStats verifies counts by state
func TestEngineStats(t *testing.T) {
	e := slowEngine(t, EngineConfig{})
	e.StartGame("b", desktop(), seeded())
	e.StartGame("a", desktop(), seeded())

	st := e.Stats()
	if st.Sessions != 2 || st.ByState["playing"] != 2 {
		t.Errorf("Unexpected stats %+v", st)
	}
	sessions := e.Sessions()
	if len(sessions) != 2 || sessions[0].ID() != "a" {
		t.Errorf("Sessions should be ordered by id")
	}
}

// TestEngineClose verifies close stops every session and refuses new ones
func TestEngineClose(t *testing.T) {
	e := NewEngine(EngineConfig{TickRate: 120}, nil, nil)
	s1, _ := e.StartGame("a", desktop(), seeded())
	s2, _ := e.StartGame("b", desktop(), seeded())

	time.Sleep(50 * time.Millisecond)
	e.Close()
	e.Close()

	if s1.Running() || s2.Running() {
		t.Error("Sessions should stop on close")
	}
	if len(e.Sessions()) != 0 {
		t.Error("Closed engine should hold no sessions")
	}
	if _, err := e.StartGame("c", desktop(), seeded()); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Expected ErrEngineClosed, got %v", err)
	}
}

// TestSessionRecoversPanic verifies a panicking tick does not kill the loop
func TestSessionRecoversPanic(t *testing.T) {
	e := slowEngine(t, EngineConfig{})
	sess, _ := e.StartGame("a", desktop(), seeded())

	sess.WithScene(func(s *Scene) {
		s.sceneTimers.After(0, func() { panic("boom") })
	})
	sess.Step(testFrame)

	if sess.Panics() != 1 {
		t.Errorf("Expected 1 recovered panic, got %d", sess.Panics())
	}
	sess.Step(testFrame)
	if sess.State() != StatePlaying {
		t.Errorf("Session should keep playing, got %s", sess.State())
	}
}

// TestSessionsTickConcurrently verifies many sessions run side by side
func TestSessionsTickConcurrently(t *testing.T) {
	e := NewEngine(EngineConfig{TickRate: 120, MaxSessions: 16}, nil, nil)
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		sess, err := e.StartGame(id, desktop(), Options{Mode: ModeSnowmen, Seed: int64(i + 1)})
		if err != nil {
			t.Fatalf("StartGame %s failed: %v", id, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				sess.Input(Command{Kind: CommandLaneDown})
				sess.Snapshot()
				time.Sleep(2 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	for _, s := range e.Sessions() {
		if s.Snapshot().Frame == 0 {
			t.Errorf("Session %s never ticked", s.ID())
		}
	}
}
