package game

import (
	"fmt"
	"testing"
	"time"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// SCENE TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkSceneTick_Snowmen(b *testing.B)  { benchmarkSceneTick(b, ModeSnowmen) }
func BenchmarkSceneTick_EduSpace(b *testing.B) { benchmarkSceneTick(b, ModeEduSpace) }

func benchmarkSceneTick(b *testing.B, mode Mode) {
	cfg := testConfig(mode)
	cfg.Ledger.Lives = 1 << 20
	cfg.Spawn.MinDelay = 50 * time.Millisecond
	cfg.Spawn.MaxDelay = 100 * time.Millisecond
	cfg.PlayerShot.Cooldown = 0

	s, err := NewScene(cfg, desktop(), SceneDeps{ContainerID: "bench", Questions: additionQuestions()})
	if err != nil {
		b.Fatalf("NewScene failed: %v", err)
	}
	defer s.Destroy()
	s.Start()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if i%4 == 0 {
			s.Apply(Command{Kind: CommandFire})
		}
		s.Tick(testFrame)
		if s.State() != StatePlaying {
			s.Restart()
		}
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT GENERATION BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkWriteSnapshot(b *testing.B) {
	s := newTestScene(b, testConfig(ModeSnowmen), desktop(), SceneDeps{})
	for i := range s.lanes {
		s.spawnInLane(i)
	}
	pool := NewSnapshotPool(DefaultLimits)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		snap := pool.AcquireWrite()
		s.WriteSnapshot(snap, pool.GetLimits())
		pool.PublishWrite()
	}
}

// -----------------------------------------------------------------------------
// POOL BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkPoolAcquireRelease_8(b *testing.B)   { benchmarkPool(b, 8) }
func BenchmarkPoolAcquireRelease_64(b *testing.B)  { benchmarkPool(b, 64) }
func BenchmarkPoolAcquireRelease_256(b *testing.B) { benchmarkPool(b, 256) }

func benchmarkPool(b *testing.B, capacity int) {
	p, _ := newTestPool(capacity, 0)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		a := p.Acquire()
		a.Spawn(1, 1, 0, 0)
		a.MarkRelease()
		p.Flush()
	}
}

// -----------------------------------------------------------------------------
// LEADERBOARD BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkLeaderboardSubmit(b *testing.B) {
	lb := NewLeaderboard()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		lb.Submit(fmt.Sprintf("p%d", i%1000), GameOver{FinalScore: i})
	}
}
