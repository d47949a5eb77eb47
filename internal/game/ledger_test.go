package game

import "testing"

// TestLedgerSingleGameOver verifies energy 10, remove 20, then remove 5 yields one game over
func TestLedgerSingleGameOver(t *testing.T) {
	l := NewLedger(LedgerConfig{MaxEnergy: 100, StartEnergy: 10, Lives: 1})

	if got := l.RemoveEnergy(20); got != DepletionGameOver {
		t.Fatalf("Expected game over, got %s", got)
	}
	if l.Energy() != 0 {
		t.Errorf("Expected energy clamped to 0, got %d", l.Energy())
	}

	l.BeginFrame(1)
	if got := l.RemoveEnergy(5); got != DepletionNone {
		t.Errorf("Expected no further transition, got %s", got)
	}
	if l.Energy() != 0 {
		t.Errorf("Expected energy to stay 0, got %d", l.Energy())
	}
	if !l.Terminal() {
		t.Error("Ledger should be terminal")
	}
}

// TestLedgerLifeLostRefills verifies losing a life refills energy
func TestLedgerLifeLostRefills(t *testing.T) {
	l := NewLedger(LedgerConfig{MaxEnergy: 100, StartEnergy: 30, Lives: 2})

	if got := l.RemoveEnergy(50); got != DepletionLifeLost {
		t.Fatalf("Expected life lost, got %s", got)
	}
	if l.Lives() != 1 {
		t.Errorf("Expected 1 life left, got %d", l.Lives())
	}
	if l.Energy() != 100 {
		t.Errorf("Expected refilled energy 100, got %d", l.Energy())
	}
}

// TestLedgerFrameGuard verifies a second depletion in the same frame is ignored
func TestLedgerFrameGuard(t *testing.T) {
	l := NewLedger(LedgerConfig{MaxEnergy: 20, StartEnergy: 20, Lives: 3})
	l.BeginFrame(7)

	if got := l.RemoveEnergy(20); got != DepletionLifeLost {
		t.Fatalf("Expected life lost, got %s", got)
	}
	if got := l.RemoveEnergy(20); got != DepletionNone {
		t.Errorf("Same-frame depletion should be ignored, got %s", got)
	}
	if got := l.RemoveEnergy(5); got != DepletionNone {
		t.Errorf("Same-frame damage should be dropped, got %s", got)
	}
	if l.Lives() != 2 || l.Energy() != 20 {
		t.Errorf("Expected 2 lives and full energy, got %d lives %d energy", l.Lives(), l.Energy())
	}

	l.BeginFrame(8)
	if got := l.RemoveEnergy(20); got != DepletionLifeLost {
		t.Errorf("Next frame should deplete again, got %s", got)
	}
}

// TestLedgerScoreFloor verifies score display never drops below zero
func TestLedgerScoreFloor(t *testing.T) {
	tests := []struct {
		name    string
		deltas  []int
		raw     int
		display int
	}{
		{"positive", []int{10, 5}, 15, 15},
		{"negative", []int{5, -20}, -15, 0},
		{"recovers", []int{-10, 25}, 15, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(LedgerConfig{MaxEnergy: 100, Lives: 1})
			for _, d := range tt.deltas {
				l.AddScore(d)
			}
			if l.Score() != tt.raw {
				t.Errorf("Expected raw %d, got %d", tt.raw, l.Score())
			}
			if l.DisplayScore() != tt.display {
				t.Errorf("Expected display %d, got %d", tt.display, l.DisplayScore())
			}
		})
	}
}

// TestLedgerTerminalIgnoresMutation verifies a sealed ledger ignores every change
func TestLedgerTerminalIgnoresMutation(t *testing.T) {
	l := NewLedger(LedgerConfig{MaxEnergy: 100, StartEnergy: 50, Lives: 2})
	l.AddScore(40)
	l.Seal()

	l.AddScore(100)
	l.AddEnergy(10)
	l.AddLife()
	if got := l.RemoveEnergy(100); got != DepletionNone {
		t.Errorf("Expected no depletion, got %s", got)
	}
	if l.Score() != 40 || l.Energy() != 50 || l.Lives() != 2 {
		t.Errorf("Sealed ledger changed: score %d energy %d lives %d", l.Score(), l.Energy(), l.Lives())
	}
}

// TestLedgerAddEnergyClamps verifies pickups cannot exceed max energy
func TestLedgerAddEnergyClamps(t *testing.T) {
	l := NewLedger(LedgerConfig{MaxEnergy: 100, StartEnergy: 90, Lives: 1})
	l.AddEnergy(50)
	if l.Energy() != 100 {
		t.Errorf("Expected 100, got %d", l.Energy())
	}
}
