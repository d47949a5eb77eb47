package game

import "testing"

// TestLeaderboardKeepsBest verifies only improvements replace a player's round
func TestLeaderboardKeepsBest(t *testing.T) {
	lb := NewLeaderboard()

	if !lb.Submit("ada", GameOver{FinalScore: 50, Outcome: "game_over"}) {
		t.Fatal("First round should be recorded")
	}
	if lb.Submit("ada", GameOver{FinalScore: 20}) {
		t.Error("A worse round must not replace the best")
	}
	if !lb.Submit("ada", GameOver{FinalScore: 80, Outcome: "level_complete", Mistakes: []Mistake{{Prompt: "2x3"}}}) {
		t.Error("A better round should replace the best")
	}
	if lb.Submit("", GameOver{FinalScore: 100}) {
		t.Error("Anonymous rounds are not ranked")
	}

	top := lb.Top(1)
	if len(top) != 1 || top[0].Score != 80 || top[0].Mistakes != 1 || top[0].Rank != 1 {
		t.Errorf("Unexpected top entry %+v", top)
	}
	if lb.Len() != 1 {
		t.Errorf("Expected 1 player, got %d", lb.Len())
	}
}

// TestLeaderboardRanking verifies ordering, ranks and neighbourhoods
func TestLeaderboardRanking(t *testing.T) {
	lb := NewLeaderboard()
	scores := map[string]int{"a": 10, "b": 40, "c": 30, "d": 20, "e": 50}
	for p, s := range scores {
		lb.Submit(p, GameOver{FinalScore: s})
	}

	tests := []struct {
		player string
		rank   int
	}{
		{"e", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"a", 5}, {"nobody", 0},
	}
	for _, tt := range tests {
		t.Run(tt.player, func(t *testing.T) {
			if got := lb.Rank(tt.player); got != tt.rank {
				t.Errorf("Rank(%s) = %d, want %d", tt.player, got, tt.rank)
			}
		})
	}

	around := lb.Around("c", 1, 1)
	if len(around) != 3 || around[0].Player != "b" || around[2].Player != "d" {
		t.Errorf("Unexpected neighbourhood %+v", around)
	}

	lb.Remove("e")
	if lb.Rank("b") != 1 {
		t.Errorf("Expected b first after removal, got %d", lb.Rank("b"))
	}
	lb.Clear()
	if lb.Len() != 0 || len(lb.Top(3)) != 0 {
		t.Error("Clear should empty the board")
	}
}
