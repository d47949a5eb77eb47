package game

import (
	"sync"
	"time"

	"edu-arcade/internal/game/ranking"
)

// Leaderboard keeps the best finished round per player for one mode.
//
// Operations:
//   - Submit: O(log n)
//   - Rank: O(log n)
//   - Top: O(log n + k)
type Leaderboard struct {
	list *ranking.SkipList

	mu      sync.RWMutex
	details map[string]LeaderboardEntry
}

// LeaderboardEntry is a player's best round
type LeaderboardEntry struct {
	Player   string    `json:"player"`
	Score    int       `json:"score"`
	Kills    int       `json:"kills"`
	Mistakes int       `json:"mistakes"`
	Outcome  string    `json:"outcome"`
	At       time.Time `json:"at"`
	Rank     int       `json:"rank"`
}

// NewLeaderboard creates an empty leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		list:    ranking.NewSkipList(time.Now().UnixNano()),
		details: make(map[string]LeaderboardEntry),
	}
}

// Submit records a finished round. Only an improvement replaces the stored
// one; it reports whether the round is the player's new best.
func (lb *Leaderboard) Submit(player string, ev GameOver) bool {
	if player == "" {
		return false
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if prev, ok := lb.details[player]; ok && prev.Score >= ev.FinalScore {
		return false
	}
	lb.details[player] = LeaderboardEntry{
		Player:   player,
		Score:    ev.FinalScore,
		Kills:    ev.Kills,
		Mistakes: len(ev.Mistakes),
		Outcome:  ev.Outcome,
		At:       time.Now(),
	}
	lb.list.Set(player, float64(ev.FinalScore))
	return true
}

// Remove forgets a player
func (lb *Leaderboard) Remove(player string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	delete(lb.details, player)
	lb.list.Remove(player)
}

// Rank returns a player's 1-indexed rank, 0 if unknown
func (lb *Leaderboard) Rank(player string) int {
	return lb.list.Rank(player)
}

// Top returns the n best players
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	return lb.Range(1, n)
}

// Range returns players ranked start..end (1-indexed, inclusive)
func (lb *Leaderboard) Range(start, end int) []LeaderboardEntry {
	if start < 1 {
		start = 1
	}
	entries := lb.list.Range(start, end)

	lb.mu.RLock()
	defer lb.mu.RUnlock()

	out := make([]LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		d, ok := lb.details[e.Key]
		if !ok {
			continue
		}
		d.Rank = start + i
		out = append(out, d)
	}
	return out
}

// Around returns a player with up to above/below neighbours
func (lb *Leaderboard) Around(player string, above, below int) []LeaderboardEntry {
	rank := lb.list.Rank(player)
	if rank == 0 {
		return nil
	}
	start := rank - above
	if start < 1 {
		start = 1
	}
	return lb.Range(start, rank+below)
}

// Len returns the number of ranked players
func (lb *Leaderboard) Len() int {
	return lb.list.Len()
}

// Clear removes every player
func (lb *Leaderboard) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.details = make(map[string]LeaderboardEntry)
	lb.list.Clear()
}
