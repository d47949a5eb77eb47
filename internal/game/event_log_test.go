package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestEventLogEmitRequiresStart verifies a stopped or nil log refuses events
func TestEventLogEmitRequiresStart(t *testing.T) {
	var nilLog *EventLog
	if nilLog.EmitSimple(EventTypeSpawn, 1, "g", nil) {
		t.Error("A nil log must refuse events")
	}

	el := NewEventLog()
	if el.EmitSimple(EventTypeSpawn, 1, "g", nil) {
		t.Error("A log that was never started must refuse events")
	}
}

// TestEventLogRecent verifies per-game filtering and ordering
func TestEventLogRecent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	el.EmitSimple(EventTypeSpawn, 1, "a", SpawnPayload{ActorID: 1})
	el.EmitSimple(EventTypeKill, 2, "b", KillPayload{EnemyID: 1})
	el.EmitSimple(EventTypeNestHit, 3, "a", NestHitPayload{Lane: 2})

	got := el.Recent("a", 10)
	if len(got) != 2 {
		t.Fatalf("Expected 2 events for game a, got %d", len(got))
	}
	if got[0].Type != EventTypeSpawn || got[1].Type != EventTypeNestHit {
		t.Errorf("Expected oldest first, got %s then %s", got[0].Type, got[1].Type)
	}
	if got[0].Sequence >= got[1].Sequence {
		t.Error("Sequences should increase")
	}

	if all := el.Recent("", 10); len(all) != 3 {
		t.Errorf("Expected 3 events overall, got %d", len(all))
	}
	if last := el.Recent("", 1); len(last) != 1 || last[0].Type != EventTypeNestHit {
		t.Errorf("Expected only the newest event, got %+v", last)
	}
}

// TestEventLogPerGameLimit verifies one game cannot flood the log
func TestEventLogPerGameLimit(t *testing.T) {
	el := NewEventLog()
	el.Start("")
	defer el.Stop()

	accepted := 0
	for i := 0; i < 500; i++ {
		if el.EmitSimple(EventTypeSpawn, uint64(i), "noisy", nil) {
			accepted++
		}
	}
	if accepted >= 500 || accepted < 50 {
		t.Errorf("Expected the per-game burst to cap acceptance, got %d", accepted)
	}
	if el.GetDroppedCount() == 0 {
		t.Error("Dropped events should be counted")
	}
	if !el.EmitSimple(EventTypeSpawn, 1, "quiet", nil) {
		t.Error("Another game must not be limited by the noisy one")
	}
}

// TestEventLogWritesFile verifies events reach the NDJSON file on stop
func TestEventLogWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	el.EmitSimple(EventTypeGameOver, 9, "g", FinishPayload{Outcome: "game_over", Score: 40})
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("Bad line %q: %v", sc.Text(), err)
		}
		if ev.Type != EventTypeGameOver || ev.GameID != "g" {
			t.Errorf("Unexpected event %+v", ev)
		}
		lines++
	}
	if lines != 1 {
		t.Errorf("Expected 1 line, got %d", lines)
	}
}
