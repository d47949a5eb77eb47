package physics

import "testing"

// TestOverlapByLayer verifies queries only report enabled bodies on the requested layer
func TestOverlapByLayer(t *testing.T) {
	w := NewWorld(800, 600)

	shot := w.NewBody(LayerPlayerShot, 20, 20, "shot")
	enemy := w.NewBody(LayerEnemy, 60, 60, "enemy")
	pickup := w.NewBody(LayerCollectible, 60, 60, "pickup")
	for _, b := range []*Body{shot, enemy, pickup} {
		b.SetCenter(400, 300)
		b.Enable()
	}

	var hits []any
	shot.Overlapping(LayerEnemy, func(other *Body) bool {
		hits = append(hits, other.Owner)
		return true
	})
	if len(hits) != 1 || hits[0] != "enemy" {
		t.Fatalf("Expected exactly the enemy, got %v", hits)
	}

	if !Overlaps(shot, enemy) {
		t.Error("Expected shot and enemy to overlap")
	}
}

// TestDisabledBodyNeverMatches verifies disabling a body removes it from queries immediately
func TestDisabledBodyNeverMatches(t *testing.T) {
	w := NewWorld(800, 600)
	a := w.NewBody(LayerPlayerShot, 20, 20, nil)
	b := w.NewBody(LayerEnemy, 40, 40, nil)
	a.SetCenter(100, 100)
	b.SetCenter(100, 100)
	a.Enable()
	b.Enable()

	b.Disable()
	if Overlaps(a, b) {
		t.Error("Disabled body should not overlap")
	}

	called := false
	a.Overlapping(LayerEnemy, func(*Body) bool { called = true; return true })
	if called {
		t.Error("Query matched a disabled body")
	}

	b.Enable()
	a.Disable()
	b.Overlapping(LayerPlayerShot, func(*Body) bool { called = true; return true })
	if called {
		t.Error("Query matched a disabled body")
	}
}

// TestSeparatedBodies verifies distant bodies do not overlap
func TestSeparatedBodies(t *testing.T) {
	w := NewWorld(800, 600)
	a := w.NewBody(LayerPlayer, 40, 40, nil)
	b := w.NewBody(LayerEnemy, 40, 40, nil)
	a.SetCenter(100, 100)
	b.SetCenter(600, 500)
	a.Enable()
	b.Enable()

	if Overlaps(a, b) {
		t.Error("Distant bodies should not overlap")
	}
}

// TestOffscreenBodies verifies bodies just outside the playfield still collide
func TestOffscreenBodies(t *testing.T) {
	w := NewWorld(800, 600)
	a := w.NewBody(LayerEnemyShot, 30, 30, nil)
	b := w.NewBody(LayerNest, 30, 30, nil)
	a.SetCenter(-40, 300)
	b.SetCenter(-40, 300)
	a.Enable()
	b.Enable()

	if !Overlaps(a, b) {
		t.Error("Bodies in the off-screen margin should overlap")
	}
}

// TestResizeKeepsState verifies a resized world keeps enabled bodies queryable
func TestResizeKeepsState(t *testing.T) {
	w := NewWorld(1280, 720)
	a := w.NewBody(LayerPlayer, 40, 40, nil)
	b := w.NewBody(LayerEnemy, 40, 40, nil)
	off := w.NewBody(LayerEnemy, 40, 40, nil)
	a.Enable()
	b.Enable()

	w.Resize(375, 667)
	a.SetCenter(200, 200)
	b.SetCenter(200, 200)
	off.SetCenter(200, 200)

	if !a.Enabled() || !b.Enabled() || off.Enabled() {
		t.Fatal("Resize changed enabled state")
	}
	if !Overlaps(a, b) {
		t.Error("Expected overlap after resize")
	}
	if Overlaps(a, off) {
		t.Error("Disabled body overlapped after resize")
	}
	if got := w.EnabledCount(); got != 2 {
		t.Errorf("Expected 2 enabled bodies, got %d", got)
	}
}

// TestCornerOverlap verifies differently sized bodies overlapping only at a corner
func TestCornerOverlap(t *testing.T) {
	w := NewWorld(800, 600)
	big := w.NewBody(LayerEnemy, 80, 80, "big")
	small := w.NewBody(LayerPlayerShot, 20, 20, "small")
	big.Enable()
	small.Enable()
	big.SetCenter(400, 300)

	tests := []struct {
		name   string
		x, y   float64
		expect bool
	}{
		{"5px into the bottom-right corner", 445, 345, true},
		{"5px into the top-left corner", 355, 255, true},
		{"edges touching", 450, 350, false},
		{"just outside the corner", 451, 351, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			small.SetCenter(tt.x, tt.y)
			if got := Overlaps(small, big); got != tt.expect {
				t.Errorf("Overlaps = %v, want %v", got, tt.expect)
			}
			found := false
			small.Overlapping(LayerEnemy, func(other *Body) bool {
				found = other == big
				return false
			})
			if found != tt.expect {
				t.Errorf("Overlapping found = %v, want %v", found, tt.expect)
			}
		})
	}
}

// TestContainedBodyOverlaps verifies a body fully inside another is reported
func TestContainedBodyOverlaps(t *testing.T) {
	w := NewWorld(800, 600)
	enemy := w.NewBody(LayerEnemy, 80, 90, "enemy")
	shot := w.NewBody(LayerPlayerShot, 24, 24, "shot")
	enemy.SetCenter(300, 200)
	shot.SetCenter(310, 190)
	enemy.Enable()
	shot.Enable()

	var hits []any
	shot.Overlapping(LayerEnemy, func(other *Body) bool {
		hits = append(hits, other.Owner)
		return true
	})
	if len(hits) != 1 || hits[0] != "enemy" {
		t.Fatalf("Expected the enclosing enemy, got %v", hits)
	}

	// and from the outside in
	hits = nil
	enemy.Overlapping(LayerPlayerShot, func(other *Body) bool {
		hits = append(hits, other.Owner)
		return true
	})
	if len(hits) != 1 || hits[0] != "shot" {
		t.Errorf("Expected the enclosed shot, got %v", hits)
	}
}

// TestMovedWhileDisabled verifies a disabled body moved elsewhere is found at its new place once enabled
func TestMovedWhileDisabled(t *testing.T) {
	w := NewWorld(800, 600)
	a := w.NewBody(LayerPlayer, 40, 40, nil)
	b := w.NewBody(LayerEnemy, 40, 40, nil)
	a.SetCenter(100, 100)
	b.SetCenter(100, 100)
	a.Enable()
	b.Enable()

	b.Disable()
	b.SetCenter(600, 400)
	called := false
	a.Overlapping(LayerEnemy, func(*Body) bool { called = true; return true })
	if called {
		t.Fatal("Disabled body matched after moving")
	}

	a.SetCenter(610, 410)
	b.Enable()
	a.Overlapping(LayerEnemy, func(other *Body) bool { called = other == b; return false })
	if !called {
		t.Error("Re-enabled body not found at its new position")
	}
}

// TestOverlappingCallbackMayQuery verifies fn can run its own queries while iterating
func TestOverlappingCallbackMayQuery(t *testing.T) {
	w := NewWorld(800, 600)
	shot := w.NewBody(LayerPlayerShot, 20, 20, nil)
	e1 := w.NewBody(LayerEnemy, 60, 60, nil)
	e2 := w.NewBody(LayerEnemy, 60, 60, nil)
	player := w.NewBody(LayerPlayer, 60, 60, nil)
	for _, b := range []*Body{shot, e1, e2, player} {
		b.SetCenter(200, 200)
		b.Enable()
	}

	seen := 0
	shot.Overlapping(LayerEnemy, func(other *Body) bool {
		seen++
		other.Overlapping(LayerPlayer, func(*Body) bool { return true })
		return true
	})
	if seen != 2 {
		t.Errorf("Expected both enemies, saw %d", seen)
	}
}
