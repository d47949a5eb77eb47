package game

import "testing"

// TestParseCommandKind verifies wire names and aliases
func TestParseCommandKind(t *testing.T) {
	tests := []struct {
		in      string
		want    CommandKind
		wantErr bool
	}{
		{"fire", CommandFire, false},
		{" SHOOT ", CommandFire, false},
		{"up", CommandLaneUp, false},
		{"lane_down", CommandLaneDown, false},
		{"select_lane", CommandSelectLane, false},
		{"move", CommandMove, false},
		{"jump", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommandKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	for _, k := range []CommandKind{CommandFire, CommandLaneUp, CommandLaneDown, CommandSelectLane, CommandMove} {
		back, err := ParseCommandKind(k.String())
		if err != nil || back != k {
			t.Errorf("%s does not parse back: %v", k, err)
		}
	}
}

// TestApplyLaneCommands verifies lane selection bounds in a lane game
func TestApplyLaneCommands(t *testing.T) {
	s := newTestScene(t, testConfig(ModeSnowmen), desktop(), SceneDeps{})
	if s.player.Lane != 0 {
		t.Fatalf("Player should start in lane 0, got %d", s.player.Lane)
	}

	if s.Apply(Command{Kind: CommandLaneUp}) {
		t.Error("Moving above the top lane must be refused")
	}
	if s.Apply(Command{Kind: CommandSelectLane, Lane: 0}) {
		t.Error("Selecting the current lane changes nothing")
	}
	if s.Apply(Command{Kind: CommandSelectLane, Lane: 99}) {
		t.Error("Unknown lanes must be refused")
	}
	if !s.Apply(Command{Kind: CommandLaneDown}) || s.player.Lane != 1 {
		t.Errorf("Lane down should reach lane 1, at %d", s.player.Lane)
	}
	if !s.Apply(Command{Kind: CommandMove, DY: 1}) || s.player.Lane != 2 {
		t.Errorf("A downward move is a lane change, at %d", s.player.Lane)
	}
	if !s.Apply(Command{Kind: CommandSelectLane, Lane: 3}) {
		t.Fatal("Selecting lane 3 should succeed")
	}
	if y := s.player.actor.Y; y != s.mapper.LaneY(3) {
		t.Errorf("Player should sit on lane 3 (y=%v), at %v", s.mapper.LaneY(3), y)
	}
}
