package termview

import (
	"bytes"
	"strings"
	"testing"

	"edu-arcade/internal/game"
)

// TestParseKeys verifies key bytes map to game commands
func TestParseKeys(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []game.Command
		quit    bool
		restart bool
	}{
		{"fire", " ", []game.Command{{Kind: game.CommandFire}}, false, false},
		{"arrow up", "\x1b[A", []game.Command{{Kind: game.CommandMove, DY: -1}}, false, false},
		{"arrow left", "\x1b[D", []game.Command{{Kind: game.CommandMove, DX: -1}}, false, false},
		{"wasd", "ds", []game.Command{{Kind: game.CommandMove, DX: 1}, {Kind: game.CommandMove, DY: 1}}, false, false},
		{"lane digit", "3", []game.Command{{Kind: game.CommandSelectLane, Lane: 2}}, false, false},
		{"stop", "x", []game.Command{{Kind: game.CommandMove}}, false, false},
		{"escape quits", "\x1b", nil, true, false},
		{"ctrl-c quits", "\x03", nil, true, false},
		{"restart", "r", nil, false, true},
		{"ignored", "zz0", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := ParseKeys([]byte(tt.in))
			if k.Quit != tt.quit || k.Restart != tt.restart {
				t.Errorf("quit=%v restart=%v, want %v %v", k.Quit, k.Restart, tt.quit, tt.restart)
			}
			if len(k.Commands) != len(tt.want) {
				t.Fatalf("commands = %+v, want %+v", k.Commands, tt.want)
			}
			for i := range tt.want {
				if k.Commands[i] != tt.want[i] {
					t.Errorf("command %d = %+v, want %+v", i, k.Commands[i], tt.want[i])
				}
			}
		})
	}
}

// TestDimensions verifies terminal sizes convert to playfield pixels
func TestDimensions(t *testing.T) {
	d := Dimensions(80, 26)
	if d.Width != 640 || d.Height != 384 {
		t.Errorf("Dimensions(80, 26) = %+v", d)
	}
	d = Dimensions(0, 1)
	if d.Width != CellWidth || d.Height != CellHeight {
		t.Errorf("tiny terminal = %+v", d)
	}
}

// TestDraw verifies actors, lanes and the HUD land in the right cells
func TestDraw(t *testing.T) {
	snap := &game.GameSnapshot{
		State:  "playing",
		Width:  80,
		Height: 160,
		NestX:  72,
		Score:  30,
		Lives:  3,
		Prompt: "2 x 5",
		Actors: []game.ActorSnapshot{
			{ID: 1, Category: "player", X: 4, Y: 8, W: 8, H: 16, Alive: true},
			{ID: 2, Category: "enemy", X: 44, Y: 88, W: 8, H: 16, Alive: true},
			{ID: 3, Category: "enemy", X: 20, Y: 120, W: 8, H: 16, Alive: false},
		},
		Lanes: []game.LaneSnapshot{{Index: 0, Y: 40}},
	}

	f := Draw(snap, 10, 12)
	lines := f.Lines()
	if len(lines) != 12 {
		t.Fatalf("rows = %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "SCORE 30") {
		t.Errorf("hud = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2 x 5") {
		t.Errorf("prompt row = %q", lines[1])
	}
	if c := f.At(0, 2); c.Ch != '@' {
		t.Errorf("player cell = %q", c.Ch)
	}
	if c := f.At(5, 7); c.Ch != '&' {
		t.Errorf("enemy cell = %q", c.Ch)
	}
	if c := f.At(2, 9); c.Ch != 'x' {
		t.Errorf("dying enemy cell = %q", c.Ch)
	}
	if c := f.At(9, 3); c.Ch != '|' {
		t.Errorf("nest cell = %q", c.Ch)
	}
	if c := f.At(0, 4); c.Ch != '.' {
		t.Errorf("lane cell = %q", c.Ch)
	}
}

// TestDrawBanner verifies terminal states are announced
func TestDrawBanner(t *testing.T) {
	f := Draw(&game.GameSnapshot{State: "game_over", Width: 400, Height: 160}, 50, 12)
	found := false
	for _, line := range f.Lines() {
		if strings.Contains(line, "GAME OVER") {
			found = true
		}
	}
	if !found {
		t.Error("game over banner missing")
	}
}

// TestWriteTo verifies the ANSI output homes the cursor and ends rows in CRLF
func TestWriteTo(t *testing.T) {
	f := Draw(&game.GameSnapshot{Width: 80, Height: 16}, 10, 3)

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}
	out := buf.String()
	if !strings.HasPrefix(out, cursorHome) {
		t.Error("output should start at the cursor home")
	}
	if got := strings.Count(out, "\r\n"); got != 2 {
		t.Errorf("CRLF count = %d, want 2", got)
	}
}
