package game

import (
	"fmt"
	"math"
	"strings"
)

// CommandKind is a player input action
type CommandKind uint8

const (
	CommandFire CommandKind = iota
	CommandLaneUp
	CommandLaneDown
	CommandSelectLane
	CommandMove
)

// String returns the wire name of the command
func (k CommandKind) String() string {
	switch k {
	case CommandFire:
		return "fire"
	case CommandLaneUp:
		return "up"
	case CommandLaneDown:
		return "down"
	case CommandSelectLane:
		return "lane"
	case CommandMove:
		return "move"
	default:
		return "unknown"
	}
}

// ParseCommandKind maps a wire name to a command
func ParseCommandKind(s string) (CommandKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fire", "shoot":
		return CommandFire, nil
	case "up", "lane_up":
		return CommandLaneUp, nil
	case "down", "lane_down":
		return CommandLaneDown, nil
	case "lane", "select_lane":
		return CommandSelectLane, nil
	case "move":
		return CommandMove, nil
	default:
		return 0, fmt.Errorf("unknown command %q", s)
	}
}

// Command is one input event
type Command struct {
	Kind CommandKind
	Lane int     // CommandSelectLane
	DX   float64 // CommandMove direction, any length; zero stops
	DY   float64
}

// Apply processes an input command immediately. It reports whether the
// command changed anything; commands are ignored outside Playing or once the
// player is out of lives.
func (s *Scene) Apply(cmd Command) bool {
	if s.destroyed || s.state != StatePlaying || s.player.State == PlayerDead {
		return false
	}

	switch cmd.Kind {
	case CommandFire:
		return s.firePlayerShot()
	case CommandLaneUp:
		return s.selectLane(s.player.Lane - 1)
	case CommandLaneDown:
		return s.selectLane(s.player.Lane + 1)
	case CommandSelectLane:
		return s.selectLane(cmd.Lane)
	case CommandMove:
		return s.steer(cmd.DX, cmd.DY)
	}
	return false
}

func (s *Scene) selectLane(i int) bool {
	if !s.laneGame() || i < 0 || i >= len(s.lanes) || i == s.player.Lane {
		return false
	}
	s.player.Lane = i
	a := s.player.actor
	a.Lane = i
	home := s.playerHome()
	a.MoveTo(home.X, home.Y)
	return true
}

// steer sets the arena player's velocity. In a lane game a vertical move is a
// lane change.
func (s *Scene) steer(dx, dy float64) bool {
	if s.laneGame() {
		switch {
		case dy < 0:
			return s.selectLane(s.player.Lane - 1)
		case dy > 0:
			return s.selectLane(s.player.Lane + 1)
		}
		return false
	}

	a := s.player.actor
	d := math.Hypot(dx, dy)
	if d == 0 {
		a.VX, a.VY = 0, 0
		return true
	}
	speed := s.mapper.Speed(s.cfg.Player.Speed)
	a.VX, a.VY = dx/d*speed, dy/d*speed
	if dx != 0 {
		s.player.Facing = math.Copysign(1, dx)
	}
	return true
}
