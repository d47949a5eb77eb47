package termview

import "edu-arcade/internal/game"

// Keys is what one read from the terminal asked for
type Keys struct {
	Commands []game.Command
	Restart  bool
	Quit     bool
}

// ParseKeys decodes raw terminal bytes. Arrow keys arrive as ESC [ A..D.
//
//	arrows / wasd   move (a lane change in lane games)
//	space / f       fire
//	1-9             select lane
//	x               stop
//	r               restart
//	q / esc / ^C    quit
func ParseKeys(buf []byte) Keys {
	var k Keys
	move := func(dx, dy float64) {
		k.Commands = append(k.Commands, game.Command{Kind: game.CommandMove, DX: dx, DY: dy})
	}

	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 0x1b && i+2 < len(buf) && buf[i+1] == '[':
			switch buf[i+2] {
			case 'A':
				move(0, -1)
			case 'B':
				move(0, 1)
			case 'C':
				move(1, 0)
			case 'D':
				move(-1, 0)
			}
			i += 2
		case b == 0x1b, b == 0x03, b == 'q', b == 'Q':
			k.Quit = true
		case b == ' ', b == 'f', b == 'F':
			k.Commands = append(k.Commands, game.Command{Kind: game.CommandFire})
		case b == 'w', b == 'W':
			move(0, -1)
		case b == 's', b == 'S':
			move(0, 1)
		case b == 'a', b == 'A':
			move(-1, 0)
		case b == 'd', b == 'D':
			move(1, 0)
		case b == 'x', b == 'X':
			move(0, 0)
		case b == 'r', b == 'R':
			k.Restart = true
		case b >= '1' && b <= '9':
			k.Commands = append(k.Commands, game.Command{Kind: game.CommandSelectLane, Lane: int(b - '1')})
		}
	}
	return k
}
