// Package termview draws game snapshots as text for terminal hosts.
package termview

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"edu-arcade/internal/game"
)

// Terminal cell size in playfield pixels. Hosts size the game from the
// window with Dimensions so one cell maps to one CellWidth x CellHeight block.
const (
	CellWidth  = 8
	CellHeight = 16

	// hudRows are reserved above the playfield
	hudRows = 2
)

// ANSI sequences
const (
	ClearScreen = "\033[2J"
	HideCursor  = "\033[?25l"
	ShowCursor  = "\033[?25h"
	cursorHome  = "\033[H"
	reset       = "\033[0m"
)

const (
	colorNone    = ""
	colorPlayer  = "\033[1;36m"
	colorEnemy   = "\033[1;37m"
	colorShot    = "\033[33m"
	colorHostile = "\033[35m"
	colorBonus   = "\033[1;33m"
	colorLane    = "\033[2;34m"
	colorNest    = "\033[31m"
	colorHUD     = "\033[1m"
	colorDim     = "\033[2m"
)

var glyphs = map[string]struct {
	ch    rune
	color string
}{
	"player":            {'@', colorPlayer},
	"enemy":             {'&', colorEnemy},
	"player_projectile": {'o', colorShot},
	"enemy_projectile":  {'*', colorHostile},
	"collectible":       {'$', colorBonus},
}

// Cell is one character on screen
type Cell struct {
	Ch    rune
	Color string
}

// Frame is a grid of cells
type Frame struct {
	cols, rows int
	cells      []Cell
}

// Dimensions converts a terminal size into playfield pixels
func Dimensions(cols, rows int) game.Dimensions {
	rows -= hudRows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return game.Dimensions{Width: float64(cols * CellWidth), Height: float64(rows * CellHeight)}
}

// Draw lays a snapshot out on a cols x rows grid
func Draw(snap *game.GameSnapshot, cols, rows int) *Frame {
	if cols < 1 {
		cols = 1
	}
	if rows < hudRows+1 {
		rows = hudRows + 1
	}
	f := &Frame{cols: cols, rows: rows, cells: make([]Cell, cols*rows)}
	for i := range f.cells {
		f.cells[i].Ch = ' '
	}

	f.text(0, 0, fmt.Sprintf("SCORE %-6d ENERGY %3d/%-3d LIVES %d KILLS %d", snap.Score, snap.Energy, snap.MaxEnergy, snap.Lives, snap.Kills), colorHUD)
	if snap.Prompt != "" {
		prompt := snap.Prompt
		if snap.QuestionCount > 0 {
			prompt = fmt.Sprintf("%s  (%d/%d)", snap.Prompt, snap.QuestionIndex+1, snap.QuestionCount)
		}
		f.text(0, 1, prompt, colorHUD)
	} else {
		f.text(0, 1, strings.Repeat("-", cols), colorDim)
	}

	if snap.Width <= 0 || snap.Height <= 0 {
		return f
	}
	sx := float64(cols) / snap.Width
	sy := float64(rows-hudRows) / snap.Height
	col := func(x float64) int { return int(math.Floor(x * sx)) }
	row := func(y float64) int { return hudRows + int(math.Floor(y*sy)) }

	for _, lane := range snap.Lanes {
		r := row(lane.Y)
		for c := 0; c < cols; c += 2 {
			f.set(c, r, '.', colorLane)
		}
	}
	if snap.NestX > 0 {
		c := col(snap.NestX)
		for r := hudRows; r < rows; r++ {
			f.set(c, r, '|', colorNest)
		}
	}

	for _, a := range snap.Actors {
		g, ok := glyphs[a.Category]
		if !ok {
			g.ch, g.color = '?', colorNone
		}
		if !a.Alive {
			g.ch = 'x'
		}
		c0, c1 := col(a.X-a.W/2), col(a.X+a.W/2-1)
		r0, r1 := row(a.Y-a.H/2), row(a.Y+a.H/2-1)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				f.set(c, r, g.ch, g.color)
			}
		}
		if a.Label != "" {
			f.text(col(a.X)-len(a.Label)/2, row(a.Y), a.Label, colorHUD)
		}
	}

	for _, t := range snap.Texts {
		if t.Alpha < 0.2 {
			continue
		}
		f.text(col(t.X)-len(t.Text)/2, row(t.Y), t.Text, colorBonus)
	}

	var banner string
	switch snap.State {
	case "game_over":
		banner = " GAME OVER - press r to play again "
	case "level_complete":
		banner = " LEVEL COMPLETE - press r to play again "
	}
	if banner != "" {
		f.text((cols-len(banner))/2, hudRows+(rows-hudRows)/2, banner, colorHUD)
	}
	return f
}

func (f *Frame) set(c, r int, ch rune, color string) {
	if c < 0 || c >= f.cols || r < 0 || r >= f.rows {
		return
	}
	f.cells[r*f.cols+c] = Cell{Ch: ch, Color: color}
}

func (f *Frame) text(c, r int, s string, color string) {
	for i, ch := range []rune(s) {
		f.set(c+i, r, ch, color)
	}
}

// At returns the cell at column c, row r
func (f *Frame) At(c, r int) Cell {
	if c < 0 || c >= f.cols || r < 0 || r >= f.rows {
		return Cell{}
	}
	return f.cells[r*f.cols+c]
}

// Lines returns the frame as plain text, one string per row
func (f *Frame) Lines() []string {
	out := make([]string, f.rows)
	var sb strings.Builder
	for r := 0; r < f.rows; r++ {
		sb.Reset()
		for c := 0; c < f.cols; c++ {
			sb.WriteRune(f.cells[r*f.cols+c].Ch)
		}
		out[r] = sb.String()
	}
	return out
}

// WriteTo paints the frame from the top-left corner with colour escapes.
// Rows end in CRLF because SSH PTYs run in raw mode.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 8192)
	cw := &countingWriter{w: bw}

	cw.WriteString(cursorHome)
	for r := 0; r < f.rows; r++ {
		current := colorNone
		for c := 0; c < f.cols; c++ {
			cell := f.cells[r*f.cols+c]
			if cell.Color != current {
				cw.WriteString(reset)
				cw.WriteString(cell.Color)
				current = cell.Color
			}
			cw.WriteRune(cell.Ch)
		}
		cw.WriteString(reset)
		if r < f.rows-1 {
			cw.WriteString("\r\n")
		}
	}
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, bw.Flush()
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) WriteString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	c.err = err
}

func (c *countingWriter) WriteRune(r rune) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteRune(r)
	c.n += int64(n)
	c.err = err
}
