package main

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"edu-arcade/internal/game"
	"edu-arcade/internal/termview"
)

// frameInterval is the terminal redraw rate. Terminals over SSH cannot keep
// up with the simulation rate.
const frameInterval = 50 * time.Millisecond

// terminal is one player's screen and keyboard
type terminal struct {
	in   io.Reader
	out  io.Writer
	size func() (cols, rows int)
}

// play mounts a game for the terminal and runs it until the player quits, the
// context ends or the input closes.
func play(ctx context.Context, engine *game.Engine, id string, opts game.Options, t terminal) error {
	cols, rows := t.size()
	sess, err := engine.StartGame(id, termview.Dimensions(cols, rows), opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Destroy(id); err != nil && !errors.Is(err, game.ErrSessionNotFound) {
			log.Printf("⚠️ Game %s teardown: %v", id, err)
		}
	}()

	io.WriteString(t.out, termview.HideCursor+termview.ClearScreen)
	defer io.WriteString(t.out, termview.ShowCursor+termview.ClearScreen+"\033[H")

	keys := make(chan termview.Keys, 16)
	go readKeys(t.in, keys)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok || k.Quit {
				return nil
			}
			if k.Restart && sess.State().Terminal() {
				sess.Restart()
			}
			for _, cmd := range k.Commands {
				// a key mash past the rate limit just drops keys
				if err := sess.Input(cmd); errors.Is(err, game.ErrSessionStopped) {
					return nil
				}
			}
		case <-ticker.C:
			c, r := t.size()
			if c != cols || r != rows {
				cols, rows = c, r
				d := termview.Dimensions(cols, rows)
				if err := sess.Resize(d.Width, d.Height); err != nil {
					log.Printf("⚠️ Game %s resize %dx%d: %v", id, cols, rows, err)
				}
				io.WriteString(t.out, termview.ClearScreen)
			}
			snap := sess.Snapshot()
			if _, err := termview.Draw(&snap, cols, rows).WriteTo(t.out); err != nil {
				return err
			}
		}
	}
}

func readKeys(r io.Reader, out chan<- termview.Keys) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case out <- termview.ParseKeys(buf[:n]):
			default:
			}
		}
		if err != nil {
			return
		}
	}
}
