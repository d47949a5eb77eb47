package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"edu-arcade/internal/api"
	"edu-arcade/internal/config"
	"edu-arcade/internal/game"
	"edu-arcade/internal/render"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

var sessionSeq atomic.Uint64

func main() {
	local := flag.Bool("local", false, "play in this terminal instead of serving SSH")
	mode := flag.String("mode", string(game.ModeSnowmen), "game mode for -local")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	appConfig := config.Load()
	data, err := config.LoadGameData(appConfig.Paths)
	if err != nil {
		log.Fatalf("❌ Failed to load game data: %v", err)
	}
	atlas, err := render.LoadAtlas(appConfig.Paths.AssetManifest)
	if err != nil {
		log.Fatalf("❌ Failed to load asset manifest: %v", err)
	}

	engine := game.NewEngine(appConfig.Engine.GameEngine(data, render.NewSpriteBackend(atlas)), nil, &api.PromObserver{})
	defer engine.Close()

	if *local {
		if err := playLocal(engine, game.Mode(*mode)); err != nil {
			fmt.Fprintf(os.Stderr, "game error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sshCfg := appConfig.SSH
	addr := net.JoinHostPort(sshCfg.Host, strconv.Itoa(sshCfg.Port))
	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithMiddleware(
			gameMiddleware(engine),
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if sshCfg.HostKey != "" {
		opts = append(opts, wish.WithHostKeyPath(sshCfg.HostKey))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("🖥️ SSH arcade on %s (ssh -p %d -t host [snowmen|eduspace])", addr, sshCfg.Port)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-done
	log.Println("🛑 Shutting down SSH server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("⚠️ shutdown error: %v", err)
	}
}

// gameMiddleware runs one game per SSH session. The first command argument
// picks the mode.
func gameMiddleware(engine *game.Engine) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			mode := game.ModeSnowmen
			if args := sess.Command(); len(args) > 0 {
				m, err := game.ParseMode(strings.ToLower(args[0]))
				if err != nil {
					fmt.Fprintf(sess, "Error: %v (try snowmen or eduspace)\n", err)
					return
				}
				mode = m
			}

			id := fmt.Sprintf("ssh-%d", sessionSeq.Add(1))
			log.Printf("🎮 SSH game %s: user=%s mode=%s terminal=%s size=%dx%d",
				id, sess.User(), mode, pty.Term, pty.Window.Width, pty.Window.Height)

			size := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					size.update(win.Width, win.Height)
				}
			}()

			err := play(sess.Context(), engine, id, game.Options{Mode: mode, Player: sess.User()}, terminal{
				in:   sess,
				out:  sess,
				size: size.get,
			})
			if err != nil {
				log.Printf("Game error for %s: %v", sess.User(), err)
				fmt.Fprintf(sess, "Error: %v\n", err)
			}

			log.Printf("Session ended: user=%s", sess.User())
			next(sess)
		}
	}
}

// playLocal runs one game in the current terminal
func playLocal(engine *game.Engine, mode game.Mode) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	size := func() (int, int) {
		w, h, err := term.GetSize(fd)
		if err != nil {
			return 80, 24
		}
		return w, h
	}
	return play(context.Background(), engine, "local", game.Options{Mode: mode, Player: os.Getenv("USER")}, terminal{
		in:   os.Stdin,
		out:  os.Stdout,
		size: size,
	})
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) get() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}
