package main

import (
	"errors"
	"flag"
	"image"
	"log"
	"time"

	"edu-arcade/internal/config"
	"edu-arcade/internal/game"
	"edu-arcade/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/joho/godotenv"
)

// Desktop is the ebiten host. It owns one scene and steps it from Update, so
// the simulation runs at ebiten's tick rate instead of an engine ticker.
type Desktop struct {
	scene    *game.Scene
	frames   *render.Renderer
	snaps    *game.SnapshotPool
	limits   game.ResourceLimits
	step     time.Duration
	canvas   *image.RGBA
	steering [2]float64
	size     image.Point
}

// Update applies keyboard input and advances the scene one tick
func (d *Desktop) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if d.scene.State().Terminal() {
		if inpututil.IsKeyJustPressed(ebiten.KeyR) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			d.scene.Restart()
		}
		return nil
	}

	if ebiten.IsKeyPressed(ebiten.KeySpace) {
		// held space keeps firing at the shot cooldown
		d.scene.Apply(game.Command{Kind: game.CommandFire})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyW) {
		d.scene.Apply(game.Command{Kind: game.CommandLaneUp})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyS) {
		d.scene.Apply(game.Command{Kind: game.CommandLaneDown})
	}
	for i, key := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6} {
		if inpututil.IsKeyJustPressed(key) {
			d.scene.Apply(game.Command{Kind: game.CommandSelectLane, Lane: i})
		}
	}

	// Arena steering follows the held arrow keys
	var dx, dy float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		dy++
	}
	if steer := [2]float64{dx, dy}; steer != d.steering {
		d.steering = steer
		if d.scene.Mode() == game.ModeEduSpace {
			d.scene.Apply(game.Command{Kind: game.CommandMove, DX: dx, DY: dy})
		}
	}

	d.scene.Tick(d.step)
	return nil
}

// Draw renders the latest scene state with the shared frame renderer
func (d *Desktop) Draw(screen *ebiten.Image) {
	snap := d.snaps.AcquireWrite()
	d.scene.WriteSnapshot(snap, d.limits)
	d.snaps.PublishWrite()

	b := screen.Bounds()
	if d.canvas == nil || d.canvas.Bounds() != b {
		d.canvas = image.NewRGBA(b)
	}
	d.frames.RenderInto(d.canvas, snap)
	screen.WritePixels(d.canvas.Pix)
}

// Layout uses the window size as the playfield, so the responsive mapper
// sees every resize
func (d *Desktop) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := image.Pt(outsideWidth, outsideHeight)
	if size != d.size && size.X > 0 && size.Y > 0 {
		d.size = size
		w, h := float64(size.X), float64(size.Y)
		if err := d.scene.Resize(w, h); err != nil && !errors.Is(err, game.ErrInvalidDimensions) {
			log.Printf("⚠️ resize %vx%v: %v", w, h, err)
		}
	}
	return outsideWidth, outsideHeight
}

func main() {
	mode := flag.String("mode", string(game.ModeSnowmen), "snowmen or eduspace")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	quiz := flag.Bool("quiz", false, "ask multiplication questions in snowmen")
	table := flag.Int("table", 0, "multiplication table for quiz play")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}
	appConfig := config.Load()

	m, err := game.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	data, err := config.LoadGameData(appConfig.Paths)
	if err != nil {
		log.Fatalf("❌ Failed to load game data: %v", err)
	}
	atlas, err := render.LoadAtlas(appConfig.Paths.AssetManifest)
	if err != nil {
		log.Fatalf("❌ Failed to load asset manifest: %v", err)
	}
	fonts, err := render.LoadFonts(appConfig.Paths.Font)
	if err != nil {
		log.Printf("⚠️ Using the built-in face: %v", err)
	}

	cfg := data.Tuning.For(m)
	cfg.Seed = time.Now().UnixNano()
	if *quiz {
		cfg.Quiz.Enabled = true
	}
	if *table > 0 {
		cfg.Quiz.Table = *table
	}

	scene, err := game.NewScene(cfg, game.Dimensions{Width: float64(*width), Height: float64(*height)}, game.SceneDeps{
		ContainerID: "desktop",
		Backend:     render.NewSpriteBackend(atlas),
		Questions:   data.Questions,
		Listener: game.ListenerFuncs{
			OnReady: func(ev game.SceneReady) {
				log.Printf("🎮 %s ready", ev.ContainerID)
			},
			OnGameOver: func(ev game.GameOver) {
				log.Printf("🏁 %s: score %d, %d kills, %d mistakes", ev.Outcome, ev.FinalScore, ev.Kills, len(ev.Mistakes))
			},
		},
	})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	scene.Start()
	defer scene.Destroy()

	tps := appConfig.Engine.TickRate
	ebiten.SetTPS(tps)
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Edu Arcade - " + string(m))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	d := &Desktop{
		scene:  scene,
		frames: render.NewRenderer(atlas, fonts),
		snaps:  game.NewSnapshotPool(game.DefaultLimits),
		limits: game.DefaultLimits,
		step:   time.Second / time.Duration(tps),
		size:   image.Pt(*width, *height),
	}
	if err := ebiten.RunGame(d); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
