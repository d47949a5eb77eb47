package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"edu-arcade/internal/game"
)

// TestDefaultAtlas verifies the built-in manifest covers the default tuning
func TestDefaultAtlas(t *testing.T) {
	a := DefaultAtlas()

	for _, mode := range []game.Mode{game.ModeSnowmen, game.ModeEduSpace} {
		cfg := game.DefaultConfig(mode)
		for _, key := range []string{cfg.Player.Texture, cfg.Enemy.Texture, cfg.PlayerShot.Texture, cfg.EnemyShot.Texture} {
			if _, ok := a.Texture(key); !ok {
				t.Errorf("%s: texture %q missing", mode, key)
			}
		}
		for _, name := range []string{cfg.Enemy.DeathAnimation, cfg.Enemy.ThrowAnimation, cfg.PlayerShot.ExplodeAnimation} {
			if d, ok := a.AnimationDuration(name); !ok || d <= 0 {
				t.Errorf("%s: animation %q = %v, %v", mode, name, d, ok)
			}
		}
	}

	d, ok := a.AnimationDuration("snowman_die")
	if !ok || d != 600*time.Millisecond {
		t.Errorf("snowman_die = %v, want 600ms", d)
	}
	if _, ok := a.AnimationDuration("nope"); ok {
		t.Error("unknown animation should not be found")
	}
}

// TestParseAtlas verifies manifest validation and defaults
func TestParseAtlas(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"empty", "name: x\n", true},
		{"bad shape", "textures:\n  a: {shape: hexagon}\n", true},
		{"bad animation", "textures:\n  a: {}\nanimations:\n  run: {frames: 0, fps: 10}\n", true},
		{"not yaml", "textures: [", true},
		{"minimal", "textures:\n  a: {}\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAtlas([]byte(tt.yaml), "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			tex, _ := a.Texture("a")
			if tex.Shape != ShapeRect || tex.Color != "#ffffff" {
				t.Errorf("defaults not applied: %+v", tex)
			}
		})
	}

	if _, err := ParseAtlas([]byte("name: x\n"), ""); !errors.Is(err, ErrEmptyAtlas) {
		t.Errorf("expected ErrEmptyAtlas, got %v", err)
	}
}

// TestLoadAtlasResolvesImages verifies relative images resolve against the manifest
func TestLoadAtlasResolvesImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.yaml")
	manifest := "textures:\n  ship: {image: sprites/ship.png}\n  dot: {shape: circle}\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := LoadAtlas(path)
	if err != nil {
		t.Fatalf("LoadAtlas failed: %v", err)
	}
	if got, want := a.ImagePath("ship"), filepath.Join(dir, "sprites/ship.png"); got != want {
		t.Errorf("ImagePath = %q, want %q", got, want)
	}
	if a.ImagePath("dot") != "" {
		t.Error("shape texture should have no image")
	}

	if _, err := LoadAtlas(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
	if a, err := LoadAtlas(""); err != nil || a.Name != "builtin" {
		t.Errorf("empty path should load the built-in atlas, got %v", err)
	}
}

// TestSpriteBackendLifecycle verifies handles update and free their sprites
func TestSpriteBackendLifecycle(t *testing.T) {
	b := NewSpriteBackend(nil)

	h := b.Sprite("ship", 1, 2)
	other := b.Sprite("alien", 0, 0)
	if len(b.Visible()) != 0 {
		t.Fatal("new sprites should be hidden")
	}

	h.Move(10, 20)
	h.SetVisible(true)
	h.Play("laser_hit")
	vis := b.Visible()
	if len(vis) != 1 || vis[0].X != 10 || vis[0].Y != 20 || vis[0].Animation != "laser_hit" {
		t.Fatalf("unexpected visible sprites: %+v", vis)
	}

	h.Destroy()
	h.Destroy()
	h.Move(5, 5)
	other.Destroy()

	st := b.Stats()
	if st.Live != 0 || st.Created != 2 || st.Destroyed != 2 {
		t.Errorf("stats = %+v", st)
	}
}

// TestSpriteBackendDrivesScene verifies a scene allocates and frees sprites through the backend
func TestSpriteBackendDrivesScene(t *testing.T) {
	b := NewSpriteBackend(nil)
	cfg := game.DefaultConfig(game.ModeSnowmen)
	cfg.Seed = 7

	s, err := game.NewScene(cfg, game.Dimensions{Width: 1280, Height: 720}, game.SceneDeps{
		ContainerID: "render-test",
		Backend:     b,
	})
	if err != nil {
		t.Fatalf("NewScene failed: %v", err)
	}
	s.Start()
	s.Tick(16 * time.Millisecond)

	if b.Stats().Live == 0 {
		t.Fatal("scene should have created sprites")
	}
	found := false
	for _, sp := range b.Visible() {
		if sp.Texture == cfg.Player.Texture {
			found = true
		}
	}
	if !found {
		t.Error("player sprite should be visible")
	}

	s.Destroy()
	if live := b.Stats().Live; live != 0 {
		t.Errorf("destroyed scene left %d sprites", live)
	}
}

func testSnapshot() *game.GameSnapshot {
	return &game.GameSnapshot{
		Mode:      "snowmen",
		State:     "playing",
		Width:     800,
		Height:    400,
		NestX:     760,
		Score:     120,
		Energy:    40,
		MaxEnergy: 100,
		Lives:     2,
		Prompt:    "3 x 4",
		Actors: []game.ActorSnapshot{
			{ID: 1, Category: "player", X: 600, Y: 300, W: 40, H: 40, Texture: "player", Alive: true},
			{ID: 2, Category: "enemy", X: 300, Y: 300, W: 40, H: 40, Texture: "unknown-texture", Label: "12", Alive: true},
		},
		Lanes: []game.LaneSnapshot{{Index: 0, Y: 200, Slot: "alive"}},
		Texts: []game.TextSnapshot{{X: 400, Y: 100, Text: "+10", Color: "#ffff00", Alpha: 1}},
	}
}

// TestRenderDrawsActors verifies shapes use atlas colors and the background stays clear
func TestRenderDrawsActors(t *testing.T) {
	r := NewRenderer(nil, nil)
	img, err := r.Render(testSnapshot(), 1)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Fatalf("bounds = %v", b)
	}

	if got := img.RGBAAt(600, 300); got != parseHexColor("#3a7bd5") {
		t.Errorf("player pixel = %v", got)
	}
	if got := img.RGBAAt(790, 390); got != colorBackground {
		t.Errorf("background pixel = %v", got)
	}
	// unknown textures fall back to the category colour
	if got := img.RGBAAt(300, 285); got != categoryColors["enemy"] {
		t.Errorf("enemy pixel = %v", got)
	}
}

// TestRenderScale verifies the playfield scales into the frame
func TestRenderScale(t *testing.T) {
	r := NewRenderer(nil, nil)
	img, err := r.Render(testSnapshot(), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("bounds = %v", b)
	}
	if got := img.RGBAAt(300, 150); got != parseHexColor("#3a7bd5") {
		t.Errorf("scaled player pixel = %v", got)
	}
}

// TestFrameSize verifies size validation
func TestFrameSize(t *testing.T) {
	tests := []struct {
		name    string
		w, h    float64
		scale   float64
		wantErr bool
	}{
		{"default scale", 640, 480, 0, false},
		{"no size", 0, 480, 1, true},
		{"too large", 3000, 2000, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FrameSize(&game.GameSnapshot{Width: tt.w, Height: tt.h}, tt.scale)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestEncodePNG verifies the frame round-trips through the PNG decoder
func TestEncodePNG(t *testing.T) {
	r := NewRenderer(nil, nil)
	snap := testSnapshot()
	snap.State = "game_over"

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf, snap, 1); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Errorf("bounds = %v", b)
	}
	if _, err := r.Render(&game.GameSnapshot{}, 1); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

// TestParseHexColor verifies colour parsing and its fallback
func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff0000", color.RGBA{255, 0, 0, 255}},
		{"#00d4ff", color.RGBA{0, 212, 255, 255}},
		{"red", color.RGBA{255, 255, 255, 255}},
		{"#zzzzzz", color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
