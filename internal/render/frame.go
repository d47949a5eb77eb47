package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"edu-arcade/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// MaxFrameSide caps the rendered frame on either axis
const MaxFrameSide = 4096

// ErrEmptyFrame is returned for a snapshot without playfield dimensions
var ErrEmptyFrame = errors.New("snapshot has no playfield size")

// Palette
var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorLane       = color.RGBA{40, 44, 70, 255}
	colorLaneBusy   = color.RGBA{0, 212, 255, 90}
	colorNest       = color.RGBA{255, 90, 90, 200}
	colorCard       = color.RGBA{18, 18, 24, 235}
	colorAccent     = color.RGBA{0, 212, 255, 255}
	colorSubtle     = color.RGBA{160, 165, 180, 255}
)

var categoryColors = map[string]color.RGBA{
	"player":            {58, 123, 213, 255},
	"enemy":             {240, 240, 255, 255},
	"player_projectile": {255, 255, 255, 255},
	"enemy_projectile":  {180, 200, 255, 255},
	"collectible":       {255, 200, 60, 255},
}

// Renderer draws game snapshots with gg. It is safe for concurrent use;
// frames are serialized because font faces are stateful.
type Renderer struct {
	atlas *Atlas
	fonts *Fonts

	mu       sync.Mutex
	textures *TextureCache
}

// NewRenderer creates a renderer. atlas nil uses the built-in manifest;
// fonts nil uses gg's default face.
func NewRenderer(atlas *Atlas, fonts *Fonts) *Renderer {
	if atlas == nil {
		atlas = DefaultAtlas()
	}
	return &Renderer{
		atlas:    atlas,
		fonts:    fonts,
		textures: NewTextureCache(DefaultMaxTextures),
	}
}

// FrameSize returns the pixel size of a snapshot rendered at scale
func FrameSize(snap *game.GameSnapshot, scale float64) (int, int, error) {
	if snap.Width <= 0 || snap.Height <= 0 {
		return 0, 0, ErrEmptyFrame
	}
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(snap.Width * scale))
	h := int(math.Ceil(snap.Height * scale))
	if w > MaxFrameSide || h > MaxFrameSide {
		return 0, 0, fmt.Errorf("frame %dx%d exceeds %d pixels", w, h, MaxFrameSide)
	}
	return w, h, nil
}

// Render draws a snapshot into a new image at scale (1 = playfield pixels)
func (r *Renderer) Render(snap *game.GameSnapshot, scale float64) (*image.RGBA, error) {
	w, h, err := FrameSize(snap, scale)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.RenderInto(img, snap)
	return img, nil
}

// RenderInto draws a snapshot into dst, scaling the playfield to fit it
func (r *Renderer) RenderInto(dst *image.RGBA, snap *game.GameSnapshot) {
	dc := gg.NewContextForRGBA(dst)
	b := dst.Bounds()

	r.mu.Lock()
	defer r.mu.Unlock()

	dc.SetColor(colorBackground)
	dc.Clear()
	if snap.Width <= 0 || snap.Height <= 0 {
		return
	}

	sx := float64(b.Dx()) / snap.Width
	sy := float64(b.Dy()) / snap.Height
	dc.Push()
	dc.Scale(sx, sy)
	dc.Translate(snap.Shake.OffsetX, snap.Shake.OffsetY)

	r.drawLanes(dc, snap)
	r.drawActors(dc, snap)
	r.drawFlashes(dc, snap.Flashes)
	r.drawTexts(dc, snap.Texts)
	dc.Pop()

	// HUD is drawn in frame pixels so it stays legible when scaled down
	r.drawHUD(dc, snap, float64(b.Dx()), float64(b.Dy()))
}

// EncodePNG renders a snapshot and writes it as PNG
func (r *Renderer) EncodePNG(w io.Writer, snap *game.GameSnapshot, scale float64) error {
	img, err := r.Render(snap, scale)
	if err != nil {
		return err
	}
	return gg.NewContextForRGBA(img).EncodePNG(w)
}

func (r *Renderer) drawLanes(dc *gg.Context, snap *game.GameSnapshot) {
	if len(snap.Lanes) == 0 {
		return
	}
	dc.SetLineWidth(1)
	for _, lane := range snap.Lanes {
		dc.SetColor(colorLane)
		if lane.Slot != "empty" {
			dc.SetColor(colorLaneBusy)
		}
		dc.DrawLine(0, lane.Y, snap.Width, lane.Y)
		dc.Stroke()
	}

	if snap.NestX > 0 {
		dc.SetColor(colorNest)
		dc.SetLineWidth(3)
		dc.SetDash(8, 6)
		dc.DrawLine(snap.NestX, 0, snap.NestX, snap.Height)
		dc.Stroke()
		dc.SetDash()
	}
}

func (r *Renderer) drawActors(dc *gg.Context, snap *game.GameSnapshot) {
	// depth order, stable by id
	order := make([]int, len(snap.Actors))
	for i := range order {
		order[i] = i
	}
	sortByDepth(order, snap.Actors)

	for _, i := range order {
		a := &snap.Actors[i]
		if !a.Alive && a.Animation == "" {
			continue
		}
		r.drawActor(dc, a)
		if a.Label != "" {
			r.setFace(dc, r.small())
			dc.SetColor(color.White)
			dc.DrawStringAnchored(a.Label, a.X, a.Y, 0.5, 0.5)
		}
	}
}

func (r *Renderer) drawActor(dc *gg.Context, a *game.ActorSnapshot) {
	x, y := a.X-a.W/2, a.Y-a.H/2

	if img := r.image(a.Texture); img != nil {
		ib := img.Bounds()
		dc.Push()
		dc.Translate(x, y)
		dc.Scale(a.W/float64(ib.Dx()), a.H/float64(ib.Dy()))
		dc.DrawImage(img, 0, 0)
		dc.Pop()
		return
	}

	tex, ok := r.atlas.Texture(a.Texture)
	fill := categoryColors[a.Category]
	shape := ShapeRect
	outline := ""
	if ok {
		fill = parseHexColor(tex.Color)
		shape = tex.Shape
		outline = tex.Outline
	}
	if !a.Alive {
		// dying actors fade while their animation plays
		fill.A = 120
	}
	if a.State == "invulnerable" {
		fill.A = 140
	}

	switch shape {
	case ShapeCircle:
		dc.DrawEllipse(a.X, a.Y, a.W/2, a.H/2)
	case ShapeTriangle:
		dc.MoveTo(x, y)
		dc.LineTo(x+a.W, a.Y)
		dc.LineTo(x, y+a.H)
		dc.ClosePath()
	default:
		dc.DrawRoundedRectangle(x, y, a.W, a.H, math.Min(a.W, a.H)*0.15)
	}
	dc.SetColor(fill)
	if outline == "" {
		dc.Fill()
		return
	}
	dc.FillPreserve()
	dc.SetColor(parseHexColor(outline))
	dc.SetLineWidth(2)
	dc.Stroke()
}

func (r *Renderer) drawFlashes(dc *gg.Context, flashes []game.FlashSnapshot) {
	for _, fl := range flashes {
		c := parseHexColor(fl.Color)
		c.A = uint8(clamp01(fl.Alpha) * 200)
		dc.SetColor(c)
		dc.DrawCircle(fl.X, fl.Y, fl.Radius)
		dc.Fill()
	}
}

func (r *Renderer) drawTexts(dc *gg.Context, texts []game.TextSnapshot) {
	if len(texts) == 0 {
		return
	}
	r.setFace(dc, r.medium())
	for _, t := range texts {
		c := parseHexColor(t.Color)
		c.A = uint8(clamp01(t.Alpha) * 255)
		dc.SetColor(c)
		dc.DrawStringAnchored(t.Text, t.X, t.Y, 0.5, 0.5)
	}
}

func (r *Renderer) drawHUD(dc *gg.Context, snap *game.GameSnapshot, width, height float64) {
	margin := 12.0
	cardW := math.Min(260, width-2*margin)
	cardH := 74.0
	if cardW <= 0 {
		return
	}

	// Shadow, card, accent edge
	dc.SetColor(color.RGBA{0, 0, 0, 40})
	dc.DrawRoundedRectangle(margin+3, margin+3, cardW, cardH, 6)
	dc.Fill()
	dc.SetColor(colorCard)
	dc.DrawRoundedRectangle(margin, margin, cardW, cardH, 6)
	dc.Fill()
	dc.SetColor(colorAccent)
	dc.DrawRoundedRectangle(margin, margin, 4, cardH, 2)
	dc.Fill()

	textX := margin + 16
	r.setFace(dc, r.medium())
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("SCORE %d", snap.Score), textX, margin+26)

	r.setFace(dc, r.small())
	dc.SetColor(colorSubtle)
	dc.DrawString(fmt.Sprintf("LIVES %d   KILLS %d", snap.Lives, snap.Kills), textX, margin+46)

	// Energy bar
	barW := cardW - 32
	barY := margin + 56
	dc.SetColor(color.RGBA{50, 50, 60, 255})
	dc.DrawRectangle(textX, barY, barW, 8)
	dc.Fill()
	if snap.MaxEnergy > 0 {
		frac := clamp01(float64(snap.Energy) / float64(snap.MaxEnergy))
		dc.SetColor(energyColor(frac))
		dc.DrawRectangle(textX, barY, barW*frac, 8)
		dc.Fill()
	}

	if snap.Prompt != "" {
		r.setFace(dc, r.medium())
		prompt := snap.Prompt
		if snap.QuestionCount > 0 {
			prompt = fmt.Sprintf("%s   (%d/%d)", snap.Prompt, snap.QuestionIndex+1, snap.QuestionCount)
		}
		dc.SetColor(color.White)
		dc.DrawStringAnchored(prompt, width/2, margin+cardH+24, 0.5, 0.5)
	}

	var banner string
	switch snap.State {
	case "game_over":
		banner = "GAME OVER"
	case "level_complete":
		banner = "LEVEL COMPLETE"
	case "initializing":
		banner = "GET READY"
	}
	if banner != "" {
		dc.SetColor(color.RGBA{0, 0, 0, 150})
		dc.DrawRectangle(0, height/2-40, width, 80)
		dc.Fill()
		r.setFace(dc, r.large())
		dc.SetColor(colorAccent)
		dc.DrawStringAnchored(banner, width/2, height/2, 0.5, 0.5)
	}
}

// image resolves a texture to a picture: an atlas image, or a direct file or
// URL reference such as a question bank picture. nil means draw the shape.
func (r *Renderer) image(texture string) image.Image {
	if path := r.atlas.ImagePath(texture); path != "" {
		return r.textures.Get(path)
	}
	if _, ok := r.atlas.Texture(texture); !ok && IsImageRef(texture) {
		return r.textures.Get(texture)
	}
	return nil
}

func (r *Renderer) setFace(dc *gg.Context, face font.Face) {
	if face != nil {
		dc.SetFontFace(face)
	}
}

func (r *Renderer) small() font.Face {
	if r.fonts == nil {
		return nil
	}
	return r.fonts.Small
}

func (r *Renderer) medium() font.Face {
	if r.fonts == nil {
		return nil
	}
	return r.fonts.Medium
}

func (r *Renderer) large() font.Face {
	if r.fonts == nil {
		return nil
	}
	return r.fonts.Large
}

func sortByDepth(order []int, actors []game.ActorSnapshot) {
	// insertion sort: frames hold few actors and are nearly sorted already
	for i := 1; i < len(order); i++ {
		for j := i; j > 0; j-- {
			a, b := actors[order[j-1]], actors[order[j]]
			if a.Depth < b.Depth || (a.Depth == b.Depth && a.ID <= b.ID) {
				break
			}
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
}

func energyColor(frac float64) color.RGBA {
	switch {
	case frac > 0.5:
		return color.RGBA{80, 220, 120, 255}
	case frac > 0.25:
		return color.RGBA{255, 200, 60, 255}
	default:
		return color.RGBA{255, 70, 70, 255}
	}
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
