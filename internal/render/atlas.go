package render

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed atlas.yaml
var defaultAtlas []byte

// ErrEmptyAtlas is returned for a manifest without textures
var ErrEmptyAtlas = errors.New("asset manifest has no textures")

// Shape is the fallback primitive for a texture without an image
type Shape string

const (
	ShapeRect     Shape = "rect"
	ShapeCircle   Shape = "circle"
	ShapeTriangle Shape = "triangle"
)

// Texture describes how one texture key is drawn
type Texture struct {
	Image   string `yaml:"image"`
	Shape   Shape  `yaml:"shape"`
	Color   string `yaml:"color"`
	Outline string `yaml:"outline"`
}

// Animation is a frame strip played at a fixed rate
type Animation struct {
	Frames int     `yaml:"frames"`
	FPS    float64 `yaml:"fps"`
	Loop   bool    `yaml:"loop"`
}

// Duration returns how long one pass of the strip takes
func (a Animation) Duration() time.Duration {
	if a.Frames <= 0 || a.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(a.Frames) / a.FPS * float64(time.Second))
}

// Atlas is the asset manifest: texture keys and named animations
type Atlas struct {
	Name       string               `yaml:"name"`
	Textures   map[string]Texture   `yaml:"textures"`
	Animations map[string]Animation `yaml:"animations"`

	// dir resolves relative image paths
	dir string
}

// DefaultAtlas returns the built-in manifest
func DefaultAtlas() *Atlas {
	a, err := ParseAtlas(defaultAtlas, "")
	if err != nil {
		panic(fmt.Sprintf("render: built-in atlas: %v", err))
	}
	return a
}

// LoadAtlas reads a YAML manifest. An empty path returns the built-in one.
func LoadAtlas(path string) (*Atlas, error) {
	if path == "" {
		return DefaultAtlas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset manifest %s: %w", path, err)
	}
	a, err := ParseAtlas(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("asset manifest %s: %w", path, err)
	}
	return a, nil
}

// ParseAtlas decodes and validates a manifest. dir anchors relative images.
func ParseAtlas(data []byte, dir string) (*Atlas, error) {
	var a Atlas
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse asset manifest: %w", err)
	}
	if len(a.Textures) == 0 {
		return nil, ErrEmptyAtlas
	}
	for key, tex := range a.Textures {
		switch tex.Shape {
		case "":
			tex.Shape = ShapeRect
		case ShapeRect, ShapeCircle, ShapeTriangle:
		default:
			return nil, fmt.Errorf("texture %q: unknown shape %q", key, tex.Shape)
		}
		if tex.Color == "" {
			tex.Color = "#ffffff"
		}
		a.Textures[key] = tex
	}
	for name, anim := range a.Animations {
		if anim.Frames <= 0 || anim.FPS <= 0 {
			return nil, fmt.Errorf("animation %q needs positive frames and fps", name)
		}
	}
	a.dir = dir
	return &a, nil
}

// Texture looks up a texture key
func (a *Atlas) Texture(key string) (Texture, bool) {
	tex, ok := a.Textures[key]
	return tex, ok
}

// ImagePath returns the resolved image file of a texture, or "" for shapes
func (a *Atlas) ImagePath(key string) string {
	tex, ok := a.Textures[key]
	if !ok || tex.Image == "" {
		return ""
	}
	if filepath.IsAbs(tex.Image) || a.dir == "" {
		return tex.Image
	}
	return filepath.Join(a.dir, tex.Image)
}

// AnimationDuration reports the length of a named animation
func (a *Atlas) AnimationDuration(name string) (time.Duration, bool) {
	anim, ok := a.Animations[strings.TrimSpace(name)]
	if !ok {
		return 0, false
	}
	return anim.Duration(), true
}
