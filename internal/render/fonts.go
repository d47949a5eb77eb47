package render

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the HUD faces at three sizes. A nil *Fonts, or nil faces, make
// the renderer fall back to gg's built-in face.
type Fonts struct {
	Path   string
	Small  font.Face
	Medium font.Face
	Large  font.Face
}

// LoadFonts parses a TrueType/OpenType file once. An empty path searches the
// usual system locations.
func LoadFonts(path string) (*Fonts, error) {
	if path == "" {
		path = findFontPath()
	}
	if path == "" {
		return nil, fmt.Errorf("no font found")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	f := &Fonts{Path: path}
	for _, face := range []struct {
		dst  *font.Face
		size float64
	}{
		{&f.Small, 14},
		{&f.Medium, 20},
		{&f.Large, 36},
	} {
		*face.dst, err = opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    face.size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %.0fpt face: %w", face.size, err)
		}
	}
	return f, nil
}

func findFontPath() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
