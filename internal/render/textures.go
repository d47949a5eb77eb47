package render

import (
	"fmt"
	"image"
	_ "image/gif"  // GIF textures
	_ "image/jpeg" // JPEG textures
	_ "image/png"  // PNG textures
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // WebP textures (question bank pictures)
)

const (
	DefaultMaxTextures    = 128
	RemoteTextureTTL      = 30 * time.Minute
	MaxConcurrentFetches  = 3
	TextureFetchTimeout   = 5 * time.Second
	maxRemoteTextureBytes = 4 << 20
)

// imageExts are the file names treated as direct image references when a
// texture key is not in the atlas
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

type cachedTexture struct {
	img      image.Image // nil records a failed load
	loadedAt time.Time
	remote   bool
}

// TextureCache holds decoded texture images with LRU eviction. Files load
// synchronously; http(s) images are fetched in the background and drawn once
// they arrive.
type TextureCache struct {
	mu      sync.Mutex
	images  map[string]*cachedTexture
	order   []string // LRU order (oldest first)
	maxSize int

	pending map[string]bool
	client  *http.Client
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewTextureCache creates a cache holding up to maxSize images
func NewTextureCache(maxSize int) *TextureCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxTextures
	}
	return &TextureCache{
		images:  make(map[string]*cachedTexture),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		pending: make(map[string]bool),
		client:  &http.Client{Timeout: TextureFetchTimeout},
		sem:     make(chan struct{}, MaxConcurrentFetches),
	}
}

// IsImageRef reports whether a texture key names an image directly
func IsImageRef(ref string) bool {
	if isRemote(ref) {
		return true
	}
	return imageExts[strings.ToLower(filepath.Ext(ref))]
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Get returns the image for a file path or URL, or nil while it is missing,
// loading or failed. It never blocks on the network.
func (c *TextureCache) Get(ref string) image.Image {
	if ref == "" {
		return nil
	}

	c.mu.Lock()
	if t, ok := c.images[ref]; ok {
		if !t.remote || time.Since(t.loadedAt) <= RemoteTextureTTL {
			c.touch(ref)
			c.mu.Unlock()
			return t.img
		}
		c.remove(ref)
	}
	if isRemote(ref) {
		if !c.pending[ref] {
			c.pending[ref] = true
			c.wg.Add(1)
			go c.fetchAsync(ref)
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	img, err := loadFile(ref)
	if err != nil {
		log.Printf("⚠️ Texture %s failed to load: %v", ref, err)
	}
	c.store(ref, img, false)
	return img
}

// Wait blocks until background fetches finish
func (c *TextureCache) Wait() {
	c.wg.Wait()
}

// Size returns the number of cached entries
func (c *TextureCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func (c *TextureCache) fetchAsync(url string) {
	defer c.wg.Done()
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	defer func() {
		c.mu.Lock()
		delete(c.pending, url)
		c.mu.Unlock()
	}()

	img, err := c.fetch(url)
	if err != nil {
		log.Printf("⚠️ Texture fetch failed for %s: %v", url, err)
	}
	c.store(url, img, true)
}

func (c *TextureCache) fetch(url string) (image.Image, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxRemoteTextureBytes))
	if err != nil {
		return nil, fmt.Errorf("decode (Content-Type: %s): %w", resp.Header.Get("Content-Type"), err)
	}
	return img, nil
}

func loadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func (c *TextureCache) store(ref string, img image.Image, remote bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[ref]; !ok && len(c.images) >= c.maxSize {
		c.evict()
	}
	if _, ok := c.images[ref]; !ok {
		c.order = append(c.order, ref)
	}
	c.images[ref] = &cachedTexture{img: img, loadedAt: time.Now(), remote: remote}
}

// touch moves ref to the newest end. Caller holds mu.
func (c *TextureCache) touch(ref string) {
	for i, k := range c.order {
		if k == ref {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), ref)
			return
		}
	}
}

// remove drops ref. Caller holds mu.
func (c *TextureCache) remove(ref string) {
	delete(c.images, ref)
	for i, k := range c.order {
		if k == ref {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			return
		}
	}
}

// evict removes the least recently used texture. Caller holds mu.
func (c *TextureCache) evict() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.images, oldest)
}
