// Package render provides the drawing surfaces the engine renders into: an
// off-screen raster (served as PNG frames) and a terminal view.
package render

import (
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"word-arena/internal/game"
)

// Background is the colour a cleared frame starts from.
var Background = color.RGBA{12, 12, 28, 255}

// RasterSurface renders into two gg contexts: the engine draws into the back
// buffer and Present flips it to the front, where HTTP readers encode it.
type RasterSurface struct {
	mu       sync.Mutex
	width    int
	height   int
	contexts [2]*gg.Context
	back     int
	face     font.Face

	frames    atomic.Uint64
	listeners map[int]func()
	nextID    int
}

// RasterOption configures a RasterSurface.
type RasterOption func(*RasterSurface)

// WithFontFile loads a TrueType/OpenType font for text. Failures are logged
// and the built-in bitmap face is kept.
func WithFontFile(path string, size float64) RasterOption {
	return func(s *RasterSurface) {
		if face, err := loadFace(path, size); err != nil {
			log.Printf("⚠️ Failed to load font %s: %v", path, err)
		} else {
			s.face = face
		}
	}
}

// NewRasterSurface creates a width x height surface.
func NewRasterSurface(width, height int, opts ...RasterOption) *RasterSurface {
	s := &RasterSurface{
		face:      basicfont.Face7x13,
		listeners: make(map[int]func()),
	}
	s.allocate(width, height)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RasterSurface) allocate(width, height int) {
	s.width = max(1, width)
	s.height = max(1, height)
	s.contexts = [2]*gg.Context{
		gg.NewContext(s.width, s.height),
		gg.NewContext(s.width, s.height),
	}
	s.back = 0
}

// loadFace parses a font file once; faces are reused for every frame.
func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// FindFont returns the first font found in common system locations, or "".
func FindFont() string {
	if p := os.Getenv("FONT_PATH"); p != "" {
		return p
	}

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

// Size returns the surface size in pixels.
func (s *RasterSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize reallocates both buffers. The previous frame is discarded.
func (s *RasterSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max(1, width) == s.width && max(1, height) == s.height {
		return
	}
	s.allocate(width, height)
}

// HostResize resizes the surface on behalf of its viewer and tells resize
// listeners (the engine) about it.
func (s *RasterSurface) HostResize(width, height int) {
	s.Resize(width, height)

	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnResize implements game.ResizeNotifier.
func (s *RasterSurface) OnResize(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Context2D returns the drawing context. It never fails.
func (s *RasterSurface) Context2D() (game.Canvas, error) {
	return (*rasterCanvas)(s), nil
}

// Frames returns how many frames have been presented.
func (s *RasterSurface) Frames() uint64 {
	return s.frames.Load()
}

// EncodePNG writes the last presented frame.
func (s *RasterSurface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contexts[1-s.back].EncodePNG(w)
}

// Frame returns a copy of the last presented frame.
func (s *RasterSurface) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.contexts[1-s.back].Image()
	dst := image.NewRGBA(src.Bounds())
	if rgba, ok := src.(*image.RGBA); ok {
		copy(dst.Pix, rgba.Pix)
		return dst
	}

	// Fallback for other image types
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}

// rasterCanvas is the game.Canvas view of a RasterSurface; it draws into
// the back buffer.
type rasterCanvas RasterSurface

func (c *rasterCanvas) Clear(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dc := c.contexts[c.back]
	dc.SetColor(Background)
	dc.DrawRectangle(0, 0, width, height)
	dc.Fill()
}

func (c *rasterCanvas) FillRect(x, y, width, height float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dc := c.contexts[c.back]
	dc.SetColor(col)
	dc.DrawRectangle(x, y, width, height)
	dc.Fill()
}

func (c *rasterCanvas) FillText(text string, x, y float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dc := c.contexts[c.back]
	dc.SetFontFace(c.face)
	dc.SetColor(col)
	dc.DrawString(text, x, y)
}

// Present flips the buffers so readers see the completed frame.
func (c *rasterCanvas) Present() {
	c.mu.Lock()
	c.back = 1 - c.back
	c.mu.Unlock()

	c.frames.Add(1)
}
