package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word-arena/internal/game"
)

var green = color.RGBA{0, 200, 0, 255}

func TestRasterSurfaceSize(t *testing.T) {
	s := NewRasterSurface(64, 48)
	w, h := s.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	s.Resize(0, -3)
	w, h = s.Size()
	assert.Equal(t, 1, w, "sizes are at least 1")
	assert.Equal(t, 1, h)
}

func TestRasterPresentFlipsBuffers(t *testing.T) {
	s := NewRasterSurface(64, 48)
	canvas, err := s.Context2D()
	require.NoError(t, err)

	canvas.Clear(64, 48)
	canvas.FillRect(0, 0, 20, 20, green)

	// Nothing presented yet
	assert.Zero(t, s.Frame().RGBAAt(5, 5).A)

	canvas.(game.Presenter).Present()

	frame := s.Frame()
	assert.Equal(t, green, frame.RGBAAt(5, 5))
	assert.Equal(t, Background, frame.RGBAAt(40, 40))
	assert.Equal(t, uint64(1), s.Frames())
}

func TestRasterEncodePNG(t *testing.T) {
	s := NewRasterSurface(32, 16)
	canvas, _ := s.Context2D()
	canvas.Clear(32, 16)
	canvas.FillText("hi", 2, 12, color.White)
	canvas.(game.Presenter).Present()

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestRasterHostResizeNotifies(t *testing.T) {
	s := NewRasterSurface(64, 48)
	calls := 0
	cancel := s.OnResize(func() { calls++ })

	s.HostResize(100, 80)
	assert.Equal(t, 1, calls)
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)

	// Programmatic resizes stay silent
	s.Resize(120, 90)
	assert.Equal(t, 1, calls)

	cancel()
	s.HostResize(50, 50)
	assert.Equal(t, 1, calls)
}

func TestWithFontFileFallsBack(t *testing.T) {
	s := NewRasterSurface(32, 32, WithFontFile(filepath.Join(t.TempDir(), "missing.ttf"), 12))
	canvas, _ := s.Context2D()

	assert.NotPanics(t, func() { canvas.FillText("ok", 1, 12, color.White) })
}

func TestEngineRendersIntoRaster(t *testing.T) {
	sched := game.NewManualScheduler()
	clock := game.NewManualClock(time.Unix(0, 0))
	engine := game.NewEngine(game.WithScheduler(sched), game.WithClock(clock), game.WithWorldSize(200, 100))
	defer engine.Dispose()

	surface := NewRasterSurface(10, 10)
	require.NoError(t, engine.Initialize(surface))

	w, h := surface.Size()
	require.Equal(t, 200, w, "initialize sizes the surface")
	require.Equal(t, 100, h)

	engine.AddObject(game.NewGameObject("p", game.TypePlayer, 20, 20, 30, 30))
	engine.Start()
	clock.Advance(16 * time.Millisecond)
	sched.Step()

	frame := surface.Frame()
	assert.Equal(t, game.ColorPlayer, frame.RGBAAt(35, 35))
	assert.Equal(t, Background, frame.RGBAAt(150, 80))

	// A viewer-driven resize reaches the engine
	surface.HostResize(300, 150)
	assert.Equal(t, 300, engine.Config().CanvasWidth)
}
