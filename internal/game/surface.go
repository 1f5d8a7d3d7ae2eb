package game

import (
	"errors"
	"image/color"
)

var (
	// ErrNilSurface is returned by Initialize when no surface is given.
	ErrNilSurface = errors.New("game: nil surface")
	// ErrNoContext is returned by Initialize when the surface cannot supply
	// a drawing context.
	ErrNoContext = errors.New("game: surface has no 2D drawing context")
)

// Canvas is the minimal 2D drawing context the render pass needs.
type Canvas interface {
	Clear(width, height float64)
	FillRect(x, y, width, height float64, c color.Color)
	FillText(text string, x, y float64, c color.Color)
}

// Presenter is implemented by canvases that buffer a frame and need an
// explicit flip once the render pass is done.
type Presenter interface {
	Present()
}

// Surface is the rendering target handed to Initialize.
type Surface interface {
	Size() (width, height int)
	Resize(width, height int)
	Context2D() (Canvas, error)
}

// ResizeNotifier is implemented by surfaces that can report size changes.
// The returned function unsubscribes.
type ResizeNotifier interface {
	OnResize(fn func()) (cancel func())
}

// Render colours per object type.
var (
	ColorPlayer     = color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff} // green
	ColorObstacle   = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff} // red
	ColorWordBubble = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff} // blue
	ColorPowerup    = color.RGBA{R: 0xfa, G: 0xcc, B: 0x15, A: 0xff} // yellow
	ColorDefault    = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff} // gray
	ColorDebugText  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ColorFor returns the fill colour for an object type.
func ColorFor(t ObjectType) color.RGBA {
	switch t {
	case TypePlayer:
		return ColorPlayer
	case TypeObstacle:
		return ColorObstacle
	case TypeWordBubble:
		return ColorWordBubble
	case TypePowerup:
		return ColorPowerup
	default:
		return ColorDefault
	}
}
