package render

import (
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"word-arena/internal/game"
)

// Logical pixels per terminal cell. A cell is roughly twice as tall as wide.
const (
	CellWidth  = 8
	CellHeight = 16
)

// TerminalSurface renders the world into a tcell screen, scaling world
// coordinates onto the character grid.
//
// The surface reports its size as the terminal size in logical pixels, so
// after a terminal resize the engine's world follows the window.
type TerminalSurface struct {
	mu     sync.Mutex
	screen tcell.Screen
	worldW int
	worldH int

	listeners map[int]func()
	nextID    int
}

// NewTerminalSurface wraps an initialised screen.
func NewTerminalSurface(screen tcell.Screen) *TerminalSurface {
	cols, rows := screen.Size()
	return &TerminalSurface{
		screen:    screen,
		worldW:    max(1, cols*CellWidth),
		worldH:    max(1, rows*CellHeight),
		listeners: make(map[int]func()),
	}
}

// Size returns the terminal size in logical pixels.
func (s *TerminalSurface) Size() (int, int) {
	cols, rows := s.screen.Size()
	return cols * CellWidth, rows * CellHeight
}

// Resize sets the world extent mapped onto the terminal. The terminal
// itself cannot be resized from here.
func (s *TerminalSurface) Resize(width, height int) {
	s.mu.Lock()
	s.worldW = max(1, width)
	s.worldH = max(1, height)
	s.mu.Unlock()
}

// OnResize implements game.ResizeNotifier.
func (s *TerminalSurface) OnResize(fn func()) func() {
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

// HandleEvent processes a terminal resize: the world extent follows the new
// terminal size and resize listeners are notified. Other events are ignored.
// Returns true if the event was a resize.
func (s *TerminalSurface) HandleEvent(ev tcell.Event) bool {
	if _, ok := ev.(*tcell.EventResize); !ok {
		return false
	}
	s.screen.Sync()
	cols, rows := s.screen.Size()

	s.mu.Lock()
	s.worldW = max(1, cols*CellWidth)
	s.worldH = max(1, rows*CellHeight)
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}

// Context2D returns the drawing context.
func (s *TerminalSurface) Context2D() (game.Canvas, error) {
	return (*terminalCanvas)(s), nil
}

// toCell maps a world point onto the character grid.
func (s *TerminalSurface) toCell(x, y float64) (int, int) {
	cols, rows := s.screen.Size()
	cx := int(math.Floor(x * float64(cols) / float64(s.worldW)))
	cy := int(math.Floor(y * float64(rows) / float64(s.worldH)))
	return cx, cy
}

func toTcell(c color.Color) tcell.Color {
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}

type terminalCanvas TerminalSurface

func (c *terminalCanvas) Clear(width, height float64) {
	c.screen.Clear()
}

// FillRect paints every cell the rectangle touches; anything with a non-zero
// size covers at least one cell.
func (c *terminalCanvas) FillRect(x, y, width, height float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := (*TerminalSurface)(c)
	x0, y0 := s.toCell(x, y)
	x1, y1 := s.toCell(x+width, y+height)
	x1 = max(x1, x0+1)
	y1 = max(y1, y0+1)

	cols, rows := c.screen.Size()
	style := tcell.StyleDefault.Background(toTcell(col))
	for cy := max(0, y0); cy < min(rows, y1); cy++ {
		for cx := max(0, x0); cx < min(cols, x1); cx++ {
			c.screen.SetContent(cx, cy, ' ', nil, style)
		}
	}
}

func (c *terminalCanvas) FillText(text string, x, y float64, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := (*TerminalSurface)(c)
	cx, cy := s.toCell(x, y)
	// Text baselines sit at the bottom of a line; draw on the row above
	cy = max(0, cy-1)

	cols, rows := c.screen.Size()
	if cy >= rows {
		return
	}
	style := tcell.StyleDefault.Foreground(toTcell(col))
	for _, r := range text {
		if cx >= cols {
			break
		}
		if cx >= 0 {
			c.screen.SetContent(cx, cy, r, nil, style)
		}
		cx++
	}
}

func (c *terminalCanvas) Present() {
	c.screen.Show()
}
