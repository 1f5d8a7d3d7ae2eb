// Package spatial provides the uniform grid used for broad-phase collision
// detection and neighbour queries.
//
// The grid stores item references in every cell their bounding box touches.
// Queries return a superset of the true overlaps; callers finish with the exact
// Intersects test (narrow phase).
package spatial

import (
	"math"
)

// DefaultCellSize is used when a grid is built with a non-positive cell size.
const DefaultCellSize = 64.0

// Rect is an axis-aligned bounding box. X/Y is the top-left corner.
type Rect struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"w"`
	Height float64 `json:"height" msgpack:"h"`
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Intersects reports whether two boxes overlap on both axes.
// Touching edges count as overlap.
func Intersects(a, b Rect) bool {
	return !(a.Right() < b.X ||
		b.Right() < a.X ||
		a.Bottom() < b.Y ||
		b.Bottom() < a.Y)
}

// Item is anything the grid can index. Items are compared by identity, so
// pointer types are the usual choice.
type Item interface {
	comparable
	Bounds() Rect
}

// Grid provides O(1) average range queries via fixed-size cells.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col]).
// Each cell behaves as a set: inserting the same item twice is harmless.
// Cells are short slices rather than maps so queries return items in a stable
// order (row-major cell order, then insertion order).
type Grid[T Item] struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cols, rows  int
	cells       [][]T
	seen        map[T]struct{} // reusable dedup set for queries
}

// NewGrid creates a grid covering worldWidth x worldHeight.
func NewGrid[T Item](worldWidth, worldHeight, cellSize float64) *Grid[T] {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]T, cols*rows)

	return &Grid[T]{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		seen:        make(map[T]struct{}, 64),
	}
}

// cellRange computes the inclusive column/row span covered by r.
// The span is not clamped; callers skip indices outside the grid.
func (g *Grid[T]) cellRange(r Rect) (minCol, minRow, maxCol, maxRow int) {
	minCol = int(math.Floor(r.X * g.invCellSize))
	minRow = int(math.Floor(r.Y * g.invCellSize))
	maxCol = int(math.Floor(r.Right() * g.invCellSize))
	maxRow = int(math.Floor(r.Bottom() * g.invCellSize))
	return
}

// forEachCell calls fn with every in-bounds cell index overlapped by r.
func (g *Grid[T]) forEachCell(r Rect, fn func(idx int)) {
	minCol, minRow, maxCol, maxRow := g.cellRange(r)

	if minCol < 0 {
		minCol = 0
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxCol >= g.cols {
		maxCol = g.cols - 1
	}
	if maxRow >= g.rows {
		maxRow = g.rows - 1
	}

	for row := minRow; row <= maxRow; row++ {
		base := row * g.cols
		for col := minCol; col <= maxCol; col++ {
			fn(base + col)
		}
	}
}

// Insert adds item to every cell its bounding box overlaps.
func (g *Grid[T]) Insert(item T) {
	g.forEachCell(item.Bounds(), func(idx int) {
		for _, existing := range g.cells[idx] {
			if existing == item {
				return
			}
		}
		g.cells[idx] = append(g.cells[idx], item)
	})
}

// Remove deletes item from the cells its current bounding box overlaps.
// An item whose box moved since insertion must be removed before it moves,
// or cleared with Clear.
func (g *Grid[T]) Remove(item T) {
	g.forEachCell(item.Bounds(), func(idx int) {
		cell := g.cells[idx]
		for i, existing := range cell {
			if existing == item {
				g.cells[idx] = append(cell[:i], cell[i+1:]...)
				var zero T
				cell[len(cell)-1] = zero
				return
			}
		}
	})
}

// Clear empties every cell without releasing cell storage.
// This is O(cells), not O(items); the engine calls it once per tick.
func (g *Grid[T]) Clear() {
	for i := range g.cells {
		clear(g.cells[i]) // drop references so released items can be collected
		g.cells[i] = g.cells[i][:0]
	}
}

// QueryRange returns every item found in a cell overlapping r, each once.
// The result may include items whose boxes do not overlap r.
func (g *Grid[T]) QueryRange(r Rect) []T {
	clear(g.seen)

	var result []T
	g.forEachCell(r, func(idx int) {
		for _, item := range g.cells[idx] {
			if _, dup := g.seen[item]; dup {
				continue
			}
			g.seen[item] = struct{}{}
			result = append(result, item)
		}
	})
	return result
}

// QueryRadius approximates a circular query with the square of side 2*radius
// centred on (cx, cy).
func (g *Grid[T]) QueryRadius(cx, cy, radius float64) []T {
	return g.QueryRange(Rect{
		X:      cx - radius,
		Y:      cy - radius,
		Width:  radius * 2,
		Height: radius * 2,
	})
}

// Stats returns grid statistics for debugging/profiling.
func (g *Grid[T]) Stats() GridStats {
	var memberships, maxInCell, occupied int
	for _, cell := range g.cells {
		count := len(cell)
		memberships += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			occupied++
		}
	}

	avg := 0.0
	if occupied > 0 {
		avg = float64(memberships) / float64(occupied)
	}

	return GridStats{
		TotalCells:       len(g.cells),
		OccupiedCells:    occupied,
		TotalMemberships: memberships,
		MaxInCell:        maxInCell,
		AvgPerOccupied:   avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells       int     `json:"totalCells" msgpack:"totalCells"`
	OccupiedCells    int     `json:"occupiedCells" msgpack:"occupiedCells"`
	TotalMemberships int     `json:"totalMemberships" msgpack:"totalMemberships"`
	MaxInCell        int     `json:"maxInCell" msgpack:"maxInCell"`
	AvgPerOccupied   float64 `json:"avgPerOccupied" msgpack:"avgPerOccupied"`
}

// Dimensions returns the grid dimensions.
func (g *Grid[T]) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
