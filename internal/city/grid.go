package city

import "math"

// DefaultCellSize is used when a grid is built with a non-positive cell size.
const DefaultCellSize = 16.0

type cellKey struct {
	X int
	Y int
}

// Grid is a uniform-cell spatial index over buildings. Buildings never move,
// so the index is built once and only queried afterwards.
type Grid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]*Building
}

// NewGrid indexes the given buildings using square cells of cellSize metres.
func NewGrid(buildings []*Building, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	g := &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]*Building),
	}
	for _, b := range buildings {
		key := g.keyFor(b.Position)
		g.cells[key] = append(g.cells[key], b)
	}
	return g
}

func (g *Grid) keyFor(p Point) cellKey {
	return cellKey{
		X: int(math.Floor(p.X * g.invCellSize)),
		Y: int(math.Floor(p.Y * g.invCellSize)),
	}
}

// Within calls fn for every building whose distance from center is at most
// radius. Visit order is deterministic for a given grid.
func (g *Grid) Within(center Point, radius float64, fn func(b *Building, dist float64)) {
	if g == nil || radius < 0 {
		return
	}
	lo := g.keyFor(Point{X: center.X - radius, Y: center.Y - radius})
	hi := g.keyFor(Point{X: center.X + radius, Y: center.Y + radius})
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for _, b := range g.cells[cellKey{X: cx, Y: cy}] {
				d := Distance(center, b.Position)
				if d <= radius {
					fn(b, d)
				}
			}
		}
	}
}
