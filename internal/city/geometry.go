// Package city provides the static city model: buildings, water stations,
// planar geometry, a spatial index for neighbour queries, and layout generation.
package city

import "math"

// Point is a position in city space (metres, origin at the south-west corner).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// MoveToward advances from toward target by at most step and returns the new
// position and the distance actually covered. It never overshoots the target.
func MoveToward(from, target Point, step float64) (Point, float64) {
	dist := Distance(from, target)
	if dist == 0 || step <= 0 {
		return from, 0
	}
	if step >= dist {
		return target, dist
	}
	ratio := step / dist
	return Point{
		X: from.X + (target.X-from.X)*ratio,
		Y: from.Y + (target.Y-from.Y)*ratio,
	}, step
}

// Clamp keeps p inside the rectangle [0,width]×[0,height].
func Clamp(p Point, width, height float64) Point {
	return Point{X: clamp(p.X, 0, width), Y: clamp(p.Y, 0, height)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
