package geometry

import (
	"encoding/json"
	"math"
)

// Point is a 2D coordinate. Values may be pixel indices or normalised
// fractions of the image size depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Equals compares both coordinates with absolute tolerance eps.
func (p Point) Equals(o Point, eps float64) bool {
	return math.Abs(p.X-o.X) <= eps && math.Abs(p.Y-o.Y) <= eps
}

// Polygon is an ordered ring of points together with its enclosing box.
//
// The enclosing box is derived from the points and cannot be set
// independently; use NewPolygon to build one.
type Polygon struct {
	points []Point
	box    BoxF
}

// NewPolygon copies points and computes the enclosing box.
func NewPolygon(points []Point) Polygon {
	pts := make([]Point, len(points))
	copy(pts, points)
	return Polygon{points: pts, box: EnclosingBox(pts)}
}

// EnclosingBox returns the tight bound of points. Width and height are
// max-min+1 so that a box around pixel indices covers the last pixel column
// and row. An empty slice yields the zero box.
func EnclosingBox(points []Point) BoxF {
	if len(points) == 0 {
		return BoxF{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BoxF{X: minX, Y: minY, W: maxX + 1 - minX, H: maxY + 1 - minY}
}

// Points returns a copy of the polygon's vertices.
func (p Polygon) Points() []Point {
	pts := make([]Point, len(p.points))
	copy(pts, p.points)
	return pts
}

// Len returns the number of vertices.
func (p Polygon) Len() int { return len(p.points) }

// Point returns vertex i.
func (p Polygon) Point(i int) Point { return p.points[i] }

// EnclosingBox returns the tight bound of the vertices.
func (p Polygon) EnclosingBox() BoxF { return p.box }

// Equals compares vertex count, each vertex and the enclosing box with
// tolerance eps.
func (p Polygon) Equals(o Polygon, eps float64) bool {
	if len(p.points) != len(o.points) {
		return false
	}
	for i := range p.points {
		if !p.points[i].Equals(o.points[i], eps) {
			return false
		}
	}
	return p.box.Equals(o.box, eps)
}

type polygonJSON struct {
	Points      []Point `json:"points"`
	EnclosingBB BoxF    `json:"enclosing_bb"`
}

// MarshalJSON writes {"points": [...], "enclosing_bb": {...}}.
func (p Polygon) MarshalJSON() ([]byte, error) {
	pts := p.points
	if pts == nil {
		pts = []Point{}
	}
	return json.Marshal(polygonJSON{Points: pts, EnclosingBB: p.box})
}

// UnmarshalJSON reads the points and recomputes the enclosing box; a
// transmitted enclosing_bb is ignored.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var raw polygonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = NewPolygon(raw.Points)
	return nil
}
