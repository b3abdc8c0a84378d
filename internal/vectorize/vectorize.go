// Package vectorize converts between masks and vector shapes.
//
// ExtractPolygons traces the outer boundary of every 8-connected foreground
// region and FillPolygons rasterises polygons back onto a mask. The two are
// inverse to each other on pixel coverage: filling a blank mask, extracting
// and refilling a second blank mask gives the same pixels.
//
// # Coordinates
//
// With absolute set, coordinates are pixel indices. Otherwise x is divided
// by the mask width and y by the mask height on extraction, and multiplied
// back before rasterising.
//
// # Limitations
//
// Only outer boundaries are traced. A region with holes comes back as its
// outline, and refilling it fills the holes.
package vectorize

import (
	"math"
	"sort"

	"github.com/ironsheep/mask-annotations-mcp/internal/components"
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// Clockwise neighbour ring, starting west. Y grows downward.
var ring = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// ringIndex maps a neighbour offset to its position in ring.
func ringIndex(dx, dy int) int {
	for i, o := range ring {
		if o[0] == dx && o[1] == dy {
			return i
		}
	}
	return -1
}

type pixel struct{ x, y int }

// ExtractPolygons returns one polygon per 8-connected foreground region of
// m, in row-major order of each region's first pixel.
//
// Straight runs of boundary pixels (horizontal, vertical or diagonal) are
// reduced to their end points. A single-pixel region yields a one-point
// polygon.
func ExtractPolygons(m *mask.Mask, absolute bool) []geometry.Polygon {
	labels := components.Label(m, components.Eight)
	polys := make([]geometry.Polygon, 0, labels.Count())

	sx, sy := 1.0, 1.0
	if !absolute {
		sx, sy = 1/float64(m.Width()), 1/float64(m.Height())
	}

	seen := 0
	for y := 0; y < m.Height() && seen < labels.Count(); y++ {
		for x := 0; x < m.Width(); x++ {
			label := labels.At(x, y)
			if label != seen+1 {
				continue
			}
			seen++
			contour := simplify(traceBoundary(labels, label, pixel{x, y}))
			pts := make([]geometry.Point, len(contour))
			for i, p := range contour {
				pts[i] = geometry.Point{X: float64(p.x) * sx, Y: float64(p.y) * sy}
			}
			polys = append(polys, geometry.NewPolygon(pts))
		}
	}

	return polys
}

// traceBoundary walks the outer boundary of one region with Moore neighbour
// tracing. start must be the region's first pixel in row-major order, so its
// west neighbour is background.
//
// Tracing stops when the walk is back at start and about to repeat its
// first move.
func traceBoundary(labels *components.Labels, label int, start pixel) []pixel {
	inside := func(p pixel) bool { return labels.At(p.x, p.y) == label }

	contour := []pixel{start}
	cur := start
	back := 0 // ring index of the backtrack pixel relative to cur
	firstMove := -1
	maxSteps := 4*labels.Width()*labels.Height() + 8

	for step := 0; step < maxSteps; step++ {
		next := -1
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			if inside(pixel{cur.x + ring[d][0], cur.y + ring[d][1]}) {
				next = d
				break
			}
		}
		if next < 0 {
			// isolated pixel
			return contour
		}
		if cur == start {
			if firstMove == next {
				break
			}
			if firstMove < 0 {
				firstMove = next
			}
		}

		prev := (next + 7) % 8
		bx, by := cur.x+ring[prev][0], cur.y+ring[prev][1]
		cur = pixel{cur.x + ring[next][0], cur.y + ring[next][1]}
		back = ringIndex(bx-cur.x, by-cur.y)
		contour = append(contour, cur)
	}

	// the walk re-entered start; drop the closing duplicate
	if len(contour) > 1 && contour[len(contour)-1] == start {
		contour = contour[:len(contour)-1]
	}
	return contour
}

// simplify drops every point whose incoming and outgoing steps share a
// direction.
func simplify(contour []pixel) []pixel {
	n := len(contour)
	if n < 3 {
		return contour
	}
	out := make([]pixel, 0, n)
	for i, p := range contour {
		prev := contour[(i+n-1)%n]
		next := contour[(i+1)%n]
		if p.x-prev.x == next.x-p.x && p.y-prev.y == next.y-p.y {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return contour[:1]
	}
	return out
}

// FillPolygons writes value into every pixel covered by each polygon:
// the pixels on its edges and the pixel centres inside it. Vertices are
// rounded half to even after de-normalising. Pixels outside m are ignored.
func FillPolygons(polys []geometry.Polygon, value uint8, m *mask.Mask, absolute bool) {
	sx, sy := 1.0, 1.0
	if !absolute {
		sx, sy = float64(m.Width()), float64(m.Height())
	}

	for _, poly := range polys {
		if poly.Len() == 0 {
			continue
		}
		verts := make([]pixel, poly.Len())
		for i := range verts {
			p := poly.Point(i)
			verts[i] = pixel{
				x: int(math.RoundToEven(p.X * sx)),
				y: int(math.RoundToEven(p.Y * sy)),
			}
		}
		fillPolygon(verts, value, m)
	}
}

func fillPolygon(verts []pixel, value uint8, m *mask.Mask) {
	n := len(verts)
	for i := range verts {
		drawLine(verts[i], verts[(i+1)%n], value, m)
	}
	if n < 3 {
		return
	}

	minY, maxY := verts[0].y, verts[0].y
	for _, v := range verts {
		minY = min(minY, v.y)
		maxY = max(maxY, v.y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, m.Height()-1)

	xs := make([]float64, 0, n)
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range verts {
			a, b := verts[i], verts[(i+1)%n]
			// half-open in y so shared vertices count once
			if (a.y <= y && y < b.y) || (b.y <= y && y < a.y) {
				t := float64(y-a.y) / float64(b.y-a.y)
				xs = append(xs, float64(a.x)+t*float64(b.x-a.x))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := max(int(math.Ceil(xs[i])), 0)
			x1 := min(int(math.Floor(xs[i+1])), m.Width()-1)
			for x := x0; x <= x1; x++ {
				m.Set(x, y, value)
			}
		}
	}
}

// drawLine writes value along the Bresenham line from a to b inclusive.
func drawLine(a, b pixel, value uint8, m *mask.Mask) {
	dx := abs(b.x - a.x)
	dy := -abs(b.y - a.y)
	sx, sy := 1, 1
	if a.x > b.x {
		sx = -1
	}
	if a.y > b.y {
		sy = -1
	}
	err := dx + dy
	x, y := a.x, a.y
	for {
		m.Set(x, y, value)
		if x == b.x && y == b.y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FillBoxes writes value into every pixel of each box. Float boxes are
// scaled by the mask size when absolute is false and then rounded half to
// even per field; integer boxes are used as they are. Boxes are clipped to
// m.
func FillBoxes(boxes []geometry.Box, value uint8, m *mask.Mask, absolute bool) {
	for _, b := range boxes {
		var bi geometry.BoxI
		switch box := b.(type) {
		case geometry.BoxI:
			bi = box
		case geometry.BoxF:
			if !absolute {
				box = box.Scale(float64(m.Width()), float64(m.Height()))
			}
			bi = box.ToInt()
		default:
			continue
		}
		m.FillBox(bi, value)
	}
}
