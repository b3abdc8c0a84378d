package geometry

import (
	"fmt"
	"image"
	"math"
)

// Epsilon is the default absolute tolerance for comparing coordinates of
// shapes. It is a tunable, not a precision guarantee.
var Epsilon = 1e-6

// Box is implemented by BoxI and BoxF.
//
// Float returns the box with float-valued fields. Integer boxes convert
// exactly, so operations on two boxes may be carried out on their float
// forms without loss.
type Box interface {
	Float() BoxF
	isBox()
}

// BoxI is an axis-aligned box with integer top-left corner and size.
type BoxI struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// BoxIFromRowCols builds a box from half-open row and column ranges.
func BoxIFromRowCols(rMin, cMin, rMax, cMax int) BoxI {
	return BoxI{X: cMin, Y: rMin, W: cMax - cMin, H: rMax - rMin}
}

func (BoxI) isBox() {}

// CMin is the first column covered by the box.
func (b BoxI) CMin() int { return b.X }

// CMax is one past the last column covered by the box.
func (b BoxI) CMax() int { return b.X + b.W }

// RMin is the first row covered by the box.
func (b BoxI) RMin() int { return b.Y }

// RMax is one past the last row covered by the box.
func (b BoxI) RMax() int { return b.Y + b.H }

// Area returns W*H.
func (b BoxI) Area() int { return b.W * b.H }

// Float converts the box to a BoxF without rounding.
func (b BoxI) Float() BoxF { return FromInt(b) }

// Rect returns the box as an image.Rectangle.
func (b BoxI) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// IsEmpty reports whether the box covers no pixels.
func (b BoxI) IsEmpty() bool { return b.W <= 0 || b.H <= 0 }

func (b BoxI) String() string {
	return fmt.Sprintf("BoxI(x=%d, y=%d, w=%d, h=%d)", b.X, b.Y, b.W, b.H)
}

// BoxF is an axis-aligned box with float top-left corner and size.
type BoxF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// BoxFFromRowCols builds a box from half-open row and column ranges.
func BoxFFromRowCols(rMin, cMin, rMax, cMax float64) BoxF {
	return BoxF{X: cMin, Y: rMin, W: cMax - cMin, H: rMax - rMin}
}

// FromInt converts an integer box to a float box.
func FromInt(b BoxI) BoxF {
	return BoxF{X: float64(b.X), Y: float64(b.Y), W: float64(b.W), H: float64(b.H)}
}

func (BoxF) isBox() {}

// CMin is the left edge.
func (b BoxF) CMin() float64 { return b.X }

// CMax is the right edge (exclusive).
func (b BoxF) CMax() float64 { return b.X + b.W }

// RMin is the top edge.
func (b BoxF) RMin() float64 { return b.Y }

// RMax is the bottom edge (exclusive).
func (b BoxF) RMax() float64 { return b.Y + b.H }

// Area returns W*H.
func (b BoxF) Area() float64 { return b.W * b.H }

// Float returns the box itself.
func (b BoxF) Float() BoxF { return b }

// ToInt rounds every field independently, halves to even.
func (b BoxF) ToInt() BoxI {
	return BoxI{
		X: int(math.RoundToEven(b.X)),
		Y: int(math.RoundToEven(b.Y)),
		W: int(math.RoundToEven(b.W)),
		H: int(math.RoundToEven(b.H)),
	}
}

// Scale multiplies the x-axis fields by sx and the y-axis fields by sy.
func (b BoxF) Scale(sx, sy float64) BoxF {
	return BoxF{X: b.X * sx, Y: b.Y * sy, W: b.W * sx, H: b.H * sy}
}

// Equals compares all four fields with absolute tolerance eps.
func (b BoxF) Equals(o BoxF, eps float64) bool {
	return math.Abs(b.X-o.X) <= eps &&
		math.Abs(b.Y-o.Y) <= eps &&
		math.Abs(b.W-o.W) <= eps &&
		math.Abs(b.H-o.H) <= eps
}

func (b BoxF) String() string {
	return fmt.Sprintf("BoxF(x=%g, y=%g, w=%g, h=%g)", b.X, b.Y, b.W, b.H)
}

// Contains reports whether inner lies inside outer. Lower bounds are
// inclusive and upper bounds exclusive on both axes, so every box contains
// itself.
func Contains(outer, inner Box) bool {
	o, i := outer.Float(), inner.Float()
	return i.CMin() >= o.CMin() && i.CMax() <= o.CMax() &&
		i.RMin() >= o.RMin() && i.RMax() <= o.RMax()
}

// Intersect clips both boxes to their overlap. The second result is false
// when the overlap is empty in either dimension. The result is a BoxI only
// when both a and b are BoxI.
func Intersect(a, b Box) (Box, bool) {
	ai, aInt := a.(BoxI)
	bi, bInt := b.(BoxI)
	if aInt && bInt {
		cMin := max(ai.CMin(), bi.CMin())
		cMax := min(ai.CMax(), bi.CMax())
		rMin := max(ai.RMin(), bi.RMin())
		rMax := min(ai.RMax(), bi.RMax())
		if cMin >= cMax || rMin >= rMax {
			return nil, false
		}
		return BoxIFromRowCols(rMin, cMin, rMax, cMax), true
	}

	af, bf := a.Float(), b.Float()
	cMin := math.Max(af.CMin(), bf.CMin())
	cMax := math.Min(af.CMax(), bf.CMax())
	rMin := math.Max(af.RMin(), bf.RMin())
	rMax := math.Min(af.RMax(), bf.RMax())
	if cMin >= cMax || rMin >= rMax {
		return nil, false
	}
	return BoxFFromRowCols(rMin, cMin, rMax, cMax), true
}

// Area returns the area of any box as a float.
func Area(b Box) float64 {
	return b.Float().Area()
}

// Equals compares two boxes of either kind field by field with tolerance eps.
func Equals(a, b Box, eps float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Float().Equals(b.Float(), eps)
}
