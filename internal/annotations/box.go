package annotations

import (
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
	"github.com/ironsheep/mask-annotations-mcp/internal/vectorize"
)

// BoxAnnotations is a set of box and polygon annotations.
type BoxAnnotations struct {
	Set[geometry.Shape]
}

// NewBoxAnnotations builds a box set from parallel slices.
func NewBoxAnnotations(elts []geometry.Shape, catIdxs []int, selected []bool) (*BoxAnnotations, error) {
	set, err := NewSet(elts, catIdxs, selected)
	if err != nil {
		return nil, err
	}
	return &BoxAnnotations{Set: set}, nil
}

// BoxAnnotationsFromMask traces every foreground region of m and wraps the
// outlines as unselected polygons of category catIdx. Coordinates are pixel
// indices.
func BoxAnnotationsFromMask(m *mask.Mask, catIdx int) *BoxAnnotations {
	polys := vectorize.ExtractPolygons(m, true)
	a := &BoxAnnotations{}
	for _, p := range polys {
		a.push(geometry.ShapeFromPolygon(p), catIdx, false)
	}
	Logger().Debug("box annotations from mask", "polygons", len(polys), "cat_idx", catIdx)
	return a
}

func shapesEqual(a, b geometry.Shape) bool {
	return a.Equals(b, geometry.Epsilon)
}

// Append adds shape under catIdx unless an equal shape (within
// geometry.Epsilon) already exists in the same category. It reports whether
// the shape was added.
func (a *BoxAnnotations) Append(shape geometry.Shape, catIdx int, selected bool) bool {
	added := a.appendUnique(shape, catIdx, selected, shapesEqual)
	if !added {
		Logger().Debug("skipped duplicate shape", "cat_idx", catIdx, "box", shape.GoverningBox())
	}
	return added
}

// Extend appends every entry of other with the Append dedup rule. A nil
// other is a no-op.
func (a *BoxAnnotations) Extend(other *BoxAnnotations) {
	if other == nil {
		return
	}
	for i := range other.elts {
		a.Append(other.elts[i], other.catIdxs[i], other.selected[i])
	}
}

// FillMask rasterises every shape of category catIdx onto m with value.
// Coordinates are taken as pixel indices.
func (a *BoxAnnotations) FillMask(m *mask.Mask, catIdx int, value uint8) {
	var polys []geometry.Polygon
	var boxes []geometry.Box
	for i, s := range a.All() {
		if a.catIdxs[i] != catIdx {
			continue
		}
		switch s.Kind() {
		case geometry.KindPolygon:
			p, _ := s.Polygon()
			polys = append(polys, p)
		case geometry.KindBox:
			b, _ := s.Box()
			boxes = append(boxes, b)
		}
	}
	vectorize.FillPolygons(polys, value, m, true)
	vectorize.FillBoxes(boxes, value, m, true)
}

// Clone returns a copy that shares no slices with a.
func (a *BoxAnnotations) Clone() *BoxAnnotations {
	if a == nil {
		return nil
	}
	c := &BoxAnnotations{}
	for i := range a.elts {
		c.push(a.elts[i], a.catIdxs[i], a.selected[i])
	}
	return c
}
