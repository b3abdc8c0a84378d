package annotations

import (
	"fmt"

	"github.com/ironsheep/mask-annotations-mcp/internal/components"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
	"github.com/ironsheep/mask-annotations-mcp/internal/rle"
)

// BrushAnnotations is a set of brush canvases.
type BrushAnnotations struct {
	Set[Canvas]
}

// NewBrushAnnotations builds a brush set from parallel slices.
func NewBrushAnnotations(elts []Canvas, catIdxs []int, selected []bool) (*BrushAnnotations, error) {
	set, err := NewSet(elts, catIdxs, selected)
	if err != nil {
		return nil, err
	}
	return &BrushAnnotations{Set: set}, nil
}

// BrushAnnotationsFromMask splits m into connected components and stores
// each as an unselected canvas of category catIdx with intensity 1.
func BrushAnnotationsFromMask(m *mask.Mask, catIdx int) *BrushAnnotations {
	comps, _ := components.Find(m)
	a := &BrushAnnotations{}
	for _, c := range comps {
		canvas, err := CanvasFromMask(c.Mask, c.Box, 1)
		if err != nil {
			Logger().Warn("skipped component", "label", c.Label, "err", err)
			continue
		}
		a.push(canvas, catIdx, false)
	}
	Logger().Debug("brush annotations from mask", "components", len(comps), "cat_idx", catIdx)
	return a
}

func canvasesEqual(a, b Canvas) bool { return a.Equal(b) }

// Append adds c under catIdx unless an identical canvas already exists in
// the same category. It reports whether c was added.
func (a *BrushAnnotations) Append(c Canvas, catIdx int, selected bool) bool {
	added := a.appendUnique(c, catIdx, selected, canvasesEqual)
	if !added {
		Logger().Debug("skipped duplicate canvas", "cat_idx", catIdx, "box", c.BB)
	}
	return added
}

// Extend concatenates every entry of other without dedup. A nil other is a
// no-op.
func (a *BrushAnnotations) Extend(other *BrushAnnotations) {
	if other == nil {
		return
	}
	n := len(other.elts)
	for i := 0; i < n; i++ {
		a.push(other.elts[i], other.catIdxs[i], other.selected[i])
	}
}

// FillMask composites every canvas of category catIdx onto m with value.
// Background pixels of a canvas never erase what m already holds.
func (a *BrushAnnotations) FillMask(m *mask.Mask, catIdx int, value uint8) error {
	for i, c := range a.All() {
		if a.catIdxs[i] != catIdx {
			continue
		}
		if err := rle.DecodeIntoBox(c.RLE, value, m, c.BB); err != nil {
			return fmt.Errorf("canvas %d: %w", i, err)
		}
	}
	return nil
}

// MergeSelected replaces the selected canvases with their union. The merged
// canvas takes the category of the first selected canvas and is appended
// selected. Fewer than two selected canvases leave the set unchanged.
func (a *BrushAnnotations) MergeSelected() error {
	inds := a.SelectedIndices()
	if len(inds) < 2 {
		return nil
	}
	merged, catIdx := a.elts[inds[0]], a.catIdxs[inds[0]]
	for _, i := range inds[1:] {
		m, err := merged.Merge(a.elts[i])
		if err != nil {
			return fmt.Errorf("merge canvas %d: %w", i, err)
		}
		merged = m
	}
	a.RemoveSelected()
	a.push(merged, catIdx, true)
	Logger().Debug("merged canvases", "count", len(inds), "cat_idx", catIdx, "box", merged.BB)
	return nil
}

// Clone returns a copy that shares no slices with a.
func (a *BrushAnnotations) Clone() *BrushAnnotations {
	if a == nil {
		return nil
	}
	c := &BrushAnnotations{}
	for i, e := range a.elts {
		e.RLE = append([]int(nil), e.RLE...)
		c.push(e, a.catIdxs[i], a.selected[i])
	}
	return c
}
