package annotations

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
	"github.com/ironsheep/mask-annotations-mcp/internal/rle"
)

// Canvas is a run-length encoded sub-mask scoped to a box. The runs always
// cover exactly BB.W*BB.H pixels.
type Canvas struct {
	RLE       []int         `json:"rle"`
	BB        geometry.BoxI `json:"bb"`
	Intensity float64       `json:"intensity"`
}

// NewCanvas validates runs against bb and copies them.
func NewCanvas(runs []int, bb geometry.BoxI, intensity float64) (Canvas, error) {
	if bb.W < 0 || bb.H < 0 {
		return Canvas{}, fmt.Errorf("%w: negative canvas box %v", rle.ErrMalformed, bb)
	}
	if err := mask.CheckSize(bb.W, bb.H); err != nil {
		return Canvas{}, err
	}
	if err := rle.Validate(runs, bb.Area()); err != nil {
		return Canvas{}, err
	}
	return Canvas{RLE: slices.Clone(runs), BB: bb, Intensity: intensity}, nil
}

// CanvasFromMask encodes sub, which must have the size of bb.
func CanvasFromMask(sub *mask.Mask, bb geometry.BoxI, intensity float64) (Canvas, error) {
	if sub.Width() != bb.W || sub.Height() != bb.H {
		return Canvas{}, fmt.Errorf("%w: %dx%d sub-mask for %v", mask.ErrSize, sub.Width(), sub.Height(), bb)
	}
	return Canvas{RLE: rle.Encode(sub), BB: bb, Intensity: intensity}, nil
}

// CanvasFromImageRLE builds a canvas for bb from runs that cover a whole
// width x height image. Foreground outside bb is dropped.
func CanvasFromImageRLE(runs []int, bb geometry.BoxI, width, height int, intensity float64) (Canvas, error) {
	boxRuns, err := rle.ImageToBox(runs, bb, width, height)
	if err != nil {
		return Canvas{}, err
	}
	return NewCanvas(boxRuns, bb, intensity)
}

// CanvasFromBox returns a canvas whose whole box is foreground.
func CanvasFromBox(bb geometry.BoxI, intensity float64) Canvas {
	if bb.IsEmpty() {
		return Canvas{RLE: []int{max(bb.Area(), 0)}, BB: bb, Intensity: intensity}
	}
	return Canvas{RLE: []int{0, bb.Area()}, BB: bb, Intensity: intensity}
}

// GoverningBox returns the canvas box.
func (c Canvas) GoverningBox() geometry.Box { return c.BB }

// Mask decodes the canvas into a 0/1 mask of the box size.
func (c Canvas) Mask() (*mask.Mask, error) {
	return rle.Decode(c.RLE, 1, c.BB.W, c.BB.H)
}

// Equal reports exact equality of runs, box and intensity.
func (c Canvas) Equal(o Canvas) bool {
	return c.BB == o.BB && c.Intensity == o.Intensity && slices.Equal(c.RLE, o.RLE)
}

// Merge returns a canvas covering the union of both boxes. A pixel is
// foreground when it is foreground in either canvas, and the intensity is
// the larger of the two.
func (c Canvas) Merge(o Canvas) (Canvas, error) {
	x0, y0 := min(c.BB.X, o.BB.X), min(c.BB.Y, o.BB.Y)
	x1, y1 := max(c.BB.CMax(), o.BB.CMax()), max(c.BB.RMax(), o.BB.RMax())
	union := geometry.BoxI{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
	if err := mask.CheckSize(union.W, union.H); err != nil {
		return Canvas{}, err
	}

	merged := mask.New(union.W, union.H)
	for _, src := range []Canvas{c, o} {
		rel := geometry.BoxI{X: src.BB.X - x0, Y: src.BB.Y - y0, W: src.BB.W, H: src.BB.H}
		if err := rle.DecodeIntoBox(src.RLE, 1, merged, rel); err != nil {
			return Canvas{}, err
		}
	}
	return Canvas{
		RLE:       rle.Encode(merged),
		BB:        union,
		Intensity: math.Max(c.Intensity, o.Intensity),
	}, nil
}

// UnmarshalJSON decodes the canvas and checks that the runs cover the box.
func (c *Canvas) UnmarshalJSON(data []byte) error {
	type plain Canvas
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := NewCanvas(raw.RLE, raw.BB, raw.Intensity)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
