package annotations

import (
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// PredictOptions controls which annotation kinds Predict produces.
type PredictOptions struct {
	// Boxes turns the mask into polygon annotations.
	Boxes bool
	// Brush turns the mask into brush canvases.
	Brush bool
	// Zoom, when set, drops freshly computed annotations that do not lie
	// inside it. Previous annotations are kept regardless.
	Zoom geometry.Box
}

// Predict converts a segmentation mask into annotations of category catIdx
// and merges them behind the annotations in prev.
//
// Previous entries keep their order and come first. New polygons are
// appended with the box dedup rule; new canvases are concatenated. An
// output part is nil when it was neither requested nor present in prev.
func Predict(m *mask.Mask, catIdx int, prev *InputAnnotationData, opts PredictOptions) *OutputAnnotationData {
	out := &OutputAnnotationData{}

	if prev != nil && prev.BBox != nil {
		out.BBox = prev.BBox.Annos.Clone()
	}
	if prev != nil && prev.Brush != nil {
		out.Brush = prev.Brush.Annos.Clone()
	}

	if opts.Boxes {
		fresh := BoxAnnotationsFromMask(m, catIdx)
		if opts.Zoom != nil {
			fresh.KeepInside([]geometry.Box{opts.Zoom})
		}
		if out.BBox == nil {
			out.BBox = &BoxAnnotations{}
		}
		out.BBox.Extend(fresh)
	}
	if opts.Brush {
		fresh := BrushAnnotationsFromMask(m, catIdx)
		if opts.Zoom != nil {
			fresh.KeepInside([]geometry.Box{opts.Zoom})
		}
		if out.Brush == nil {
			out.Brush = &BrushAnnotations{}
		}
		out.Brush.Extend(fresh)
	}

	var nBoxes, nBrush int
	if out.BBox != nil {
		nBoxes = out.BBox.Len()
	}
	if out.Brush != nil {
		nBrush = out.Brush.Len()
	}
	Logger().Debug("predict", "cat_idx", catIdx, "boxes", nBoxes, "brush", nBrush)
	return out
}
