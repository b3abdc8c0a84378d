package annotations

// BoxData pairs a box set with its label info.
type BoxData struct {
	Annos     BoxAnnotations `json:"annos"`
	LabelInfo LabelInfo      `json:"labelinfo"`
}

// BrushData pairs a brush set with its label info.
type BrushData struct {
	Annos     BrushAnnotations `json:"annos"`
	LabelInfo LabelInfo        `json:"labelinfo"`
}

// InputAnnotationData carries the annotations that already exist for an
// image. Either part may be absent.
type InputAnnotationData struct {
	BBox  *BoxData   `json:"bbox"`
	Brush *BrushData `json:"brush"`
}

// OutputAnnotationData carries the merged annotations returned for an
// image. Either part may be absent.
type OutputAnnotationData struct {
	BBox  *BoxAnnotations   `json:"bbox"`
	Brush *BrushAnnotations `json:"brush"`
}
