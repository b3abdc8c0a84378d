package annotations

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidLabelInfo is returned when the label, colour and id lists of a
// LabelInfo disagree.
var ErrInvalidLabelInfo = errors.New("invalid label info")

// RGB is an 8-bit colour triple.
type RGB [3]uint8

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Colorful converts the colour for blending.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

// LabelInfo describes the categories an annotation set indexes into.
type LabelInfo struct {
	NewLabel        string   `json:"new_label"`
	Labels          []string `json:"labels"`
	Colors          []RGB    `json:"colors"`
	CatIDs          []int    `json:"cat_ids"`
	CatIdxCurrent   int      `json:"cat_idx_current"`
	ShowOnlyCurrent bool     `json:"show_only_current"`
}

// DefaultColors returns n distinct colours with hues spread evenly around
// the HSV wheel. The result is deterministic.
func DefaultColors(n int) []RGB {
	colors := make([]RGB, n)
	for i := range colors {
		colors[i] = paletteColor(i, n)
	}
	return colors
}

// paletteColor is entry i of DefaultColors(n).
func paletteColor(i, n int) RGB {
	h := 360 * float64(i) / float64(max(n, 1))
	r, g, b := colorful.Hsv(h, 0.7, 0.95).Clamped().RGB255()
	return RGB{r, g, b}
}

// NewLabelInfo builds label info for labels with default colours and
// category ids 1..n. The first label is current.
func NewLabelInfo(labels ...string) LabelInfo {
	ids := make([]int, len(labels))
	for i := range ids {
		ids[i] = i + 1
	}
	newLabel := ""
	if len(labels) > 0 {
		newLabel = labels[0]
	}
	return LabelInfo{
		NewLabel: newLabel,
		Labels:   slices.Clone(labels),
		Colors:   DefaultColors(len(labels)),
		CatIDs:   ids,
	}
}

// Validate checks that labels, colours and ids line up and that the
// current index points at a label.
func (l LabelInfo) Validate() error {
	if len(l.Labels) != len(l.Colors) || len(l.Labels) != len(l.CatIDs) {
		return fmt.Errorf("%w: %d labels, %d colors, %d cat ids",
			ErrInvalidLabelInfo, len(l.Labels), len(l.Colors), len(l.CatIDs))
	}
	if len(l.Labels) > 0 && (l.CatIdxCurrent < 0 || l.CatIdxCurrent >= len(l.Labels)) {
		return fmt.Errorf("%w: current index %d out of %d labels",
			ErrInvalidLabelInfo, l.CatIdxCurrent, len(l.Labels))
	}
	return nil
}

// CatIdx returns the index of label, or -1.
func (l LabelInfo) CatIdx(label string) int {
	return slices.Index(l.Labels, label)
}

// Color returns the colour of category catIdx, falling back to the default
// palette when the index is out of range.
func (l LabelInfo) Color(catIdx int) RGB {
	if catIdx >= 0 && catIdx < len(l.Colors) {
		return l.Colors[catIdx]
	}
	n := max(catIdx+1, 1)
	return paletteColor(n-1, n)
}
