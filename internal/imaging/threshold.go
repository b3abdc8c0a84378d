package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// ToMask converts an image into a 0/1 mask.
//
// Parameters:
//   - img: Source image of any colour model.
//   - level: Luminance threshold (0-255). Pixels at or above it become
//     foreground.
//   - invert: Invert the image first, so dark pixels become foreground.
//
// Returns:
//   - *mask.Mask: A mask of the image size holding 0 and 1.
//
// Transparent pixels are composited onto black before thresholding, so
// they count as background unless invert is set.
func ToMask(img image.Image, level uint8, invert bool) *mask.Mask {
	b := img.Bounds()
	// normalise to an opaque, origin-based image
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.Black), img, image.Pt(0, 0), 1.0)

	var src image.Image = flat
	if invert {
		src = effect.Invert(flat)
	}
	m := mask.FromGray(segment.Threshold(src, level))
	data := m.Data()
	for i, v := range data {
		if v != 0 {
			data[i] = 1
		}
	}
	return m
}
