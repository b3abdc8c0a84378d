package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// RenderResult contains an encoded image.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Layer is one mask drawn by RenderOverlay.
type Layer struct {
	Mask  *mask.Mask
	Color colorful.Color
	// Alpha is the blend weight of Color over the base image (0-1).
	Alpha float64
}

// RenderMask draws m in white on black. Scale values above 1 enlarge the
// output with nearest-neighbour sampling so single pixels stay sharp.
func RenderMask(m *mask.Mask, scale float64) (*RenderResult, error) {
	if m.Width() == 0 || m.Height() == 0 {
		return nil, fmt.Errorf("cannot render an empty %dx%d mask", m.Width(), m.Height())
	}
	return encodePNG(rescale(m.ToGray(255), scale))
}

// RenderOverlay blends every layer's colour over base wherever the layer's
// mask is foreground. Masks must match the base size.
func RenderOverlay(base image.Image, layers []Layer, scale float64) (*RenderResult, error) {
	b := base.Bounds()
	dst := imaging.Clone(base)
	for i, l := range layers {
		if l.Mask.Width() != b.Dx() || l.Mask.Height() != b.Dy() {
			return nil, fmt.Errorf("layer %d: %dx%d mask over %dx%d image: %w",
				i, l.Mask.Width(), l.Mask.Height(), b.Dx(), b.Dy(), mask.ErrSize)
		}
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				if l.Mask.At(x, y) == 0 {
					continue
				}
				off := dst.PixOffset(x, y)
				px := dst.Pix[off : off+4]
				under := colorful.Color{R: float64(px[0]) / 255, G: float64(px[1]) / 255, B: float64(px[2]) / 255}
				r, g, bl := under.BlendRgb(l.Color, l.Alpha).Clamped().RGB255()
				px[0], px[1], px[2], px[3] = r, g, bl, 0xff
			}
		}
	}
	return encodePNG(rescale(dst, scale))
}

func rescale(img image.Image, scale float64) image.Image {
	if scale == 1.0 || scale <= 0 {
		return img
	}
	w := int(float64(img.Bounds().Dx()) * scale)
	h := int(float64(img.Bounds().Dy()) * scale)
	return imaging.Resize(img, max(w, 1), max(h, 1), imaging.NearestNeighbor)
}

func encodePNG(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
