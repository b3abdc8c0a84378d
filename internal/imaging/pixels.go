package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// PixelBuffer is an interleaved 8-bit raster with a known channel count.
type PixelBuffer struct {
	Pix      []uint8 `json:"pix"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Channels int     `json:"channels"`
}

// NewPixelBuffer copies img into a 3-channel RGB buffer. Alpha is dropped.
func NewPixelBuffer(img image.Image) *PixelBuffer {
	b := img.Bounds()
	pb := &PixelBuffer{
		Pix:      make([]uint8, b.Dx()*b.Dy()*3),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 3,
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pb.Pix[i], pb.Pix[i+1], pb.Pix[i+2] = c.R, c.G, c.B
			i += 3
		}
	}
	return pb
}

// Validate checks the dimensions and that Pix holds at least one sample per
// channel per pixel.
func (p *PixelBuffer) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrDecodeFailure, p.Width, p.Height)
	}
	if err := mask.CheckSize(p.Width, p.Height); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	switch p.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("%w: unsupported channel count %d", ErrDecodeFailure, p.Channels)
	}
	if want := p.Width * p.Height * p.Channels; len(p.Pix) < want {
		return fmt.Errorf("%w: %d samples for %dx%dx%d", ErrDecodeFailure, len(p.Pix), p.Width, p.Height, p.Channels)
	}
	return nil
}

// Image returns the buffer as an image. One channel gives *image.Gray,
// three or four give *image.NRGBA.
func (p *PixelBuffer) Image() (image.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, p.Width, p.Height)
	if p.Channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, p.Pix)
		return g, nil
	}

	img := image.NewNRGBA(rect)
	n := p.Width * p.Height
	for i := 0; i < n; i++ {
		src := p.Pix[i*p.Channels:]
		dst := img.Pix[i*4:]
		dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		dst[3] = 0xff
		if p.Channels == 4 {
			dst[3] = src[3]
		}
	}
	return img, nil
}
