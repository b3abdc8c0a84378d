// Package mask provides the owned, row-major pixel buffer used by the run
// length codec, the vector conversions and the component labelling.
//
// A Mask never shares its backing slice with the caller: constructors copy
// their input and Crop returns an independent buffer. Reading operations may
// run concurrently on distinct masks; writers need exclusive access.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
)

// ErrSize is returned when pixel data does not match the requested
// dimensions or a crop box leaves the mask.
var ErrSize = errors.New("mask size mismatch")

// MaxPixels bounds Width*Height for sizes checked with CheckSize. Zero or
// less means only overflow is rejected.
var MaxPixels = 1 << 26

// CheckSize rejects negative sizes and sizes whose pixel count overflows
// int or exceeds MaxPixels. Sizes taken from requests go through it before
// anything is allocated.
func CheckSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrSize, width, height)
	}
	limit := MaxPixels
	if limit <= 0 {
		limit = math.MaxInt
	}
	if width > 0 && height > limit/width {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSize, width, height, limit)
	}
	return nil
}

// Mask is a single-channel 8-bit raster. Zero is background; any other
// value is foreground.
type Mask struct {
	width  int
	height int
	data   []uint8
}

// New creates a zeroed mask. Negative sizes are treated as zero; sizes that
// did not pass CheckSize may exhaust memory.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// FromData copies data into a new mask of the given size.
func FromData(width, height int, data []uint8) (*Mask, error) {
	if err := CheckSize(width, height); err != nil {
		return nil, err
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrSize, len(data), width, height)
	}
	m := New(width, height)
	copy(m.data, data)
	return m, nil
}

// FromGray copies the pixel values of a grayscale image.
func FromGray(img *image.Gray) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+m.width]
		copy(m.data[y*m.width:(y+1)*m.width], row)
	}
	return m
}

// Width returns the number of columns.
func (m *Mask) Width() int { return m.width }

// Height returns the number of rows.
func (m *Mask) Height() int { return m.height }

// Len returns Width*Height.
func (m *Mask) Len() int { return len(m.data) }

// Bounds returns the full extent of the mask as an integer box.
func (m *Mask) Bounds() geometry.BoxI {
	return geometry.BoxI{X: 0, Y: 0, W: m.width, H: m.height}
}

// At returns the value at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set writes value at (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = value
}

// Data returns the underlying row-major slice. Writes through it modify the
// mask.
func (m *Mask) Data() []uint8 {
	return m.data
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	c := New(m.width, m.height)
	copy(c.data, m.data)
	return c
}

// Equal reports whether both masks have the same size and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// CountNonZero returns the number of foreground pixels.
func (m *Mask) CountNonZero() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Crop copies the pixels inside box into a new mask.
func (m *Mask) Crop(box geometry.BoxI) (*Mask, error) {
	if box.W < 0 || box.H < 0 || !geometry.Contains(m.Bounds(), box) {
		return nil, fmt.Errorf("%w: %v outside %dx%d", ErrSize, box, m.width, m.height)
	}
	c := New(box.W, box.H)
	for y := 0; y < box.H; y++ {
		src := (box.Y+y)*m.width + box.X
		copy(c.data[y*box.W:(y+1)*box.W], m.data[src:src+box.W])
	}
	return c, nil
}

// FillBox writes value into every pixel of box that lies inside the mask.
func (m *Mask) FillBox(box geometry.BoxI, value uint8) {
	x0, y0 := max(box.X, 0), max(box.Y, 0)
	x1, y1 := min(box.X+box.W, m.width), min(box.Y+box.H, m.height)
	for y := y0; y < y1; y++ {
		row := m.data[y*m.width : (y+1)*m.width]
		for x := x0; x < x1; x++ {
			row[x] = value
		}
	}
}

// ToGray renders the mask as a grayscale image, multiplying every value by
// scale (saturating at 255). Use scale 255 to make a 0/1 mask visible.
func (m *Mask) ToGray(scale uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, v := range m.data {
		p := int(v) * int(scale)
		if p > 255 {
			p = 255
		}
		img.Pix[i] = uint8(p)
	}
	return img
}

// imageView adapts a Mask to image.Image.
type imageView struct{ m *Mask }

// Image returns a read-only image.Image view of the mask. Non-zero pixels
// render as white.
func (m *Mask) Image() image.Image { return imageView{m} }

func (v imageView) ColorModel() color.Model { return color.GrayModel }

func (v imageView) Bounds() image.Rectangle { return v.m.Bounds().Rect() }

func (v imageView) At(x, y int) color.Color {
	if v.m.At(x, y) != 0 {
		return color.Gray{Y: 255}
	}
	return color.Gray{}
}
