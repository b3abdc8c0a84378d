package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createMaskImage draws a white w x h block at (x, y) on a black canvas.
func createMaskImage(width, height, x, y, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			c := color.RGBA{0, 0, 0, 255}
			if px >= x && px < x+w && py >= y && py < y+h {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(px, py, c)
		}
	}
	return img
}

func TestToMask(t *testing.T) {
	img := createMaskImage(10, 8, 2, 3, 4, 2)

	m := ToMask(img, 128, false)
	if m.Width() != 10 || m.Height() != 8 {
		t.Fatalf("dimensions: got %dx%d, want 10x8", m.Width(), m.Height())
	}
	if m.CountNonZero() != 8 {
		t.Errorf("CountNonZero: got %d, want 8", m.CountNonZero())
	}
	if m.At(2, 3) != 1 || m.At(1, 3) != 0 {
		t.Error("foreground in the wrong place")
	}

	inv := ToMask(img, 128, true)
	if inv.CountNonZero() != 80-8 {
		t.Errorf("inverted CountNonZero: got %d, want 72", inv.CountNonZero())
	}
}

func TestToMask_Transparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{255, 255, 255, 255})

	m := ToMask(img, 128, false)
	if m.CountNonZero() != 1 {
		t.Errorf("transparent pixels should be background: got %d foreground", m.CountNonZero())
	}
}

func TestToMask_SubImage(t *testing.T) {
	img := createMaskImage(10, 10, 5, 5, 2, 2)
	sub := img.SubImage(image.Rect(4, 4, 8, 8))

	m := ToMask(sub, 128, false)
	if m.Width() != 4 || m.Height() != 4 {
		t.Fatalf("dimensions: got %dx%d, want 4x4", m.Width(), m.Height())
	}
	if m.At(1, 1) != 1 || m.At(0, 0) != 0 || m.CountNonZero() != 4 {
		t.Errorf("sub-image pixels: got %v", m.Data())
	}
}
