// Package rle implements the run-length encoding exchanged for brush
// annotations.
//
// # Format
//
// A run list is a flat sequence of non-negative run lengths over the pixels
// of a mask in row-major order. Runs alternate between background and
// foreground and the first run always describes background, so a mask that
// starts with foreground encodes with a leading 0:
//
//	mask (10x10, rows 0-1 and cols 0-4 set) -> [0, 5, 5, 5, 85]
//
// The list carries no shape information. The width and height (or the
// bounding box a canvas is scoped to) travel separately.
//
// # Decoding
//
// Decoding writes the fill value into foreground runs only. When decoding
// onto an existing mask, background runs leave the pixels untouched, which
// lets several canvases of one category be composited onto the same mask.
package rle

import (
	"errors"
	"fmt"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// ErrMalformed is returned when a run list is negative somewhere or does not
// cover exactly the target area.
var ErrMalformed = errors.New("malformed run-length encoding")

// Encode converts a mask to its run list. Any non-zero pixel counts as
// foreground.
func Encode(m *mask.Mask) []int {
	runs := make([]int, 0, 8)
	run := 0
	foreground := false
	for _, v := range m.Data() {
		if (v != 0) == foreground {
			run++
			continue
		}
		runs = append(runs, run)
		run = 1
		foreground = !foreground
	}
	return append(runs, run)
}

// Validate checks that runs are non-negative and sum to area. The running
// total never exceeds area, so huge runs cannot wrap around.
func Validate(runs []int, area int) error {
	if area < 0 {
		return fmt.Errorf("%w: negative area %d", ErrMalformed, area)
	}
	total := 0
	for i, r := range runs {
		if r < 0 {
			return fmt.Errorf("%w: run %d is negative (%d)", ErrMalformed, i, r)
		}
		if r > area-total {
			return fmt.Errorf("%w: run %d overruns %d pixels", ErrMalformed, i, area)
		}
		total += r
	}
	if total != area {
		return fmt.Errorf("%w: runs sum to %d, want %d", ErrMalformed, total, area)
	}
	return nil
}

// Decode expands runs into a new width x height mask with value in the
// foreground runs. Sizes are checked with mask.CheckSize first.
func Decode(runs []int, value uint8, width, height int) (*mask.Mask, error) {
	if err := mask.CheckSize(width, height); err != nil {
		return nil, err
	}
	m := mask.New(width, height)
	if err := DecodeInto(runs, value, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeInto composites runs covering the whole of dst onto dst.
func DecodeInto(runs []int, value uint8, dst *mask.Mask) error {
	if err := Validate(runs, dst.Len()); err != nil {
		return err
	}
	writeRuns(runs, value, dst.Data())
	return nil
}

// DecodeIntoBox composites runs scoped to box onto dst. Pixels of dst
// outside box are never touched, and background runs never erase.
func DecodeIntoBox(runs []int, value uint8, dst *mask.Mask, box geometry.BoxI) error {
	if box.W < 0 || box.H < 0 {
		return fmt.Errorf("%w: negative box size %v", ErrMalformed, box)
	}
	if err := mask.CheckSize(box.W, box.H); err != nil {
		return err
	}
	if err := Validate(runs, box.W*box.H); err != nil {
		return err
	}
	if !geometry.Contains(dst.Bounds(), box) {
		return fmt.Errorf("%w: %v outside %dx%d", mask.ErrSize, box, dst.Width(), dst.Height())
	}

	data := dst.Data()
	w := dst.Width()
	pos := 0
	for i, r := range runs {
		if i%2 == 1 {
			for idx := pos; idx < pos+r; idx++ {
				x := box.X + idx%box.W
				y := box.Y + idx/box.W
				data[y*w+x] = value
			}
		}
		pos += r
	}
	return nil
}

func writeRuns(runs []int, value uint8, data []uint8) {
	pos := 0
	for i, r := range runs {
		if i%2 == 1 {
			for idx := pos; idx < pos+r; idx++ {
				data[idx] = value
			}
		}
		pos += r
	}
}

// BoxToImage re-expresses runs scoped to box as runs over the full
// width x height image.
func BoxToImage(runs []int, box geometry.BoxI, width, height int) ([]int, error) {
	im := mask.New(width, height)
	if err := DecodeIntoBox(runs, 1, im, box); err != nil {
		return nil, err
	}
	return Encode(im), nil
}

// ImageToBox re-expresses runs over a width x height image as runs scoped
// to box. Foreground outside the box is dropped.
func ImageToBox(runs []int, box geometry.BoxI, width, height int) ([]int, error) {
	im, err := Decode(runs, 1, width, height)
	if err != nil {
		return nil, err
	}
	sub, err := im.Crop(box)
	if err != nil {
		return nil, err
	}
	return Encode(sub), nil
}
