// Package components labels connected foreground regions of a mask.
//
// Labelling uses an iterative stack-based flood fill. Regions are numbered
// from 1 in the row-major order of their first pixel; background keeps
// label 0. Find uses 4-connectivity throughout; Label lets callers that
// trace outlines ask for 8-connectivity instead.
//
// Every Component owns a cropped copy of the source pixels, so it stays
// valid after the source mask is modified.
package components

import (
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// Connectivity selects which neighbours join two foreground pixels.
type Connectivity int

const (
	// Four joins horizontal and vertical neighbours.
	Four Connectivity = 4
	// Eight also joins diagonal neighbours.
	Eight Connectivity = 8
)

var (
	offsets4 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	offsets8 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
)

// Labels is a per-pixel label image.
type Labels struct {
	width  int
	height int
	data   []int
	count  int
}

// Width returns the number of columns.
func (l *Labels) Width() int { return l.width }

// Height returns the number of rows.
func (l *Labels) Height() int { return l.height }

// At returns the label at (x, y), or 0 outside the image.
func (l *Labels) At(x, y int) int {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return 0
	}
	return l.data[y*l.width+x]
}

// Count returns the number of labelled regions.
func (l *Labels) Count() int { return l.count }

// Component is one connected region of a mask.
type Component struct {
	// Mask holds the source pixels inside Box. Pixels of other regions are
	// zeroed.
	Mask *mask.Mask
	// Box is the tight bound of the region.
	Box geometry.BoxI
	// Label is the region's value in the label image.
	Label int
}

// Label assigns a label to every foreground pixel of m.
func Label(m *mask.Mask, conn Connectivity) *Labels {
	w, h := m.Width(), m.Height()
	l := &Labels{width: w, height: h, data: make([]int, w*h)}

	offsets := offsets4
	if conn == Eight {
		offsets = offsets8
	}

	src := m.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if src[idx] == 0 || l.data[idx] != 0 {
				continue
			}
			l.count++
			floodFill(src, l.data, x, y, w, h, l.count, offsets)
		}
	}
	return l
}

// floodFill labels the region containing (startX, startY) with label.
//
// Uses an explicit stack so large regions cannot overflow the goroutine
// stack.
func floodFill(src []uint8, labels []int, startX, startY, width, height, label int, offsets [][2]int) {
	stack := [][2]int{{startX, startY}}
	labels[startY*width+startX] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, o := range offsets {
			nx, ny := p[0]+o[0], p[1]+o[1]
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			idx := ny*width + nx
			if src[idx] == 0 || labels[idx] != 0 {
				continue
			}
			labels[idx] = label
			stack = append(stack, [2]int{nx, ny})
		}
	}
}

// Find splits m into its 4-connected foreground regions.
//
// Parameters:
//   - m: Source mask. Any non-zero pixel is foreground.
//
// Returns:
//   - []Component: One entry per region, ordered by label.
//   - *Labels: The label image the components were cut from.
func Find(m *mask.Mask) ([]Component, *Labels) {
	labels := Label(m, Four)
	boxes := Boxes(labels)

	comps := make([]Component, 0, labels.count)
	src := m.Data()
	for i, box := range boxes {
		label := i + 1
		sub := mask.New(box.W, box.H)
		dst := sub.Data()
		for y := 0; y < box.H; y++ {
			for x := 0; x < box.W; x++ {
				idx := (box.Y+y)*m.Width() + box.X + x
				if labels.data[idx] == label {
					dst[y*box.W+x] = src[idx]
				}
			}
		}
		comps = append(comps, Component{Mask: sub, Box: box, Label: label})
	}
	return comps, labels
}

// Boxes returns the tight bound of every region; entry i belongs to label
// i+1.
func Boxes(l *Labels) []geometry.BoxI {
	type span struct{ minX, minY, maxX, maxY int }
	spans := make([]span, l.count)
	for i := range spans {
		spans[i] = span{minX: l.width, minY: l.height, maxX: -1, maxY: -1}
	}
	for y := 0; y < l.height; y++ {
		for x := 0; x < l.width; x++ {
			label := l.data[y*l.width+x]
			if label == 0 {
				continue
			}
			s := &spans[label-1]
			s.minX = min(s.minX, x)
			s.minY = min(s.minY, y)
			s.maxX = max(s.maxX, x)
			s.maxY = max(s.maxY, y)
		}
	}

	boxes := make([]geometry.BoxI, len(spans))
	for i, s := range spans {
		boxes[i] = geometry.BoxIFromRowCols(s.minY, s.minX, s.maxY+1, s.maxX+1)
	}
	return boxes
}
