package rle

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// blockMask returns a w x h mask with the half-open block [x0,x1) x [y0,y1)
// set to 1.
func blockMask(t *testing.T, w, h, x0, y0, x1, y1 int) *mask.Mask {
	t.Helper()
	m := mask.New(w, h)
	m.FillBox(geometry.BoxI{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, 1)
	return m
}

func TestEncode(t *testing.T) {
	m := blockMask(t, 10, 10, 0, 0, 5, 2)

	got := Encode(m)
	want := []int{0, 5, 5, 5, 85}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode: got %v, want %v", got, want)
	}

	back, err := Decode(got, 1, 10, 10)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !back.Equal(m) {
		t.Error("decoded mask differs from the original")
	}
}

func TestEncode_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		data []uint8
		want []int
	}{
		{"all background", 3, 2, []uint8{0, 0, 0, 0, 0, 0}, []int{6}},
		{"all foreground", 2, 2, []uint8{1, 1, 1, 1}, []int{0, 4}},
		{"trailing foreground", 3, 1, []uint8{0, 0, 1}, []int{2, 1}},
		{"non-binary values", 4, 1, []uint8{0, 3, 255, 0}, []int{1, 2, 1}},
		{"alternating", 4, 1, []uint8{1, 0, 1, 0}, []int{0, 1, 1, 1, 1}},
		{"empty", 0, 0, nil, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := mask.FromData(tt.w, tt.h, tt.data)
			if err != nil {
				t.Fatalf("FromData: %v", err)
			}
			if got := Encode(m); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		w, h := 1+rng.Intn(20), 1+rng.Intn(20)
		m := mask.New(w, h)
		for j := range m.Data() {
			if rng.Intn(3) == 0 {
				m.Data()[j] = 1
			}
		}
		back, err := Decode(Encode(m), 1, w, h)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !back.Equal(m) {
			t.Fatalf("round trip %d (%dx%d) differs", i, w, h)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		runs []int
	}{
		{"too short", []int{0, 5, 5}},
		{"too long", []int{0, 5, 5, 5, 86}},
		{"negative run", []int{0, -5, 105}},
		{"empty", nil},
		{"sum wraps to area", []int{0, math.MaxInt, math.MaxInt, 102}},
		{"single huge run", []int{math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.runs, 1, 10, 10); !errors.Is(err, ErrMalformed) {
				t.Errorf("got %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecode_OversizedMask(t *testing.T) {
	if _, err := Decode([]int{0}, 1, 1<<32, 1<<32); !errors.Is(err, mask.ErrSize) {
		t.Errorf("wrapping size: got %v, want ErrSize", err)
	}
	if _, err := Decode([]int{0}, 1, -4, -4); !errors.Is(err, mask.ErrSize) {
		t.Errorf("negative size: got %v, want ErrSize", err)
	}

	dst := mask.New(4, 4)
	huge := geometry.BoxI{X: 0, Y: 0, W: 1 << 32, H: 1 << 32}
	if err := DecodeIntoBox([]int{0}, 1, dst, huge); !errors.Is(err, mask.ErrSize) {
		t.Errorf("wrapping box: got %v, want ErrSize", err)
	}
	if err := DecodeInto([]int{0, math.MaxInt, math.MaxInt, 18}, 1, dst); !errors.Is(err, ErrMalformed) {
		t.Errorf("wrapping runs: got %v, want ErrMalformed", err)
	}
	if dst.CountNonZero() != 0 {
		t.Error("rejected runs modified the mask")
	}
}

func TestDecodeInto_IsAdditive(t *testing.T) {
	dst := blockMask(t, 4, 4, 0, 0, 4, 1)
	// foreground only in the last row
	runs := []int{12, 4}
	if err := DecodeInto(runs, 1, dst); err != nil {
		t.Fatalf("DecodeInto failed: %v", err)
	}
	if dst.CountNonZero() != 8 {
		t.Errorf("background runs erased existing data: %d pixels set, want 8", dst.CountNonZero())
	}

	before := dst.Clone()
	if err := DecodeInto([]int{1, 2}, 1, dst); !errors.Is(err, ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
	if !dst.Equal(before) {
		t.Error("failed decode modified the mask")
	}
}

func TestDecodeIntoBox(t *testing.T) {
	dst := mask.New(6, 5)
	dst.Set(0, 0, 1)
	box := geometry.BoxI{X: 2, Y: 1, W: 3, H: 2}
	// 3x2 canvas with the diagonal-ish pattern 010 / 011
	runs := []int{1, 1, 2, 2}

	if err := DecodeIntoBox(runs, 7, dst, box); err != nil {
		t.Fatalf("DecodeIntoBox failed: %v", err)
	}
	want := map[[2]int]uint8{{0, 0}: 1, {3, 1}: 7, {3, 2}: 7, {4, 2}: 7}
	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			if got := dst.At(x, y); got != want[[2]int{x, y}] {
				t.Errorf("pixel (%d,%d): got %d, want %d", x, y, got, want[[2]int{x, y}])
			}
		}
	}

	if err := DecodeIntoBox([]int{0, 6}, 1, dst, geometry.BoxI{X: 5, Y: 4, W: 3, H: 2}); !errors.Is(err, mask.ErrSize) {
		t.Errorf("box outside mask: got %v, want ErrSize", err)
	}
	if err := DecodeIntoBox([]int{0, 5}, 1, dst, box); !errors.Is(err, ErrMalformed) {
		t.Errorf("short runs: got %v, want ErrMalformed", err)
	}
}

func TestBoxImageConversion(t *testing.T) {
	const w, h = 8, 6
	box := geometry.BoxI{X: 2, Y: 1, W: 4, H: 3}
	sub := blockMask(t, 4, 3, 1, 0, 3, 2)
	boxRuns := Encode(sub)

	imRuns, err := BoxToImage(boxRuns, box, w, h)
	if err != nil {
		t.Fatalf("BoxToImage failed: %v", err)
	}
	im, err := Decode(imRuns, 1, w, h)
	if err != nil {
		t.Fatalf("Decode image runs: %v", err)
	}
	if !im.Equal(blockMask(t, w, h, 3, 1, 5, 3)) {
		t.Errorf("image runs decode to the wrong pixels: %v", im.Data())
	}

	back, err := ImageToBox(imRuns, box, w, h)
	if err != nil {
		t.Fatalf("ImageToBox failed: %v", err)
	}
	if !reflect.DeepEqual(back, boxRuns) {
		t.Errorf("ImageToBox: got %v, want %v", back, boxRuns)
	}

	if _, err := BoxToImage(boxRuns, geometry.BoxI{X: 6, Y: 0, W: 4, H: 3}, w, h); err == nil {
		t.Error("box outside the image should fail")
	}
}
