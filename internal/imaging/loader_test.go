package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
)

// grayMask returns a black w x h image with block painted white.
func grayMask(w, h int, block geometry.BoxI) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := block.Y; y < block.Y+block.H; y++ {
		for x := block.X; x < block.X+block.W; x++ {
			img.Pix[img.PixOffset(x, y)] = 255
		}
	}
	return img
}

// writeMaskPNG encodes a black and white mask image to dir/name.
func writeMaskPNG(t *testing.T, dir, name string, w, h int, block geometry.BoxI) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, grayMask(w, h, block)); err != nil {
		t.Fatalf("failed to encode mask: %v", err)
	}
	return path
}

func TestImageCache_LoadThresholdable(t *testing.T) {
	cache := NewImageCache()
	path := writeMaskPNG(t, t.TempDir(), "mask.png", 12, 9, geometry.BoxI{X: 3, Y: 2, W: 4, H: 5})

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 9 {
		t.Errorf("dimensions: got %dx%d, want 12x9", b.Dx(), b.Dy())
	}
	if n := ToMask(img, 128, false).CountNonZero(); n != 20 {
		t.Errorf("foreground: got %d, want 20", n)
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != img {
		t.Error("second Load did not return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not a mask"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	empty := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		wantDecode bool
	}{
		{"missing", filepath.Join(dir, "missing.png"), false},
		{"garbage", garbage, true},
		{"empty", empty, true},
	}

	cache := NewImageCache()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cache.Load(tt.path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if got := errors.Is(err, ErrDecodeFailure); got != tt.wantDecode {
				t.Errorf("errors.Is(ErrDecodeFailure): got %v, want %v (%v)", got, tt.wantDecode, err)
			}
			if !tt.wantDecode && !strings.Contains(err.Error(), "failed to open image") {
				t.Errorf("error: got %q", err)
			}
		})
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads were cached: Len %d", cache.Len())
	}
}

func TestImageCache_EvictReloads(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	path := writeMaskPNG(t, dir, "mask.png", 8, 8, geometry.BoxI{W: 2, H: 2})

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n := ToMask(img, 128, false).CountNonZero(); n != 4 {
		t.Fatalf("foreground: got %d, want 4", n)
	}

	// repaint the file; the cache keeps serving the old pixels
	writeMaskPNG(t, dir, "mask.png", 8, 8, geometry.BoxI{W: 3, H: 3})
	img, _ = cache.Load(path)
	if n := ToMask(img, 128, false).CountNonZero(); n != 4 {
		t.Errorf("cached foreground: got %d, want 4", n)
	}

	cache.Evict(path)
	if cache.Len() != 0 {
		t.Errorf("Len after Evict: got %d, want 0", cache.Len())
	}
	img, err = cache.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if n := ToMask(img, 128, false).CountNonZero(); n != 9 {
		t.Errorf("reloaded foreground: got %d, want 9", n)
	}

	cache.Evict(filepath.Join(dir, "unknown.png"))
	if cache.Len() != 1 {
		t.Errorf("evicting an unknown path changed Len: got %d", cache.Len())
	}
}

func TestImageCache_ConcurrentLoads(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	const files = 4
	paths := make([]string, files)
	for i := range paths {
		paths[i] = writeMaskPNG(t, dir, fmt.Sprintf("mask-%d.png", i), 6, 6, geometry.BoxI{W: i + 1, H: 1})
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := cache.Load(paths[i%files])
			if err != nil {
				errs <- err
				return
			}
			if n := ToMask(img, 128, false).CountNonZero(); n != i%files+1 {
				errs <- fmt.Errorf("%s: %d foreground pixels, want %d", paths[i%files], n, i%files+1)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load: %v", err)
	}
	if cache.Len() != files {
		t.Errorf("Len: got %d, want %d", cache.Len(), files)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()

	tests := []struct {
		name   string
		format string
	}{
		{"mask.png", "png"},
		{"mask.jpg", "jpeg"},
		{"mask.jpeg", "jpeg"},
		{"mask.gif", "gif"},
		{"mask.bin", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// PNG bytes regardless of extension
			path := writeMaskPNG(t, dir, tt.name, 20, 15, geometry.BoxI{X: 1, Y: 1, W: 5, H: 5})

			info, err := LoadImageInfo(cache, path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Width != 20 || info.Height != 15 {
				t.Errorf("dimensions: got %dx%d, want 20x15", info.Width, info.Height)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
			if info.HasAlpha {
				t.Error("grayscale mask reported an alpha channel")
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}

	if _, err := LoadImageInfo(cache, filepath.Join(dir, "missing.png")); err == nil {
		t.Error("LoadImageInfo should fail for a missing file")
	}
}

func TestDecodeBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, grayMask(7, 5, geometry.BoxI{X: 2, Y: 1, W: 3, H: 2})); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if decoded.Bounds().Dx() != 7 || decoded.Bounds().Dy() != 5 {
		t.Errorf("dimensions: got %v, want 7x5", decoded.Bounds())
	}
	if n := ToMask(decoded, 128, false).CountNonZero(); n != 6 {
		t.Errorf("foreground: got %d, want 6", n)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a mask")},
		{"truncated png", buf.Bytes()[:20]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeBytes(tt.data); !errors.Is(err, ErrDecodeFailure) {
				t.Errorf("got %v, want ErrDecodeFailure", err)
			}
		})
	}
}
