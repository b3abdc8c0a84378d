package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/mask-annotations-mcp/internal/annotations"
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
)

// DefaultLanguage is used when callers pass an empty language code.
const DefaultLanguage = "eng"

// Word is one recognised word and where it sits in the image.
type Word struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Box geometry.BoxI `json:"box"`
}

// ExtractWords runs OCR on an image file and returns its words.
//
// Parameters:
//   - imagePath: Absolute path to the image file. Supports PNG, JPEG, TIFF, BMP.
//   - language: Tesseract language code; empty means DefaultLanguage.
//   - minConfidence: Words below this confidence (0-1) are dropped.
//
// Returns:
//   - []Word: Words in Tesseract's reading order.
//   - error: Non-nil if the image cannot be loaded or Tesseract fails.
func ExtractWords(imagePath, language string, minConfidence float64) ([]Word, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return words(client, language, minConfidence)
}

// ExtractWordsFromImage is ExtractWords for an image already in memory.
// Boxes are relative to img's bounds, so a sub-image yields coordinates of
// the sub-image.
func ExtractWordsFromImage(img image.Image, language string, minConfidence float64) ([]Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return words(client, language, minConfidence)
}

func words(client *gosseract.Client, language string, minConfidence float64) ([]Word, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		confidence := float64(box.Confidence) / 100.0
		if confidence < minConfidence {
			continue
		}
		result = append(result, Word{
			Text:       box.Word,
			Confidence: confidence,
			Box:        boxFromRect(box.Box),
		})
	}
	return result, nil
}

func boxFromRect(r image.Rectangle) geometry.BoxI {
	r = r.Canon()
	return geometry.BoxI{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// TextAnnotations turns words into box annotations of category catIdx.
// Words whose boxes coincide are kept once.
func TextAnnotations(words []Word, catIdx int) *annotations.BoxAnnotations {
	annos := &annotations.BoxAnnotations{}
	for _, w := range words {
		if w.Box.IsEmpty() {
			continue
		}
		annos.Append(geometry.ShapeFromBox(w.Box.Float()), catIdx, false)
	}
	return annos
}

// TextMask rasterises the word boxes into a width x height mask holding
// value inside words. Boxes are clipped to the mask.
func TextMask(words []Word, width, height int, value uint8) *mask.Mask {
	m := mask.New(width, height)
	for _, w := range words {
		m.FillBox(w.Box, value)
	}
	return m
}
