// Package ocr finds words in images with Tesseract and turns them into
// box annotations.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Word
// bounding boxes are the part the annotation tools care about: each word
// Tesseract is confident about becomes one box shape, so labelling text
// regions of a screenshot does not start from an empty canvas.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Functions
//
//   - ExtractWords: Word boxes of an image file
//   - ExtractWordsFromImage: Word boxes of an in-memory image
//   - TextAnnotations: Word boxes as box annotations
//   - TextMask: Word boxes rasterised into a mask
//
// # Confidence
//
// Tesseract reports confidence as a percentage. This package rescales it to
// 0-1 and drops words below the caller's minimum as well as empty words.
package ocr
