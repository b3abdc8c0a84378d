// Package imaging turns uploaded or on-disk images into masks and renders
// masks back to images for the MCP server.
//
// It covers decoding, caching, thresholding to a mask and PNG rendering.
// All operations use a coordinate system where (0,0) is the top-left pixel,
// X increases rightward and Y increases downward.
//
// # Decoding
//
// DecodeBytes and ImageCache.Load accept PNG, JPEG and GIF input. EXIF
// orientation is applied on decode. Empty or unreadable input fails with
// ErrDecodeFailure.
//
// # Pixel Buffers
//
// PixelBuffer is the raw form exchanged with callers that do their own
// decoding: interleaved 8-bit samples plus width, height and channel count.
// Validate rejects buffers shorter than Width*Height*Channels.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and may run concurrently on distinct inputs.
//
// # Rendering
//
// RenderMask and RenderOverlay return base64 PNG data ready to embed in an
// MCP image content block.
package imaging
