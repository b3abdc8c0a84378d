// Package server implements the MCP (Model Context Protocol) server for mask
// and annotation tools.
//
// This package provides a JSON-RPC 2.0 server that turns segmentation masks
// into polygon and brush annotations and back. It is designed for MCP
// clients that label images: a client thresholds or predicts a mask,
// converts it into annotations, merges them with existing ones and stores
// the result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Masks on the Wire
//
// Masks are passed as {width, height, rle}, where rle holds alternating
// background and foreground run lengths in row-major order, starting with
// background. Tools that read a mask also accept an image path instead,
// thresholded with the threshold and invert arguments.
//
// # Available Tools
//
// Image Information:
//   - image_load: Load image and get metadata
//
// Mask Operations:
//   - mask_from_image: Threshold an image into a mask
//   - mask_polygons: Trace region outlines
//   - mask_components: Label connected regions
//
// Annotation Operations:
//   - annotations_predict: Mask to polygon and brush annotations, merged
//     with previous ones
//   - annotations_fill_mask: Annotations of one category to a mask
//   - annotations_filter: Keep or remove annotations inside boxes
//   - annotations_max_overlap: Box overlapping a zoom box most
//   - annotations_render: Annotations drawn over an image
//   - annotations_text_boxes: OCR word boxes as annotations
//
// Persistence (requires MASK_MCP_DB):
//   - annotations_save, annotations_load, annotations_keys,
//     annotations_delete
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(config.Load(), nil)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
