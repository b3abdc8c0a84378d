package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// maskSourceProperties are the input properties shared by tools that
// read a mask.
func maskSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"mask": map[string]interface{}{
			"type":        "object",
			"description": "Inline mask: {width, height, rle}. rle alternates background and foreground run lengths in row-major order, starting with background.",
			"properties": map[string]interface{}{
				"width":  map[string]interface{}{"type": "integer"},
				"height": map[string]interface{}{"type": "integer"},
				"rle": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "integer"},
				},
			},
			"required": []string{"width", "height", "rle"},
		},
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to an image thresholded into the mask (alternative to mask)",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded PNG, JPEG or GIF thresholded into the mask (alternative to mask and path)",
		},
		"pixels": map[string]interface{}{
			"type":        "object",
			"description": "Raw interleaved 8-bit pixels thresholded into the mask: {pix (base64), width, height, channels (1, 3 or 4)}",
			"properties": map[string]interface{}{
				"pix":      map[string]interface{}{"type": "string"},
				"width":    map[string]interface{}{"type": "integer"},
				"height":   map[string]interface{}{"type": "integer"},
				"channels": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"pix", "width", "height", "channels"},
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Luminance level 0-255; pixels at or above it are foreground. Default from MASK_MCP_THRESHOLD (128)",
		},
		"invert": map[string]interface{}{
			"type":        "boolean",
			"description": "Invert the image first so dark pixels become foreground",
			"default":     false,
		},
	}
}

// annotationProperties are the bbox/brush inputs shared by annotation tools.
func annotationProperties() map[string]interface{} {
	return map[string]interface{}{
		"bbox": map[string]interface{}{
			"type":        "object",
			"description": "Box annotations: {elts, cat_idxs, selected_mask}. Each elt is {\"BB\": {x, y, w, h}} or {\"Poly\": {points: [{x, y}, ...]}}",
		},
		"brush": map[string]interface{}{
			"type":        "object",
			"description": "Brush annotations: {elts, cat_idxs, selected_mask}. Each elt is a canvas {rle, bb: {x, y, w, h}, intensity}",
		},
	}
}

// textProperties are the image and recognition inputs of the OCR tools.
func textProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image (alternative to path)",
		},
		"language": map[string]interface{}{
			"type":        "string",
			"description": "Tesseract language code. Default eng",
			"default":     "eng",
		},
		"min_confidence": map[string]interface{}{
			"type":        "number",
			"description": "Minimum word confidence (0-1). Default 0.5",
			"default":     0.5,
		},
	}
}

func boxSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
			"w": map[string]interface{}{"type": "number"},
			"h": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y", "w", "h"},
	}
}

func with(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format, optionally with its raw pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop the cached copy and read the file again",
						"default":     false,
					},
					"pixels": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the RGB pixels as {pix (base64), width, height, channels}",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Mask Operations
		{
			Name:        "mask_from_image",
			Description: "Threshold an image into a binary mask and return it run-length encoded. Transparent pixels count as background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(maskSourceProperties(), map[string]interface{}{
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the mask as a base64 PNG",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Preview scale factor. Default 1.0",
						"default":     1.0,
					},
				}),
			},
		},
		{
			Name:        "mask_polygons",
			Description: "Trace the outline of every 8-connected foreground region of a mask as a polygon. Holes are not traced.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(maskSourceProperties(), map[string]interface{}{
					"absolute": map[string]interface{}{
						"type":        "boolean",
						"description": "Pixel coordinates when true; coordinates divided by the mask size when false",
						"default":     true,
					},
				}),
			},
		},
		{
			Name:        "mask_components",
			Description: "Label the 4-connected foreground regions of a mask and return each region's bounding box, pixel count and full-size run lengths.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": maskSourceProperties(),
			},
		},
		{
			Name:        "mask_text",
			Description: "Run OCR on an image and return a mask covering the box of every recognised word.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(textProperties(), map[string]interface{}{
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the mask as a base64 PNG",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Preview scale factor. Default 1.0",
						"default":     1.0,
					},
				}),
			},
		},

		// Annotation Operations
		{
			Name:        "annotations_predict",
			Description: "Convert a mask into polygon and brush annotations of one category, merged behind previous annotations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(maskSourceProperties(), map[string]interface{}{
					"cat_idx": map[string]interface{}{
						"type":        "integer",
						"description": "Category index of the new annotations",
					},
					"boxes": map[string]interface{}{
						"type":        "boolean",
						"description": "Produce polygon annotations. Default true",
						"default":     true,
					},
					"brush": map[string]interface{}{
						"type":        "boolean",
						"description": "Produce brush annotations, one per 4-connected region. Default true",
						"default":     true,
					},
					"zoom": boxSchema("Optional zoom box; new annotations outside it are dropped"),
					"previous": map[string]interface{}{
						"type":        "object",
						"description": "Existing annotations: {bbox: {annos, labelinfo}, brush: {annos, labelinfo}}",
					},
					"save_key": map[string]interface{}{
						"type":        "string",
						"description": "Store the result under this key (requires MASK_MCP_DB)",
					},
				}),
				"required": []string{"cat_idx"},
			},
		},
		{
			Name:        "annotations_fill_mask",
			Description: "Rasterise the annotations of one category into a mask and return it run-length encoded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(annotationProperties(), map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Mask width",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Mask height",
					},
					"cat_idx": map[string]interface{}{
						"type":        "integer",
						"description": "Category to rasterise",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the mask as a base64 PNG",
						"default":     false,
					},
				}),
				"required": []string{"width", "height", "cat_idx"},
			},
		},
		{
			Name:        "annotations_filter",
			Description: "Keep or remove the annotations whose governing box lies inside any of the given boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(annotationProperties(), map[string]interface{}{
					"boxes": map[string]interface{}{
						"type":        "array",
						"description": "Container boxes",
						"items":       boxSchema("Container box"),
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "keep_inside or remove_inside",
						"enum":        []string{"keep_inside", "remove_inside"},
						"default":     "keep_inside",
					},
				}),
				"required": []string{"boxes"},
			},
		},
		{
			Name:        "annotations_edit",
			Description: "Apply selection, category and content edits to annotations in order and return the result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(annotationProperties(), map[string]interface{}{
					"ops": map[string]interface{}{
						"type":        "array",
						"description": "Edits applied in order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"op": map[string]interface{}{
									"type": "string",
									"enum": []string{
										"select", "deselect", "toggle", "remove",
										"select_all", "deselect_all", "label_selected",
										"remove_selected", "remove_category", "clear",
										"add_box", "add_canvas", "merge_selected",
									},
								},
								"target": map[string]interface{}{
									"type":        "string",
									"description": "bbox or brush; both when omitted",
									"enum":        []string{"bbox", "brush"},
								},
								"index": map[string]interface{}{
									"type":        "integer",
									"description": "Annotation index for select, deselect, toggle and remove",
								},
								"cat_idx": map[string]interface{}{
									"type":        "integer",
									"description": "Category for label_selected, remove_category, add_box and add_canvas",
								},
								"box": boxSchema("Box for add_box, or the canvas box for add_canvas"),
								"rle": map[string]interface{}{
									"type":        "array",
									"description": "add_canvas: run lengths over the whole width x height image",
									"items":       map[string]interface{}{"type": "integer"},
								},
								"width":  map[string]interface{}{"type": "integer", "description": "add_canvas: image width"},
								"height": map[string]interface{}{"type": "integer", "description": "add_canvas: image height"},
								"intensity": map[string]interface{}{
									"type":        "number",
									"description": "Canvas intensity for add_box and add_canvas. Default 1",
								},
							},
							"required": []string{"op"},
						},
					},
				}),
				"required": []string{"ops"},
			},
		},
		{
			Name:        "annotations_max_overlap",
			Description: "Find the annotation box with the largest overlap with a zoom box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(annotationProperties(), map[string]interface{}{
					"zoom": boxSchema("Zoom box"),
					"filter": map[string]interface{}{
						"type":        "array",
						"description": "Optional indices to consider",
						"items":       map[string]interface{}{"type": "integer"},
					},
				}),
				"required": []string{"zoom"},
			},
		},
		{
			Name:        "annotations_render",
			Description: "Draw annotations over an image (or a black canvas) in their category colours and return a base64 PNG with the colour of each category.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(annotationProperties(), map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the base image",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width when no path is given",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height when no path is given",
					},
					"label_info": map[string]interface{}{
						"type":        "object",
						"description": "Labels and colours: {labels, colors, cat_ids, ...}",
					},
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Blend weight of the category colour (0-1). Default 0.5",
						"default":     0.5,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Output scale factor. Default 1.0",
						"default":     1.0,
					},
				}),
			},
		},
		{
			Name:        "annotations_text_boxes",
			Description: "Run OCR on an image and return one box annotation per recognised word.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": with(textProperties(), map[string]interface{}{
					"cat_idx": map[string]interface{}{
						"type":        "integer",
						"description": "Category index of the word boxes",
					},
				}),
			},
		},

		// Persistence
		{
			Name:        "annotations_save",
			Description: "Store annotations under a key in the annotation database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Image key, typically the image path",
					},
					"data": map[string]interface{}{
						"type":        "object",
						"description": "Annotations: {bbox, brush}",
					},
				},
				"required": []string{"key", "data"},
			},
		},
		{
			Name:        "annotations_load",
			Description: "Load the annotations stored under a key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Image key",
					},
				},
				"required": []string{"key"},
			},
		},
		{
			Name:        "annotations_keys",
			Description: "List the keys in the annotation database.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "annotations_delete",
			Description: "Delete the annotations stored under a key.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Image key",
					},
				},
				"required": []string{"key"},
			},
		},
	}
}

// handleToolsList returns the tool definitions
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
