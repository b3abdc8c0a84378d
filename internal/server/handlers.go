package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"slices"

	"github.com/ironsheep/mask-annotations-mcp/internal/annotations"
	"github.com/ironsheep/mask-annotations-mcp/internal/components"
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/imaging"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
	"github.com/ironsheep/mask-annotations-mcp/internal/ocr"
	"github.com/ironsheep/mask-annotations-mcp/internal/rle"
	"github.com/ironsheep/mask-annotations-mcp/internal/vectorize"
)

// ErrNoStore is returned by the persistence tools when the server was
// started without a database.
var ErrNoStore = errors.New("no annotation store configured (set MASK_MCP_DB)")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mask_from_image", "annotations_predict").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.callTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// callTool runs executeTool and turns a handler panic into an error.
func (s *Server) callTool(name string, args json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Tool %s panicked: %v", name, r)
			result, err = nil, fmt.Errorf("internal error in %s: %v", name, r)
		}
	}()
	return s.executeTool(name, args)
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Resolves masks from run lengths or image files
//  4. Calls the appropriate mask/annotation function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Mask Operations
	case "mask_from_image":
		return s.handleMaskFromImage(args)
	case "mask_polygons":
		return s.handleMaskPolygons(args)
	case "mask_components":
		return s.handleMaskComponents(args)
	case "mask_text":
		return s.handleMaskText(args)

	// Annotation Operations
	case "annotations_predict":
		return s.handleAnnotationsPredict(args)
	case "annotations_fill_mask":
		return s.handleAnnotationsFillMask(args)
	case "annotations_filter":
		return s.handleAnnotationsFilter(args)
	case "annotations_edit":
		return s.handleAnnotationsEdit(args)
	case "annotations_max_overlap":
		return s.handleAnnotationsMaxOverlap(args)
	case "annotations_render":
		return s.handleAnnotationsRender(args)
	case "annotations_text_boxes":
		return s.handleAnnotationsTextBoxes(args)

	// Persistence
	case "annotations_save":
		return s.handleAnnotationsSave(args)
	case "annotations_load":
		return s.handleAnnotationsLoad(args)
	case "annotations_keys":
		return s.handleAnnotationsKeys(args)
	case "annotations_delete":
		return s.handleAnnotationsDelete(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Mask Transport ===

// maskJSON is a mask on the wire: the run lengths of its foreground.
type maskJSON struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	RLE    []int `json:"rle"`
}

func encodeMask(m *mask.Mask) maskJSON {
	return maskJSON{Width: m.Width(), Height: m.Height(), RLE: rle.Encode(m)}
}

// maskSource selects the input mask of a tool: inline run lengths, or an
// image (file, base64 bytes or raw pixels) thresholded into a mask.
type maskSource struct {
	Mask        *maskJSON            `json:"mask,omitempty"`
	Path        string               `json:"path,omitempty"`
	ImageBase64 string               `json:"image_base64,omitempty"`
	Pixels      *imaging.PixelBuffer `json:"pixels,omitempty"`
	Threshold   *int                 `json:"threshold,omitempty"`
	Invert      bool                 `json:"invert,omitempty"`
}

func (src maskSource) count() int {
	n := 0
	if src.Mask != nil {
		n++
	}
	if src.Path != "" {
		n++
	}
	if src.ImageBase64 != "" {
		n++
	}
	if src.Pixels != nil {
		n++
	}
	return n
}

func (s *Server) resolveMask(src maskSource) (*mask.Mask, error) {
	switch {
	case src.count() > 1:
		return nil, errors.New("give one of mask, path, image_base64 or pixels, not both")
	case src.Mask != nil:
		if err := mask.CheckSize(src.Mask.Width, src.Mask.Height); err != nil {
			return nil, fmt.Errorf("invalid mask size: %w", err)
		}
		m, err := rle.Decode(src.Mask.RLE, 1, src.Mask.Width, src.Mask.Height)
		if err != nil {
			return nil, fmt.Errorf("invalid mask: %w", err)
		}
		return m, nil
	case src.Path != "" || src.ImageBase64 != "" || src.Pixels != nil:
		img, err := s.sourceImage(src)
		if err != nil {
			return nil, err
		}
		level := s.cfg.Threshold
		if src.Threshold != nil {
			level = *src.Threshold
		}
		if level < 0 || level > 255 {
			return nil, fmt.Errorf("threshold %d out of range 0-255", level)
		}
		return imaging.ToMask(img, uint8(level), src.Invert), nil
	default:
		return nil, errors.New("a mask, an image path, image_base64 or pixels is required")
	}
}

// sourceImage returns the image of src and rejects images larger than
// mask.MaxPixels.
func (s *Server) sourceImage(src maskSource) (image.Image, error) {
	var img image.Image
	var err error
	switch {
	case src.Path != "":
		img, err = s.cache.Load(src.Path)
	case src.Pixels != nil:
		img, err = src.Pixels.Image()
	default:
		var data []byte
		data, err = base64.StdEncoding.DecodeString(src.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		img, err = imaging.DecodeBytes(data)
	}
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if err := mask.CheckSize(b.Dx(), b.Dy()); err != nil {
		return nil, fmt.Errorf("image too large: %w", err)
	}
	return img, nil
}

// annotationArgs carries the annotation sets most tools operate on.
type annotationArgs struct {
	BBox  *annotations.BoxAnnotations   `json:"bbox,omitempty"`
	Brush *annotations.BrushAnnotations `json:"brush,omitempty"`
}

func (a annotationArgs) require() error {
	if a.BBox == nil && a.Brush == nil {
		return errors.New("bbox or brush annotations are required")
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
	// Reload drops the cached copy and reads the file again.
	Reload bool `json:"reload"`
	// Pixels also returns the raw RGB samples.
	Pixels bool `json:"pixels"`
}

// ImageLoadResult is image metadata with the cache size and, on request,
// the raw pixels.
type ImageLoadResult struct {
	*imaging.ImageInfo
	CachedImages int                  `json:"cached_images"`
	Pixels       *imaging.PixelBuffer `json:"pixels,omitempty"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	result := &ImageLoadResult{ImageInfo: info, CachedImages: s.cache.Len()}
	if a.Pixels {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		result.Pixels = imaging.NewPixelBuffer(img)
	}
	return result, nil
}

// === Mask Operation Handlers ===

type maskFromImageArgs struct {
	maskSource
	Preview bool    `json:"preview"`
	Scale   float64 `json:"scale"`
}

// MaskResult is a mask with its foreground pixel count and an optional
// rendering.
type MaskResult struct {
	Mask       maskJSON              `json:"mask"`
	Foreground int                   `json:"foreground"`
	Preview    *imaging.RenderResult `json:"preview,omitempty"`
}

func (s *Server) handleMaskFromImage(args json.RawMessage) (interface{}, error) {
	var a maskFromImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Mask != nil {
		return nil, errors.New("path or image_base64 is required")
	}
	m, err := s.resolveMask(a.maskSource)
	if err != nil {
		return nil, err
	}
	return maskResult(m, a.Preview, a.Scale)
}

func maskResult(m *mask.Mask, preview bool, scale float64) (*MaskResult, error) {
	result := &MaskResult{Mask: encodeMask(m), Foreground: m.CountNonZero()}
	if preview {
		if scale == 0 {
			scale = 1.0
		}
		r, err := imaging.RenderMask(m, scale)
		if err != nil {
			return nil, err
		}
		result.Preview = r
	}
	return result, nil
}

type maskPolygonsArgs struct {
	maskSource
	// Absolute defaults to true; false normalises coordinates by the mask size.
	Absolute *bool `json:"absolute"`
}

// PolygonsResult lists traced outlines.
type PolygonsResult struct {
	Polygons []geometry.Polygon `json:"polygons"`
	Count    int                `json:"count"`
}

func (s *Server) handleMaskPolygons(args json.RawMessage) (interface{}, error) {
	var a maskPolygonsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := s.resolveMask(a.maskSource)
	if err != nil {
		return nil, err
	}
	absolute := a.Absolute == nil || *a.Absolute
	polys := vectorize.ExtractPolygons(m, absolute)
	if polys == nil {
		polys = []geometry.Polygon{}
	}
	return &PolygonsResult{Polygons: polys, Count: len(polys)}, nil
}

// ComponentInfo describes one connected foreground region. RLE covers the
// whole mask with only this region set.
type ComponentInfo struct {
	Label int           `json:"label"`
	Box   geometry.BoxI `json:"box"`
	Area  int           `json:"area"`
	RLE   []int         `json:"rle"`
}

// ComponentsResult lists the connected regions of a mask.
type ComponentsResult struct {
	Components []ComponentInfo `json:"components"`
	Count      int             `json:"count"`
}

func (s *Server) handleMaskComponents(args json.RawMessage) (interface{}, error) {
	var a maskSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := s.resolveMask(a)
	if err != nil {
		return nil, err
	}
	comps, _ := components.Find(m)
	infos := make([]ComponentInfo, len(comps))
	for i, c := range comps {
		runs, err := rle.BoxToImage(rle.Encode(c.Mask), c.Box, m.Width(), m.Height())
		if err != nil {
			return nil, err
		}
		infos[i] = ComponentInfo{Label: c.Label, Box: c.Box, Area: c.Mask.CountNonZero(), RLE: runs}
	}
	return &ComponentsResult{Components: infos, Count: len(infos)}, nil
}

// === Annotation Operation Handlers ===

type annotationsPredictArgs struct {
	maskSource
	CatIdx   int                              `json:"cat_idx"`
	Boxes    *bool                            `json:"boxes"`
	Brush    *bool                            `json:"brush"`
	Zoom     *geometry.BoxF                   `json:"zoom"`
	Previous *annotations.InputAnnotationData `json:"previous"`
	// SaveKey stores the result under this key when persistence is enabled.
	SaveKey string `json:"save_key"`
}

func (s *Server) handleAnnotationsPredict(args json.RawMessage) (interface{}, error) {
	var a annotationsPredictArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.CatIdx < 0 {
		return nil, fmt.Errorf("cat_idx must not be negative, got %d", a.CatIdx)
	}
	m, err := s.resolveMask(a.maskSource)
	if err != nil {
		return nil, err
	}

	opts := annotations.PredictOptions{
		Boxes: a.Boxes == nil || *a.Boxes,
		Brush: a.Brush == nil || *a.Brush,
	}
	if a.Zoom != nil {
		opts.Zoom = *a.Zoom
	}
	out := annotations.Predict(m, a.CatIdx, a.Previous, opts)

	if a.SaveKey != "" {
		if s.store == nil {
			return nil, ErrNoStore
		}
		if err := s.store.Save(a.SaveKey, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type annotationsFillMaskArgs struct {
	annotationArgs
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	CatIdx  int     `json:"cat_idx"`
	Preview bool    `json:"preview"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleAnnotationsFillMask(args json.RawMessage) (interface{}, error) {
	var a annotationsFillMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.require(); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", a.Width, a.Height)
	}
	if err := mask.CheckSize(a.Width, a.Height); err != nil {
		return nil, fmt.Errorf("invalid mask size: %w", err)
	}
	m, err := fillCategory(a.annotationArgs, a.CatIdx, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	return maskResult(m, a.Preview, a.Scale)
}

// fillCategory rasterises both sets' annotations of catIdx into one mask.
func fillCategory(a annotationArgs, catIdx, width, height int) (*mask.Mask, error) {
	m := mask.New(width, height)
	if a.BBox != nil {
		a.BBox.FillMask(m, catIdx, 1)
	}
	if a.Brush != nil {
		if err := a.Brush.FillMask(m, catIdx, 1); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type annotationsFilterArgs struct {
	annotationArgs
	Boxes []geometry.BoxF `json:"boxes"`
	// Mode is keep_inside (default) or remove_inside.
	Mode string `json:"mode"`
}

func (s *Server) handleAnnotationsFilter(args json.RawMessage) (interface{}, error) {
	var a annotationsFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.require(); err != nil {
		return nil, err
	}
	boxes := make([]geometry.Box, len(a.Boxes))
	for i, b := range a.Boxes {
		boxes[i] = b
	}

	out := &annotations.OutputAnnotationData{BBox: a.BBox, Brush: a.Brush}
	switch a.Mode {
	case "", "keep_inside":
		if out.BBox != nil {
			out.BBox.KeepInside(boxes)
		}
		if out.Brush != nil {
			out.Brush.KeepInside(boxes)
		}
	case "remove_inside":
		if out.BBox != nil {
			out.BBox.RemoveInside(boxes)
		}
		if out.Brush != nil {
			out.Brush.RemoveInside(boxes)
		}
	default:
		return nil, fmt.Errorf("invalid mode: %s (use keep_inside or remove_inside)", a.Mode)
	}
	return out, nil
}

// editOp is one step of annotations_edit.
type editOp struct {
	// Op names the edit: select, deselect, toggle, remove, select_all,
	// deselect_all, label_selected, remove_selected, remove_category, clear,
	// add_box, add_canvas or merge_selected.
	Op string `json:"op"`
	// Target limits the edit to "bbox" or "brush"; empty means both.
	Target    string         `json:"target"`
	Index     int            `json:"index"`
	CatIdx    int            `json:"cat_idx"`
	Box       *geometry.BoxF `json:"box"`
	RLE       []int          `json:"rle"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Intensity *float64       `json:"intensity"`
}

type annotationsEditArgs struct {
	annotationArgs
	Ops []editOp `json:"ops"`
}

// EditResult holds the edited annotations and the selected indices of
// each set.
type EditResult struct {
	BBox          *annotations.BoxAnnotations   `json:"bbox,omitempty"`
	Brush         *annotations.BrushAnnotations `json:"brush,omitempty"`
	SelectedBBox  []int                         `json:"selected_bbox"`
	SelectedBrush []int                         `json:"selected_brush"`
}

func (s *Server) handleAnnotationsEdit(args json.RawMessage) (interface{}, error) {
	var a annotationsEditArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.require(); err != nil {
		return nil, err
	}
	for i, op := range a.Ops {
		if err := applyEdit(a.annotationArgs, op); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	result := &EditResult{BBox: a.BBox, Brush: a.Brush, SelectedBBox: []int{}, SelectedBrush: []int{}}
	if a.BBox != nil {
		result.SelectedBBox = append(result.SelectedBBox, a.BBox.SelectedIndices()...)
	}
	if a.Brush != nil {
		result.SelectedBrush = append(result.SelectedBrush, a.Brush.SelectedIndices()...)
	}
	return result, nil
}

func applyEdit(a annotationArgs, op editOp) error {
	bbox, brush := a.BBox, a.Brush
	switch op.Target {
	case "":
	case "bbox":
		brush = nil
	case "brush":
		bbox = nil
	default:
		return fmt.Errorf("%s: invalid target %q (use bbox or brush)", op.Op, op.Target)
	}
	if bbox == nil && brush == nil {
		return fmt.Errorf("%s: no %s annotations given", op.Op, op.Target)
	}
	if op.CatIdx < 0 {
		return fmt.Errorf("%s: cat_idx must not be negative, got %d", op.Op, op.CatIdx)
	}

	handled := false
	if bbox != nil {
		ok, err := applySetOp(&bbox.Set, op)
		if err != nil {
			return fmt.Errorf("bbox: %w", err)
		}
		handled = ok
	}
	if brush != nil {
		ok, err := applySetOp(&brush.Set, op)
		if err != nil {
			return fmt.Errorf("brush: %w", err)
		}
		handled = handled || ok
	}
	if handled {
		return nil
	}

	intensity := 1.0
	if op.Intensity != nil {
		intensity = *op.Intensity
	}
	switch op.Op {
	case "add_box":
		if op.Box == nil || op.Box.W <= 0 || op.Box.H <= 0 {
			return errors.New("add_box: a box with positive width and height is required")
		}
		if bbox != nil {
			bbox.Append(geometry.ShapeFromBox(*op.Box), op.CatIdx, false)
		}
		if brush != nil {
			bb := op.Box.ToInt()
			if bb.IsEmpty() {
				return fmt.Errorf("add_box: %v covers no pixel", *op.Box)
			}
			if err := mask.CheckSize(bb.W, bb.H); err != nil {
				return fmt.Errorf("add_box: %w", err)
			}
			brush.Append(annotations.CanvasFromBox(bb, intensity), op.CatIdx, false)
		}
	case "add_canvas":
		if brush == nil {
			return errors.New("add_canvas: brush annotations are required")
		}
		if op.Box == nil {
			return errors.New("add_canvas: box is required")
		}
		c, err := annotations.CanvasFromImageRLE(op.RLE, op.Box.ToInt(), op.Width, op.Height, intensity)
		if err != nil {
			return fmt.Errorf("add_canvas: %w", err)
		}
		brush.Append(c, op.CatIdx, false)
	case "merge_selected":
		if brush == nil {
			return errors.New("merge_selected: brush annotations are required")
		}
		return brush.MergeSelected()
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

// applySetOp runs the edits both annotation kinds share. It reports false
// for an op it does not know.
func applySetOp[E annotations.Element](set *annotations.Set[E], op editOp) (bool, error) {
	switch op.Op {
	case "select", "deselect", "toggle", "remove":
		if op.Index < 0 || op.Index >= set.Len() {
			return true, fmt.Errorf("%s: index %d out of range (%d annotations)", op.Op, op.Index, set.Len())
		}
		switch op.Op {
		case "select":
			set.Select(op.Index, true)
		case "deselect":
			set.Select(op.Index, false)
		case "toggle":
			set.ToggleSelection(op.Index)
		case "remove":
			set.Remove(op.Index)
		}
	case "select_all":
		set.SelectAll()
	case "deselect_all":
		set.DeselectAll()
	case "label_selected":
		set.LabelSelected(op.CatIdx)
	case "remove_selected":
		set.RemoveSelected()
	case "remove_category":
		set.RemoveCategory(op.CatIdx)
	case "clear":
		set.Clear()
	default:
		return false, nil
	}
	return true, nil
}

type annotationsMaxOverlapArgs struct {
	annotationArgs
	Zoom   geometry.BoxF `json:"zoom"`
	Filter []int         `json:"filter"`
}

// MaxOverlapResult is the governing box overlapping the zoom box most.
type MaxOverlapResult struct {
	Box     geometry.Box `json:"box"`
	Matched bool         `json:"matched"`
}

func (s *Server) handleAnnotationsMaxOverlap(args json.RawMessage) (interface{}, error) {
	var a annotationsMaxOverlapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.require(); err != nil {
		return nil, err
	}
	if a.BBox != nil && a.Brush != nil {
		return nil, errors.New("give either bbox or brush annotations, not both")
	}

	var best geometry.Box
	var n int
	if a.BBox != nil {
		best, n = a.BBox.FindMaxOverlapBox(a.Zoom, a.Filter, nil), a.BBox.Len()
	} else {
		best, n = a.Brush.FindMaxOverlapBox(a.Zoom, a.Filter, nil), a.Brush.Len()
	}
	if best == nil || n == 0 {
		return &MaxOverlapResult{Box: a.Zoom, Matched: false}, nil
	}
	return &MaxOverlapResult{Box: best, Matched: true}, nil
}

// RenderAnnotationsResult is the rendered PNG and the #rrggbb colour of
// each category drawn.
type RenderAnnotationsResult struct {
	*imaging.RenderResult
	Legend map[int]string `json:"legend"`
}

type annotationsRenderArgs struct {
	annotationArgs
	// Path is the base image; without it the annotations are drawn on black.
	Path      string                 `json:"path"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	LabelInfo *annotations.LabelInfo `json:"label_info"`
	Alpha     float64                `json:"alpha"`
	Scale     float64                `json:"scale"`
}

func (s *Server) handleAnnotationsRender(args json.RawMessage) (interface{}, error) {
	var a annotationsRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.require(); err != nil {
		return nil, err
	}
	if a.Alpha == 0 {
		a.Alpha = 0.5
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	var base image.Image
	if a.Path != "" {
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		base = img
	} else {
		if a.Width <= 0 || a.Height <= 0 {
			return nil, errors.New("path or a positive width and height are required")
		}
		if err := mask.CheckSize(a.Width, a.Height); err != nil {
			return nil, fmt.Errorf("invalid canvas size: %w", err)
		}
		base = image.NewGray(image.Rect(0, 0, a.Width, a.Height))
	}

	cats := categories(a.annotationArgs)
	colors := make([]annotations.RGB, len(cats))
	if a.LabelInfo != nil {
		if err := a.LabelInfo.Validate(); err != nil {
			return nil, err
		}
		for i, cat := range cats {
			colors[i] = a.LabelInfo.Color(cat)
		}
	} else {
		// one palette entry per category in use
		names := make([]string, len(cats))
		for i, cat := range cats {
			names[i] = fmt.Sprintf("category %d", cat)
		}
		copy(colors, annotations.NewLabelInfo(names...).Colors)
	}

	b := base.Bounds()
	var layers []imaging.Layer
	legend := make(map[int]string, len(cats))
	for i, cat := range cats {
		m, err := fillCategory(a.annotationArgs, cat, b.Dx(), b.Dy())
		if err != nil {
			return nil, err
		}
		layers = append(layers, imaging.Layer{Mask: m, Color: colors[i].Colorful(), Alpha: a.Alpha})
		legend[cat] = colors[i].Hex()
	}
	res, err := imaging.RenderOverlay(base, layers, a.Scale)
	if err != nil {
		return nil, err
	}
	return &RenderAnnotationsResult{RenderResult: res, Legend: legend}, nil
}

// categories returns the sorted category indices used by either set.
func categories(a annotationArgs) []int {
	var cats []int
	if a.BBox != nil {
		cats = append(cats, a.BBox.CatIdxs()...)
	}
	if a.Brush != nil {
		cats = append(cats, a.Brush.CatIdxs()...)
	}
	slices.Sort(cats)
	return slices.Compact(cats)
}

// textArgs selects the image OCR runs on and the recognition settings.
type textArgs struct {
	Path          string   `json:"path"`
	ImageBase64   string   `json:"image_base64"`
	Language      string   `json:"language"`
	MinConfidence *float64 `json:"min_confidence"`
}

// recognise returns the words found in the image of a together with the
// image bounds.
func (s *Server) recognise(a textArgs) ([]ocr.Word, image.Rectangle, error) {
	minConf := 0.5
	if a.MinConfidence != nil {
		minConf = *a.MinConfidence
	}

	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return nil, image.Rectangle{}, errors.New("give path or image_base64, not both")
	case a.Path != "":
		img, err := s.sourceImage(maskSource{Path: a.Path})
		if err != nil {
			return nil, image.Rectangle{}, err
		}
		words, err := ocr.ExtractWords(a.Path, a.Language, minConf)
		return words, img.Bounds(), err
	case a.ImageBase64 != "":
		img, err := s.sourceImage(maskSource{ImageBase64: a.ImageBase64})
		if err != nil {
			return nil, image.Rectangle{}, err
		}
		words, err := ocr.ExtractWordsFromImage(img, a.Language, minConf)
		return words, img.Bounds(), err
	default:
		return nil, image.Rectangle{}, errors.New("path or image_base64 is required")
	}
}

type annotationsTextBoxesArgs struct {
	textArgs
	CatIdx int `json:"cat_idx"`
}

// TextBoxesResult holds recognised words and their box annotations.
type TextBoxesResult struct {
	Words []ocr.Word                  `json:"words"`
	BBox  *annotations.BoxAnnotations `json:"bbox"`
}

func (s *Server) handleAnnotationsTextBoxes(args json.RawMessage) (interface{}, error) {
	var a annotationsTextBoxesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	words, _, err := s.recognise(a.textArgs)
	if err != nil {
		return nil, err
	}
	return &TextBoxesResult{Words: words, BBox: ocr.TextAnnotations(words, a.CatIdx)}, nil
}

type maskTextArgs struct {
	textArgs
	Preview bool    `json:"preview"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleMaskText(args json.RawMessage) (interface{}, error) {
	var a maskTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	words, bounds, err := s.recognise(a.textArgs)
	if err != nil {
		return nil, err
	}
	return maskResult(ocr.TextMask(words, bounds.Dx(), bounds.Dy(), 1), a.Preview, a.Scale)
}

// === Persistence Handlers ===

type annotationsKeyArgs struct {
	Key string `json:"key"`
}

type annotationsSaveArgs struct {
	Key  string                            `json:"key"`
	Data *annotations.OutputAnnotationData `json:"data"`
}

func (s *Server) handleAnnotationsSave(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var a annotationsSaveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Key == "" {
		return nil, errors.New("key is required")
	}
	if err := s.store.Save(a.Key, a.Data); err != nil {
		return nil, err
	}
	return map[string]interface{}{"key": a.Key, "saved": true}, nil
}

func (s *Server) handleAnnotationsLoad(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var a annotationsKeyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.store.Load(a.Key)
}

func (s *Server) handleAnnotationsKeys(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	keys, err := s.store.Keys()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"keys": keys, "count": len(keys)}, nil
}

func (s *Server) handleAnnotationsDelete(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var a annotationsKeyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.store.Delete(a.Key); err != nil {
		return nil, err
	}
	return map[string]interface{}{"key": a.Key, "deleted": true}, nil
}
