package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/segment-tools-mcp/internal/imaging"
	"github.com/ironsheep/segment-tools-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "segment_slic").
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

	result, err := s.executeTool(params.Name, params.Arguments)
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

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache and stored results from the segment store
//  4. Calls the appropriate imaging/segment function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	// Segmentation
	case "segment_slic":
		return s.handleSegmentSLIC(args)
	case "segment_distance_transform":
		return s.handleSegmentDistanceTransform(args)
	case "segment_find_peaks":
		return s.handleSegmentFindPeaks(args)
	case "segment_watershed":
		return s.handleSegmentWatershed(args)
	case "segment_region_props":
		return s.handleSegmentRegionProps(args)
	case "segment_filter_regions":
		return s.handleSegmentFilterRegions(args)
	case "segment_render":
		return s.handleSegmentRender(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

// === Segmentation Handlers ===

type segmentSLICArgs struct {
	Path        string  `json:"path"`
	Superpixels int     `json:"superpixels"`
	Compactness float64 `json:"compactness"`
	Iterations  int     `json:"iterations"`
	Render      bool    `json:"render"`
}

type segmentationResult struct {
	SegmentationID string `json:"segmentation_id"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// RegionCount is the number of regions in the segmentation.
	RegionCount int `json:"region_count"`

	// MarkerCount is set for watershed results: the number of seed markers
	// the flooding started from.
	MarkerCount int `json:"marker_count,omitempty"`

	// Overlay is a boundary visualization, present when render was requested.
	Overlay *imaging.RenderResult `json:"overlay,omitempty"`
}

func (s *Server) handleSegmentSLIC(args json.RawMessage) (interface{}, error) {
	var a segmentSLICArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opt := segment.DefaultSLICOptions()
	if a.Superpixels > 0 {
		opt.Superpixels = a.Superpixels
	}
	if a.Compactness > 0 {
		opt.Compactness = a.Compactness
	}
	if a.Iterations > 0 {
		opt.Iterations = a.Iterations
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	labels, err := segment.SLIC(img, opt)
	if err != nil {
		return nil, err
	}

	result := &segmentationResult{
		SegmentationID: s.store.putSegmentation(a.Path, labels),
		Width:          labels.Width,
		Height:         labels.Height,
		RegionCount:    labels.MaxLabel,
	}
	if a.Render {
		overlay, err := imaging.RenderOverlay(img, labels, imaging.OverlayBoundaries, "#FFFF00", 1)
		if err != nil {
			return nil, err
		}
		result.Overlay = overlay
	}
	return result, nil
}

type segmentDistanceTransformArgs struct {
	Path string `json:"path"`

	// Threshold is a pointer so that an omitted value selects Otsu rather
	// than level 0.
	Threshold    *int    `json:"threshold"`
	Invert       bool    `json:"invert"`
	SmoothRadius float64 `json:"smooth_radius"`
	Render       bool    `json:"render"`
}

type distanceTransformResult struct {
	FieldID string `json:"field_id"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// ThresholdUsed is the grayscale level that produced the mask, either
	// the requested one or the Otsu pick.
	ThresholdUsed int `json:"threshold_used"`

	// ForegroundPixels is the mask's foreground population.
	ForegroundPixels int `json:"foreground_pixels"`

	// MaxDistance is the largest distance in the field, in pixels.
	MaxDistance float64 `json:"max_distance"`

	// Heatmap is a visualization of the field, present when render was
	// requested.
	Heatmap *imaging.RenderResult `json:"heatmap,omitempty"`
}

func (s *Server) handleSegmentDistanceTransform(args json.RawMessage) (interface{}, error) {
	var a segmentDistanceTransformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	level := -1
	if a.Threshold != nil {
		level = *a.Threshold
	}
	mask, used := segment.BinaryMask(imaging.Smooth(img, a.SmoothRadius), level, a.Invert)

	bounds := img.Bounds()
	dist, err := segment.DistanceTransform(mask, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	foreground := 0
	for _, fg := range mask {
		if fg {
			foreground++
		}
	}

	result := &distanceTransformResult{
		FieldID:          s.store.putField(a.Path, dist.Field, dist.Width, dist.Height),
		Width:            dist.Width,
		Height:           dist.Height,
		ThresholdUsed:    used,
		ForegroundPixels: foreground,
		MaxDistance:      dist.MaxDistance,
	}
	if a.Render {
		heatmap, err := imaging.RenderHeatmap(dist.Field, dist.Width, dist.Height)
		if err != nil {
			return nil, err
		}
		result.Heatmap = heatmap
	}
	return result, nil
}

type segmentFindPeaksArgs struct {
	FieldID      string  `json:"field_id"`
	MinDistance  int     `json:"min_distance"`
	ThresholdAbs float64 `json:"threshold_abs"`
	ThresholdRel float64 `json:"threshold_rel"`
}

type findPeaksResult struct {
	Count int            `json:"count"`
	Peaks []segment.Peak `json:"peaks"`
}

func (s *Server) handleSegmentFindPeaks(args json.RawMessage) (interface{}, error) {
	var a segmentFindPeaksArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MinDistance == 0 {
		a.MinDistance = 10
	}

	f, err := s.store.getField(a.FieldID)
	if err != nil {
		return nil, err
	}

	peaks, err := segment.FindPeaks(f.field, f.width, f.height, segment.PeakOptions{
		MinDistance:  a.MinDistance,
		ThresholdAbs: a.ThresholdAbs,
		ThresholdRel: a.ThresholdRel,
	})
	if err != nil {
		return nil, err
	}
	return &findPeaksResult{Count: len(peaks), Peaks: peaks}, nil
}

type markerPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type segmentWatershedArgs struct {
	Path           string        `json:"path"`
	Markers        []markerPoint `json:"markers"`
	Elevation      string        `json:"elevation"`
	Threshold      *int          `json:"threshold"`
	Invert         bool          `json:"invert"`
	SmoothRadius   float64       `json:"smooth_radius"`
	MinDistance    int           `json:"min_distance"`
	ThresholdRel   float64       `json:"threshold_rel"`
	Connectivity   int           `json:"connectivity"`
	WatershedLines bool          `json:"watershed_lines"`
	Render         bool          `json:"render"`
}

func (s *Server) handleSegmentWatershed(args json.RawMessage) (interface{}, error) {
	var a segmentWatershedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Elevation == "" {
		a.Elevation = "gradient"
	}
	if a.SmoothRadius == 0 {
		a.SmoothRadius = 2
	}
	if a.MinDistance == 0 {
		a.MinDistance = 10
	}
	if a.ThresholdRel == 0 {
		a.ThresholdRel = 0.1
	}
	if a.Connectivity == 0 {
		a.Connectivity = 8
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// The thresholded mask's distance transform serves two purposes: peak
	// locations for automatic markers, and (negated) the "distance"
	// elevation surface. Compute it once when either is needed.
	var dist *segment.DistanceResult
	if len(a.Markers) == 0 || a.Elevation == "distance" {
		level := -1
		if a.Threshold != nil {
			level = *a.Threshold
		}
		mask, _ := segment.BinaryMask(imaging.Smooth(img, a.SmoothRadius), level, a.Invert)
		dist, err = segment.DistanceTransform(mask, width, height)
		if err != nil {
			return nil, err
		}
	}

	var markers *segment.LabelMap
	if len(a.Markers) > 0 {
		peaks := make([]segment.Peak, len(a.Markers))
		for i, p := range a.Markers {
			if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
				return nil, fmt.Errorf("marker (%d,%d) outside image bounds %dx%d", p.X, p.Y, width, height)
			}
			peaks[i] = segment.Peak{X: p.X, Y: p.Y}
		}
		markers = segment.MarkersFromPeaks(peaks, width, height)
	} else {
		peaks, err := segment.FindPeaks(dist.Field, width, height, segment.PeakOptions{
			MinDistance:  a.MinDistance,
			ThresholdRel: a.ThresholdRel,
		})
		if err != nil {
			return nil, err
		}
		markers = segment.MarkersFromPeaks(peaks, width, height)
	}

	var elevation []float64
	switch a.Elevation {
	case "gradient":
		elevation, _, _ = imaging.GradientMagnitude(img, a.SmoothRadius)
	case "distance":
		elevation = dist.Negate()
	default:
		return nil, fmt.Errorf("unknown elevation source: %s", a.Elevation)
	}

	labels, err := segment.Watershed(elevation, width, height, markers, segment.WatershedOptions{
		Connectivity: a.Connectivity,
		MarkLines:    a.WatershedLines,
	})
	if err != nil {
		return nil, err
	}

	result := &segmentationResult{
		SegmentationID: s.store.putSegmentation(a.Path, labels),
		Width:          labels.Width,
		Height:         labels.Height,
		RegionCount:    labels.MaxLabel,
		MarkerCount:    markers.MaxLabel,
	}
	if a.Render {
		overlay, err := imaging.RenderOverlay(img, labels, imaging.OverlayBoundaries, "#FFFF00", 1)
		if err != nil {
			return nil, err
		}
		result.Overlay = overlay
	}
	return result, nil
}

type segmentRegionPropsArgs struct {
	SegmentationID string `json:"segmentation_id"`
}

type regionPropsResult struct {
	Count   int              `json:"count"`
	Regions []segment.Region `json:"regions"`
}

func (s *Server) handleSegmentRegionProps(args json.RawMessage) (interface{}, error) {
	var a segmentRegionPropsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	seg, img, err := s.loadSegmentation(a.SegmentationID)
	if err != nil {
		return nil, err
	}

	regions, err := segment.RegionProps(seg.labels, img)
	if err != nil {
		return nil, err
	}
	return &regionPropsResult{Count: len(regions), Regions: regions}, nil
}

type segmentFilterRegionsArgs struct {
	SegmentationID  string  `json:"segmentation_id"`
	MinArea         int     `json:"min_area"`
	MaxArea         int     `json:"max_area"`
	MaxEccentricity float64 `json:"max_eccentricity"`
	MinEccentricity float64 `json:"min_eccentricity"`
}

type filterRegionsResult struct {
	SegmentationID string `json:"segmentation_id"`

	KeptCount    int `json:"kept_count"`
	DroppedCount int `json:"dropped_count"`

	// Regions describes the surviving regions under their new labels.
	Regions []segment.Region `json:"regions"`
}

func (s *Server) handleSegmentFilterRegions(args json.RawMessage) (interface{}, error) {
	var a segmentFilterRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	seg, img, err := s.loadSegmentation(a.SegmentationID)
	if err != nil {
		return nil, err
	}

	filtered, kept, dropped, err := segment.FilterRegions(seg.labels, img, segment.FilterOptions{
		MinArea:         a.MinArea,
		MaxArea:         a.MaxArea,
		MaxEccentricity: a.MaxEccentricity,
		MinEccentricity: a.MinEccentricity,
	})
	if err != nil {
		return nil, err
	}

	return &filterRegionsResult{
		SegmentationID: s.store.putSegmentation(seg.path, filtered),
		KeptCount:      len(kept),
		DroppedCount:   dropped,
		Regions:        kept,
	}, nil
}

type segmentRenderArgs struct {
	SegmentationID string  `json:"segmentation_id"`
	Mode           string  `json:"mode"`
	LineColor      string  `json:"line_color"`
	Alpha          float64 `json:"alpha"`
	Label          int     `json:"label"`
	Pad            int     `json:"pad"`
	Scale          float64 `json:"scale"`
}

func (s *Server) handleSegmentRender(args json.RawMessage) (interface{}, error) {
	var a segmentRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = imaging.OverlayBoundaries
	}
	if a.LineColor == "" {
		a.LineColor = "#FFFF00"
	}
	if a.Alpha == 0 {
		a.Alpha = 0.6
	}
	if a.Pad == 0 {
		a.Pad = 5
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	seg, img, err := s.loadSegmentation(a.SegmentationID)
	if err != nil {
		return nil, err
	}

	if a.Mode == "region" {
		return imaging.RenderRegion(img, seg.labels, a.Label, a.Pad, a.Scale)
	}
	return imaging.RenderOverlay(img, seg.labels, a.Mode, a.LineColor, a.Alpha)
}

// loadSegmentation fetches a stored segmentation and reloads its source
// image from the cache.
func (s *Server) loadSegmentation(id string) (storedSegmentation, image.Image, error) {
	seg, err := s.store.getSegmentation(id)
	if err != nil {
		return storedSegmentation{}, nil, err
	}
	img, err := s.cache.Load(seg.path)
	if err != nil {
		return storedSegmentation{}, nil, err
	}
	return seg, img, nil
}
