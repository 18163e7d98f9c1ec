package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, and color information.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Return an edge-detected version of the image (Canny), showing region boundaries as white lines on black.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low threshold for Canny edge detection (default 50)",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High threshold for Canny edge detection (default 150)",
						"default":     150,
					},
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "segment_slic",
			Description: "Segment an image into superpixels with SLIC (k-means clustering in color+position space). Returns a segmentation id for use with segment_region_props, segment_filter_regions, and segment_render.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"superpixels": map[string]interface{}{
						"type":        "integer",
						"description": "Approximate number of superpixels to produce (default 250)",
						"default":     250,
					},
					"compactness": map[string]interface{}{
						"type":        "number",
						"description": "Spatial compactness weight; higher values make regions more square (default 10)",
						"default":     10,
					},
					"iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Number of clustering iterations (default 10)",
						"default":     10,
					},
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a boundary overlay PNG in the result",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_distance_transform",
			Description: "Threshold an image into a binary mask and compute the exact Euclidean distance transform (distance of each foreground pixel to the nearest background pixel). Returns a field id for segment_find_peaks and segment_watershed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Grayscale threshold 0-255 for the foreground mask. Omit to pick automatically (Otsu).",
					},
					"invert": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat pixels darker than the threshold as foreground",
						"default":     false,
					},
					"smooth_radius": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian blur radius applied before thresholding (default 0, no smoothing)",
						"default":     0,
					},
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a heatmap PNG of the distance field in the result",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_find_peaks",
			Description: "Find local maxima of a stored scalar field (typically a distance transform). Peaks make good watershed markers: one peak per object center.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"field_id": map[string]interface{}{
						"type":        "string",
						"description": "Field id returned by segment_distance_transform",
					},
					"min_distance": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum distance in pixels between reported peaks (default 10)",
						"default":     10,
					},
					"threshold_abs": map[string]interface{}{
						"type":        "number",
						"description": "Absolute minimum value for a peak (default 0)",
						"default":     0,
					},
					"threshold_rel": map[string]interface{}{
						"type":        "number",
						"description": "Minimum value as a fraction of the field maximum, 0-1 (default 0)",
						"default":     0,
					},
				},
				"required": []string{"field_id"},
			},
		},
		{
			Name:        "segment_watershed",
			Description: "Segment an image by watershed flooding from markers. Markers can be given explicitly or derived automatically (blur, threshold, distance transform, peaks). Returns a segmentation id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"markers": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer"},
								"y": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Explicit seed points. Omit to derive markers automatically.",
					},
					"elevation": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gradient", "distance"},
						"description": "Flooding surface: \"gradient\" floods toward intensity edges, \"distance\" splits touching objects along the thresholded mask's ridge lines (default \"gradient\")",
						"default":     "gradient",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Grayscale threshold 0-255 for the mask used in automatic marker derivation and the \"distance\" elevation. Omit to pick automatically (Otsu).",
					},
					"invert": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat pixels darker than the threshold as foreground",
						"default":     false,
					},
					"smooth_radius": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian blur radius before thresholding and gradient computation (default 2)",
						"default":     2,
					},
					"min_distance": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum distance between automatic markers (default 10)",
						"default":     10,
					},
					"threshold_rel": map[string]interface{}{
						"type":        "number",
						"description": "Relative peak threshold for automatic markers, 0-1 (default 0.1)",
						"default":     0.1,
					},
					"connectivity": map[string]interface{}{
						"type":        "integer",
						"enum":        []int{4, 8},
						"description": "Pixel connectivity for flooding (default 8)",
						"default":     8,
					},
					"watershed_lines": map[string]interface{}{
						"type":        "boolean",
						"description": "Leave one-pixel background lines where regions meet",
						"default":     false,
					},
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a boundary overlay PNG in the result",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_region_props",
			Description: "Compute shape descriptors for every region of a stored segmentation: area, centroid, bounding box, perimeter, mean color, axis lengths, orientation, and eccentricity.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"segmentation_id": map[string]interface{}{
						"type":        "string",
						"description": "Segmentation id returned by segment_slic or segment_watershed",
					},
				},
				"required": []string{"segmentation_id"},
			},
		},
		{
			Name:        "segment_filter_regions",
			Description: "Drop regions of a stored segmentation that fail area or eccentricity limits, and return a new segmentation id with the survivors relabeled 1..K.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"segmentation_id": map[string]interface{}{
						"type":        "string",
						"description": "Segmentation id to filter",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Drop regions smaller than this many pixels (default 0, disabled)",
						"default":     0,
					},
					"max_area": map[string]interface{}{
						"type":        "integer",
						"description": "Drop regions larger than this many pixels (default 0, disabled)",
						"default":     0,
					},
					"max_eccentricity": map[string]interface{}{
						"type":        "number",
						"description": "Drop regions more elongated than this, 0-1 (default 0, disabled)",
						"default":     0,
					},
					"min_eccentricity": map[string]interface{}{
						"type":        "number",
						"description": "Drop regions rounder than this, 0-1 (default 0, disabled)",
						"default":     0,
					},
				},
				"required": []string{"segmentation_id"},
			},
		},
		{
			Name:        "segment_render",
			Description: "Render a stored segmentation as PNG: region boundaries over the source image, regions filled with their mean color, a distinct color per region, or a close-up crop of one region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"segmentation_id": map[string]interface{}{
						"type":        "string",
						"description": "Segmentation id to render",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"boundaries", "mean", "random", "region"},
						"description": "Visualization mode (default \"boundaries\")",
						"default":     "boundaries",
					},
					"line_color": map[string]interface{}{
						"type":        "string",
						"description": "Boundary color as hex for boundaries mode (default #FFFF00)",
						"default":     "#FFFF00",
					},
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Fill opacity 0-1 for mean and random modes (default 0.6)",
						"default":     0.6,
					},
					"label": map[string]interface{}{
						"type":        "integer",
						"description": "Region label to crop in region mode",
					},
					"pad": map[string]interface{}{
						"type":        "integer",
						"description": "Context pixels around the region crop (default 5)",
						"default":     5,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the region crop (default 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"segmentation_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
