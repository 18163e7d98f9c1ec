// Package server implements the MCP (Model Context Protocol) server for
// image segmentation tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the segmentation
// pipeline through the MCP protocol. It's designed to work with Claude and
// other MCP-compatible clients, so an AI system can segment an image, inspect
// the resulting regions, tune parameters, and re-run individual stages.
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
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_edge_detect: Canny edge detection
//
// Segmentation:
//   - segment_slic: Superpixel clustering
//   - segment_distance_transform: Threshold + Euclidean distance transform
//   - segment_find_peaks: Local maxima of a stored field
//   - segment_watershed: Marker-driven watershed flooding
//   - segment_region_props: Shape descriptors per region
//   - segment_filter_regions: Drop regions by area/eccentricity
//   - segment_render: Visualize a segmentation as PNG
//
// # Result Store
//
// Segmentations and scalar fields are kept in an in-memory store under
// generated ids ("seg-N", "field-N"). Downstream tools reference results by
// id, so a typical session chains calls:
//
//	segment_distance_transform -> field-1
//	segment_find_peaks(field-1) -> seed points
//	segment_watershed -> seg-2
//	segment_filter_regions(seg-2) -> seg-3
//	segment_render(seg-3) -> PNG
//
// Re-running a stage with different parameters stores a new result; earlier
// ids stay valid for comparison. The store and the image cache persist for
// the lifetime of the server process only.
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
// The server is typically started by an MCP client:
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
