// Package imaging provides image loading and pixel-level processing for the
// segmentation MCP server.
//
// This package covers the image side of the pipeline: cached loading,
// grayscale and gradient fields, Canny edge detection, and rendering of
// segmentation results (overlays, heatmaps, region crops) as base64 PNG.
// The segmentation algorithms themselves live in the segment package; the
// field representations here (row-major float64 slices) match the ones it
// consumes.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Scalar fields are stored
// row-major with length width*height.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The processing functions
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as field/image dimension
// mismatches, unknown render modes, labels absent from a label map, file
// I/O errors during loading, and encoding errors during output.
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid
// redundant disk reads. Large images may consume significant memory when
// cached; use Evict or Clear in long-running processes.
package imaging
