// Package segment implements image segmentation algorithms for the MCP server.
//
// This package provides the algorithms that partition an image into labeled
// regions: SLIC superpixel clustering, marker-driven watershed flooding, the
// exact Euclidean distance transform, local-maximum peak detection, connected
// component labeling, and per-region shape descriptors.
//
// # Label Maps
//
// All segmentation results are expressed as a LabelMap: one integer label per
// pixel, with the same dimensions as the source image. Label 0 is reserved
// for background (and for watershed lines when line marking is enabled);
// region labels run from 1 to MaxLabel.
//
// # Determinism
//
// Every algorithm in this package is deterministic. Watershed flooding breaks
// elevation ties by insertion order (FIFO), peak lists are ordered by value
// descending then row-major position, and region filtering compacts surviving
// labels in ascending input order. Re-running any operation with identical
// inputs produces an identical LabelMap.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with origin at the top-left corner,
// X increasing rightward and Y increasing downward, matching the imaging
// package.
//
// # Typical Pipeline
//
// Segmenting touching objects generally composes these steps:
//
//  1. Smooth and threshold the image into a binary mask
//  2. Compute the distance transform of the mask
//  3. Find peaks of the distance field (one seed per object)
//  4. Flood the negated distance field with watershed from those seeds
//  5. Filter the resulting regions by shape (area, eccentricity)
package segment
