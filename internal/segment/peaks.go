package segment

import (
	"fmt"
	"sort"
)

// Peak is a local maximum of a scalar field.
type Peak struct {
	// X coordinate of the peak (0-based).
	X int `json:"x"`

	// Y coordinate of the peak (0-based).
	Y int `json:"y"`

	// Value of the field at the peak.
	Value float64 `json:"value"`
}

// PeakOptions controls local-maximum detection.
type PeakOptions struct {
	// MinDistance is the minimum separation between two reported peaks,
	// in pixels. Candidates must also be the maximum of their
	// (2*MinDistance+1)^2 neighborhood. Default 1.
	MinDistance int

	// ThresholdAbs discards candidates whose value is below this absolute
	// level. Zero disables the absolute threshold.
	ThresholdAbs float64

	// ThresholdRel discards candidates below ThresholdRel times the field
	// maximum (0-1). Zero disables the relative threshold.
	ThresholdRel float64
}

// FindPeaks locates local maxima of a scalar field, typically the distance
// transform, to use as watershed seed points.
//
// Parameters:
//   - field: Scalar field in row-major order, length width*height.
//   - width, height: Field dimensions.
//   - opt: Detection parameters.
//
// Returns:
//   - []Peak: Peaks ordered by value descending; equal values tie-break in
//     row-major position order, so output is deterministic.
//   - error: Non-nil if the field length does not match the dimensions.
//
// # Algorithm
//
//  1. Candidate scan: a pixel is a candidate if its value passes both
//     thresholds and is >= every value in its square suppression window of
//     radius MinDistance.
//  2. Greedy suppression: candidates are visited in order (value descending,
//     then row-major) and accepted only if no already-accepted peak lies
//     within MinDistance. This collapses flat plateaus to their first pixel
//     in scan order.
//
// An all-zero field produces no peaks; only strictly positive values are
// candidates.
func FindPeaks(field []float64, width, height int, opt PeakOptions) ([]Peak, error) {
	if len(field) != width*height {
		return nil, fmt.Errorf("field has %d entries, want %d", len(field), width*height)
	}
	if opt.MinDistance < 1 {
		opt.MinDistance = 1
	}

	maxVal := 0.0
	for _, v := range field {
		if v > maxVal {
			maxVal = v
		}
	}
	threshold := opt.ThresholdAbs
	if rel := opt.ThresholdRel * maxVal; rel > threshold {
		threshold = rel
	}
	if maxVal == 0 {
		return nil, nil
	}

	r := opt.MinDistance
	var candidates []Peak
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := field[y*width+x]
			if v <= 0 || v < threshold {
				continue
			}
			if isWindowMax(field, width, height, x, y, r, v) {
				candidates = append(candidates, Peak{X: x, Y: y, Value: v})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Value != candidates[j].Value {
			return candidates[i].Value > candidates[j].Value
		}
		if candidates[i].Y != candidates[j].Y {
			return candidates[i].Y < candidates[j].Y
		}
		return candidates[i].X < candidates[j].X
	})

	// Greedy min-distance suppression over the sorted candidates.
	minDistSq := r * r
	var peaks []Peak
	for _, c := range candidates {
		ok := true
		for _, p := range peaks {
			dx := c.X - p.X
			dy := c.Y - p.Y
			if dx*dx+dy*dy < minDistSq {
				ok = false
				break
			}
		}
		if ok {
			peaks = append(peaks, c)
		}
	}
	return peaks, nil
}

// isWindowMax reports whether v is >= every field value in the square window
// of the given radius around (x, y).
func isWindowMax(field []float64, width, height, x, y, radius int, v float64) bool {
	y0 := maxInt(y-radius, 0)
	y1 := minInt(y+radius, height-1)
	x0 := maxInt(x-radius, 0)
	x1 := minInt(x+radius, width-1)
	for ny := y0; ny <= y1; ny++ {
		row := ny * width
		for nx := x0; nx <= x1; nx++ {
			if field[row+nx] > v {
				return false
			}
		}
	}
	return true
}
