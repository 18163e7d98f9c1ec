package segment

import (
	"container/heap"
	"fmt"
)

// WatershedOptions controls marker-driven watershed flooding.
type WatershedOptions struct {
	// Connectivity of the flood: 4 or 8. Default 8.
	Connectivity int

	// MarkLines, when true, leaves a one-pixel watershed line (label 0)
	// where two flood fronts meet instead of assigning those pixels to
	// either region.
	MarkLines bool
}

// floodItem is a queued pixel awaiting flooding.
type floodItem struct {
	elevation float64
	seq       int64 // insertion order; breaks elevation ties FIFO
	idx       int
	label     int
}

// floodQueue is a min-heap ordered by (elevation, insertion sequence).
type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }

func (q floodQueue) Less(i, j int) bool {
	if q[i].elevation != q[j].elevation {
		return q[i].elevation < q[j].elevation
	}
	return q[i].seq < q[j].seq
}

func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *floodQueue) Push(x interface{}) { *q = append(*q, x.(floodItem)) }

func (q *floodQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Watershed floods an elevation surface from labeled seed markers until the
// flood fronts meet, partitioning the image into one region per marker.
//
// Parameters:
//   - elevation: Elevation surface in row-major order, length width*height.
//     Gradient magnitude floods along intensity boundaries; a negated
//     distance transform separates touching convex objects.
//   - width, height: Surface dimensions.
//   - markers: Seed labels; 0 = unseeded. Marker labels are preserved in
//     the output. Must match the surface dimensions.
//   - opt: Flood parameters.
//
// Returns:
//   - *LabelMap: Every pixel carries the label of the marker whose flood
//     reached it first. With MarkLines, pixels where two fronts meet stay 0.
//     With zero markers the result is all background and no error.
//   - error: Non-nil on dimension mismatches.
//
// # Algorithm
//
// Classical priority-flood (Meyer's algorithm):
//
//  1. Push every marker pixel onto a priority queue keyed by its elevation.
//  2. Repeatedly pop the lowest pixel. Each unlabeled neighbor takes the
//     popped pixel's label and is pushed with its own elevation.
//  3. The queue orders equal elevations by insertion sequence (FIFO), so
//     plateaus flood breadth-first from all fronts simultaneously and the
//     result is deterministic.
//
// Water therefore rises uniformly: a basin fills completely before its
// flood spills over the lowest saddle into the next basin, and region
// boundaries settle on elevation ridges.
func Watershed(elevation []float64, width, height int, markers *LabelMap, opt WatershedOptions) (*LabelMap, error) {
	if len(elevation) != width*height {
		return nil, fmt.Errorf("elevation has %d entries, want %d", len(elevation), width*height)
	}
	if err := markers.Validate(width, height); err != nil {
		return nil, fmt.Errorf("invalid markers: %w", err)
	}
	if opt.Connectivity != 4 {
		opt.Connectivity = 8
	}

	result := NewLabelMap(width, height)
	copy(result.Labels, markers.Labels)

	const lineLabel = -1 // internal sentinel; exported as 0

	queue := make(floodQueue, 0, width*height/4)
	var seq int64
	for idx, label := range result.Labels {
		if label > 0 {
			queue = append(queue, floodItem{
				elevation: elevation[idx],
				seq:       seq,
				idx:       idx,
				label:     label,
			})
			seq++
		}
	}
	heap.Init(&queue)

	neighbors := neighborOffsets(opt.Connectivity)

	for queue.Len() > 0 {
		item := heap.Pop(&queue).(floodItem)
		x := item.idx % width
		y := item.idx / width

		for _, d := range neighbors {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			nIdx := ny*width + nx
			if result.Labels[nIdx] != 0 {
				continue
			}

			if opt.MarkLines && touchesOtherLabel(result, neighbors, nx, ny, item.label) {
				result.Labels[nIdx] = lineLabel
				continue
			}

			result.Labels[nIdx] = item.label
			heap.Push(&queue, floodItem{
				elevation: elevation[nIdx],
				seq:       seq,
				idx:       nIdx,
				label:     item.label,
			})
			seq++
		}
	}

	// Fold line sentinels back into background.
	for i, l := range result.Labels {
		if l == lineLabel {
			result.Labels[i] = 0
		}
	}
	result.recountMax()
	return result, nil
}

// touchesOtherLabel reports whether (x, y) has a neighbor already flooded
// with a region label different from label. Used to place watershed lines
// where two fronts meet.
func touchesOtherLabel(m *LabelMap, neighbors [][2]int, x, y, label int) bool {
	for _, d := range neighbors {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
			continue
		}
		if l := m.Labels[ny*m.Width+nx]; l > 0 && l != label {
			return true
		}
	}
	return false
}

// MarkersFromPeaks builds a marker label map with one region per peak.
// Peak i (in input order) becomes label i+1.
func MarkersFromPeaks(peaks []Peak, width, height int) *LabelMap {
	m := NewLabelMap(width, height)
	for i, p := range peaks {
		m.Set(p.X, p.Y, i+1)
	}
	return m
}
