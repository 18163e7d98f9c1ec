package segment

import "fmt"

// LabelMap assigns an integer region label to every pixel of an image.
//
// Labels is stored in row-major order with length Width*Height. Label 0 is
// background; region labels are 1..MaxLabel. A LabelMap always has the same
// dimensions as the image it was derived from.
type LabelMap struct {
	// Width of the label map in pixels.
	Width int `json:"width"`

	// Height of the label map in pixels.
	Height int `json:"height"`

	// MaxLabel is the highest region label present (0 if the map is empty).
	MaxLabel int `json:"max_label"`

	// Labels holds one label per pixel in row-major order.
	Labels []int `json:"-"`
}

// NewLabelMap creates an all-background label map of the given dimensions.
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{
		Width:  width,
		Height: height,
		Labels: make([]int, width*height),
	}
}

// At returns the label at (x, y). Coordinates outside the map return 0.
func (m *LabelMap) At(x, y int) int {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Labels[y*m.Width+x]
}

// Set assigns the label at (x, y). Out-of-bounds coordinates are ignored.
func (m *LabelMap) Set(x, y, label int) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.Labels[y*m.Width+x] = label
	if label > m.MaxLabel {
		m.MaxLabel = label
	}
}

// Validate checks that the label map matches the given image dimensions.
func (m *LabelMap) Validate(width, height int) error {
	if m.Width != width || m.Height != height {
		return fmt.Errorf("label map is %dx%d but image is %dx%d",
			m.Width, m.Height, width, height)
	}
	if len(m.Labels) != m.Width*m.Height {
		return fmt.Errorf("label map has %d entries, want %d", len(m.Labels), m.Width*m.Height)
	}
	return nil
}

// BoundaryMask returns a boolean mask marking pixels that sit on a region
// boundary: pixels whose right or lower 4-neighbor carries a different label.
// The mask has the same dimensions as the label map.
func (m *LabelMap) BoundaryMask() []bool {
	mask := make([]bool, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			idx := y*m.Width + x
			label := m.Labels[idx]
			if x+1 < m.Width && m.Labels[idx+1] != label {
				mask[idx] = true
				mask[idx+1] = true
			}
			if y+1 < m.Height && m.Labels[idx+m.Width] != label {
				mask[idx] = true
				mask[idx+m.Width] = true
			}
		}
	}
	return mask
}

// recountMax rescans the labels and updates MaxLabel.
func (m *LabelMap) recountMax() {
	maxLabel := 0
	for _, l := range m.Labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	m.MaxLabel = maxLabel
}

// ConnectedComponents labels the connected foreground regions of a binary
// mask. Foreground pixels (true) receive labels 1..N; background pixels
// (false) stay 0.
//
// Parameters:
//   - mask: Binary mask in row-major order, length width*height.
//   - width, height: Mask dimensions.
//   - connectivity: 4 or 8. Any other value is treated as 8.
//
// Components are discovered in row-major scan order, so labeling is
// deterministic: the component containing the first foreground pixel becomes
// label 1, and so on.
func ConnectedComponents(mask []bool, width, height, connectivity int) (*LabelMap, error) {
	if len(mask) != width*height {
		return nil, fmt.Errorf("mask has %d entries, want %d", len(mask), width*height)
	}

	m := NewLabelMap(width, height)
	neighbors := neighborOffsets(connectivity)
	stack := make([]int, 0, 256)
	label := 0

	for start := range mask {
		if !mask[start] || m.Labels[start] != 0 {
			continue
		}
		label++
		m.Labels[start] = label
		stack = append(stack[:0], start)

		// Iterative flood fill; a recursive fill would overflow on large
		// regions.
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := idx % width
			y := idx / width

			for _, d := range neighbors {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nIdx := ny*width + nx
				if mask[nIdx] && m.Labels[nIdx] == 0 {
					m.Labels[nIdx] = label
					stack = append(stack, nIdx)
				}
			}
		}
	}

	m.MaxLabel = label
	return m, nil
}

// neighborOffsets returns the (dx, dy) offsets for the requested
// connectivity. 4-connectivity uses the cardinal neighbors; anything else
// gets the full 8-neighborhood.
func neighborOffsets(connectivity int) [][2]int {
	if connectivity == 4 {
		return [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	}
	return [][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
}
