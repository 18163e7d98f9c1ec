package segment

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Region describes one labeled region of a segmentation.
type Region struct {
	// Label of the region in the source label map.
	Label int `json:"label"`

	// Area in pixels.
	Area int `json:"area"`

	// CentroidX, CentroidY is the region's center of mass.
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// Bounding box, inclusive on all edges.
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`

	// Perimeter is the count of region pixels with at least one 4-neighbor
	// outside the region (or on the image border).
	Perimeter int `json:"perimeter"`

	// MeanColor is the average color of the region's source pixels as
	// "#RRGGBB". Empty when no source image was supplied.
	MeanColor string `json:"mean_color,omitempty"`

	// MajorAxisLength and MinorAxisLength are the axis lengths of the
	// ellipse with the same normalized second central moments as the
	// region.
	MajorAxisLength float64 `json:"major_axis_length"`
	MinorAxisLength float64 `json:"minor_axis_length"`

	// Orientation is the angle of the major axis in radians, measured
	// from the positive X axis, in (-pi/2, pi/2].
	Orientation float64 `json:"orientation"`

	// Eccentricity of that ellipse: 0 for a circle, approaching 1 for a
	// line segment.
	Eccentricity float64 `json:"eccentricity"`
}

// regionAcc accumulates per-label statistics in a single pass.
type regionAcc struct {
	area                   int
	sumX, sumY             float64
	sumXX, sumYY, sumXY    float64
	minX, minY, maxX, maxY int
	perimeter              int
	sumR, sumG, sumB       float64
}

// RegionProps computes shape descriptors for every region of a label map.
//
// Parameters:
//   - m: Label map. Label 0 (background) is skipped.
//   - src: Optional source image for mean-color computation; pass nil to
//     skip colors. When given it must have the label map's dimensions.
//
// Returns:
//   - []Region: One descriptor per region in ascending label order. Labels
//     with no pixels are omitted.
//   - error: Non-nil on dimension mismatch.
//
// # Shape Descriptors
//
// Axis lengths, orientation and eccentricity come from the eigenvalues of
// the region's normalized second central moment matrix
//
//	| mu20 mu11 |
//	| mu11 mu02 |
//
// with 1/12 added to the diagonal to account for each pixel's unit extent
// (this keeps a single pixel from degenerating to a zero-size ellipse).
// The major axis length is 4*sqrt(lambda_max), the minor 4*sqrt(lambda_min),
// and eccentricity is sqrt(1 - lambda_min/lambda_max).
func RegionProps(m *LabelMap, src image.Image) ([]Region, error) {
	if src != nil {
		b := src.Bounds()
		if err := m.Validate(b.Dx(), b.Dy()); err != nil {
			return nil, err
		}
	}

	accs := make(map[int]*regionAcc, m.MaxLabel)
	var srcMin image.Point
	if src != nil {
		srcMin = src.Bounds().Min
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			label := m.Labels[y*m.Width+x]
			if label == 0 {
				continue
			}
			acc, ok := accs[label]
			if !ok {
				acc = &regionAcc{minX: x, minY: y, maxX: x, maxY: y}
				accs[label] = acc
			}
			acc.area++
			fx, fy := float64(x), float64(y)
			acc.sumX += fx
			acc.sumY += fy
			acc.sumXX += fx * fx
			acc.sumYY += fy * fy
			acc.sumXY += fx * fy
			if x < acc.minX {
				acc.minX = x
			}
			if y < acc.minY {
				acc.minY = y
			}
			if x > acc.maxX {
				acc.maxX = x
			}
			if y > acc.maxY {
				acc.maxY = y
			}
			if m.At(x-1, y) != label || m.At(x+1, y) != label ||
				m.At(x, y-1) != label || m.At(x, y+1) != label {
				acc.perimeter++
			}
			if src != nil {
				r, g, b, _ := src.At(srcMin.X+x, srcMin.Y+y).RGBA()
				acc.sumR += float64(r >> 8)
				acc.sumG += float64(g >> 8)
				acc.sumB += float64(b >> 8)
			}
		}
	}

	regions := make([]Region, 0, len(accs))
	for label := 1; label <= m.MaxLabel; label++ {
		acc, ok := accs[label]
		if !ok {
			continue
		}
		n := float64(acc.area)
		cx := acc.sumX / n
		cy := acc.sumY / n

		// Normalized central moments with the pixel-extent correction.
		mu20 := acc.sumXX/n - cx*cx + 1.0/12.0
		mu02 := acc.sumYY/n - cy*cy + 1.0/12.0
		mu11 := acc.sumXY/n - cx*cy

		major, minor, orientation, ecc := ellipseParams(mu20, mu02, mu11)

		region := Region{
			Label:           label,
			Area:            acc.area,
			CentroidX:       cx,
			CentroidY:       cy,
			MinX:            acc.minX,
			MinY:            acc.minY,
			MaxX:            acc.maxX,
			MaxY:            acc.maxY,
			Perimeter:       acc.perimeter,
			MajorAxisLength: major,
			MinorAxisLength: minor,
			Orientation:     orientation,
			Eccentricity:    ecc,
		}
		if src != nil {
			region.MeanColor = fmt.Sprintf("#%02X%02X%02X",
				uint8(acc.sumR/n), uint8(acc.sumG/n), uint8(acc.sumB/n))
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// ellipseParams derives axis lengths, orientation and eccentricity from the
// second central moment matrix via its eigen-decomposition.
func ellipseParams(mu20, mu02, mu11 float64) (major, minor, orientation, ecc float64) {
	cov := mat.NewSymDense(2, []float64{
		mu20, mu11,
		mu11, mu02,
	})

	var es mat.EigenSym
	if !es.Factorize(cov, true) {
		return 0, 0, 0, 0
	}
	vals := es.Values(nil) // ascending
	lMin, lMax := vals[0], vals[1]
	if lMin < 0 {
		lMin = 0
	}
	if lMax <= 0 {
		return 0, 0, 0, 0
	}

	major = 4 * math.Sqrt(lMax)
	minor = 4 * math.Sqrt(lMin)
	ecc = math.Sqrt(1 - lMin/lMax)

	var vecs mat.Dense
	es.VectorsTo(&vecs)
	// Principal eigenvector is the column of the largest eigenvalue.
	vx := vecs.At(0, 1)
	vy := vecs.At(1, 1)
	orientation = math.Atan2(vy, vx)
	if orientation > math.Pi/2 {
		orientation -= math.Pi
	} else if orientation <= -math.Pi/2 {
		orientation += math.Pi
	}
	return major, minor, orientation, ecc
}

// FilterOptions selects which regions survive FilterRegions. Zero-valued
// fields disable the corresponding test.
type FilterOptions struct {
	// MinArea drops regions smaller than this many pixels.
	MinArea int

	// MaxArea drops regions larger than this many pixels.
	MaxArea int

	// MaxEccentricity drops elongated regions whose eccentricity exceeds
	// this value (0-1). Typical use: keep round cells, drop stretched
	// boundary artifacts.
	MaxEccentricity float64

	// MinEccentricity drops regions rounder than this value.
	MinEccentricity float64
}

// FilterRegions removes regions failing the filter and compacts the
// surviving labels.
//
// Surviving regions are relabeled 1..K in ascending input label order, so
// filtering is stable: the relative order of regions never changes.
// Dropped regions become background (0).
//
// Returns the filtered label map, the surviving region descriptors (with
// updated labels), and the number of regions dropped.
func FilterRegions(m *LabelMap, src image.Image, opt FilterOptions) (*LabelMap, []Region, int, error) {
	regions, err := RegionProps(m, src)
	if err != nil {
		return nil, nil, 0, err
	}

	remap := make(map[int]int, len(regions))
	kept := make([]Region, 0, len(regions))
	next := 0
	dropped := 0
	for _, r := range regions {
		if opt.MinArea > 0 && r.Area < opt.MinArea {
			dropped++
			continue
		}
		if opt.MaxArea > 0 && r.Area > opt.MaxArea {
			dropped++
			continue
		}
		if opt.MaxEccentricity > 0 && r.Eccentricity > opt.MaxEccentricity {
			dropped++
			continue
		}
		if opt.MinEccentricity > 0 && r.Eccentricity < opt.MinEccentricity {
			dropped++
			continue
		}
		next++
		remap[r.Label] = next
		r.Label = next
		kept = append(kept, r)
	}

	out := NewLabelMap(m.Width, m.Height)
	for i, l := range m.Labels {
		if nl, ok := remap[l]; ok {
			out.Labels[i] = nl
		}
	}
	out.MaxLabel = next
	return out, kept, dropped, nil
}
