package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// SLICOptions controls superpixel clustering.
type SLICOptions struct {
	// Superpixels is the approximate number of superpixels to produce.
	// The actual count varies slightly because seeds are placed on a
	// regular grid and small fragments are merged afterwards.
	Superpixels int

	// Compactness weighs spatial proximity against color similarity.
	// Higher values produce squarer, more uniform superpixels; lower values
	// let superpixels hug color boundaries more tightly. Typical: 5-40,
	// default 10.
	Compactness float64

	// Iterations is the number of assignment/update rounds. The algorithm
	// converges quickly; 10 (the default) is almost always enough.
	Iterations int
}

// DefaultSLICOptions returns the standard parameter set: 250 superpixels,
// compactness 10, 10 iterations.
func DefaultSLICOptions() SLICOptions {
	return SLICOptions{
		Superpixels: 250,
		Compactness: 10,
		Iterations:  10,
	}
}

// slicCenter is a cluster center in the joint CIELAB x spatial space.
type slicCenter struct {
	l, a, b float64
	x, y    float64
}

// SLIC clusters an image into superpixels: small, perceptually coherent
// pixel groups that respect color boundaries.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - opt: Clustering parameters. Non-positive fields fall back to the
//     defaults from DefaultSLICOptions.
//
// Returns:
//   - *LabelMap: One label per pixel; labels are 1..MaxLabel, every pixel
//     assigned, and each region is 4-connected.
//   - error: Non-nil only for empty images.
//
// # Algorithm
//
// The implementation follows the SLIC algorithm (Achanta et al.):
//
//  1. Convert the image to CIELAB. Distances in Lab space approximate
//     perceptual color difference far better than RGB distances.
//
//  2. Seed cluster centers on a regular grid with step S = sqrt(N/K),
//     then move each seed to the lowest-gradient position in its 3x3
//     neighborhood so no seed starts on an edge.
//
//  3. Assign pixels to centers with a localized k-means: each center only
//     competes for pixels within a 2S x 2S window around it, and each pixel
//     takes the center with the smallest combined distance
//
//     D = sqrt((dc/m)^2 + (ds/S)^2)
//
//     where dc is Lab distance, ds is spatial distance, and m is the
//     compactness. Update each center to the mean of its pixels and repeat.
//
//  4. Enforce connectivity: a 4-connected relabeling pass absorbs stray
//     fragments smaller than a quarter of the expected superpixel area
//     into an adjacent superpixel, and renumbers labels densely.
//
// # Choosing Parameters
//
// A reasonable starting count is imageArea/(40*40), i.e. superpixels of
// roughly 40x40 pixels. Compactness 10 balances boundary adherence against
// regular shape on most photographic content.
func SLIC(img image.Image, opt SLICOptions) (*LabelMap, error) {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("cannot cluster empty image (%dx%d)", w, h)
	}

	if opt.Superpixels <= 0 {
		opt.Superpixels = DefaultSLICOptions().Superpixels
	}
	if opt.Compactness <= 0 {
		opt.Compactness = DefaultSLICOptions().Compactness
	}
	if opt.Iterations <= 0 {
		opt.Iterations = DefaultSLICOptions().Iterations
	}
	if opt.Superpixels > w*h {
		opt.Superpixels = w * h
	}

	lab := labField(img)

	step := int(math.Sqrt(float64(w*h) / float64(opt.Superpixels)))
	if step < 1 {
		step = 1
	}
	m := opt.Compactness
	ns := float64(step)

	centers := seedCenters(lab, w, h, step)

	assignments := make([]int, w*h)
	distances := make([]float64, w*h)
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < opt.Iterations; iter++ {
		for i := range distances {
			distances[i] = math.MaxFloat64
		}

		// Each center only searches a 2S x 2S window around itself.
		for ci, c := range centers {
			x0 := maxInt(int(c.x)-step, 0)
			x1 := minInt(int(c.x)+step+1, w)
			y0 := maxInt(int(c.y)-step, 0)
			y1 := minInt(int(c.y)+step+1, h)

			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					off := (y*w + x) * 3
					dL := lab[off] - c.l
					dA := lab[off+1] - c.a
					dB := lab[off+2] - c.b
					dx := float64(x) - c.x
					dy := float64(y) - c.y
					dc := math.Sqrt(dL*dL + dA*dA + dB*dB)
					ds := math.Sqrt(dx*dx + dy*dy)
					d := math.Sqrt((dc/m)*(dc/m) + (ds/ns)*(ds/ns))

					idx := y*w + x
					if d < distances[idx] {
						distances[idx] = d
						assignments[idx] = ci
					}
				}
			}
		}

		// Move each center to the mean of its assigned pixels.
		type centerAcc struct {
			l, a, b, x, y float64
			n             int
		}
		acc := make([]centerAcc, len(centers))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				ci := assignments[idx]
				if ci < 0 {
					continue
				}
				off := idx * 3
				acc[ci].l += lab[off]
				acc[ci].a += lab[off+1]
				acc[ci].b += lab[off+2]
				acc[ci].x += float64(x)
				acc[ci].y += float64(y)
				acc[ci].n++
			}
		}
		for ci := range centers {
			if acc[ci].n == 0 {
				continue
			}
			n := float64(acc[ci].n)
			centers[ci] = slicCenter{
				l: acc[ci].l / n, a: acc[ci].a / n, b: acc[ci].b / n,
				x: acc[ci].x / n, y: acc[ci].y / n,
			}
		}
	}

	// Pixels outside every search window can stay unassigned on degenerate
	// inputs; claim them for the nearest center spatially.
	for idx, ci := range assignments {
		if ci >= 0 {
			continue
		}
		x, y := idx%w, idx/w
		best, bestD := 0, math.MaxFloat64
		for cj, c := range centers {
			dx := float64(x) - c.x
			dy := float64(y) - c.y
			if d := dx*dx + dy*dy; d < bestD {
				bestD = d
				best = cj
			}
		}
		assignments[idx] = best
	}

	labels := enforceConnectivity(assignments, w, h, len(centers))

	m2 := &LabelMap{Width: w, Height: h, Labels: labels}
	m2.recountMax()
	return m2, nil
}

// labField converts an image to a flat CIELAB field, row-major, 3 values per
// pixel. Lab components are scaled to the conventional ranges (L: 0-100)
// so that compactness values carry their textbook meaning.
func labField(img image.Image) []float64 {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	field := make([]float64, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := colorful.Color{
				R: float64(r>>8) / 255.0,
				G: float64(g>>8) / 255.0,
				B: float64(b>>8) / 255.0,
			}
			l, la, lb := c.Lab()
			off := (y*w + x) * 3
			field[off] = l * 100
			field[off+1] = la * 100
			field[off+2] = lb * 100
		}
	}
	return field
}

// seedCenters places initial cluster centers on a regular grid with the
// given step, perturbing each to the lowest-gradient pixel in its 3x3
// neighborhood so seeds avoid edges. At least one center is always returned.
func seedCenters(lab []float64, w, h, step int) []slicCenter {
	var centers []slicCenter
	for cy := step / 2; cy < h; cy += step {
		for cx := step / 2; cx < w; cx += step {
			lx, ly := cx, cy
			minGrad := math.MaxFloat64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= w-1 || ny < 0 || ny >= h-1 {
						continue
					}
					here := lab[(ny*w+nx)*3]
					right := lab[(ny*w+nx+1)*3]
					down := lab[((ny+1)*w+nx)*3]
					grad := math.Abs(right-here) + math.Abs(down-here)
					if grad < minGrad {
						minGrad = grad
						lx, ly = nx, ny
					}
				}
			}
			off := (ly*w + lx) * 3
			centers = append(centers, slicCenter{
				l: lab[off], a: lab[off+1], b: lab[off+2],
				x: float64(lx), y: float64(ly),
			})
		}
	}
	if len(centers) == 0 {
		cx, cy := w/2, h/2
		off := (cy*w + cx) * 3
		centers = append(centers, slicCenter{
			l: lab[off], a: lab[off+1], b: lab[off+2],
			x: float64(cx), y: float64(cy),
		})
	}
	return centers
}

// enforceConnectivity relabels the raw k-means assignment into 4-connected
// regions. Fragments smaller than a quarter of the expected superpixel area
// are merged into the previously-seen adjacent region. Returned labels are
// dense and 1-based (0 never appears; every pixel belongs to a superpixel).
func enforceConnectivity(assignments []int, w, h, centerCount int) []int {
	minSize := maxInt((w*h)/centerCount/4, 1)
	dx4 := [4]int{-1, 0, 1, 0}
	dy4 := [4]int{0, -1, 0, 1}

	labels := make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}

	next := 1
	elems := make([]int, 0, 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			start := y*w + x
			if labels[start] != -1 {
				continue
			}

			label := next
			labels[start] = label
			elems = append(elems[:0], start)

			// Remember a neighboring label to absorb this component into
			// if it turns out to be a fragment.
			adjLabel := label
			for k := 0; k < 4; k++ {
				nx, ny := x+dx4[k], y+dy4[k]
				if nx >= 0 && nx < w && ny >= 0 && ny < h {
					if l := labels[ny*w+nx]; l > 0 && l != label {
						adjLabel = l
						break
					}
				}
			}

			for c := 0; c < len(elems); c++ {
				cur := elems[c]
				cx, cy := cur%w, cur/w
				for k := 0; k < 4; k++ {
					nx, ny := cx+dx4[k], cy+dy4[k]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nIdx := ny*w + nx
					if labels[nIdx] == -1 && assignments[nIdx] == assignments[start] {
						labels[nIdx] = label
						elems = append(elems, nIdx)
					}
				}
			}

			if len(elems) < minSize && adjLabel != label {
				for _, e := range elems {
					labels[e] = adjLabel
				}
				continue
			}
			next++
		}
	}

	// Fragment absorption can leave holes in the label sequence; compact.
	remap := make(map[int]int)
	compact := 0
	for i, l := range labels {
		nl, ok := remap[l]
		if !ok {
			compact++
			nl = compact
			remap[l] = nl
		}
		labels[i] = nl
	}
	return labels
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
