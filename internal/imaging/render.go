package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/segment-tools-mcp/internal/segment"
)

// RenderResult contains a rendered visualization encoded as base64 PNG.
type RenderResult struct {
	// Width of the output image in pixels.
	Width int `json:"width"`

	// Height of the output image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the rendered image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// Overlay modes accepted by RenderOverlay.
const (
	OverlayBoundaries = "boundaries"
	OverlayMean       = "mean"
	OverlayRandom     = "random"
)

// RenderOverlay visualizes a segmentation on top of its source image.
//
// Parameters:
//   - img: Source image. Must have the label map's dimensions.
//   - m: Label map to visualize.
//   - mode: One of "boundaries" (draw region boundaries in lineColorHex),
//     "mean" (fill each region with its mean source color), or "random"
//     (fill each region with a distinct color from a fixed palette).
//   - lineColorHex: Boundary color as "#RRGGBB" or "#RRGGBBAA". Only used
//     in boundaries mode; an unparsable value falls back to yellow.
//   - alpha: Fill opacity in [0, 1] for mean and random modes. 1 replaces
//     the source pixels entirely; lower values blend with the source.
//
// Returns the rendered image as base64 PNG.
//
// The random palette is derived from each label by stepping the hue around
// the color wheel by the golden angle, so the same label map always renders
// with the same colors and adjacent labels get well-separated hues.
func RenderOverlay(img image.Image, m *segment.LabelMap, mode, lineColorHex string, alpha float64) (*RenderResult, error) {
	bounds := img.Bounds()
	if err := m.Validate(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha %.2f out of range [0, 1]", alpha)
	}

	out := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	switch mode {
	case OverlayBoundaries:
		lineColor, err := parseHexColor(lineColorHex)
		if err != nil {
			lineColor = color.RGBA{255, 255, 0, 255}
		}
		mask := m.BoundaryMask()
		for idx, onBoundary := range mask {
			if onBoundary {
				out.SetRGBA(idx%m.Width, idx/m.Width, lineColor)
			}
		}

	case OverlayMean:
		regions, err := segment.RegionProps(m, img)
		if err != nil {
			return nil, err
		}
		fills := make(map[int]color.RGBA, len(regions))
		for _, r := range regions {
			c, err := parseHexColor(r.MeanColor)
			if err != nil {
				continue
			}
			fills[r.Label] = c
		}
		blendLabels(out, m, fills, alpha)

	case OverlayRandom:
		fills := make(map[int]color.RGBA, m.MaxLabel)
		for label := 1; label <= m.MaxLabel; label++ {
			fills[label] = paletteColor(label)
		}
		blendLabels(out, m, fills, alpha)

	default:
		return nil, fmt.Errorf("unknown overlay mode: %s", mode)
	}

	encoded, err := encodeBase64PNG(out)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		Width:       m.Width,
		Height:      m.Height,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// blendLabels paints labeled pixels with their fill color at the given
// opacity. Background pixels (label 0) keep the source color.
func blendLabels(out *image.RGBA, m *segment.LabelMap, fills map[int]color.RGBA, alpha float64) {
	for idx, label := range m.Labels {
		fill, ok := fills[label]
		if !ok {
			continue
		}
		x, y := idx%m.Width, idx/m.Width
		orig := out.RGBAAt(x, y)
		out.SetRGBA(x, y, color.RGBA{
			R: blendChannel(orig.R, fill.R, alpha),
			G: blendChannel(orig.G, fill.G, alpha),
			B: blendChannel(orig.B, fill.B, alpha),
			A: 255,
		})
	}
}

func blendChannel(under, over uint8, alpha float64) uint8 {
	return uint8(float64(under)*(1-alpha) + float64(over)*alpha + 0.5)
}

// paletteColor returns a fixed, well-separated color for a region label.
func paletteColor(label int) color.RGBA {
	const goldenAngle = 137.50776405003785
	hue := math.Mod(float64(label)*goldenAngle, 360)
	r, g, b := colorful.Hsv(hue, 0.65, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// RenderHeatmap visualizes a scalar field as a blue-to-red heatmap.
//
// The field is normalized to its own min/max range, then each value is
// mapped onto a perceptual ramp by blending the endpoint colors in CIELAB
// space. A constant field renders entirely in the low-end color.
//
// Parameters:
//   - field: Scalar field in row-major order, length width*height. Distance
//     transforms and gradient magnitudes are the typical inputs.
//   - width, height: Field dimensions.
func RenderHeatmap(field []float64, width, height int) (*RenderResult, error) {
	if len(field) != width*height {
		return nil, fmt.Errorf("field has %d entries, want %d", len(field), width*height)
	}

	minVal, maxVal := field[0], field[0]
	for _, v := range field[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	span := maxVal - minVal

	cold := colorful.Color{R: 0.10, G: 0.15, B: 0.45}
	hot := colorful.Color{R: 0.90, G: 0.15, B: 0.10}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for idx, v := range field {
		t := 0.0
		if span > 0 {
			t = (v - minVal) / span
		}
		r, g, b := cold.BlendLab(hot, t).Clamped().RGB255()
		out.SetRGBA(idx%width, idx/width, color.RGBA{R: r, G: g, B: b, A: 255})
	}

	encoded, err := encodeBase64PNG(out)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		Width:       width,
		Height:      height,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// RenderRegion crops one labeled region out of the source image for close
// inspection.
//
// Parameters:
//   - img: Source image. Must have the label map's dimensions.
//   - m: Label map containing the region.
//   - label: Region label to extract. Must be present in the map.
//   - pad: Context pixels to include around the region's bounding box,
//     clamped to the image edges.
//   - scale: Output scaling factor. Values other than 1 resize the crop
//     with Lanczos resampling; useful for zooming into small regions.
func RenderRegion(img image.Image, m *segment.LabelMap, label, pad int, scale float64) (*RenderResult, error) {
	bounds := img.Bounds()
	if err := m.Validate(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	if label < 1 || label > m.MaxLabel {
		return nil, fmt.Errorf("label %d not in range 1..%d", label, m.MaxLabel)
	}
	if pad < 0 {
		pad = 0
	}

	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for idx, l := range m.Labels {
		if l != label {
			continue
		}
		x, y := idx%m.Width, idx/m.Width
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX < 0 {
		return nil, fmt.Errorf("label %d has no pixels", label)
	}

	minX = clamp(minX-pad, 0, m.Width-1)
	minY = clamp(minY-pad, 0, m.Height-1)
	maxX = clamp(maxX+pad, 0, m.Width-1)
	maxY = clamp(maxY+pad, 0, m.Height-1)

	rect := image.Rect(bounds.Min.X+minX, bounds.Min.Y+minY, bounds.Min.X+maxX+1, bounds.Min.Y+maxY+1)
	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := encodeBase64PNG(cropped)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// encodeBase64PNG encodes an image as a base64 PNG string.
func encodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
