package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/segment-tools-mcp/internal/segment"
)

// halfLabels builds a label map splitting the area into left (1) and
// right (2) halves.
func halfLabels(width, height int) *segment.LabelMap {
	m := segment.NewLabelMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				m.Set(x, y, 1)
			} else {
				m.Set(x, y, 2)
			}
		}
	}
	return m
}

func TestRenderOverlay_Boundaries(t *testing.T) {
	img := createInMemoryImage(20, 10, color.RGBA{0, 0, 0, 255})
	m := halfLabels(20, 10)

	result, err := RenderOverlay(img, m, OverlayBoundaries, "#FF0000", 1)
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if result.Width != 20 || result.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 20x10", result.Width, result.Height)
	}

	out := decodeResultPNG(t, result.ImageBase64)
	// Boundary between the halves runs at x=9/10.
	r, _, _, _ := out.At(9, 5).RGBA()
	if r>>8 != 255 {
		t.Errorf("boundary pixel not painted: red=%d", r>>8)
	}
	// Interior pixels keep the source color.
	r, g, b, _ := out.At(2, 5).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Error("interior pixel was modified in boundaries mode")
	}
}

func TestRenderOverlay_BadLineColorFallsBack(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	m := halfLabels(10, 10)

	result, err := RenderOverlay(img, m, OverlayBoundaries, "not-a-color", 1)
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}

	out := decodeResultPNG(t, result.ImageBase64)
	r, g, _, _ := out.At(4, 5).RGBA()
	if r>>8 != 255 || g>>8 != 255 {
		t.Error("expected yellow fallback for unparsable line color")
	}
}

func TestRenderOverlay_Mean(t *testing.T) {
	// Left half red, right half blue; mean fill at full opacity must
	// reproduce each side's color exactly.
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				img.Set(x, y, color.RGBA{200, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 200, 255})
			}
		}
	}
	m := halfLabels(20, 10)

	result, err := RenderOverlay(img, m, OverlayMean, "", 1)
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}

	out := decodeResultPNG(t, result.ImageBase64)
	r, _, b, _ := out.At(3, 5).RGBA()
	if r>>8 != 200 || b>>8 != 0 {
		t.Errorf("left region: got r=%d b=%d, want r=200 b=0", r>>8, b>>8)
	}
	r, _, b, _ = out.At(16, 5).RGBA()
	if r>>8 != 0 || b>>8 != 200 {
		t.Errorf("right region: got r=%d b=%d, want r=0 b=200", r>>8, b>>8)
	}
}

func TestRenderOverlay_RandomDeterministic(t *testing.T) {
	img := createInMemoryImage(20, 10, color.RGBA{50, 50, 50, 255})
	m := halfLabels(20, 10)

	first, err := RenderOverlay(img, m, OverlayRandom, "", 1)
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	second, err := RenderOverlay(img, m, OverlayRandom, "", 1)
	if err != nil {
		t.Fatalf("second RenderOverlay failed: %v", err)
	}
	if first.ImageBase64 != second.ImageBase64 {
		t.Error("random palette is not deterministic across runs")
	}

	out := decodeResultPNG(t, first.ImageBase64)
	r1, g1, b1, _ := out.At(3, 5).RGBA()
	r2, g2, b2, _ := out.At(16, 5).RGBA()
	if r1 == r2 && g1 == g2 && b1 == b2 {
		t.Error("adjacent labels received identical palette colors")
	}
}

func TestRenderOverlay_Errors(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	m := halfLabels(10, 10)

	if _, err := RenderOverlay(img, m, "sparkle", "", 1); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := RenderOverlay(img, m, OverlayRandom, "", 1.5); err == nil {
		t.Error("expected error for alpha out of range")
	}
	small := segment.NewLabelMap(5, 5)
	if _, err := RenderOverlay(img, small, OverlayBoundaries, "", 1); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestRenderHeatmap(t *testing.T) {
	// Gradient field left to right.
	width, height := 16, 4
	field := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			field[y*width+x] = float64(x)
		}
	}

	result, err := RenderHeatmap(field, width, height)
	if err != nil {
		t.Fatalf("RenderHeatmap failed: %v", err)
	}

	out := decodeResultPNG(t, result.ImageBase64)
	// Low end cold (blue dominant), high end hot (red dominant).
	r, _, b, _ := out.At(0, 2).RGBA()
	if b <= r {
		t.Errorf("low end not blue dominant: r=%d b=%d", r>>8, b>>8)
	}
	r, _, b, _ = out.At(width-1, 2).RGBA()
	if r <= b {
		t.Errorf("high end not red dominant: r=%d b=%d", r>>8, b>>8)
	}
}

func TestRenderHeatmap_ConstantField(t *testing.T) {
	field := make([]float64, 9)
	for i := range field {
		field[i] = 3.5
	}

	result, err := RenderHeatmap(field, 3, 3)
	if err != nil {
		t.Fatalf("RenderHeatmap failed: %v", err)
	}

	out := decodeResultPNG(t, result.ImageBase64)
	r, _, b, _ := out.At(1, 1).RGBA()
	if b <= r {
		t.Error("constant field should render in the low-end color")
	}
}

func TestRenderHeatmap_BadField(t *testing.T) {
	if _, err := RenderHeatmap(make([]float64, 5), 3, 3); err == nil {
		t.Error("expected error for field length mismatch")
	}
}

func TestRenderRegion(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{10, 20, 30, 255})
	m := segment.NewLabelMap(20, 20)
	for y := 5; y < 9; y++ {
		for x := 3; x < 9; x++ {
			m.Set(x, y, 1)
		}
	}

	result, err := RenderRegion(img, m, 1, 0, 1)
	if err != nil {
		t.Fatalf("RenderRegion failed: %v", err)
	}
	if result.Width != 6 || result.Height != 4 {
		t.Errorf("crop dimensions: got %dx%d, want 6x4", result.Width, result.Height)
	}
}

func TestRenderRegion_PadAndScale(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{10, 20, 30, 255})
	m := segment.NewLabelMap(20, 20)
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			m.Set(x, y, 1)
		}
	}

	result, err := RenderRegion(img, m, 1, 2, 2)
	if err != nil {
		t.Fatalf("RenderRegion failed: %v", err)
	}
	// 4x4 bbox + 2 pad each side = 8x8, scaled 2x = 16x16.
	if result.Width != 16 || result.Height != 16 {
		t.Errorf("dimensions: got %dx%d, want 16x16", result.Width, result.Height)
	}
}

func TestRenderRegion_PadClampedAtEdge(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	m := segment.NewLabelMap(10, 10)
	m.Set(0, 0, 1)

	result, err := RenderRegion(img, m, 1, 5, 1)
	if err != nil {
		t.Fatalf("RenderRegion failed: %v", err)
	}
	if result.Width != 6 || result.Height != 6 {
		t.Errorf("dimensions: got %dx%d, want 6x6", result.Width, result.Height)
	}
}

func TestRenderRegion_UnknownLabel(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	m := halfLabels(10, 10)

	if _, err := RenderRegion(img, m, 7, 0, 1); err == nil {
		t.Error("expected error for label outside the map's range")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#FF000080", color.RGBA{255, 0, 0, 128}, false},
		{"", color.RGBA{}, true},
		{"#F00", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := parseHexColor(tt.hex)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseHexColor(%q): expected error", tt.hex)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHexColor(%q): %v", tt.hex, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexColor(%q): got %v, want %v", tt.hex, got, tt.want)
		}
	}
}
