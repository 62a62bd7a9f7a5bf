package analyzer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/fluxreel/internal/errs"
)

func fillGray(img *image.Gray, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func TestContrastDetector(t *testing.T) {
	// White square on black, a stand-in for a picture on a slide.
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	fillGray(img, image.Rect(50, 50, 150, 150), 255)

	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("blocks = %v, want one", blocks)
	}
	b := blocks[0]
	if b.Rect.Dx() < 80 || b.Rect.Dy() < 80 || b.Rect.Dx() > 120 {
		t.Errorf("block rect = %v", b.Rect)
	}
	if b.Type != BlockImage {
		t.Errorf("type = %q, want %q", b.Type, BlockImage)
	}
}

func TestContrastDetectorRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 20; y < 40; y++ {
		for x := 30; x < 270; x++ {
			img.Set(x, y, color.White)
		}
	}
	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Type != BlockHeader {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestContrastDetectorMaxBlocks(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 200))
	fillGray(img, image.Rect(20, 20, 60, 60), 255)    // small
	fillGray(img, image.Rect(200, 40, 360, 180), 255) // large

	d := NewContrastDetector()
	all, _ := d.Detect(img)
	if len(all) != 2 {
		t.Fatalf("blocks = %d, want 2", len(all))
	}
	if all[0].Rect.Min.X > all[1].Rect.Min.X {
		t.Errorf("reading order = %v", all)
	}

	d.MaxBlocks = 1
	top, _ := d.Detect(img)
	if len(top) != 1 || top[0].Rect.Min.X < 150 {
		t.Errorf("largest block = %v", top)
	}
}

func TestEmptyImage(t *testing.T) {
	blocks, err := NewContrastDetector().Detect(image.NewGray(image.Rect(0, 0, 100, 100)))
	if err != nil || len(blocks) != 0 {
		t.Errorf("blank page = %v, %v", blocks, err)
	}
}

func TestBlockCenterZoom(t *testing.T) {
	page := image.Rect(0, 0, 200, 100)
	b := Block{Rect: image.Rect(150, 0, 200, 50)}
	x, y := b.Center(page)
	if math.Abs(x-0.375) > 1e-9 || math.Abs(y-0.25) > 1e-9 {
		t.Errorf("center = %v,%v", x, y)
	}
	if z := b.Zoom(page, 0.8, 3); math.Abs(z-1.6) > 1e-9 {
		t.Errorf("zoom = %v", z)
	}
	if z := b.Zoom(page, 1, 1.5); z != 1.5 {
		t.Errorf("zoom limit = %v", z)
	}
}

func TestReadingOrder(t *testing.T) {
	blocks := []Block{
		{Rect: image.Rect(100, 52, 150, 80)},
		{Rect: image.Rect(0, 200, 50, 250)},
		{Rect: image.Rect(10, 50, 60, 80)},
	}
	ReadingOrder(blocks, 5)
	want := []int{10, 100, 0}
	for i, x := range want {
		if blocks[i].Rect.Min.X != x {
			t.Fatalf("order = %v", blocks)
		}
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false}, // default
		{"ocr", true},
		{"ai", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if detector == nil {
				t.Error("Expected detector, got nil")
			}
		})
	}

	if _, err := NewDetector("invalid"); !errors.Is(err, errs.ErrInvalidEnum) {
		t.Errorf("unknown variant error = %v", err)
	}
}
