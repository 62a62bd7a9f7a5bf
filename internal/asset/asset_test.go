package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ivlev/fluxreel/internal/scene"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "logo.png"), 4, 3, color.RGBA{255, 0, 0, 255})

	l := NewFileLoader(dir)
	img, err := l.Load(context.Background(), "logo.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := l.Load(context.Background(), "missing.png"); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := l.Load(context.Background(), "doc.pdf#two"); err == nil {
		t.Error("bad page fragment should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, "logo.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled load = %v", err)
	}
}

func TestSplitPage(t *testing.T) {
	tests := []struct {
		ref  string
		path string
		page int
	}{
		{"a.pdf", "a.pdf", 1},
		{"a.pdf#3", "a.pdf", 3},
		{"dir/b.png", "dir/b.png", 1},
	}
	for _, tt := range tests {
		path, page, err := splitPage(tt.ref)
		if err != nil || path != tt.path || page != tt.page {
			t.Errorf("splitPage(%q) = %q %d %v", tt.ref, path, page, err)
		}
	}
}

func TestQRGenerator(t *testing.T) {
	img, err := NewQRGenerator(128).Generate(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 128 {
		t.Errorf("qr size = %v", img.Bounds())
	}
	// The quiet zone is background.
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Errorf("corner should be white, got %v", img.At(0, 0))
	}
}

type countingLoader struct {
	calls atomic.Int32
}

func (c *countingLoader) Load(_ context.Context, ref string) (image.Image, error) {
	c.calls.Add(1)
	if ref == "bad" {
		return nil, fmt.Errorf("no such asset")
	}
	return image.NewRGBA(image.Rect(0, 0, 400, 200)), nil
}

func TestCachedLoader(t *testing.T) {
	inner := &countingLoader{}
	c := NewCachedLoader(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(context.Background(), "a.png"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner loads = %d, want 1", n)
	}

	c.Forget("a.png")
	_, _ = c.Load(context.Background(), "a.png")
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner loads after Forget = %d", n)
	}

	if _, err := c.Load(context.Background(), "bad"); err == nil {
		t.Error("error should propagate")
	}
}

func TestBoundedLoaderEvictsLeastRecent(t *testing.T) {
	inner := &countingLoader{}
	c := NewBoundedLoader(inner, 2)
	ctx := context.Background()

	for _, ref := range []string{"a", "b", "a", "c"} {
		if _, err := c.Load(ctx, ref); err != nil {
			t.Fatal(err)
		}
	}
	// b был использован раньше всех и вытеснен.
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	calls := inner.calls.Load()
	_, _ = c.Load(ctx, "a")
	if inner.calls.Load() != calls {
		t.Error("a should still be cached")
	}
	_, _ = c.Load(ctx, "b")
	if inner.calls.Load() != calls+1 {
		t.Error("b should have been evicted")
	}
}

func TestSequenceFramesStayBounded(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i+1)), 2, 2, color.RGBA{uint8(i), 0, 0, 255})
	}
	cache := NewBoundedLoader(NewFileLoader(""), 4)
	src := NewSequenceSource(25, cache)
	for i := 0; i < 20; i++ {
		if _, err := src.Frame(dir, float64(i)/25); err != nil {
			t.Fatal(err)
		}
	}
	if n := cache.Len(); n != 4 {
		t.Errorf("cached frames after one pass = %d, want 4", n)
	}
}

func TestLibraryPreload(t *testing.T) {
	inner := &countingLoader{}
	lib := NewLibrary(inner, nil)
	lib.MaxDim = 100
	lib.Register("qr", NewQRGenerator(64))

	refs := []string{"wide.png", "qr:hello"}
	if err := lib.Preload(context.Background(), refs); err != nil {
		t.Fatal(err)
	}
	if lib.Len() != 2 {
		t.Fatalf("Len = %d", lib.Len())
	}
	wide, ok := lib.Image("wide.png")
	if !ok || wide.Bounds().Dx() != 100 || wide.Bounds().Dy() != 50 {
		t.Errorf("downscaled image = %v, %v", ok, wide.Bounds())
	}
	if qr, ok := lib.Image("qr:hello"); !ok || qr.Bounds().Dx() != 64 {
		t.Errorf("qr image = %v", ok)
	}

	// Already loaded refs are skipped.
	if err := lib.Preload(context.Background(), refs); err != nil {
		t.Fatal(err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("loader calls = %d", n)
	}

	lib.Evict("wide.png")
	if _, ok := lib.Image("wide.png"); ok {
		t.Error("evicted ref still present")
	}

	if err := lib.Preload(context.Background(), []string{"bad"}); err == nil {
		t.Error("failed load should be reported")
	}
}

func TestRefs(t *testing.T) {
	a := scene.New("a", 1)
	_ = a.Add(scene.NewImageNode("", "b.png"))
	_ = a.Add(scene.NewImageNode("", "a.png"))
	_ = a.Add(scene.NewTextNode("", "hi", 10))
	b := scene.New("b", 1)
	_ = b.Add(scene.NewImageNode("", "a.png"))
	tl := scene.NewTimeline()
	tl.Add(a)
	tl.Add(b)

	got := Refs(tl)
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Errorf("Refs = %v", got)
	}
}

func TestSequenceSource(t *testing.T) {
	dir := t.TempDir()
	colors := []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for i, c := range colors {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i+1)), 2, 2, c)
	}
	src := NewSequenceSource(10, NewFileLoader(""))

	tests := []struct {
		t    float64
		want color.RGBA
	}{
		{-1, colors[0]},
		{0.1, colors[1]},
		{0.25, colors[2]},
		{5, colors[2]},
	}
	for _, tt := range tests {
		img, err := src.Frame(dir, tt.t)
		if err != nil {
			t.Fatal(err)
		}
		r, g, b, _ := img.At(0, 0).RGBA()
		if uint8(r>>8) != tt.want.R || uint8(g>>8) != tt.want.G || uint8(b>>8) != tt.want.B {
			t.Errorf("t=%v pixel = %v", tt.t, img.At(0, 0))
		}
	}
	if n, _ := src.Len(dir); n != 3 {
		t.Errorf("Len = %d", n)
	}
	if _, err := src.Frame(filepath.Join(dir, "missing"), 0); err == nil {
		t.Error("missing dir should fail")
	}
}
