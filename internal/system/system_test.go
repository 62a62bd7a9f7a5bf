package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestImagePoolReuse(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 4, 4)
	img := p.Get(rect)
	if img.Rect != rect {
		t.Fatalf("Get returned %v", img.Rect)
	}
	img.Pix[0] = 9
	Clear(img)
	if img.Pix[0] != 0 {
		t.Error("Clear left data behind")
	}
	p.Put(img)
	p.Put(nil)
	p.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))

	if got := p.Get(image.Rect(0, 0, 2, 2)); got.Rect.Dx() != 2 {
		t.Errorf("second size = %v", got.Rect)
	}
}

func TestImagePoolsAreIndependent(t *testing.T) {
	rect := image.Rect(0, 0, 3, 3)
	a, b := NewImagePool(), NewImagePool()
	img := a.Get(rect)
	a.Put(img)
	if got := b.Get(rect); got == img {
		t.Error("a buffer returned to one pool was served by another")
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "a.yaml")
	recent := filepath.Join(dir, "b.YML")
	other := filepath.Join(dir, "c.mp3")
	for _, p := range []string{old, recent, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	base := time.Now()
	_ = os.Chtimes(old, base.Add(-time.Hour), base.Add(-time.Hour))
	_ = os.Chtimes(recent, base, base)
	_ = os.Chtimes(other, base.Add(time.Hour), base.Add(time.Hour))

	got, err := FindLatest(dir, ScriptExts...)
	if err != nil {
		t.Fatal(err)
	}
	if got != recent {
		t.Errorf("FindLatest = %s, want %s", got, recent)
	}

	if _, err := FindLatest(dir, PDFExts...); err == nil {
		t.Error("expected error when no file matches")
	}
	if _, err := FindLatest(filepath.Join(dir, "missing"), PDFExts...); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestRecommendedWorkers(t *testing.T) {
	if n := RecommendedWorkers(1920, 1080); n < 1 {
		t.Errorf("RecommendedWorkers = %d", n)
	}
	if n := RecommendedWorkers(0, 0); n < 1 {
		t.Errorf("RecommendedWorkers without size = %d", n)
	}
}
