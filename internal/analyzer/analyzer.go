// Package analyzer finds regions of interest on still images (slides,
// document pages). The director turns them into camera moves.
package analyzer

import (
	"image"
	"sort"
)

// Block types.
const (
	BlockHeader  = "header"
	BlockText    = "text"
	BlockImage   = "image"
	BlockUnknown = "unknown"
)

// Block is a detected region of interest.
type Block struct {
	Rect       image.Rectangle
	Type       string
	Confidence float64 // 0..1
}

// Center returns the block center normalised to bounds: (0,0) is the
// middle of bounds, +x right, +y up.
func (b Block) Center(bounds image.Rectangle) (x, y float64) {
	if bounds.Empty() {
		return 0, 0
	}
	cx := float64(b.Rect.Min.X+b.Rect.Max.X)/2 - float64(bounds.Min.X)
	cy := float64(b.Rect.Min.Y+b.Rect.Max.Y)/2 - float64(bounds.Min.Y)
	return cx/float64(bounds.Dx()) - 0.5, 0.5 - cy/float64(bounds.Dy())
}

// Zoom is the scale factor that makes the block fill most of bounds,
// clamped to [1, limit].
func (b Block) Zoom(bounds image.Rectangle, fill, limit float64) float64 {
	if b.Rect.Empty() {
		return 1
	}
	kx := float64(bounds.Dx()) / float64(b.Rect.Dx())
	ky := float64(bounds.Dy()) / float64(b.Rect.Dy())
	z := min(kx, ky) * fill
	return max(1, min(z, limit))
}

// Detector finds blocks on an image.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// ReadingOrder sorts blocks top to bottom, then left to right. Blocks whose
// tops are within rowTolerance pixels share a row.
func ReadingOrder(blocks []Block, rowTolerance int) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i].Rect.Min, blocks[j].Rect.Min
		if d := a.Y - b.Y; d > rowTolerance || d < -rowTolerance {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// classify guesses a block type from its shape relative to the page.
func classify(r, page image.Rectangle) string {
	w, h := float64(r.Dx()), float64(r.Dy())
	if w == 0 || h == 0 {
		return BlockUnknown
	}
	aspect := w / h
	area := w * h / float64(page.Dx()*page.Dy())
	top := float64(r.Min.Y-page.Min.Y) / float64(page.Dy())
	switch {
	case aspect >= 3 && top < 0.25:
		return BlockHeader
	case aspect >= 2:
		return BlockText
	case area >= 0.05:
		return BlockImage
	}
	return BlockUnknown
}
