package analyzer

import (
	"image"
	"image/draw"
	"math"
)

// ContrastDetector finds regions bounded by strong edges: Sobel gradient,
// dilation to join neighbouring edges, then connected components.
type ContrastDetector struct {
	MinBlockArea  int     // pixels²
	EdgeThreshold float64 // модуль градиента
	DilateKernel  int
	DilateRounds  int
	// MaxBlocks keeps the largest blocks only. Zero keeps all of them.
	MaxBlocks int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500, // ~22x22
		EdgeThreshold: 30.0,
		DilateKernel:  5,
		DilateRounds:  2,
	}
}

// Detect returns the blocks in reading order.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	page := img.Bounds()
	w, h := page.Dx(), page.Dy()
	if w < 3 || h < 3 {
		return nil, nil
	}

	gray := toGrayscale(img)
	edges := sobel(gray.Pix, gray.Stride, w, h, d.EdgeThreshold)
	edges = dilate(edges, w, h, d.DilateKernel, d.DilateRounds)

	var blocks []Block
	for _, r := range components(edges, w, h) {
		if r.Dx()*r.Dy() < d.MinBlockArea {
			continue
		}
		r = r.Add(page.Min)
		blocks = append(blocks, Block{Rect: r, Type: classify(r, page), Confidence: 0.7})
	}

	if d.MaxBlocks > 0 && len(blocks) > d.MaxBlocks {
		largestFirst(blocks)
		blocks = blocks[:d.MaxBlocks]
	}
	ReadingOrder(blocks, h/50)
	return blocks, nil
}

func toGrayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	return gray
}

// sobel returns a w*h mask with 255 where the gradient exceeds threshold.
func sobel(pix []uint8, stride, w, h int, threshold float64) []uint8 {
	out := make([]uint8, w*h)
	at := func(x, y int) float64 { return float64(pix[y*stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				out[y*w+x] = 255
			}
		}
	}
	return out
}

// dilate grows set pixels with a square kernel. Each round is separable:
// a horizontal max pass followed by a vertical one.
func dilate(mask []uint8, w, h, kernel, rounds int) []uint8 {
	half := kernel / 2
	if half <= 0 {
		return mask
	}
	tmp := make([]uint8, len(mask))
	for range rounds {
		for y := 0; y < h; y++ {
			row := mask[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var v uint8
				for k := max(0, x-half); k <= min(w-1, x+half); k++ {
					if row[k] > v {
						v = row[k]
					}
				}
				tmp[y*w+x] = v
			}
		}
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				var v uint8
				for k := max(0, y-half); k <= min(h-1, y+half); k++ {
					if tmp[k*w+x] > v {
						v = tmp[k*w+x]
					}
				}
				mask[y*w+x] = v
			}
		}
	}
	return mask
}

// components returns the bounding boxes of 4-connected set regions.
func components(mask []uint8, w, h int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var rects []image.Rectangle
	var stack []int
	for start := range mask {
		if mask[start] <= 128 || visited[start] {
			continue
		}
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			for _, n := range [4]int{i - 1, i + 1, i - w, i + w} {
				if n < 0 || n >= len(mask) || visited[n] || mask[n] <= 128 {
					continue
				}
				// не перескакиваем через край строки
				if (n == i-1 && x == 0) || (n == i+1 && x == w-1) {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
		rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return rects
}

func largestFirst(blocks []Block) {
	area := func(b Block) int { return b.Rect.Dx() * b.Rect.Dy() }
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && area(blocks[j]) > area(blocks[j-1]); j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}
