package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/fluxreel/internal/geometry"
	"github.com/ivlev/fluxreel/internal/scene"
)

// fontSet holds parsed fonts. It is filled before rendering and read-only
// afterwards.
type fontSet struct {
	regular *opentype.Font
	byPath  map[string]*opentype.Font
}

func newFontSet() (*fontSet, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse built-in font: %w", err)
	}
	return &fontSet{regular: f, byPath: make(map[string]*opentype.Font)}, nil
}

func (fs *fontSet) load(path string) error {
	if path == "" || fs.byPath[path] != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fs.byPath[path] = f
	return nil
}

func (fs *fontSet) get(path string) *opentype.Font {
	if f, ok := fs.byPath[path]; ok {
		return f
	}
	return fs.regular
}

// rasterText draws a single line into a tightly sized image. Faces are
// not safe for concurrent use, so one is created per call.
func rasterText(fs *fontSet, n *scene.TextNode) (*image.RGBA, error) {
	if n.Text == "" || n.Size <= 0 {
		return nil, nil
	}
	face, err := opentype.NewFace(fs.get(n.Font), &opentype.FaceOptions{
		Size:    n.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("text %s: %w", n.ID, err)
	}
	defer face.Close()

	m := face.Metrics()
	adv := font.MeasureString(face, n.Text)
	w := adv.Ceil() + 2
	h := (m.Ascent + m.Descent).Ceil() + 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ParseHexColor(n.Color)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(1), Y: m.Ascent + fixed.I(1)},
	}
	d.DrawString(n.Text)
	return img, nil
}

// rasterShape draws a filled, anti-aliased primitive.
func rasterShape(n *scene.ShapeNode) *image.RGBA {
	w, h := n.Width, n.Height
	if n.Shape == scene.ShapeCircle {
		h = w
	}
	iw, ih := int(math.Ceil(w)), int(math.Ceil(h))
	if iw <= 0 || ih <= 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, iw, ih))
	col := ParseHexColor(n.Color)

	if n.Shape != scene.ShapeEllipse && n.Shape != scene.ShapeCircle {
		draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
		return img
	}

	m := NewEllipseMask(w/2, h/2, w/2, h/2)
	m.Feather = 1
	for y := 0; y < ih; y++ {
		for x := 0; x < iw; x++ {
			cov := m.Coverage(float64(x)+0.5, float64(y)+0.5)
			if cov <= 0 {
				continue
			}
			a := float64(col.A) * cov
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(col.R)*a/255 + 0.5),
				G: uint8(float64(col.G)*a/255 + 0.5),
				B: uint8(float64(col.B)*a/255 + 0.5),
				A: uint8(a + 0.5),
			})
		}
	}
	return img
}

// placement maps a source image of size srcW x srcH so that its centre
// lands on the node position, scaled to w x h pixels and rotated.
// Rotation is counter-clockwise on screen for positive degrees.
func placement(st scene.State, src image.Rectangle, w, h float64, frameW, frameH int) f64.Aff3 {
	srcW, srcH := float64(src.Dx()), float64(src.Dy())
	kx := st.Scale.X * w / srcW
	ky := st.Scale.Y * h / srcH

	rad := geometry.DegToRad(st.Rotation)
	cos, sin := math.Cos(rad), math.Sin(rad)

	a, b := cos*kx, sin*ky
	d, e := -sin*kx, cos*ky

	px := float64(frameW)/2 + st.Position.X*float64(frameW)
	py := float64(frameH)/2 - st.Position.Y*float64(frameH)
	cx := float64(src.Min.X) + srcW/2
	cy := float64(src.Min.Y) + srcH/2

	return f64.Aff3{
		a, b, px - (a*cx + b*cy),
		d, e, py - (d*cx + e*cy),
	}
}

// transformedBounds is the frame-space bounding box of src under m,
// clipped to frame.
func transformedBounds(m f64.Aff3, src, frame image.Rectangle) image.Rectangle {
	corners := [4][2]float64{
		{float64(src.Min.X), float64(src.Min.Y)},
		{float64(src.Max.X), float64(src.Min.Y)},
		{float64(src.Min.X), float64(src.Max.Y)},
		{float64(src.Max.X), float64(src.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x := m[0]*c[0] + m[1]*c[1] + m[2]
		y := m[3]*c[0] + m[4]*c[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	r := image.Rect(int(math.Floor(minX))-1, int(math.Floor(minY))-1, int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	return r.Intersect(frame)
}

// displaySize resolves the on-frame size of a source before node scale.
func displaySize(src image.Rectangle, w, h float64) (float64, float64) {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0:
		return w, sh * w / sw
	case h > 0:
		return sw * h / sh, h
	}
	return sw, sh
}

func interpolator(name string) draw.Interpolator {
	switch strings.ToLower(name) {
	case "nearest":
		return draw.NearestNeighbor
	case "catmullrom":
		return draw.CatmullRom
	case "approxbilinear":
		return draw.ApproxBiLinear
	}
	return draw.BiLinear
}
