// Package compositor turns a scene timeline into RGBA frames: it places
// and rasterises nodes, blends them with masks and blend modes, grades
// each scene and mixes scenes inside transitions.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/fluxreel/internal/scene"
	"github.com/ivlev/fluxreel/internal/system"
)

// AssetResolver returns preloaded still images by reference. It must not
// block on I/O.
type AssetResolver interface {
	Image(ref string) (image.Image, bool)
}

// FrameSource decodes video frames. It is the only collaborator the
// compositor calls during a frame and must be safe for concurrent use.
type FrameSource interface {
	Frame(source string, t float64) (image.Image, error)
}

// Options configures a Compositor.
type Options struct {
	Width, Height int
	FPS           int

	Assets AssetResolver
	Frames FrameSource
	Pool   *system.ImagePool
	Logger *slog.Logger

	// Interpolation selects the resampler for image and video nodes:
	// "bilinear" (default), "nearest", "approxbilinear" or "catmullrom".
	Interpolation string

	// TransitionVersion selects transition rendering. Version 1 (and 0)
	// renders directional transitions as a swap at 50% progress; no other
	// version exists yet.
	TransitionVersion int
}

// Compositor renders frames. After Prepare it is safe for concurrent use.
type Compositor struct {
	opts   Options
	frame  image.Rectangle
	fonts  *fontSet
	interp draw.Interpolator
	log    *slog.Logger
}

// New validates the options and parses the built-in font.
func New(opts Options) (*Compositor, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d", opts.FPS)
	}
	if opts.TransitionVersion > 1 {
		return nil, fmt.Errorf("unsupported transition version %d", opts.TransitionVersion)
	}
	if opts.Pool == nil {
		opts.Pool = system.NewImagePool()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fonts, err := newFontSet()
	if err != nil {
		return nil, err
	}
	return &Compositor{
		opts:   opts,
		frame:  image.Rect(0, 0, opts.Width, opts.Height),
		fonts:  fonts,
		interp: interpolator(opts.Interpolation),
		log:    logger,
	}, nil
}

// Bounds is the frame rectangle.
func (c *Compositor) Bounds() image.Rectangle { return c.frame }

// Options returns the options the compositor was built with.
func (c *Compositor) Options() Options { return c.opts }

// Pool is the buffer pool frames are drawn from.
func (c *Compositor) Pool() *system.ImagePool { return c.opts.Pool }

// Prepare loads the fonts referenced by text nodes. Call it once per
// timeline before rendering frames concurrently.
func (c *Compositor) Prepare(tl *scene.Timeline) error {
	for _, s := range tl.Scenes() {
		for _, e := range s.Elements() {
			if t, ok := e.(*scene.TextNode); ok {
				if err := c.fonts.load(t.Font); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RenderFrame draws the timeline at t into dst, which must have the
// compositor's bounds.
func (c *Compositor) RenderFrame(tl *scene.Timeline, t float64, dst *image.RGBA) error {
	if dst.Rect != c.frame {
		return fmt.Errorf("frame buffer %v, want %v", dst.Rect, c.frame)
	}
	r := tl.Resolve(t)
	if r.Scene == nil {
		fill(dst, color.RGBA{A: 255})
		return nil
	}
	if !r.InTransition() {
		return c.renderScene(r.Scene, r.Local, dst)
	}

	effect := r.Transition.Effect
	p := TransitionProgress(r.Transition, r.Progress)

	// При смене видна только одна сторона.
	if isSwap(effect) {
		if effect == TransitionCut || effect == TransitionNone || p >= 0.5 {
			return c.renderScene(r.Next, r.NextLocal, dst)
		}
		return c.renderScene(r.Scene, r.Local, dst)
	}

	if err := c.renderScene(r.Scene, r.Local, dst); err != nil {
		return err
	}
	next := c.opts.Pool.Get(c.frame)
	defer c.opts.Pool.Put(next)
	if err := c.renderScene(r.Next, r.NextLocal, next); err != nil {
		return err
	}
	ApplyTransition(effect, p, dst, next, dst)
	return nil
}

func isSwap(effect string) bool {
	return effect == TransitionCut || effect == TransitionNone ||
		strings.HasPrefix(effect, "slide_") ||
		strings.HasPrefix(effect, "wipe_") ||
		strings.HasPrefix(effect, "zoom_")
}

func (c *Compositor) renderScene(s *scene.Scene, local float64, dst *image.RGBA) error {
	bg := s.Background
	bg.A = 255
	fill(dst, bg)

	for _, e := range s.Elements() {
		if err := c.renderElement(e, local, dst); err != nil {
			return fmt.Errorf("scene %s: %w", s.Name, err)
		}
	}
	if s.Grading != nil {
		s.Grading.Grade(dst)
	}
	return nil
}

func (c *Compositor) renderElement(e scene.Element, local float64, dst *image.RGBA) error {
	n := e.Base()
	st := n.StateAt(local)
	if !st.Visible || st.Opacity <= 0 {
		return nil
	}

	src, w, h, err := c.source(e, local)
	if err != nil {
		return err
	}
	if src == nil || src.Bounds().Empty() {
		return nil
	}
	if math.Abs(st.Scale.X) < 1e-9 || math.Abs(st.Scale.Y) < 1e-9 {
		return nil
	}

	dw, dh := displaySize(src.Bounds(), w, h)
	m := placement(st, src.Bounds(), dw, dh, c.opts.Width, c.opts.Height)

	layer := c.opts.Pool.Get(c.frame)
	defer c.opts.Pool.Put(layer)
	system.Clear(layer)

	c.interp.Transform(layer, m, src, src.Bounds(), draw.Over, nil)

	area := transformedBounds(m, src.Bounds(), c.frame)
	if len(n.Effects) > 0 {
		for _, fx := range n.Effects {
			fx.Apply(layer, local)
		}
		// Эффекты могут выходить за границы узла.
		area = c.frame
	}

	composite(dst, layer, area, st.Opacity, n.Mask, n.BlendMode)
	return nil
}

// source returns the unplaced content of an element and its requested
// display size (0 means natural).
func (c *Compositor) source(e scene.Element, local float64) (image.Image, float64, float64, error) {
	switch n := e.(type) {
	case *scene.TextNode:
		img, err := rasterText(c.fonts, n)
		if img == nil {
			return nil, 0, 0, err
		}
		return img, 0, 0, err

	case *scene.ShapeNode:
		img := rasterShape(n)
		if img == nil {
			return nil, 0, 0, nil
		}
		return img, 0, 0, nil

	case *scene.ImageNode:
		if c.opts.Assets == nil {
			return nil, 0, 0, fmt.Errorf("image %s: no asset resolver", n.ID)
		}
		img, ok := c.opts.Assets.Image(n.Path)
		if !ok {
			c.log.Warn("image not preloaded", "node", n.ID, "path", n.Path)
			return nil, 0, 0, nil
		}
		return img, n.Width, n.Height, nil

	case *scene.VideoNode:
		img, err := c.videoFrame(n, local)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("video %s: %w", n.ID, err)
		}
		return img, n.Width, n.Height, nil

	case *scene.MultiCamNode:
		src, st, ok := n.ActiveSource(local)
		if !ok {
			return nil, 0, 0, nil
		}
		if c.opts.Frames == nil {
			return nil, 0, 0, fmt.Errorf("multicam %s: no frame source", n.ID)
		}
		img, err := c.opts.Frames.Frame(src, st)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("multicam %s: %w", n.ID, err)
		}
		return img, n.Width, n.Height, nil
	}
	// Аудио и пустые узлы не рисуем.
	return nil, 0, 0, nil
}

func (c *Compositor) videoFrame(n *scene.VideoNode, local float64) (image.Image, error) {
	if c.opts.Frames == nil {
		return nil, fmt.Errorf("no frame source")
	}
	fps := c.opts.FPS
	st := n.SourceTime(local, fps)
	if n.Remap == nil || n.Remap.Ramp == nil || !n.Remap.Ramp.FrameBlending {
		return c.opts.Frames.Frame(n.Path, st)
	}

	// Смешиваем два соседних кадра по дробной позиции.
	pos := st * float64(fps)
	t0 := math.Floor(pos) / float64(fps)
	frac := pos - math.Floor(pos)
	a, err := c.opts.Frames.Frame(n.Path, t0)
	if err != nil || frac < 1e-6 {
		return a, err
	}
	b, err := c.opts.Frames.Frame(n.Path, t0+1/float64(fps))
	if err != nil {
		return nil, err
	}
	ra, okA := a.(*image.RGBA)
	rb, okB := b.(*image.RGBA)
	if !okA || !okB || ra.Rect != rb.Rect {
		if frac < 0.5 {
			return a, nil
		}
		return b, nil
	}
	out := image.NewRGBA(ra.Rect)
	crossFade(frac, ra, rb, out)
	return out, nil
}

// composite blends layer (premultiplied) onto the opaque frame dst inside
// area. The per-pixel opacity is node opacity x layer alpha x mask
// coverage.
func composite(dst, layer *image.RGBA, area image.Rectangle, opacity float64, mask scene.Mask, mode string) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			li := layer.PixOffset(x, y)
			la := layer.Pix[li+3]
			if la == 0 {
				continue
			}
			alpha := opacity * float64(la) / 255
			if mask != nil {
				alpha *= mask.Coverage(float64(x)+0.5, float64(y)+0.5)
			}
			if alpha <= 0 {
				continue
			}

			di := dst.PixOffset(x, y)
			base := RGB{float64(dst.Pix[di]) / 255, float64(dst.Pix[di+1]) / 255, float64(dst.Pix[di+2]) / 255}
			blend := unpremul(layer.Pix[li], layer.Pix[li+1], layer.Pix[li+2], la)
			out := ApplyBlendMode(base, blend, mode, alpha)

			dst.Pix[di] = to8(out.R)
			dst.Pix[di+1] = to8(out.G)
			dst.Pix[di+2] = to8(out.B)
			dst.Pix[di+3] = 255
		}
	}
}

func fill(dst *image.RGBA, c color.RGBA) {
	if len(dst.Pix) < 4 {
		return
	}
	dst.Pix[0], dst.Pix[1], dst.Pix[2], dst.Pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(dst.Pix); filled *= 2 {
		copy(dst.Pix[filled:], dst.Pix[:filled])
	}
}
