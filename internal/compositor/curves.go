package compositor

import (
	"sort"

	"github.com/ivlev/fluxreel/internal/animation"
	"github.com/ivlev/fluxreel/internal/errs"
)

// Curve channels.
const (
	ChannelLuma  = "luma"
	ChannelRed   = "red"
	ChannelGreen = "green"
	ChannelBlue  = "blue"
)

// CurvePoint maps input level X to output level Y, both in [0,1].
type CurvePoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Curves holds piecewise-linear tone curves. The luma curve runs first on
// every channel, then the channel's own curve. A curve with fewer than two
// points is the identity.
type Curves struct {
	Luma, Red, Green, Blue []CurvePoint
}

func NewCurves() *Curves {
	return &Curves{}
}

// AddPoint inserts a point on channel, keeping the curve sorted by X.
func (c *Curves) AddPoint(channel string, x, y float64) error {
	var dst *[]CurvePoint
	switch channel {
	case ChannelLuma:
		dst = &c.Luma
	case ChannelRed:
		dst = &c.Red
	case ChannelGreen:
		dst = &c.Green
	case ChannelBlue:
		dst = &c.Blue
	default:
		return errs.InvalidEnum("curve channel", channel)
	}
	*dst = append(*dst, CurvePoint{X: clamp01(x), Y: clamp01(y)})
	sort.SliceStable(*dst, func(i, j int) bool { return (*dst)[i].X < (*dst)[j].X })
	return nil
}

// Apply maps one color through the curves.
func (c *Curves) Apply(in RGB) RGB {
	luma, r, g, b := toKeyframes(c.Luma), toKeyframes(c.Red), toKeyframes(c.Green), toKeyframes(c.Blue)
	return RGB{
		R: evalCurve(r, evalCurve(luma, in.R)),
		G: evalCurve(g, evalCurve(luma, in.G)),
		B: evalCurve(b, evalCurve(luma, in.B)),
	}
}

type curveTables struct {
	r, g, b [256]float64
}

// tables samples the curves at every 8-bit level.
func (c *Curves) tables() *curveTables {
	luma, r, g, b := toKeyframes(c.Luma), toKeyframes(c.Red), toKeyframes(c.Green), toKeyframes(c.Blue)
	t := &curveTables{}
	for i := 0; i < 256; i++ {
		l := evalCurve(luma, float64(i)/255)
		t.r[i] = evalCurve(r, l)
		t.g[i] = evalCurve(g, l)
		t.b[i] = evalCurve(b, l)
	}
	return t
}

func (t *curveTables) apply(c RGB) RGB {
	return RGB{t.r[to8(c.R)], t.g[to8(c.G)], t.b[to8(c.B)]}
}

func toKeyframes(points []CurvePoint) []animation.Keyframe {
	if len(points) < 2 {
		return nil
	}
	kfs := make([]animation.Keyframe, len(points))
	for i, p := range points {
		kfs[i] = animation.Keyframe{Time: p.X, Value: p.Y, Easing: "linear"}
	}
	return kfs
}

func evalCurve(kfs []animation.Keyframe, v float64) float64 {
	if kfs == nil {
		return v
	}
	return clamp01(animation.Interpolate(kfs, v))
}
