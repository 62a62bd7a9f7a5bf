package scene

import (
	"image"
	"math"

	"github.com/ivlev/fluxreel/internal/animation"
	"github.com/ivlev/fluxreel/internal/geometry"
)

// Animatable property names.
const (
	PropOpacity  = "opacity"
	PropX        = "x"
	PropY        = "y"
	PropScaleX   = "scale_x"
	PropScaleY   = "scale_y"
	PropRotation = "rotation"
	PropVisible  = "visible"
)

// Properties lists every property a track may drive.
var Properties = []string{PropOpacity, PropX, PropY, PropScaleX, PropScaleY, PropRotation, PropVisible}

// Canonical alignment offsets in normalised frame coordinates: (0,0) is the
// frame center, x spans [-0.5,0.5] across the width and +y points up.
// Alignment does not look at the rendered bounds of the node.
const (
	alignLeft   = -0.5
	alignRight  = 0.5
	alignTop    = 0.5
	alignBottom = -0.5
)

// Mask limits where a node contributes. Coverage is evaluated in frame
// pixel coordinates and returns a value in [0,1].
type Mask interface {
	Coverage(x, y float64) float64
}

// Effect post-processes a node layer before it is composited. Effects must
// be safe for concurrent use.
type Effect interface {
	Apply(layer *image.RGBA, t float64)
}

// State is the instantaneous, fully evaluated transform of a node.
type State struct {
	Position geometry.Point
	Scale    geometry.Point
	Rotation float64
	Opacity  float64
	Visible  bool
}

// Node carries the properties every visual element shares.
type Node struct {
	ID       string
	Position geometry.Point
	Scale    geometry.Point
	Rotation float64 // degrees
	Opacity  float64
	Visible  bool

	// BlendMode names the blend function used when compositing the node.
	// Empty and unknown modes composite as "normal".
	BlendMode string
	Mask      Mask
	Effects   []Effect

	tracks map[string]*animation.Track
	owner  *Scene
}

// NewNode creates a node with identity transform, full opacity and
// visibility.
func NewNode(id string) *Node {
	n := &Node{}
	n.init(id)
	return n
}

func (n *Node) init(id string) {
	n.ID = id
	n.Scale = geometry.Point{X: 1, Y: 1}
	n.Opacity = 1
	n.Visible = true
}

// Base returns the node itself; specialised nodes inherit it by embedding.
func (n *Node) Base() *Node { return n }

func (n *Node) MoveTo(x, y float64) { n.Position = geometry.Point{X: x, Y: y} }

func (n *Node) MoveBy(dx, dy float64) {
	n.Position.X += dx
	n.Position.Y += dy
}

func (n *Node) Rotate(deg float64)   { n.Rotation = deg }
func (n *Node) RotateBy(deg float64) { n.Rotation += deg }

// SetOpacity clamps to [0,1].
func (n *Node) SetOpacity(v float64) { n.Opacity = clamp01(v) }

func (n *Node) SetScale(sx, sy float64) { n.Scale = geometry.Point{X: sx, Y: sy} }
func (n *Node) SetVisible(v bool)       { n.Visible = v }

// Align moves the node to a canonical position. Unknown names are ignored.
func (n *Node) Align(where string) {
	switch where {
	case "center":
		n.Center()
	case "left":
		n.Left()
	case "right":
		n.Right()
	case "top":
		n.Top()
	case "bottom":
		n.Bottom()
	}
}

func (n *Node) Center() { n.Position = geometry.Point{} }
func (n *Node) Left()   { n.Position.X = alignLeft }
func (n *Node) Right()  { n.Position.X = alignRight }
func (n *Node) Top()    { n.Position.Y = alignTop }
func (n *Node) Bottom() { n.Position.Y = alignBottom }

// Animate attaches a track to a property, replacing any existing one.
func (n *Node) Animate(property string, tr *animation.Track) {
	if n.tracks == nil {
		n.tracks = make(map[string]*animation.Track)
	}
	n.tracks[property] = tr
}

// Track returns the track driving property, if any.
func (n *Node) Track(property string) (*animation.Track, bool) {
	tr, ok := n.tracks[property]
	return tr, ok
}

// TrackNames lists the animated properties in canonical order.
func (n *Node) TrackNames() []string {
	var names []string
	for _, p := range Properties {
		if _, ok := n.tracks[p]; ok {
			names = append(names, p)
		}
	}
	return names
}

// track returns the track for property, creating an empty one.
func (n *Node) track(property string) *animation.Track {
	if tr, ok := n.tracks[property]; ok {
		return tr
	}
	tr := animation.NewTrack()
	n.Animate(property, tr)
	return tr
}

// FadeIn animates opacity from 0 up to the node's opacity.
func (n *Node) FadeIn(start, duration float64) {
	tr := n.track(PropOpacity)
	tr.AddKeyframe(start, 0, "linear")
	tr.AddKeyframe(start+duration, n.Opacity, "linear")
}

// FadeOut animates opacity from the node's opacity down to 0.
func (n *Node) FadeOut(start, duration float64) {
	tr := n.track(PropOpacity)
	tr.AddKeyframe(start, n.Opacity, "linear")
	tr.AddKeyframe(start+duration, 0, "linear")
}

// AnimateScale animates a uniform scale from one factor to another.
func (n *Node) AnimateScale(from, to, start, duration float64, ease string) {
	for _, p := range []string{PropScaleX, PropScaleY} {
		tr := n.track(p)
		tr.AddKeyframe(start, from, ease)
		tr.AddKeyframe(start+duration, to, "linear")
	}
}

// Slide animates the position between two points.
func (n *Node) Slide(x0, y0, x1, y1, start, duration float64, ease string) {
	tx, ty := n.track(PropX), n.track(PropY)
	tx.AddKeyframe(start, x0, ease)
	tx.AddKeyframe(start+duration, x1, "linear")
	ty.AddKeyframe(start, y0, ease)
	ty.AddKeyframe(start+duration, y1, "linear")
}

// AnimateRotation animates the rotation angle in degrees.
func (n *Node) AnimateRotation(from, to, start, duration float64, ease string) {
	tr := n.track(PropRotation)
	tr.AddKeyframe(start, from, ease)
	tr.AddKeyframe(start+duration, to, "linear")
}

// StateAt samples every attached track at t over the static properties.
func (n *Node) StateAt(t float64) State {
	s := State{
		Position: n.Position,
		Scale:    n.Scale,
		Rotation: n.Rotation,
		Opacity:  n.Opacity,
		Visible:  n.Visible,
	}
	for prop, tr := range n.tracks {
		if tr.Len() == 0 {
			continue
		}
		v := tr.ValueAtLooped(t)
		switch prop {
		case PropOpacity:
			s.Opacity = v
		case PropX:
			s.Position.X = v
		case PropY:
			s.Position.Y = v
		case PropScaleX:
			s.Scale.X = v
		case PropScaleY:
			s.Scale.Y = v
		case PropRotation:
			s.Rotation = v
		case PropVisible:
			s.Visible = v >= 0.5
		}
	}
	s.Opacity = clamp01(s.Opacity)
	return s
}

// Duration is how long the node's animations play, loops included. A track
// looping forever counts with one pass.
func (n *Node) Duration() float64 {
	var seq animation.Sequence
	for _, tr := range n.tracks {
		seq.Add(tr)
	}
	return seq.Duration()
}

// cloneBase copies the node with deep-copied tracks and no owner.
func (n *Node) cloneBase() Node {
	c := *n
	c.owner = nil
	if n.Effects != nil {
		c.Effects = append([]Effect(nil), n.Effects...)
	}
	if n.tracks != nil {
		c.tracks = make(map[string]*animation.Track, len(n.tracks))
		for p, tr := range n.tracks {
			c.tracks[p] = tr.Clone()
		}
	}
	return c
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
