package scene

import (
	"github.com/google/uuid"

	"github.com/ivlev/fluxreel/internal/multicam"
	"github.com/ivlev/fluxreel/internal/speedramp"
)

// Element kinds.
const (
	KindNode     = "node"
	KindText     = "text"
	KindImage    = "image"
	KindVideo    = "video"
	KindShape    = "shape"
	KindAudio    = "audio"
	KindMultiCam = "multicam"
)

// Element is anything a scene can hold. Specialised nodes embed Node, so
// Base always returns the shared properties.
type Element interface {
	Base() *Node
	Kind() string
	Clone() Element
}

// NewID returns a short unique id prefixed with kind.
func NewID(kind string) string {
	return kind + "-" + uuid.NewString()[:8]
}

func (n *Node) Kind() string { return KindNode }

func (n *Node) Clone() Element {
	c := n.cloneBase()
	return &c
}

// TextNode draws a single line of text centred on its position.
type TextNode struct {
	Node
	Text  string
	Size  float64 // pixels at scale 1
	Color string  // hex, e.g. "#ffffff"
	// Font is a TrueType/OpenType file; empty selects the built-in face.
	Font string
}

func NewTextNode(id, text string, size float64) *TextNode {
	if id == "" {
		id = NewID(KindText)
	}
	t := &TextNode{Text: text, Size: size, Color: "#ffffff"}
	t.init(id)
	return t
}

func (t *TextNode) Kind() string { return KindText }

func (t *TextNode) Clone() Element {
	c := *t
	c.Node = t.cloneBase()
	return &c
}

// ImageNode draws a still image. A zero Width or Height keeps the
// source's natural size on that axis.
type ImageNode struct {
	Node
	Path   string
	Width  float64
	Height float64
}

func NewImageNode(id, path string) *ImageNode {
	if id == "" {
		id = NewID(KindImage)
	}
	n := &ImageNode{Path: path}
	n.init(id)
	return n
}

func (n *ImageNode) Kind() string { return KindImage }

func (n *ImageNode) Clone() Element {
	c := *n
	c.Node = n.cloneBase()
	return &c
}

// VideoNode samples frames from a video source. Remap, when set, maps the
// node's local time to source time.
type VideoNode struct {
	Node
	Path   string
	Width  float64
	Height float64
	Remap  *speedramp.TimeRemap
	// Offset shifts the source: source time = remapped time + Offset.
	Offset float64
}

func NewVideoNode(id, path string) *VideoNode {
	if id == "" {
		id = NewID(KindVideo)
	}
	n := &VideoNode{Path: path}
	n.init(id)
	return n
}

func (n *VideoNode) Kind() string { return KindVideo }

func (n *VideoNode) Clone() Element {
	c := *n
	c.Node = n.cloneBase()
	c.Remap = n.Remap.Clone()
	return &c
}

// SourceTime maps local node time to source time.
func (n *VideoNode) SourceTime(local float64, fps int) float64 {
	if n.Remap == nil {
		return local + n.Offset
	}
	return n.Remap.SourceTime(local, fps) + n.Offset
}

// Shape types.
const (
	ShapeRectangle = "rectangle"
	ShapeEllipse   = "ellipse"
	ShapeCircle    = "circle"
)

// ShapeNode draws a filled primitive. Width and Height are pixels at
// scale 1; a circle uses Width as its diameter.
type ShapeNode struct {
	Node
	Shape  string
	Color  string
	Width  float64
	Height float64
}

func NewShapeNode(id, shape string, width, height float64) *ShapeNode {
	if id == "" {
		id = NewID(KindShape)
	}
	n := &ShapeNode{Shape: shape, Color: "#ffffff", Width: width, Height: height}
	n.init(id)
	return n
}

func (n *ShapeNode) Kind() string { return KindShape }

func (n *ShapeNode) Clone() Element {
	c := *n
	c.Node = n.cloneBase()
	return &c
}

// AudioNode is a sound played with its scene. It is never drawn;
// engine.AudioTracks hands it to the encoder, Remap.MaintainPitch
// included.
type AudioNode struct {
	Node
	Path   string
	Volume float64
	Remap  *speedramp.TimeRemap
}

func NewAudioNode(id, path string) *AudioNode {
	if id == "" {
		id = NewID(KindAudio)
	}
	n := &AudioNode{Path: path, Volume: 1}
	n.init(id)
	return n
}

func (n *AudioNode) Kind() string { return KindAudio }

func (n *AudioNode) Clone() Element {
	c := *n
	c.Node = n.cloneBase()
	c.Remap = n.Remap.Clone()
	return &c
}

// MultiCamNode shows whichever camera angle is live at the node's local
// time.
type MultiCamNode struct {
	Node
	Sequence *multicam.Sequence
	Width    float64
	Height   float64
}

func NewMultiCamNode(id string, seq *multicam.Sequence) *MultiCamNode {
	if id == "" {
		id = NewID(KindMultiCam)
	}
	if seq == nil {
		seq = multicam.NewSequence()
	}
	n := &MultiCamNode{Sequence: seq}
	n.init(id)
	return n
}

func (n *MultiCamNode) Kind() string { return KindMultiCam }

func (n *MultiCamNode) Clone() Element {
	c := *n
	c.Node = n.cloneBase()
	c.Sequence = n.Sequence.Clone()
	return &c
}

// ActiveSource returns the source and source time of the live angle at
// local time t. ok is false when the sequence has no usable angle.
func (n *MultiCamNode) ActiveSource(t float64) (source string, sourceTime float64, ok bool) {
	i := n.Sequence.ActiveAngleAt(t)
	st, err := n.Sequence.SourceTime(i, t)
	if err != nil || !n.Sequence.Angles[i].Enabled {
		return "", 0, false
	}
	return n.Sequence.Angles[i].Source, st, true
}
