// Package scene holds the declarative scene graph: nodes with animated
// properties, scenes that own them and the timeline that chains scenes
// with transitions.
package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/ivlev/fluxreel/internal/errs"
)

// Grader color-corrects a finished scene frame in place.
type Grader interface {
	Grade(img *image.RGBA)
}

// Scene is a named container of elements. Registration order is z-order:
// the first element is drawn first.
type Scene struct {
	Name string
	// Duration of the scene in seconds. Zero means "as long as the
	// longest animation".
	Duration   float64
	Background color.RGBA
	Grading    Grader

	elements []Element
}

// New creates an empty scene with a black background.
func New(name string, duration float64) *Scene {
	return &Scene{
		Name:       name,
		Duration:   duration,
		Background: color.RGBA{A: 255},
	}
}

// Add registers an element. A node belongs to exactly one scene and can
// be registered only once.
func (s *Scene) Add(e Element) error {
	n := e.Base()
	if n.owner != nil {
		if n.owner == s {
			return errs.InvalidState("add to scene "+s.Name, "node "+n.ID+" already added")
		}
		return errs.InvalidState("add to scene "+s.Name, "node "+n.ID+" owned by scene "+n.owner.Name)
	}
	n.owner = s
	s.elements = append(s.elements, e)
	return nil
}

// Elements returns the elements in z-order.
func (s *Scene) Elements() []Element {
	return append([]Element(nil), s.elements...)
}

// Find returns the element with id.
func (s *Scene) Find(id string) (Element, bool) {
	for _, e := range s.elements {
		if e.Base().ID == id {
			return e, true
		}
	}
	return nil, false
}

// EffectiveDuration is Duration, or the latest keyframe time of any node
// when Duration is not set.
func (s *Scene) EffectiveDuration() float64 {
	if s.Duration > 0 {
		return s.Duration
	}
	d := 0.0
	for _, e := range s.elements {
		d = math.Max(d, e.Base().Duration())
	}
	return d
}

func (s *Scene) clone() *Scene {
	c := *s
	c.elements = make([]Element, len(s.elements))
	for i, e := range s.elements {
		ce := e.Clone()
		ce.Base().owner = &c
		c.elements[i] = ce
	}
	return &c
}
