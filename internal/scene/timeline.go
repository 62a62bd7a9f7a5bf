package scene

import (
	"math"

	"github.com/ivlev/fluxreel/internal/errs"
)

// Transition blends the tail of one scene into the head of the next.
type Transition struct {
	Effect   string  `yaml:"effect"`
	Duration float64 `yaml:"duration"`
	Easing   string  `yaml:"easing,omitempty"`
}

// NewTransition creates a transition eased with ease_in_out.
func NewTransition(effect string, duration float64) Transition {
	return Transition{Effect: effect, Duration: duration, Easing: "ease_in_out"}
}

// Cut is the zero-length transition.
var Cut = Transition{Effect: "cut"}

// Timeline is an ordered list of scenes. transitions[i] sits between
// scenes i and i+1 and overlaps both.
type Timeline struct {
	scenes      []*Scene
	transitions []Transition
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Add appends a scene joined to the previous one with a hard cut.
func (tl *Timeline) Add(s *Scene) {
	if len(tl.scenes) > 0 {
		tl.transitions = append(tl.transitions, Cut)
	}
	tl.scenes = append(tl.scenes, s)
}

// AddWithTransition appends a scene entered through tr.
func (tl *Timeline) AddWithTransition(s *Scene, tr Transition) error {
	if len(tl.scenes) == 0 {
		return errs.InvalidState("add scene "+s.Name, "transition into the first scene")
	}
	tl.Add(s)
	tl.transitions[len(tl.transitions)-1] = tr
	return nil
}

// SetTransition replaces the transition between scenes i and i+1.
func (tl *Timeline) SetTransition(i int, tr Transition) error {
	if i < 0 || i >= len(tl.transitions) {
		return errs.IndexOutOfRange("set transition", i)
	}
	tl.transitions[i] = tr
	return nil
}

// Scenes returns the scenes in play order.
func (tl *Timeline) Scenes() []*Scene {
	return append([]*Scene(nil), tl.scenes...)
}

// Transitions returns the transitions between adjacent scenes.
func (tl *Timeline) Transitions() []Transition {
	return append([]Transition(nil), tl.transitions...)
}

// overlap is the usable length of transition i, never longer than either
// neighbouring scene.
func (tl *Timeline) overlap(i int) float64 {
	d := tl.transitions[i].Duration
	d = math.Min(d, tl.scenes[i].EffectiveDuration())
	d = math.Min(d, tl.scenes[i+1].EffectiveDuration())
	return math.Max(d, 0)
}

// Starts returns the timeline start time of every scene.
func (tl *Timeline) Starts() []float64 {
	starts := make([]float64, len(tl.scenes))
	for i := 1; i < len(tl.scenes); i++ {
		starts[i] = starts[i-1] + tl.scenes[i-1].EffectiveDuration() - tl.overlap(i-1)
	}
	return starts
}

// Duration is the total running time.
func (tl *Timeline) Duration() float64 {
	n := len(tl.scenes)
	if n == 0 {
		return 0
	}
	return tl.Starts()[n-1] + tl.scenes[n-1].EffectiveDuration()
}

// Resolution describes what is on screen at a timeline time.
type Resolution struct {
	Scene *Scene
	Local float64

	// Только внутри окна перехода.
	Next       *Scene
	NextLocal  float64
	Transition Transition
	// Progress is the raw (uneased) transition progress in [0,1).
	Progress float64
}

// InTransition reports whether two scenes are involved.
func (r Resolution) InTransition() bool { return r.Next != nil }

// Resolve finds the scene(s) active at t. Times before 0 (and NaN) resolve
// to 0; times past the end stay on the last scene.
func (tl *Timeline) Resolve(t float64) Resolution {
	if len(tl.scenes) == 0 {
		return Resolution{}
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}

	starts := tl.Starts()
	i := len(starts) - 1
	for i > 0 && starts[i] > t {
		i--
	}

	if i > 0 {
		prev := i - 1
		end := starts[prev] + tl.scenes[prev].EffectiveDuration()
		if ov := tl.overlap(prev); t < end && ov > 0 {
			return Resolution{
				Scene:      tl.scenes[prev],
				Local:      t - starts[prev],
				Next:       tl.scenes[i],
				NextLocal:  t - starts[i],
				Transition: tl.transitions[prev],
				Progress:   (t - starts[i]) / ov,
			}
		}
	}
	return Resolution{Scene: tl.scenes[i], Local: t - starts[i]}
}

// Snapshot deep-copies the timeline for a render pass. The copy shares
// nothing mutable with the original except graders, masks and effects,
// which are read-only while rendering.
func (tl *Timeline) Snapshot() *Timeline {
	c := &Timeline{
		scenes:      make([]*Scene, len(tl.scenes)),
		transitions: append([]Transition(nil), tl.transitions...),
	}
	for i, s := range tl.scenes {
		c.scenes[i] = s.clone()
	}
	return c
}

// Prepare precomputes speed ramp integrals for fps. Call it on a snapshot
// before handing it to concurrent workers.
func (tl *Timeline) Prepare(fps int) {
	for _, s := range tl.scenes {
		d := s.EffectiveDuration()
		for _, e := range s.elements {
			if v, ok := e.(*VideoNode); ok && v.Remap != nil && v.Remap.Ramp != nil {
				v.Remap.Ramp.Precompute(fps, d)
			}
		}
	}
}
