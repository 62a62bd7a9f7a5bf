package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ivlev/fluxreel/internal/animation"
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/multicam"
	"github.com/ivlev/fluxreel/internal/speedramp"
)

func TestTextOpacityTrack(t *testing.T) {
	s := New("intro", 2)
	txt := NewTextNode("title", "Hello", 48)
	txt.Animate(PropOpacity, animation.NewTrack(
		animation.Keyframe{Time: 0, Value: 0, Easing: "linear"},
		animation.Keyframe{Time: 1, Value: 1, Easing: "linear"},
	))
	if err := s.Add(txt); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		time, want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := txt.StateAt(tt.time).Opacity; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("opacity at %v = %v, want %v", tt.time, got, tt.want)
		}
	}
}

func TestNodeMutators(t *testing.T) {
	n := NewNode("n")
	n.MoveTo(0.1, 0.2)
	n.MoveBy(0.1, -0.1)
	n.RotateBy(30)
	n.RotateBy(15)
	n.SetOpacity(1.7)
	n.SetScale(2, 3)

	if math.Abs(n.Position.X-0.2) > 1e-12 || math.Abs(n.Position.Y-0.1) > 1e-12 {
		t.Errorf("Position = %+v", n.Position)
	}
	if n.Rotation != 45 {
		t.Errorf("Rotation = %v", n.Rotation)
	}
	if n.Opacity != 1 {
		t.Errorf("Opacity not clamped: %v", n.Opacity)
	}
	n.SetOpacity(-1)
	if n.Opacity != 0 {
		t.Errorf("Opacity not clamped: %v", n.Opacity)
	}
	if n.Scale.X != 2 || n.Scale.Y != 3 {
		t.Errorf("Scale = %+v", n.Scale)
	}
}

func TestAlign(t *testing.T) {
	n := NewNode("n")
	n.MoveTo(0.3, 0.3)

	n.Align("left")
	if n.Position.X != -0.5 || n.Position.Y != 0.3 {
		t.Errorf("left: %+v", n.Position)
	}
	n.Align("top")
	if n.Position.Y != 0.5 {
		t.Errorf("top: %+v", n.Position)
	}
	n.Align("diagonal")
	if n.Position.X != -0.5 || n.Position.Y != 0.5 {
		t.Errorf("unknown align moved node: %+v", n.Position)
	}
	n.Align("center")
	if n.Position.X != 0 || n.Position.Y != 0 {
		t.Errorf("center: %+v", n.Position)
	}
}

func TestAnimationHelpersRegisterTracks(t *testing.T) {
	n := NewNode("n")
	n.FadeIn(0, 1)
	n.Slide(-0.5, 0, 0, 0, 0, 2, "linear")
	n.AnimateScale(0.5, 1, 1, 1, "linear")

	if n.Opacity != 1 || n.Position.X != 0 || n.Scale.X != 1 {
		t.Error("helpers mutated live values")
	}
	names := strings.Join(n.TrackNames(), ",")
	if names != "opacity,x,y,scale_x,scale_y" {
		t.Errorf("TrackNames = %s", names)
	}

	st := n.StateAt(1)
	if st.Opacity != 1 || math.Abs(st.Position.X+0.25) > 1e-9 || st.Scale.X != 0.5 {
		t.Errorf("StateAt(1) = %+v", st)
	}
	if n.Duration() != 2 {
		t.Errorf("Duration = %v", n.Duration())
	}
}

func TestFadeOut(t *testing.T) {
	n := NewNode("n")
	n.SetOpacity(0.8)
	n.FadeOut(1, 2)
	if got := n.StateAt(2).Opacity; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("opacity at 2 = %v, want 0.4", got)
	}
}

func TestSceneOwnership(t *testing.T) {
	a, b := New("a", 1), New("b", 1)
	n := NewShapeNode("", ShapeCircle, 10, 10)
	if !strings.HasPrefix(n.ID, "shape-") {
		t.Errorf("generated id %q", n.ID)
	}
	if err := a.Add(n); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(n); !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("adding owned node: %v", err)
	}
	if err := a.Add(n); !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("adding node twice: %v", err)
	}
	if len(b.Elements()) != 0 || len(a.Elements()) != 1 {
		t.Errorf("elements: a=%d b=%d", len(a.Elements()), len(b.Elements()))
	}
	if _, ok := a.Find(n.ID); !ok {
		t.Error("Find failed")
	}
}

func TestEffectiveDuration(t *testing.T) {
	s := New("s", 0)
	n := NewNode("n")
	n.FadeIn(1, 2.5)
	_ = s.Add(n)
	if d := s.EffectiveDuration(); d != 3.5 {
		t.Errorf("EffectiveDuration = %v", d)
	}
}

func TestEffectiveDurationCountsLoops(t *testing.T) {
	tests := []struct {
		loops int
		want  float64
	}{
		{1, 2},
		{3, 6},
		{-1, 2},
	}
	for _, tt := range tests {
		s := New("s", 0)
		n := NewNode("pulse")
		tr := animation.NewTrack(
			animation.Keyframe{Time: 0, Value: 1, Easing: "linear"},
			animation.Keyframe{Time: 2, Value: 1.2, Easing: "linear"},
		)
		tr.LoopCount = tt.loops
		n.Animate(PropScaleX, tr)
		_ = s.Add(n)
		if d := s.EffectiveDuration(); d != tt.want {
			t.Errorf("loops %d: EffectiveDuration = %v, want %v", tt.loops, d, tt.want)
		}
	}
}

func TestTimelineResolve(t *testing.T) {
	tl := NewTimeline()
	a, b, c := New("a", 4), New("b", 3), New("c", 2)
	tl.Add(a)
	if err := tl.AddWithTransition(b, NewTransition("fade", 1)); err != nil {
		t.Fatal(err)
	}
	tl.Add(c)

	if d := tl.Duration(); d != 8 {
		t.Fatalf("Duration = %v, want 8", d)
	}

	tests := []struct {
		time      float64
		scene     *Scene
		local     float64
		next      *Scene
		progress  float64
		nextLocal float64
	}{
		{0, a, 0, nil, 0, 0},
		{2.9, a, 2.9, nil, 0, 0},
		{3.25, a, 3.25, b, 0.25, 0.25},
		{4, b, 1, nil, 0, 0},
		{6.5, c, 0.5, nil, 0, 0},
		{20, c, 14, nil, 0, 0},
		{-3, a, 0, nil, 0, 0},
		{math.NaN(), a, 0, nil, 0, 0},
	}
	for _, tt := range tests {
		r := tl.Resolve(tt.time)
		if r.Scene != tt.scene || r.Next != tt.next {
			t.Errorf("Resolve(%v) scenes = %v/%v", tt.time, r.Scene, r.Next)
			continue
		}
		if math.Abs(r.Local-tt.local) > 1e-9 {
			t.Errorf("Resolve(%v).Local = %v, want %v", tt.time, r.Local, tt.local)
		}
		if r.InTransition() {
			if math.Abs(r.Progress-tt.progress) > 1e-9 || math.Abs(r.NextLocal-tt.nextLocal) > 1e-9 {
				t.Errorf("Resolve(%v) progress %v nextLocal %v", tt.time, r.Progress, r.NextLocal)
			}
			if r.Transition.Easing != "ease_in_out" {
				t.Errorf("transition easing %q", r.Transition.Easing)
			}
		}
	}
}

func TestTimelineTransitionErrors(t *testing.T) {
	tl := NewTimeline()
	if err := tl.AddWithTransition(New("a", 1), NewTransition("fade", 1)); !errors.Is(err, errs.ErrInvalidState) {
		t.Errorf("transition into first scene: %v", err)
	}
	tl.Add(New("a", 1))
	tl.Add(New("b", 1))
	if err := tl.SetTransition(1, Cut); !errors.Is(err, errs.ErrIndexOutOfRange) {
		t.Errorf("SetTransition(1): %v", err)
	}
	// A transition longer than its scenes is limited to the shorter one.
	if err := tl.SetTransition(0, NewTransition("fade", 5)); err != nil {
		t.Fatal(err)
	}
	if d := tl.Duration(); d != 1 {
		t.Errorf("Duration = %v, want 1", d)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New("s", 2)
	v := NewVideoNode("clip", "clip.mp4")
	v.Remap = speedramp.NewTimeRemap()
	v.FadeIn(0, 1)
	seq := multicam.NewSequence()
	seq.AddAngle(multicam.NewCameraAngle("a", "a.mp4"))
	mc := NewMultiCamNode("mc", seq)
	_ = s.Add(v)
	_ = s.Add(mc)

	tl := NewTimeline()
	tl.Add(s)
	snap := tl.Snapshot()

	v.MoveTo(0.4, 0)
	v.Remap.SetSpeed(0, 3)
	tr, _ := v.Track(PropOpacity)
	tr.AddKeyframe(0.5, 0, "linear")
	seq.AddAngle(multicam.NewCameraAngle("b", "b.mp4"))

	els := snap.Scenes()[0].Elements()
	sv := els[0].(*VideoNode)
	if sv.Position.X != 0 {
		t.Error("snapshot shares position")
	}
	if sv.Remap.Ramp.SpeedAt(1) != 1 {
		t.Error("snapshot shares speed ramp")
	}
	if got := sv.StateAt(0.5).Opacity; got != 0.5 {
		t.Errorf("snapshot shares tracks, opacity %v", got)
	}
	if n := len(els[1].(*MultiCamNode).Sequence.Angles); n != 1 {
		t.Errorf("snapshot shares multicam angles: %d", n)
	}

	// The clone is owned by the snapshot scene and can't be added elsewhere.
	if err := New("other", 1).Add(sv); err == nil {
		t.Error("snapshot node accepted by another scene")
	}
}

func TestMultiCamActiveSource(t *testing.T) {
	seq := multicam.NewSequence()
	seq.AddAngle(multicam.NewCameraAngle("a", "a.mp4"))
	seq.AddAngle(multicam.NewCameraAngle("b", "b.mp4"))
	seq.Angles[1].Offset = 2
	_ = seq.AddCut(3, 1, "cut")

	n := NewMultiCamNode("", seq)
	src, st, ok := n.ActiveSource(4)
	if !ok || src != "b.mp4" || st != 6 {
		t.Errorf("ActiveSource(4) = %q %v %v", src, st, ok)
	}

	seq.Angles[0].Enabled = false
	if _, _, ok := n.ActiveSource(1); ok {
		t.Error("disabled angle reported as live")
	}
}
