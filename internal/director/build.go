package director

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ivlev/fluxreel/internal/animation"
	"github.com/ivlev/fluxreel/internal/audio"
	"github.com/ivlev/fluxreel/internal/compositor"
	"github.com/ivlev/fluxreel/internal/easing"
	"github.com/ivlev/fluxreel/internal/effects"
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/multicam"
	"github.com/ivlev/fluxreel/internal/scene"
	"github.com/ivlev/fluxreel/internal/speedramp"
)

// Node types accepted in scripts.
const (
	NodeText     = "text"
	NodeImage    = "image"
	NodeVideo    = "video"
	NodeShape    = "shape"
	NodeAudio    = "audio"
	NodeMultiCam = "multicam"
)

// Defaults for audio analysis.
const (
	DefaultSampleRate    = 22050
	DefaultBeatThreshold = 50.0
)

// PCMDecoder decodes an audio file to mono samples.
type PCMDecoder func(ctx context.Context, path string, sampleRate int) ([]float32, error)

// Builder turns scripts into timelines.
type Builder struct {
	// BaseDir resolves relative media paths. Usually the script's folder.
	BaseDir string
	// FPS sets the keyframe density of audio-driven tracks when the script
	// does not name one.
	FPS        int
	SampleRate int
	Decode     PCMDecoder
	Logger     *slog.Logger
}

func NewBuilder(baseDir string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		BaseDir:    baseDir,
		FPS:        30,
		SampleRate: DefaultSampleRate,
		Decode:     audio.DecodePCM,
		Logger:     logger,
	}
}

// Build validates the script and produces a timeline. Media files are not
// opened, except audio that drives beats or pulses.
func (b *Builder) Build(ctx context.Context, s *Script) (*scene.Timeline, error) {
	if s == nil || len(s.Scenes) == 0 {
		return nil, errs.InvalidState("build script", "no scenes")
	}
	fps := b.FPS
	if s.Settings.FPS > 0 {
		fps = s.Settings.FPS
	}

	tl := scene.NewTimeline()
	for i, spec := range s.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("scene_%d", i+1)
		}
		sc, err := b.buildScene(ctx, spec, fps)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", spec.Name, err)
		}
		if i == 0 || spec.Transition == nil {
			if i == 0 && spec.Transition != nil {
				b.Logger.Warn("[!] transition on the first scene ignored", "scene", spec.Name)
			}
			tl.Add(sc)
			continue
		}
		tr := *spec.Transition
		if tr.Easing != "" && !easing.Known(tr.Easing) {
			return nil, fmt.Errorf("scene %q: %w", spec.Name, errs.InvalidEnum("transition easing", tr.Easing))
		}
		if tr.Duration < 0 {
			return nil, fmt.Errorf("scene %q: %w", spec.Name, errs.InvalidState("transition", "negative duration"))
		}
		if err := tl.AddWithTransition(sc, tr); err != nil {
			return nil, err
		}
	}
	b.Logger.Debug("[+] script built", "scenes", len(s.Scenes), "duration", tl.Duration())
	return tl, nil
}

func (b *Builder) buildScene(ctx context.Context, spec SceneSpec, fps int) (*scene.Scene, error) {
	if spec.Duration < 0 {
		return nil, errs.InvalidState("scene duration", spec.Duration)
	}
	sc := scene.New(spec.Name, spec.Duration)
	if spec.Background != "" {
		sc.Background = compositor.ParseHexColor(spec.Background)
	}
	if spec.Grading != nil {
		g, err := b.grading(*spec.Grading)
		if err != nil {
			return nil, fmt.Errorf("grading: %w", err)
		}
		sc.Grading = g
	}
	for i, ns := range spec.Nodes {
		e, err := b.buildNode(ctx, ns, fps)
		if err != nil {
			id := ns.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		if err := sc.Add(e); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func (b *Builder) buildNode(ctx context.Context, ns NodeSpec, fps int) (scene.Element, error) {
	var e scene.Element
	switch ns.Type {
	case NodeText:
		size := ns.Size
		if size <= 0 {
			size = 48
		}
		n := scene.NewTextNode(ns.ID, ns.Text, size)
		if ns.Color != "" {
			n.Color = ns.Color
		}
		if ns.Font != "" {
			n.Font = b.resolve(ns.Font)
		}
		e = n
	case NodeImage:
		n := scene.NewImageNode(ns.ID, b.resolve(ns.Path))
		n.Width, n.Height = ns.Width, ns.Height
		e = n
	case NodeVideo:
		n := scene.NewVideoNode(ns.ID, b.resolve(ns.Path))
		n.Width, n.Height = ns.Width, ns.Height
		n.Offset = ns.Offset
		remap, err := buildRemap(ns.Speed, ns.MaintainPitch)
		if err != nil {
			return nil, err
		}
		n.Remap = remap
		e = n
	case NodeShape:
		shape := ns.Shape
		if shape == "" {
			shape = scene.ShapeRectangle
		}
		switch shape {
		case scene.ShapeRectangle, scene.ShapeEllipse, scene.ShapeCircle:
		default:
			return nil, errs.InvalidEnum("shape", shape)
		}
		n := scene.NewShapeNode(ns.ID, shape, ns.Width, ns.Height)
		if ns.Color != "" {
			n.Color = ns.Color
		}
		e = n
	case NodeAudio:
		n := scene.NewAudioNode(ns.ID, b.resolve(ns.Path))
		if ns.Volume != nil {
			n.Volume = *ns.Volume
		}
		remap, err := buildRemap(ns.Speed, ns.MaintainPitch)
		if err != nil {
			return nil, err
		}
		n.Remap = remap
		e = n
	case NodeMultiCam:
		seq, err := b.buildMultiCam(ctx, ns)
		if err != nil {
			return nil, err
		}
		n := scene.NewMultiCamNode(ns.ID, seq)
		n.Width, n.Height = ns.Width, ns.Height
		e = n
	default:
		return nil, errs.InvalidEnum("node type", ns.Type)
	}

	if err := b.applyCommon(ctx, e.Base(), ns, fps); err != nil {
		return nil, err
	}
	return e, nil
}

// applyCommon sets the transform, compositing and animation fields shared
// by every node type.
func (b *Builder) applyCommon(ctx context.Context, n *scene.Node, ns NodeSpec, fps int) error {
	switch len(ns.Position) {
	case 0:
	case 2:
		n.MoveTo(ns.Position[0], ns.Position[1])
	default:
		return errs.InvalidState("position", ns.Position)
	}
	if ns.Align != "" {
		switch ns.Align {
		case "center", "left", "right", "top", "bottom":
			n.Align(ns.Align)
		default:
			return errs.InvalidEnum("align", ns.Align)
		}
	}
	switch len(ns.Scale) {
	case 0:
	case 1:
		n.SetScale(ns.Scale[0], ns.Scale[0])
	case 2:
		n.SetScale(ns.Scale[0], ns.Scale[1])
	default:
		return errs.InvalidState("scale", ns.Scale)
	}
	n.Rotate(ns.Rotation)
	if ns.Opacity != nil {
		n.SetOpacity(*ns.Opacity)
	}
	n.SetVisible(!ns.Hidden)
	n.BlendMode = ns.Blend

	if ns.Mask != nil {
		m, err := buildMask(*ns.Mask)
		if err != nil {
			return err
		}
		n.Mask = m
	}
	for _, fs := range ns.Effects {
		fx, err := effects.FromSpec(fs)
		if err != nil {
			return err
		}
		n.Effects = append(n.Effects, fx)
	}

	for _, a := range ns.Animations {
		tr, err := buildTrack(a.Property, a.Keyframes)
		if err != nil {
			return err
		}
		if a.Loop != 0 {
			tr.LoopCount = a.Loop
		}
		n.Animate(a.Property, tr)
	}
	if ns.FadeIn != nil {
		n.FadeIn(ns.FadeIn.Start, ns.FadeIn.Duration)
	}
	if ns.FadeOut != nil {
		n.FadeOut(ns.FadeOut.Start, ns.FadeOut.Duration)
	}
	if ns.Pulse != nil {
		tr, err := b.pulse(ctx, *ns.Pulse, fps)
		if err != nil {
			return fmt.Errorf("pulse: %w", err)
		}
		n.Animate(ns.Pulse.Property, tr)
	}
	return nil
}

func validProperty(p string) bool {
	for _, known := range scene.Properties {
		if p == known {
			return true
		}
	}
	return false
}

func checkEasing(name string) (string, error) {
	if name == "" {
		return "linear", nil
	}
	if !easing.Known(name) {
		return "", errs.InvalidEnum("easing", name)
	}
	return name, nil
}

func buildTrack(property string, kfs []KeyframeSpec) (*animation.Track, error) {
	if !validProperty(property) {
		return nil, errs.InvalidEnum("animated property", property)
	}
	tr := animation.NewTrack()
	for _, kf := range kfs {
		ease, err := checkEasing(kf.Easing)
		if err != nil {
			return nil, err
		}
		tr.AddKeyframe(kf.Time, kf.Value, ease)
	}
	return tr, nil
}

func buildRemap(speed []KeyframeSpec, maintainPitch bool) (*speedramp.TimeRemap, error) {
	if len(speed) == 0 && !maintainPitch {
		return nil, nil
	}
	remap := speedramp.NewTimeRemap()
	remap.MaintainPitch = maintainPitch
	for _, kf := range speed {
		ease, err := checkEasing(kf.Easing)
		if err != nil {
			return nil, err
		}
		remap.Ramp.AddKeyframe(kf.Time, kf.Value, ease)
	}
	return remap, nil
}

func buildMask(ms MaskSpec) (scene.Mask, error) {
	switch ms.Type {
	case "rectangle", "rect":
		m := compositor.NewRectangleMask(ms.X, ms.Y, ms.Width, ms.Height)
		m.Feather, m.Inverted = ms.Feather, ms.Inverted
		return m, nil
	case "ellipse":
		m := compositor.NewEllipseMask(ms.X, ms.Y, ms.RadiusX, ms.RadiusY)
		m.Feather, m.Inverted = ms.Feather, ms.Inverted
		return m, nil
	case "bezier":
		if len(ms.Points) < 3 {
			return nil, errs.InvalidState("bezier mask", "needs at least 3 points")
		}
		m := compositor.NewBezierMask()
		m.Feather, m.Inverted, m.Expansion = ms.Feather, ms.Inverted, ms.Expansion
		for _, p := range ms.Points {
			if len(p) != 2 {
				return nil, errs.InvalidState("bezier mask point", p)
			}
			m.AddPoint(p[0], p[1])
		}
		return m, nil
	}
	return nil, errs.InvalidEnum("mask type", ms.Type)
}

// rgb expands a one or three element list; empty gives zero.
func rgb(op string, v []float64) (r, g, b float64, err error) {
	switch len(v) {
	case 0:
		return 0, 0, 0, nil
	case 1:
		return v[0], v[0], v[0], nil
	case 3:
		return v[0], v[1], v[2], nil
	}
	return 0, 0, 0, errs.InvalidState(op, v)
}

func (b *Builder) grading(gs GradingSpec) (*compositor.ColorGrading, error) {
	g := compositor.NewColorGrading()
	for _, w := range []struct {
		name string
		v    []float64
		set  func(r, gr, b float64)
	}{
		{"lift", gs.Lift, g.SetLift},
		{"gamma", gs.Gamma, g.SetGamma},
		{"gain", gs.Gain, g.SetGain},
	} {
		r, gr, bl, err := rgb(w.name, w.v)
		if err != nil {
			return nil, err
		}
		w.set(r, gr, bl)
	}
	g.Temperature = gs.Temperature
	g.Tint = gs.Tint
	g.Exposure = gs.Exposure
	g.Contrast = gs.Contrast
	if gs.Saturation != nil {
		g.Saturation = *gs.Saturation
	}

	if len(gs.Curves) > 0 {
		curves := compositor.NewCurves()
		for channel, points := range gs.Curves {
			for _, p := range points {
				if len(p) != 2 {
					return nil, errs.InvalidState("curve point", p)
				}
				if err := curves.AddPoint(channel, p[0], p[1]); err != nil {
					return nil, err
				}
			}
		}
		g.Curves = curves
	}
	if gs.LUT != "" {
		lut, err := compositor.LoadCube(b.resolve(gs.LUT))
		if err != nil {
			return nil, err
		}
		g.LUT = lut
	}
	return g, nil
}

func (b *Builder) buildMultiCam(ctx context.Context, ns NodeSpec) (*multicam.Sequence, error) {
	if len(ns.Angles) == 0 {
		return nil, errs.InvalidState("multicam", "no angles")
	}
	ed := multicam.NewEditor(b.Logger)
	for _, as := range ns.Angles {
		i := ed.AddCamera(as.Name, b.resolve(as.Source))
		a := &ed.Sequence.Angles[i]
		a.Offset = as.Offset
		a.Enabled = !as.Disabled
		if as.Sync != "" {
			if err := a.SetSyncMethod(as.Sync); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range ns.Cuts {
		i, err := ed.AngleIndex(c.Angle)
		if err != nil {
			return nil, err
		}
		tr := c.Transition
		if tr == "" {
			tr = "cut"
		}
		if err := ed.Sequence.AddCut(c.Time, i, tr); err != nil {
			return nil, err
		}
	}
	if ns.Beats != nil {
		if err := b.cutOnBeats(ctx, ed, *ns.Beats); err != nil {
			return nil, fmt.Errorf("cut on beats: %w", err)
		}
	}
	return ed.Sequence, nil
}

func (b *Builder) cutOnBeats(ctx context.Context, ed *multicam.Editor, bs BeatsSpec) error {
	pattern := make([]int, 0, len(bs.Pattern))
	for _, name := range bs.Pattern {
		i, err := ed.AngleIndex(name)
		if err != nil {
			return err
		}
		pattern = append(pattern, i)
	}

	beats := bs.Times
	if len(beats) == 0 && bs.Audio != "" {
		samples, err := b.Decode(ctx, b.resolve(bs.Audio), b.SampleRate)
		if err != nil {
			return err
		}
		threshold := bs.Threshold
		if threshold <= 0 {
			threshold = DefaultBeatThreshold
		}
		beats = audio.DetectBeatsEnergy(samples, b.SampleRate, threshold)
		b.Logger.Info("[*] beats detected", "audio", bs.Audio, "beats", len(beats), "bpm", audio.CalculateBPM(beats))
	}
	return ed.CutOnBeats(beats, pattern)
}

func (b *Builder) pulse(ctx context.Context, ps PulseSpec, fps int) (*animation.Track, error) {
	if !validProperty(ps.Property) {
		return nil, errs.InvalidEnum("animated property", ps.Property)
	}
	samples, err := b.Decode(ctx, b.resolve(ps.Audio), b.SampleRate)
	if err != nil {
		return nil, err
	}
	return audio.EnvelopeTrack(samples, b.SampleRate, fps, ps.Base, ps.Depth), nil
}

// resolve joins relative file paths to BaseDir. Generator references
// ("qr:...") and absolute paths pass through.
func (b *Builder) resolve(path string) string {
	if path == "" || b.BaseDir == "" || filepath.IsAbs(path) || strings.Contains(path, ":") {
		return path
	}
	return filepath.Join(b.BaseDir, path)
}

// Build builds a script with default settings and no base directory.
func Build(ctx context.Context, s *Script) (*scene.Timeline, error) {
	return NewBuilder("", nil).Build(ctx, s)
}
