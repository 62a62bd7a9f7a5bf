// Package speedramp maps sequence time to source time through a
// keyframed playback-speed multiplier.
package speedramp

import (
	"math"

	"github.com/ivlev/fluxreel/internal/animation"
)

// SpeedRamp is a keyframe track over a speed multiplier (1.0 = normal).
type SpeedRamp struct {
	track *animation.Track

	// FrameBlending mixes the two nearest source frames when the mapped
	// source time falls between frames.
	FrameBlending bool
	// OpticalFlow is recorded for encoders that can interpolate motion.
	OpticalFlow bool

	table    []float64
	tableFPS int
}

// New creates a ramp playing at normal speed from time 0.
func New() *SpeedRamp {
	return &SpeedRamp{track: animation.NewTrackWithDefault(1.0)}
}

// AddKeyframe sets the speed reached at time. Negative speeds are clamped
// to 0 (freeze frame).
func (r *SpeedRamp) AddKeyframe(time, speed float64, ease string) {
	if speed < 0 || math.IsNaN(speed) {
		speed = 0
	}
	r.track.AddKeyframe(time, speed, ease)
	r.table = nil
}

// Keyframes returns the speed keyframes in time order.
func (r *SpeedRamp) Keyframes() []animation.Keyframe {
	return r.track.Keyframes()
}

// SpeedAt returns the multiplier at sequence time t. An empty ramp plays
// at normal speed.
func (r *SpeedRamp) SpeedAt(t float64) float64 {
	if r == nil || r.track == nil || r.track.Len() == 0 {
		return 1.0
	}
	return r.track.ValueAt(t)
}

// SourceTime integrates the speed over [0, seqTime] in steps of one output
// frame, sampling each step at its midpoint. Constant-speed segments map
// exactly; ramps are approximated at frame resolution.
func (r *SpeedRamp) SourceTime(seqTime float64, fps int) float64 {
	if seqTime <= 0 || math.IsNaN(seqTime) {
		return 0
	}
	if r == nil {
		return seqTime
	}
	if fps <= 0 {
		fps = 1
	}
	h := 1 / float64(fps)
	steps := int(math.Floor(seqTime/h + 1e-9))

	var acc float64
	start := 0
	if r.tableFPS == fps && len(r.table) > 0 {
		start = min(steps, len(r.table)-1)
		acc = r.table[start]
	}
	for k := start; k < steps; k++ {
		acc += r.SpeedAt((float64(k)+0.5)*h) * h
	}

	if rem := seqTime - float64(steps)*h; rem > 1e-12 {
		acc += r.SpeedAt(float64(steps)*h+rem/2) * rem
	}
	return acc
}

// SourceFrame maps an output frame index to a source time.
func (r *SpeedRamp) SourceFrame(frame, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return r.SourceTime(float64(frame)/float64(fps), fps)
}

// Precompute caches the integral at every frame boundary up to duration.
// It must be called before the ramp is shared between goroutines.
func (r *SpeedRamp) Precompute(fps int, duration float64) {
	if r == nil || fps <= 0 || duration <= 0 {
		return
	}
	h := 1 / float64(fps)
	n := int(math.Ceil(duration*float64(fps))) + 1
	table := make([]float64, n)
	for k := 1; k < n; k++ {
		table[k] = table[k-1] + r.SpeedAt((float64(k-1)+0.5)*h)*h
	}
	r.table = table
	r.tableFPS = fps
}

// Clone returns an independent copy without the precomputed table.
func (r *SpeedRamp) Clone() *SpeedRamp {
	if r == nil {
		return nil
	}
	return &SpeedRamp{
		track:         r.track.Clone(),
		FrameBlending: r.FrameBlending,
		OpticalFlow:   r.OpticalFlow,
	}
}

// TimeRemap pairs a speed ramp with audio handling flags.
type TimeRemap struct {
	Ramp *SpeedRamp
	// MaintainPitch is consumed by the audio collaborator only; it never
	// changes visual sampling.
	MaintainPitch bool
}

// NewTimeRemap creates a remap at normal speed.
func NewTimeRemap() *TimeRemap {
	return &TimeRemap{Ramp: New()}
}

// SetSpeed adds a linear speed keyframe.
func (tr *TimeRemap) SetSpeed(time, speed float64) {
	if tr.Ramp == nil {
		tr.Ramp = New()
	}
	tr.Ramp.AddKeyframe(time, speed, "linear")
}

// SourceTime maps sequence time to source time.
func (tr *TimeRemap) SourceTime(seqTime float64, fps int) float64 {
	if tr == nil {
		return seqTime
	}
	// Ramp == nil играет с нормальной скоростью.
	return tr.Ramp.SourceTime(seqTime, fps)
}

// Clone returns an independent copy.
func (tr *TimeRemap) Clone() *TimeRemap {
	if tr == nil {
		return nil
	}
	return &TimeRemap{Ramp: tr.Ramp.Clone(), MaintainPitch: tr.MaintainPitch}
}
