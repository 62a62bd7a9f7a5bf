package animation

import (
	"math"
	"sort"

	"github.com/ivlev/fluxreel/internal/easing"
)

// Keyframe is a control point: the value a property reaches at Time, and
// the easing used on the segment that starts here.
type Keyframe struct {
	Time   float64 `yaml:"time"`
	Value  float64 `yaml:"value"`
	Easing string  `yaml:"easing,omitempty"`
}

// Track is an ordered sequence of keyframes for one property.
//
// Keyframes are kept sorted by time after every insertion. Equal times keep
// their insertion order, and the later keyframe wins when queried at that
// time.
type Track struct {
	keyframes []Keyframe

	// LoopCount is the number of plays of the track: 1 plays once,
	// -1 loops forever. Only ValueAtLooped honours it.
	LoopCount int
}

// NewTrack creates an empty track that plays once.
func NewTrack(keyframes ...Keyframe) *Track {
	tr := &Track{LoopCount: 1}
	for _, kf := range keyframes {
		tr.AddKeyframe(kf.Time, kf.Value, kf.Easing)
	}
	return tr
}

// NewTrackWithDefault creates a track holding value from time 0.
func NewTrackWithDefault(value float64) *Track {
	return NewTrack(Keyframe{Time: 0, Value: value, Easing: "linear"})
}

// AddKeyframe inserts a keyframe and re-sorts the track. Keyframes added in
// time order are appended without sorting.
func (tr *Track) AddKeyframe(time, value float64, ease string) {
	if ease == "" {
		ease = "linear"
	}
	n := len(tr.keyframes)
	tr.keyframes = append(tr.keyframes, Keyframe{Time: time, Value: value, Easing: ease})
	if n == 0 || time >= tr.keyframes[n-1].Time {
		return
	}
	sort.SliceStable(tr.keyframes, func(i, j int) bool {
		return tr.keyframes[i].Time < tr.keyframes[j].Time
	})
}

// Keyframes returns a copy of the keyframes in time order.
func (tr *Track) Keyframes() []Keyframe {
	out := make([]Keyframe, len(tr.keyframes))
	copy(out, tr.keyframes)
	return out
}

// Len returns the number of keyframes.
func (tr *Track) Len() int {
	return len(tr.keyframes)
}

// Duration is the time of the last keyframe, or 0 for an empty track.
func (tr *Track) Duration() float64 {
	if len(tr.keyframes) == 0 {
		return 0
	}
	return tr.keyframes[len(tr.keyframes)-1].Time
}

// ValueAt evaluates the track at time t.
//
// An empty track yields 0. Before the first keyframe and after the last,
// the nearest value is held. Between keyframes the easing of the earlier
// keyframe shapes the interpolation.
func (tr *Track) ValueAt(t float64) float64 {
	return Interpolate(tr.keyframes, t)
}

// ValueAtLooped evaluates the track with LoopCount applied. After the last
// loop the final value is held.
func (tr *Track) ValueAtLooped(t float64) float64 {
	d := tr.Duration()
	if tr.LoopCount == 1 || tr.LoopCount == 0 || d <= 0 || t < 0 {
		return tr.ValueAt(t)
	}
	if tr.LoopCount > 0 && t >= d*float64(tr.LoopCount) {
		return tr.ValueAt(d)
	}
	return tr.ValueAt(math.Mod(t, d))
}

// Clone returns an independent copy of the track.
func (tr *Track) Clone() *Track {
	if tr == nil {
		return nil
	}
	return &Track{keyframes: tr.Keyframes(), LoopCount: tr.LoopCount}
}

// Interpolate evaluates sorted keyframes at time t. NaN times evaluate
// as 0.
func Interpolate(keyframes []Keyframe, t float64) float64 {
	n := len(keyframes)
	if n == 0 {
		return 0
	}
	if math.IsNaN(t) {
		t = 0
	}

	// Первый ключ строго после t; предыдущий последний ключ не позже t.
	i := sort.Search(n, func(i int) bool { return keyframes[i].Time > t })
	if i == 0 {
		return keyframes[0].Value
	}
	if i == n {
		return keyframes[n-1].Value
	}

	k1, k2 := keyframes[i-1], keyframes[i]
	u := (t - k1.Time) / (k2.Time - k1.Time)
	return lerp(k1.Value, k2.Value, easing.Ease(k1.Easing, u))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
