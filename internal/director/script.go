package director

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/fluxreel/internal/effects"
	"github.com/ivlev/fluxreel/internal/scene"
)

// ScriptVersion is written into new scripts.
const ScriptVersion = "1"

// Script is the YAML project file: render settings and an ordered list of
// scenes.
type Script struct {
	Version  string      `yaml:"version"`
	Settings Settings    `yaml:"settings,omitempty"`
	Scenes   []SceneSpec `yaml:"scenes"`
}

// Settings override the render defaults. Command line flags win over them.
type Settings struct {
	Preset  string `yaml:"preset,omitempty"`
	FPS     int    `yaml:"fps,omitempty"`
	Quality string `yaml:"quality,omitempty"`
	Encoder string `yaml:"encoder,omitempty"`
	// Audio is muxed into the output.
	Audio string `yaml:"audio,omitempty"`
	// FitAudio stretches scene durations to the soundtrack length.
	FitAudio bool `yaml:"fit_audio,omitempty"`
}

type SceneSpec struct {
	Name       string  `yaml:"name"`
	Duration   float64 `yaml:"duration,omitempty"`
	Background string  `yaml:"background,omitempty"`
	// Transition joins this scene to the previous one.
	Transition *scene.Transition `yaml:"transition,omitempty"`
	Grading    *GradingSpec      `yaml:"grading,omitempty"`
	Nodes      []NodeSpec        `yaml:"nodes"`
}

// NodeSpec describes one element. Which fields apply depends on Type.
type NodeSpec struct {
	ID   string `yaml:"id,omitempty"`
	Type string `yaml:"type"`

	// text
	Text string  `yaml:"text,omitempty"`
	Size float64 `yaml:"size,omitempty"`
	Font string  `yaml:"font,omitempty"`
	// text, shape
	Color string `yaml:"color,omitempty"`
	// image, video, audio
	Path string `yaml:"path,omitempty"`
	// shape
	Shape string `yaml:"shape,omitempty"`
	// image, video, shape, multicam
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	// audio
	Volume *float64 `yaml:"volume,omitempty"`
	// video
	Offset float64        `yaml:"offset,omitempty"`
	Speed  []KeyframeSpec `yaml:"speed,omitempty"`
	// video, audio
	MaintainPitch bool `yaml:"maintain_pitch,omitempty"`
	// multicam
	Angles []AngleSpec `yaml:"angles,omitempty"`
	Cuts   []CutSpec   `yaml:"cuts,omitempty"`
	Beats  *BeatsSpec  `yaml:"cut_on_beats,omitempty"`

	Position []float64 `yaml:"position,omitempty"` // [x, y]
	Align    string    `yaml:"align,omitempty"`
	Scale    []float64 `yaml:"scale,omitempty"` // [s] or [sx, sy]
	Rotation float64   `yaml:"rotation,omitempty"`
	Opacity  *float64  `yaml:"opacity,omitempty"`
	Hidden   bool      `yaml:"hidden,omitempty"`
	Blend    string    `yaml:"blend,omitempty"`

	Mask       *MaskSpec       `yaml:"mask,omitempty"`
	Effects    []effects.Spec  `yaml:"effects,omitempty"`
	Animations []AnimationSpec `yaml:"animations,omitempty"`
	FadeIn     *FadeSpec       `yaml:"fade_in,omitempty"`
	FadeOut    *FadeSpec       `yaml:"fade_out,omitempty"`
	Pulse      *PulseSpec      `yaml:"pulse,omitempty"`
}

type KeyframeSpec struct {
	Time   float64 `yaml:"time"`
	Value  float64 `yaml:"value"`
	Easing string  `yaml:"easing,omitempty"`
}

// AnimationSpec drives one node property with keyframes.
type AnimationSpec struct {
	Property  string         `yaml:"property"`
	Keyframes []KeyframeSpec `yaml:"keyframes"`
	// Loop is the number of plays; -1 repeats forever.
	Loop int `yaml:"loop,omitempty"`
}

type FadeSpec struct {
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
}

// PulseSpec drives a property with the loudness of an audio file.
type PulseSpec struct {
	Audio    string  `yaml:"audio"`
	Property string  `yaml:"property"`
	Base     float64 `yaml:"base"`
	Depth    float64 `yaml:"depth"`
}

// MaskSpec coordinates are frame pixels, origin top-left.
type MaskSpec struct {
	Type string `yaml:"type"` // rectangle, ellipse, bezier

	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`

	RadiusX float64 `yaml:"radius_x,omitempty"`
	RadiusY float64 `yaml:"radius_y,omitempty"`

	Points    [][]float64 `yaml:"points,omitempty"` // [x, y] anchors
	Expansion float64     `yaml:"expansion,omitempty"`

	Feather  float64 `yaml:"feather,omitempty"`
	Inverted bool    `yaml:"inverted,omitempty"`
}

// GradingSpec is a scene color grade. Lift, gamma and gain take one value
// for all channels or three for r, g, b.
type GradingSpec struct {
	Lift        []float64 `yaml:"lift,omitempty"`
	Gamma       []float64 `yaml:"gamma,omitempty"`
	Gain        []float64 `yaml:"gain,omitempty"`
	Temperature float64   `yaml:"temperature,omitempty"`
	Tint        float64   `yaml:"tint,omitempty"`
	Exposure    float64   `yaml:"exposure,omitempty"`
	Contrast    float64   `yaml:"contrast,omitempty"`
	Saturation  *float64  `yaml:"saturation,omitempty"`

	// Curves maps a channel (luma, red, green, blue) to [x, y] points.
	Curves map[string][][]float64 `yaml:"curves,omitempty"`
	LUT    string                 `yaml:"lut,omitempty"` // .cube file
}

type AngleSpec struct {
	Name     string  `yaml:"name"`
	Source   string  `yaml:"source"`
	Offset   float64 `yaml:"offset,omitempty"`
	Disabled bool    `yaml:"disabled,omitempty"`
	Sync     string  `yaml:"sync,omitempty"`
}

type CutSpec struct {
	Time       float64 `yaml:"time"`
	Angle      string  `yaml:"angle"`
	Transition string  `yaml:"transition,omitempty"`
}

// BeatsSpec cuts between angles on beats. Times lists the beats directly;
// otherwise they are detected in Audio.
type BeatsSpec struct {
	Audio     string    `yaml:"audio,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty"`
	Times     []float64 `yaml:"times,omitempty"`
	Pattern   []string  `yaml:"pattern,omitempty"`
}

// WriteScript writes a script to a YAML file
func WriteScript(script *Script, path string) error {
	data, err := yaml.Marshal(script)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads a script from a YAML file
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}

	return &script, nil
}
