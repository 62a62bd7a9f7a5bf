package effects

import (
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/scene"
)

// Spec is the script form of an effect. Only the fields relevant to Type
// are read.
type Spec struct {
	Type string `yaml:"type"`

	Radius    float64 `yaml:"radius,omitempty"`
	Intensity float64 `yaml:"intensity,omitempty"`
	Color     string  `yaml:"color,omitempty"`
	OffsetX   float64 `yaml:"offset_x,omitempty"`
	OffsetY   float64 `yaml:"offset_y,omitempty"`
	Opacity   float64 `yaml:"opacity,omitempty"`

	Brightness float64  `yaml:"brightness,omitempty"`
	Contrast   *float64 `yaml:"contrast,omitempty"`
	Saturation *float64 `yaml:"saturation,omitempty"`
	Hue        float64  `yaml:"hue,omitempty"`

	Threshold  float64  `yaml:"threshold,omitempty"`
	Smoothness *float64 `yaml:"smoothness,omitempty"`

	Amount float64 `yaml:"amount,omitempty"`
	Seed   uint64  `yaml:"seed,omitempty"`
}

// FromSpec builds the effect described by s.
func FromSpec(s Spec) (scene.Effect, error) {
	switch s.Type {
	case "blur":
		return NewBlur(s.Radius), nil
	case "glow":
		return NewGlow(orDefault(s.Intensity, 1), orString(s.Color, "#ffffff"), s.Radius), nil
	case "shadow":
		sh := NewShadow(s.OffsetX, s.OffsetY, s.Radius, orString(s.Color, "#000000"))
		if s.Opacity > 0 {
			sh.Opacity = s.Opacity
		}
		return sh, nil
	case "color_adjust":
		c := NewColorAdjust()
		c.Brightness = s.Brightness
		c.Hue = s.Hue
		if s.Contrast != nil {
			c.Contrast = *s.Contrast
		}
		if s.Saturation != nil {
			c.Saturation = *s.Saturation
		}
		return c, nil
	case "chroma_key":
		k := NewChromaKey(orString(s.Color, "#00ff00"), s.Threshold)
		if s.Smoothness != nil {
			k.Smoothness = *s.Smoothness
		}
		return k, nil
	case "noise":
		return &Noise{Amount: s.Amount, Seed: s.Seed}, nil
	default:
		return nil, errs.InvalidEnum("effects.FromSpec", s.Type)
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
