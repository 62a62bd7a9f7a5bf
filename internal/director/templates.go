package director

import (
	"sort"

	"github.com/ivlev/fluxreel/internal/effects"
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/scene"
)

func ptr[T any](v T) *T { return &v }

var templates = map[string]func() *Script{
	"default":  defaultTemplate,
	"minimal":  minimalTemplate,
	"vertical": verticalTemplate,
}

// Templates lists the starter script names.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a fresh copy of the named starter script.
func Template(name string) (*Script, error) {
	fn, ok := templates[name]
	if !ok {
		return nil, errs.InvalidEnum("template", name)
	}
	return fn(), nil
}

func minimalTemplate() *Script {
	return &Script{
		Version:  ScriptVersion,
		Settings: Settings{Preset: "1080p", FPS: 30},
		Scenes: []SceneSpec{{
			Name:       "main",
			Duration:   3,
			Background: "#101010",
			Nodes: []NodeSpec{{
				ID: "title", Type: NodeText, Text: "Hello, fluxreel", Size: 72,
				FadeIn: &FadeSpec{Start: 0, Duration: 0.5},
			}},
		}},
	}
}

func defaultTemplate() *Script {
	return &Script{
		Version:  ScriptVersion,
		Settings: Settings{Preset: "1080p", FPS: 30, Quality: "high"},
		Scenes: []SceneSpec{
			{
				Name:       "intro",
				Duration:   3,
				Background: "#0b1020",
				Nodes: []NodeSpec{
					{
						ID: "title", Type: NodeText, Text: "Project Title", Size: 96,
						FadeIn: &FadeSpec{Start: 0, Duration: 0.8},
						Animations: []AnimationSpec{{
							Property: scene.PropY,
							Keyframes: []KeyframeSpec{
								{Time: 0, Value: -0.1, Easing: "cubic_out"},
								{Time: 0.8, Value: 0},
							},
						}},
						Effects: []effects.Spec{{Type: "shadow", OffsetX: 4, OffsetY: 4, Radius: 8, Color: "#000000"}},
					},
					{
						ID: "subtitle", Type: NodeText, Text: "made with fluxreel", Size: 40,
						Color: "#9fb3ff", Position: []float64{0, -0.15},
						FadeIn: &FadeSpec{Start: 0.6, Duration: 0.6},
					},
				},
			},
			{
				Name:       "content",
				Duration:   4,
				Background: "#0b1020",
				Transition: ptr(scene.NewTransition("fade", 0.5)),
				Grading:    &GradingSpec{Contrast: 10, Saturation: ptr(110.0)},
				Nodes: []NodeSpec{
					{
						ID: "card", Type: NodeShape, Shape: scene.ShapeRectangle,
						Width: 1200, Height: 600, Color: "#1d2a55",
						Opacity: ptr(0.9),
					},
					{
						ID: "point", Type: NodeText, Text: "Key point", Size: 64,
						Animations: []AnimationSpec{{
							Property: scene.PropScaleX,
							Keyframes: []KeyframeSpec{
								{Time: 0, Value: 0.8, Easing: "back_out"},
								{Time: 0.6, Value: 1},
							},
						}, {
							Property: scene.PropScaleY,
							Keyframes: []KeyframeSpec{
								{Time: 0, Value: 0.8, Easing: "back_out"},
								{Time: 0.6, Value: 1},
							},
						}},
					},
				},
			},
			{
				Name:       "outro",
				Duration:   2,
				Background: "#000000",
				Transition: ptr(scene.NewTransition("fade", 0.5)),
				Nodes: []NodeSpec{{
					ID: "thanks", Type: NodeText, Text: "Thanks for watching", Size: 64,
					FadeOut: &FadeSpec{Start: 1.4, Duration: 0.6},
				}},
			},
		},
	}
}

func verticalTemplate() *Script {
	return &Script{
		Version:  ScriptVersion,
		Settings: Settings{Preset: "9:16", FPS: 30},
		Scenes: []SceneSpec{
			{
				Name:       "hook",
				Duration:   2.5,
				Background: "#111111",
				Nodes: []NodeSpec{{
					ID: "hook", Type: NodeText, Text: "Wait for it", Size: 110,
					Align: "center",
					Effects: []effects.Spec{{Type: "glow", Intensity: 0.8, Radius: 12, Color: "#ff3366"}},
				}},
			},
			{
				Name:       "cta",
				Duration:   3,
				Background: "#111111",
				Transition: ptr(scene.NewTransition("slide_left", 0.4)),
				Nodes: []NodeSpec{
					{
						ID: "qr", Type: NodeImage, Path: "qr:https://example.com",
						Width: 540, Height: 540,
						FadeIn: &FadeSpec{Start: 0, Duration: 0.4},
					},
					{
						ID: "label", Type: NodeText, Text: "Scan me", Size: 72,
						Position: []float64{0, -0.3},
					},
				},
			},
		},
	}
}
