package director

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/ivlev/fluxreel/internal/analyzer"
	"github.com/ivlev/fluxreel/internal/asset"
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/scene"
)

// Director generates camera moves over still pages from detected blocks
type Director struct {
	// Frame size the pages are shown in.
	Width, Height int
	MinDwell      float64 // Minimum time per block (seconds)
	MaxDwell      float64 // Maximum time per block (seconds)
	Intro, Outro  float64 // общий план до первого и после последнего блока
	Move          float64 // время перелёта камеры между блоками
	Fill          float64 // доля кадра под блок в фокусе
	MaxZoom       float64
	Easing        string
	Transition    scene.Transition
	Logger        *slog.Logger
}

// NewDirector creates a new Director with default settings
func NewDirector(width, height int) *Director {
	return &Director{
		Width:      width,
		Height:     height,
		MinDwell:   1.0,
		MaxDwell:   3.0,
		Intro:      1.0,
		Outro:      1.0,
		Move:       0.6,
		Fill:       0.9,
		MaxZoom:    3.0,
		Easing:     "ease_in_out",
		Transition: scene.NewTransition("fade", 0.5),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// camera is one focus target in frame-normalised coordinates.
type camera struct {
	x, y, zoom float64
}

// FocusScene builds a scene showing the page image ref and moving the
// camera over blocks in reading order. The scene lasts at least
// duration; it grows when the blocks need more time.
func (d *Director) FocusScene(name, ref string, page image.Rectangle, blocks []analyzer.Block, duration float64) (SceneSpec, error) {
	if len(blocks) == 0 {
		return SceneSpec{}, errs.InvalidState("focus scene "+name, "no blocks detected")
	}
	if page.Empty() {
		return SceneSpec{}, errs.InvalidState("focus scene "+name, "empty page")
	}

	sorted := append([]analyzer.Block(nil), blocks...)
	analyzer.ReadingOrder(sorted, 20)

	dw, dh := d.fit(page)
	// Размер кадра в пикселях страницы, для подгонки зума.
	k := dw / float64(page.Dx())
	view := image.Rect(0, 0, int(float64(d.Width)/k), int(float64(d.Height)/k))

	targets := make([]camera, len(sorted))
	for i, b := range sorted {
		cx, cy := b.Center(page)
		z := b.Zoom(view, d.Fill, d.MaxZoom)
		fx := cx * dw / float64(d.Width)
		fy := cy * dh / float64(d.Height)
		targets[i] = camera{x: -fx * z, y: -fy * z, zoom: z}
	}

	dwell := d.dwellTime(duration, len(targets))
	kfs := d.keyframes(targets, dwell)
	end := kfs[len(kfs)-1].t + d.Outro

	node := NodeSpec{
		ID:     name + "_page",
		Type:   NodeImage,
		Path:   ref,
		Width:  dw,
		Height: dh,
	}
	for _, p := range []struct {
		prop string
		v    func(camera) float64
	}{
		{scene.PropX, func(c camera) float64 { return c.x }},
		{scene.PropY, func(c camera) float64 { return c.y }},
		{scene.PropScaleX, func(c camera) float64 { return c.zoom }},
		{scene.PropScaleY, func(c camera) float64 { return c.zoom }},
	} {
		a := AnimationSpec{Property: p.prop}
		for _, kf := range kfs {
			a.Keyframes = append(a.Keyframes, KeyframeSpec{Time: kf.t, Value: p.v(kf.cam), Easing: d.Easing})
		}
		node.Animations = append(node.Animations, a)
	}

	return SceneSpec{
		Name:       name,
		Duration:   max(duration, end),
		Background: "#000000",
		Nodes:      []NodeSpec{node},
	}, nil
}

// StillScene shows ref without camera moves.
func (d *Director) StillScene(name, ref string, page image.Rectangle, duration float64) SceneSpec {
	dw, dh := d.fit(page)
	return SceneSpec{
		Name:       name,
		Duration:   duration,
		Background: "#000000",
		Nodes: []NodeSpec{{
			ID: name + "_page", Type: NodeImage, Path: ref, Width: dw, Height: dh,
		}},
	}
}

// FromPages loads every page, detects blocks and returns a script with one
// scene per page. Pages without blocks are shown still.
func (d *Director) FromPages(ctx context.Context, refs []string, loader asset.Loader, det analyzer.Detector, perPage float64) (*Script, error) {
	if len(refs) == 0 {
		return nil, errs.InvalidState("script from pages", "no pages")
	}
	script := &Script{Version: ScriptVersion}
	for i, ref := range refs {
		img, err := loader.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ref, err)
		}
		blocks, err := det.Detect(img)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", ref, err)
		}
		d.Logger.Info("[*] page analyzed", "ref", ref, "blocks", len(blocks))

		name := fmt.Sprintf("page_%d", i+1)
		spec, err := d.FocusScene(name, ref, img.Bounds(), blocks, perPage)
		if err != nil {
			d.Logger.Warn("[!] no focus points, showing page still", "ref", ref)
			spec = d.StillScene(name, ref, img.Bounds(), perPage)
		}
		if i > 0 && d.Transition.Effect != "" {
			tr := d.Transition
			spec.Transition = &tr
		}
		script.Scenes = append(script.Scenes, spec)
	}
	return script, nil
}

// fit is the size of page contained in the frame.
func (d *Director) fit(page image.Rectangle) (float64, float64) {
	pw, ph := float64(page.Dx()), float64(page.Dy())
	if pw == 0 || ph == 0 {
		return float64(d.Width), float64(d.Height)
	}
	k := min(float64(d.Width)/pw, float64(d.Height)/ph)
	return pw * k, ph * k
}

// dwellTime determines how long to show each block
func (d *Director) dwellTime(totalDuration float64, blockCount int) float64 {
	available := totalDuration - d.Intro - d.Outro
	if available <= 0 {
		available = totalDuration
	}
	dwell := available / float64(blockCount)
	return min(max(dwell, d.MinDwell), d.MaxDwell)
}

type cameraKey struct {
	t   float64
	cam camera
}

// keyframes starts and ends on the full view and holds on every block for
// the dwell time minus the travel time.
func (d *Director) keyframes(targets []camera, dwell float64) []cameraKey {
	full := camera{zoom: 1}
	kfs := []cameraKey{{0, full}}

	current := d.Intro
	for _, c := range targets {
		kfs = append(kfs, cameraKey{current, c})
		if hold := dwell - d.Move; hold > 0 {
			kfs = append(kfs, cameraKey{current + hold, c})
		}
		current += dwell
	}
	return append(kfs, cameraKey{current, full})
}
