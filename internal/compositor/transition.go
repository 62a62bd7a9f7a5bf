package compositor

import (
	"image"
	"strings"

	"github.com/ivlev/fluxreel/internal/easing"
	"github.com/ivlev/fluxreel/internal/scene"
)

// Transition effects.
const (
	TransitionFade = "fade"
	TransitionCut  = "cut"
	TransitionNone = "none"
)

// TransitionProgress eases raw progress with the transition's easing.
func TransitionProgress(tr scene.Transition, raw float64) float64 {
	ease := tr.Easing
	if ease == "" {
		ease = "ease_in_out"
	}
	return easing.Ease(ease, raw)
}

// ApplyTransition writes the transition between from and to at eased
// progress p into dst. dst may alias from or to; all three must share
// bounds.
//
// fade cross-blends the whole buffer. Directional effects (slide_*,
// wipe_*, zoom_*) show from below 50% progress and to from 50% on.
// Unknown effects fade.
func ApplyTransition(effect string, p float64, from, to, dst *image.RGBA) {
	p = clamp01(p)
	switch {
	case effect == TransitionCut || effect == TransitionNone:
		copyFrame(dst, to)
	case strings.HasPrefix(effect, "slide_"),
		strings.HasPrefix(effect, "wipe_"),
		strings.HasPrefix(effect, "zoom_"):
		if p < 0.5 {
			copyFrame(dst, from)
		} else {
			copyFrame(dst, to)
		}
	default:
		crossFade(p, from, to, dst)
	}
}

func copyFrame(dst, src *image.RGBA) {
	if dst != src {
		copy(dst.Pix, src.Pix)
	}
}

func crossFade(p float64, from, to, dst *image.RGBA) {
	// Веса в фиксированной точке 8.8.
	w := uint32(p*256 + 0.5)
	iw := 256 - w
	for i := range dst.Pix {
		dst.Pix[i] = uint8((uint32(from.Pix[i])*iw + uint32(to.Pix[i])*w + 128) >> 8)
	}
}
