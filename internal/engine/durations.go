package engine

import (
	"math"

	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/scene"
)

// FitDuration rescales every scene of tl so the timeline runs for target
// seconds, e.g. the length of a voice-over. Scene durations are aligned to
// whole frames, so the result is within one frame per scene of target.
func FitDuration(tl *scene.Timeline, target float64, fps int) error {
	if target <= 0 || math.IsNaN(target) || fps <= 0 {
		return errs.InvalidState("engine.FitDuration", target)
	}
	scenes := tl.Scenes()
	if len(scenes) == 0 {
		return errs.InvalidState("engine.FitDuration", "empty timeline")
	}

	// Переходы "съедают" часть общей длительности, поэтому масштабируем
	// сумму клипов с учётом перекрытий. Перекрытия зависят от длительностей,
	// несколько итераций сходятся.
	for iter := 0; iter < 4; iter++ {
		sum := 0.0
		for _, s := range scenes {
			sum += s.EffectiveDuration()
		}
		overlaps := sum - tl.Duration()
		if sum <= 0 {
			return errs.InvalidState("engine.FitDuration", "zero-length scenes")
		}
		scale := (target + overlaps) / sum
		for _, s := range scenes {
			s.Duration = s.EffectiveDuration() * scale
		}
	}

	f := float64(fps)
	for _, s := range scenes {
		s.Duration = math.Max(1, math.Round(s.Duration*f)) / f
	}
	return nil
}
