package engine

import (
	"github.com/ivlev/fluxreel/internal/scene"
	"github.com/ivlev/fluxreel/internal/video"
)

// AudioTracks places the audio nodes of tl on the output timeline. Each
// track starts with its scene and is cut at the scene's end. A speed ramp
// is applied as its mean tempo over the scene; hidden or muted nodes are
// skipped.
func AudioTracks(tl *scene.Timeline, fps int) []video.AudioTrack {
	var tracks []video.AudioTrack
	starts := tl.Starts()
	for i, s := range tl.Scenes() {
		d := s.EffectiveDuration()
		for _, e := range s.Elements() {
			a, ok := e.(*scene.AudioNode)
			if !ok || !a.Visible || a.Volume <= 0 {
				continue
			}
			tr := video.AudioTrack{
				Path:     a.Path,
				Start:    starts[i],
				Duration: d,
				Volume:   a.Volume,
				Tempo:    1,
			}
			if a.Remap != nil {
				tr.MaintainPitch = a.Remap.MaintainPitch
				if d > 0 {
					tr.Tempo = a.Remap.SourceTime(d, fps) / d
				}
			}
			tracks = append(tracks, tr)
		}
	}
	return tracks
}
