package video

import (
	"fmt"
	"strings"
)

// mixRate is the sample rate used when a track is resampled to change its
// speed without keeping pitch.
const mixRate = 48000

// AudioTrack is one sound placed on the output timeline.
type AudioTrack struct {
	Path string
	// Start is the timeline time the track begins at.
	Start float64
	// Duration limits the output length in seconds; 0 plays to the end.
	Duration float64
	Volume   float64
	// Tempo is the playback speed; 0 and 1 are normal speed.
	Tempo float64
	// MaintainPitch changes speed with atempo instead of resampling.
	MaintainPitch bool
}

// filter is the filtergraph chain taking input label in to out.
func (a AudioTrack) filter(in, out string) string {
	tempo := a.Tempo
	if tempo <= 0 {
		tempo = 1
	}
	var f []string
	if a.Duration > 0 {
		f = append(f, fmt.Sprintf("atrim=duration=%.3f", a.Duration*tempo), "asetpts=PTS-STARTPTS")
	}
	if tempo != 1 {
		if a.MaintainPitch {
			f = append(f, atempoChain(tempo)...)
		} else {
			// Без сохранения тона: меняем частоту, как при ускорении плёнки.
			f = append(f,
				fmt.Sprintf("aresample=%d", mixRate),
				fmt.Sprintf("asetrate=%d", int(float64(mixRate)*tempo+0.5)),
				fmt.Sprintf("aresample=%d", mixRate))
		}
	}
	if a.Volume != 1 {
		f = append(f, fmt.Sprintf("volume=%.3f", max(a.Volume, 0)))
	}
	if a.Start > 0 {
		f = append(f, fmt.Sprintf("adelay=%d:all=1", int(a.Start*1000+0.5)))
	}
	if len(f) == 0 {
		f = append(f, "anull")
	}
	return fmt.Sprintf("[%s]%s[%s]", in, strings.Join(f, ","), out)
}

// atempoChain splits factor into atempo steps within [0.5, 2].
func atempoChain(factor float64) []string {
	var f []string
	for factor > 2 {
		f = append(f, "atempo=2.0")
		factor /= 2
	}
	for factor < 0.5 {
		f = append(f, "atempo=0.5")
		factor /= 0.5
	}
	return append(f, fmt.Sprintf("atempo=%.4f", factor))
}

// audioGraph builds the -filter_complex value for tracks read from inputs
// first, first+1, ... The result is labelled [aout] and padded with
// silence so -shortest ends on the last video frame.
func audioGraph(tracks []AudioTrack, first int) string {
	parts := make([]string, 0, len(tracks)+1)
	var labels strings.Builder
	for i, tr := range tracks {
		label := fmt.Sprintf("a%d", i)
		parts = append(parts, tr.filter(fmt.Sprintf("%d:a", first+i), label))
		labels.WriteString("[" + label + "]")
	}
	if len(tracks) == 1 {
		parts = append(parts, "[a0]apad[aout]")
	} else {
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0,apad[aout]", labels.String(), len(tracks)))
	}
	return strings.Join(parts, ";")
}
