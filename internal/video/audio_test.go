package video

import (
	"slices"
	"strings"
	"testing"
)

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		factor float64
		want   []string
	}{
		{1.5, []string{"atempo=1.5000"}},
		{5, []string{"atempo=2.0", "atempo=2.0", "atempo=1.2500"}},
		{0.2, []string{"atempo=0.5", "atempo=0.5", "atempo=0.8000"}},
	}
	for _, tt := range tests {
		if got := atempoChain(tt.factor); !slices.Equal(got, tt.want) {
			t.Errorf("atempoChain(%v) = %q, want %q", tt.factor, got, tt.want)
		}
	}
}

func TestAudioTracksMixed(t *testing.T) {
	s := NewFFmpegSink("out.mp4", "libx264", 0)
	s.AudioPath = "music.mp3"
	s.Tracks = []AudioTrack{
		{Path: "voice.wav", Start: 2.5, Duration: 3, Volume: 0.5, Tempo: 2, MaintainPitch: true},
		{Path: "sfx.wav", Volume: 1, Tempo: 0.5},
		{Path: ""},
	}
	args := s.buildFFmpegArgs(FrameFormat{Width: 64, Height: 64, FPS: 30})

	var inputs []string
	for i, a := range args {
		if a == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	if want := []string{"-", "music.mp3", "voice.wav", "sfx.wav"}; !slices.Equal(inputs, want) {
		t.Fatalf("inputs = %q, want %q", inputs, want)
	}

	i := slices.Index(args, "-filter_complex")
	if i < 0 {
		t.Fatalf("no filter graph: %q", args)
	}
	graph := args[i+1]
	for _, want := range []string{
		"[1:a]anull[a0]",
		"[2:a]atrim=duration=6.000,asetpts=PTS-STARTPTS,atempo=2.0000,volume=0.500,adelay=2500:all=1[a1]",
		"[3:a]aresample=48000,asetrate=24000,aresample=48000[a2]",
		"[a0][a1][a2]amix=inputs=3:duration=longest:normalize=0,apad[aout]",
	} {
		if !strings.Contains(graph, want) {
			t.Errorf("graph %q missing %q", graph, want)
		}
	}
	if j := slices.Index(args, "[aout]"); j < 1 || args[j-1] != "-map" {
		t.Errorf("mixed audio not mapped: %q", args)
	}
	if !slices.Contains(args, "-shortest") {
		t.Errorf("-shortest missing: %q", args)
	}
}

func TestSingleTrackPadded(t *testing.T) {
	s := NewFFmpegSink("out.mp4", "", 0)
	s.Tracks = []AudioTrack{{Path: "a.wav", Volume: 1}}
	args := s.buildFFmpegArgs(FrameFormat{Width: 8, Height: 8, FPS: 24})
	i := slices.Index(args, "-filter_complex")
	if i < 0 || args[i+1] != "[1:a]anull[a0];[a0]apad[aout]" {
		t.Errorf("args = %q", args)
	}
}
