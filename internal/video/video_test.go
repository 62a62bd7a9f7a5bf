package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestBuildFFmpegArgs(t *testing.T) {
	f := FrameFormat{Width: 640, Height: 360, FPS: 25}
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{"libx264", 0, []string{"-crf", "23", "-preset", "medium"}},
		{"h264_nvenc", 30, []string{"-cq", "30"}},
		{"h264_videotoolbox", 75, []string{"-b:v", "7500k"}},
	}
	for _, tt := range tests {
		s := NewFFmpegSink("out.mp4", tt.encoder, tt.quality)
		args := s.buildFFmpegArgs(f)
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, strings.Join(tt.want, " ")) {
			t.Errorf("%s args %q missing %q", tt.encoder, joined, tt.want)
		}
		if !strings.Contains(joined, "-video_size 640x360") || !strings.Contains(joined, "-framerate 25") {
			t.Errorf("input description missing: %q", joined)
		}
		if args[len(args)-1] != "out.mp4" {
			t.Errorf("output must be last: %q", args)
		}
		if slices.Contains(args, "-shortest") {
			t.Errorf("no audio, but -shortest present")
		}
	}

	s := NewFFmpegSink("out.mp4", "", 0)
	s.AudioPath = "voice.mp3"
	args := s.buildFFmpegArgs(f)
	if i := slices.Index(args, "voice.mp3"); i < 1 || args[i-1] != "-i" {
		t.Errorf("audio input missing: %q", args)
	}
	if !slices.Contains(args, "libx264") {
		t.Errorf("empty encoder should default to libx264: %q", args)
	}
}

func TestWriteRawRGBA(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range full.Pix {
		full.Pix[i] = uint8(i)
	}
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*2*4 {
		t.Fatalf("wrote %d bytes", buf.Len())
	}
	if got, want := buf.Bytes()[0], full.Pix[full.PixOffset(1, 1)]; got != want {
		t.Errorf("first byte = %d, want %d", got, want)
	}
}

func TestSinkRequiresOpen(t *testing.T) {
	s := NewFFmpegSink("out.mp4", "libx264", 0)
	if err := s.WriteFrame(0, image.NewRGBA(image.Rect(0, 0, 2, 2))); err == nil {
		t.Error("WriteFrame before Open should fail")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on unopened sink: %v", err)
	}
}

func TestPNGSequenceSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s := NewPNGSequenceSink(dir)
	if err := s.Open(context.Background(), FrameFormat{Width: 2, Height: 2, FPS: 1}); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 1, color.RGBA{10, 20, 30, 255})
	for i := 0; i < 3; i++ {
		if err := s.WriteFrame(i, img); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if s.Written() != 3 {
		t.Errorf("Written = %d", s.Written())
	}

	f, err := os.Open(filepath.Join(dir, "frame_000002.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := got.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("decoded pixel = %d %d %d", r>>8, g>>8, b>>8)
	}
}
