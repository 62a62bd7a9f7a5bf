// Package video holds the frame sinks the renderer delivers finished frames
// to. Sinks receive frames strictly in increasing index order.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// FrameFormat describes the stream a sink is about to receive.
type FrameFormat struct {
	Width, Height int
	FPS           int
	// TotalFrames is informational; zero when unknown.
	TotalFrames int
}

// FrameSink consumes rendered frames. The renderer calls Open once,
// WriteFrame for every frame in increasing index order and Close at the
// end, also after a failure.
type FrameSink interface {
	Open(ctx context.Context, f FrameFormat) error
	WriteFrame(index int, img *image.RGBA) error
	Close() error
}

// FFmpegSink streams raw RGBA frames to an ffmpeg process over stdin.
type FFmpegSink struct {
	Output  string
	Encoder string
	Quality int
	// AudioPath, when set, is muxed in as the soundtrack from time 0.
	AudioPath string
	// Tracks are mixed over the soundtrack, e.g. audio nodes of scenes.
	Tracks []AudioTrack
	Logger    *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	format FrameFormat
}

// NewFFmpegSink creates a sink writing to output with the given encoder.
func NewFFmpegSink(output, encoder string, quality int) *FFmpegSink {
	return &FFmpegSink{Output: output, Encoder: encoder, Quality: quality}
}

func (s *FFmpegSink) Open(ctx context.Context, f FrameFormat) error {
	if s.cmd != nil {
		return fmt.Errorf("ffmpeg sink already open")
	}
	s.format = f
	args := s.buildFFmpegArgs(f)
	s.logger().Debug("[*] ffmpeg", "args", args)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &s.out
	cmd.Stderr = &s.out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	s.cmd, s.stdin = cmd, stdin
	return nil
}

func (s *FFmpegSink) WriteFrame(index int, img *image.RGBA) error {
	if s.stdin == nil {
		return fmt.Errorf("ffmpeg sink not open")
	}
	if img.Rect.Dx() != s.format.Width || img.Rect.Dy() != s.format.Height {
		return fmt.Errorf("frame %d is %dx%d, stream is %dx%d",
			index, img.Rect.Dx(), img.Rect.Dy(), s.format.Width, s.format.Height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error at frame %d: %w", index, err)
	}
	return nil
}

func (s *FFmpegSink) Close() error {
	if s.cmd == nil {
		return nil
	}
	s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd, s.stdin = nil, nil
	if err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, s.out.String())
	}
	return nil
}

func (s *FFmpegSink) logger() *slog.Logger {
	if s.Logger == nil {
		return nopLogger
	}
	return s.Logger
}

func (s *FFmpegSink) buildFFmpegArgs(f FrameFormat) []string {
	encoder := s.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", f.Width, f.Height),
		"-framerate", strconv.Itoa(f.FPS),
		"-i", "-",
	}
	if tracks := s.audioTracks(); len(tracks) > 0 {
		for _, tr := range tracks {
			args = append(args, "-i", tr.Path)
		}
		args = append(args,
			"-filter_complex", audioGraph(tracks, 1),
			"-map", "0:v", "-map", "[aout]", "-c:a", "aac", "-shortest")
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", encoder)
	args = append(args, qualityArgs(encoder, s.Quality)...)
	return append(args, s.Output)
}

func (s *FFmpegSink) audioTracks() []AudioTrack {
	var tracks []AudioTrack
	if s.AudioPath != "" {
		tracks = append(tracks, AudioTrack{Path: s.AudioPath, Volume: 1})
	}
	for _, tr := range s.Tracks {
		if tr.Path != "" {
			tracks = append(tracks, tr)
		}
	}
	return tracks
}

// qualityArgs maps a quality value to the encoder's rate control flags.
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox не везде поддерживает -q:v, поэтому задаём битрейт.
		if quality <= 0 {
			quality = 75
		}
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		if quality <= 0 {
			quality = 28
		}
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		if quality <= 0 {
			quality = 23
		}
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	// Буфер с нестандартным stride или смещением копируем в плотный.
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
