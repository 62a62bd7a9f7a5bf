package video

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var nopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// PNGSequenceSink writes every frame as a numbered PNG file.
type PNGSequenceSink struct {
	Dir string
	// Pattern is a fmt verb taking the frame index; default "frame_%06d.png".
	Pattern string

	enc     png.Encoder
	written int
	ctx     context.Context
}

func NewPNGSequenceSink(dir string) *PNGSequenceSink {
	return &PNGSequenceSink{Dir: dir, Pattern: "frame_%06d.png"}
}

func (s *PNGSequenceSink) Open(ctx context.Context, _ FrameFormat) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	s.enc = png.Encoder{CompressionLevel: png.BestSpeed}
	s.ctx = ctx
	s.written = 0
	return nil
}

func (s *PNGSequenceSink) WriteFrame(index int, img *image.RGBA) error {
	if s.ctx != nil {
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}
	pattern := s.Pattern
	if pattern == "" {
		pattern = "frame_%06d.png"
	}
	path := filepath.Join(s.Dir, fmt.Sprintf(pattern, index))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.written++
	return nil
}

// Written reports how many frames were stored since Open.
func (s *PNGSequenceSink) Written() int { return s.written }

func (s *PNGSequenceSink) Close() error { return nil }
