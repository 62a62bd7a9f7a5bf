package asset

import (
	"context"
	"image"
	"image/color"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders prompts as QR codes.
type QRGenerator struct {
	Size       int
	Level      qrcode.RecoveryLevel
	Foreground color.Color
	Background color.Color
}

func NewQRGenerator(size int) *QRGenerator {
	return &QRGenerator{
		Size:       size,
		Level:      qrcode.Medium,
		Foreground: color.Black,
		Background: color.White,
	}
}

func (g *QRGenerator) Generate(ctx context.Context, prompt string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := qrcode.New(prompt, g.Level)
	if err != nil {
		return nil, err
	}
	if g.Foreground != nil {
		q.ForegroundColor = g.Foreground
	}
	if g.Background != nil {
		q.BackgroundColor = g.Background
	}
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return q.Image(size), nil
}
