package multicam

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ivlev/fluxreel/internal/errs"
)

// Editor is a name-based front end over a Sequence.
type Editor struct {
	Sequence *Sequence
	// PreviewMode is one of "active", "all" or "quad".
	PreviewMode  string
	ShowTimecode bool
	Aligner      Aligner
	Logger       *slog.Logger
}

// NewEditor creates an editor over an empty sequence.
func NewEditor(logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Editor{
		Sequence:     NewSequence(),
		PreviewMode:  "active",
		ShowTimecode: true,
		Logger:       logger,
	}
}

// AddCamera adds an angle named name reading from source.
func (e *Editor) AddCamera(name, source string) int {
	return e.Sequence.AddAngle(NewCameraAngle(name, source))
}

// AngleIndex looks an angle up by name.
func (e *Editor) AngleIndex(name string) (int, error) {
	for i, a := range e.Sequence.Angles {
		if a.Name == name {
			return i, nil
		}
	}
	return -1, errs.IndexOutOfRange("find angle", name)
}

// CutToAngle adds a hard cut to the named angle.
func (e *Editor) CutToAngle(time float64, name string) error {
	i, err := e.AngleIndex(name)
	if err != nil {
		return err
	}
	return e.Sequence.AddCut(time, i, "cut")
}

// AutoSync syncs by audio and falls back to timecode.
func (e *Editor) AutoSync(ctx context.Context) error {
	err := e.Sequence.SyncAngles(ctx, SyncAudio, e.Aligner)
	if err == nil {
		return nil
	}
	e.Logger.Debug("audio sync failed, falling back to timecode", "err", err)
	if err2 := e.Sequence.SyncAngles(ctx, SyncTimecode, e.Aligner); err2 != nil {
		return errors.Join(err, err2)
	}
	return nil
}

// CutOnBeats adds a cut at every beat. The angle for beat i is
// pattern[i%len(pattern)]; an empty pattern cycles through the enabled
// angles. Nothing is added if any pattern index is out of range.
func (e *Editor) CutOnBeats(beats []float64, pattern []int) error {
	if len(pattern) == 0 {
		for i, a := range e.Sequence.Angles {
			if a.Enabled {
				pattern = append(pattern, i)
			}
		}
		if len(pattern) == 0 {
			return errs.InvalidState("cut on beats", "no enabled angles")
		}
	}
	for _, idx := range pattern {
		if err := e.Sequence.checkIndex("cut on beats", idx); err != nil {
			return err
		}
	}
	for i, t := range beats {
		// Индексы уже проверены выше.
		_ = e.Sequence.AddCut(t, pattern[i%len(pattern)], "cut")
	}
	e.Logger.Debug("beat cuts added", "beats", len(beats), "angles", len(e.Sequence.Angles))
	return nil
}
