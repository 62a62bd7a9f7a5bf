// Package multicam keeps synchronised camera angles and resolves which
// angle is live at any point of the timeline.
package multicam

import (
	"context"
	"fmt"
	"sort"

	"github.com/ivlev/fluxreel/internal/errs"
)

// Sync methods.
const (
	SyncTimecode = "timecode"
	SyncAudio    = "audio"
	SyncManual   = "manual"
	SyncInPoint  = "in_point"
)

// CameraAngle is one synchronised source.
type CameraAngle struct {
	Name       string
	Source     string  // путь к видео или id устройства
	Offset     float64 // seconds added to timeline time to get source time
	Enabled    bool
	SyncMethod string
}

// NewCameraAngle creates an enabled angle synced by timecode.
func NewCameraAngle(name, source string) CameraAngle {
	return CameraAngle{Name: name, Source: source, Enabled: true, SyncMethod: SyncTimecode}
}

// SetSyncMethod validates and stores the sync method.
func (a *CameraAngle) SetSyncMethod(method string) error {
	switch method {
	case SyncTimecode, SyncAudio, SyncManual, SyncInPoint:
		a.SyncMethod = method
		return nil
	}
	return errs.InvalidEnum("camera angle sync method", method)
}

// Cut switches the live angle at Time.
type Cut struct {
	Time       float64
	AngleIndex int
	Transition string
}

// Aligner computes per-angle offsets for the sync methods that need to
// inspect the media (timecode, audio waveform).
type Aligner interface {
	Align(ctx context.Context, method string, angles []CameraAngle) ([]float64, error)
}

// Sequence owns the angles and the cut list.
type Sequence struct {
	Angles []CameraAngle
	// ActiveAngle is used for times before the first cut.
	ActiveAngle int
	SyncPoint   float64

	cuts []Cut
}

// NewSequence creates an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// AddAngle appends an angle and returns its index.
func (s *Sequence) AddAngle(a CameraAngle) int {
	s.Angles = append(s.Angles, a)
	return len(s.Angles) - 1
}

// RemoveAngle deletes the angle at index. Cuts to it are dropped and
// later indices shift down. If the fallback angle is removed it becomes 0.
func (s *Sequence) RemoveAngle(index int) error {
	if err := s.checkIndex("remove angle", index); err != nil {
		return err
	}
	s.Angles = append(s.Angles[:index], s.Angles[index+1:]...)

	cuts := s.cuts[:0]
	for _, c := range s.cuts {
		switch {
		case c.AngleIndex == index:
			continue
		case c.AngleIndex > index:
			c.AngleIndex--
		}
		cuts = append(cuts, c)
	}
	s.cuts = cuts

	switch {
	case s.ActiveAngle == index:
		s.ActiveAngle = 0
	case s.ActiveAngle > index:
		s.ActiveAngle--
	}
	return nil
}

// AddCut inserts a cut, keeping the list sorted by time. Cuts at equal
// times keep insertion order.
func (s *Sequence) AddCut(time float64, angleIndex int, transition string) error {
	if err := s.checkIndex("add cut", angleIndex); err != nil {
		return err
	}
	s.cuts = append(s.cuts, Cut{Time: time, AngleIndex: angleIndex, Transition: transition})
	sort.SliceStable(s.cuts, func(i, j int) bool { return s.cuts[i].Time < s.cuts[j].Time })
	return nil
}

// Cuts returns a copy of the cut list in time order.
func (s *Sequence) Cuts() []Cut {
	return append([]Cut(nil), s.cuts...)
}

// ActiveAngleAt returns the angle of the latest cut at or before t, or
// ActiveAngle when no cut precedes t.
func (s *Sequence) ActiveAngleAt(t float64) int {
	for i := len(s.cuts) - 1; i >= 0; i-- {
		if t >= s.cuts[i].Time {
			return s.cuts[i].AngleIndex
		}
	}
	return s.ActiveAngle
}

// SwitchAngle sets the fallback angle.
func (s *Sequence) SwitchAngle(index int) error {
	if err := s.checkIndex("switch angle", index); err != nil {
		return err
	}
	s.ActiveAngle = index
	return nil
}

// SyncAngles recomputes angle offsets. in_point aligns every source to
// SyncPoint; timecode and audio ask the aligner. Offsets are only written
// when the whole computation succeeded.
func (s *Sequence) SyncAngles(ctx context.Context, method string, aligner Aligner) error {
	switch method {
	case SyncInPoint:
		for i := range s.Angles {
			s.Angles[i].Offset = -s.SyncPoint
		}
		return nil
	case SyncTimecode, SyncAudio:
		if aligner == nil {
			return errs.InvalidState("sync angles", "no aligner for "+method)
		}
		offsets, err := aligner.Align(ctx, method, append([]CameraAngle(nil), s.Angles...))
		if err != nil {
			return fmt.Errorf("sync angles by %s: %w", method, err)
		}
		if len(offsets) != len(s.Angles) {
			return errs.InvalidState("sync angles", fmt.Sprintf("aligner returned %d offsets for %d angles", len(offsets), len(s.Angles)))
		}
		for i := range s.Angles {
			s.Angles[i].Offset = offsets[i]
		}
		return nil
	}
	return errs.InvalidEnum("sync angles", method)
}

// SourceTime maps timeline time to the source time of an angle.
func (s *Sequence) SourceTime(angleIndex int, t float64) (float64, error) {
	if err := s.checkIndex("source time", angleIndex); err != nil {
		return 0, err
	}
	return t + s.Angles[angleIndex].Offset, nil
}

// Preview lists every angle as "name: source".
func (s *Sequence) Preview() []string {
	out := make([]string, len(s.Angles))
	for i, a := range s.Angles {
		out[i] = a.Name + ": " + a.Source
	}
	return out
}

// Clone returns an independent copy.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	c := *s
	c.Angles = append([]CameraAngle(nil), s.Angles...)
	c.cuts = append([]Cut(nil), s.cuts...)
	return &c
}

func (s *Sequence) checkIndex(op string, index int) error {
	if index < 0 || index >= len(s.Angles) {
		return errs.IndexOutOfRange(op, index)
	}
	return nil
}
