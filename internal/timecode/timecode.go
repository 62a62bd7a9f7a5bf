// Package timecode converts between frame counts, seconds and
// HH:MM:SS.mmm strings.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FramesToSeconds converts a frame count at fps to seconds.
func FramesToSeconds(frames, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frames) / float64(fps)
}

// SecondsToFrames truncates seconds*fps to a whole frame.
func SecondsToFrames(seconds float64, fps int) int {
	if seconds <= 0 || fps <= 0 {
		return 0
	}
	// Защита от 0.99999 на точных границах кадров.
	return int(math.Floor(seconds*float64(fps) + 1e-9))
}

// FrameTime is the timeline time of a frame's start.
func FrameTime(frame, fps int) float64 {
	return FramesToSeconds(frame, fps)
}

// FormatTime renders seconds as HH:MM:SS.mmm.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	millis := int((seconds - math.Floor(seconds)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", whole/3600, (whole%3600)/60, whole%60, millis)
}

// ParseTime parses "MM:SS" or "HH:MM:SS" (seconds may be fractional).
func ParseTime(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format %q", s)
	}

	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time format %q: %w", s, err)
		}
		values[i] = v
	}

	if len(values) == 2 {
		return values[0]*60 + values[1], nil
	}
	return values[0]*3600 + values[1]*60 + values[2], nil
}
