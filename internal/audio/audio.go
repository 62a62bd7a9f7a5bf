// Package audio probes audio files and derives timing data (beats, tempo,
// loudness envelopes) that scripts use to drive cuts and animations.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"github.com/ivlev/fluxreel/internal/animation"
)

// Info describes an audio file.
type Info struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration float64 // seconds
}

// Probe reads tags and the running time of path. MP3 durations come from
// the frame headers; other formats are measured with ffprobe.
func Probe(ctx context.Context, path string) (Info, error) {
	info := Info{Path: path}
	if _, err := os.Stat(path); err != nil {
		return info, err
	}
	info.Title, info.Artist, info.Album = readTags(path)
	if info.Title == "" {
		info.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		info.Duration, err = mp3Duration(path)
	} else {
		info.Duration, err = ffprobeDuration(ctx, path)
	}
	if err != nil {
		return info, fmt.Errorf("duration of %s: %w", path, err)
	}
	return info, nil
}

func readTags(path string) (title, artist, album string) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", ""
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", ""
	}
	return strings.TrimSpace(meta.Title()), strings.TrimSpace(meta.Artist()), strings.TrimSpace(meta.Album())
}

func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return decodeMP3Duration(f)
}

func decodeMP3Duration(r io.Reader) (float64, error) {
	decoder := mp3.NewDecoder(r)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}
	return total, nil
}

func ffprobeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}

// DecodePCM decodes path to mono float samples at sampleRate using ffmpeg.
func DecodePCM(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-v", "error", "-i", path,
		"-f", "f32le", "-ac", "1", "-ar", strconv.Itoa(sampleRate), "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, stderr.String())
	}
	samples := make([]float32, len(out)/4)
	if err := binary.Read(bytes.NewReader(out[:len(samples)*4]), binary.LittleEndian, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// DetectBeatsEnergy splits samples into 100 ms windows and reports the
// start time of every window whose energy (sum of squares) exceeds
// threshold.
func DetectBeatsEnergy(samples []float32, sampleRate int, threshold float64) []float64 {
	window := int(float64(sampleRate) * 0.1)
	if window <= 0 {
		return nil
	}
	var beats []float64
	for i := 0; i < len(samples); i += window {
		end := min(i+window, len(samples))
		energy := 0.0
		for _, s := range samples[i:end] {
			energy += float64(s) * float64(s)
		}
		if energy > threshold {
			beats = append(beats, float64(i)/float64(sampleRate))
		}
	}
	return beats
}

// CalculateBPM converts the mean interval between beats into beats per
// minute. Fewer than two beats, or a non-positive mean, give 0.
func CalculateBPM(beats []float64) float64 {
	if len(beats) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(beats); i++ {
		sum += beats[i] - beats[i-1]
	}
	avg := sum / float64(len(beats)-1)
	if avg <= 0 {
		return 0
	}
	return 60 / avg
}

// Waveform reduces samples to n peak values in [0,1].
func Waveform(samples []float32, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if len(samples) == 0 {
		return out
	}
	for i := range out {
		lo := i * len(samples) / n
		hi := max((i+1)*len(samples)/n, lo+1)
		peak := 0.0
		for _, s := range samples[lo:min(hi, len(samples))] {
			peak = math.Max(peak, math.Abs(float64(s)))
		}
		out[i] = math.Min(peak, 1)
	}
	return out
}

// EnvelopeTrack builds a keyframe track of the RMS loudness, one keyframe
// per video frame, scaled to [base, base+depth]. It lets a script pulse a
// node's scale or opacity with the music.
func EnvelopeTrack(samples []float32, sampleRate, fps int, base, depth float64) *animation.Track {
	if sampleRate <= 0 || fps <= 0 || len(samples) == 0 {
		return animation.NewTrack()
	}
	// Границы окна считаем от номера кадра, чтобы не копить ошибку
	// округления sampleRate/fps.
	window := func(i int) int { return int(int64(i) * int64(sampleRate) / int64(fps)) }
	frames := int((int64(len(samples))*int64(fps) + int64(sampleRate) - 1) / int64(sampleRate))

	rms := make([]float64, frames)
	peak := 0.0
	for i := range rms {
		start := window(i)
		if start >= len(samples) {
			rms = rms[:i]
			break
		}
		end := min(max(window(i+1), start+1), len(samples))
		sum := 0.0
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		rms[i] = math.Sqrt(sum / float64(end-start))
		peak = math.Max(peak, rms[i])
	}

	kfs := make([]animation.Keyframe, len(rms))
	for i, v := range rms {
		if peak > 0 {
			v /= peak
		}
		kfs[i] = animation.Keyframe{Time: float64(i) / float64(fps), Value: base + depth*v, Easing: "linear"}
	}
	return animation.NewTrack(kfs...)
}
