package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ivlev/fluxreel/internal/errs"
)

// Config holds the render settings shared by the CLI, the engine and the
// output sinks.
type Config struct {
	ScriptPath    string
	OutputVideo   string
	Width         int
	Height        int
	FPS           int
	Workers       int
	AudioPath     string
	Preset        string
	VideoEncoder  string
	Quality       int
	Interpolation string
	DPI           int
	ShowStats     bool
	BuildVersion  string
	// Format selects the sink: "mp4" streams to ffmpeg, "png" writes a
	// numbered image sequence into OutputVideo.
	Format string
}

// Default returns the settings used when neither flags, environment nor the
// script override anything.
func Default() *Config {
	return &Config{
		Width:         1920,
		Height:        1080,
		FPS:           30,
		Workers:       1,
		Preset:        "1080p",
		VideoEncoder:  "libx264",
		Interpolation: "bilinear",
		DPI:           150,
		Format:        "mp4",
		BuildVersion:  "dev",
	}
}

// Validate reports settings the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		// yuv420p требует чётных размеров
		if c.Format == "mp4" {
			return fmt.Errorf("frame size %dx%d must be even for yuv420p", c.Width, c.Height)
		}
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	switch c.Format {
	case "mp4", "png":
	default:
		return errs.InvalidEnum("config.Validate", c.Format)
	}
	return nil
}

// ResolvePreset maps a resolution preset ("4K", "1080p", "720p", "9:16")
// or a "WxH" string to a frame size. Vertical aliases "tiktok" and
// "reels" are accepted.
func ResolvePreset(name string) (int, int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "4k", "2160p":
		return 3840, 2160, nil
	case "1080p", "":
		return 1920, 1080, nil
	case "720p":
		return 1280, 720, nil
	case "9:16", "tiktok", "reels", "shorts":
		return 1080, 1920, nil
	case "4:5":
		return 1080, 1350, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(name), "x")
	if !ok {
		return 0, 0, errs.InvalidEnum("config.ResolvePreset", name)
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(w))
	height, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, errs.InvalidEnum("config.ResolvePreset", name)
	}
	return width, height, nil
}

// Quality values per encoder, ordered low, medium, high, ultra.
// x264 and NVENC take a constant-quality value (lower is better),
// VideoToolbox a bitrate in units of 100 kbit/s.
var qualityTable = map[string][4]int{
	"libx264":           {28, 23, 18, 14},
	"h264_nvenc":        {32, 28, 23, 19},
	"h264_videotoolbox": {40, 75, 100, 150},
}

// QualityPreset translates a named quality level into the encoder's
// native quality value.
func QualityPreset(level, encoder string) (int, error) {
	row, ok := qualityTable[encoder]
	if !ok {
		row = qualityTable["libx264"]
	}
	switch strings.ToLower(level) {
	case "low":
		return row[0], nil
	case "medium", "":
		return row[1], nil
	case "high":
		return row[2], nil
	case "ultra":
		return row[3], nil
	}
	if n, err := strconv.Atoi(level); err == nil && n > 0 {
		return n, nil
	}
	return 0, errs.InvalidEnum("config.QualityPreset", level)
}

// Environment keys read by ApplyEnv.
const (
	EnvPreset  = "FLUXREEL_PRESET"
	EnvFPS     = "FLUXREEL_FPS"
	EnvWorkers = "FLUXREEL_WORKERS"
	EnvQuality = "FLUXREEL_QUALITY"
	EnvEncoder = "FLUXREEL_ENCODER"
	EnvOutput  = "FLUXREEL_OUTPUT_DIR"
	EnvStats   = "FLUXREEL_STATS"
)

// LoadEnv loads .env files into the process environment. Missing files are
// not an error; variables already set win over file values.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// ApplyEnv overrides c with FLUXREEL_* variables. It returns the output
// directory if one is configured.
func (c *Config) ApplyEnv() (string, error) {
	if v := os.Getenv(EnvPreset); v != "" {
		w, h, err := ResolvePreset(v)
		if err != nil {
			return "", fmt.Errorf("%s: %w", EnvPreset, err)
		}
		c.Preset, c.Width, c.Height = v, w, h
	}
	if v := os.Getenv(EnvEncoder); v != "" {
		c.VideoEncoder = v
	}
	for key, dst := range map[string]*int{EnvFPS: &c.FPS, EnvWorkers: &c.Workers} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	if v := os.Getenv(EnvQuality); v != "" {
		q, err := QualityPreset(v, c.VideoEncoder)
		if err != nil {
			return "", fmt.Errorf("%s: %w", EnvQuality, err)
		}
		c.Quality = q
	}
	if v := os.Getenv(EnvStats); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", fmt.Errorf("%s: %w", EnvStats, err)
		}
		c.ShowStats = b
	}
	return os.Getenv(EnvOutput), nil
}
