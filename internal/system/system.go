package system

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open file limit; the PNG sink and the
// asset cache keep many descriptors around on long renders.
func InitResourceLimits(logger *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("[!] cannot read open file limit", "err", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("[!] cannot raise open file limit", "err", err)
		return
	}
	logger.Debug("[*] open file limit raised", "limit", rLimit.Cur)
}

// RecommendedWorkers sizes the render pool from logical CPUs and the
// memory available for frame buffers. Each in-flight frame costs roughly
// three full RGBA buffers (frame, layer, transition scratch).
func RecommendedWorkers(width, height int) int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}

	vm, err := mem.VirtualMemory()
	if err != nil || width <= 0 || height <= 0 {
		return n
	}
	perFrame := uint64(width) * uint64(height) * 4 * 3
	// Не больше половины свободной памяти
	byMem := int(vm.Available / 2 / perFrame)
	if byMem < 1 {
		byMem = 1
	}
	return min(n, byMem)
}

var (
	encoderOnce sync.Once
	encoderName string
)

// GetBestH264Encoder probes ffmpeg once for a hardware H.264 encoder and
// falls back to libx264.
func GetBestH264Encoder(ctx context.Context) string {
	encoderOnce.Do(func() {
		encoderName = "libx264"
		// Приоритеты: VideoToolbox (macOS), NVENC, затем программный libx264.
		out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err != nil {
			return
		}
		for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), enc) {
				encoderName = enc
				return
			}
		}
	})
	return encoderName
}

// Extension groups accepted by FindLatest.
var (
	ScriptExts = []string{".yaml", ".yml"}
	AudioExts  = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExts  = []string{".jpg", ".jpeg", ".png"}
	PDFExts    = []string{".pdf"}
)

// FindLatest returns the most recently modified file in dir with one of
// the given extensions.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
