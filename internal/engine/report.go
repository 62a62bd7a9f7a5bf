package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report summarises a render pass.
type Report struct {
	Frames    int
	Delivered int
	Workers   int
	// Duration is the timeline running time in seconds.
	Duration float64
	Elapsed  time.Duration
}

// FPS is the effective throughput of the pass.
func (r Report) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Delivered) / r.Elapsed.Seconds()
}

// String formats the report the way it is printed after a render.
func (r Report) String() string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Frames: %d/%d\n"+
			"Timeline: %.2fs\n"+
			"Workers: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		r.Delivered, r.Frames, r.Duration, r.Workers, r.Elapsed.Seconds(), r.FPS(),
	)
}

// AppendBenchmark adds a one-line entry for the pass to the log at path.
func AppendBenchmark(path, build, input string, r Report, now time.Time) error {
	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Workers: %d | Total: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		r.Delivered,
		r.Workers,
		r.Elapsed.Seconds(),
		r.FPS(),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
