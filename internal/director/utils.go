package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/fluxreel/internal/system"
)

// ScriptPath creates a timestamped script filename in dir
func ScriptPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("script_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatestScript finds the most recently modified script in dir
func FindLatestScript(dir string) (string, error) {
	path, err := system.FindLatest(dir, system.ScriptExts...)
	if err != nil {
		return "", fmt.Errorf("no script in %s: %w", dir, err)
	}
	return path, nil
}
