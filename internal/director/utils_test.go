package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestScriptPath(t *testing.T) {
	now := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	path := ScriptPath("scripts", now)
	if want := filepath.Join("scripts", "script_2026-02-13_01-00-00.yaml"); path != want {
		t.Errorf("ScriptPath = %s, want %s", path, want)
	}
}

func TestFindLatestScript(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "script_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "script_2026-02-13_01-00-00.yml"),
		filepath.Join(dir, "script_2026-02-11_15-30-00.yaml"),
	}
	base := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	for i, f := range files {
		if err := os.WriteFile(f, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(f, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}
	// Newer, but not a script.
	notes := filepath.Join(dir, "notes.txt")
	_ = os.WriteFile(notes, []byte("x"), 0644)
	later := base.Add(10 * time.Hour)
	_ = os.Chtimes(notes, later, later)

	latest, err := FindLatestScript(dir)
	if err != nil {
		t.Fatalf("FindLatestScript failed: %v", err)
	}
	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}

	if _, err := FindLatestScript(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no script") {
		t.Errorf("empty dir err = %v", err)
	}
}
