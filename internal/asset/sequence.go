package asset

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// SequenceSource serves video node frames from directories of numbered
// stills (frame_0001.png, ...). The node's source is the directory; frame
// n of the directory is shown at time n/FPS.
type SequenceSource struct {
	FPS    float64
	Loader Loader

	mu    sync.Mutex
	lists map[string][]string
}

func NewSequenceSource(fps float64, loader Loader) *SequenceSource {
	return &SequenceSource{FPS: fps, Loader: loader, lists: make(map[string][]string)}
}

// Frame returns the still for source time t, holding the first and last
// frames outside the sequence.
func (s *SequenceSource) Frame(source string, t float64) (image.Image, error) {
	paths, err := s.paths(source)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames in %s", source)
	}
	idx := 0
	if t > 0 && !math.IsNaN(t) {
		idx = int(math.Floor(t*s.FPS + 1e-9))
	}
	idx = min(max(idx, 0), len(paths)-1)
	return s.Loader.Load(context.Background(), paths[idx])
}

// Len is the number of frames in source.
func (s *SequenceSource) Len(source string) (int, error) {
	paths, err := s.paths(source)
	return len(paths), err
}

func (s *SequenceSource) paths(dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.lists[dir]; ok {
		return p, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	s.lists[dir] = paths
	return paths, nil
}
