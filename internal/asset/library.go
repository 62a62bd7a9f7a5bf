package asset

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/fluxreel/internal/scene"
)

// Library holds preloaded images keyed by reference. It satisfies the
// compositor's asset resolver: lookups never block on I/O.
type Library struct {
	// MaxDim bounds the longer side of stored images; larger images are
	// downscaled on load. Zero keeps the original size.
	MaxDim  int
	Workers int

	loader     Loader
	generators map[string]Generator
	logger     *slog.Logger

	mu     sync.RWMutex
	images map[string]image.Image
}

// NewLibrary creates a library that loads files through loader.
func NewLibrary(loader Loader, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Library{
		Workers:    4,
		loader:     loader,
		generators: make(map[string]Generator),
		logger:     logger,
		images:     make(map[string]image.Image),
	}
}

// Register routes references of the form "scheme:prompt" to g.
func (l *Library) Register(scheme string, g Generator) {
	l.generators[scheme] = g
}

// Image implements the compositor asset resolver.
func (l *Library) Image(ref string) (image.Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	img, ok := l.images[ref]
	return img, ok
}

// Len is the number of stored images.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.images)
}

// Preload loads every reference not stored yet. The first failure cancels
// the remaining loads.
func (l *Library) Preload(ctx context.Context, refs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Workers, 1))
	for _, ref := range refs {
		if _, ok := l.Image(ref); ok {
			continue
		}
		g.Go(func() error {
			img, err := l.load(gctx, ref)
			if err != nil {
				return fmt.Errorf("asset %q: %w", ref, err)
			}
			img = l.fit(img)
			l.mu.Lock()
			l.images[ref] = img
			l.mu.Unlock()
			l.logger.Debug("[*] asset loaded", "ref", ref, "size", img.Bounds().Size())
			return nil
		})
	}
	return g.Wait()
}

// Evict removes ref so the next Preload reads it again.
func (l *Library) Evict(ref string) {
	l.mu.Lock()
	delete(l.images, ref)
	l.mu.Unlock()
}

func (l *Library) load(ctx context.Context, ref string) (image.Image, error) {
	if scheme, prompt, ok := strings.Cut(ref, ":"); ok {
		if g, found := l.generators[scheme]; found {
			return g.Generate(ctx, prompt)
		}
	}
	if l.loader == nil {
		return nil, fmt.Errorf("no loader for %q", ref)
	}
	return l.loader.Load(ctx, ref)
}

func (l *Library) fit(img image.Image) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if l.MaxDim <= 0 || longest <= l.MaxDim {
		return img
	}
	k := float64(l.MaxDim) / float64(longest)
	w := max(1, int(float64(b.Dx())*k+0.5))
	h := max(1, int(float64(b.Dy())*k+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

// Refs lists the image references used by the timeline's image nodes,
// sorted and without duplicates.
func Refs(tl *scene.Timeline) []string {
	seen := make(map[string]struct{})
	for _, s := range tl.Scenes() {
		for _, e := range s.Elements() {
			if n, ok := e.(*scene.ImageNode); ok && n.Path != "" {
				seen[n.Path] = struct{}{}
			}
		}
	}
	refs := make([]string, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}
