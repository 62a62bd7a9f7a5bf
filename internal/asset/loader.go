// Package asset loads the still images and frame sequences scene nodes
// reference. Loading happens before a render pass; the compositor only
// sees the in-memory Library.
package asset

import (
	"container/list"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/singleflight"
)

// Loader resolves a reference to an image.
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Generator produces an image from a prompt, e.g. the payload of a "qr:"
// reference.
type Generator interface {
	Generate(ctx context.Context, prompt string) (image.Image, error)
}

// FileLoader reads png and jpeg files and renders PDF pages. A PDF page is
// addressed as "doc.pdf#N" with N starting at 1; plain "doc.pdf" is page 1.
type FileLoader struct {
	// Root resolves relative paths; empty means the working directory.
	Root string
	DPI  float64
}

func NewFileLoader(root string) *FileLoader {
	return &FileLoader{Root: root, DPI: 150}
}

func (l *FileLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, page, err := splitPage(ref)
	if err != nil {
		return nil, err
	}
	if l.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return l.renderPage(path, page)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (l *FileLoader) renderPage(path string, page int) (image.Image, error) {
	// go-fitz документ не потокобезопасен: открываем свой на каждый вызов.
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("%s has %d pages, page %d requested", path, doc.NumPage(), page)
	}
	dpi := l.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return doc.ImageDPI(page-1, dpi)
}

func splitPage(ref string) (string, int, error) {
	path, frag, ok := strings.Cut(ref, "#")
	if !ok {
		return ref, 1, nil
	}
	page, err := strconv.Atoi(frag)
	if err != nil {
		return "", 0, fmt.Errorf("bad page in %q: %w", ref, err)
	}
	return path, page, nil
}

// PageCount returns the number of pages of a PDF.
func PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// CachedLoader memoises another loader. Concurrent requests for the same
// reference share one load. With a positive limit only the most recently
// used images are kept.
type CachedLoader struct {
	next  Loader
	group singleflight.Group
	limit int

	mu    sync.Mutex
	cache map[string]*list.Element
	order *list.List // спереди самый свежий
}

type cacheEntry struct {
	ref string
	img image.Image
}

// NewCachedLoader caches every image next loads for the loader's lifetime.
// Use it for stills that are reused across frames.
func NewCachedLoader(next Loader) *CachedLoader {
	return NewBoundedLoader(next, 0)
}

// NewBoundedLoader keeps at most limit images, evicting the least recently
// used. Video frames go through it: each one is needed for a few adjacent
// output frames only.
func NewBoundedLoader(next Loader, limit int) *CachedLoader {
	return &CachedLoader{
		next:  next,
		limit: limit,
		cache: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (c *CachedLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	c.mu.Lock()
	if e, ok := c.cache[ref]; ok {
		c.order.MoveToFront(e)
		img := e.Value.(*cacheEntry).img
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(ref, func() (any, error) {
		img, err := c.next.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.store(ref, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (c *CachedLoader) store(ref string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[ref]; ok {
		e.Value.(*cacheEntry).img = img
		c.order.MoveToFront(e)
		return
	}
	c.cache[ref] = c.order.PushFront(&cacheEntry{ref: ref, img: img})
	for c.limit > 0 && c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.cache, oldest.Value.(*cacheEntry).ref)
	}
}

// Len is the number of cached images.
func (c *CachedLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Forget drops ref from the cache, e.g. after the file changed on disk.
func (c *CachedLoader) Forget(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.cache[ref]; ok {
		c.order.Remove(e)
		delete(c.cache, ref)
	}
}
