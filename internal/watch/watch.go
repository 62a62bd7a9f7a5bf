// Package watch re-runs a render whenever the script or its media change.
package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Func is called after a burst of changes settles. Its context is
// cancelled when a newer change arrives or the watcher closes.
type Func func(ctx context.Context) error

// Watcher monitors a directory tree and debounces change events into calls
// of a Func. Calls never overlap.
type Watcher struct {
	root     string
	allowed  map[string]struct{}
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange Func

	ctx    context.Context
	stop   context.CancelFunc
	runMu  sync.Mutex
	lastMu sync.Mutex
	runs   int
	last   error

	ignoreMu sync.RWMutex
	ignored  []string

	timerMu  sync.Mutex
	timer    *time.Timer
	delay    time.Duration
	inflight context.CancelFunc

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching root. Only files with one of exts trigger a run;
// removals and renames always do.
func New(root string, exts []string, debounce time.Duration, onChange Func, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, stop := context.WithCancel(context.Background())
	w := &Watcher{
		root:     root,
		allowed:  make(map[string]struct{}, len(exts)),
		watcher:  fw,
		logger:   logger,
		onChange: onChange,
		ctx:      ctx,
		stop:     stop,
		delay:    debounce,
		done:     make(chan struct{}),
	}
	for _, ext := range exts {
		w.allowed[strings.ToLower(ext)] = struct{}{}
	}

	if err := w.addRecursive(root); err != nil {
		stop()
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Ignore drops events under paths, e.g. the render output inside the
// watched tree.
func (w *Watcher) Ignore(paths ...string) {
	w.ignoreMu.Lock()
	defer w.ignoreMu.Unlock()
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignored = append(w.ignored, abs)
		}
	}
}

func (w *Watcher) isIgnored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.ignoreMu.RLock()
	defer w.ignoreMu.RUnlock()
	for _, ig := range w.ignored {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Trigger schedules a run as if a file had changed.
func (w *Watcher) Trigger() { w.schedule() }

// Runs is the number of completed calls.
func (w *Watcher) Runs() int {
	w.lastMu.Lock()
	defer w.lastMu.Unlock()
	return w.runs
}

// LastErr is the error of the latest completed call.
func (w *Watcher) LastErr() error {
	w.lastMu.Lock()
	defer w.lastMu.Unlock()
	return w.last
}

// Close stops watching, cancels a running call and waits for it.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.timerMu.Unlock()

		w.stop()
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
		// ждём текущий рендер
		w.runMu.Lock()
		w.runMu.Unlock()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("[!] watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.isIgnored(event.Name) {
		return
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("[!] watch add failed", "path", event.Name, "err", err)
			}
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		if w.isAllowed(event.Name) || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			w.logger.Debug("[*] change", "file", event.Name, "op", event.Op.String())
			w.schedule()
		}
	}
}

func (w *Watcher) schedule() {
	select {
	case <-w.done:
		return
	default:
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	// Новое изменение делает текущий запуск устаревшим.
	if w.inflight != nil {
		w.inflight()
		w.inflight = nil
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		w.timerMu.Lock()
		if w.timer != timer {
			w.timerMu.Unlock()
			return
		}
		w.timer = nil
		ctx, cancel := context.WithCancel(w.ctx)
		w.inflight = cancel
		w.timerMu.Unlock()

		w.fire(ctx)
		cancel()
	})
	w.timer = timer
}

func (w *Watcher) fire(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := w.onChange(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		w.logger.Info("[-] run superseded")
	case err != nil:
		w.logger.Error("[!] run failed", "err", err)
	default:
		w.logger.Info("[+] run done", "elapsed", time.Since(start).Round(time.Millisecond))
	}

	w.lastMu.Lock()
	w.runs++
	w.last = err
	w.lastMu.Unlock()
}

func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			w.logger.Warn("[!] walk error", "path", p, "err", err)
			return nil
		}
		if d.IsDir() {
			if p != path && w.isIgnored(p) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(p); err != nil {
				w.logger.Warn("[!] watch add failed", "path", p, "err", err)
			}
		}
		return nil
	})
}

func (w *Watcher) isAllowed(path string) bool {
	_, ok := w.allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}
