// Package engine drives a render pass: it evaluates frames of a timeline
// snapshot on a worker pool and hands them to a sink in frame order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/fluxreel/internal/compositor"
	"github.com/ivlev/fluxreel/internal/config"
	"github.com/ivlev/fluxreel/internal/errs"
	"github.com/ivlev/fluxreel/internal/scene"
	"github.com/ivlev/fluxreel/internal/system"
	"github.com/ivlev/fluxreel/internal/video"
)

// Renderer renders timelines with a fixed configuration.
type Renderer struct {
	Config     *config.Config
	Compositor *compositor.Compositor
	Logger     *slog.Logger
	// Progress, when set, is called from a single goroutine after every
	// delivered frame.
	Progress func(done, total int)
}

// NewRenderer builds the compositor for cfg.
func NewRenderer(cfg *config.Config, assets compositor.AssetResolver, frames compositor.FrameSource, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	comp, err := compositor.New(compositor.Options{
		Width:         cfg.Width,
		Height:        cfg.Height,
		FPS:           cfg.FPS,
		Assets:        assets,
		Frames:        frames,
		Pool:          system.NewImagePool(),
		Logger:        logger,
		Interpolation: cfg.Interpolation,
	})
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	return &Renderer{Config: cfg, Compositor: comp, Logger: logger}, nil
}

// FrameCount is the number of frames needed to cover the timeline.
func FrameCount(tl *scene.Timeline, fps int) int {
	if fps <= 0 {
		return 0
	}
	return int(math.Ceil(tl.Duration()*float64(fps) - 1e-9))
}

type rendered struct {
	index int
	img   *image.RGBA
}

// Render evaluates frames [from, to) of tl and writes them to sink in
// increasing order. to <= 0 means "until the end". The timeline is
// snapshotted first, so the caller may keep editing it while the pass
// runs. On cancellation no frame is delivered partially and ctx.Err() is
// returned.
func (r *Renderer) Render(ctx context.Context, tl *scene.Timeline, sink video.FrameSink, from, to int) (Report, error) {
	log := r.logger()
	fps := r.Compositor.Options().FPS

	total := FrameCount(tl, fps)
	if to <= 0 || to > total {
		to = total
	}
	if from < 0 {
		return Report{}, errs.IndexOutOfRange("engine.Render", from)
	}
	if from > to {
		return Report{}, errs.InvalidState("engine.Render", fmt.Sprintf("from %d > to %d", from, to))
	}

	snap := tl.Snapshot()
	snap.Prepare(fps)
	if err := r.Compositor.Prepare(snap); err != nil {
		return Report{}, fmt.Errorf("prepare: %w", err)
	}

	workers := r.workers()
	window := 2 * workers
	count := to - from
	rep := Report{Frames: count, Workers: workers, Duration: snap.Duration()}

	bounds := r.Compositor.Bounds()
	if err := sink.Open(ctx, video.FrameFormat{Width: bounds.Dx(), Height: bounds.Dy(), FPS: fps, TotalFrames: count}); err != nil {
		return rep, fmt.Errorf("open sink: %w", err)
	}

	log.Info("[*] render started", "frames", count, "from", from, "workers", workers,
		"size", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()), "fps", fps)

	start := time.Now()
	err := r.run(ctx, snap, sink, from, to, workers, window, &rep)
	rep.Elapsed = time.Since(start)

	if cerr := sink.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close sink: %w", cerr))
	}
	if err != nil {
		log.Warn("[!] render stopped", "delivered", rep.Delivered, "err", err)
		return rep, err
	}
	log.Info("[+] render finished", "frames", rep.Delivered, "elapsed", rep.Elapsed.Round(time.Millisecond), "fps", fmt.Sprintf("%.2f", rep.FPS()))
	return rep, nil
}

func (r *Renderer) run(ctx context.Context, snap *scene.Timeline, sink video.FrameSink, from, to, workers, window int, rep *Report) error {
	pool := r.Compositor.Pool()
	bounds := r.Compositor.Bounds()
	fps := float64(r.Compositor.Options().FPS)
	total := to - from

	slots := make(chan struct{}, window)
	results := make(chan rendered, window)

	g, gctx := errgroup.WithContext(ctx)

	// Сборщик: восстанавливает порядок и отдаёт кадры.
	g.Go(func() error {
		pending := make(map[int]*image.RGBA, window)
		defer func() {
			for _, img := range pending {
				pool.Put(img)
			}
		}()
		next := from
		for next < to {
			select {
			case res := <-results:
				pending[res.index] = res.img
			case <-gctx.Done():
				return gctx.Err()
			}
			for {
				img, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := gctx.Err(); err != nil {
					pool.Put(img)
					return err
				}
				err := sink.WriteFrame(next, img)
				pool.Put(img)
				<-slots
				if err != nil {
					return fmt.Errorf("write frame %d: %w", next, err)
				}
				next++
				rep.Delivered++
				if r.Progress != nil {
					r.Progress(rep.Delivered, total)
				}
			}
		}
		return nil
	})

	// Диспетчер: кадры идут в пул по порядку и ждут свободный слот.
	g.Go(func() error {
		wg, wctx := errgroup.WithContext(gctx)
		wg.SetLimit(workers)
	dispatch:
		for i := from; i < to; i++ {
			select {
			case slots <- struct{}{}:
			case <-wctx.Done():
				break dispatch
			}
			i := i
			wg.Go(func() error {
				if err := wctx.Err(); err != nil {
					return err
				}
				buf := pool.Get(bounds)
				if err := r.Compositor.RenderFrame(snap, float64(i)/fps, buf); err != nil {
					pool.Put(buf)
					return fmt.Errorf("frame %d: %w", i, err)
				}
				select {
				case results <- rendered{index: i, img: buf}:
					return nil
				case <-wctx.Done():
					pool.Put(buf)
					return wctx.Err()
				}
			})
		}
		return wg.Wait()
	})

	err := g.Wait()
	if err == nil {
		return nil
	}
	// Отмена снаружи важнее ошибок производного контекста.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (r *Renderer) workers() int {
	n := 0
	if r.Config != nil {
		n = r.Config.Workers
	}
	if n <= 0 {
		b := r.Compositor.Bounds()
		n = system.RecommendedWorkers(b.Dx(), b.Dy())
	}
	return max(n, 1)
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}
