package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/fluxreel/internal/asset"
	"github.com/ivlev/fluxreel/internal/audio"
	"github.com/ivlev/fluxreel/internal/config"
	"github.com/ivlev/fluxreel/internal/director"
	"github.com/ivlev/fluxreel/internal/engine"
	"github.com/ivlev/fluxreel/internal/scene"
	"github.com/ivlev/fluxreel/internal/system"
	"github.com/ivlev/fluxreel/internal/tui"
	"github.com/ivlev/fluxreel/internal/video"
	"github.com/ivlev/fluxreel/internal/watch"
)

const (
	scriptsDir   = "scripts"
	outputDir    = "output"
	benchmarkLog = "benchmark.log"
)

// renderFlags are shared by render and watch.
type renderFlags struct {
	fs *flag.FlagSet

	script  *string
	output  *string
	preset  *string
	fps     *int
	workers *int
	quality *string
	encoder *string
	format  *string
	interp  *string
	audio   *string
	dpi     *int
	from    *int
	to      *int
	stats   *bool
	useTUI  *bool
	verbose *bool
}

func newRenderFlags(name string) *renderFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &renderFlags{
		fs:      fs,
		script:  fs.String("script", "", "Путь к сценарию (по умолчанию: самый свежий .yaml в scripts/)"),
		output:  fs.String("output", "", "Путь к видео или папке кадров (если пусто, генерируется в output/)"),
		preset:  fs.String("preset", "", "Формат: 4K, 1080p, 720p, 9:16, 4:5 или WxH"),
		fps:     fs.Int("fps", 0, "FPS"),
		workers: fs.Int("workers", 0, "Потоки (0 - по ресурсам машины)"),
		quality: fs.String("quality", "", "Качество: low, medium, high, ultra или число для кодека"),
		encoder: fs.String("encoder", "", "Кодек ffmpeg (по умолчанию: лучший доступный H.264)"),
		format:  fs.String("format", "", "Вывод: mp4 или png"),
		interp:  fs.String("interpolation", "", "Ресемплинг: nearest, bilinear, approxbilinear, catmullrom"),
		audio:   fs.String("audio", "", "Аудиодорожка (перекрывает settings.audio)"),
		dpi:     fs.Int("dpi", 0, "DPI для страниц PDF"),
		from:    fs.Int("from", 0, "Первый кадр"),
		to:      fs.Int("to", 0, "Кадр после последнего (0 - до конца)"),
		stats:   fs.Bool("stats", false, "Показать отчёт и дописать benchmark.log"),
		useTUI:  fs.Bool("tui", false, "Интерактивный прогресс"),
		verbose: fs.Bool("v", false, "Подробный лог"),
	}
}

// set reports the flags given explicitly on the command line.
func (f *renderFlags) set() map[string]bool {
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// job is a fully resolved render.
type job struct {
	cfg      *config.Config
	script   *director.Script
	timeline *scene.Timeline
	from, to int
	stats    bool
	useTUI   bool
}

// resolveScriptPath falls back to the newest script in scripts/.
func resolveScriptPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	latest, err := director.FindLatestScript(scriptsDir)
	if err != nil {
		return "", fmt.Errorf("%w. Положите сценарий в %s/ или укажите -script", err, scriptsDir)
	}
	return latest, nil
}

// prepare layers the settings: defaults, environment, script, flags.
func prepare(ctx context.Context, f *renderFlags, scriptPath string, logger *slog.Logger) (*job, error) {
	script, err := director.ReadScript(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	cfg := config.Default()
	cfg.ScriptPath = scriptPath
	cfg.BuildVersion = version
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	outDir, err := cfg.ApplyEnv()
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = outputDir
	}

	set := f.set()
	st := script.Settings
	baseDir := filepath.Dir(scriptPath)

	preset := pick(set["preset"], *f.preset, st.Preset)
	if preset != "" {
		w, h, err := config.ResolvePreset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Preset, cfg.Width, cfg.Height = preset, w, h
	}
	if set["fps"] {
		cfg.FPS = *f.fps
	} else if st.FPS > 0 {
		cfg.FPS = st.FPS
	}
	if enc := pick(set["encoder"], *f.encoder, st.Encoder); enc != "" {
		cfg.VideoEncoder = enc
	} else if os.Getenv(config.EnvEncoder) == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		if cfg.VideoEncoder != "libx264" {
			logger.Info("[*] Обнаружено аппаратное ускорение", "encoder", cfg.VideoEncoder)
		}
	}
	if q := pick(set["quality"], *f.quality, st.Quality); q != "" {
		cfg.Quality, err = config.QualityPreset(q, cfg.VideoEncoder)
		if err != nil {
			return nil, err
		}
	} else if cfg.Quality == 0 {
		cfg.Quality, _ = config.QualityPreset("medium", cfg.VideoEncoder)
	}
	if set["format"] {
		cfg.Format = *f.format
	}
	if set["interpolation"] {
		cfg.Interpolation = *f.interp
	}
	if set["dpi"] {
		cfg.DPI = *f.dpi
	}
	if set["workers"] && *f.workers > 0 {
		cfg.Workers = *f.workers
	} else if os.Getenv(config.EnvWorkers) == "" {
		cfg.Workers = system.RecommendedWorkers(cfg.Width, cfg.Height)
	}
	if set["stats"] {
		cfg.ShowStats = *f.stats
	}

	if a := pick(set["audio"], *f.audio, st.Audio); a != "" {
		if !set["audio"] && !filepath.IsAbs(a) {
			a = filepath.Join(baseDir, a)
		}
		cfg.AudioPath = a
	}

	cfg.OutputVideo = *f.output
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(outDir, scriptPath, cfg.Format, time.Now())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	builder := director.NewBuilder(baseDir, logger)
	builder.FPS = cfg.FPS
	tl, err := builder.Build(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", scriptPath, err)
	}

	if st.FitAudio && cfg.AudioPath != "" {
		info, err := audio.Probe(ctx, cfg.AudioPath)
		if err != nil {
			logger.Warn("[!] Не удалось получить длительность аудио", "err", err)
		} else {
			if err := engine.FitDuration(tl, info.Duration, cfg.FPS); err != nil {
				return nil, err
			}
			logger.Info("[*] Длительность видео установлена по аудио", "duration", info.Duration, "title", info.Title)
		}
	}

	return &job{
		cfg:      cfg,
		script:   script,
		timeline: tl,
		from:     *f.from,
		to:       *f.to,
		stats:    cfg.ShowStats,
		useTUI:   *f.useTUI,
	}, nil
}

// pick returns the flag value when it was given, otherwise the script's.
func pick(flagSet bool, flagValue, scriptValue string) string {
	if flagSet {
		return flagValue
	}
	return scriptValue
}

func defaultOutput(dir, scriptPath, format string, now time.Time) string {
	base := filepath.Base(scriptPath)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	stamp := now.Format("2006-01-02_15-04-05")
	if format == "png" {
		return filepath.Join(dir, fmt.Sprintf("%s_%s", name, stamp))
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", name, stamp))
}

// execute loads the assets and runs the render.
func execute(ctx context.Context, j *job, logger *slog.Logger, progress func(done, total int)) (engine.Report, error) {
	cfg := j.cfg
	loader := asset.NewCachedLoader(&asset.FileLoader{DPI: float64(cfg.DPI)})

	lib := asset.NewLibrary(loader, logger)
	lib.MaxDim = 2 * max(cfg.Width, cfg.Height)
	lib.Workers = cfg.Workers
	lib.Register("qr", asset.NewQRGenerator(min(cfg.Width, cfg.Height)))
	refs := asset.Refs(j.timeline)
	if err := lib.Preload(ctx, refs); err != nil {
		return engine.Report{}, err
	}
	logger.Debug("[*] assets ready", "images", lib.Len())

	// Кадры видео нужны лишь соседним кадрам вывода: кэш ограничен.
	frameLoader := asset.NewBoundedLoader(&asset.FileLoader{DPI: float64(cfg.DPI)}, 2*cfg.Workers+2)
	frames := asset.NewSequenceSource(float64(cfg.FPS), frameLoader)
	r, err := engine.NewRenderer(cfg, lib, frames, logger)
	if err != nil {
		return engine.Report{}, err
	}
	r.Progress = progress

	var sink video.FrameSink
	switch cfg.Format {
	case "png":
		sink = video.NewPNGSequenceSink(cfg.OutputVideo)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
			return engine.Report{}, err
		}
		s := video.NewFFmpegSink(cfg.OutputVideo, cfg.VideoEncoder, cfg.Quality)
		s.AudioPath = cfg.AudioPath
		s.Tracks = engine.AudioTracks(j.timeline, cfg.FPS)
		s.Logger = logger
		sink = s
	}

	return r.Render(ctx, j.timeline, sink, j.from, j.to)
}

// logProgress reports every tenth of the render.
func logProgress(logger *slog.Logger) func(done, total int) {
	last := -1
	return func(done, total int) {
		if total <= 0 {
			return
		}
		step := done * 10 / total
		if step != last {
			last = step
			logger.Info("[*] Рендер", "frames", fmt.Sprintf("%d/%d", done, total), "percent", step*10)
		}
	}
}

func runJob(ctx context.Context, j *job, logger *slog.Logger) (engine.Report, error) {
	if j.useTUI {
		return tui.Run(ctx, filepath.Base(j.cfg.ScriptPath), func(ctx context.Context, progress func(done, total int)) (engine.Report, error) {
			return execute(ctx, j, logger, progress)
		})
	}
	return execute(ctx, j, logger, logProgress(logger))
}

func finish(j *job, rep engine.Report) {
	if !j.stats {
		return
	}
	fmt.Print(rep.String())
	if err := engine.AppendBenchmark(benchmarkLog, j.cfg.BuildVersion, j.cfg.ScriptPath, rep, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "[!] benchmark.log: %v\n", err)
	}
}

func runRender(ctx context.Context, args []string, logger *slog.Logger) error {
	f := newRenderFlags("render")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	for _, d := range []string{scriptsDir, outputDir} {
		os.MkdirAll(d, 0755)
	}

	path, err := resolveScriptPath(*f.script)
	if err != nil {
		return err
	}
	logger.Info("[*] Выбран сценарий", "path", path)

	j, err := prepare(ctx, f, path, logger)
	if err != nil {
		return err
	}
	rep, err := runJob(ctx, j, logger)
	if err != nil {
		return err
	}
	finish(j, rep)
	fmt.Printf("[+++] Успех! Результат: %s\n", j.cfg.OutputVideo)
	return nil
}

func runWatch(ctx context.Context, args []string, logger *slog.Logger) error {
	f := newRenderFlags("watch")
	debounce := f.fs.Duration("debounce", 300*time.Millisecond, "Пауза перед перерендером")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	path, err := resolveScriptPath(*f.script)
	if err != nil {
		return err
	}
	// Прогресс в режиме наблюдения только в лог.
	*f.useTUI = false

	exts := append(append(append([]string{}, system.ScriptExts...), system.ImageExts...), system.AudioExts...)
	exts = append(exts, system.PDFExts...)

	w, err := watch.New(filepath.Dir(path), exts, *debounce, func(ctx context.Context) error {
		j, err := prepare(ctx, f, path, logger)
		if err != nil {
			return err
		}
		rep, err := runJob(ctx, j, logger)
		if err != nil {
			return err
		}
		finish(j, rep)
		logger.Info("[+] Готово", "output", j.cfg.OutputVideo, "fps", fmt.Sprintf("%.1f", rep.FPS()))
		return nil
	}, logger)
	if err != nil {
		return err
	}
	// Кадры пишутся внутрь наблюдаемой папки: не реагируем на них.
	out, err := watchedOutput(f)
	if err != nil {
		w.Close()
		return err
	}
	w.Ignore(out)
	logger.Info("[*] Наблюдаю за изменениями", "script", path, "ignore", out)
	w.Trigger()

	<-ctx.Done()
	return w.Close()
}

// watchedOutput is where renders land: the -output path, or the output
// directory generated names go to.
func watchedOutput(f *renderFlags) (string, error) {
	if *f.output != "" {
		return *f.output, nil
	}
	if err := config.LoadEnv(); err != nil {
		return "", err
	}
	if dir := os.Getenv(config.EnvOutput); dir != "" {
		return dir, nil
	}
	return outputDir, nil
}
