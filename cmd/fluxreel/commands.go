package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ivlev/fluxreel/internal/analyzer"
	"github.com/ivlev/fluxreel/internal/asset"
	"github.com/ivlev/fluxreel/internal/audio"
	"github.com/ivlev/fluxreel/internal/config"
	"github.com/ivlev/fluxreel/internal/director"
	"github.com/ivlev/fluxreel/internal/engine"
	"github.com/ivlev/fluxreel/internal/system"
	"github.com/ivlev/fluxreel/internal/timecode"
)

func runValidate(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	scriptPath := fs.String("script", "", "Путь к сценарию (по умолчанию: самый свежий .yaml в scripts/)")
	fs.Bool("v", false, "Подробный лог")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := resolveScriptPath(*scriptPath)
	if err != nil {
		return err
	}
	script, err := director.ReadScript(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	fps := script.Settings.FPS
	if fps <= 0 {
		fps = config.Default().FPS
	}
	if script.Settings.Preset != "" {
		if _, _, err := config.ResolvePreset(script.Settings.Preset); err != nil {
			return err
		}
	}

	b := director.NewBuilder(filepath.Dir(path), logger)
	b.FPS = fps
	tl, err := b.Build(ctx, script)
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}

	fmt.Printf("[+] %s\n", path)
	for i, s := range tl.Scenes() {
		fmt.Printf("    %2d. %-20s %6.2fs  nodes: %d\n", i+1, s.Name, s.EffectiveDuration(), len(s.Elements()))
	}
	total := tl.Duration()
	fmt.Printf("    Длительность: %s (%d кадров при %d fps)\n",
		timecode.FormatTime(total), engine.FrameCount(tl, fps), fps)
	return nil
}

func runTemplates(ctx context.Context, args []string, logger *slog.Logger) error {
	for _, name := range director.Templates() {
		s, _ := director.Template(name)
		fmt.Printf("%-10s %-6s %d scenes\n", name, s.Settings.Preset, len(s.Scenes))
	}
	return nil
}

func runNew(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	tmpl := fs.String("template", "default", "Шаблон (см. fluxreel templates)")
	from := fs.String("from", "", "PDF, изображение или папка с изображениями для авто-сценария")
	out := fs.String("o", "", "Куда записать сценарий (по умолчанию: scripts/script_<время>.yaml)")
	preset := fs.String("preset", "1080p", "Формат кадра для авто-сценария")
	perPage := fs.Float64("duration", 5, "Длительность одной страницы, сек")
	detector := fs.String("analyzer", "contrast", "Анализатор страниц: contrast")
	dpi := fs.Int("dpi", 150, "DPI для страниц PDF")
	fs.Bool("v", false, "Подробный лог")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		script *director.Script
		err    error
	)
	if *from == "" {
		script, err = director.Template(*tmpl)
		if err != nil {
			return fmt.Errorf("%w (доступны: %s)", err, strings.Join(director.Templates(), ", "))
		}
	} else {
		script, err = scriptFromPages(ctx, *from, *preset, *perPage, *detector, *dpi, logger)
		if err != nil {
			return err
		}
	}

	path := *out
	if path == "" {
		os.MkdirAll(scriptsDir, 0755)
		path = director.ScriptPath(scriptsDir, time.Now())
	}
	if err := director.WriteScript(script, path); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	fmt.Printf("[+] Сценарий сохранён: %s\n", path)
	return nil
}

// scriptFromPages builds a focus script from a PDF, one image or a
// directory of images.
func scriptFromPages(ctx context.Context, from, preset string, perPage float64, variant string, dpi int, logger *slog.Logger) (*director.Script, error) {
	w, h, err := config.ResolvePreset(preset)
	if err != nil {
		return nil, err
	}
	det, err := analyzer.NewDetector(variant)
	if err != nil {
		return nil, err
	}
	refs, err := pageRefs(from)
	if err != nil {
		return nil, err
	}
	logger.Info("[*] Анализ страниц", "source", from, "pages", len(refs))

	d := director.NewDirector(w, h)
	d.Logger = logger
	loader := &asset.FileLoader{DPI: float64(dpi)}
	script, err := d.FromPages(ctx, refs, loader, det, perPage)
	if err != nil {
		return nil, err
	}
	script.Settings = director.Settings{Preset: preset, FPS: config.Default().FPS}
	return script, nil
}

// pageRefs expands the input into absolute image references.
func pageRefs(from string) ([]string, error) {
	abs, err := filepath.Abs(from)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, err
		}
		var refs []string
		for _, e := range entries {
			if e.IsDir() || !hasAnyExt(e.Name(), system.ImageExts) {
				continue
			}
			refs = append(refs, filepath.Join(abs, e.Name()))
		}
		sort.Strings(refs)
		if len(refs) == 0 {
			return nil, fmt.Errorf("no images in %s", from)
		}
		return refs, nil
	}

	if hasAnyExt(abs, system.PDFExts) {
		n, err := asset.PageCount(abs)
		if err != nil {
			return nil, err
		}
		refs := make([]string, n)
		for i := range refs {
			refs[i] = fmt.Sprintf("%s#%d", abs, i+1)
		}
		return refs, nil
	}
	if hasAnyExt(abs, system.ImageExts) {
		return []string{abs}, nil
	}
	return nil, fmt.Errorf("unsupported input %s", from)
}

func hasAnyExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

var sparkBars = []rune("▁▂▃▄▅▆▇█")

func runAnalyzeAudio(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("analyze-audio", flag.ContinueOnError)
	path := fs.String("audio", "", "Аудиофайл (по умолчанию: самый свежий в audio/)")
	threshold := fs.Float64("threshold", director.DefaultBeatThreshold, "Порог детектора битов, %")
	width := fs.Int("width", 60, "Ширина волны в символах")
	fs.Bool("v", false, "Подробный лог")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" && fs.NArg() > 0 {
		*path = fs.Arg(0)
	}
	if *path == "" {
		latest, err := system.FindLatest("audio", system.AudioExts...)
		if err != nil {
			return fmt.Errorf("no audio given: %w", err)
		}
		*path = latest
	}

	info, err := audio.Probe(ctx, *path)
	if err != nil {
		return err
	}
	samples, err := audio.DecodePCM(ctx, *path, director.DefaultSampleRate)
	if err != nil {
		return err
	}
	beats := audio.DetectBeatsEnergy(samples, director.DefaultSampleRate, *threshold)

	fmt.Printf("[*] %s\n", info.Path)
	if info.Title != "" || info.Artist != "" {
		fmt.Printf("    %s - %s", info.Artist, info.Title)
		if info.Album != "" {
			fmt.Printf(" (%s)", info.Album)
		}
		fmt.Println()
	}
	fmt.Printf("    Длительность: %.2fs\n", info.Duration)
	fmt.Printf("    Биты: %d, BPM: %.1f\n", len(beats), audio.CalculateBPM(beats))
	fmt.Printf("    %s\n", sparkline(audio.Waveform(samples, *width)))
	return nil
}

// sparkline draws values in [0,1] as block characters.
func sparkline(values []float64) string {
	var sb strings.Builder
	for _, v := range values {
		i := int(v * float64(len(sparkBars)-1))
		i = max(0, min(i, len(sparkBars)-1))
		sb.WriteRune(sparkBars[i])
	}
	return sb.String()
}
