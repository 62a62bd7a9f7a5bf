package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/fluxreel/internal/system"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `fluxreel - рендер видео из YAML-сценариев

Команды:
  render         отрендерить сценарий в mp4 или png-последовательность
  validate       проверить сценарий без рендера
  new            создать сценарий из шаблона или из PDF/изображений
  templates      список шаблонов
  watch          перерендеривать сценарий при каждом изменении
  analyze-audio  длительность, темп и биты аудиофайла

Запуск: fluxreel <команда> [флаги]
`

type command func(ctx context.Context, args []string, logger *slog.Logger) error

var commands = map[string]command{
	"render":        runRender,
	"validate":      runValidate,
	"new":           runNew,
	"templates":     runTemplates,
	"watch":         runWatch,
	"analyze-audio": runAnalyzeAudio,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		fmt.Print(usage)
		return
	}
	if name == "version" {
		fmt.Println(version)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "[-] Неизвестная команда %q\n\n%s", name, usage)
		os.Exit(2)
	}

	logger := newLogger(os.Args[2:])

	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, os.Args[2:], logger); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newLogger writes text records to stderr; -v anywhere in args enables
// debug output.
func newLogger(args []string) *slog.Logger {
	level := slog.LevelInfo
	for _, a := range args {
		if a == "-v" || a == "--v" || a == "-v=true" {
			level = slog.LevelDebug
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
