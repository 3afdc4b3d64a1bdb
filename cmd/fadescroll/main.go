package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ivlev/fadescroll/internal/config"
	"github.com/ivlev/fadescroll/internal/logging"
	"github.com/ivlev/fadescroll/internal/scenario"
	"github.com/ivlev/fadescroll/internal/system"
)

// VERSION is set at build time with -ldflags "-X main.VERSION=...".
var VERSION = "0.0.0-dev"

const (
	inputDir = "input"
	audioDir = "input/audio"
	outDir   = "output"

	// latestScenario as --scenario picks the newest file in scenarios/
	latestScenario = "latest"
)

func main() {
	cfg := config.Default()
	var configFile string
	closeLog := func() {}

	rootCmd := &cobra.Command{
		Use:           "fadescroll",
		Short:         "Fade scroll video renderer",
		Long:          "Renders a sequence of images (or PDF pages) as the fade scroll view seen through a scrolling page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				file, err := config.LoadFile(configFile, config.Default())
				if err != nil {
					return err
				}
				config.Merge(&cfg, file, cmd.Flags().Changed)
			}
			if len(args) > 0 {
				cfg.Inputs = args
			}
			cfg.BuildVersion = VERSION

			c, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			closeLog = c
			log.Debug().Str("version", VERSION).Str("config", configFile).Msg("starting")
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML или TOML файл конфигурации (флаги важнее файла)")
	bindFlags(rootCmd.PersistentFlags(), &cfg)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Fadescroll version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fadescroll %s\n", VERSION)
		},
	}

	rootCmd.AddCommand(newRenderCmd(&cfg), newFrameCmd(&cfg), newScenarioCmd(&cfg), newDefaultConfigCmd(), versionCmd)

	// .env может задать FADESCROLL_STICKY и прочие переменные окружения
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "[-] Ошибка загрузки .env: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// bindFlags registers every option Merge knows about on fs.
func bindFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringSliceVarP(&cfg.Inputs, "input", "i", cfg.Inputs, "PDF, изображения или папки (по умолчанию: самый свежий файл в input/)")
	fs.StringVarP(&cfg.OutputVideo, "output", "o", cfg.OutputVideo, "Путь к видео (если пусто, генерируется автоматически в output/)")
	fs.StringVar(&cfg.FramesDir, "frames-dir", cfg.FramesDir, "Писать кадры PNG в папку вместо видео")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Ширина")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Высота")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS")
	fs.Float64Var(&cfg.TotalDuration, "duration", cfg.TotalDuration, "Общая длительность видео (если 0, рассчитывается из --image-duration)")
	fs.Float64Var(&cfg.ImageDuration, "image-duration", cfg.ImageDuration, "Длительность прокрутки одного изображения в секундах")
	fs.StringVar(&cfg.Axis, "axis", cfg.Axis, "Ось перехода: vertical, horizontal")
	fs.StringVar(&cfg.Pinning, "pinning", cfg.Pinning, "Закрепление поверхности: auto, on, off")
	fs.StringVar(&cfg.Region, "region", cfg.Region, "Область прокрутки: page, element")
	fs.Float64Var(&cfg.HostOffset, "host-offset", cfg.HostOffset, "Отступ хоста от начала страницы (px)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Потоки")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "DPI для страниц PDF")
	fs.StringVar(&cfg.Scaling, "scaling", cfg.Scaling, "Качество масштабирования: fast, medium, high")
	fs.StringVar(&cfg.VideoEncoder, "encoder", cfg.VideoEncoder, "H.264 энкодер (по умолчанию: лучший доступный)")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	fs.StringVar(&cfg.AudioPath, "audio", cfg.AudioPath, "Путь к аудио (по умолчанию: самый свежий файл в input/audio/)")
	fs.BoolVar(&cfg.AudioSync, "audio-sync", cfg.AudioSync, "Синхронизировать длительность видео с аудио")
	fs.StringVar(&cfg.ScenarioInput, "scenario", cfg.ScenarioInput, "YAML сценарий прокрутки (latest - самый свежий в scenarios/)")
	fs.StringVar(&cfg.ScenarioOutput, "scenario-out", cfg.ScenarioOutput, "Сохранить использованный сценарий")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Показать отчёт о производительности")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "QR код с состоянием курсора на каждом кадре")
	fs.BoolVar(&cfg.Preview, "preview", cfg.Preview, "Показать кадр в терминале (iTerm2)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Уровень логов: debug, info, warn, error, none")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Писать логи в файл")
}

// prepare applies the preset, picks default inputs and validates cfg.
func prepare(cfg *config.Config) error {
	if err := cfg.ApplyPreset(); err != nil {
		return err
	}
	cfg.EvenSize()

	if len(cfg.Inputs) == 0 {
		latest, err := system.FindLatestInput(inputDir)
		if err != nil {
			return fmt.Errorf("%w. Положите PDF или изображения в %s/", err, inputDir)
		}
		cfg.Inputs = []string{latest}
		fmt.Printf("[*] Выбран файл: %s\n", latest)
	}
	if err := resolveScenario(cfg, scenario.DefaultDir); err != nil {
		return err
	}
	return cfg.Validate()
}

// resolveScenario replaces --scenario latest with the newest scenario in dir.
func resolveScenario(cfg *config.Config, dir string) error {
	if cfg.ScenarioInput != latestScenario {
		return nil
	}
	latest, err := scenario.FindLatestScenario(dir)
	if err != nil {
		return err
	}
	cfg.ScenarioInput = latest
	fmt.Printf("[*] Выбран сценарий: %s\n", latest)
	return nil
}

// defaultOutput names the video after the first input, or the audio track
// when the input is a folder.
func defaultOutput(cfg *config.Config) string {
	nameSource := cfg.Inputs[0]
	if info, err := os.Stat(nameSource); err == nil && info.IsDir() && cfg.AudioPath != "" {
		nameSource = cfg.AudioPath
	}
	baseName := filepath.Base(nameSource)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(outDir, fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}
