package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/fadescroll/internal/config"
	"github.com/ivlev/fadescroll/internal/engine"
	"github.com/ivlev/fadescroll/internal/preview"
	"github.com/ivlev/fadescroll/internal/scenario"
	"github.com/ivlev/fadescroll/internal/source"
	"github.com/ivlev/fadescroll/internal/system"
	"github.com/ivlev/fadescroll/internal/video"
)

func newRenderCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "render [inputs...]",
		Short: "Render the fade scroll video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.Context(), cfg)
		},
	}
}

func render(ctx context.Context, cfg *config.Config) error {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	if err := prepare(cfg); err != nil {
		return err
	}
	// проверяем входные файлы до запуска ffmpeg
	n, err := checkInputs(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Источников: %d\n", n)
	resolveAudio(ctx, cfg)

	if cfg.FramesDir == "" && cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(cfg)
	}
	sink, dest, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}

	project := engine.NewProject(cfg, newLoader(cfg), sink)
	if cfg.Preview {
		showFirstFrame(ctx, project)
	}
	rep, err := project.Run(ctx)
	if err != nil {
		return fmt.Errorf("ошибка проекта: %w", err)
	}
	log.Info().
		Int("frames", rep.Frames).
		Dur("total", rep.Total).
		Float64("fps", rep.EffectiveFPS()).
		Msg("render finished")

	fmt.Printf("[+++] Успех! Результат: %s\n", dest)
	return nil
}

// checkInputs counts the images the inputs expand to without decoding them.
func checkInputs(cfg *config.Config) (int, error) {
	n, err := newLoader(cfg).Count(cfg.Inputs)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, source.ErrNoImages
	}
	return n, nil
}

// resolveAudio picks the newest track from input/audio when none is set
// and stretches the video to its length when AudioSync is on.
func resolveAudio(ctx context.Context, cfg *config.Config) {
	if cfg.FramesDir != "" {
		return
	}
	if cfg.AudioPath == "" {
		latest, err := system.FindLatestAudio(audioDir)
		if err != nil {
			log.Debug().Err(err).Msg("no audio track")
			return
		}
		cfg.AudioPath = latest
		fmt.Printf("[*] Выбрано аудио: %s\n", latest)
	}
	if !cfg.AudioSync {
		return
	}
	dur, err := system.GetAudioDuration(ctx, cfg.AudioPath)
	if err != nil {
		fmt.Printf("[!] Не удалось получить длительность аудио: %v\n", err)
		return
	}
	cfg.TotalDuration = dur
	fmt.Printf("[*] Длительность видео установлена по аудио: %.2fs\n", dur)
}

// openSink returns a PNG sequence sink when FramesDir is set and an ffmpeg
// sink otherwise, together with the path to report.
func openSink(ctx context.Context, cfg *config.Config) (video.FrameSink, string, error) {
	if cfg.FramesDir != "" {
		sink, err := video.NewPNGSink(ctx, cfg.FramesDir, cfg.Workers)
		return sink, cfg.FramesDir, err
	}

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx)
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = config.DefaultQuality(cfg.VideoEncoder)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		return nil, "", err
	}
	sink, err := video.NewFFmpegSink(ctx, cfg.OutputVideo, cfg.Params())
	return sink, cfg.OutputVideo, err
}

// showFirstFrame previews the opening frame inline; failures only warn.
func showFirstFrame(ctx context.Context, p *engine.Project) {
	img, _, err := p.RenderFrame(ctx, 0)
	if err != nil {
		log.Warn().Err(err).Msg("preview failed")
		return
	}
	if ok, err := preview.Show(os.Stdout, img); err != nil {
		log.Warn().Err(err).Msg("preview failed")
	} else if !ok {
		log.Debug().Msg("stdout is not a terminal, preview skipped")
	}
}

// newLoader renders PDF pages no wider than the output frame.
func newLoader(cfg *config.Config) *source.FileLoader {
	l := source.NewFileLoader(cfg.Workers, cfg.DPI)
	l.Width = cfg.Width
	return l
}

func newFrameCmd(cfg *config.Config) *cobra.Command {
	var (
		scroll float64
		out    string
	)
	cmd := &cobra.Command{
		Use:   "frame [inputs...]",
		Short: "Render the single frame shown at a scroll offset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prepare(cfg); err != nil {
				return err
			}
			if out == "" && !cfg.Preview {
				return errors.New("нужен --out или --preview")
			}

			project := engine.NewProject(cfg, newLoader(cfg), nil)
			defer project.Close()
			img, cur, err := project.RenderFrame(cmd.Context(), scroll)
			if err != nil {
				return err
			}
			fmt.Printf("[*] Прокрутка %.1f: %s\n", scroll, cur)

			if out != "" {
				if err := writePNG(out, img); err != nil {
					return err
				}
				fmt.Printf("[+++] Кадр сохранён: %s\n", out)
			}
			if cfg.Preview {
				if _, err := preview.Show(os.Stdout, img); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&scroll, "scroll", 0, "Смещение прокрутки (px)")
	cmd.Flags().StringVar(&out, "out", "", "PNG файл для кадра")
	return cmd
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newScenarioCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [inputs...]",
		Short: "Generate the default sweep scenario for the inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prepare(cfg); err != nil {
				return err
			}
			if cfg.ScenarioOutput == "" {
				cfg.ScenarioOutput = scenario.GenerateScenarioPath(scenario.DefaultDir)
			}
			// генерируем новый сценарий, даже если задан --scenario
			cfg.ScenarioInput = ""

			project := engine.NewProject(cfg, newLoader(cfg), nil)
			defer project.Close()
			if err := project.Setup(cmd.Context()); err != nil {
				return err
			}
			sc, err := project.Scenario()
			if err != nil {
				return err
			}
			fmt.Printf("[+++] Ключевых кадров: %d, длительность %.2fs\n", len(sc.Keyframes), sc.Duration)
			return nil
		},
	}
}

func newDefaultConfigCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "defaultconfig",
		Short: "Generate a configuration file with defaults",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDefaultConfig(target)
		},
	}
	cmd.Flags().StringVar(&target, "file", "fadescroll.yaml", "Файл конфигурации (.yaml, .yml или .toml)")
	return cmd
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s уже существует", path)
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := config.Marshal(cfg, path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Printf("[+++] Конфигурация сохранена: %s\n", path)
	return nil
}
