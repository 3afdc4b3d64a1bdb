package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/fadescroll/internal/effects"
	"github.com/ivlev/fadescroll/internal/surface"
)

var ErrInvalid = errors.New("invalid config")

const (
	PinningAuto = "auto"
	PinningOn   = "on"
	PinningOff  = "off"

	RegionPage    = "page"
	RegionElement = "element"
)

// Config holds everything a render needs. Zero values of optional fields
// mean "derive" (output path, duration, encoder, quality).
type Config struct {
	Inputs        []string `yaml:"inputs" toml:"inputs"`
	OutputVideo   string   `yaml:"output" toml:"output"`
	FramesDir     string   `yaml:"frames_dir" toml:"frames_dir"`
	Width         int      `yaml:"width" toml:"width"`
	Height        int      `yaml:"height" toml:"height"`
	Preset        string   `yaml:"preset" toml:"preset"`
	FPS           int      `yaml:"fps" toml:"fps"`
	TotalDuration float64  `yaml:"duration" toml:"duration"`
	ImageDuration float64  `yaml:"image_duration" toml:"image_duration"`

	Axis       string  `yaml:"axis" toml:"axis"`
	Pinning    string  `yaml:"pinning" toml:"pinning"`
	Region     string  `yaml:"region" toml:"region"`
	HostOffset float64 `yaml:"host_offset" toml:"host_offset"`

	Workers int    `yaml:"workers" toml:"workers"`
	DPI     int    `yaml:"dpi" toml:"dpi"`
	Scaling string `yaml:"scaling" toml:"scaling"`

	VideoEncoder string `yaml:"encoder" toml:"encoder"`
	Quality      int    `yaml:"quality" toml:"quality"`
	AudioPath    string `yaml:"audio" toml:"audio"`
	AudioSync    bool   `yaml:"audio_sync" toml:"audio_sync"`

	ScenarioInput  string `yaml:"scenario" toml:"scenario"`
	ScenarioOutput string `yaml:"scenario_out" toml:"scenario_out"`

	ShowStats bool   `yaml:"stats" toml:"stats"`
	Debug     bool   `yaml:"debug" toml:"debug"`
	Preview   bool   `yaml:"preview" toml:"preview"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFile   string `yaml:"log_file" toml:"log_file"`

	BuildVersion string `yaml:"-" toml:"-"`
}

// EncodeParams is the slice of Config a frame sink needs.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	AudioPath     string
}

// Default returns the configuration used when no flag or file says
// otherwise.
func Default() Config {
	return Config{
		Width:         1280,
		Height:        720,
		FPS:           30,
		ImageDuration: 2.0,
		Axis:          effects.AxisVertical,
		Pinning:       PinningAuto,
		Region:        RegionPage,
		Workers:       runtime.NumCPU(),
		DPI:           150,
		Scaling:       string(surface.QualityMedium),
		AudioSync:     true,
		LogLevel:      "info",
	}
}

var presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280}, // Shorts/TikTok
	"4:5":  {1080, 1350}, // Instagram
}

// ApplyPreset overrides Width and Height from Preset, if set.
func (c *Config) ApplyPreset() error {
	if c.Preset == "" {
		return nil
	}
	wh, ok := presets[c.Preset]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalid, c.Preset)
	}
	c.Width, c.Height = wh[0], wh[1]
	return nil
}

// EvenSize rounds the frame size up to even numbers, which yuv420p
// requires.
func (c *Config) EvenSize() {
	if c.Width%2 != 0 {
		c.Width++
	}
	if c.Height%2 != 0 {
		c.Height++
	}
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	}
	if c.TotalDuration < 0 || c.ImageDuration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	if _, err := effects.New(c.Axis); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Pinning {
	case PinningAuto, PinningOn, PinningOff:
	default:
		return fmt.Errorf("%w: pinning %q (auto, on, off)", ErrInvalid, c.Pinning)
	}
	switch c.Region {
	case RegionPage, RegionElement:
	default:
		return fmt.Errorf("%w: region %q (page, element)", ErrInvalid, c.Region)
	}
	if c.HostOffset < 0 {
		return fmt.Errorf("%w: host offset %v", ErrInvalid, c.HostOffset)
	}
	if c.Workers < 0 || c.DPI <= 0 || c.Quality < 0 {
		return fmt.Errorf("%w: workers %d, dpi %d, quality %d", ErrInvalid, c.Workers, c.DPI, c.Quality)
	}
	if _, err := surface.ParseQuality(c.Scaling); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Params returns the encoder settings.
func (c *Config) Params() EncodeParams {
	return EncodeParams{
		Width:     c.Width,
		Height:    c.Height,
		FPS:       c.FPS,
		Encoder:   c.VideoEncoder,
		Quality:   c.Quality,
		AudioPath: c.AudioPath,
	}
}

// DefaultQuality returns a sensible quality value for the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // битрейт = Q*100кбит/с
	case "h264_nvenc":
		return 28 // эквивалент CRF для NVENC
	default:
		return 23 // стандартный CRF для x264
	}
}

// LoadFile reads a YAML or TOML (by extension) config file over base.
// Unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	cfg := base
	if isTOML(path) {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return base, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes cfg in the format named by the extension of path.
func Marshal(cfg Config, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(cfg)
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		return nil, errors.New("config file must have one of supported extensions: yaml, yml, toml")
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
