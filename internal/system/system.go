package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// InitResourceLimits raises the open file limit; PDF rendering with many
// workers keeps a lot of descriptors open.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("не удалось получить лимит файлов")
		return
	}

	want := uint64(2048)
	if want > rLimit.Max {
		want = rLimit.Max
	}
	if rLimit.Cur >= want {
		return
	}
	rLimit.Cur = want

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("не удалось установить лимит файлов")
		return
	}
	log.Debug().Uint64("nofile", uint64(rLimit.Cur)).Msg("open file limit raised")
}

var audioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}

var inputExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// findLatest returns the most recently modified file in dir whose name
// has one of exts.
func findLatest(dir string, exts []string, what string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено %s", dir, what)
	}
	return latestFile, nil
}

// FindLatestInput returns the newest PDF or image file in dir.
func FindLatestInput(dir string) (string, error) {
	return findLatest(dir, inputExtensions, "PDF-файлов или изображений")
}

func FindLatestAudio(dir string) (string, error) {
	return findLatest(dir, audioExtensions, "аудио-файлов")
}

// GetAudioDuration asks ffprobe for the duration of a media file in
// seconds.
func GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", strings.TrimSpace(out), err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("bad duration %v", d)
	}
	return d, nil
}

// Приоритеты: VideoToolbox (macOS), NVENC (NVIDIA), затем libx264.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

// GetBestH264Encoder returns the best H.264 encoder the local ffmpeg
// offers, falling back to libx264.
func GetBestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, enc := range hardwareEncoders {
		if strings.Contains(listing, enc) {
			return enc
		}
	}
	return "libx264"
}
