package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"

	"github.com/ivlev/fadescroll/internal/config"
)

// FrameSink consumes rendered frames in order. img is only valid for the
// duration of the call.
type FrameSink interface {
	WriteFrame(ctx context.Context, index int, img image.Image) error
	Close() error
}

var ErrFrameSize = errors.New("frame size does not match the output")

// FFmpegSink streams raw RGBA frames into a single ffmpeg process.
type FFmpegSink struct {
	params config.EncodeParams
	output string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
	buf    *image.RGBA
	closed bool
}

// NewFFmpegSink starts ffmpeg writing to output. Cancelling ctx kills the
// encoder.
func NewFFmpegSink(ctx context.Context, output string, p config.EncodeParams) (*FFmpegSink, error) {
	if p.Encoder == "" {
		p.Encoder = "libx264"
	}
	if p.Quality == 0 {
		p.Quality = config.DefaultQuality(p.Encoder)
	}
	s := &FFmpegSink{params: p, output: output}

	s.cmd = exec.CommandContext(ctx, "ffmpeg", BuildArgs(output, p)...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

// BuildArgs returns the ffmpeg command line for a rawvideo RGBA stream on
// stdin, with an optional audio track cut to the video length.
func BuildArgs(output string, p config.EncodeParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if p.AudioPath != "" {
		args = append(args, "-i", p.AudioPath, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", p.Encoder)
	args = append(args, qualityArgs(p.Encoder, p.Quality)...)
	args = append(args, output)
	return args
}

// Качество в зависимости от энкодера
func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox не везде поддерживает -q:v, используем битрейт
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (s *FFmpegSink) WriteFrame(ctx context.Context, index int, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSize(img, s.params.Width, s.params.Height); err != nil {
		return fmt.Errorf("frame %d: %w", index, err)
	}
	if err := s.writeRawRGBA(s.stdin, img); err != nil {
		// stderr is reported by Close once ffmpeg has exited
		return fmt.Errorf("frame %d: write raw error: %w", index, err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (s *FFmpegSink) Frames() int {
	return s.frames
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w: %s", err, tail(s.stderr.String()))
	}
	return nil
}

func checkSize(img image.Image, w, h int) error {
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w, h)
	}
	return nil
}

// writeRawRGBA writes the tightly packed pixel rows of img, converting
// through a reusable buffer when img is not a zero-origin packed RGBA.
func (s *FFmpegSink) writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		if s.buf == nil || s.buf.Rect.Size() != bounds.Size() {
			s.buf = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		}
		draw.Draw(s.buf, s.buf.Rect, img, bounds.Min, draw.Src)
		rgba = s.buf
	}
	_, err := w.Write(rgba.Pix[:rgba.Stride*bounds.Dy()])
	return err
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const limit = 2000
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}
