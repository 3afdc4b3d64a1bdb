package video

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/fadescroll/internal/system"
)

// PNGSink writes each frame to dir/frame_NNNNN.png. Encoding runs on a
// bounded number of goroutines; WriteFrame blocks when all are busy.
type PNGSink struct {
	dir     string
	pool    *system.ImagePool
	g       *errgroup.Group
	ctx     context.Context
	encoder png.Encoder
	written atomic.Int64
}

func NewPNGSink(ctx context.Context, dir string, workers int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &PNGSink{
		dir:     dir,
		pool:    system.NewImagePool(),
		g:       g,
		ctx:     gctx,
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// FramePath returns the file a frame index is written to.
func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%05d.png", index))
}

func (s *PNGSink) WriteFrame(ctx context.Context, index int, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		// an earlier frame failed
		return s.g.Wait()
	}

	b := img.Bounds()
	frame := s.pool.Get(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Rect, img, b.Min, draw.Src)

	path := FramePath(s.dir, index)
	s.g.Go(func() error {
		defer s.pool.Put(frame)
		if err := s.ctx.Err(); err != nil {
			return err
		}
		if err := s.writeFile(path, frame); err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
		s.written.Add(1)
		return nil
	})
	return nil
}

func (s *PNGSink) writeFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := s.encoder.Encode(w, img); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Frames returns the number of files written so far.
func (s *PNGSink) Frames() int {
	return int(s.written.Load())
}

// Close waits for pending encodes and returns the first error.
func (s *PNGSink) Close() error {
	return s.g.Wait()
}
