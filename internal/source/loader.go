package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

var ErrNoImages = errors.New("no images to load")

// Loader resolves an ordered list of identifiers to decoded images in the
// same order. A failure on any identifier fails the whole load.
type Loader interface {
	Load(ctx context.Context, ids []string) ([]image.Image, error)
}

// FileLoader loads image files, directories of images, whole PDF
// documents and single PDF pages ("doc.pdf#3", 1-based).
type FileLoader struct {
	Workers int
	// DPI is the PDF render resolution. With Width set it is an upper
	// bound and pages render just wide enough to fill Width pixels.
	DPI   int
	Width int
}

func NewFileLoader(workers, dpi int) *FileLoader {
	return &FileLoader{Workers: workers, DPI: dpi}
}

type loadItem struct {
	id     string
	render func() (image.Image, error)
}

func (l *FileLoader) Load(ctx context.Context, ids []string) ([]image.Image, error) {
	items, closeAll, err := l.expand(ids)
	defer closeAll()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoImages
	}

	workers := l.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	images := make([]image.Image, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := it.render()
			if err != nil {
				return fmt.Errorf("load %s: %w", it.id, err)
			}
			if err := checkImage(img); err != nil {
				return fmt.Errorf("load %s: %w", it.id, err)
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// Count returns how many images ids expand to without decoding them.
func (l *FileLoader) Count(ids []string) (int, error) {
	items, closeAll, err := l.expand(ids)
	defer closeAll()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (l *FileLoader) expand(ids []string) ([]loadItem, func(), error) {
	var (
		items   []loadItem
		closers []func() error
		docs    = make(map[string]*PDF)
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	ids, err := expandPatterns(ids)
	if err != nil {
		return nil, closeAll, err
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 150
	}

	openPDF := func(path string) (*PDF, error) {
		if doc, ok := docs[path]; ok {
			return doc, nil
		}
		doc, err := OpenPDF(path)
		if err != nil {
			return nil, err
		}
		docs[path] = doc
		closers = append(closers, doc.Close)
		return doc, nil
	}

	for _, id := range ids {
		path, page, err := ParseRef(id)
		if err != nil {
			return nil, closeAll, err
		}

		if IsPDFPath(path) {
			doc, err := openPDF(path)
			if err != nil {
				return nil, closeAll, err
			}
			if page > 0 {
				if page > doc.Len() {
					return nil, closeAll, fmt.Errorf("%s: page %d of %d", path, page, doc.Len())
				}
				items = append(items, l.pdfItem(id, doc, page-1, dpi))
				continue
			}
			for p := 0; p < doc.Len(); p++ {
				items = append(items, l.pdfItem(fmt.Sprintf("%s#%d", path, p+1), doc, p, dpi))
			}
			continue
		}

		fi, err := os.Stat(path)
		if err != nil {
			return nil, closeAll, err
		}
		if !fi.IsDir() {
			p := path
			items = append(items, loadItem{id: id, render: func() (image.Image, error) { return decodeFile(p) }})
			continue
		}

		src, err := OpenImages(path)
		if err != nil {
			return nil, closeAll, err
		}
		for _, p := range src.Paths() {
			items = append(items, loadItem{id: p, render: func() (image.Image, error) { return decodeFile(p) }})
		}
	}
	return items, closeAll, nil
}

func (l *FileLoader) pdfItem(id string, doc *PDF, index, dpi int) loadItem {
	return loadItem{id: id, render: func() (image.Image, error) {
		if l.Width > 0 {
			pts, err := doc.Size(index)
			if err != nil {
				return nil, err
			}
			dpi = FitDPI(pts, l.Width, dpi)
		}
		return doc.Render(index, dpi)
	}}
}

// expandPatterns replaces glob identifiers ("slides/*.png", "deck-{1,2}.pdf")
// with the matching files of their directory in name order. Matching is
// case-insensitive; a pattern without matches is an error.
func expandPatterns(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		dir, pattern := filepath.Split(id)
		if !strings.ContainsAny(pattern, "*?[{") {
			out = append(out, id)
			continue
		}
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("malformed pattern %q: %w", id, err)
		}
		if dir == "" {
			dir = "."
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		n := len(out)
		for _, e := range entries {
			if !e.IsDir() && g.Match(strings.ToLower(e.Name())) {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		if len(out) == n {
			return nil, fmt.Errorf("%s: no matches: %w", id, os.ErrNotExist)
		}
	}
	return out, nil
}

// IsPDFPath reports whether path names a PDF document.
func IsPDFPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// ParseRef splits "doc.pdf#3" into its path and 1-based page. Page is 0
// when the identifier has no page reference; '#' in other file names is
// part of the name.
func ParseRef(id string) (string, int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", 0, errors.New("empty source identifier")
	}
	i := strings.LastIndexByte(id, '#')
	if i < 0 {
		return id, 0, nil
	}
	path, frag := id[:i], id[i+1:]
	if !IsPDFPath(path) {
		return id, 0, nil
	}
	page, err := strconv.Atoi(frag)
	if err != nil || page < 1 {
		return "", 0, fmt.Errorf("%s: bad page reference %q", id, frag)
	}
	return path, page, nil
}

func checkImage(img image.Image) error {
	if img == nil {
		return errors.New("decoder returned no image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}
	return nil
}

// MemoryLoader serves pre-decoded images by identifier.
type MemoryLoader map[string]image.Image

func (m MemoryLoader) Load(ctx context.Context, ids []string) ([]image.Image, error) {
	if len(ids) == 0 {
		return nil, ErrNoImages
	}
	out := make([]image.Image, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, ok := m[id]
		if !ok {
			return nil, fmt.Errorf("load %s: %w", id, os.ErrNotExist)
		}
		if err := checkImage(img); err != nil {
			return nil, fmt.Errorf("load %s: %w", id, err)
		}
		out = append(out, img)
	}
	return out, nil
}
