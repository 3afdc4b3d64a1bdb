package source

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the PDF user space unit.
const pointsPerInch = 72

// Document is an indexed set of pages that render to images.
type Document interface {
	Len() int
	// Size is the natural page size: pixels for raster files, points for
	// PDF pages.
	Size(index int) (image.Point, error)
	Render(index int, dpi int) (image.Image, error)
	Close() error
}

// PDF renders the pages of a PDF document through MuPDF.
type PDF struct {
	mu    sync.Mutex
	doc   *fitz.Document
	path  string
	pages int
}

func OpenPDF(path string) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &PDF{doc: doc, path: path, pages: doc.NumPage()}, nil
}

func (p *PDF) Len() int {
	return p.pages
}

func (p *PDF) Size(index int) (image.Point, error) {
	if index < 0 || index >= p.pages {
		return image.Point{}, fmt.Errorf("%s: page %d out of range", p.path, index+1)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rect, err := p.doc.Bound(index)
	if err != nil {
		return image.Point{}, err
	}
	return rect.Size(), nil
}

// Render opens a separate document per call: a fitz.Document is not safe
// for concurrent use and loader workers render pages in parallel.
func (p *PDF) Render(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= p.pages {
		return nil, fmt.Errorf("%s: page %d out of range", p.path, index+1)
	}
	doc, err := fitz.New(p.path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.ImageDPI(index, float64(dpi))
}

func (p *PDF) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Close()
}

// FitDPI returns the resolution at which a page of pts points renders
// width pixels wide, capped at maxDPI. A zero width or page keeps maxDPI.
func FitDPI(pts image.Point, width, maxDPI int) int {
	if width <= 0 || pts.X <= 0 {
		return maxDPI
	}
	dpi := int(math.Ceil(float64(width) * pointsPerInch / float64(pts.X)))
	if dpi > maxDPI {
		return maxDPI
	}
	if dpi < 1 {
		return 1
	}
	return dpi
}
