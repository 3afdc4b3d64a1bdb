package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImagePath reports whether path has a supported image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Images is a file or a directory of image files, sorted by name.
type Images struct {
	paths []string
}

func OpenImages(path string) (*Images, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return &Images{paths: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && IsImagePath(entry.Name()) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)
	return &Images{paths: paths}, nil
}

func (s *Images) Len() int {
	return len(s.paths)
}

// Paths returns the files in display order.
func (s *Images) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Size reads the image header only.
func (s *Images) Size(index int) (image.Point, error) {
	if index < 0 || index >= len(s.paths) {
		return image.Point{}, fmt.Errorf("image %d out of range", index)
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return image.Point{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// Render decodes the image; dpi is ignored for raster files.
func (s *Images) Render(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("image %d out of range", index)
	}
	return decodeFile(s.paths[index])
}

func (s *Images) Close() error {
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
