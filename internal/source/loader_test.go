package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wader/osleaktest"
)

// leakChecks fails the test on leaked goroutines, file descriptors or temp
// files. Fixtures come from fixtureDir, whose removal is deferred after the
// check and so runs before it.
func leakChecks(t *testing.T) func() {
	leakFn := leaktest.Check(t)
	osLeakFn := osleaktest.Check(t)
	return func() {
		leakFn()
		osLeakFn()
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "fadescroll-source")
	require.NoError(t, err)
	return dir
}

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFileLoaderPreservesOrder(t *testing.T) {
	defer leakChecks(t)()

	dir := fixtureDir(t)
	defer os.RemoveAll(dir)
	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.Mkdir(frames, 0755))

	// directory entries load sorted by name
	writePNG(t, filepath.Join(frames, "b.png"), 20, 10, color.RGBA{0, 255, 0, 255})
	writePNG(t, filepath.Join(frames, "a.png"), 10, 10, color.RGBA{255, 0, 0, 255})
	require.NoError(t, os.WriteFile(filepath.Join(frames, "notes.txt"), []byte("skip"), 0644))

	single := filepath.Join(dir, "cover#1.png")
	writePNG(t, single, 30, 10, color.RGBA{0, 0, 255, 255})

	l := NewFileLoader(4, 0)
	ids := []string{single, frames}

	n, err := l.Count(ids)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	images, err := l.Load(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, images, 3)

	widths := []int{images[0].Bounds().Dx(), images[1].Bounds().Dx(), images[2].Bounds().Dx()}
	assert.Equal(t, []int{30, 10, 20}, widths)
}

func TestFileLoaderFailures(t *testing.T) {
	defer leakChecks(t)()

	dir := fixtureDir(t)
	defer os.RemoveAll(dir)
	good := filepath.Join(dir, "good.png")
	writePNG(t, good, 4, 4, color.RGBA{255, 255, 255, 255})
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))

	l := NewFileLoader(2, 72)

	_, err := l.Load(context.Background(), []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")

	_, err = l.Load(context.Background(), []string{filepath.Join(dir, "missing.png")})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = l.Load(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoImages))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	_, err = l.Load(context.Background(), []string{empty})
	assert.True(t, errors.Is(err, ErrNoImages))
}

func TestFileLoaderCancelled(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	writePNG(t, p, 4, 4, color.RGBA{1, 2, 3, 255})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileLoader(1, 0).Load(ctx, []string{p, p, p})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.png", "c.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0755))

	ids, err := expandPatterns([]string{
		filepath.Join(dir, "*.png"),
		"cover.pdf#2",
		filepath.Join(dir, "{c,x}.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.PNG"),
		"cover.pdf#2",
		filepath.Join(dir, "c.jpg"),
	}, ids)

	_, err = expandPatterns([]string{filepath.Join(dir, "*.gif")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = expandPatterns([]string{filepath.Join(dir, "[a.png")})
	assert.Error(t, err)
}

func TestFileLoaderPattern(t *testing.T) {
	defer leakChecks(t)()

	dir := fixtureDir(t)
	defer os.RemoveAll(dir)
	writePNG(t, filepath.Join(dir, "2.png"), 4, 2, color.RGBA{0, 0, 255, 255})
	writePNG(t, filepath.Join(dir, "1.png"), 4, 2, color.RGBA{255, 0, 0, 255})

	l := NewFileLoader(2, 72)
	images, err := l.Load(context.Background(), []string{filepath.Join(dir, "*.png")})
	require.NoError(t, err)
	require.Len(t, images, 2)
	r, _, b, _ := images[0].At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, b)

	n, err := l.Count([]string{filepath.Join(dir, "?.png")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		id      string
		path    string
		page    int
		wantErr bool
	}{
		{"slides.pdf", "slides.pdf", 0, false},
		{"slides.pdf#3", "slides.pdf", 3, false},
		{" deck.PDF#12 ", "deck.PDF", 12, false},
		{"photo#1.png", "photo#1.png", 0, false},
		{"slides.pdf#0", "", 0, true},
		{"slides.pdf#x", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			path, page, err := ParseRef(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.page, page)
		})
	}
}

func TestImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "2.png"), 8, 6, color.RGBA{A: 255})
	writePNG(t, filepath.Join(dir, "1.png"), 4, 3, color.RGBA{A: 255})

	var src Document
	src, err := OpenImages(dir)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.Len())
	size, err := src.Size(0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 3), size)

	img, err := src.Render(1, 300)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())

	_, err = src.Render(5, 300)
	assert.Error(t, err)
	_, err = src.Size(-1)
	assert.Error(t, err)

	assert.True(t, IsImagePath("x.WEBP"))
	assert.False(t, IsImagePath("x.pdf"))
}

func TestFitDPI(t *testing.T) {
	a4 := image.Pt(595, 842)
	assert.Equal(t, 155, FitDPI(a4, 1280, 300))
	assert.Equal(t, 150, FitDPI(a4, 1280, 150))
	assert.Equal(t, 300, FitDPI(a4, 0, 300))
	assert.Equal(t, 300, FitDPI(image.Point{}, 1280, 300))
	assert.Equal(t, 1, FitDPI(image.Pt(100000, 1), 1, 300))
}

func TestMemoryLoader(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m := MemoryLoader{"a": a, "empty": image.NewRGBA(image.Rectangle{})}

	images, err := m.Load(context.Background(), []string{"a", "a"})
	require.NoError(t, err)
	assert.Len(t, images, 2)

	_, err = m.Load(context.Background(), []string{"b"})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = m.Load(context.Background(), []string{"empty"})
	assert.Error(t, err)

	_, err = m.Load(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoImages))
}
