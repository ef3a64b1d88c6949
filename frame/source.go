package frame

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	// Registered decoders, stdlib and extended.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source supplies one frame's content for staging.
//
// Key identifies the content: the Stager uses it to coalesce repeated
// stages of the same frame and as the decode-cache key. Two sources
// with equal keys must decode to the same pixels.
type Source interface {
	Key() string
	// Image decodes the source. Called at most once per staging; the
	// result may be cached under Key.
	Image() (image.Image, error)
}

// FileSource reads a frame from disk, auto-detecting the format.
// Supported: png, jpeg, gif, bmp, tiff, webp.
type FileSource struct {
	Path string
}

// Key implements Source.
func (s FileSource) Key() string { return "file:" + s.Path }

// Image implements Source.
func (s FileSource) Image() (image.Image, error) {
	f, err := os.Open(filepath.Clean(s.Path))
	if err != nil {
		return nil, fmt.Errorf("frame: open %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("frame: decode %s: %w", s.Path, err)
	}
	return img, nil
}

// ReaderSource decodes a frame from a reader. The reader is consumed on
// first decode, so a ReaderSource stages once; rely on the decode cache
// (keyed by Name) for repeats.
type ReaderSource struct {
	// Name distinguishes this content in keys and logs.
	Name string
	// R supplies the encoded image bytes.
	R io.Reader
}

// Key implements Source.
func (s ReaderSource) Key() string { return "reader:" + s.Name }

// Image implements Source.
func (s ReaderSource) Image() (image.Image, error) {
	img, _, err := image.Decode(s.R)
	if err != nil {
		return nil, fmt.Errorf("frame: decode %s: %w", s.Name, err)
	}
	return img, nil
}

// ImageSource wraps an already decoded image.
type ImageSource struct {
	// Name distinguishes this content in keys and logs.
	Name string
	// Img is the frame content.
	Img image.Image
}

// Key implements Source.
func (s ImageSource) Key() string { return "image:" + s.Name }

// Image implements Source.
func (s ImageSource) Image() (image.Image, error) {
	if s.Img == nil {
		return nil, fmt.Errorf("frame: image source %s is empty", s.Name)
	}
	return s.Img, nil
}

// toRGBA returns img as a zero-origin RGBA image, converting only when
// needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

// scaleRGBA resamples img to w×h with Catmull-Rom interpolation.
func scaleRGBA(img *image.RGBA, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}
