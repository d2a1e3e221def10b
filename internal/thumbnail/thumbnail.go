package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks image bytes that could not be turned into a Bitmap.
var ErrDecode = errors.New("decode image")

// Bitmap is a decoded, displayable image. Bitmaps are immutable once built.
type Bitmap struct {
	img    image.Image
	format string
}

func (b *Bitmap) Image() image.Image {
	return b.img
}

func (b *Bitmap) Format() string {
	return b.format
}

func (b *Bitmap) Size() (int, int) {
	r := b.img.Bounds()
	return r.Dx(), r.Dy()
}

// IsPlaceholder reports whether b is the shared loading image.
func (b *Bitmap) IsPlaceholder() bool {
	return b == placeholder
}

// MaxSide bounds each dimension of a decodable image. Headers are checked
// before any pixel buffer is allocated.
const MaxSide = 4096

// Decode turns raw image bytes (png, jpeg, gif, bmp, webp) into a Bitmap.
func Decode(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit %dx%d", ErrDecode, format, cfg.Width, cfg.Height, MaxSide, MaxSide)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if r := img.Bounds(); r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	return &Bitmap{img: img, format: format}, nil
}

const placeholderSize = 16

var placeholder = newPlaceholder()

// Placeholder returns the single loading image shared by every entry that has
// no thumbnail yet.
func Placeholder() *Bitmap {
	return placeholder
}

func newPlaceholder() *Bitmap {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	light := color.RGBA{R: 0x58, G: 0x5b, B: 0x70, A: 0xff}
	dark := color.RGBA{R: 0x31, G: 0x32, B: 0x44, A: 0xff}
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return &Bitmap{img: img, format: "placeholder"}
}
