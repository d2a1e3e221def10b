package view

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glabrego/infopanel/internal/thumbnail"
)

// Thumbnails are drawn with upper half blocks: every cell shows two vertically
// stacked pixels, the top one as foreground and the bottom one as background.
const halfBlock = "▀"

type thumbKey struct {
	bmp        *thumbnail.Bitmap
	cols, rows int
}

// ThumbnailRenderer turns bitmaps into terminal cells. Results are cached per
// bitmap and size since a frame redraws every visible thumbnail.
type ThumbnailRenderer struct {
	cache *lru.Cache[thumbKey, []string]
}

func NewThumbnailRenderer(size int) (*ThumbnailRenderer, error) {
	cache, err := lru.New[thumbKey, []string](size)
	if err != nil {
		return nil, fmt.Errorf("create thumbnail cache: %w", err)
	}
	return &ThumbnailRenderer{cache: cache}, nil
}

// Render returns rows lines, each cols cells wide. A nil bitmap renders as
// the placeholder.
func (r *ThumbnailRenderer) Render(bmp *thumbnail.Bitmap, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	if bmp == nil {
		bmp = thumbnail.Placeholder()
	}
	key := thumbKey{bmp: bmp, cols: cols, rows: rows}
	if lines, ok := r.cache.Get(key); ok {
		return lines
	}
	lines := renderHalfBlocks(bmp.Image(), cols, rows)
	r.cache.Add(key, lines)
	return lines
}

func (r *ThumbnailRenderer) cached() int {
	return r.cache.Len()
}

func renderHalfBlocks(img image.Image, cols, rows int) []string {
	bounds := img.Bounds()
	pxRows := rows * 2
	lines := make([]string, rows)
	for row := 0; row < rows; row++ {
		var b strings.Builder
		for col := 0; col < cols; col++ {
			top := sample(img, bounds, col, row*2, cols, pxRows)
			bottom := sample(img, bounds, col, row*2+1, cols, pxRows)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom))).
				Render(halfBlock))
		}
		lines[row] = b.String()
	}
	return lines
}

// sample picks the nearest source pixel for cell (x, y) of a w×h grid.
func sample(img image.Image, bounds image.Rectangle, x, y, w, h int) color.Color {
	sx := bounds.Min.X + (2*x+1)*bounds.Dx()/(2*w)
	sy := bounds.Min.Y + (2*y+1)*bounds.Dy()/(2*h)
	return img.At(sx, sy)
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
