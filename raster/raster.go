// Package raster renders PDF pages to pixel surfaces. It implements the
// rasterizer boundary the editor core depends on: open a byte buffer, render
// numbered pages at a scale, release explicitly.
//
// The native handle rasterizes page geometry only (size, rotation, paper
// background); it does not paint content streams. Embedders with a full
// renderer plug it in behind the editor's RasterHandle interface instead.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfstudio/codec"
)

// ErrReleased reports a render attempt on a handle that was already released.
var ErrReleased = errors.New("raster handle released")

// Handle is an open rasterization session over one byte buffer. It must be
// released when the buffer it was opened for is replaced or closed.
type Handle struct {
	mu       sync.Mutex
	doc      *codec.Document
	released bool
}

// Open parses data and returns a render handle for it.
func Open(ctx context.Context, data []byte) (*Handle, error) {
	doc, err := codec.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("open rasterizer: %w", err)
	}
	return &Handle{doc: doc}, nil
}

// PageCount returns the page count of the underlying document, or 0 after
// release.
func (h *Handle) PageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0
	}
	return h.doc.PageCount()
}

// PageSize returns the unrotated size in points of pageNumber (1-based).
func (h *Handle) PageSize(pageNumber int) (w, h2 float64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, 0, ErrReleased
	}
	return h.doc.PageSize(pageNumber - 1)
}

// RenderPage rasterizes pageNumber (1-based) at the given scale, honoring the
// page's rotation. Cancelling ctx aborts the render with ctx.Err().
func (h *Handle) RenderPage(ctx context.Context, pageNumber int, scale float64) (*image.RGBA, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %g", scale)
	}
	idx := pageNumber - 1
	w, ht, err := h.doc.PageSize(idx)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageNumber, err)
	}
	rot, err := h.doc.PageRotation(idx)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageNumber, err)
	}
	if rot == 90 || rot == 270 {
		w, ht = ht, w
	}
	pxW, pxH := int(w*scale+0.5), int(ht*scale+0.5)
	if pxW < 1 {
		pxW = 1
	}
	if pxH < 1 {
		pxH = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, pxW, pxH))
	paper := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	edge := color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	for y := 0; y < pxH; y++ {
		// A cancellation check every row keeps large renders responsive
		// without measurable cost on small ones.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < pxW; x++ {
			if x == 0 || y == 0 || x == pxW-1 || y == pxH-1 {
				img.SetRGBA(x, y, edge)
			} else {
				img.SetRGBA(x, y, paper)
			}
		}
	}
	return img, nil
}

// Release frees the handle. It is idempotent and never fails; renders issued
// afterwards return ErrReleased.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	h.doc = nil
}

// Downscale resizes img so its longest edge is at most maxDim pixels,
// preserving aspect ratio. Images already small enough are returned as-is.
func Downscale(img *image.RGBA, maxDim int) *image.RGBA {
	if img == nil || maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}
	ratio := float64(maxDim) / float64(longest)
	dw, dh := int(float64(w)*ratio+0.5), int(float64(h)*ratio+0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
