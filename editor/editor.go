// Package editor implements the multi-document PDF editing core: the
// document registry with its undo/redo discipline, the render coordinator,
// and the OCR task controller. The UI layer drives it through method calls
// and observes it through typed lifecycle events; the codec, rasterizer and
// OCR engine sit behind small interfaces so embedders can replace them.
package editor

import (
	"context"
	"fmt"
	"image"

	"github.com/wudi/pdfstudio/codec"
	"github.com/wudi/pdfstudio/raster"
)

// Codec parses byte buffers into page-addressable handles.
type Codec interface {
	Parse(ctx context.Context, data []byte) (CodecHandle, error)
}

// CodecHandle is an open parse session over one byte buffer.
type CodecHandle interface {
	PageCount() int
	Close() error
}

// Rasterizer opens byte buffers for page rendering.
type Rasterizer interface {
	Open(ctx context.Context, data []byte) (RasterHandle, error)
}

// RasterHandle renders pages of one byte buffer. Release must be idempotent;
// the registry relies on being able to call it on every teardown path.
type RasterHandle interface {
	PageCount() int
	PageSize(pageNumber int) (w, h float64, err error)
	RenderPage(ctx context.Context, pageNumber int, scale float64) (*image.RGBA, error)
	Release()
}

// nativeCodec adapts the codec package to the Codec boundary.
type nativeCodec struct{}

func (nativeCodec) Parse(ctx context.Context, data []byte) (CodecHandle, error) {
	doc, err := codec.Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	return nativeCodecHandle{doc: doc}, nil
}

type nativeCodecHandle struct{ doc *codec.Document }

func (h nativeCodecHandle) PageCount() int { return h.doc.PageCount() }
func (h nativeCodecHandle) Close() error   { return nil }

// nativeRasterizer adapts the raster package to the Rasterizer boundary.
type nativeRasterizer struct{}

func (nativeRasterizer) Open(ctx context.Context, data []byte) (RasterHandle, error) {
	h, err := raster.Open(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	return h, nil
}
