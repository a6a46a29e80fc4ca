package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/wudi/pdfstudio/observability"
	"github.com/wudi/pdfstudio/raster"
)

// Surface is the display target for full-page renders.
type Surface interface {
	SetImage(*image.RGBA)
	SetPageLabel(current, total int)
	Size() (w, h int)
	Clear()
}

// ThumbnailPanel is the display target for per-page thumbnails.
type ThumbnailPanel interface {
	SetThumbnail(pageNumber int, img *image.RGBA)
	Highlight(pageNumber int)
	Clear()
}

const (
	MinZoom  = 0.25
	MaxZoom  = 4.0
	ZoomStep = 0.25

	// baseScale converts PDF points to device pixels at 100% zoom.
	baseScale = 96.0 / 72.0

	thumbnailScale  = 0.25
	thumbnailMaxDim = 160
)

// Viewer coordinates page rendering for one surface. At most one full-page
// render is in flight at a time: a new request cancels the previous one, and
// a superseded render's cancellation is swallowed as a non-event. Thumbnail
// renders run independently with bounded concurrency.
type Viewer struct {
	surface Surface
	panel   ThumbnailPanel
	logger  observability.Logger

	thumbWorkers int

	mu           sync.Mutex
	zoom         float64
	renderGen    uint64
	cancelRender context.CancelFunc
}

// ViewerOption configures a Viewer.
type ViewerOption func(*Viewer)

// WithViewerLogger sets the viewer's logger.
func WithViewerLogger(l observability.Logger) ViewerOption {
	return func(v *Viewer) { v.logger = l }
}

// WithThumbnailWorkers bounds the thumbnail render fan-out.
func WithThumbnailWorkers(n int) ViewerOption {
	return func(v *Viewer) {
		if n > 0 {
			v.thumbWorkers = n
		}
	}
}

func NewViewer(surface Surface, panel ThumbnailPanel, opts ...ViewerOption) *Viewer {
	v := &Viewer{
		surface:      surface,
		panel:        panel,
		logger:       observability.NopLogger{},
		thumbWorkers: 4,
		zoom:         1.0,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Zoom returns the current zoom factor.
func (v *Viewer) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// SetZoom clamps z to [MinZoom, MaxZoom], applies it and re-renders the
// current page only.
func (v *Viewer) SetZoom(ctx context.Context, doc *Document, z float64) error {
	v.mu.Lock()
	v.zoom = clampZoom(z)
	v.mu.Unlock()
	return v.RenderCurrentPage(ctx, doc)
}

func (v *Viewer) ZoomIn(ctx context.Context, doc *Document) error {
	return v.SetZoom(ctx, doc, v.Zoom()+ZoomStep)
}

func (v *Viewer) ZoomOut(ctx context.Context, doc *Document) error {
	return v.SetZoom(ctx, doc, v.Zoom()-ZoomStep)
}

// FitToPage derives the zoom from the ratio of the surface dimensions to the
// current page's native size, clamps it, and re-renders.
func (v *Viewer) FitToPage(ctx context.Context, doc *Document) error {
	if doc == nil {
		return nil
	}
	pw, ph, err := doc.Raster().PageSize(doc.CurrentPage())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	sw, sh := v.surface.Size()
	if pw <= 0 || ph <= 0 || sw <= 0 || sh <= 0 {
		return nil
	}
	zw := float64(sw) / (pw * baseScale)
	zh := float64(sh) / (ph * baseScale)
	z := zw
	if zh < z {
		z = zh
	}
	return v.SetZoom(ctx, doc, z)
}

// RenderCurrentPage renders doc's current page to the surface. If a render is
// already in flight for this surface it is cancelled first; the most recent
// request always wins, and a superseded render never overwrites a newer
// result.
func (v *Viewer) RenderCurrentPage(ctx context.Context, doc *Document) error {
	if doc == nil {
		return nil
	}
	v.mu.Lock()
	if v.cancelRender != nil {
		v.cancelRender()
	}
	rctx, cancel := context.WithCancel(ctx)
	v.cancelRender = cancel
	v.renderGen++
	gen := v.renderGen
	scale := v.zoom * baseScale
	v.mu.Unlock()

	img, err := doc.Raster().RenderPage(rctx, doc.CurrentPage(), scale)

	v.mu.Lock()
	won := gen == v.renderGen
	if won {
		// This task settled while still being the tracked one; clear it.
		v.cancelRender = nil
	}
	v.mu.Unlock()
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Expected when superseded or cleared; never surfaced.
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if !won {
		// Finished after being superseded: drop the stale pixels.
		return nil
	}
	v.surface.SetImage(img)
	v.surface.SetPageLabel(doc.CurrentPage(), doc.PageCount())
	return nil
}

// RenderThumbnails renders every page into the thumbnail panel with bounded
// concurrency. Thumbnails are independent of the main-page render task and
// are not cancelled by it.
func (v *Viewer) RenderThumbnails(ctx context.Context, doc *Document) error {
	if doc == nil {
		return nil
	}
	count := doc.PageCount()
	sem := make(chan struct{}, v.thumbWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for n := 1; n <= count; n++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			img, err := doc.Raster().RenderPage(ctx, page, thumbnailScale*baseScale)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("thumbnail page %d: %w", page, err)
					}
					mu.Unlock()
					v.logger.Warn("thumbnail render failed",
						observability.Int("page", page), observability.Error("err", err))
				}
				return
			}
			v.panel.SetThumbnail(page, raster.Downscale(img, thumbnailMaxDim))
		}(n)
	}
	wg.Wait()
	if firstErr != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, firstErr)
	}
	v.panel.Highlight(doc.CurrentPage())
	return nil
}

// GoToPage clamps n to the document's page range and, when the page actually
// changes, re-renders the current page and updates the thumbnail highlight.
func (v *Viewer) GoToPage(ctx context.Context, doc *Document, n int) error {
	if doc == nil {
		return nil
	}
	prev := doc.CurrentPage()
	applied := doc.SetCurrentPage(n)
	if applied == prev {
		return nil
	}
	v.panel.Highlight(applied)
	return v.RenderCurrentPage(ctx, doc)
}

// Clear cancels any in-flight render and empties both display targets.
// Called when no document is active.
func (v *Viewer) Clear() {
	v.mu.Lock()
	if v.cancelRender != nil {
		v.cancelRender()
		v.cancelRender = nil
	}
	v.renderGen++
	v.mu.Unlock()
	v.surface.Clear()
	v.panel.Clear()
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
