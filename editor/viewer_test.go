package editor

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"
	"time"
)

type fakeSurface struct {
	mu       sync.Mutex
	images   int
	last     *image.RGBA
	labelCur int
	labelTot int
	cleared  bool
	w, h     int
}

func (s *fakeSurface) SetImage(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images++
	s.last = img
}

func (s *fakeSurface) SetPageLabel(cur, tot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labelCur, s.labelTot = cur, tot
}

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

func (s *fakeSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = true
}

type fakePanel struct {
	mu        sync.Mutex
	thumbs    map[int]*image.RGBA
	highlight int
	cleared   bool
}

func newFakePanel() *fakePanel { return &fakePanel{thumbs: make(map[int]*image.RGBA)} }

func (p *fakePanel) SetThumbnail(page int, img *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thumbs[page] = img
}

func (p *fakePanel) Highlight(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.highlight = page
}

func (p *fakePanel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = true
}

// fakeRaster renders trivially and can be told to block until its context is
// cancelled, to simulate a slow rasterizer.
type fakeRaster struct {
	pages int

	mu        sync.Mutex
	blockNext bool
	started   chan struct{} // signalled when a blocking render begins
	active    int
	maxActive int
	renders   int
}

func (f *fakeRaster) PageCount() int { return f.pages }

func (f *fakeRaster) PageSize(int) (float64, float64, error) { return 600, 800, nil }

func (f *fakeRaster) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	f.mu.Lock()
	f.renders++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	block := f.blockNext
	f.blockNext = false
	started := f.started
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if block {
		if started != nil {
			close(started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, int(10*scale)+1, int(10*scale)+1)), nil
}

func (f *fakeRaster) Release() {}

type nopCodecHandle struct{ pages int }

func (h nopCodecHandle) PageCount() int { return h.pages }
func (h nopCodecHandle) Close() error   { return nil }

func fakeDocument(pages int, rh RasterHandle) *Document {
	return &Document{
		id:       1,
		fileName: "fake.pdf",
		parsed:   nopCodecHandle{pages: pages},
		rasterH:  rh,
		current:  1,
	}
}

func TestRenderCancellationSecondWins(t *testing.T) {
	fr := &fakeRaster{pages: 1}
	fr.blockNext = true
	fr.started = make(chan struct{})
	surface := &fakeSurface{w: 800, h: 600}
	v := NewViewer(surface, newFakePanel())
	doc := fakeDocument(1, fr)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- v.RenderCurrentPage(context.Background(), doc)
	}()
	<-fr.started

	// The second request must cancel the first and win.
	if err := v.RenderCurrentPage(context.Background(), doc); err != nil {
		t.Fatalf("second RenderCurrentPage() error = %v", err)
	}
	if err := <-firstDone; err != nil {
		t.Fatalf("superseded render returned error = %v, want nil no-op", err)
	}
	if surface.images != 1 {
		t.Fatalf("surface received %d images, want exactly 1", surface.images)
	}
	if surface.labelCur != 1 || surface.labelTot != 1 {
		t.Fatalf("page label = %d/%d, want 1/1", surface.labelCur, surface.labelTot)
	}
}

func TestRenderThumbnailsBoundedConcurrency(t *testing.T) {
	fr := &fakeRaster{pages: 12}
	panel := newFakePanel()
	v := NewViewer(&fakeSurface{}, panel, WithThumbnailWorkers(3))
	doc := fakeDocument(12, fr)

	if err := v.RenderThumbnails(context.Background(), doc); err != nil {
		t.Fatalf("RenderThumbnails() error = %v", err)
	}
	if len(panel.thumbs) != 12 {
		t.Fatalf("got %d thumbnails, want 12", len(panel.thumbs))
	}
	if fr.maxActive > 3 {
		t.Fatalf("observed %d concurrent renders, want at most 3", fr.maxActive)
	}
	if panel.highlight != 1 {
		t.Fatalf("highlight = %d, want current page 1", panel.highlight)
	}
}

func TestZoomClamping(t *testing.T) {
	fr := &fakeRaster{pages: 1}
	v := NewViewer(&fakeSurface{}, newFakePanel())
	doc := fakeDocument(1, fr)
	ctx := context.Background()

	if err := v.SetZoom(ctx, doc, 99); err != nil {
		t.Fatalf("SetZoom() error = %v", err)
	}
	if got := v.Zoom(); got != MaxZoom {
		t.Fatalf("Zoom() = %g, want clamped to %g", got, MaxZoom)
	}
	if err := v.SetZoom(ctx, doc, 0); err != nil {
		t.Fatalf("SetZoom() error = %v", err)
	}
	if got := v.Zoom(); got != MinZoom {
		t.Fatalf("Zoom() = %g, want clamped to %g", got, MinZoom)
	}
	if err := v.ZoomOut(ctx, doc); err != nil {
		t.Fatalf("ZoomOut() error = %v", err)
	}
	if got := v.Zoom(); got != MinZoom {
		t.Fatalf("Zoom() below minimum = %g, want %g", got, MinZoom)
	}
}

func TestFitToPage(t *testing.T) {
	fr := &fakeRaster{pages: 1}
	surface := &fakeSurface{w: 400, h: 400}
	v := NewViewer(surface, newFakePanel())
	doc := fakeDocument(1, fr)

	if err := v.FitToPage(context.Background(), doc); err != nil {
		t.Fatalf("FitToPage() error = %v", err)
	}
	// Page is 600x800pt; the height ratio is the binding one.
	want := 400.0 / (800.0 * baseScale)
	if math.Abs(v.Zoom()-want) > 1e-9 {
		t.Fatalf("Zoom() = %g, want %g", v.Zoom(), want)
	}
}

func TestGoToPageClamps(t *testing.T) {
	fr := &fakeRaster{pages: 5}
	panel := newFakePanel()
	v := NewViewer(&fakeSurface{}, panel)
	doc := fakeDocument(5, fr)
	ctx := context.Background()

	if err := v.GoToPage(ctx, doc, 99); err != nil {
		t.Fatalf("GoToPage() error = %v", err)
	}
	if got := doc.CurrentPage(); got != 5 {
		t.Fatalf("CurrentPage() = %d, want clamped to 5", got)
	}
	if panel.highlight != 5 {
		t.Fatalf("highlight = %d, want 5", panel.highlight)
	}
	renders := fr.renders
	if err := v.GoToPage(ctx, doc, 5); err != nil {
		t.Fatalf("GoToPage() error = %v", err)
	}
	if fr.renders != renders {
		t.Fatalf("GoToPage to the same page must not re-render")
	}
}

func TestClearCancelsInFlight(t *testing.T) {
	fr := &fakeRaster{pages: 1}
	fr.blockNext = true
	fr.started = make(chan struct{})
	surface := &fakeSurface{}
	panel := newFakePanel()
	v := NewViewer(surface, panel)
	doc := fakeDocument(1, fr)

	done := make(chan error, 1)
	go func() {
		done <- v.RenderCurrentPage(context.Background(), doc)
	}()
	<-fr.started
	v.Clear()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled render returned error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("render did not unblock after Clear()")
	}
	if !surface.cleared || !panel.cleared {
		t.Fatalf("Clear() must clear surface and panel")
	}
	if surface.images != 0 {
		t.Fatalf("cancelled render must not publish an image")
	}
}

func TestRenderErrorPropagates(t *testing.T) {
	v := NewViewer(&fakeSurface{}, newFakePanel())
	doc := fakeDocument(1, failingRaster{})
	err := v.RenderCurrentPage(context.Background(), doc)
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("RenderCurrentPage() error = %v, want ErrRenderFailed", err)
	}
}

type failingRaster struct{}

func (failingRaster) PageCount() int                          { return 1 }
func (failingRaster) PageSize(int) (float64, float64, error)  { return 0, 0, errors.New("boom") }
func (failingRaster) Release()                                {}
func (failingRaster) RenderPage(context.Context, int, float64) (*image.RGBA, error) {
	return nil, errors.New("boom")
}
