package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/wudi/pdfstudio/observability"
	"github.com/wudi/pdfstudio/ocr"
)

// ProgressSink receives incremental OCR session output.
type ProgressSink interface {
	// PageProgress reports rounded percent progress (0-100) for one page.
	PageProgress(pageNumber, percent int)
	// TextUpdated publishes the accumulated text after each recognized page.
	TextUpdated(accumulated string)
}

const (
	// ocrUpscale renders pages at twice their natural size for recognition
	// quality.
	ocrUpscale = 2.0

	ocrErrorPlaceholder = "[Error during OCR]"
	ocrEmptyPlaceholder = "[No text recognized]"
)

// OCRController runs text recognition over pages of a document, preferring a
// background worker and falling back to in-process recognition when one
// cannot be started.
type OCRController struct {
	engine  ocr.Engine
	workers WorkerFactory
	logger  observability.Logger
	nextID  atomic.Uint64
}

// OCROption configures an OCRController.
type OCROption func(*OCRController)

// WithEngine replaces the default recognition engine.
func WithEngine(e ocr.Engine) OCROption { return func(c *OCRController) { c.engine = e } }

// WithOCRLogger sets the controller's logger.
func WithOCRLogger(l observability.Logger) OCROption {
	return func(c *OCRController) { c.logger = l }
}

// WithWorkerFactory replaces how background workers are started.
func WithWorkerFactory(f WorkerFactory) OCROption {
	return func(c *OCRController) { c.workers = f }
}

func NewOCRController(opts ...OCROption) *OCRController {
	c := &OCRController{
		engine:  ocr.DefaultEngine(),
		workers: startOCRWorker,
		logger:  observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OCRSession is one recognition run over a page selection. Cancel may be
// called from any goroutine at any time; it takes effect before the next
// page is submitted and interrupts the worker best-effort.
type OCRSession struct {
	ctrl      *OCRController
	doc       *Document
	pages     []int
	lang      string
	id        uint64
	cancelled atomic.Bool
	cancelFn  atomic.Value // context.CancelFunc
}

// NewSession prepares a session over pageNumbers (1-based). An empty
// selection defaults to the document's current page; out-of-range numbers
// are dropped.
func (c *OCRController) NewSession(doc *Document, pageNumbers []int, lang string) *OCRSession {
	return &OCRSession{
		ctrl:  c,
		doc:   doc,
		pages: normalizePages(doc, pageNumbers),
		lang:  lang,
		id:    c.nextID.Add(1),
	}
}

// Cancel requests cooperative cancellation: no further pages are submitted,
// and any in-flight worker request is interrupted best-effort.
func (s *OCRSession) Cancel() {
	s.cancelled.Store(true)
	if f, ok := s.cancelFn.Load().(context.CancelFunc); ok {
		f()
	}
}

// Run executes the session. Pages are processed sequentially in ascending
// order; a single page's failure is recorded inline and does not abort the
// session. The returned text is also the last value published through sink.
func (s *OCRSession) Run(ctx context.Context, sink ProgressSink) (string, error) {
	c := s.ctrl
	if c.engine == nil {
		return "", ErrRecognitionUnavailable
	}
	if len(s.pages) == 0 {
		return "", fmt.Errorf("%w: no pages to recognize", ErrInvalidSelection)
	}
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancelFn.Store(cancel)

	worker, err := c.workers(c.engine)
	if err != nil {
		// Not fatal: recognition degrades to the caller's goroutine.
		c.logger.Warn("ocr worker unavailable, running in-process",
			observability.Error("err", err))
		worker = nil
	}
	defer func() {
		if worker == nil {
			return
		}
		if rerr := worker.Release(); rerr != nil {
			c.logger.Warn("ocr worker release failed", observability.Error("err", rerr))
		}
	}()

	var out strings.Builder
	for _, page := range s.pages {
		if s.cancelled.Load() {
			break
		}
		if err := sctx.Err(); err != nil {
			return out.String(), err
		}
		sink.PageProgress(page, 0)

		text, err := s.recognizePage(sctx, worker, page, sink)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			c.logger.Warn("page recognition failed",
				observability.Int("page", page), observability.Error("err", err))
			out.WriteString(pageSection(page, ocrErrorPlaceholder))
			sink.TextUpdated(out.String())
			continue
		}
		sink.PageProgress(page, 100)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out.WriteString(pageSection(page, text))
		sink.TextUpdated(out.String())
	}

	if out.Len() == 0 {
		sink.TextUpdated(ocrEmptyPlaceholder)
		return ocrEmptyPlaceholder, nil
	}
	return out.String(), nil
}

func (s *OCRSession) recognizePage(ctx context.Context, worker recognizer, page int, sink ProgressSink) (string, error) {
	img, err := s.doc.Raster().RenderPage(ctx, page, ocrUpscale)
	if err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	input := ocr.Input{
		ID:         fmt.Sprintf("ocr-%d-page-%d", s.id, page),
		Image:      buf.Bytes(),
		Format:     ocr.ImageFormatPNG,
		PageNumber: page,
	}
	if s.lang != "" {
		ocr.WithLanguages(s.lang)(&input)
	}
	progress := func(f float64) {
		sink.PageProgress(page, clampPercent(int(math.Round(f*100))))
	}

	var res ocr.Result
	if worker != nil {
		res, err = worker.Submit(ctx, input, progress)
	} else if pe, ok := s.ctrl.engine.(ocr.ProgressEngine); ok {
		res, err = pe.RecognizeWithProgress(ctx, input, progress)
	} else {
		res, err = s.ctrl.engine.Recognize(ctx, input)
	}
	if err != nil {
		return "", err
	}
	return res.PlainText, nil
}

func pageSection(page int, text string) string {
	return fmt.Sprintf("--- Page %d ---\n%s\n\n", page, text)
}

func normalizePages(doc *Document, pageNumbers []int) []int {
	count := doc.PageCount()
	if len(pageNumbers) == 0 {
		return []int{doc.CurrentPage()}
	}
	seen := make(map[int]bool, len(pageNumbers))
	pages := make([]int, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if n >= 1 && n <= count && !seen[n] {
			seen[n] = true
			pages = append(pages, n)
		}
	}
	sort.Ints(pages)
	return pages
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
