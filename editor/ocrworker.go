package editor

import (
	"context"
	"sync"

	"github.com/wudi/pdfstudio/ocr"
)

// recognizer is the OCR controller's view of a recognition capability. The
// worker implementation runs off the caller's goroutine; sessions fall back
// to calling the engine in-process when no worker can be started.
type recognizer interface {
	Submit(ctx context.Context, input ocr.Input, progress func(float64)) (ocr.Result, error)
	Release() error
}

// WorkerFactory starts a background recognizer for an engine. The default
// starts an in-process goroutine worker; tests substitute failing factories
// to exercise the fallback path.
type WorkerFactory func(engine ocr.Engine) (recognizer, error)

func startOCRWorker(engine ocr.Engine) (recognizer, error) {
	w := &ocrWorker{
		engine:    engine,
		requests:  make(chan workerRequest),
		responses: make(chan workerResponse),
		quit:      make(chan struct{}),
		pending:   make(map[uint64]pendingEntry),
	}
	go w.run()
	go w.route()
	return w, nil
}

type responseKind int

const (
	kindProgress responseKind = iota
	kindResult
	kindError
)

type workerRequest struct {
	id    uint64
	input ocr.Input
}

// workerResponse is one message on the worker's response stream, keyed by the
// correlation id of the request it answers.
type workerResponse struct {
	id       uint64
	kind     responseKind
	result   ocr.Result
	err      error
	fraction float64
}

type pendingEntry struct {
	done     chan workerResponse
	progress func(float64)
}

// ocrWorker runs recognitions on its own goroutine pair and communicates
// exclusively through messages carrying correlation ids, so responses for
// distinct submissions can never be cross-attributed.
type ocrWorker struct {
	engine    ocr.Engine
	requests  chan workerRequest
	responses chan workerResponse
	quit      chan struct{}

	mu      sync.Mutex
	pending map[uint64]pendingEntry
	nextID  uint64
	once    sync.Once
}

// run executes requests sequentially; recognition is interrupted when the
// worker is released.
func (w *ocrWorker) run() {
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			ctx, cancel := context.WithCancel(context.Background())
			stop := make(chan struct{})
			go func() {
				select {
				case <-w.quit:
					cancel()
				case <-stop:
				}
			}()
			var res ocr.Result
			var err error
			if pe, ok := w.engine.(ocr.ProgressEngine); ok {
				res, err = pe.RecognizeWithProgress(ctx, req.input, func(f float64) {
					w.send(workerResponse{id: req.id, kind: kindProgress, fraction: f})
				})
			} else {
				res, err = w.engine.Recognize(ctx, req.input)
			}
			close(stop)
			cancel()
			if err != nil {
				w.send(workerResponse{id: req.id, kind: kindError, err: err})
			} else {
				w.send(workerResponse{id: req.id, kind: kindResult, result: res})
			}
		}
	}
}

func (w *ocrWorker) send(resp workerResponse) {
	select {
	case w.responses <- resp:
	case <-w.quit:
	}
}

// route delivers responses to their pending submissions. A response whose
// correlation id matches nothing is ignored.
func (w *ocrWorker) route() {
	for {
		select {
		case <-w.quit:
			return
		case resp := <-w.responses:
			w.mu.Lock()
			entry, ok := w.pending[resp.id]
			if ok && resp.kind != kindProgress {
				delete(w.pending, resp.id)
			}
			w.mu.Unlock()
			if !ok {
				continue
			}
			if resp.kind == kindProgress {
				if entry.progress != nil {
					entry.progress(resp.fraction)
				}
				continue
			}
			entry.done <- resp
		}
	}
}

// Submit sends one recognition request and waits for its correlated
// response. Cancelling ctx or releasing the worker abandons the wait; the
// pending entry is removed so a late response is dropped as a stray.
func (w *ocrWorker) Submit(ctx context.Context, input ocr.Input, progress func(float64)) (ocr.Result, error) {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	done := make(chan workerResponse, 1)
	w.pending[id] = pendingEntry{done: done, progress: progress}
	w.mu.Unlock()

	abandon := func() {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
	}

	select {
	case w.requests <- workerRequest{id: id, input: input}:
	case <-ctx.Done():
		abandon()
		return ocr.Result{}, ctx.Err()
	case <-w.quit:
		abandon()
		return ocr.Result{}, context.Canceled
	}

	select {
	case resp := <-done:
		if resp.kind == kindError {
			return ocr.Result{}, resp.err
		}
		return resp.result, nil
	case <-ctx.Done():
		abandon()
		return ocr.Result{}, ctx.Err()
	case <-w.quit:
		abandon()
		return ocr.Result{}, context.Canceled
	}
}

// Release stops the worker and rejects anything still pending. Idempotent.
func (w *ocrWorker) Release() error {
	w.once.Do(func() {
		close(w.quit)
		w.mu.Lock()
		for id, entry := range w.pending {
			delete(w.pending, id)
			entry.done <- workerResponse{id: id, kind: kindError, err: context.Canceled}
		}
		w.mu.Unlock()
	})
	return nil
}
