package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/wudi/pdfstudio/observability"
)

// Registry owns the ordered list of open documents and the active-document
// pointer, and is the single sanctioned path through which a document's byte
// buffer changes. Tool invocations on one document must be serialized by the
// caller (the UI disables controls while an operation is pending); the
// registry's own list operations are safe for concurrent use.
type Registry struct {
	mu           sync.Mutex
	codec        Codec
	raster       Rasterizer
	logger       observability.Logger
	sink         EventSink
	docs         []*Document
	active       int
	nextDocID    int64
	nextStableID int64
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodec replaces the built-in codec.
func WithCodec(c Codec) Option { return func(r *Registry) { r.codec = c } }

// WithRasterizer replaces the built-in rasterizer.
func WithRasterizer(rz Rasterizer) Option { return func(r *Registry) { r.raster = rz } }

// WithLogger sets the logger; cleanup failures are reported through it.
func WithLogger(l observability.Logger) Option { return func(r *Registry) { r.logger = l } }

// WithEventSink subscribes a sink to lifecycle events.
func WithEventSink(s EventSink) Option { return func(r *Registry) { r.sink = s } }

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		codec:  nativeCodec{},
		raster: nativeRasterizer{},
		logger: observability.NopLogger{},
		sink:   nopSink{},
		active: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of open documents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// Documents returns the open documents in tab order.
func (r *Registry) Documents() []*Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Document(nil), r.docs...)
}

// Active returns the active document, or nil when the registry is empty.
func (r *Registry) Active() *Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 {
		return nil
	}
	return r.docs[r.active]
}

// ActiveIndex returns the active tab index, -1 when empty.
func (r *Registry) ActiveIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Open parses data as a new document, appends it to the tab order and makes
// it active. The buffer is copied; the caller keeps ownership of data.
func (r *Registry) Open(ctx context.Context, data []byte, fileName string) (*Document, error) {
	own := append([]byte(nil), data...)
	parsed, err := r.codec.Parse(ctx, own)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	rasterH, err := r.raster.Open(ctx, own)
	if err != nil {
		if cerr := parsed.Close(); cerr != nil {
			r.logger.Warn("codec handle close failed", observability.Error("err", cerr))
		}
		return nil, fmt.Errorf("open rasterizer: %w", err)
	}

	r.mu.Lock()
	r.nextDocID++
	doc := &Document{
		id:       r.nextDocID,
		fileName: fileName,
		data:     own,
		pages:    r.freshPagesLocked(parsed.PageCount()),
		parsed:   parsed,
		rasterH:  rasterH,
		current:  1,
	}
	r.docs = append(r.docs, doc)
	r.active = len(r.docs) - 1
	index := r.active
	r.mu.Unlock()

	r.logger.Info("document opened",
		observability.String("file", fileName),
		observability.Int("pages", parsed.PageCount()),
		observability.Int64("id", doc.id))
	r.sink.HandleEvent(Event{Kind: EventDocumentOpened, Doc: doc, Index: index})
	r.sink.HandleEvent(Event{Kind: EventActiveChanged, Doc: doc, Index: index})
	return doc, nil
}

// freshPagesLocked builds metadata for count pages with new stable ids.
func (r *Registry) freshPagesLocked(count int) []PageMeta {
	pages := make([]PageMeta, count)
	for i := range pages {
		r.nextStableID++
		pages[i] = PageMeta{StableID: r.nextStableID, SourceIndex: i}
	}
	return pages
}

// Close removes the document with the given id unless it has unsaved
// changes. It returns false when the document is dirty (the caller should ask
// the user and retry with ForceClose) or unknown.
func (r *Registry) Close(id int64) bool {
	r.mu.Lock()
	idx := r.indexOfLocked(id)
	if idx < 0 || r.docs[idx].dirty {
		r.mu.Unlock()
		return false
	}
	r.removeLocked(idx)
	return true
}

// ForceClose removes the document regardless of its dirty state. Returns
// false only when the id is unknown.
func (r *Registry) ForceClose(id int64) bool {
	r.mu.Lock()
	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.removeLocked(idx)
	return true
}

func (r *Registry) indexOfLocked(id int64) int {
	for i, d := range r.docs {
		if d.id == id {
			return i
		}
	}
	return -1
}

// removeLocked releases the document's handles and drops it from the tab
// order, then fixes up the active index: the document following the removed
// one becomes active, else the new last, else none. Unlocks r.mu before
// emitting events.
func (r *Registry) removeLocked(idx int) {
	doc := r.docs[idx]
	doc.rasterH.Release()
	if err := doc.parsed.Close(); err != nil {
		r.logger.Warn("codec handle close failed",
			observability.Int64("id", doc.id), observability.Error("err", err))
	}
	r.docs = append(r.docs[:idx], r.docs[idx+1:]...)

	wasActive := r.active == idx
	if r.active > idx {
		r.active--
	}
	if wasActive {
		if idx < len(r.docs) {
			r.active = idx
		} else {
			r.active = len(r.docs) - 1
		}
	}
	newActive := (*Document)(nil)
	if r.active >= 0 {
		newActive = r.docs[r.active]
	}
	activeIdx := r.active
	r.mu.Unlock()

	r.logger.Info("document closed", observability.Int64("id", doc.id))
	r.sink.HandleEvent(Event{Kind: EventDocumentClosed, Doc: doc, Index: idx})
	if wasActive {
		r.sink.HandleEvent(Event{Kind: EventActiveChanged, Doc: newActive, Index: activeIdx})
	}
}

// SwitchActive makes the document with the given id active. No-op (returns
// false) when it already is, or when the id is unknown.
func (r *Registry) SwitchActive(id int64) bool {
	r.mu.Lock()
	idx := r.indexOfLocked(id)
	if idx < 0 || idx == r.active {
		r.mu.Unlock()
		return false
	}
	r.active = idx
	doc := r.docs[idx]
	r.mu.Unlock()

	r.sink.HandleEvent(Event{Kind: EventActiveChanged, Doc: doc, Index: idx})
	return true
}

// UpdateBytes replaces doc's byte buffer with newBytes under the
// snapshot-then-replace discipline: the prior state is pushed onto the undo
// stack, the redo stack is cleared, and the codec and raster handles are
// reopened for the new generation. On any parse failure the document is left
// exactly as it was.
func (r *Registry) UpdateBytes(ctx context.Context, doc *Document, newBytes []byte) error {
	own := append([]byte(nil), newBytes...)
	parsed, rasterH, err := r.openGeneration(ctx, own)
	if err != nil {
		return err
	}

	doc.undo = append(doc.undo, doc.snapshot())
	doc.redo = nil
	doc.dirty = true

	prevLive := doc.LivePageCount()
	r.installGeneration(doc, own, parsed, rasterH)
	if parsed.PageCount() != prevLive {
		// Structural edit: page identity is not preserved across a count
		// change, so the metadata starts over.
		r.mu.Lock()
		doc.pages = r.freshPagesLocked(parsed.PageCount())
		r.mu.Unlock()
	}
	doc.current = clampPage(doc.current, parsed.PageCount())

	r.logger.Debug("bytes updated",
		observability.Int64("id", doc.id),
		observability.Int("pages", parsed.PageCount()),
		observability.Int64("bytes", int64(len(own))))
	r.sink.HandleEvent(Event{Kind: EventBytesUpdated, Doc: doc, Index: r.ActiveIndex()})
	return nil
}

// openGeneration parses a buffer with both the codec and the rasterizer,
// releasing the first handle if the second fails.
func (r *Registry) openGeneration(ctx context.Context, data []byte) (CodecHandle, RasterHandle, error) {
	parsed, err := r.codec.Parse(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}
	rasterH, err := r.raster.Open(ctx, data)
	if err != nil {
		if cerr := parsed.Close(); cerr != nil {
			r.logger.Warn("codec handle close failed", observability.Error("err", cerr))
		}
		return nil, nil, fmt.Errorf("open rasterizer: %w", err)
	}
	return parsed, rasterH, nil
}

// installGeneration swaps in a fully-opened generation and releases the old
// one. Release errors are logged, never propagated.
func (r *Registry) installGeneration(doc *Document, data []byte, parsed CodecHandle, rasterH RasterHandle) {
	doc.rasterH.Release()
	if err := doc.parsed.Close(); err != nil {
		r.logger.Warn("codec handle close failed",
			observability.Int64("id", doc.id), observability.Error("err", err))
	}
	doc.data = data
	doc.parsed = parsed
	doc.rasterH = rasterH
}

// Undo restores the most recent snapshot. Returns false when the undo stack
// is empty. The current state is pushed onto the redo stack so an immediate
// Redo restores it byte for byte.
func (r *Registry) Undo(ctx context.Context, doc *Document) (bool, error) {
	if len(doc.undo) == 0 {
		return false, nil
	}
	snap := doc.undo[len(doc.undo)-1]
	parsed, rasterH, err := r.openGeneration(ctx, snap.data)
	if err != nil {
		// The snapshot stays on the stack and the live state is untouched.
		return false, fmt.Errorf("undo: %w", err)
	}
	doc.redo = append(doc.redo, doc.snapshot())
	doc.undo = doc.undo[:len(doc.undo)-1]
	r.installGeneration(doc, snap.data, parsed, rasterH)
	doc.pages = append([]PageMeta(nil), snap.pages...)
	doc.current = clampPage(doc.current, parsed.PageCount())

	r.sink.HandleEvent(Event{Kind: EventBytesUpdated, Doc: doc, Index: r.ActiveIndex()})
	return true, nil
}

// Redo is the mirror of Undo over the redo stack.
func (r *Registry) Redo(ctx context.Context, doc *Document) (bool, error) {
	if len(doc.redo) == 0 {
		return false, nil
	}
	snap := doc.redo[len(doc.redo)-1]
	parsed, rasterH, err := r.openGeneration(ctx, snap.data)
	if err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	doc.undo = append(doc.undo, doc.snapshot())
	doc.redo = doc.redo[:len(doc.redo)-1]
	r.installGeneration(doc, snap.data, parsed, rasterH)
	doc.pages = append([]PageMeta(nil), snap.pages...)
	doc.current = clampPage(doc.current, parsed.PageCount())

	r.sink.HandleEvent(Event{Kind: EventBytesUpdated, Doc: doc, Index: r.ActiveIndex()})
	return true, nil
}
