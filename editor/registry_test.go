package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wudi/pdfstudio/codec"
)

func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	b := codec.NewBuilder()
	for i := 0; i < pages; i++ {
		b.AddPage(612, 792).Text("sample", 72, 700, 12)
	}
	data, err := b.Bytes(context.Background())
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return data
}

// rotated returns doc's bytes with page idx rotated by delta, without going
// through the registry.
func rotated(t *testing.T, data []byte, idx, delta int) []byte {
	t.Helper()
	d, err := codec.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := d.RotatePage(idx, delta); err != nil {
		t.Fatalf("RotatePage() error = %v", err)
	}
	out, err := d.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return out
}

func checkActiveInvariant(t *testing.T, r *Registry) {
	t.Helper()
	n, idx := r.Len(), r.ActiveIndex()
	if n == 0 && idx != -1 {
		t.Fatalf("empty registry has activeIndex %d, want -1", idx)
	}
	if n > 0 && (idx < 0 || idx >= n) {
		t.Fatalf("activeIndex %d out of range for %d documents", idx, n)
	}
}

func TestOpenSetsActive(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	a, err := r.Open(ctx, buildPDF(t, 2), "a.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	b, err := r.Open(ctx, buildPDF(t, 3), "b.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if r.Active() != b {
		t.Fatalf("Active() = %v, want most recently opened", r.Active())
	}
	if a.ID() == b.ID() {
		t.Fatalf("document ids must be unique")
	}
	if got := b.PageCount(); got != 3 {
		t.Fatalf("PageCount() = %d, want 3", got)
	}
	checkActiveInvariant(t, r)
}

func TestOpenRejectsCorruptBytes(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open(context.Background(), []byte("junk"), "junk.pdf")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("Open() error = %v, want ErrCorruptDocument", err)
	}
	if r.Len() != 0 || r.ActiveIndex() != -1 {
		t.Fatalf("failed open must not register a document")
	}
}

func TestCloseAdjustsActive(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	a, _ := r.Open(ctx, buildPDF(t, 1), "a.pdf")
	b, _ := r.Open(ctx, buildPDF(t, 1), "b.pdf")
	c, _ := r.Open(ctx, buildPDF(t, 1), "c.pdf")

	// Close the active (last) document: the new last becomes active.
	if !r.Close(c.ID()) {
		t.Fatalf("Close(c) = false, want true")
	}
	if r.Active() != b {
		t.Fatalf("active after closing last = %v, want b", r.Active())
	}
	checkActiveInvariant(t, r)

	// Close the first while the second is active.
	r.SwitchActive(a.ID())
	if !r.Close(a.ID()) {
		t.Fatalf("Close(a) = false, want true")
	}
	// a was active at index 0; the following document (b) takes over.
	if r.Active() != b {
		t.Fatalf("active after closing first = %v, want b", r.Active())
	}
	checkActiveInvariant(t, r)

	if !r.Close(b.ID()) {
		t.Fatalf("Close(b) = false, want true")
	}
	if r.Len() != 0 || r.ActiveIndex() != -1 {
		t.Fatalf("registry should be empty with activeIndex -1")
	}
	checkActiveInvariant(t, r)
}

func TestDirtyCloseGuard(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 2), "a.pdf")

	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 0, 90)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	if !doc.IsDirty() {
		t.Fatalf("document should be dirty after UpdateBytes")
	}
	if r.Close(doc.ID()) {
		t.Fatalf("Close() on dirty document must refuse")
	}
	if r.Len() != 1 {
		t.Fatalf("refused close removed the document")
	}
	if !r.ForceClose(doc.ID()) {
		t.Fatalf("ForceClose() = false, want true")
	}
	if r.Len() != 0 {
		t.Fatalf("ForceClose() left the document open")
	}
}

func TestSwitchActive(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	a, _ := r.Open(ctx, buildPDF(t, 1), "a.pdf")
	b, _ := r.Open(ctx, buildPDF(t, 1), "b.pdf")

	if !r.SwitchActive(a.ID()) {
		t.Fatalf("SwitchActive(a) = false, want true")
	}
	if r.Active() != a {
		t.Fatalf("Active() = %v, want a", r.Active())
	}
	if r.SwitchActive(a.ID()) {
		t.Fatalf("SwitchActive on already-active document must be a no-op")
	}
	if r.SwitchActive(9999) {
		t.Fatalf("SwitchActive on unknown id must be a no-op")
	}
	_ = b
}

func TestUndoRedoRoundTrip(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, err := r.Open(ctx, buildPDF(t, 3), "a.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	original := append([]byte(nil), doc.Bytes()...)

	const n = 3
	for i := 0; i < n; i++ {
		if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), i, 90)); err != nil {
			t.Fatalf("UpdateBytes(%d) error = %v", i, err)
		}
	}
	final := append([]byte(nil), doc.Bytes()...)
	if doc.UndoDepth() != n {
		t.Fatalf("UndoDepth() = %d, want %d", doc.UndoDepth(), n)
	}

	for i := 0; i < n; i++ {
		ok, err := r.Undo(ctx, doc)
		if err != nil || !ok {
			t.Fatalf("Undo(%d) = %v, %v", i, ok, err)
		}
	}
	if !bytes.Equal(doc.Bytes(), original) {
		t.Fatalf("bytes after %d undos differ from original", n)
	}
	if ok, _ := r.Undo(ctx, doc); ok {
		t.Fatalf("Undo on empty stack must return false")
	}

	for i := 0; i < n; i++ {
		ok, err := r.Redo(ctx, doc)
		if err != nil || !ok {
			t.Fatalf("Redo(%d) = %v, %v", i, ok, err)
		}
	}
	if !bytes.Equal(doc.Bytes(), final) {
		t.Fatalf("bytes after %d redos differ from final state", n)
	}
	if ok, _ := r.Redo(ctx, doc); ok {
		t.Fatalf("Redo on empty stack must return false")
	}
}

func TestRedoInvalidatedByNewMutation(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 2), "a.pdf")

	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 0, 90)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	if ok, err := r.Undo(ctx, doc); !ok || err != nil {
		t.Fatalf("Undo() = %v, %v", ok, err)
	}
	if doc.RedoDepth() != 1 {
		t.Fatalf("RedoDepth() = %d, want 1", doc.RedoDepth())
	}
	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 1, 180)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	if doc.RedoDepth() != 0 {
		t.Fatalf("RedoDepth() after new mutation = %d, want 0", doc.RedoDepth())
	}
}

func TestUpdateBytesCorruptLeavesStateIntact(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 2), "a.pdf")
	before := append([]byte(nil), doc.Bytes()...)

	err := r.UpdateBytes(ctx, doc, []byte("garbage"))
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("UpdateBytes() error = %v, want ErrCorruptDocument", err)
	}
	if !bytes.Equal(doc.Bytes(), before) {
		t.Fatalf("byte buffer changed after failed update")
	}
	if doc.UndoDepth() != 0 {
		t.Fatalf("failed update must not push a snapshot")
	}
	if doc.IsDirty() {
		t.Fatalf("failed update must not mark the document dirty")
	}
	if got := doc.PageCount(); got != 2 {
		t.Fatalf("PageCount() = %d, want 2 (handles must match old bytes)", got)
	}
}

func TestStructuralEditRegeneratesStableIDs(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 2), "a.pdf")
	before := doc.Pages()

	// Rotation keeps the page count, so identity is preserved.
	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 0, 90)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	after := doc.Pages()
	if after[0].StableID != before[0].StableID || after[1].StableID != before[1].StableID {
		t.Fatalf("stable ids changed across a non-structural edit")
	}

	// A page-count change regenerates metadata from scratch.
	d, err := codec.Parse(ctx, doc.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := d.InsertBlankPage(0, 612, 792); err != nil {
		t.Fatalf("InsertBlankPage() error = %v", err)
	}
	grown, err := d.Serialize(ctx)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := r.UpdateBytes(ctx, doc, grown); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	regen := doc.Pages()
	if len(regen) != 3 {
		t.Fatalf("len(Pages()) = %d, want 3", len(regen))
	}
	for _, p := range regen {
		if p.StableID == before[0].StableID || p.StableID == before[1].StableID {
			t.Fatalf("structural edit must assign fresh stable ids")
		}
		if p.RotationDelta != 0 {
			t.Fatalf("structural edit must reset rotation deltas")
		}
	}
}

func TestSnapshotIndependence(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 2), "a.pdf")

	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 0, 90)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	// Mutating live metadata must not leak into the stored snapshot.
	doc.AddRotation(0, 180)
	if ok, err := r.Undo(ctx, doc); !ok || err != nil {
		t.Fatalf("Undo() = %v, %v", ok, err)
	}
	if got := doc.Rotation(0); got != 0 {
		t.Fatalf("Rotation(0) after undo = %d, want 0 (snapshot was contaminated)", got)
	}
}

func TestLifecycleEvents(t *testing.T) {
	var events []EventKind
	r := NewRegistry(WithEventSink(EventFunc(func(e Event) {
		events = append(events, e.Kind)
	})))
	ctx := context.Background()

	doc, _ := r.Open(ctx, buildPDF(t, 1), "a.pdf")
	if err := r.UpdateBytes(ctx, doc, rotated(t, doc.Bytes(), 0, 90)); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	r.ForceClose(doc.ID())

	want := []EventKind{
		EventDocumentOpened, EventActiveChanged,
		EventBytesUpdated,
		EventDocumentClosed, EventActiveChanged,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestCurrentPageClampedAfterShrink(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	doc, _ := r.Open(ctx, buildPDF(t, 3), "a.pdf")
	doc.SetCurrentPage(3)

	d, err := codec.Parse(ctx, doc.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := d.DeletePages([]int{1, 2}); err != nil {
		t.Fatalf("DeletePages() error = %v", err)
	}
	shrunk, err := d.Serialize(ctx)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := r.UpdateBytes(ctx, doc, shrunk); err != nil {
		t.Fatalf("UpdateBytes() error = %v", err)
	}
	if got := doc.CurrentPage(); got != 1 {
		t.Fatalf("CurrentPage() = %d, want clamped to 1", got)
	}
}
