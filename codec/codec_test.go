package codec

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	b := NewBuilder()
	for i := 0; i < pages; i++ {
		b.AddPage(612, 792).Text("hello", 72, 720, 12)
	}
	data, err := b.Bytes(context.Background())
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return data
}

func parsePDF(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestParseRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no header", []byte("this is not a pdf")},
		{"header only", []byte("%PDF-1.7\n")},
		{"truncated", buildPDF(t, 1)[:40]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(context.Background(), tc.data); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Parse() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestParseRejectsEncrypted(t *testing.T) {
	data := buildPDF(t, 1)
	data = bytes.Replace(data, []byte("trailer\n<<"), []byte("trailer\n<</Encrypt <<>>"), 1)
	_, err := Parse(context.Background(), data)
	if !errors.Is(err, ErrEncrypted) {
		t.Fatalf("Parse() error = %v, want ErrEncrypted", err)
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("ErrEncrypted should wrap ErrCorrupt, got %v", err)
	}
}

func TestBuilderRoundTrip(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 3))
	if got := doc.PageCount(); got != 3 {
		t.Fatalf("PageCount() = %d, want 3", got)
	}
	w, h, err := doc.PageSize(0)
	if err != nil {
		t.Fatalf("PageSize() error = %v", err)
	}
	if w != 612 || h != 792 {
		t.Fatalf("PageSize() = %gx%g, want 612x792", w, h)
	}
}

func TestRotateSurvivesSerialization(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 3))
	if err := doc.RotatePage(1, -90); err != nil {
		t.Fatalf("RotatePage() error = %v", err)
	}
	data, err := doc.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	reparsed := parsePDF(t, data)
	for i, want := range []int{0, 270, 0} {
		got, err := reparsed.PageRotation(i)
		if err != nil {
			t.Fatalf("PageRotation(%d) error = %v", i, err)
		}
		if got != want {
			t.Fatalf("PageRotation(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestRotateRejectsBadDelta(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 1))
	if err := doc.RotatePage(0, 45); err == nil {
		t.Fatalf("RotatePage(45) should fail")
	}
	if err := doc.RotatePage(9, 90); err == nil {
		t.Fatalf("RotatePage out of range should fail")
	}
}

func TestDeletePages(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 4))
	if err := doc.DeletePages([]int{1, 3, 99, 1}); err != nil {
		t.Fatalf("DeletePages() error = %v", err)
	}
	data, err := doc.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got := parsePDF(t, data).PageCount(); got != 2 {
		t.Fatalf("PageCount() = %d, want 2", got)
	}
}

func TestDeleteAllPagesRejected(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 2))
	if err := doc.DeletePages([]int{0, 1}); err == nil {
		t.Fatalf("deleting every page should fail")
	}
}

func TestExtractPages(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 5))
	sub, err := doc.ExtractPages([]int{3, 1})
	if err != nil {
		t.Fatalf("ExtractPages() error = %v", err)
	}
	if got := sub.PageCount(); got != 2 {
		t.Fatalf("extracted PageCount() = %d, want 2", got)
	}
	if got := doc.PageCount(); got != 5 {
		t.Fatalf("source PageCount() = %d, want 5 (unchanged)", got)
	}
	data, err := sub.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got := parsePDF(t, data).PageCount(); got != 2 {
		t.Fatalf("reparsed PageCount() = %d, want 2", got)
	}
}

func TestInsertBlankPage(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 2))
	if err := doc.InsertBlankPage(1, 595, 842); err != nil {
		t.Fatalf("InsertBlankPage() error = %v", err)
	}
	if got := doc.PageCount(); got != 3 {
		t.Fatalf("PageCount() = %d, want 3", got)
	}
	w, h, err := doc.PageSize(1)
	if err != nil {
		t.Fatalf("PageSize() error = %v", err)
	}
	if w != 595 || h != 842 {
		t.Fatalf("inserted PageSize() = %gx%g, want 595x842", w, h)
	}
}

func TestAppendDocumentOrder(t *testing.T) {
	a := parsePDF(t, buildPDF(t, 2))
	b := parsePDF(t, buildPDF(t, 3))
	if err := b.RotatePage(0, 90); err != nil {
		t.Fatalf("RotatePage() error = %v", err)
	}
	if err := a.AppendDocument(b); err != nil {
		t.Fatalf("AppendDocument() error = %v", err)
	}
	data, err := a.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	merged := parsePDF(t, data)
	if got := merged.PageCount(); got != 5 {
		t.Fatalf("PageCount() = %d, want 5", got)
	}
	// B's first page (rotated) must land at index 2.
	rot, err := merged.PageRotation(2)
	if err != nil {
		t.Fatalf("PageRotation() error = %v", err)
	}
	if rot != 90 {
		t.Fatalf("PageRotation(2) = %d, want 90", rot)
	}
}

func TestAppendPageTextPreservesContent(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 1))
	if err := doc.AppendPageText(0, TextOptions{Text: "DRAFT (v1)", X: 100, Y: 400, Size: 48, Gray: 0.8, Rotate: 45}); err != nil {
		t.Fatalf("AppendPageText() error = %v", err)
	}
	data, err := doc.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Contains(data, []byte(`DRAFT \(v1\)`)) {
		t.Fatalf("serialized output missing escaped watermark text")
	}
	if !bytes.Contains(data, []byte("hello")) {
		t.Fatalf("serialized output lost original page content")
	}
	parsePDF(t, data)
}

func TestSerializeContextCancellation(t *testing.T) {
	doc := parsePDF(t, buildPDF(t, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := doc.Serialize(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serialize() error = %v, want context.Canceled", err)
	}
}
