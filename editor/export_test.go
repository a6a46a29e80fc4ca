package editor

import (
	"strings"
	"testing"
)

func TestExportName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"plain", "report.pdf", "report_edited.pdf"},
		{"no extension", "report", "report_edited.pdf"},
		{"spaces kept", "annual report 2026.pdf", "annual report 2026_edited.pdf"},
		{"reserved chars stripped", `in<voi>ce:2026?.pdf`, "invoice2026_edited.pdf"},
		{"path part dropped", "/tmp/uploads/scan.pdf", "scan_edited.pdf"},
		{"backslash path dropped", `C:\Users\x\scan.pdf`, "scan_edited.pdf"},
		{"trailing dots trimmed", "notes...pdf", "notes_edited.pdf"},
		{"unicode preserved", "résumé.pdf", "résumé_edited.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportName(tt.fileName); got != tt.want {
				t.Fatalf("ExportName(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestExportNameFallsBackToTimestamp(t *testing.T) {
	// Reserved device names and names that sanitize away entirely must not
	// produce the raw base name.
	for _, fileName := range []string{"CON.pdf", "lpt1.pdf", "???.pdf", "", "...."} {
		got := ExportName(fileName)
		if !strings.HasPrefix(got, "document_") || !strings.HasSuffix(got, "_edited.pdf") {
			t.Fatalf("ExportName(%q) = %q, want timestamped document_ fallback", fileName, got)
		}
	}
}

func TestExportCopiesBytesAndMarksClean(t *testing.T) {
	doc := &Document{fileName: "draft.pdf", data: []byte("%PDF-1.7 fake"), dirty: true}
	data, name := Export(doc)
	if name != "draft_edited.pdf" {
		t.Fatalf("Export() name = %q", name)
	}
	if doc.IsDirty() {
		t.Fatalf("Export() must mark the document clean")
	}
	// The returned slice is independent of the live buffer.
	data[0] = 'X'
	if doc.Bytes()[0] == 'X' {
		t.Fatalf("Export() returned an aliased buffer")
	}
}
