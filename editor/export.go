package editor

import (
	"strings"
	"time"
)

// Windows device names that must never be used as a file's base name.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ExportName derives the download file name for a document: the sanitized
// base name with an "_edited.pdf" suffix. Display names are never trusted as
// paths; reserved characters are stripped and reserved device names (or an
// empty result) fall back to a timestamped name.
func ExportName(fileName string) string {
	base := sanitizeBaseName(fileName)
	if base == "" || reservedNames[strings.ToUpper(base)] {
		base = "document_" + time.Now().Format("20060102_150405")
	}
	return base + "_edited.pdf"
}

func sanitizeBaseName(fileName string) string {
	// Drop any directory part, whatever the separator convention.
	if i := strings.LastIndexAny(fileName, `/\`); i >= 0 {
		fileName = fileName[i+1:]
	}
	if i := strings.LastIndex(fileName, "."); i > 0 {
		fileName = fileName[:i]
	}
	var b strings.Builder
	for _, r := range fileName {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`<>:"/\|?*`, r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}

// Export returns an independent copy of the document's current bytes and the
// download name to emit them under. The document is marked clean.
func Export(doc *Document) ([]byte, string) {
	data := append([]byte(nil), doc.Bytes()...)
	doc.MarkClean()
	return data, ExportName(doc.FileName())
}
