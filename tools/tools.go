// Package tools implements the user-facing mutation operations of the editor.
// Every tool follows the same shape: parse the document's current bytes into a
// codec session, apply the mutation, serialize, and hand the result to the
// registry in a single UpdateBytes call. Tools never mutate a document's byte
// buffer directly, so each invocation is exactly one undo step.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wudi/pdfstudio/codec"
	"github.com/wudi/pdfstudio/editor"
)

// mutate runs one codec session over doc's current bytes and commits the
// result through the registry. fn receives the parsed document and mutates it
// in place.
func mutate(ctx context.Context, reg *editor.Registry, doc *editor.Document, fn func(*codec.Document) error) error {
	d, err := codec.Parse(ctx, doc.Bytes())
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := fn(d); err != nil {
		return err
	}
	out, err := d.Serialize(ctx)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	return reg.UpdateBytes(ctx, doc, out)
}

// resolvePages turns a 1-based page selection into sorted, deduplicated
// 0-based indices. An empty selection means the document's current page;
// out-of-range numbers are skipped.
func resolvePages(doc *editor.Document, pageNumbers []int) []int {
	count := doc.PageCount()
	if len(pageNumbers) == 0 {
		return []int{doc.CurrentPage() - 1}
	}
	seen := make(map[int]bool, len(pageNumbers))
	indices := make([]int, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if n >= 1 && n <= count && !seen[n] {
			seen[n] = true
			indices = append(indices, n-1)
		}
	}
	sort.Ints(indices)
	return indices
}

// deriveName builds a display name for a document produced from another, e.g.
// deriveName("scan.pdf", "part1") == "scan_part1.pdf".
func deriveName(fileName, suffix string) string {
	base := strings.TrimSuffix(fileName, ".pdf")
	if base == "" {
		base = "document"
	}
	return base + "_" + suffix + ".pdf"
}
