package tools

import (
	"context"
	"fmt"

	"github.com/wudi/pdfstudio/codec"
	"github.com/wudi/pdfstudio/editor"
)

// RotatePages rotates the selected pages (1-based; empty selection means the
// current page) by delta degrees, which must be a multiple of 90. The per-page
// rotation metadata is updated alongside the bytes.
func RotatePages(ctx context.Context, reg *editor.Registry, doc *editor.Document, pageNumbers []int, delta int) error {
	indices := resolvePages(doc, pageNumbers)
	if len(indices) == 0 {
		return fmt.Errorf("%w: no pages in range", editor.ErrInvalidSelection)
	}
	err := mutate(ctx, reg, doc, func(d *codec.Document) error {
		for _, i := range indices {
			if err := d.RotatePage(i, delta); err != nil {
				return fmt.Errorf("rotate page %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, i := range indices {
		doc.AddRotation(i, delta)
	}
	return nil
}

// DeletePages removes the selected pages (1-based). Deleting every page is
// rejected; out-of-range numbers are skipped.
func DeletePages(ctx context.Context, reg *editor.Registry, doc *editor.Document, pageNumbers []int) error {
	indices := resolvePages(doc, pageNumbers)
	if len(indices) == 0 {
		return fmt.Errorf("%w: no pages in range", editor.ErrInvalidSelection)
	}
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		return d.DeletePages(indices)
	})
}

// InsertBlankPage inserts an empty page of the given size in points before
// 1-based position at; at is clamped to the valid range. Passing
// doc.PageCount()+1 (or anything larger) appends.
func InsertBlankPage(ctx context.Context, reg *editor.Registry, doc *editor.Document, at int, width, height float64) error {
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		return d.InsertBlankPage(at-1, width, height)
	})
}

// ExtractPagesToNew copies the selected pages (1-based) into a new document
// and opens it in the registry. The source document is not modified.
func ExtractPagesToNew(ctx context.Context, reg *editor.Registry, doc *editor.Document, pageNumbers []int) (*editor.Document, error) {
	indices := resolvePages(doc, pageNumbers)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no pages in range", editor.ErrInvalidSelection)
	}
	d, err := codec.Parse(ctx, doc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	extracted, err := d.ExtractPages(indices)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	out, err := extracted.Serialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("serialize extract: %w", err)
	}
	return reg.Open(ctx, out, deriveName(doc.FileName(), "pages"))
}

// Merge appends every page of other to target, in order: all of target's
// pages first, then all of other's. Only target is modified.
func Merge(ctx context.Context, reg *editor.Registry, target, other *editor.Document) error {
	src, err := codec.Parse(ctx, other.Bytes())
	if err != nil {
		return fmt.Errorf("parse source document: %w", err)
	}
	return mutate(ctx, reg, target, func(d *codec.Document) error {
		return d.AppendDocument(src)
	})
}

// Split divides doc after 1-based page at into two new documents (pages 1..at
// and at+1..end) and opens both in the registry. The original document is
// left untouched.
func Split(ctx context.Context, reg *editor.Registry, doc *editor.Document, at int) (*editor.Document, *editor.Document, error) {
	count := doc.PageCount()
	if at < 1 || at >= count {
		return nil, nil, fmt.Errorf("%w: split point %d outside 1..%d", editor.ErrInvalidSelection, at, count-1)
	}
	d, err := codec.Parse(ctx, doc.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}
	var halves [2][]byte
	ranges := [2][2]int{{0, at}, {at, count}}
	for h, rng := range ranges {
		indices := make([]int, 0, rng[1]-rng[0])
		for i := rng[0]; i < rng[1]; i++ {
			indices = append(indices, i)
		}
		part, err := d.ExtractPages(indices)
		if err != nil {
			return nil, nil, fmt.Errorf("extract pages %d..%d: %w", rng[0]+1, rng[1], err)
		}
		halves[h], err = part.Serialize(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("serialize part %d: %w", h+1, err)
		}
	}
	first, err := reg.Open(ctx, halves[0], deriveName(doc.FileName(), "part1"))
	if err != nil {
		return nil, nil, err
	}
	second, err := reg.Open(ctx, halves[1], deriveName(doc.FileName(), "part2"))
	if err != nil {
		return first, nil, err
	}
	return first, second, nil
}
