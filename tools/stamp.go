package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/wudi/pdfstudio/codec"
	"github.com/wudi/pdfstudio/editor"
)

// WatermarkOptions tunes the watermark drawn by WatermarkText. Zero values
// select the defaults noted on each field.
type WatermarkOptions struct {
	Size   float64 // point size; 48 when zero
	Gray   float64 // 0 black .. 1 white; 0.75 when zero
	Rotate float64 // degrees; 45 when zero
}

// WatermarkText draws text diagonally across every page of the document.
func WatermarkText(ctx context.Context, reg *editor.Registry, doc *editor.Document, text string, opts WatermarkOptions) error {
	if opts.Size <= 0 {
		opts.Size = 48
	}
	if opts.Gray <= 0 {
		opts.Gray = 0.75
	}
	if opts.Rotate == 0 {
		opts.Rotate = 45
	}
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		for i := 0; i < d.PageCount(); i++ {
			w, h, err := d.PageSize(i)
			if err != nil {
				return err
			}
			// Anchor near the lower-left third so the run crosses the middle
			// of the page at the default 45 degrees.
			err = d.AppendPageText(i, codec.TextOptions{
				Text:   text,
				X:      w * 0.2,
				Y:      h * 0.3,
				Size:   opts.Size,
				Gray:   opts.Gray,
				Rotate: opts.Rotate,
			})
			if err != nil {
				return fmt.Errorf("watermark page %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// StampPosition names a page corner or the center for StampText.
type StampPosition int

const (
	StampTopLeft StampPosition = iota
	StampTopRight
	StampBottomLeft
	StampBottomRight
	StampCenter
)

const stampMargin = 36.0

// StampText places a short text run at a fixed position on the selected pages
// (1-based; empty selection means the current page).
func StampText(ctx context.Context, reg *editor.Registry, doc *editor.Document, text string, pos StampPosition, pageNumbers []int) error {
	indices := resolvePages(doc, pageNumbers)
	if len(indices) == 0 {
		return fmt.Errorf("%w: no pages in range", editor.ErrInvalidSelection)
	}
	const size = 10.0
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		for _, i := range indices {
			w, h, err := d.PageSize(i)
			if err != nil {
				return err
			}
			// Width estimate at 0.5em per character keeps right-aligned stamps
			// on the page without font metrics.
			textW := float64(len(text)) * size * 0.5
			var x, y float64
			switch pos {
			case StampTopLeft:
				x, y = stampMargin, h-stampMargin
			case StampTopRight:
				x, y = w-stampMargin-textW, h-stampMargin
			case StampBottomLeft:
				x, y = stampMargin, stampMargin
			case StampBottomRight:
				x, y = w-stampMargin-textW, stampMargin
			case StampCenter:
				x, y = (w-textW)/2, h/2
			default:
				return fmt.Errorf("unknown stamp position %d", pos)
			}
			err = d.AppendPageText(i, codec.TextOptions{Text: text, X: x, Y: y, Size: size})
			if err != nil {
				return fmt.Errorf("stamp page %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// AnnotateText writes free text at (x, y) in page coordinates (points, origin
// bottom-left) on the given 1-based page.
func AnnotateText(ctx context.Context, reg *editor.Registry, doc *editor.Document, pageNumber int, text string, x, y float64) error {
	if pageNumber < 1 || pageNumber > doc.PageCount() {
		return fmt.Errorf("%w: page %d", editor.ErrInvalidSelection, pageNumber)
	}
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		return d.AppendPageText(pageNumber-1, codec.TextOptions{Text: text, X: x, Y: y, Size: 12})
	})
}

// SignatureStamp draws a visible signature block (signer name and the current
// date) in the bottom-right corner of the given 1-based page.
func SignatureStamp(ctx context.Context, reg *editor.Registry, doc *editor.Document, signer string, pageNumber int) error {
	if signer == "" {
		return fmt.Errorf("empty signer name")
	}
	if pageNumber < 1 || pageNumber > doc.PageCount() {
		return fmt.Errorf("%w: page %d", editor.ErrInvalidSelection, pageNumber)
	}
	const size = 11.0
	line1 := "Signed by: " + signer
	line2 := "Date: " + time.Now().Format("2006-01-02 15:04")
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		i := pageNumber - 1
		w, _, err := d.PageSize(i)
		if err != nil {
			return err
		}
		textW := float64(len(line1)) * size * 0.5
		if alt := float64(len(line2)) * size * 0.5; alt > textW {
			textW = alt
		}
		x := w - stampMargin - textW
		if err := d.AppendPageText(i, codec.TextOptions{Text: line1, X: x, Y: stampMargin + size*1.4, Size: size}); err != nil {
			return err
		}
		return d.AppendPageText(i, codec.TextOptions{Text: line2, X: x, Y: stampMargin, Size: size})
	})
}
