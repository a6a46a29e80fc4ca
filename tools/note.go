package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	mdtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/pdfstudio/codec"
	"github.com/wudi/pdfstudio/editor"
)

// NoteFormat names the markup language of a note source.
type NoteFormat int

const (
	NoteMarkdown NoteFormat = iota
	NoteHTML
)

// noteBlock is one rendered unit of a note page: a heading (level >= 1), a
// bullet item, or a plain paragraph.
type noteBlock struct {
	text    string
	heading int
	bullet  bool
}

const (
	notePageWidth  = 612.0
	notePageHeight = 792.0
	noteMargin     = 72.0
	noteFontSize   = 12.0
	noteLineGap    = 1.4
)

// InsertNotePage renders source (Markdown or HTML) onto a single new page
// appended at the end of the document. Markup is reduced to headings, bullets
// and paragraphs; text that does not fit on one page is truncated.
func InsertNotePage(ctx context.Context, reg *editor.Registry, doc *editor.Document, source string, format NoteFormat) error {
	var blocks []noteBlock
	var err error
	switch format {
	case NoteMarkdown:
		blocks = markdownBlocks(source)
	case NoteHTML:
		blocks, err = htmlBlocks(source)
		if err != nil {
			return fmt.Errorf("parse note html: %w", err)
		}
	default:
		return fmt.Errorf("unknown note format %d", format)
	}
	if len(blocks) == 0 {
		return fmt.Errorf("note source has no text")
	}
	return mutate(ctx, reg, doc, func(d *codec.Document) error {
		at := d.PageCount()
		if err := d.InsertBlankPage(at, notePageWidth, notePageHeight); err != nil {
			return err
		}
		return drawNoteBlocks(d, at, blocks)
	})
}

// markdownBlocks flattens a Markdown document into note blocks using the
// goldmark AST.
func markdownBlocks(source string) []noteBlock {
	src := []byte(source)
	root := goldmark.New().Parser().Parse(mdtext.NewReader(src))

	var blocks []noteBlock
	var walk func(node ast.Node)
	walk = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch n := child.(type) {
			case *ast.Heading:
				if t := strings.TrimSpace(string(n.Text(src))); t != "" {
					blocks = append(blocks, noteBlock{text: t, heading: n.Level})
				}
			case *ast.Paragraph:
				if t := strings.TrimSpace(string(n.Text(src))); t != "" {
					blocks = append(blocks, noteBlock{text: t})
				}
			case *ast.List:
				walk(n)
			case *ast.ListItem:
				if t := strings.TrimSpace(string(n.Text(src))); t != "" {
					blocks = append(blocks, noteBlock{text: t, bullet: true})
				}
			}
		}
	}
	walk(root)
	return blocks
}

// htmlBlocks flattens an HTML fragment into note blocks, keeping h1-h6, li
// and p elements and ignoring everything else.
func htmlBlocks(source string) ([]noteBlock, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	var blocks []noteBlock
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				if t := htmlText(n); t != "" {
					level := int(n.Data[1] - '0')
					blocks = append(blocks, noteBlock{text: t, heading: level})
				}
				return
			case atom.Li:
				if t := htmlText(n); t != "" {
					blocks = append(blocks, noteBlock{text: t, bullet: true})
				}
				return
			case atom.P:
				if t := htmlText(n); t != "" {
					blocks = append(blocks, noteBlock{text: t})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks, nil
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// drawNoteBlocks lays the blocks out top-down on page index, wrapping lines
// with a 0.5em-per-character width estimate. Output past the bottom margin is
// dropped.
func drawNoteBlocks(d *codec.Document, index int, blocks []noteBlock) error {
	y := notePageHeight - noteMargin
	for _, b := range blocks {
		size := noteFontSize
		switch {
		case b.heading == 1:
			size = noteFontSize * 2
		case b.heading == 2:
			size = noteFontSize * 1.5
		case b.heading >= 3:
			size = noteFontSize * 1.25
		}
		x := noteMargin
		text := b.text
		if b.bullet {
			text = "- " + text
		}
		for _, line := range wrapNoteText(text, size, notePageWidth-2*noteMargin) {
			lineHeight := size * noteLineGap
			if y-lineHeight < noteMargin {
				return nil
			}
			y -= lineHeight
			err := d.AppendPageText(index, codec.TextOptions{Text: line, X: x, Y: y, Size: size})
			if err != nil {
				return err
			}
		}
		if b.heading > 0 {
			y -= size * 0.5
		}
	}
	return nil
}

// wrapNoteText greedily packs words into lines, estimating the average glyph
// at half an em. Real font metrics would be better; for note pages the
// approximation is enough.
func wrapNoteText(text string, size, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if float64(len(line)+1+len(word))*size*0.5 <= maxWidth {
			line += " " + word
		} else {
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}
