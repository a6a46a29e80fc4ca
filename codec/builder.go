package codec

import "context"

// Builder assembles a minimal PDF from scratch. The note-insertion tool and
// the test suite use it to produce documents without external fixtures.
type Builder struct {
	doc *Document
}

func NewBuilder() *Builder {
	d := &Document{
		objects: make(map[int]Object),
		trailer: Dict{},
	}
	root := Dict{"Type": Name("Catalog")}
	d.trailer["Root"] = Ref{Num: d.addObject(root)}
	return &Builder{doc: d}
}

// AddPage appends an empty page of the given size in points and returns a
// PageBuilder positioned on it.
func (b *Builder) AddPage(width, height float64) *PageBuilder {
	dict := Dict{
		"Type":     Name("Page"),
		"MediaBox": Array{Integer(0), Integer(0), Real(width), Real(height)},
	}
	num := b.doc.addObject(dict)
	b.doc.pages = append(b.doc.pages, pageNode{num: num, dict: dict})
	return &PageBuilder{b: b, index: len(b.doc.pages) - 1}
}

// PageCount returns the number of pages added so far.
func (b *Builder) PageCount() int { return len(b.doc.pages) }

// Bytes finalizes the page tree and serializes the document.
func (b *Builder) Bytes(ctx context.Context) ([]byte, error) {
	b.doc.rebuildPageTree()
	return b.doc.Serialize(ctx)
}

type PageBuilder struct {
	b     *Builder
	index int
}

// Text draws a text run at (x, y) in the page coordinate space.
func (p *PageBuilder) Text(text string, x, y, size float64) *PageBuilder {
	// Builder pages always exist, so the only AppendPageText failure mode is
	// empty text, which is a no-op by intent here.
	_ = p.b.doc.AppendPageText(p.index, TextOptions{Text: text, X: x, Y: y, Size: size})
	return p
}

// Rotate sets the page's rotation in degrees.
func (p *PageBuilder) Rotate(deg int) *PageBuilder {
	_ = p.b.doc.RotatePage(p.index, deg)
	return p
}
