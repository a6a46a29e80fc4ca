package codec

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RotatePage adds delta degrees (a multiple of 90, either sign) to page i's
// /Rotate entry.
func (d *Document) RotatePage(i int, delta int) error {
	if i < 0 || i >= len(d.pages) {
		return fmt.Errorf("page index %d out of range", i)
	}
	if delta%90 != 0 {
		return fmt.Errorf("rotation %d is not a multiple of 90", delta)
	}
	cur := d.pages[i].dict.Int("Rotate", 0)
	d.pages[i].dict["Rotate"] = Integer(((cur+delta)%360 + 360) % 360)
	return nil
}

// DeletePages removes the given 0-based page indices. Out-of-range and
// duplicate indices are ignored. Removing every page is rejected because a
// PDF must have at least one.
func (d *Document) DeletePages(indices []int) error {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(d.pages) {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return nil
	}
	if len(drop) >= len(d.pages) {
		return fmt.Errorf("cannot delete all %d pages", len(d.pages))
	}
	kept := d.pages[:0]
	for i, p := range d.pages {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	d.pages = kept
	d.rebuildPageTree()
	return nil
}

// ExtractPages returns a new document containing copies of the given pages in
// ascending index order. The source document is left untouched.
func (d *Document) ExtractPages(indices []int) (*Document, error) {
	uniq := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(d.pages) && !seen[i] {
			seen[i] = true
			uniq = append(uniq, i)
		}
	}
	if len(uniq) == 0 {
		return nil, fmt.Errorf("no pages selected")
	}
	sort.Ints(uniq)

	out := &Document{
		objects: make(map[int]Object, len(d.objects)),
		trailer: Dict{},
		nextNum: d.nextNum,
	}
	for num, obj := range d.objects {
		out.objects[num] = deepCopy(obj, 0)
	}
	for _, i := range uniq {
		num := d.pages[i].num
		dict, ok := out.objects[num].(Dict)
		if !ok {
			return nil, fmt.Errorf("page %d lost during copy", i)
		}
		out.pages = append(out.pages, pageNode{num: num, dict: dict})
	}
	root := Dict{"Type": Name("Catalog")}
	out.trailer["Root"] = Ref{Num: out.addObject(root)}
	out.rebuildPageTree()
	return out, nil
}

// InsertBlankPage inserts an empty page of the given size (in points) before
// 0-based index at; at is clamped to [0, PageCount].
func (d *Document) InsertBlankPage(at int, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid page size %gx%g", width, height)
	}
	if at < 0 {
		at = 0
	}
	if at > len(d.pages) {
		at = len(d.pages)
	}
	dict := Dict{
		"Type":     Name("Page"),
		"MediaBox": Array{Integer(0), Integer(0), Real(width), Real(height)},
	}
	num := d.addObject(dict)
	d.pages = append(d.pages, pageNode{})
	copy(d.pages[at+1:], d.pages[at:])
	d.pages[at] = pageNode{num: num, dict: dict}
	d.rebuildPageTree()
	return nil
}

// AppendDocument appends every page of other to the end of d. The other
// document's object graph is copied and renumbered, so the two documents stay
// independent afterwards.
func (d *Document) AppendDocument(other *Document) error {
	if other == nil || len(other.pages) == 0 {
		return fmt.Errorf("nothing to append")
	}
	offset := d.nextNum
	for num, obj := range other.objects {
		d.objects[num+offset] = deepCopy(obj, offset)
		if num+offset > d.nextNum {
			d.nextNum = num + offset
		}
	}
	for _, p := range other.pages {
		dict, ok := d.objects[p.num+offset].(Dict)
		if !ok {
			return fmt.Errorf("page object %d lost during renumber", p.num)
		}
		d.pages = append(d.pages, pageNode{num: p.num + offset, dict: dict})
	}
	d.rebuildPageTree()
	return nil
}

// TextOptions positions a single run of text on a page. Coordinates are in
// PDF points with the origin at the lower-left corner.
type TextOptions struct {
	Text   string
	X, Y   float64
	Size   float64 // point size; 12 when zero
	Gray   float64 // 0 = black .. 1 = white
	Rotate float64 // degrees counter-clockwise about (X, Y)
	Font   Name    // standard-14 base font; Helvetica when empty
}

// AppendPageText draws a text run on page i by appending a content stream.
// Existing content is preserved.
func (d *Document) AppendPageText(i int, opts TextOptions) error {
	if i < 0 || i >= len(d.pages) {
		return fmt.Errorf("page index %d out of range", i)
	}
	if opts.Text == "" {
		return fmt.Errorf("empty text")
	}
	if opts.Size <= 0 {
		opts.Size = 12
	}
	if opts.Font == "" {
		opts.Font = "Helvetica"
	}
	page := d.pages[i].dict
	fontKey := d.ensureFont(page, opts.Font)

	rad := opts.Rotate * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	content := fmt.Sprintf(
		"q\nBT\n/%s %.2f Tf\n%.3f g\n%.4f %.4f %.4f %.4f %.2f %.2f Tm\n(%s) Tj\nET\nQ\n",
		fontKey, opts.Size, opts.Gray,
		cos, sin, -sin, cos, opts.X, opts.Y,
		escapeText(opts.Text),
	)
	streamNum := d.addObject(&Stream{
		Dict: Dict{"Length": Integer(len(content))},
		Data: []byte(content),
	})
	d.appendContent(page, Ref{Num: streamNum})
	return nil
}

// ensureFont registers a standard-14 Type1 font on the page's resources and
// returns the resource key naming it.
func (d *Document) ensureFont(page Dict, base Name) Name {
	if d.fonts == nil {
		d.fonts = make(map[Name]Ref)
	}
	ref, ok := d.fonts[base]
	if !ok {
		ref = Ref{Num: d.addObject(Dict{
			"Type":     Name("Font"),
			"Subtype":  Name("Type1"),
			"BaseFont": base,
		})}
		d.fonts[base] = ref
	}
	res, ok := d.resolve(page["Resources"]).(Dict)
	if !ok {
		res = Dict{}
		page["Resources"] = res
	}
	fonts, ok := d.resolve(res["Font"]).(Dict)
	if !ok {
		fonts = Dict{}
		res["Font"] = fonts
	}
	key := Name("Fx" + string(base))
	fonts[key] = ref
	return key
}

func (d *Document) appendContent(page Dict, ref Ref) {
	switch c := page["Contents"].(type) {
	case nil:
		page["Contents"] = ref
	case Array:
		page["Contents"] = append(c, ref)
	default:
		page["Contents"] = Array{c, ref}
	}
}

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)", "\n", "\\n", "\r", "\\r")
	return r.Replace(s)
}
