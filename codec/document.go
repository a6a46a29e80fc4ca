package codec

import (
	"fmt"
)

// Document is a parsed, page-addressable PDF object graph. It is exclusively
// owned by its creator; no two documents share objects.
type Document struct {
	objects map[int]Object
	trailer Dict
	nextNum int
	pages   []pageNode
	fonts   map[Name]Ref // standard-font cache, keyed by base font name
}

type pageNode struct {
	num  int // object number of the page dictionary
	dict Dict
}

func (d *Document) finish() (*Document, error) {
	if _, encrypted := d.trailer["Encrypt"]; encrypted {
		return nil, ErrEncrypted
	}
	rootObj, ok := d.trailer["Root"]
	if !ok {
		// Some writers omit the trailer when xref streams carry it; fall back
		// to scanning for a catalog.
		if ref, found := d.findCatalog(); found {
			d.trailer["Root"] = ref
			rootObj = ref
		} else {
			return nil, fmt.Errorf("%w: no document catalog", ErrCorrupt)
		}
	}
	root, ok := d.resolve(rootObj).(Dict)
	if !ok {
		return nil, fmt.Errorf("%w: catalog is %s", ErrCorrupt, describe(d.resolve(rootObj)))
	}
	if err := d.collectPages(root["Pages"], inherited{}, 0); err != nil {
		return nil, err
	}
	if len(d.pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrCorrupt)
	}
	return d, nil
}

func (d *Document) findCatalog() (Ref, bool) {
	for num, obj := range d.objects {
		if dict, ok := obj.(Dict); ok {
			if t, _ := dict.Name("Type"); t == "Catalog" {
				return Ref{Num: num}, true
			}
		}
	}
	return Ref{}, false
}

// inherited carries the page-tree attributes that flow from Pages nodes down
// to leaves. They are materialized onto each page dictionary during flatten
// so later tree rebuilds cannot lose them.
type inherited struct {
	mediaBox  Object
	resources Object
	rotate    Object
}

const maxTreeDepth = 64

func (d *Document) collectPages(node Object, inh inherited, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: page tree nested too deep", ErrCorrupt)
	}
	ref, isRef := node.(Ref)
	dict, ok := d.resolve(node).(Dict)
	if !ok {
		return fmt.Errorf("%w: page tree node is %s", ErrCorrupt, describe(d.resolve(node)))
	}
	if v, found := dict["MediaBox"]; found {
		inh.mediaBox = v
	}
	if v, found := dict["Resources"]; found {
		inh.resources = v
	}
	if v, found := dict["Rotate"]; found {
		inh.rotate = v
	}
	typ, _ := dict.Name("Type")
	if typ == "Page" || (typ == "" && dict["Kids"] == nil) {
		if !isRef {
			// Pages must be indirect so the tree rebuild can reference them.
			ref = Ref{Num: d.addObject(dict)}
		}
		if _, found := dict["MediaBox"]; !found && inh.mediaBox != nil {
			dict["MediaBox"] = inh.mediaBox
		}
		if _, found := dict["Resources"]; !found && inh.resources != nil {
			dict["Resources"] = inh.resources
		}
		if _, found := dict["Rotate"]; !found && inh.rotate != nil {
			dict["Rotate"] = inh.rotate
		}
		d.pages = append(d.pages, pageNode{num: ref.Num, dict: dict})
		return nil
	}
	kids, ok := d.resolve(dict["Kids"]).(Array)
	if !ok {
		return fmt.Errorf("%w: Pages node without Kids", ErrCorrupt)
	}
	for _, kid := range kids {
		if err := d.collectPages(kid, inh, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// resolve follows indirect references until a direct object is reached.
func (d *Document) resolve(obj Object) Object {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj
		}
		next, found := d.objects[ref.Num]
		if !found {
			return Null{}
		}
		obj = next
	}
	return Null{}
}

func (d *Document) addObject(obj Object) int {
	d.nextNum++
	d.objects[d.nextNum] = obj
	return d.nextNum
}

// PageCount returns the number of pages in the flattened page tree.
func (d *Document) PageCount() int { return len(d.pages) }

// PageSize returns the width and height of page i (0-based) in PDF points,
// before rotation is applied.
func (d *Document) PageSize(i int) (w, h float64, err error) {
	if i < 0 || i >= len(d.pages) {
		return 0, 0, fmt.Errorf("page index %d out of range", i)
	}
	box, ok := d.resolve(d.pages[i].dict["MediaBox"]).(Array)
	if !ok || len(box) != 4 {
		// Letter-size default, matching what viewers assume.
		return 612, 792, nil
	}
	vals := make([]float64, 4)
	for j, v := range box {
		switch n := d.resolve(v).(type) {
		case Integer:
			vals[j] = float64(n)
		case Real:
			vals[j] = float64(n)
		}
	}
	return vals[2] - vals[0], vals[3] - vals[1], nil
}

// PageRotation returns the effective /Rotate value of page i, normalized to
// {0, 90, 180, 270}.
func (d *Document) PageRotation(i int) (int, error) {
	if i < 0 || i >= len(d.pages) {
		return 0, fmt.Errorf("page index %d out of range", i)
	}
	rot := d.pages[i].dict.Int("Rotate", 0)
	return ((rot % 360) + 360) % 360, nil
}

// rebuildPageTree replaces the document's page tree with a single flat Pages
// node listing d.pages in order. Called after every structural mutation.
func (d *Document) rebuildPageTree() {
	kids := make(Array, len(d.pages))
	for i, p := range d.pages {
		kids[i] = Ref{Num: p.num}
	}
	pagesDict := Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": Integer(len(d.pages)),
	}
	pagesNum := d.addObject(pagesDict)
	for _, p := range d.pages {
		p.dict["Parent"] = Ref{Num: pagesNum}
	}
	root, _ := d.resolve(d.trailer["Root"]).(Dict)
	if root == nil {
		root = Dict{"Type": Name("Catalog")}
		d.trailer["Root"] = Ref{Num: d.addObject(root)}
	}
	root["Pages"] = Ref{Num: pagesNum}
}
