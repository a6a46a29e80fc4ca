package editor

// PageMeta is the per-page record tracked alongside the byte buffer. The
// stable id survives rotation and reordering but is regenerated whenever a
// structural edit changes the page count, because the codec gives no identity
// guarantee across such edits.
type PageMeta struct {
	StableID      int64
	SourceIndex   int
	RotationDelta int
	Deleted       bool
}

// Snapshot is an immutable capture of a document's state taken before a
// mutation. Both fields are independent copies; mutating the live document
// never affects a stored snapshot.
type Snapshot struct {
	data  []byte
	pages []PageMeta
}

// Document is one open, editable PDF. Its byte buffer, codec handle and
// raster handle always belong to the same edit generation; the registry swaps
// all three together and never lets them diverge.
type Document struct {
	id       int64
	fileName string
	data     []byte
	pages    []PageMeta
	parsed   CodecHandle
	rasterH  RasterHandle
	undo     []Snapshot
	redo     []Snapshot
	dirty    bool
	current  int // 1-based
}

func (d *Document) ID() int64        { return d.id }
func (d *Document) FileName() string { return d.fileName }

// Bytes returns the authoritative byte buffer. Callers must treat it as
// read-only; every edit replaces the buffer wholesale via the registry.
func (d *Document) Bytes() []byte { return d.data }

// PageCount returns the page count of the current parse generation.
func (d *Document) PageCount() int { return d.parsed.PageCount() }

// LivePageCount counts pages not flagged deleted in the metadata.
func (d *Document) LivePageCount() int {
	n := 0
	for _, p := range d.pages {
		if !p.Deleted {
			n++
		}
	}
	return n
}

// Pages returns a copy of the page metadata.
func (d *Document) Pages() []PageMeta {
	return append([]PageMeta(nil), d.pages...)
}

// Rotation returns the tracked rotation delta of 0-based page index, mod 360.
func (d *Document) Rotation(index int) int {
	if index < 0 || index >= len(d.pages) {
		return 0
	}
	return d.pages[index].RotationDelta
}

// AddRotation folds delta degrees into the tracked rotation of 0-based page
// index. Metadata only; the byte buffer carries the actual /Rotate entry.
func (d *Document) AddRotation(index, delta int) {
	if index < 0 || index >= len(d.pages) {
		return
	}
	d.pages[index].RotationDelta = ((d.pages[index].RotationDelta+delta)%360 + 360) % 360
}

func (d *Document) IsDirty() bool { return d.dirty }

// MarkClean resets the dirty flag, typically after an export.
func (d *Document) MarkClean() { d.dirty = false }

// CurrentPage returns the 1-based current page number.
func (d *Document) CurrentPage() int { return d.current }

// SetCurrentPage clamps n to [1, PageCount] and returns the value applied.
func (d *Document) SetCurrentPage(n int) int {
	d.current = clampPage(n, d.PageCount())
	return d.current
}

// Raster returns the raster handle of the current edit generation.
func (d *Document) Raster() RasterHandle { return d.rasterH }

func (d *Document) UndoDepth() int { return len(d.undo) }
func (d *Document) RedoDepth() int { return len(d.redo) }

// snapshot deep-copies the document's restorable state.
func (d *Document) snapshot() Snapshot {
	return Snapshot{
		data:  append([]byte(nil), d.data...),
		pages: append([]PageMeta(nil), d.pages...),
	}
}

func clampPage(n, count int) int {
	if n < 1 {
		return 1
	}
	if count > 0 && n > count {
		return count
	}
	return n
}
