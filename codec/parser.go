package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// ErrCorrupt reports bytes the codec cannot interpret as a PDF document.
var ErrCorrupt = errors.New("corrupt document")

// ErrEncrypted reports a document protected by an encryption dictionary.
// Callers treat it as a variant of ErrCorrupt at the user boundary.
var ErrEncrypted = fmt.Errorf("%w: encrypted document", ErrCorrupt)

// Parse interprets data as a complete PDF file and returns its object graph.
//
// The parser reads the whole body front to back instead of chasing the
// cross-reference table: every "N G obj" definition is collected, later
// definitions of the same number win (which makes incremental updates come
// out right), and xref table entries fall out of the token stream as skipped
// integers. This trades startup cost for robustness against the broken xref
// offsets that real-world files routinely carry.
func Parse(ctx context.Context, data []byte) (*Document, error) {
	if !bytes.Contains(peekHeader(data), []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing %%PDF header", ErrCorrupt)
	}
	d := &Document{
		objects: make(map[int]Object),
		trailer: Dict{},
	}
	lex := newLexer(data)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok := lex.next()
		switch tok.typ {
		case tokEOF:
			return d.finish()
		case tokInteger:
			if !d.tryParseIndirect(lex, tok) {
				continue // xref entry or stray number
			}
		case tokKeyword:
			if tok.str == "trailer" {
				obj, err := parseValue(lex, lex.next(), 0)
				if err != nil {
					return nil, fmt.Errorf("%w: trailer: %v", ErrCorrupt, err)
				}
				if td, ok := obj.(Dict); ok {
					d.mergeTrailer(td)
				}
			}
			// xref, startxref, n, f and other keywords carry no structure
			// the scan needs; their operands are consumed as stray tokens.
		}
	}
}

func peekHeader(data []byte) []byte {
	if len(data) > 1024 {
		return data[:1024]
	}
	return data
}

// tryParseIndirect attempts to read "G obj <value> endobj" after an integer
// token. Returns false (with all lookahead pushed back) when the shape does
// not match.
func (d *Document) tryParseIndirect(lex *lexer, numTok token) bool {
	genTok := lex.next()
	if genTok.typ != tokInteger {
		lex.unread(genTok)
		return false
	}
	kwTok := lex.next()
	if kwTok.typ != tokKeyword || kwTok.str != "obj" {
		lex.unread(kwTok)
		lex.unread(genTok)
		return false
	}
	obj, err := parseValue(lex, lex.next(), 0)
	if err != nil {
		return true // malformed body, count the header as consumed
	}
	if dict, ok := obj.(Dict); ok {
		next := lex.next()
		if next.typ == tokKeyword && next.str == "stream" {
			length := d.resolveLength(dict)
			obj = &Stream{Dict: dict, Data: lex.readStreamData(length)}
		} else {
			lex.unread(next)
		}
	}
	end := lex.next()
	if end.typ != tokKeyword || (end.str != "endobj" && end.str != "endstream") {
		lex.unread(end)
	} else if end.str == "endstream" {
		if e2 := lex.next(); e2.typ != tokKeyword || e2.str != "endobj" {
			lex.unread(e2)
		}
	}
	num := int(numTok.int)
	d.objects[num] = obj
	if num > d.nextNum {
		d.nextNum = num
	}
	return true
}

// resolveLength resolves a stream /Length that is either direct or a
// reference to an already-seen object; -1 means unknown.
func (d *Document) resolveLength(dict Dict) int {
	switch v := dict["Length"].(type) {
	case Integer:
		return int(v)
	case Ref:
		if n, ok := d.objects[v.Num].(Integer); ok {
			return int(n)
		}
	}
	return -1
}

func (d *Document) mergeTrailer(td Dict) {
	for k, v := range td {
		d.trailer[k] = v
	}
}

const maxParseDepth = 64

// parseValue parses one object value starting at tok. Indirect references are
// recognized by the int-int-R lookahead.
func parseValue(lex *lexer, tok token, depth int) (Object, error) {
	if depth > maxParseDepth {
		return nil, errors.New("structure nested too deep")
	}
	switch tok.typ {
	case tokInteger:
		// Possible "N G R" reference.
		second := lex.next()
		if second.typ == tokInteger {
			third := lex.next()
			if third.typ == tokKeyword && third.str == "R" {
				return Ref{Num: int(tok.int), Gen: int(second.int)}, nil
			}
			lex.unread(third)
		}
		lex.unread(second)
		return Integer(tok.int), nil
	case tokReal:
		return Real(tok.float), nil
	case tokName:
		return Name(tok.str), nil
	case tokString:
		return String(tok.bytes), nil
	case tokArrayOpen:
		arr := Array{}
		for {
			t := lex.next()
			if t.typ == tokArrayClose {
				return arr, nil
			}
			if t.typ == tokEOF {
				return nil, errors.New("unterminated array")
			}
			item, err := parseValue(lex, t, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
	case tokDictOpen:
		dict := Dict{}
		for {
			t := lex.next()
			if t.typ == tokDictClose {
				return dict, nil
			}
			if t.typ == tokEOF {
				return nil, errors.New("unterminated dictionary")
			}
			if t.typ != tokName {
				return nil, fmt.Errorf("dictionary key is not a name at offset %d", t.pos)
			}
			val, err := parseValue(lex, lex.next(), depth+1)
			if err != nil {
				return nil, err
			}
			dict[Name(t.str)] = val
		}
	case tokKeyword:
		switch tok.str {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at offset %d", tok.str, tok.pos)
	}
	return nil, fmt.Errorf("unexpected token at offset %d", tok.pos)
}
