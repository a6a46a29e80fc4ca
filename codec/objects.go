package codec

import "fmt"

// Object is a node in the PDF object graph. The concrete types mirror the
// eight basic PDF object kinds plus indirect references.
type Object interface{ pdfObject() }

type Name string

type Integer int64

type Real float64

// String holds the raw (unescaped) bytes of a PDF string object.
type String []byte

type Bool bool

type Null struct{}

type Array []Object

type Dict map[Name]Object

// Ref is an indirect reference to a numbered object.
type Ref struct {
	Num int
	Gen int
}

// Stream pairs a stream dictionary with its raw data. Filters are passed
// through untouched; this codec does not decode stream content.
type Stream struct {
	Dict Dict
	Data []byte
}

func (Name) pdfObject()    {}
func (Integer) pdfObject() {}
func (Real) pdfObject()    {}
func (String) pdfObject()  {}
func (Bool) pdfObject()    {}
func (Null) pdfObject()    {}
func (Array) pdfObject()   {}
func (Dict) pdfObject()    {}
func (Ref) pdfObject()     {}
func (*Stream) pdfObject() {}

func (d Dict) Get(key Name) (Object, bool) {
	v, ok := d[key]
	return v, ok
}

func (d Dict) Set(key Name, v Object) { d[key] = v }

// Int returns the integer value of key, or def when absent or not numeric.
func (d Dict) Int(key Name, def int) int {
	switch v := d[key].(type) {
	case Integer:
		return int(v)
	case Real:
		return int(v)
	}
	return def
}

func (d Dict) Name(key Name) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// deepCopy clones an object graph node, shifting every indirect reference by
// offset. Used by snapshot-free structural operations (merge, extract) that
// must not alias the source document.
func deepCopy(obj Object, offset int) Object {
	switch v := obj.(type) {
	case Array:
		out := make(Array, len(v))
		for i, it := range v {
			out[i] = deepCopy(it, offset)
		}
		return out
	case Dict:
		out := make(Dict, len(v))
		for k, it := range v {
			out[k] = deepCopy(it, offset)
		}
		return out
	case *Stream:
		return &Stream{
			Dict: deepCopy(v.Dict, offset).(Dict),
			Data: append([]byte(nil), v.Data...),
		}
	case String:
		return String(append([]byte(nil), v...))
	case Ref:
		return Ref{Num: v.Num + offset, Gen: v.Gen}
	default:
		return obj
	}
}

func describe(obj Object) string {
	switch v := obj.(type) {
	case nil:
		return "nil"
	case Ref:
		return fmt.Sprintf("%d %d R", v.Num, v.Gen)
	default:
		return fmt.Sprintf("%T", v)
	}
}
