package codec

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
)

// Serialize writes the document back out as a complete PDF file. Only objects
// reachable from the trailer are emitted, which garbage-collects page trees
// and content orphaned by structural edits.
func (d *Document) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reachable := make(map[int]bool)
	d.mark(d.trailer["Root"], reachable)
	d.mark(d.trailer["Info"], reachable)
	if len(reachable) == 0 {
		return nil, fmt.Errorf("nothing reachable from trailer")
	}
	nums := make([]int, 0, len(reachable))
	maxNum := 0
	for num := range reachable {
		nums = append(nums, num)
		if num > maxNum {
			maxNum = num
		}
	}
	sort.Ints(nums)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make(map[int]int, len(nums))
	for _, num := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
		writeObject(&buf, d.objects[num])
		buf.WriteString("\nendobj\n")
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= maxNum; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}
	buf.WriteString("trailer\n")
	trailer := Dict{"Size": Integer(maxNum + 1)}
	if root, ok := d.trailer["Root"]; ok {
		trailer["Root"] = root
	}
	if info, ok := d.trailer["Info"]; ok {
		trailer["Info"] = info
	}
	writeObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefStart)
	return buf.Bytes(), nil
}

func (d *Document) mark(obj Object, reachable map[int]bool) {
	switch v := obj.(type) {
	case Ref:
		if reachable[v.Num] {
			return
		}
		target, ok := d.objects[v.Num]
		if !ok {
			return
		}
		reachable[v.Num] = true
		d.mark(target, reachable)
	case Array:
		for _, it := range v {
			d.mark(it, reachable)
		}
	case Dict:
		for _, it := range v {
			d.mark(it, reachable)
		}
	case *Stream:
		d.mark(v.Dict, reachable)
	}
}

func writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil:
		buf.WriteString("null")
	case Null:
		buf.WriteString("null")
	case Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Integer:
		fmt.Fprintf(buf, "%d", int64(v))
	case Real:
		buf.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case Name:
		buf.WriteByte('/')
		for i := 0; i < len(v); i++ {
			b := v[i]
			if isWhitespace(b) || isDelimiter(b) || b == '#' || b < 0x21 || b > 0x7e {
				fmt.Fprintf(buf, "#%02X", b)
			} else {
				buf.WriteByte(b)
			}
		}
	case String:
		buf.WriteByte('(')
		for _, b := range v {
			switch b {
			case '(', ')', '\\':
				buf.WriteByte('\\')
				buf.WriteByte(b)
			case '\n':
				buf.WriteString("\\n")
			case '\r':
				buf.WriteString("\\r")
			default:
				buf.WriteByte(b)
			}
		}
		buf.WriteByte(')')
	case Array:
		buf.WriteByte('[')
		for i, it := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, it)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, v)
	case Ref:
		fmt.Fprintf(buf, "%d %d R", v.Num, v.Gen)
	case *Stream:
		v.Dict["Length"] = Integer(len(v.Data))
		writeDict(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	}
}

func writeDict(buf *bytes.Buffer, d Dict) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	buf.WriteString("<<")
	for _, k := range keys {
		writeObject(buf, Name(k))
		buf.WriteByte(' ')
		writeObject(buf, d[Name(k)])
		buf.WriteByte('\n')
	}
	buf.WriteString(">>")
}
