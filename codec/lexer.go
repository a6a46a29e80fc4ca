package codec

import (
	"bytes"
	"strconv"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokInteger
	tokReal
	tokName
	tokString
	tokArrayOpen
	tokArrayClose
	tokDictOpen
	tokDictClose
	tokKeyword
)

type token struct {
	typ   tokenType
	int   int64
	float float64
	str   string
	bytes []byte
	pos   int
}

// lexer tokenizes a PDF byte stream. It has no notion of object structure;
// the parser layers that on top.
type lexer struct {
	data []byte
	pos  int
	// one-token pushback for the parser's lookahead
	buf    []token
}

func newLexer(data []byte) *lexer { return &lexer{data: data} }

func isWhitespace(b byte) bool {
	return b == 0x00 || b == 0x09 || b == 0x0a || b == 0x0c || b == 0x0d || b == 0x20
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) unread(t token) { l.buf = append(l.buf, t) }

func (l *lexer) next() token {
	if n := len(l.buf); n > 0 {
		t := l.buf[n-1]
		l.buf = l.buf[:n-1]
		return t
	}
	l.skipJunk()
	if l.pos >= len(l.data) {
		return token{typ: tokEOF, pos: l.pos}
	}
	start := l.pos
	b := l.data[l.pos]
	switch {
	case b == '[':
		l.pos++
		return token{typ: tokArrayOpen, pos: start}
	case b == ']':
		l.pos++
		return token{typ: tokArrayClose, pos: start}
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return token{typ: tokDictOpen, pos: start}
		}
		return l.lexHexString()
	case b == '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return token{typ: tokDictClose, pos: start}
		}
		l.pos++ // stray '>', skip
		return l.next()
	case b == '/':
		return l.lexName()
	case b == '(':
		return l.lexLiteralString()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return l.lexNumber()
	default:
		return l.lexKeyword()
	}
}

func (l *lexer) skipJunk() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	isReal := false
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' {
			isReal = true
			l.pos++
			continue
		}
		if b == '+' || b == '-' || (b >= '0' && b <= '9') {
			l.pos++
			continue
		}
		break
	}
	text := string(l.data[start:l.pos])
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{typ: tokKeyword, str: text, pos: start}
		}
		return token{typ: tokReal, float: f, pos: start}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{typ: tokKeyword, str: text, pos: start}
	}
	return token{typ: tokInteger, int: n, pos: start}
}

func (l *lexer) lexName() token {
	start := l.pos
	l.pos++ // consume '/'
	var out []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && l.pos+2 < len(l.data) {
			if hi, ok1 := hexVal(l.data[l.pos+1]); ok1 {
				if lo, ok2 := hexVal(l.data[l.pos+2]); ok2 {
					out = append(out, hi<<4|lo)
					l.pos += 3
					continue
				}
			}
		}
		out = append(out, b)
		l.pos++
	}
	return token{typ: tokName, str: string(out), pos: start}
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func (l *lexer) lexLiteralString() token {
	start := l.pos
	l.pos++ // consume '('
	depth := 1
	var out []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch b {
		case '\\':
			l.pos++
			if l.pos >= len(l.data) {
				break
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				if l.pos+1 < len(l.data) && l.data[l.pos+1] == '\n' {
					l.pos++
				}
			case '\n':
				// line continuation, emit nothing
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && l.pos+1 < len(l.data); k++ {
						c := l.data[l.pos+1]
						if c < '0' || c > '7' {
							break
						}
						val = val*8 + int(c-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			l.pos++
		case '(':
			depth++
			out = append(out, b)
			l.pos++
		case ')':
			depth--
			l.pos++
			if depth == 0 {
				return token{typ: tokString, bytes: out, pos: start}
			}
			out = append(out, b)
		default:
			out = append(out, b)
			l.pos++
		}
	}
	return token{typ: tokString, bytes: out, pos: start}
}

func (l *lexer) lexHexString() token {
	start := l.pos
	l.pos++ // consume '<'
	var out []byte
	var hi byte
	have := false
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '>' {
			l.pos++
			break
		}
		if v, ok := hexVal(b); ok {
			if have {
				out = append(out, hi<<4|v)
				have = false
			} else {
				hi = v
				have = true
			}
		}
		l.pos++
	}
	if have {
		out = append(out, hi<<4)
	}
	return token{typ: tokString, bytes: out, pos: start}
}

func (l *lexer) lexKeyword() token {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		l.pos++ // unlexable byte, skip it
		return l.next()
	}
	return token{typ: tokKeyword, str: string(l.data[start:l.pos]), pos: start}
}

// readStreamData consumes raw stream bytes following a "stream" keyword. When
// length is positive it is trusted; otherwise the data runs to the next
// "endstream" marker.
func (l *lexer) readStreamData(length int) []byte {
	// The keyword is followed by CRLF or LF.
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
	if length >= 0 && l.pos+length <= len(l.data) {
		data := l.data[l.pos : l.pos+length]
		l.pos += length
		return data
	}
	idx := bytes.Index(l.data[l.pos:], []byte("endstream"))
	if idx < 0 {
		data := l.data[l.pos:]
		l.pos = len(l.data)
		return data
	}
	data := l.data[l.pos : l.pos+idx]
	l.pos += idx
	// Strip the EOL that precedes the marker.
	data = bytes.TrimRight(data, "\r\n")
	return data
}
