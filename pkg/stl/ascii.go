package stl

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// token is a whitespace-separated word of an ASCII STL file.
type token struct {
	text string
	line int
}

// asciiReader walks the token stream of an ASCII STL file.
type asciiReader struct {
	tokens []token
	pos    int
	last   int // line of the last consumed token
}

func newASCIIReader(data []byte) (*asciiReader, error) {
	r := &asciiReader{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if i := bytes.IndexFunc(sc.Bytes(), isControl); i >= 0 {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: control byte 0x%02x", ErrSyntax, sc.Bytes()[i])}
		}
		for _, f := range strings.Fields(sc.Text()) {
			r.tokens = append(r.tokens, token{text: f, line: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: line + 1, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}
	return r, nil
}

// isControl reports bytes that never appear in ASCII STL text, such as the
// NULs of a binary record.
func isControl(r rune) bool {
	switch r {
	case '\t', '\v', '\f', '\r':
		return false
	}
	return r < 0x20 || r == 0x7f || r == utf8.RuneError
}

func (r *asciiReader) eof() bool {
	return r.pos >= len(r.tokens)
}

func (r *asciiReader) next() (token, bool) {
	if r.eof() {
		return token{}, false
	}
	t := r.tokens[r.pos]
	r.pos++
	r.last = t.line
	return t, true
}

func (r *asciiReader) peek() string {
	if r.eof() {
		return ""
	}
	return strings.ToLower(r.tokens[r.pos].text)
}

// expect consumes one keyword. EOF inside a facet is reported as truncation.
func (r *asciiReader) expect(keyword string) error {
	t, ok := r.next()
	if !ok {
		return &ParseError{Line: r.last, Err: fmt.Errorf("%w: expected %q", ErrTruncated, keyword)}
	}
	if !strings.EqualFold(t.text, keyword) {
		return &ParseError{Line: t.line, Err: fmt.Errorf("%w: expected %q, got %q", ErrSyntax, keyword, t.text)}
	}
	return nil
}

// vec3 consumes three numbers.
func (r *asciiReader) vec3() ([3]float32, error) {
	var v [3]float32
	for i := range v {
		t, ok := r.next()
		if !ok {
			return v, &ParseError{Line: r.last, Err: fmt.Errorf("%w: expected number", ErrTruncated)}
		}
		f, err := strconv.ParseFloat(t.text, 32)
		if err != nil {
			return v, &ParseError{Line: t.line, Err: fmt.Errorf("%w: bad number %q", ErrSyntax, t.text)}
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseASCII parses "solid name facet... endsolid". A missing endsolid
// after the last complete facet is accepted.
func parseASCII(data []byte) (string, []Triangle, error) {
	r, err := newASCIIReader(data)
	if err != nil {
		return "", nil, err
	}

	if err := r.expect("solid"); err != nil {
		return "", nil, err
	}
	var nameParts []string
	for !r.eof() && r.tokens[r.pos].line == r.last && r.peek() != "facet" {
		t, _ := r.next()
		nameParts = append(nameParts, t.text)
	}
	name := strings.Join(nameParts, " ")

	var tris []Triangle
	for {
		switch r.peek() {
		case "":
			return name, tris, nil
		case "endsolid":
			return name, tris, nil
		case "facet":
			tri, err := r.facet()
			if err != nil {
				return "", nil, err
			}
			tris = append(tris, tri)
		default:
			t, _ := r.next()
			return "", nil, &ParseError{Line: t.line, Err: fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)}
		}
	}
}

// facet parses one "facet normal ... endfacet" block.
func (r *asciiReader) facet() (Triangle, error) {
	var tri Triangle

	if err := r.expect("facet"); err != nil {
		return tri, err
	}
	if err := r.expect("normal"); err != nil {
		return tri, err
	}
	n, err := r.vec3()
	if err != nil {
		return tri, err
	}
	tri.Normal = n

	if err := r.expect("outer"); err != nil {
		return tri, err
	}
	if err := r.expect("loop"); err != nil {
		return tri, err
	}

	start := r.last
	count := 0
	for r.peek() == "vertex" {
		r.next()
		v, err := r.vec3()
		if err != nil {
			return tri, err
		}
		if count < 3 {
			tri.V[count] = v
		}
		count++
	}
	if r.eof() {
		return tri, &ParseError{Line: r.last, Err: fmt.Errorf("%w: unterminated facet", ErrTruncated)}
	}
	if count != 3 {
		return tri, &ParseError{Line: start, Err: fmt.Errorf("%w: facet has %d vertices", ErrCountMismatch, count)}
	}

	if err := r.expect("endloop"); err != nil {
		return tri, err
	}
	if err := r.expect("endfacet"); err != nil {
		return tri, err
	}
	return tri, nil
}
