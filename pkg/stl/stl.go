// Package stl parses STL triangle meshes (binary and ASCII) into a
// non-indexed triangle soup ready for GPU upload.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Binary STL layout.
const (
	HeaderSize = 80
	// RecordSize is normal + 3 vertices (12 float32) + attribute byte count.
	RecordSize = 50
	preamble   = HeaderSize + 4
)

// STL format errors.
var (
	ErrInvalidHeader = errors.New("invalid STL header")
	ErrTruncated     = errors.New("truncated STL data")
	ErrCountMismatch = errors.New("STL vertex/normal count mismatch")
	ErrSyntax        = errors.New("invalid ASCII STL syntax")
)

// ParseError reports structurally malformed STL input.
// Offset is the byte offset for binary data, Line the line number for ASCII.
type ParseError struct {
	Offset int64
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("stl: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("stl: offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Triangle is one STL facet: a facet normal and three vertices.
type Triangle struct {
	Normal [3]float32
	V      [3][3]float32
}

// Parse reads an entire STL stream and builds a mesh.
// Structural defects are returned as *ParseError; read failures are
// returned wrapped as-is.
func Parse(r io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}

	name, tris, err := parse(data)
	if err != nil {
		return nil, err
	}

	mesh := NewMesh(tris)
	mesh.Name = name
	return mesh, nil
}

// parse picks the variant. Binary files may also begin with "solid", so
// data that starts with "solid" is read as ASCII first and falls back to
// binary when the ASCII read fails or finds no facets but the binary
// record count fits the data.
func parse(data []byte) (string, []Triangle, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseBinary(data)
	}
	size, ok := binarySize(data)
	if ok && size == int64(len(data)) {
		return parseBinary(data)
	}

	name, tris, err := parseASCII(data)
	if (err != nil || len(tris) == 0) && ok && size <= int64(len(data)) {
		return parseBinary(data)
	}
	return name, tris, err
}

// binarySize returns the length of a binary STL with the record count
// found in data.
func binarySize(data []byte) (int64, bool) {
	if len(data) < preamble {
		return 0, false
	}
	count := binary.LittleEndian.Uint32(data[HeaderSize:preamble])
	return int64(preamble) + int64(count)*RecordSize, true
}

// parseBinary parses binary STL data. Bytes after the last record are ignored.
func parseBinary(data []byte) (string, []Triangle, error) {
	if len(data) < preamble {
		return "", nil, &ParseError{Offset: int64(len(data)), Err: ErrInvalidHeader}
	}

	name := string(bytes.TrimRight(data[:HeaderSize], " \x00"))
	count := binary.LittleEndian.Uint32(data[HeaderSize:preamble])

	need := int64(preamble) + int64(count)*RecordSize
	if int64(len(data)) < need {
		// Report the offset of the first incomplete record.
		complete := (int64(len(data)) - preamble) / RecordSize
		return "", nil, &ParseError{
			Offset: preamble + complete*RecordSize,
			Err:    fmt.Errorf("%w: header declares %d triangles, data holds %d", ErrTruncated, count, complete),
		}
	}

	tris := make([]Triangle, count)
	off := preamble
	for i := range tris {
		rec := data[off : off+RecordSize]
		tris[i].Normal = readVec3(rec[0:12])
		for v := 0; v < 3; v++ {
			start := 12 + 12*v
			tris[i].V[v] = readVec3(rec[start : start+12])
		}
		off += RecordSize
	}

	return name, tris, nil
}

func readVec3(b []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// Encode writes triangles as binary STL. The header is truncated or
// space-padded to 80 bytes.
func Encode(w io.Writer, header string, tris []Triangle) error {
	if uint64(len(tris)) > math.MaxUint32 {
		return fmt.Errorf("too many triangles: %d", len(tris))
	}

	buf := make([]byte, preamble+len(tris)*RecordSize)
	hdr := buf[:HeaderSize]
	for i := range hdr {
		hdr[i] = ' '
	}
	copy(hdr, header)
	binary.LittleEndian.PutUint32(buf[HeaderSize:preamble], uint32(len(tris)))

	off := preamble
	for _, t := range tris {
		putVec3(buf[off:], t.Normal)
		for v := 0; v < 3; v++ {
			putVec3(buf[off+12+12*v:], t.V[v])
		}
		// Attribute byte count stays zero
		off += RecordSize
	}

	_, err := w.Write(buf)
	return err
}

func putVec3(b []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v[2]))
}

// EncodeASCII writes triangles as ASCII STL under the given solid name.
func EncodeASCII(w io.Writer, name string, tris []Triangle) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range tris {
		fmt.Fprintf(bw, "  facet normal %e %e %e\n", t.Normal[0], t.Normal[1], t.Normal[2])
		bw.WriteString("    outer loop\n")
		for _, v := range t.V {
			fmt.Fprintf(bw, "      vertex %e %e %e\n", v[0], v[1], v[2])
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
