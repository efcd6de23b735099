package stl

import (
	"github.com/Faultbox/stlthumb/pkg/math"
)

// Mesh is a non-indexed triangle soup. Vertices and Normals are parallel
// and both hold three entries per triangle. A Mesh is not modified after
// NewMesh returns.
type Mesh struct {
	Name     string
	Vertices [][3]float32
	Normals  [][3]float32
	Bounds   Bounds
}

// Bounds is the axis-aligned bounding box of the vertex positions.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box. Halving before adding keeps
// the result finite for coordinates near the float32 limit.
func (b Bounds) Center() math.Vec3 {
	return math.V3(b.Min).Scale(0.5).Add(math.V3(b.Max).Scale(0.5))
}

// Size returns the box extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return math.V3(b.Max).Sub(math.V3(b.Min))
}

// NewMesh builds the triangle soup for tris, assigning each facet normal to
// its three vertices. Facets with a zero normal get the normal implied by
// their winding (right-hand rule). An empty mesh has the zero bounding box.
func NewMesh(tris []Triangle) *Mesh {
	m := &Mesh{
		Vertices: make([][3]float32, 0, len(tris)*3),
		Normals:  make([][3]float32, 0, len(tris)*3),
	}

	for _, t := range tris {
		n := facetNormal(t)
		for _, v := range t.V {
			m.Vertices = append(m.Vertices, v)
			m.Normals = append(m.Normals, n)
		}
	}

	m.Bounds = computeBounds(m.Vertices)
	return m
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Triangles rebuilds the facet list from the soup.
func (m *Mesh) Triangles() []Triangle {
	tris := make([]Triangle, m.TriangleCount())
	for i := range tris {
		tris[i].Normal = m.Normals[i*3]
		copy(tris[i].V[:], m.Vertices[i*3:i*3+3])
	}
	return tris
}

// InterleavedStride is the number of floats per vertex in Interleaved.
const InterleavedStride = 6

// Interleaved returns the soup as x, y, z, nx, ny, nz per vertex, the
// layout of the vertex buffer.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*InterleavedStride)
	for i, v := range m.Vertices {
		n := m.Normals[i]
		out = append(out, v[0], v[1], v[2], n[0], n[1], n[2])
	}
	return out
}

func facetNormal(t Triangle) [3]float32 {
	n := math.V3(t.Normal)
	if n.Length() > 0 {
		return t.Normal
	}
	e1 := math.V3(t.V[1]).Sub(math.V3(t.V[0]))
	e2 := math.V3(t.V[2]).Sub(math.V3(t.V[0]))
	return e1.Cross(e2).Normalize().Array()
}

func computeBounds(vertices [][3]float32) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}

	lo := math.V3(vertices[0])
	hi := lo
	for _, v := range vertices[1:] {
		p := math.V3(v)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return Bounds{Min: lo.Array(), Max: hi.Array()}
}
