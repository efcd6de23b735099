// Package fixture generates STL test models from signed distance functions.
package fixture

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/stlthumb/pkg/stl"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

// ErrUnknownShape is returned for shape names Generate does not know.
var ErrUnknownShape = errors.New("unknown shape")

// Shape describes a primitive centered at the origin.
type Shape struct {
	Kind string // "box" or "cylinder"

	// Box edge lengths, or cylinder height in Size[2].
	Size [3]float64
	// Radius is the cylinder radius.
	Radius float64
	// Round is the edge rounding radius.
	Round float64
}

// Shapes lists the supported kinds.
var Shapes = []string{"box", "cylinder"}

func (s Shape) sdf() (sdf.SDF3, error) {
	switch s.Kind {
	case "box":
		return sdf.Box3D(v3.Vec{X: s.Size[0], Y: s.Size[1], Z: s.Size[2]}, s.Round)
	case "cylinder":
		return sdf.Cylinder3D(s.Size[2], s.Radius, s.Round)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, s.Kind)
	}
}

// Generate tessellates the shape with marching cubes into STL facets.
func Generate(s Shape, cells int) ([]stl.Triangle, error) {
	if cells <= 0 {
		cells = DefaultCells
	}

	solid, err := s.sdf()
	if err != nil {
		return nil, err
	}

	triangles := render.ToTriangles(solid, render.NewMarchingCubesUniform(cells))

	out := make([]stl.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		t := stl.Triangle{Normal: [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}}
		for j := 0; j < 3; j++ {
			v := tri[j]
			t.V[j] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		out = append(out, t)
	}
	return out, nil
}
