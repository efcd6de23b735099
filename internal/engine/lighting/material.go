// Package lighting provides the material and directional light used to
// shade the thumbnail.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/stlthumb/pkg/math"
)

// Shininess is the Blinn-Phong specular exponent.
const Shininess = 16.0

// DefaultLightDir is the direction of the light in view space.
var DefaultLightDir = [3]float32{-1.4, 0.4, -0.7}

// Material holds the RGB colors of the single global material.
type Material struct {
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [3]float32
}

// DefaultMaterial returns the blue plastic look of the thumbnails.
func DefaultMaterial() Material {
	return Material{
		Ambient:  [3]float32{0.0, 0.0, 0.6},
		Diffuse:  [3]float32{0.0, 0.6, 1.0},
		Specular: [3]float32{1.0, 1.0, 1.0},
	}
}

// Shade evaluates the Blinn-Phong model for one fragment. normal is the
// view-space normal, position the fragment position after perspective
// divide, light the light direction. The result is not clamped.
// The GLSL fragment shader computes the same expression.
func Shade(normal, position, light math.Vec3, m Material) [3]float32 {
	n := normal.Normalize()
	l := light.Normalize()

	diffuse := max(n.Dot(l), 0)

	cameraDir := position.Negate().Normalize()
	half := l.Add(cameraDir).Normalize()
	specular := float32(gomath.Pow(float64(max(half.Dot(n), 0)), Shininess))

	var c [3]float32
	for i := range c {
		c[i] = m.Ambient[i] + diffuse*m.Diffuse[i] + specular*m.Specular[i]
	}
	return c
}
