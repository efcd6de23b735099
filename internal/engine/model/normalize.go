// Package model places a parsed mesh in the normalized viewing volume.
package model

import (
	gomath "math"

	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// DefaultTargetRadius is the half-extent the longest axis is scaled to.
const DefaultTargetRadius float32 = 1.0

// ScaleAndCenter returns the model matrix that moves the bounding box
// center to the origin and scales uniformly so that half of the longest
// axis equals targetRadius. A zero-extent box (empty mesh or a single
// point) keeps scale 1, as does a box so small or so far from the origin
// that the scaled matrix is not representable in float32.
func ScaleAndCenter(b stl.Bounds, targetRadius float32) math.Mat4 {
	center := b.Center()
	translate := math.Translate(-center.X, -center.Y, -center.Z)

	// float64 so that max-min cannot overflow for finite bounds.
	var extent float64
	for i := range b.Min {
		extent = max(extent, float64(b.Max[i])-float64(b.Min[i]))
	}
	if extent == 0 {
		return translate
	}

	scale := float64(targetRadius) / (extent / 2)
	if scale > gomath.MaxFloat32 {
		return translate
	}
	s := float32(scale)
	m := math.Scale(s, s, s).Mul(translate)
	if !m.IsFinite() {
		return translate
	}
	return m
}
