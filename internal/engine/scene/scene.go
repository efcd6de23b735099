// Package scene defines the immutable parameter bundle for one thumbnail
// draw and the interface render backends implement.
package scene

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/stlthumb/internal/engine/lighting"
	"github.com/Faultbox/stlthumb/pkg/math"
)

// ErrInvalidParams is returned when a parameter bundle holds NaN or Inf.
var ErrInvalidParams = errors.New("render parameters are not finite")

// Params is everything a backend needs for the single draw call.
// It is built once per run and never modified.
type Params struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4

	LightDir [3]float32
	Material lighting.Material

	// Background is the RGBA clear color.
	Background [4]float32
}

// Validate checks that every matrix entry and vector component is finite.
func (p Params) Validate() error {
	mats := []struct {
		name string
		m    math.Mat4
	}{
		{"model", p.Model},
		{"view", p.View},
		{"projection", p.Projection},
	}
	for _, e := range mats {
		if !e.m.IsFinite() {
			return fmt.Errorf("%w: %s matrix", ErrInvalidParams, e.name)
		}
	}

	vecs := map[string][]float32{
		"light":      p.LightDir[:],
		"ambient":    p.Material.Ambient[:],
		"diffuse":    p.Material.Diffuse[:],
		"specular":   p.Material.Specular[:],
		"background": p.Background[:],
	}
	for name, v := range vecs {
		for _, c := range v {
			if gomath.IsNaN(float64(c)) || gomath.IsInf(float64(c), 0) {
				return fmt.Errorf("%w: %s", ErrInvalidParams, name)
			}
		}
	}
	return nil
}

// MVP returns Projection * View * Model.
func (p Params) MVP() math.Mat4 {
	return p.Projection.Mul(p.View).Mul(p.Model)
}

// ModelView returns View * Model.
func (p Params) ModelView() math.Mat4 {
	return p.View.Mul(p.Model)
}
