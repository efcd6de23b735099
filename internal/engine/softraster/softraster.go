// Package softraster is a CPU implementation of the thumbnail renderer.
// It follows the same fixed-function rules as the OpenGL backend: window
// coordinates with the origin at the bottom-left, counter-clockwise faces
// culled, depth test LESS against a buffer cleared to 1.0 and per-pixel
// Blinn-Phong shading with perspective-correct varyings.
package softraster

import (
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/lighting"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// MaxDimension bounds the render target, matching common GPU limits.
const MaxDimension = 16384

// Stats reports what happened to the triangles of the last draw.
type Stats struct {
	Submitted int
	Culled    int // Back-facing or degenerate in window space
	Clipped   int // A vertex behind the eye
	Drawn     int
}

// Renderer rasterizes a mesh into memory.
type Renderer struct {
	depth []float32
	stats Stats
}

// New creates a software renderer.
func New() *Renderer {
	logger.Debug("software renderer created")
	return &Renderer{}
}

// Stats returns the triangle counters of the last Render call.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Close releases the depth buffer.
func (r *Renderer) Close() {
	r.depth = nil
}

// varying holds the per-vertex outputs of the vertex stage.
type varying struct {
	x, y, z float32 // Window coordinates, z in [0, 1]
	invW    float32
	normal  math.Vec3 // View-space normal
	pos     math.Vec3 // Clip position after perspective divide
}

// Render draws the mesh once and returns the color buffer.
func (r *Renderer) Render(mesh *stl.Mesh, p scene.Params, width, height int) (*scene.Frame, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: unsupported target size %dx%d", scene.ErrGraphicsInit, width, height)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	frame := &scene.Frame{Width: width, Height: height, Pix: make([]byte, width*height*4)}
	r.clear(frame, p.Background)
	r.stats = Stats{Submitted: mesh.TriangleCount()}

	mvp := p.MVP()
	normalMat := p.ModelView().NormalMatrix()
	light := math.V3(p.LightDir)

	var tri [3]varying
	for t := 0; t < mesh.TriangleCount(); t++ {
		behind := false
		for i := range tri {
			idx := t*3 + i
			v := mesh.Vertices[idx]
			clip := mvp.MulVec4(math.Vec4{v[0], v[1], v[2], 1})
			if clip[3] <= 0 {
				behind = true
				break
			}
			invW := 1 / clip[3]
			ndc := math.Vec3{X: clip[0] * invW, Y: clip[1] * invW, Z: clip[2] * invW}
			tri[i] = varying{
				x:      (ndc.X + 1) * 0.5 * float32(width),
				y:      (ndc.Y + 1) * 0.5 * float32(height),
				z:      (ndc.Z + 1) * 0.5,
				invW:   invW,
				normal: math.V3(math.MulMat3(normalMat, mesh.Normals[idx])),
				pos:    ndc,
			}
		}
		if behind {
			r.stats.Clipped++
			continue
		}

		if r.drawTriangle(frame, &tri, light, p.Material) {
			r.stats.Drawn++
		} else {
			r.stats.Culled++
		}
	}

	logger.Debug("software render finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("triangles", r.stats.Submitted),
		zap.Int("drawn", r.stats.Drawn),
		zap.Int("culled", r.stats.Culled),
		zap.Int("clipped", r.stats.Clipped),
	)
	return frame, nil
}

// clear fills the color buffer with bg and the depth buffer with 1.0.
func (r *Renderer) clear(frame *scene.Frame, bg [4]float32) {
	n := frame.Width * frame.Height
	if cap(r.depth) < n {
		r.depth = make([]float32, n)
	}
	r.depth = r.depth[:n]

	px := [4]byte{toByte(bg[0]), toByte(bg[1]), toByte(bg[2]), toByte(bg[3])}
	for i := 0; i < n; i++ {
		r.depth[i] = 1
		copy(frame.Pix[i*4:], px[:])
	}
}

// edge returns twice the signed area of (a, b, p); positive when the
// three points turn counter-clockwise.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// drawTriangle fills one triangle. It returns false when the triangle is
// back-facing or has no area.
func (r *Renderer) drawTriangle(frame *scene.Frame, tri *[3]varying, light math.Vec3, mat lighting.Material) bool {
	v0, v1, v2 := &tri[0], &tri[1], &tri[2]

	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	// Front faces are clockwise in window space.
	if !(area < 0) {
		return false
	}

	w, h := frame.Width, frame.Height
	minX := max(0, int(gomath.Floor(float64(min(v0.x, v1.x, v2.x)))))
	maxX := min(w-1, int(gomath.Ceil(float64(max(v0.x, v1.x, v2.x)))))
	minY := max(0, int(gomath.Floor(float64(min(v0.y, v1.y, v2.y)))))
	maxY := min(h-1, int(gomath.Ceil(float64(max(v0.y, v1.y, v2.y)))))

	invArea := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5

			b0 := edge(v1.x, v1.y, v2.x, v2.y, px, py) * invArea
			b1 := edge(v2.x, v2.y, v0.x, v0.y, px, py) * invArea
			b2 := edge(v0.x, v0.y, v1.x, v1.y, px, py) * invArea
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*v0.z + b1*v1.z + b2*v2.z
			if z < 0 || z > 1 {
				continue
			}
			i := y*w + x
			if !(z < r.depth[i]) {
				continue
			}

			// Perspective-correct weights for the varyings.
			p0, p1, p2 := b0*v0.invW, b1*v1.invW, b2*v2.invW
			sum := p0 + p1 + p2
			if sum == 0 {
				continue
			}
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			normal := v0.normal.Scale(p0).Add(v1.normal.Scale(p1)).Add(v2.normal.Scale(p2))
			pos := v0.pos.Scale(p0).Add(v1.pos.Scale(p1)).Add(v2.pos.Scale(p2))
			c := lighting.Shade(normal, pos, light, mat)

			r.depth[i] = z
			o := i * 4
			frame.Pix[o+0] = toByte(c[0])
			frame.Pix[o+1] = toByte(c[1])
			frame.Pix[o+2] = toByte(c[2])
			frame.Pix[o+3] = 255
		}
	}
	return true
}

// toByte clamps c to [0, 1] and converts it to an 8-bit channel value.
func toByte(c float32) byte {
	if !(c > 0) {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return byte(c*255 + 0.5)
}
