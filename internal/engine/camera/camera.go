// Package camera builds the view and projection matrices for the fixed
// thumbnail camera.
package camera

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/stlthumb/pkg/math"
)

// Camera configuration errors.
var (
	ErrInvalidFOV      = errors.New("field of view must be in (0, 180) degrees")
	ErrInvalidViewport = errors.New("viewport dimensions must be positive")
	ErrInvalidDepth    = errors.New("clip planes must satisfy 0 < near < far")
)

// Camera is a fixed perspective camera looking at a target point.
type Camera struct {
	Eye    math.Vec3
	Target math.Vec3
	Up     math.Vec3

	FOVDegrees float32 // Vertical field of view
	Near       float32
	Far        float32
}

// Default returns the thumbnail camera: above and to the side of the
// origin with Z up.
func Default() Camera {
	return Camera{
		Eye:        math.Vec3{X: 2, Y: 4, Z: 2},
		Target:     math.Vec3{},
		Up:         math.Vec3{X: 0, Y: 0, Z: 1},
		FOVDegrees: 30,
		Near:       0.1,
		Far:        1024,
	}
}

// View returns the world to camera transform.
func (c Camera) View() math.Mat4 {
	return math.ViewMatrix(c.Eye, c.Target.Sub(c.Eye), c.Up)
}

// Projection returns the camera to clip transform for an image of the
// given size. The aspect term is height/width.
func (c Camera) Projection(width, height int) (math.Mat4, error) {
	if width <= 0 || height <= 0 {
		return math.Mat4{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	if !(c.FOVDegrees > 0 && c.FOVDegrees < 180) {
		return math.Mat4{}, fmt.Errorf("%w: got %v", ErrInvalidFOV, c.FOVDegrees)
	}
	if !(c.Near > 0 && c.Near < c.Far) {
		return math.Mat4{}, fmt.Errorf("%w: near=%v far=%v", ErrInvalidDepth, c.Near, c.Far)
	}

	aspect := float32(height) / float32(width)
	fov := float32(float64(c.FOVDegrees) * gomath.Pi / 180.0)
	return math.Perspective(fov, aspect, c.Near, c.Far), nil
}
