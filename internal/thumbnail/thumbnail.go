// Package thumbnail runs the STL to PNG pipeline: parse the mesh, fit it
// into the view, render it once with a backend and write the image.
package thumbnail

import (
	"errors"
	"fmt"

	"github.com/Faultbox/stlthumb/internal/engine/camera"
	"github.com/Faultbox/stlthumb/internal/engine/lighting"
	"github.com/Faultbox/stlthumb/internal/engine/model"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/metrics"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Pipeline error kinds. Render failures carry scene.ErrGraphicsInit or
// scene.ErrShader instead.
var (
	ErrInputIO  = errors.New("cannot read input")
	ErrParse    = errors.New("malformed STL")
	ErrOutputIO = errors.New("cannot write output")
	// ErrSettings reports a camera or image size that cannot be rendered.
	ErrSettings = errors.New("invalid render settings")
)

// Settings are the design constants of every thumbnail.
type Settings struct {
	Camera       camera.Camera
	LightDir     [3]float32
	Material     lighting.Material
	Background   [4]float32 // Transparent white
	TargetRadius float32
}

// DefaultSettings returns the look of the thumbnails.
func DefaultSettings() Settings {
	return Settings{
		Camera:       camera.Default(),
		LightDir:     lighting.DefaultLightDir,
		Material:     lighting.DefaultMaterial(),
		Background:   [4]float32{1, 1, 1, 0},
		TargetRadius: model.DefaultTargetRadius,
	}
}

// BuildParams derives the render parameters for mesh at the given size.
func BuildParams(mesh *stl.Mesh, s Settings, width, height int) (scene.Params, error) {
	proj, err := s.Camera.Projection(width, height)
	if err != nil {
		return scene.Params{}, fmt.Errorf("%w: %w", ErrSettings, err)
	}

	p := scene.Params{
		Model:      model.ScaleAndCenter(mesh.Bounds, s.TargetRadius),
		View:       s.Camera.View(),
		Projection: proj,
		LightDir:   s.LightDir,
		Material:   s.Material,
		Background: s.Background,
	}
	if err := p.Validate(); err != nil {
		return scene.Params{}, err
	}
	return p, nil
}

// Result maps a pipeline error to its metrics label.
func Result(err error) string {
	var perr *stl.ParseError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrParse), errors.As(err, &perr):
		return metrics.ResultParseError
	case errors.Is(err, ErrInputIO):
		return metrics.ResultInputError
	case errors.Is(err, ErrOutputIO):
		return metrics.ResultOutputError
	case errors.Is(err, ErrSettings):
		return metrics.ResultConfigError
	default:
		return metrics.ResultGraphicsError
	}
}
