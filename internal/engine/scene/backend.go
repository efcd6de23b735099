package scene

import (
	"errors"

	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Backend failure kinds. Both are fatal for a run.
var (
	ErrGraphicsInit = errors.New("graphics initialization failed")
	ErrShader       = errors.New("shader build failed")
)

// Frame is an RGBA8 color buffer read back from a render target.
// Rows are stored bottom-up, as graphics surfaces report them.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * 4
}

// Renderer draws a mesh once into an offscreen color+depth target of the
// given size and reads the color target back.
type Renderer interface {
	Render(mesh *stl.Mesh, p Params, width, height int) (*Frame, error)
	Close()
}

// Presenter is implemented by renderers that can show the last rendered
// frame in a window. Present blocks until the window is closed.
type Presenter interface {
	Present() error
}
