// Package renderer provides the OpenGL thumbnail renderer.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/framebuffer"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/engine/scene/shaders"
	"github.com/Faultbox/stlthumb/internal/engine/shader"
	"github.com/Faultbox/stlthumb/internal/engine/window"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Config holds renderer configuration.
type Config struct {
	Title   string
	Width   int
	Height  int
	Visible bool
}

// uniforms caches the uniform locations of the mesh program.
type uniforms struct {
	model      int32
	view       int32
	projection int32
	lightDir   int32
	ambient    int32
	diffuse    int32
	specular   int32
}

// Renderer draws a mesh with OpenGL into an offscreen framebuffer.
// All methods must be called from the main thread.
type Renderer struct {
	config Config
	win    *window.Window
	fb     *framebuffer.Framebuffer

	program  uint32
	uniforms uniforms

	vao uint32
	vbo uint32
}

// New opens the window, initializes OpenGL and builds the shader program.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	win, err := window.New(window.Config{
		Title:   cfg.Title,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Visible: cfg.Visible,
	})
	if err != nil {
		return nil, err
	}
	r.win = win

	if err := gl.Init(); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: failed to initialize OpenGL: %v", scene.ErrGraphicsInit, err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// The view basis mirrors the image, so outward faces arrive clockwise.
	gl.Enable(gl.CULL_FACE)
	gl.FrontFace(gl.CW)
	gl.CullFace(gl.BACK)

	r.program, err = shader.CompileProgram(shaders.ModelVertexShader, shaders.ModelFragmentShader)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("building mesh program: %w", err)
	}
	r.uniforms = uniforms{
		model:      shader.GetUniform(r.program, "uModel"),
		view:       shader.GetUniform(r.program, "uView"),
		projection: shader.GetUniform(r.program, "uProjection"),
		lightDir:   shader.GetUniform(r.program, "uLightDir"),
		ambient:    shader.GetUniform(r.program, "uAmbient"),
		diffuse:    shader.GetUniform(r.program, "uDiffuse"),
		specular:   shader.GetUniform(r.program, "uSpecular"),
	}

	return r, nil
}

// Close releases GPU resources and the window.
func (r *Renderer) Close() {
	logger.Debug("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.fb != nil {
		r.fb.Destroy()
		r.fb = nil
	}
	if r.win != nil {
		r.win.Close()
		r.win = nil
	}
}

// Render uploads the mesh, draws it once and reads the color target back.
func (r *Renderer) Render(mesh *stl.Mesh, p scene.Params, width, height int) (*scene.Frame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fb, err := r.target(int32(width), int32(height))
	if err != nil {
		return nil, err
	}

	count := r.upload(mesh)
	if err := glError(gl.GetError(), fmt.Sprintf("uploading %d vertices", count)); err != nil {
		return nil, err
	}

	fb.Bind()
	fb.Clear(p.Background[0], p.Background[1], p.Background[2], p.Background[3])

	if count > 0 {
		gl.UseProgram(r.program)
		gl.UniformMatrix4fv(r.uniforms.model, 1, false, p.Model.Ptr())
		gl.UniformMatrix4fv(r.uniforms.view, 1, false, p.View.Ptr())
		gl.UniformMatrix4fv(r.uniforms.projection, 1, false, p.Projection.Ptr())
		gl.Uniform3fv(r.uniforms.lightDir, 1, &p.LightDir[0])
		gl.Uniform3fv(r.uniforms.ambient, 1, &p.Material.Ambient[0])
		gl.Uniform3fv(r.uniforms.diffuse, 1, &p.Material.Diffuse[0])
		gl.Uniform3fv(r.uniforms.specular, 1, &p.Material.Specular[0])

		gl.BindVertexArray(r.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(count))
		gl.BindVertexArray(0)
		gl.UseProgram(0)
	}

	frame := fb.ReadPixels()
	fb.Unbind()

	if err := glError(gl.GetError(), "drawing"); err != nil {
		return nil, err
	}

	logger.Debug("frame rendered",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("vertices", count),
	)
	return frame, nil
}

// target returns the offscreen framebuffer, reusing the previous one when
// the size is unchanged.
func (r *Renderer) target(width, height int32) (*framebuffer.Framebuffer, error) {
	if r.fb != nil {
		if w, h := r.fb.Size(); w == width && h == height {
			return r.fb, nil
		}
		r.fb.Destroy()
		r.fb = nil
	}
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, err
	}
	r.fb = fb
	return fb, nil
}

// glError converts a glGetError code into a graphics error. Every code is
// consumed, so callers check after each stage.
func glError(code uint32, stage string) error {
	switch code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%w: out of video memory %s", scene.ErrGraphicsInit, stage)
	default:
		return fmt.Errorf("%w: GL error 0x%x %s", scene.ErrGraphicsInit, code, stage)
	}
}

// upload copies the interleaved position/normal stream into the vertex
// buffer and returns the vertex count.
func (r *Renderer) upload(mesh *stl.Mesh) int {
	data := mesh.Interleaved()
	count := len(data) / stl.InterleavedStride
	if count == 0 {
		return 0
	}

	if r.vao == 0 {
		gl.GenVertexArrays(1, &r.vao)
		gl.GenBuffers(1, &r.vbo)
	}
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)

	stride := int32(stl.InterleavedStride * 4)
	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	// Normal attribute (location = 1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return count
}

// Present shows the last rendered frame until the window is closed.
// A hidden window returns immediately.
func (r *Renderer) Present() error {
	if r.fb == nil {
		return fmt.Errorf("present: nothing rendered")
	}
	if !r.win.Visible() {
		return nil
	}
	return scene.PresentLoop(surface{r}, scene.PresentIdle)
}

// surface adapts the renderer's window to scene.Surface.
type surface struct {
	r *Renderer
}

func (s surface) Blit() error {
	dw, dh := s.r.win.DrawableSize()
	gl.Viewport(0, 0, dw, dh)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	s.r.fb.BlitToDefault(dw, dh)
	s.r.win.SwapBuffers()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("present: GL error 0x%x", code)
	}
	return nil
}

func (s surface) PollClose() bool {
	return s.r.win.PollClose()
}
