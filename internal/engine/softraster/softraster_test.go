package softraster

import (
	"bytes"
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/stlthumb/internal/engine/camera"
	"github.com/Faultbox/stlthumb/internal/engine/lighting"
	"github.com/Faultbox/stlthumb/internal/engine/model"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

var background = [4]byte{255, 255, 255, 0}

func flatParams() scene.Params {
	return scene.Params{
		Model:      math.Identity(),
		View:       math.Identity(),
		Projection: math.Identity(),
		LightDir:   lighting.DefaultLightDir,
		Material:   lighting.DefaultMaterial(),
		Background: [4]float32{1, 1, 1, 0},
	}
}

// quadTri returns a triangle covering the middle of the viewport at depth z,
// wound clockwise in window space when front is true.
func quadTri(z float32, normal [3]float32, front bool) stl.Triangle {
	a := [3]float32{-0.5, -0.5, z}
	b := [3]float32{0, 0.5, z}
	c := [3]float32{0.5, -0.5, z}
	if !front {
		b, c = c, b
	}
	return stl.Triangle{Normal: normal, V: [3][3]float32{a, b, c}}
}

func pixel(f *scene.Frame, x, y int) [4]byte {
	o := (y*f.Width + x) * 4
	return [4]byte{f.Pix[o], f.Pix[o+1], f.Pix[o+2], f.Pix[o+3]}
}

func TestRenderFrontFacingTriangle(t *testing.T) {
	r := New()
	defer r.Close()

	mesh := stl.NewMesh([]stl.Triangle{quadTri(0, [3]float32{0, 0, -1}, true)})
	f, err := r.Render(mesh, flatParams(), 40, 30)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if len(f.Pix) != 40*30*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(f.Pix), 40*30*4)
	}
	if got := pixel(f, 20, 15); got == background || got[3] != 255 {
		t.Errorf("center pixel = %v, want opaque mesh color", got)
	}
	for _, c := range [][2]int{{0, 0}, {39, 0}, {0, 29}, {39, 29}} {
		if got := pixel(f, c[0], c[1]); got != background {
			t.Errorf("corner %v = %v, want background", c, got)
		}
	}

	st := r.Stats()
	if st.Submitted != 1 || st.Drawn != 1 || st.Culled != 0 {
		t.Errorf("Stats() = %+v, want one drawn triangle", st)
	}
}

func TestRenderCullsCounterClockwise(t *testing.T) {
	r := New()
	defer r.Close()

	mesh := stl.NewMesh([]stl.Triangle{quadTri(0, [3]float32{0, 0, 1}, false)})
	f, err := r.Render(mesh, flatParams(), 40, 30)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if got := pixel(f, x, y); got != background {
				t.Fatalf("pixel (%d,%d) = %v, want background", x, y, got)
			}
		}
	}
	if st := r.Stats(); st.Culled != 1 || st.Drawn != 0 {
		t.Errorf("Stats() = %+v, want one culled triangle", st)
	}
}

func TestRenderDepthTest(t *testing.T) {
	l := math.V3(lighting.DefaultLightDir).Normalize()
	lit := l.Array()
	away := l.Negate().Array()

	near := quadTri(-0.5, away, true)
	far := quadTri(0.5, lit, true)

	// Facing away from the light leaves only the ambient term.
	want := [4]byte{0, 0, 153, 255}

	tests := []struct {
		name string
		tris []stl.Triangle
	}{
		{"near first", []stl.Triangle{near, far}},
		{"far first", []stl.Triangle{far, near}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			defer r.Close()

			f, err := r.Render(stl.NewMesh(tt.tris), flatParams(), 40, 30)
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if got := pixel(f, 20, 15); got != want {
				t.Errorf("center pixel = %v, want %v", got, want)
			}
		})
	}
}

func TestRenderRejectsVerticesBehindEye(t *testing.T) {
	r := New()
	defer r.Close()

	p := flatParams()
	p.Projection = math.Perspective(float32(gomath.Pi/6), 1, 0.1, 100)

	mesh := stl.NewMesh([]stl.Triangle{quadTri(-5, [3]float32{0, 0, -1}, true)})
	f, err := r.Render(mesh, p, 16, 16)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if st := r.Stats(); st.Clipped != 1 {
		t.Errorf("Stats().Clipped = %d, want 1", st.Clipped)
	}
	if got := pixel(f, 8, 8); got != background {
		t.Errorf("center pixel = %v, want background", got)
	}
}

func cubeParams(t *testing.T, mesh *stl.Mesh, w, h int) scene.Params {
	t.Helper()
	cam := camera.Default()
	proj, err := cam.Projection(w, h)
	if err != nil {
		t.Fatalf("Projection() error: %v", err)
	}
	return scene.Params{
		Model:      model.ScaleAndCenter(mesh.Bounds, model.DefaultTargetRadius),
		View:       cam.View(),
		Projection: proj,
		LightDir:   lighting.DefaultLightDir,
		Material:   lighting.DefaultMaterial(),
		Background: [4]float32{1, 1, 1, 0},
	}
}

func cubeMesh() *stl.Mesh {
	// Axis-aligned box with outward counter-clockwise faces.
	corner := func(i int) [3]float32 {
		return [3]float32{float32(i&1)*4 - 2, float32(i>>1&1)*2 - 1, float32(i>>2&1)*2 - 1}
	}
	faces := [][4]int{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
	}
	var tris []stl.Triangle
	for _, f := range faces {
		a, b, c, d := corner(f[0]), corner(f[1]), corner(f[2]), corner(f[3])
		tris = append(tris,
			stl.Triangle{V: [3][3]float32{a, b, c}},
			stl.Triangle{V: [3][3]float32{a, c, d}},
		)
	}
	return stl.NewMesh(tris)
}

func TestRenderBox(t *testing.T) {
	mesh := cubeMesh()
	const w, h = 64, 48

	r := New()
	defer r.Close()

	f, err := r.Render(mesh, cubeParams(t, mesh, w, h), w, h)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if got := pixel(f, w/2, h/2); got == background {
		t.Error("center pixel is background, want the box")
	}
	if got := pixel(f, 0, 0); got != background {
		t.Errorf("corner pixel = %v, want background", got)
	}

	// A closed convex solid shows at most three faces.
	st := r.Stats()
	if st.Drawn == 0 || st.Drawn > 6 {
		t.Errorf("Stats().Drawn = %d, want 1..6", st.Drawn)
	}
	if st.Drawn+st.Culled != 12 {
		t.Errorf("drawn+culled = %d, want 12", st.Drawn+st.Culled)
	}
}

func TestRenderDeterministic(t *testing.T) {
	mesh := cubeMesh()
	const w, h = 50, 40
	p := cubeParams(t, mesh, w, h)

	r := New()
	defer r.Close()

	first, err := r.Render(mesh, p, w, h)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	second, err := New().Render(mesh, p, w, h)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("two renders of the same input differ")
	}
}

func TestRenderEmptyMesh(t *testing.T) {
	r := New()
	defer r.Close()

	f, err := r.Render(stl.NewMesh(nil), flatParams(), 8, 4)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	for i := 0; i < len(f.Pix); i += 4 {
		if got := [4]byte(f.Pix[i : i+4]); got != background {
			t.Fatalf("pixel %d = %v, want background", i/4, got)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	mesh := stl.NewMesh(nil)

	tests := []struct {
		name    string
		w, h    int
		params  func() scene.Params
		wantErr error
	}{
		{"zero width", 0, 10, flatParams, scene.ErrGraphicsInit},
		{"negative height", 10, -1, flatParams, scene.ErrGraphicsInit},
		{"too large", MaxDimension + 1, 10, flatParams, scene.ErrGraphicsInit},
		{"nan matrix", 10, 10, func() scene.Params {
			p := flatParams()
			p.View[0] = float32(gomath.NaN())
			return p
		}, scene.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Render(mesh, tt.params(), tt.w, tt.h)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Render() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float32
		want byte
	}{
		{-0.5, 0},
		{0, 0},
		{0.6, 153},
		{1, 255},
		{2.6, 255},
		{float32(gomath.NaN()), 0},
	}
	for _, tt := range tests {
		if got := toByte(tt.in); got != tt.want {
			t.Errorf("toByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
