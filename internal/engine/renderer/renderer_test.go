package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/stlthumb/internal/engine/scene"
)

func TestGLError(t *testing.T) {
	tests := []struct {
		name string
		code uint32
		want string
	}{
		{"no error", gl.NO_ERROR, ""},
		{"out of memory", gl.OUT_OF_MEMORY, "out of video memory uploading 3 vertices"},
		{"invalid operation", gl.INVALID_OPERATION, "GL error 0x502 uploading 3 vertices"},
		{"invalid value", gl.INVALID_VALUE, "GL error 0x501 uploading 3 vertices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := glError(tt.code, "uploading 3 vertices")
			if tt.want == "" {
				if err != nil {
					t.Fatalf("glError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, scene.ErrGraphicsInit) {
				t.Errorf("glError() = %v, want ErrGraphicsInit", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("glError() = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
