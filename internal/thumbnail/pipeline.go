package thumbnail

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/capture"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/metrics"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Job describes one conversion.
type Job struct {
	Input   string
	Output  string
	Width   int
	Height  int
	Visible bool // Present the result after the file is written
}

// Pipeline converts STL files with a single renderer. It is not safe for
// concurrent use; graphics contexts are bound to one thread.
type Pipeline struct {
	renderer scene.Renderer
	settings Settings
	metrics  *metrics.Recorder
	log      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSettings replaces the default look.
func WithSettings(s Settings) Option {
	return func(p *Pipeline) { p.settings = s }
}

// WithMetrics records stage timings and results in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a pipeline that draws with r. The pipeline does not own r.
func New(r scene.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: r,
		settings: DefaultSettings(),
		log:      logger.Log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the job. Any failure aborts the run; no output file is left
// behind unless the PNG was completely written.
func (p *Pipeline) Run(job Job) (err error) {
	start := time.Now()
	log := p.log.With(zap.String("input", job.Input), zap.String("output", job.Output))
	defer func() {
		p.metrics.RunFinished(Result(err))
		if err != nil {
			log.Error("thumbnail failed", zap.Error(err))
			return
		}
		log.Info("thumbnail written", zap.Duration("duration", time.Since(start)))
	}()

	stageStart := time.Now()
	mesh, err := readMesh(job.Input)
	if err != nil {
		return err
	}
	p.metrics.ObserveStage(metrics.StageParse, time.Since(stageStart))
	p.metrics.SetMesh(mesh.TriangleCount())
	log.Debug("mesh parsed",
		zap.String("name", mesh.Name),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Float32s("min", mesh.Bounds.Min[:]),
		zap.Float32s("max", mesh.Bounds.Max[:]),
	)

	params, err := BuildParams(mesh, p.settings, job.Width, job.Height)
	if err != nil {
		return err
	}

	stageStart = time.Now()
	frame, err := p.renderer.Render(mesh, params, job.Width, job.Height)
	if err != nil {
		return err
	}
	p.metrics.ObserveStage(metrics.StageRender, time.Since(stageStart))

	stageStart = time.Now()
	if err := capture.WriteFrame(job.Output, frame); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputIO, err)
	}
	p.metrics.ObserveStage(metrics.StageEncode, time.Since(stageStart))
	p.metrics.SetOutput(frame.Width, frame.Height)

	if job.Visible {
		presenter, ok := p.renderer.(scene.Presenter)
		if !ok {
			log.Warn("backend cannot present, skipping window")
			return nil
		}
		if err := presenter.Present(); err != nil {
			return err
		}
	}
	return nil
}

// readMesh opens and parses the input file.
func readMesh(path string) (*stl.Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputIO, err)
	}
	defer file.Close()

	mesh, err := stl.Parse(file)
	if err != nil {
		var perr *stl.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInputIO, err)
	}
	return mesh, nil
}
