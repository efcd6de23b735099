// Package metrics records per-run statistics of the thumbnailer with
// Prometheus collectors. A thumbnailer is a short-lived process, so the
// metrics are exported through the node exporter textfile collector
// instead of an HTTP endpoint.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages.
const (
	StageParse  = "parse"
	StageRender = "render"
	StageEncode = "encode"
)

// Run results.
const (
	ResultOK            = "ok"
	ResultInputError    = "input_error"
	ResultParseError    = "parse_error"
	ResultGraphicsError = "graphics_error"
	ResultOutputError   = "output_error"
	ResultConfigError   = "config_error"
)

// Recorder holds the collectors of one process. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	stages    *prometheus.HistogramVec
	triangles prometheus.Gauge
	pixels    prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stlthumb_runs_total",
				Help: "Thumbnail runs by result.",
			},
			[]string{"result"},
		),
		stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stlthumb_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"stage"},
		),
		triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stlthumb_mesh_triangles",
			Help: "Triangle count of the last mesh rendered.",
		}),
		pixels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stlthumb_output_pixels",
			Help: "Pixel count of the last thumbnail written.",
		}),
	}
	r.registry.MustRegister(r.runs, r.stages, r.triangles, r.pixels)
	return r
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// SetMesh records the size of the mesh being rendered.
func (r *Recorder) SetMesh(triangles int) {
	if r == nil {
		return
	}
	r.triangles.Set(float64(triangles))
}

// SetOutput records the size of the image written.
func (r *Recorder) SetOutput(width, height int) {
	if r == nil {
		return
	}
	r.pixels.Set(float64(width * height))
}

// RunFinished counts one run with the given result.
func (r *Recorder) RunFinished(result string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(result).Inc()
}

// WriteTextfile writes all metrics in the text exposition format. The
// file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
