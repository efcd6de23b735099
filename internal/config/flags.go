package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Only flags given on the command
// line override the configuration.
type Flags struct {
	set *pflag.FlagSet

	config      string
	debug       bool
	width       int
	height      int
	size        int
	visible     bool
	backend     string
	logFile     string
	metricsFile string
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{set: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.IntVarP(&f.width, "width", "W", 0, "Output image width in pixels")
	fs.IntVarP(&f.height, "height", "H", 0, "Output image height in pixels")
	fs.IntVarP(&f.size, "size", "s", 0, "Output width and height in pixels (square image)")
	fs.BoolVarP(&f.visible, "visible", "x", false, "Show the thumbnail in a window until it is closed")
	fs.StringVar(&f.backend, "backend", "", `Render backend: "opengl" or "software"`)
	fs.StringVar(&f.logFile, "log-file", "", "Write logs to this file (rotated)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// apply applies CLI flag overrides to the config. --size is applied before
// --width and --height so the explicit dimension wins. Dimensions given
// explicitly are applied as-is so that Validate rejects bad values.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("size") {
		cfg.Render.Width = f.size
		cfg.Render.Height = f.size
	}
	if f.changed("width") {
		cfg.Render.Width = f.width
	}
	if f.changed("height") {
		cfg.Render.Height = f.height
	}
	if f.changed("visible") {
		cfg.Render.Visible = f.visible
	}
	if f.backend != "" {
		cfg.Render.Backend = f.backend
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}
	if f.metricsFile != "" {
		cfg.Metrics.Textfile = f.metricsFile
	}
}

// changed reports whether a flag was given explicitly, so that
// --visible=false or --width 0 are not mistaken for unset flags.
func (f *Flags) changed(name string) bool {
	if f.set == nil {
		return false
	}
	return f.set.Changed(name)
}
