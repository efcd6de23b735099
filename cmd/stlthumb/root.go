package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/engine/renderer"
	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/engine/softraster"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/metrics"
	"github.com/Faultbox/stlthumb/internal/thumbnail"
)

var flags *config.Flags

var rootCmd = &cobra.Command{
	Use:   "stlthumb [flags] <input.stl> <output.png>",
	Short: "Render a thumbnail image of an STL model",
	Long: `stlthumb renders a binary or ASCII STL file once with a fixed camera and
lighting setup and writes the result as a PNG with a transparent background.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags)
		if err != nil {
			return err
		}
		return run(cfg, args[0], args[1])
	},
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags = config.BindFlags(rootCmd.Flags())
}

func run(cfg *config.Config, input, output string) error {
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("config: %+v", cfg)

	rec := metrics.New()
	defer func() {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics not exported", zap.Error(err))
		}
	}()

	r, err := newRenderer(cfg)
	if err != nil {
		rec.RunFinished(thumbnail.Result(err))
		return err
	}
	defer r.Close()

	p := thumbnail.New(r,
		thumbnail.WithMetrics(rec),
		thumbnail.WithLogger(logger.Named("thumbnail")),
	)
	return p.Run(thumbnail.Job{
		Input:   input,
		Output:  output,
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Visible: cfg.Render.Visible,
	})
}

// newRenderer creates the configured backend.
func newRenderer(cfg *config.Config) (scene.Renderer, error) {
	logger.Debug("creating renderer", zap.String("backend", cfg.Render.Backend))

	switch cfg.Render.Backend {
	case config.BackendSoftware:
		if cfg.Render.Visible {
			logger.Warn("the software backend has no window; --visible is ignored")
		}
		return softraster.New(), nil
	default:
		return renderer.New(renderer.Config{
			Title:   "stlthumb",
			Width:   cfg.Render.Width,
			Height:  cfg.Render.Height,
			Visible: cfg.Render.Visible,
		})
	}
}
