// Package main is the entry point for stlgen, which writes primitive STL
// models for trying out and testing stlthumb.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/fixture"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

var opts struct {
	size   []float64
	radius float64
	round  float64
	cells  int
	ascii  bool
	debug  bool
}

var rootCmd = &cobra.Command{
	Use:   "stlgen [flags] <box|cylinder> <output.stl>",
	Short: "Generate a primitive STL model",
	Long: `stlgen tessellates a box or cylinder centered at the origin and writes
it as binary STL, or ASCII STL with --ascii.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if opts.debug {
			level = "debug"
		}
		if err := logger.Init(level, ""); err != nil {
			return err
		}
		defer logger.Sync()

		if len(opts.size) != 3 {
			return fmt.Errorf("--size needs 3 values, got %d", len(opts.size))
		}
		shape := fixture.Shape{
			Kind:   args[0],
			Radius: opts.radius,
			Round:  opts.round,
		}
		copy(shape.Size[:], opts.size)

		return generate(shape, args[1])
	},
}

func init() {
	f := rootCmd.Flags()
	f.Float64SliceVar(&opts.size, "size", []float64{2, 2, 2}, "box edge lengths x,y,z (cylinder height is z)")
	f.Float64VarP(&opts.radius, "radius", "r", 1, "cylinder radius")
	f.Float64Var(&opts.round, "round", 0, "edge rounding radius")
	f.IntVarP(&opts.cells, "cells", "c", fixture.DefaultCells, "marching cubes cells along the longest axis")
	f.BoolVarP(&opts.ascii, "ascii", "a", false, "write ASCII STL")
	f.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
}

func generate(shape fixture.Shape, path string) error {
	tris, err := fixture.Generate(shape, opts.cells)
	if err != nil {
		return fmt.Errorf("%w (supported: %s)", err, strings.Join(fixture.Shapes, ", "))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if opts.ascii {
		err = stl.EncodeASCII(f, name, tris)
	} else {
		err = stl.Encode(f, name, tris)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logger.Info("model written",
		zap.String("shape", shape.Kind),
		zap.String("path", path),
		zap.Int("triangles", len(tris)),
		zap.Bool("ascii", opts.ascii))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
