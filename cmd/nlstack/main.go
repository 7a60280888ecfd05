/*
DESCRIPTION
  nlstack is a batch command-line front-end for the live-stacking engine:
  it reads a sequence of PPM frames, feeds them through a Stacker, and
  writes the rendered result (or a master dark) to disk.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements nlstack, the batch CLI front-end for the
// live-stacking engine.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/stacker/stacker"
	"github.com/ausocean/stacker/stacker/config"
)

// Logging configuration, matching the conventions of the wider av module
// family's CLI front-ends.
const (
	logPath      = "nlstack.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

func main() {
	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("nlstack failed", "error", err)
		os.Exit(1)
	}
}

// derotationParams carries the flags for the astronomical derotation
// angle calculator. That calculator is an external collaborator this
// module does not own; nlstack only accepts these flags (logging one
// warning when --time is given), and always passes rotate_deg=0 through
// to the stacker.
type derotationParams struct {
	lat, lon   float64
	ra, de     float64
	start      string
	duration   float64
	inverse    bool
}

func newRootCmd(log logging.Logger) *cobra.Command {
	var (
		darksPath     string
		saveDarksPath string
		roiSize       int
		expMultiplier int
		srcGamma      float32
		tgtGamma      float32
		outputPath    string
		restartEvery  bool
		derot         derotationParams
	)

	cmd := &cobra.Command{
		Use:   "nlstack [flags] frame.ppm [frame.ppm ...] [restart] [frame.ppm ...]",
		Short: "Stack a sequence of frames into one enhanced astrophotography image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log, args, runOptions{
				darksPath:     darksPath,
				saveDarksPath: saveDarksPath,
				roiSize:       roiSize,
				expMultiplier: expMultiplier,
				srcGamma:      srcGamma,
				tgtGamma:      tgtGamma,
				outputPath:    outputPath,
				restartEvery:  restartEvery,
				derot:         derot,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&darksPath, "darks", "d", "", "dark-frame file to subtract (.flt raw float32, or a PPM of the same size)")
	flags.StringVarP(&saveDarksPath, "save-darks", "D", "", "write the session's stacked average as a raw float32 master dark instead of the output image (a path ending in .ppm gets the rendered image instead)")
	flags.IntVarP(&roiSize, "roi-size", "r", -1, "registration ROI side length (0 disables registration, -1 selects min(W,H))")
	flags.IntVarP(&expMultiplier, "exp-multiplier", "m", 1, "number of raw frames to pre-average into one stacking step")
	flags.Float32VarP(&srcGamma, "src-gamma", "g", 1, "gamma applied to incoming frames to linearize them")
	flags.Float32VarP(&tgtGamma, "tgt-gamma", "G", config.AutoStretch, "rendering gamma; -1 selects auto-stretch")
	flags.StringVarP(&outputPath, "output", "o", "", "output PPM path (default res.ppm)")
	flags.BoolVarP(&restartEvery, "restart-every", "R", false, "reset the drift gate on every frame")
	flags.Float64Var(&derot.lat, "lat", 0, "observer latitude in degrees (derotation; not computed by this build)")
	flags.Float64Var(&derot.lon, "lon", 0, "observer longitude in degrees (derotation; not computed by this build)")
	flags.Float64Var(&derot.ra, "RA", 0, "target right ascension in degrees (derotation; not computed by this build)")
	flags.Float64Var(&derot.de, "DE", 0, "target declination in degrees (derotation; not computed by this build)")
	flags.StringVar(&derot.start, "time", "", "session start time, YYYYMMDDHHMMSS (derotation; not computed by this build)")
	flags.Float64Var(&derot.duration, "duration", 0, "session duration in seconds (derotation; not computed by this build)")
	flags.BoolVar(&derot.inverse, "inverse", false, "invert the derotation angle (derotation; not computed by this build)")

	return cmd
}

type runOptions struct {
	darksPath     string
	saveDarksPath string
	roiSize       int
	expMultiplier int
	srcGamma      float32
	tgtGamma      float32
	outputPath    string
	restartEvery  bool
	derot         derotationParams
}

func run(log logging.Logger, args []string, opt runOptions) error {
	if opt.derot.start != "" {
		log.Warning("derotation angle calculation is not part of this build; rotate_deg will be 0 for all frames")
	}

	first, width, height, err := readPPM(args[0])
	if err != nil {
		return err
	}

	s, err := stacker.New(config.Config{
		Width:         width,
		Height:        height,
		ROIX:          -1,
		ROIY:          -1,
		ROISize:       opt.roiSize,
		ExpMultiplier: opt.expMultiplier,
		SrcGamma:      opt.srcGamma,
		TgtGamma:      opt.tgtGamma,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("could not create stacker: %w", err)
	}

	if opt.darksPath != "" {
		if err := loadDarks(s, opt.darksPath, width, height); err != nil {
			return err
		}
	}

	restart := opt.restartEvery
	if !s.StackImageBytes(first, restart, 0) {
		log.Warning("first frame was rejected unexpectedly", "path", args[0])
	}

	for _, arg := range args[1:] {
		if arg == "restart" {
			restart = true
			continue
		}

		rgb, w, h, err := readPPM(arg)
		if err != nil {
			log.Warning("skipping frame that could not be read", "path", arg, "error", err)
			continue
		}
		if w != width || h != height {
			log.Warning("skipping frame with mismatched dimensions", "path", arg)
			continue
		}

		accepted := s.StackImageBytes(rgb, restart, 0)
		restart = opt.restartEvery
		if !accepted {
			log.Info("frame rejected by registration or drift gate", "path", arg, "error", s.Error())
		}
	}

	if opt.saveDarksPath != "" {
		if strings.HasSuffix(opt.saveDarksPath, ".ppm") {
			return renderAndWrite(s, opt.saveDarksPath, width, height)
		}
		return s.SaveStackedDarks(opt.saveDarksPath)
	}

	out := opt.outputPath
	if out == "" {
		out = "res.ppm"
	}
	return renderAndWrite(s, out, width, height)
}

func loadDarks(s *stacker.Stacker, path string, width, height int) error {
	if strings.HasSuffix(path, ".flt") {
		return s.LoadDarks(path)
	}
	rgb, w, h, err := readPPM(path)
	if err != nil {
		return err
	}
	if w != width || h != height {
		return fmt.Errorf("darks frame %s has dimensions %dx%d, want %dx%d", path, w, h, width, height)
	}
	return s.SetDarks(rgb)
}

func renderAndWrite(s *stacker.Stacker, path string, width, height int) error {
	out := make([]byte, width*height*3)
	if err := s.GetStacked(out); err != nil {
		return fmt.Errorf("could not render stacked image: %w", err)
	}
	return writePPM(path, out, width, height)
}
