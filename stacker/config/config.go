/*
DESCRIPTION
  config.go contains the configuration settings for the stacker package.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a live-stacking
// engine instance.
package config

import (
	"errors"
	"fmt"

	"github.com/ausocean/utils/logging"
)

// Sentinel value for TgtGamma selecting auto-stretch rendering.
const AutoStretch = -1

// Default percentile cutoffs for auto-stretch, per the Renderer.
const (
	DefaultLowPer  = 0.5
	DefaultHighPer = 99.999
)

// Config provides construction parameters for a Stacker. Most fields are
// immutable once passed to the constructor; SrcGamma and TgtGamma may be
// changed afterwards through the Stacker's own setters.
type Config struct {
	// Width and Height are the frame dimensions. Both must be positive.
	Width, Height int

	// ROIX, ROIY and ROISize describe the registration region of interest.
	//
	// ROISize == 0 disables registration entirely: every frame is accepted
	// at zero shift.
	// ROISize == -1 selects min(Width, Height).
	// ROIX == ROIY == -1 centers the ROI in the frame; any other pair
	// centers it on the point (ROIX, ROIY), clamped so the ROI fits inside
	// the frame.
	ROIX, ROIY, ROISize int

	// ExpMultiplier is the number of raw frames pre-summed into one
	// stacking step. Must be >= 1; defaults to 1.
	ExpMultiplier int

	// SrcGamma linearizes incoming frames. Defaults to 1 (no-op).
	SrcGamma float32

	// TgtGamma selects the render mode: AutoStretch (-1) for percentile
	// auto-stretch, or any positive value for explicit gamma rendering.
	// Defaults to 1.
	TgtGamma float32

	// LowPer and HighPer are the auto-stretch percentile cutoffs. Defaults
	// are DefaultLowPer and DefaultHighPer.
	LowPer, HighPer float32

	// Logger must be set; it is used for lifecycle and per-frame debug
	// logging throughout the engine.
	Logger logging.Logger
}

// Resolved holds the concrete, clamped values derived from a Config at
// construction time.
type Resolved struct {
	Config
	DX, DY, ROISize int
}

// Validate defaults unset fields and checks the configuration for errors.
// It does not resolve the ROI; use Resolve for that once dimensions are
// known to be valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 {
		errs = append(errs, errors.New("width must be positive"))
	}
	if c.Height <= 0 {
		errs = append(errs, errors.New("height must be positive"))
	}
	if c.Logger == nil {
		errs = append(errs, errors.New("logger must be set"))
	}
	if c.ExpMultiplier < 1 {
		c.ExpMultiplier = 1
	}
	if c.SrcGamma == 0 {
		c.SrcGamma = 1
	}
	if c.TgtGamma == 0 {
		c.TgtGamma = 1
	}
	if c.LowPer <= 0 {
		c.LowPer = DefaultLowPer
	}
	if c.HighPer <= 0 {
		c.HighPer = DefaultHighPer
	}
	if len(errs) != 0 {
		return multiError(errs)
	}
	return nil
}

// Resolve computes the concrete ROI placement and size from the (already
// validated) Config, following the same clamping rules as the original
// C++ Stacker constructor.
func (c Config) Resolve() Resolved {
	size := c.ROISize
	if size == -1 {
		size = c.Width
		if c.Height < size {
			size = c.Height
		}
	}

	var dx, dy int
	if size > 0 {
		if c.ROIX == -1 && c.ROIY == -1 {
			dx = (c.Width - size) / 2
			dy = (c.Height - size) / 2
		} else {
			dx = max(0, c.ROIX-size/2)
			dy = max(0, c.ROIY-size/2)
			dx = min(c.Width-size, dx)
			dy = min(c.Height-size, dy)
		}
	}

	return Resolved{Config: c, DX: dx, DY: dy, ROISize: size}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// multiError aggregates validation errors, matching device.MultiError in
// the wider av module family.
type multiError []error

func (me multiError) Error() string {
	return fmt.Sprintf("%v", []error(me))
}
