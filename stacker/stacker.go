/*
DESCRIPTION
  stacker.go implements the Stacker facade: the public contract described
  in spec §4.1, orchestrating the dark-frame store, pre-averager, Fourier
  registrar, drift gate, accumulator and renderer into the ten-step
  per-frame pipeline of §4.2.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stacker implements an astrophotography live-stacking engine: a
// frame is linearized, dark-subtracted, optionally rotated, registered
// against a fixed reference via Fourier phase correlation, gated for
// drift plausibility, and folded into a running sum/count accumulator
// that a renderer turns into an 8-bit preview on demand.
package stacker

import (
	"fmt"
	"math"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/stacker/stacker/accum"
	"github.com/ausocean/stacker/stacker/config"
	"github.com/ausocean/stacker/stacker/darks"
	"github.com/ausocean/stacker/stacker/drift"
	"github.com/ausocean/stacker/stacker/fourier"
	"github.com/ausocean/stacker/stacker/preavg"
	"github.com/ausocean/stacker/stacker/render"
	"github.com/ausocean/stacker/stacker/rotate"
)

const channels = 3

// constructMu guards lastConstructErr, the process-wide error text
// preserved for the single case a Stacker could not be created at all;
// every other error lives on the instance that produced it.
var (
	constructMu      sync.Mutex
	lastConstructErr string
)

func setConstructError(err error) {
	constructMu.Lock()
	defer constructMu.Unlock()
	if err == nil {
		lastConstructErr = ""
		return
	}
	lastConstructErr = err.Error()
}

// LastConstructError returns the text of the most recent New failure, or
// the empty string if the most recent call to New succeeded.
func LastConstructError() string {
	constructMu.Lock()
	defer constructMu.Unlock()
	return lastConstructErr
}

// Stacker is a single live-stacking engine instance. It is not safe for
// concurrent use: all mutating methods must be serialized by the caller,
// per the single-threaded resource model.
type Stacker struct {
	cfg config.Resolved
	log logging.Logger

	dark *darks.Store
	acc  *accum.Accumulator
	reg  *fourier.Registrar
	gate *drift.Gate
	avg  *preavg.Averager

	fftRef []complex128
	frames int

	err string
}

// New constructs a Stacker from cfg, validating and resolving the ROI
// per spec §3. On failure, New returns a nil Stacker and also records the
// error for LastConstructError.
func New(cfg config.Config) (*Stacker, error) {
	if err := cfg.Validate(); err != nil {
		setConstructError(err)
		return nil, err
	}
	resolved := cfg.Resolve()

	s := &Stacker{
		cfg:  resolved,
		log:  resolved.Logger,
		dark: darks.New(resolved.Width, resolved.Height),
		acc:  accum.New(resolved.Width, resolved.Height),
		gate: drift.New(),
		reg:  fourier.New(resolved.Width, resolved.Height, resolved.DX, resolved.DY, resolved.ROISize),
	}
	if resolved.ExpMultiplier > 1 {
		s.avg = preavg.New(resolved.ExpMultiplier)
	}

	setConstructError(nil)
	s.log.Info("stacker created", "width", resolved.Width, "height", resolved.Height, "roi_size", resolved.ROISize)
	return s, nil
}

// Error returns the text of the most recent failed operation on this
// instance, or the empty string if the last operation succeeded.
func (s *Stacker) Error() string { return s.err }

func (s *Stacker) setErr(err error) bool {
	if err == nil {
		s.err = ""
		return false
	}
	s.err = err.Error()
	s.log.Error("stacker operation failed", "error", err)
	return true
}

// SetDarks sets the dark calibration frame from an H*W*3 8-bit RGB
// buffer. Idempotent; may be called repeatedly to replace the frame.
func (s *Stacker) SetDarks(rgb []byte) error {
	if err := s.dark.SetFromBytes(rgb); err != nil {
		s.setErr(err)
		return err
	}
	s.setErr(nil)
	return nil
}

// LoadDarks loads a dark frame from a raw little-endian float32 triplet
// file. On failure the existing dark frame, if any, is left unchanged.
func (s *Stacker) LoadDarks(path string) error {
	if err := s.dark.Load(path); err != nil {
		s.setErr(err)
		return err
	}
	s.setErr(nil)
	return nil
}

// SaveStackedDarks writes the current SUM/CNT elementwise average to
// path, for building a master dark from a stacking session.
func (s *Stacker) SaveStackedDarks(path string) error {
	if err := darks.SaveFromAccumulator(s.acc.Sum(), s.acc.Cnt(), path); err != nil {
		s.setErr(err)
		return err
	}
	s.setErr(nil)
	return nil
}

// SetSourceGamma sets the gamma applied to incoming frames to linearize
// them.
func (s *Stacker) SetSourceGamma(g float32) {
	if g == 0 {
		g = 1
	}
	s.cfg.SrcGamma = g
}

// SetTargetGamma sets the gamma used when rendering. g == config.AutoStretch
// (-1) selects auto-stretch mode.
func (s *Stacker) SetTargetGamma(g float32) {
	if g == 0 {
		g = 1
	}
	s.cfg.TgtGamma = g
}

// StackImageBytes converts an H*W*3 8-bit RGB frame to float and runs it
// through StackImage.
func (s *Stacker) StackImageBytes(rgb []byte, restart bool, rotateDeg float32) bool {
	want := s.cfg.Width * s.cfg.Height * channels
	if len(rgb) != want {
		s.setErr(fmt.Errorf("stacker: expected %d bytes, got %d", want, len(rgb)))
		return false
	}
	frame := make([]float32, want)
	for i, b := range rgb {
		frame[i] = float32(b) / 255
	}
	return s.StackImage(frame, restart, rotateDeg)
}

// StackImage runs frame (an interleaved float32 RGB buffer matching the
// stacker's dimensions) through the ten-step pipeline of spec §4.2 and
// reports whether it was accepted into the accumulator. On any failure
// before step 10 the accumulator is left untouched.
func (s *Stacker) StackImage(frame []float32, restart bool, rotateDeg float32) bool {
	want := s.cfg.Width * s.cfg.Height * channels
	if len(frame) != want {
		s.setErr(fmt.Errorf("stacker: expected %d float samples, got %d", want, len(frame)))
		return false
	}

	work := make([]float32, want)
	copy(work, frame)

	// Step 2: pre-averaging.
	if s.avg != nil {
		out, ready := s.avg.Add(work)
		if !ready {
			s.setErr(nil)
			return true
		}
		work = out
	}

	// Step 3: gamma linearization.
	if s.cfg.SrcGamma != 1 {
		for i, v := range work {
			work[i] = float32(math.Pow(float64(v), float64(s.cfg.SrcGamma)))
		}
	}

	// Step 4: dark subtraction.
	if s.dark.Has() {
		var d []float32
		if s.cfg.SrcGamma != 1 {
			d = s.dark.GammaCorrected(s.cfg.SrcGamma)
		} else {
			d = s.dark.Darks()
		}
		for i, v := range d {
			work[i] -= v
		}
	}

	// Step 5: early return for non-registering mode.
	if s.cfg.ROISize == 0 {
		s.acc.Add(work, 0, 0)
		s.frames++
		s.setErr(nil)
		return true
	}

	// Step 6: rotation.
	if rotateDeg != 0 {
		rotated, err := rotate.Rotate(work, s.cfg.Width, s.cfg.Height, rotateDeg)
		if err != nil {
			s.setErr(fmt.Errorf("rotate: %w", err))
			return false
		}
		work = rotated
	}

	// Step 7: first-frame branch.
	if s.frames == 0 {
		s.acc.Add(work, 0, 0)
		s.fftRef = s.reg.Spectrum(work)
		s.frames = 1
		s.gate.Reset(drift.Point{})
		s.setErr(nil)
		return true
	}

	// Step 8: registration.
	spec := s.reg.Spectrum(work)
	dx, dy := fourier.Shift(s.fftRef, spec, s.reg.Size())
	p := drift.Point{X: dx, Y: dy}

	// Step 9: drift gate.
	accepted := restart
	if restart {
		s.gate.Reset(p)
	} else {
		accepted = s.gate.CheckStep(p)
	}

	// Step 10.
	if !accepted {
		s.log.Debug("registration rejected", "dx", dx, "dy", dy)
		s.setErr(nil)
		return false
	}
	s.acc.Add(work, dx, dy)
	s.frames++
	s.setErr(nil)
	return true
}

// GetStacked writes an H*W*3 8-bit RGB frame computed by the renderer
// into out. If no frames have been accepted, out is zeroed.
func (s *Stacker) GetStacked(out []byte) error {
	want := s.cfg.Width * s.cfg.Height * channels
	if len(out) != want {
		err := fmt.Errorf("stacker: output buffer is %d bytes, want %d", len(out), want)
		s.setErr(err)
		return err
	}

	area := s.acc.FullyStackedArea()
	img := render.Render(s.acc.Sum(), s.acc.FullyStackedCount(), render.Options{
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		FullyStacked: render.Rect{X: area.X, Y: area.Y, W: area.W, H: area.H},
		TgtGamma:     s.cfg.TgtGamma,
		LowPer:       s.cfg.LowPer,
		HighPer:      s.cfg.HighPer,
	})
	copy(out, img)
	s.setErr(nil)
	return nil
}

// Frames returns the number of frames accepted so far.
func (s *Stacker) Frames() int { return s.frames }

// FullyStackedCount returns the number of frames folded into the fully
// stacked area.
func (s *Stacker) FullyStackedCount() int { return s.acc.FullyStackedCount() }

// FullyStackedArea returns the intersection of every accepted frame's
// shifted footprint so far.
func (s *Stacker) FullyStackedArea() (x, y, w, h int) {
	r := s.acc.FullyStackedArea()
	return r.X, r.Y, r.W, r.H
}
