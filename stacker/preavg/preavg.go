/*
DESCRIPTION
  preavg.go implements manual pre-averaging: summing N raw frames into one
  virtual frame before stacking, per spec §4.2 step 2.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package preavg implements the live-stacking engine's pre-averaging
// (manual long exposure) step.
package preavg

// Averager accumulates raw frames until it has enough to produce one
// averaged virtual frame. Callers with ExpMultiplier == 1 should not use
// an Averager at all; stacking proceeds frame-by-frame in that case.
type Averager struct {
	mult    int
	accum   []float32
	counter int
}

// New returns an Averager that produces one virtual frame per mult raw
// frames. mult must be >= 2.
func New(mult int) *Averager {
	return &Averager{mult: mult}
}

// Add folds frame into the running batch. ready is true once mult frames
// have been folded in, at which point out holds the averaged frame and
// the internal counter resets for the next batch. While ready is false,
// out is nil and the caller should treat the incoming frame as accepted
// without further processing, per spec §4.2 step 2.
func (a *Averager) Add(frame []float32) (out []float32, ready bool) {
	if a.counter == 0 {
		if a.accum == nil {
			a.accum = make([]float32, len(frame))
		}
		copy(a.accum, frame)
	} else {
		for i, v := range frame {
			a.accum[i] += v
		}
	}
	a.counter++

	if a.counter < a.mult {
		return nil, false
	}

	out = make([]float32, len(a.accum))
	inv := float32(1) / float32(a.mult)
	for i, v := range a.accum {
		out[i] = v * inv
	}
	a.counter = 0
	return out, true
}
