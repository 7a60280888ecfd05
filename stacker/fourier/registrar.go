/*
DESCRIPTION
  registrar.go implements phase-correlation-based sub-frame registration.
  A windowed 2-D FFT of the green channel of the registration ROI is
  cross-correlated against a fixed reference spectrum to recover an
  integer pixel shift between frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fourier implements Fourier-domain sub-frame registration for the
// live-stacking engine: a spectral low-pass kernel, per-frame windowed FFT
// fingerprints, and phase-correlation shift estimation.
package fourier

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// greenChannel is the index of the green channel within an interleaved RGB
// pixel, matching the ordering used throughout the stacking pipeline.
const greenChannel = 1

// Registrar crops a square registration ROI from incoming frames and turns
// it into a low-pass-filtered Fourier fingerprint suitable for phase
// correlation against a fixed reference.
type Registrar struct {
	width, height int // Full frame dimensions.
	dx, dy         int // ROI offset within the frame.
	size           int // ROI side length.
	kernel         []complex128 // size*size low-pass mask, row-major.
}

// New returns a Registrar for a frame of the given dimensions, with a
// square ROI of side size anchored at (dx,dy). size == 0 is accepted and
// produces a Registrar whose Spectrum/Shift methods are never meant to be
// called (registration is disabled by the caller in that case).
func New(width, height, dx, dy, size int) *Registrar {
	r := &Registrar{width: width, height: height, dx: dx, dy: dy, size: size}
	if size > 0 {
		r.kernel = lowPassKernel(size)
	}
	return r
}

// Size returns the ROI side length this Registrar was constructed with.
func (r *Registrar) Size() int { return r.size }

// lowPassKernel builds the centered-disc spectral low-pass mask described
// in spec §4.3: a radius-(size/16) disc in DFT-centered coordinates.
func lowPassKernel(size int) []complex128 {
	kern := make([]complex128, size*size)
	rad := size / 16
	radSq := rad * rad
	for r := 0; r < size; r++ {
		dy := fftPos(r, size)
		for c := 0; c < size; c++ {
			dx := fftPos(c, size)
			if dx*dx+dy*dy <= radSq {
				kern[r*size+c] = 1
			}
		}
	}
	return kern
}

// fftPos converts an unsigned DFT bin index into a signed, DFT-centered
// coordinate: values past the Nyquist bin wrap to negative.
func fftPos(x, size int) int {
	if x > size/2 {
		return x - size
	}
	return x
}

// Spectrum extracts the green channel of the registration ROI from frame
// (an interleaved float32 RGB buffer of r.width*r.height*3 elements),
// computes its 2-D DFT, and applies the low-pass kernel. The result is the
// Fourier fingerprint used by Shift.
func (r *Registrar) Spectrum(frame []float32) []complex128 {
	n := r.size
	data := make([]complex128, n*n)
	stride := r.width * 3
	for row := 0; row < n; row++ {
		base := (r.dy+row)*stride + r.dx*3 + greenChannel
		for col := 0; col < n; col++ {
			data[row*n+col] = complex(float64(frame[base+col*3]), 0)
		}
	}
	spec := forward2D(data, n)
	for i := range spec {
		spec[i] *= r.kernel[i]
	}
	return spec
}

// Shift estimates the integer pixel shift that maps frame onto ref via
// phase correlation, per spec §4.4. ref is the reference frame's spectrum
// (frozen at first acceptance); frame is the candidate's spectrum.
func Shift(ref, frame []complex128, size int) (dx, dy int) {
	cross := make([]complex128, len(ref))
	for i := range ref {
		c := ref[i] * cmplxConj(frame[i])
		mag := cmplxAbs(c)
		if mag == 0 {
			cross[i] = 0
			continue
		}
		cross[i] = c / complex(mag, 0)
	}

	surface := inverse2DReal(cross, size)

	best := 0
	for i := 1; i < len(surface); i++ {
		if surface[i] > surface[best] {
			best = i
		}
	}
	py, px := best/size, best%size
	return fftPos(px, size), fftPos(py, size)
}

func cmplxConj(c complex128) complex128 { return complex(real(c), -imag(c)) }

func cmplxAbs(c complex128) float64 { return math.Hypot(real(c), imag(c)) }

// forward2D computes a 2-D DFT of an n*n row-major complex grid by
// applying a 1-D FFT along each row, then along each column.
func forward2D(data []complex128, n int) []complex128 {
	out := make([]complex128, len(data))
	copy(out, data)

	row := make([]complex128, n)
	for r := 0; r < n; r++ {
		copy(row, out[r*n:(r+1)*n])
		t := fft.FFT(row)
		copy(out[r*n:(r+1)*n], t)
	}

	col := make([]complex128, n)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			col[r] = out[r*n+c]
		}
		t := fft.FFT(col)
		for r := 0; r < n; r++ {
			out[r*n+c] = t[r]
		}
	}
	return out
}

// inverse2DReal computes the real part of a 2-D inverse DFT of an n*n
// row-major complex spectrum.
func inverse2DReal(data []complex128, n int) []float64 {
	tmp := make([]complex128, len(data))
	copy(tmp, data)

	col := make([]complex128, n)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			col[r] = tmp[r*n+c]
		}
		t := fft.IFFT(col)
		for r := 0; r < n; r++ {
			tmp[r*n+c] = t[r]
		}
	}

	row := make([]complex128, n)
	out := make([]float64, len(data))
	for r := 0; r < n; r++ {
		copy(row, tmp[r*n:(r+1)*n])
		t := fft.IFFT(row)
		for c := 0; c < n; c++ {
			out[r*n+c] = real(t[c])
		}
	}
	return out
}
