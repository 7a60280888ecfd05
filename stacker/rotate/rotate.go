//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  rotate.go implements the default, CGO-free affine field-rotation
  compensation step (spec §4.2 step 6): a bilinear-interpolated rotation
  about the frame center. Build with the withcv tag to use the
  OpenCV-backed implementation instead, for hardware where cgo and a
  gocv build are available.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rotate implements the live-stacking engine's field-rotation
// compensation step.
package rotate

import "math"

const channels = 3

// Rotate returns a copy of frame (an interleaved float32 RGB buffer of
// width*height*3 elements) rotated by degrees about the frame center,
// using bilinear interpolation. Pixels that sample outside the source
// frame are written as 0, matching an affine warp with a black border.
// degrees == 0 returns frame unchanged (no allocation). The pure-Go
// implementation never fails; err is always nil.
func Rotate(frame []float32, width, height int, degrees float32) ([]float32, error) {
	if degrees == 0 {
		return frame, nil
	}

	out := make([]float32, len(frame))
	cx := float64(width / 2)
	cy := float64(height / 2)
	theta := float64(degrees) * math.Pi / 180
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	stride := width * channels

	for y := 0; y < height; y++ {
		dy := float64(y) - cy
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			srcX := cx + cosT*dx + sinT*dy
			srcY := cy - sinT*dx + cosT*dy

			dstOff := y*stride + x*channels
			sampleBilinear(frame, width, height, stride, srcX, srcY, out[dstOff:dstOff+channels])
		}
	}
	return out, nil
}

// sampleBilinear writes the bilinearly interpolated RGB sample at (x,y)
// into dst, or zeros if (x,y) falls outside [0,width)x[0,height).
func sampleBilinear(frame []float32, width, height, stride int, x, y float64, dst []float32) {
	if x < 0 || y < 0 || x > float64(width-1) || y > float64(height-1) {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > width-1 {
		x1 = width - 1
	}
	if y1 > height-1 {
		y1 = height - 1
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy

	p00 := y0*stride + x0*channels
	p10 := y0*stride + x1*channels
	p01 := y1*stride + x0*channels
	p11 := y1*stride + x1*channels

	for c := 0; c < channels; c++ {
		v := w00*float64(frame[p00+c]) + w10*float64(frame[p10+c]) +
			w01*float64(frame[p01+c]) + w11*float64(frame[p11+c])
		dst[c] = float32(v)
	}
}
