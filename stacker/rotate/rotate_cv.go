//go:build withcv
// +build withcv

/*
DESCRIPTION
  rotate_cv.go implements field-rotation compensation (spec §4.2 step 6)
  using OpenCV's affine warp, matching the original implementation's use
  of cv::getRotationMatrix2D/cv::warpAffine. Enabled by the withcv build
  tag on platforms where cgo and a gocv build are available.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rotate

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

const channels = 3

// Rotate returns a copy of frame (an interleaved float32 RGB buffer of
// width*height*3 elements) rotated by degrees about the frame center via
// gocv.WarpAffine. A positive degrees value turns the frame clockwise in
// image (y-down) coordinates, as the default build does; OpenCV treats a
// positive angle as counter-clockwise, so the angle is negated before
// building the rotation matrix. degrees == 0 returns frame unchanged. A
// malformed input buffer is reported through err rather than aborting
// the process.
func Rotate(frame []float32, width, height int, degrees float32) ([]float32, error) {
	if degrees == 0 {
		return frame, nil
	}

	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV32FC3, float32ToBytes(frame))
	if err != nil {
		return nil, fmt.Errorf("rotate: could not wrap frame as a Mat: %w", err)
	}
	defer src.Close()

	center := image.Pt(width/2, height/2)
	m := gocv.GetRotationMatrix2D(center, -float64(degrees), 1.0)
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpAffine(src, &dst, m, image.Pt(width, height))

	out := make([]float32, len(frame))
	copyMatToFloat32(dst, out)
	return out, nil
}

func float32ToBytes(in []float32) []byte {
	out := make([]byte, len(in)*4)
	for i, v := range in {
		bits := math.Float32bits(v)
		out[i*4+0] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}

func copyMatToFloat32(m gocv.Mat, out []float32) {
	b := m.ToBytes()
	for i := range out {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
}
