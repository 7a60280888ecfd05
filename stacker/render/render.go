/*
DESCRIPTION
  render.go turns the running (SUM,CNT) accumulator into the final 8-bit
  RGB image: percentile-based auto-stretch tonemapping, or an explicit
  gamma/min-max rendering, per spec §4.6.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package render implements the live-stacking engine's auto-stretch and
// explicit-gamma renderers.
package render

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const channels = 3

// AutoStretch is the tgt_gamma sentinel that selects percentile-based
// auto-stretch rendering instead of an explicit gamma.
const AutoStretch = -1

// Rect is the subset of accum.Rect render needs: statistics are gathered
// over this rectangle, but scale/gamma is applied to the whole image.
type Rect struct{ X, Y, W, H int }

// Options configures a render.
type Options struct {
	Width, Height int
	FullyStacked  Rect
	// TgtGamma selects the mode: AutoStretch (-1) for auto-stretch, any
	// positive value for explicit gamma rendering.
	TgtGamma float32
	LowPer   float32
	HighPer  float32
}

// Render converts sum (normalized by fullyStackedCount) into an 8-bit
// interleaved RGB image per spec §4.6. If fullyStackedCount is 0 the
// output is all zeros.
func Render(sum []float32, fullyStackedCount int, opt Options) []byte {
	out := make([]byte, opt.Width*opt.Height*channels)
	if fullyStackedCount == 0 {
		return out
	}

	img := make([]float32, len(sum))
	inv := float32(1) / float32(fullyStackedCount)
	for i, v := range sum {
		img[i] = v * inv
	}

	if opt.TgtGamma == AutoStretch {
		autoStretch(img, opt)
	} else {
		explicit(img, opt.TgtGamma)
	}

	for i, v := range img {
		out[i] = to8bit(v)
	}
	return out
}

func to8bit(v float32) byte {
	v = v * 255
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}

// autoStretch implements spec §4.6 auto-stretch mode: per-channel
// percentile white-balance, a luminance high-percentile boost, and an
// adaptive gamma.
func autoStretch(img []float32, opt Options) {
	stride := opt.Width * channels
	area := opt.FullyStacked

	maxV := areaMax(img, stride, area)
	if maxV <= 0 {
		return
	}

	var hist [256][channels]int
	quantizeArea(img, stride, area, 255/maxV, &hist)

	n := area.W * area.H
	var lp [channels]int
	minFactor := 1.0
	for c := 0; c < channels; c++ {
		lp[c] = findLowPercentile(hist, c, n, float64(opt.LowPer))
		f := 255.0 / float64(255-lp[c])
		if f > minFactor {
			minFactor = f
		}
	}

	var meanc [channels]float64
	maxmean := 0.0
	for c := 0; c < channels; c++ {
		binCount := 256 - lp[c]
		values := make([]float64, binCount)
		weights := make([]float64, binCount)
		var total float64
		for i := lp[c]; i < 256; i++ {
			idx := i - lp[c]
			values[idx] = float64(idx)
			weights[idx] = float64(hist[i][c])
			total += weights[idx]
		}
		if total > 0 {
			meanc[c] = stat.Mean(values, weights)
		}
		if meanc[c] > maxmean {
			maxmean = meanc[c]
		}
	}

	var scale, offset [channels]float64
	for c := 0; c < channels; c++ {
		wb := minFactor
		if meanc[c] != 0 {
			wb = maxmean / meanc[c] * minFactor
		}
		l := float64(maxV) * float64(lp[c]) / 255
		scale[c] = wb / float64(maxV)
		offset[c] = -l * scale[c]
	}

	for i := range img {
		c := i % channels
		v := float64(img[i])*scale[c] + offset[c]
		img[i] = float32(clamp01(v))
	}

	gscale, mean := stretchHighFactor(img, stride, area, float64(opt.HighPer))
	for i := range img {
		v := float64(img[i]) * gscale
		if v > 1 {
			v = 1
		}
		img[i] = float32(v)
	}

	g := math.Log(mean) / math.Log(0.25)
	g = math.Max(1.0, math.Min(2.2, g))
	invG := 1 / g
	for i, v := range img {
		img[i] = float32(math.Pow(float64(v), invG))
	}
}

// findLowPercentile returns the smallest histogram bin for channel c whose
// cumulative count reaches lowPer percent of n.
func findLowPercentile(hist [256][channels]int, c, n int, lowPer float64) int {
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i][c]
		if float64(sum)*100.0/float64(n) >= lowPer {
			return i
		}
	}
	return 255
}

// stretchHighFactor implements stretch_high_factor: a luminance-weighted
// high-percentile boost, returning the boost factor and the resulting
// weighted mean.
func stretchHighFactor(img []float32, stride int, area Rect, highPer float64) (scale, mean float64) {
	var hist [256]int
	n := area.W * area.H
	for row := 0; row < area.H; row++ {
		base := (area.Y+row)*stride + area.X*channels
		for col := 0; col < area.W; col++ {
			off := base + col*channels
			r := img[off]
			g := img[off+1]
			b := img[off+2]
			y := clampByte(0.3*r+0.6*g+0.1*b) * 255
			hist[int(y)]++
		}
	}

	sum := n
	hp := 0
	for i := 255; i >= 0; i-- {
		sum -= hist[i]
		if float64(sum)*100.0/float64(n) <= highPer {
			hp = i
			break
		}
	}
	if hp == 0 {
		hp = 1
	}
	scale = 255.0 / float64(hp)

	values := make([]float64, 256)
	weights := make([]float64, 256)
	var total float64
	for i := 0; i < 256; i++ {
		v := float64(i)
		if i > hp {
			v = 255
		}
		values[i] = v
		weights[i] = float64(hist[i])
		total += weights[i]
	}
	if total > 0 {
		mean = stat.Mean(values, weights) / 255 * scale
	}
	return scale, mean
}

// explicit implements spec §4.6 explicit mode: global min-max normalize,
// then an optional gamma.
func explicit(img []float32, tgtGamma float32) {
	minV, maxV := floats.Min(toFloat64(img)), floats.Max(toFloat64(img))
	if minV < 0 {
		minV = 0
	}
	span := maxV - minV
	for i, v := range img {
		var nv float64
		if span == 0 {
			// A flat image (e.g. a single uniform frame) has nothing to
			// normalize against; pass it through instead of collapsing it.
			nv = float64(v)
		} else {
			nv = (float64(v) - minV) / span
		}
		img[i] = float32(clamp01(nv))
	}
	if tgtGamma != 1 {
		invG := float64(1) / float64(tgtGamma)
		for i, v := range img {
			img[i] = float32(math.Pow(float64(v), invG))
		}
	}
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func areaMax(img []float32, stride int, area Rect) float32 {
	max := float32(0)
	for row := 0; row < area.H; row++ {
		base := (area.Y+row)*stride + area.X*channels
		for i := 0; i < area.W*channels; i++ {
			if v := img[base+i]; v > max {
				max = v
			}
		}
	}
	return max
}

func quantizeArea(img []float32, stride int, area Rect, factor255 float32, hist *[256][channels]int) {
	for row := 0; row < area.H; row++ {
		base := (area.Y+row)*stride + area.X*channels
		for col := 0; col < area.W; col++ {
			off := base + col*channels
			for c := 0; c < channels; c++ {
				bin := clampBin(img[off+c] * factor255)
				hist[bin][c]++
			}
		}
	}
}

// clampBin converts a pixel value already scaled to roughly [0,255] into a
// valid histogram bin index.
func clampBin(v float32) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func clampByte(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
