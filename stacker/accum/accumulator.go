/*
DESCRIPTION
  accumulator.go implements the running SUM/CNT frame buffer pair and the
  translated-accumulation step described in spec §4.7.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package accum implements the stacking engine's running SUM/CNT
// accumulator buffers.
package accum

// Rect is an axis-aligned pixel rectangle, (X,Y) top-left, (W,H) extent.
type Rect struct{ X, Y, W, H int }

// Intersect returns the intersection of r and o. If the rectangles do not
// overlap, the result has W<=0 or H<=0.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Area returns the rectangle's pixel area, or 0 if empty.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

const channels = 3

// Accumulator owns the SUM and CNT float32 planes described in spec §3,
// plus the running fully-stacked intersection rectangle.
type Accumulator struct {
	width, height int
	sum, cnt      []float32

	fullyStackedArea  Rect
	fullyStackedCount int
}

// New returns a zero-initialized Accumulator of the given dimensions.
func New(width, height int) *Accumulator {
	n := width * height * channels
	return &Accumulator{
		width:            width,
		height:           height,
		sum:              make([]float32, n),
		cnt:              make([]float32, n),
		fullyStackedArea: Rect{0, 0, width, height},
	}
}

// Width and Height return the accumulator's dimensions.
func (a *Accumulator) Width() int  { return a.width }
func (a *Accumulator) Height() int { return a.height }

// Sum and Cnt expose the underlying planes, row-major, channels
// interleaved (matching the frame layout).
func (a *Accumulator) Sum() []float32 { return a.sum }
func (a *Accumulator) Cnt() []float32 { return a.cnt }

// FullyStackedArea returns the intersection of every accepted frame's
// shifted footprint so far.
func (a *Accumulator) FullyStackedArea() Rect { return a.fullyStackedArea }

// FullyStackedCount returns the number of frames folded into
// FullyStackedArea.
func (a *Accumulator) FullyStackedCount() int { return a.fullyStackedCount }

// Add accumulates frame (an interleaved float32 RGB buffer matching the
// accumulator's dimensions) into SUM/CNT at integer shift (dx,dy), per
// spec §4.7. Out-of-bound portions of the shifted frame are discarded.
func (a *Accumulator) Add(frame []float32, dx, dy int) {
	w := a.width - abs(dx)
	h := a.height - abs(dy)
	srcRect := Rect{X: max(dx, 0), Y: max(dy, 0), W: w, H: h}
	imgRect := Rect{X: max(-dx, 0), Y: max(-dy, 0), W: w, H: h}

	if !srcRect.Empty() {
		stride := a.width * channels
		for row := 0; row < h; row++ {
			srcOff := (srcRect.Y+row)*stride + srcRect.X*channels
			imgOff := (imgRect.Y+row)*stride + imgRect.X*channels
			rowLen := w * channels
			for i := 0; i < rowLen; i++ {
				a.sum[srcOff+i] += frame[imgOff+i]
				a.cnt[srcOff+i]++
			}
		}
	}

	a.fullyStackedArea = a.fullyStackedArea.Intersect(srcRect)
	a.fullyStackedCount++
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
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
