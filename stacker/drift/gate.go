/*
DESCRIPTION
  gate.go implements the drift-plausibility gate: a running statistic over
  accepted registration shifts used to reject implausible frames (cloud
  occlusion, mount bumps, mis-registration) while tolerating genuine,
  roughly constant-velocity drift.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package drift implements the stacking engine's drift-plausibility gate.
package drift

import "math"

// missedLimit and minStepLimit are the constants from spec §4.5: more than
// this many consecutive misses forces rejection outright, and the step
// limit never collapses below minStepLimit pixels even for a motionless
// mount.
const (
	missedLimit   = 5
	minStepLimit  = 3.0
)

// Point is an integer pixel shift.
type Point struct{ X, Y int }

// Gate tracks accepted shifts and decides whether a newly proposed shift
// is plausible relative to the running mean step.
type Gate struct {
	current     Point
	stepSumSq   float64
	countFrames int
	missed      int
}

// New returns a Gate reset to the origin.
func New() *Gate { return &Gate{} }

// Reset reinitializes the gate at position p, discarding all history. Used
// on the first accepted frame and whenever the caller forces acceptance
// via restart_position.
func (g *Gate) Reset(p Point) {
	g.current = p
	g.stepSumSq = 0
	g.countFrames = 0
	g.missed = 0
}

// CheckStep decides whether shift p should be accepted given the gate's
// history, updating the running statistics per spec §4.5.
func (g *Gate) CheckStep(p Point) bool {
	dx := float64(p.X - g.current.X)
	dy := float64(p.Y - g.current.Y)
	stepSq := dx*dx + dy*dy

	if g.countFrames == 0 {
		g.current = p
		g.stepSumSq = stepSq
		g.countFrames = 1
		g.missed = 0
		return true
	}

	stepAvg := math.Sqrt(g.stepSumSq / float64(g.countFrames))
	stepLimit := math.Max((2+math.Sqrt(float64(g.missed)))*stepAvg, minStepLimit)
	step := math.Sqrt(stepSq)

	if g.missed > missedLimit || step > stepLimit {
		g.missed++
		return false
	}

	g.current = p
	g.countFrames++
	g.stepSumSq += stepSq
	g.missed = 0
	return true
}

// Position returns the last accepted position.
func (g *Gate) Position() Point { return g.current }

// Missed returns the number of consecutive rejections since the last
// acceptance or reset.
func (g *Gate) Missed() int { return g.missed }
