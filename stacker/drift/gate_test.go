/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package drift

import "testing"

func TestCheckStepAcceptsFirstFrameUnconditionally(t *testing.T) {
	g := New()
	if !g.CheckStep(Point{1000, -1000}) {
		t.Fatal("CheckStep: first frame must always be accepted")
	}
}

func TestCheckStepRejectsLargeJump(t *testing.T) {
	g := New()
	g.CheckStep(Point{0, 0})

	// Eight accepted frames with a mean step of 2px.
	pos := Point{0, 0}
	for i := 0; i < 8; i++ {
		pos = Point{pos.X + 2, pos.Y}
		if !g.CheckStep(pos) {
			t.Fatalf("frame %d: expected acceptance building up steady drift", i)
		}
	}

	jump := Point{pos.X + 40, pos.Y}
	if g.CheckStep(jump) {
		t.Fatal("CheckStep: a 40px jump against a 2px running mean should be rejected")
	}
	if g.Missed() != 1 {
		t.Errorf("Missed() = %d, want 1", g.Missed())
	}
}

func TestCheckStepMissedLimitForcesRejection(t *testing.T) {
	g := New()
	g.CheckStep(Point{0, 0})
	g.CheckStep(Point{1, 0})

	for i := 0; i < 6; i++ {
		g.CheckStep(Point{1 + 1000, 0})
	}
	if g.Missed() <= missedLimit {
		t.Fatalf("Missed() = %d, want > %d after repeated rejection", g.Missed(), missedLimit)
	}
	if g.CheckStep(Point{1, 0}) {
		t.Fatal("CheckStep: a zero step must be rejected once the missed limit is exceeded")
	}
}

func TestResetClearsHistory(t *testing.T) {
	g := New()
	g.CheckStep(Point{0, 0})
	g.CheckStep(Point{5, 0})
	g.Reset(Point{100, 100})

	if g.Position() != (Point{100, 100}) {
		t.Fatalf("Position() = %+v, want (100,100)", g.Position())
	}
	if !g.CheckStep(Point{100000, 0}) {
		t.Fatal("CheckStep: first step after Reset must always be accepted")
	}
}

func TestStepLimitNeverCollapsesBelowMinimum(t *testing.T) {
	g := New()
	g.CheckStep(Point{0, 0})
	// Accepted steps of 0 would otherwise drive step_avg, and hence
	// step_limit, to zero.
	for i := 0; i < 5; i++ {
		g.CheckStep(Point{0, 0})
	}
	if !g.CheckStep(Point{2, 0}) {
		t.Fatal("CheckStep: a 2px step must be accepted even with a motionless history, per the 3px floor")
	}
}
