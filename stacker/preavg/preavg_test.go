/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package preavg

import "testing"

func TestAddNotReadyUntilMultReached(t *testing.T) {
	a := New(4)
	frame := []float32{1, 1, 1}

	for i := 0; i < 3; i++ {
		if out, ready := a.Add(frame); ready || out != nil {
			t.Fatalf("Add() call %d: ready=%v out=%v, want not ready", i, ready, out)
		}
	}

	out, ready := a.Add(frame)
	if !ready {
		t.Fatal("Add(): expected ready on the 4th frame")
	}
	for i, v := range out {
		if v != 1 {
			t.Errorf("out[%d] = %v, want 1", i, v)
		}
	}
}

func TestAddAveragesVaryingFrames(t *testing.T) {
	a := New(2)
	a.Add([]float32{2, 4, 6})
	out, ready := a.Add([]float32{0, 0, 0})
	if !ready {
		t.Fatal("Add(): expected ready on the 2nd frame")
	}
	want := []float32{1, 2, 3}
	for i, v := range out {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestAddResetsAfterBatch(t *testing.T) {
	a := New(2)
	a.Add([]float32{10})
	a.Add([]float32{10})
	if _, ready := a.Add([]float32{10}); ready {
		t.Fatal("Add(): expected a fresh batch to need 2 frames again")
	}
}
