/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package accum

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddZeroShiftFillsFullImage(t *testing.T) {
	a := New(4, 4)
	frame := make([]float32, 4*4*3)
	for i := range frame {
		frame[i] = 1
	}
	a.Add(frame, 0, 0)

	for i, v := range a.Sum() {
		if v != 1 {
			t.Fatalf("Sum()[%d] = %v, want 1", i, v)
		}
	}
	for i, v := range a.Cnt() {
		if v != 1 {
			t.Fatalf("Cnt()[%d] = %v, want 1", i, v)
		}
	}
	area := a.FullyStackedArea()
	if diff := cmp.Diff(Rect{0, 0, 4, 4}, area); diff != "" {
		t.Errorf("FullyStackedArea() mismatch (-want +got):\n%s", diff)
	}
	if a.FullyStackedCount() != 1 {
		t.Errorf("FullyStackedCount() = %d, want 1", a.FullyStackedCount())
	}
}

func TestAddTranslatedShrinksFullyStackedArea(t *testing.T) {
	a := New(128, 128)
	frame := make([]float32, 128*128*3)
	for i := range frame {
		frame[i] = 1
	}
	a.Add(frame, 0, 0)
	a.Add(frame, 4, -3)

	want := Rect{4, 0, 124, 125}
	got := a.FullyStackedArea()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FullyStackedArea() mismatch (-want +got):\n%s", diff)
	}
	if a.FullyStackedCount() != 2 {
		t.Errorf("FullyStackedCount() = %d, want 2", a.FullyStackedCount())
	}

	// Every pixel inside the fully-stacked area must have been touched by
	// both frames.
	stride := a.Width() * channels
	for y := want.Y; y < want.Y+want.H; y++ {
		for x := want.X; x < want.X+want.W; x++ {
			off := y*stride + x*channels
			if a.Cnt()[off] != 2 {
				t.Fatalf("Cnt() at (%d,%d) = %v, want 2", x, y, a.Cnt()[off])
			}
		}
	}
}

func TestRectIntersectEmpty(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{20, 20, 5, 5}
	got := a.Intersect(b)
	if !got.Empty() {
		t.Errorf("Intersect() = %+v, want empty", got)
	}
	if got.Area() != 0 {
		t.Errorf("Area() = %d, want 0", got.Area())
	}
}
