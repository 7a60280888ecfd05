/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package darks

import (
	"math"
	"path/filepath"
	"testing"
)

func TestSetFromBytes(t *testing.T) {
	s := New(2, 2)
	rgb := make([]byte, 2*2*3)
	for i := range rgb {
		rgb[i] = 51 // 51/255 = 0.2
	}
	if err := s.SetFromBytes(rgb); err != nil {
		t.Fatalf("SetFromBytes: %v", err)
	}
	if !s.Has() {
		t.Fatal("Has() = false after SetFromBytes")
	}
	for i, v := range s.Darks() {
		if math.Abs(float64(v)-0.2) > 1e-6 {
			t.Fatalf("Darks()[%d] = %v, want ~0.2", i, v)
		}
	}
}

func TestSetFromBytesRejectsWrongSize(t *testing.T) {
	s := New(2, 2)
	if err := s.SetFromBytes(make([]byte, 3)); err == nil {
		t.Fatal("SetFromBytes: want error for wrong-sized buffer")
	}
	if s.Has() {
		t.Fatal("Has() = true after a rejected SetFromBytes")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.flt")

	n := 2 * 2 * 3
	sum := make([]float32, n)
	cnt := make([]float32, n)
	for i := range sum {
		sum[i] = float32(i) * 0.1
		cnt[i] = 2
	}
	if err := SaveFromAccumulator(sum, cnt, path); err != nil {
		t.Fatalf("SaveFromAccumulator: %v", err)
	}

	s := New(2, 2)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, v := range s.Darks() {
		want := sum[i] / cnt[i]
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("Darks()[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestSaveFromAccumulatorMasksUnstackedPixels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.flt")

	sum := []float32{1, 2, 3}
	cnt := []float32{0, 0, 0}
	if err := SaveFromAccumulator(sum, cnt, path); err != nil {
		t.Fatalf("SaveFromAccumulator: %v", err)
	}

	s := New(1, 1)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, v := range s.Darks() {
		if v != 0 {
			t.Fatalf("Darks()[%d] = %v, want 0 for an unstacked (cnt=0) pixel", i, v)
		}
	}
}

func TestGammaCorrectedCaches(t *testing.T) {
	s := New(1, 1)
	if err := s.SetFromBytes([]byte{255, 255, 255}); err != nil {
		t.Fatalf("SetFromBytes: %v", err)
	}
	first := s.GammaCorrected(2.2)
	second := s.GammaCorrected(2.2)
	if &first[0] != &second[0] {
		t.Error("GammaCorrected: expected cached slice to be reused for an unchanged gamma")
	}
	for _, v := range first {
		if math.Abs(float64(v)-1) > 1e-6 {
			t.Fatalf("GammaCorrected(2.2) of an all-white frame = %v, want ~1", v)
		}
	}
}
