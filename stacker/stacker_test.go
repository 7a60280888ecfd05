/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stacker

import (
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/stacker/stacker/config"
)

func newTestConfig(t *testing.T, w, h, roiSize int) config.Config {
	return config.Config{
		Width:    w,
		Height:   h,
		ROIX:     -1,
		ROIY:     -1,
		ROISize:  roiSize,
		SrcGamma: 1,
		TgtGamma: 1,
		Logger:   (*logging.TestLogger)(t),
	}
}

func uniformFrame(w, h int, v float32) []float32 {
	f := make([]float32, w*h*3)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestGetStackedBeforeAnyFrameIsZero(t *testing.T) {
	s, err := New(newTestConfig(t, 8, 8, 4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := make([]byte, 8*8*3)
	if err := s.GetStacked(out); err != nil {
		t.Fatalf("GetStacked: %v", err)
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("out[%d] = %d, want 0 before any frame is stacked", i, b)
		}
	}
}

func TestSingleFrameIdentity(t *testing.T) {
	const w, h = 64, 64
	s, err := New(newTestConfig(t, w, h, 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame := uniformFrame(w, h, 128.0/255.0)
	if !s.StackImage(frame, false, 0) {
		t.Fatalf("StackImage: rejected, error=%q", s.Error())
	}

	out := make([]byte, w*h*3)
	if err := s.GetStacked(out); err != nil {
		t.Fatalf("GetStacked: %v", err)
	}
	for i, b := range out {
		if b < 127 || b > 129 {
			t.Fatalf("out[%d] = %d, want ~128", i, b)
		}
	}
}

func TestZeroShiftModeAcceptsEveryFrame(t *testing.T) {
	const w, h = 32, 32
	s, err := New(newTestConfig(t, w, h, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5; i++ {
		frame := uniformFrame(w, h, float32(i)/10)
		if !s.StackImage(frame, false, 0) {
			t.Fatalf("frame %d rejected in zero-shift mode, error=%q", i, s.Error())
		}
	}

	x, y, fw, fh := s.FullyStackedArea()
	if x != 0 || y != 0 || fw != w || fh != h {
		t.Errorf("FullyStackedArea() = (%d,%d,%d,%d), want full frame", x, y, fw, fh)
	}
	if s.FullyStackedCount() != 5 {
		t.Errorf("FullyStackedCount() = %d, want 5", s.FullyStackedCount())
	}
}

func TestDarkSubtraction(t *testing.T) {
	const w, h = 16, 16
	s, err := New(newTestConfig(t, w, h, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	darks := make([]byte, w*h*3)
	for i := range darks {
		darks[i] = 10
	}
	if err := s.SetDarks(darks); err != nil {
		t.Fatalf("SetDarks: %v", err)
	}

	raw := make([]byte, w*h*3)
	for i := range raw {
		raw[i] = 60
	}
	if !s.StackImageBytes(raw, false, 0) {
		t.Fatalf("StackImageBytes: rejected, error=%q", s.Error())
	}

	out := make([]byte, w*h*3)
	if err := s.GetStacked(out); err != nil {
		t.Fatalf("GetStacked: %v", err)
	}
	for i, b := range out {
		if b < 49 || b > 51 {
			t.Fatalf("out[%d] = %d, want ~50", i, b)
		}
	}
}

func TestPreAveragingEquivalence(t *testing.T) {
	const w, h = 16, 16

	single, err := New(newTestConfig(t, w, h, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame := uniformFrame(w, h, 0.4)
	if !single.StackImage(frame, false, 0) {
		t.Fatalf("single: rejected, error=%q", single.Error())
	}

	batchCfg := newTestConfig(t, w, h, 0)
	batchCfg.ExpMultiplier = 4
	batched, err := New(batchCfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 4; i++ {
		if !batched.StackImage(frame, false, 0) {
			t.Fatalf("batched frame %d: rejected, error=%q", i, batched.Error())
		}
	}

	singleOut := make([]byte, w*h*3)
	batchedOut := make([]byte, w*h*3)
	if err := single.GetStacked(singleOut); err != nil {
		t.Fatalf("GetStacked(single): %v", err)
	}
	if err := batched.GetStacked(batchedOut); err != nil {
		t.Fatalf("GetStacked(batched): %v", err)
	}
	for i := range singleOut {
		d := int(singleOut[i]) - int(batchedOut[i])
		if d < -1 || d > 1 {
			t.Fatalf("out[%d] = %d vs %d, want within 1 LSB", i, singleOut[i], batchedOut[i])
		}
	}
}

func TestStackImageRejectsWrongSize(t *testing.T) {
	s, err := New(newTestConfig(t, 8, 8, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.StackImage(make([]float32, 3), false, 0) {
		t.Fatal("StackImage: expected rejection for a mismatched buffer size")
	}
	if s.Error() == "" {
		t.Fatal("Error(): expected a non-empty message after a size mismatch")
	}
}

func TestNewFailsOnBadDimensionsAndRecordsConstructError(t *testing.T) {
	_, err := New(config.Config{Width: 0, Height: 0, Logger: nil})
	if err == nil {
		t.Fatal("New: want error for zero dimensions and missing logger")
	}
	if LastConstructError() == "" {
		t.Fatal("LastConstructError(): want non-empty message after a failed New")
	}
}
