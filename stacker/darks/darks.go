/*
DESCRIPTION
  darks.go implements the dark-frame calibration store: an optional linear
  float calibration frame, a lazily computed gamma-corrected cache, and the
  raw float32 file round-trip described in spec §4.1 and §6.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package darks implements the live-stacking engine's dark-frame
// calibration store.
package darks

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const channels = 3

// Store holds an optional dark calibration frame in linear float space,
// plus a gamma-corrected cache invalidated whenever the frame or the
// requested gamma changes.
type Store struct {
	width, height int
	has           bool
	darks         []float32

	gammaCorrected []float32
	gammaFor       float32 // 0 means nothing cached.
}

// New returns an empty Store for frames of the given dimensions.
func New(width, height int) *Store {
	return &Store{width: width, height: height}
}

// Has reports whether a dark frame has been set.
func (s *Store) Has() bool { return s.has }

// Darks returns the current linear-float dark frame, or nil if none is
// set.
func (s *Store) Darks() []float32 { return s.darks }

// SetFromBytes stores rgb (H*W*3 8-bit samples) as the dark frame,
// dividing by 255 per spec §4.1. It is idempotent and may be called
// repeatedly to replace the dark frame.
func (s *Store) SetFromBytes(rgb []byte) error {
	want := s.width * s.height * channels
	if len(rgb) != want {
		return fmt.Errorf("darks: expected %d bytes, got %d", want, len(rgb))
	}
	darks := make([]float32, want)
	for i, b := range rgb {
		darks[i] = float32(b) / 255
	}
	s.darks = darks
	s.has = true
	s.gammaFor = 0
	return nil
}

// Load reads a dark frame from a raw little-endian float32 triplet file
// (no header), per spec §6. The file must be exactly H*W*3*4 bytes; on any
// error the Store is left unchanged.
func (s *Store) Load(path string) error {
	want := s.width * s.height * channels * 4
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("darks: could not read %s: %w", path, err)
	}
	if len(data) != want {
		return fmt.Errorf("darks: %s has %d bytes, expected %d", path, len(data), want)
	}

	darks := make([]float32, s.width*s.height*channels)
	for i := range darks {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		darks[i] = math.Float32frombits(bits)
	}
	s.darks = darks
	s.has = true
	s.gammaFor = 0
	return nil
}

// SaveFromAccumulator writes the elementwise average sum/cnt as raw
// little-endian float32 triplets to path, building a master dark from a
// stacking session per spec §4.1. Pixels with cnt == 0 are written as 0
// rather than propagating the NaN/Inf that a naive division would produce
// (spec §9 flags this as an open defect in the original; we mask it).
func SaveFromAccumulator(sum, cnt []float32, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("darks: could not create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var buf [4]byte
	for i := range sum {
		var v float32
		if cnt[i] > 0 {
			v = sum[i] / cnt[i]
		}
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			return fmt.Errorf("darks: could not write %s: %w", path, err)
		}
	}
	return w.Flush()
}

// GammaCorrected returns darks^gamma, computing and caching it on first
// use for a given gamma value and reusing the cache on subsequent calls
// with the same gamma, per spec §3/§4.2 step 4.
func (s *Store) GammaCorrected(gamma float32) []float32 {
	if s.gammaFor == gamma && s.gammaCorrected != nil {
		return s.gammaCorrected
	}
	out := make([]float32, len(s.darks))
	for i, v := range s.darks {
		out[i] = float32(math.Pow(float64(v), float64(gamma)))
	}
	s.gammaCorrected = out
	s.gammaFor = gamma
	return out
}
