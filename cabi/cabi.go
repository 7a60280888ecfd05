/*
DESCRIPTION
  cabi.go exposes the live-stacking engine over a handle-based C ABI, per
  spec §6. Handles are opaque uint64 tokens derived from a random UUID so
  that FFI callers never see a raw pointer; the underlying *Stacker
  values live in a mutex-guarded table on the Go side.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main builds the C ABI shared-library entry point for the
// live-stacking engine. Build with -buildmode=c-shared (or c-archive)
// targeting this directory.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/stacker/stacker"
	"github.com/ausocean/stacker/stacker/config"
)

// entry is a handle table value: the Stacker a handle refers to, which
// carries its own per-instance error text per spec §9.
type entry struct {
	s *stacker.Stacker
}

var (
	mu      sync.Mutex
	handles = map[uint64]*entry{}
	sharedLog logging.Logger = logging.New(logging.Info, io.Writer(os.Stderr), false)
)

// newHandleLocked allocates a fresh, currently-unused handle. Callers
// must hold mu.
func newHandleLocked() uint64 {
	for {
		id := uuid.New()
		h := binary.BigEndian.Uint64(id[:8])
		if h == 0 {
			continue
		}
		if _, exists := handles[h]; !exists {
			return h
		}
	}
}

func lookup(handle uint64) *entry {
	mu.Lock()
	defer mu.Unlock()
	return handles[handle]
}

//export stacker_create
func stacker_create(w, h, roiX, roiY, roiSize, expMul C.int) C.uint64_t {
	cfg := config.Config{
		Width:         int(w),
		Height:        int(h),
		ROIX:          int(roiX),
		ROIY:          int(roiY),
		ROISize:       int(roiSize),
		ExpMultiplier: int(expMul),
		Logger:        sharedLog,
	}
	s, err := stacker.New(cfg)
	if err != nil {
		return 0
	}

	mu.Lock()
	defer mu.Unlock()
	h2 := newHandleLocked()
	handles[h2] = &entry{s: s}
	return C.uint64_t(h2)
}

//export stacker_last_construct_error
func stacker_last_construct_error() *C.char {
	return C.CString(stacker.LastConstructError())
}

//export stacker_delete
func stacker_delete(handle C.uint64_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(handles, uint64(handle))
}

//export stacker_set_darks
func stacker_set_darks(handle C.uint64_t, rgb *C.uchar, n C.int) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	buf := C.GoBytes(unsafe.Pointer(rgb), n)
	if err := e.s.SetDarks(buf); err != nil {
		return -1
	}
	return 0
}

//export stacker_load_darks
func stacker_load_darks(handle C.uint64_t, path *C.char) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	if err := e.s.LoadDarks(C.GoString(path)); err != nil {
		return -1
	}
	return 0
}

//export stacker_save_stacked_darks
func stacker_save_stacked_darks(handle C.uint64_t, path *C.char) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	if err := e.s.SaveStackedDarks(C.GoString(path)); err != nil {
		return -1
	}
	return 0
}

//export stacker_set_src_gamma
func stacker_set_src_gamma(handle C.uint64_t, g C.float) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	e.s.SetSourceGamma(float32(g))
	return 0
}

//export stacker_set_tgt_gamma
func stacker_set_tgt_gamma(handle C.uint64_t, g C.float) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	e.s.SetTargetGamma(float32(g))
	return 0
}

// stacker_stack_image returns 1 if the frame was accepted, 0 if it was
// rejected, and -1 if the handle or frame is invalid.
//
//export stacker_stack_image
func stacker_stack_image(handle C.uint64_t, rgb *C.uchar, n C.int, restart C.int, rotateDeg C.float) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	buf := C.GoBytes(unsafe.Pointer(rgb), n)
	if e.s.StackImageBytes(buf, restart != 0, float32(rotateDeg)) {
		return 1
	}
	if e.s.Error() != "" {
		return -1
	}
	return 0
}

//export stacker_get_stacked
func stacker_get_stacked(handle C.uint64_t, out *C.uchar, n C.int) C.int {
	e := lookup(uint64(handle))
	if e == nil {
		return -1
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), int(n))
	if err := e.s.GetStacked(buf); err != nil {
		return -1
	}
	return 0
}

//export stacker_error
func stacker_error(handle C.uint64_t) *C.char {
	e := lookup(uint64(handle))
	if e == nil {
		return C.CString("")
	}
	return C.CString(e.s.Error())
}

func main() {}
