package heif

/*
#cgo pkg-config: libheif
#include <libheif/heif.h>
*/
import "C"

import (
	"io"
	"unsafe"
)

// Callback functions adapting a Source to libheif's pull-based heif_reader
// contract and an io.Writer to its heif_writer contract. There is no
// partial-success return path across the boundary: each callback reports
// either complete success or the native failure code, and libheif applies
// its own error recovery. The callbacks run synchronously, re-entrantly, on
// the thread of control that issued the triggering native call.

const (
	statusOK     = 0
	statusFailed = -1
)

//export goheifGetPosition
func goheifGetPosition(userdata unsafe.Pointer) C.int64_t {
	s := lookupSession(*(*uint64)(userdata))
	pos, err := sourcePosition(s.src)
	if err != nil {
		return statusFailed
	}
	return C.int64_t(pos)
}

//export goheifRead
func goheifRead(data unsafe.Pointer, size C.size_t, userdata unsafe.Pointer) C.int {
	s := lookupSession(*(*uint64)(userdata))
	pos, err := sourcePosition(s.src)
	if err != nil {
		return statusFailed
	}
	// Demands are clamped to the bytes actually available; a request with
	// nothing left to serve fails before any copy.
	want := int64(size)
	if avail := s.src.Size() - pos; avail < want {
		want = avail
	}
	if want < 1 {
		return statusFailed
	}
	buf := unsafe.Slice((*byte)(data), want)
	if _, err := io.ReadFull(s.src, buf); err != nil {
		return statusFailed
	}
	return statusOK
}

//export goheifSeek
func goheifSeek(position C.int64_t, userdata unsafe.Pointer) C.int {
	s := lookupSession(*(*uint64)(userdata))
	// The stream's own length is the only bound the bridge enforces.
	if position < 0 || int64(position) > s.src.Size() {
		return statusFailed
	}
	if _, err := s.src.Seek(int64(position), io.SeekStart); err != nil {
		return statusFailed
	}
	return statusOK
}

//export goheifWaitForFileSize
func goheifWaitForFileSize(targetSize C.int64_t, userdata unsafe.Pointer) C.int {
	s := lookupSession(*(*uint64)(userdata))
	// Static sources never grow, so this is a pure comparison; growable
	// sources would block here until the target became readable.
	if int64(targetSize) > s.src.Size() {
		return C.int(C.heif_reader_grow_status_size_beyond_eof)
	}
	return C.int(C.heif_reader_grow_status_size_reached)
}

//export goheifWrite
func goheifWrite(ctx *C.struct_heif_context, data unsafe.Pointer, size C.size_t, userdata unsafe.Pointer) C.int {
	s := lookupSession(*(*uint64)(userdata))
	buf := unsafe.Slice((*byte)(data), int(size))
	// One native write maps to exactly one sink write; no buffering
	// beyond what the sink itself performs.
	if _, err := s.sink.Write(buf); err != nil {
		return statusFailed
	}
	return statusOK
}
