package heif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>
*/
import "C"

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"
)

// The native callback signatures carry only a small opaque userdata pointer,
// so sessions are recovered through a process-wide token table instead of
// smuggling Go pointers across the C boundary. Exactly one live session is
// registered per token; libheif issues all callbacks for one session
// synchronously on the thread of control that triggered them, so entries are
// never looked up concurrently with their own removal.
var (
	sessionMu sync.RWMutex
	sessions  = make(map[uint64]*session)
	lastToken atomic.Uint64
)

// session is one open decode or encode operation. It owns the native
// context, the scratch arena backing every foreign allocation made during
// the session, and the registry entry.
type session struct {
	token uint64
	ctx   *C.struct_heif_context
	arena *arena

	src  Source    // decode only
	sink io.Writer // encode only

	// userData points at 8 bytes of arena memory holding the token; this
	// is the value libheif hands back to every callback.
	userData unsafe.Pointer
}

func newSession() (*session, error) {
	s := &session{
		token: lastToken.Add(1),
		arena: &arena{},
	}
	s.ctx = C.heif_context_alloc()
	if s.ctx == nil {
		s.arena.release()
		return nil, fmt.Errorf("heif: could not allocate context")
	}
	s.userData = s.arena.alloc(8)
	*(*uint64)(s.userData) = s.token
	registerSession(s)
	return s, nil
}

// close releases native resources in child-before-parent order: the caller
// is responsible for having released image handles already; here the
// context goes before the arena that backs its reader state.
func (s *session) close() {
	unregisterSession(s.token)
	if s.ctx != nil {
		C.heif_context_free(s.ctx)
		s.ctx = nil
	}
	s.arena.release()
}

func registerSession(s *session) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if _, ok := sessions[s.token]; ok {
		panic(fmt.Sprintf("heif: token %d already registered", s.token))
	}
	sessions[s.token] = s
}

// lookupSession resolves a callback token. A miss is a programming-contract
// violation: callbacks only ever arrive while their session is alive and
// registered.
func lookupSession(token uint64) *session {
	sessionMu.RLock()
	s := sessions[token]
	sessionMu.RUnlock()
	if s == nil {
		panic(fmt.Sprintf("heif: callback for unregistered session token %d", token))
	}
	return s
}

func unregisterSession(token uint64) {
	sessionMu.Lock()
	delete(sessions, token)
	sessionMu.Unlock()
}

// arena tracks C allocations made on behalf of one session. It is released
// only at session close, after every native handle it backs has been
// released, in reverse allocation order.
type arena struct {
	ptrs []unsafe.Pointer
}

func (a *arena) alloc(n int) unsafe.Pointer {
	p := C.calloc(1, C.size_t(n))
	if p == nil {
		panic("heif: out of native memory")
	}
	a.ptrs = append(a.ptrs, p)
	return p
}

func (a *arena) cstring(s string) *C.char {
	p := a.alloc(len(s) + 1)
	copy(unsafe.Slice((*byte)(p), len(s)+1), s)
	return (*C.char)(p)
}

func (a *arena) release() {
	for i := len(a.ptrs) - 1; i >= 0; i-- {
		C.free(a.ptrs[i])
	}
	a.ptrs = nil
}
