// Package secmem wraps memguard.LockedBuffer to keep the filter's key and
// password material out of swappable memory: these bytes must not be
// pageable for their lifetime, and must be wiped the moment they're no
// longer needed, on every exit path including errors.
package secmem

import "github.com/awnumar/memguard"

// Guard holds a fixed-size buffer of sensitive bytes locked against
// swapping. The zero value is not valid; use NewGuard. Destroy must be
// called on every exit path to wipe and unlock the memory.
type Guard struct {
	buf *memguard.LockedBuffer
}

// NewGuard allocates a locked buffer of the given size.
func NewGuard(size int) *Guard {
	return &Guard{buf: memguard.NewBuffer(size)}
}

// NewGuardFromBytes allocates a locked buffer and moves b's contents into
// it, wiping b in the process. b must not be used after this call.
func NewGuardFromBytes(b []byte) *Guard {
	g := &Guard{buf: memguard.NewBuffer(len(b))}
	g.buf.Move(b)

	return g
}

// Bytes returns the guarded buffer. The slice is only valid until Destroy
// is called; callers must not retain it past the Guard's lifetime.
func (g *Guard) Bytes() []byte {
	return g.buf.Bytes()
}

// Destroy wipes the buffer with zeroes and releases the memory lock. It is
// safe to call more than once.
func (g *Guard) Destroy() {
	g.buf.Destroy()
}

// WithBuffer allocates a locked buffer of size, passes it to fn, and
// guarantees the buffer is wiped and unlocked when fn returns, even if fn
// panics or returns an error.
func WithBuffer(size int, fn func(buf []byte) error) error {
	g := NewGuard(size)
	defer g.Destroy()

	return fn(g.Bytes())
}
