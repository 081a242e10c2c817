package pbtext

import "fmt"

// Allocator is the capability through which messages, repeated storage,
// string payloads and encoder output acquire memory. Every block returned by
// Acquire is handed back to Release exactly once, unmodified in length.
//
// Implementations used from a single parse or encode call need not be safe
// for concurrent use.
type Allocator interface {
	// Acquire returns a block of exactly n bytes (n > 0) or an error.
	Acquire(n int) ([]byte, error)
	Release(b []byte)
}

// HeapAllocator allocates from the Go heap and never fails.
type HeapAllocator struct{}

func (HeapAllocator) Acquire(n int) ([]byte, error) { return make([]byte, n), nil }
func (HeapAllocator) Release([]byte)                 {}

func allocatorOr(a Allocator) Allocator {
	if a == nil {
		return HeapAllocator{}
	}
	return a
}

// outBuffer is an append-only byte buffer whose storage comes from an
// Allocator and grows geometrically.
type outBuffer struct {
	a   Allocator
	blk []byte
	n   int
}

func (b *outBuffer) grow(extra int) error {
	if b.n+extra <= len(b.blk) {
		return nil
	}
	size := 2 * len(b.blk)
	if size < 256 {
		size = 256
	}
	for size < b.n+extra {
		size *= 2
	}
	blk, err := b.a.Acquire(size)
	if err != nil {
		return fmt.Errorf("%w: output buffer of %d bytes: %v", ErrOutOfMemory, size, err)
	}
	copy(blk, b.blk[:b.n])
	if b.blk != nil {
		b.a.Release(b.blk)
	}
	b.blk = blk
	return nil
}

func (b *outBuffer) write(p []byte) error {
	if err := b.grow(len(p)); err != nil {
		return err
	}
	b.n += copy(b.blk[b.n:], p)
	return nil
}

func (b *outBuffer) writeString(s string) error {
	if err := b.grow(len(s)); err != nil {
		return err
	}
	b.n += copy(b.blk[b.n:], s)
	return nil
}

func (b *outBuffer) writeByte(c byte) error {
	if err := b.grow(1); err != nil {
		return err
	}
	b.blk[b.n] = c
	b.n++
	return nil
}

func (b *outBuffer) pad(n int) error {
	if err := b.grow(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		b.blk[b.n+i] = ' '
	}
	b.n += n
	return nil
}

// bytes exposes the written prefix; valid until the next write or free.
func (b *outBuffer) bytes() []byte { return b.blk[:b.n] }

func (b *outBuffer) free() {
	if b.blk != nil {
		b.a.Release(b.blk)
	}
	b.blk, b.n = nil, 0
}
