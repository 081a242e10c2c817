// Package arena provides Allocator implementations for pbtext.
//
// Arrow adapts an Apache Arrow memory.Allocator so message trees can share
// a pool (and its leak accounting) with columnar code. Budget caps the bytes
// live at once; Failing and Counting exist for exercising failure paths and
// leak checks.
package arena

import (
	"errors"
	"fmt"
	"sync"

	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/reoring/pbtext"
)

// ErrRefused is returned by allocators in this package when they decline a
// request.
var ErrRefused = errors.New("arena: allocation refused")

// Arrow wraps mem. A panic raised by mem while allocating is returned as an
// error; a nil mem selects memory.DefaultAllocator.
func Arrow(mem memory.Allocator) pbtext.Allocator {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return arrowAlloc{mem: mem}
}

type arrowAlloc struct{ mem memory.Allocator }

func (a arrowAlloc) Acquire(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: arrow allocator: %v", ErrRefused, r)
		}
	}()
	b = a.mem.Allocate(n)
	if len(b) < n {
		return nil, fmt.Errorf("%w: arrow allocator returned %d of %d bytes", ErrRefused, len(b), n)
	}
	return b[:n], nil
}

func (a arrowAlloc) Release(b []byte) { a.mem.Free(b) }

// Budget refuses any request that would take live bytes above Max.
type Budget struct {
	Max   int
	Inner pbtext.Allocator

	mu   sync.Mutex
	live int
}

func (b *Budget) Acquire(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live+n > b.Max {
		return nil, fmt.Errorf("%w: %d bytes live, %d requested, budget %d", ErrRefused, b.live, n, b.Max)
	}
	blk, err := inner(b.Inner).Acquire(n)
	if err != nil {
		return nil, err
	}
	b.live += n
	return blk, nil
}

func (b *Budget) Release(blk []byte) {
	b.mu.Lock()
	b.live -= len(blk)
	b.mu.Unlock()
	inner(b.Inner).Release(blk)
}

// Live reports the bytes currently acquired.
func (b *Budget) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Failing grants the first After requests and refuses every later one.
type Failing struct {
	After int
	Inner pbtext.Allocator

	mu    sync.Mutex
	calls int
}

func (f *Failing) Acquire(n int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	refuse := f.calls > f.After
	f.mu.Unlock()
	if refuse {
		return nil, fmt.Errorf("%w: request %d", ErrRefused, f.calls)
	}
	return inner(f.Inner).Acquire(n)
}

func (f *Failing) Release(b []byte) { inner(f.Inner).Release(b) }

// Calls reports the number of Acquire calls seen, granted or not.
func (f *Failing) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Counting records acquisitions and releases. A release of a block that is
// not live is counted as a double release and not forwarded to Inner.
type Counting struct {
	Inner pbtext.Allocator

	mu       sync.Mutex
	live     map[*byte]int
	acquired int
	bytes    int
	doubles  int
}

func (c *Counting) Acquire(n int) ([]byte, error) {
	b, err := inner(c.Inner).Acquire(n)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.live == nil {
		c.live = make(map[*byte]int)
	}
	c.live[&b[0]] = n
	c.acquired++
	c.bytes += n
	c.mu.Unlock()
	return b, nil
}

func (c *Counting) Release(b []byte) {
	if len(b) == 0 {
		return
	}
	c.mu.Lock()
	n, ok := c.live[&b[0]]
	if !ok {
		c.doubles++
		c.mu.Unlock()
		return
	}
	delete(c.live, &b[0])
	c.bytes -= n
	c.mu.Unlock()
	inner(c.Inner).Release(b)
}

// Outstanding reports blocks and bytes acquired but not yet released.
func (c *Counting) Outstanding() (blocks, bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live), c.bytes
}

// Acquired reports the total number of granted requests.
func (c *Counting) Acquired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired
}

// DoubleReleases reports releases of blocks that were not live.
func (c *Counting) DoubleReleases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doubles
}

func inner(a pbtext.Allocator) pbtext.Allocator {
	if a == nil {
		return pbtext.HeapAllocator{}
	}
	return a
}
