package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := New(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)

	buf := p.Get()
	buf.WriteString("dirty")
	p.Put(buf)

	again := p.Get()
	assert.Zero(t, again.Len())
	p.Put(again)
}

func TestPoolConcurrentUse(t *testing.T) {
	var created atomic.Int64
	p := New(func() []int {
		created.Add(1)
		return make([]int, 0, 8)
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := p.Get()
				p.Put(s[:0])
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, created.Load(), int64(1600))
	assert.Positive(t, created.Load())
}

func TestInternerSharesBackingMemory(t *testing.T) {
	in := NewInterner(0)
	a := in.Intern(string([]byte("Grade A")))
	b := in.Intern(string([]byte("Grade A")))

	assert.Equal(t, unsafe.StringData(a), unsafe.StringData(b))

	size, hits, misses := in.Stats()
	assert.Equal(t, 1, size)
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInternerIsBounded(t *testing.T) {
	in := NewInterner(2)
	in.Intern("a")
	in.Intern("b")
	assert.Equal(t, "c", in.Intern("c"))

	size, _, misses := in.Stats()
	assert.Equal(t, 2, size)
	assert.Equal(t, int64(3), misses)
}
