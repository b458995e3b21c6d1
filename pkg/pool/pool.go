// Package pool provides the object pooling and string interning used while
// reading and encoding tables.
//
// Example usage:
//
//	buffers := pool.New(
//	    func() *bytes.Buffer { return new(bytes.Buffer) },
//	    func(b *bytes.Buffer) { b.Reset() },
//	)
//	buf := buffers.Get()
//	defer buffers.Put(buf)
package pool

import (
	"sync"
)

// Pool is a type-safe wrapper around sync.Pool that resets objects on Put.
// It is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New creates a pool. reset, when non-nil, runs on every object passed to Put.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		return newFn()
	}
	return p
}

// Get returns a pooled object or a new one.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}
