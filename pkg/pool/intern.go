package pool

import (
	"sync"
	"sync/atomic"
)

// DefaultInternSize bounds the number of distinct strings an Interner keeps.
const DefaultInternSize = 1 << 16

// Interner returns one shared copy of each distinct string, so repeated
// cell values (categories, flags, codes) share their backing memory. Once
// maxSize strings are held, unseen strings are returned unchanged.
type Interner struct {
	mu      sync.RWMutex
	strings map[string]string
	maxSize int
	hits    int64
	misses  int64
}

// NewInterner creates an interner holding at most maxSize strings.
// A non-positive maxSize uses DefaultInternSize.
func NewInterner(maxSize int) *Interner {
	if maxSize <= 0 {
		maxSize = DefaultInternSize
	}
	return &Interner{
		strings: make(map[string]string, min(maxSize, 1024)),
		maxSize: maxSize,
	}
}

// Intern returns the shared copy of s.
func (p *Interner) Intern(s string) string {
	p.mu.RLock()
	interned, ok := p.strings[s]
	p.mu.RUnlock()
	if ok {
		atomic.AddInt64(&p.hits, 1)
		return interned
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if interned, ok := p.strings[s]; ok {
		atomic.AddInt64(&p.hits, 1)
		return interned
	}
	atomic.AddInt64(&p.misses, 1)
	if len(p.strings) >= p.maxSize {
		return s
	}
	p.strings[s] = s
	return s
}

// Stats returns the number of held strings, hits and misses.
func (p *Interner) Stats() (size int, hits, misses int64) {
	p.mu.RLock()
	size = len(p.strings)
	p.mu.RUnlock()
	return size, atomic.LoadInt64(&p.hits), atomic.LoadInt64(&p.misses)
}
