// Package cache keeps parsed programs keyed by a digest of their source so
// repeated runs of the same text skip lexing and parsing.
package cache

import (
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/edwingeng/deque"
	"github.com/lacquerai/minijs/internal/ast"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// DefaultSize is the number of programs kept when New is given a size <= 0
const DefaultSize = 1024

// Digest is the blake3 hash of a source text
type Digest [32]byte

// String returns the hex form of the digest
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Sum returns the digest of source
func Sum(source string) Digest {
	return blake3.Sum256([]byte(source))
}

// Stats is a snapshot of cache counters
type Stats struct {
	Size   int    `json:"size" yaml:"size"`
	Limit  int    `json:"limit" yaml:"limit"`
	Hits   uint64 `json:"hits" yaml:"hits"`
	Misses    uint64 `json:"misses" yaml:"misses"`
	Evictions uint64 `json:"evictions" yaml:"evictions"`
}

// Observer is notified of every lookup. The server uses it to feed
// Prometheus counters.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// ProgramCache is a bounded, concurrency safe map from source digest to
// parsed program. When full, the oldest insertion is evicted first.
type ProgramCache struct {
	mu       sync.RWMutex
	limit    int
	programs map[Digest]*ast.Program
	order    deque.Deque

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	observer  Observer
}

// New creates a cache holding at most size programs
func New(size int) *ProgramCache {
	if size <= 0 {
		size = DefaultSize
	}
	return &ProgramCache{
		limit:    size,
		programs: make(map[Digest]*ast.Program, size),
		order:    deque.NewDeque(),
	}
}

// SetObserver registers o to be told about hits and misses
func (c *ProgramCache) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Get returns the program parsed from source, if cached
func (c *ProgramCache) Get(source string) (*ast.Program, bool) {
	key := Sum(source)

	c.mu.RLock()
	program, ok := c.programs[key]
	observer := c.observer
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		if observer != nil {
			observer.CacheHit()
		}
		return program, true
	}

	c.misses.Add(1)
	if observer != nil {
		observer.CacheMiss()
	}
	return nil, false
}

// Put stores program under the digest of source
func (c *ProgramCache) Put(source string, program *ast.Program) {
	if program == nil {
		return
	}
	key := Sum(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.programs[key]; exists {
		c.programs[key] = program
		return
	}

	for c.order.Len() >= c.limit {
		oldest := c.order.PopFront().(Digest)
		delete(c.programs, oldest)
		c.evictions.Add(1)
		log.Debug().Str("digest", oldest.String()).Msg("Evicted program from cache")
	}

	c.programs[key] = program
	c.order.PushBack(key)
}

// Len returns the number of cached programs
func (c *ProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// Purge drops every cached program. Counters are kept.
func (c *ProgramCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs = make(map[Digest]*ast.Program, c.limit)
	c.order = deque.NewDeque()
}

// Stats returns the current counters
func (c *ProgramCache) Stats() Stats {
	c.mu.RLock()
	size := len(c.programs)
	c.mu.RUnlock()

	return Stats{
		Size:      size,
		Limit:     c.limit,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
