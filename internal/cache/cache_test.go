package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (o *countingObserver) CacheHit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits++
}

func (o *countingObserver) CacheMiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses++
}

func program(t *testing.T, source string) *ast.Program {
	t.Helper()
	p, err := minijs.Parse(source)
	require.NoError(t, err)
	return p
}

func TestSum(t *testing.T) {
	assert.Equal(t, Sum("a = 1"), Sum("a = 1"))
	assert.NotEqual(t, Sum("a = 1"), Sum("a = 2"))
	assert.Len(t, Sum("").String(), 64)
}

func TestProgramCache_GetPut(t *testing.T) {
	c := New(4)

	_, ok := c.Get("a = 1")
	assert.False(t, ok)

	p := program(t, "a = 1")
	c.Put("a = 1", p)

	got, ok := c.Get("a = 1")
	require.True(t, ok)
	assert.Same(t, p, got)

	c.Put("ignored", nil)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, Stats{Size: 1, Limit: 4, Hits: 1, Misses: 1}, c.Stats())
}

func TestProgramCache_EvictsOldestFirst(t *testing.T) {
	c := New(2)

	c.Put("a", program(t, "a"))
	c.Put("b", program(t, "b"))

	// replacing an existing entry does not change its age
	c.Put("a", program(t, "a"))
	c.Put("c", program(t, "c"))

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	c.Put("d", program(t, "d"))
	assert.Equal(t, uint64(2), c.Stats().Evictions)
	assert.Equal(t, 2, c.Len())
}

func TestProgramCache_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize, New(0).Stats().Limit)
	assert.Equal(t, DefaultSize, New(-3).Stats().Limit)
}

func TestProgramCache_Purge(t *testing.T) {
	c := New(2)
	c.Put("a", program(t, "a"))
	c.Get("a")

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Hits)

	c.Put("b", program(t, "b"))
	c.Put("c", program(t, "c"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestProgramCache_Observer(t *testing.T) {
	c := New(2)
	o := &countingObserver{}
	c.SetObserver(o)

	c.Get("x")
	c.Put("x", program(t, "x"))
	c.Get("x")
	c.Get("x")

	assert.Equal(t, 2, o.hits)
	assert.Equal(t, 1, o.misses)
}

func TestProgramCache_WithRun(t *testing.T) {
	c := New(8)
	ctx := map[string]interface{}{"a": 1}

	for i := 0; i < 3; i++ {
		out, err := minijs.Run("a = a + 1", ctx, minijs.WithCache(c))
		require.NoError(t, err)
		assert.Equal(t, 2, out["a"])
	}

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestProgramCache_Concurrent(t *testing.T) {
	c := New(16)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf("a = %d", i%20)
			if _, ok := c.Get(src); !ok {
				p, err := minijs.Parse(src)
				if err == nil {
					c.Put(src, p)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
