package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pooled struct {
	n     int
	dirty bool
}

func newTestPool(maxSize int) (*ObjectPool[*pooled], *int) {
	created := 0
	pool := NewObjectPool(
		func() *pooled { created++; return &pooled{n: created} },
		func(p *pooled) { p.dirty = false },
		maxSize,
	)
	return pool, &created
}

func TestPoolGetCreatesWhenEmpty(t *testing.T) {
	pool, created := newTestPool(4)

	a := pool.Get()
	b := pool.Get()

	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *created)
	assert.Zero(t, pool.Size())
}

func TestPoolReusesReleasedInstance(t *testing.T) {
	pool, created := newTestPool(4)

	obj := pool.Get()
	obj.dirty = true
	require.True(t, pool.Release(obj))

	got := pool.Get()
	assert.Same(t, obj, got)
	assert.False(t, got.dirty, "reset runs on reuse")
	assert.Equal(t, 1, *created)
}

func TestPoolCap(t *testing.T) {
	pool, _ := newTestPool(3)

	for i := 0; i < 10; i++ {
		pool.Release(&pooled{})
	}
	assert.Equal(t, 3, pool.Size())
}

// With one slot, the first release is kept and later ones are dropped.
func TestPoolKeepsFirstReleased(t *testing.T) {
	pool, _ := newTestPool(1)
	a, b := &pooled{n: 100}, &pooled{n: 200}

	assert.True(t, pool.Release(a))
	assert.False(t, pool.Release(b))

	assert.Equal(t, 1, pool.Size())
	assert.Same(t, a, pool.Get())
}

func TestPoolPrefill(t *testing.T) {
	pool, created := newTestPool(5)

	pool.Prefill(3)
	assert.Equal(t, 3, pool.Size())
	assert.Equal(t, 3, *created)

	pool.Prefill(50)
	assert.Equal(t, 5, pool.Size(), "bounded by maxSize")
	assert.Equal(t, 5, *created)
}

func TestPoolClear(t *testing.T) {
	pool, created := newTestPool(5)
	pool.Prefill(5)

	pool.Clear()
	assert.Zero(t, pool.Size())

	pool.Get()
	assert.Equal(t, 6, *created, "cleared instances are not reused")
}

func TestPoolDefaultSize(t *testing.T) {
	pool := NewObjectPool(func() int { return 0 }, nil, 0)
	assert.Equal(t, DefaultPoolSize, pool.Cap())

	// nil reset is allowed
	pool.Release(7)
	assert.Equal(t, 7, pool.Get())
}

func BenchmarkPool_GetRelease(b *testing.B) {
	pool := NewObjectPool(
		func() *GameObject { return &GameObject{} },
		(*GameObject).reset,
		100,
	)
	pool.Prefill(100)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		obj := pool.Get()
		pool.Release(obj)
	}
}
