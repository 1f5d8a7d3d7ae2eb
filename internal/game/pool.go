package game

// ObjectPool recycles instances to avoid per-frame allocation.
//
// Get hands out an idle instance (reset first) or a new one from create.
// Release keeps the instance only while fewer than maxSize are idle; extras
// are left to the garbage collector. The pool never tracks outstanding
// instances, so releasing the same one twice stores it twice.
//
// ObjectPool is not safe for concurrent use. The engine only touches its pool
// while holding the engine lock.
type ObjectPool[T any] struct {
	free    []T
	create  func() T
	reset   func(T)
	maxSize int
}

// DefaultPoolSize is the idle cap used when a non-positive size is given.
const DefaultPoolSize = 100

// NewObjectPool creates a pool. reset may be nil.
func NewObjectPool[T any](create func() T, reset func(T), maxSize int) *ObjectPool[T] {
	if maxSize <= 0 {
		maxSize = DefaultPoolSize
	}
	return &ObjectPool[T]{
		free:    make([]T, 0, maxSize),
		create:  create,
		reset:   reset,
		maxSize: maxSize,
	}
}

// Get returns a reset idle instance, or a fresh one when the pool is empty.
func (p *ObjectPool[T]) Get() T {
	n := len(p.free)
	if n == 0 {
		return p.create()
	}

	obj := p.free[n-1]
	var zero T
	p.free[n-1] = zero
	p.free = p.free[:n-1]

	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Release returns obj to the pool. It reports whether the instance was kept.
func (p *ObjectPool[T]) Release(obj T) bool {
	if len(p.free) >= p.maxSize {
		return false
	}
	p.free = append(p.free, obj)
	return true
}

// Prefill creates instances until n are idle (capped at maxSize).
func (p *ObjectPool[T]) Prefill(n int) {
	n = min(n, p.maxSize)
	for len(p.free) < n {
		p.free = append(p.free, p.create())
	}
}

// Clear drops every idle instance.
func (p *ObjectPool[T]) Clear() {
	clear(p.free)
	p.free = p.free[:0]
}

// Size returns the number of idle instances.
func (p *ObjectPool[T]) Size() int {
	return len(p.free)
}

// Cap returns the maximum number of idle instances kept.
func (p *ObjectPool[T]) Cap() int {
	return p.maxSize
}
