package memoize

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/jmgilman/go/errors"
)

// Func is a function whose results can be memoized. The result type must
// survive a JSON round trip; the function is assumed pure — if it is not,
// stale results are the caller's problem. Named values may appear among args
// to act as keyword arguments.
type Func[V any] func(ctx context.Context, args ...any) (V, error)

// Memo memoizes one function in a remote bucket. Build one with FIFO or
// LRU; the zero value is not usable.
//
// The hit/miss counters are updated atomically, but the call path itself is
// uncoordinated: concurrent callers can both miss, both compute, and both
// write, with the last write winning.
type Memo[V any] struct {
	fn      Func[V]
	store   objectStore
	maxSize int // 0 = unbounded
	typed   bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Info is a point-in-time snapshot of cache statistics. CurrSize is
// recomputed from the bucket on every request, never cached.
type Info struct {
	Hits     uint64
	Misses   uint64
	MaxSize  int // Unlimited when no bound is configured
	CurrSize int
}

// Params reports the effective cache parameters a memoizer was built with.
type Params struct {
	MaxSize int // Unlimited when no bound is configured
	Typed   bool
}

// FIFO memoizes fn with first-in-first-out eviction: when the store is
// full, the entry written earliest is dropped to make room.
func FIFO[V any](fn Func[V], cfg Config) (*Memo[V], error) {
	return newMemo(fn, cfg, PolicyFIFO)
}

// LRU memoizes fn with least-recently-used eviction: every read refreshes
// the entry's recency, and the entry read least recently is dropped when the
// store is full. Each read costs an extra server-side copy (see
// Store.Touch).
func LRU[V any](fn Func[V], cfg Config) (*Memo[V], error) {
	return newMemo(fn, cfg, PolicyLRU)
}

// newMemo validates the configuration and binds one store to one function.
// Stores are never shared between memoizers; counters are per-memoizer even
// when two memoizers point at the same bucket.
func newMemo[V any](fn Func[V], cfg Config, policy Policy) (*Memo[V], error) {
	if fn == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "function is required")
	}

	store, err := NewStore(cfg, policy)
	if err != nil {
		return nil, err
	}

	return &Memo[V]{
		fn:      fn,
		store:   store,
		maxSize: cfg.maxSize(),
		typed:   cfg.Typed,
	}, nil
}

// Call invokes the memoized function. On a hit the stored result is
// returned and the function is not invoked. On a miss the function runs
// with the original arguments and its result is stored, evicting one entry
// first if the store is at its bound.
//
// Function errors propagate verbatim and nothing is stored; the miss is
// still counted. Failures while counting, evicting or storing also
// propagate — only reads are soft.
func (m *Memo[V]) Call(ctx context.Context, args ...any) (V, error) {
	key := cacheKey(args, m.typed)

	if raw, ok := m.store.Get(ctx, key); ok {
		var v V
		if err := json.Unmarshal(raw, &v); err == nil {
			m.hits.Add(1)
			return v, nil
		}
		// Stored payload does not decode into V: fall through and recompute
	}
	m.misses.Add(1)

	v, err := m.fn(ctx, args...)
	if err != nil {
		var zero V
		return zero, err
	}

	if m.maxSize > 0 {
		n, err := m.store.Count(ctx)
		if err != nil {
			var zero V
			return zero, err
		}
		if n >= m.maxSize {
			if err := m.store.EvictOne(ctx, true); err != nil {
				var zero V
				return zero, err
			}
		}
	}

	if err := m.store.Put(ctx, key, v); err != nil {
		var zero V
		return zero, err
	}

	return v, nil
}

// Info reports cache statistics. Counting the live entries is a remote
// listing and can fail.
func (m *Memo[V]) Info(ctx context.Context) (Info, error) {
	n, err := m.store.Count(ctx)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		MaxSize:  m.exportedMaxSize(),
		CurrSize: n,
	}, nil
}

// Clear empties the store and resets both counters to zero. The counters
// are left untouched if clearing the store fails.
func (m *Memo[V]) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.hits.Store(0)
	m.misses.Store(0)
	return nil
}

// SetExpiration configures automatic deletion of entries older than days.
// Expiration is independent of the size bound. days must be a positive
// integer.
func (m *Memo[V]) SetExpiration(ctx context.Context, days int) error {
	return m.store.SetExpiration(ctx, days)
}

// ClearExpiration removes any configured expiration rule.
func (m *Memo[V]) ClearExpiration(ctx context.Context) error {
	return m.store.ClearExpiration(ctx)
}

// Parameters returns the effective cache parameters.
func (m *Memo[V]) Parameters() Params {
	return Params{
		MaxSize: m.exportedMaxSize(),
		Typed:   m.typed,
	}
}

func (m *Memo[V]) exportedMaxSize() int {
	if m.maxSize == 0 {
		return Unlimited
	}
	return m.maxSize
}
