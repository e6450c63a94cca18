// Package memoize provides function memoization backed by an S3-compatible
// object-storage bucket instead of process memory.
//
// A memoized function stores each result as one JSON object in a remote
// bucket, keyed by a digest of the call arguments. Results survive process
// restarts and can be shared by any process that can reach the bucket. Two
// eviction policies bound the number of stored entries, and an optional
// bucket lifecycle rule expires entries after a number of days.
//
// # Policies
//
// FIFO evicts the entry that was written earliest among those currently
// stored. LRU additionally refreshes an entry's recency on every read, so
// the entry evicted is the one read least recently. The storage substrate
// has no native "touch" primitive; LRU recency is refreshed by copying an
// object onto itself with replaced metadata, which updates its modification
// time.
//
// # Basic Usage
//
// Wrap a function and call it through the memoizer:
//
//	slow := func(ctx context.Context, args ...any) (int, error) {
//		n := args[0].(int)
//		return fib(n), nil
//	}
//
//	memo, err := memoize.FIFO(slow, memoize.Config{
//		Endpoint:  "localhost:9000",
//		Bucket:    "results",
//		AccessKey: "minioadmin",
//		SecretKey: "minioadmin",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	v, err := memo.Call(ctx, 40) // computed, stored
//	v, err = memo.Call(ctx, 40)  // served from the bucket
//
// Named arguments participate in the cache key in insertion order:
//
//	v, err = memo.Call(ctx, 40, memoize.Named{Name: "exact", Value: true})
//
// Inspect and manage the cache:
//
//	info, _ := memo.Info(ctx)       // hits, misses, maxsize, currsize
//	_ = memo.SetExpiration(ctx, 30) // expire entries after 30 days
//	_ = memo.Clear(ctx)             // drop all entries, zero the counters
//
// # Consistency
//
// The bucket is the only shared state. Concurrent callers may both miss and
// both compute; the last write wins. Eviction may race with insertion,
// leaving the store transiently above or below its bound. A transport
// failure while reading is indistinguishable from a miss: the wrapped
// function is re-invoked and the result re-stored. None of this is
// coordinated internally; callers needing strict coherency should layer
// their own locking above this package.
//
// Entries written by two differently-keyed functions sharing one bucket can
// collide. Use a distinct bucket, or set Config.Prefix to give each function
// its own key namespace.
package memoize
