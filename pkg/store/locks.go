package store

import (
	"hash/fnv"
	"sync"
)

// Striped record locks. Pebble batches give atomic commit but not
// read-modify-write isolation, so mutations that read a record before
// rewriting it (conversation recency pointer, reaction toggles, pairwise
// creation) serialize on the lock for their key. Striping keeps the lock
// table fixed-size under any number of records.

const lockStripes = 128

var stripes [lockStripes]sync.Mutex

func stripeFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &stripes[h.Sum32()%lockStripes]
}

// Lock acquires the stripe lock covering key and returns the unlock func.
func Lock(key string) func() {
	mu := stripeFor(key)
	mu.Lock()
	return mu.Unlock
}

// LockPair acquires the stripe lock covering the canonical pair key for two
// user ids. getOrCreate serializes its check-then-insert behind this lock so
// concurrent calls for the same pair can never create two conversations.
func LockPair(a, b string) func() {
	return Lock(PairKey(a, b))
}
