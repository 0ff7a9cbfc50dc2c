package engagement

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// keyedMutex serializes work per string key using a fixed set of striped
// locks. Two keys may share a stripe; unrelated keys almost never contend.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

// Lock acquires the stripe for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	shard := &k.shards[h.Sum32()%lockShards]
	shard.Lock()
	return shard.Unlock
}
