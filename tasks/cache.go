package tasks

import (
	"adicare.it/ace/redis"
	"fmt"
)

const ResponsesDB redis.DB = 3

// ResponseCache memoizes collaborator outputs keyed by a content hash, so a
// re-run over the same notes and model does not hit the endpoint again.
type ResponseCache struct {
	client redis.Client
}

func (cache ResponseCache) Get(key uint64) ([]byte, bool) {
	b, found, err := cache.client.GetBytes(cacheKey(key))
	if err != nil || !found {
		return nil, false
	}
	return b, true
}

func (cache ResponseCache) Set(key uint64, value []byte) error {
	return cache.client.SetBytes(cacheKey(key), value)
}

func cacheKey(key uint64) string {
	return fmt.Sprintf("llm-response:%016x", key)
}
