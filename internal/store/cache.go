package store

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// wordCache mirrors committed token<->id pairs. Ids are never reassigned, so
// entries never go stale; only values read outside a write transaction are
// admitted.
type wordCache struct {
	byToken *ristretto.Cache[string, int64]
	byID    *ristretto.Cache[int64, string]
}

const wordCacheSize = 50000

func newWordCache() (*wordCache, error) {
	byToken, err := ristretto.NewCache(&ristretto.Config[string, int64]{
		NumCounters: wordCacheSize * 10,
		MaxCost:     wordCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	byID, err := ristretto.NewCache(&ristretto.Config[int64, string]{
		NumCounters: wordCacheSize * 10,
		MaxCost:     wordCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		byToken.Close()
		return nil, fmt.Errorf("id cache: %w", err)
	}
	return &wordCache{byToken: byToken, byID: byID}, nil
}

func (c *wordCache) id(token string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	return c.byToken.Get(token)
}

func (c *wordCache) token(id int64) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.byID.Get(id)
}

func (c *wordCache) put(id int64, token string) {
	if c == nil {
		return
	}
	c.byToken.Set(token, id, 1)
	c.byID.Set(id, token, 1)
}

func (c *wordCache) close() {
	if c == nil {
		return
	}
	c.byToken.Close()
	c.byID.Close()
}
