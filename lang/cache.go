package lang

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// tokenCache stores tokenized sources keyed by the xxh3 hash of the source.
// Cached slices are shared and must be treated as read-only.
var tokenCache sync.Map

type cacheEntry struct {
	src  string
	toks []Token
}

// TokenizeCached is [Tokenize] backed by a process-wide cache, so repeated
// evaluation of the same source (includes, REPL history, config reloads)
// scans it once. Sources that fail to tokenize are not cached.
func TokenizeCached(src string) ([]Token, error) {
	key := cacheKey(src)

	if v, ok := tokenCache.Load(key); ok {
		if e := v.(*cacheEntry); e.src == src {
			return e.toks, nil
		}
	}

	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}

	tokenCache.Store(key, &cacheEntry{src: src, toks: toks})

	return toks, nil
}

func cacheKey(src string) uint64 {
	return xxh3.Hash([]byte(src))
}

// ClearCache clears the token cache.
// Useful for testing or when memory pressure requires cache eviction.
func ClearCache() {
	tokenCache.Clear()
}
