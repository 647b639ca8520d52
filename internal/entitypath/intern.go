package entitypath

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// internCacheSize bounds the process-wide path intern cache. Recordings
// with vastly more distinct entity paths than this simply get fewer cache
// hits and more (correct, just non-deduplicated) allocations; it is a
// performance cache, not a source of truth.
const internCacheSize = 65536

// internedPath is the cached payload for a joined-parts key: the canonical
// backing slice plus its precomputed hash, so a cache hit costs one map
// lookup and no hashing.
type internedPath struct {
	parts []string
	hash  uint64
}

// internCache is a read-only-from-the-caller's-perspective cache keyed by a
// joined-parts string. It is initialized exactly once at package load and
// never reset, per the "explicit Registry, no ad hoc globals" design note:
// the cache itself is the only global, and it holds no information that
// isn't re-derivable from its key.
var internCache = mustNewCache()

func mustNewCache() *lru.Cache[string, internedPath] {
	c, err := lru.New[string, internedPath](internCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programmer error in the constant above, not a runtime condition.
		panic("entitypath: failed to construct intern cache: " + err.Error())
	}
	return c
}

func intern(parts []string) Path {
	key := joinKey(parts)
	if cached, ok := internCache.Get(key); ok {
		return Path{parts: cached.parts, hash: cached.hash}
	}

	canonical := make([]string, len(parts))
	copy(canonical, parts)
	entry := internedPath{parts: canonical, hash: hashParts(canonical)}
	internCache.Add(key, entry)
	return Path{parts: entry.parts, hash: entry.hash}
}

// joinKey builds a cache key that cannot collide between different part
// sequences (unlike a plain "/"-join, which would conflate ["a/b"] and
// ["a","b"]): each part is length-prefixed.
func joinKey(parts []string) string {
	var b []byte
	for _, p := range parts {
		b = appendUvarint(b, uint64(len(p)))
		b = append(b, p...)
	}
	return string(b)
}

func appendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}
