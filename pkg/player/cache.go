package player

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/driftwall/driftwall/pkg/imaging"
)

// sharedEntry pairs a decoded Animation with the monotonic start
// timestamp every output playing it shares, so two outputs showing
// the same animation stay within a few milliseconds of each other
// (spec.md §4.C "Synchronization across outputs", §8 scenario 3).
type sharedEntry struct {
	anim  *imaging.Animation
	start time.Time
}

// Cache is the in-process decode cache keyed by request fingerprint /
// content hash (spec.md §4.E). It is a thin wrapper around ristretto
// so hot animations survive repeated `img` requests for the same
// content without re-decoding, bounded by estimated decoded size.
type Cache struct {
	rc *ristretto.Cache[string, *sharedEntry]
}

// NewCache builds a cache capped at maxCostBytes of estimated decoded
// animation size (anchor + every frame's delta).
func NewCache(maxCostBytes int64) (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, *sharedEntry]{
		NumCounters: maxCostBytes / 100, // ~100 bytes/entry cost estimate, ristretto's own sizing heuristic
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{rc: rc}, nil
}

func animCost(a *imaging.Animation) int64 {
	cost := int64(len(a.Anchor.Pix))
	for _, f := range a.Frames {
		cost += int64(len(f.Delta))
	}
	return cost
}

// GetOrStart returns the cached (Animation, start-time) pair for key,
// creating one with the given start time if absent. Two outputs
// racing to start the same animation within the same poll tick both
// get the same start time because this runs only on the event-loop
// thread (spec.md §5 "no lock is needed").
func (c *Cache) GetOrStart(key string, anim *imaging.Animation, now time.Time) (*imaging.Animation, time.Time) {
	if v, ok := c.rc.Get(key); ok {
		return v.anim, v.start
	}
	entry := &sharedEntry{anim: anim, start: now}
	c.rc.Set(key, entry, animCost(anim))
	c.rc.Wait()
	return anim, now
}

// Close releases the underlying cache.
func (c *Cache) Close() {
	c.rc.Close()
}
