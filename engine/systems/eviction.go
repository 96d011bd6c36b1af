package systems

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/packforge/loadstone/engine/core"
)

// EvictionPolicy decides when a zero-refcount cached entry is actually
// unloaded. The refcount mechanism itself never unloads; it only reports
// zero-crossings here.
type EvictionPolicy interface {
	// NoteUnused records that the entry's reference count reached zero
	// and returns the cache keys that should be evicted now.
	NoteUnused(path string) []string
	// NoteUsed records that a previously unused entry was reacquired.
	NoteUsed(path string)
	// Forget drops any bookkeeping for an entry removed from the cache.
	Forget(path string)
	Reset()
}

// KeepAllPolicy never evicts: released entries stay cached for reuse
// until removed explicitly. This is the default.
type KeepAllPolicy struct{}

func (KeepAllPolicy) NoteUnused(path string) []string { return nil }
func (KeepAllPolicy) NoteUsed(path string)            {}
func (KeepAllPolicy) Forget(path string)              {}
func (KeepAllPolicy) Reset()                          {}

// LRUPolicy keeps at most capacity zero-refcount entries cached, evicting
// the least recently released ones first.
type LRUPolicy struct {
	idle *lru.Cache[string, struct{}]
	// keys pushed out during the current Add; the lru fires its callback
	// synchronously
	pending  []string
	suppress bool
}

func NewLRUPolicy(capacity int) (*LRUPolicy, error) {
	p := &LRUPolicy{}
	idle, err := lru.NewWithEvict[string, struct{}](capacity, func(key string, _ struct{}) {
		if !p.suppress {
			p.pending = append(p.pending, key)
		}
	})
	if err != nil {
		return nil, err
	}
	p.idle = idle
	return p, nil
}

func (p *LRUPolicy) NoteUnused(path string) []string {
	p.pending = nil
	p.idle.Add(path, struct{}{})
	if len(p.pending) > 0 {
		core.LogDebug("eviction policy pushing out %d idle entries", len(p.pending))
	}
	return p.pending
}

func (p *LRUPolicy) NoteUsed(path string) {
	p.remove(path)
}

func (p *LRUPolicy) Forget(path string) {
	p.remove(path)
}

func (p *LRUPolicy) Reset() {
	p.suppress = true
	p.idle.Purge()
	p.suppress = false
}

// remove takes a key out without treating it as an eviction.
func (p *LRUPolicy) remove(path string) {
	p.suppress = true
	p.idle.Remove(path)
	p.suppress = false
}
