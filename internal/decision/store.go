package decision

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Store caches generated decisions by fingerprint. A reverse index from
// record id to fingerprints lets webhook-driven data changes evict exactly
// the decisions that depended on the changed record.
//
// Entries never expire on their own; InvalidateRecord and Clear are the
// only evictions.
type Store struct {
	cache *gocache.Cache

	mu       sync.Mutex
	byRecord map[string]map[string]struct{}
}

// NewStore creates an empty decision cache.
func NewStore() *Store {
	return &Store{
		cache:    gocache.New(gocache.NoExpiration, 0),
		byRecord: make(map[string]map[string]struct{}),
	}
}

// Get returns the cached decision for a fingerprint.
func (s *Store) Get(fingerprint string) (Decision, bool) {
	v, ok := s.cache.Get(fingerprint)
	if !ok {
		return Decision{}, false
	}
	return v.(Decision), true
}

// Put stores a decision under its fingerprint and indexes it by the ids of
// the records that produced it.
func (s *Store) Put(fingerprint string, d Decision, recordIDs []string) {
	s.cache.Set(fingerprint, d, gocache.NoExpiration)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range recordIDs {
		if id == "" {
			continue
		}
		set, ok := s.byRecord[id]
		if !ok {
			set = make(map[string]struct{})
			s.byRecord[id] = set
		}
		set[fingerprint] = struct{}{}
	}
}

// InvalidateRecord evicts every cached decision that used the given record.
// Returns the number of cache entries removed.
func (s *Store) InvalidateRecord(recordID string) int {
	s.mu.Lock()
	fingerprints := s.byRecord[recordID]
	delete(s.byRecord, recordID)
	s.mu.Unlock()

	removed := 0
	for fp := range fingerprints {
		if _, ok := s.cache.Get(fp); ok {
			s.cache.Delete(fp)
			removed++
		}
	}
	return removed
}

// Clear drops every cached decision and the record index.
func (s *Store) Clear() {
	s.cache.Flush()

	s.mu.Lock()
	s.byRecord = make(map[string]map[string]struct{})
	s.mu.Unlock()
}

// Size returns the number of cached decisions.
func (s *Store) Size() int {
	return s.cache.ItemCount()
}
