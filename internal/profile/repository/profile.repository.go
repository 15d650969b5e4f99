package repository

import (
	"context"
	"sync"
	"time"

	"naskahweb/internal/profile/model"
)

// Store is the resolved-user cache. Entries are partitioned by owner, the id
// of the signed-in user whose token fetched them, so one session never reads
// another's results. A miss is (zero, false, nil); errors are reserved for a
// broken backing store.
type Store interface {
	Get(ctx context.Context, owner, id string) (model.UserProfile, bool, error)
	Put(ctx context.Context, owner string, profile model.UserProfile) error
}

type memoryEntry struct {
	profile model.UserProfile
	expires time.Time
}

type memorySession struct {
	profiles map[string]memoryEntry
	lastUsed time.Time
}

// MemoryStore keeps one profile map per owner. Entries expire after ttl and
// an owner idle for longer than ttl is dropped whole. A zero ttl never expires.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, owner, id string) (model.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[owner]
	if !ok {
		return model.UserProfile{}, false, nil
	}
	sess.lastUsed = now

	e, ok := sess.profiles[id]
	if !ok {
		return model.UserProfile{}, false, nil
	}
	if s.ttl > 0 && !now.Before(e.expires) {
		delete(sess.profiles, id)
		return model.UserProfile{}, false, nil
	}
	return e.profile, true, nil
}

func (s *MemoryStore) Put(_ context.Context, owner string, profile model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	sess, ok := s.sessions[owner]
	if !ok {
		sess = &memorySession{profiles: make(map[string]memoryEntry)}
		s.sessions[owner] = sess
	}
	sess.lastUsed = now
	sess.profiles[profile.ID] = memoryEntry{profile: profile, expires: now.Add(s.ttl)}
	return nil
}

// sweep drops owners that have been idle for a full ttl. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for owner, sess := range s.sessions {
		if now.Sub(sess.lastUsed) >= s.ttl {
			delete(s.sessions, owner)
		}
	}
}

// Len counts the cached entries across all owners, expired ones included
// until they are read or swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		n += len(sess.profiles)
	}
	return n
}

// Sessions reports how many owners currently hold a cache.
func (s *MemoryStore) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
