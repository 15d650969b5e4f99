package service

import (
	"context"
	"sync"
	"time"

	"naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/logger"
)

const (
	DefaultDelay = 300 * time.Millisecond
	DefaultLimit = 10
	DefaultIdle  = 10 * time.Minute
)

// UserSearcher queries the backend's user search endpoint.
type UserSearcher interface {
	SearchUsers(ctx context.Context, token, query string, limit int) ([]model.UserSearchResult, error)
}

// MentionService suggests emails for "@mention" input. Each instance owns a
// single debounce timer, so there is at most one pending search per instance.
type MentionService struct {
	Searcher  UserSearcher
	Limit     int
	debouncer *Debouncer
}

func NewMentionService(searcher UserSearcher, delay time.Duration, limit int) *MentionService {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MentionService{Searcher: searcher, Limit: limit, debouncer: NewDebouncer(delay)}
}

type suggestion struct {
	emails []string
	err    error
}

// Suggest waits out the debounce delay and then searches for text. A call
// replaced by a newer one before it fires, or whose answer arrives after a
// newer call was made, returns apperror.ErrSuperseded. Backend failures
// yield an empty result.
func (s *MentionService) Suggest(ctx context.Context, token, text, roomID string) ([]string, error) {
	if text == "" {
		s.debouncer.Invalidate()
		return []string{}, nil
	}

	done := make(chan suggestion, 1)
	gen := s.debouncer.Schedule(
		func(gen uint64) {
			emails := s.search(ctx, token, text, roomID)
			if s.debouncer.Generation() != gen {
				done <- suggestion{err: apperror.ErrSuperseded}
				return
			}
			done <- suggestion{emails: emails}
		},
		func() { done <- suggestion{err: apperror.ErrSuperseded} },
	)

	select {
	case res := <-done:
		return res.emails, res.err
	case <-ctx.Done():
		s.debouncer.CancelGeneration(gen)
		return nil, ctx.Err()
	}
}

func (s *MentionService) search(ctx context.Context, token, text, roomID string) []string {
	users, err := s.Searcher.SearchUsers(ctx, token, text, s.Limit)
	if err != nil {
		logger.Sugar.Warnf("Error resolving mention suggestions in room %s: %v", roomID, err)
		return []string{}
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails
}

type registryEntry struct {
	svc      *MentionService
	lastUsed time.Time
}

// Registry hands out one MentionService per user and room, so a user typing
// in two documents never supersedes their own requests. Entries unused for
// Idle with nothing pending are dropped on the next lookup.
type Registry struct {
	searcher UserSearcher
	delay    time.Duration
	limit    int
	Idle     time.Duration

	mu       sync.Mutex
	services map[string]*registryEntry
	now      func() time.Time
}

func NewRegistry(searcher UserSearcher, delay time.Duration, limit int) *Registry {
	return &Registry{
		searcher: searcher,
		delay:    delay,
		limit:    limit,
		Idle:     DefaultIdle,
		services: make(map[string]*registryEntry),
		now:      time.Now,
	}
}

func registryKey(userID, roomID string) string {
	return userID + "\x00" + roomID
}

func (r *Registry) For(userID, roomID string) *MentionService {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	key := registryKey(userID, roomID)
	e, ok := r.services[key]
	if !ok {
		e = &registryEntry{svc: NewMentionService(r.searcher, r.delay, r.limit)}
		r.services[key] = e
	}
	e.lastUsed = now
	return e.svc
}

// Len reports how many services are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.services)
}

func (r *Registry) evictIdleLocked(now time.Time) {
	if r.Idle <= 0 {
		return
	}
	for key, e := range r.services {
		if now.Sub(e.lastUsed) >= r.Idle && !e.svc.debouncer.Pending() {
			delete(r.services, key)
		}
	}
}
