package service

import (
	"context"
	"errors"

	"naskahweb/internal/profile/model"
	"naskahweb/internal/profile/repository"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

// UserLookup fetches a user's profile fields from the backend.
type UserLookup interface {
	GetUser(ctx context.Context, token, id string) (*model.BackendUser, error)
}

// ProfileService turns participant ids into display profiles. It is total:
// every id yields exactly one profile and no failure is ever returned.
type ProfileService struct {
	Store       repository.Store
	Lookup      UserLookup
	Concurrency int
}

func NewProfileService(store repository.Store, lookup UserLookup) *ProfileService {
	return &ProfileService{Store: store, Lookup: lookup, Concurrency: defaultConcurrency}
}

// Resolve returns one profile per id, in input order. The ids are resolved
// concurrently and the call returns once all of them are done.
func (s *ProfileService) Resolve(ctx context.Context, self *model.Identity, ids []string) []model.UserProfile {
	profiles := make([]model.UserProfile, len(ids))

	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			profiles[i] = s.resolveOne(ctx, self, id)
			return nil
		})
	}
	_ = g.Wait()

	return profiles
}

func (s *ProfileService) resolveOne(ctx context.Context, self *model.Identity, id string) model.UserProfile {
	if self != nil && id == self.ID {
		return self.Profile()
	}
	// Without a signed-in session there is no cache to read and no token to
	// ask the backend with.
	if self == nil || self.ID == "" || self.Token == "" {
		return model.Placeholder(id)
	}

	cached, ok, err := s.Store.Get(ctx, self.ID, id)
	if err != nil {
		logger.Sugar.Warnf("Profile cache read failed for %s: %v", id, err)
	} else if ok {
		return cached
	}

	profile, cacheable := s.fetch(ctx, self.Token, id)
	if !cacheable {
		return profile
	}
	if err := s.Store.Put(ctx, self.ID, profile); err != nil {
		logger.Sugar.Warnf("Profile cache write failed for %s: %v", id, err)
	}
	return profile
}

// fetch asks the backend and falls back to a placeholder on any failure. Only
// a found user or a definite 404 is worth caching; anything else may succeed
// on the next attempt.
func (s *ProfileService) fetch(ctx context.Context, token, id string) (model.UserProfile, bool) {
	if s.Lookup == nil {
		return model.Placeholder(id), false
	}

	user, err := s.Lookup.GetUser(ctx, token, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			logger.Sugar.Debugf("User %s not found, using placeholder", id)
			return model.Placeholder(id), true
		}
		logger.Sugar.Warnf("User lookup failed for %s, using placeholder: %v", id, err)
		return model.Placeholder(id), false
	}
	return user.Profile(id), true
}
