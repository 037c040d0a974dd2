// Package handoff carries state between dashboard screens for one browser
// session. Entries expire after a TTL, and Take consumes an entry so a
// handoff is read at most once.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iqac-kare/feedback-dashboard/internal/cache"
)

// Key names a handoff slot
type Key string

const (
	KeyAnalysisResults Key = "analysis_results"
	KeyFacultyData     Key = "faculty_data"
	KeyFilters         Key = "filters"
	KeyFacultyList     Key = "faculty_list"
	KeyStaffIDSearch   Key = "staff_id_search"

	// KeyResultsView holds the results screen state after the handoff was consumed
	KeyResultsView Key = "results_view"
)

// ErrNotFound is returned when a slot is empty or expired
var ErrNotFound = errors.New("handoff entry not found")

type Store interface {
	Put(ctx context.Context, sessionID string, key Key, value interface{}) error
	Peek(ctx context.Context, sessionID string, key Key, dest interface{}) error
	Take(ctx context.Context, sessionID string, key Key, dest interface{}) error
	Clear(ctx context.Context, sessionID string, keys ...Key) error
	ClearSession(ctx context.Context, sessionID string) error
}

type cacheStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

// NewStore builds a Store on any CacheService (redis in production, memory in development)
func NewStore(c cache.CacheService, ttl time.Duration) Store {
	return &cacheStore{cache: c, ttl: ttl}
}

func (s *cacheStore) Put(ctx context.Context, sessionID string, key Key, value interface{}) error {
	if sessionID == "" {
		return fmt.Errorf("handoff put %s: empty session id", key)
	}
	return s.cache.Set(ctx, storageKey(sessionID, key), value, s.ttl)
}

func (s *cacheStore) Peek(ctx context.Context, sessionID string, key Key, dest interface{}) error {
	return translate(s.cache.Get(ctx, storageKey(sessionID, key), dest))
}

func (s *cacheStore) Take(ctx context.Context, sessionID string, key Key, dest interface{}) error {
	return translate(s.cache.Take(ctx, storageKey(sessionID, key), dest))
}

func (s *cacheStore) Clear(ctx context.Context, sessionID string, keys ...Key) error {
	storageKeys := make([]string, len(keys))
	for i, k := range keys {
		storageKeys[i] = storageKey(sessionID, k)
	}
	return s.cache.Delete(ctx, storageKeys...)
}

func (s *cacheStore) ClearSession(ctx context.Context, sessionID string) error {
	return s.cache.DeletePattern(ctx, fmt.Sprintf("handoff:%s:*", sessionID))
}

func storageKey(sessionID string, key Key) string {
	return fmt.Sprintf("handoff:%s:%s", sessionID, key)
}

func translate(err error) error {
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrNotFound
	}
	return err
}
