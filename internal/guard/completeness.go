package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abisalde/student-portal/internal/appstate"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/pkg/logger"
)

type ProfileReader interface {
	Get(ctx context.Context, id string) (*models.UserProfile, error)
}

// CompletenessChecker answers "is this user's profile complete" from a short lived
// cache, fetching users/{id} at most once at a time per user.
type CompletenessChecker struct {
	profiles ProfileReader
	cache    *ristretto.Cache[string, bool]
	ttl      time.Duration
	group    singleflight.Group

	mu       sync.Mutex
	inFlight map[string]int
	gen      map[string]uint64
}

func NewCompletenessChecker(profiles ProfileReader, maxCost int64, ttl time.Duration) (*CompletenessChecker, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, bool]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("completeness cache: %w", err)
	}

	return &CompletenessChecker{
		profiles: profiles,
		cache:    cache,
		ttl:      ttl,
		inFlight: make(map[string]int),
		gen:      make(map[string]uint64),
	}, nil
}

// Cached returns the cached answer, if any.
func (c *CompletenessChecker) Cached(uid string) (complete, ok bool) {
	return c.cache.Get(uid)
}

// Check returns the cached answer or fetches the profile. A missing profile is incomplete.
func (c *CompletenessChecker) Check(ctx context.Context, uid string) (bool, error) {
	if complete, ok := c.cache.Get(uid); ok {
		return complete, nil
	}

	v, err, _ := c.group.Do(uid, func() (interface{}, error) {
		return c.fetch(ctx, uid)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Prefetch starts a background fetch unless one is already running.
func (c *CompletenessChecker) Prefetch(uid string) {
	if c.InFlight(uid) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.Check(ctx, uid); err != nil {
			logger.Warn("profile completeness prefetch failed", zap.String("uid", uid), zap.Error(err))
		}
	}()
}

func (c *CompletenessChecker) fetch(ctx context.Context, uid string) (bool, error) {
	c.mu.Lock()
	c.inFlight[uid]++
	gen := c.gen[uid]
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inFlight[uid]--; c.inFlight[uid] <= 0 {
			delete(c.inFlight, uid)
		}
		c.mu.Unlock()
	}()

	profile, err := c.profiles.Get(ctx, uid)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	complete := err == nil && profile.IsComplete()

	c.mu.Lock()
	current := c.gen[uid] == gen
	c.mu.Unlock()

	// an Invalidate during the fetch makes this answer stale
	if current {
		c.cache.SetWithTTL(uid, complete, 1, c.ttl)
		c.cache.Wait()
	}
	return complete, nil
}

// InFlight reports whether a profile fetch for uid is running.
func (c *CompletenessChecker) InFlight(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[uid] > 0
}

func (c *CompletenessChecker) Invalidate(uid string) {
	c.mu.Lock()
	c.gen[uid]++
	c.mu.Unlock()

	c.group.Forget(uid)
	c.cache.Del(uid)
}

// Watch drops cached answers whenever an identity signs in, re-syncs or signs out.
func (c *CompletenessChecker) Watch(state *appstate.Store) (unsubscribe func()) {
	return state.Subscribe(func(snap appstate.Snapshot) {
		if snap.UserID == "" || snap.Status == appstate.StatusReady {
			return
		}
		c.Invalidate(snap.UserID)
	})
}

func (c *CompletenessChecker) Close() {
	c.cache.Close()
}
