package memory

import (
	"sync"
	"time"

	"ai-fitness-be/internal/repository"
	"ai-fitness-be/pkg/workout"

	"github.com/patrickmn/go-cache"
)

// ExpiredFunc is called for a session that outlived the registry TTL without
// being removed by its connection.
type ExpiredFunc func(session *workout.Session)

type SessionRepository struct {
	cache *cache.Cache

	// Serialises Create/Remove.
	mu sync.Mutex

	onExpired ExpiredFunc
}

// NewSessionRepository creates the registry. A ttl of 0 keeps sessions until
// their connection closes; otherwise expired sessions are purged every
// cleanup interval and reported to onExpired.
func NewSessionRepository(ttl time.Duration, onExpired ExpiredFunc) *SessionRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 10
		if cleanup < time.Second {
			cleanup = time.Second
		}
	}

	r := &SessionRepository{
		cache:     cache.New(expiration, cleanup),
		onExpired: onExpired,
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

func (r *SessionRepository) Create(connID string) (*workout.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := workout.NewSession(connID)
	if err := r.cache.Add(connID, session, cache.DefaultExpiration); err != nil {
		return nil, repository.ErrSessionExists
	}
	return session, nil
}

func (r *SessionRepository) Get(connID string) (*workout.Session, bool) {
	if x, found := r.cache.Get(connID); found {
		return x.(*workout.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Remove(connID string) (*workout.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(connID)
	if !found {
		return nil, false
	}
	session := x.(*workout.Session)
	// The janitor may have expired the session since Get; whoever releases
	// it first owns the teardown.
	released := session.Release()
	r.cache.Delete(connID)
	if !released {
		return nil, false
	}
	return session, true
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// evicted runs for both explicit deletes and TTL expiry. Sessions already
// released by Remove are skipped, so only expiry is forwarded.
func (r *SessionRepository) evicted(_ string, x interface{}) {
	session, ok := x.(*workout.Session)
	if !ok || !session.Release() {
		return
	}
	if r.onExpired != nil {
		r.onExpired(session)
	}
}
