package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// SessionKey is the durable key of a session's cart.
func SessionKey(sessionID string) string {
	return "session:" + sessionID + ":shoppingCart"
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per session, created on first use. Stores
// idle for longer than the idle TTL are dropped.
type Registry struct {
	kv      kvstore.Store
	logg    *logger.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	stores    map[string]*registryEntry
	lastSweep time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL evicts stores not requested for ttl. Zero keeps them until Close.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

func withClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(kv kvstore.Store, logg *logger.Logger, opts ...RegistryOption) (*Registry, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	r := &Registry{kv: kv, logg: logg, now: time.Now, stores: make(map[string]*registryEntry)}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.now()
	return r, nil
}

// ForSession returns the session's store, loading it from the durable store
// the first time. A cached non-empty store whose durable entry has expired is
// replaced by a fresh load.
func (r *Registry) ForSession(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)

	if entry, ok := r.stores[sessionID]; ok {
		if !r.expired(ctx, entry.store) {
			entry.lastUsed = now
			return entry.store, nil
		}
		r.logg.Info(r.logg.WithSessionID(ctx, sessionID), "cart.session_expired")
		entry.store.Close()
		delete(r.stores, sessionID)
	}

	store, err := NewStore(r.logg.WithSessionID(ctx, sessionID), r.kv, SessionKey(sessionID), WithLogger(r.logg))
	if err != nil {
		return nil, err
	}
	r.stores[sessionID] = &registryEntry{store: store, lastUsed: now}
	return store, nil
}

// Len reports how many session stores are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close ends the subscriptions of every store handed out.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.stores {
		entry.store.Close()
		delete(r.stores, id)
	}
}

// expired reports whether store holds lines its durable entry no longer has.
func (r *Registry) expired(ctx context.Context, store *Store) bool {
	if store.empty() {
		return false
	}
	_, err := r.kv.Get(ctx, store.Key())
	if errors.Is(err, kvstore.ErrNotFound) {
		return true
	}
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "cart.session_check_failed")
	}
	return false
}

// sweep must be called with r.mu held.
func (r *Registry) sweep(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	r.lastSweep = now
	for id, entry := range r.stores {
		if now.Sub(entry.lastUsed) >= r.idleTTL {
			entry.store.Close()
			delete(r.stores, id)
		}
	}
}
