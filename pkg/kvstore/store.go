// Package kvstore provides the session-scoped durable key/value surface the
// cart and credential source persist into.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store persists opaque string blobs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is an opened Store together with its resources.
type Backend struct {
	Store
	Driver enums.StoreDriver
	ping   func(ctx context.Context) error
	close  func() error
}

// Ping reports backend health. The memory driver is always healthy.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the backend connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config, logg *logger.Logger) (*Backend, error) {
	driver, err := cfg.Store.ParsedDriver()
	if err != nil {
		return nil, err
	}
	ttl := cfg.Store.SessionTTL

	switch {
	case driver == enums.StoreDriverMemory:
		return &Backend{Store: NewMemory(ttl), Driver: driver}, nil

	case driver == enums.StoreDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return &Backend{
			Store:  NewRedis(client, ttl),
			Driver: driver,
			ping:   client.Ping,
			close:  client.Close,
		}, nil

	case driver.IsSQL():
		client, err := db.New(ctx, driver, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", driver, err)
		}
		store, err := NewSQL(ctx, client.DB(), ttl)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Backend{
			Store:  store,
			Driver: driver,
			ping:   client.Ping,
			close:  client.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", driver)
}

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}
