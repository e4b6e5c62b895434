package controllers

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
)

// CatalogService refreshes and serves the reconciled catalog.
type CatalogService interface {
	Refresh(ctx context.Context) (*catalog.Catalog, error)
	Current() *catalog.Catalog
}

// CartProvider resolves the cart store owned by a session.
type CartProvider interface {
	ForSession(ctx context.Context, sessionID string) (*cart.Store, error)
}

// CheckoutRunner executes one checkout.
type CheckoutRunner interface {
	Execute(ctx context.Context, source checkout.CartSource, cat *catalog.Catalog) (*checkout.Result, error)
}

// TokenStore keeps the bearer token of the session in the context.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
