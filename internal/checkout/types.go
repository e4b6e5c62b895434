package checkout

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// Gateway is the remote surface a checkout mutates.
type Gateway interface {
	UpdateProduct(ctx context.Context, id int64, product *catalog.Product) (*catalog.Product, error)
	CreateOrder(ctx context.Context, order *orders.Order) (*orders.Order, error)
}

// CartSource is the cart being checked out.
type CartSource interface {
	Snapshot() []cart.Line
	Clear(ctx context.Context) error
	Key() string
}

// StockUpdate is the outcome of one product's stock decrement.
type StockUpdate struct {
	ProductID     int64
	PreviousStock int
	NewStock      int
	Err           error
	RolledBack    bool
	RollbackErr   error
}

// Applied reports whether the remote update succeeded.
func (u StockUpdate) Applied() bool {
	return u.Err == nil
}

// Result describes a finished checkout.
type Result struct {
	CheckoutID   string
	State        enums.CheckoutState
	StockUpdates []StockUpdate
	Order        *orders.Order
	// Cleared is set when the cart was emptied before Execute returned.
	Cleared bool
	// ClearScheduled is set when a delayed clear will run after the grace period.
	ClearScheduled bool
}

// Transition is one state change of a checkout.
type Transition struct {
	CheckoutID string
	From       enums.CheckoutState
	To         enums.CheckoutState
	At         time.Time
}

// TransitionHook observes every state change.
type TransitionHook func(ctx context.Context, transition Transition)
