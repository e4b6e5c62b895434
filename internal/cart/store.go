package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kvstore"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store is the single writer of one cart key. Every mutation is persisted
// before it becomes visible in memory or to subscribers.
type Store struct {
	kv   kvstore.Store
	key  string
	logg *logger.Logger

	mu    sync.Mutex
	lines []Line
	hub   *hub
}

type Option func(*Store)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewStore loads the snapshot under key. A missing, unreadable or corrupted
// snapshot starts the cart empty.
func NewStore(ctx context.Context, kv kvstore.Store, key string, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if key == "" {
		return nil, fmt.Errorf("cart key required")
	}
	s := &Store{
		kv:    kv,
		key:   key,
		logg:  logger.Nop(),
		lines: []Line{},
		hub:   newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "cart_key", s.key)
	blob, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	if err != nil {
		s.logg.Error(ctx, "reading cart snapshot failed, starting empty", err)
		return
	}
	lines, err := Decode(blob)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding unparsable cart snapshot")
		return
	}
	s.lines = lines
}

// Key returns the durable key this store owns.
func (s *Store) Key() string {
	return s.key
}

// Add merges quantity into the line for product, or appends a new line.
// Stock is not checked.
func (s *Store) Add(ctx context.Context, product *catalog.Product, quantity int) error {
	if err := validateAdd(product, quantity); err != nil {
		return err
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		return merge(lines, product, quantity), nil
	})
}

// AddChecked is Add that refuses to take the line above the product's stock.
func (s *Store) AddChecked(ctx context.Context, product *catalog.Product, quantity int) error {
	if err := validateAdd(product, quantity); err != nil {
		return err
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		existing := 0
		if i := indexOf(lines, product.ProductID); i >= 0 {
			existing = lines[i].Quantity
		}
		if existing+quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").WithDetails(map[string]any{
				"productId": product.ProductID,
				"requested": existing + quantity,
				"available": product.Stock,
			})
		}
		return merge(lines, product, quantity), nil
	})
}

// RemoveAt deletes the line at index.
func (s *Store) RemoveAt(ctx context.Context, index int) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		if index < 0 || index >= len(lines) {
			return nil, outOfRange(index, len(lines))
		}
		return append(lines[:index], lines[index+1:]...), nil
	})
}

// RemoveProduct deletes the line holding productID.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d is not in the cart", productID))
		}
		return append(lines[:i], lines[i+1:]...), nil
	})
}

// UpdateQuantity replaces the quantity of the line at index.
func (s *Store) UpdateQuantity(ctx context.Context, index, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		if index < 0 || index >= len(lines) {
			return nil, outOfRange(index, len(lines))
		}
		lines[index].Quantity = quantity
		return lines, nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]Line) ([]Line, error) {
		return []Line{}, nil
	})
}

// Snapshot returns a copy of the current lines.
func (s *Store) Snapshot() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Subscribe delivers the current lines immediately and again after every mutation.
func (s *Store) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.subscribe(cloneLines(s.lines))
}

// Total sums every line's subtotal.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Count sums the quantities of all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

func (s *Store) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Close ends every open subscription.
func (s *Store) Close() {
	s.hub.closeAll()
}

func (s *Store) mutate(ctx context.Context, fn func(lines []Line) ([]Line, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneLines(s.lines))
	if err != nil {
		return err
	}
	blob, err := Encode(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.lines = next
	s.hub.publish(next)
	return nil
}

func validateAdd(product *catalog.Product, quantity int) error {
	if product == nil || product.ProductID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func merge(lines []Line, product *catalog.Product, quantity int) []Line {
	if i := indexOf(lines, product.ProductID); i >= 0 {
		lines[i].Quantity += quantity
		return lines
	}
	return append(lines, Line{Product: product.Detached(), Quantity: quantity})
}

func indexOf(lines []Line, productID int64) int {
	for i, line := range lines {
		if line.Product != nil && line.Product.ProductID == productID {
			return i
		}
	}
	return -1
}

func outOfRange(index, size int) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line %d out of range", index)).
		WithDetails(map[string]any{"index": index, "size": size})
}
