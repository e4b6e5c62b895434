package orders

import (
	"errors"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Item is one order line. Price is captured when the order is built so later
// catalog price changes do not rewrite history.
type Item struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
	Price    decimal.Decimal  `json:"price"`
}

// Order is submitted once per committed checkout and not modified afterwards.
type Order struct {
	OrderID    int64             `json:"orderId,omitempty"`
	OrderDate  time.Time         `json:"orderDate"`
	Status     enums.OrderStatus `json:"status"`
	OrderItems []Item            `json:"orderItems"`

	// IdempotencyKey travels as a request header, not in the body.
	IdempotencyKey string `json:"-"`
}

// NewItem snapshots product and its current price.
func NewItem(product *catalog.Product, quantity int) Item {
	return Item{
		Product:  product.Detached(),
		Quantity: quantity,
		Price:    product.Price,
	}
}

// New builds a pending order dated at placedAt.
func New(items []Item, placedAt time.Time, idempotencyKey string) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order requires at least one item")
	}
	for _, item := range items {
		if item.Product == nil {
			return nil, errors.New("order item requires a product")
		}
		if item.Quantity < 1 {
			return nil, errors.New("order item quantity must be at least 1")
		}
	}
	return &Order{
		OrderDate:      placedAt,
		Status:         enums.OrderStatusPending,
		OrderItems:     append([]Item(nil), items...),
		IdempotencyKey: idempotencyKey,
	}, nil
}

// Total sums price times quantity across all items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
