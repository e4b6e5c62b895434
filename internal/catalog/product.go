package catalog

import (
	"encoding/json"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductDetail is one ordered attribute/value pair shown on the product page.
type ProductDetail struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// CategoryRef is the id-only projection of a category used on the wire.
type CategoryRef struct {
	CategoryID int64 `json:"categoryId"`
}

// Product is a sellable item. Category is the in-memory back-reference set by
// Reconcile; it is never serialized. CategoryID carries the owning category's
// identity across the wire and into persisted carts.
type Product struct {
	ProductID      int64
	ProductName    string
	Description    string
	Price          decimal.Decimal
	Stock          int
	CategoryID     int64
	Category       *Category
	ProductDetails []ProductDetail
}

type productWire struct {
	ProductID      int64           `json:"productId"`
	ProductName    string          `json:"productName"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Category       *CategoryRef    `json:"category"`
	ProductDetails []ProductDetail `json:"productDetails"`
}

// CategoryRefID returns the owning category id, preferring the live back-reference.
func (p *Product) CategoryRefID() int64 {
	if p.Category != nil {
		return p.Category.CategoryID
	}
	return p.CategoryID
}

// StockLevel buckets the current stock for display.
func (p *Product) StockLevel() enums.StockLevel {
	return enums.StockLevelFor(p.Stock)
}

// Clone returns a copy that shares the category back-reference but no slices.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ProductDetails != nil {
		cp.ProductDetails = append([]ProductDetail(nil), p.ProductDetails...)
	}
	return &cp
}

// Detached returns a copy with the category reduced to its id, ready to be
// sent to the remote API or embedded in a cart line.
func (p *Product) Detached() *Product {
	cp := p.Clone()
	if cp == nil {
		return nil
	}
	cp.CategoryID = p.CategoryRefID()
	cp.Category = nil
	return cp
}

func (p Product) MarshalJSON() ([]byte, error) {
	wire := productWire{
		ProductID:      p.ProductID,
		ProductName:    p.ProductName,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		ProductDetails: p.ProductDetails,
	}
	if id := p.CategoryRefID(); id != 0 {
		wire.Category = &CategoryRef{CategoryID: id}
	}
	if wire.ProductDetails == nil {
		wire.ProductDetails = []ProductDetail{}
	}
	return json.Marshal(wire)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var wire productWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Product{
		ProductID:      wire.ProductID,
		ProductName:    wire.ProductName,
		Description:    wire.Description,
		Price:          wire.Price,
		Stock:          wire.Stock,
		ProductDetails: wire.ProductDetails,
	}
	if wire.Category != nil {
		p.CategoryID = wire.Category.CategoryID
	}
	return nil
}

// Category owns its products in the catalog graph.
type Category struct {
	CategoryID   int64      `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Products     []*Product `json:"products"`
}
